package gatewayapi

import (
	"net/http"

	"pjgateway/internal/domain"
)

type errorKind int

const (
	kindUnknown errorKind = iota
	kindDecode
	kindSignature
	kindValidation
	kindInsufficientFunds
	kindRecipientNotFound
	kindUpstream
)

func classifyError(err error) errorKind {
	switch err.(type) {
	case *domain.DecodeError:
		return kindDecode
	case *domain.SignatureError:
		return kindSignature
	case *domain.ValidationError:
		return kindValidation
	case *domain.InsufficientBalance:
		return kindInsufficientFunds
	case *domain.RecipientNotFound:
		return kindRecipientNotFound
	case *domain.UpstreamError:
		return kindUpstream
	default:
		return kindUnknown
	}
}

// statusForError maps a transcoder error to the HTTP status a client should
// see: malformed input is a client error, an upstream failure is a gateway
// failure.
func statusForError(err error) int {
	switch classifyError(err) {
	case kindDecode, kindSignature, kindValidation, kindRecipientNotFound:
		return http.StatusBadRequest
	case kindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case kindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
