package domain

import (
	"fmt"
	"math/big"
)

// DecodeError signals malformed RLP, the wrong field count, a bad Polyjuice
// magic, an input-size mismatch, or a Polyjuice header field out of range on
// encode. An oversized transaction is a ValidationError, not a DecodeError.
type DecodeError struct {
	Context string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode error: %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("decode error: %s", e.Context)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func NewDecodeError(context string, err error) *DecodeError {
	return &DecodeError{Context: context, Err: err}
}

// SignatureError signals a malformed signature length, an invalid recovery
// id, or a curve failure during public-key recovery.
type SignatureError struct {
	Context string
	Err     error
}

func (e *SignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signature error: %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("signature error: %s", e.Context)
}

func (e *SignatureError) Unwrap() error { return e.Err }

func NewSignatureError(context string, err error) *SignatureError {
	return &SignatureError{Context: context, Err: err}
}

// ValidationSubkind distinguishes the predicate that rejected a transaction.
type ValidationSubkind string

const (
	ValidationGasLimit  ValidationSubkind = "gas_limit"
	ValidationGasPrice  ValidationSubkind = "gas_price"
	ValidationIntrinsic ValidationSubkind = "intrinsic_gas"
	ValidationSize      ValidationSubkind = "size"
)

// ValidationError carries a context string that later stages may extend via
// PadContext, preserving the root cause.
type ValidationError struct {
	Subkind ValidationSubkind
	Context string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Subkind, e.Context)
}

func NewValidationError(subkind ValidationSubkind, context string) *ValidationError {
	return &ValidationError{Subkind: subkind, Context: context}
}

// PadContext concatenates additional context onto an error without losing
// the root cause. For *ValidationError it returns a new *ValidationError with
// the same Subkind and context prefixed to Context, leaving the original
// unchanged; for any other error it wraps with fmt.Errorf("%s: %w").
func PadContext(err error, context string) error {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*ValidationError); ok {
		return &ValidationError{Subkind: ve.Subkind, Context: context + ": " + ve.Context}
	}
	return fmt.Errorf("%s: %w", context, err)
}

// InsufficientBalance reports that the sender's balance cannot cover
// value + gasLimit*gasPrice.
type InsufficientBalance struct {
	Required *big.Int
	Got      *big.Int
	Address  string
}

func (e *InsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance for %s: required %s, got %s", e.Address, e.Required, e.Got)
}

// RecipientNotFound reports a contract-call recipient with no registered
// rollup account id.
type RecipientNotFound struct {
	Address string
}

func (e *RecipientNotFound) Error() string {
	return fmt.Sprintf("recipient not found: %s", e.Address)
}

// UpstreamError opaquely wraps a rollup-RPC transport failure. It is never
// retried by the core.
type UpstreamError struct {
	Context string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: %s: %v", e.Context, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func NewUpstreamError(context string, err error) *UpstreamError {
	return &UpstreamError{Context: context, Err: err}
}

// ConfigError signals missing required configuration at startup. Surfaced by
// the config loader, never by a request-time path.
type ConfigError struct {
	Context string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Context)
}

func NewConfigError(context string) *ConfigError {
	return &ConfigError{Context: context}
}
