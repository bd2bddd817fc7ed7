// Package ethcodec implements spec.md §4.1 (the RLP codec) and §4.2
// (signature and address recovery): the two leaf layers that let the
// transcoder turn a raw `eth_sendRawTransaction` payload into a typed,
// sender-attributed transaction.
package ethcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"pjgateway/internal/domain"
)

// rlpTx mirrors the nine-field Ethereum transaction tuple. To, Data, R and S
// are raw byte strings rather than *common.Address/*big.Int so that "empty
// bytes denotes zero" and the R/S left-pad invariant stay explicit
// operations in this package instead of being done implicitly by go-ethereum
// RLP's struct tags. go-ethereum's struct decoder already rejects a list
// whose length doesn't match the field count and rejects non-canonical
// (leading-zero) integers, which is what gives the round-trip invariant in
// spec.md §8 for free on the decode side.
type rlpTx struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	To       []byte
	Value    *big.Int
	Data     []byte
	V        *big.Int
	R        []byte
	S        []byte
}

// rlpSigningMessage6 is the six-field tuple hashed for pre-EIP-155
// transactions (spec.md §4.2).
type rlpSigningMessage6 struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	To       []byte
	Value    *big.Int
	Data     []byte
}

// rlpSigningMessage9 is the nine-field tuple hashed for EIP-155
// transactions: the six above plus chainId, 0, 0.
type rlpSigningMessage9 struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	To       []byte
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
	Zero1    *big.Int
	Zero2    *big.Int
}

// DecodeRaw decodes a raw signed Ethereum transaction into an EthTx, left-
// padding R and S to 32 bytes, per spec.md §4.1 and §3.
func DecodeRaw(raw []byte) (*domain.EthTx, error) {
	var decoded rlpTx
	if err := rlp.DecodeBytes(raw, &decoded); err != nil {
		return nil, domain.NewDecodeError("rlp decode", err)
	}
	if len(decoded.To) != 0 && len(decoded.To) != 20 {
		return nil, domain.NewDecodeError("to field must be empty or 20 bytes", nil)
	}
	tx := &domain.EthTx{
		Nonce:    zeroIfNil(decoded.Nonce),
		GasPrice: zeroIfNil(decoded.GasPrice),
		GasLimit: zeroIfNil(decoded.GasLimit),
		To:       decoded.To,
		Value:    zeroIfNil(decoded.Value),
		Data:     decoded.Data,
		V:        zeroIfNil(decoded.V),
		R:        decoded.R,
		S:        decoded.S,
	}
	tx.LeftPadSignature()
	return tx, nil
}

// EncodeCanonical re-encodes the decoded EthTx using minimal-length integer
// encoding, for measuring RLP size (spec.md §4.4's size validator) and for
// the round-trip invariant in spec.md §8.
func EncodeCanonical(tx *domain.EthTx) ([]byte, error) {
	encoded, err := rlp.EncodeToBytes(&rlpTx{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		GasLimit: tx.GasLimit,
		To:       tx.To,
		Value:    tx.Value,
		Data:     tx.Data,
		V:        tx.V,
		R:        trimLeadingZeros(tx.R),
		S:        trimLeadingZeros(tx.S),
	})
	if err != nil {
		return nil, domain.NewDecodeError("rlp encode", err)
	}
	return encoded, nil
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}
