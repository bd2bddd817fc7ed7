package domain

import "math/big"

// EthTx is the decoded nine-field signed Ethereum transaction tuple. To, R,
// S and Data are kept as raw bytes so that "empty means zero" (for To: empty
// means contract creation) and the R/S left-pad-to-32 invariant stay
// explicit operations on the caller's side rather than being hidden inside a
// library type.
type EthTx struct {
	Nonce    *big.Int
	GasPrice *big.Int
	GasLimit *big.Int
	To       []byte // 20 bytes, or empty for contract creation
	Value    *big.Int
	Data     []byte
	V        *big.Int
	R        []byte // 32 bytes after normalization
	S        []byte // 32 bytes after normalization
}

// IsContractCreation reports whether the transaction has no recipient.
func (tx *EthTx) IsContractCreation() bool {
	return len(tx.To) == 0
}

// LeftPadSignature normalizes R and S to 32-byte big-endian strings by
// left-padding with zero bytes, per spec.md §3's EthTx invariant.
func (tx *EthTx) LeftPadSignature() {
	tx.R = leftPad32(tx.R)
	tx.S = leftPad32(tx.S)
}

func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}
