package domain

import "encoding/hex"

// Polyjuice args layout constants, per spec.md §3.
const (
	PolyjuiceMagicLen   = 7
	PolyjuiceHeaderLen  = 52
	PolyjuiceCallCreate = byte(0x03)
	PolyjuiceCallNormal = byte(0x00)
)

// PolyjuiceMagic is `0xFF 0xFF 0xFF` followed by ASCII "POLY".
var PolyjuiceMagic = [PolyjuiceMagicLen]byte{0xFF, 0xFF, 0xFF, 'P', 'O', 'L', 'Y'}

// PolyjuiceArgs is the typed view of a decoded Polyjuice args payload.
type PolyjuiceArgs struct {
	IsCreate bool
	GasLimit uint64
	GasPrice [16]byte // little-endian u128
	Value    [16]byte // little-endian u128
	Input    []byte
}

// RawL2Transaction is the rollup-native transaction envelope that Godwoken
// accepts, per spec.md §3.
type RawL2Transaction struct {
	ChainID uint64
	FromID  uint32
	ToID    uint32
	Nonce   uint32
	Args    []byte
}

// L2Transaction wraps a RawL2Transaction with the 65-byte r||s||v'
// signature spec.md §3 and §4.2 describe.
type L2Transaction struct {
	Raw       RawL2Transaction
	Signature [65]byte
}

// AutoCreateAccountCacheEntry is produced but never persisted by the core;
// the cache owner (see SPEC_FULL.md's auto-create-account pipeline) performs
// the actual write.
type AutoCreateAccountCacheEntry struct {
	Tx          []byte // raw RLP bytes of the original signed Ethereum transaction
	FromAddress [20]byte
}

// AutoCreateAccountCacheKey returns the "auto_create_account:0x<ethTxHash>" key spec.md §6
// prescribes.
func AutoCreateAccountCacheKey(ethTxHash [32]byte) string {
	return "auto_create_account:0x" + hex.EncodeToString(ethTxHash[:])
}
