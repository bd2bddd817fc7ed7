// Package polyjuice implements spec.md §4.3: the fixed 52-byte header plus
// variable payload Godwoken expects in RawL2Transaction.args, and the
// decoder that reverses it.
package polyjuice

import (
	"encoding/binary"
	"math/big"

	"pjgateway/internal/domain"
)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// EncodeParams bundles the fields EncodeArgs lays out, per spec.md §3.
type EncodeParams struct {
	IsCreate         bool
	GasLimit         *big.Int
	GasPrice         *big.Int
	Value            *big.Int
	Input            []byte
	NativeTransfer   bool
	RecipientAddress [20]byte
}

// EncodeArgs lays out the 52-byte Polyjuice header plus payload exactly per
// spec.md §3, appending the recipient address only for native transfers.
func EncodeArgs(p EncodeParams) ([]byte, error) {
	if !p.GasLimit.IsUint64() {
		return nil, domain.NewDecodeError("gasLimit does not fit in u64", nil)
	}
	gasPriceLE, err := UInt128ToLeBytes(p.GasPrice)
	if err != nil {
		return nil, domain.NewDecodeError("gasPrice out of u128 range", err)
	}
	valueLE, err := UInt128ToLeBytes(p.Value)
	if err != nil {
		return nil, domain.NewDecodeError("value out of u128 range", err)
	}

	tail := 0
	if p.NativeTransfer {
		tail = 20
	}
	out := make([]byte, domain.PolyjuiceHeaderLen+len(p.Input)+tail)

	copy(out[0:7], domain.PolyjuiceMagic[:])
	if p.IsCreate {
		out[7] = domain.PolyjuiceCallCreate
	} else {
		out[7] = domain.PolyjuiceCallNormal
	}
	binary.LittleEndian.PutUint64(out[8:16], p.GasLimit.Uint64())
	copy(out[16:32], gasPriceLE[:])
	copy(out[32:48], valueLE[:])
	binary.LittleEndian.PutUint32(out[48:52], uint32(len(p.Input)))
	copy(out[52:52+len(p.Input)], p.Input)
	if p.NativeTransfer {
		copy(out[52+len(p.Input):], p.RecipientAddress[:])
	}
	return out, nil
}

// DecodeArgs validates the magic and the inputSize/len(args) relationship,
// and returns a typed view. It ignores any optional trailing 20-byte
// recipient address by design (spec.md §4.3): native-transfer recognition
// on the decode side is the caller's responsibility.
func DecodeArgs(args []byte) (*domain.PolyjuiceArgs, error) {
	if len(args) < domain.PolyjuiceHeaderLen {
		return nil, domain.NewDecodeError("args shorter than header", nil)
	}
	if !hasPolyjuiceMagic(args) {
		return nil, domain.NewDecodeError("bad polyjuice magic", nil)
	}

	inputSize := binary.LittleEndian.Uint32(args[48:52])
	if uint64(len(args)) != uint64(domain.PolyjuiceHeaderLen)+uint64(inputSize) {
		return nil, domain.NewDecodeError("args length does not match inputSize", nil)
	}

	view := &domain.PolyjuiceArgs{
		IsCreate: args[7] == domain.PolyjuiceCallCreate,
		GasLimit: binary.LittleEndian.Uint64(args[8:16]),
		Input:    args[52 : 52+inputSize],
	}
	copy(view.GasPrice[:], args[16:32])
	copy(view.Value[:], args[32:48])
	return view, nil
}

// hasPolyjuiceMagic reports whether args begins with the Polyjuice magic.
// This is the true polarity: it returns true when the magic DOES match,
// deliberately the inverse of spec.md §9's Open Question about the
// source's inverted `isPolyjuiceTransactionArgs` predicate — DecodeArgs
// rejects a mismatched magic rather than silently accepting it, and callers
// never see the inverted name.
func hasPolyjuiceMagic(args []byte) bool {
	for i := 0; i < domain.PolyjuiceMagicLen; i++ {
		if args[i] != domain.PolyjuiceMagic[i] {
			return false
		}
	}
	return true
}

// UInt128ToLeBytes encodes x as 16 little-endian bytes. It fails outside
// [0, 2^128), per spec.md §8.
func UInt128ToLeBytes(x *big.Int) ([16]byte, error) {
	var out [16]byte
	if x.Sign() < 0 || x.Cmp(maxUint128) > 0 {
		return out, domain.NewDecodeError("value out of uint128 range", nil)
	}
	b := x.Bytes() // big-endian, no leading zeros
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out, nil
}

// LeBytesToUInt128 reverses UInt128ToLeBytes.
func LeBytesToUInt128(b [16]byte) *big.Int {
	be := make([]byte, 16)
	for i, v := range b {
		be[15-i] = v
	}
	return new(big.Int).SetBytes(be)
}
