package ethcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"pjgateway/internal/domain"
)

var (
	big27 = big.NewInt(27)
	big28 = big.NewInt(28)
	big35 = big.NewInt(35)
	big36 = big.NewInt(36)
	big2  = big.NewInt(2)
)

// IsPreEIP155 reports whether v is one of the two legacy recovery markers.
func IsPreEIP155(v *big.Int) bool {
	return v.Cmp(big27) == 0 || v.Cmp(big28) == 0
}

// ChainIDFromV derives the EIP-155 chain id folded into v, per spec.md §4.2.
// Callers must first check IsPreEIP155; a pre-EIP-155 v has no encoded chain
// id.
func ChainIDFromV(v *big.Int) *big.Int {
	// v is odd  => (v-35)/2, v is even => (v-36)/2
	odd := new(big.Int).And(v, big.NewInt(1)).Sign() != 0
	base := big36
	if odd {
		base = big35
	}
	chainID := new(big.Int).Sub(v, base)
	return chainID.Div(chainID, big2)
}

// SigningMessage reconstructs the EIP-155-aware signing message hash for tx,
// per spec.md §4.2.
func SigningMessage(tx *domain.EthTx) ([32]byte, error) {
	if IsPreEIP155(tx.V) {
		encoded, err := rlp.EncodeToBytes(&rlpSigningMessage6{
			Nonce:    tx.Nonce,
			GasPrice: tx.GasPrice,
			GasLimit: tx.GasLimit,
			To:       tx.To,
			Value:    tx.Value,
			Data:     tx.Data,
		})
		if err != nil {
			return [32]byte{}, domain.NewDecodeError("encode pre-eip155 signing message", err)
		}
		return crypto.Keccak256Hash(encoded), nil
	}

	chainID := ChainIDFromV(tx.V)
	encoded, err := rlp.EncodeToBytes(&rlpSigningMessage9{
		Nonce:    tx.Nonce,
		GasPrice: tx.GasPrice,
		GasLimit: tx.GasLimit,
		To:       tx.To,
		Value:    tx.Value,
		Data:     tx.Data,
		ChainID:  chainID,
		Zero1:    new(big.Int),
		Zero2:    new(big.Int),
	})
	if err != nil {
		return [32]byte{}, domain.NewDecodeError("encode eip155 signing message", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// RecoveryID maps v's parity to the secp256k1 recovery id, per spec.md §4.2:
// odd v recovers with id 0, even v recovers with id 1.
func RecoveryID(v *big.Int) byte {
	if new(big.Int).And(v, big.NewInt(1)).Sign() == 0 {
		return 1
	}
	return 0
}

// RecoverAddress recovers the signer's 20-byte Ethereum address from tx's
// signature and signing message, per spec.md §4.2.
func RecoverAddress(tx *domain.EthTx) ([20]byte, error) {
	message, err := SigningMessage(tx)
	if err != nil {
		return [20]byte{}, err
	}
	if len(tx.R) != 32 || len(tx.S) != 32 {
		return [20]byte{}, domain.NewSignatureError("malformed signature length", nil)
	}

	sig := make([]byte, 65)
	copy(sig[0:32], tx.R)
	copy(sig[32:64], tx.S)
	sig[64] = RecoveryID(tx.V)

	pubkey, err := crypto.SigToPub(message[:], sig)
	if err != nil {
		return [20]byte{}, domain.NewSignatureError("public key recovery failed", err)
	}

	var address [20]byte
	copy(address[:], crypto.PubkeyToAddress(*pubkey).Bytes())
	return address, nil
}

// Signature65 returns the r||s||v' signature handed to downstream
// consumers, per spec.md §3 and §4.2: v' is 0x01 when v is even, else 0x00.
func Signature65(tx *domain.EthTx) ([65]byte, error) {
	if len(tx.R) != 32 || len(tx.S) != 32 {
		return [65]byte{}, domain.NewSignatureError("malformed signature length", nil)
	}
	var out [65]byte
	copy(out[0:32], tx.R)
	copy(out[32:64], tx.S)
	if new(big.Int).And(tx.V, big.NewInt(1)).Sign() == 0 {
		out[64] = 0x01
	} else {
		out[64] = 0x00
	}
	return out, nil
}
