package application

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"pjgateway/internal/domain"
)

// PendingViewInputs bundles the accepted-but-unconfirmed context the
// projector needs, per spec.md §4.7.
type PendingViewInputs struct {
	EthTxHash      [32]byte
	TipBlockHash   [32]byte
	TipBlockNumber uint64
	FromAddress    [20]byte
	Tx             *domain.EthTx
}

// BumpBlockHash transforms a tip block hash into the distinct pending
// sentinel of spec.md §4.7: XOR the hash's last byte with 0x01. The result
// is deterministic and, in expectation, never collides with a real block
// hash; its exact bit pattern must be preserved since external consumers may
// key on it.
func BumpBlockHash(tip [32]byte) [32]byte {
	bumped := tip
	bumped[31] ^= 0x01
	return bumped
}

// PendingView projects inputs into the Ethereum-shaped JSON record returned
// for a transaction the gateway has accepted but that has not yet been
// included in a block, per spec.md §4.7.
func PendingView(in PendingViewInputs) domain.EthTransactionView {
	blockHash := BumpBlockHash(in.TipBlockHash)

	var to *string
	if !in.Tx.IsContractCreation() {
		addr := common.BytesToAddress(in.Tx.To).Hex()
		to = &addr
	}

	v := "0x0"
	if new(big.Int).And(in.Tx.V, big.NewInt(1)).Sign() == 0 {
		v = "0x1"
	}

	return domain.EthTransactionView{
		Hash:             common.Hash(in.EthTxHash).Hex(),
		BlockHash:        common.Hash(blockHash).Hex(),
		BlockNumber:      hexutil.EncodeUint64(in.TipBlockNumber + 1),
		TransactionIndex: domain.PendingTransactionIndex,
		From:             common.Address(in.FromAddress).Hex(),
		To:               to,
		Gas:              hexutil.EncodeBig(in.Tx.GasLimit),
		GasPrice:         hexutil.EncodeBig(in.Tx.GasPrice),
		Input:            hexutil.Encode(in.Tx.Data),
		Nonce:            hexutil.EncodeBig(in.Tx.Nonce),
		Value:            hexutil.EncodeBig(in.Tx.Value),
		V:                v,
		R:                hexutil.EncodeBig(new(big.Int).SetBytes(in.Tx.R)),
		S:                hexutil.EncodeBig(new(big.Int).SetBytes(in.Tx.S)),
	}
}
