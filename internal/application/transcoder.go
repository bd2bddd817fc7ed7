// Package application implements spec.md §4.6 (the transcoder orchestrator)
// and §4.7 (the pending-view projector), wiring together ethcodec, polyjuice,
// validate, rolluprpc and domain exactly per the ten-step algorithm. It is
// the analogue of the teacher's internal/application package: the layer that
// orchestrates leaf packages without owning any transport of its own.
package application

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"pjgateway/internal/config"
	"pjgateway/internal/domain"
	"pjgateway/internal/ethcodec"
	"pjgateway/internal/polyjuice"
	"pjgateway/internal/validate"
)

// AccountResolver is the subset of the rollup RPC client the transcoder
// depends on (spec.md §4.5, §6). Defined here, implemented by
// rolluprpc.Client, so that tests can supply a fake without importing the
// HTTP transport.
type AccountResolver interface {
	AccountIDOf(ctx context.Context, address [20]byte) (uint32, bool, error)
	IsEoa(ctx context.Context, address [20]byte, id uint32) (bool, error)
	GetBalance(ctx context.Context, address [20]byte, sudtID uint32) (*big.Int, error)
}

// Transcoder turns a raw signed Ethereum transaction into a Godwoken
// L2Transaction, per spec.md §4.6.
type Transcoder struct {
	resolver AccountResolver
	cfg      config.Config
}

func NewTranscoder(resolver AccountResolver, cfg config.Config) *Transcoder {
	return &Transcoder{resolver: resolver, cfg: cfg}
}

// Result is the transcoder's output: the assembled L2Transaction, the
// recovered sender address (needed by the pending-view projector), and an
// auto-create-account cache entry, present only when the sender had no
// rollup account yet (spec.md §4.6 step 5).
type Result struct {
	L2Tx        domain.L2Transaction
	FromAddress [20]byte
	EthTxHash   [32]byte
	AutoCreate  *domain.AutoCreateAccountCacheEntry
	Tx          *domain.EthTx
}

// sudtIDForCKB is the native-token sudt id the balance checks use. Godwoken
// fixes this to 1 for the CKB-backed sudt; it has no corresponding
// configuration knob because it never varies per deployment.
const sudtIDForCKB = 1

// Transcode executes the ten-step algorithm of spec.md §4.6. It performs no
// partial side effects: the auto-create-account entry is only ever returned,
// never written, so an error return carries no implicit state change.
func (t *Transcoder) Transcode(ctx context.Context, raw []byte) (*Result, error) {
	// Step 1: decode.
	tx, err := ethcodec.DecodeRaw(raw)
	if err != nil {
		return nil, err
	}

	// Step 2: canonical re-encode, size check.
	canonical, err := ethcodec.EncodeCanonical(tx)
	if err != nil {
		return nil, err
	}
	if verr := validate.Size(len(canonical), t.cfg.MaxTransactionSize); verr != nil {
		return nil, verr
	}

	// Step 3: gas limit / gas price, before any RPC traffic.
	if verr := validate.GasLimit(tx.GasLimit, t.cfg.GasBounds); verr != nil {
		return nil, verr
	}
	if verr := validate.GasPrice(tx.GasPrice, t.cfg.GasBounds); verr != nil {
		return nil, verr
	}

	// Step 4: recover sender.
	fromAddress, err := ethcodec.RecoverAddress(tx)
	if err != nil {
		return nil, err
	}

	ethTxHash := crypto.Keccak256Hash(canonical)

	// Step 5: resolve sender account id.
	fromID, present, err := t.resolver.AccountIDOf(ctx, fromAddress)
	if err != nil {
		return nil, err
	}

	var autoCreate *domain.AutoCreateAccountCacheEntry
	if !present {
		balance, err := t.resolver.GetBalance(ctx, fromAddress, sudtIDForCKB)
		if err != nil {
			return nil, err
		}
		if insufficient := validate.BalanceSufficient(balance, tx.Value, tx.GasLimit, tx.GasPrice, addressHex(fromAddress)); insufficient != nil {
			return nil, insufficient
		}
		autoCreate = &domain.AutoCreateAccountCacheEntry{Tx: raw, FromAddress: fromAddress}
		fromID = t.cfg.AutoCreateAccountFromID
	}

	// Step 6: intrinsic gas and balance sufficiency.
	if verr := validate.IntrinsicGas(tx.GasLimit, tx.Data, tx.IsContractCreation()); verr != nil {
		return nil, verr
	}
	if present {
		balance, err := t.resolver.GetBalance(ctx, fromAddress, sudtIDForCKB)
		if err != nil {
			return nil, err
		}
		if insufficient := validate.BalanceSufficient(balance, tx.Value, tx.GasLimit, tx.GasPrice, addressHex(fromAddress)); insufficient != nil {
			return nil, insufficient
		}
	}

	// Step 7: classify recipient.
	isCreate := tx.IsContractCreation()
	var toID uint32
	var nativeTransfer bool
	var recipientAddress [20]byte
	if isCreate {
		toID = t.cfg.PolyjuiceCreatorAccountID
	} else {
		copy(recipientAddress[:], tx.To)
		toIDResolved, toPresent, err := t.resolver.AccountIDOf(ctx, recipientAddress)
		if err != nil {
			return nil, err
		}
		if !toPresent {
			nativeTransfer = true
			toID = t.cfg.PolyjuiceCreatorAccountID
		} else {
			isEoa, err := t.resolver.IsEoa(ctx, recipientAddress, toIDResolved)
			if err != nil {
				return nil, err
			}
			if isEoa {
				nativeTransfer = true
				toID = t.cfg.PolyjuiceCreatorAccountID
			} else {
				toID = toIDResolved
			}
		}
	}

	// Step 8: assemble args.
	args, err := polyjuice.EncodeArgs(polyjuice.EncodeParams{
		IsCreate:         isCreate,
		GasLimit:         tx.GasLimit,
		GasPrice:         tx.GasPrice,
		Value:            tx.Value,
		Input:            tx.Data,
		NativeTransfer:   nativeTransfer,
		RecipientAddress: recipientAddress,
	})
	if err != nil {
		return nil, err
	}

	// Step 9: chain-id selection.
	chainID := t.cfg.Web3ChainID
	if ethcodec.IsPreEIP155(tx.V) {
		chainID = 0
	}

	// Step 10: compose.
	signature, err := ethcodec.Signature65(tx)
	if err != nil {
		return nil, err
	}
	l2Tx := domain.L2Transaction{
		Raw: domain.RawL2Transaction{
			ChainID: chainID,
			FromID:  fromID,
			ToID:    toID,
			Nonce:   uint32(tx.Nonce.Uint64()),
			Args:    args,
		},
		Signature: signature,
	}

	return &Result{
		L2Tx:        l2Tx,
		FromAddress: fromAddress,
		EthTxHash:   ethTxHash,
		AutoCreate:  autoCreate,
		Tx:          tx,
	}, nil
}

func addressHex(address [20]byte) string {
	return common.Address(address).Hex()
}
