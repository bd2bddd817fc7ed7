package application

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"pjgateway/internal/config"
	"pjgateway/internal/domain"
	"pjgateway/internal/validate"
)

func testKey(t *testing.T, seed byte) *ecdsa.PrivateKey {
	t.Helper()
	var raw [32]byte
	raw[31] = seed
	key, err := crypto.ToECDSA(raw[:])
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	return key
}

func signedLegacyRaw(t *testing.T, key *ecdsa.PrivateKey, chainID int64, to *[20]byte, value, gasLimit int64, data []byte) []byte {
	t.Helper()

	var txData types.LegacyTx
	txData.Nonce = 7
	txData.GasPrice = big.NewInt(1_000_000_000)
	txData.Gas = uint64(gasLimit)
	txData.Value = big.NewInt(value)
	txData.Data = data
	if to != nil {
		addr := common.BytesToAddress(to[:])
		txData.To = &addr
	}

	tx := types.NewTx(&txData)

	var signer types.Signer
	if chainID == 0 {
		signer = types.HomesteadSigner{}
	} else {
		signer = types.NewEIP155Signer(big.NewInt(chainID))
	}

	signedTx, err := types.SignTx(tx, signer, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func defaultCfg() config.Config {
	return config.Config{
		Web3ChainID:               1,
		PolyjuiceCreatorAccountID: 3,
		AutoCreateAccountFromID:   0xFFFFFFFF,
		MaxTransactionSize:        128 * 1024,
		GasBounds: validate.GasBounds{
			MinGasLimit: big.NewInt(21000),
			MaxGasLimit: big.NewInt(12_500_000),
			MinGasPrice: big.NewInt(0),
		},
	}
}

type fakeResolver struct {
	accounts    map[[20]byte]uint32
	eoaByID     map[uint32]bool
	balances    map[[20]byte]*big.Int
	defaultBal  *big.Int
	errOnBal    error
	errOnID     error
}

func (f *fakeResolver) AccountIDOf(ctx context.Context, address [20]byte) (uint32, bool, error) {
	if f.errOnID != nil {
		return 0, false, f.errOnID
	}
	id, ok := f.accounts[address]
	return id, ok, nil
}

func (f *fakeResolver) IsEoa(ctx context.Context, address [20]byte, id uint32) (bool, error) {
	return f.eoaByID[id], nil
}

func (f *fakeResolver) GetBalance(ctx context.Context, address [20]byte, sudtID uint32) (*big.Int, error) {
	if f.errOnBal != nil {
		return nil, f.errOnBal
	}
	if bal, ok := f.balances[address]; ok {
		return bal, nil
	}
	if f.defaultBal != nil {
		return f.defaultBal, nil
	}
	return big.NewInt(0), nil
}

func TestTranscode_RegularCallWithKnownAccounts(t *testing.T) {
	senderKey := testKey(t, 0x01)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)

	var to [20]byte
	to[0] = 0x42
	raw := signedLegacyRaw(t, senderKey, 1, &to, 100, 21000, nil)

	var fromBytes, toBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())
	toBytes = to

	resolver := &fakeResolver{
		accounts: map[[20]byte]uint32{
			fromBytes: 10,
			toBytes:   20,
		},
		eoaByID: map[uint32]bool{20: false},
		balances: map[[20]byte]*big.Int{
			fromBytes: big.NewInt(1_000_000_000_000_000_000),
		},
	}

	tc := NewTranscoder(resolver, defaultCfg())
	result, err := tc.Transcode(context.Background(), raw)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if result.AutoCreate != nil {
		t.Fatal("expected no auto-create entry for known sender")
	}
	if result.L2Tx.Raw.FromID != 10 {
		t.Fatalf("expected from id 10, got %d", result.L2Tx.Raw.FromID)
	}
	if result.L2Tx.Raw.ToID != 20 {
		t.Fatalf("expected to id 20, got %d", result.L2Tx.Raw.ToID)
	}
	if result.L2Tx.Raw.ChainID != 1 {
		t.Fatalf("expected chain id 1, got %d", result.L2Tx.Raw.ChainID)
	}
	if result.FromAddress != fromBytes {
		t.Fatalf("from address mismatch")
	}
}

func TestTranscode_AutoCreateAccountWhenSenderUnknown(t *testing.T) {
	senderKey := testKey(t, 0x02)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	var fromBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())

	var to [20]byte
	to[0] = 0x99
	raw := signedLegacyRaw(t, senderKey, 1, &to, 0, 21000, nil)

	resolver := &fakeResolver{
		accounts: map[[20]byte]uint32{},
		defaultBal: big.NewInt(1_000_000_000_000_000_000),
	}

	tc := NewTranscoder(resolver, defaultCfg())
	result, err := tc.Transcode(context.Background(), raw)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if result.AutoCreate == nil {
		t.Fatal("expected auto-create entry for unknown sender")
	}
	if !bytes.Equal(result.AutoCreate.Tx, raw) {
		t.Fatal("expected auto-create entry to carry the original raw bytes")
	}
	if result.AutoCreate.FromAddress != fromBytes {
		t.Fatal("auto-create entry from address mismatch")
	}
	if result.L2Tx.Raw.FromID != 0xFFFFFFFF {
		t.Fatalf("expected sentinel from id, got %d", result.L2Tx.Raw.FromID)
	}
}

func TestTranscode_InsufficientBalanceRejected(t *testing.T) {
	senderKey := testKey(t, 0x03)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	var fromBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())

	var to [20]byte
	to[0] = 0x11
	raw := signedLegacyRaw(t, senderKey, 1, &to, 1_000_000, 21000, nil)

	resolver := &fakeResolver{
		accounts:   map[[20]byte]uint32{},
		defaultBal: big.NewInt(1),
	}

	tc := NewTranscoder(resolver, defaultCfg())
	_, err := tc.Transcode(context.Background(), raw)
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	if _, ok := err.(*domain.InsufficientBalance); !ok {
		t.Fatalf("expected *domain.InsufficientBalance, got %T", err)
	}
}

func TestTranscode_ContractCreation(t *testing.T) {
	senderKey := testKey(t, 0x04)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	var fromBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())

	raw := signedLegacyRaw(t, senderKey, 1, nil, 0, 100000, []byte{0x60, 0x00, 0x60, 0x00})

	resolver := &fakeResolver{
		accounts: map[[20]byte]uint32{fromBytes: 5},
		balances: map[[20]byte]*big.Int{fromBytes: big.NewInt(1_000_000_000_000_000_000)},
	}

	tc := NewTranscoder(resolver, defaultCfg())
	result, err := tc.Transcode(context.Background(), raw)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if result.L2Tx.Raw.ToID != 3 {
		t.Fatalf("expected creator account id 3, got %d", result.L2Tx.Raw.ToID)
	}
}

func TestTranscode_UnregisteredRecipientBecomesNativeTransfer(t *testing.T) {
	senderKey := testKey(t, 0x05)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	var fromBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())

	var to [20]byte
	to[0] = 0x77
	raw := signedLegacyRaw(t, senderKey, 1, &to, 100, 21000, nil)

	resolver := &fakeResolver{
		accounts: map[[20]byte]uint32{fromBytes: 5},
		balances: map[[20]byte]*big.Int{fromBytes: big.NewInt(1_000_000_000_000_000_000)},
	}

	tc := NewTranscoder(resolver, defaultCfg())
	result, err := tc.Transcode(context.Background(), raw)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if result.L2Tx.Raw.ToID != 3 {
		t.Fatalf("expected creator account id fallback for native transfer, got %d", result.L2Tx.Raw.ToID)
	}
}

func TestTranscode_EoaRecipientBecomesNativeTransfer(t *testing.T) {
	senderKey := testKey(t, 0x08)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	var fromBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())

	var to [20]byte
	to[0] = 0x55
	raw := signedLegacyRaw(t, senderKey, 1, &to, 100, 21000, nil)

	resolver := &fakeResolver{
		accounts: map[[20]byte]uint32{
			fromBytes: 5,
			to:        6,
		},
		eoaByID:  map[uint32]bool{6: true},
		balances: map[[20]byte]*big.Int{fromBytes: big.NewInt(1_000_000_000_000_000_000)},
	}

	tc := NewTranscoder(resolver, defaultCfg())
	result, err := tc.Transcode(context.Background(), raw)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if result.L2Tx.Raw.ToID != 3 {
		t.Fatalf("expected creator account id fallback for eoa-recipient native transfer, got %d", result.L2Tx.Raw.ToID)
	}
	args := result.L2Tx.Raw.Args
	if len(args) != domain.PolyjuiceHeaderLen+20 {
		t.Fatalf("expected args with appended recipient tail, got length %d", len(args))
	}
	if !bytes.Equal(args[domain.PolyjuiceHeaderLen:], to[:]) {
		t.Fatalf("expected recipient tail %x, got %x", to, args[domain.PolyjuiceHeaderLen:])
	}
}

func TestTranscode_PreEIP155ChainIDIsZero(t *testing.T) {
	senderKey := testKey(t, 0x06)
	senderAddr := crypto.PubkeyToAddress(senderKey.PublicKey)
	var fromBytes [20]byte
	copy(fromBytes[:], senderAddr.Bytes())

	var to [20]byte
	to[0] = 0x88
	raw := signedLegacyRaw(t, senderKey, 0, &to, 0, 21000, nil)

	resolver := &fakeResolver{
		accounts: map[[20]byte]uint32{
			fromBytes: 5,
			to:        6,
		},
		eoaByID:  map[uint32]bool{6: false},
		balances: map[[20]byte]*big.Int{fromBytes: big.NewInt(1_000_000_000_000_000_000)},
	}

	tc := NewTranscoder(resolver, defaultCfg())
	result, err := tc.Transcode(context.Background(), raw)
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if result.L2Tx.Raw.ChainID != 0 {
		t.Fatalf("expected chain id 0 for pre-eip155 tx, got %d", result.L2Tx.Raw.ChainID)
	}
}

func TestTranscode_RejectsOversizedGasLimit(t *testing.T) {
	senderKey := testKey(t, 0x07)
	var to [20]byte
	to[0] = 0x01
	raw := signedLegacyRaw(t, senderKey, 1, &to, 0, 13_000_000, nil)

	resolver := &fakeResolver{accounts: map[[20]byte]uint32{}}
	tc := NewTranscoder(resolver, defaultCfg())
	_, err := tc.Transcode(context.Background(), raw)
	if err == nil {
		t.Fatal("expected gas limit validation error")
	}
	if _, ok := err.(*domain.ValidationError); !ok {
		t.Fatalf("expected *domain.ValidationError, got %T", err)
	}
}
