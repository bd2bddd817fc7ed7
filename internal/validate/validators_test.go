package validate

import (
	"math/big"
	"testing"

	"pjgateway/internal/domain"
)

func TestSize(t *testing.T) {
	if err := Size(100, 200); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := Size(200, 100); err == nil {
		t.Fatal("expected error for oversized transaction")
	} else if err.Subkind != domain.ValidationSize {
		t.Fatalf("expected subkind %q, got %q", domain.ValidationSize, err.Subkind)
	}
}

func TestGasLimit_Bounds(t *testing.T) {
	bounds := GasBounds{MinGasLimit: big.NewInt(21000), MaxGasLimit: big.NewInt(1_000_000)}

	if err := GasLimit(big.NewInt(50000), bounds); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := GasLimit(big.NewInt(1000), bounds); err == nil {
		t.Fatal("expected error for gas limit below minimum")
	}
	if err := GasLimit(big.NewInt(2_000_000), bounds); err == nil {
		t.Fatal("expected error for gas limit above maximum")
	}
}

func TestGasLimit_NoBoundsConfigured(t *testing.T) {
	if err := GasLimit(big.NewInt(1), GasBounds{}); err != nil {
		t.Fatalf("expected no error when bounds are unset, got %v", err)
	}
}

func TestGasPrice_Bounds(t *testing.T) {
	bounds := GasBounds{MinGasPrice: big.NewInt(1), MaxGasPrice: big.NewInt(1_000_000_000_000)}

	if err := GasPrice(big.NewInt(1_000_000_000), bounds); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := GasPrice(big.NewInt(0), bounds); err == nil {
		t.Fatal("expected error for gas price below minimum")
	}
	if err := GasPrice(big.NewInt(2_000_000_000_000), bounds); err == nil {
		t.Fatal("expected error for gas price above maximum")
	}
}

func TestIntrinsicGas_PlainTransfer(t *testing.T) {
	if err := IntrinsicGas(big.NewInt(21000), nil, false); err != nil {
		t.Fatalf("expected 21000 to cover a plain transfer, got %v", err)
	}
	if err := IntrinsicGas(big.NewInt(20999), nil, false); err == nil {
		t.Fatal("expected error for gas limit below base intrinsic cost")
	}
}

func TestIntrinsicGas_DataBytes(t *testing.T) {
	data := []byte{0x00, 0x00, 0x01, 0x02} // 2 zero, 2 nonzero
	required := int64(21000 + 2*4 + 2*68)
	if err := IntrinsicGas(big.NewInt(required), data, false); err != nil {
		t.Fatalf("expected exact required gas to pass, got %v", err)
	}
	if err := IntrinsicGas(big.NewInt(required-1), data, false); err == nil {
		t.Fatal("expected error for gas limit just below required")
	}
}

func TestIntrinsicGas_ContractCreation(t *testing.T) {
	required := int64(21000 + 32000)
	if err := IntrinsicGas(big.NewInt(required), nil, true); err != nil {
		t.Fatalf("expected contract creation surcharge to be covered, got %v", err)
	}
	if err := IntrinsicGas(big.NewInt(required-1), nil, true); err == nil {
		t.Fatal("expected error for gas limit below contract creation cost")
	}
}

func TestBalanceSufficient(t *testing.T) {
	balance := big.NewInt(1_000_000)
	value := big.NewInt(100)
	gasLimit := big.NewInt(21000)
	gasPrice := big.NewInt(10)

	if err := BalanceSufficient(balance, value, gasLimit, gasPrice, "0xabc"); err != nil {
		t.Fatalf("expected sufficient balance, got %v", err)
	}
}

func TestBalanceSufficient_Insufficient(t *testing.T) {
	balance := big.NewInt(100)
	value := big.NewInt(100)
	gasLimit := big.NewInt(21000)
	gasPrice := big.NewInt(10)

	err := BalanceSufficient(balance, value, gasLimit, gasPrice, "0xabc")
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	wantRequired := new(big.Int).Add(value, new(big.Int).Mul(gasLimit, gasPrice))
	if err.Required.Cmp(wantRequired) != 0 {
		t.Fatalf("required mismatch: got %s want %s", err.Required, wantRequired)
	}
	if err.Got.Cmp(balance) != 0 {
		t.Fatalf("got balance mismatch: got %s want %s", err.Got, balance)
	}
	if err.Address != "0xabc" {
		t.Fatalf("address mismatch: got %s", err.Address)
	}
}
