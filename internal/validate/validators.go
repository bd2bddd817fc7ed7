// Package validate implements spec.md §4.4: pure gas, size and balance
// predicates over arbitrary-precision integers.
package validate

import (
	"math/big"

	"pjgateway/internal/domain"
)

const (
	intrinsicGasBase     = 21000
	intrinsicGasPerByte  = 68
	intrinsicGasPerZero  = 4
	intrinsicGasContract = 32000
)

// GasBounds is the configured minimum/maximum for gas limit and gas price,
// surfaced by the configuration snapshot per spec.md §6.
type GasBounds struct {
	MinGasLimit *big.Int
	MaxGasLimit *big.Int
	MinGasPrice *big.Int
	MaxGasPrice *big.Int
}

// Size validates that the RLP-encoded length of the transaction does not
// exceed the configured maximum, per spec.md §4.4.
func Size(encodedLen int, maxTransactionSize int) *domain.ValidationError {
	if encodedLen > maxTransactionSize {
		return domain.NewValidationError(domain.ValidationSize, "transaction exceeds maximum size")
	}
	return nil
}

// GasLimit validates gasLimit is within the configured bounds.
func GasLimit(gasLimit *big.Int, bounds GasBounds) *domain.ValidationError {
	if bounds.MinGasLimit != nil && gasLimit.Cmp(bounds.MinGasLimit) < 0 {
		return domain.NewValidationError(domain.ValidationGasLimit, "gas limit below minimum")
	}
	if bounds.MaxGasLimit != nil && gasLimit.Cmp(bounds.MaxGasLimit) > 0 {
		return domain.NewValidationError(domain.ValidationGasLimit, "gas limit above maximum")
	}
	return nil
}

// GasPrice validates gasPrice is within the configured bounds.
func GasPrice(gasPrice *big.Int, bounds GasBounds) *domain.ValidationError {
	if bounds.MinGasPrice != nil && gasPrice.Cmp(bounds.MinGasPrice) < 0 {
		return domain.NewValidationError(domain.ValidationGasPrice, "gas price below minimum")
	}
	if bounds.MaxGasPrice != nil && gasPrice.Cmp(bounds.MaxGasPrice) > 0 {
		return domain.NewValidationError(domain.ValidationGasPrice, "gas price above maximum")
	}
	return nil
}

// IntrinsicGas validates gasLimit covers the intrinsic cost of the
// transaction, using the Homestead-era weights spec.md §4.4 fixes:
// 21000 base + 68/nonzero byte + 4/zero byte + 32000 for contract creation.
func IntrinsicGas(gasLimit *big.Int, data []byte, isContractCreation bool) *domain.ValidationError {
	required := big.NewInt(intrinsicGasBase)
	var nonzero, zero int64
	for _, b := range data {
		if b == 0 {
			zero++
		} else {
			nonzero++
		}
	}
	required.Add(required, big.NewInt(nonzero*intrinsicGasPerByte))
	required.Add(required, big.NewInt(zero*intrinsicGasPerZero))
	if isContractCreation {
		required.Add(required, big.NewInt(intrinsicGasContract))
	}
	if gasLimit.Cmp(required) < 0 {
		return domain.NewValidationError(domain.ValidationIntrinsic, "gas limit below intrinsic gas")
	}
	return nil
}

// BalanceSufficient validates balance(from) >= value + gasLimit*gasPrice,
// per spec.md §4.4 and §4.6 step 5/6.
func BalanceSufficient(balance, value, gasLimit, gasPrice *big.Int, address string) *domain.InsufficientBalance {
	required := new(big.Int).Mul(gasLimit, gasPrice)
	required.Add(required, value)
	if balance.Cmp(required) < 0 {
		return &domain.InsufficientBalance{Required: required, Got: balance, Address: address}
	}
	return nil
}
