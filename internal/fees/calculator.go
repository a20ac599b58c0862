package fees

import (
	"fmt"
	"math/big"

	"github.com/aman-zulfiqar/solana-fee-router/internal/routererr"
)

// Fixed skim rate applied by the processor: 1/10.
// The persisted Fees record is not consulted for this rate.
const (
	SkimNumerator   uint64 = 1
	SkimDenominator uint64 = 10
)

// CalculateFee returns floor(amount * numerator / denominator) computed in a
// 128-bit domain, with a minimum of 1 whenever the rate and amount are both
// nonzero. ok is false when the division is undefined (zero denominator) or
// the result does not fit back into a u64.
func CalculateFee(amount, numerator, denominator uint64) (fee uint64, ok bool) {
	if numerator == 0 || amount == 0 {
		return 0, true
	}
	if denominator == 0 {
		return 0, false
	}

	// u64 * u64 always fits in 128 bits
	product := new(big.Int).Mul(
		new(big.Int).SetUint64(amount),
		new(big.Int).SetUint64(numerator),
	)
	product.Quo(product, new(big.Int).SetUint64(denominator))

	if product.Sign() == 0 {
		return 1, true
	}
	if !product.IsUint64() {
		return 0, false
	}
	return product.Uint64(), true
}

// SkimFee applies the fixed 1/10 rate and maps an undefined result to
// ConversionFailure.
func SkimFee(amount uint64) (uint64, error) {
	fee, ok := CalculateFee(amount, SkimNumerator, SkimDenominator)
	if !ok {
		return 0, fmt.Errorf("skim fee for %d: %w", amount, routererr.ConversionFailure)
	}
	return fee, nil
}

// ValidateFraction accepts 0/0 or any numerator strictly below its denominator.
func ValidateFraction(numerator, denominator uint64) error {
	if numerator == 0 && denominator == 0 {
		return nil
	}
	if numerator >= denominator {
		return fmt.Errorf("fee %d/%d: %w", numerator, denominator, routererr.InvalidFee)
	}
	return nil
}
