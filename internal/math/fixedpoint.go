// internal/math/fixedpoint.go
package math

import (
	"math/big"
	"sync"
)

// ShareScale is the fixed-point scale between base currency and fund
// shares: one currency unit of NAV prices out at ShareScale shares when
// the pool is empty. Six decimal places.
const ShareScale int64 = 1_000_000

// PercentDenominator converts whole-percent rates to fractions.
const PercentDenominator int64 = 100

// Int128 intermediates are pooled; share math multiplies two int64
// values and the product does not fit in 64 bits.
var int128Pool = &sync.Pool{
	New: func() interface{} {
		return new(big.Int)
	},
}

func getInt128() *big.Int {
	return int128Pool.Get().(*big.Int)
}

func putInt128(v *big.Int) {
	v.SetInt64(0) // Clear before returning to pool
	int128Pool.Put(v)
}

// MultiplyInt128 performs a * b using int128 to prevent overflow.
func MultiplyInt128(a, b int64) *big.Int {
	result := getInt128()
	result.Mul(big.NewInt(a), big.NewInt(b))
	return result
}

// DivideInt128 performs numerator / denominator with the given rounding.
func DivideInt128(numerator *big.Int, denominator int64, roundingMode RoundingMode) int64 {
	denom := big.NewInt(denominator)
	quotient := getInt128()
	remainder := getInt128()

	quotient.QuoRem(numerator, denom, remainder)

	result := quotient.Int64()

	switch roundingMode {
	case RoundDown:
		// Truncation from QuoRem already floors non-negative inputs.
	case RoundUp:
		if remainder.Sign() != 0 {
			result++
		}
	case RoundHalfEven:
		half := big.NewInt(denominator / 2)
		cmp := remainder.Cmp(half)
		if cmp > 0 {
			result++
		} else if cmp == 0 && denominator%2 == 0 {
			if result%2 != 0 {
				result++
			}
		}
	}

	putInt128(quotient)
	putInt128(remainder)

	return result
}

type RoundingMode int

const (
	RoundDown RoundingMode = iota // floor; the default everywhere in the fund
	RoundUp
	RoundHalfEven
)

// MulDivFloor computes floor(a*b/c) without intermediate overflow.
// All inputs are assumed non-negative; c must be positive.
func MulDivFloor(a, b, c int64) int64 {
	num := MultiplyInt128(a, b)
	result := DivideInt128(num, c, RoundDown)
	putInt128(num)
	return result
}

// PercentFloor computes floor(amount*rate/100).
func PercentFloor(amount, rate int64) int64 {
	return MulDivFloor(amount, rate, PercentDenominator)
}

// SharesForInvestment prices an investment into shares. The first
// investment into an empty pool seeds at ShareScale shares per currency
// unit; after that shares are issued pro rata against NAV, floored so
// the pool never over-issues.
func SharesForInvestment(amount, totalShares, totalNav int64) int64 {
	if totalShares == 0 {
		return MulDivFloor(amount, ShareScale, 1)
	}
	return MulDivFloor(amount, totalShares, totalNav)
}

// RedemptionValue prices a share redemption in base currency,
// floored pro rata against NAV.
func RedemptionValue(shares, totalNav, totalShares int64) int64 {
	return MulDivFloor(shares, totalNav, totalShares)
}
