// internal/math/fixedpoint_test.go
package math

import (
	"math"
	"testing"
)

func TestMulDivFloorFloors(t *testing.T) {
	// 7*3/2 = 10.5 -> 10
	if got := MulDivFloor(7, 3, 2); got != 10 {
		t.Errorf("MulDivFloor(7,3,2) = %d, want 10", got)
	}
	if got := MulDivFloor(1, 1, 3); got != 0 {
		t.Errorf("MulDivFloor(1,1,3) = %d, want 0", got)
	}
}

func TestMulDivFloorNoOverflow(t *testing.T) {
	// 5_000_000 * 5_000_000_000_000 overflows int64; the int128
	// intermediate must survive it.
	got := MulDivFloor(5_000_000, 5_000_000_000_000, 5_000_000)
	if got != 5_000_000_000_000 {
		t.Errorf("got %d, want 5000000000000", got)
	}

	big := int64(math.MaxInt64 / 2)
	if got := MulDivFloor(big, 2, 2); got != big {
		t.Errorf("got %d, want %d", got, big)
	}
}

func TestSharesForInvestmentSeedsEmptyPool(t *testing.T) {
	got := SharesForInvestment(5_000_000, 0, 0)
	want := 5_000_000 * ShareScale
	if got != want {
		t.Errorf("seed issuance = %d, want %d", got, want)
	}
}

func TestSharesForInvestmentProRata(t *testing.T) {
	// Pool holds 10 currency of NAV backing 10e6 shares; investing 5
	// buys exactly half the outstanding supply.
	got := SharesForInvestment(5, 10_000_000, 10)
	if got != 5_000_000 {
		t.Errorf("pro-rata issuance = %d, want 5000000", got)
	}
}

func TestRedemptionValueFloors(t *testing.T) {
	// 1 share of a 3-share pool worth 10: floor(10/3) = 3
	if got := RedemptionValue(1, 10, 3); got != 3 {
		t.Errorf("redemption = %d, want 3", got)
	}
}

func TestPercentFloor(t *testing.T) {
	cases := []struct {
		amount, rate, want int64
	}{
		{2_500_000_000_000, 5, 125_000_000_000},
		{100, 5, 5},
		{19, 5, 0},
		{0, 20, 0},
	}
	for _, c := range cases {
		if got := PercentFloor(c.amount, c.rate); got != c.want {
			t.Errorf("PercentFloor(%d,%d) = %d, want %d", c.amount, c.rate, got, c.want)
		}
	}
}

func TestDivideInt128Rounding(t *testing.T) {
	num := MultiplyInt128(7, 1)
	defer putInt128(num)

	if got := DivideInt128(num, 2, RoundDown); got != 3 {
		t.Errorf("RoundDown 7/2 = %d, want 3", got)
	}
	if got := DivideInt128(num, 2, RoundUp); got != 4 {
		t.Errorf("RoundUp 7/2 = %d, want 4", got)
	}
}
