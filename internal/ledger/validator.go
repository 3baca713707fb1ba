package ledger

import (
	"fmt"

	"GreenFund/internal/fund"
)

// InvariantValidator checks cross-ledger invariants after each applied
// operation.
type InvariantValidator struct {
	pool   *Pool
	shares *ShareLedger
}

func NewInvariantValidator(pool *Pool, shares *ShareLedger) *InvariantValidator {
	return &InvariantValidator{
		pool:   pool,
		shares: shares,
	}
}

// ValidateShareSupply verifies totalShares equals the sum of all
// per-account balances.
func (v *InvariantValidator) ValidateShareSupply() error {
	sum := v.shares.Sum()
	if sum != v.pool.TotalShares {
		return fmt.Errorf("share supply mismatch: accounts sum to %d, pool records %d", sum, v.pool.TotalShares)
	}
	return nil
}

// ValidatePoolNonNegative verifies both pool aggregates are >= 0.
func (v *InvariantValidator) ValidatePoolNonNegative() error {
	if v.pool.TotalNav < 0 {
		return fmt.Errorf("pool NAV is negative: %d", v.pool.TotalNav)
	}
	if v.pool.TotalShares < 0 {
		return fmt.Errorf("pool share supply is negative: %d", v.pool.TotalShares)
	}
	return nil
}

// ValidateBalanceNonNegative verifies a single account balance is >= 0.
func (v *InvariantValidator) ValidateBalanceNonNegative(account fund.AccountID) error {
	if b := v.shares.Balance(account); b < 0 {
		return fmt.Errorf("account %s has negative share balance: %d", account, b)
	}
	return nil
}

// ValidateAll runs every post-operation invariant check.
func (v *InvariantValidator) ValidateAll() error {
	if err := v.ValidatePoolNonNegative(); err != nil {
		return err
	}
	return v.ValidateShareSupply()
}
