package ledger

import (
	"fmt"
	"sort"

	"GreenFund/internal/fund"
)

// ShareLedger maintains in-memory per-account share balances.
// Accounts are lazily created on first credit and never deleted; a zero
// balance is a valid resting state.
type ShareLedger struct {
	balances map[fund.AccountID]fund.Shares
}

func NewShareLedger() *ShareLedger {
	return &ShareLedger{
		balances: make(map[fund.AccountID]fund.Shares),
	}
}

// Balance returns the current share balance for an account (zero when absent).
func (sl *ShareLedger) Balance(account fund.AccountID) fund.Shares {
	return sl.balances[account]
}

// Credit adds issued shares to an account.
func (sl *ShareLedger) Credit(account fund.AccountID, shares fund.Shares) {
	sl.balances[account] += shares
}

// Debit removes redeemed shares from an account. The caller is expected
// to have checked sufficiency; a shortfall here is a bookkeeping bug.
func (sl *ShareLedger) Debit(account fund.AccountID, shares fund.Shares) error {
	if sl.balances[account] < shares {
		return fmt.Errorf("debit of %d exceeds balance %d for %s", shares, sl.balances[account], account)
	}
	sl.balances[account] -= shares
	return nil
}

// Sum totals all account balances; must equal the pool's totalShares.
func (sl *ShareLedger) Sum() fund.Shares {
	var total fund.Shares
	for _, b := range sl.balances {
		total += b
	}
	return total
}

// Holders returns all account IDs in lexicographic order, for
// deterministic digest computation.
func (sl *ShareLedger) Holders() []fund.AccountID {
	accounts := make([]fund.AccountID, 0, len(sl.balances))
	for a := range sl.balances {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}

// Snapshot returns a copy of all balances (for state hashing and snapshots).
func (sl *ShareLedger) Snapshot() map[fund.AccountID]fund.Shares {
	snapshot := make(map[fund.AccountID]fund.Shares, len(sl.balances))
	for k, v := range sl.balances {
		snapshot[k] = v
	}
	return snapshot
}

// Restore replaces the ledger contents from a snapshot.
func (sl *ShareLedger) Restore(balances map[fund.AccountID]fund.Shares) {
	sl.balances = make(map[fund.AccountID]fund.Shares, len(balances))
	for k, v := range balances {
		sl.balances[k] = v
	}
}
