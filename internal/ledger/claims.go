package ledger

import (
	"sort"

	"GreenFund/internal/fund"
)

// ClaimRecord tracks per-account yield bookkeeping. LastClaim drives both
// the withdrawal time-lock and the claim eligibility gate.
type ClaimRecord struct {
	LastClaim    fund.Height   `json:"last_claim"`
	ClaimedTotal fund.Currency `json:"claimed_total"`
}

// ClaimLedger maintains per-account claim records. Records default to
// the zero value when absent and are never deleted once written.
type ClaimLedger struct {
	records map[fund.AccountID]ClaimRecord
}

func NewClaimLedger() *ClaimLedger {
	return &ClaimLedger{
		records: make(map[fund.AccountID]ClaimRecord),
	}
}

// Get returns the claim record for an account, zero-valued when absent.
func (cl *ClaimLedger) Get(account fund.AccountID) ClaimRecord {
	return cl.records[account]
}

// Exists reports whether an explicit record has ever been written.
func (cl *ClaimLedger) Exists(account fund.AccountID) bool {
	_, ok := cl.records[account]
	return ok
}

// Record writes a claim event: the claim clock moves to now and the
// yield paid out accumulates into the lifetime total.
func (cl *ClaimLedger) Record(account fund.AccountID, now fund.Height, yieldPaid fund.Currency) {
	rec := cl.records[account]
	rec.LastClaim = now
	rec.ClaimedTotal += yieldPaid
	cl.records[account] = rec
}

// Accounts returns all recorded account IDs in lexicographic order.
func (cl *ClaimLedger) Accounts() []fund.AccountID {
	accounts := make([]fund.AccountID, 0, len(cl.records))
	for a := range cl.records {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts
}

// Snapshot returns a copy of all records.
func (cl *ClaimLedger) Snapshot() map[fund.AccountID]ClaimRecord {
	snapshot := make(map[fund.AccountID]ClaimRecord, len(cl.records))
	for k, v := range cl.records {
		snapshot[k] = v
	}
	return snapshot
}

// Restore replaces the ledger contents from a snapshot.
func (cl *ClaimLedger) Restore(records map[fund.AccountID]ClaimRecord) {
	cl.records = make(map[fund.AccountID]ClaimRecord, len(records))
	for k, v := range records {
		cl.records[k] = v
	}
}
