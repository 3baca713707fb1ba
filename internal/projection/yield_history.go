package projection

import (
	"GreenFund/internal/fund"
)

// YieldHistoryEntry records one yield payment to an account, whether it
// came from a standalone claim or from the yield portion of a withdrawal.
type YieldHistoryEntry struct {
	Account  fund.AccountID
	Amount   fund.Currency
	Height   fund.Height
	OpID     string
	Sequence int64
}

// YieldHistoryProjection maintains queryable yield payment history.
type YieldHistoryProjection struct {
	entries []YieldHistoryEntry
}

func NewYieldHistoryProjection() *YieldHistoryProjection {
	return &YieldHistoryProjection{
		entries: make([]YieldHistoryEntry, 0),
	}
}

// AddEntry records a yield payment
func (p *YieldHistoryProjection) AddEntry(entry YieldHistoryEntry) {
	p.entries = append(p.entries, entry)
}

// QueryByAccount returns yield history for an account, most recent first.
func (p *YieldHistoryProjection) QueryByAccount(account fund.AccountID, limit int) []YieldHistoryEntry {
	result := make([]YieldHistoryEntry, 0)

	for i := len(p.entries) - 1; i >= 0 && len(result) < limit; i-- {
		if p.entries[i].Account == account {
			result = append(result, p.entries[i])
		}
	}

	return result
}
