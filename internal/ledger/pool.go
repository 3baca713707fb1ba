package ledger

import (
	"GreenFund/internal/fund"
)

// Pool holds the two aggregate scalars of the fund. TotalNav and
// TotalShares move in lockstep under issuance and redemption but may
// diverge after allocations or oracle NAV overwrites; the engine only
// requires both to stay non-negative.
type Pool struct {
	TotalNav    fund.Currency `json:"total_nav"`
	TotalShares fund.Shares   `json:"total_shares"`
}

func NewPool() *Pool {
	return &Pool{}
}

// ApplyIssuance records an investment: NAV grows by the deposit, supply
// grows by the issued shares.
func (p *Pool) ApplyIssuance(amount fund.Currency, issued fund.Shares) {
	p.TotalNav += amount
	p.TotalShares += issued
}

// ApplyRedemption records a withdrawal: NAV shrinks by the full payout
// (redemption value plus yield portion), supply shrinks by the burned shares.
func (p *Pool) ApplyRedemption(totalPayout fund.Currency, burned fund.Shares) {
	p.TotalNav -= totalPayout
	p.TotalShares -= burned
}

// ApplyAllocation records capital leaving the pool for an external venue.
func (p *Pool) ApplyAllocation(amount fund.Currency) {
	p.TotalNav -= amount
}

// OverwriteNav replaces NAV wholesale from an oracle attestation.
func (p *Pool) OverwriteNav(newNav fund.Currency) {
	p.TotalNav = newNav
}

// Snapshot returns a copy of the aggregates.
func (p *Pool) Snapshot() Pool {
	return *p
}

// Restore replaces the aggregates from a snapshot.
func (p *Pool) Restore(snap Pool) {
	*p = snap
}
