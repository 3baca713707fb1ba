package query

// SharesResponse represents one investor's holding for API queries.
type SharesResponse struct {
	Account string `json:"account"`

	// Ledger value
	Shares int64 `json:"shares"`

	// Derived at query time, NOT a ledger value: the holder's pro-rata
	// claim on pool NAV at the as-of sequence. Floor division, zero when
	// no shares are outstanding.
	RedemptionValue int64 `json:"redemption_value"`

	AsOfSequence int64 `json:"as_of_sequence"`
}

// ClaimsResponse represents one investor's yield claim record.
type ClaimsResponse struct {
	Account      string `json:"account"`
	LastClaim    int64  `json:"last_claim"`
	ClaimedTotal int64  `json:"claimed_total"`
	AsOfSequence int64  `json:"as_of_sequence"`
}
