package query

// PoolResponse represents the fund aggregate for API queries.
type PoolResponse struct {
	TotalNav    int64 `json:"total_nav"`
	TotalShares int64 `json:"total_shares"`
	// SharePrice is NAV per whole share, floor-divided at query time.
	// Zero when no shares are outstanding.
	SharePrice   int64 `json:"share_price"`
	AsOfSequence int64 `json:"as_of_sequence"`
}

// AllocationResponse represents one capital deployment for API queries.
type AllocationResponse struct {
	ID           int64  `json:"id"`
	AssetRef     string `json:"asset_ref"`
	Amount       int64  `json:"amount"`
	Height       int64  `json:"height"`
	ApprovedBy   string `json:"approved_by"`
	AsOfSequence int64  `json:"as_of_sequence"`
}

// AssetResponse represents one registered asset for API queries.
type AssetResponse struct {
	AssetRef     string `json:"asset_ref"`
	TokenType    string `json:"token_type"`
	ValuePerUnit int64  `json:"value_per_unit"`
	Verified     bool   `json:"verified"`
	AsOfSequence int64  `json:"as_of_sequence"`
}

// ReceiptResponse represents a processed operation's outcome.
type ReceiptResponse struct {
	OpID     string `json:"op_id"`
	Sequence int64  `json:"sequence"`
	OpType   string `json:"op_type"`
	Caller   string `json:"caller"`
	Height   int64  `json:"height"`
	Status   string `json:"status"`
	Code     int32  `json:"code,omitempty"`
	Result   int64  `json:"result"`
	Message  string `json:"message,omitempty"`
}

// IntegrityReport is the result of an integrity verification check.
type IntegrityReport struct {
	IsHealthy       bool    `json:"is_healthy"`
	HashChainBreaks []int64 `json:"hash_chain_breaks,omitempty"`
	// ShareImbalance is total_shares minus the sum of projected holdings.
	// Non-zero means the holdings projection has diverged from the pool.
	ShareImbalance int64 `json:"share_imbalance"`
}
