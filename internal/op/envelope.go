package op

import (
	"GreenFund/internal/fund"
)

// OpType discriminator for operation payloads
type OpType int32

const (
	OpTypeUnknown OpType = iota
	OpTypeInvest
	OpTypeWithdraw
	OpTypeAllocate
	OpTypeClaimYield
	OpTypeNavUpdate
	OpTypeBindAuthority
	OpTypeSetParam
	OpTypeSetManager
	OpTypeAssetUpsert
)

// Envelope wraps every operation in the log
type Envelope struct {
	// Global monotonic sequence assigned by core
	Sequence int64

	// Stable idempotency key from upstream
	IdempotencyKey string

	// Operation type discriminator
	OpType OpType

	// Caller identity established by the upstream signing context
	Caller fund.AccountID

	// Logical clock input (block height, NOT wall-clock)
	Height fund.Height

	// Upstream sequence for ordering validation
	SourceSequence int64

	// JSON-encoded operation-specific data
	Payload []byte

	// SHA-256 of state AFTER applying this operation
	StateHash [32]byte

	// Previous operation's state hash (chain integrity)
	PrevHash [32]byte
}

// Operation is the interface all operation payloads must implement
type Operation interface {
	// IdempotencyKey returns the stable dedup key
	IdempotencyKey() string

	// OpType returns the discriminator
	OpType() OpType

	// Caller returns the submitting identity
	Caller() fund.AccountID

	// Height returns the logical clock input
	Height() fund.Height

	// SourceSequence returns upstream ordering key
	SourceSequence() int64
}

func (ot OpType) String() string {
	switch ot {
	case OpTypeInvest:
		return "Invest"
	case OpTypeWithdraw:
		return "Withdraw"
	case OpTypeAllocate:
		return "Allocate"
	case OpTypeClaimYield:
		return "ClaimYield"
	case OpTypeNavUpdate:
		return "NavUpdate"
	case OpTypeBindAuthority:
		return "BindAuthority"
	case OpTypeSetParam:
		return "SetParam"
	case OpTypeSetManager:
		return "SetManager"
	case OpTypeAssetUpsert:
		return "AssetUpsert"
	default:
		return "Unknown"
	}
}
