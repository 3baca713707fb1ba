// internal/op/allocate.go
package op

import (
	"github.com/google/uuid"

	"GreenFund/internal/fund"
)

// AllocateSubmitted deploys pooled capital to a verified external asset.
type AllocateSubmitted struct {
	OpID        uuid.UUID
	Approver    fund.AccountID
	AssetRef    fund.AccountID
	Amount      fund.Currency
	BlockHeight fund.Height
	Sequence    int64
}

func (a *AllocateSubmitted) IdempotencyKey() string {
	return a.OpID.String()
}

func (a *AllocateSubmitted) OpType() OpType {
	return OpTypeAllocate
}

func (a *AllocateSubmitted) Caller() fund.AccountID {
	return a.Approver
}

func (a *AllocateSubmitted) Height() fund.Height {
	return a.BlockHeight
}

func (a *AllocateSubmitted) SourceSequence() int64 {
	return a.Sequence
}

// YieldClaimSubmitted pays accrued yield to the beneficiary. Self-claim
// only; delegated claiming is rejected by the engine.
type YieldClaimSubmitted struct {
	OpID        uuid.UUID
	Claimer     fund.AccountID
	Beneficiary fund.AccountID
	BlockHeight fund.Height
	Sequence    int64
}

func (y *YieldClaimSubmitted) IdempotencyKey() string {
	return y.OpID.String()
}

func (y *YieldClaimSubmitted) OpType() OpType {
	return OpTypeClaimYield
}

func (y *YieldClaimSubmitted) Caller() fund.AccountID {
	return y.Claimer
}

func (y *YieldClaimSubmitted) Height() fund.Height {
	return y.BlockHeight
}

func (y *YieldClaimSubmitted) SourceSequence() int64 {
	return y.Sequence
}

// NavAttested overwrites pool NAV from an oracle attestation. Proof is
// opaque to the core; verification is delegated to an injected verifier.
type NavAttested struct {
	OpID        uuid.UUID
	Attester    fund.AccountID
	NewNav      fund.Currency
	Proof       []byte
	BlockHeight fund.Height
	Sequence    int64
}

func (n *NavAttested) IdempotencyKey() string {
	return n.OpID.String()
}

func (n *NavAttested) OpType() OpType {
	return OpTypeNavUpdate
}

func (n *NavAttested) Caller() fund.AccountID {
	return n.Attester
}

func (n *NavAttested) Height() fund.Height {
	return n.BlockHeight
}

func (n *NavAttested) SourceSequence() int64 {
	return n.Sequence
}
