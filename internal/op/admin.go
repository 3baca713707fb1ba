// internal/op/admin.go
package op

import (
	"github.com/google/uuid"

	"GreenFund/internal/fund"
)

// AuthorityRole names the two singleton authority bindings.
type AuthorityRole string

const (
	RoleGovernance AuthorityRole = "governance"
	RoleOracle     AuthorityRole = "oracle"
)

// ParamName names the governance-tunable scalars.
type ParamName string

const (
	ParamMinInvestment     ParamName = "min_investment"
	ParamMaxInvestment     ParamName = "max_investment"
	ParamWithdrawalLock    ParamName = "withdrawal_lock"
	ParamYieldRate         ParamName = "yield_rate"
	ParamSlippageTolerance ParamName = "slippage_tolerance"
)

// AuthorityBind sets one of the two write-once authority bindings.
type AuthorityBind struct {
	OpID        uuid.UUID
	Submitter   fund.AccountID
	Role        AuthorityRole
	Authority   fund.AccountID
	BlockHeight fund.Height
	Sequence    int64
}

func (b *AuthorityBind) IdempotencyKey() string {
	return b.OpID.String()
}

func (b *AuthorityBind) OpType() OpType {
	return OpTypeBindAuthority
}

func (b *AuthorityBind) Caller() fund.AccountID {
	return b.Submitter
}

func (b *AuthorityBind) Height() fund.Height {
	return b.BlockHeight
}

func (b *AuthorityBind) SourceSequence() int64 {
	return b.Sequence
}

// ParamSet tunes one economic scalar. Governance only.
type ParamSet struct {
	OpID        uuid.UUID
	Submitter   fund.AccountID
	Param       ParamName
	Value       int64
	BlockHeight fund.Height
	Sequence    int64
}

func (p *ParamSet) IdempotencyKey() string {
	return p.OpID.String()
}

func (p *ParamSet) OpType() OpType {
	return OpTypeSetParam
}

func (p *ParamSet) Caller() fund.AccountID {
	return p.Submitter
}

func (p *ParamSet) Height() fund.Height {
	return p.BlockHeight
}

func (p *ParamSet) SourceSequence() int64 {
	return p.Sequence
}

// ManagerSet hands the manager role to a new identity. Governance only.
type ManagerSet struct {
	OpID        uuid.UUID
	Submitter   fund.AccountID
	NewManager  fund.AccountID
	BlockHeight fund.Height
	Sequence    int64
}

func (m *ManagerSet) IdempotencyKey() string {
	return m.OpID.String()
}

func (m *ManagerSet) OpType() OpType {
	return OpTypeSetManager
}

func (m *ManagerSet) Caller() fund.AccountID {
	return m.Submitter
}

func (m *ManagerSet) Height() fund.Height {
	return m.BlockHeight
}

func (m *ManagerSet) SourceSequence() int64 {
	return m.Sequence
}

// AssetUpsert provisions or updates an asset record in the registry.
// This is the admin path that feeds allocation eligibility.
type AssetUpsert struct {
	OpID         uuid.UUID
	Submitter    fund.AccountID
	AssetRef     fund.AccountID
	TokenType    string
	ValuePerUnit fund.Currency
	Verified     bool
	BlockHeight  fund.Height
	Sequence     int64
}

func (a *AssetUpsert) IdempotencyKey() string {
	return a.OpID.String()
}

func (a *AssetUpsert) OpType() OpType {
	return OpTypeAssetUpsert
}

func (a *AssetUpsert) Caller() fund.AccountID {
	return a.Submitter
}

func (a *AssetUpsert) Height() fund.Height {
	return a.BlockHeight
}

func (a *AssetUpsert) SourceSequence() int64 {
	return a.Sequence
}
