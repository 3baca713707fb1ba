package ingestion

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"GreenFund/internal/fund"
	"GreenFund/internal/op"
)

// ParseRawOp converts a RawOp (JSON bytes + op type string) into a typed
// op.Operation. The ingestion shell validates, parses, and converts raw
// messages before sending to the deterministic core.
func ParseRawOp(raw RawOp, opType string) (op.Operation, error) {
	switch opType {
	case "Invest":
		return parseInvest(raw.Data)
	case "Withdraw":
		return parseWithdraw(raw.Data)
	case "Allocate":
		return parseAllocate(raw.Data)
	case "ClaimYield":
		return parseClaimYield(raw.Data)
	case "NavUpdate":
		return parseNavUpdate(raw.Data)
	case "BindAuthority":
		return parseBindAuthority(raw.Data)
	case "SetParam":
		return parseSetParam(raw.Data)
	case "SetManager":
		return parseSetManager(raw.Data)
	case "AssetUpsert":
		return parseAssetUpsert(raw.Data)
	default:
		return nil, fmt.Errorf("unknown op type: %s", opType)
	}
}

// --- JSON wire formats ---
// These structs represent the JSON payloads received from NATS.
// Field names use snake_case to match upstream producers.

type investJSON struct {
	OpID        string `json:"op_id"`
	Investor    string `json:"investor"`
	Amount      int64  `json:"amount"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseInvest(data []byte) (*op.InvestSubmitted, error) {
	var j investJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Invest: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	investor := fund.AccountID(j.Investor)
	if !investor.Valid() {
		return nil, fmt.Errorf("invalid investor identity: %q", j.Investor)
	}
	return &op.InvestSubmitted{
		OpID:        opID,
		Investor:    investor,
		Amount:      j.Amount,
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type withdrawJSON struct {
	OpID        string `json:"op_id"`
	Investor    string `json:"investor"`
	Shares      int64  `json:"shares"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseWithdraw(data []byte) (*op.WithdrawSubmitted, error) {
	var j withdrawJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Withdraw: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	investor := fund.AccountID(j.Investor)
	if !investor.Valid() {
		return nil, fmt.Errorf("invalid investor identity: %q", j.Investor)
	}
	return &op.WithdrawSubmitted{
		OpID:        opID,
		Investor:    investor,
		Shares:      j.Shares,
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type allocateJSON struct {
	OpID        string `json:"op_id"`
	Approver    string `json:"approver"`
	AssetRef    string `json:"asset_ref"`
	Amount      int64  `json:"amount"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseAllocate(data []byte) (*op.AllocateSubmitted, error) {
	var j allocateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Allocate: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	approver := fund.AccountID(j.Approver)
	if !approver.Valid() {
		return nil, fmt.Errorf("invalid approver identity: %q", j.Approver)
	}
	return &op.AllocateSubmitted{
		OpID:        opID,
		Approver:    approver,
		AssetRef:    fund.AccountID(j.AssetRef),
		Amount:      j.Amount,
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type claimYieldJSON struct {
	OpID        string `json:"op_id"`
	Claimer     string `json:"claimer"`
	Beneficiary string `json:"beneficiary"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseClaimYield(data []byte) (*op.YieldClaimSubmitted, error) {
	var j claimYieldJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ClaimYield: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	claimer := fund.AccountID(j.Claimer)
	if !claimer.Valid() {
		return nil, fmt.Errorf("invalid claimer identity: %q", j.Claimer)
	}
	return &op.YieldClaimSubmitted{
		OpID:        opID,
		Claimer:     claimer,
		Beneficiary: fund.AccountID(j.Beneficiary),
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type navUpdateJSON struct {
	OpID        string `json:"op_id"`
	Attester    string `json:"attester"`
	NewNav      int64  `json:"new_nav"`
	Proof       []byte `json:"proof"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseNavUpdate(data []byte) (*op.NavAttested, error) {
	var j navUpdateJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse NavUpdate: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	return &op.NavAttested{
		OpID:        opID,
		Attester:    fund.AccountID(j.Attester),
		NewNav:      j.NewNav,
		Proof:       j.Proof,
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type bindAuthorityJSON struct {
	OpID        string `json:"op_id"`
	Submitter   string `json:"submitter"`
	Role        string `json:"role"`
	Authority   string `json:"authority"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseBindAuthority(data []byte) (*op.AuthorityBind, error) {
	var j bindAuthorityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse BindAuthority: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	role := op.AuthorityRole(j.Role)
	if role != op.RoleGovernance && role != op.RoleOracle {
		return nil, fmt.Errorf("unknown authority role: %q", j.Role)
	}
	return &op.AuthorityBind{
		OpID:        opID,
		Submitter:   fund.AccountID(j.Submitter),
		Role:        role,
		Authority:   fund.AccountID(j.Authority),
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type setParamJSON struct {
	OpID        string `json:"op_id"`
	Submitter   string `json:"submitter"`
	Param       string `json:"param"`
	Value       int64  `json:"value"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseSetParam(data []byte) (*op.ParamSet, error) {
	var j setParamJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SetParam: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	param := op.ParamName(j.Param)
	switch param {
	case op.ParamMinInvestment, op.ParamMaxInvestment, op.ParamWithdrawalLock,
		op.ParamYieldRate, op.ParamSlippageTolerance:
	default:
		return nil, fmt.Errorf("unknown parameter: %q", j.Param)
	}
	return &op.ParamSet{
		OpID:        opID,
		Submitter:   fund.AccountID(j.Submitter),
		Param:       param,
		Value:       j.Value,
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type setManagerJSON struct {
	OpID        string `json:"op_id"`
	Submitter   string `json:"submitter"`
	NewManager  string `json:"new_manager"`
	BlockHeight int64  `json:"block_height"`
	Sequence    int64  `json:"sequence"`
}

func parseSetManager(data []byte) (*op.ManagerSet, error) {
	var j setManagerJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SetManager: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	return &op.ManagerSet{
		OpID:        opID,
		Submitter:   fund.AccountID(j.Submitter),
		NewManager:  fund.AccountID(j.NewManager),
		BlockHeight: j.BlockHeight,
		Sequence:    j.Sequence,
	}, nil
}

type assetUpsertJSON struct {
	OpID         string `json:"op_id"`
	Submitter    string `json:"submitter"`
	AssetRef     string `json:"asset_ref"`
	TokenType    string `json:"token_type"`
	ValuePerUnit int64  `json:"value_per_unit"`
	Verified     bool   `json:"verified"`
	BlockHeight  int64  `json:"block_height"`
	Sequence     int64  `json:"sequence"`
}

func parseAssetUpsert(data []byte) (*op.AssetUpsert, error) {
	var j assetUpsertJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse AssetUpsert: %w", err)
	}
	opID, err := uuid.Parse(j.OpID)
	if err != nil {
		return nil, fmt.Errorf("parse op_id: %w", err)
	}
	return &op.AssetUpsert{
		OpID:         opID,
		Submitter:    fund.AccountID(j.Submitter),
		AssetRef:     fund.AccountID(j.AssetRef),
		TokenType:    j.TokenType,
		ValuePerUnit: j.ValuePerUnit,
		Verified:     j.Verified,
		BlockHeight:  j.BlockHeight,
		Sequence:     j.Sequence,
	}, nil
}
