package ingestion_test

import (
	"encoding/json"
	"testing"
	"time"

	"GreenFund/internal/fund"
	"GreenFund/internal/ingestion"
	"GreenFund/internal/op"
)

func rawFromJSON(t *testing.T, v interface{}) ingestion.RawOp {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return ingestion.RawOp{
		Subject:   "test",
		Data:      data,
		Timestamp: time.Now(),
		AckFunc:   func() {},
		NakFunc:   func() {},
	}
}

func TestParseInvest(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440000",
		"investor":     "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
		"amount":       int64(5_000_000),
		"block_height": int64(100),
		"sequence":     int64(42),
	}

	raw := rawFromJSON(t, payload)
	operation, err := ingestion.ParseRawOp(raw, "Invest")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	inv, ok := operation.(*op.InvestSubmitted)
	if !ok {
		t.Fatalf("expected *op.InvestSubmitted, got %T", operation)
	}

	if inv.Investor != "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7" {
		t.Errorf("investor: got %s", inv.Investor)
	}
	if inv.Amount != 5_000_000 {
		t.Errorf("amount: got %d, want 5_000_000", inv.Amount)
	}
	if inv.BlockHeight != 100 {
		t.Errorf("block_height: got %d, want 100", inv.BlockHeight)
	}
	if inv.SourceSequence() != 42 {
		t.Errorf("sequence: got %d, want 42", inv.SourceSequence())
	}
	if inv.OpType() != op.OpTypeInvest {
		t.Errorf("op type: got %v, want Invest", inv.OpType())
	}
}

func TestParseInvest_RejectsNullInvestor(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440000",
		"investor":     string(fund.NullAccount),
		"amount":       int64(5_000_000),
		"block_height": int64(100),
		"sequence":     int64(0),
	}

	if _, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "Invest"); err == nil {
		t.Fatal("expected rejection of null investor identity")
	}
}

func TestParseWithdraw(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440001",
		"investor":     "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
		"shares":       int64(2_500_000_000_000),
		"block_height": int64(150),
		"sequence":     int64(43),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "Withdraw")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	wd, ok := operation.(*op.WithdrawSubmitted)
	if !ok {
		t.Fatalf("expected *op.WithdrawSubmitted, got %T", operation)
	}
	if wd.Shares != 2_500_000_000_000 {
		t.Errorf("shares: got %d, want 2_500_000_000_000", wd.Shares)
	}
}

func TestParseAllocate(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440002",
		"approver":     "SP1MANAGER",
		"asset_ref":    "SP3ASSET.green-bonds",
		"amount":       int64(1_000_000),
		"block_height": int64(120),
		"sequence":     int64(44),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "Allocate")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	alloc, ok := operation.(*op.AllocateSubmitted)
	if !ok {
		t.Fatalf("expected *op.AllocateSubmitted, got %T", operation)
	}
	if alloc.AssetRef != "SP3ASSET.green-bonds" {
		t.Errorf("asset_ref: got %s", alloc.AssetRef)
	}
	if alloc.Caller() != "SP1MANAGER" {
		t.Errorf("caller: got %s", alloc.Caller())
	}
}

func TestParseClaimYield(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440003",
		"claimer":      "SP4ALICE",
		"beneficiary":  "SP4ALICE",
		"block_height": int64(200),
		"sequence":     int64(45),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "ClaimYield")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	claim, ok := operation.(*op.YieldClaimSubmitted)
	if !ok {
		t.Fatalf("expected *op.YieldClaimSubmitted, got %T", operation)
	}
	if claim.Beneficiary != "SP4ALICE" {
		t.Errorf("beneficiary: got %s", claim.Beneficiary)
	}
}

func TestParseNavUpdate(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440004",
		"attester":     "SP5ORACLE",
		"new_nav":      int64(7_000_000),
		"proof":        []byte("attestation-bytes"),
		"block_height": int64(130),
		"sequence":     int64(46),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "NavUpdate")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	nav, ok := operation.(*op.NavAttested)
	if !ok {
		t.Fatalf("expected *op.NavAttested, got %T", operation)
	}
	if nav.NewNav != 7_000_000 {
		t.Errorf("new_nav: got %d, want 7_000_000", nav.NewNav)
	}
	if string(nav.Proof) != "attestation-bytes" {
		t.Errorf("proof: got %q", nav.Proof)
	}
}

func TestParseBindAuthority(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440005",
		"submitter":    "SP1MANAGER",
		"role":         "governance",
		"authority":    "SP6GOVERNANCE",
		"block_height": int64(90),
		"sequence":     int64(0),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "BindAuthority")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	bind, ok := operation.(*op.AuthorityBind)
	if !ok {
		t.Fatalf("expected *op.AuthorityBind, got %T", operation)
	}
	if bind.Role != op.RoleGovernance {
		t.Errorf("role: got %s, want governance", bind.Role)
	}
}

func TestParseBindAuthority_UnknownRole(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440005",
		"submitter":    "SP1MANAGER",
		"role":         "treasurer",
		"authority":    "SP6GOVERNANCE",
		"block_height": int64(90),
		"sequence":     int64(0),
	}

	if _, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "BindAuthority"); err == nil {
		t.Fatal("expected rejection of unknown role")
	}
}

func TestParseSetParam(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440006",
		"submitter":    "SP6GOVERNANCE",
		"param":        "yield_rate",
		"value":        int64(10),
		"block_height": int64(95),
		"sequence":     int64(1),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "SetParam")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ps, ok := operation.(*op.ParamSet)
	if !ok {
		t.Fatalf("expected *op.ParamSet, got %T", operation)
	}
	if ps.Param != op.ParamYieldRate || ps.Value != 10 {
		t.Errorf("param set: got %s=%d", ps.Param, ps.Value)
	}
}

func TestParseSetParam_UnknownName(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "550e8400-e29b-41d4-a716-446655440006",
		"submitter":    "SP6GOVERNANCE",
		"param":        "fee_rate",
		"value":        int64(10),
		"block_height": int64(95),
		"sequence":     int64(1),
	}

	if _, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "SetParam"); err == nil {
		t.Fatal("expected rejection of unknown parameter")
	}
}

func TestParseAssetUpsert(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":          "550e8400-e29b-41d4-a716-446655440007",
		"submitter":      "SP1MANAGER",
		"asset_ref":      "SP3ASSET.green-bonds",
		"token_type":     "green-bond",
		"value_per_unit": int64(100),
		"verified":       true,
		"block_height":   int64(85),
		"sequence":       int64(2),
	}

	operation, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "AssetUpsert")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	au, ok := operation.(*op.AssetUpsert)
	if !ok {
		t.Fatalf("expected *op.AssetUpsert, got %T", operation)
	}
	if au.TokenType != "green-bond" || !au.Verified {
		t.Errorf("asset upsert: got %+v", au)
	}
}

func TestParseUnknownOpType(t *testing.T) {
	raw := rawFromJSON(t, map[string]interface{}{})
	if _, err := ingestion.ParseRawOp(raw, "Rebalance"); err == nil {
		t.Fatal("expected error for unknown op type")
	}
}

func TestParseInvest_MalformedOpID(t *testing.T) {
	payload := map[string]interface{}{
		"op_id":        "not-a-uuid",
		"investor":     "SP4ALICE",
		"amount":       int64(5_000_000),
		"block_height": int64(100),
		"sequence":     int64(0),
	}

	if _, err := ingestion.ParseRawOp(rawFromJSON(t, payload), "Invest"); err == nil {
		t.Fatal("expected error for malformed op_id")
	}
}
