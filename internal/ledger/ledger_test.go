package ledger_test

import (
	"GreenFund/internal/fund"
	"GreenFund/internal/ledger"
	"testing"
)

const (
	alice = fund.AccountID("SP1ALICE")
	bob   = fund.AccountID("SP2BOB")
	asset = fund.AccountID("SP3ASSET.green-bonds")
)

// ============================================================================
// Test: ShareLedger
// ============================================================================

func TestShareLedger_InitialBalanceZero(t *testing.T) {
	sl := ledger.NewShareLedger()

	if b := sl.Balance(alice); b != 0 {
		t.Errorf("initial balance should be 0, got %d", b)
	}
}

func TestShareLedger_CreditDebit(t *testing.T) {
	sl := ledger.NewShareLedger()

	sl.Credit(alice, 5_000_000_000_000)
	if b := sl.Balance(alice); b != 5_000_000_000_000 {
		t.Errorf("balance after credit: got %d, want 5_000_000_000_000", b)
	}

	if err := sl.Debit(alice, 2_500_000_000_000); err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if b := sl.Balance(alice); b != 2_500_000_000_000 {
		t.Errorf("balance after debit: got %d, want 2_500_000_000_000", b)
	}
}

func TestShareLedger_DebitOverBalanceFails(t *testing.T) {
	sl := ledger.NewShareLedger()
	sl.Credit(alice, 100)

	if err := sl.Debit(alice, 101); err == nil {
		t.Error("debit over balance should fail")
	}
	if b := sl.Balance(alice); b != 100 {
		t.Errorf("failed debit mutated balance: %d", b)
	}
}

func TestShareLedger_Sum(t *testing.T) {
	sl := ledger.NewShareLedger()
	sl.Credit(alice, 300)
	sl.Credit(bob, 700)

	if sum := sl.Sum(); sum != 1_000 {
		t.Errorf("sum: got %d, want 1000", sum)
	}
}

func TestShareLedger_HoldersSorted(t *testing.T) {
	sl := ledger.NewShareLedger()
	sl.Credit(bob, 1)
	sl.Credit(alice, 1)

	holders := sl.Holders()
	if len(holders) != 2 || holders[0] != alice || holders[1] != bob {
		t.Errorf("holders not sorted: %v", holders)
	}
}

func TestShareLedger_SnapshotIsolated(t *testing.T) {
	sl := ledger.NewShareLedger()
	sl.Credit(alice, 999)

	snap := sl.Snapshot()
	snap[alice] = 0

	if sl.Balance(alice) != 999 {
		t.Error("ledger balance should not be affected by snapshot mutation")
	}
}

// ============================================================================
// Test: ClaimLedger
// ============================================================================

func TestClaimLedger_DefaultsZero(t *testing.T) {
	cl := ledger.NewClaimLedger()

	rec := cl.Get(alice)
	if rec.LastClaim != 0 || rec.ClaimedTotal != 0 {
		t.Errorf("absent record should be zero-valued, got %+v", rec)
	}
	if cl.Exists(alice) {
		t.Error("Exists should be false before any write")
	}
}

func TestClaimLedger_RecordAccumulates(t *testing.T) {
	cl := ledger.NewClaimLedger()

	cl.Record(alice, 150, 125_000_000_000)
	cl.Record(alice, 300, 1_000)

	rec := cl.Get(alice)
	if rec.LastClaim != 300 {
		t.Errorf("LastClaim = %d, want 300", rec.LastClaim)
	}
	if rec.ClaimedTotal != 125_000_001_000 {
		t.Errorf("ClaimedTotal = %d, want 125_000_001_000", rec.ClaimedTotal)
	}
	if !cl.Exists(alice) {
		t.Error("Exists should be true after write")
	}
}

// ============================================================================
// Test: AllocationLog
// ============================================================================

func TestAllocationLog_MonotonicIDs(t *testing.T) {
	al := ledger.NewAllocationLog()

	first := al.Append(asset, 1_000_000, 100, alice)
	second := al.Append(asset, 2_000_000, 101, alice)

	if first.ID != 0 || second.ID != 1 {
		t.Errorf("IDs not monotonic from zero: %d, %d", first.ID, second.ID)
	}
	if al.NextID() != 2 {
		t.Errorf("NextID = %d, want 2", al.NextID())
	}
}

func TestAllocationLog_GetBounds(t *testing.T) {
	al := ledger.NewAllocationLog()
	al.Append(asset, 1_000_000, 100, alice)

	if got, ok := al.Get(0); !ok || got.Amount != 1_000_000 {
		t.Errorf("Get(0) = %+v,%v", got, ok)
	}
	if _, ok := al.Get(1); ok {
		t.Error("Get past end should report absent")
	}
	if _, ok := al.Get(-1); ok {
		t.Error("Get(-1) should report absent")
	}
}

func TestAllocationLog_RestoreRejectsSparse(t *testing.T) {
	al := ledger.NewAllocationLog()

	err := al.Restore([]ledger.Allocation{{ID: 1, AssetRef: asset, Amount: 5}})
	if err == nil {
		t.Error("sparse snapshot should fail restore")
	}
}

// ============================================================================
// Test: AssetRegistry
// ============================================================================

func TestAssetRegistry_UpsertGet(t *testing.T) {
	ar := ledger.NewAssetRegistry()

	if _, ok := ar.Get(asset); ok {
		t.Error("unknown asset should be absent")
	}

	ar.Upsert(asset, ledger.AssetRecord{TokenType: "green-bond", ValuePerUnit: 100, Verified: false})
	rec, ok := ar.Get(asset)
	if !ok || rec.Verified {
		t.Errorf("Get after upsert = %+v,%v", rec, ok)
	}

	rec.Verified = true
	ar.Upsert(asset, rec)
	if got, _ := ar.Get(asset); !got.Verified {
		t.Error("upsert should replace the record")
	}
}

// ============================================================================
// Test: Pool + InvariantValidator
// ============================================================================

func TestPool_IssuanceRedemptionLockstep(t *testing.T) {
	p := ledger.NewPool()

	p.ApplyIssuance(5_000_000, 5_000_000_000_000)
	if p.TotalNav != 5_000_000 || p.TotalShares != 5_000_000_000_000 {
		t.Errorf("after issuance: %+v", p)
	}

	p.ApplyRedemption(2_500_000, 2_500_000_000_000)
	if p.TotalNav != 2_500_000 || p.TotalShares != 2_500_000_000_000 {
		t.Errorf("after redemption: %+v", p)
	}
}

func TestInvariantValidator_ShareSupply(t *testing.T) {
	p := ledger.NewPool()
	sl := ledger.NewShareLedger()
	v := ledger.NewInvariantValidator(p, sl)

	// Empty state passes.
	if err := v.ValidateAll(); err != nil {
		t.Errorf("empty state should validate: %v", err)
	}

	sl.Credit(alice, 1_000)
	p.ApplyIssuance(1, 1_000)
	if err := v.ValidateAll(); err != nil {
		t.Errorf("consistent state should validate: %v", err)
	}

	// Desync the pool from the account sum.
	p.TotalShares = 999
	if err := v.ValidateShareSupply(); err == nil {
		t.Error("supply mismatch should fail validation")
	}
}

func TestInvariantValidator_NegativeNav(t *testing.T) {
	p := ledger.NewPool()
	sl := ledger.NewShareLedger()
	v := ledger.NewInvariantValidator(p, sl)

	p.TotalNav = -1
	if err := v.ValidatePoolNonNegative(); err == nil {
		t.Error("negative NAV should fail validation")
	}
}
