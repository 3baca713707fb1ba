// internal/params/params_test.go
package params

import (
	"errors"
	"testing"

	"GreenFund/internal/fund"
)

const (
	manager    = fund.AccountID("SP1MANAGER")
	governance = fund.AccountID("SP2GOVERNANCE")
	oracle     = fund.AccountID("SP3ORACLE")
	outsider   = fund.AccountID("SP4OUTSIDER")
)

func TestBindGovernanceWriteOnce(t *testing.T) {
	s := NewStore(manager)

	if err := s.BindGovernance(governance); err != nil {
		t.Fatalf("first bind failed: %v", err)
	}
	// Re-binding fails even with the identical argument.
	if err := s.BindGovernance(governance); !errors.Is(err, fund.ErrAuthorityAlreadyBound) {
		t.Errorf("rebind same id: got %v, want AuthorityAlreadyBound", err)
	}
	if err := s.BindGovernance(outsider); !errors.Is(err, fund.ErrAuthorityAlreadyBound) {
		t.Errorf("rebind new id: got %v, want AuthorityAlreadyBound", err)
	}

	got, ok := s.Governance()
	if !ok || got != governance {
		t.Errorf("Governance() = %q,%v, want %q,true", got, ok, governance)
	}
}

func TestBindRejectsNullIdentity(t *testing.T) {
	s := NewStore(manager)

	if err := s.BindGovernance(fund.NullAccount); !errors.Is(err, fund.ErrInvalidAuthority) {
		t.Errorf("bind null governance: got %v, want InvalidAuthority", err)
	}
	if err := s.BindOracle(fund.NullAccount); !errors.Is(err, fund.ErrInvalidAuthority) {
		t.Errorf("bind null oracle: got %v, want InvalidAuthority", err)
	}
	if _, ok := s.Governance(); ok {
		t.Error("rejected bind left governance set")
	}
}

func TestBindOracleWriteOnce(t *testing.T) {
	s := NewStore(manager)

	if err := s.BindOracle(oracle); err != nil {
		t.Fatalf("first bind failed: %v", err)
	}
	if err := s.BindOracle(oracle); !errors.Is(err, fund.ErrAuthorityAlreadyBound) {
		t.Errorf("rebind: got %v, want AuthorityAlreadyBound", err)
	}
}

func TestIsManagerOrGovernance(t *testing.T) {
	s := NewStore(manager)

	if !s.IsManagerOrGovernance(manager) {
		t.Error("manager must pass before any binding")
	}
	if s.IsManagerOrGovernance(outsider) {
		t.Error("outsider must fail while governance is unbound")
	}

	if err := s.BindGovernance(governance); err != nil {
		t.Fatalf("bind: %v", err)
	}
	// Once governance is bound the predicate passes for any caller.
	// Carried over verbatim from the replaced contract.
	if !s.IsManagerOrGovernance(outsider) {
		t.Error("outsider must pass once governance is bound")
	}
}

func TestSettersRequireGovernance(t *testing.T) {
	s := NewStore(manager)

	// Unbound governance: nobody may tune, not even the manager.
	if err := s.SetYieldRate(manager, 10); !errors.Is(err, fund.ErrUnauthorized) {
		t.Errorf("manager set before bind: got %v, want Unauthorized", err)
	}

	if err := s.BindGovernance(governance); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if err := s.SetYieldRate(outsider, 10); !errors.Is(err, fund.ErrUnauthorized) {
		t.Errorf("outsider set: got %v, want Unauthorized", err)
	}
	if err := s.SetYieldRate(governance, 10); err != nil {
		t.Errorf("governance set: %v", err)
	}
	if got := s.Get().YieldRate; got != 10 {
		t.Errorf("YieldRate = %d, want 10", got)
	}
}

func TestSetterValidation(t *testing.T) {
	s := NewStore(manager)
	if err := s.BindGovernance(governance); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if err := s.SetYieldRate(governance, MaxYieldRate+1); !errors.Is(err, fund.ErrInvalidParameter) {
		t.Errorf("rate above cap: got %v, want InvalidParameter", err)
	}
	if err := s.SetYieldRate(governance, MaxYieldRate); err != nil {
		t.Errorf("rate at cap: %v", err)
	}
	if err := s.SetMinInvestment(governance, 0); !errors.Is(err, fund.ErrInvalidParameter) {
		t.Errorf("zero min: got %v, want InvalidParameter", err)
	}
	if err := s.SetMaxInvestment(governance, -1); !errors.Is(err, fund.ErrInvalidParameter) {
		t.Errorf("negative max: got %v, want InvalidParameter", err)
	}
	if err := s.SetWithdrawalLock(governance, -1); !errors.Is(err, fund.ErrInvalidParameter) {
		t.Errorf("negative lock: got %v, want InvalidParameter", err)
	}

	// Failed sets leave defaults untouched.
	if got := s.Get(); got.MinInvestment != DefaultParams.MinInvestment || got.MaxInvestment != DefaultParams.MaxInvestment {
		t.Errorf("failed sets mutated params: %+v", got)
	}
}

func TestSetManager(t *testing.T) {
	s := NewStore(manager)
	if err := s.BindGovernance(governance); err != nil {
		t.Fatalf("bind: %v", err)
	}

	if err := s.SetManager(governance, fund.NullAccount); !errors.Is(err, fund.ErrInvalidAuthority) {
		t.Errorf("null manager: got %v, want InvalidAuthority", err)
	}
	if err := s.SetManager(governance, outsider); err != nil {
		t.Fatalf("SetManager: %v", err)
	}
	if got := s.Manager(); got != outsider {
		t.Errorf("Manager() = %q, want %q", got, outsider)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewStore(manager)
	if err := s.BindGovernance(governance); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := s.SetYieldRate(governance, 12); err != nil {
		t.Fatalf("set: %v", err)
	}

	restored := NewStore("")
	restored.Restore(s.Snapshot())

	if restored.Manager() != manager {
		t.Errorf("restored manager = %q", restored.Manager())
	}
	if got, ok := restored.Governance(); !ok || got != governance {
		t.Errorf("restored governance = %q,%v", got, ok)
	}
	if restored.Get().YieldRate != 12 {
		t.Errorf("restored yield rate = %d, want 12", restored.Get().YieldRate)
	}
	// The write-once guard survives restore.
	if err := restored.BindGovernance(outsider); !errors.Is(err, fund.ErrAuthorityAlreadyBound) {
		t.Errorf("rebind after restore: got %v, want AuthorityAlreadyBound", err)
	}
}
