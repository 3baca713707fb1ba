// internal/params/params.go
package params

import (
	"GreenFund/internal/fund"
)

// Params holds the governance-tunable economic scalars.
type Params struct {
	MinInvestment     fund.Currency `json:"min_investment"`     // smallest accepted investment, > 0
	MaxInvestment     fund.Currency `json:"max_investment"`     // largest accepted investment, > 0
	WithdrawalLock    fund.Height   `json:"withdrawal_lock"`    // logical ticks a claim record locks redemptions
	YieldRate         int64         `json:"yield_rate"`         // whole percent, 0..MaxYieldRate
	SlippageTolerance int64         `json:"slippage_tolerance"` // basis points tolerated on allocation pricing
}

// MaxYieldRate caps the yield rate governance may set.
const MaxYieldRate int64 = 20

// DefaultParams are the launch values; governance tunes them afterwards.
var DefaultParams = Params{
	MinInvestment:     1_000_000,
	MaxInvestment:     1_000_000_000,
	WithdrawalLock:    144,
	YieldRate:         5,
	SlippageTolerance: 100,
}

// Store owns the parameter scalars, the manager identity and the two
// write-once authority bindings. All mutation goes through the engine's
// single-writer loop; the Store itself carries no locking.
type Store struct {
	manager    fund.AccountID
	governance fund.AccountID // empty until bound, immutable after
	oracle     fund.AccountID // empty until bound, immutable after
	params     Params
}

func NewStore(manager fund.AccountID) *Store {
	return &Store{
		manager: manager,
		params:  DefaultParams,
	}
}

func (s *Store) Get() Params {
	return s.params
}

func (s *Store) Manager() fund.AccountID {
	return s.manager
}

// Governance returns the bound governance authority, if any.
func (s *Store) Governance() (fund.AccountID, bool) {
	return s.governance, s.governance != ""
}

// Oracle returns the bound oracle authority, if any.
func (s *Store) Oracle() (fund.AccountID, bool) {
	return s.oracle, s.oracle != ""
}

// BindGovernance sets the governance authority exactly once.
func (s *Store) BindGovernance(id fund.AccountID) *fund.Error {
	if s.governance != "" {
		return fund.ErrAuthorityAlreadyBound
	}
	if !id.Valid() {
		return fund.ErrInvalidAuthority
	}
	s.governance = id
	return nil
}

// BindOracle sets the oracle authority exactly once.
func (s *Store) BindOracle(id fund.AccountID) *fund.Error {
	if s.oracle != "" {
		return fund.ErrAuthorityAlreadyBound
	}
	if !id.Valid() {
		return fund.ErrInvalidAuthority
	}
	s.oracle = id
	return nil
}

// IsManagerOrGovernance is the authorization predicate for manager-gated
// operations. A bound governance authority satisfies it for ANY caller;
// that coarse OR is carried over from the contract this core replaces
// and must not be tightened without a compatibility decision.
func (s *Store) IsManagerOrGovernance(caller fund.AccountID) bool {
	if caller == s.manager {
		return true
	}
	_, bound := s.Governance()
	return bound
}

// IsGovernance reports whether caller is the bound governance authority.
func (s *Store) IsGovernance(caller fund.AccountID) bool {
	return s.governance != "" && caller == s.governance
}

func (s *Store) requireGovernance(caller fund.AccountID) *fund.Error {
	if !s.IsGovernance(caller) {
		return fund.ErrUnauthorized
	}
	return nil
}

// SetManager hands the manager role to a new identity. Governance only.
func (s *Store) SetManager(caller, newManager fund.AccountID) *fund.Error {
	if err := s.requireGovernance(caller); err != nil {
		return err
	}
	if !newManager.Valid() {
		return fund.ErrInvalidAuthority
	}
	s.manager = newManager
	return nil
}

func (s *Store) SetMinInvestment(caller fund.AccountID, value fund.Currency) *fund.Error {
	if err := s.requireGovernance(caller); err != nil {
		return err
	}
	if value <= 0 {
		return fund.Errf(fund.CodeInvalidParameter, "min investment must be > 0, got %d", value)
	}
	s.params.MinInvestment = value
	return nil
}

func (s *Store) SetMaxInvestment(caller fund.AccountID, value fund.Currency) *fund.Error {
	if err := s.requireGovernance(caller); err != nil {
		return err
	}
	if value <= 0 {
		return fund.Errf(fund.CodeInvalidParameter, "max investment must be > 0, got %d", value)
	}
	s.params.MaxInvestment = value
	return nil
}

func (s *Store) SetWithdrawalLock(caller fund.AccountID, value fund.Height) *fund.Error {
	if err := s.requireGovernance(caller); err != nil {
		return err
	}
	if value < 0 {
		return fund.Errf(fund.CodeInvalidParameter, "withdrawal lock must be >= 0, got %d", value)
	}
	s.params.WithdrawalLock = value
	return nil
}

func (s *Store) SetYieldRate(caller fund.AccountID, value int64) *fund.Error {
	if err := s.requireGovernance(caller); err != nil {
		return err
	}
	if value < 0 || value > MaxYieldRate {
		return fund.Errf(fund.CodeInvalidParameter, "yield rate must be in [0,%d], got %d", MaxYieldRate, value)
	}
	s.params.YieldRate = value
	return nil
}

func (s *Store) SetSlippageTolerance(caller fund.AccountID, value int64) *fund.Error {
	if err := s.requireGovernance(caller); err != nil {
		return err
	}
	if value < 0 {
		return fund.Errf(fund.CodeInvalidParameter, "slippage tolerance must be >= 0, got %d", value)
	}
	s.params.SlippageTolerance = value
	return nil
}

// Snapshot captures the full store for state snapshots.
type Snapshot struct {
	Manager    fund.AccountID `json:"manager"`
	Governance fund.AccountID `json:"governance,omitempty"`
	Oracle     fund.AccountID `json:"oracle,omitempty"`
	Params     Params         `json:"params"`
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Manager:    s.manager,
		Governance: s.governance,
		Oracle:     s.oracle,
		Params:     s.params,
	}
}

func (s *Store) Restore(snap Snapshot) {
	s.manager = snap.Manager
	s.governance = snap.Governance
	s.oracle = snap.Oracle
	s.params = snap.Params
}
