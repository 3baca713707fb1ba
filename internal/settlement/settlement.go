// internal/settlement/settlement.go
package settlement

import (
	"GreenFund/internal/fund"
)

// Treasury is the external currency-transfer primitive. A nil from means
// the pool pays out; a nil to means the deposit lands in the pool.
// The engine calls it only after validation, so a failure here is an
// environment fault, not a domain rejection.
type Treasury interface {
	Transfer(amount fund.Currency, from, to *fund.AccountID) error
}

// TokenMinter is the external share-token primitive. Mint and Burn are
// assumed to never fail under the engine's invariant-preserving call
// pattern; errors indicate a desynced token ledger.
type TokenMinter interface {
	Mint(amount fund.Shares, to fund.AccountID) error
	Burn(amount fund.Shares, from fund.AccountID) error
}

// ProofVerifier validates oracle attestations. Verification mechanics
// are external; the engine only consumes the boolean.
type ProofVerifier interface {
	Verify(attester fund.AccountID, proof []byte) bool
}

// NonEmptyProofVerifier accepts any non-empty proof. This is the
// stand-in wiring until a real attestation scheme is plugged in; the
// authority binding check still gates who may attest.
type NonEmptyProofVerifier struct{}

func (NonEmptyProofVerifier) Verify(_ fund.AccountID, proof []byte) bool {
	return len(proof) > 0
}
