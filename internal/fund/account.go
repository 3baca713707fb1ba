// internal/fund/account.go
package fund

// AccountID is an external principal identity. The signing scheme that
// establishes it lives outside this core; here it is an opaque string.
type AccountID string

// NullAccount is the distinguished burn identity. It can never be bound
// as an authority and never holds shares.
const NullAccount AccountID = "SP000000000000000000002Q6VF78"

// Currency is a base-currency amount in minimal units (e.g. micro-units).
type Currency = int64

// Shares is a fund-share count. Shares carry 6 decimal places relative to
// currency via math.ShareScale.
type Shares = int64

// Height is the logical clock (block height). Monotonic non-decreasing
// across operations; the core never reads the wall clock.
type Height = int64

// IsNull reports whether the account is the distinguished burn identity.
func (a AccountID) IsNull() bool {
	return a == NullAccount
}

// Valid reports whether the account is usable as a caller or beneficiary.
func (a AccountID) Valid() bool {
	return a != "" && !a.IsNull()
}
