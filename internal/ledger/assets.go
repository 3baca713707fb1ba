package ledger

import (
	"sort"

	"GreenFund/internal/fund"
)

// AssetRecord describes an external asset venue the fund may allocate
// capital to. Provisioned by the admin path, read-only to the operation
// handlers.
type AssetRecord struct {
	TokenType    string        `json:"token_type"`
	ValuePerUnit fund.Currency `json:"value_per_unit"`
	Verified     bool          `json:"verified"`
}

// AssetRegistry maps asset references to their records.
type AssetRegistry struct {
	assets map[fund.AccountID]AssetRecord
}

func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		assets: make(map[fund.AccountID]AssetRecord),
	}
}

// Get returns the record for an asset reference.
func (ar *AssetRegistry) Get(ref fund.AccountID) (AssetRecord, bool) {
	rec, ok := ar.assets[ref]
	return rec, ok
}

// Upsert creates or replaces an asset record.
func (ar *AssetRegistry) Upsert(ref fund.AccountID, rec AssetRecord) {
	ar.assets[ref] = rec
}

// Refs returns all asset references in lexicographic order.
func (ar *AssetRegistry) Refs() []fund.AccountID {
	refs := make([]fund.AccountID, 0, len(ar.assets))
	for r := range ar.assets {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// Snapshot returns a copy of the registry.
func (ar *AssetRegistry) Snapshot() map[fund.AccountID]AssetRecord {
	snapshot := make(map[fund.AccountID]AssetRecord, len(ar.assets))
	for k, v := range ar.assets {
		snapshot[k] = v
	}
	return snapshot
}

// Restore replaces the registry contents from a snapshot.
func (ar *AssetRegistry) Restore(assets map[fund.AccountID]AssetRecord) {
	ar.assets = make(map[fund.AccountID]AssetRecord, len(assets))
	for k, v := range assets {
		ar.assets[k] = v
	}
}
