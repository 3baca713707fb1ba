package ledger

import (
	"fmt"

	"GreenFund/internal/fund"
)

// Allocation records capital deployed from the pool to an external asset
// venue. Immutable once written.
type Allocation struct {
	ID         int64          `json:"id"`
	AssetRef   fund.AccountID `json:"asset_ref"`
	Amount     fund.Currency  `json:"amount"`
	Timestamp  fund.Height    `json:"timestamp"`
	ApprovedBy fund.AccountID `json:"approved_by"`
}

// AllocationLog is the append-only allocation ledger. IDs are assigned
// post-increment starting at zero, so ID n is always slot n.
type AllocationLog struct {
	allocations []Allocation
}

func NewAllocationLog() *AllocationLog {
	return &AllocationLog{}
}

// Append writes a new allocation at the next monotonic ID and returns it.
func (al *AllocationLog) Append(assetRef fund.AccountID, amount fund.Currency, timestamp fund.Height, approvedBy fund.AccountID) Allocation {
	alloc := Allocation{
		ID:         int64(len(al.allocations)),
		AssetRef:   assetRef,
		Amount:     amount,
		Timestamp:  timestamp,
		ApprovedBy: approvedBy,
	}
	al.allocations = append(al.allocations, alloc)
	return alloc
}

// Get returns the allocation with the given ID.
func (al *AllocationLog) Get(id int64) (Allocation, bool) {
	if id < 0 || id >= int64(len(al.allocations)) {
		return Allocation{}, false
	}
	return al.allocations[id], true
}

// NextID returns the ID the next Append will assign.
func (al *AllocationLog) NextID() int64 {
	return int64(len(al.allocations))
}

// Len returns the number of recorded allocations.
func (al *AllocationLog) Len() int {
	return len(al.allocations)
}

// Snapshot returns a copy of the full log in ID order.
func (al *AllocationLog) Snapshot() []Allocation {
	snapshot := make([]Allocation, len(al.allocations))
	copy(snapshot, al.allocations)
	return snapshot
}

// Restore replaces the log from a snapshot. The snapshot must be dense
// and ID-ordered; anything else means corrupted persistence.
func (al *AllocationLog) Restore(allocations []Allocation) error {
	for i, a := range allocations {
		if a.ID != int64(i) {
			return fmt.Errorf("allocation snapshot not dense: slot %d holds id %d", i, a.ID)
		}
	}
	al.allocations = make([]Allocation, len(allocations))
	copy(al.allocations, allocations)
	return nil
}
