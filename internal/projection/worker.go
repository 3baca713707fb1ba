package projection

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// ProjectionOutput mirrors the data needed by projection workers.
// The orchestrator bridges between core.CoreOutput and this: after the
// core applies an operation it reads the touched state back out and
// ships the post-values here, so the worker never re-runs domain logic.
type ProjectionOutput struct {
	Sequence int64
	OpType   string
	Status   string
	Caller   string
	Height   int64

	Pool       *PoolState
	Holding    *HoldingState
	Claim      *ClaimState
	Allocation *AllocationState
	Asset      *AssetState
	YieldPaid  *YieldHistoryEntry
}

// PoolState is the post-operation pool aggregate.
type PoolState struct {
	TotalNav    int64
	TotalShares int64
}

// HoldingState is one account's post-operation share balance.
type HoldingState struct {
	Account string
	Shares  int64
}

// ClaimState is one account's post-operation claim record.
type ClaimState struct {
	Account      string
	LastClaim    int64
	ClaimedTotal int64
}

// AllocationState is one appended allocation record.
type AllocationState struct {
	ID         int64
	AssetRef   string
	Amount     int64
	Height     int64
	ApprovedBy string
}

// AssetState is one upserted asset record.
type AssetState struct {
	AssetRef     string
	TokenType    string
	ValuePerUnit int64
	Verified     bool
}

// ProjectionWorker updates projection tables from processed operations.
// The projection channel is non-blocking with drop: if projections fall
// behind, they are rebuilt from restored engine state.
type ProjectionWorker struct {
	db           *sql.DB
	inputChan    <-chan ProjectionOutput
	yieldHistory *YieldHistoryProjection
	lastSeq      int64
}

func NewProjectionWorker(db *sql.DB, inputChan <-chan ProjectionOutput) *ProjectionWorker {
	return &ProjectionWorker{
		db:           db,
		inputChan:    inputChan,
		yieldHistory: NewYieldHistoryProjection(),
	}
}

// YieldHistory exposes the in-memory yield payment projection.
func (pw *ProjectionWorker) YieldHistory() *YieldHistoryProjection {
	return pw.yieldHistory
}

// Run starts the projection worker loop.
func (pw *ProjectionWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case output, ok := <-pw.inputChan:
			if !ok {
				return nil
			}

			if err := pw.processOutput(ctx, output); err != nil {
				log.Printf("WARN: projection update failed at seq=%d: %v", output.Sequence, err)
				// Continue — projections are eventually consistent
				// and are rebuilt from engine state on restart
			}

			pw.lastSeq = output.Sequence
		}
	}
}

func (pw *ProjectionWorker) processOutput(ctx context.Context, output ProjectionOutput) error {
	if output.YieldPaid != nil {
		pw.yieldHistory.AddEntry(*output.YieldPaid)
	}

	// Rejected operations carry no state deltas; only the watermark moves.
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if output.Pool != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.pool (id, total_nav, total_shares, updated_seq)
			VALUES (TRUE, $1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET total_nav = $1, total_shares = $2, updated_seq = $3
		`, output.Pool.TotalNav, output.Pool.TotalShares, output.Sequence); err != nil {
			return fmt.Errorf("pool projection: %w", err)
		}
	}

	if output.Holding != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.holdings (account, shares, updated_seq)
			VALUES ($1, $2, $3)
			ON CONFLICT (account) DO UPDATE SET shares = $2, updated_seq = $3
		`, output.Holding.Account, output.Holding.Shares, output.Sequence); err != nil {
			return fmt.Errorf("holdings projection: %w", err)
		}
	}

	if output.Claim != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.claims (account, last_claim, claimed_total, updated_seq)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (account) DO UPDATE SET last_claim = $2, claimed_total = $3, updated_seq = $4
		`, output.Claim.Account, output.Claim.LastClaim, output.Claim.ClaimedTotal, output.Sequence); err != nil {
			return fmt.Errorf("claims projection: %w", err)
		}
	}

	if output.Allocation != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.allocations (allocation_id, asset_ref, amount, height, approved_by, updated_seq)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (allocation_id) DO NOTHING
		`, output.Allocation.ID, output.Allocation.AssetRef, output.Allocation.Amount,
			output.Allocation.Height, output.Allocation.ApprovedBy, output.Sequence); err != nil {
			return fmt.Errorf("allocations projection: %w", err)
		}
	}

	if output.Asset != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.assets (asset_ref, token_type, value_per_unit, verified, updated_seq)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (asset_ref) DO UPDATE SET token_type = $2, value_per_unit = $3, verified = $4, updated_seq = $5
		`, output.Asset.AssetRef, output.Asset.TokenType, output.Asset.ValuePerUnit,
			output.Asset.Verified, output.Sequence); err != nil {
			return fmt.Errorf("assets projection: %w", err)
		}
	}

	// Update projection watermark
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.watermark (id, last_applied)
		VALUES (TRUE, $1)
		ON CONFLICT (id) DO UPDATE SET last_applied = $1
	`, output.Sequence); err != nil {
		return fmt.Errorf("watermark update: %w", err)
	}

	return tx.Commit()
}

// FullState carries complete engine state for a projection rebuild.
type FullState struct {
	Sequence    int64
	Pool        PoolState
	Holdings    []HoldingState
	Claims      []ClaimState
	Allocations []AllocationState
	Assets      []AssetState
}

// RebuildFromState truncates all projection tables and repopulates them
// from restored engine state. The projection channel drops on overflow,
// so this runs on startup after recovery to reconverge.
func RebuildFromState(ctx context.Context, db *sql.DB, state FullState) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	truncateStatements := []string{
		`TRUNCATE projections.pool`,
		`TRUNCATE projections.holdings`,
		`TRUNCATE projections.claims`,
		`TRUNCATE projections.allocations`,
		`TRUNCATE projections.assets`,
		`TRUNCATE projections.watermark`,
	}
	for _, stmt := range truncateStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate failed: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.pool (id, total_nav, total_shares, updated_seq)
		VALUES (TRUE, $1, $2, $3)
	`, state.Pool.TotalNav, state.Pool.TotalShares, state.Sequence); err != nil {
		return fmt.Errorf("rebuild pool: %w", err)
	}

	for _, h := range state.Holdings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.holdings (account, shares, updated_seq) VALUES ($1, $2, $3)
		`, h.Account, h.Shares, state.Sequence); err != nil {
			return fmt.Errorf("rebuild holdings: %w", err)
		}
	}

	for _, c := range state.Claims {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.claims (account, last_claim, claimed_total, updated_seq)
			VALUES ($1, $2, $3, $4)
		`, c.Account, c.LastClaim, c.ClaimedTotal, state.Sequence); err != nil {
			return fmt.Errorf("rebuild claims: %w", err)
		}
	}

	for _, a := range state.Allocations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.allocations (allocation_id, asset_ref, amount, height, approved_by, updated_seq)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, a.ID, a.AssetRef, a.Amount, a.Height, a.ApprovedBy, state.Sequence); err != nil {
			return fmt.Errorf("rebuild allocations: %w", err)
		}
	}

	for _, a := range state.Assets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projections.assets (asset_ref, token_type, value_per_unit, verified, updated_seq)
			VALUES ($1, $2, $3, $4, $5)
		`, a.AssetRef, a.TokenType, a.ValuePerUnit, a.Verified, state.Sequence); err != nil {
			return fmt.Errorf("rebuild assets: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO projections.watermark (id, last_applied) VALUES (TRUE, $1)
	`, state.Sequence); err != nil {
		return fmt.Errorf("rebuild watermark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Println("INFO: projection rebuild complete")
	return nil
}
