package query

import (
	"context"
	"database/sql"
	"fmt"

	"GreenFund/internal/math"
)

// QueryService provides read-only access to projection tables. All
// responses include as_of_sequence for freshness semantics: callers can
// compare it against receipt sequences to know whether a write is
// visible yet.
type QueryService struct {
	db *sql.DB
}

func NewQueryService(db *sql.DB) *QueryService {
	return &QueryService{db: db}
}

// GetPool returns the fund aggregate: total NAV, total shares, and the
// derived per-share price.
func (qs *QueryService) GetPool(ctx context.Context) (*PoolResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	var totalNav, totalShares int64
	err = qs.db.QueryRowContext(ctx, `
		SELECT total_nav, total_shares FROM projections.pool WHERE id = TRUE
	`).Scan(&totalNav, &totalShares)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	var sharePrice int64
	if totalShares > 0 && totalNav > 0 {
		sharePrice = math.MulDivFloor(totalNav, math.ShareScale, totalShares)
	}

	return &PoolResponse{
		TotalNav:     totalNav,
		TotalShares:  totalShares,
		SharePrice:   sharePrice,
		AsOfSequence: asOfSeq,
	}, nil
}

// GetShares returns an investor's share balance with its derived
// redemption value at the current NAV.
func (qs *QueryService) GetShares(ctx context.Context, account string) (*SharesResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	var shares int64
	err = qs.db.QueryRowContext(ctx, `
		SELECT shares FROM projections.holdings WHERE account = $1
	`, account).Scan(&shares)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	var totalNav, totalShares int64
	err = qs.db.QueryRowContext(ctx, `
		SELECT total_nav, total_shares FROM projections.pool WHERE id = TRUE
	`).Scan(&totalNav, &totalShares)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	var redemption int64
	if shares > 0 && totalShares > 0 && totalNav > 0 {
		redemption = math.RedemptionValue(shares, totalNav, totalShares)
	}

	return &SharesResponse{
		Account:         account,
		Shares:          shares,
		RedemptionValue: redemption,
		AsOfSequence:    asOfSeq,
	}, nil
}

// GetClaims returns an investor's yield claim record. Accounts that have
// never claimed get the zero record.
func (qs *QueryService) GetClaims(ctx context.Context, account string) (*ClaimsResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	resp := &ClaimsResponse{Account: account, AsOfSequence: asOfSeq}
	err = qs.db.QueryRowContext(ctx, `
		SELECT last_claim, claimed_total FROM projections.claims WHERE account = $1
	`, account).Scan(&resp.LastClaim, &resp.ClaimedTotal)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return resp, nil
}

// GetAllocation returns one capital deployment by its log position.
func (qs *QueryService) GetAllocation(ctx context.Context, id int64) (*AllocationResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	resp := &AllocationResponse{ID: id, AsOfSequence: asOfSeq}
	err = qs.db.QueryRowContext(ctx, `
		SELECT asset_ref, amount, height, approved_by
		FROM projections.allocations WHERE allocation_id = $1
	`, id).Scan(&resp.AssetRef, &resp.Amount, &resp.Height, &resp.ApprovedBy)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListAllocations returns allocations with cursor-based pagination,
// newest first.
func (qs *QueryService) ListAllocations(ctx context.Context, limit int, beforeID *int64) ([]AllocationResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT allocation_id, asset_ref, amount, height, approved_by
		FROM projections.allocations
	`
	args := []interface{}{}
	argIdx := 1

	if beforeID != nil {
		query += fmt.Sprintf(" WHERE allocation_id < $%d", argIdx)
		args = append(args, *beforeID)
		argIdx++
	}

	query += " ORDER BY allocation_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := qs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var allocations []AllocationResponse
	for rows.Next() {
		var a AllocationResponse
		a.AsOfSequence = asOfSeq
		if err := rows.Scan(&a.ID, &a.AssetRef, &a.Amount, &a.Height, &a.ApprovedBy); err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}

	return allocations, rows.Err()
}

// GetAsset returns one registered asset by its contract reference.
func (qs *QueryService) GetAsset(ctx context.Context, assetRef string) (*AssetResponse, error) {
	asOfSeq, err := qs.getWatermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}

	resp := &AssetResponse{AssetRef: assetRef, AsOfSequence: asOfSeq}
	err = qs.db.QueryRowContext(ctx, `
		SELECT token_type, value_per_unit, verified
		FROM projections.assets WHERE asset_ref = $1
	`, assetRef).Scan(&resp.TokenType, &resp.ValuePerUnit, &resp.Verified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetReceipt returns the durable outcome of one operation. Receipts are
// read from the operation log, not projections, so a persisted operation
// is always visible here even before projections catch up.
func (qs *QueryService) GetReceipt(ctx context.Context, opID string) (*ReceiptResponse, error) {
	resp := &ReceiptResponse{OpID: opID}
	err := qs.db.QueryRowContext(ctx, `
		SELECT sequence, op_type, caller, height, status, code, result, message
		FROM op_log.receipts WHERE op_id = $1
	`, opID).Scan(&resp.Sequence, &resp.OpType, &resp.Caller, &resp.Height,
		&resp.Status, &resp.Code, &resp.Result, &resp.Message)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// --- Admin APIs ---

// VerifyIntegrity checks hash chain continuity in the operation log and
// the share-supply invariant across projections.
func (qs *QueryService) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	// Check hash chain continuity
	rows, err := qs.db.QueryContext(ctx, `
		SELECT o1.sequence
		FROM op_log.operations o1
		LEFT JOIN op_log.operations o2 ON o2.sequence = o1.sequence - 1
		WHERE o1.sequence > 0 AND o1.prev_hash != COALESCE(o2.state_hash, o1.prev_hash)
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var seq int64
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		report.HashChainBreaks = append(report.HashChainBreaks, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Total shares must equal the sum of all holdings
	err = qs.db.QueryRowContext(ctx, `
		SELECT COALESCE(p.total_shares, 0) - COALESCE(h.sum_shares, 0)
		FROM (SELECT total_shares FROM projections.pool WHERE id = TRUE) p
		FULL OUTER JOIN (SELECT SUM(shares) AS sum_shares FROM projections.holdings) h ON TRUE
	`).Scan(&report.ShareImbalance)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	report.IsHealthy = len(report.HashChainBreaks) == 0 && report.ShareImbalance == 0
	return report, nil
}

// --- helpers ---

func (qs *QueryService) getWatermark(ctx context.Context) (int64, error) {
	var seq int64
	err := qs.db.QueryRowContext(ctx, `
		SELECT last_applied FROM projections.watermark WHERE id = TRUE
	`).Scan(&seq)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return seq, err
}
