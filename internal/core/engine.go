package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"GreenFund/internal/fund"
	"GreenFund/internal/ledger"
	fpmath "GreenFund/internal/math"
	"GreenFund/internal/observability"
	"GreenFund/internal/op"
	"GreenFund/internal/params"
	"GreenFund/internal/settlement"
)

// Engine is the single-threaded operation processor. Every public fund
// operation flows through ProcessOperation with exclusive access to the
// full state; ordering is decided upstream (by block/stream ordering)
// and the engine only guarantees deterministic output for a given
// ordering and prior state.
//
// The engine never reads the wall clock for domain decisions: the
// logical clock is the block height carried by each operation.
type Engine struct {
	// mu is the single mutual-exclusion boundary around all engine
	// state. Operations apply on the core goroutine; snapshots and
	// sequence reads come from the snapshot goroutine.
	mu sync.Mutex

	sequence    int64
	lastHeight  fund.Height
	hasher      *StateHasher
	pool        *ledger.Pool
	shares      *ledger.ShareLedger
	claims      *ledger.ClaimLedger
	allocations *ledger.AllocationLog
	assets      *ledger.AssetRegistry
	params      *params.Store
	validator   *ledger.InvariantValidator

	treasury settlement.Treasury
	minter   settlement.TokenMinter
	verifier settlement.ProofVerifier

	idempotency       *IdempotencyChecker
	sequenceValidator *SequenceValidator
	metrics           *observability.Metrics

	persistChan    chan<- CoreOutput
	projectionChan chan<- CoreOutput
}

// CoreOutput is one processed operation: the log envelope, its receipt,
// and the canonical state digest bytes the hash was computed over.
type CoreOutput struct {
	Envelope   *op.Envelope
	Receipt    *Receipt
	StateDelta []byte
}

func NewEngine(
	startSequence int64,
	manager fund.AccountID,
	persistChan, projectionChan chan<- CoreOutput,
	dbChecker DBIdempotencyChecker,
	treasury settlement.Treasury,
	minter settlement.TokenMinter,
	verifier settlement.ProofVerifier,
	metrics *observability.Metrics,
) *Engine {
	pool := ledger.NewPool()
	shares := ledger.NewShareLedger()

	return &Engine{
		sequence:          startSequence,
		hasher:            NewStateHasher(),
		pool:              pool,
		shares:            shares,
		claims:            ledger.NewClaimLedger(),
		allocations:       ledger.NewAllocationLog(),
		assets:            ledger.NewAssetRegistry(),
		params:            params.NewStore(manager),
		validator:         ledger.NewInvariantValidator(pool, shares),
		treasury:          treasury,
		minter:            minter,
		verifier:          verifier,
		idempotency:       NewIdempotencyChecker(1_000_000, dbChecker),
		sequenceValidator: NewSequenceValidator(),
		metrics:           metrics,
		persistChan:       persistChan,
		projectionChan:    projectionChan,
	}
}

// ProcessOperation is the main processing pipeline. Infrastructure
// faults (ordering violations, external primitive failures) return an
// error and leave no trace in the log. Domain rejections produce a
// rejected receipt and advance the log like any other operation.
func (c *Engine) ProcessOperation(operation op.Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	opType := operation.OpType().String()
	idempotencyKey := operation.IdempotencyKey()

	// Step 1: Idempotency check (two-tier)
	isDuplicate := c.idempotency.IsDuplicate(opType, idempotencyKey)

	// Step 2: Sequence validation
	partition := getPartition(operation)
	sourceSequence := operation.SourceSequence()
	if err := c.sequenceValidator.ValidateSequence(partition, sourceSequence, idempotencyKey, isDuplicate); err != nil {
		return fmt.Errorf("sequence validation failed: %w", err)
	}

	// If duplicate, skip processing
	if isDuplicate {
		if c.metrics != nil {
			c.metrics.CoreOpsRejected.WithLabelValues(opType, "duplicate").Inc()
		}
		return nil
	}

	// Step 3: Logical clock must never run backwards
	height := operation.Height()
	if height < c.lastHeight {
		return fmt.Errorf("logical clock regression: last=%d, got=%d", c.lastHeight, height)
	}

	// Step 4: Dispatch and apply. A *fund.Error here is a domain
	// rejection with zero state change; any other error is fatal to
	// this operation and aborts before log emission.
	result, domainErr, infraErr := c.dispatchOperation(operation)
	if infraErr != nil {
		return fmt.Errorf("dispatch failed: %w", infraErr)
	}
	c.lastHeight = height

	receipt := &Receipt{
		OpID:   idempotencyKey,
		OpType: operation.OpType(),
		Caller: operation.Caller(),
		Height: height,
		Status: StatusAccepted,
		Result: result,
	}
	if domainErr != nil {
		receipt.Status = StatusRejected
		receipt.Code = domainErr.Code
		receipt.Message = domainErr.Msg
	}

	// Step 5: Canonical digest and hash chain
	prevHash := c.hasher.GetPrevHash()
	stateDigest := c.computeStateDigest()
	stateHash := c.hasher.ComputeHash(c.sequence, stateDigest)

	payload, err := json.Marshal(operation)
	if err != nil {
		panic(fmt.Sprintf("FATAL: cannot marshal operation payload: %v", err))
	}

	envelope := &op.Envelope{
		Sequence:       c.sequence,
		IdempotencyKey: idempotencyKey,
		OpType:         operation.OpType(),
		Caller:         operation.Caller(),
		Height:         height,
		SourceSequence: sourceSequence,
		Payload:        payload,
		StateHash:      stateHash,
		PrevHash:       prevHash,
	}

	output := CoreOutput{
		Envelope:   envelope,
		Receipt:    receipt,
		StateDelta: stateDigest,
	}
	c.sequence++

	// Step 6: Post-checks. A violated invariant means the engine state
	// is corrupt; continuing would persist garbage.
	if err := c.postCheckInvariants(); err != nil {
		panic(fmt.Sprintf("FATAL: invariant violated: %v", err))
	}

	// Step 7: Emit outputs. Persist channel uses a BLOCKING send
	// (backpressure, no operation is lost); projection channel uses a
	// NON-BLOCKING send and drops on full — projections rebuild from
	// the operation log if they fall behind.
	c.persistChan <- output

	select {
	case c.projectionChan <- output:
	default:
		// Silently dropped — projection will catch up via rebuild
	}

	// Step 8: Mark as processed (add to LRU)
	c.idempotency.MarkProcessed(opType, idempotencyKey)

	// Record metrics
	if c.metrics != nil {
		if domainErr != nil {
			c.metrics.CoreOpsRejected.WithLabelValues(opType, domainErr.Code.String()).Inc()
		} else {
			c.metrics.CoreOpsApplied.WithLabelValues(opType).Inc()
		}
		c.metrics.CoreOpDuration.WithLabelValues(opType).Observe(time.Since(start).Seconds())
		c.metrics.CoreSequence.Set(float64(c.sequence))
		c.metrics.PoolNav.Set(float64(c.pool.TotalNav))
		c.metrics.PoolShares.Set(float64(c.pool.TotalShares))
	}

	return nil
}

// getPartition determines the partition key for sequence validation.
// Admin operations arrive on their own stream with an independent
// upstream sequence.
func getPartition(operation op.Operation) string {
	switch operation.OpType() {
	case op.OpTypeBindAuthority, op.OpTypeSetParam, op.OpTypeSetManager, op.OpTypeAssetUpsert:
		return "admin"
	default:
		return "ops"
	}
}

func (c *Engine) dispatchOperation(operation op.Operation) (int64, *fund.Error, error) {
	switch o := operation.(type) {
	case *op.InvestSubmitted:
		return c.applyInvest(o)
	case *op.WithdrawSubmitted:
		return c.applyWithdraw(o)
	case *op.AllocateSubmitted:
		return c.applyAllocate(o)
	case *op.YieldClaimSubmitted:
		return c.applyClaimYield(o)
	case *op.NavAttested:
		return c.applyNavUpdate(o)
	case *op.AuthorityBind:
		return c.applyAuthorityBind(o)
	case *op.ParamSet:
		return c.applyParamSet(o)
	case *op.ManagerSet:
		return c.applyManagerSet(o)
	case *op.AssetUpsert:
		return c.applyAssetUpsert(o)
	default:
		return 0, nil, fmt.Errorf("unknown operation type: %T", operation)
	}
}

// applyInvest issues shares against the deposit. The first investment
// into an empty pool seeds at ShareScale shares per currency unit.
func (c *Engine) applyInvest(o *op.InvestSubmitted) (int64, *fund.Error, error) {
	p := c.params.Get()
	if o.Amount < p.MinInvestment {
		return 0, fund.Errf(fund.CodeBelowMinimum, "amount %d below minimum %d", o.Amount, p.MinInvestment), nil
	}
	if o.Amount > p.MaxInvestment {
		return 0, fund.Errf(fund.CodeAboveMaximum, "amount %d above maximum %d", o.Amount, p.MaxInvestment), nil
	}
	if c.pool.TotalNav < 0 {
		return 0, fund.ErrInvalidNav, nil
	}
	// Shares outstanding against a zero NAV has no finite price.
	if c.pool.TotalShares > 0 && c.pool.TotalNav == 0 {
		return 0, fund.ErrInvalidNav, nil
	}

	issued := fpmath.SharesForInvestment(o.Amount, c.pool.TotalShares, c.pool.TotalNav)

	investor := o.Investor
	if err := c.treasury.Transfer(o.Amount, &investor, nil); err != nil {
		return 0, nil, fmt.Errorf("deposit transfer: %w", err)
	}
	if err := c.minter.Mint(issued, investor); err != nil {
		return 0, nil, fmt.Errorf("share mint: %w", err)
	}

	c.shares.Credit(investor, issued)
	c.pool.ApplyIssuance(o.Amount, issued)

	return issued, nil, nil
}

// applyWithdraw redeems shares pro rata and pays the yield portion on
// top. The yield portion is computed on the SHARE COUNT, not on the
// redeemed currency value; that coupling is carried over unchanged from
// the contract this core replaces.
func (c *Engine) applyWithdraw(o *op.WithdrawSubmitted) (int64, *fund.Error, error) {
	if o.Shares <= 0 {
		return 0, fund.ErrInvalidShareAmount, nil
	}
	balance := c.shares.Balance(o.Investor)
	if balance < o.Shares {
		return 0, fund.Errf(fund.CodeInsufficientBalance, "have %d shares, want %d", balance, o.Shares), nil
	}

	p := c.params.Get()
	rec := c.claims.Get(o.Investor)
	if o.BlockHeight < rec.LastClaim+p.WithdrawalLock {
		return 0, fund.Errf(fund.CodeFundsLocked, "locked until height %d, now %d", rec.LastClaim+p.WithdrawalLock, o.BlockHeight), nil
	}

	// Unreachable when the supply invariant holds; branch anyway
	// rather than divide by zero.
	if c.pool.TotalShares <= 0 {
		return 0, fund.ErrInsufficientBalance, nil
	}
	// A negative NAV (possible after yield-heavy redemptions) cannot
	// price a redemption.
	if c.pool.TotalNav < 0 {
		return 0, fund.ErrInvalidNav, nil
	}

	payout := fpmath.RedemptionValue(o.Shares, c.pool.TotalNav, c.pool.TotalShares)
	yieldPortion := fpmath.PercentFloor(o.Shares, p.YieldRate)
	totalPayout := payout + yieldPortion

	if err := c.minter.Burn(o.Shares, o.Investor); err != nil {
		return 0, nil, fmt.Errorf("share burn: %w", err)
	}
	investor := o.Investor
	if err := c.treasury.Transfer(totalPayout, nil, &investor); err != nil {
		return 0, nil, fmt.Errorf("payout transfer: %w", err)
	}

	if err := c.shares.Debit(o.Investor, o.Shares); err != nil {
		return 0, nil, err
	}
	c.pool.ApplyRedemption(totalPayout, o.Shares)
	c.claims.Record(o.Investor, o.BlockHeight, yieldPortion)

	if c.metrics != nil && yieldPortion > 0 {
		c.metrics.YieldPaidTotal.Add(float64(yieldPortion))
	}

	return totalPayout, nil, nil
}

func (c *Engine) applyAllocate(o *op.AllocateSubmitted) (int64, *fund.Error, error) {
	if !c.params.IsManagerOrGovernance(o.Approver) {
		return 0, fund.ErrUnauthorized, nil
	}

	rec, ok := c.assets.Get(o.AssetRef)
	if !ok {
		return 0, fund.Errf(fund.CodeInvalidAssetContract, "unknown asset %s", o.AssetRef), nil
	}
	if !rec.Verified {
		return 0, fund.Errf(fund.CodeAssetNotVerified, "asset %s not verified", o.AssetRef), nil
	}
	if o.Amount > c.pool.TotalNav {
		return 0, fund.Errf(fund.CodeInvalidAllocation, "amount %d exceeds pool NAV %d", o.Amount, c.pool.TotalNav), nil
	}

	assetRef := o.AssetRef
	if err := c.treasury.Transfer(o.Amount, nil, &assetRef); err != nil {
		return 0, nil, fmt.Errorf("allocation transfer: %w", err)
	}

	alloc := c.allocations.Append(o.AssetRef, o.Amount, o.BlockHeight, o.Approver)
	c.pool.ApplyAllocation(o.Amount)

	if c.metrics != nil {
		c.metrics.AllocationsMade.Inc()
	}

	return alloc.ID, nil, nil
}

// applyClaimYield pays yield recomputed from the CURRENT share balance.
// There is no pro-ration by elapsed time beyond the one-tick
// eligibility gate: repeated claims at the same balance and rate pay
// the same amount each eligible tick.
func (c *Engine) applyClaimYield(o *op.YieldClaimSubmitted) (int64, *fund.Error, error) {
	if o.Claimer != o.Beneficiary {
		return 0, fund.ErrInvalidUser, nil
	}

	rec := c.claims.Get(o.Beneficiary)
	if o.BlockHeight <= rec.LastClaim {
		return 0, fund.Errf(fund.CodeYieldNotAccrued, "last claim at height %d, now %d", rec.LastClaim, o.BlockHeight), nil
	}

	p := c.params.Get()
	newYield := fpmath.PercentFloor(c.shares.Balance(o.Beneficiary), p.YieldRate)

	if newYield > 0 {
		beneficiary := o.Beneficiary
		if err := c.treasury.Transfer(newYield, nil, &beneficiary); err != nil {
			return 0, nil, fmt.Errorf("yield transfer: %w", err)
		}
	}

	c.claims.Record(o.Beneficiary, o.BlockHeight, newYield)

	if c.metrics != nil && newYield > 0 {
		c.metrics.YieldPaidTotal.Add(float64(newYield))
	}

	return newYield, nil, nil
}

// applyNavUpdate overwrites NAV wholesale. This is a full replacement,
// not a delta: external valuation of allocated assets feeds back in
// through the oracle, deliberately decoupled from issuance bookkeeping.
func (c *Engine) applyNavUpdate(o *op.NavAttested) (int64, *fund.Error, error) {
	if _, bound := c.params.Oracle(); !bound {
		return 0, fund.ErrOracleNotVerified, nil
	}
	if !c.verifier.Verify(o.Attester, o.Proof) {
		return 0, fund.ErrOracleNotVerified, nil
	}
	if o.NewNav < 0 {
		return 0, fund.ErrInvalidNav, nil
	}

	c.pool.OverwriteNav(o.NewNav)
	return o.NewNav, nil, nil
}

func (c *Engine) applyAuthorityBind(o *op.AuthorityBind) (int64, *fund.Error, error) {
	switch o.Role {
	case op.RoleGovernance:
		if err := c.params.BindGovernance(o.Authority); err != nil {
			return 0, err, nil
		}
	case op.RoleOracle:
		if err := c.params.BindOracle(o.Authority); err != nil {
			return 0, err, nil
		}
	default:
		return 0, fund.Errf(fund.CodeInvalidParameter, "unknown authority role %q", o.Role), nil
	}
	return 0, nil, nil
}

func (c *Engine) applyParamSet(o *op.ParamSet) (int64, *fund.Error, error) {
	var err *fund.Error
	switch o.Param {
	case op.ParamMinInvestment:
		err = c.params.SetMinInvestment(o.Submitter, o.Value)
	case op.ParamMaxInvestment:
		err = c.params.SetMaxInvestment(o.Submitter, o.Value)
	case op.ParamWithdrawalLock:
		err = c.params.SetWithdrawalLock(o.Submitter, o.Value)
	case op.ParamYieldRate:
		err = c.params.SetYieldRate(o.Submitter, o.Value)
	case op.ParamSlippageTolerance:
		err = c.params.SetSlippageTolerance(o.Submitter, o.Value)
	default:
		err = fund.Errf(fund.CodeInvalidParameter, "unknown parameter %q", o.Param)
	}
	if err != nil {
		return 0, err, nil
	}
	return o.Value, nil, nil
}

func (c *Engine) applyManagerSet(o *op.ManagerSet) (int64, *fund.Error, error) {
	if err := c.params.SetManager(o.Submitter, o.NewManager); err != nil {
		return 0, err, nil
	}
	return 0, nil, nil
}

func (c *Engine) applyAssetUpsert(o *op.AssetUpsert) (int64, *fund.Error, error) {
	if !c.params.IsManagerOrGovernance(o.Submitter) {
		return 0, fund.ErrUnauthorized, nil
	}
	if !o.AssetRef.Valid() {
		return 0, fund.Errf(fund.CodeInvalidAssetContract, "invalid asset ref %q", o.AssetRef), nil
	}

	c.assets.Upsert(o.AssetRef, ledger.AssetRecord{
		TokenType:    o.TokenType,
		ValuePerUnit: o.ValuePerUnit,
		Verified:     o.Verified,
	})
	return 0, nil, nil
}

// computeStateDigest creates canonical bytes over the FULL fund state.
// The state is small enough that a full digest per operation beats
// tracking deltas, and it makes hash verification trivial on restore.
func (c *Engine) computeStateDigest() []byte {
	digest := make([]byte, 0, 1024)

	// Pool aggregates
	digest = appendInt64LE(digest, c.pool.TotalNav)
	digest = appendInt64LE(digest, c.pool.TotalShares)

	// Parameter store
	ps := c.params.Snapshot()
	digest = appendString(digest, string(ps.Manager))
	digest = appendString(digest, string(ps.Governance))
	digest = appendString(digest, string(ps.Oracle))
	digest = appendInt64LE(digest, ps.Params.MinInvestment)
	digest = appendInt64LE(digest, ps.Params.MaxInvestment)
	digest = appendInt64LE(digest, ps.Params.WithdrawalLock)
	digest = appendInt64LE(digest, ps.Params.YieldRate)
	digest = appendInt64LE(digest, ps.Params.SlippageTolerance)

	// Share balances, sorted by account
	for _, account := range c.shares.Holders() {
		digest = appendString(digest, string(account))
		digest = appendInt64LE(digest, c.shares.Balance(account))
	}

	// Claim records, sorted by account
	for _, account := range c.claims.Accounts() {
		rec := c.claims.Get(account)
		digest = appendString(digest, string(account))
		digest = appendInt64LE(digest, rec.LastClaim)
		digest = appendInt64LE(digest, rec.ClaimedTotal)
	}

	// Allocation log, ID order
	digest = appendInt64LE(digest, c.allocations.NextID())
	for _, alloc := range c.allocations.Snapshot() {
		digest = appendInt64LE(digest, alloc.ID)
		digest = appendString(digest, string(alloc.AssetRef))
		digest = appendInt64LE(digest, alloc.Amount)
		digest = appendInt64LE(digest, alloc.Timestamp)
		digest = appendString(digest, string(alloc.ApprovedBy))
	}

	// Asset registry, sorted by ref
	for _, ref := range c.assets.Refs() {
		rec, _ := c.assets.Get(ref)
		digest = appendString(digest, string(ref))
		digest = appendString(digest, rec.TokenType)
		digest = appendInt64LE(digest, rec.ValuePerUnit)
		if rec.Verified {
			digest = append(digest, 1)
		} else {
			digest = append(digest, 0)
		}
	}

	return digest
}

func appendInt64LE(buf []byte, v int64) []byte {
	return append(buf,
		byte(v),
		byte(v>>8),
		byte(v>>16),
		byte(v>>24),
		byte(v>>32),
		byte(v>>40),
		byte(v>>48),
		byte(v>>56),
	)
}

// appendString writes a uint32 length prefix, so long account or asset
// refs cannot alias distinct states in the digest.
func appendString(buf []byte, s string) []byte {
	n := len(s)
	buf = append(buf,
		byte(n),
		byte(n>>8),
		byte(n>>16),
		byte(n>>24),
	)
	return append(buf, []byte(s)...)
}

// postCheckInvariants validates cross-ledger consistency after apply.
// NAV is deliberately NOT checked for non-negativity here: the yield
// portion of a withdrawal can legitimately push NAV below zero, and
// invest guards against that state at its own entry.
func (c *Engine) postCheckInvariants() error {
	if c.pool.TotalShares < 0 {
		return fmt.Errorf("pool share supply is negative: %d", c.pool.TotalShares)
	}
	return c.validator.ValidateShareSupply()
}

// --- Read accessors (used by tests and synchronous queries) ---

// Nav returns the current pool NAV.
func (c *Engine) Nav() fund.Currency {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.TotalNav
}

// TotalShares returns the outstanding share supply.
func (c *Engine) TotalShares() fund.Shares {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.TotalShares
}

// UserShares returns an account's share balance.
func (c *Engine) UserShares(account fund.AccountID) fund.Shares {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shares.Balance(account)
}

// UserClaims returns an account's claim record, reporting whether one
// has ever been written.
func (c *Engine) UserClaims(account fund.AccountID) (ledger.ClaimRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claims.Get(account), c.claims.Exists(account)
}

// Allocation returns a recorded allocation by ID.
func (c *Engine) Allocation(id int64) (ledger.Allocation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocations.Get(id)
}

// Asset returns an asset record by reference.
func (c *Engine) Asset(ref fund.AccountID) (ledger.AssetRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.assets.Get(ref)
}

// Params returns the current parameter values.
func (c *Engine) Params() params.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params.Get()
}

// --- Snapshot Restore & Startup Methods ---

// SnapshotState holds the serializable in-memory state for restore.
// This mirrors persistence.SnapshotData but uses typed fields.
type SnapshotState struct {
	Sequence        int64
	StateHash       [32]byte
	LastHeight      fund.Height
	Pool            ledger.Pool
	Shares          map[fund.AccountID]fund.Shares
	Claims          map[fund.AccountID]ledger.ClaimRecord
	Allocations     []ledger.Allocation
	Assets          map[fund.AccountID]ledger.AssetRecord
	Params          params.Snapshot
	SequenceState   map[string]int64
	IdempotencyKeys []string
}

// RestoreFromSnapshot restores the engine's in-memory state. On warm
// restart, load the latest snapshot then replay the operation log.
func (c *Engine) RestoreFromSnapshot(snap *SnapshotState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sequence = snap.Sequence + 1 // Next sequence to assign
	c.lastHeight = snap.LastHeight
	c.hasher.SetPrevHash(snap.StateHash)

	c.pool.Restore(snap.Pool)
	c.shares.Restore(snap.Shares)
	c.claims.Restore(snap.Claims)
	if err := c.allocations.Restore(snap.Allocations); err != nil {
		return fmt.Errorf("restore allocations: %w", err)
	}
	c.assets.Restore(snap.Assets)
	c.params.Restore(snap.Params)

	for partition, nextSeq := range snap.SequenceState {
		c.sequenceValidator.RestorePartition(partition, nextSeq)
	}

	return nil
}

// WarmLRU loads recent idempotency keys into the LRU cache, avoiding
// cold-path DB lookups for recently processed operations.
func (c *Engine) WarmLRU(keys []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.idempotency.lru.WarmFromKeys(keys)
}

// GetSequence returns the current global sequence number.
func (c *Engine) GetSequence() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequence
}

// GetStateHash returns the current state hash (chain tip).
func (c *Engine) GetStateHash() [32]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasher.GetPrevHash()
}

// CreateSnapshotState captures the current in-memory state for persistence.
// Safe to call from the snapshot goroutine while operations are flowing.
func (c *Engine) CreateSnapshotState() *SnapshotState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &SnapshotState{
		Sequence:        c.sequence - 1, // Last processed sequence
		StateHash:       c.hasher.GetPrevHash(),
		LastHeight:      c.lastHeight,
		Pool:            c.pool.Snapshot(),
		Shares:          c.shares.Snapshot(),
		Claims:          c.claims.Snapshot(),
		Allocations:     c.allocations.Snapshot(),
		Assets:          c.assets.Snapshot(),
		Params:          c.params.Snapshot(),
		SequenceState:   c.sequenceValidator.GetAllPartitions(),
		IdempotencyKeys: c.idempotency.lru.GetAllKeys(),
	}
}
