package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"GreenFund/internal/config"
	"GreenFund/internal/core"
	"GreenFund/internal/fund"
	"GreenFund/internal/ingestion"
	fpmath "GreenFund/internal/math"
	"GreenFund/internal/observability"
	"GreenFund/internal/op"
	"GreenFund/internal/persistence"
	"GreenFund/internal/projection"
	"GreenFund/internal/query"
	"GreenFund/internal/server"
	"GreenFund/internal/settlement"
)

func main() {
	log := observability.NewLogger("main")
	log.Info().Msg("GreenFund starting")

	cfg, err := config.Load(envOrDefault("FUND_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// --- Context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// --- Postgres ---
	db, err := sql.Open("postgres", cfg.Postgres.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres open")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres ping")
	}
	log.Info().Msg("Postgres connected")

	// --- Run SQL migrations ---
	migrator := persistence.NewMigrator(db, cfg.Postgres.MigrationsDir)
	if err := migrator.Up(ctx); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}
	log.Info().Msg("migrations applied")

	snapMgr := persistence.NewSnapshotManager(db)

	// --- Recovery: load snapshot + replay ---
	startSequence := int64(0)

	snap, err := snapMgr.LoadLatestSnapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load snapshot")
	}
	if snap != nil {
		startSequence = snap.Sequence + 1
		log.Info().Int64("sequence", snap.Sequence).Msg("loaded snapshot")
	} else {
		log.Info().Msg("no snapshot found, cold start from sequence 0")
	}

	// --- Channels ---
	// Persist channel blocks (backpressure), projection channel drops.
	persistCoreChan := make(chan core.CoreOutput, cfg.Channels.PersistSize)
	projectionCoreChan := make(chan core.CoreOutput, cfg.Channels.ProjectionSize)

	// Bridge channels for the workers (avoids import cycles)
	persistWorkerChan := make(chan persistence.CoreOutput, cfg.Channels.PersistSize)
	projectionWorkerChan := make(chan projection.ProjectionOutput, cfg.Channels.ProjectionSize)
	publishChan := make(chan ingestion.PublishableOp, 4096)

	// --- Observability ---
	dbChecker := persistence.NewPostgresIdempotencyChecker(db)
	metrics := observability.NewMetrics()
	healthChecker := observability.NewHealthChecker()

	// --- Deterministic engine ---
	// The recorder stands in for the external settlement rails: every
	// transfer and mint is captured in order and shipped downstream via
	// the outbound event stream.
	recorder := settlement.NewRecorder()

	engine := core.NewEngine(
		startSequence,
		fund.AccountID(cfg.Fund.Manager),
		persistCoreChan,
		projectionCoreChan,
		dbChecker,
		recorder,
		recorder,
		settlement.NonEmptyProofVerifier{},
		metrics,
	)

	// --- Snapshot restore ---
	if snap != nil {
		if err := restoreStateFromSnapshot(engine, snap); err != nil {
			log.Fatal().Err(err).Msg("snapshot restore")
		}
		log.Info().Int64("sequence", snap.Sequence).Msg("restored in-memory state from snapshot")
	}

	// --- LRU warming ---
	// Recent idempotency keys go into the LRU so warm-path dedup skips
	// the DB lookup.
	if snap != nil && len(snap.IdempotencyKeys) > 0 {
		engine.WarmLRU(snap.IdempotencyKeys)
		log.Info().Int("keys", len(snap.IdempotencyKeys)).Msg("warmed LRU from snapshot")
	} else {
		keys, err := dbChecker.LoadRecentKeys(ctx, 100_000)
		if err != nil {
			log.Warn().Err(err).Msg("load recent idempotency keys")
		} else if len(keys) > 0 {
			engine.WarmLRU(keys)
			log.Info().Int("keys", len(keys)).Msg("warmed LRU from operation log")
		}
	}

	errChan := make(chan error, 10)

	// producers tracks every goroutine that sends on the worker
	// channels; shutdown waits for them before closing.
	var producers sync.WaitGroup

	// The persistence path must be live BEFORE replay: replayed
	// operations re-emit to the persist channel (conflict-ignored on
	// write) and would otherwise deadlock the blocking send.
	persistWorker := persistence.NewPersistenceWorker(db, persistWorkerChan, cfg.Persistence.BatchSize, cfg.FlushTimeout(), metrics)
	go func() {
		errChan <- persistWorker.Run(ctx)
	}()
	producers.Add(1)
	go func() {
		defer producers.Done()
		bridgePersistOutputs(ctx, persistCoreChan, persistWorkerChan, publishChan)
	}()

	// --- Operation replay ---
	replayCount, err := replayOpsFromLog(ctx, log, snapMgr, engine, startSequence)
	if err != nil {
		log.Fatal().Err(err).Msg("operation replay")
	}
	if replayCount > 0 {
		log.Info().Int64("ops", replayCount).Int64("sequence", engine.GetSequence()).Msg("replay complete")
		if metrics != nil {
			metrics.ReplayOpsTotal.Add(float64(replayCount))
		}
	}

	// Replay bypasses the core loop, so the projection side channel may
	// hold stale outputs. Drain it; the rebuild below reconverges the
	// projection tables from engine state.
	for len(projectionCoreChan) > 0 {
		<-projectionCoreChan
	}

	// --- State hash verification ---
	if snap != nil && replayCount == 0 {
		var expectedHash [32]byte
		copy(expectedHash[:], snap.StateHash)
		if actual := engine.GetStateHash(); actual != expectedHash {
			log.Fatal().
				Hex("expected", expectedHash[:]).
				Hex("actual", actual[:]).
				Msg("state hash mismatch after restore")
		}
		log.Info().Msg("state hash verified after snapshot restore")
	}

	// --- Projection rebuild ---
	// The projection channel drops on overflow, so converge the tables
	// from authoritative engine state once per startup.
	if err := projection.RebuildFromState(ctx, db, fullStateFromEngine(engine)); err != nil {
		log.Fatal().Err(err).Msg("projection rebuild")
	}

	// --- NATS ---
	nc, js, err := ingestion.ConnectNATS(cfg.NATS.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("nats connect")
	}
	defer nc.Close()
	log.Info().Str("url", cfg.NATS.URL).Msg("NATS connected")

	if err := ingestion.EnsureStreams(ctx, js); err != nil {
		log.Fatal().Err(err).Msg("ensure NATS streams")
	}
	if err := ingestion.EnsureOutboundStream(ctx, js); err != nil {
		log.Fatal().Err(err).Msg("ensure outbound stream")
	}

	rawOpChan := make(chan ingestion.RawOp, 4096)
	natsSubscriber := ingestion.NewNATSSubscriber(js, rawOpChan)
	if err := natsSubscriber.Subscribe(ctx, ingestion.DefaultSubjects()); err != nil {
		log.Fatal().Err(err).Msg("nats subscribe")
	}

	outboundPublisher := ingestion.NewOutboundPublisher(js, publishChan)

	// Typed operations from both ingest paths (NATS and HTTP) funnel
	// into one channel so the engine stays single-threaded.
	typedOpChan := make(chan op.Operation, 4096)

	// --- Services ---
	queryService := query.NewQueryService(db)
	httpServer := server.New(cfg.HTTP.Addr, &server.Deps{
		Query:         queryService,
		Submitter:     &channelSubmitter{ch: typedOpChan},
		HealthChecker: healthChecker,
		Log:           observability.NewLogger("server"),
	})

	// --- Start goroutines ---
	projWorker := projection.NewProjectionWorker(db, projectionWorkerChan)
	go func() {
		errChan <- projWorker.Run(ctx)
	}()

	go func() {
		errChan <- outboundPublisher.Run(ctx)
	}()

	go func() {
		runParseLoop(ctx, log, rawOpChan, typedOpChan)
	}()

	producers.Add(1)
	go func() {
		defer producers.Done()
		runCoreLoop(ctx, log, typedOpChan, engine, projectionCoreChan, projectionWorkerChan, metrics)
	}()

	go func() {
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		runPeriodicSnapshots(ctx, log, engine, snapMgr, cfg.Persistence.SnapshotInterval, metrics)
	}()

	go func() {
		reportChannelMetrics(ctx, metrics, persistCoreChan, projectionWorkerChan, typedOpChan)
	}()

	healthChecker.SetReady(true)
	log.Info().
		Int64("sequence", engine.GetSequence()).
		Str("http", cfg.HTTP.Addr).
		Msg("GreenFund ready")

	// --- Wait for shutdown signal ---
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errChan:
		log.Error().Err(err).Msg("goroutine failed, shutting down")
	}

	// --- Graceful shutdown ---
	cancel()
	natsSubscriber.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	// The worker channels can only be closed once every producer has
	// stopped sending, or shutdown races a send against the close.
	producers.Wait()
	close(persistWorkerChan)
	close(projectionWorkerChan)
	close(publishChan)

	if err := takeSnapshot(shutdownCtx, engine, snapMgr, metrics); err != nil {
		log.Error().Err(err).Msg("final snapshot failed")
	} else {
		log.Info().Msg("final snapshot saved")
	}

	log.Info().Msg("GreenFund shutdown complete")
}

// channelSubmitter adapts the typed operation channel to the HTTP
// server's submitter interface. A full channel surfaces as an error so
// the handler can shed load instead of blocking a request.
type channelSubmitter struct {
	ch chan<- op.Operation
}

func (cs *channelSubmitter) Submit(ctx context.Context, operation op.Operation) error {
	select {
	case cs.ch <- operation:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("ingest queue full")
	}
}

// runParseLoop validates and converts raw NATS messages into typed
// operations. Messages are acked after the channel send, NOT after core
// processing: that keeps AckWait from expiring under a slow core while
// still propagating backpressure through the blocking send.
func runParseLoop(ctx context.Context, log zerolog.Logger, rawChan <-chan ingestion.RawOp, typedChan chan<- op.Operation) {
	// Subject-prefix lookup (subjects end in ".>", match by prefix).
	subjectToType := make(map[string]string)
	for _, cfg := range ingestion.DefaultSubjects() {
		prefix := cfg.Subject
		if len(prefix) > 2 && prefix[len(prefix)-2:] == ".>" {
			prefix = prefix[:len(prefix)-2]
		}
		subjectToType[prefix] = cfg.OpType
	}

	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-rawChan:
			if !ok {
				return
			}

			opType := resolveOpType(raw.Subject, subjectToType)
			if opType == "" {
				log.Warn().Str("subject", raw.Subject).Msg("unknown NATS subject")
				raw.AckFunc() // ack to avoid a redelivery loop
				continue
			}

			operation, err := ingestion.ParseRawOp(raw, opType)
			if err != nil {
				log.Warn().Err(err).Str("subject", raw.Subject).Msg("parse operation failed")
				raw.AckFunc() // unparseable now means unparseable on redelivery too
				continue
			}

			select {
			case typedChan <- operation:
				raw.AckFunc()
			case <-ctx.Done():
				raw.NakFunc()
				return
			}
		}
	}
}

// resolveOpType finds the operation type for a NATS subject by longest
// prefix match.
func resolveOpType(subject string, prefixMap map[string]string) string {
	bestMatch := ""
	bestType := ""
	for prefix, opType := range prefixMap {
		if len(subject) >= len(prefix) && subject[:len(prefix)] == prefix {
			if len(prefix) > len(bestMatch) {
				bestMatch = prefix
				bestType = opType
			}
		}
	}
	return bestType
}

// runCoreLoop drains typed operations into the engine. After each
// applied operation it reads the touched state back out and ships
// post-values to the projection worker; the worker never re-runs domain
// logic.
func runCoreLoop(
	ctx context.Context,
	log zerolog.Logger,
	typedChan <-chan op.Operation,
	engine *core.Engine,
	projectionCoreChan <-chan core.CoreOutput,
	projectionOut chan<- projection.ProjectionOutput,
	metrics *observability.Metrics,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case operation, ok := <-typedChan:
			if !ok {
				return
			}

			if err := engine.ProcessOperation(operation); err != nil {
				// Ordering violations and primitive faults; the
				// operation left no trace and NATS will not retry it.
				log.Error().Err(err).
					Str("op_type", operation.OpType().String()).
					Str("op_id", operation.IdempotencyKey()).
					Msg("process operation failed")
				continue
			}

			// Duplicates apply nothing and emit nothing; the default
			// branch covers them.
			select {
			case output := <-projectionCoreChan:
				projOut := buildProjectionOutput(engine, output, operation)
				select {
				case projectionOut <- projOut:
				default:
					if metrics != nil {
						metrics.ProjectionDrops.WithLabelValues("tables").Inc()
					}
				}
			default:
			}
		}
	}
}

// buildProjectionOutput reads post-operation state for the accounts and
// records the operation touched. Runs on the core goroutine, so the
// reads are consistent with the just-applied operation.
func buildProjectionOutput(engine *core.Engine, output core.CoreOutput, operation op.Operation) projection.ProjectionOutput {
	env := output.Envelope
	rec := output.Receipt

	projOut := projection.ProjectionOutput{
		Sequence: env.Sequence,
		OpType:   env.OpType.String(),
		Status:   rec.Status.String(),
		Caller:   string(env.Caller),
		Height:   int64(env.Height),
	}

	// Rejections change no state; only the watermark advances.
	if rec.Status != core.StatusAccepted {
		return projOut
	}

	pool := &projection.PoolState{
		TotalNav:    engine.Nav(),
		TotalShares: engine.TotalShares(),
	}

	switch o := operation.(type) {
	case *op.InvestSubmitted:
		projOut.Pool = pool
		projOut.Holding = &projection.HoldingState{
			Account: string(o.Investor),
			Shares:  engine.UserShares(o.Investor),
		}

	case *op.WithdrawSubmitted:
		projOut.Pool = pool
		projOut.Holding = &projection.HoldingState{
			Account: string(o.Investor),
			Shares:  engine.UserShares(o.Investor),
		}
		if claim, ok := engine.UserClaims(o.Investor); ok {
			projOut.Claim = &projection.ClaimState{
				Account:      string(o.Investor),
				LastClaim:    claim.LastClaim,
				ClaimedTotal: claim.ClaimedTotal,
			}
		}
		if yieldPortion := fpmath.PercentFloor(o.Shares, engine.Params().YieldRate); yieldPortion > 0 {
			projOut.YieldPaid = &projection.YieldHistoryEntry{
				Account:  o.Investor,
				Amount:   yieldPortion,
				Height:   o.BlockHeight,
				OpID:     env.IdempotencyKey,
				Sequence: env.Sequence,
			}
		}

	case *op.YieldClaimSubmitted:
		if claim, ok := engine.UserClaims(o.Beneficiary); ok {
			projOut.Claim = &projection.ClaimState{
				Account:      string(o.Beneficiary),
				LastClaim:    claim.LastClaim,
				ClaimedTotal: claim.ClaimedTotal,
			}
		}
		if rec.Result > 0 {
			projOut.YieldPaid = &projection.YieldHistoryEntry{
				Account:  o.Beneficiary,
				Amount:   rec.Result,
				Height:   o.BlockHeight,
				OpID:     env.IdempotencyKey,
				Sequence: env.Sequence,
			}
		}

	case *op.AllocateSubmitted:
		projOut.Pool = pool
		if alloc, ok := engine.Allocation(rec.Result); ok {
			projOut.Allocation = &projection.AllocationState{
				ID:         alloc.ID,
				AssetRef:   string(alloc.AssetRef),
				Amount:     alloc.Amount,
				Height:     alloc.Timestamp,
				ApprovedBy: string(alloc.ApprovedBy),
			}
		}

	case *op.NavAttested:
		projOut.Pool = pool

	case *op.AssetUpsert:
		if asset, ok := engine.Asset(o.AssetRef); ok {
			projOut.Asset = &projection.AssetState{
				AssetRef:     string(o.AssetRef),
				TokenType:    asset.TokenType,
				ValuePerUnit: asset.ValuePerUnit,
				Verified:     asset.Verified,
			}
		}

		// AuthorityBind, ParamSet, ManagerSet: no projection tables.
	}

	return projOut
}

// bridgePersistOutputs converts core.CoreOutput to the persistence
// worker's row format and fans a copy out to the outbound publisher.
func bridgePersistOutputs(
	ctx context.Context,
	persistIn <-chan core.CoreOutput,
	persistOut chan<- persistence.CoreOutput,
	publishOut chan<- ingestion.PublishableOp,
) {
	for {
		select {
		case <-ctx.Done():
			return

		case output, ok := <-persistIn:
			if !ok {
				return
			}

			env := output.Envelope
			rec := output.Receipt
			now := time.Now()

			pOutput := persistence.CoreOutput{
				OpRow: persistence.OpRow{
					Sequence:       env.Sequence,
					OpType:         env.OpType.String(),
					IdempotencyKey: env.IdempotencyKey,
					Caller:         string(env.Caller),
					Height:         int64(env.Height),
					Payload:        env.Payload,
					StateHash:      env.StateHash[:],
					PrevHash:       env.PrevHash[:],
					Timestamp:      now,
					SourceSequence: env.SourceSequence,
				},
				ReceiptRow: persistence.ReceiptRow{
					OpID:     rec.OpID,
					Sequence: env.Sequence,
					OpType:   env.OpType.String(),
					Caller:   string(rec.Caller),
					Height:   int64(rec.Height),
					Status:   rec.Status.String(),
					Code:     int32(rec.Code),
					Result:   rec.Result,
					Message:  rec.Message,
				},
			}

			// Blocking send (no operation is lost), but cancellable so
			// shutdown can stop this producer before closing the channel.
			select {
			case persistOut <- pOutput:
			case <-ctx.Done():
				return
			}

			select {
			case publishOut <- ingestion.PublishableOp{
				Sequence:       env.Sequence,
				OpType:         env.OpType.String(),
				IdempotencyKey: env.IdempotencyKey,
				Caller:         string(env.Caller),
				Height:         int64(env.Height),
				Status:         rec.Status.String(),
				Code:           int32(rec.Code),
				Result:         rec.Result,
				Payload:        json.RawMessage(env.Payload),
				StateHash:      env.StateHash[:],
				Timestamp:      now,
			}:
			default:
				// Drop if the publish channel is full; downstream can
				// read the operation log directly.
			}
		}
	}
}

// --- Snapshot restore & replay ---

// restoreStateFromSnapshot converts persistence.SnapshotData into the
// engine's typed snapshot form and restores in-memory state.
func restoreStateFromSnapshot(engine *core.Engine, snap *persistence.SnapshotData) error {
	coreSnap := &core.SnapshotState{
		Sequence:        snap.Sequence,
		LastHeight:      snap.LastHeight,
		Pool:            snap.Pool,
		Shares:          snap.Shares,
		Claims:          snap.Claims,
		Allocations:     snap.Allocations,
		Assets:          snap.Assets,
		Params:          snap.Params,
		SequenceState:   snap.SequenceState,
		IdempotencyKeys: snap.IdempotencyKeys,
	}
	copy(coreSnap.StateHash[:], snap.StateHash)

	return engine.RestoreFromSnapshot(coreSnap)
}

// replayOpsFromLog replays operations from the log starting at
// fromSequence: warm restart replays from the snapshot forward, cold
// restart replays everything.
func replayOpsFromLog(
	ctx context.Context,
	log zerolog.Logger,
	snapMgr *persistence.SnapshotManager,
	engine *core.Engine,
	fromSequence int64,
) (int64, error) {
	const batchSize = 1000
	var totalReplayed int64

	for {
		ops, err := snapMgr.LoadOpsFrom(ctx, fromSequence, batchSize)
		if err != nil {
			return totalReplayed, fmt.Errorf("load ops from seq %d: %w", fromSequence, err)
		}
		if len(ops) == 0 {
			break
		}

		for _, row := range ops {
			raw := ingestion.RawOp{
				Subject: row.OpType,
				Data:    row.Payload,
			}

			typedOp, err := ingestion.ParseRawOp(raw, row.OpType)
			if err != nil {
				log.Warn().Err(err).
					Int64("sequence", row.Sequence).
					Str("op_type", row.OpType).
					Msg("skip unparseable operation during replay")
				continue
			}

			if err := engine.ProcessOperation(typedOp); err != nil {
				// Duplicates and sequence skips are expected here.
				log.Debug().Err(err).Int64("sequence", row.Sequence).Msg("replay skip")
			}

			totalReplayed++
		}

		fromSequence = ops[len(ops)-1].Sequence + 1
	}

	return totalReplayed, nil
}

// fullStateFromEngine captures current engine state for a projection
// rebuild.
func fullStateFromEngine(engine *core.Engine) projection.FullState {
	snap := engine.CreateSnapshotState()

	state := projection.FullState{
		Sequence: snap.Sequence,
		Pool: projection.PoolState{
			TotalNav:    snap.Pool.TotalNav,
			TotalShares: snap.Pool.TotalShares,
		},
	}

	for account, shares := range snap.Shares {
		state.Holdings = append(state.Holdings, projection.HoldingState{
			Account: string(account),
			Shares:  shares,
		})
	}
	for account, claim := range snap.Claims {
		state.Claims = append(state.Claims, projection.ClaimState{
			Account:      string(account),
			LastClaim:    claim.LastClaim,
			ClaimedTotal: claim.ClaimedTotal,
		})
	}
	for _, alloc := range snap.Allocations {
		state.Allocations = append(state.Allocations, projection.AllocationState{
			ID:         alloc.ID,
			AssetRef:   string(alloc.AssetRef),
			Amount:     alloc.Amount,
			Height:     alloc.Timestamp,
			ApprovedBy: string(alloc.ApprovedBy),
		})
	}
	for ref, asset := range snap.Assets {
		state.Assets = append(state.Assets, projection.AssetState{
			AssetRef:     string(ref),
			TokenType:    asset.TokenType,
			ValuePerUnit: asset.ValuePerUnit,
			Verified:     asset.Verified,
		})
	}

	return state
}

// --- Snapshot helpers ---

// runPeriodicSnapshots takes a snapshot every N operations, checking on
// a 10s tick.
func runPeriodicSnapshots(
	ctx context.Context,
	log zerolog.Logger,
	engine *core.Engine,
	snapMgr *persistence.SnapshotManager,
	interval int64,
	metrics *observability.Metrics,
) {
	if interval <= 0 {
		interval = 100_000
	}

	lastSnapshotSeq := engine.GetSequence()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			currentSeq := engine.GetSequence()
			if currentSeq-lastSnapshotSeq >= interval {
				if err := takeSnapshot(ctx, engine, snapMgr, metrics); err != nil {
					log.Warn().Err(err).Msg("periodic snapshot failed")
				} else {
					lastSnapshotSeq = currentSeq
					log.Info().Int64("sequence", currentSeq).Msg("periodic snapshot")
				}
			}
		}
	}
}

// takeSnapshot captures engine state and persists it. The snapshot is
// marked verified immediately since it came from live state.
func takeSnapshot(
	ctx context.Context,
	engine *core.Engine,
	snapMgr *persistence.SnapshotManager,
	metrics *observability.Metrics,
) error {
	start := time.Now()

	coreSnap := engine.CreateSnapshotState()
	snapData := &persistence.SnapshotData{
		Sequence:        coreSnap.Sequence,
		StateHash:       coreSnap.StateHash[:],
		LastHeight:      coreSnap.LastHeight,
		Pool:            coreSnap.Pool,
		Shares:          coreSnap.Shares,
		Claims:          coreSnap.Claims,
		Allocations:     coreSnap.Allocations,
		Assets:          coreSnap.Assets,
		Params:          coreSnap.Params,
		SequenceState:   coreSnap.SequenceState,
		IdempotencyKeys: coreSnap.IdempotencyKeys,
		CreatedAt:       time.Now(),
	}

	if err := snapMgr.SaveSnapshot(ctx, snapData); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := snapMgr.MarkVerified(ctx, snapData.Sequence); err != nil {
		return fmt.Errorf("mark snapshot verified: %w", err)
	}

	if metrics != nil {
		metrics.SnapshotTaken.Inc()
		metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
		metrics.SnapshotLastSeq.Set(float64(snapData.Sequence))
	}

	return nil
}

// reportChannelMetrics samples channel depths for the utilization gauges.
func reportChannelMetrics(
	ctx context.Context,
	metrics *observability.Metrics,
	persistCh chan core.CoreOutput,
	projectionCh chan projection.ProjectionOutput,
	typedCh chan op.Operation,
) {
	if metrics == nil {
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetChannelMetrics("persist", len(persistCh), cap(persistCh))
			metrics.SetChannelMetrics("projection", len(projectionCh), cap(projectionCh))
			metrics.SetChannelMetrics("ingest", len(typedCh), cap(typedCh))
		}
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
