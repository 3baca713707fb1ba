package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"GreenFund/internal/ingestion"
	"GreenFund/internal/observability"
	"GreenFund/internal/op"
	"GreenFund/internal/query"
)

// OpSubmitter accepts parsed operations for processing. The orchestrator
// wires this to the same channel the NATS subscriber feeds, so manually
// injected operations go through the identical pipeline.
type OpSubmitter interface {
	Submit(ctx context.Context, operation op.Operation) error
}

// QueryAPI is the read surface the handlers need. *query.QueryService
// implements it.
type QueryAPI interface {
	GetPool(ctx context.Context) (*query.PoolResponse, error)
	GetShares(ctx context.Context, account string) (*query.SharesResponse, error)
	GetClaims(ctx context.Context, account string) (*query.ClaimsResponse, error)
	GetAllocation(ctx context.Context, id int64) (*query.AllocationResponse, error)
	ListAllocations(ctx context.Context, limit int, beforeID *int64) ([]query.AllocationResponse, error)
	GetAsset(ctx context.Context, assetRef string) (*query.AssetResponse, error)
	GetReceipt(ctx context.Context, opID string) (*query.ReceiptResponse, error)
	VerifyIntegrity(ctx context.Context) (*query.IntegrityReport, error)
}

// Deps holds all dependencies needed by the HTTP handlers.
type Deps struct {
	Query         QueryAPI
	Submitter     OpSubmitter
	HealthChecker *observability.HealthChecker
	Log           zerolog.Logger
}

// Server serves the query API, manual operation injection, health
// probes, and Prometheus metrics over one HTTP listener.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	deps   *Deps
}

// New creates a new HTTP server with all routes registered.
func New(addr string, deps *Deps) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    deps.Log.With().Str("component", "http").Logger(),
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	// Probes and metrics
	s.router.Get("/healthz", s.deps.HealthChecker.LivenessHandler)
	s.router.Get("/readyz", s.deps.HealthChecker.ReadinessHandler)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/pool", s.handleGetPool)
		r.Get("/accounts/{account}/shares", s.handleGetShares)
		r.Get("/accounts/{account}/claims", s.handleGetClaims)
		r.Get("/allocations", s.handleListAllocations)
		r.Get("/allocations/{id}", s.handleGetAllocation)
		r.Get("/assets/{ref}", s.handleGetAsset)
		r.Get("/receipts/{opID}", s.handleGetReceipt)
		r.Get("/integrity", s.handleVerifyIntegrity)

		// Manual operation injection. The payload must carry a correct
		// source sequence for its partition; high-throughput submission
		// goes through NATS instead.
		r.Post("/ops/{type}", s.handleSubmitOp)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// --- Handlers ---

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deps.Query.GetPool(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetShares(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	resp, err := s.deps.Query.GetShares(r.Context(), account)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetClaims(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	resp, err := s.deps.Query.GetClaims(r.Context(), account)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAllocations(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", v))
			return
		}
		limit = n
	}

	var beforeID *int64
	if v := r.URL.Query().Get("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid cursor: %q", v))
			return
		}
		beforeID = &n
	}

	resp, err := s.deps.Query.ListAllocations(r.Context(), limit, beforeID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid allocation id"))
		return
	}

	resp, err := s.deps.Query.GetAllocation(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if resp == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("allocation %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	resp, err := s.deps.Query.GetAsset(r.Context(), ref)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if resp == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("asset %s not found", ref))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	opID := chi.URLParam(r, "opID")
	resp, err := s.deps.Query.GetReceipt(r.Context(), opID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if resp == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("receipt %s not found", opID))
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.Query.VerifyIntegrity(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// opTypeFromPath maps URL op type segments to parser type names.
var opTypeFromPath = map[string]string{
	"invest":   "Invest",
	"withdraw": "Withdraw",
	"allocate": "Allocate",
	"claim":    "ClaimYield",
	"nav":      "NavUpdate",
	"bind":     "BindAuthority",
	"param":    "SetParam",
	"manager":  "SetManager",
	"asset":    "AssetUpsert",
}

func (s *Server) handleSubmitOp(w http.ResponseWriter, r *http.Request) {
	typeName, ok := opTypeFromPath[chi.URLParam(r, "type")]
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown operation type"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}

	raw := ingestion.RawOp{
		Subject:   r.URL.Path,
		Data:      body,
		Timestamp: time.Now(),
		AckFunc:   func() {},
		NakFunc:   func() {},
	}

	operation, err := ingestion.ParseRawOp(raw, typeName)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.deps.Submitter.Submit(r.Context(), operation); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	// Accepted for processing; the outcome lands at /v1/receipts/{opID}.
	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"op_id":  operation.IdempotencyKey(),
		"status": "queued",
	})
}

// --- helpers ---

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn().Err(err).Msg("write response failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
