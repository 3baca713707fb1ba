package server_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GreenFund/internal/observability"
	"GreenFund/internal/op"
	"GreenFund/internal/query"
	"GreenFund/internal/server"
)

type stubQuery struct {
	pool    *query.PoolResponse
	shares  *query.SharesResponse
	receipt *query.ReceiptResponse
	asset   *query.AssetResponse
}

func (s *stubQuery) GetPool(ctx context.Context) (*query.PoolResponse, error) {
	return s.pool, nil
}

func (s *stubQuery) GetShares(ctx context.Context, account string) (*query.SharesResponse, error) {
	if s.shares != nil && s.shares.Account == account {
		return s.shares, nil
	}
	return &query.SharesResponse{Account: account}, nil
}

func (s *stubQuery) GetClaims(ctx context.Context, account string) (*query.ClaimsResponse, error) {
	return &query.ClaimsResponse{Account: account}, nil
}

func (s *stubQuery) GetAllocation(ctx context.Context, id int64) (*query.AllocationResponse, error) {
	return nil, nil
}

func (s *stubQuery) ListAllocations(ctx context.Context, limit int, beforeID *int64) ([]query.AllocationResponse, error) {
	return nil, nil
}

func (s *stubQuery) GetAsset(ctx context.Context, assetRef string) (*query.AssetResponse, error) {
	if s.asset != nil && s.asset.AssetRef == assetRef {
		return s.asset, nil
	}
	return nil, nil
}

func (s *stubQuery) GetReceipt(ctx context.Context, opID string) (*query.ReceiptResponse, error) {
	if s.receipt != nil && s.receipt.OpID == opID {
		return s.receipt, nil
	}
	return nil, nil
}

func (s *stubQuery) VerifyIntegrity(ctx context.Context) (*query.IntegrityReport, error) {
	return &query.IntegrityReport{IsHealthy: true}, nil
}

type stubSubmitter struct {
	submitted []op.Operation
	err       error
}

func (s *stubSubmitter) Submit(ctx context.Context, operation op.Operation) error {
	if s.err != nil {
		return s.err
	}
	s.submitted = append(s.submitted, operation)
	return nil
}

func newTestServer(t *testing.T, q server.QueryAPI, sub server.OpSubmitter) *httptest.Server {
	t.Helper()
	hc := observability.NewHealthChecker()
	hc.SetReady(true)
	srv := server.New(":0", &server.Deps{
		Query:         q,
		Submitter:     sub,
		HealthChecker: hc,
		Log:           observability.NewLogger("test"),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestGetPool(t *testing.T) {
	q := &stubQuery{pool: &query.PoolResponse{
		TotalNav: 5_000_000, TotalShares: 5_000_000_000_000, SharePrice: 1, AsOfSequence: 7,
	}}
	ts := newTestServer(t, q, &stubSubmitter{})

	resp, err := http.Get(ts.URL + "/v1/pool")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got query.PoolResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, int64(5_000_000), got.TotalNav)
	assert.Equal(t, int64(7), got.AsOfSequence)
}

func TestGetShares(t *testing.T) {
	q := &stubQuery{shares: &query.SharesResponse{
		Account: "SP4ALICE", Shares: 5_000_000_000_000, RedemptionValue: 5_000_000,
	}}
	ts := newTestServer(t, q, &stubSubmitter{})

	resp, err := http.Get(ts.URL + "/v1/accounts/SP4ALICE/shares")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got query.SharesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, int64(5_000_000_000_000), got.Shares)
}

func TestGetReceipt_NotFound(t *testing.T) {
	ts := newTestServer(t, &stubQuery{}, &stubSubmitter{})

	resp, err := http.Get(ts.URL + "/v1/receipts/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetAllocation_BadID(t *testing.T) {
	ts := newTestServer(t, &stubQuery{}, &stubSubmitter{})

	resp, err := http.Get(ts.URL + "/v1/allocations/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitOp(t *testing.T) {
	sub := &stubSubmitter{}
	ts := newTestServer(t, &stubQuery{}, sub)

	body := `{
		"op_id": "550e8400-e29b-41d4-a716-446655440000",
		"investor": "SP4ALICE",
		"amount": 5000000,
		"block_height": 100,
		"sequence": 0
	}`
	resp, err := http.Post(ts.URL+"/v1/ops/invest", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Len(t, sub.submitted, 1)
	inv, ok := sub.submitted[0].(*op.InvestSubmitted)
	require.True(t, ok)
	assert.Equal(t, int64(5_000_000), inv.Amount)

	var ack map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", ack["op_id"])
	assert.Equal(t, "queued", ack["status"])
}

func TestSubmitOp_UnknownType(t *testing.T) {
	ts := newTestServer(t, &stubQuery{}, &stubSubmitter{})

	resp, err := http.Post(ts.URL+"/v1/ops/rebalance", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitOp_MalformedPayload(t *testing.T) {
	sub := &stubSubmitter{}
	ts := newTestServer(t, &stubQuery{}, sub)

	resp, err := http.Post(ts.URL+"/v1/ops/invest", "application/json", strings.NewReader(`{"op_id":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, sub.submitted)
}

func TestSubmitOp_Backpressure(t *testing.T) {
	sub := &stubSubmitter{err: fmt.Errorf("queue full")}
	ts := newTestServer(t, &stubQuery{}, sub)

	body := `{
		"op_id": "550e8400-e29b-41d4-a716-446655440000",
		"investor": "SP4ALICE",
		"amount": 5000000,
		"block_height": 100,
		"sequence": 0
	}`
	resp, err := http.Post(ts.URL+"/v1/ops/invest", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestProbes(t *testing.T) {
	ts := newTestServer(t, &stubQuery{}, &stubSubmitter{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
