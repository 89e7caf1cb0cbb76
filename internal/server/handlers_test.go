package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/dealbrief/internal/broadcast"
	"github.com/jonathan/dealbrief/internal/dedupe"
	"github.com/jonathan/dealbrief/internal/types"
)

// fakeDealStore is an in-memory Store for handler tests.
type fakeDealStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*types.Deal
	byHash map[string]*types.Deal

	createCalls int
	hashLookups int
}

func newFakeDealStore() *fakeDealStore {
	return &fakeDealStore{
		byID:   make(map[uuid.UUID]*types.Deal),
		byHash: make(map[string]*types.Deal),
	}
}

func (s *fakeDealStore) CreateDeal(_ context.Context, id uuid.UUID, contentHash, rawText string) (*types.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	deal := &types.Deal{
		ID:          id,
		ContentHash: contentHash,
		RawText:     rawText,
		Status:      types.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.byID[id] = deal
	s.byHash[contentHash] = deal
	return deal, nil
}

func (s *fakeDealStore) GetDealByHash(_ context.Context, contentHash string) (*types.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashLookups++
	return s.byHash[contentHash], nil
}

func (s *fakeDealStore) GetDealByID(_ context.Context, id uuid.UUID) (*types.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id], nil
}

func (s *fakeDealStore) ListDeals(_ context.Context, limit int) ([]types.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deals []types.Deal
	for _, deal := range s.byID {
		if len(deals) == limit {
			break
		}
		deals = append(deals, *deal)
	}
	return deals, nil
}

// fakeRunner records the deal ids handed to it.
type fakeRunner struct {
	runs chan uuid.UUID
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{runs: make(chan uuid.UUID, 8)}
}

func (r *fakeRunner) Run(_ context.Context, dealID uuid.UUID) {
	r.runs <- dealID
}

func newTestServer() (*Server, *fakeDealStore, *fakeRunner) {
	store := newFakeDealStore()
	runner := newFakeRunner()
	srv := New(Config{Port: 0}, store, runner, broadcast.New())
	return srv, store, runner
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateDeal_Success(t *testing.T) {
	srv, store, runner := newTestServer()
	handler := srv.routes()

	rec := postJSON(t, handler, "/api/deals", types.CreateDealRequest{
		RawText: "Acme Corp raised a $5M seed round led by XYZ Ventures.",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var deal types.Deal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deal))
	assert.Equal(t, types.StatusPending, deal.Status)
	assert.Equal(t, "Acme Corp raised a $5M seed round led by XYZ Ventures.", deal.RawText)
	assert.Equal(t, dedupe.Hash(deal.RawText), deal.ContentHash)
	assert.Equal(t, 1, store.createCalls)

	// The extraction run is handed off asynchronously with the new id.
	select {
	case runID := <-runner.runs:
		assert.Equal(t, deal.ID, runID)
	case <-time.After(time.Second):
		t.Fatal("extraction run was never started")
	}
}

func TestCreateDeal_EmptyText(t *testing.T) {
	srv, store, _ := newTestServer()

	rec := postJSON(t, srv.routes(), "/api/deals", types.CreateDealRequest{RawText: ""})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, store.createCalls)
}

func TestCreateDeal_InputTooLarge(t *testing.T) {
	srv, store, _ := newTestServer()

	rec := postJSON(t, srv.routes(), "/api/deals", types.CreateDealRequest{
		RawText: strings.Repeat("a", MaxInputBytes+1),
	})

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	// Rejected before hashing: the store is never consulted.
	assert.Equal(t, 0, store.hashLookups)
	assert.Equal(t, 0, store.createCalls)
}

func TestCreateDeal_ExactlyAtLimit(t *testing.T) {
	srv, _, _ := newTestServer()

	rec := postJSON(t, srv.routes(), "/api/deals", types.CreateDealRequest{
		RawText: strings.Repeat("a", MaxInputBytes),
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateDeal_Duplicate(t *testing.T) {
	srv, store, _ := newTestServer()
	handler := srv.routes()

	first := postJSON(t, handler, "/api/deals", types.CreateDealRequest{RawText: "Same memo text."})
	require.Equal(t, http.StatusCreated, first.Code)
	var created types.Deal
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))

	// Different casing and whitespace, same normalized content.
	second := postJSON(t, handler, "/api/deals", types.CreateDealRequest{RawText: "  SAME   memo TEXT. "})
	require.Equal(t, http.StatusConflict, second.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, created.ID.String(), body["existing_id"])
	assert.Equal(t, 1, store.createCalls, "no second record is ever created")
}

func TestGetDeal(t *testing.T) {
	srv, store, _ := newTestServer()
	handler := srv.routes()

	deal, err := store.CreateDeal(context.Background(), uuid.New(), "hash", "memo")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/deals/"+deal.ID.String(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got types.Deal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, deal.ID, got.ID)
}

func TestGetDeal_NotFound(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/deals/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDeal_InvalidID(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/deals/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDeals(t *testing.T) {
	srv, store, _ := newTestServer()

	for i := 0; i < 3; i++ {
		_, err := store.CreateDeal(context.Background(), uuid.New(), fmt.Sprintf("hash-%d", i), "memo")
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.DealListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Deals, 3)
}

func TestListDeals_EmptyIsArray(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deals":[]`)
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ErrInputTooLarge{Size: 11000, Limit: MaxInputBytes}, http.StatusRequestEntityTooLarge},
		{&ErrDuplicateDeal{ExistingID: uuid.New()}, http.StatusConflict},
		{&ErrDealNotFound{DealID: uuid.New()}, http.StatusNotFound},
		{&ErrValidation{Message: "raw_text is required"}, http.StatusBadRequest},
		{&ErrUpstreamFetch{Cause: fmt.Errorf("boom")}, http.StatusBadGateway},
		{fmt.Errorf("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "for %T", tt.err)
	}
}
