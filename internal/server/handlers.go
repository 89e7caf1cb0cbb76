package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/dealbrief/internal/dedupe"
	"github.com/jonathan/dealbrief/internal/fetch"
	"github.com/jonathan/dealbrief/internal/types"
)

// handleCreateDeal accepts raw memo text and runs it through the dedup gate.
func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Message: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, &ErrValidation{Message: "raw_text is required"})
		return
	}

	s.submitText(w, r, req.RawText)
}

// handleCreateDealFromURL fetches a memo from a URL, strips it to text, and
// submits it through the same dedup gate as raw text.
func (s *Server) handleCreateDealFromURL(w http.ResponseWriter, r *http.Request) {
	var req types.CreateDealFromURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Message: "invalid request body: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, &ErrValidation{Message: "url is required and must be valid"})
		return
	}

	html, err := fetch.URL(r.Context(), req.URL)
	if err != nil {
		s.errorResponse(w, &ErrUpstreamFetch{Cause: err})
		return
	}
	text, err := fetch.ExtractMainText(html)
	if err != nil {
		s.errorResponse(w, &ErrUpstreamFetch{Cause: err})
		return
	}
	if text == "" {
		s.errorResponse(w, &ErrValidation{Message: "no text content at URL"})
		return
	}

	s.submitText(w, r, text)
}

// submitText is the dedup gate: size check, content hash, duplicate lookup,
// record creation, and the asynchronous hand-off to the orchestrator.
func (s *Server) submitText(w http.ResponseWriter, r *http.Request, rawText string) {
	// Size cap applies before hashing, before any record exists.
	if len(rawText) > MaxInputBytes {
		s.errorResponse(w, &ErrInputTooLarge{Size: len(rawText), Limit: MaxInputBytes})
		return
	}

	contentHash := dedupe.Hash(rawText)

	existing, err := s.store.GetDealByHash(r.Context(), contentHash)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if existing != nil {
		s.errorResponse(w, &ErrDuplicateDeal{ExistingID: existing.ID})
		return
	}

	dealID := uuid.New()
	deal, err := s.store.CreateDeal(r.Context(), dealID, contentHash, rawText)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	log.Printf("[deals] created deal %s (%d bytes)", dealID, len(rawText))

	// The extraction runs detached from the request; its progress is
	// observable via the status endpoint and the WebSocket stream.
	go s.runner.Run(context.Background(), dealID)

	s.jsonResponse(w, http.StatusCreated, deal)
}

// handleListDeals returns the latest deals.
func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := s.store.ListDeals(r.Context(), 10)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if deals == nil {
		deals = []types.Deal{}
	}
	s.jsonResponse(w, http.StatusOK, types.DealListResponse{Deals: deals})
}

// handleGetDeal returns a deal by ID.
func (s *Server) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	dealID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Message: "invalid deal ID format"})
		return
	}

	deal, err := s.store.GetDealByID(r.Context(), dealID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if deal == nil {
		s.errorResponse(w, &ErrDealNotFound{DealID: dealID})
		return
	}

	s.jsonResponse(w, http.StatusOK, deal)
}
