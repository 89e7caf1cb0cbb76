package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/dealbrief/internal/broadcast"
	"github.com/jonathan/dealbrief/internal/types"
)

// MaxInputBytes caps submitted memo text at 10KB of UTF-8. Oversized input
// is rejected before hashing, before any record is created.
const MaxInputBytes = 10 * 1024

// Store is the persistence capability the handlers consume. *db.DB
// satisfies it.
type Store interface {
	CreateDeal(ctx context.Context, id uuid.UUID, contentHash, rawText string) (*types.Deal, error)
	GetDealByHash(ctx context.Context, contentHash string) (*types.Deal, error)
	GetDealByID(ctx context.Context, id uuid.UUID) (*types.Deal, error)
	ListDeals(ctx context.Context, limit int) ([]types.Deal, error)
}

// Runner starts an extraction run for a freshly created deal.
// *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, dealID uuid.UUID)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Store
	runner      Runner
	broadcaster *broadcast.Broadcaster
}

// Config holds server configuration
type Config struct {
	Port int
}

// New creates a new server instance. Dependencies are constructed by the
// caller and injected; the server owns only the HTTP lifecycle.
func New(cfg Config, store Store, runner Runner, broadcaster *broadcast.Broadcaster) *Server {
	s := &Server{
		store:       store,
		runner:      runner,
		broadcaster: broadcaster,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// routes builds the request router.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/deals", s.handleCreateDeal)
	mux.HandleFunc("POST /api/deals/from-url", s.handleCreateDealFromURL)
	mux.HandleFunc("GET /api/deals", s.handleListDeals)
	mux.HandleFunc("GET /api/deals/{id}", s.handleGetDeal)
	mux.HandleFunc("GET /ws/deals/{id}", s.handleWatchDeal)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response with the status code mapped
// from the error type.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	body := map[string]any{"error": err.Error()}
	if dup, ok := err.(*ErrDuplicateDeal); ok {
		body["existing_id"] = dup.ExistingID.String()
	}
	s.jsonResponse(w, HTTPStatus(err), body)
}
