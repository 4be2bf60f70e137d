// Package server provides the HTTP REST API for the job evaluation service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-evaluator/internal/db"
	"github.com/jonathan/job-evaluator/internal/pipeline"
	"github.com/jonathan/job-evaluator/internal/server/ratelimit"
	"github.com/jonathan/job-evaluator/internal/types"
)

// Store is the persistence surface the API reads runs and artifacts from.
// Both db.DB and db.FileStore satisfy it.
type Store interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]db.Run, error)
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
	GetTextArtifact(ctx context.Context, runID uuid.UUID, step string) (string, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// Evaluator runs the evaluation and generation operations behind the API.
// Satisfied by pipeline.Pipeline.
type Evaluator interface {
	Evaluate(ctx context.Context, req pipeline.EvaluationRequest) (*pipeline.EvaluationResult, error)
	Classify(ctx context.Context, req pipeline.ClassifyRequest) (*pipeline.ClassifyResult, error)
	Generate(ctx context.Context, req types.JobDescriptionRequest) (*pipeline.GenerationResult, error)
}

// Config holds server configuration.
type Config struct {
	Addr string
	// RateLimit overrides the default limiter configuration when set.
	RateLimit *ratelimit.Config
}

// Server is the HTTP API server.
type Server struct {
	httpServer  *http.Server
	store       Store
	evaluator   Evaluator
	rateLimiter *ratelimit.Limiter
}

// New wires the router and middleware. Evaluation endpoints run
// synchronously, so the write timeout is generous.
func New(cfg Config, evaluator Evaluator, store Store) *Server {
	s := &Server{
		store:       store,
		evaluator:   evaluator,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/artifacts/{step}", s.handleGetArtifact)
	mux.HandleFunc("GET /runs/{id}/report", s.handleGetReport)
	mux.HandleFunc("DELETE /runs/{id}", s.handleDeleteRun)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // evaluation runs hold the connection open
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start listens for requests until an interrupt or SIGTERM arrives, then
// shuts down gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	log.Println("server stopped")
	return nil
}

// withCORS adds CORS headers and answers preflight requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// withRateLimit enforces per-client limits and sets rate limit headers.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		}
		if !allowed {
			if info.RetryAfter > 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())+1))
			}
			log.Printf("[rate-limit] client %s exceeded limit %d on %s %s", clientID, info.Limit, r.Method, r.URL.Path)
			s.errorResponse(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractClientID identifies the client by IP address.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
