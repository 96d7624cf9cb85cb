// Package api exposes the discovery service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/procurehq/vendorscout/internal/discovery"
)

// Server wraps the discovery service with an HTTP surface.
type Server struct {
	svc    *discovery.Service
	logger *slog.Logger
	srv    *http.Server
}

// NewServer builds a Server around svc.
func NewServer(svc *discovery.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger}
}

// Handler returns the routed HTTP handler. Exposed separately from Start so
// tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /discover", s.handleDiscover)
	mux.HandleFunc("GET /batches", s.handleBatches)
	mux.HandleFunc("DELETE /batches/{id}", s.handleClearBatch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.recoverMiddleware(mux)
}

// Start begins serving on the given port in a background goroutine.
func (s *Server) Start(port int) {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		s.logger.Info("api server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server failed", "err", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	var req discovery.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	resp, err := s.svc.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusGatewayTimeout, "discovery canceled")
			return
		}
		s.logger.Error("discovery failed", "query", req.Query, "err", err)
		s.writeError(w, http.StatusInternalServerError, "discovery failed")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.svc.Batches(r.Context())
	if err != nil {
		s.logger.Error("listing batches failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, "listing batches failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func (s *Server) handleClearBatch(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	removed, err := s.svc.ClearBatch(r.Context(), batchID)
	if err != nil {
		s.logger.Error("clearing batch failed", "batch_id", batchID, "err", err)
		s.writeError(w, http.StatusInternalServerError, "clearing batch failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"batch_id": batchID,
		"removed":  removed,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverMiddleware converts handler panics into a 500 with no partial body.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", rec)
				s.writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
