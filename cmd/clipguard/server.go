// cmd/clipguard/server.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server is the HTTP front door: one analysis endpoint, its streaming
// variant, and a health check.
type Server struct {
	cfg          *Config
	orchestrator *Orchestrator
	store        *TrustStore
	httpServer   *http.Server
	startedAt    time.Time
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg *Config, orchestrator *Orchestrator, store *TrustStore) *Server {
	s := &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        store,
		startedAt:    time.Now(),
	}

	router := mux.NewRouter()
	router.Use(s.corsMiddleware)
	router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/analyze/stream", s.handleAnalyzeStream).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
	}
	return s
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	Logger().Info("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %v", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"service": "clipguard",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	registry := s.store.Registry()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
		"trusted_tiers":  registry.TierCount(),
		"denied_domains": registry.DenyCount(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	defer RecoverFromPanic("analyze-handler")

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VideoID == "" {
		respondWithError(w, http.StatusBadRequest, "video_id is required")
		return
	}

	Logger().Info("Analyze request for video %s", req.VideoID)
	verdict, err := s.orchestrator.Analyze(r.Context(), req, nil)
	if err != nil {
		Logger().Error("Analysis failed for %s: %v", req.VideoID, err)
		respondWithError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	respondWithJSON(w, http.StatusOK, verdict)
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		Logger().Error("Failed to write response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
