// Package server exposes the analysis artifact and run log over a read-only
// HTTP API.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/andes-data/procura-cli/internal/store"
)

// RunLister lists recorded pipeline runs.
type RunLister interface {
	List(ctx context.Context, limit int) ([]store.RunEntry, error)
}

// Server serves the read-only API over the store layout and run log.
type Server struct {
	layout store.Layout
	runs   RunLister
}

// New builds a Server.
func New(layout store.Layout, runs RunLister) *Server {
	return &Server{layout: layout, runs: runs}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/analysis", s.handleAnalysis)
	r.Get("/analysis/{country}", s.handleCountry)
	r.Get("/runs", s.handleRuns)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := store.ReadAnalysis(s.layout.AnalysisPath())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	country := strings.ToLower(chi.URLParam(r, "country"))

	analysis, err := store.ReadAnalysis(s.layout.AnalysisPath())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	totals, ok := analysis[country]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "country not analyzed: " + country})
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit: " + raw})
			return
		}
		limit = parsed
	}

	entries, err := s.runs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []store.RunEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
