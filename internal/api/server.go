// Package api provides the ecopool HTTP server: a webhook-style entry
// point for billing contribution events and read-only views over the pool
// and the execution ledger.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecopool-network/ecopool/internal/app/ledger"
	"github.com/ecopool-network/ecopool/internal/domain"
)

// Server is the ecopool HTTP API server.
type Server struct {
	ledger         *ledger.Service
	executions     domain.ExecutionStore
	signerAddress  string
	version        string
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(svc *ledger.Service, executions domain.ExecutionStore, version string) *Server {
	return &Server{ledger: svc, executions: executions, version: version}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetSignerAddress sets the wallet address reported by /api/status.
func (s *Server) SetSignerAddress(addr string) { s.signerAddress = addr }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/pool/{month}", s.handlePoolSummary)
		r.Get("/executions", s.handleExecutions)
		r.Post("/contributions", s.handleContribution)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ecopool is running",
		"version": s.version,
	}
	if s.signerAddress != "" {
		status["signer_address"] = s.signerAddress
	}
	writeJSON(w, http.StatusOK, status)
}

// handlePoolSummary returns the aggregated pool for one month.
func (s *Server) handlePoolSummary(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")
	summary, err := s.ledger.MonthlySummary(month)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleExecutions lists execution records, optionally filtered by ?month=.
func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month != "" && !domain.ValidMonth(month) {
		writeError(w, http.StatusBadRequest, "month must match YYYY-MM")
		return
	}
	recs, err := s.executions.ListExecutions(month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []domain.BatchExecutionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"executions": recs})
}

// handleContribution accepts one billing event. Redelivered events (same
// external_event_id) return the original record with 200 instead of 201.
func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	var input ledger.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	res, err := s.ledger.RecordContribution(input)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
