package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
	healthuc "github.com/kailas-cloud/tokengate/internal/usecase/health"
	reportuc "github.com/kailas-cloud/tokengate/internal/usecase/report"
)

// Error codes returned in ErrorResponse bodies.
const (
	codeBadRequest    = "bad_request"
	codePoolNotFound  = "pool_not_found"
	codeInternalError = "internal_error"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatsResponse holds the counters behind the UI stat cards.
type StatsResponse struct {
	DailyTotal    int64 `json:"daily_total"`
	MonthlyTotal  int64 `json:"monthly_total"`
	PeakDay       int64 `json:"peak_day"`
	LifetimeTotal int64 `json:"lifetime_total"`
}

// GraphStatsResponse holds the derived figures for the graph sidebar.
type GraphStatsResponse struct {
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	PeakHours    string `json:"peak_hours"`
	DailyChange  string `json:"daily_change"`
}

// Server exposes the read-only reporting API over chi.
type Server struct {
	pools  map[string]*reportuc.Service
	health *healthuc.Service
	logger *zap.Logger
}

// NewServer creates an HTTP API server. pools maps pool name to its
// reporting service.
func NewServer(pools map[string]*reportuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{pools: pools, health: health, logger: logger}
}

// Routes registers all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/pools/{pool}/token-usage", s.getTokenUsage)
	r.Get("/api/pools/{pool}/graph-stats", s.getGraphStats)
	r.Get("/api/pools/{pool}/stats", s.getStats)
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// poolService resolves the pool path parameter, writing a 404 when the
// pool is not configured.
func (s *Server) poolService(w http.ResponseWriter, r *http.Request) (*reportuc.Service, bool) {
	name := chi.URLParam(r, "pool")
	svc, ok := s.pools[name]
	if !ok {
		writeError(w, http.StatusNotFound, codePoolNotFound, "unknown pool: "+name)
		return nil, false
	}
	return svc, true
}

// getTokenUsage handles GET /api/pools/{pool}/token-usage.
// The body is today's history as a bare JSON array for charting.
func (s *Server) getTokenUsage(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.poolService(w, r)
	if !ok {
		return
	}

	history, err := svc.TokenUsage(r.Context())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	if history == nil {
		history = []quota.HistoryPoint{}
	}
	writeJSON(w, http.StatusOK, history)
}

// getGraphStats handles GET /api/pools/{pool}/graph-stats.
func (s *Server) getGraphStats(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.poolService(w, r)
	if !ok {
		return
	}

	gs, err := svc.GraphStats(r.Context())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GraphStatsResponse{
		InputTokens:  gs.InputTokens,
		OutputTokens: gs.OutputTokens,
		PeakHours:    gs.PeakHours,
		DailyChange:  gs.DailyChange,
	})
}

// getStats handles GET /api/pools/{pool}/stats.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	svc, ok := s.poolService(w, r)
	if !ok {
		return
	}

	stats, err := svc.Stats(r.Context())
	if err != nil {
		s.handleStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		DailyTotal:    stats.DailyTotal,
		MonthlyTotal:  stats.MonthlyTotal,
		PeakDay:       stats.PeakDay,
		LifetimeTotal: stats.LifetimeTotal,
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) handleStoreError(w http.ResponseWriter, err error) {
	s.logger.Error("store read failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
