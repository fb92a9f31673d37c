package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wonny/crisis-audit/internal/audit"
	"github.com/wonny/crisis-audit/internal/brain"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/internal/narrative"
	"github.com/wonny/crisis-audit/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxStressFees       = 50
)

// Service evaluation operations behind the API (brain.Orchestrator)
type Service interface {
	Run(ctx context.Context) (*brain.RunResult, error)
	Latest(ctx context.Context) (*audit.Run, error)
	History(ctx context.Context, limit int) ([]audit.Summary, error)
	Stress(ctx context.Context, fees []float64) ([]engine.StressPoint, error)
}

// AuditHandler handles audit API endpoints
// ⭐ SSOT: 감사 API 핸들러는 이 구조체에서만
type AuditHandler struct {
	svc      Service
	catalog  *narrative.Catalog
	language narrative.Language
	logger   *logger.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(svc Service, catalog *narrative.Catalog, lang narrative.Language, log *logger.Logger) *AuditHandler {
	return &AuditHandler{
		svc:      svc,
		catalog:  catalog,
		language: lang,
		logger:   log.WithComponent("api"),
	}
}

// latest fetches the newest run, writing the error response itself
func (h *AuditHandler) latest(w http.ResponseWriter, r *http.Request) (*audit.Run, bool) {
	run, err := h.svc.Latest(r.Context())
	if errors.Is(err, audit.ErrNoRuns) {
		respondError(w, http.StatusNotFound, "No evaluation run yet")
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest run")
		return nil, false
	}
	return run, true
}

// GetStatus returns the latest run
// GET /api/status
func (h *AuditHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	run, ok := h.latest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, run)
}

// GetNarrative renders the latest report
// GET /api/narrative?lang=ja&format=text
func (h *AuditHandler) GetNarrative(w http.ResponseWriter, r *http.Request) {
	lang := h.language
	if q := r.URL.Query().Get("lang"); q != "" {
		parsed, err := narrative.ParseLanguage(q)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = parsed
	}

	run, ok := h.latest(w, r)
	if !ok {
		return
	}

	n, err := h.catalog.Render(run.Report, lang)
	if err != nil {
		h.logger.WithError(err).Error("Failed to render narrative")
		respondError(w, http.StatusInternalServerError, "Failed to render narrative")
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(n.String()))
		return
	}
	respondJSON(w, http.StatusOK, n)
}

// EvaluateResponse result of an on-demand run
type EvaluateResponse struct {
	Run         *audit.Run `json:"run"`
	UnknownKeys []string   `json:"unknown_override_keys,omitempty"`
	Override    string     `json:"override_error,omitempty"`
	Stages      []string   `json:"stages"`
}

// Evaluate runs one cycle now
// POST /api/evaluate
func (h *AuditHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("On-demand evaluation failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := EvaluateResponse{
		Run:         result.Run,
		UnknownKeys: result.UnknownKeys,
		Stages:      result.CompletedStages,
	}
	if result.OverrideError != nil {
		resp.Override = result.OverrideError.Error()
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetHistory returns recent run summaries
// GET /api/history?limit=20
func (h *AuditHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	summaries, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}
	respondJSON(w, http.StatusOK, summaries)
}

// GetStress sweeps the unit fee over a fresh snapshot
// GET /api/stress?fees=0,329.17,1000
func (h *AuditHandler) GetStress(w http.ResponseWriter, r *http.Request) {
	fees, err := parseFees(r.URL.Query().Get("fees"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	points, err := h.svc.Stress(r.Context(), fees)
	if err != nil {
		h.logger.WithError(err).Error("Stress sweep failed")
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, points)
}

// GetThresholds returns the thresholds used by the latest run
// GET /api/thresholds
func (h *AuditHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
	run, ok := h.latest(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, run.Report.Thresholds)
}

func parseFees(raw string) ([]float64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxStressFees {
		return nil, errors.New("too many fees")
	}

	fees := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return nil, errors.New("fees must be non-negative numbers")
		}
		fees = append(fees, v)
	}
	return fees, nil
}
