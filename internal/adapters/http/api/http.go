// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/quotedesk/internal/adapters/mq/queue"
	"github.com/okian/quotedesk/internal/adapters/repository"
	service "github.com/okian/quotedesk/internal/app"
	"github.com/okian/quotedesk/internal/domain/combination"
	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/readiness"
	"github.com/okian/quotedesk/internal/domain/scoring"
	"github.com/okian/quotedesk/internal/domain/types"
	"github.com/okian/quotedesk/pkg/metrics"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// EngineDependencies are the stateless decision operations.
type EngineDependencies interface {
	Normalize(ctx context.Context, raws []model.RawProposal) []model.Proposal
	Rank(ctx context.Context, proposals []model.Proposal, w scoring.Weights) ([]scoring.RankedProposal, error)
	Redistribute(ctx context.Context, m scoring.Metric, value float64, current scoring.Weights) (scoring.Weights, error)
	Combine(ctx context.Context, proposals []model.Proposal, requested []model.LineItem) *combination.Result
	Visibility(ctx context.Context, in readiness.Input) readiness.Decision
	ResolveWeights(name string) (scoring.Weights, error)
	Presets() []scoring.NamedPreset
}

// QuoteDependencies are the operations on stored quotes.
type QuoteDependencies interface {
	CreateQuote(ctx context.Context, q *model.Quote) error
	GetQuote(ctx context.Context, id string) (model.Quote, error)
	SubmitProposal(ctx context.Context, p *model.RawProposal) error
	SetOverride(ctx context.Context, quoteID string) error
	// Resync reports false when a resync for the quote is already pending.
	Resync(ctx context.Context, quoteID, reason string) (bool, error)
	Analyze(ctx context.Context, quoteID string, w scoring.Weights) (*types.Analysis, error)
	Snapshot(ctx context.Context, quoteID string) (*types.Analysis, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EngineDependencies
	QuoteDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	engineHandler *EngineHandler
	quoteHandler  *QuoteHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(deps),
		engineHandler: NewEngineHandler(deps),
		quoteHandler:  NewQuoteHandler(deps, deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /v1/normalize", MetricsMiddleware(s.engineHandler.HandleNormalize, "normalize"))
	mux.HandleFunc("POST /v1/rank", MetricsMiddleware(s.engineHandler.HandleRank, "rank"))
	mux.HandleFunc("POST /v1/weights/redistribute", MetricsMiddleware(s.engineHandler.HandleRedistribute, "weights_redistribute"))
	mux.HandleFunc("GET /v1/weights/presets", MetricsMiddleware(s.engineHandler.HandlePresets, "weights_presets"))
	mux.HandleFunc("POST /v1/combination", MetricsMiddleware(s.engineHandler.HandleCombination, "combination"))
	mux.HandleFunc("POST /v1/visibility", MetricsMiddleware(s.engineHandler.HandleVisibility, "visibility"))

	mux.HandleFunc("POST /v1/quotes", MetricsMiddleware(s.quoteHandler.HandleCreate, "quotes_create"))
	mux.HandleFunc("GET /v1/quotes/{id}", MetricsMiddleware(s.quoteHandler.HandleGet, "quotes_get"))
	mux.HandleFunc("POST /v1/quotes/{id}/proposals", MetricsMiddleware(s.quoteHandler.HandleSubmitProposal, "quotes_proposals"))
	mux.HandleFunc("POST /v1/quotes/{id}/override", MetricsMiddleware(s.quoteHandler.HandleOverride, "quotes_override"))
	mux.HandleFunc("POST /v1/quotes/{id}/resync", MetricsMiddleware(s.quoteHandler.HandleResync, "quotes_resync"))
	mux.HandleFunc("GET /v1/quotes/{id}/analysis", MetricsMiddleware(s.quoteHandler.HandleAnalysis, "quotes_analysis"))
	mux.HandleFunc("GET /v1/quotes/{id}/snapshot", MetricsMiddleware(s.quoteHandler.HandleSnapshot, "quotes_snapshot"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a single JSON document into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// writeServiceError translates domain and service errors into HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, scoring.ErrInvalidWeights),
		errors.Is(err, scoring.ErrUnknownMetric),
		errors.Is(err, scoring.ErrUnknownPreset),
		errors.Is(err, repository.ErrInvalidQuote),
		errors.Is(err, repository.ErrInvalidProposal):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, queue.ErrFull), errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
