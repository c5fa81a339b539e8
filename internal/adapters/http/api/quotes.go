package api

import (
	"net/http"
	"time"

	service "github.com/okian/quotedesk/internal/app"
	"github.com/okian/quotedesk/internal/domain/model"
)

type proposalAck struct {
	ID          string    `json:"id"`
	QuoteID     string    `json:"quote_id"`
	SupplierID  string    `json:"supplier_id"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type resyncAck struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// QuoteHandler serves the stored quote operations.
type QuoteHandler struct {
	deps    QuoteDependencies
	weights EngineDependencies
}

// NewQuoteHandler creates a new quote handler. Weight presets named in
// analysis requests are resolved through weights.
func NewQuoteHandler(deps QuoteDependencies, weights EngineDependencies) *QuoteHandler {
	return &QuoteHandler{deps: deps, weights: weights}
}

// HandleCreate handles POST /v1/quotes requests.
func (h *QuoteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_quote"
	var q model.Quote
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	// Visibility is owned by the readiness rules.
	q.MatrixVisible = false
	if err := h.deps.CreateQuote(r.Context(), &q); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// HandleGet handles GET /v1/quotes/{id} requests.
func (h *QuoteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q, err := h.deps.GetQuote(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.get_quote", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleSubmitProposal handles POST /v1/quotes/{id}/proposals requests.
func (h *QuoteHandler) HandleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_proposal"
	var p model.RawProposal
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	p.QuoteID = r.PathValue("id")
	if err := h.deps.SubmitProposal(r.Context(), &p); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, proposalAck{
		ID:          p.ID,
		QuoteID:     p.QuoteID,
		SupplierID:  p.SupplierID,
		SubmittedAt: p.SubmittedAt,
	})
}

// HandleOverride handles POST /v1/quotes/{id}/override requests.
func (h *QuoteHandler) HandleOverride(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.deps.SetOverride(r.Context(), id); err != nil {
		writeServiceError(w, "api.override", err)
		return
	}
	q, err := h.deps.GetQuote(r.Context(), id)
	if err != nil {
		writeServiceError(w, "api.override", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// HandleResync handles POST /v1/quotes/{id}/resync requests.
func (h *QuoteHandler) HandleResync(w http.ResponseWriter, r *http.Request) {
	const op = "api.resync"
	id := r.PathValue("id")
	if _, err := h.deps.GetQuote(r.Context(), id); err != nil {
		writeServiceError(w, op, err)
		return
	}
	scheduled, err := h.deps.Resync(r.Context(), id, service.ReasonManual)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if !scheduled {
		writeJSON(w, http.StatusOK, resyncAck{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, resyncAck{Status: "accepted"})
}

// HandleAnalysis handles GET /v1/quotes/{id}/analysis?preset=NAME requests.
func (h *QuoteHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.analysis"
	weights, err := h.weights.ResolveWeights(r.URL.Query().Get("preset"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	a, err := h.deps.Analyze(r.Context(), r.PathValue("id"), weights)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleSnapshot handles GET /v1/quotes/{id}/snapshot requests.
func (h *QuoteHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	a, err := h.deps.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
