package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/quotedesk/internal/domain/combination"
	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/readiness"
	"github.com/okian/quotedesk/internal/domain/scoring"
)

type normalizeRequest struct {
	Proposals []model.RawProposal `json:"proposals"`
}

type normalizeResponse struct {
	Proposals []model.Proposal `json:"proposals"`
}

type rankRequest struct {
	Proposals []model.RawProposal `json:"proposals"`
	Weights   *scoring.Weights    `json:"weights,omitempty"`
	Preset    string              `json:"preset,omitempty"`
}

type rankResponse struct {
	Weights scoring.Weights          `json:"weights"`
	Ranking []scoring.RankedProposal `json:"ranking"`
}

type redistributeRequest struct {
	Metric  *scoring.Metric  `json:"metric"`
	Value   *float64         `json:"value"`
	Current *scoring.Weights `json:"current,omitempty"`
}

type presetsResponse struct {
	Presets []scoring.NamedPreset `json:"presets"`
}

type combinationRequest struct {
	Proposals      []model.RawProposal `json:"proposals"`
	RequestedItems []model.LineItem    `json:"requested_items,omitempty"`
}

type combinationResponse struct {
	Combination *combination.Result `json:"combination"`
}

type visibilityRequest struct {
	Previous         readiness.State `json:"previous"`
	ProposalsCount   int             `json:"proposals_count"`
	InvitedSuppliers int             `json:"invited_suppliers"`
	RespondedInvited *int            `json:"responded_invited,omitempty"`
	Deadline         *time.Time      `json:"deadline,omitempty"`
	ManualOverride   bool            `json:"manual_override"`
	Now              *time.Time      `json:"now,omitempty"`
}

func (v *visibilityRequest) input() (readiness.Input, error) {
	in := readiness.Input{
		Previous:         v.Previous,
		ProposalsCount:   v.ProposalsCount,
		InvitedSuppliers: v.InvitedSuppliers,
		RespondedInvited: v.RespondedInvited,
		Deadline:         v.Deadline,
		ManualOverride:   v.ManualOverride,
	}
	if v.ProposalsCount < 0 || v.InvitedSuppliers < 0 || (v.RespondedInvited != nil && *v.RespondedInvited < 0) {
		return in, errors.New("counts must not be negative")
	}
	if v.Now != nil {
		in.Now = *v.Now
	}
	return in, nil
}

// EngineHandler serves the stateless decision operations.
type EngineHandler struct {
	deps EngineDependencies
}

// NewEngineHandler creates a new engine handler.
func NewEngineHandler(deps EngineDependencies) *EngineHandler {
	return &EngineHandler{deps: deps}
}

// HandleNormalize handles POST /v1/normalize requests.
func (h *EngineHandler) HandleNormalize(w http.ResponseWriter, r *http.Request) {
	const op = "api.normalize"
	var req normalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, normalizeResponse{Proposals: h.deps.Normalize(r.Context(), req.Proposals)})
}

// HandleRank handles POST /v1/rank requests. Explicit weights win over a
// preset; with neither the default preset applies.
func (h *EngineHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.rank"
	var req rankRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var weights scoring.Weights
	if req.Weights != nil {
		weights = *req.Weights
	} else {
		var err error
		if weights, err = h.deps.ResolveWeights(req.Preset); err != nil {
			writeServiceError(w, op, err)
			return
		}
	}

	proposals := h.deps.Normalize(r.Context(), req.Proposals)
	ranked, err := h.deps.Rank(r.Context(), proposals, weights)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, rankResponse{Weights: weights, Ranking: ranked})
}

// HandleRedistribute handles POST /v1/weights/redistribute requests.
func (h *EngineHandler) HandleRedistribute(w http.ResponseWriter, r *http.Request) {
	const op = "api.redistribute"
	var req redistributeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Metric == nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("metric and value are required")))
		return
	}
	current := scoring.DefaultWeights()
	if req.Current != nil {
		current = *req.Current
	}

	next, err := h.deps.Redistribute(r.Context(), *req.Metric, *req.Value, current)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

// HandlePresets handles GET /v1/weights/presets requests.
func (h *EngineHandler) HandlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, presetsResponse{Presets: h.deps.Presets()})
}

// HandleCombination handles POST /v1/combination requests.
func (h *EngineHandler) HandleCombination(w http.ResponseWriter, r *http.Request) {
	const op = "api.combination"
	var req combinationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	proposals := h.deps.Normalize(r.Context(), req.Proposals)
	res := h.deps.Combine(r.Context(), proposals, req.RequestedItems)
	writeJSON(w, http.StatusOK, combinationResponse{Combination: res})
}

// HandleVisibility handles POST /v1/visibility requests.
func (h *EngineHandler) HandleVisibility(w http.ResponseWriter, r *http.Request) {
	const op = "api.visibility"
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Visibility(r.Context(), in))
}
