package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/quotedesk/internal/domain/combination"
	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/readiness"
	"github.com/okian/quotedesk/internal/domain/scoring"
	"github.com/okian/quotedesk/internal/domain/types"
	"github.com/okian/quotedesk/pkg/logger"
	"github.com/okian/quotedesk/pkg/metrics"
)

// Normalize reconciles raw supplier records.
func (s *Service) Normalize(_ context.Context, raws []model.RawProposal) []model.Proposal {
	out := s.normalizer.NormalizeAll(raws)
	for i := range out {
		metrics.RecordProposalNormalized(string(out[i].TotalSource))
	}
	return out
}

// Rank scores and orders normalized proposals.
func (s *Service) Rank(_ context.Context, proposals []model.Proposal, w scoring.Weights) ([]scoring.RankedProposal, error) {
	start := time.Now()
	ranked, err := scoring.Rank(proposals, w)
	if err != nil {
		return nil, err
	}
	metrics.RecordRankingLatency(float64(time.Since(start).Microseconds()) / 1000)
	return ranked, nil
}

// Redistribute sets one weight and rebalances the others.
func (s *Service) Redistribute(ctx context.Context, m scoring.Metric, value float64, current scoring.Weights) (scoring.Weights, error) {
	next, err := scoring.Redistribute(m, value, current)
	if err != nil {
		return scoring.Weights{}, err
	}
	metrics.RecordWeightRedistribution(m.String())
	s.logger.Debug(ctx, "weights redistributed",
		logger.String("metric", m.String()),
		logger.Float64("value", value),
	)
	return next, nil
}

// Combine builds the cheapest per-item basket. When requested is not empty
// the basket is anchored on the RFQ's items.
func (s *Service) Combine(_ context.Context, proposals []model.Proposal, requested []model.LineItem) *combination.Result {
	var opts []combination.Option
	if len(requested) > 0 {
		opts = append(opts, combination.WithRequestedItems(requested))
	}
	res := combination.Optimize(proposals, opts...)
	if res != nil {
		metrics.RecordCombination(res.IsMultiSupplier, res.SavingsPercentage)
	}
	return res
}

// Visibility evaluates the matrix readiness rules.
func (s *Service) Visibility(_ context.Context, in readiness.Input) readiness.Decision { //nolint:gocritic // hugeParam: mirrors readiness.Evaluate
	if in.Now.IsZero() {
		in.Now = s.now()
	}
	d := readiness.Evaluate(in)
	metrics.RecordVisibilityDecision(d.State.String(), string(d.Reason))
	return d
}

// ResolveWeights returns the weights of a named preset, or the default
// preset when name is empty.
func (s *Service) ResolveWeights(name string) (scoring.Weights, error) {
	if name == "" {
		name = s.defaultPreset
	}
	return scoring.Preset(name)
}

// Presets lists the weight presets.
func (s *Service) Presets() []scoring.NamedPreset {
	return scoring.Presets()
}

// Analyze computes the decision support for a stored quote: proposals are
// normalized, readiness is evaluated and, in parallel, the ranking and the
// cheapest basket are built. The ranking is left out while the matrix is
// hidden. Once visible, the state is persisted and never reverts.
func (s *Service) Analyze(ctx context.Context, quoteID string, w scoring.Weights) (*types.Analysis, error) { //nolint:gocritic // hugeParam
	start := time.Now()
	if err := w.Validate(); err != nil {
		return nil, err
	}

	q, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	raws, err := s.store.ListProposals(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	proposals := s.Normalize(ctx, raws)

	prev := readiness.Hidden
	if q.MatrixVisible {
		prev = readiness.Visible
	}
	responded := respondedInvited(&q, raws)
	decision := s.Visibility(ctx, readiness.Input{
		Previous:         prev,
		ProposalsCount:   len(proposals),
		InvitedSuppliers: len(q.InvitedSuppliers),
		RespondedInvited: &responded,
		Deadline:         q.Deadline,
		ManualOverride:   q.MatrixOverride,
		Now:              s.now(),
	})
	if decision.Visible() && !q.MatrixVisible {
		if err := s.store.MarkVisible(ctx, quoteID); err != nil {
			return nil, err
		}
		s.logger.Info(ctx, "decision matrix revealed",
			logger.String("quoteID", quoteID),
			logger.String("reason", string(decision.Reason)),
			logger.Int("proposals", len(proposals)),
		)
	}

	a := &types.Analysis{
		QuoteID:    quoteID,
		Visibility: decision,
		Weights:    w,
		Proposals:  proposals,
	}

	g, gctx := errgroup.WithContext(ctx)
	if decision.Visible() {
		g.Go(func() error {
			ranked, err := s.Rank(gctx, proposals, w)
			if err != nil {
				return err
			}
			a.Ranking = ranked
			return nil
		})
	}
	g.Go(func() error {
		a.Combination = s.Combine(gctx, proposals, q.Items)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.ComputedAt = s.now()
	metrics.RecordAnalysis(decision.State.String(), float64(time.Since(start).Microseconds())/1000)
	return a, nil
}

// respondedInvited counts the invited suppliers with a stored proposal.
// Proposals from suppliers outside the invite list are not counted.
func respondedInvited(q *model.Quote, raws []model.RawProposal) int {
	invited := make(map[string]struct{}, len(q.InvitedSuppliers))
	for _, id := range q.InvitedSuppliers {
		invited[id] = struct{}{}
	}
	seen := make(map[string]struct{}, len(raws))
	for i := range raws {
		id := raws[i].SupplierID
		if _, ok := invited[id]; ok {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
