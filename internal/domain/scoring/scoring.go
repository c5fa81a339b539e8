// Package scoring implements the weighted decision matrix that ranks whole
// proposals.
//
// Each metric is min-max normalized across the proposal set onto 0..100
// (inverted for lower-is-better metrics); a metric on which every proposal
// ties scores 50 for all of them. The final score is the weighted mean of the
// normalized metrics.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/quotedesk/internal/domain/model"
)

const (
	maxScoreValue = 100
	tiedScore     = 50
)

// Component is one metric's contribution to a proposal's score.
type Component struct {
	Metric     Metric  `json:"metric"`
	Raw        float64 `json:"raw"`
	Normalized float64 `json:"normalized"`
	Weighted   float64 `json:"weighted"`
}

// RankedProposal is a proposal with its position in the ranking.
type RankedProposal struct {
	Rank       int            `json:"rank"`
	Proposal   model.Proposal `json:"proposal"`
	Score      float64        `json:"score"`
	Components []Component    `json:"components"`
}

// bounds holds per-metric minimum and maximum across a proposal set.
type bounds struct {
	min [metricCount]float64
	max [metricCount]float64
}

func boundsOf(proposals []model.Proposal) bounds {
	var b bounds
	for i := range proposals {
		for _, m := range Metrics() {
			v := m.Value(&proposals[i])
			if i == 0 || v < b.min[m] {
				b.min[m] = v
			}
			if i == 0 || v > b.max[m] {
				b.max[m] = v
			}
		}
	}
	return b
}

func (b *bounds) normalize(m Metric, v float64) float64 {
	lo, hi := b.min[m], b.max[m]
	if hi == lo {
		return tiedScore
	}
	n := (v - lo) / (hi - lo) * maxScoreValue
	if m.LowerIsBetter() {
		n = maxScoreValue - n
	}
	return math.Max(0, math.Min(maxScoreValue, n))
}

func (b *bounds) score(p *model.Proposal, w Weights) (float64, []Component) {
	components := make([]Component, 0, metricCount)
	var total float64
	for _, m := range Metrics() {
		raw := m.Value(p)
		norm := b.normalize(m, raw)
		weighted := norm * w.Get(m) / TotalWeight
		total += weighted
		components = append(components, Component{
			Metric:     m,
			Raw:        raw,
			Normalized: norm,
			Weighted:   weighted,
		})
	}
	return math.Max(0, math.Min(maxScoreValue, total)), components
}

// Score computes the weighted score of p relative to all. When all is empty
// p is scored against itself.
func Score(p model.Proposal, all []model.Proposal, w Weights) (float64, error) { //nolint:gocritic // hugeParam: value semantics are the contract
	if err := w.Validate(); err != nil {
		return 0, fmt.Errorf("score proposal %s: %w", p.ID, err)
	}
	if len(all) == 0 {
		all = []model.Proposal{p}
	}
	b := boundsOf(all)
	s, _ := b.score(&p, w)
	return s, nil
}

// Rank scores every proposal and orders them by score descending. Ties keep
// input order. An empty set yields an empty ranking.
func Rank(proposals []model.Proposal, w Weights) ([]RankedProposal, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("rank proposals: %w", err)
	}
	if len(proposals) == 0 {
		return []RankedProposal{}, nil
	}

	b := boundsOf(proposals)
	ranked := make([]RankedProposal, len(proposals))
	for i := range proposals {
		s, components := b.score(&proposals[i], w)
		ranked[i] = RankedProposal{
			Proposal:   proposals[i],
			Score:      s,
			Components: components,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}
