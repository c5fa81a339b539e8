// Package types contains shapes shared by the service and HTTP layers.
package types

import (
	"time"

	"github.com/okian/quotedesk/internal/domain/combination"
	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/readiness"
	"github.com/okian/quotedesk/internal/domain/scoring"
)

// Analysis is the decision support computed for one quote. Ranking is nil
// while the matrix is hidden; the combination is always offered once any
// supplier has priced something.
type Analysis struct {
	QuoteID     string                   `json:"quote_id"`
	Visibility  readiness.Decision       `json:"visibility"`
	Weights     scoring.Weights          `json:"weights"`
	Proposals   []model.Proposal         `json:"proposals"`
	Ranking     []scoring.RankedProposal `json:"ranking,omitempty"`
	Combination *combination.Result      `json:"combination,omitempty"`
	ComputedAt  time.Time                `json:"computed_at"`
}

// Best returns the top-ranked proposal, or nil when there is no ranking.
func (a *Analysis) Best() *scoring.RankedProposal {
	if a == nil || len(a.Ranking) == 0 {
		return nil
	}
	return &a.Ranking[0]
}
