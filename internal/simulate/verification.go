package simulate

import (
	"fmt"

	"github.com/okian/quotedesk/internal/domain/readiness"
	"github.com/okian/quotedesk/internal/domain/types"
)

// priceTolerance absorbs rounding in JSON round trips.
const priceTolerance = 1e-9

// verifyAnalysis checks an analysis against the guarantees the engine makes
// for a scenario in which every invited supplier answered.
func verifyAnalysis(sc *Scenario, a *types.Analysis) []string {
	var violations []string
	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if a.QuoteID != sc.Quote.ID {
		add("quote id %q, want %q", a.QuoteID, sc.Quote.ID)
	}

	if len(sc.Quote.InvitedSuppliers) == 1 {
		if a.Visibility.Visible() || a.Visibility.Reason != readiness.ReasonSingleSupplier {
			add("single supplier quote has visibility %s/%s", a.Visibility.State, a.Visibility.Reason)
		}
		if len(a.Ranking) != 0 {
			add("hidden matrix exposed %d ranked proposals", len(a.Ranking))
		}
	} else {
		switch a.Visibility.Reason {
		case readiness.ReasonAllResponded, readiness.ReasonAlreadyVisible, readiness.ReasonNoDeadline:
		default:
			add("unexpected visibility reason %s", a.Visibility.Reason)
		}
		if !a.Visibility.Visible() {
			add("matrix hidden after suppliers answered")
		}
		if len(a.Ranking) != len(a.Proposals) {
			add("ranking has %d entries for %d proposals", len(a.Ranking), len(a.Proposals))
		}
	}

	for i, r := range a.Ranking {
		if r.Rank != i+1 {
			add("position %d has rank %d", i+1, r.Rank)
		}
		if r.Score < 0 || r.Score > 100 {
			add("score %.4f out of range for %s", r.Score, r.Proposal.SupplierID)
		}
		if i > 0 && r.Score > a.Ranking[i-1].Score {
			add("scores not descending at rank %d", r.Rank)
		}
	}

	if c := a.Combination; c != nil {
		var total float64
		for _, item := range c.Items {
			total += item.Cost
			for _, o := range item.OtherOptions {
				if o.UnitPrice+priceTolerance < item.Winner.UnitPrice {
					add("%s: winner %s at %.2f beaten by %s at %.2f",
						item.Product.Name, item.Winner.SupplierID, item.Winner.UnitPrice, o.SupplierID, o.UnitPrice)
				}
			}
		}
		if diff := total - c.TotalCost; diff > 0.01 || diff < -0.01 {
			add("combination total %.2f does not match item costs %.2f", c.TotalCost, total)
		}
	}
	return violations
}
