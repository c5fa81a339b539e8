package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/quotedesk/internal/domain/model"
)

func (o *options) prepareQuote(q *model.Quote) error {
	if q == nil {
		return fmt.Errorf("%w: nil quote", ErrInvalidQuote)
	}
	for i, item := range q.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrInvalidQuote, i)
		}
		if item.ProductName == "" && item.ID == "" {
			return fmt.Errorf("%w: item %d has no product", ErrInvalidQuote, i)
		}
	}
	q.InvitedSuppliers = uniqueSuppliers(q.InvitedSuppliers)
	if q.ID == "" {
		q.ID = o.newID()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = o.now()
	}
	return nil
}

func (o *options) prepareProposal(p *model.RawProposal) error {
	if p == nil {
		return fmt.Errorf("%w: nil proposal", ErrInvalidProposal)
	}
	if p.QuoteID == "" {
		return fmt.Errorf("%w: quote_id is required", ErrInvalidProposal)
	}
	if p.SupplierID == "" {
		return fmt.Errorf("%w: supplier_id is required", ErrInvalidProposal)
	}
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = o.now()
	}
	return nil
}

func cloneQuote(q *model.Quote) model.Quote {
	out := *q
	out.Items = append([]model.LineItem(nil), q.Items...)
	out.InvitedSuppliers = append([]string(nil), q.InvitedSuppliers...)
	if q.Deadline != nil {
		d := *q.Deadline
		out.Deadline = &d
	}
	return out
}

func cloneProposal(p *model.RawProposal) model.RawProposal {
	out := *p
	out.Items = append([]model.RawLineItem(nil), p.Items...)
	return out
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// uniqueSuppliers drops blank and repeated supplier IDs, keeping first
// occurrence order.
func uniqueSuppliers(ids []string) []string {
	if len(ids) == 0 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
