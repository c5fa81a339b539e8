// Package repository persists quotes and the raw proposals submitted against
// them. Proposals are stored exactly as received; normalization happens on
// read so that a change in defaults applies to old submissions too.
package repository

import (
	"context"

	"github.com/okian/quotedesk/internal/domain/model"
)

// Stats reports the size of the store.
type Stats struct {
	Quotes    int `json:"quotes"`
	Proposals int `json:"proposals"`
}

// Store provides read/write access to quotes and proposals.
type Store interface {
	// SaveQuote inserts a quote, assigning ID and CreatedAt when empty.
	// Returns ErrConflict if the ID is taken.
	SaveQuote(ctx context.Context, q *model.Quote) error

	// GetQuote returns ErrNotFound if the quote is unknown.
	GetQuote(ctx context.Context, id string) (model.Quote, error)

	// SaveProposal stores a supplier's proposal for an existing quote. A
	// supplier resubmitting replaces its earlier proposal in place and keeps
	// its ID. The proposal's ID and SubmittedAt are filled in when empty.
	SaveProposal(ctx context.Context, p *model.RawProposal) error

	// ListProposals returns a quote's proposals in first-submission order.
	ListProposals(ctx context.Context, quoteID string) ([]model.RawProposal, error)

	// SetOverride raises the buyer's one-way "proceed now" flag.
	SetOverride(ctx context.Context, quoteID string) error

	// MarkVisible latches the matrix as shown. It never resets.
	MarkVisible(ctx context.Context, quoteID string) error

	Stats(ctx context.Context) (Stats, error)

	Close() error
}
