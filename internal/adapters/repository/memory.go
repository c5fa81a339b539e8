package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/pkg/metrics"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store guarded by a single RWMutex.
type MemoryStore struct {
	opts options

	mu        sync.RWMutex
	quotes    map[string]*model.Quote
	proposals map[string][]model.RawProposal
	ids       map[string]struct{}
	total     int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryStore{
		opts:      o,
		quotes:    make(map[string]*model.Quote),
		proposals: make(map[string][]model.RawProposal),
		ids:       make(map[string]struct{}),
	}
}

// SaveQuote implements Store.
func (s *MemoryStore) SaveQuote(_ context.Context, q *model.Quote) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("save_quote", sinceMs(start)) }()

	if err := s.opts.prepareQuote(q); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[q.ID]; ok {
		return fmt.Errorf("%w: %s", ErrConflict, q.ID)
	}
	stored := cloneQuote(q)
	s.quotes[q.ID] = &stored
	metrics.UpdateQuotesTotal(len(s.quotes))
	return nil
}

// GetQuote implements Store.
func (s *MemoryStore) GetQuote(_ context.Context, id string) (model.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quotes[id]
	if !ok {
		return model.Quote{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneQuote(q), nil
}

// SaveProposal implements Store.
func (s *MemoryStore) SaveProposal(_ context.Context, p *model.RawProposal) error {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("save_proposal", sinceMs(start)) }()

	if err := s.opts.prepareProposal(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quotes[p.QuoteID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p.QuoteID)
	}
	list := s.proposals[p.QuoteID]
	for i := range list {
		if list[i].SupplierID == p.SupplierID {
			p.ID = list[i].ID
			list[i] = cloneProposal(p)
			return nil
		}
	}
	if p.ID == "" {
		p.ID = s.opts.newID()
	}
	if _, taken := s.ids[p.ID]; taken {
		return fmt.Errorf("%w: proposal %s", ErrConflict, p.ID)
	}
	s.ids[p.ID] = struct{}{}
	s.proposals[p.QuoteID] = append(list, cloneProposal(p))
	s.total++
	metrics.UpdateProposalsTotal(s.total)
	return nil
}

// ListProposals implements Store.
func (s *MemoryStore) ListProposals(_ context.Context, quoteID string) ([]model.RawProposal, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency("list_proposals", sinceMs(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.quotes[quoteID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, quoteID)
	}
	list := s.proposals[quoteID]
	out := make([]model.RawProposal, len(list))
	for i := range list {
		out[i] = cloneProposal(&list[i])
	}
	return out, nil
}

// SetOverride implements Store.
func (s *MemoryStore) SetOverride(_ context.Context, quoteID string) error {
	return s.update(quoteID, func(q *model.Quote) { q.MatrixOverride = true })
}

// MarkVisible implements Store.
func (s *MemoryStore) MarkVisible(_ context.Context, quoteID string) error {
	return s.update(quoteID, func(q *model.Quote) { q.MatrixVisible = true })
}

func (s *MemoryStore) update(quoteID string, fn func(*model.Quote)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[quoteID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, quoteID)
	}
	fn(q)
	return nil
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Quotes: len(s.quotes), Proposals: s.total}, nil
}

// Close implements Store. It is a no-op.
func (s *MemoryStore) Close() error { return nil }
