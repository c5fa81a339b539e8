// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	resyncqueue "github.com/okian/quotedesk/internal/adapters/mq/queue"
	workerpool "github.com/okian/quotedesk/internal/adapters/mq/worker"
	"github.com/okian/quotedesk/internal/adapters/repository"
	"github.com/okian/quotedesk/internal/domain/dedupe"
	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/normalize"
	"github.com/okian/quotedesk/internal/domain/scoring"
	"github.com/okian/quotedesk/internal/domain/types"
	"github.com/okian/quotedesk/pkg/logger"
	"github.com/okian/quotedesk/pkg/metrics"
)

// Resync reasons.
const (
	ReasonProposal = "proposal"
	ReasonOverride = "override"
	ReasonManual   = "manual"
)

type snapshot struct {
	seq      uint64
	analysis *types.Analysis
}

// Service implements the API dependencies for the decision engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	normalizer *normalize.Normalizer
	deduper    dedupe.Deduper
	queue      *resyncqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount   int
	queueSize     int
	dedupeSize    int
	defaultPreset string
	normalizeOpts []normalize.Option
	now           func() time.Time

	// Latest analysis per quote, refreshed by the worker pool. A refresh
	// only replaces a snapshot taken by an earlier refresh.
	cacheMu   sync.RWMutex
	snapshots map[string]snapshot
	refreshes atomic.Uint64

	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     10_000,
		dedupeSize:    100_000,
		defaultPreset: scoring.PresetBalanced,
		now:           time.Now,
		snapshots:     make(map[string]snapshot),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithClock(s.now))
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	s.normalizer = normalize.New(s.normalizeOpts...)

	return s
}

// Start initializes and starts the resync pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if _, err := scoring.Preset(s.defaultPreset); err != nil {
		return fmt.Errorf("default preset: %w", err)
	}

	s.logger.Info(ctx, "starting decision service...")

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = resyncqueue.NewInMemoryQueue(
		resyncqueue.WithCapacity(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s,
		workerpool.WithReleaser(s.deduper),
		workerpool.WithLogger(logger.Named("worker")),
	)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "decision service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("defaultPreset", s.defaultPreset),
	)

	return nil
}

// Stop drains the resync pipeline. The store stays open; whoever built it
// closes it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping decision service...")
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "decision service stopped")
}

// CreateQuote stores a new RFQ.
func (s *Service) CreateQuote(ctx context.Context, q *model.Quote) error {
	if err := s.store.SaveQuote(ctx, q); err != nil {
		return err
	}
	s.logger.Info(ctx, "quote created",
		logger.String("quoteID", q.ID),
		logger.Int("items", len(q.Items)),
		logger.Int("invited", len(q.InvitedSuppliers)),
	)
	return nil
}

// GetQuote returns a stored RFQ.
func (s *Service) GetQuote(ctx context.Context, id string) (model.Quote, error) {
	return s.store.GetQuote(ctx, id)
}

// SubmitProposal stores a raw supplier response and schedules a resync of
// its quote. A full resync queue does not fail the submission; the next
// analysis request recomputes anyway.
func (s *Service) SubmitProposal(ctx context.Context, p *model.RawProposal) error {
	if err := s.store.SaveProposal(ctx, p); err != nil {
		return err
	}
	s.logger.Debug(ctx, "proposal stored",
		logger.String("quoteID", p.QuoteID),
		logger.String("supplierID", p.SupplierID),
		logger.String("proposalID", p.ID),
	)
	s.scheduleResync(ctx, p.QuoteID, ReasonProposal)
	return nil
}

// SetOverride raises the buyer's "proceed now" flag.
func (s *Service) SetOverride(ctx context.Context, quoteID string) error {
	if err := s.store.SetOverride(ctx, quoteID); err != nil {
		return err
	}
	s.logger.Info(ctx, "matrix override set", logger.String("quoteID", quoteID))
	s.scheduleResync(ctx, quoteID, ReasonOverride)
	return nil
}

func (s *Service) scheduleResync(ctx context.Context, quoteID, reason string) {
	if _, err := s.Resync(ctx, quoteID, reason); err != nil {
		s.logger.Warn(ctx, "resync not scheduled",
			logger.String("quoteID", quoteID),
			logger.String("reason", reason),
			logger.Error(err),
		)
	}
}

// Resync schedules an asynchronous recomputation of a quote's snapshot.
// It reports false when a resync for the quote is already pending.
func (s *Service) Resync(ctx context.Context, quoteID, reason string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false, ErrNotStarted
	}
	if s.deduper.SeenAndRecord(ctx, quoteID) {
		metrics.RecordResyncDuplicate()
		return false, nil
	}

	job := model.ResyncJob{ID: uuid.NewString(), QuoteID: quoteID, Reason: reason}
	if !s.queue.Enqueue(ctx, job) {
		s.deduper.Unrecord(ctx, quoteID)
		return false, fmt.Errorf("%w: %w", ErrBackpressure, resyncqueue.ErrFull)
	}
	return true, nil
}

// Refresh recomputes a quote's analysis with the default preset and caches
// it. It is called by the worker pool.
func (s *Service) Refresh(ctx context.Context, quoteID string) error {
	seq := s.refreshes.Add(1)
	w, err := scoring.Preset(s.defaultPreset)
	if err != nil {
		return err
	}
	a, err := s.Analyze(ctx, quoteID, w)
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	if cur, ok := s.snapshots[quoteID]; !ok || cur.seq < seq {
		s.snapshots[quoteID] = snapshot{seq: seq, analysis: a}
	}
	s.cacheMu.Unlock()
	return nil
}

// Snapshot returns the last analysis computed by the worker pool.
func (s *Service) Snapshot(ctx context.Context, quoteID string) (*types.Analysis, error) {
	s.cacheMu.RLock()
	snap, ok := s.snapshots[quoteID]
	s.cacheMu.RUnlock()
	if ok {
		return snap.analysis, nil
	}
	if _, err := s.store.GetQuote(ctx, quoteID); err != nil {
		return nil, err
	}
	return nil, ErrNoSnapshot
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"worker_count":   s.workerCount,
		"queue_capacity": s.queueSize,
		"dedupe_size":    s.dedupeSize,
		"default_preset": s.defaultPreset,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queue_length"] = queueLen
		stats["pending_resyncs"] = s.deduper.Size()
		stats["processed_resyncs"] = s.workerPool.Processed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	if st, err := s.store.Stats(ctx); err == nil {
		stats["quotes"] = st.Quotes
		stats["proposals"] = st.Proposals
	} else {
		s.logger.Warn(ctx, "store stats", logger.Error(err))
	}

	s.cacheMu.RLock()
	stats["cached_snapshots"] = len(s.snapshots)
	s.cacheMu.RUnlock()

	return stats
}
