package service

import (
	"time"

	"github.com/okian/quotedesk/internal/adapters/repository"
	"github.com/okian/quotedesk/internal/domain/normalize"
	"github.com/okian/quotedesk/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the quote store. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the resync queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize caps the number of quotes with a pending resync.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDefaultPreset names the weight preset used for snapshots and for
// requests that do not pick one.
func WithDefaultPreset(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.defaultPreset = name
		}
	}
}

// WithNormalizeOptions configures the proposal normalizer.
func WithNormalizeOptions(opts ...normalize.Option) Option {
	return func(s *Service) {
		s.normalizeOpts = append(s.normalizeOpts, opts...)
	}
}

// WithClock overrides the time source used by readiness decisions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
