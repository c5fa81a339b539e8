package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/types"
	"github.com/okian/quotedesk/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrViolations is returned when an analysis breaks an engine guarantee.
var ErrViolations = errors.New("analysis violations found")

// Run executes a complete simulation and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Named("simulate")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("quotes", cfg.Quotes),
		logger.Int("suppliers", cfg.Suppliers),
		logger.Int("workers", cfg.Workers),
	)

	// Step 1: Check service health
	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate scenarios
	scenarios := generateScenarios(cfg)
	if cfg.OutputFile != "" {
		if err := saveScenarios(cfg.OutputFile, scenarios); err != nil {
			log.Warn(ctx, "failed to save scenarios", logger.Error(err))
		}
	}

	// Step 3: Create quotes
	for i := range scenarios {
		q := scenarios[i].Quote
		if err := client.postJSON(ctx, "/v1/quotes", &q, nil, http.StatusCreated); err != nil {
			return stats, fmt.Errorf("create quote %s: %w", q.ID, err)
		}
		stats.QuotesCreated++
	}

	// Step 4: Submit proposals concurrently
	submitProposals(ctx, cfg, client, scenarios, stats)

	// Step 5: Fetch and verify analyses
	analyses := retrieveAnalyses(ctx, cfg, client, scenarios, stats)
	for i, a := range analyses {
		if a == nil {
			continue
		}
		for _, v := range verifyAnalysis(&scenarios[i], a) {
			stats.Violations++
			log.Error(ctx, "analysis violation",
				logger.String("quoteID", a.QuoteID),
				logger.String("violation", v),
			)
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d", ErrViolations, stats.Violations)
	}
	return stats, nil
}

// submitProposals posts every proposal using cfg.Workers goroutines.
func submitProposals(ctx context.Context, cfg *Config, client *HTTPClient, scenarios []Scenario, stats *Stats) {
	var submitted, failed atomic.Int64
	jobs := make(chan *model.RawProposal, cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				path := "/v1/quotes/" + p.QuoteID + "/proposals"
				if err := client.postJSON(ctx, path, p, nil, http.StatusAccepted); err != nil {
					failed.Add(1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "proposal rejected", logger.String("quoteID", p.QuoteID), logger.Error(err))
					}
					continue
				}
				submitted.Add(1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range scenarios {
			for j := range scenarios[i].Proposals {
				select {
				case <-ctx.Done():
					return
				case jobs <- &scenarios[i].Proposals[j]:
				}
			}
		}
	}()

	wg.Wait()
	stats.ProposalsSubmitted = int(submitted.Load())
	stats.ProposalsFailed = int(failed.Load())
}

// retrieveAnalyses fetches the analysis of every scenario, preserving order.
// Failed fetches leave a nil entry.
func retrieveAnalyses(ctx context.Context, cfg *Config, client *HTTPClient, scenarios []Scenario, stats *Stats) []*types.Analysis {
	out := make([]*types.Analysis, len(scenarios))
	var retrieved, failed atomic.Int64
	indices := make(chan int, cfg.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				var a types.Analysis
				if err := client.getJSON(ctx, "/v1/quotes/"+scenarios[idx].Quote.ID+"/analysis", &a); err != nil {
					failed.Add(1)
					if cfg.Verbose {
						logger.Get().Warn(ctx, "analysis failed", logger.Error(err))
					}
					continue
				}
				out[idx] = &a
				retrieved.Add(1)
			}
		}()
	}

	for i := range scenarios {
		indices <- i
	}
	close(indices)
	wg.Wait()

	stats.AnalysesRetrieved = int(retrieved.Load())
	stats.AnalysesFailed = int(failed.Load())
	return out
}

// saveScenarios writes the generated scenarios as indented JSON.
func saveScenarios(filename string, scenarios []Scenario) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(scenarios, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scenarios: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write scenarios: %w", err)
	}
	return nil
}

func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.ProposalsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("quotesCreated", stats.QuotesCreated),
		logger.Int("proposalsSubmitted", stats.ProposalsSubmitted),
		logger.Int("proposalsFailed", stats.ProposalsFailed),
		logger.Int("analysesRetrieved", stats.AnalysesRetrieved),
		logger.Int("analysesFailed", stats.AnalysesFailed),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("proposalsPerSecond", perSecond),
	)
}
