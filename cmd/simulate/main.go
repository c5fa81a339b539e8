package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/quotedesk/internal/simulate"
	"github.com/okian/quotedesk/pkg/logger"
)

// Default configuration constants.
const (
	defaultQuotes      = 100
	defaultSuppliers   = 4
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		quotes     = flag.Int("quotes", defaultQuotes, "Number of RFQs to create")
		suppliers  = flag.Int("suppliers", defaultSuppliers, "Suppliers invited to each RFQ")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Seed for the scenario generator")
		outputFile = flag.String("output", "", "Optional file for the generated scenarios")
		logFormat  = flag.String("log-format", logger.FormatTint, "Log format: text, json or tint")
		verbose    = flag.Bool("verbose", false, "Log every failed request")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*logFormat)); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	cfg := &simulate.Config{
		BaseURL:    *baseURL,
		Quotes:     *quotes,
		Suppliers:  *suppliers,
		Workers:    max(1, *workers),
		Timeout:    *timeout,
		Seed:       *seed,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := simulate.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called above
	}
}
