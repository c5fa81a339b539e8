// Package simulate drives a running quotedesk service with generated RFQs
// and supplier proposals, then checks the analyses it returns.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Quotes     int           // Number of RFQs to create
	Suppliers  int           // Suppliers invited to, and answering, each RFQ
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Seed       int64         // Seed for the scenario generator
	OutputFile string        // Optional file for the generated scenario
	Verbose    bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	QuotesCreated      int
	ProposalsSubmitted int
	ProposalsFailed    int
	AnalysesRetrieved  int
	AnalysesFailed     int
	Violations         int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
