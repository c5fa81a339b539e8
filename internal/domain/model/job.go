package model

import "time"

// ResyncJob asks the worker pool to recompute a quote's analysis.
type ResyncJob struct {
	ID          string    `json:"id"`
	QuoteID     string    `json:"quote_id"`
	Reason      string    `json:"reason"` // e.g. "proposal", "override", "manual"
	RequestedAt time.Time `json:"requested_at"`
}
