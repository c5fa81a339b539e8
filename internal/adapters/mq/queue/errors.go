package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	// ErrFull is returned by callers that translate a rejected Enqueue.
	ErrFull = errors.New("resync queue full")
)
