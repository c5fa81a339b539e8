package scoring

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidWeights = errors.New("invalid weights")
	ErrUnknownMetric  = errors.New("unknown metric")
	ErrUnknownPreset  = errors.New("unknown weight preset")
)
