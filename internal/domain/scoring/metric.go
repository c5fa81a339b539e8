package scoring

import (
	"fmt"

	"github.com/okian/quotedesk/internal/domain/model"
)

// Metric is one of the six criteria of the decision matrix. The set is
// closed: adding a criterion means adding a constant here and a field to
// Weights.
type Metric int

// Decision matrix metrics.
const (
	MetricPrice Metric = iota
	MetricDeliveryTime
	MetricShippingCost
	MetricWarranty
	MetricDeliveryScore
	MetricReputation

	metricCount = 6
)

var metricKeys = [metricCount]string{ //nolint:gochecknoglobals // closed lookup table
	"price",
	"deliveryTime",
	"shippingCost",
	"warranty",
	"deliveryScore",
	"reputation",
}

// Metrics returns every metric in declaration order.
func Metrics() []Metric {
	return []Metric{
		MetricPrice,
		MetricDeliveryTime,
		MetricShippingCost,
		MetricWarranty,
		MetricDeliveryScore,
		MetricReputation,
	}
}

// ParseMetric resolves a metric from its key, e.g. "deliveryTime".
func ParseMetric(key string) (Metric, error) {
	for i, k := range metricKeys {
		if k == key {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
}

// Valid reports whether m is one of the declared metrics.
func (m Metric) Valid() bool { return m >= 0 && m < metricCount }

// String returns the metric key.
func (m Metric) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricKeys[m]
}

// MarshalText encodes the metric as its key.
func (m Metric) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMetric, int(m))
	}
	return []byte(metricKeys[m]), nil
}

// UnmarshalText decodes a metric key.
func (m *Metric) UnmarshalText(b []byte) error {
	v, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// LowerIsBetter reports whether smaller raw values rank higher.
func (m Metric) LowerIsBetter() bool {
	switch m {
	case MetricPrice, MetricDeliveryTime, MetricShippingCost:
		return true
	default:
		return false
	}
}

// Value extracts the raw value of m from a proposal.
func (m Metric) Value(p *model.Proposal) float64 {
	switch m {
	case MetricPrice:
		return p.TotalPrice
	case MetricDeliveryTime:
		return float64(p.DeliveryTimeDays)
	case MetricShippingCost:
		return p.ShippingCost
	case MetricWarranty:
		return float64(p.WarrantyMonths)
	case MetricDeliveryScore:
		return p.DeliveryScore
	case MetricReputation:
		return p.Reputation
	default:
		return 0
	}
}
