package scoring

import (
	"fmt"
	"math"
)

// Weight bounds and tolerance.
const (
	TotalWeight     = 100.0
	WeightTolerance = 0.01
	maxWeight       = 100.0
)

// Weights holds the relative importance of each metric, in percent. Valid
// weights are each within [0,100] and sum to 100.
type Weights struct {
	Price         float64 `json:"price" koanf:"price"`
	DeliveryTime  float64 `json:"deliveryTime" koanf:"delivery_time"`
	ShippingCost  float64 `json:"shippingCost" koanf:"shipping_cost"`
	Warranty      float64 `json:"warranty" koanf:"warranty"`
	DeliveryScore float64 `json:"deliveryScore" koanf:"delivery_score"`
	Reputation    float64 `json:"reputation" koanf:"reputation"`
}

// Get returns the weight of m.
func (w Weights) Get(m Metric) float64 {
	if !m.Valid() {
		return 0
	}
	return w.values()[m]
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	var sum float64
	for _, v := range w.values() {
		sum += v
	}
	return sum
}

// Validate checks the sum-to-100 invariant and the per-field range.
func (w Weights) Validate() error {
	for i, v := range w.values() {
		if math.IsNaN(v) || v < 0 || v > maxWeight {
			return fmt.Errorf("%w: %s=%.4f out of range [0,100]", ErrInvalidWeights, Metric(i), v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-TotalWeight) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 100", ErrInvalidWeights, sum)
	}
	return nil
}

func (w Weights) values() [metricCount]float64 {
	return [metricCount]float64{
		w.Price, w.DeliveryTime, w.ShippingCost,
		w.Warranty, w.DeliveryScore, w.Reputation,
	}
}

func weightsFrom(v [metricCount]float64) Weights {
	return Weights{
		Price:         v[MetricPrice],
		DeliveryTime:  v[MetricDeliveryTime],
		ShippingCost:  v[MetricShippingCost],
		Warranty:      v[MetricWarranty],
		DeliveryScore: v[MetricDeliveryScore],
		Reputation:    v[MetricReputation],
	}
}

// Redistribute sets key to value and rebalances the other five weights so
// the total stays 100.
//
// The remainder is spread proportionally to the other weights' current
// values, or equally when they are all zero. Floating-point residue lands on
// the largest untouched weight. Setting a weight to its current value on a
// valid configuration returns it unchanged. value is clamped to [0,100].
func Redistribute(key Metric, value float64, current Weights) (Weights, error) {
	if !key.Valid() {
		return current, fmt.Errorf("%w: %d", ErrUnknownMetric, int(key))
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return current, fmt.Errorf("%w: %s weight is not a finite number", ErrInvalidWeights, key)
	}
	value = math.Max(0, math.Min(maxWeight, value))
	if current.Get(key) == value && current.Validate() == nil {
		return current, nil
	}

	vals := current.values()
	for i, v := range vals {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			vals[i] = 0
		}
	}
	vals[key] = value
	remaining := TotalWeight - value

	var othersSum float64
	for i, v := range vals {
		if Metric(i) != key {
			othersSum += v
		}
	}

	largest := Metric(-1)
	for i := range vals {
		m := Metric(i)
		if m == key {
			continue
		}
		if othersSum > 0 {
			vals[i] = vals[i] * remaining / othersSum
		} else {
			vals[i] = remaining / (metricCount - 1)
		}
		if largest < 0 || vals[i] > vals[largest] {
			largest = m
		}
	}

	var sum float64
	for _, v := range vals {
		sum += v
	}
	if residual := TotalWeight - sum; residual != 0 {
		vals[largest] = math.Max(0, vals[largest]+residual)
	}

	return weightsFrom(vals), nil
}
