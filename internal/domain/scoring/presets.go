package scoring

import (
	"fmt"
	"sort"
)

// Preset names.
const (
	PresetBalanced       = "balanced"
	PresetPriceFocused   = "price-focused"
	PresetQualityFocused = "quality-focused"
	PresetUrgent         = "urgent"
)

// NamedPreset is a weight template offered to buyers.
type NamedPreset struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weights     Weights `json:"weights"`
}

var presets = map[string]NamedPreset{ //nolint:gochecknoglobals // constant templates
	PresetBalanced: {
		Name:        PresetBalanced,
		Description: "Even trade-off between cost, delivery and supplier quality",
		Weights:     Weights{Price: 30, DeliveryTime: 20, ShippingCost: 10, Warranty: 15, DeliveryScore: 15, Reputation: 10},
	},
	PresetPriceFocused: {
		Name:        PresetPriceFocused,
		Description: "Lowest total cost first",
		Weights:     Weights{Price: 50, DeliveryTime: 15, ShippingCost: 15, Warranty: 5, DeliveryScore: 10, Reputation: 5},
	},
	PresetQualityFocused: {
		Name:        PresetQualityFocused,
		Description: "Warranty, delivery track record and reputation first",
		Weights:     Weights{Price: 20, DeliveryTime: 10, ShippingCost: 5, Warranty: 25, DeliveryScore: 20, Reputation: 20},
	},
	PresetUrgent: {
		Name:        PresetUrgent,
		Description: "Fastest delivery first",
		Weights:     Weights{Price: 25, DeliveryTime: 40, ShippingCost: 10, Warranty: 5, DeliveryScore: 15, Reputation: 5},
	},
}

// DefaultWeights returns the balanced preset.
func DefaultWeights() Weights {
	return presets[PresetBalanced].Weights
}

// Preset returns the weights of a named preset.
func Preset(name string) (Weights, error) {
	p, ok := presets[name]
	if !ok {
		return Weights{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p.Weights, nil
}

// Presets lists every preset ordered by name.
func Presets() []NamedPreset {
	out := make([]NamedPreset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
