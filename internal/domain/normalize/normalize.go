// Package normalize reconciles raw supplier proposals into trustworthy,
// fully-typed proposals.
//
// The reported total is kept when it agrees with the bottom-up total (line
// totals plus shipping) within epsilon, since it may carry taxes or
// discounts the lines do not show. Otherwise the computed total wins.
// Normalization is pure and never fails: absent or unreadable fields are
// coerced to zero or to the configured business defaults.
package normalize

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/okian/quotedesk/internal/domain/model"
)

// Default normalization constants.
const (
	DefaultWarrantyMonths = 12
	DefaultDeliveryDays   = 7
	DefaultEpsilon        = 0.01

	maxDeliveryScore = 100
	maxReputation    = 5
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithDefaultWarrantyMonths sets the warranty assumed when a proposal omits it.
func WithDefaultWarrantyMonths(months int) Option {
	return func(n *Normalizer) {
		if months >= 0 {
			n.warrantyMonths = months
		}
	}
}

// WithDefaultDeliveryDays sets the delivery time assumed when a proposal omits it.
func WithDefaultDeliveryDays(days int) Option {
	return func(n *Normalizer) {
		if days >= 0 {
			n.deliveryDays = days
		}
	}
}

// WithEpsilon sets the tolerance under which a reported total is trusted.
func WithEpsilon(eps float64) Option {
	return func(n *Normalizer) {
		if eps >= 0 && !math.IsInf(eps, 0) && !math.IsNaN(eps) {
			n.epsilon = decimal.NewFromFloat(eps)
		}
	}
}

// Normalizer turns raw proposals into model.Proposal values.
type Normalizer struct {
	warrantyMonths int
	deliveryDays   int
	epsilon        decimal.Decimal
}

// New creates a Normalizer with business defaults.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		warrantyMonths: DefaultWarrantyMonths,
		deliveryDays:   DefaultDeliveryDays,
		epsilon:        decimal.NewFromFloat(DefaultEpsilon),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

var defaultNormalizer = New() //nolint:gochecknoglobals // stateless, read-only

// Normalize normalizes raw with the default business rules.
func Normalize(raw model.RawProposal) model.Proposal { //nolint:gocritic // hugeParam: value semantics are the contract
	return defaultNormalizer.Normalize(raw)
}

// NormalizeAll normalizes every record, preserving input order.
func (n *Normalizer) NormalizeAll(raws []model.RawProposal) []model.Proposal {
	out := make([]model.Proposal, len(raws))
	for i := range raws {
		out[i] = n.Normalize(raws[i])
	}
	return out
}

// Normalize reconciles a single raw proposal.
func (n *Normalizer) Normalize(raw model.RawProposal) model.Proposal { //nolint:gocritic // hugeParam: value semantics are the contract
	items := make([]model.ProposalLineItem, len(raw.Items))
	itemsSum := decimal.Zero
	for i, ri := range raw.Items {
		item, total := normalizeLine(ri)
		items[i] = item
		itemsSum = itemsSum.Add(total)
	}

	shipping := nonNegative(raw.ShippingCost.Or(0))
	computed := itemsSum.Add(decimal.NewFromFloat(shipping))

	final := computed
	source := model.TotalComputed
	reportedValue := 0.0
	if v, ok := raw.ReportedTotal.Float64(); ok {
		reportedValue = nonNegative(v)
		reported := decimal.NewFromFloat(reportedValue)
		if reported.Sub(computed).Abs().LessThanOrEqual(n.epsilon) {
			final = reported
			source = model.TotalReported
		}
	}

	computedValue, _ := computed.Float64()
	finalValue, _ := final.Float64()

	return model.Proposal{
		ID:               raw.ID,
		QuoteID:          raw.QuoteID,
		SupplierID:       raw.SupplierID,
		SupplierName:     raw.SupplierName,
		Items:            items,
		ShippingCost:     shipping,
		DeliveryTimeDays: wholeOr(raw.DeliveryTimeDays, n.deliveryDays),
		WarrantyMonths:   wholeOr(raw.WarrantyMonths, n.warrantyMonths),
		DeliveryScore:    clamp(raw.DeliveryScore.Or(0), 0, maxDeliveryScore),
		Reputation:       clamp(raw.Reputation.Or(0), 0, maxReputation),
		Observations:     raw.Observations,
		SubmittedAt:      raw.SubmittedAt,
		ReportedTotal:    reportedValue,
		ComputedTotal:    computedValue,
		TotalPrice:       math.Max(0, finalValue),
		TotalSource:      source,
	}
}

// normalizeLine coerces one line and returns it with its contribution to the
// items sum: the supplier's line total when given, quantity*unitPrice otherwise.
func normalizeLine(ri model.RawLineItem) (model.ProposalLineItem, decimal.Decimal) { //nolint:gocritic // hugeParam
	qty := nonNegative(ri.Quantity.Or(0))
	price, priceKnown := ri.UnitPrice.Float64()
	price = nonNegative(price)
	lineTotal, totalKnown := ri.Total.Float64()
	lineTotal = nonNegative(lineTotal)

	// A supplier that only filled the line total still quoted a price.
	if !priceKnown && totalKnown && qty > 0 && lineTotal > 0 {
		price = lineTotal / qty
		priceKnown = true
	}

	total := decimal.NewFromFloat(lineTotal)
	if !totalKnown {
		total = decimal.NewFromFloat(qty).Mul(decimal.NewFromFloat(price))
	}
	totalValue, _ := total.Float64()

	return model.ProposalLineItem{
		Product:        model.ProductRef{ID: ri.ProductID, Name: ri.ProductName},
		Quantity:       qty,
		UnitPrice:      price,
		Total:          totalValue,
		PriceKnown:     priceKnown,
		Brand:          ri.Brand,
		Specifications: ri.Specifications,
	}, total
}

func wholeOr(n model.Number, def int) int {
	v, ok := n.Float64()
	if !ok {
		return def
	}
	return int(math.Round(nonNegative(v)))
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
