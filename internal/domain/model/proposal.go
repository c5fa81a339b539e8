// Package model contains domain models passed between layers.
package model

import "time"

// TotalSource records which total a normalized proposal settled on.
type TotalSource string

// Total sources.
const (
	TotalReported TotalSource = "reported"
	TotalComputed TotalSource = "computed"
)

// RawLineItem is a proposal line exactly as the supplier submitted it.
type RawLineItem struct {
	ProductID      string `json:"product_id,omitempty"`
	ProductName    string `json:"product_name"`
	Quantity       Number `json:"quantity"`
	UnitPrice      Number `json:"unit_price"`
	Total          Number `json:"total"`
	Brand          string `json:"brand,omitempty"`
	Specifications string `json:"specifications,omitempty"`
}

// RawProposal is an untrusted supplier response. It is only ever read by the
// normalizer; nothing past normalization sees these fields.
type RawProposal struct {
	ID               string        `json:"id"`
	QuoteID          string        `json:"quote_id"`
	SupplierID       string        `json:"supplier_id"`
	SupplierName     string        `json:"supplier_name"`
	Items            []RawLineItem `json:"items"`
	ShippingCost     Number        `json:"shipping_cost"`
	ReportedTotal    Number        `json:"total_price"`
	DeliveryTimeDays Number        `json:"delivery_time_days"`
	WarrantyMonths   Number        `json:"warranty_months"`
	DeliveryScore    Number        `json:"delivery_score"`
	Reputation       Number        `json:"reputation"`
	Observations     string        `json:"observations,omitempty"`
	SubmittedAt      time.Time     `json:"submitted_at"`
}

// ProposalLineItem is a normalized proposal line.
type ProposalLineItem struct {
	Product        ProductRef `json:"product"`
	Quantity       float64    `json:"quantity"`
	UnitPrice      float64    `json:"unit_price"`
	Total          float64    `json:"total"`
	PriceKnown     bool       `json:"price_known"`
	Brand          string     `json:"brand,omitempty"`
	Specifications string     `json:"specifications,omitempty"`
}

// Proposal is a supplier response after normalization. TotalPrice is the
// reconciled, non-negative total used everywhere downstream.
type Proposal struct {
	ID               string             `json:"id"`
	QuoteID          string             `json:"quote_id"`
	SupplierID       string             `json:"supplier_id"`
	SupplierName     string             `json:"supplier_name"`
	Items            []ProposalLineItem `json:"items"`
	ShippingCost     float64            `json:"shipping_cost"`
	DeliveryTimeDays int                `json:"delivery_time_days"`
	WarrantyMonths   int                `json:"warranty_months"`
	DeliveryScore    float64            `json:"delivery_score"`
	Reputation       float64            `json:"reputation"`
	Observations     string             `json:"observations,omitempty"`
	SubmittedAt      time.Time          `json:"submitted_at"`

	ReportedTotal float64     `json:"reported_total"`
	ComputedTotal float64     `json:"computed_total"`
	TotalPrice    float64     `json:"total_price"`
	TotalSource   TotalSource `json:"total_source"`
}

// Raw converts a normalized proposal back into a raw record whose reported
// total is the reconciled one. Normalizing the result again yields the same
// TotalPrice.
func (p Proposal) Raw() RawProposal {
	items := make([]RawLineItem, len(p.Items))
	for i, it := range p.Items {
		raw := RawLineItem{
			ProductID:      it.Product.ID,
			ProductName:    it.Product.Name,
			Quantity:       NumberOf(it.Quantity),
			Total:          NumberOf(it.Total),
			Brand:          it.Brand,
			Specifications: it.Specifications,
		}
		if it.PriceKnown {
			raw.UnitPrice = NumberOf(it.UnitPrice)
		}
		items[i] = raw
	}
	return RawProposal{
		ID:               p.ID,
		QuoteID:          p.QuoteID,
		SupplierID:       p.SupplierID,
		SupplierName:     p.SupplierName,
		Items:            items,
		ShippingCost:     NumberOf(p.ShippingCost),
		ReportedTotal:    NumberOf(p.TotalPrice),
		DeliveryTimeDays: NumberOf(float64(p.DeliveryTimeDays)),
		WarrantyMonths:   NumberOf(float64(p.WarrantyMonths)),
		DeliveryScore:    NumberOf(p.DeliveryScore),
		Reputation:       NumberOf(p.Reputation),
		Observations:     p.Observations,
		SubmittedAt:      p.SubmittedAt,
	}
}
