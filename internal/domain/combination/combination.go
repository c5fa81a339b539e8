// Package combination assembles the cheapest basket across suppliers by
// picking, for every requested product, the lowest unit price among all
// proposals that quote it.
//
// This is a per-item greedy minimizer. Supplier minimum order quantities and
// cross-item bundle discounts are not modeled.
package combination

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/okian/quotedesk/internal/domain/model"
)

const percent = 100

// Offer is one supplier's unit price for a product.
type Offer struct {
	ProposalID   string  `json:"proposal_id"`
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	UnitPrice    float64 `json:"unit_price"`
	Brand        string  `json:"brand,omitempty"`
}

// ItemAward is the winning offer for a product plus the alternatives,
// cheapest first.
type ItemAward struct {
	Product      model.ProductRef `json:"product"`
	Quantity     float64          `json:"quantity"`
	Winner       Offer            `json:"winner"`
	OtherOptions []Offer          `json:"other_options"`
	Cost         float64          `json:"cost"`
	Savings      float64          `json:"savings"`
}

// SupplierShare is the part of the basket awarded to one supplier.
type SupplierShare struct {
	SupplierID   string  `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	Items        int     `json:"items"`
	Subtotal     float64 `json:"subtotal"`
}

// Result is the optimized basket. It is a pure function of its inputs.
type Result struct {
	Items []ItemAward `json:"items"`
	// Unfulfilled lists products nobody priced; they contribute no cost.
	Unfulfilled       []model.LineItem `json:"unfulfilled"`
	Suppliers         []SupplierShare  `json:"suppliers"`
	TotalCost         float64          `json:"total_cost"`
	TotalSavings      float64          `json:"total_savings"`
	SavingsPercentage float64          `json:"savings_percentage"`
	UniqueSuppliers   int              `json:"unique_suppliers"`
	IsMultiSupplier   bool             `json:"is_multi_supplier"`
}

// Option applies a configuration option to an optimization run.
type Option func(*optimizer)

// WithRequestedItems anchors the basket on the RFQ's items: quantities come
// from the RFQ, lines matching no requested item are ignored, and requested
// items without any priced offer are reported as unfulfilled.
func WithRequestedItems(items []model.LineItem) Option {
	return func(o *optimizer) {
		o.requested = items
	}
}

type group struct {
	product  model.ProductRef
	itemID   string
	quantity float64
	offers   []Offer
}

type optimizer struct {
	requested []model.LineItem
	groups    []*group
}

// Optimize builds the cheapest per-item basket. It returns nil when there
// are no proposals.
func Optimize(proposals []model.Proposal, opts ...Option) *Result {
	if len(proposals) == 0 {
		return nil
	}
	o := &optimizer{}
	for _, opt := range opts {
		opt(o)
	}
	for _, item := range o.requested {
		o.groups = append(o.groups, &group{
			product:  item.Ref(),
			itemID:   item.ID,
			quantity: float64(item.Quantity),
		})
	}
	for i := range proposals {
		o.collect(&proposals[i])
	}
	return o.award()
}

func (o *optimizer) collect(p *model.Proposal) {
	for _, line := range p.Items {
		g := o.groupFor(line)
		if g == nil || !line.PriceKnown {
			continue
		}
		g.offers = append(g.offers, Offer{
			ProposalID:   p.ID,
			SupplierID:   p.SupplierID,
			SupplierName: p.SupplierName,
			UnitPrice:    line.UnitPrice,
			Brand:        line.Brand,
		})
	}
}

// groupFor returns the group whose product matches line. Without requested
// items, the first line naming a product opens its group.
func (o *optimizer) groupFor(line model.ProposalLineItem) *group {
	for _, g := range o.groups {
		if g.product.Matches(line.Product) {
			return g
		}
	}
	if len(o.requested) > 0 {
		return nil
	}
	g := &group{product: line.Product, itemID: line.Product.ID, quantity: line.Quantity}
	o.groups = append(o.groups, g)
	return g
}

func (o *optimizer) award() *Result {
	res := &Result{
		Items:       []ItemAward{},
		Unfulfilled: []model.LineItem{},
		Suppliers:   []SupplierShare{},
	}
	totalCost, totalSavings := decimal.Zero, decimal.Zero
	shares := make(map[string]int)

	for _, g := range o.groups {
		if len(g.offers) == 0 {
			res.Unfulfilled = append(res.Unfulfilled, model.LineItem{
				ID:          g.itemID,
				ProductName: g.product.Name,
				Quantity:    int(math.Round(g.quantity)),
			})
			continue
		}

		winner := 0
		for i, off := range g.offers {
			if off.UnitPrice < g.offers[winner].UnitPrice {
				winner = i
			}
		}
		others := make([]Offer, 0, len(g.offers)-1)
		others = append(others, g.offers[:winner]...)
		others = append(others, g.offers[winner+1:]...)
		sort.SliceStable(others, func(i, j int) bool { return others[i].UnitPrice < others[j].UnitPrice })

		qty := decimal.NewFromFloat(g.quantity)
		best := g.offers[winner]
		cost := decimal.NewFromFloat(best.UnitPrice).Mul(qty)
		savings := decimal.Zero
		if len(others) > 0 {
			savings = decimal.NewFromFloat(others[0].UnitPrice).Sub(decimal.NewFromFloat(best.UnitPrice)).Mul(qty)
		}
		totalCost = totalCost.Add(cost)
		totalSavings = totalSavings.Add(savings)

		costValue, _ := cost.Float64()
		savingsValue, _ := savings.Float64()
		res.Items = append(res.Items, ItemAward{
			Product:      g.product,
			Quantity:     g.quantity,
			Winner:       best,
			OtherOptions: others,
			Cost:         costValue,
			Savings:      savingsValue,
		})

		idx, ok := shares[best.SupplierID]
		if !ok {
			idx = len(res.Suppliers)
			shares[best.SupplierID] = idx
			res.Suppliers = append(res.Suppliers, SupplierShare{
				SupplierID:   best.SupplierID,
				SupplierName: best.SupplierName,
			})
		}
		res.Suppliers[idx].Items++
		res.Suppliers[idx].Subtotal += costValue
	}

	res.TotalCost, _ = totalCost.Float64()
	res.TotalSavings, _ = totalSavings.Float64()
	if denom := totalCost.Add(totalSavings); denom.IsPositive() {
		res.SavingsPercentage, _ = totalSavings.Div(denom).Mul(decimal.NewFromInt(percent)).Float64()
	}
	res.UniqueSuppliers = len(res.Suppliers)
	res.IsMultiSupplier = res.UniqueSuppliers > 1
	return res
}
