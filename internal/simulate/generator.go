package simulate

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/quotedesk/internal/domain/model"
)

const (
	itemsPerQuote   = 3
	minUnitPrice    = 5.0
	unitPriceRange  = 95.0
	maxQuantity     = 50
	maxDeliveryDays = 20
	skipLineOdds    = 6 // one line in skipLineOdds is left unquoted
)

var catalog = []string{ //nolint:gochecknoglobals // read-only fixture
	"Cimento CP-II 50kg",
	"Areia média",
	"Brita 1",
	"Vergalhão CA-50 10mm",
	"Tijolo cerâmico 8 furos",
	"Cal hidratada 20kg",
	"Tubo PVC 100mm",
}

// Scenario is one RFQ and the proposals its invited suppliers will send.
type Scenario struct {
	Quote     model.Quote         `json:"quote"`
	Proposals []model.RawProposal `json:"proposals"`
}

// generateScenarios builds deterministic scenarios from cfg.Seed.
func generateScenarios(cfg *Config) []Scenario {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible scenarios
	scenarios := make([]Scenario, cfg.Quotes)
	for i := range scenarios {
		scenarios[i] = generateScenario(rng, i, cfg.Suppliers)
	}
	return scenarios
}

func generateScenario(rng *rand.Rand, index, suppliers int) Scenario {
	q := model.Quote{
		ID:    uuid.NewString(),
		Title: fmt.Sprintf("Obra %d", index+1),
	}
	for _, j := range rng.Perm(len(catalog))[:itemsPerQuote] {
		q.Items = append(q.Items, model.LineItem{
			ID:          uuid.NewString(),
			ProductName: catalog[j],
			Quantity:    rng.Intn(maxQuantity) + 1,
		})
	}
	for s := 0; s < suppliers; s++ {
		q.InvitedSuppliers = append(q.InvitedSuppliers, fmt.Sprintf("supplier-%d", s+1))
	}

	sc := Scenario{Quote: q}
	for _, supplierID := range q.InvitedSuppliers {
		sc.Proposals = append(sc.Proposals, generateProposal(rng, &q, supplierID))
	}
	return sc
}

func generateProposal(rng *rand.Rand, q *model.Quote, supplierID string) model.RawProposal {
	p := model.RawProposal{
		QuoteID:          q.ID,
		SupplierID:       supplierID,
		SupplierName:     strings.ToUpper(supplierID[:1]) + supplierID[1:],
		ShippingCost:     model.NumberOf(float64(rng.Intn(4) * 25)),
		DeliveryTimeDays: model.NumberOf(float64(rng.Intn(maxDeliveryDays) + 1)),
		DeliveryScore:    model.NumberOf(float64(rng.Intn(101))),
		Reputation:       model.NumberOf(float64(rng.Intn(51)) / 10),
	}
	if rng.Intn(2) == 0 {
		p.WarrantyMonths = model.NumberOf(float64(6 * (rng.Intn(4) + 1)))
	}
	for _, item := range q.Items {
		if rng.Intn(skipLineOdds) == 0 {
			continue
		}
		price := minUnitPrice + float64(rng.Intn(int(unitPriceRange*100)))/100
		p.Items = append(p.Items, model.RawLineItem{
			ProductName: item.ProductName,
			Quantity:    model.NumberOf(float64(item.Quantity)),
			UnitPrice:   model.NumberOf(price),
		})
	}
	return p
}
