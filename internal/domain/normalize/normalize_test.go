package normalize_test

import (
	"math"
	"testing"

	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func line(name string, qty, price float64) model.RawLineItem {
	return model.RawLineItem{
		ProductName: name,
		Quantity:    model.NumberOf(qty),
		UnitPrice:   model.NumberOf(price),
	}
}

func TestNormalize(t *testing.T) {
	Convey("Given the cement quote scenario", t, func() {
		a := model.RawProposal{
			ID: "a", SupplierID: "sup-a",
			Items:         []model.RawLineItem{line("Cimento", 10, 20)},
			ShippingCost:  model.NumberOf(10),
			ReportedTotal: model.NumberOf(210),
		}
		b := model.RawProposal{
			ID: "b", SupplierID: "sup-b",
			Items:         []model.RawLineItem{line("Cimento", 10, 18)},
			ReportedTotal: model.NumberOf(200),
		}

		Convey("When the reported total matches items plus shipping", func() {
			p := normalize.Normalize(a)

			Convey("Then the reported total should be kept", func() {
				So(p.TotalPrice, ShouldEqual, 210)
				So(p.TotalSource, ShouldEqual, model.TotalReported)
				So(p.ComputedTotal, ShouldEqual, 210)
			})
		})

		Convey("When the reported total disagrees", func() {
			p := normalize.Normalize(b)

			Convey("Then the computed total should win", func() {
				So(p.TotalPrice, ShouldEqual, 180)
				So(p.TotalSource, ShouldEqual, model.TotalComputed)
				So(p.ReportedTotal, ShouldEqual, 200)
			})
		})
	})

	Convey("Given a reported total within the epsilon", t, func() {
		raw := model.RawProposal{
			Items:         []model.RawLineItem{line("Areia", 3, 33.333)},
			ReportedTotal: model.NumberOf(100.00),
		}

		Convey("When normalizing", func() {
			p := normalize.Normalize(raw)

			Convey("Then the reported value should be preferred", func() {
				So(p.TotalPrice, ShouldEqual, 100.00)
				So(p.TotalSource, ShouldEqual, model.TotalReported)
			})
		})

		Convey("When the epsilon is exactly the difference", func() {
			raw.ReportedTotal = model.NumberOf(100.01)
			raw.Items = []model.RawLineItem{line("Areia", 1, 100)}
			p := normalize.Normalize(raw)

			Convey("Then the boundary should be inclusive", func() {
				So(p.TotalPrice, ShouldEqual, 100.01)
			})
		})
	})

	Convey("Given line totals that differ from quantity times unit price", t, func() {
		raw := model.RawProposal{
			Items: []model.RawLineItem{{
				ProductName: "Tijolo",
				Quantity:    model.NumberOf(1000),
				UnitPrice:   model.NumberOf(0.5),
				Total:       model.NumberOf(450),
			}},
		}

		Convey("When normalizing", func() {
			p := normalize.Normalize(raw)

			Convey("Then the supplier's line total should be summed", func() {
				So(p.TotalPrice, ShouldEqual, 450)
				So(p.Items[0].Total, ShouldEqual, 450)
				So(p.Items[0].UnitPrice, ShouldEqual, 0.5)
			})
		})
	})

	Convey("Given a proposal with every unit price missing", t, func() {
		raw := model.RawProposal{
			Items: []model.RawLineItem{
				{ProductName: "Cimento", Quantity: model.NumberOf(10)},
				{ProductName: "Brita", Quantity: model.NumberOf(2)},
			},
			ShippingCost: model.NumberOf(35),
		}

		Convey("When normalizing", func() {
			p := normalize.Normalize(raw)

			Convey("Then the total should be the shipping cost alone", func() {
				So(p.TotalPrice, ShouldEqual, 35)
				So(math.IsNaN(p.TotalPrice), ShouldBeFalse)
				So(p.Items[0].PriceKnown, ShouldBeFalse)
				So(p.Items[1].Total, ShouldEqual, 0)
			})
		})
	})

	Convey("Given a line with only a total", t, func() {
		raw := model.RawProposal{
			Items: []model.RawLineItem{{ProductName: "Cal", Quantity: model.NumberOf(4), Total: model.NumberOf(60)}},
		}

		Convey("When normalizing", func() {
			p := normalize.Normalize(raw)

			Convey("Then the unit price should be derived", func() {
				So(p.Items[0].PriceKnown, ShouldBeTrue)
				So(p.Items[0].UnitPrice, ShouldEqual, 15)
			})
		})
	})

	Convey("Given an empty raw proposal", t, func() {
		p := normalize.Normalize(model.RawProposal{})

		Convey("Then business defaults should apply", func() {
			So(p.TotalPrice, ShouldEqual, 0)
			So(p.WarrantyMonths, ShouldEqual, normalize.DefaultWarrantyMonths)
			So(p.DeliveryTimeDays, ShouldEqual, normalize.DefaultDeliveryDays)
			So(p.Items, ShouldHaveLength, 0)
		})
	})

	Convey("Given out-of-range values", t, func() {
		raw := model.RawProposal{
			Items:          []model.RawLineItem{line("Cimento", -5, 20)},
			ShippingCost:   model.NumberOf(-10),
			ReportedTotal:  model.NumberOf(-1),
			DeliveryScore:  model.NumberOf(140),
			Reputation:     model.NumberOf(9),
			WarrantyMonths: model.NumberOf(6.6),
		}

		Convey("When normalizing", func() {
			p := normalize.Normalize(raw)

			Convey("Then values should be clamped", func() {
				So(p.TotalPrice, ShouldEqual, 0)
				So(p.ShippingCost, ShouldEqual, 0)
				So(p.DeliveryScore, ShouldEqual, 100)
				So(p.Reputation, ShouldEqual, 5)
				So(p.WarrantyMonths, ShouldEqual, 7)
			})
		})
	})

	Convey("Given custom defaults", t, func() {
		n := normalize.New(
			normalize.WithDefaultDeliveryDays(15),
			normalize.WithDefaultWarrantyMonths(6),
			normalize.WithEpsilon(5),
		)
		raw := model.RawProposal{
			Items:         []model.RawLineItem{line("Cimento", 10, 20)},
			ReportedTotal: model.NumberOf(204),
		}

		Convey("When normalizing", func() {
			p := n.Normalize(raw)

			Convey("Then the options should take effect", func() {
				So(p.DeliveryTimeDays, ShouldEqual, 15)
				So(p.WarrantyMonths, ShouldEqual, 6)
				So(p.TotalPrice, ShouldEqual, 204)
			})
		})
	})
}

func TestNormalizeIdempotent(t *testing.T) {
	Convey("Given proposals that take either total path", t, func() {
		raws := []model.RawProposal{
			{Items: []model.RawLineItem{line("Cimento", 10, 20)}, ShippingCost: model.NumberOf(10), ReportedTotal: model.NumberOf(210)},
			{Items: []model.RawLineItem{line("Cimento", 10, 18)}, ReportedTotal: model.NumberOf(200)},
			{Items: []model.RawLineItem{line("Areia", 3, 33.333), line("Brita", 7, 0.1)}, ShippingCost: model.NumberOf(12.34)},
			{Items: []model.RawLineItem{{ProductName: "Cal", Quantity: model.NumberOf(3)}}},
		}

		Convey("When normalizing the normalized output again", func() {
			n := normalize.New()
			first := n.NormalizeAll(raws)

			Convey("Then the total price should not change", func() {
				for _, p := range first {
					again := n.Normalize(p.Raw())
					So(again.TotalPrice, ShouldEqual, p.TotalPrice)
					So(again.Items, ShouldHaveLength, len(p.Items))
				}
			})
		})
	})
}
