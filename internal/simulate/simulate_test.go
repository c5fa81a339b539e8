package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/quotedesk/internal/adapters/http/api"
	service "github.com/okian/quotedesk/internal/app"
	"github.com/okian/quotedesk/internal/domain/combination"
	"github.com/okian/quotedesk/internal/domain/model"
	"github.com/okian/quotedesk/internal/domain/readiness"
	"github.com/okian/quotedesk/internal/domain/scoring"
	"github.com/okian/quotedesk/internal/domain/types"
	"github.com/okian/quotedesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer(ctx context.Context) (*httptest.Server, func()) {
	svc := service.New(service.WithWorkerCount(2))
	if err := svc.Start(ctx); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	return srv, func() {
		srv.Close()
		svc.Stop()
	}
}

func TestGenerateScenarios(t *testing.T) {
	Convey("Given a seeded configuration", t, func() {
		cfg := &Config{Quotes: 4, Suppliers: 3, Seed: 42}

		Convey("When scenarios are generated", func() {
			scenarios := generateScenarios(cfg)

			Convey("Then every quote should invite and hear from every supplier", func() {
				So(scenarios, ShouldHaveLength, 4)
				for _, sc := range scenarios {
					So(sc.Quote.ID, ShouldNotBeEmpty)
					So(sc.Quote.Items, ShouldHaveLength, itemsPerQuote)
					So(sc.Quote.InvitedSuppliers, ShouldHaveLength, 3)
					So(sc.Proposals, ShouldHaveLength, 3)
					for _, p := range sc.Proposals {
						So(p.QuoteID, ShouldEqual, sc.Quote.ID)
						So(len(p.Items), ShouldBeLessThanOrEqualTo, itemsPerQuote)
					}
				}
			})

			Convey("And the same seed should produce the same prices", func() {
				again := generateScenarios(cfg)
				So(again[0].Proposals[0].Items, ShouldResemble, scenarios[0].Proposals[0].Items)
			})
		})
	})
}

func TestVerifyAnalysis(t *testing.T) {
	Convey("Given a scenario with two suppliers", t, func() {
		sc := generateScenarios(&Config{Quotes: 1, Suppliers: 2, Seed: 7})[0]
		a := &types.Analysis{
			QuoteID:    sc.Quote.ID,
			Visibility: readiness.Decision{State: readiness.Visible, Reason: readiness.ReasonAllResponded},
			Proposals:  []model.Proposal{{SupplierID: "supplier-1"}, {SupplierID: "supplier-2"}},
			Ranking: []scoring.RankedProposal{
				{Rank: 1, Score: 80},
				{Rank: 2, Score: 40},
			},
			Combination: &combination.Result{
				Items: []combination.ItemAward{{
					Winner:       combination.Offer{SupplierID: "supplier-1", UnitPrice: 10},
					OtherOptions: []combination.Offer{{SupplierID: "supplier-2", UnitPrice: 12}},
					Cost:         100,
				}},
				TotalCost: 100,
			},
		}

		Convey("When the analysis is consistent", func() {
			Convey("Then there should be no violations", func() {
				So(verifyAnalysis(&sc, a), ShouldBeEmpty)
			})
		})

		Convey("When the matrix is still hidden", func() {
			a.Visibility = readiness.Decision{State: readiness.Hidden, Reason: readiness.ReasonAwaitingProposals}
			a.Ranking = nil

			Convey("Then the reason, state and ranking size should be reported", func() {
				So(verifyAnalysis(&sc, a), ShouldHaveLength, 3)
			})
		})

		Convey("When scores are out of order", func() {
			a.Ranking[1].Score = 90

			Convey("Then a violation should be reported", func() {
				So(verifyAnalysis(&sc, a), ShouldHaveLength, 1)
			})
		})

		Convey("When a cheaper offer lost", func() {
			a.Combination.Items[0].OtherOptions[0].UnitPrice = 9

			Convey("Then a violation should be reported", func() {
				So(verifyAnalysis(&sc, a), ShouldHaveLength, 1)
			})
		})
	})

	Convey("Given a single supplier scenario", t, func() {
		sc := generateScenarios(&Config{Quotes: 1, Suppliers: 1, Seed: 7})[0]
		a := &types.Analysis{
			QuoteID:    sc.Quote.ID,
			Visibility: readiness.Decision{State: readiness.Hidden, Reason: readiness.ReasonSingleSupplier},
		}

		Convey("Then a hidden matrix should be accepted", func() {
			So(verifyAnalysis(&sc, a), ShouldBeEmpty)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv, stop := newTestServer(ctx)
		defer stop()

		cfg := &Config{
			BaseURL:    srv.URL,
			Quotes:     5,
			Suppliers:  3,
			Workers:    4,
			Timeout:    5 * time.Second,
			Seed:       1,
			OutputFile: filepath.Join(t.TempDir(), "out", "scenarios.json"),
		}

		Convey("When a simulation runs", func() {
			stats, err := Run(ctx, cfg)

			Convey("Then every request should succeed without violations", func() {
				So(err, ShouldBeNil)
				So(stats.QuotesCreated, ShouldEqual, 5)
				So(stats.ProposalsSubmitted, ShouldEqual, 15)
				So(stats.ProposalsFailed, ShouldEqual, 0)
				So(stats.AnalysesRetrieved, ShouldEqual, 5)
				So(stats.Violations, ShouldEqual, 0)
				So(stats.Duration > 0, ShouldBeTrue)
			})

			Convey("And the scenarios should be saved", func() {
				data, err := os.ReadFile(cfg.OutputFile)
				So(err, ShouldBeNil)
				var saved []Scenario
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 5)
			})
		})

		Convey("When single supplier quotes are simulated", func() {
			cfg.Suppliers = 1
			cfg.OutputFile = ""
			stats, err := Run(ctx, cfg)

			Convey("Then the matrix should stay hidden for all of them", func() {
				So(err, ShouldBeNil)
				So(stats.AnalysesRetrieved, ShouldEqual, 5)
			})
		})
	})

	Convey("Given no service", t, func() {
		cfg := &Config{BaseURL: "http://127.0.0.1:1", Quotes: 1, Suppliers: 2, Workers: 1, Timeout: time.Second}

		Convey("Then the health check should fail the run", func() {
			_, err := Run(context.Background(), cfg)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrViolations), ShouldBeFalse)
		})
	})
}

func TestHTTPClient(t *testing.T) {
	Convey("Given a server answering with a teapot", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout\n"))
		}))
		defer srv.Close()
		client := newHTTPClient(srv.URL, time.Second)

		Convey("Then unexpected statuses should surface as StatusError", func() {
			err := client.getJSON(context.Background(), "/", nil)
			var se *StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Status, ShouldEqual, http.StatusTeapot)
			So(se.Body, ShouldEqual, "short and stout")
		})

		Convey("And listed statuses should be accepted", func() {
			So(client.postJSON(context.Background(), "/", map[string]int{"a": 1}, nil, http.StatusTeapot), ShouldBeNil)
		})
	})
}
