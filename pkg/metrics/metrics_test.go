package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

// counterValue sums every series of a counter family in the registry.
func counterValue(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the collectors should count on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.proposalsNormalized.WithLabelValues("reported").Inc()
				manager.proposalsNormalized.WithLabelValues("computed").Add(2)
				So(counterValue(registry, "quotedesk_engine_proposals_normalized_total"), ShouldEqual, 3)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("acme"),
				WithSubsystem("rfq"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.resyncDuplicate.Inc()

			Convey("Then names and labels should follow the options", func() {
				So(counterValue(registry, "acme_rfq_resync_duplicate_total"), ShouldEqual, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				for _, mf := range families {
					if mf.GetName() == "acme_rfq_resync_duplicate_total" {
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
						So(mf.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
			})
		})

		Convey("When creating twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration should conflict", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		reg := GetRegistry()

		Convey("When recording business metrics", func() {
			before := counterValue(reg, "quotedesk_engine_visibility_decisions_total")
			RecordProposalNormalized("computed")
			RecordAnalysis("visible", 12.5)
			RecordRankingLatency(0.4)
			RecordCombination(true, 10)
			RecordVisibilityDecision("visible", "no_deadline")
			RecordWeightRedistribution("price")

			Convey("Then the counters should move", func() {
				So(counterValue(reg, "quotedesk_engine_visibility_decisions_total"), ShouldEqual, before+1)
				So(counterValue(reg, "quotedesk_engine_combinations_total"), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				UpdateQuotesTotal(3)
				UpdateProposalsTotal(9)
				RecordRepositoryQueryLatency("list_proposals", 0.2)
				RecordResyncDuplicate()
				UpdateQueueSize(4)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.04)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueRejected()
				RecordQueueWaitLatency(1.5)
				UpdateWorkerCount(4)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(3)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP and error metrics", func() {
			So(func() {
				RecordHTTPRequest("/v1/rank", "POST", "200")
				RecordHTTPRequestDuration("/v1/rank", "POST", "200", 2)
				RecordErrorByComponent("service", "analyze")
				RecordErrorByEndpoint("/v1/rank", "POST", "bad_request")
			}, ShouldNotPanic)
		})

		Convey("When recording system metrics", func() {
			So(func() {
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics concurrency", t, func() {
		before := counterValue(GetRegistry(), "quotedesk_engine_queue_enqueue_total")

		Convey("When recording metrics concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 100; j++ {
						RecordQueueEnqueue()
						RecordHTTPRequest("/healthz", "GET", "200")
					}
				}()
			}
			wg.Wait()

			Convey("Then no increment should be lost", func() {
				So(counterValue(GetRegistry(), "quotedesk_engine_queue_enqueue_total"), ShouldEqual, before+1000)
			})
		})
	})
}
