package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/quotedesk/internal/adapters/repository"
	service "github.com/okian/quotedesk/internal/app"
	"github.com/okian/quotedesk/internal/domain/readiness"
	. "github.com/smartystreets/goconvey/convey"
)

func waitForSnapshot(svc *service.Service, quoteID string, ready func(*readiness.Decision) bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, err := svc.Snapshot(context.Background(), quoteID)
		if err == nil && ready(&a.Visibility) {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service backed by sqlite", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "quotes.db"))
		So(err, ShouldBeNil)
		defer store.Close()

		svc := service.New(
			service.WithStore(store),
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithClock(clock),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		q := newQuote(2, nil)
		So(svc.CreateQuote(ctx, q), ShouldBeNil)

		Convey("When no snapshot was computed yet", func() {
			_, err := svc.Snapshot(ctx, q.ID)
			So(errors.Is(err, service.ErrNoSnapshot), ShouldBeTrue)
		})

		Convey("When every invited supplier submits", func() {
			So(svc.SubmitProposal(ctx, rawProposal(q.ID, "A", 20, 5)), ShouldBeNil)
			So(svc.SubmitProposal(ctx, rawProposal(q.ID, "B", 18, 7)), ShouldBeNil)

			Convey("Then the worker pool should publish a visible snapshot", func() {
				So(waitForSnapshot(svc, q.ID, func(d *readiness.Decision) bool { return d.Visible() }), ShouldBeTrue)

				a, err := svc.Snapshot(ctx, q.ID)
				So(err, ShouldBeNil)
				So(a.Ranking, ShouldHaveLength, 2)
				So(a.Best().Proposal.SupplierID, ShouldEqual, "B")
				So(a.Combination.TotalCost, ShouldEqual, 180)
			})

			Convey("And the visible state should be persisted", func() {
				So(waitForSnapshot(svc, q.ID, func(d *readiness.Decision) bool { return d.Visible() }), ShouldBeTrue)
				stored, err := svc.GetQuote(ctx, q.ID)
				So(err, ShouldBeNil)
				So(stored.MatrixVisible, ShouldBeTrue)
			})

			Convey("And stats should reflect the work", func() {
				So(waitForSnapshot(svc, q.ID, func(d *readiness.Decision) bool { return d.Visible() }), ShouldBeTrue)
				stats := svc.GetStats(ctx)
				So(stats["started"], ShouldEqual, true)
				So(stats["quotes"], ShouldEqual, 1)
				So(stats["proposals"], ShouldEqual, 2)
				So(stats["processed_resyncs"], ShouldBeGreaterThanOrEqualTo, int64(1))
				So(stats["cached_snapshots"], ShouldEqual, 1)
			})
		})

		Convey("When a manual resync is requested", func() {
			scheduled, err := svc.Resync(ctx, q.ID, service.ReasonManual)

			Convey("Then a snapshot should follow", func() {
				So(err, ShouldBeNil)
				So(scheduled, ShouldBeTrue)
				So(waitForSnapshot(svc, q.ID, func(*readiness.Decision) bool { return true }), ShouldBeTrue)
			})
		})
	})
}
