package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	dedupe "github.com/okian/quotedesk/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When a quote is scheduled for the first time", func() {
			seen := d.SeenAndRecord(ctx, "quote-1")

			Convey("Then it should be recorded as pending", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same quote is scheduled again before release", func() {
			d.SeenAndRecord(ctx, "quote-1")
			seen := d.SeenAndRecord(ctx, "quote-1")

			Convey("Then the second request should be coalesced", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a pending quote is released", func() {
			d.SeenAndRecord(ctx, "quote-1")
			d.Unrecord(ctx, "quote-1")
			d.Unrecord(ctx, "quote-1")

			Convey("Then it can be scheduled again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "quote-1"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(2))
		d.SeenAndRecord(ctx, "a")
		d.SeenAndRecord(ctx, "b")

		Convey("When it is full", func() {
			first := d.SeenAndRecord(ctx, "c")
			second := d.SeenAndRecord(ctx, "c")

			Convey("Then new keys should pass through untracked", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 2)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("q-%d", i))
		}
		So(d.Size(), ShouldEqual, 1000)
	})
}

func TestInMemoryDeduperConcurrency(t *testing.T) {
	Convey("Given many goroutines racing on the same quote", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		var winners atomic.Int64
		var wg sync.WaitGroup

		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if !d.SeenAndRecord(ctx, "hot-quote") {
					winners.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly one should schedule a job", func() {
			So(winners.Load(), ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
