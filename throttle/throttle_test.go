package throttle

import (
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/key"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTryConsume(t *testing.T) {
	Convey("Given a bucket of capacity 5 refilling 1 token per second", t, func() {
		clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		g := New(Settings{Capacity: 5, RefillRate: 1}, WithClock(clock.Now))

		Convey("Five calls at t=0 succeed and the sixth is denied for about a second", func() {
			for i := 0; i < 5; i++ {
				d, err := g.TryConsume(ProviderRetry, 1)
				So(err, ShouldBeNil)
				So(d.Allowed, ShouldBeTrue)
			}

			d, err := g.TryConsume(ProviderRetry, 1)
			So(err, ShouldBeNil)
			So(d.Allowed, ShouldBeFalse)
			So(d.RetryAfterSeconds(), ShouldAlmostEqual, 1.0, 0.001)

			Convey("and a call at t=5 succeeds", func() {
				clock.Advance(5 * time.Second)
				d, err := g.TryConsume(ProviderRetry, 1)
				So(err, ShouldBeNil)
				So(d.Allowed, ShouldBeTrue)
			})

			Convey("a denial does not consume tokens", func() {
				clock.Advance(time.Second)
				d, _ := g.TryConsume(ProviderRetry, 1)
				So(d.Allowed, ShouldBeTrue)
			})
		})

		Convey("Refill is continuous and capped", func() {
			for i := 0; i < 5; i++ {
				_, _ = g.TryConsume(ProviderRetry, 1)
			}
			clock.Advance(500 * time.Millisecond)
			So(g.Tokens(ProviderRetry), ShouldAlmostEqual, 0.5, 0.001)

			d, _ := g.TryConsume(ProviderRetry, 1)
			So(d.Allowed, ShouldBeFalse)
			So(d.RetryAfterSeconds(), ShouldAlmostEqual, 0.5, 0.001)

			clock.Advance(time.Hour)
			So(g.Tokens(ProviderRetry), ShouldAlmostEqual, 5.0, 0.001)
		})

		Convey("Non-positive cost counts as one", func() {
			_, _ = g.TryConsume(ProviderRetry, 0)
			_, _ = g.TryConsume(ProviderRetry, -3)
			So(g.Tokens(ProviderRetry), ShouldAlmostEqual, 3.0, 0.001)
		})

		Convey("Cost above capacity is an error", func() {
			_, err := g.TryConsume(ProviderRetry, 6)
			So(errors.Is(err, ErrCostExceedsCapacity), ShouldBeTrue)
		})

		Convey("Prune drops only full buckets it is allowed to", func() {
			_, _ = g.TryConsume("spent", 1)
			_, _ = g.TryConsume("kept", 1)
			So(g.Tokens("full"), ShouldAlmostEqual, 5.0, 0.001)
			So(g.Len(), ShouldEqual, 3)

			all := func(string) bool { return true }
			So(g.Prune(all), ShouldEqual, 1)
			So(g.Len(), ShouldEqual, 2)

			clock.Advance(time.Second)
			So(g.Prune(func(k string) bool { return k == "spent" }), ShouldEqual, 1)
			So(g.Len(), ShouldEqual, 1)

			Convey("and a pruned bucket comes back full", func() {
				So(g.Tokens("spent"), ShouldAlmostEqual, 5.0, 0.001)
			})
		})

		Convey("Buckets are independent", func() {
			for i := 0; i < 5; i++ {
				_, _ = g.TryConsume("a", 1)
			}
			d, _ := g.TryConsume("b", 1)
			So(d.Allowed, ShouldBeTrue)
		})
	})

	Convey("Per-key settings override the defaults", t, func() {
		g := New(Settings{Capacity: 5, RefillRate: 1}, WithBucket("probe", Settings{Capacity: 1, RefillRate: 0.5}))
		So(g.Settings("probe"), ShouldResemble, Settings{Capacity: 1, RefillRate: 0.5})
		So(g.Settings("other").Capacity, ShouldEqual, 5)
	})

	Convey("Invalid settings are normalized", t, func() {
		g := New(Settings{})
		So(g.Settings("x"), ShouldResemble, Settings{Capacity: 1, RefillRate: 1})
	})

	Convey("FromConfig reads the throttle keys", t, func() {
		viper.Set(key.ThrottleCapacity, 3)
		viper.Set(key.ThrottleRefillRate, 2.0)
		defer viper.Set(key.ThrottleCapacity, 5)
		defer viper.Set(key.ThrottleRefillRate, 1.0)

		So(FromConfig().Settings(ProviderRetry), ShouldResemble, Settings{Capacity: 3, RefillRate: 2})
	})
}

func TestConcurrentConsume(t *testing.T) {
	Convey("Concurrent consumers never exceed the capacity", t, func() {
		clock := &fakeClock{t: time.Unix(0, 0)}
		g := New(Settings{Capacity: 10, RefillRate: 1}, WithClock(clock.Now))

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			allowed int
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				d, _ := g.TryConsume(ProviderRetry, 1)
				if d.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		So(allowed, ShouldEqual, 10)
	})
}
