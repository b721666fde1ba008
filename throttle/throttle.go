// Package throttle is a keyed token-bucket guard.
//
// Each bucket key is one class of operation. Buckets refill continuously up
// to their capacity and are created on first use.
package throttle

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/key"
	"golang.org/x/time/rate"
)

// ProviderRetry is the bucket consulted before every automatic provider retry.
const ProviderRetry = "provider-retry"

var ErrCostExceedsCapacity = errors.New("cost exceeds bucket capacity")

// Settings size a bucket. RefillRate is in tokens per second.
type Settings struct {
	Capacity   int
	RefillRate float64
}

func (s Settings) normalize() Settings {
	if s.Capacity < 1 {
		s.Capacity = 1
	}
	if s.RefillRate <= 0 || math.IsNaN(s.RefillRate) {
		s.RefillRate = 1
	}
	return s
}

// Decision is the outcome of a consumption attempt.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RetryAfterSeconds is RetryAfter in fractional seconds.
func (d Decision) RetryAfterSeconds() float64 {
	return d.RetryAfter.Seconds()
}

type bucket struct {
	limiter  *rate.Limiter
	settings Settings
}

// Guard holds the buckets. It is safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	defaults Settings
	perKey   map[string]Settings
	now      func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// WithBucket sizes one bucket key differently from the defaults.
func WithBucket(bucketKey string, s Settings) Option {
	return func(g *Guard) { g.perKey[bucketKey] = s.normalize() }
}

// New returns a Guard whose buckets default to s.
func New(s Settings, opts ...Option) *Guard {
	g := &Guard{
		buckets:  make(map[string]*bucket),
		defaults: s.normalize(),
		perKey:   make(map[string]Settings),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FromConfig returns a Guard sized by throttle.capacity and throttle.refill_rate.
func FromConfig(opts ...Option) *Guard {
	return New(Settings{
		Capacity:   viper.GetInt(key.ThrottleCapacity),
		RefillRate: viper.GetFloat64(key.ThrottleRefillRate),
	}, opts...)
}

func (g *Guard) bucket(bucketKey string) *bucket {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.buckets[bucketKey]
	if ok {
		return b
	}

	s, ok := g.perKey[bucketKey]
	if !ok {
		s = g.defaults
	}

	// a fresh bucket starts full
	b = &bucket{
		limiter:  rate.NewLimiter(rate.Limit(s.RefillRate), s.Capacity),
		settings: s,
	}
	g.buckets[bucketKey] = b
	return b
}

// TryConsume takes cost tokens from bucketKey when enough are available.
// A cost below 1 counts as 1. When denied, RetryAfter is the shortest wait
// after which the same call would succeed.
func (g *Guard) TryConsume(bucketKey string, cost int) (Decision, error) {
	if cost < 1 {
		cost = 1
	}

	b := g.bucket(bucketKey)
	if cost > b.settings.Capacity {
		return Decision{}, fmt.Errorf("%w: %d > %d", ErrCostExceedsCapacity, cost, b.settings.Capacity)
	}

	now := g.now()
	if b.limiter.AllowN(now, cost) {
		return Decision{Allowed: true}, nil
	}

	deficit := float64(cost) - b.limiter.TokensAt(now)
	wait := time.Duration(math.Ceil(deficit / b.settings.RefillRate * float64(time.Second)))
	if wait <= 0 {
		wait = time.Nanosecond
	}
	return Decision{RetryAfter: wait}, nil
}

// Tokens reports the tokens currently available in bucketKey.
func (g *Guard) Tokens(bucketKey string) float64 {
	return g.bucket(bucketKey).limiter.TokensAt(g.now())
}

// Settings reports how bucketKey is sized.
func (g *Guard) Settings(bucketKey string) Settings {
	return g.bucket(bucketKey).settings
}

// Len is the number of buckets in use.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.buckets)
}

// Prune drops every full bucket for which drop reports true and returns how
// many were dropped. A dropped bucket comes back full on its next use, so no
// tokens are handed out twice.
func (g *Guard) Prune(drop func(bucketKey string) bool) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	var dropped int
	for bucketKey, b := range g.buckets {
		if b.limiter.TokensAt(now) < float64(b.settings.Capacity) || !drop(bucketKey) {
			continue
		}
		delete(g.buckets, bucketKey)
		dropped++
	}
	return dropped
}
