// Package failover drives provider selection for one piece of content.
//
// A Controller moves Idle → Resolving(p) → Settled(p) | Exhausted. Failures
// advance through the catalog in rank order, never revisiting a provider
// until the tried set is cleared by SwitchTo or Reset. Every automatic
// advance first takes a token from the throttle guard.
package failover

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vidrelay/vidrelay/address"
	"github.com/vidrelay/vidrelay/catalog"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/preference"
	"github.com/vidrelay/vidrelay/throttle"
)

// Dependencies are the collaborators of a Controller. Only Catalog is required.
type Dependencies struct {
	Catalog *catalog.Catalog
	Builder *address.Builder
	Guard   *throttle.Guard
	Store   preference.Store
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Builder == nil {
		d.Builder = address.New(d.Catalog)
	}
	if d.Guard == nil {
		d.Guard = throttle.New(throttle.Settings{Capacity: 5, RefillRate: 1})
	}
	if d.Store == nil {
		d.Store = preference.NewMemory()
	}
	return d
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for StartedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// PerType keeps one preference per (scope, content type) instead of one per scope.
func PerType(enabled bool) Option {
	return func(c *Controller) { c.perType = enabled }
}

// WithBucket changes the throttle bucket consulted before retries.
func WithBucket(bucketKey string) Option {
	return func(c *Controller) { c.bucket = bucketKey }
}

type state struct {
	req        content.Request
	status     Status
	active     string
	address    string
	tried      []string
	attempts   int
	retryAfter time.Duration
	startedAt  time.Time
}

func (s *state) markTried(id string) {
	if !slices.Contains(s.tried, id) {
		s.tried = append(s.tried, id)
	}
}

// Controller is the failover state machine for one scope. It is safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	deps  Dependencies
	scope string
	state *state

	perType bool
	bucket  string
	now     func() time.Time

	// preference writes
	pending sync.WaitGroup
	writeMu sync.Mutex
	seq     uint64
	written uint64
}

// New returns an idle Controller remembering preferences under scope.
func New(scope string, deps Dependencies, opts ...Option) *Controller {
	c := &Controller{
		deps:   deps.withDefaults(),
		scope:  scope,
		bucket: throttle.ProviderRetry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scope returns the scope preferences are remembered under.
func (c *Controller) Scope() string {
	return c.scope
}

// Start begins resolving req, discarding any previous state.
//
// The remembered provider is used when it exists and supports req.Type;
// otherwise the catalog default is used without reporting an error. A type
// with no providers lands directly in Exhausted. A request that cannot be
// started leaves the controller idle.
func (c *Controller) Start(req content.Request) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := req.Validate(); err != nil {
		c.state = nil
		return c.snapshot(), err
	}

	st := &state{req: req, startedAt: c.now()}
	if err := c.begin(st); err != nil {
		c.state = nil
		return c.snapshot(), err
	}
	c.state = st

	log.WithFields(c.fields()).Info("resolution started")
	return c.snapshot(), nil
}

// begin picks the starting provider of st, as Start and Reset do.
func (c *Controller) begin(st *state) error {
	st.tried = nil
	st.attempts = 1
	st.retryAfter = 0

	if len(c.deps.Catalog.Providers(st.req.Type)) == 0 {
		st.status = StatusExhausted
		st.active, st.address = "", ""
		st.attempts = 0
		return nil
	}

	return c.activate(st, c.initial(st.req))
}

// initial returns the remembered provider when usable, else the catalog default.
func (c *Controller) initial(req content.Request) string {
	fallback, _ := c.deps.Catalog.Default(req.Type)

	prefKey := c.preferenceKey(req.Type)
	remembered, err := c.deps.Store.Get(prefKey)
	if err != nil {
		log.WithFields(log.Fields{"scope": prefKey, "error": err}).Warn("reading preference failed")
		return fallback.ID
	}

	id, ok := remembered.Get()
	if !ok {
		return fallback.ID
	}

	d, err := c.deps.Catalog.Describe(id)
	if err != nil || !d.Supports(req.Type) {
		log.WithFields(log.Fields{"scope": prefKey, "provider": id, "type": req.Type}).
			Debug("remembered provider unusable, using default")
		return fallback.ID
	}
	return d.ID
}

// activate makes id the active provider of st. When its address cannot be
// built the provider is marked tried and the next one is activated, without
// consuming a throttle token.
func (c *Controller) activate(st *state, id string) error {
	addr, err := c.deps.Builder.Build(st.req, id)
	switch {
	case err == nil:
		st.active, st.address, st.status = id, addr, StatusResolving
		return nil
	case errors.Is(err, address.ErrInvalidEpisodeInfo):
		// the request itself is bad; no provider can do better
		return err
	default:
		log.WithFields(log.Fields{"provider": id, "error": err}).Warn("skipping provider")
		st.markTried(id)
		return c.next(st)
	}
}

// next activates the first provider in rank order that has not been tried.
func (c *Controller) next(st *state) error {
	for _, d := range c.deps.Catalog.Providers(st.req.Type) {
		if slices.Contains(st.tried, d.ID) {
			continue
		}
		return c.activate(st, d.ID)
	}

	st.status = StatusExhausted
	st.active, st.address = "", ""
	log.WithFields(c.fieldsOf(st)).Warn("every provider failed")
	return nil
}

// ReportSuccess settles on the active provider and remembers it.
// Reporting success again while settled changes nothing.
//
// A success reported while throttled still settles on the active provider:
// its earlier failure is taken back, so it leaves the tried set.
func (c *Controller) ReportSuccess() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	switch {
	case st == nil:
		return c.snapshot(), ErrIdle
	case st.status == StatusExhausted:
		return c.snapshot(), ErrExhausted
	case st.status == StatusSettled:
		return c.snapshot(), nil
	}

	st.status = StatusSettled
	st.tried = slices.DeleteFunc(st.tried, func(id string) bool { return id == st.active })
	st.attempts = 0
	st.retryAfter = 0
	c.remember(st.req.Type, st.active)

	log.WithFields(c.fields()).Info("resolution settled")
	return c.snapshot(), nil
}

// ReportFailure marks the active provider as failed and moves to the next one.
//
// When the throttle guard denies the retry, the status becomes throttled,
// the active provider stays, and the caller is expected to report the
// failure again after Snapshot.RetryAfter. A failure reported while settled
// means the settled provider broke later and is handled the same way.
// In Exhausted this is a no-op.
func (c *Controller) ReportFailure() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	switch {
	case st == nil:
		return c.snapshot(), ErrIdle
	case st.status == StatusExhausted:
		return c.snapshot(), nil
	}

	st.markTried(st.active)

	decision, err := c.deps.Guard.TryConsume(c.bucket, 1)
	if err != nil {
		return c.snapshot(), fmt.Errorf("consult throttle: %w", err)
	}
	if !decision.Allowed {
		st.status = StatusThrottled
		st.retryAfter = decision.RetryAfter
		log.WithFields(c.fields()).WithField("retry_after", decision.RetryAfter).Info("retry throttled")
		return c.snapshot(), nil
	}

	st.retryAfter = 0
	st.attempts++
	if err := c.next(st); err != nil {
		return c.snapshot(), err
	}

	log.WithFields(c.fields()).Info("failed over")
	return c.snapshot(), nil
}

// SwitchTo makes providerID active with a fresh tried set and remembers it.
// Unknown ids fail with catalog.ErrNotFound and leave the state untouched.
// An id that does not serve the content type is marked tried and the next
// provider is activated immediately.
func (c *Controller) SwitchTo(providerID string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if st == nil {
		return c.snapshot(), ErrIdle
	}

	d, err := c.deps.Catalog.Describe(providerID)
	if err != nil {
		return c.snapshot(), err
	}

	st.tried = nil
	st.attempts = 1
	st.retryAfter = 0
	if err := c.activate(st, d.ID); err != nil {
		return c.snapshot(), err
	}

	if st.active == d.ID {
		c.remember(st.req.Type, d.ID)
	}

	log.WithFields(c.fields()).WithField("requested", d.ID).Info("switched provider")
	return c.snapshot(), nil
}

// Reset clears the tried set and starts over as Start would.
func (c *Controller) Reset() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if st == nil {
		return c.snapshot(), ErrIdle
	}

	if err := c.begin(st); err != nil {
		return c.snapshot(), err
	}

	log.WithFields(c.fields()).Info("resolution reset")
	return c.snapshot(), nil
}

// Abandon drops the resolution. Nothing is written anywhere.
func (c *Controller) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// Wait blocks until pending preference writes have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) snapshot() Snapshot {
	st := c.state
	if st == nil {
		return Snapshot{Status: StatusIdle, Tried: []string{}}
	}

	return Snapshot{
		Status:     st.status,
		ContentKey: st.req.Key(),
		Type:       st.req.Type,
		ProviderID: st.active,
		Label:      c.deps.Catalog.Label(st.active),
		Address:    st.address,
		Tried:      append([]string{}, st.tried...),
		Attempts:   st.attempts,
		RetryAfter: st.retryAfter,
		StartedAt:  st.startedAt,
	}
}

func (c *Controller) preferenceKey(t content.Type) string {
	return preference.Key(c.scope, t, c.perType)
}

// remember writes the preference in the background. Writes are sequenced so
// that a slow older write never overwrites a newer one. Must hold c.mu.
func (c *Controller) remember(t content.Type, providerID string) {
	c.seq++
	seq := c.seq
	prefKey := c.preferenceKey(t)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()

		c.writeMu.Lock()
		defer c.writeMu.Unlock()

		if seq < c.written {
			return
		}
		c.written = seq

		if err := c.deps.Store.Set(prefKey, providerID); err != nil {
			log.WithFields(log.Fields{"scope": prefKey, "provider": providerID, "error": err}).
				Warn("writing preference failed")
		}
	}()
}

func (c *Controller) fields() log.Fields {
	if c.state == nil {
		return log.Fields{"scope": c.scope, "status": StatusIdle}
	}
	return c.fieldsOf(c.state)
}

func (c *Controller) fieldsOf(st *state) log.Fields {
	return log.Fields{
		"scope":    c.scope,
		"content":  st.req.Key(),
		"status":   st.status,
		"provider": st.active,
		"tried":    st.tried,
		"attempts": st.attempts,
	}
}
