package failover

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/log"
	"github.com/vidrelay/vidrelay/throttle"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is a Controller registered under an id.
type Session struct {
	ID         string
	Scope      string
	ContentKey string
	*Controller

	key     sessionKey
	touched time.Time
}

// sessionKey includes the type since an anime and a series may share an id,
// season and episode but not their providers.
type sessionKey struct {
	scope       string
	contentType content.Type
	contentKey  string
}

// Sessions holds one Controller per (scope, content type, content key). Each
// scope gets its own retry bucket so one client cannot throttle another; the
// bucket is dropped once the scope has no sessions left and has refilled.
type Sessions struct {
	mu     sync.Mutex
	byID   map[string]*Session
	byKey  map[sessionKey]*Session
	scopes map[string]int

	deps Dependencies
	opts []Option
	ttl  time.Duration
	now  func() time.Time
}

// NewSessions returns an empty registry. Sessions untouched for ttl are
// evicted by Run; a non-positive ttl disables eviction.
func NewSessions(deps Dependencies, ttl time.Duration, opts ...Option) *Sessions {
	return &Sessions{
		byID:   make(map[string]*Session),
		byKey:  make(map[sessionKey]*Session),
		scopes: make(map[string]int),
		deps:   deps.withDefaults(),
		opts:   opts,
		ttl:    ttl,
		now:    time.Now,
	}
}

func retryBucket(scope string) string {
	return throttle.ProviderRetry + ":" + scope
}

// Open returns the session for (scope, req.Type, req.Key()), starting a new
// one when none exists. created reports whether a new session was started.
func (s *Sessions) Open(scope string, req content.Request) (session *Session, created bool, err error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	k := sessionKey{scope: scope, contentType: req.Type, contentKey: req.Key()}
	if existing, ok := s.lookup(k); ok {
		return existing, false, nil
	}

	// Start reads the preference store, keep it out of the lock
	opts := append([]Option{WithBucket(retryBucket(scope))}, s.opts...)
	ctrl := New(scope, s.deps, opts...)
	if _, err := ctrl.Start(req); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another Open for the same key may have won meanwhile
	if existing, ok := s.byKey[k]; ok {
		existing.touched = s.now()
		ctrl.Abandon()
		return existing, false, nil
	}

	session = &Session{
		ID:         uuid.NewString(),
		Scope:      scope,
		ContentKey: k.contentKey,
		Controller: ctrl,
		key:        k,
		touched:    s.now(),
	}
	s.byID[session.ID] = session
	s.byKey[k] = session
	s.scopes[scope]++

	log.WithFields(log.Fields{"session": session.ID, "scope": scope, "content": k.contentKey}).Info("session opened")
	return session, true, nil
}

func (s *Sessions) lookup(k sessionKey) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byKey[k]
	if ok {
		existing.touched = s.now()
	}
	return existing, ok
}

// Get looks a session up and marks it as used.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	session.touched = s.now()
	return session, nil
}

// Abandon drops the session and its resolution state.
func (s *Sessions) Abandon(id string) error {
	s.mu.Lock()
	session, ok := s.byID[id]
	if ok {
		s.remove(session)
		s.pruneBuckets()
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Abandon()
	return nil
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.byID)
}

// Sweep evicts sessions untouched for longer than the ttl and returns how
// many were dropped. Retry buckets of scopes without sessions are dropped
// once they have refilled.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	var stale []*Session
	if s.ttl > 0 {
		deadline := s.now().Add(-s.ttl)
		for _, session := range s.byID {
			if session.touched.Before(deadline) {
				stale = append(stale, session)
				s.remove(session)
			}
		}
	}
	if pruned := s.pruneBuckets(); pruned > 0 {
		log.WithFields(log.Fields{"buckets": pruned}).Debug("retry buckets dropped")
	}
	s.mu.Unlock()

	for _, session := range stale {
		session.Abandon()
		log.WithFields(log.Fields{"session": session.ID, "scope": session.Scope}).Debug("session expired")
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done, then waits for pending preference writes.
func (s *Sessions) Run(ctx context.Context) {
	interval := s.ttl / 2
	switch {
	case s.ttl <= 0:
		interval = time.Minute
	case interval < time.Second:
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Wait()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Wait blocks until every session has flushed its preference writes.
func (s *Sessions) Wait() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.byID))
	for _, session := range s.byID {
		sessions = append(sessions, session)
	}
	s.mu.Unlock()

	for _, session := range sessions {
		session.Controller.Wait()
	}
}

// remove must hold s.mu.
func (s *Sessions) remove(session *Session) {
	delete(s.byID, session.ID)
	delete(s.byKey, session.key)
	s.scopes[session.Scope]--
	if s.scopes[session.Scope] <= 0 {
		delete(s.scopes, session.Scope)
	}
}

// pruneBuckets must hold s.mu.
func (s *Sessions) pruneBuckets() int {
	return s.deps.Guard.Prune(func(bucketKey string) bool {
		scope, ok := strings.CutPrefix(bucketKey, throttle.ProviderRetry+":")
		return ok && s.scopes[scope] == 0
	})
}
