package failover

import (
	"errors"
	"time"

	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/util"
)

// Status is the outbound state of a resolution.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusResolving Status = "resolving"
	StatusSettled   Status = "settled"
	StatusExhausted Status = "exhausted"
	StatusThrottled Status = "throttled"
)

func (s Status) String() string {
	return string(s)
}

var (
	// ErrIdle is returned by operations that need a started resolution.
	ErrIdle = errors.New("no resolution in progress")
	// ErrExhausted is returned by ReportSuccess once every provider has failed.
	ErrExhausted = errors.New("every provider has been tried")
)

// Snapshot is a copy of the controller state safe to hand to a UI.
// It carries the opaque provider id and its ordinal label, never the endpoint.
type Snapshot struct {
	Status     Status        `json:"status"`
	ContentKey string        `json:"content_key,omitempty"`
	Type       content.Type  `json:"type,omitempty"`
	ProviderID string        `json:"provider,omitempty"`
	Label      string        `json:"label,omitempty"`
	Address    string        `json:"address,omitempty"`
	Tried      []string      `json:"tried"`
	Attempts   int           `json:"attempts"`
	RetryAfter time.Duration `json:"-"`
	StartedAt  time.Time     `json:"started_at,omitzero"`
}

// RetryAfterSeconds is the throttle delay rounded up to whole seconds.
func (s Snapshot) RetryAfterSeconds() int {
	return util.CeilSeconds(s.RetryAfter)
}

// Terminal reports whether no automatic transition can follow.
func (s Snapshot) Terminal() bool {
	return s.Status == StatusSettled || s.Status == StatusExhausted
}
