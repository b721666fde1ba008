// Package preference remembers the last provider that worked for a scope.
//
// Writes are best effort from the caller's point of view: a lost write only
// means the next session starts from the catalog default.
package preference

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/where"
)

// Backend names accepted by preference.backend.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

var (
	ErrUnknownBackend = errors.New("unknown preference backend")
	ErrEmptyScope     = errors.New("scope is empty")
)

// Record is one remembered provider.
type Record struct {
	Scope      string    `json:"scope"`
	ProviderID string    `json:"provider"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists records keyed by scope.
type Store interface {
	// Get returns the provider remembered for scope, if any.
	Get(scope string) (mo.Option[string], error)
	// Set overwrites the record for scope.
	Set(scope, providerID string) error
	// Clear drops the record for scope. Clearing an absent scope is not an error.
	Clear(scope string) error
	// List returns every record ordered by scope.
	List() ([]Record, error)
	Close() error
}

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendFile, BackendBolt, BackendMemory}
}

// Open opens the store named by backend.
func Open(backend string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendFile:
		return NewFile(where.Preferences()), nil
	case BackendBolt:
		return NewBolt(where.PreferencesDB())
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// FromConfig opens the backend selected by preference.backend.
func FromConfig() (Store, error) {
	return Open(viper.GetString(key.PreferenceBackend))
}

// Key derives the record key. With perType set, each content type gets its own record.
func Key(scope string, t content.Type, perType bool) string {
	if !perType {
		return scope
	}
	return scope + "/" + string(t)
}

func checkScope(scope string) error {
	if strings.TrimSpace(scope) == "" {
		return ErrEmptyScope
	}
	return nil
}
