// Package catalog is the static registry of playback providers.
//
// Providers are ordered by rank, ties broken by id, and that order is the
// only order in which failover ever visits them.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vidrelay/vidrelay/content"
	"github.com/vidrelay/vidrelay/key"
	"github.com/vidrelay/vidrelay/log"
)

var (
	ErrNotFound          = errors.New("provider not found")
	ErrNoProviders       = errors.New("no provider supports this content type")
	ErrInvalidDescriptor = errors.New("invalid provider descriptor")
)

// Catalog is read-only after construction and safe for concurrent use.
type Catalog struct {
	ordered []Descriptor
	byID    map[string]int
}

// New validates descriptors and orders them by rank then id.
func New(descriptors ...Descriptor) (*Catalog, error) {
	c := &Catalog{
		ordered: slices.Clone(descriptors),
		byID:    make(map[string]int, len(descriptors)),
	}

	for _, d := range c.ordered {
		if err := d.validate(); err != nil {
			return nil, err
		}
	}

	slices.SortFunc(c.ordered, func(a, b Descriptor) int {
		return cmp.Or(cmp.Compare(a.Rank, b.Rank), cmp.Compare(a.ID, b.ID))
	})

	for i, d := range c.ordered {
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidDescriptor, d.ID)
		}
		c.byID[d.ID] = i
	}

	return c, nil
}

// MustNew is New that panics. Meant for tests and static tables.
func MustNew(descriptors ...Descriptor) *Catalog {
	return lo.Must(New(descriptors...))
}

// FromEntries builds a catalog from configuration entries.
func FromEntries(entries []Entry) (*Catalog, error) {
	descriptors := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		d, err := e.Descriptor()
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return New(descriptors...)
}

// Load builds the catalog from catalog.providers, or from Builtin when the key is empty.
func Load() (*Catalog, error) {
	var entries []Entry
	if err := viper.UnmarshalKey(key.CatalogProviders, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key.CatalogProviders, err)
	}

	if len(entries) == 0 {
		return New(Builtin()...)
	}

	log.Infof("loading %d providers from configuration", len(entries))
	return FromEntries(entries)
}

// All returns every descriptor in trial order.
func (c *Catalog) All() []Descriptor {
	return slices.Clone(c.ordered)
}

// Len is the number of providers.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Providers returns the descriptors supporting t in trial order.
func (c *Catalog) Providers(t content.Type) []Descriptor {
	return lo.Filter(c.ordered, func(d Descriptor, _ int) bool {
		return d.Supports(t)
	})
}

// Default returns the first provider for t.
func (c *Catalog) Default(t content.Type) (Descriptor, error) {
	for _, d := range c.ordered {
		if d.Supports(t) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %s", ErrNoProviders, t)
}

// Describe looks a provider up by id.
func (c *Catalog) Describe(id string) (Descriptor, error) {
	i, ok := c.byID[id]
	if !ok {
		return Descriptor{}, &NotFoundError{ID: id, Suggestion: c.Suggest(id)}
	}
	return c.ordered[i], nil
}

// Ordinal returns the 1-based position of id in the full catalog, or 0 when unknown.
func (c *Catalog) Ordinal(id string) int {
	i, ok := c.byID[id]
	if !ok {
		return 0
	}
	return i + 1
}

// Label is the user-facing name of a provider. It never reveals the endpoint.
func (c *Catalog) Label(id string) string {
	n := c.Ordinal(id)
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("Source %d", n)
}

// Match returns providers whose id or name fuzzily contains query, in trial order.
func (c *Catalog) Match(query string) []Descriptor {
	return lo.Filter(c.ordered, func(d Descriptor, _ int) bool {
		return fuzzy.MatchFold(query, d.ID) || fuzzy.MatchFold(query, d.Name)
	})
}

// Suggest returns the known id closest to id by edit distance.
func (c *Catalog) Suggest(id string) string {
	if len(c.ordered) == 0 {
		return ""
	}
	ids := lo.Map(c.ordered, func(d Descriptor, _ int) string { return d.ID })
	return lo.MinBy(ids, func(a, b string) bool {
		return levenshtein.Distance(id, a) < levenshtein.Distance(id, b)
	})
}

// NotFoundError is returned by Describe. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	ID         string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("provider %q not found", e.ID)
	}
	return fmt.Sprintf("provider %q not found, did you mean %q?", e.ID, e.Suggestion)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
