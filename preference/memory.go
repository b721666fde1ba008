package preference

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Memory keeps records in process memory.
type Memory struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record), now: time.Now}
}

func (m *Memory) Get(scope string) (mo.Option[string], error) {
	if err := checkScope(scope); err != nil {
		return mo.None[string](), err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.records[scope]; ok {
		return mo.Some(r.ProviderID), nil
	}
	return mo.None[string](), nil
}

func (m *Memory) Set(scope, providerID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[scope] = Record{Scope: scope, ProviderID: providerID, UpdatedAt: m.now()}
	return nil
}

func (m *Memory) Clear(scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, scope)
	return nil
}

func (m *Memory) List() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortRecords(lo.Values(m.records)), nil
}

func (m *Memory) Close() error {
	return nil
}

func sortRecords(records []Record) []Record {
	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Compare(a.Scope, b.Scope)
	})
	return records
}
