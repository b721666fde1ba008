package preference

import (
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vidrelay/vidrelay/filesystem"
)

// File keeps records in a json file through the swappable filesystem backend.
type File struct {
	mu     sync.Mutex
	cacher *gache.Cache[map[string]Record]
	now    func() time.Time
}

// NewFile returns a File store backed by path. The file is created on first write.
func NewFile(path string) *File {
	return &File{
		cacher: gache.New[map[string]Record](
			&gache.Options{
				Path:       path,
				FileSystem: &filesystem.GacheFs{},
			},
		),
		now: time.Now,
	}
}

func (f *File) load() (map[string]Record, error) {
	cached, expired, err := f.cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]Record), nil
	}
	return cached, nil
}

func (f *File) Get(scope string) (mo.Option[string], error) {
	if err := checkScope(scope); err != nil {
		return mo.None[string](), err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return mo.None[string](), err
	}
	if r, ok := records[scope]; ok {
		return mo.Some(r.ProviderID), nil
	}
	return mo.None[string](), nil
}

func (f *File) Set(scope, providerID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return err
	}
	records[scope] = Record{Scope: scope, ProviderID: providerID, UpdatedAt: f.now()}
	return f.cacher.Set(records)
}

func (f *File) Clear(scope string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := records[scope]; !ok {
		return nil
	}
	delete(records, scope)
	return f.cacher.Set(records)
}

func (f *File) List() ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.load()
	if err != nil {
		return nil, err
	}
	return sortRecords(lo.Values(records)), nil
}

func (f *File) Close() error {
	return nil
}
