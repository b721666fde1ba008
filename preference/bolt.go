package preference

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/mo"
	bolt "go.etcd.io/bbolt"
)

const (
	dbFileMode = 0600
	dbDirMode  = 0755
)

var bucketName = []byte("preferences")

// Bolt keeps records in a bbolt database, one json value per scope.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBolt opens (creating when needed) the database at path.
func NewBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), dbDirMode); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := bolt.Open(path, dbFileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) Get(scope string) (mo.Option[string], error) {
	if err := checkScope(scope); err != nil {
		return mo.None[string](), err
	}

	var result mo.Option[string]
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketName).Get([]byte(scope))
		if raw == nil {
			return nil
		}

		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("decode record %q: %w", scope, err)
		}
		result = mo.Some(r.ProviderID)
		return nil
	})
	return result, err
}

func (b *Bolt) Set(scope, providerID string) error {
	if err := checkScope(scope); err != nil {
		return err
	}

	raw, err := json.Marshal(Record{Scope: scope, ProviderID: providerID, UpdatedAt: b.now()})
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(scope), raw)
	})
}

func (b *Bolt) Clear(scope string) error {
	if scope == "" {
		return nil
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(scope))
	})
}

// List walks the bucket in key order, which is scope order.
func (b *Bolt) List() ([]Record, error) {
	var records []Record
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode record %q: %w", k, err)
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
