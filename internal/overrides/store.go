package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilosync/ilosync/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketOverrides = "overrides"
)

// Store persists the override ledger across daemon restarts.
type Store interface {
	Init() error

	Load() (map[string]Override, error)
	Save(entries map[string]Override) error
}

type boltStore struct {
	dbPath string
}

func NewStore(dbPath string) Store {
	s := &boltStore{
		dbPath: dbPath,
	}
	return s
}

func (s boltStore) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(s.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s boltStore) openStore() (db *bolt.DB, err error) {
	db, err = bolt.Open(s.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Load reads all persisted overrides. Corrupt entries are dropped from the
// database instead of failing the whole load.
func (s boltStore) Load() (map[string]Override, error) {
	db, err := s.openStore()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	entries := map[string]Override{}
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketOverrides))
		if b == nil {
			// nothing persisted yet
			return nil
		}

		var corrupt [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var override Override
			if err := json.Unmarshal(v, &override); err != nil {
				ui.Warning("Unable to unmarshal saved override %s: %v", string(k), err)
				corrupt = append(corrupt, k)
				return nil
			}
			entries[string(k)] = override
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range corrupt {
			if err := b.Delete(k); err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", string(k), err)
			}
		}
		return nil
	})

	return entries, err
}

// Save replaces the persisted ledger with the given entries in one
// transaction.
func (s boltStore) Save(entries map[string]Override) (err error) {
	db, err := s.openStore()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(BucketOverrides)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucketIfNotExists([]byte(BucketOverrides))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		for key, override := range entries {
			data, err := json.Marshal(override)
			if err != nil {
				return err
			}
			if err = b.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
}
