package badger

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/provideplatform/counter/common"
)

// Store is a durable key-value store backed by badger
type Store struct {
	db *badgerdb.DB
}

// Open opens (or creates) the badger database at path; an empty path opens an in-memory instance
func Open(path string) (*Store, error) {
	opts := badgerdb.DefaultOptions(path).WithLogger(logAdapter{})
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		common.Log.Warningf("failed to open badger store at %s; %s", path, err.Error())
		return nil, fmt.Errorf("failed to open badger store at %s; %s", path, err.Error())
	}

	common.Log.Debugf("opened badger store at %s", path)
	return &Store{db: db}, nil
}

// Get returns the value at key, or nil if absent
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s; %s", key, err.Error())
	}
	return val, nil
}

// Set writes val at key
func (s *Store) Set(ctx context.Context, key string, val []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), val)
	})
	if err != nil {
		return fmt.Errorf("failed to write %s; %s", key, err.Error())
	}
	return nil
}

// Delete removes key; deleting an absent key is not an error
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s; %s", key, err.Error())
	}
	return nil
}

// Keys lists every key with the given prefix
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %s; %s", prefix, err.Error())
	}
	return keys, nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// logAdapter routes badger's internal logging to the shared logger
type logAdapter struct{}

func (logAdapter) Errorf(format string, args ...interface{}) {
	common.Log.Warningf("badger: "+format, args...)
}

func (logAdapter) Warningf(format string, args ...interface{}) {
	common.Log.Warningf("badger: "+format, args...)
}

func (logAdapter) Infof(format string, args ...interface{}) {
	common.Log.Tracef("badger: "+format, args...)
}

func (logAdapter) Debugf(format string, args ...interface{}) {
	common.Log.Tracef("badger: "+format, args...)
}
