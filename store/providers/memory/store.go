package memory

import (
	"context"
	"encoding/base64"
	"sort"
	"strings"
	"sync"

	"github.com/provideplatform/counter/common"
)

// LocalStorage is the string-valued persistent storage offered by a browser; any call may fail,
// for example in private browsing
type LocalStorage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Keys() ([]string, error)
}

// Store is an ephemeral key-value store optionally mirrored to LocalStorage; mirror failures
// are logged and the in-memory copy is used instead
type Store struct {
	items map[string][]byte
	local LocalStorage
	mutex sync.RWMutex
}

// NewStore initializes a memory store; local may be nil
func NewStore(local LocalStorage) *Store {
	return &Store{
		items: map[string][]byte{},
		local: local,
	}
}

// Get returns the value at key, or nil if absent
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mutex.RLock()
	val, ok := s.items[key]
	s.mutex.RUnlock()
	if ok {
		return append([]byte(nil), val...), nil
	}

	if s.local == nil {
		return nil, nil
	}

	encoded, found, err := s.local.GetItem(key)
	if err != nil {
		common.Log.Warningf("failed to read %s from local storage; falling back to memory; %s", key, err.Error())
		return nil, nil
	}
	if !found {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		common.Log.Warningf("failed to decode %s from local storage; %s", key, err.Error())
		return nil, nil
	}

	s.mutex.Lock()
	s.items[key] = decoded
	s.mutex.Unlock()

	return append([]byte(nil), decoded...), nil
}

// Set writes val at key
func (s *Store) Set(ctx context.Context, key string, val []byte) error {
	s.mutex.Lock()
	s.items[key] = append([]byte(nil), val...)
	s.mutex.Unlock()

	if s.local != nil {
		if err := s.local.SetItem(key, base64.StdEncoding.EncodeToString(val)); err != nil {
			common.Log.Warningf("failed to write %s to local storage; kept in memory; %s", key, err.Error())
		}
	}
	return nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	delete(s.items, key)
	s.mutex.Unlock()

	if s.local != nil {
		if err := s.local.RemoveItem(key); err != nil {
			common.Log.Warningf("failed to remove %s from local storage; %s", key, err.Error())
		}
	}
	return nil
}

// Keys lists every key with the given prefix
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	seen := map[string]struct{}{}

	s.mutex.RLock()
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			seen[k] = struct{}{}
		}
	}
	s.mutex.RUnlock()

	if s.local != nil {
		localKeys, err := s.local.Keys()
		if err != nil {
			common.Log.Warningf("failed to list local storage keys; %s", err.Error())
		}
		for _, k := range localKeys {
			if strings.HasPrefix(k, prefix) {
				seen[k] = struct{}{}
			}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
