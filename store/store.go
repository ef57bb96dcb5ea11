/*
 * Copyright 2017-2022 Provide Technologies Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/env"
	storage "github.com/provideplatform/counter/store/providers"
)

// Store describes which backend holds a private-state namespace
type Store struct {
	Name     *string `json:"name"`
	Provider *string `json:"provider"`
	Path     *string `json:"path"`
	RedisURL *string `json:"redis_url"`
}

// FromEnvironment builds a store description for the given namespace from PRIVATE_STATE_PROVIDER,
// PRIVATE_STATE_PATH and REDIS_URL
func FromEnvironment(name string) *Store {
	return &Store{
		Name:     common.StringOrNil(name),
		Provider: common.StringOrNil(os.Getenv("PRIVATE_STATE_PROVIDER")),
		Path:     common.StringOrNil(os.Getenv("PRIVATE_STATE_PATH")),
		RedisURL: common.StringOrNil(os.Getenv("REDIS_URL")),
	}
}

// Open initializes the backend and returns the namespaced private-state store
func (s *Store) Open(e env.Environment) (*PrivateStateStore, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	provider, err := s.storeProviderFactory(e)
	if err != nil {
		return nil, err
	}

	common.Log.Debugf("initialized %s private state store: %s", s.provider(e), *s.Name)
	return NewPrivateStateStore(*s.Name, provider), nil
}

// provider resolves the backend name; the durable backend is the default on servers
func (s *Store) provider(e env.Environment) string {
	if s.Provider != nil {
		return *s.Provider
	}
	if e.IsServer() {
		return storage.StoreProviderBadger
	}
	return storage.StoreProviderMemory
}

func (s *Store) storeProviderFactory(e env.Environment) (storage.StoreProvider, error) {
	switch s.provider(e) {
	case storage.StoreProviderBadger:
		if !e.IsServer() {
			return nil, fmt.Errorf("failed to initialize %s store provider; %s", storage.StoreProviderBadger, env.ErrUnsupported.Error())
		}
		return storage.InitBadgerStoreProvider(s.path(e))
	case storage.StoreProviderMemory:
		return storage.InitMemoryStoreProvider(), nil
	case storage.StoreProviderRedis:
		if s.RedisURL == nil {
			return nil, fmt.Errorf("failed to initialize %s store provider; no redis url configured", storage.StoreProviderRedis)
		}
		return storage.InitRedisStoreProvider(*s.RedisURL)
	default:
		common.Log.Warningf("failed to initialize store provider; unknown provider: %s", *s.Provider)
	}

	return nil, fmt.Errorf("failed to initialize store provider; unknown provider: %s", s.provider(e))
}

// path returns the badger directory; defaults to ~/.counter/<name>
func (s *Store) path(e env.Environment) string {
	if s.Path != nil {
		return *s.Path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return e.Path().Join(home, ".counter", filepath.Base(*s.Name))
}

// validate the store params
func (s *Store) validate() error {
	if s.Name == nil {
		return fmt.Errorf("store name required")
	}
	return nil
}
