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
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
	storage "github.com/provideplatform/counter/store/providers"
)

const signingKeyNamespace = "signingKey"

// ErrReservedKey is returned for private state keys inside the signing key namespace
var ErrReservedKey = errors.New("private state keys may not start with " + signingKeyNamespace + ":")

// ':' and '\' in a store name are escaped so one store's prefix never covers another store
var nameEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// PrivateStateStore namespaces private states and contract signing keys under a store name.
// Private states live at "{name}:{key}" and signing keys at "{name}:signingKey:{key}";
// the two namespaces are cleared independently.
type PrivateStateStore struct {
	name     string
	provider storage.StoreProvider
}

// NewPrivateStateStore wraps the given backend
func NewPrivateStateStore(name string, provider storage.StoreProvider) *PrivateStateStore {
	return &PrivateStateStore{
		name:     name,
		provider: provider,
	}
}

func checkStateKey(key string) error {
	if strings.HasPrefix(key, signingKeyNamespace+":") {
		return fmt.Errorf("invalid private state key %s; %w", key, ErrReservedKey)
	}
	return nil
}

// Name returns the store namespace
func (s *PrivateStateStore) Name() string {
	return s.name
}

func (s *PrivateStateStore) stateKey(key string) string {
	return fmt.Sprintf("%s:%s", nameEscaper.Replace(s.name), key)
}

func (s *PrivateStateStore) signingKeyKey(key string) string {
	return fmt.Sprintf("%s:%s:%s", nameEscaper.Replace(s.name), signingKeyNamespace, key)
}

// Get returns the private state stored at key, or nil if there is none
func (s *PrivateStateStore) Get(ctx context.Context, key string) (*state.PrivateState, error) {
	if err := checkStateKey(key); err != nil {
		return nil, err
	}
	common.Log.Tracef("getting private state %s", s.stateKey(key))

	raw, err := s.provider.Get(ctx, s.stateKey(key))
	if err != nil {
		common.Log.Warningf("failed to get private state %s; %s", s.stateKey(key), err.Error())
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return state.UnmarshalPrivateState(raw)
}

// Set overwrites the private state stored at key
func (s *PrivateStateStore) Set(ctx context.Context, key string, ps *state.PrivateState) error {
	if err := checkStateKey(key); err != nil {
		return err
	}
	if ps == nil {
		return fmt.Errorf("failed to set private state %s; nil state", s.stateKey(key))
	}
	common.Log.Tracef("setting private state %s", s.stateKey(key))

	raw, err := state.MarshalPrivateState(ps)
	if err != nil {
		return fmt.Errorf("failed to encode private state %s; %s", s.stateKey(key), err.Error())
	}
	return s.provider.Set(ctx, s.stateKey(key), raw)
}

// Remove deletes the private state stored at key
func (s *PrivateStateStore) Remove(ctx context.Context, key string) error {
	if err := checkStateKey(key); err != nil {
		return err
	}
	common.Log.Tracef("removing private state %s", s.stateKey(key))
	return s.provider.Delete(ctx, s.stateKey(key))
}

// Clear deletes every private state in the namespace; signing keys are kept
func (s *PrivateStateStore) Clear(ctx context.Context) error {
	common.Log.Tracef("clearing private states in %s", s.name)

	keys, err := s.provider.Keys(ctx, s.stateKey(""))
	if err != nil {
		return err
	}

	signingKeyPrefix := s.signingKeyKey("")
	for _, k := range keys {
		if strings.HasPrefix(k, signingKeyPrefix) {
			continue
		}
		if err := s.provider.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// SetSigningKey stores the signing key for the given contract address
func (s *PrivateStateStore) SetSigningKey(ctx context.Context, address state.ContractAddress, key state.SigningKey) error {
	common.Log.Tracef("setting signing key %s", s.signingKeyKey(address.String()))
	return s.provider.Set(ctx, s.signingKeyKey(address.String()), key)
}

// GetSigningKey returns the signing key for the given contract address, or nil if there is none
func (s *PrivateStateStore) GetSigningKey(ctx context.Context, address state.ContractAddress) (state.SigningKey, error) {
	common.Log.Tracef("getting signing key %s", s.signingKeyKey(address.String()))

	raw, err := s.provider.Get(ctx, s.signingKeyKey(address.String()))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return state.SigningKey(raw), nil
}

// RemoveSigningKey deletes the signing key for the given contract address
func (s *PrivateStateStore) RemoveSigningKey(ctx context.Context, address state.ContractAddress) error {
	common.Log.Tracef("removing signing key %s", s.signingKeyKey(address.String()))
	return s.provider.Delete(ctx, s.signingKeyKey(address.String()))
}

// ClearSigningKeys deletes every signing key in the namespace
func (s *PrivateStateStore) ClearSigningKeys(ctx context.Context) error {
	common.Log.Tracef("clearing signing keys in %s", s.name)

	keys, err := s.provider.Keys(ctx, s.signingKeyKey(""))
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.provider.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the backend
func (s *PrivateStateStore) Close() error {
	return s.provider.Close()
}
