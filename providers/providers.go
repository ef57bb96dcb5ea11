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

package providers

import (
	"fmt"

	"github.com/provideplatform/counter/common"
)

// OperationDeployment names the deploy operation in validation errors
const OperationDeployment = "deployment"

// OperationConnection names the connect operation in validation errors
const OperationConnection = "connection"

// Set lists the capabilities a bundle is built from
type Set struct {
	PublicData   PublicDataProvider
	PrivateState PrivateStateProvider
	Wallet       WalletProvider
	Proof        ProofProvider
	ZKConfig     ZKConfigProvider
	Midnight     MidnightProvider
}

// Providers is the immutable bundle of capabilities handed to every contract operation
type Providers struct {
	set Set
}

// New returns a bundle over the given capabilities; it is not validated
func New(set Set) *Providers {
	return &Providers{set: set}
}

// PublicData returns the public data provider
func (p *Providers) PublicData() PublicDataProvider {
	return p.set.PublicData
}

// PrivateState returns the private state provider
func (p *Providers) PrivateState() PrivateStateProvider {
	return p.set.PrivateState
}

// Wallet returns the wallet provider
func (p *Providers) Wallet() WalletProvider {
	return p.set.Wallet
}

// Proof returns the proof provider
func (p *Providers) Proof() ProofProvider {
	return p.set.Proof
}

// ZKConfig returns the zk config provider
func (p *Providers) ZKConfig() ZKConfigProvider {
	return p.set.ZKConfig
}

// Midnight returns the transaction submission provider
func (p *Providers) Midnight() MidnightProvider {
	return p.set.Midnight
}

// With returns a copy of the bundle with the given capabilities replaced; nil fields are kept
func (p *Providers) With(set Set) *Providers {
	next := p.set
	if set.PublicData != nil {
		next.PublicData = set.PublicData
	}
	if set.PrivateState != nil {
		next.PrivateState = set.PrivateState
	}
	if set.Wallet != nil {
		next.Wallet = set.Wallet
	}
	if set.Proof != nil {
		next.Proof = set.Proof
	}
	if set.ZKConfig != nil {
		next.ZKConfig = set.ZKConfig
	}
	if set.Midnight != nil {
		next.Midnight = set.Midnight
	}
	return New(next)
}

// MissingProviderError names the capability absent from a bundle
type MissingProviderError struct {
	Provider  string
	Operation string
}

func (e *MissingProviderError) Error() string {
	return fmt.Sprintf("%s is required for %s", e.Provider, e.Operation)
}

// Validate checks every capability in a fixed order and reports the first one missing
func Validate(p *Providers, operation string) error {
	var missing string

	switch {
	case p == nil:
		missing = "Providers"
	case p.set.PublicData == nil:
		missing = "PublicDataProvider"
	case p.set.PrivateState == nil:
		missing = "PrivateStateProvider"
	case p.set.Wallet == nil:
		missing = "WalletProvider"
	case p.set.ZKConfig == nil:
		missing = "ZKConfigProvider"
	case p.set.Proof == nil:
		missing = "ProofProvider"
	case p.set.Midnight == nil:
		missing = "MidnightProvider"
	default:
		return nil
	}

	err := &MissingProviderError{Provider: missing, Operation: operation}
	common.Log.Warningf("failed to validate providers; %s", err.Error())
	return common.NewError(common.ErrorKindConfiguration, operation, "", err.Error(), err)
}
