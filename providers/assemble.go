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
	"context"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/env"
	"github.com/provideplatform/counter/indexer"
	"github.com/provideplatform/counter/store"
	"github.com/provideplatform/counter/wallet"
)

// Params are the inputs to Assemble; Store and PublicData are optional overrides
// and Operation defaults to OperationDeployment
type Params struct {
	Operation string

	Env      env.Environment
	Config   *config.Config
	Wallet   wallet.Wallet
	ZKConfig ZKConfigProvider
	Proof    ProofProvider

	Store      *store.Store
	PublicData PublicDataProvider
}

// Assemble builds and validates the provider bundle for a resolved configuration
func Assemble(ctx context.Context, params Params) (*Providers, error) {
	operation := params.Operation
	if operation == "" {
		operation = OperationDeployment
	}
	if params.Config == nil {
		return nil, common.NewError(common.ErrorKindConfiguration, operation, "", "configuration is required", nil)
	}
	e := params.Env
	if e == nil {
		e = env.Detect()
	}

	set := Set{
		ZKConfig:   params.ZKConfig,
		Proof:      params.Proof,
		PublicData: params.PublicData,
	}

	if params.Wallet != nil {
		w, err := wallet.NewProviders(ctx, params.Wallet, params.Config.NetworkID)
		if err != nil {
			return nil, common.NewError(common.ErrorKindConnectivity, operation, "", "failed to derive wallet providers", err)
		}
		set.Wallet = w
		set.Midnight = w
	}

	s := params.Store
	if s == nil {
		s = store.FromEnvironment(params.Config.PrivateStateStoreName)
	}
	privateState, err := s.Open(e)
	if err != nil {
		return nil, common.NewError(common.ErrorKindConfiguration, operation, "", "failed to open private state store", err)
	}
	set.PrivateState = privateState

	if set.PublicData == nil {
		set.PublicData = indexer.NewClient(params.Config.Indexer, params.Config.IndexerWS)
	}

	p := New(set)
	if err := Validate(p, operation); err != nil {
		privateState.Close()
		return nil, err
	}

	common.Log.Debugf("assembled %s providers for %s network", operation, params.Config.NetworkID)
	return p, nil
}
