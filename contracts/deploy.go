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

package contracts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/state"
)

const nonceLength = 32

// DeployOptions configure DeployContract
type DeployOptions struct {
	Contract            Contract
	PrivateStateID      string
	InitialPrivateState *state.PrivateState
}

// FindOptions configure FindDeployedContract
type FindOptions struct {
	Contract            Contract
	ContractAddress     state.ContractAddress
	PrivateStateID      string
	InitialPrivateState *state.PrivateState
}

// FinalizedDeployTxData describes a finalized deployment
type FinalizedDeployTxData struct {
	state.FinalizedTxData
	ContractAddress     state.ContractAddress
	InitialState        *state.ContractState
	InitialPrivateState *state.PrivateState
}

// DeployedContract is a handle on a contract deployed at a known address
type DeployedContract struct {
	Contract       Contract
	Address        state.ContractAddress
	PrivateStateID string

	// DeployTxData is only set on handles returned by DeployContract
	DeployTxData *FinalizedDeployTxData
	// InitialState is the public state observed when the handle was created
	InitialState *state.ContractState

	providers *providers.Providers
}

func deriveContractAddress(coinPublicKey string, nonce []byte) (state.ContractAddress, error) {
	digest := sha256.New()
	digest.Write([]byte(coinPublicKey))
	digest.Write(nonce)
	return state.ContractAddressFromBytes(digest.Sum(nil))
}

// DeployContract deploys a new contract instance and records its private state and signing key
func DeployContract(ctx context.Context, p *providers.Providers, opts DeployOptions) (*DeployedContract, error) {
	if opts.Contract == nil {
		return nil, fmt.Errorf("failed to deploy contract; no contract given")
	}
	ps := opts.InitialPrivateState
	if ps == nil {
		ps = state.NewPrivateState()
	}

	verifierKeys, err := p.ZKConfig().GetVerifierKeys(ctx, opts.Contract.Circuits())
	if err != nil {
		return nil, fmt.Errorf("%w for %s; %w", ErrArtifactsUnavailable, opts.Contract.Name(), err)
	}

	data, err := opts.Contract.InitialState(ps.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to compute initial state for %s; %s", opts.Contract.Name(), err.Error())
	}

	signingKey, err := state.NewSigningKey()
	if err != nil {
		return nil, err
	}

	nonce, err := common.RandomBytes(nonceLength)
	if err != nil {
		return nil, err
	}
	coinPublicKey := p.Wallet().CoinPublicKey()
	address, err := deriveContractAddress(coinPublicKey, nonce)
	if err != nil {
		return nil, err
	}

	initial := &state.ContractState{Data: data, Operations: verifierKeys}
	tx := &state.UnprovenTransaction{Transaction: state.Transaction{
		Kind:            state.TxKindDeploy,
		ContractAddress: address,
		State:           initial,
		CoinPublicKey:   coinPublicKey,
		Nonce:           nonce,
	}}

	common.Log.Debugf("deploying %s contract at %s", opts.Contract.Name(), address)
	finalized, err := submitTx(ctx, p, tx, nil)
	if err != nil {
		return nil, err
	}

	if err := p.PrivateState().Set(ctx, opts.PrivateStateID, ps); err != nil {
		return nil, fmt.Errorf("failed to store private state for %s; %s", address, err.Error())
	}
	if err := p.PrivateState().SetSigningKey(ctx, address, signingKey); err != nil {
		return nil, fmt.Errorf("failed to store signing key for %s; %s", address, err.Error())
	}

	initial.BlockHeight = finalized.BlockHeight
	return &DeployedContract{
		Contract:       opts.Contract,
		Address:        address,
		PrivateStateID: opts.PrivateStateID,
		DeployTxData: &FinalizedDeployTxData{
			FinalizedTxData:     *finalized,
			ContractAddress:     address,
			InitialState:        initial,
			InitialPrivateState: ps,
		},
		InitialState: initial,
		providers:    p,
	}, nil
}

// FindDeployedContract joins an existing contract; an existing private state is left untouched
func FindDeployedContract(ctx context.Context, p *providers.Providers, opts FindOptions) (*DeployedContract, error) {
	if opts.Contract == nil {
		return nil, fmt.Errorf("failed to find contract; no contract given")
	}

	cs, err := p.PublicData().QueryContractState(ctx, opts.ContractAddress)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, fmt.Errorf("%w at %s", ErrContractNotFound, opts.ContractAddress)
	}

	if err := verifyVerifierKeys(ctx, p, opts.Contract, cs); err != nil {
		return nil, err
	}

	existing, err := p.PrivateState().Get(ctx, opts.PrivateStateID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		ps := opts.InitialPrivateState
		if ps == nil {
			ps = state.NewPrivateState()
		}
		if err := p.PrivateState().Set(ctx, opts.PrivateStateID, ps); err != nil {
			return nil, fmt.Errorf("failed to store private state for %s; %s", opts.ContractAddress, err.Error())
		}
	}

	signingKey, err := p.PrivateState().GetSigningKey(ctx, opts.ContractAddress)
	if err != nil {
		return nil, err
	}
	if signingKey == nil {
		signingKey, err = state.NewSigningKey()
		if err != nil {
			return nil, err
		}
		if err := p.PrivateState().SetSigningKey(ctx, opts.ContractAddress, signingKey); err != nil {
			return nil, fmt.Errorf("failed to store signing key for %s; %s", opts.ContractAddress, err.Error())
		}
	}

	common.Log.Debugf("found %s contract at %s; block height %d", opts.Contract.Name(), opts.ContractAddress, cs.BlockHeight)
	return &DeployedContract{
		Contract:       opts.Contract,
		Address:        opts.ContractAddress,
		PrivateStateID: opts.PrivateStateID,
		InitialState:   cs,
		providers:      p,
	}, nil
}

func verifyVerifierKeys(ctx context.Context, p *providers.Providers, contract Contract, cs *state.ContractState) error {
	local, err := p.ZKConfig().GetVerifierKeys(ctx, contract.Circuits())
	if err != nil {
		return fmt.Errorf("%w for %s; %w", ErrArtifactsUnavailable, contract.Name(), err)
	}

	for _, circuit := range contract.Circuits() {
		onchain, ok := cs.Operations[circuit]
		if !ok {
			return fmt.Errorf("%w; circuit %s is not deployed", ErrVerifierKeyMismatch, circuit)
		}
		if !bytes.Equal(onchain, local[circuit]) {
			return fmt.Errorf("%w; circuit %s differs from the deployed contract", ErrVerifierKeyMismatch, circuit)
		}
	}
	return nil
}
