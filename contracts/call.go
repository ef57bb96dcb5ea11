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
	"context"
	"fmt"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/state"
)

// FinalizedCallTxData describes a finalized circuit call
type FinalizedCallTxData struct {
	state.FinalizedTxData
	Circuit          string
	NextPrivateState *state.PrivateState
}

// Providers returns the bundle the handle was created with
func (c *DeployedContract) Providers() *providers.Providers {
	return c.providers
}

// CallTx runs circuit locally, then proves, balances, submits and waits for the call transaction;
// the resulting private state is stored once the transaction is finalized
func (c *DeployedContract) CallTx(ctx context.Context, circuit string) (*FinalizedCallTxData, error) {
	p := c.providers

	cs, err := p.PublicData().QueryContractState(ctx, c.Address)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		return nil, fmt.Errorf("%w at %s", ErrContractNotFound, c.Address)
	}

	ps, err := p.PrivateState().Get(ctx, c.PrivateStateID)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		return nil, fmt.Errorf("failed to call %s on %s; no private state found for %s", circuit, c.Address, c.PrivateStateID)
	}

	result, err := c.Contract.Call(circuit, cs.Data, ps.Clone())
	if err != nil {
		return nil, err
	}

	zkConfig, err := p.ZKConfig().Get(ctx, circuit)
	if err != nil {
		return nil, fmt.Errorf("%w for circuit %s; %w", ErrArtifactsUnavailable, circuit, err)
	}

	nonce, err := common.RandomBytes(nonceLength)
	if err != nil {
		return nil, err
	}

	tx := &state.UnprovenTransaction{Transaction: state.Transaction{
		Kind:            state.TxKindCall,
		ContractAddress: c.Address,
		Circuit:         circuit,
		Transcript:      result.Transcript,
		CoinPublicKey:   p.Wallet().CoinPublicKey(),
		Nonce:           nonce,
	}}

	finalized, err := submitTx(ctx, p, tx, zkConfig)
	if err != nil {
		return nil, err
	}

	if err := p.PrivateState().Set(ctx, c.PrivateStateID, result.PrivateState); err != nil {
		return nil, fmt.Errorf("failed to store private state after %s; %s", circuit, err.Error())
	}

	return &FinalizedCallTxData{
		FinalizedTxData:  *finalized,
		Circuit:          circuit,
		NextPrivateState: result.PrivateState,
	}, nil
}

func submitTx(ctx context.Context, p *providers.Providers, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.FinalizedTxData, error) {
	proven, err := p.Proof().ProveTx(ctx, tx, zkConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to prove %s transaction; %s", tx.Kind, err.Error())
	}

	balanced, err := p.Wallet().BalanceTx(ctx, proven)
	if err != nil {
		return nil, fmt.Errorf("failed to balance %s transaction; %s", tx.Kind, err.Error())
	}

	txID, err := p.Midnight().SubmitTx(ctx, balanced)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s transaction; %s", tx.Kind, err.Error())
	}

	finalized, err := p.PublicData().WatchForTxData(ctx, txID)
	if err != nil {
		return nil, err
	}
	if finalized.Status != state.TxStatusSucceedEntirely {
		return nil, fmt.Errorf("%s transaction %s failed with status %s", tx.Kind, txID, finalized.Status)
	}

	common.Log.Debugf("%s transaction %s finalized at block height %d", tx.Kind, txID, finalized.BlockHeight)
	return finalized, nil
}
