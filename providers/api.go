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

	"github.com/provideplatform/counter/state"
)

// PublicDataProvider reads public contract state and transaction outcomes from the indexer
type PublicDataProvider interface {
	// QueryContractState returns the current state at address, or nil if no contract is deployed there
	QueryContractState(ctx context.Context, address state.ContractAddress) (*state.ContractState, error)
	ContractStateObservable(ctx context.Context, address state.ContractAddress, cfg state.ObserveConfig) (state.ContractStateSubscription, error)
	// WatchForTxData blocks until the transaction is finalized
	WatchForTxData(ctx context.Context, txID state.TransactionID) (*state.FinalizedTxData, error)
}

// PrivateStateProvider persists private states and contract signing keys; getters return nil when absent
type PrivateStateProvider interface {
	Get(ctx context.Context, key string) (*state.PrivateState, error)
	Set(ctx context.Context, key string, ps *state.PrivateState) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	SetSigningKey(ctx context.Context, address state.ContractAddress, key state.SigningKey) error
	GetSigningKey(ctx context.Context, address state.ContractAddress) (state.SigningKey, error)
	RemoveSigningKey(ctx context.Context, address state.ContractAddress) error
	ClearSigningKeys(ctx context.Context) error
}

// WalletProvider balances proven transactions with the user's funds
type WalletProvider interface {
	CoinPublicKey() string
	EncryptionPublicKey() string
	BalanceTx(ctx context.Context, tx *state.UnbalancedTransaction) (*state.BalancedTransaction, error)
}

// ProofProvider generates the zero-knowledge proof for a transaction
type ProofProvider interface {
	ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.UnbalancedTransaction, error)
}

// ZKConfigProvider supplies circuit artifacts
type ZKConfigProvider interface {
	Get(ctx context.Context, circuitID string) (*state.ZKConfig, error)
	GetProverKey(ctx context.Context, circuitID string) ([]byte, error)
	GetVerifierKey(ctx context.Context, circuitID string) (state.VerifierKey, error)
	GetVerifierKeys(ctx context.Context, circuitIDs []string) (map[string]state.VerifierKey, error)
	GetZKIR(ctx context.Context, circuitID string) ([]byte, error)
}

// MidnightProvider submits balanced transactions to the network
type MidnightProvider interface {
	SubmitTx(ctx context.Context, tx *state.BalancedTransaction) (state.TransactionID, error)
}
