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

package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

// GenesisMintWalletSeed is the seed of the pre-funded wallet on a standalone network
const GenesisMintWalletSeed = "0000000000000000000000000000000000000000000000000000000000000001"

// State is a snapshot of a wallet's keys and funds
type State struct {
	Address             string `json:"address"`
	CoinPublicKey       string `json:"coin_public_key"`
	EncryptionPublicKey string `json:"encryption_public_key"`
	Balance             uint64 `json:"balance"`
	Synced              bool   `json:"synced"`
}

// Wallet is a running wallet; transactions cross this boundary in their serialized form
type Wallet interface {
	State(ctx context.Context) (*State, error)
	BalanceTransaction(ctx context.Context, tx []byte) ([]byte, error)
	ProveTransaction(ctx context.Context, tx []byte) ([]byte, error)
	SubmitTransaction(ctx context.Context, tx []byte) (state.TransactionID, error)
}

// RandomSeed returns a fresh hex-encoded wallet seed
func RandomSeed() (string, error) {
	b, err := common.RandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WaitForFunds polls the wallet until it is synced and holds a non-zero balance
func WaitForFunds(ctx context.Context, w Wallet, interval time.Duration) (*State, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s, err := w.State(ctx)
		if err != nil {
			common.Log.Warningf("failed to read wallet state while waiting for funds; %s", err.Error())
		} else if s.Synced && s.Balance > 0 {
			common.Log.Debugf("wallet %s funded; balance: %d", s.Address, s.Balance)
			return s, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to wait for wallet funds; %s", ctx.Err().Error())
		case <-ticker.C:
		}
	}
}

// Providers derives the wallet and transaction submission capabilities from a wallet handle
type Providers struct {
	wallet    Wallet
	networkID string

	coinPublicKey       string
	encryptionPublicKey string
}

// NewProviders reads the wallet's keys once and binds them to the given network id
func NewProviders(ctx context.Context, w Wallet, networkID string) (*Providers, error) {
	s, err := w.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet state; %s", err.Error())
	}

	return &Providers{
		wallet:              w,
		networkID:           networkID,
		coinPublicKey:       s.CoinPublicKey,
		encryptionPublicKey: s.EncryptionPublicKey,
	}, nil
}

// CoinPublicKey returns the wallet's coin public key
func (p *Providers) CoinPublicKey() string {
	return p.coinPublicKey
}

// EncryptionPublicKey returns the wallet's encryption public key
func (p *Providers) EncryptionPublicKey() string {
	return p.encryptionPublicKey
}

// BalanceTx has the wallet balance and prove the transaction's fees
func (p *Providers) BalanceTx(ctx context.Context, tx *state.UnbalancedTransaction) (*state.BalancedTransaction, error) {
	raw, err := tx.Serialize(p.networkID)
	if err != nil {
		return nil, err
	}

	balanced, err := p.wallet.BalanceTransaction(ctx, raw)
	if err != nil {
		common.Log.Warningf("failed to balance %s transaction; %s", tx.Kind, err.Error())
		return nil, fmt.Errorf("failed to balance transaction; %s", err.Error())
	}

	proven, err := p.wallet.ProveTransaction(ctx, balanced)
	if err != nil {
		common.Log.Warningf("failed to prove balanced %s transaction; %s", tx.Kind, err.Error())
		return nil, fmt.Errorf("failed to prove balanced transaction; %s", err.Error())
	}

	t, err := state.DeserializeTransaction(proven, p.networkID)
	if err != nil {
		return nil, err
	}
	return &state.BalancedTransaction{Transaction: *t}, nil
}

// SubmitTx submits the balanced transaction through the wallet
func (p *Providers) SubmitTx(ctx context.Context, tx *state.BalancedTransaction) (state.TransactionID, error) {
	raw, err := tx.Serialize(p.networkID)
	if err != nil {
		return "", err
	}

	txID, err := p.wallet.SubmitTransaction(ctx, raw)
	if err != nil {
		common.Log.Warningf("failed to submit %s transaction; %s", tx.Kind, err.Error())
		return "", fmt.Errorf("failed to submit transaction; %s", err.Error())
	}

	common.Log.Debugf("submitted %s transaction %s", tx.Kind, txID)
	return txID, nil
}
