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
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

const defaultRemoteWalletTimeout = 60 * time.Second

// RemoteWallet talks JSON-RPC 2.0 to a headless wallet service
type RemoteWallet struct {
	url    string
	client *http.Client
	nextID uint64
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type txParams struct {
	Tx string `json:"tx"`
}

// NewRemoteWallet returns a client for the wallet service at url
func NewRemoteWallet(url string) *RemoteWallet {
	return &RemoteWallet{
		url:    url,
		client: &http.Client{Timeout: defaultRemoteWalletTimeout},
	}
}

// Restore (re)builds the service's wallet from the given seed; an empty seed builds a fresh wallet
func (w *RemoteWallet) Restore(ctx context.Context, seed string) (*State, error) {
	var s State
	if err := w.call(ctx, "wallet_restore", map[string]string{"seed": seed}, &s); err != nil {
		return nil, err
	}
	common.Log.Debugf("restored wallet %s", s.Address)
	return &s, nil
}

// State returns the wallet's current state
func (w *RemoteWallet) State(ctx context.Context) (*State, error) {
	var s State
	if err := w.call(ctx, "wallet_state", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// BalanceTransaction adds inputs and outputs covering the transaction's fees
func (w *RemoteWallet) BalanceTransaction(ctx context.Context, tx []byte) ([]byte, error) {
	return w.callTx(ctx, "wallet_balanceTransaction", tx)
}

// ProveTransaction proves the wallet's balancing segment
func (w *RemoteWallet) ProveTransaction(ctx context.Context, tx []byte) ([]byte, error) {
	return w.callTx(ctx, "wallet_proveTransaction", tx)
}

// SubmitTransaction submits the transaction to the node
func (w *RemoteWallet) SubmitTransaction(ctx context.Context, tx []byte) (state.TransactionID, error) {
	var txID string
	if err := w.call(ctx, "wallet_submitTransaction", &txParams{Tx: hex.EncodeToString(tx)}, &txID); err != nil {
		return "", err
	}
	return state.TransactionID(txID), nil
}

func (w *RemoteWallet) callTx(ctx context.Context, method string, tx []byte) ([]byte, error) {
	var result txParams
	if err := w.call(ctx, method, &txParams{Tx: hex.EncodeToString(tx)}, &result); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(result.Tx)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result; %s", method, err.Error())
	}
	return raw, nil
}

func (w *RemoteWallet) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body, err := json.Marshal(&rpcRequest{
		JSONRPC: "2.0",
		ID:      atomic.AddUint64(&w.nextID, 1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request; %s", method, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request; %s", method, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		common.Log.Warningf("failed to invoke %s on wallet %s; %s", method, w.url, err.Error())
		return fmt.Errorf("failed to invoke %s; %s", method, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to invoke %s; wallet responded with status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode %s response; %s", method, err.Error())
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("failed to invoke %s; %s (code %d)", method, rpcResp.Error.Message, rpcResp.Error.Code)
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s result; %s", method, err.Error())
		}
	}
	return nil
}
