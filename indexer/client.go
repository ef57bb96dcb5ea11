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

package indexer

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

const defaultQueryTimeout = 30 * time.Second
const defaultPollInterval = time.Second
const defaultHandshakeTimeout = 10 * time.Second

const contractStateQuery = `query ContractState($address: HexEncoded!) {
  contractAction(address: $address) { state }
}`

const transactionQuery = `query Transaction($identifier: HexEncoded!) {
  transactions(offset: { identifier: $identifier }) { hash applyStage block { height } }
}`

const contractStateSubscription = `subscription ContractStates($address: HexEncoded!) {
  contractActions(address: $address) { state }
}`

// Client is the public data provider backed by the indexer's GraphQL query and subscription endpoints
type Client struct {
	queryURL        string
	subscriptionURL string

	httpClient   *http.Client
	dialer       *websocket.Dialer
	pollInterval time.Duration
}

// NewClient returns an indexer client for the given endpoints
func NewClient(queryURL, subscriptionURL string) *Client {
	return &Client{
		queryURL:        queryURL,
		subscriptionURL: subscriptionURL,
		httpClient:      &http.Client{Timeout: defaultQueryTimeout},
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTimeout,
			Subprotocols:     []string{graphQLTransportWSProtocol},
		},
		pollInterval: defaultPollInterval,
	}
}

// WithPollInterval sets how often WatchForTxData polls for finalization
func (c *Client) WithPollInterval(interval time.Duration) *Client {
	c.pollInterval = interval
	return c
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

func joinGraphQLErrors(errs []graphQLError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

type contractAction struct {
	State string `json:"state"`
}

func decodeContractAction(action *contractAction) (*state.ContractState, error) {
	raw, err := hex.DecodeString(action.State)
	if err != nil {
		return nil, fmt.Errorf("failed to decode contract state; %s", err.Error())
	}
	return state.DeserializeContractState(raw)
}

func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(&graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queryURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		common.Log.Warningf("failed to query indexer at %s; %s", c.queryURL, err.Error())
		return fmt.Errorf("failed to query indexer; %s", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to query indexer; received status %d", resp.StatusCode)
	}

	var gqlResp graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&gqlResp); err != nil {
		return fmt.Errorf("failed to decode indexer response; %s", err.Error())
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("indexer query failed; %s", joinGraphQLErrors(gqlResp.Errors))
	}
	return json.Unmarshal(gqlResp.Data, out)
}

// QueryContractState returns the current state at address, or nil if none
func (c *Client) QueryContractState(ctx context.Context, address state.ContractAddress) (*state.ContractState, error) {
	var data struct {
		ContractAction *contractAction `json:"contractAction"`
	}
	if err := c.query(ctx, contractStateQuery, map[string]interface{}{"address": address.String()}, &data); err != nil {
		return nil, err
	}
	if data.ContractAction == nil {
		common.Log.Debugf("no contract state found at %s", address)
		return nil, nil
	}
	return decodeContractAction(data.ContractAction)
}

// WatchForTxData polls until the transaction appears in a block
func (c *Client) WatchForTxData(ctx context.Context, txID state.TransactionID) (*state.FinalizedTxData, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var data struct {
			Transactions []struct {
				Hash       string `json:"hash"`
				ApplyStage string `json:"applyStage"`
				Block      struct {
					Height uint64 `json:"height"`
				} `json:"block"`
			} `json:"transactions"`
		}

		err := c.query(ctx, transactionQuery, map[string]interface{}{"identifier": string(txID)}, &data)
		if err != nil {
			return nil, err
		}
		if len(data.Transactions) > 0 {
			tx := data.Transactions[0]
			common.Log.Debugf("transaction %s finalized at height %d; %s", txID, tx.Block.Height, tx.ApplyStage)
			return &state.FinalizedTxData{
				TxID:        txID,
				TxHash:      tx.Hash,
				BlockHeight: tx.Block.Height,
				Status:      state.TxStatus(tx.ApplyStage),
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to watch for transaction %s; %s", txID, ctx.Err().Error())
		case <-ticker.C:
		}
	}
}

// ContractStateObservable subscribes to state changes at address; with ObserveLatest the current
// state is delivered first and older states are skipped
func (c *Client) ContractStateObservable(ctx context.Context, address state.ContractAddress, cfg state.ObserveConfig) (state.ContractStateSubscription, error) {
	var current *state.ContractState
	if cfg.Type == state.ObserveLatest {
		var err error
		current, err = c.QueryContractState(ctx, address)
		if err != nil {
			return nil, err
		}
	}

	sub, err := c.subscribe(ctx, contractStateSubscription, map[string]interface{}{"address": address.String()})
	if err != nil {
		return nil, err
	}

	go sub.readLoop(current)
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}
