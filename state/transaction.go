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

package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// TxKind distinguishes deployments from circuit calls
type TxKind string

// TxKindDeploy creates a contract
const TxKindDeploy TxKind = "deploy"

// TxKindCall invokes a circuit on a deployed contract
const TxKindCall TxKind = "call"

// TxStatus is the finalization outcome reported by the indexer
type TxStatus string

// TxStatusSucceedEntirely means every segment of the transaction applied
const TxStatusSucceedEntirely TxStatus = "SucceedEntirely"

// TxStatusFailFallible means the guaranteed segment applied but the fallible segment failed
const TxStatusFailFallible TxStatus = "FailFallible"

// TxStatusFailEntirely means nothing applied
const TxStatusFailEntirely TxStatus = "FailEntirely"

// TransactionID identifies a submitted transaction
type TransactionID string

// Transaction is the network-neutral body shared by every stage of a transaction's life
type Transaction struct {
	Kind            TxKind          `cbor:"kind"`
	ContractAddress ContractAddress `cbor:"contract_address"`
	Circuit         string          `cbor:"circuit,omitempty"`
	State           *ContractState  `cbor:"state,omitempty"`
	Transcript      []byte          `cbor:"transcript,omitempty"`
	Proof           []byte          `cbor:"proof,omitempty"`
	CoinPublicKey   string          `cbor:"coin_public_key,omitempty"`
	Fee             uint64          `cbor:"fee,omitempty"`
	Nonce           []byte          `cbor:"nonce"`
}

// UnprovenTransaction is a transaction awaiting a proof
type UnprovenTransaction struct {
	Transaction
}

// UnbalancedTransaction is a proven transaction awaiting wallet balancing
type UnbalancedTransaction struct {
	Transaction
}

// BalancedTransaction is a proven and balanced transaction ready for submission
type BalancedTransaction struct {
	Transaction
}

// FinalizedTxData describes a transaction after the network has applied it
type FinalizedTxData struct {
	TxID        TransactionID `json:"tx_id"`
	TxHash      string        `json:"tx_hash"`
	BlockHeight uint64        `json:"block_height"`
	Status      TxStatus      `json:"status"`
}

type envelope struct {
	NetworkID string `cbor:"network_id"`
	Body      []byte `cbor:"body"`
}

// Serialize encodes the transaction for the given network
func (t *Transaction) Serialize(networkID string) ([]byte, error) {
	body, err := cbor.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s transaction; %s", t.Kind, err.Error())
	}
	return cbor.Marshal(&envelope{NetworkID: networkID, Body: body})
}

// DeserializeTransaction decodes a transaction serialized for the given network
func DeserializeTransaction(raw []byte, networkID string) (*Transaction, error) {
	var env envelope
	if err := cbor.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction; %s", err.Error())
	}
	if env.NetworkID != networkID {
		return nil, fmt.Errorf("failed to deserialize transaction; network id mismatch: %s != %s", env.NetworkID, networkID)
	}

	var t Transaction
	if err := cbor.Unmarshal(env.Body, &t); err != nil {
		return nil, fmt.Errorf("failed to deserialize transaction body; %s", err.Error())
	}
	return &t, nil
}

// Hash returns the hex-encoded sha256 digest of the transaction body
func (t *Transaction) Hash() (string, error) {
	body, err := cbor.Marshal(t)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(body)
	return hex.EncodeToString(digest[:]), nil
}
