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
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// ContractAddressLength is the byte length of a contract address
const ContractAddressLength = 32

// ErrInvalidContractAddress is returned when a string is not a well-formed contract address
var ErrInvalidContractAddress = errors.New("invalid contract address")

// ContractAddress is the lowercase hex identifier of a deployed contract
type ContractAddress string

// ParseContractAddress validates and normalizes the given hex address; a 0x prefix is accepted
func ParseContractAddress(addr string) (ContractAddress, error) {
	s := strings.ToLower(strings.TrimSpace(addr))
	s = strings.TrimPrefix(s, "0x")
	if len(s) != ContractAddressLength*2 {
		return "", fmt.Errorf("%w: %q; expected %d hex characters", ErrInvalidContractAddress, addr, ContractAddressLength*2)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %q; %s", ErrInvalidContractAddress, addr, err.Error())
	}
	return ContractAddress(s), nil
}

// ContractAddressFromBytes hex-encodes the given raw address
func ContractAddressFromBytes(b []byte) (ContractAddress, error) {
	if len(b) != ContractAddressLength {
		return "", fmt.Errorf("%w: %d bytes; expected %d", ErrInvalidContractAddress, len(b), ContractAddressLength)
	}
	return ContractAddress(hex.EncodeToString(b)), nil
}

func (a ContractAddress) String() string {
	return string(a)
}

// StateData is the opaque encoded public ledger of a contract
type StateData []byte

// VerifierKey is the verification key of a single circuit
type VerifierKey []byte

// ContractState is the public on-chain state of a contract
type ContractState struct {
	Data        StateData              `cbor:"data" json:"data"`
	Operations  map[string]VerifierKey `cbor:"operations" json:"operations"`
	BlockHeight uint64                 `cbor:"block_height" json:"block_height"`
}

// Serialize encodes the contract state for transport
func (s *ContractState) Serialize() ([]byte, error) {
	return cbor.Marshal(s)
}

// DeserializeContractState decodes a contract state previously produced by Serialize
func DeserializeContractState(raw []byte) (*ContractState, error) {
	var s ContractState
	if err := cbor.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to deserialize contract state; %s", err.Error())
	}
	return &s, nil
}

// Clone returns a deep copy of the contract state
func (s *ContractState) Clone() *ContractState {
	if s == nil {
		return nil
	}
	c := &ContractState{
		Data:        append(StateData(nil), s.Data...),
		BlockHeight: s.BlockHeight,
	}
	if s.Operations != nil {
		c.Operations = make(map[string]VerifierKey, len(s.Operations))
		for k, v := range s.Operations {
			c.Operations[k] = append(VerifierKey(nil), v...)
		}
	}
	return c
}

// ObserveType selects which contract states a subscription delivers
type ObserveType string

// ObserveAll replays every state from deployment onward
const ObserveAll ObserveType = "all"

// ObserveLatest starts from the current state
const ObserveLatest ObserveType = "latest"

// ObserveConfig parameterizes a contract state subscription
type ObserveConfig struct {
	Type ObserveType
}

// ContractStateSubscription delivers contract state changes until closed; a terminal error,
// if any, is sent on Err before Updates is closed
type ContractStateSubscription interface {
	Updates() <-chan *ContractState
	Err() <-chan error
	Close()
}
