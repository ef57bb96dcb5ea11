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

package counter

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/provideplatform/counter/contracts"
	"github.com/provideplatform/counter/state"
)

// CircuitIncrement is the only circuit of the counter contract
const CircuitIncrement = "increment"

const contractName = "counter"

// LedgerState is the public ledger of the counter contract
type LedgerState struct {
	Round uint64 `cbor:"round" json:"round"`
}

type incrementTranscript struct {
	Op        string `cbor:"op"`
	Timestamp uint64 `cbor:"timestamp"`
}

// DecodeLedger decodes the public ledger from encoded contract state data
func DecodeLedger(data state.StateData) (*LedgerState, error) {
	var ledger LedgerState
	if err := cbor.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("failed to decode counter ledger; %s", err.Error())
	}
	return &ledger, nil
}

func encodeLedger(ledger *LedgerState) (state.StateData, error) {
	raw, err := cbor.Marshal(ledger)
	if err != nil {
		return nil, fmt.Errorf("failed to encode counter ledger; %s", err.Error())
	}
	return state.StateData(raw), nil
}

// Contract is the counter contract descriptor
type Contract struct {
	witnesses Witnesses
}

// NewContract builds the counter contract descriptor bound to the given witnesses
func NewContract(witnesses Witnesses) *Contract {
	return &Contract{witnesses: witnesses}
}

// Witnesses returns the witnesses the descriptor was built with
func (c *Contract) Witnesses() Witnesses {
	return c.witnesses
}

func (c *Contract) Name() string {
	return contractName
}

func (c *Contract) Circuits() []string {
	return []string{CircuitIncrement}
}

// InitialState returns a ledger with round zero
func (c *Contract) InitialState(ps *state.PrivateState) (state.StateData, error) {
	return encodeLedger(&LedgerState{})
}

// Call runs a circuit locally; increment stamps its transcript with the current time witness
func (c *Contract) Call(circuit string, ledger state.StateData, ps *state.PrivateState) (*contracts.CallResult, error) {
	if circuit != CircuitIncrement {
		return nil, fmt.Errorf("unknown counter circuit %s", circuit)
	}

	current, err := DecodeLedger(ledger)
	if err != nil {
		return nil, err
	}

	ps, now := c.witnesses.GetCurrentTime(ps)
	transcript, err := cbor.Marshal(&incrementTranscript{Op: CircuitIncrement, Timestamp: now})
	if err != nil {
		return nil, err
	}

	next, err := encodeLedger(&LedgerState{Round: current.Round + 1})
	if err != nil {
		return nil, err
	}

	return &contracts.CallResult{
		Ledger:       next,
		PrivateState: ps,
		Transcript:   transcript,
	}, nil
}

// ApplyTranscript advances the round by one for each increment transcript
func (c *Contract) ApplyTranscript(ledger state.StateData, circuit string, transcript []byte) (state.StateData, error) {
	var t incrementTranscript
	if err := cbor.Unmarshal(transcript, &t); err != nil {
		return nil, fmt.Errorf("failed to decode %s transcript; %s", circuit, err.Error())
	}
	if circuit != CircuitIncrement || t.Op != CircuitIncrement {
		return nil, fmt.Errorf("unsupported counter transcript %s", t.Op)
	}

	current, err := DecodeLedger(ledger)
	if err != nil {
		return nil, err
	}
	return encodeLedger(&LedgerState{Round: current.Round + 1})
}
