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
	"errors"

	"github.com/provideplatform/counter/state"
)

// ErrContractNotFound is returned when no contract state exists at an address
var ErrContractNotFound = errors.New("no contract state found")

// ErrVerifierKeyMismatch is returned when on-chain verifier keys differ from the local circuit artifacts
var ErrVerifierKeyMismatch = errors.New("verifier key mismatch")

// ErrArtifactsUnavailable is returned when the local circuit artifacts cannot be loaded
var ErrArtifactsUnavailable = errors.New("failed to load circuit artifacts")

// CallResult is the outcome of running a circuit locally
type CallResult struct {
	Ledger       state.StateData
	PrivateState *state.PrivateState
	Transcript   []byte
}

// Contract describes a compiled contract: its circuits, initial ledger and the
// local and network-side effects of each circuit
type Contract interface {
	Name() string
	Circuits() []string

	// InitialState returns the encoded ledger a deployment starts from
	InitialState(ps *state.PrivateState) (state.StateData, error)

	// Call runs circuit against the current ledger and private state; witnesses run here
	Call(circuit string, ledger state.StateData, ps *state.PrivateState) (*CallResult, error)

	// ApplyTranscript advances the ledger by a proven call transcript
	ApplyTranscript(ledger state.StateData, circuit string, transcript []byte) (state.StateData, error)
}
