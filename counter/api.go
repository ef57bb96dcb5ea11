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
	"context"
	"fmt"
	"time"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/contracts"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/state"
	zkp "github.com/provideplatform/counter/zkp/providers"
)

// PrivateStateID is the fixed key of the counter private state
const PrivateStateID = "counterPrivateState"

// IncrementMode selects what Increment returns
type IncrementMode int

const (
	// IncrementFireAndForget returns no transaction data
	IncrementFireAndForget IncrementMode = iota
	// IncrementWithTxInfo returns the finalized transaction data
	IncrementWithTxInfo
)

// CounterInfo is a display-oriented read of the counter
type CounterInfo struct {
	Address state.ContractAddress `json:"address"`
	Value   uint64                `json:"value"`
	Found   bool                  `json:"found"`
}

// API is a session on one deployed counter contract
type API struct {
	contract  *Contract
	deployed  *contracts.DeployedContract
	providers *providers.Providers
	stream    *StateStream
}

func newAPI(contract *Contract, deployed *contracts.DeployedContract, p *providers.Providers, opts ...StreamOption) *API {
	a := &API{
		contract:  contract,
		deployed:  deployed,
		providers: p,
	}
	a.stream = a.State(context.Background(), append([]StreamOption{WithLatestOnly()}, opts...)...)
	return a
}

// Deploy validates p, deploys a new counter contract and opens a session on it
func Deploy(ctx context.Context, contract *Contract, p *providers.Providers, initialPrivateState *state.PrivateState, opts ...StreamOption) (*API, error) {
	if err := providers.Validate(p, providers.OperationDeployment); err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, common.NewError(common.ErrorKindConfiguration, "deploy", "", "counter contract is required for deployment", nil)
	}

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{
		Contract:            contract,
		PrivateStateID:      PrivateStateID,
		InitialPrivateState: initialPrivateState,
	})
	deploymentsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		common.Log.Warningf("failed to deploy counter contract; %s", err.Error())
		return nil, classifyDeployError(err)
	}

	common.Log.Debugf("deployed counter contract at %s", deployed.Address)
	dispatchNotification(deployed.Address, natsCounterNotificationDeployed, map[string]interface{}{
		"tx_id":        deployed.DeployTxData.TxID,
		"block_height": deployed.DeployTxData.BlockHeight,
	})
	return newAPI(contract, deployed, p, opts...), nil
}

// Connect validates p and joins the counter contract at address; existing private state is preserved
func Connect(ctx context.Context, contract *Contract, p *providers.Providers, address string, opts ...StreamOption) (*API, error) {
	if err := providers.Validate(p, providers.OperationConnection); err != nil {
		return nil, err
	}
	if contract == nil {
		return nil, common.NewError(common.ErrorKindConfiguration, "connect", address, "counter contract is required for connection", nil)
	}

	addr, err := state.ParseContractAddress(address)
	if err != nil {
		return nil, common.NewError(common.ErrorKindConfiguration, "connect", address, err.Error(), err)
	}

	deployed, err := contracts.FindDeployedContract(ctx, p, contracts.FindOptions{
		Contract:            contract,
		ContractAddress:     addr,
		PrivateStateID:      PrivateStateID,
		InitialPrivateState: state.NewPrivateState(),
	})
	if err != nil {
		common.Log.Warningf("failed to connect to counter contract at %s; %s", addr, err.Error())
		return nil, classifyConnectError(err, addr.String())
	}

	if _, err := DecodeLedger(deployed.InitialState.Data); err != nil {
		return nil, common.NewError(common.ErrorKindCompatibility, "connect", addr.String(),
			fmt.Sprintf("Unable to connect to contract at %s. It is not a compatible counter contract.", addr), err)
	}

	common.Log.Debugf("connected to counter contract at %s", addr)
	return newAPI(contract, deployed, p, opts...), nil
}

// ContractExists reports whether a decodable counter ledger exists at address; it never fails
func ContractExists(ctx context.Context, contract *Contract, p *providers.Providers, address string) bool {
	if contract == nil || p == nil || p.PublicData() == nil {
		return false
	}
	addr, err := state.ParseContractAddress(address)
	if err != nil {
		return false
	}

	cs, err := p.PublicData().QueryContractState(ctx, addr)
	if err != nil {
		common.Log.Debugf("failed to query contract state at %s; %s", addr, err.Error())
		return false
	}
	if cs == nil {
		return false
	}
	_, err = DecodeLedger(cs.Data)
	return err == nil
}

// GetCounterValueDirect reads the counter at address without a session; a missing or
// undecodable ledger is an error
func GetCounterValueDirect(ctx context.Context, contract *Contract, p *providers.Providers, address string) (uint64, error) {
	fail := func(err error) (uint64, error) {
		return 0, common.NewError(common.ErrorKindExistence, "getCounterValueDirect", address,
			fmt.Sprintf("Unable to read counter value from contract at %s. The contract may not be a valid counter contract or may be incompatible.", address), err)
	}

	if contract == nil || p == nil || p.PublicData() == nil {
		return fail(fmt.Errorf("PublicDataProvider is required"))
	}
	addr, err := state.ParseContractAddress(address)
	if err != nil {
		return fail(err)
	}

	cs, err := p.PublicData().QueryContractState(ctx, addr)
	if err != nil {
		return fail(err)
	}
	if cs == nil {
		return fail(contracts.ErrContractNotFound)
	}
	ledger, err := DecodeLedger(cs.Data)
	if err != nil {
		return fail(err)
	}
	return ledger.Round, nil
}

// Address returns the session's contract address
func (a *API) Address() state.ContractAddress {
	return a.deployed.Address
}

// DeployTxData returns the deployment data; nil for connected sessions
func (a *API) DeployTxData() *contracts.FinalizedDeployTxData {
	return a.deployed.DeployTxData
}

// Contract returns the contract descriptor
func (a *API) Contract() *Contract {
	return a.contract
}

// Stream returns the state stream opened with the session; it holds only the latest unread value,
// so it never blocks the session when nobody reads it
func (a *API) Stream() *StateStream {
	return a.stream
}

// State opens an additional state stream for the session's contract
func (a *API) State(ctx context.Context, opts ...StreamOption) *StateStream {
	return newStateStream(ctx, a.providers, a.deployed.Address, opts...)
}

// Close stops the session's state stream
func (a *API) Close() {
	a.stream.Close()
}

// GetCounterValue returns the current counter value; a missing ledger reads as zero
func (a *API) GetCounterValue(ctx context.Context) (uint64, error) {
	info, err := a.GetCounterInfo(ctx)
	if err != nil {
		return 0, err
	}
	return info.Value, nil
}

// GetCounterInfo returns the counter value and whether a ledger was found
func (a *API) GetCounterInfo(ctx context.Context) (*CounterInfo, error) {
	info := &CounterInfo{Address: a.deployed.Address}

	cs, err := a.providers.PublicData().QueryContractState(ctx, a.deployed.Address)
	if err != nil {
		return nil, common.NewError(common.ErrorKindConnectivity, "getCounterValue", a.deployed.Address.String(),
			fmt.Sprintf("failed to query counter state at %s", a.deployed.Address), err)
	}
	if cs == nil {
		return info, nil
	}

	ledger, err := DecodeLedger(cs.Data)
	if err != nil {
		return nil, common.NewError(common.ErrorKindCompatibility, "getCounterValue", a.deployed.Address.String(), err.Error(), err)
	}
	info.Value = ledger.Round
	info.Found = true
	return info, nil
}

// Increment submits an increment call; the finalized transaction data is only returned with IncrementWithTxInfo
func (a *API) Increment(ctx context.Context, mode IncrementMode) (*state.FinalizedTxData, error) {
	common.Log.Debugf("incrementing counter at %s", a.deployed.Address)

	tx, err := a.deployed.CallTx(ctx, CircuitIncrement)
	incrementsTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		common.Log.Warningf("failed to increment counter at %s; %s", a.deployed.Address, err.Error())
		return nil, classifyCallError(err, "increment", a.deployed.Address.String())
	}

	dispatchNotification(a.deployed.Address, natsCounterNotificationIncremented, map[string]interface{}{
		"tx_id":        tx.TxID,
		"block_height": tx.BlockHeight,
	})

	if mode == IncrementWithTxInfo {
		data := tx.FinalizedTxData
		return &data, nil
	}
	return nil, nil
}

// PrivateState returns the stored counter private state, or nil if none exists
func (a *API) PrivateState(ctx context.Context) (*state.PrivateState, error) {
	return a.providers.PrivateState().Get(ctx, PrivateStateID)
}

// SetCredentialSubject replaces the credential held in the private state; the stored value is kept
func (a *API) SetCredentialSubject(ctx context.Context, subject *state.CredentialSubject) error {
	if subject == nil {
		return common.NewError(common.ErrorKindConfiguration, "setCredentialSubject", a.deployed.Address.String(), "credential subject is required", nil)
	}

	ps, err := a.PrivateState(ctx)
	if err != nil {
		return err
	}
	if ps == nil {
		ps = state.NewPrivateState()
	}

	next := ps.Clone()
	s := *subject
	next.CredentialSubject = &s
	return a.providers.PrivateState().Set(ctx, PrivateStateID, next)
}

func (a *API) identity(ctx context.Context) (*state.CredentialSubject, error) {
	ps, err := a.PrivateState(ctx)
	if err != nil {
		return nil, err
	}
	_, subject, err := a.contract.witnesses.GetIdentity(ps)
	return subject, err
}

// IsUserVerified runs the identity witness over the stored private state and checks the age of majority at now.
// A session with no registered credential is not verified: it returns false together with ErrNoIdentity
// (a Witness-kind error), so callers can tell "not of age" (false, nil) from "nothing to check".
// Callers that only need the boolean may ignore ErrNoIdentity.
func (a *API) IsUserVerified(ctx context.Context, now time.Time) (bool, error) {
	subject, err := a.identity(ctx)
	if err != nil {
		return false, err
	}
	return IsOfAge(subject, now), nil
}

// ProveUserVerified produces a zero-knowledge proof that the stored credential is of age at now
func (a *API) ProveUserVerified(ctx context.Context, prover *zkp.AgeProver, now time.Time) (*zkp.AgeProof, error) {
	subject, err := a.identity(ctx)
	if err != nil {
		return nil, err
	}
	return prover.Prove(subject, AgeCutoff(now))
}
