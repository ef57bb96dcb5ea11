package contracts_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/contracts"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/env"
	"github.com/provideplatform/counter/providers"
	"github.com/provideplatform/counter/simulator"
	"github.com/provideplatform/counter/state"
	"github.com/provideplatform/counter/store"
	storage "github.com/provideplatform/counter/store/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const privateStateID = "testPrivateState"

func setup(t *testing.T) (*simulator.Simulator, *providers.Providers, *counter.Contract) {
	contract := counter.NewContract(counter.NewWitnesses())
	sim := simulator.New(config.NetworkIDUndeployed, contract)

	ps, err := (&store.Store{
		Name:     common.StringOrNil("contracts-test"),
		Provider: common.StringOrNil(storage.StoreProviderMemory),
	}).Open(env.Server())
	require.NoError(t, err)

	p, err := sim.Providers(context.Background(), ps)
	require.NoError(t, err)
	return sim, p, contract
}

func TestDeployContract(t *testing.T) {
	ctx := context.Background()
	_, p, contract := setup(t)

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{
		Contract:            contract,
		PrivateStateID:      privateStateID,
		InitialPrivateState: &state.PrivateState{Value: 7},
	})
	require.NoError(t, err)

	_, err = state.ParseContractAddress(deployed.Address.String())
	require.NoError(t, err)
	require.NotNil(t, deployed.DeployTxData)
	assert.Equal(t, state.TxStatusSucceedEntirely, deployed.DeployTxData.Status)
	assert.Equal(t, deployed.Address, deployed.DeployTxData.ContractAddress)
	assert.Contains(t, deployed.InitialState.Operations, counter.CircuitIncrement)

	ps, err := p.PrivateState().Get(ctx, privateStateID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ps.Value)

	sk, err := p.PrivateState().GetSigningKey(ctx, deployed.Address)
	require.NoError(t, err)
	assert.Len(t, sk, 64)
}

func TestDeployContractProofFailure(t *testing.T) {
	_, p, contract := setup(t)
	p = p.With(providers.Set{Proof: failingProver{}})

	_, err := contracts.DeployContract(context.Background(), p, contracts.DeployOptions{Contract: contract, PrivateStateID: privateStateID})
	assert.ErrorContains(t, err, "failed to prove deploy transaction")
}

type failingProver struct{}

func (failingProver) ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zk *state.ZKConfig) (*state.UnbalancedTransaction, error) {
	return nil, errors.New("Proof server not available")
}

func TestFindDeployedContract(t *testing.T) {
	ctx := context.Background()
	_, p, contract := setup(t)

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{
		Contract:            contract,
		PrivateStateID:      privateStateID,
		InitialPrivateState: &state.PrivateState{Value: 3},
	})
	require.NoError(t, err)
	require.NoError(t, p.PrivateState().RemoveSigningKey(ctx, deployed.Address))

	found, err := contracts.FindDeployedContract(ctx, p, contracts.FindOptions{
		Contract:            contract,
		ContractAddress:     deployed.Address,
		PrivateStateID:      privateStateID,
		InitialPrivateState: state.NewPrivateState(),
	})
	require.NoError(t, err)
	assert.Nil(t, found.DeployTxData)
	assert.Equal(t, deployed.Address, found.Address)

	ps, err := p.PrivateState().Get(ctx, privateStateID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), ps.Value)

	sk, err := p.PrivateState().GetSigningKey(ctx, deployed.Address)
	require.NoError(t, err)
	assert.NotNil(t, sk)
}

func TestFindDeployedContractSetsInitialPrivateState(t *testing.T) {
	ctx := context.Background()
	_, p, contract := setup(t)

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{Contract: contract, PrivateStateID: privateStateID})
	require.NoError(t, err)
	require.NoError(t, p.PrivateState().Clear(ctx))

	_, err = contracts.FindDeployedContract(ctx, p, contracts.FindOptions{
		Contract:            contract,
		ContractAddress:     deployed.Address,
		PrivateStateID:      privateStateID,
		InitialPrivateState: &state.PrivateState{Value: 11},
	})
	require.NoError(t, err)

	ps, err := p.PrivateState().Get(ctx, privateStateID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), ps.Value)
}

func TestFindDeployedContractFailures(t *testing.T) {
	ctx := context.Background()
	sim, p, contract := setup(t)

	_, err := contracts.FindDeployedContract(ctx, p, contracts.FindOptions{
		Contract:        contract,
		ContractAddress: state.ContractAddress(strings.Repeat("00", 32)),
		PrivateStateID:  privateStateID,
	})
	assert.ErrorIs(t, err, contracts.ErrContractNotFound)

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{Contract: contract, PrivateStateID: privateStateID})
	require.NoError(t, err)

	sim.ZKConfig.OverrideVerifierKey(counter.CircuitIncrement, state.VerifierKey("recompiled"))
	_, err = contracts.FindDeployedContract(ctx, p, contracts.FindOptions{
		Contract:        contract,
		ContractAddress: deployed.Address,
		PrivateStateID:  privateStateID,
	})
	assert.ErrorIs(t, err, contracts.ErrVerifierKeyMismatch)
	assert.Contains(t, err.Error(), "verifier key")
}

func TestCallTx(t *testing.T) {
	ctx := context.Background()
	sim, p, contract := setup(t)

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{
		Contract:            contract,
		PrivateStateID:      privateStateID,
		InitialPrivateState: &state.PrivateState{Value: 5},
	})
	require.NoError(t, err)

	tx, err := deployed.CallTx(ctx, counter.CircuitIncrement)
	require.NoError(t, err)
	assert.Equal(t, state.TxStatusSucceedEntirely, tx.Status)
	assert.Equal(t, int64(5), tx.NextPrivateState.Value)

	cs, err := p.PublicData().QueryContractState(ctx, deployed.Address)
	require.NoError(t, err)
	ledger, err := counter.DecodeLedger(cs.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ledger.Round)

	_, err = deployed.CallTx(ctx, "decrement")
	assert.ErrorContains(t, err, "unknown counter circuit")

	sim.Network.FailSubmissions(1, errors.New("connection refused"))
	_, err = deployed.CallTx(ctx, counter.CircuitIncrement)
	assert.ErrorContains(t, err, "connection refused")
}

func TestCallTxFailedStatus(t *testing.T) {
	ctx := context.Background()
	sim, p, contract := setup(t)

	deployed, err := contracts.DeployContract(ctx, p, contracts.DeployOptions{Contract: contract, PrivateStateID: privateStateID})
	require.NoError(t, err)

	sim.ZKConfig.OverrideVerifierKey(counter.CircuitIncrement, state.VerifierKey("stale"))
	_, err = deployed.CallTx(ctx, counter.CircuitIncrement)
	assert.ErrorContains(t, err, string(state.TxStatusFailEntirely))
}
