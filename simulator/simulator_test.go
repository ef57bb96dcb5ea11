package simulator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/provideplatform/counter/config"
	"github.com/provideplatform/counter/counter"
	"github.com/provideplatform/counter/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = state.ContractAddress(strings.Repeat("ab", 32))

func deploy(t *testing.T, sim *Simulator) *state.ContractState {
	ctx := context.Background()
	contract := counter.NewContract(counter.NewWitnesses())

	data, err := contract.InitialState(state.NewPrivateState())
	require.NoError(t, err)
	vks, err := sim.ZKConfig.GetVerifierKeys(ctx, contract.Circuits())
	require.NoError(t, err)

	tx := &state.UnprovenTransaction{Transaction: state.Transaction{
		Kind:            state.TxKindDeploy,
		ContractAddress: testAddress,
		State:           &state.ContractState{Data: data, Operations: vks},
		Nonce:           []byte{1},
	}}
	proven, err := sim.Prover.ProveTx(ctx, tx, nil)
	require.NoError(t, err)

	txID, err := sim.Network.SubmitTx(ctx, &state.BalancedTransaction{Transaction: proven.Transaction})
	require.NoError(t, err)
	finalized, err := sim.Network.WatchForTxData(ctx, txID)
	require.NoError(t, err)
	require.Equal(t, state.TxStatusSucceedEntirely, finalized.Status)

	cs, err := sim.Network.QueryContractState(ctx, testAddress)
	require.NoError(t, err)
	require.NotNil(t, cs)
	return cs
}

func increment(t *testing.T, sim *Simulator, zk *state.ZKConfig) *state.FinalizedTxData {
	ctx := context.Background()
	contract := counter.NewContract(counter.NewWitnesses())

	cs, err := sim.Network.QueryContractState(ctx, testAddress)
	require.NoError(t, err)
	result, err := contract.Call(counter.CircuitIncrement, cs.Data, state.NewPrivateState())
	require.NoError(t, err)

	tx := &state.UnprovenTransaction{Transaction: state.Transaction{
		Kind:            state.TxKindCall,
		ContractAddress: testAddress,
		Circuit:         counter.CircuitIncrement,
		Transcript:      result.Transcript,
		Nonce:           []byte{2},
	}}
	proven, err := sim.Prover.ProveTx(ctx, tx, zk)
	require.NoError(t, err)

	raw, err := proven.Serialize(sim.Network.NetworkID())
	require.NoError(t, err)
	raw, err = sim.Wallet.BalanceTransaction(ctx, raw)
	require.NoError(t, err)
	txID, err := sim.Wallet.SubmitTransaction(ctx, raw)
	require.NoError(t, err)

	finalized, err := sim.Network.WatchForTxData(ctx, txID)
	require.NoError(t, err)
	return finalized
}

func TestDeployAndCall(t *testing.T) {
	sim := New(config.NetworkIDUndeployed, counter.NewContract(counter.NewWitnesses()))

	cs := deploy(t, sim)
	ledger, err := counter.DecodeLedger(cs.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ledger.Round)

	zk, err := sim.ZKConfig.Get(context.Background(), counter.CircuitIncrement)
	require.NoError(t, err)
	finalized := increment(t, sim, zk)
	assert.Equal(t, state.TxStatusSucceedEntirely, finalized.Status)
	assert.Equal(t, sim.Network.Height(), finalized.BlockHeight)

	cs, err = sim.Network.QueryContractState(context.Background(), testAddress)
	require.NoError(t, err)
	ledger, err = counter.DecodeLedger(cs.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ledger.Round)

	s, err := sim.Wallet.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(GenesisBalance-DefaultFee), s.Balance)
	assert.Equal(t, []state.ContractAddress{testAddress}, sim.Network.DeployedAddresses())
}

func TestCallProvenWithForeignVerifierKeyFails(t *testing.T) {
	sim := New(config.NetworkIDUndeployed, counter.NewContract(counter.NewWitnesses()))
	deploy(t, sim)

	finalized := increment(t, sim, &state.ZKConfig{CircuitID: counter.CircuitIncrement, VerifierKey: state.VerifierKey("other")})
	assert.Equal(t, state.TxStatusFailEntirely, finalized.Status)
}

func TestSubmitRejectsForeignNetwork(t *testing.T) {
	sim := New(config.NetworkIDUndeployed, counter.NewContract(counter.NewWitnesses()))

	tx := &state.Transaction{Kind: state.TxKindDeploy, ContractAddress: testAddress, Proof: []byte{1}}
	raw, err := tx.Serialize(config.NetworkIDTestnet)
	require.NoError(t, err)

	_, err = sim.Wallet.SubmitTransaction(context.Background(), raw)
	assert.ErrorContains(t, err, "network id mismatch")
}

func TestFaultInjection(t *testing.T) {
	sim := New(config.NetworkIDUndeployed, counter.NewContract(counter.NewWitnesses()))
	deploy(t, sim)

	sim.Network.FailQueries(1, errors.New("indexer offline"))
	_, err := sim.Network.QueryContractState(context.Background(), testAddress)
	assert.EqualError(t, err, "indexer offline")
	_, err = sim.Network.QueryContractState(context.Background(), testAddress)
	assert.NoError(t, err)

	sim.Network.FailSubscriptions(1, nil)
	_, err = sim.Network.ContractStateObservable(context.Background(), testAddress, state.ObserveConfig{Type: state.ObserveAll})
	assert.Error(t, err)

	sim.Network.FailSubmissions(1, errors.New("node offline"))
	_, err = sim.Network.SubmitTx(context.Background(), &state.BalancedTransaction{})
	assert.EqualError(t, err, "node offline")
}

func TestSubscriptionReplaysAndInterrupts(t *testing.T) {
	sim := New(config.NetworkIDUndeployed, counter.NewContract(counter.NewWitnesses()))
	deploy(t, sim)

	sub, err := sim.Network.ContractStateObservable(context.Background(), testAddress, state.ObserveConfig{Type: state.ObserveAll})
	require.NoError(t, err)
	defer sub.Close()

	select {
	case cs := <-sub.Updates():
		require.NotNil(t, cs)
	case <-time.After(time.Second):
		t.Fatal("expected replayed state")
	}

	zk, err := sim.ZKConfig.Get(context.Background(), counter.CircuitIncrement)
	require.NoError(t, err)
	increment(t, sim, zk)

	select {
	case cs := <-sub.Updates():
		ledger, err := counter.DecodeLedger(cs.Data)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ledger.Round)
	case <-time.After(time.Second):
		t.Fatal("expected live state")
	}

	sim.Network.InterruptSubscriptions(nil)

	_, ok := <-sub.Updates()
	assert.False(t, ok)
	assert.ErrorIs(t, <-sub.Err(), ErrInterrupted)
}

func TestSubscriptionLatest(t *testing.T) {
	sim := New(config.NetworkIDUndeployed, counter.NewContract(counter.NewWitnesses()))
	deploy(t, sim)
	zk, err := sim.ZKConfig.Get(context.Background(), counter.CircuitIncrement)
	require.NoError(t, err)
	increment(t, sim, zk)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := sim.Network.ContractStateObservable(ctx, testAddress, state.ObserveConfig{Type: state.ObserveLatest})
	require.NoError(t, err)

	cs := <-sub.Updates()
	ledger, err := counter.DecodeLedger(cs.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ledger.Round)

	cancel()
	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed by context cancellation")
	}
}
