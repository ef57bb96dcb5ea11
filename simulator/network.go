package simulator

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	uuid "github.com/kthomas/go.uuid"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/contracts"
	"github.com/provideplatform/counter/state"
)

// ErrInterrupted is delivered to subscriptions interrupted without a specific error
var ErrInterrupted = errors.New("simulated subscription interrupted")

// Network is an in-memory standalone network: it applies submitted transactions through
// registered contract descriptors and serves public data from the resulting states
type Network struct {
	networkID string

	mutex       sync.Mutex
	height      uint64
	circuits    map[string]contracts.Contract
	history     map[state.ContractAddress][]*state.ContractState
	txs         map[state.TransactionID]*state.FinalizedTxData
	subscribers map[state.ContractAddress]map[*subscription]struct{}
	changed     chan struct{}

	queryFailures      int
	queryErr           error
	submissionFailures int
	submissionErr      error
	subscribeFailures  int
	subscribeErr       error
}

// NewNetwork returns an empty network for networkID with the given contracts registered
func NewNetwork(networkID string, descriptors ...contracts.Contract) *Network {
	n := &Network{
		networkID:   networkID,
		circuits:    map[string]contracts.Contract{},
		history:     map[state.ContractAddress][]*state.ContractState{},
		txs:         map[state.TransactionID]*state.FinalizedTxData{},
		subscribers: map[state.ContractAddress]map[*subscription]struct{}{},
		changed:     make(chan struct{}),
	}
	for _, c := range descriptors {
		n.Register(c)
	}
	return n
}

// Register makes the contract's circuits callable on the network
func (n *Network) Register(c contracts.Contract) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for _, circuit := range c.Circuits() {
		n.circuits[circuit] = c
	}
}

// NetworkID returns the id transactions must be serialized for
func (n *Network) NetworkID() string {
	return n.networkID
}

// Height returns the current block height
func (n *Network) Height() uint64 {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.height
}

// FailQueries makes the next count state queries fail with err
func (n *Network) FailQueries(count int, err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.queryFailures = count
	n.queryErr = err
}

// FailSubmissions makes the next count submissions fail with err
func (n *Network) FailSubmissions(count int, err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.submissionFailures = count
	n.submissionErr = err
}

// FailSubscriptions makes the next count subscription attempts fail with err
func (n *Network) FailSubscriptions(count int, err error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.subscribeFailures = count
	n.subscribeErr = err
}

// InterruptSubscriptions terminates every open subscription with err
func (n *Network) InterruptSubscriptions(err error) {
	if err == nil {
		err = ErrInterrupted
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()
	for address, subs := range n.subscribers {
		for sub := range subs {
			sub.fail(err)
		}
		delete(n.subscribers, address)
	}
}

// SetContractState appends a raw state at address, bypassing transaction validation
func (n *Network) SetContractState(address state.ContractAddress, cs *state.ContractState) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.height++
	next := cs.Clone()
	next.BlockHeight = n.height
	n.appendState(address, next)
}

func takeFailure(count *int, err error) error {
	if *count <= 0 {
		return nil
	}
	*count--
	if err == nil {
		err = errors.New("simulated failure")
	}
	return err
}

func (n *Network) latest(address state.ContractAddress) *state.ContractState {
	h := n.history[address]
	if len(h) == 0 {
		return nil
	}
	return h[len(h)-1]
}

func (n *Network) appendState(address state.ContractAddress, cs *state.ContractState) {
	n.history[address] = append(n.history[address], cs)
	for sub := range n.subscribers[address] {
		sub.push(cs.Clone())
	}
	n.broadcast()
}

func (n *Network) broadcast() {
	close(n.changed)
	n.changed = make(chan struct{})
}

// QueryContractState returns the latest state at address, or nil if none
func (n *Network) QueryContractState(ctx context.Context, address state.ContractAddress) (*state.ContractState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()
	if err := takeFailure(&n.queryFailures, n.queryErr); err != nil {
		return nil, err
	}
	if cs := n.latest(address); cs != nil {
		return cs.Clone(), nil
	}
	return nil, nil
}

// WatchForTxData blocks until the transaction has been applied
func (n *Network) WatchForTxData(ctx context.Context, txID state.TransactionID) (*state.FinalizedTxData, error) {
	for {
		n.mutex.Lock()
		data, ok := n.txs[txID]
		changed := n.changed
		n.mutex.Unlock()

		if ok {
			d := *data
			return &d, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to watch for transaction %s; %s", txID, ctx.Err().Error())
		case <-changed:
		}
	}
}

// ContractStateObservable subscribes to states at address; ObserveAll replays the full history
func (n *Network) ContractStateObservable(ctx context.Context, address state.ContractAddress, cfg state.ObserveConfig) (state.ContractStateSubscription, error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if err := takeFailure(&n.subscribeFailures, n.subscribeErr); err != nil {
		return nil, err
	}

	sub := newSubscription(n, address)
	switch cfg.Type {
	case state.ObserveLatest:
		if cs := n.latest(address); cs != nil {
			sub.push(cs.Clone())
		}
	default:
		for _, cs := range n.history[address] {
			sub.push(cs.Clone())
		}
	}

	if n.subscribers[address] == nil {
		n.subscribers[address] = map[*subscription]struct{}{}
	}
	n.subscribers[address][sub] = struct{}{}

	go sub.pump()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	return sub, nil
}

func (n *Network) unsubscribe(sub *subscription) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if subs, ok := n.subscribers[sub.address]; ok {
		delete(subs, sub)
	}
}

// SubmitTx applies a balanced transaction
func (n *Network) SubmitTx(ctx context.Context, tx *state.BalancedTransaction) (state.TransactionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return n.submit(&tx.Transaction)
}

func (n *Network) submitRaw(raw []byte) (state.TransactionID, error) {
	tx, err := state.DeserializeTransaction(raw, n.networkID)
	if err != nil {
		return "", err
	}
	return n.submit(tx)
}

func (n *Network) submit(tx *state.Transaction) (state.TransactionID, error) {
	hash, err := tx.Hash()
	if err != nil {
		return "", err
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	if err := takeFailure(&n.submissionFailures, n.submissionErr); err != nil {
		return "", err
	}
	if len(tx.Proof) == 0 {
		return "", fmt.Errorf("failed to submit %s transaction; transaction is not proven", tx.Kind)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to allocate transaction id; %s", err.Error())
	}

	n.height++
	txID := state.TransactionID(id.String())

	status := state.TxStatusSucceedEntirely
	if err := n.apply(tx); err != nil {
		common.Log.Debugf("simulated %s transaction %s failed; %s", tx.Kind, txID, err.Error())
		status = state.TxStatusFailEntirely
	}

	n.txs[txID] = &state.FinalizedTxData{
		TxID:        txID,
		TxHash:      hash,
		BlockHeight: n.height,
		Status:      status,
	}
	n.broadcast()
	return txID, nil
}

func (n *Network) apply(tx *state.Transaction) error {
	switch tx.Kind {
	case state.TxKindDeploy:
		if tx.State == nil {
			return errors.New("deploy transaction carries no state")
		}
		if n.latest(tx.ContractAddress) != nil {
			return fmt.Errorf("contract already deployed at %s", tx.ContractAddress)
		}
		if string(tx.Proof) != string(proofDigest(tx, nil)) {
			return errors.New("invalid deploy proof")
		}
		cs := tx.State.Clone()
		cs.BlockHeight = n.height
		n.appendState(tx.ContractAddress, cs)
		return nil

	case state.TxKindCall:
		current := n.latest(tx.ContractAddress)
		if current == nil {
			return fmt.Errorf("no contract deployed at %s", tx.ContractAddress)
		}
		vk, ok := current.Operations[tx.Circuit]
		if !ok {
			return fmt.Errorf("circuit %s is not deployed at %s", tx.Circuit, tx.ContractAddress)
		}
		if string(tx.Proof) != string(proofDigest(tx, vk)) {
			return fmt.Errorf("proof for circuit %s does not match the deployed verifier key", tx.Circuit)
		}
		contract, ok := n.circuits[tx.Circuit]
		if !ok {
			return fmt.Errorf("no contract registered for circuit %s", tx.Circuit)
		}

		data, err := contract.ApplyTranscript(current.Data, tx.Circuit, tx.Transcript)
		if err != nil {
			return err
		}
		next := current.Clone()
		next.Data = data
		next.BlockHeight = n.height
		n.appendState(tx.ContractAddress, next)
		return nil
	}
	return fmt.Errorf("unsupported transaction kind %s", tx.Kind)
}

// proofDigest binds a transaction body to the verifier key it was proven against
func proofDigest(tx *state.Transaction, vk state.VerifierKey) []byte {
	digest := sha256.New()
	digest.Write([]byte(tx.Kind))
	digest.Write([]byte(tx.ContractAddress))
	digest.Write([]byte(tx.Circuit))
	digest.Write(tx.Transcript)
	digest.Write(tx.Nonce)
	digest.Write(vk)
	return digest.Sum(nil)
}
