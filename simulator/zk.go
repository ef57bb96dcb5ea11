package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

// ZKConfig serves deterministic artifacts for a fixed set of circuits
type ZKConfig struct {
	mutex        sync.Mutex
	verifierKeys map[string]state.VerifierKey
}

// NewZKConfig returns artifacts for the given circuits
func NewZKConfig(circuits ...string) *ZKConfig {
	keys := make(map[string]state.VerifierKey, len(circuits))
	for _, c := range circuits {
		keys[c] = state.VerifierKey(common.SHA256([]byte("verifier:" + c)))
	}
	return &ZKConfig{verifierKeys: keys}
}

// OverrideVerifierKey replaces the local verifier key of circuit
func (z *ZKConfig) OverrideVerifierKey(circuit string, vk state.VerifierKey) {
	z.mutex.Lock()
	defer z.mutex.Unlock()
	z.verifierKeys[circuit] = vk
}

func (z *ZKConfig) Get(ctx context.Context, circuitID string) (*state.ZKConfig, error) {
	vk, err := z.GetVerifierKey(ctx, circuitID)
	if err != nil {
		return nil, err
	}
	pk, _ := z.GetProverKey(ctx, circuitID)
	zkir, _ := z.GetZKIR(ctx, circuitID)
	return &state.ZKConfig{CircuitID: circuitID, ProverKey: pk, VerifierKey: vk, ZKIR: zkir}, nil
}

func (z *ZKConfig) GetProverKey(ctx context.Context, circuitID string) ([]byte, error) {
	return []byte("prover:" + circuitID), nil
}

func (z *ZKConfig) GetVerifierKey(ctx context.Context, circuitID string) (state.VerifierKey, error) {
	z.mutex.Lock()
	defer z.mutex.Unlock()
	vk, ok := z.verifierKeys[circuitID]
	if !ok {
		return nil, fmt.Errorf("no verifier key for circuit %s", circuitID)
	}
	return append(state.VerifierKey(nil), vk...), nil
}

func (z *ZKConfig) GetVerifierKeys(ctx context.Context, circuitIDs []string) (map[string]state.VerifierKey, error) {
	keys := make(map[string]state.VerifierKey, len(circuitIDs))
	for _, id := range circuitIDs {
		vk, err := z.GetVerifierKey(ctx, id)
		if err != nil {
			return nil, err
		}
		keys[id] = vk
	}
	return keys, nil
}

func (z *ZKConfig) GetZKIR(ctx context.Context, circuitID string) ([]byte, error) {
	return []byte("zkir:" + circuitID), nil
}

// Prover binds transactions to the verifier key of the artifacts they are proven with
type Prover struct{}

// ProveTx attaches a simulated proof
func (Prover) ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.UnbalancedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var vk state.VerifierKey
	if tx.Kind == state.TxKindCall {
		if zkConfig == nil || zkConfig.CircuitID != tx.Circuit {
			return nil, fmt.Errorf("missing zk config for circuit %s", tx.Circuit)
		}
		vk = zkConfig.VerifierKey
	}

	proven := tx.Transaction
	proven.Proof = proofDigest(&proven, vk)
	return &state.UnbalancedTransaction{Transaction: proven}, nil
}
