package providers

import (
	"context"
	"errors"

	"github.com/consensys/gnark/frontend"
	"github.com/provideplatform/counter/state"
)

// GnarkCircuitIdentifierAge gnark age verification circuit
const GnarkCircuitIdentifierAge = "age"

// ZKSnarkCircuitProviderGnark gnark zksnark circuit provider
const ZKSnarkCircuitProviderGnark = "gnark"

// ErrProofServerUnavailable is returned by the noop proof provider
var ErrProofServerUnavailable = errors.New("Proof server not available")

// ErrNotImplemented is returned by the noop zk config provider
var ErrNotImplemented = errors.New("Not implemented")

// ZKSnarkCircuitProvider provides a common interface to interact with zksnark circuits
type ZKSnarkCircuitProvider interface {
	Setup(identifier string) error
	Prove(identifier string, assignment frontend.Circuit) ([]byte, error)
	Verify(identifier string, proof []byte, publicAssignment frontend.Circuit) error
	VerifierKey(identifier string) (state.VerifierKey, error)
}

type proofProvider interface {
	ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.UnbalancedTransaction, error)
}

// zkArtifactSource is the subset of a zk config provider that reads raw artifacts
type zkArtifactSource interface {
	GetProverKey(ctx context.Context, circuitID string) ([]byte, error)
	GetVerifierKey(ctx context.Context, circuitID string) (state.VerifierKey, error)
	GetZKIR(ctx context.Context, circuitID string) ([]byte, error)
}

func getZKConfig(ctx context.Context, src zkArtifactSource, circuitID string) (*state.ZKConfig, error) {
	pk, err := src.GetProverKey(ctx, circuitID)
	if err != nil {
		return nil, err
	}
	vk, err := src.GetVerifierKey(ctx, circuitID)
	if err != nil {
		return nil, err
	}
	zkir, err := src.GetZKIR(ctx, circuitID)
	if err != nil {
		return nil, err
	}

	return &state.ZKConfig{
		CircuitID:   circuitID,
		ProverKey:   pk,
		VerifierKey: vk,
		ZKIR:        zkir,
	}, nil
}

func getVerifierKeys(ctx context.Context, src zkArtifactSource, circuitIDs []string) (map[string]state.VerifierKey, error) {
	keys := make(map[string]state.VerifierKey, len(circuitIDs))
	for _, id := range circuitIDs {
		vk, err := src.GetVerifierKey(ctx, id)
		if err != nil {
			return nil, err
		}
		keys[id] = vk
	}
	return keys, nil
}
