package providers

import (
	"context"

	"github.com/provideplatform/counter/state"
)

// NoopProofProvider is used where no proof server is available
type NoopProofProvider struct{}

// ProveTx always fails
func (NoopProofProvider) ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.UnbalancedTransaction, error) {
	return nil, ErrProofServerUnavailable
}

// NoopZKConfigProvider is used where no circuit artifacts are available
type NoopZKConfigProvider struct{}

func (NoopZKConfigProvider) Get(ctx context.Context, circuitID string) (*state.ZKConfig, error) {
	return nil, ErrNotImplemented
}

func (NoopZKConfigProvider) GetProverKey(ctx context.Context, circuitID string) ([]byte, error) {
	return nil, ErrNotImplemented
}

func (NoopZKConfigProvider) GetVerifierKey(ctx context.Context, circuitID string) (state.VerifierKey, error) {
	return nil, ErrNotImplemented
}

func (NoopZKConfigProvider) GetVerifierKeys(ctx context.Context, circuitIDs []string) (map[string]state.VerifierKey, error) {
	return nil, ErrNotImplemented
}

func (NoopZKConfigProvider) GetZKIR(ctx context.Context, circuitID string) ([]byte, error) {
	return nil, ErrNotImplemented
}
