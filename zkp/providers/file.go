package providers

import (
	"context"
	"fmt"

	"github.com/provideplatform/counter/env"
	"github.com/provideplatform/counter/state"
)

// FileZKConfigProvider reads circuit artifacts from a managed contract directory:
// keys/<circuit>.prover, keys/<circuit>.verifier and zkir/<circuit>.bzkir
type FileZKConfigProvider struct {
	env  env.Environment
	path string
}

// InitFileZKConfigProvider returns a provider reading artifacts under path through e
func InitFileZKConfigProvider(e env.Environment, path string) *FileZKConfigProvider {
	return &FileZKConfigProvider{env: e, path: path}
}

func (p *FileZKConfigProvider) read(ctx context.Context, kind, circuitID string, elem ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := p.env.Path().Join(append([]string{p.path}, elem...)...)
	raw, err := p.env.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for circuit %s; %s", kind, circuitID, err.Error())
	}
	return raw, nil
}

func (p *FileZKConfigProvider) Get(ctx context.Context, circuitID string) (*state.ZKConfig, error) {
	return getZKConfig(ctx, p, circuitID)
}

func (p *FileZKConfigProvider) GetProverKey(ctx context.Context, circuitID string) ([]byte, error) {
	return p.read(ctx, "prover key", circuitID, "keys", circuitID+".prover")
}

func (p *FileZKConfigProvider) GetVerifierKey(ctx context.Context, circuitID string) (state.VerifierKey, error) {
	vk, err := p.read(ctx, "verifier key", circuitID, "keys", circuitID+".verifier")
	if err != nil {
		return nil, err
	}
	return state.VerifierKey(vk), nil
}

func (p *FileZKConfigProvider) GetVerifierKeys(ctx context.Context, circuitIDs []string) (map[string]state.VerifierKey, error) {
	return getVerifierKeys(ctx, p, circuitIDs)
}

func (p *FileZKConfigProvider) GetZKIR(ctx context.Context, circuitID string) ([]byte, error) {
	return p.read(ctx, "zkir", circuitID, "zkir", circuitID+".bzkir")
}
