package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

const defaultArtifactCacheLifetime = 30 * time.Minute

// FetchZKConfigProvider downloads circuit artifacts over http and caches them in memory
type FetchZKConfigProvider struct {
	baseURL string
	client  *http.Client
	cache   *bigcache.BigCache
}

// InitFetchZKConfigProvider returns a provider fetching artifacts below baseURL; a nil client uses http.DefaultClient
func InitFetchZKConfigProvider(baseURL string, client *http.Client) (*FetchZKConfigProvider, error) {
	if client == nil {
		client = http.DefaultClient
	}

	cfg := bigcache.DefaultConfig(defaultArtifactCacheLifetime)
	cfg.Shards = 8
	cfg.MaxEntriesInWindow = 64
	cfg.MaxEntrySize = 4096
	cfg.HardMaxCacheSize = 64
	cfg.Verbose = false

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zk artifact cache; %s", err.Error())
	}

	return &FetchZKConfigProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		cache:   cache,
	}, nil
}

// Close releases the artifact cache
func (p *FetchZKConfigProvider) Close() error {
	return p.cache.Close()
}

func (p *FetchZKConfigProvider) fetch(ctx context.Context, kind, circuitID, path string) ([]byte, error) {
	url := p.baseURL + "/" + path
	if raw, err := p.cache.Get(url); err == nil {
		return raw, nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		common.Log.Warningf("failed to read zk artifact cache for %s; %s", url, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for circuit %s; %s", kind, circuitID, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch %s for circuit %s; received status %d", kind, circuitID, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s for circuit %s; %s", kind, circuitID, err.Error())
	}

	if err := p.cache.Set(url, raw); err != nil {
		common.Log.Warningf("failed to cache zk artifact %s; %s", url, err.Error())
	}
	return raw, nil
}

func (p *FetchZKConfigProvider) Get(ctx context.Context, circuitID string) (*state.ZKConfig, error) {
	return getZKConfig(ctx, p, circuitID)
}

func (p *FetchZKConfigProvider) GetProverKey(ctx context.Context, circuitID string) ([]byte, error) {
	return p.fetch(ctx, "prover key", circuitID, "keys/"+circuitID+".prover")
}

func (p *FetchZKConfigProvider) GetVerifierKey(ctx context.Context, circuitID string) (state.VerifierKey, error) {
	vk, err := p.fetch(ctx, "verifier key", circuitID, "keys/"+circuitID+".verifier")
	if err != nil {
		return nil, err
	}
	return state.VerifierKey(vk), nil
}

func (p *FetchZKConfigProvider) GetVerifierKeys(ctx context.Context, circuitIDs []string) (map[string]state.VerifierKey, error) {
	return getVerifierKeys(ctx, p, circuitIDs)
}

func (p *FetchZKConfigProvider) GetZKIR(ctx context.Context, circuitID string) ([]byte, error) {
	return p.fetch(ctx, "zkir", circuitID, "zkir/"+circuitID+".bzkir")
}
