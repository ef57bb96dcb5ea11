package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/provideplatform/counter/common"
	"github.com/provideplatform/counter/state"
)

const defaultProofServerTimeout = 5 * time.Minute

type proveTxRequest struct {
	Tx       *state.Transaction `cbor:"tx"`
	ZKConfig *state.ZKConfig    `cbor:"zk_config,omitempty"`
}

// HTTPProofProvider delegates proving to a proof server
type HTTPProofProvider struct {
	url    string
	client *http.Client
}

// InitHTTPProofProvider returns a proof provider for the proof server at url
func InitHTTPProofProvider(url string) *HTTPProofProvider {
	return &HTTPProofProvider{
		url:    strings.TrimRight(url, "/"),
		client: &http.Client{Timeout: defaultProofServerTimeout},
	}
}

// URL returns the proof server base url
func (p *HTTPProofProvider) URL() string {
	return p.url
}

// ProveTx posts the unproven transaction and its circuit artifacts to the proof server
func (p *HTTPProofProvider) ProveTx(ctx context.Context, tx *state.UnprovenTransaction, zkConfig *state.ZKConfig) (*state.UnbalancedTransaction, error) {
	body, err := cbor.Marshal(&proveTxRequest{Tx: &tx.Transaction, ZKConfig: zkConfig})
	if err != nil {
		return nil, fmt.Errorf("failed to encode prove-tx request; %s", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/prove-tx", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/cbor")

	resp, err := p.client.Do(req)
	if err != nil {
		common.Log.Warningf("failed to reach proof server at %s; %s", p.url, err.Error())
		return nil, fmt.Errorf("failed to reach proof server; %s", err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read proof server response; %s", err.Error())
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to prove transaction; proof server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var proven state.Transaction
	if err := cbor.Unmarshal(raw, &proven); err != nil {
		return nil, fmt.Errorf("failed to decode proven transaction; %s", err.Error())
	}
	return &state.UnbalancedTransaction{Transaction: proven}, nil
}

// Health checks that the proof server is reachable
func (p *HTTPProofProvider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("proof server at %s is unreachable; %s", p.url, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("proof server at %s is unhealthy; received status %d", p.url, resp.StatusCode)
	}
	return nil
}
