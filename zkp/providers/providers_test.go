package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/provideplatform/counter/env"
	"github.com/provideplatform/counter/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unprovenTx() *state.UnprovenTransaction {
	return &state.UnprovenTransaction{Transaction: state.Transaction{
		Kind:    state.TxKindCall,
		Circuit: "increment",
		Nonce:   []byte{1, 2, 3},
	}}
}

func writeArtifacts(t *testing.T, dir, circuit string) {
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "keys"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "zkir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys", circuit+".prover"), []byte("pk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys", circuit+".verifier"), []byte("vk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zkir", circuit+".bzkir"), []byte("ir"), 0o644))
}

func TestFileZKConfigProvider(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, "increment")

	p := InitFileZKConfigProvider(env.Server(), dir)

	cfg, err := p.Get(context.Background(), "increment")
	require.NoError(t, err)
	assert.Equal(t, "increment", cfg.CircuitID)
	assert.Equal(t, []byte("pk"), cfg.ProverKey)
	assert.Equal(t, state.VerifierKey("vk"), cfg.VerifierKey)
	assert.Equal(t, []byte("ir"), cfg.ZKIR)

	keys, err := p.GetVerifierKeys(context.Background(), []string{"increment"})
	require.NoError(t, err)
	assert.Equal(t, map[string]state.VerifierKey{"increment": state.VerifierKey("vk")}, keys)

	_, err = p.GetProverKey(context.Background(), "decrement")
	assert.ErrorContains(t, err, "decrement")
}

func TestFileZKConfigProviderBrowserFailsClosed(t *testing.T) {
	p := InitFileZKConfigProvider(env.Browser(), "/contract/managed/counter")
	_, err := p.Get(context.Background(), "increment")
	assert.ErrorContains(t, err, env.ErrUnsupported.Error())
}

func TestFetchZKConfigProviderCaches(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/keys/increment.prover":
			w.Write([]byte("pk"))
		case "/keys/increment.verifier":
			w.Write([]byte("vk"))
		case "/zkir/increment.bzkir":
			w.Write([]byte("ir"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p, err := InitFetchZKConfigProvider(server.URL+"/", nil)
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 3; i++ {
		cfg, err := p.Get(context.Background(), "increment")
		require.NoError(t, err)
		assert.Equal(t, state.VerifierKey("vk"), cfg.VerifierKey)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	_, err = p.GetZKIR(context.Background(), "missing")
	assert.ErrorContains(t, err, "404")
}

func TestNoopProviders(t *testing.T) {
	_, err := NoopProofProvider{}.ProveTx(context.Background(), unprovenTx(), nil)
	assert.EqualError(t, err, "Proof server not available")

	var zk NoopZKConfigProvider
	_, err = zk.Get(context.Background(), "increment")
	assert.EqualError(t, err, "Not implemented")
	_, err = zk.GetVerifierKeys(context.Background(), []string{"increment"})
	assert.ErrorIs(t, err, ErrNotImplemented)
}

func TestHTTPProofProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/prove-tx":
			var req proveTxRequest
			if !assert.NoError(t, cbor.NewDecoder(r.Body).Decode(&req)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			assert.Equal(t, "increment", req.ZKConfig.CircuitID)
			req.Tx.Proof = []byte("proof")
			raw, _ := cbor.Marshal(req.Tx)
			w.Write(raw)
		}
	}))
	defer server.Close()

	p := InitHTTPProofProvider(server.URL)
	require.NoError(t, p.Health(context.Background()))

	proven, err := p.ProveTx(context.Background(), unprovenTx(), &state.ZKConfig{CircuitID: "increment"})
	require.NoError(t, err)
	assert.Equal(t, []byte("proof"), proven.Proof)
	assert.Equal(t, "increment", proven.Circuit)

	server.Close()
	assert.Error(t, p.Health(context.Background()))
	_, err = p.ProveTx(context.Background(), unprovenTx(), nil)
	assert.ErrorContains(t, err, "failed to reach proof server")
}

func TestNotifyingProofProvider(t *testing.T) {
	events := make([]ProofEvent, 0)
	var doneErr error
	callback := func(event ProofEvent, address state.ContractAddress, circuitID string, err error) {
		assert.Equal(t, "increment", circuitID)
		assert.Equal(t, unprovenTx().ContractAddress, address)
		events = append(events, event)
		if event == ProveTxDone {
			doneErr = err
		}
	}

	_, err := WithProofNotifications(NoopProofProvider{}, callback).ProveTx(context.Background(), unprovenTx(), nil)
	assert.True(t, errors.Is(err, ErrProofServerUnavailable))
	assert.Equal(t, []ProofEvent{ProveTxStarted, ProveTxDone}, events)
	assert.ErrorIs(t, doneErr, ErrProofServerUnavailable)
}

func TestAgeProver(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}

	cutoff := time.Date(2008, time.October, 17, 0, 0, 0, 0, time.UTC)
	subject, err := state.NewCredentialSubject("Alice", "Liddell", cutoff.AddDate(-2, 0, 0))
	require.NoError(t, err)

	prover := InitAgeProver(nil)
	proof, err := prover.Prove(subject, cutoff)
	require.NoError(t, err)
	require.NoError(t, prover.Verify(proof))

	tampered := *proof
	tampered.Cutoff = cutoff.AddDate(-10, 0, 0).UnixMilli()
	assert.Error(t, prover.Verify(&tampered))

	minor, err := state.NewCredentialSubject("Bob", "Minor", cutoff.Add(time.Hour))
	require.NoError(t, err)
	_, err = prover.Prove(minor, cutoff)
	assert.ErrorIs(t, err, ErrNotOfAge)

	vk, err := InitGnarkCircuitProvider().VerifierKey(GnarkCircuitIdentifierAge)
	require.NoError(t, err)
	assert.NotEmpty(t, vk)
}
