package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/provideplatform/counter/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	for _, p := range Profiles() {
		parsed, err := ParseProfile(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParseProfile("mainnet")
	assert.Error(t, err)
}

func TestResolveProfiles(t *testing.T) {
	dir := t.TempDir()

	standalone, err := Resolve(env.Server(), ProfileStandalone, dir)
	require.NoError(t, err)
	assert.Equal(t, NetworkIDUndeployed, standalone.NetworkID)
	assert.Equal(t, "http://127.0.0.1:8088/api/v1/graphql", standalone.Indexer)
	assert.Equal(t, "ws://127.0.0.1:8088/api/v1/graphql/ws", standalone.IndexerWS)
	assert.Equal(t, "http://127.0.0.1:9944", standalone.Node)
	assert.Equal(t, "http://127.0.0.1:6300", standalone.ProofServer)
	assert.Equal(t, PrivateStateStoreName, standalone.PrivateStateStoreName)

	local, err := Resolve(env.Server(), ProfileTestnetLocal, dir)
	require.NoError(t, err)
	assert.Equal(t, NetworkIDTestnet, local.NetworkID)
	assert.Equal(t, standalone.Indexer, local.Indexer)

	remote, err := Resolve(env.Server(), ProfileTestnetRemote, dir)
	require.NoError(t, err)
	assert.Equal(t, NetworkIDTestnet, remote.NetworkID)
	assert.Equal(t, "https://indexer.testnet-02.midnight.network/api/v1/graphql", remote.Indexer)
	assert.Equal(t, "wss://indexer.testnet-02.midnight.network/api/v1/graphql/ws", remote.IndexerWS)
	assert.Equal(t, "https://rpc.testnet-02.midnight.network", remote.Node)
	assert.Equal(t, "http://127.0.0.1:6300", remote.ProofServer)
	assert.Equal(t, "trace", remote.LoggingLevel)

	_, err = Resolve(env.Server(), Profile("unknown"), dir)
	assert.Error(t, err)
}

func TestResolveUsesWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module "+ModulePath+"\n\ngo 1.24\n"), 0o644))
	nested := filepath.Join(root, "cmd", "counter-cli")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Resolve(env.Server(), ProfileStandalone, nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ContractArtifactsDir), cfg.ZKConfigPath)
	assert.True(t, strings.HasPrefix(cfg.LogDir, filepath.Join(root, "logs", "standalone")))
	assert.True(t, strings.HasSuffix(cfg.LogDir, ".log"))
}

func TestFindWorkspaceRoot(t *testing.T) {
	t.Run("go.work", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "go.work"), []byte("go 1.24\n"), 0o644))
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		assert.Equal(t, root, FindWorkspaceRoot(env.Server(), nested))
	})

	t.Run("artifacts directory", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ContractArtifactsDir), 0o755))
		nested := filepath.Join(root, "cli")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		assert.Equal(t, root, FindWorkspaceRoot(env.Server(), nested))
	})

	t.Run("foreign module is not a root", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/other\n"), 0o644))
		nested := filepath.Join(root, "pkg")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		assert.Equal(t, nested, FindWorkspaceRoot(env.Server(), nested))
	})

	t.Run("browser", func(t *testing.T) {
		assert.Equal(t, "/workspace", FindWorkspaceRoot(env.Browser(), "/anything"))
	})
}

func TestResolveBrowser(t *testing.T) {
	cfg, err := Resolve(env.Browser(), ProfileTestnetLocal, "")
	require.NoError(t, err)
	assert.Equal(t, "/contract/managed/counter", cfg.ZKConfigPath)
	assert.Equal(t, "/workspace/logs/testnet-local", cfg.LogDir)
}

func TestResolveEnvironmentOverrides(t *testing.T) {
	t.Setenv("INDEXER_URL", "http://indexer.local/graphql")
	t.Setenv("PROOF_SERVER_URL", "http://prover.local:6300")

	cfg, err := Resolve(env.Server(), ProfileTestnetRemote, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "http://indexer.local/graphql", cfg.Indexer)
	assert.Equal(t, "http://prover.local:6300", cfg.ProofServer)
	assert.Equal(t, "https://rpc.testnet-02.midnight.network", cfg.Node)
}
