package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/provideplatform/counter/bootstrap"
	"github.com/provideplatform/counter/config"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	pterm.DisableStyling()
	os.Exit(m.Run())
}

var fixedNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

func runCLI(t *testing.T, opts bootstrap.Options, walletURL string, answers ...string) (string, error) {
	var out bytes.Buffer
	c := New(strings.NewReader(strings.Join(answers, "\n")+"\n"), &out)
	c.FundsInterval = 10 * time.Millisecond
	c.Now = func() time.Time { return fixedNow }

	if opts.StartDir == "" {
		opts.StartDir = t.TempDir()
	}
	err := c.Run(context.Background(), opts, walletURL)
	return out.String(), err
}

func simulated() bootstrap.Options {
	return bootstrap.Options{Profile: config.ProfileStandalone, Simulate: true}
}

func TestDeployIncrementDisplay(t *testing.T) {
	out, err := runCLI(t, simulated(), "", "1", "1", "2", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "Deploying counter contract...")
	assert.Contains(t, out, "Deployed contract at address: ")
	assert.Contains(t, out, "added in block")
	assert.Contains(t, out, "Current counter value: 1")
	assert.Contains(t, out, "Exiting...")
}

func TestCredentialAndAgeCheck(t *testing.T) {
	out, err := runCLI(t, simulated(), "",
		"1",
		"4",
		"3", "alice", "liddell", "1990-06-01",
		"4",
		"3", "bob", "builder", "2015-01-01",
		"4",
		"5",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "No identity credential registered")
	assert.Contains(t, out, "Registered credential for alice liddell")
	assert.Contains(t, out, "You are at least 18 years old.")
	assert.Contains(t, out, "You are not yet 18 years old.")
}

func TestInvalidBirthDate(t *testing.T) {
	out, err := runCLI(t, simulated(), "", "1", "3", "alice", "liddell", "01/06/1990", "5")
	require.NoError(t, err)
	assert.Contains(t, out, `invalid birth date "01/06/1990"`)
}

func TestInvalidChoice(t *testing.T) {
	out, err := runCLI(t, simulated(), "", "7", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Invalid choice: 7")
	assert.Contains(t, out, "Exiting...")
}

func TestJoinUnknownContract(t *testing.T) {
	out, err := runCLI(t, simulated(), "", "2", strings.Repeat("ab", 32))
	require.Error(t, err)
	assert.Contains(t, out, "Found error")
}

func TestEndOfInputExits(t *testing.T) {
	out, err := runCLI(t, simulated(), "", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Exiting...")
}

func TestWalletMenuExit(t *testing.T) {
	out, err := runCLI(t, bootstrap.Options{Profile: config.ProfileTestnetRemote}, "", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Build wallet from a seed")
	assert.Contains(t, out, "Exiting...")
}

func TestWalletFromSeed(t *testing.T) {
	t.Setenv("PRIVATE_STATE_PROVIDER", "memory")

	var mutex sync.Mutex
	var restoredSeed string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params map[string]string `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Method == "wallet_restore" {
			mutex.Lock()
			restoredSeed = req.Params["seed"]
			mutex.Unlock()
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"address":               "wallet1",
				"coin_public_key":       "aa",
				"encryption_public_key": "bb",
				"balance":               100,
				"synced":                true,
			},
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, bootstrap.Options{Profile: config.ProfileTestnetLocal}, srv.URL, "2", "deadbeef", "3")
	require.NoError(t, err)

	mutex.Lock()
	assert.Equal(t, "deadbeef", restoredSeed)
	mutex.Unlock()
	assert.Contains(t, out, "Your wallet address is: wallet1")
	assert.Contains(t, out, "Your wallet balance is: 100")
	assert.Contains(t, out, "Deploy a new counter contract")
}

func TestCommandRejectsUnknownProfile(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCommand(strings.NewReader(""), &out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--profile", "mainnet"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}

func TestCommandSimulate(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCommand(strings.NewReader("1\n2\n5\n"), &out)
	cmd.SetArgs([]string{"--simulate"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Current counter value: 0")
}
