package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"zondwallet/pkg/config"
	"zondwallet/pkg/models"
	"zondwallet/pkg/secret"
	"zondwallet/pkg/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testAddress = "0x1111111111111111111111111111111111111111"

// writeTestConfig points every network at a closed local port so commands
// run against an unreachable node.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Default()
	cfg.Networks = []models.Network{
		{ID: "DEV", Name: "Local", RPCURL: "http://127.0.0.1:1", Symbol: "ZND"},
		{ID: "TEST_NET", Name: "Testnet", RPCURL: "http://127.0.0.1:1", Symbol: "ZND"},
	}
	cfg.DefaultNetwork = "DEV"
	cfg.RPCTimeoutSeconds = 2
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}

func run(t *testing.T, path string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader("")
	app.ExitErrHandler = func(*cli.Context, error) {}
	argv := append([]string{"zondwallet", "--config", path, "--log-level", "error"}, args...)
	err := app.Run(argv)
	return out.String(), err
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")

	out, err := run(t, path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration written")

	_, err = run(t, path, "config", "init")
	assert.Error(t, err)

	_, err = run(t, path, "config", "init", "--force")
	require.NoError(t, err)

	_, err = run(t, path, "config", "restore")
	assert.NoError(t, err)
}

func TestAccountsCommands(t *testing.T) {
	path := writeTestConfig(t)

	out, err := run(t, path, "accounts", "add", testAddress)
	require.NoError(t, err)
	assert.Contains(t, out, testAddress)
	assert.Contains(t, out, "(unavailable)")

	_, err = run(t, path, "accounts", "use", testAddress)
	require.NoError(t, err)

	out, err = run(t, path, "accounts", "list", "--json")
	require.NoError(t, err)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.False(t, snap.Connection.IsConnected)
	assert.Equal(t, testAddress, snap.ActiveAccount)
	require.Len(t, snap.Accounts.Accounts, 1)
	assert.Equal(t, "0.0 ZND", snap.Accounts.Accounts[0].Balance)
	assert.Equal(t, models.BalanceUnavailable, snap.Accounts.Accounts[0].Status)

	out, err = run(t, path, "accounts", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Active account cleared")

	_, err = run(t, path, "accounts", "add", "not-an-address")
	assert.True(t, errors.Is(err, wallet.ErrInvalidAddress))

	_, err = run(t, path, "accounts", "add")
	assert.Error(t, err)
}

func TestAccountsNewMnemonic(t *testing.T) {
	path := writeTestConfig(t)

	out, err := run(t, path, "accounts", "new-mnemonic")
	require.NoError(t, err)
	phrase := strings.TrimSpace(out)
	assert.Len(t, strings.Fields(phrase), 24)
	_, err = secret.Bip39{}.DeriveSecret(phrase)
	assert.NoError(t, err)

	out, err = run(t, path, "accounts", "new-mnemonic", "--json")
	require.NoError(t, err)
	var res map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, strings.Fields(res["mnemonic"]), 24)
	assert.NotEqual(t, phrase, res["mnemonic"])
}

func TestNetworkCommands(t *testing.T) {
	path := writeTestConfig(t)

	_, err := run(t, path, "network", "switch", "MISSING")
	assert.True(t, errors.Is(err, wallet.ErrUnknownNetwork))

	_, err = run(t, path, "network", "switch", "TEST_NET")
	require.NoError(t, err)

	out, err := run(t, path, "network", "show", "--json")
	require.NoError(t, err)
	var resp struct {
		Connection models.ConnectionState `json:"connection"`
		Networks   []models.Network       `json:"networks"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "TEST_NET", resp.Connection.NetworkID)
	assert.Len(t, resp.Networks, 2)
}

func TestCheckCommand_Unreachable(t *testing.T) {
	path := writeTestConfig(t)

	out, err := run(t, path, "check", "--json")
	assert.Error(t, err)

	var report models.CheckReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Healthy)
	assert.Equal(t, path, report.ConfigPath)
	require.Len(t, report.Networks, 2)
	assert.NotEmpty(t, report.Networks[0].Error)
}

func TestSendCommand_RequiresActiveAccount(t *testing.T) {
	path := writeTestConfig(t)

	_, err := run(t, path, "send", "--to", testAddress, "--amount", "1")
	assert.True(t, errors.Is(err, wallet.ErrNoActiveAccount))
}

func TestTokenCommand_Unavailable(t *testing.T) {
	path := writeTestConfig(t)

	_, err := run(t, path, "token", testAddress)
	assert.True(t, errors.Is(err, wallet.ErrTokenUnavailable))
}
