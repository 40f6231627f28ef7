package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cupcakedapp/cupcake/internal/config"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := config.Defaults()
	cfg.Provider.URL = "http://localhost:8545"
	cfg.Transaction.ConfirmationTimeout = 90 * time.Second
	cfg.Output.Verbose = true

	require.NoError(t, config.Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider:\n  url: http://10.0.0.2:1248\ntransaction:\n  confirmation_timeout: 2m\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:1248", cfg.Provider.URL)
	assert.Equal(t, 2*time.Minute, cfg.Transaction.ConfirmationTimeout)
	assert.Equal(t, "0x66eee", cfg.Network.ChainID)
	assert.Equal(t, 4*time.Second, cfg.Provider.PollInterval)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, cerr.ErrConfigNotFound)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed"), 0o600))

	_, err := config.Load(path)
	require.ErrorIs(t, err, cerr.ErrConfigInvalid)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.cupcake", cfg.Home)
	assert.Equal(t, config.DefaultProviderURL, cfg.Provider.URL)
	assert.Equal(t, "0x66eee", cfg.Network.ChainID)
	assert.Equal(t, "Arbitrum Sepolia", cfg.Network.Name)
	assert.Equal(t, "ETH", cfg.Network.NativeCurrency.Symbol)
	assert.Equal(t, 18, cfg.Network.NativeCurrency.Decimals)
	assert.Equal(t, []string{"https://sepolia-rollup.arbitrum.io/rpc"}, cfg.Network.RPCURLs)
	assert.Equal(t, 5*time.Minute, cfg.Transaction.ConfirmationTimeout)
	assert.Equal(t, 8000, cfg.Logging.DebugPanelSize)
	assert.Equal(t, "auto", cfg.Output.DefaultFormat)
	require.NoError(t, cfg.Validate())
}

func TestChainNetwork(t *testing.T) {
	t.Parallel()

	cfg := config.Defaults()
	cfg.Network.ChainID = "421614"
	network, err := cfg.ChainNetwork()
	require.NoError(t, err)
	assert.Equal(t, "0x66eee", network.HexID())
	assert.Equal(t, "Arbitrum Sepolia (chainId: 421614)", network.DisplayName())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		key    string
	}{
		{"bad provider url", func(c *config.Config) { c.Provider.URL = "ftp://x" }, "provider.url"},
		{"zero poll interval", func(c *config.Config) { c.Provider.PollInterval = 0 }, "provider.poll_interval"},
		{"negative burst", func(c *config.Config) { c.Provider.Burst = -1 }, "provider.burst"},
		{"bad chain id", func(c *config.Config) { c.Network.ChainID = "zz" }, "network.chain_id"},
		{"zero chain id", func(c *config.Config) { c.Network.ChainID = "0x0" }, "network.chain_id"},
		{"no network name", func(c *config.Config) { c.Network.Name = "" }, "network.name"},
		{"no currency decimals", func(c *config.Config) { c.Network.NativeCurrency.Decimals = 0 }, "network.native_currency"},
		{"bad contract", func(c *config.Config) { c.Contract.Address = "0x1234" }, "contract.address"},
		{"no confirmation timeout", func(c *config.Config) { c.Transaction.ConfirmationTimeout = 0 }, "transaction.confirmation_timeout"},
		{"bad format", func(c *config.Config) { c.Output.DefaultFormat = "xml" }, "output.default_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, cerr.ErrConfigInvalid)
			var ce *cerr.CupcakeError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.key, ce.Details["key"])
		})
	}
}

func TestValidate_EmptyProviderURLAllowed(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Provider.URL = ""
	require.NoError(t, cfg.Validate())
}

func TestRetryConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	assert.Equal(t, 3, cfg.RetryConfig().MaxAttempts)

	cfg.Provider.RetryAttempts = 0
	assert.False(t, cfg.RetryConfig().Enabled())
}

func TestConfigPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("/home/user/.cupcake", "config.yaml"), config.Path("/home/user/.cupcake"))
}

func TestDefaultHome(t *testing.T) {
	t.Parallel()
	assert.Equal(t, ".cupcake", filepath.Base(config.DefaultHome()))
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x.log"), config.ExpandHome("~/x.log"))
	assert.Equal(t, "/abs/x.log", config.ExpandHome("/abs/x.log"))
}
