// Package config provides configuration management for Cupcake.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/fileutil"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version     int               `yaml:"version"`
	Home        string            `yaml:"home"`
	Provider    ProviderConfig    `yaml:"provider"`
	Network     NetworkConfig     `yaml:"network"`
	Contract    ContractConfig    `yaml:"contract"`
	Transaction TransactionConfig `yaml:"transaction"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ProviderConfig defines how the wallet provider endpoint is reached.
type ProviderConfig struct {
	URL           string        `yaml:"url"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	RateLimit     float64       `yaml:"rate_limit"`
	Burst         int           `yaml:"burst"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
}

// NetworkConfig is the chain the wallet must be on.
type NetworkConfig struct {
	ChainID        string         `yaml:"chain_id"`
	Name           string         `yaml:"name"`
	NativeCurrency chain.Currency `yaml:"native_currency"`
	RPCURLs        []string       `yaml:"rpc_urls"`
	ExplorerURLs   []string       `yaml:"explorer_urls"`
}

// ContractConfig identifies the Cupcake contract.
type ContractConfig struct {
	Address string `yaml:"address"`
}

// TransactionConfig bounds the confirmation wait.
type TransactionConfig struct {
	ConfirmationTimeout time.Duration `yaml:"confirmation_timeout"`
	ReceiptPollInterval time.Duration `yaml:"receipt_poll_interval"`
}

// OutputConfig defines output formatting settings.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
	Color         string `yaml:"color"`
	Verbose       bool   `yaml:"verbose"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level          string `yaml:"level"`
	File           string `yaml:"file"`
	DebugPanelSize int    `yaml:"debug_panel_size"`
}

// Load reads configuration from the specified file. Missing keys keep
// their defaults.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, cerr.WithDetails(cerr.ErrConfigNotFound, map[string]string{"path": path})
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, cerr.WithCause(cerr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// DefaultHome returns the default cupcake home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cupcake"
	}
	return filepath.Join(home, ".cupcake")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks the configuration for values the application cannot
// work with.
func (c *Config) Validate() error {
	if c.Provider.URL != "" {
		u, err := url.Parse(c.Provider.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("provider.url", c.Provider.URL, "an http(s) URL")
		}
	}
	if c.Provider.PollInterval <= 0 {
		return invalid("provider.poll_interval", c.Provider.PollInterval.String(), "a positive duration")
	}
	if c.Provider.Burst < 0 {
		return invalid("provider.burst", fmt.Sprint(c.Provider.Burst), "zero or more")
	}
	if c.Provider.RetryAttempts < 0 {
		return invalid("provider.retry_attempts", fmt.Sprint(c.Provider.RetryAttempts), "zero or more")
	}
	if _, err := c.ChainNetwork(); err != nil {
		return err
	}
	if !common.IsHexAddress(c.Contract.Address) {
		return invalid("contract.address", c.Contract.Address, "a 0x-prefixed 20 byte address")
	}
	if c.Transaction.ConfirmationTimeout <= 0 {
		return invalid("transaction.confirmation_timeout", c.Transaction.ConfirmationTimeout.String(), "a positive duration")
	}
	switch c.Output.DefaultFormat {
	case "text", "json", "auto":
	default:
		return invalid("output.default_format", c.Output.DefaultFormat, "text, json, or auto")
	}
	return nil
}

// ChainNetwork returns the configured network definition.
func (c *Config) ChainNetwork() (chain.Network, error) {
	id, err := chain.ParseChainID(c.Network.ChainID)
	if err != nil || id.Sign() <= 0 {
		return chain.Network{}, invalid("network.chain_id", c.Network.ChainID, "a positive decimal or 0x-prefixed chain id")
	}
	if c.Network.Name == "" {
		return chain.Network{}, invalid("network.name", "", "a display name")
	}
	if c.Network.NativeCurrency.Symbol == "" || c.Network.NativeCurrency.Decimals <= 0 {
		return chain.Network{}, invalid("network.native_currency", c.Network.NativeCurrency.Symbol, "a symbol and positive decimals")
	}
	return chain.Network{
		ID:             id,
		Name:           c.Network.Name,
		NativeCurrency: c.Network.NativeCurrency,
		RPCURLs:        c.Network.RPCURLs,
		ExplorerURLs:   c.Network.ExplorerURLs,
	}, nil
}

// ContractAddress returns the configured contract address.
func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Contract.Address)
}

// RetryConfig returns the read retry policy for the provider.
func (c *Config) RetryConfig() chain.RetryConfig {
	rc := chain.DefaultRetryConfig()
	rc.MaxAttempts = c.Provider.RetryAttempts
	return rc
}

func invalid(key, value, want string) error {
	return cerr.WithDetails(cerr.ErrConfigInvalid, map[string]string{
		"key":   key,
		"value": value,
		"want":  want,
	})
}
