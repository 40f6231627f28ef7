package config

import (
	"time"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/contract"
)

// DefaultProviderURL is where a local wallet daemon or signer proxy listens.
const DefaultProviderURL = "http://127.0.0.1:1248"

// Defaults returns the default configuration.
func Defaults() *Config {
	network := chain.ArbitrumSepolia()

	return &Config{
		Version: 1,
		Home:    "~/.cupcake",
		Provider: ProviderConfig{
			URL:           DefaultProviderURL,
			PollInterval:  4 * time.Second,
			RateLimit:     10,
			Burst:         5,
			Timeout:       30 * time.Second,
			RetryAttempts: 3,
		},
		Network: NetworkConfig{
			ChainID:        network.HexID(),
			Name:           network.Name,
			NativeCurrency: network.NativeCurrency,
			RPCURLs:        network.RPCURLs,
			ExplorerURLs:   network.ExplorerURLs,
		},
		Contract: ContractConfig{
			Address: contract.DefaultAddress,
		},
		Transaction: TransactionConfig{
			ConfirmationTimeout: 5 * time.Minute,
			ReceiptPollInterval: 2 * time.Second,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
		},
		Logging: LoggingConfig{
			Level:          "error",
			File:           "~/.cupcake/cupcake.log",
			DebugPanelSize: 8000,
		},
	}
}
