// Package chain provides network definitions and amount helpers shared by the
// wallet provider, the network guard, and the display.
package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Currency describes a network's native currency as wallets expect it in
// wallet_addEthereumChain.
type Currency struct {
	Name     string `yaml:"name" json:"name"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals int    `yaml:"decimals" json:"decimals"`
}

// Network is the definition of an EVM chain the wallet can be asked to
// switch to or register.
type Network struct {
	ID             *big.Int
	Name           string
	NativeCurrency Currency
	RPCURLs        []string
	ExplorerURLs   []string
}

// ArbitrumSepoliaChainID is the numeric chain id of Arbitrum Sepolia (0x66eee).
const ArbitrumSepoliaChainID = 421614

// ArbitrumSepolia returns the built-in Arbitrum Sepolia definition.
func ArbitrumSepolia() Network {
	return Network{
		ID:   big.NewInt(ArbitrumSepoliaChainID),
		Name: "Arbitrum Sepolia",
		NativeCurrency: Currency{
			Name:     "Ether",
			Symbol:   "ETH",
			Decimals: 18,
		},
		RPCURLs:      []string{"https://sepolia-rollup.arbitrum.io/rpc"},
		ExplorerURLs: []string{"https://sepolia.arbiscan.io/"},
	}
}

// HexID returns the chain id as a 0x-prefixed lowercase quantity (e.g. "0x66eee").
func (n Network) HexID() string {
	if n.ID == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(n.ID)
}

// Matches reports whether id is this network's chain id.
func (n Network) Matches(id *big.Int) bool {
	return n.ID != nil && id != nil && n.ID.Cmp(id) == 0
}

// DisplayName renders the network the way the UI shows it.
func (n Network) DisplayName() string {
	return fmt.Sprintf("%s (chainId: %s)", n.Name, n.ID)
}

// ExplorerTxURL returns a block explorer link for a transaction hash, or an
// empty string when the network has no explorer configured.
func (n Network) ExplorerTxURL(hash string) string {
	if len(n.ExplorerURLs) == 0 || n.ExplorerURLs[0] == "" {
		return ""
	}
	return strings.TrimSuffix(n.ExplorerURLs[0], "/") + "/tx/" + hash
}

// ParseChainID accepts a decimal ("421614") or 0x-prefixed hex ("0x66eee")
// chain id.
func ParseChainID(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		digits := strings.ToLower(strings.TrimLeft(s[2:], "0"))
		if digits == "" {
			digits = "0"
		}
		return hexutil.DecodeBig("0x" + digits)
	}
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("invalid chain id %q", s)
	}
	return id, nil
}
