// Package network makes sure the wallet is on the chain the application
// requires before anything else talks to it.
package network

import (
	"context"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/errnorm"
	"github.com/cupcakedapp/cupcake/internal/provider"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// Action reports what Ensure had to do.
type Action int

// Ensure actions.
const (
	AlreadyOn Action = iota
	Switched
	Added
)

func (a Action) String() string {
	switch a {
	case AlreadyOn:
		return "already on network"
	case Switched:
		return "switched network"
	case Added:
		return "added network"
	default:
		return "unknown"
	}
}

// Guard switches the wallet to the required chain, registering the chain
// first when the wallet does not know it.
type Guard struct {
	wallet Wallet
	logger LogWriter
}

// Config holds dependencies for the guard.
type Config struct {
	Wallet Wallet
	Logger LogWriter
}

// NewGuard creates a new network guard.
func NewGuard(cfg *Config) *Guard {
	return &Guard{
		wallet: cfg.Wallet,
		logger: cfg.Logger,
	}
}

// Ensure is idempotent: when the wallet is already on required it makes no
// wallet calls beyond reading the chain id. A rejected prompt returns
// ErrUserRejected; other failures return ErrNetworkSwitchFailed wrapping the
// provider error.
func (g *Guard) Ensure(ctx context.Context, required chain.Network) (Action, error) {
	if g.wallet == nil {
		return AlreadyOn, cerr.ErrProviderMissing
	}

	current, err := g.wallet.ChainID(ctx)
	if err != nil {
		g.logger.Error("eth_chainId error: %s", errnorm.Normalize(err))
		return AlreadyOn, errnorm.Classify(err, cerr.ErrNetworkSwitchFailed)
	}
	g.logger.Debug("current chainId: %s", current)

	if required.Matches(current) {
		return AlreadyOn, nil
	}

	hexID := required.HexID()
	g.logger.Debug("switching wallet from chainId %s to %s", current, hexID)

	err = g.wallet.SwitchChain(ctx, hexID)
	if err == nil {
		return Switched, nil
	}
	g.logger.Error("switch chain error: %s", errnorm.Normalize(err))

	if !provider.HasCode(err, provider.CodeUnrecognizedChain) {
		return AlreadyOn, errnorm.Classify(err, cerr.ErrNetworkSwitchFailed)
	}

	g.logger.Debug("wallet does not know %s, adding it", required.DisplayName())
	if err := g.wallet.AddChain(ctx, AddChainParams(required)); err != nil {
		g.logger.Error("add chain error: %s", errnorm.Normalize(err))
		return AlreadyOn, errnorm.Classify(err, cerr.ErrNetworkSwitchFailed)
	}
	return Added, nil
}

// AddChainParams builds the wallet_addEthereumChain payload for n.
func AddChainParams(n chain.Network) provider.AddChainParams {
	return provider.AddChainParams{
		ChainID:   n.HexID(),
		ChainName: n.Name,
		NativeCurrency: provider.NativeCurrency{
			Name:     n.NativeCurrency.Name,
			Symbol:   n.NativeCurrency.Symbol,
			Decimals: n.NativeCurrency.Decimals,
		},
		RPCURLs:           n.RPCURLs,
		BlockExplorerURLs: n.ExplorerURLs,
	}
}
