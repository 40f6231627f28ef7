package network

import (
	"context"
	"math/big"

	"github.com/cupcakedapp/cupcake/internal/provider"
)

// Wallet provides the chain calls the guard makes.
// Satisfied by *provider.Wallet.
type Wallet interface {
	ChainID(ctx context.Context) (*big.Int, error)
	SwitchChain(ctx context.Context, hexChainID string) error
	AddChain(ctx context.Context, params provider.AddChainParams) error
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}
