package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/contract"
	"github.com/cupcakedapp/cupcake/internal/service/balance"
	"github.com/cupcakedapp/cupcake/internal/service/network"
)

// Provider is the wallet the session connects through.
// Satisfied by *provider.Wallet.
type Provider interface {
	contract.Backend
	RequestAccounts(ctx context.Context) ([]common.Address, error)
}

// NetworkGuard switches the wallet to the required chain.
// Satisfied by *network.Guard.
type NetworkGuard interface {
	Ensure(ctx context.Context, required chain.Network) (network.Action, error)
}

// BalanceRefresher loads the balances of the bound account. Invalidate
// drops results of refreshes started before the call.
// Satisfied by *balance.Sync.
type BalanceRefresher interface {
	Refresh(ctx context.Context, account common.Address, token balance.TokenReader) balance.Result
	Invalidate()
}

// InflightResetter clears the transaction in-flight guard.
// Satisfied by *transaction.Guard.
type InflightResetter interface {
	Reset()
}

// Display receives session state for the user.
// Satisfied by *output.Console.
type Display interface {
	SetStatus(text string)
	SetError(text string)
	SetAccount(text string)
	SetNetwork(text string)
	SetActionsEnabled(enabled bool)
	Reset()
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}
