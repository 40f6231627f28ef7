package balance

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NativeReader reads native-currency balances.
// Satisfied by *provider.Wallet.
type NativeReader interface {
	GetBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// TokenReader reads contract-tracked balances.
// Satisfied by *contract.Contract.
type TokenReader interface {
	CupcakeBalance(ctx context.Context, account common.Address) (*big.Int, error)
}

// Sink receives balance updates and fetch errors.
// Satisfied by *output.Console.
type Sink interface {
	SetNativeBalance(text string)
	SetTokenBalance(text string)
	SetError(text string)
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}
