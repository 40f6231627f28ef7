package transaction

import (
	"context"

	"github.com/cupcakedapp/cupcake/internal/contract"
)

// Session provides the bound contract handle and a balance refresh.
// Satisfied by *wallet.Session.
type Session interface {
	Bound() (*contract.Contract, bool)
	RefreshBalances(ctx context.Context)
}

// Sink receives status and error messages and the enabled state of the
// mutating actions. Satisfied by *output.Console.
type Sink interface {
	SetStatus(text string)
	SetError(text string)
	SetActionsEnabled(enabled bool)
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}
