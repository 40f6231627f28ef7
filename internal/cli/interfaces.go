package cli

import (
	"github.com/cupcakedapp/cupcake/internal/config"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/service/balance"
	"github.com/cupcakedapp/cupcake/internal/service/transaction"
	"github.com/cupcakedapp/cupcake/internal/service/wallet"
)

// Compile-time interface checks.
var (
	_ LogWriter      = (*config.Logger)(nil)
	_ LogWriter      = (*output.DebugLog)(nil)
	_ FormatProvider = (*output.Formatter)(nil)

	_ wallet.Display          = (*output.Console)(nil)
	_ balance.Sink            = (*output.Console)(nil)
	_ transaction.Sink        = (*output.Console)(nil)
	_ transaction.Session     = (*wallet.Session)(nil)
	_ wallet.InflightResetter = (*transaction.Guard)(nil)
)

// LogWriter provides logging capabilities.
// This interface enables mocking logging in tests.
type LogWriter interface {
	// Debug logs a debug-level message.
	Debug(format string, args ...any)

	// Error logs an error-level message.
	Error(format string, args ...any)
}

// FormatProvider provides output format information.
// This interface enables mocking output formatting in tests.
type FormatProvider interface {
	// Format returns the current output format.
	Format() output.Format
}
