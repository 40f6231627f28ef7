package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// contextWithTimeout bounds a single provider read made by a command. A
// non-positive d leaves the command context unbounded but still cancelable.
func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(commandContext(cmd))
	}
	return context.WithTimeout(commandContext(cmd), d)
}
