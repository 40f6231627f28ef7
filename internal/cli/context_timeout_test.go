package cli

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandContext_Fallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, context.Background(), commandContext(&cobra.Command{}))

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "run")
	cmd := &cobra.Command{}
	cmd.SetContext(ctx)
	assert.Equal(t, "run", commandContext(cmd).Value(key{}))
}

func TestContextWithTimeout_FollowsCommandContext(t *testing.T) {
	t.Parallel()

	parent, interrupt := context.WithCancel(context.Background())
	cmd := &cobra.Command{}
	cmd.SetContext(parent)

	ctx, cancel := contextWithTimeout(cmd, time.Minute)
	defer cancel()

	interrupt()

	select {
	case <-ctx.Done():
		require.ErrorIs(t, ctx.Err(), context.Canceled)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("provider read should stop when the command is interrupted")
	}
}

func TestContextWithTimeout_ProviderTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := contextWithTimeout(&cobra.Command{}, 20*time.Millisecond)
	defer cancel()

	select {
	case <-ctx.Done():
		require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("expected the provider timeout to fire")
	}
}

func TestContextWithTimeout_NoTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := contextWithTimeout(&cobra.Command{}, 0)

	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
	require.NoError(t, ctx.Err())

	cancel()
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
