package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cupcakedapp/cupcake/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]config.LogLevel{
		"off":     config.LogLevelOff,
		"none":    config.LogLevelOff,
		"error":   config.LogLevelError,
		" DEBUG ": config.LogLevelDebug,
		"bogus":   config.LogLevelError,
	}
	for in, want := range tests {
		assert.Equal(t, want, config.ParseLogLevel(in), in)
	}
	assert.Equal(t, "debug", config.LogLevelDebug.String())
	assert.Equal(t, "off", config.LogLevelOff.String())
	assert.Equal(t, "error", config.LogLevel(99).String())
}

func TestNewLogger_OffOrEmptyPathWritesNothing(t *testing.T) {
	t.Parallel()

	logger, err := config.NewLogger(config.LogLevelOff, filepath.Join(t.TempDir(), "never.log"))
	require.NoError(t, err)
	assert.Empty(t, logger.Path())
	logger.Error("dropped")
	require.NoError(t, logger.Close())

	logger, err = config.NewLogger(config.LogLevelDebug, "")
	require.NoError(t, err)
	logger.Debug("dropped")
	require.NoError(t, logger.Close())
}

func TestLogger_WritesAndFilters(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logs", "cupcake.log")

	logger, err := config.NewLogger(config.LogLevelError, path)
	require.NoError(t, err)
	assert.Equal(t, path, logger.Path())

	logger.Debug("hidden %d", 1)
	logger.Error("send failed: %s", "boom")
	logger.SetLevel(config.LogLevelDebug)
	assert.Equal(t, config.LogLevelDebug, logger.Level())
	logger.Debug("visible %d", 2)
	require.NoError(t, logger.Close())
	require.NoError(t, logger.Close())

	content := readLogFile(t, path)
	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, "[ERROR] send failed: boom")
	assert.Contains(t, content, "[DEBUG] visible 2")
	assert.Len(t, strings.Split(strings.TrimSpace(content), "\n"), 2)
}

func TestNewLoggerFromConfig_VerboseRaisesLevel(t *testing.T) {
	t.Parallel()

	cfg := config.LoggingConfig{Level: "error", File: filepath.Join(t.TempDir(), "c.log")}
	logger, err := config.NewLoggerFromConfig(cfg, true)
	require.NoError(t, err)
	defer func() { _ = logger.Close() }()
	assert.Equal(t, config.LogLevelDebug, logger.Level())

	cfg.Level = "off"
	off, err := config.NewLoggerFromConfig(cfg, true)
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelOff, off.Level())
}

func TestNullLogger(t *testing.T) {
	t.Parallel()

	logger := config.NullLogger()
	logger.Error("nothing")
	assert.Equal(t, config.LogLevelOff, logger.Level())
	require.NoError(t, logger.Close())
}

func TestLogger_Concurrent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "c.log")

	logger, err := config.NewLogger(config.LogLevelDebug, path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Debug("line %d", n)
		}(i)
	}
	wg.Wait()
	require.NoError(t, logger.Close())

	assert.Len(t, strings.Split(strings.TrimSpace(readLogFile(t, path)), "\n"), 10)
}

// #nosec G304 -- test helper with controlled paths from t.TempDir()
func readLogFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}
