package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cupcakedapp/cupcake/internal/config"
	"github.com/cupcakedapp/cupcake/internal/metrics"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/provider/providertest"
)

//nolint:gochecknoglobals // test fixtures
var (
	testAccount  = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	otherAccount = common.HexToAddress("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	testTxHash   = common.HexToHash("0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060")

	// wordOne is an ABI encoded uint256 / bool true.
	wordOne = "0x" + strings.Repeat("0", 63) + "1"
)

// saveGlobals snapshots the package state a command touches and returns a
// function restoring it.
func saveGlobals(t *testing.T) func() {
	t.Helper()

	oldCfg, oldLogger, oldFormatter, oldCtx := cfg, logger, formatter, cmdCtx
	oldHome, oldOutput, oldVerbose, oldProvider := homeDir, outputFormat, verbose, providerURL
	oldGiveTo, oldGiveQR, oldForce := giveTo, giveQR, configForce

	return func() {
		cfg, logger, formatter, cmdCtx = oldCfg, oldLogger, oldFormatter, oldCtx
		homeDir, outputFormat, verbose, providerURL = oldHome, oldOutput, oldVerbose, oldProvider
		giveTo, giveQR, configForce = oldGiveTo, oldGiveQR, oldForce
	}
}

// setupTestEnv installs a test configuration and a command context backed
// by stub. A nil stub leaves the context without a provider. Tests using it
// must not run in parallel.
func setupTestEnv(t *testing.T, stub *providertest.Stub, format output.Format) *CommandContext {
	t.Helper()
	t.Cleanup(saveGlobals(t))

	cfg = config.Defaults()
	cfg.Home = t.TempDir()
	cfg.Provider.RetryAttempts = 1
	cfg.Provider.PollInterval = 10 * time.Millisecond
	cfg.Transaction.ReceiptPollInterval = time.Millisecond
	cfg.Transaction.ConfirmationTimeout = 5 * time.Second
	logger = config.NullLogger()
	formatter = output.NewFormatter(format, io.Discard)
	giveTo, giveQR, configForce = "", false, false

	opts := []ContextOption{WithMetricsRegistry(&metrics.Metrics{})}
	if stub != nil {
		opts = append(opts, WithRequester(stub))
	} else {
		cfg.Provider.URL = ""
	}

	cc, err := NewCommandContext(cfg, logger, formatter, opts...)
	require.NoError(t, err)
	cmdCtx = cc
	return cc
}

// walletStub answers like a wallet on Arbitrum Sepolia holding 0.25 ETH and
// one cupcake.
func walletStub() *providertest.Stub {
	return providertest.New().
		Respond("eth_chainId", "0x66eee").
		Respond("eth_accounts", []string{testAccount.Hex()}).
		Respond("eth_requestAccounts", []string{testAccount.Hex()}).
		Respond("eth_getBalance", "0x3782dace9d90000").
		Respond("eth_call", wordOne)
}

// txStub is walletStub with a transaction mined in block 100 on the second
// receipt poll.
func txStub(status string) *providertest.Stub {
	return walletStub().
		Respond("eth_sendTransaction", testTxHash.Hex()).
		RespondSeq("eth_getTransactionReceipt", nil, receipt(status, "0x64"))
}

func receipt(status, block string) map[string]any {
	return map[string]any{
		"transactionHash": testTxHash.Hex(),
		"blockNumber":     block,
		"status":          status,
	}
}

// newTestCmd returns a command writing to a buffer.
func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetContext(context.Background())
	return cmd, buf
}

// safeBuffer is a bytes.Buffer safe to read while a loop writes to it.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
