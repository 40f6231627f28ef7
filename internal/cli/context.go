package cli

import (
	"sync"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/config"
	"github.com/cupcakedapp/cupcake/internal/metrics"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/provider"
	"github.com/cupcakedapp/cupcake/internal/service/balance"
	"github.com/cupcakedapp/cupcake/internal/service/network"
	"github.com/cupcakedapp/cupcake/internal/service/transaction"
	"github.com/cupcakedapp/cupcake/internal/service/wallet"
)

// CommandContext holds the wired services for CLI commands. Wallet is nil
// when no provider endpoint is configured; connecting then fails with
// ErrProviderMissing.
type CommandContext struct {
	Config     *config.Config
	Logger     *config.Logger
	Formatter  *output.Formatter
	Network    chain.Network
	Metrics    *metrics.Metrics
	Debug      *output.DebugLog
	Console    *output.Console
	Wallet     *provider.Wallet
	Guard      *network.Guard
	Balances   *balance.Sync
	Session    *wallet.Session
	Controller *transaction.Controller
	Inflight   *transaction.Guard

	opts []ContextOption

	mu       sync.Mutex
	progress transaction.ProgressFunc
}

type contextOptions struct {
	requester provider.Requester
	live      *output.Formatter
	metrics   *metrics.Metrics
}

// ContextOption configures NewCommandContext.
type ContextOption func(*contextOptions)

// WithRequester replaces the HTTP provider client.
func WithRequester(req provider.Requester) ContextOption {
	return func(o *contextOptions) {
		o.requester = req
	}
}

// WithLiveOutput echoes status and error changes to f as they happen.
func WithLiveOutput(f *output.Formatter) ContextOption {
	return func(o *contextOptions) {
		o.live = f
	}
}

// WithMetricsRegistry records counters in m instead of metrics.Global.
func WithMetricsRegistry(m *metrics.Metrics) ContextOption {
	return func(o *contextOptions) {
		o.metrics = m
	}
}

// NewCommandContext wires the provider, the services and the console for
// one session.
func NewCommandContext(
	c *config.Config,
	log *config.Logger,
	f *output.Formatter,
	opts ...ContextOption,
) (*CommandContext, error) {
	o := contextOptions{metrics: metrics.Global}
	for _, opt := range opts {
		opt(&o)
	}

	net, err := c.ChainNetwork()
	if err != nil {
		return nil, err
	}

	cc := &CommandContext{
		Config:    c,
		Logger:    log,
		Formatter: f,
		Network:   net,
		Metrics:   o.metrics,
		Inflight:  &transaction.Guard{},
		opts:      opts,
	}

	var file output.FileLogger
	if log != nil {
		file = log
	}
	cc.Debug = output.NewDebugLog(c.Logging.DebugPanelSize, file)
	cc.Console = output.NewConsole(cc.Debug, o.live)

	req := o.requester
	if req == nil && c.Provider.URL != "" {
		client, clientErr := provider.NewClient(c.Provider.URL,
			provider.WithTimeout(c.Provider.Timeout),
			provider.WithRateLimiter(chain.NewRateLimiter(c.Provider.RateLimit, c.Provider.Burst)),
			provider.WithMetrics(o.metrics),
			provider.WithLogger(cc.Debug),
		)
		if clientErr != nil {
			return nil, clientErr
		}
		req = client
	}

	sessionCfg := &wallet.Config{
		Inflight:            cc.Inflight,
		Display:             cc.Console,
		Logger:              cc.Debug,
		Metrics:             o.metrics,
		Network:             net,
		Contract:            c.ContractAddress(),
		ReceiptPollInterval: c.Transaction.ReceiptPollInterval,
	}
	if req != nil {
		cc.Wallet = provider.NewWallet(req, provider.WithRetry(c.RetryConfig()))
		cc.Guard = network.NewGuard(&network.Config{Wallet: cc.Wallet, Logger: cc.Debug})
		cc.Balances = balance.NewSync(&balance.Config{
			Native:  cc.Wallet,
			Network: net,
			Sink:    cc.Console,
			Logger:  cc.Debug,
			Metrics: o.metrics,
		})
		sessionCfg.Provider = cc.Wallet
		sessionCfg.Guard = cc.Guard
		sessionCfg.Balances = cc.Balances
	}
	cc.Session = wallet.NewSession(sessionCfg)

	cc.Controller = transaction.NewController(&transaction.Config{
		Session:        cc.Session,
		Guard:          cc.Inflight,
		Sink:           cc.Console,
		Logger:         cc.Debug,
		Metrics:        o.metrics,
		Network:        net,
		ConfirmTimeout: c.Transaction.ConfirmationTimeout,
		Progress:       cc.reportProgress,
	})

	return cc, nil
}

// Rebuild creates a fresh, disconnected context from the same
// configuration. extra options are added to the ones this context was
// built with and carry over to later rebuilds.
func (c *CommandContext) Rebuild(extra ...ContextOption) (*CommandContext, error) {
	opts := append(append([]ContextOption{}, c.opts...), extra...)
	return NewCommandContext(c.Config, c.Logger, c.Formatter, opts...)
}

// Watcher returns a notification watcher for the wallet, or nil when no
// wallet is configured.
func (c *CommandContext) Watcher() *provider.Watcher {
	if c.Wallet == nil {
		return nil
	}
	return provider.NewWatcher(c.Wallet, c.Config.Provider.PollInterval, c.Debug)
}

// SetProgress installs fn to receive Simulated and Sent reports.
func (c *CommandContext) SetProgress(fn transaction.ProgressFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = fn
}

func (c *CommandContext) reportProgress(o transaction.Outcome) {
	c.mu.Lock()
	fn := c.progress
	c.mu.Unlock()
	if fn != nil {
		fn(o)
	}
}

// ExplorerLink returns the explorer URL for a transaction hash, or "".
func (c *CommandContext) ExplorerLink(o *transaction.Outcome) string {
	if !o.HasHash() {
		return ""
	}
	return c.Network.ExplorerTxURL(o.Hash.Hex())
}
