// Package wallet tracks the connected account, its chain and the contract
// handle bound to it.
package wallet

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/contract"
	"github.com/cupcakedapp/cupcake/internal/errnorm"
	"github.com/cupcakedapp/cupcake/internal/metrics"
	"github.com/cupcakedapp/cupcake/internal/provider"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// Status texts of the connect flow.
const (
	StatusConnecting = "Connecting to wallet..."
	StatusLoading    = "Connected. Loading balances..."
	StatusReady      = "Ready."
)

// Snapshot is a copy of the session state. Contract is nil when
// disconnected.
type Snapshot struct {
	Account  common.Address
	ChainID  *big.Int
	Contract *contract.Contract
}

// Connected reports whether the snapshot has a bound contract handle.
func (s Snapshot) Connected() bool {
	return s.Contract != nil
}

// Session owns the connection to the wallet. A bound session is always on
// the required network.
type Session struct {
	provider     Provider
	guard        NetworkGuard
	balances     BalanceRefresher
	inflight     InflightResetter
	display      Display
	logger       LogWriter
	metrics      *metrics.Metrics
	network      chain.Network
	contractAddr common.Address
	pollInterval time.Duration

	mu           sync.Mutex
	account      common.Address
	chainID      *big.Int
	handle       *contract.Contract
	onInvalidate []func()
}

// Config holds dependencies for the session. Provider may be nil when no
// wallet is configured; Connect then fails with ErrProviderMissing.
type Config struct {
	Provider            Provider
	Guard               NetworkGuard
	Balances            BalanceRefresher
	Inflight            InflightResetter
	Display             Display
	Logger              LogWriter
	Metrics             *metrics.Metrics
	Network             chain.Network
	Contract            common.Address
	ReceiptPollInterval time.Duration
}

// NewSession creates a disconnected session.
func NewSession(cfg *Config) *Session {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global
	}
	return &Session{
		provider:     cfg.Provider,
		guard:        cfg.Guard,
		balances:     cfg.Balances,
		inflight:     cfg.Inflight,
		display:      cfg.Display,
		logger:       cfg.Logger,
		metrics:      m,
		network:      cfg.Network,
		contractAddr: cfg.Contract,
		pollInterval: cfg.ReceiptPollInterval,
	}
}

// Connect makes sure the wallet is on the required network, asks for its
// accounts, binds the contract to the first one and loads balances. Any
// failure leaves the session disconnected.
func (s *Session) Connect(ctx context.Context) (Snapshot, error) {
	s.display.SetError("")
	s.display.SetStatus(StatusConnecting)

	snap, err := s.connect(ctx)
	s.metrics.RecordConnect(err)
	if err != nil {
		s.logger.Error("connect failed: %s", errnorm.Normalize(err))
		s.clear()
		s.display.SetStatus("")
		s.display.SetError(errnorm.Normalize(err).String())
		s.display.SetActionsEnabled(false)
		s.resetInflight()
		return Snapshot{}, err
	}

	s.resetInflight()
	s.display.SetAccount(snap.Account.Hex())
	s.display.SetNetwork(s.network.DisplayName())
	s.display.SetActionsEnabled(true)

	s.display.SetStatus(StatusLoading)
	s.balances.Refresh(ctx, snap.Account, snap.Contract)
	s.display.SetStatus(StatusReady)

	return snap, nil
}

func (s *Session) connect(ctx context.Context) (Snapshot, error) {
	if s.provider == nil {
		return Snapshot{}, cerr.ErrProviderMissing
	}

	s.logger.Debug("connect: start")
	if _, err := s.guard.Ensure(ctx, s.network); err != nil {
		return Snapshot{}, err
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return Snapshot{}, classify(err)
	}
	s.logger.Debug("eth_requestAccounts result: %v", accounts)
	if len(accounts) == 0 {
		return Snapshot{}, cerr.ErrNoAccounts
	}
	account := accounts[0]

	handle, err := s.bind(account)
	if err != nil {
		return Snapshot{}, err
	}

	chainID, err := handle.ChainID(ctx)
	if err != nil {
		return Snapshot{}, classify(err)
	}
	s.logger.Debug("network: chainId %s", chainID)
	if !s.network.Matches(chainID) {
		return Snapshot{}, cerr.WithDetails(cerr.ErrNetworkMismatch, map[string]string{
			"want": s.network.HexID(),
			"got":  chain.Network{ID: chainID}.HexID(),
		})
	}

	s.mu.Lock()
	s.account = account
	s.chainID = chainID
	s.handle = handle
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("connected: %s on %s", account.Hex(), s.network.DisplayName())
	return snap, nil
}

// Current returns a copy of the session state.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Bound returns the contract handle when connected.
func (s *Session) Bound() (*contract.Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle, s.handle != nil
}

// RefreshBalances reloads balances of the bound account. It does nothing
// when disconnected.
func (s *Session) RefreshBalances(ctx context.Context) {
	snap := s.Current()
	if !snap.Connected() {
		s.logger.Debug("refresh skipped: not connected")
		return
	}
	s.balances.Refresh(ctx, snap.Account, snap.Contract)
}

// HandleEvent applies a provider notification.
func (s *Session) HandleEvent(ctx context.Context, ev provider.Event) {
	s.logger.Debug("%s: accounts=%v chainId=%v", ev.Type, ev.Accounts, ev.ChainID)

	switch ev.Type {
	case provider.AccountsChanged:
		if len(ev.Accounts) == 0 {
			s.Disconnect()
			return
		}
		s.switchAccount(ctx, ev.Accounts[0])
	case provider.ChainChanged:
		s.Invalidate()
	}
}

// switchAccount rebinds the contract to account without re-running the
// network guard; the chain is unaffected by an account change.
func (s *Session) switchAccount(ctx context.Context, account common.Address) {
	s.mu.Lock()
	if s.handle == nil {
		s.mu.Unlock()
		s.logger.Debug("account change ignored: not connected")
		return
	}
	if s.account == account {
		s.mu.Unlock()
		return
	}
	handle, err := s.bind(account)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("rebind to %s failed: %v", account.Hex(), err)
		s.Disconnect()
		return
	}
	s.account = account
	s.handle = handle
	s.mu.Unlock()
	s.invalidateBalances()

	s.display.SetAccount(account.Hex())
	s.balances.Refresh(ctx, account, handle)
}

// Disconnect clears the session, the in-flight guard and the display.
func (s *Session) Disconnect() {
	s.clear()
	s.resetInflight()
	s.display.Reset()
	s.logger.Debug("session disconnected")
}

// Invalidate discards the session after a chain change. Nothing bound to
// the old chain is reused; registered OnInvalidate hooks rebuild whatever
// depends on the session.
func (s *Session) Invalidate() {
	s.Disconnect()
	s.metrics.RecordInvalidation()

	s.mu.Lock()
	hooks := append([]func(){}, s.onInvalidate...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// OnInvalidate registers fn to run after every Invalidate.
func (s *Session) OnInvalidate(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onInvalidate = append(s.onInvalidate, fn)
}

func (s *Session) bind(account common.Address) (*contract.Contract, error) {
	handle, err := contract.Bind(s.contractAddr, account, s.provider)
	if err != nil {
		return nil, err
	}
	handle.SetPollInterval(s.pollInterval)
	return handle, nil
}

func (s *Session) clear() {
	s.mu.Lock()
	s.account = common.Address{}
	s.chainID = nil
	s.handle = nil
	s.mu.Unlock()
	s.invalidateBalances()
}

// invalidateBalances keeps refreshes for a previous account off the display.
func (s *Session) invalidateBalances() {
	if s.balances != nil {
		s.balances.Invalidate()
	}
}

func (s *Session) resetInflight() {
	if s.inflight != nil {
		s.inflight.Reset()
	}
}

func (s *Session) snapshotLocked() Snapshot {
	var id *big.Int
	if s.chainID != nil {
		id = new(big.Int).Set(s.chainID)
	}
	return Snapshot{Account: s.account, ChainID: id, Contract: s.handle}
}

// classify keeps errors that already carry a taxonomy code and maps raw
// provider errors.
func classify(err error) error {
	var ce *cerr.CupcakeError
	if errors.As(err, &ce) {
		return err
	}
	return errnorm.Classify(err, cerr.ErrUnknown)
}
