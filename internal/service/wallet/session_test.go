package wallet

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/contract"
	"github.com/cupcakedapp/cupcake/internal/metrics"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/provider"
	"github.com/cupcakedapp/cupcake/internal/provider/providertest"
	"github.com/cupcakedapp/cupcake/internal/service/balance"
	"github.com/cupcakedapp/cupcake/internal/service/network"
	"github.com/cupcakedapp/cupcake/internal/service/transaction"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

var (
	testAccount  = common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc454e4438f44e")
	otherAccount = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

// Mock implementations for testing
type refreshCall struct {
	account common.Address
	token   balance.TokenReader
}

type mockBalances struct {
	mu            sync.Mutex
	calls         []refreshCall
	invalidations int
}

func (m *mockBalances) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidations++
}

func (m *mockBalances) Refresh(_ context.Context, account common.Address, token balance.TokenReader) balance.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, refreshCall{account: account, token: token})
	return balance.Result{}
}

type mockDisplay struct {
	status  []string
	errs    []string
	account string
	network string
	enabled bool
	resets  int
}

func (m *mockDisplay) SetStatus(text string)          { m.status = append(m.status, text) }
func (m *mockDisplay) SetError(text string)           { m.errs = append(m.errs, text) }
func (m *mockDisplay) SetAccount(text string)         { m.account = text }
func (m *mockDisplay) SetNetwork(text string)         { m.network = text }
func (m *mockDisplay) SetActionsEnabled(enabled bool) { m.enabled = enabled }
func (m *mockDisplay) Reset() {
	m.resets++
	m.account = "Not connected"
	m.network = "—"
	m.enabled = false
	m.status = append(m.status, "")
	m.errs = append(m.errs, "")
}

func (m *mockDisplay) lastError() string {
	if len(m.errs) == 0 {
		return ""
	}
	return m.errs[len(m.errs)-1]
}

type mockLogger struct{}

func (mockLogger) Debug(string, ...any) {}
func (mockLogger) Error(string, ...any) {}

type fixture struct {
	stub     *providertest.Stub
	balances *mockBalances
	display  *mockDisplay
	inflight *transaction.Guard
	metrics  *metrics.Metrics
	session  *Session
}

func newFixture(stub *providertest.Stub) *fixture {
	f := &fixture{
		stub:     stub,
		balances: &mockBalances{},
		display:  &mockDisplay{},
		inflight: &transaction.Guard{},
		metrics:  &metrics.Metrics{},
	}
	w := provider.NewWallet(stub)
	f.session = NewSession(&Config{
		Provider: w,
		Guard:    network.NewGuard(&network.Config{Wallet: w, Logger: mockLogger{}}),
		Balances: f.balances,
		Inflight: f.inflight,
		Display:  f.display,
		Logger:   mockLogger{},
		Metrics:  f.metrics,
		Network:  chain.ArbitrumSepolia(),
		Contract: common.HexToAddress(contract.DefaultAddress),
	})
	return f
}

func connectedStub() *providertest.Stub {
	return providertest.New().
		Respond("eth_chainId", "0x66eee").
		Respond("eth_requestAccounts", []string{testAccount.Hex(), otherAccount.Hex()})
}

func TestConnect_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	_, held := f.inflight.TryAcquire()
	require.True(t, held)

	snap, err := f.session.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Connected())
	assert.Equal(t, testAccount, snap.Account)
	assert.Equal(t, big.NewInt(421614), snap.ChainID)
	assert.Equal(t, testAccount, snap.Contract.From())

	assert.False(t, f.inflight.InFlight(), "connect clears a stale in-flight guard")
	assert.Equal(t, testAccount.Hex(), f.display.account)
	assert.Equal(t, "Arbitrum Sepolia (chainId: 421614)", f.display.network)
	assert.True(t, f.display.enabled)
	assert.Equal(t, []string{StatusConnecting, StatusLoading, StatusReady}, f.display.status)

	require.Len(t, f.balances.calls, 1)
	assert.Equal(t, testAccount, f.balances.calls[0].account)

	handle, ok := f.session.Bound()
	require.True(t, ok)
	assert.Same(t, snap.Contract, handle)
	assert.Equal(t, int64(1), f.metrics.Snapshot().Connects)
}

func TestConnect_SwitchesNetworkFirst(t *testing.T) {
	t.Parallel()

	stub := providertest.New().
		RespondSeq("eth_chainId", "0x1", "0x66eee").
		Respond("wallet_switchEthereumChain", nil).
		Respond("eth_requestAccounts", []string{testAccount.Hex()})
	f := newFixture(stub)

	_, err := f.session.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"eth_chainId", "wallet_switchEthereumChain", "eth_requestAccounts", "eth_chainId"},
		stub.Methods(),
	)
}

func TestConnect_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stub    *providertest.Stub
		wantErr error
		wantMsg string
	}{
		{
			name: "user rejects accounts",
			stub: providertest.New().
				Respond("eth_chainId", "0x66eee").
				Fail("eth_requestAccounts", &provider.Error{Code: provider.CodeUserRejected, Message: "User rejected the request."}),
			wantErr: cerr.ErrUserRejected,
			wantMsg: "[4001] User rejected the request.",
		},
		{
			name: "no accounts",
			stub: providertest.New().
				Respond("eth_chainId", "0x66eee").
				Respond("eth_requestAccounts", []string{}),
			wantErr: cerr.ErrNoAccounts,
			wantMsg: "[NO_ACCOUNTS] no accounts returned by the wallet",
		},
		{
			name: "user rejects switch",
			stub: providertest.New().
				Respond("eth_chainId", "0x1").
				Fail("wallet_switchEthereumChain", &provider.Error{Code: provider.CodeUserRejected, Message: "User rejected the request."}),
			wantErr: cerr.ErrUserRejected,
			wantMsg: "[4001] User rejected the request.",
		},
		{
			name: "still on the wrong chain after switching",
			stub: providertest.New().
				RespondSeq("eth_chainId", "0x1", "0x1").
				Respond("wallet_switchEthereumChain", nil).
				Respond("eth_requestAccounts", []string{testAccount.Hex()}),
			wantErr: cerr.ErrNetworkMismatch,
			wantMsg: "[NETWORK_MISMATCH] wallet is connected to the wrong network (got: 0x1) (want: 0x66eee)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(tt.stub)
			_, held := f.inflight.TryAcquire()
			require.True(t, held)

			snap, err := f.session.Connect(context.Background())
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, snap.Connected())
			assert.False(t, f.session.Current().Connected())
			assert.False(t, f.display.enabled)
			assert.Equal(t, tt.wantMsg, f.display.lastError())
			assert.False(t, f.inflight.InFlight())
			assert.Empty(t, f.balances.calls)
			assert.Equal(t, int64(1), f.metrics.Snapshot().ConnectFailures)
		})
	}
}

func TestConnect_NoProvider(t *testing.T) {
	t.Parallel()

	display := &mockDisplay{}
	s := NewSession(&Config{
		Display: display,
		Logger:  mockLogger{},
		Metrics: &metrics.Metrics{},
		Network: chain.ArbitrumSepolia(),
	})

	_, err := s.Connect(context.Background())
	require.ErrorIs(t, err, cerr.ErrProviderMissing)
	assert.Equal(t, "[PROVIDER_MISSING] no wallet provider available", display.lastError())
}

func TestHandleEvent_EmptyAccountsDisconnects(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	_, err := f.session.Connect(context.Background())
	require.NoError(t, err)

	// An attempt is in flight when the wallet locks.
	_, held := f.inflight.TryAcquire()
	require.True(t, held)

	f.session.HandleEvent(context.Background(), provider.Event{Type: provider.AccountsChanged, Accounts: nil})

	assert.False(t, f.session.Current().Connected())
	assert.Equal(t, common.Address{}, f.session.Current().Account)
	assert.Nil(t, f.session.Current().ChainID)
	assert.False(t, f.inflight.InFlight())
	assert.Equal(t, 1, f.display.resets)
	assert.Equal(t, "Not connected", f.display.account)
	assert.Equal(t, "—", f.display.network)
	assert.False(t, f.display.enabled)
}

func TestHandleEvent_NewAccountRebinds(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	_, err := f.session.Connect(context.Background())
	require.NoError(t, err)
	chainCalls := f.stub.Count("eth_chainId")

	f.session.HandleEvent(context.Background(), provider.Event{
		Type:     provider.AccountsChanged,
		Accounts: []common.Address{otherAccount},
	})

	snap := f.session.Current()
	require.True(t, snap.Connected())
	assert.Equal(t, otherAccount, snap.Account)
	assert.Equal(t, otherAccount, snap.Contract.From())
	assert.Equal(t, otherAccount.Hex(), f.display.account)
	assert.Equal(t, chainCalls, f.stub.Count("eth_chainId"), "network guard is not re-run")
	assert.Zero(t, f.stub.Count("wallet_switchEthereumChain"))

	require.Len(t, f.balances.calls, 2)
	assert.Equal(t, otherAccount, f.balances.calls[1].account)
}

func TestHandleEvent_SameAccountIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	snap, err := f.session.Connect(context.Background())
	require.NoError(t, err)

	f.session.HandleEvent(context.Background(), provider.Event{
		Type:     provider.AccountsChanged,
		Accounts: []common.Address{testAccount},
	})
	assert.Same(t, snap.Contract, f.session.Current().Contract)
	assert.Len(t, f.balances.calls, 1)
}

func TestHandleEvent_AccountChangeWhileDisconnected(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	f.session.HandleEvent(context.Background(), provider.Event{
		Type:     provider.AccountsChanged,
		Accounts: []common.Address{otherAccount},
	})
	assert.False(t, f.session.Current().Connected())
	assert.Empty(t, f.balances.calls)
	assert.Empty(t, f.stub.Methods())
}

func TestHandleEvent_ChainChangedInvalidates(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	_, err := f.session.Connect(context.Background())
	require.NoError(t, err)

	var hooks []string
	f.session.OnInvalidate(func() { hooks = append(hooks, "rebuild") })

	f.session.HandleEvent(context.Background(), provider.Event{Type: provider.ChainChanged, ChainID: big.NewInt(421614)})

	assert.False(t, f.session.Current().Connected(), "chain change always discards the session")
	assert.Equal(t, []string{"rebuild"}, hooks)
	assert.Equal(t, 1, f.display.resets)
	assert.Equal(t, int64(1), f.metrics.Snapshot().Invalidations)
}

func TestRefreshBalances(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	f.session.RefreshBalances(context.Background())
	assert.Empty(t, f.balances.calls, "skipped while disconnected")

	_, err := f.session.Connect(context.Background())
	require.NoError(t, err)
	f.session.RefreshBalances(context.Background())
	assert.Len(t, f.balances.calls, 2)
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	snap, err := f.session.Connect(context.Background())
	require.NoError(t, err)

	snap.ChainID.SetInt64(1)
	assert.Equal(t, big.NewInt(421614), f.session.Current().ChainID)
}

const (
	oneEthHex = "0xde0b6b3a7640000"
	twoEthHex = "0x1bc16d674ec80000"
)

// slowBalances connects a session wired to a real balance sync and console,
// then makes eth_getBalance for testAccount block until release is closed.
// entered is closed once the blocked fetch has started.
func slowBalances(t *testing.T) (s *Session, console *output.Console, entered, release chan struct{}) {
	t.Helper()

	stub := connectedStub().
		Respond("eth_getBalance", twoEthHex).
		Respond("eth_call", "0x"+strings.Repeat("0", 63)+"1")
	w := provider.NewWallet(stub)
	console = output.NewConsole(nil, nil)
	net := chain.ArbitrumSepolia()
	s = NewSession(&Config{
		Provider: w,
		Guard:    network.NewGuard(&network.Config{Wallet: w, Logger: mockLogger{}}),
		Balances: balance.NewSync(&balance.Config{
			Native:  w,
			Network: net,
			Sink:    console,
			Logger:  mockLogger{},
			Metrics: &metrics.Metrics{},
		}),
		Inflight: &transaction.Guard{},
		Display:  console,
		Logger:   mockLogger{},
		Metrics:  &metrics.Metrics{},
		Network:  net,
		Contract: common.HexToAddress(contract.DefaultAddress),
	})

	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2.0 ETH", console.View().NativeBalance)

	entered = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	target := strings.ToLower(testAccount.Hex())
	stub.Handle("eth_getBalance", func(ctx context.Context, params []json.RawMessage) (any, error) {
		if len(params) == 0 || !strings.Contains(strings.ToLower(string(params[0])), target) {
			return twoEthHex, nil
		}
		once.Do(func() { close(entered) })
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return oneEthHex, nil
	})
	return s, console, entered, release
}

func refreshInBackground(s *Session) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.RefreshBalances(ctx)
	}()
	return done
}

func TestHandleEvent_DisconnectDuringBalanceFetch(t *testing.T) {
	t.Parallel()

	s, console, entered, release := slowBalances(t)
	done := refreshInBackground(s)
	<-entered

	s.HandleEvent(context.Background(), provider.Event{Type: provider.AccountsChanged})
	require.Equal(t, output.PlaceholderValue, console.View().NativeBalance)

	close(release)
	<-done

	v := console.View()
	assert.Equal(t, output.PlaceholderAccount, v.Account)
	assert.Equal(t, output.PlaceholderValue, v.NativeBalance)
	assert.Equal(t, output.PlaceholderValue, v.TokenBalance)
	assert.Empty(t, v.Error)
}

func TestHandleEvent_SwitchDuringBalanceFetch(t *testing.T) {
	t.Parallel()

	s, console, entered, release := slowBalances(t)
	done := refreshInBackground(s)
	<-entered

	s.HandleEvent(context.Background(), provider.Event{
		Type:     provider.AccountsChanged,
		Accounts: []common.Address{otherAccount},
	})
	require.Equal(t, "2.0 ETH", console.View().NativeBalance)

	close(release)
	<-done

	v := console.View()
	assert.Equal(t, otherAccount.Hex(), v.Account)
	assert.Equal(t, "2.0 ETH", v.NativeBalance, "late result for the previous account is dropped")
}

func TestDisconnect_InvalidatesBalances(t *testing.T) {
	t.Parallel()

	f := newFixture(connectedStub())
	_, err := f.session.Connect(context.Background())
	require.NoError(t, err)
	before := f.balances.invalidations

	f.session.HandleEvent(context.Background(), provider.Event{
		Type:     provider.AccountsChanged,
		Accounts: []common.Address{otherAccount},
	})
	f.session.Disconnect()

	assert.Equal(t, before+2, f.balances.invalidations)
}
