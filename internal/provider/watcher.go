package provider

import (
	"context"
	"math/big"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultPollInterval is how often the Watcher polls the wallet.
const DefaultPollInterval = 4 * time.Second

// EventType identifies a provider notification.
type EventType int

// Provider notifications.
const (
	AccountsChanged EventType = iota + 1
	ChainChanged
)

func (t EventType) String() string {
	switch t {
	case AccountsChanged:
		return "accountsChanged"
	case ChainChanged:
		return "chainChanged"
	default:
		return "unknown"
	}
}

// Event is a provider notification. Accounts is set for AccountsChanged,
// ChainID for ChainChanged.
type Event struct {
	Type     EventType
	Accounts []common.Address
	ChainID  *big.Int
}

// Watcher turns a provider without push notifications into events by
// polling eth_accounts and eth_chainId. It is not safe for concurrent use;
// the caller polls from its own loop.
type Watcher struct {
	wallet   *Wallet
	interval time.Duration
	logger   LogWriter

	accounts       []common.Address
	accountsPrimed bool
	chainID        *big.Int
}

// NewWatcher creates a watcher polling at interval.
func NewWatcher(wallet *Wallet, interval time.Duration, logger LogWriter) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Watcher{wallet: wallet, interval: interval, logger: logger}
}

// Rebaseline polls once and discards the result, so changes the
// application caused itself (such as a chain switch during connect) are
// not reported later.
func (w *Watcher) Rebaseline(ctx context.Context) {
	_ = w.Poll(ctx)
}

// Interval returns the polling interval.
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// Poll reads the wallet state once and returns the notifications implied by
// the difference from the previous poll. Accounts are reported before chain.
func (w *Watcher) Poll(ctx context.Context) []Event {
	var events []Event

	accounts, err := w.wallet.Accounts(ctx)
	if err != nil {
		w.logger.Error("watcher: eth_accounts: %v", err)
	} else {
		if w.accountsPrimed && !slices.Equal(accounts, w.accounts) {
			events = append(events, Event{Type: AccountsChanged, Accounts: accounts})
		}
		w.accounts = accounts
		w.accountsPrimed = true
	}

	chainID, err := w.wallet.ChainID(ctx)
	if err != nil {
		w.logger.Error("watcher: eth_chainId: %v", err)
	} else {
		if w.chainID != nil && w.chainID.Cmp(chainID) != 0 {
			events = append(events, Event{Type: ChainChanged, ChainID: chainID})
		}
		w.chainID = chainID
	}

	return events
}
