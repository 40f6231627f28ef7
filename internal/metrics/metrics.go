// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Wallet provider round trips
	providerCalls        atomic.Int64
	providerErrors       atomic.Int64
	providerLatencyNanos atomic.Int64

	// Session lifecycle
	connects        atomic.Int64
	connectFailures atomic.Int64
	invalidations   atomic.Int64

	// Transaction attempts by terminal outcome
	txConfirmed atomic.Int64
	txReverted  atomic.Int64
	txFailed    atomic.Int64
	txBusy      atomic.Int64

	// Balance fetches
	balanceFetches     atomic.Int64
	balanceFetchErrors atomic.Int64
}

// Global is the global metrics instance.
// Use this for recording metrics throughout the application.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// Transaction outcome labels accepted by RecordTxOutcome.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeReverted  = "reverted"
	OutcomeFailed    = "failed"
	OutcomeBusy      = "busy"
)

// RecordProviderCall records a wallet provider request with its duration and result.
func (m *Metrics) RecordProviderCall(duration time.Duration, err error) {
	m.providerCalls.Add(1)
	m.providerLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.providerErrors.Add(1)
	}
}

// RecordConnect records a connect attempt.
func (m *Metrics) RecordConnect(err error) {
	m.connects.Add(1)
	if err != nil {
		m.connectFailures.Add(1)
	}
}

// RecordInvalidation records a session torn down by a provider notification.
func (m *Metrics) RecordInvalidation() {
	m.invalidations.Add(1)
}

// RecordTxOutcome records the terminal outcome of a transaction attempt.
func (m *Metrics) RecordTxOutcome(outcome string) {
	switch outcome {
	case OutcomeConfirmed:
		m.txConfirmed.Add(1)
	case OutcomeReverted:
		m.txReverted.Add(1)
	case OutcomeBusy:
		m.txBusy.Add(1)
	default:
		m.txFailed.Add(1)
	}
}

// RecordBalanceFetch records a single balance fetch.
func (m *Metrics) RecordBalanceFetch(err error) {
	m.balanceFetches.Add(1)
	if err != nil {
		m.balanceFetchErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	ProviderCalls        int64 `json:"provider_calls"`
	ProviderErrors       int64 `json:"provider_errors"`
	ProviderLatencyNanos int64 `json:"provider_latency_nanos"`
	Connects             int64 `json:"connects"`
	ConnectFailures      int64 `json:"connect_failures"`
	Invalidations        int64 `json:"invalidations"`
	TxConfirmed          int64 `json:"tx_confirmed"`
	TxReverted           int64 `json:"tx_reverted"`
	TxFailed             int64 `json:"tx_failed"`
	TxBusy               int64 `json:"tx_busy"`
	BalanceFetches       int64 `json:"balance_fetches"`
	BalanceFetchErrors   int64 `json:"balance_fetch_errors"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		ProviderCalls:        m.providerCalls.Load(),
		ProviderErrors:       m.providerErrors.Load(),
		ProviderLatencyNanos: m.providerLatencyNanos.Load(),
		Connects:             m.connects.Load(),
		ConnectFailures:      m.connectFailures.Load(),
		Invalidations:        m.invalidations.Load(),
		TxConfirmed:          m.txConfirmed.Load(),
		TxReverted:           m.txReverted.Load(),
		TxFailed:             m.txFailed.Load(),
		TxBusy:               m.txBusy.Load(),
		BalanceFetches:       m.balanceFetches.Load(),
		BalanceFetchErrors:   m.balanceFetchErrors.Load(),
	}
}

// ProviderLatencyAvgMs returns the average provider latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) ProviderLatencyAvgMs() float64 {
	calls := m.providerCalls.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.providerLatencyNanos.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
// Useful for testing.
func (m *Metrics) Reset() {
	m.providerCalls.Store(0)
	m.providerErrors.Store(0)
	m.providerLatencyNanos.Store(0)
	m.connects.Store(0)
	m.connectFailures.Store(0)
	m.invalidations.Store(0)
	m.txConfirmed.Store(0)
	m.txReverted.Store(0)
	m.txFailed.Store(0)
	m.txBusy.Store(0)
	m.balanceFetches.Store(0)
	m.balanceFetchErrors.Store(0)
}
