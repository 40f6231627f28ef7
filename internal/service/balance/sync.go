// Package balance keeps the displayed native and contract balances of the
// connected account up to date.
package balance

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/errnorm"
	"github.com/cupcakedapp/cupcake/internal/metrics"
)

// Result holds the outcome of one refresh. A nil balance means that fetch
// failed (see the matching error) or was skipped. Stale is set when the
// session changed while the refresh was running; its values were then not
// shown.
type Result struct {
	Native    *big.Int
	Token     *big.Int
	NativeErr error
	TokenErr  error
	Skipped   bool
	Stale     bool
}

// Sync fetches both balances of an account concurrently.
type Sync struct {
	native  NativeReader
	network chain.Network
	sink    Sink
	logger  LogWriter
	metrics *metrics.Metrics

	mu    sync.Mutex
	epoch uint64
}

// Config holds dependencies for balance sync.
type Config struct {
	Native  NativeReader
	Network chain.Network
	Sink    Sink
	Logger  LogWriter
	Metrics *metrics.Metrics
}

// NewSync creates a new balance sync.
func NewSync(cfg *Config) *Sync {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global
	}
	return &Sync{
		native:  cfg.Native,
		network: cfg.Network,
		sink:    cfg.Sink,
		logger:  cfg.Logger,
		metrics: m,
	}
}

// Refresh fetches the native balance and the contract balance of account.
// Each fetch reports its own failure to the sink and leaves its displayed
// value untouched; neither failure affects the other fetch. Refresh is
// skipped when there is no bound account or contract.
func (s *Sync) Refresh(ctx context.Context, account common.Address, token TokenReader) Result {
	if account == (common.Address{}) || token == nil {
		s.logger.Debug("balance refresh skipped: no session")
		return Result{Skipped: true}
	}

	var (
		res   Result
		g     errgroup.Group
		epoch = s.currentEpoch()
	)

	g.Go(func() error {
		s.logger.Debug("native balance fetch: %s", account.Hex())
		bal, err := s.native.GetBalance(ctx, account)
		s.metrics.RecordBalanceFetch(err)
		if err != nil {
			res.NativeErr = err
			s.logger.Error("native balance error: %s", errnorm.Normalize(err))
			s.publish(epoch, func() {
				s.sink.SetError(s.network.NativeCurrency.Symbol + " balance error: " + errnorm.Normalize(err).String())
			})
			return nil
		}
		res.Native = bal
		s.logger.Debug("native balance %s: %s", account.Hex(), bal)
		s.publish(epoch, func() { s.sink.SetNativeBalance(s.network.FormatNative(bal)) })
		return nil
	})

	g.Go(func() error {
		s.logger.Debug("cupcake balance fetch: %s", account.Hex())
		bal, err := token.CupcakeBalance(ctx, account)
		s.metrics.RecordBalanceFetch(err)
		if err != nil {
			res.TokenErr = err
			s.logger.Error("cupcake balance error: %s", errnorm.Normalize(err))
			s.publish(epoch, func() { s.sink.SetError("Cupcake balance error: " + errnorm.Normalize(err).String()) })
			return nil
		}
		res.Token = bal
		s.logger.Debug("cupcake balance %s: %s", account.Hex(), bal)
		s.publish(epoch, func() { s.sink.SetTokenBalance(bal.String()) })
		return nil
	})

	// Both goroutines always return nil.
	_ = g.Wait()
	res.Stale = s.currentEpoch() != epoch
	return res
}

// Invalidate discards the results of refreshes still running. The session
// calls it whenever the account is cleared or replaced.
func (s *Sync) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
}

func (s *Sync) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// publish runs write only if no Invalidate happened since epoch was taken.
// The lock is held across the write so an Invalidate cannot slip in between.
func (s *Sync) publish(epoch uint64, write func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("balance result dropped: session changed")
		return
	}
	write()
}
