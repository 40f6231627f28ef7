// Package transaction runs one mutating contract call through
// simulate, send and confirmation, one attempt at a time.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/errnorm"
	"github.com/cupcakedapp/cupcake/internal/metrics"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// DefaultConfirmTimeout bounds the wait for the first confirmation.
const DefaultConfirmTimeout = 5 * time.Minute

// Status texts shown while an attempt runs.
const (
	StatusSimulating      = "Simulating transaction (staticCall)..."
	StatusSending         = "Sending transaction via wallet..."
	StatusSimulationFail  = "Transaction simulation failed"
	StatusSendFail        = "Transaction send failed (wallet / RPC error)"
	StatusWaitFail        = "Confirmation error/timeout. Check in block explorer."
	StatusUnknown         = "Unknown transaction status. Check explorer."
	StatusReverted        = "Transaction reverted on-chain."
	StatusDone            = "Cupcake received 🎉"
	StatusUnexpected      = "Transaction failed (unexpected error)"
	MessageBusy           = "Previous transaction is still pending. Please wait."
	MessageNotConnected   = "Connect wallet first."
	MessageNoReceipt      = "Transaction status is unknown (no receipt)."
	MessageStatusNotOne   = "Transaction status is not successful (status != 1)."
	prefixSimulation      = "Simulation failed: "
	prefixConfirmationErr = "tx.wait error: "
)

// ProgressFunc observes the non-terminal Simulated and Sent reports.
type ProgressFunc func(Outcome)

// Controller executes transaction requests against the current session.
type Controller struct {
	session        Session
	guard          *Guard
	sink           Sink
	logger         LogWriter
	metrics        *metrics.Metrics
	network        chain.Network
	confirmTimeout time.Duration
	progress       ProgressFunc
}

// Config holds dependencies for the controller.
type Config struct {
	Session        Session
	Guard          *Guard
	Sink           Sink
	Logger         LogWriter
	Metrics        *metrics.Metrics
	Network        chain.Network
	ConfirmTimeout time.Duration
	Progress       ProgressFunc
}

// NewController creates a new transaction controller.
func NewController(cfg *Config) *Controller {
	c := &Controller{
		session:        cfg.Session,
		guard:          cfg.Guard,
		sink:           cfg.Sink,
		logger:         cfg.Logger,
		metrics:        cfg.Metrics,
		network:        cfg.Network,
		confirmTimeout: cfg.ConfirmTimeout,
		progress:       cfg.Progress,
	}
	if c.guard == nil {
		c.guard = &Guard{}
	}
	if c.metrics == nil {
		c.metrics = metrics.Global
	}
	if c.confirmTimeout <= 0 {
		c.confirmTimeout = DefaultConfirmTimeout
	}
	return c
}

// Guard returns the in-flight guard.
func (c *Controller) Guard() *Guard {
	return c.guard
}

// Execute runs req: simulate, send, then wait for one confirmation.
// It always returns a non-nil terminal Outcome whose Err is the returned
// error, which is nil only for Confirmed. A call made while another attempt
// is in flight fails with ErrBusy without touching the wallet. Nothing is
// retried.
func (c *Controller) Execute(ctx context.Context, req Request) (out *Outcome, err error) {
	handle, ok := c.session.Bound()
	if !ok {
		c.sink.SetError(MessageNotConnected)
		return c.fail(StagePrecondition, common.Hash{}, cerr.ErrNotConnected)
	}

	release, ok := c.guard.TryAcquire()
	if !ok {
		c.logger.Debug("execute %s rejected: attempt in flight", req)
		c.sink.SetError(MessageBusy)
		return c.fail(StagePrecondition, common.Hash{}, cerr.ErrBusy)
	}
	c.sink.SetActionsEnabled(false)

	stage := StageSimulation
	var hash common.Hash

	defer func() {
		release()
		_, bound := c.session.Bound()
		c.sink.SetActionsEnabled(bound)
	}()
	defer func() {
		if p := recover(); p != nil {
			c.logger.Error("execute %s panicked in %s: %v", req, stage, p)
			c.sink.SetStatus(StatusUnexpected)
			failure := cerr.WithCause(cerr.ErrUnknown, fmt.Errorf("panic: %v", p))
			c.sink.SetError(errnorm.Normalize(failure).String())
			out, err = c.fail(stage, hash, failure)
		}
	}()

	c.sink.SetError("")
	c.logger.Debug("execute %s from %s", req, handle.From().Hex())

	// Simulate. A failure here means nothing is broadcast.
	c.sink.SetStatus(StatusSimulating)
	if _, simErr := handle.Simulate(ctx, req.Method(), req.Args()...); simErr != nil {
		rec := errnorm.Normalize(simErr)
		c.logger.Error("simulation failed: %s", rec)
		c.sink.SetStatus(StatusSimulationFail)
		c.sink.SetError(prefixSimulation + rec.String())
		return c.fail(stage, hash, errnorm.Classify(simErr, cerr.ErrSimulationReverted))
	}
	c.logger.Debug("%s simulation ok", req.Method())
	c.report(Outcome{Kind: Simulated})

	// Send.
	stage = StageSend
	c.sink.SetStatus(StatusSending)
	hash, err = handle.Transact(ctx, req.Method(), req.Args()...)
	if err != nil {
		rec := errnorm.Normalize(err)
		c.logger.Error("send failed: %s", rec)
		c.sink.SetStatus(StatusSendFail)
		c.sink.SetError(rec.String())
		return c.fail(stage, common.Hash{}, errnorm.Classify(err, cerr.ErrSendFailed))
	}
	c.logger.Debug("tx sent: %s", hash.Hex())
	c.sink.SetStatus("Tx sent: " + hash.Hex() + "\nWaiting for 1 confirmation...")
	c.report(Outcome{Kind: Sent, Hash: hash})

	// Wait for one confirmation.
	stage = StageConfirmation
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := handle.WaitMined(waitCtx, hash)
	if err != nil {
		rec := errnorm.Normalize(err)
		c.logger.Error("confirmation wait for %s failed: %s", hash.Hex(), rec)
		c.sink.SetStatus(StatusWaitFail)
		c.sink.SetError(prefixConfirmationErr + rec.String())
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return c.fail(stage, hash, cerr.WithCause(cerr.ErrConfirmationTimeout, err))
		}
		return c.fail(stage, hash, cerr.WithCause(cerr.ErrConfirmationUnknown, err))
	}

	if receipt == nil || receipt.Status == nil {
		c.logger.Error("no receipt status for %s", hash.Hex())
		c.sink.SetStatus(StatusUnknown)
		c.sink.SetError(MessageNoReceipt)
		out, err = c.fail(stage, hash, cerr.ErrConfirmationUnknown)
		if receipt != nil {
			out.BlockNumber = uint64(receipt.BlockNumber)
		}
		return out, err
	}

	status := uint64(*receipt.Status)
	block := uint64(receipt.BlockNumber)
	c.logger.Debug("tx %s mined in block %d with status %d", hash.Hex(), block, status)

	if status != 1 {
		c.sink.SetStatus(StatusReverted)
		c.sink.SetError(MessageStatusNotOne)
		c.metrics.RecordTxOutcome(metrics.OutcomeReverted)
		return &Outcome{
			Kind:         Reverted,
			Hash:         hash,
			BlockNumber:  block,
			Status:       &status,
			ErrorCode:    cerr.ErrReverted.Code,
			ErrorMessage: MessageStatusNotOne,
			Err:          cerr.ErrReverted,
		}, cerr.ErrReverted
	}

	c.sink.SetStatus(fmt.Sprintf("Confirmed in block %d. Updating balances...", block))
	c.session.RefreshBalances(ctx)
	c.sink.SetStatus(StatusDone)
	c.metrics.RecordTxOutcome(metrics.OutcomeConfirmed)

	return &Outcome{Kind: Confirmed, Hash: hash, BlockNumber: block, Status: &status}, nil
}

// fail builds a Failed outcome. The hash is kept when the transaction was
// already broadcast.
func (c *Controller) fail(stage Stage, hash common.Hash, err error) (*Outcome, error) {
	if errors.Is(err, cerr.ErrBusy) {
		c.metrics.RecordTxOutcome(metrics.OutcomeBusy)
	} else {
		c.metrics.RecordTxOutcome(metrics.OutcomeFailed)
	}

	rec := errnorm.Normalize(err)
	return &Outcome{
		Kind:         Failed,
		Hash:         hash,
		Stage:        stage,
		ErrorCode:    cerr.Code(err),
		ErrorMessage: rec.Message,
		Err:          err,
	}, err
}

func (c *Controller) report(o Outcome) {
	if c.progress != nil {
		c.progress(o)
	}
}
