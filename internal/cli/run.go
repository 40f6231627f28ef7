package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/contract"
	"github.com/cupcakedapp/cupcake/internal/errnorm"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/provider"
	"github.com/cupcakedapp/cupcake/internal/service/transaction"
)

// runCmd starts an interactive session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Start an interactive session",
	GroupID: groupSession,
	Long: `Start an interactive session that reads commands from standard input and
watches the wallet for account and network changes.

Commands:
  connect         connect the wallet
  give [address]  give a cupcake (default recipient: the connected account)
  refresh         reload balances
  status          show the session
  log             show the debug log
  stats           show counters
  help            list commands
  quit            leave

A transaction runs in the background; while it is pending another give is
refused. Switching accounts in the wallet rebinds the session, removing all
accounts disconnects it, and switching networks discards the whole session.`,
	Example: `  cupcake run
  echo "connect" | cupcake run -o json`,
	RunE: runRun,
}

const runHelp = `connect         connect the wallet
give [address]  give a cupcake
refresh         reload balances
status          show the session
log             show the debug log
stats           show counters
quit            leave
`

func runRun(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()

	r, err := newRepl(cc, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return r.loop(ctx)
}

// syncWriter serializes writes from the loop and background transactions.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// giveResult is the terminal outcome of a background give.
type giveResult struct {
	cc      *CommandContext
	outcome *transaction.Outcome
}

// repl is the interactive session loop. It owns the command context and
// replaces it whenever the session is invalidated.
type repl struct {
	in      io.Reader
	out     *syncWriter
	cc      *CommandContext
	watcher *provider.Watcher
	results chan giveResult
	qr      output.LinkQR
	stale   atomic.Bool
	pending int
}

func newRepl(base *CommandContext, in io.Reader, out io.Writer) (*repl, error) {
	sw := &syncWriter{w: out}
	cc, err := base.Rebuild(WithLiveOutput(output.NewFormatter(base.Formatter.Format(), sw)))
	if err != nil {
		return nil, err
	}
	r := &repl{
		in:      in,
		out:     sw,
		results: make(chan giveResult, 4),
		qr:      output.DefaultLinkQR(),
	}
	r.attach(cc)
	return r, nil
}

// attach makes cc the active context and starts watching its wallet.
func (r *repl) attach(cc *CommandContext) {
	r.cc = cc
	r.watcher = cc.Watcher()
	cc.Session.OnInvalidate(func() { r.stale.Store(true) })
	cc.SetProgress(func(o transaction.Outcome) {
		if o.Kind == transaction.Sent {
			_ = printOutcome(r.out, cc, &o)
			if !cc.Formatter.IsJSON() {
				r.qr.Render(r.out, cc.ExplorerLink(&o))
			}
		}
	})
	cc.Debug.Append("Session started")
}

func (r *repl) loop(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if r.watcher != nil {
		r.watcher.Rebaseline(ctx)
		ticker := time.NewTicker(r.watcher.Interval())
		defer ticker.Stop()
		tick = ticker.C
	}

	// Leaving waits for background transactions to reach a terminal outcome.
	draining := false
	for {
		if draining && r.pending == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok || r.dispatch(ctx, line) {
				lines = nil
				draining = true
				if r.pending > 0 {
					r.println("Waiting for the pending transaction...")
				}
			}
		case <-tick:
			r.poll(ctx)
		case res := <-r.results:
			r.pending--
			if res.cc == r.cc {
				_ = printOutcome(r.out, res.cc, res.outcome)
			}
		}
		if err := r.renew(ctx); err != nil {
			return err
		}
	}
}

// poll applies wallet notifications to the session.
func (r *repl) poll(ctx context.Context) {
	if r.watcher == nil {
		return
	}
	for _, ev := range r.watcher.Poll(ctx) {
		r.cc.Session.HandleEvent(ctx, ev)
		if r.stale.Load() {
			return
		}
	}
}

// renew replaces an invalidated context with a fresh, disconnected one.
func (r *repl) renew(ctx context.Context) error {
	if !r.stale.Swap(false) {
		return nil
	}
	cc, err := r.cc.Rebuild()
	if err != nil {
		return err
	}
	// A give still running on the old context finishes silently.
	r.cc.SetProgress(nil)
	r.cc.Console.Detach()
	r.attach(cc)
	if r.watcher != nil {
		r.watcher.Rebaseline(ctx)
	}
	r.println("Network changed. Session reset; run connect again.")
	return nil
}

// dispatch runs one input line and reports whether the session should end.
func (r *repl) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cc := r.cc
	switch strings.ToLower(fields[0]) {
	case "connect":
		if _, err := cc.Session.Connect(ctx); err == nil {
			if r.watcher != nil {
				r.watcher.Rebaseline(ctx)
			}
			r.printView()
		}
	case "give":
		r.give(ctx, fields[1:])
	case "refresh":
		cc.Session.RefreshBalances(ctx)
		r.printView()
	case "status":
		r.printView()
	case "log":
		r.println(cc.Debug.String())
	case "stats":
		r.printStats()
	case "help", "?":
		_, _ = io.WriteString(r.out, runHelp)
	case "quit", "exit":
		return true
	default:
		r.println(fmt.Sprintf("unknown command %q (type help)", fields[0]))
	}
	return false
}

// give starts a transaction in the background.
func (r *repl) give(ctx context.Context, args []string) {
	cc := r.cc
	to := cc.Session.Current().Account
	if len(args) > 0 {
		addr, err := parseRecipient(args[0])
		if err != nil {
			cc.Console.SetError(errnorm.Normalize(err).String())
			return
		}
		to = addr
	}

	req := transaction.NewRequest(contract.MethodGiveCupcake, to)
	r.pending++
	go func() {
		outcome, _ := cc.Controller.Execute(ctx, req)
		select {
		case r.results <- giveResult{cc: cc, outcome: outcome}:
		case <-ctx.Done():
		}
	}()
}

func (r *repl) printView() {
	_ = printView(r.out, r.cc, r.cc.Console.View())
}

func (r *repl) printStats() {
	m := r.cc.Metrics
	if r.cc.Formatter.IsJSON() {
		_ = writeJSON(r.out, m.Snapshot())
		return
	}

	s := m.Snapshot()
	table := output.NewTable("COUNTER", "VALUE")
	table.AddRow("provider calls", strconv.FormatInt(s.ProviderCalls, 10))
	table.AddRow("provider errors", strconv.FormatInt(s.ProviderErrors, 10))
	table.AddRow("provider latency avg", fmt.Sprintf("%.1fms", m.ProviderLatencyAvgMs()))
	table.AddRow("connects", strconv.FormatInt(s.Connects, 10))
	table.AddRow("connect failures", strconv.FormatInt(s.ConnectFailures, 10))
	table.AddRow("invalidations", strconv.FormatInt(s.Invalidations, 10))
	table.AddRow("tx confirmed", strconv.FormatInt(s.TxConfirmed, 10))
	table.AddRow("tx reverted", strconv.FormatInt(s.TxReverted, 10))
	table.AddRow("tx failed", strconv.FormatInt(s.TxFailed, 10))
	table.AddRow("tx busy", strconv.FormatInt(s.TxBusy, 10))
	table.AddRow("balance fetches", strconv.FormatInt(s.BalanceFetches, 10))
	table.AddRow("balance fetch errors", strconv.FormatInt(s.BalanceFetchErrors, 10))
	_ = table.Render(r.out)
}

func (r *repl) println(text string) {
	if r.cc.Formatter.IsJSON() {
		_ = writeJSON(r.out, output.Event{Event: "info", Text: text})
		return
	}
	_, _ = fmt.Fprintln(r.out, text)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(runCmd)
}
