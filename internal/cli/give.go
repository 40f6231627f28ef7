package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/contract"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/service/transaction"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	giveTo string
	giveQR bool
)

// giveCmd sends giveCupcakeTo through the transaction controller.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var giveCmd = &cobra.Command{
	Use:     "give",
	Short:   "Give a cupcake",
	GroupID: groupSession,
	Long: `Connect the wallet and call giveCupcakeTo on the Cupcake contract.

The call is simulated first; a call that would revert is never sent. The
wallet then signs and broadcasts it, the transaction hash and explorer link
are printed as soon as they are known, and cupcake waits for one
confirmation (bounded by transaction.confirmation_timeout) before
refreshing balances.

The recipient defaults to the connected account.`,
	Example: `  cupcake give
  cupcake give --to 0x742d35Cc6634C0532925a3b844Bc9e7595f8fE00
  cupcake give -o json`,
	RunE: runGive,
}

// outcomeView is the JSON shape of a transaction report.
type outcomeView struct {
	*transaction.Outcome
	Explorer string `json:"explorer_url,omitempty"`
}

func runGive(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}

	var recipient *common.Address
	if giveTo != "" {
		to, err := parseRecipient(giveTo)
		if err != nil {
			return err
		}
		recipient = &to
	}

	ctx := commandContext(cmd)
	snap, err := cc.Session.Connect(ctx)
	if err != nil {
		return err
	}
	to := snap.Account
	if recipient != nil {
		to = *recipient
	}

	w := cmd.OutOrStdout()
	qr := output.DefaultLinkQR()
	cc.SetProgress(func(o transaction.Outcome) {
		if o.Kind != transaction.Sent {
			return
		}
		_ = printOutcome(w, cc, &o)
		if giveQR && !cc.Formatter.IsJSON() {
			qr.Render(w, cc.ExplorerLink(&o))
		}
	})
	defer cc.SetProgress(nil)

	outcome, err := cc.Controller.Execute(ctx, transaction.NewRequest(contract.MethodGiveCupcake, to))
	if printErr := printOutcome(w, cc, outcome); printErr != nil && err == nil {
		err = printErr
	}
	return err
}

// parseRecipient validates a hex address argument.
func parseRecipient(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, cerr.WithDetails(cerr.ErrInvalidAddress, map[string]string{"address": s})
	}
	return common.HexToAddress(s), nil
}

// printOutcome writes a transaction report in the active output format.
func printOutcome(w io.Writer, cc *CommandContext, o *transaction.Outcome) error {
	if o == nil {
		return nil
	}
	link := cc.ExplorerLink(o)
	if cc.Formatter.IsJSON() {
		return writeJSON(w, outcomeView{Outcome: o, Explorer: link})
	}

	table := output.NewTable()
	table.AddRow("Result:", string(o.Kind))
	if o.HasHash() {
		table.AddRow("Transaction:", o.Hash.Hex())
	}
	if o.BlockNumber > 0 {
		table.AddRow("Block:", strconv.FormatUint(o.BlockNumber, 10))
	}
	if link != "" {
		table.AddRow("Explorer:", link)
	}
	if o.Kind == transaction.Failed {
		table.AddRow("Failed at:", string(o.Stage))
		table.AddRow("Error:", fmt.Sprintf("[%s] %s", o.ErrorCode, o.ErrorMessage))
	}
	return table.Render(w)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(giveCmd)

	giveCmd.Flags().StringVar(&giveTo, "to", "", "recipient address (default: the connected account)")
	giveCmd.Flags().BoolVar(&giveQR, "qr", true, "show a QR code of the explorer link on a terminal")
}
