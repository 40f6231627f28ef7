package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/output"
)

// connectCmd connects the wallet and shows the session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:     "connect",
	Short:   "Connect the wallet",
	GroupID: groupSession,
	Long: `Connect to the wallet provider, make sure it is on the required network
(switching or adding the network in the wallet when needed), request the
account and load its balances.

The wallet may show a prompt for the account request and the network switch.`,
	Example: `  cupcake connect
  cupcake connect --provider http://127.0.0.1:1248
  cupcake connect -o json`,
	RunE: runConnect,
}

// balanceCmd connects and prints balances only.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var balanceCmd = &cobra.Command{
	Use:     "balance",
	Short:   "Show ETH and cupcake balances",
	GroupID: groupSession,
	Long: `Connect the wallet and show the native balance and the cupcake balance of
the connected account. Each balance is fetched independently; a failed fetch
is reported and leaves the other balance intact.`,
	Example: `  cupcake balance
  cupcake balance -o json`,
	RunE: runBalance,
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}

	if _, err := cc.Session.Connect(commandContext(cmd)); err != nil {
		return err
	}
	return printView(cmd.OutOrStdout(), cc, cc.Console.View())
}

// balanceView is the JSON shape of the balance command.
type balanceView struct {
	Account        string `json:"account"`
	Network        string `json:"network"`
	NativeBalance  string `json:"native_balance"`
	CupcakeBalance string `json:"cupcake_balance"`
	Error          string `json:"error,omitempty"`
}

func runBalance(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if _, err := cc.Session.Connect(ctx); err != nil {
		return err
	}

	v := cc.Console.View()
	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, balanceView{
			Account:        v.Account,
			Network:        v.Network,
			NativeBalance:  v.NativeBalance,
			CupcakeBalance: v.TokenBalance,
			Error:          v.Error,
		})
	}

	table := output.NewTable()
	table.AddRow("Account:", v.Account)
	table.AddRow("ETH balance:", v.NativeBalance)
	table.AddRow("Cupcakes:", v.TokenBalance)
	if v.Error != "" {
		table.AddRow("Error:", v.Error)
	}
	return table.Render(w)
}

// printView writes the session view in the active output format.
func printView(w io.Writer, cc *CommandContext, v output.View) error {
	if cc.Formatter.IsJSON() {
		return writeJSON(w, v)
	}
	return output.RenderView(w, v)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(balanceCmd)
}
