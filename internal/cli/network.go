package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/errnorm"
	"github.com/cupcakedapp/cupcake/internal/output"
	"github.com/cupcakedapp/cupcake/internal/service/network"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// networkCmd is the parent command for network operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkCmd = &cobra.Command{
	Use:     "network",
	Short:   "Inspect and switch the wallet network",
	GroupID: groupNetwork,
	Long:    `Show the required network and move the wallet onto it.`,
}

// networkShowCmd shows the required network and the wallet's chain.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the required network",
	Long: `Show the network definition cupcake requires and, when a wallet provider
is configured, the chain the wallet is currently on.`,
	Example: `  cupcake network show
  cupcake network show -o json`,
	RunE: runNetworkShow,
}

// networkSwitchCmd runs the network guard.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkSwitchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Switch the wallet to the required network",
	Long: `Ask the wallet to switch to the required network. When the wallet does
not know the network it is added first and the switch is retried once.
Nothing happens when the wallet is already on the network.`,
	Example: `  cupcake network switch`,
	RunE:    runNetworkSwitch,
}

// networkAddCmd registers the network in the wallet.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var networkAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add the required network to the wallet",
	Long: `Register the required network (chain id, name, native currency, RPC and
explorer URLs) with the wallet. Most wallets switch to the network after
adding it.`,
	Example: `  cupcake network add`,
	RunE:    runNetworkAdd,
}

// networkView is the JSON shape of network show.
type networkView struct {
	ChainID        string         `json:"chain_id"`
	Name           string         `json:"name"`
	NativeCurrency chain.Currency `json:"native_currency"`
	RPCURLs        []string       `json:"rpc_urls"`
	ExplorerURLs   []string       `json:"explorer_urls"`
	WalletChainID  string         `json:"wallet_chain_id,omitempty"`
	OnNetwork      bool           `json:"on_network"`
	WalletError    string         `json:"wallet_error,omitempty"`
}

func runNetworkShow(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}

	n := cc.Network
	v := networkView{
		ChainID:        n.HexID(),
		Name:           n.Name,
		NativeCurrency: n.NativeCurrency,
		RPCURLs:        n.RPCURLs,
		ExplorerURLs:   n.ExplorerURLs,
	}

	if cc.Wallet != nil {
		ctx, cancel := contextWithTimeout(cmd, cc.Config.Provider.Timeout)
		defer cancel()

		id, idErr := cc.Wallet.ChainID(ctx)
		if idErr != nil {
			v.WalletError = errnorm.Normalize(idErr).String()
		} else {
			v.WalletChainID = chain.Network{ID: id}.HexID()
			v.OnNetwork = n.Matches(id)
		}
	}

	w := cmd.OutOrStdout()
	if cc.Formatter.IsJSON() {
		return writeJSON(w, v)
	}

	table := output.NewTable()
	table.AddRow("Network:", n.DisplayName())
	table.AddRow("Chain ID:", v.ChainID)
	table.AddRow("Currency:", n.NativeCurrency.Name+" ("+n.NativeCurrency.Symbol+", "+strconv.Itoa(n.NativeCurrency.Decimals)+" decimals)")
	table.AddRow("RPC:", strings.Join(n.RPCURLs, ", "))
	table.AddRow("Explorer:", strings.Join(n.ExplorerURLs, ", "))
	switch {
	case cc.Wallet == nil:
		table.AddRow("Wallet:", "no provider configured")
	case v.WalletError != "":
		table.AddRow("Wallet:", v.WalletError)
	case v.OnNetwork:
		table.AddRow("Wallet:", v.WalletChainID+" (on network)")
	default:
		table.AddRow("Wallet:", v.WalletChainID+" (wrong network)")
	}
	return table.Render(w)
}

func runNetworkSwitch(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}
	if cc.Guard == nil {
		return cerr.ErrProviderMissing
	}

	action, err := cc.Guard.Ensure(commandContext(cmd), cc.Network)
	if err != nil {
		return err
	}
	cc.Debug.Append("network: " + action.String())
	return output.FormatSuccess(cmd.OutOrStdout(), cc.Network.DisplayName()+": "+action.String(), cc.Formatter.Format())
}

func runNetworkAdd(cmd *cobra.Command, _ []string) error {
	cc, err := requireContext()
	if err != nil {
		return err
	}
	if cc.Wallet == nil {
		return cerr.ErrProviderMissing
	}

	if err := cc.Wallet.AddChain(commandContext(cmd), network.AddChainParams(cc.Network)); err != nil {
		return errnorm.Classify(err, cerr.ErrNetworkSwitchFailed)
	}
	cc.Debug.Append("network: added " + cc.Network.HexID())
	return output.FormatSuccess(cmd.OutOrStdout(), cc.Network.DisplayName()+": added to wallet", cc.Formatter.Format())
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(networkCmd)
	networkCmd.AddCommand(networkShowCmd)
	networkCmd.AddCommand(networkSwitchCmd)
	networkCmd.AddCommand(networkAddCmd)
}
