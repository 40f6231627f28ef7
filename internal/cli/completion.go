package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/config"

	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// completionCmd generates shell completion scripts.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var completionCmd = &cobra.Command{
	Use:     "completion [bash|zsh|fish|powershell]",
	Short:   "Generate shell completion script",
	GroupID: groupConfig,
	Long: `Generate a shell completion script for cupcake.

The script completes commands, flags, shell names and the keys accepted by
"cupcake config get" and "cupcake config set" (provider.url,
transaction.confirmation_timeout, ...).

Load it for the current shell:
  bash:        source <(cupcake completion bash)
  zsh:         source <(cupcake completion zsh)
  fish:        cupcake completion fish | source
  powershell:  cupcake completion powershell | Out-String | Invoke-Expression

To load it in every session, write the script to your shell's completion
directory instead (for zsh, a directory in $fpath named _cupcake).`,
	Example: `  cupcake completion bash > /etc/bash_completion.d/cupcake
  cupcake completion zsh > "${fpath[1]}/_cupcake"
  cupcake completion fish > ~/.config/fish/completions/cupcake.fish`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		}
		return cerr.WithDetails(cerr.ErrInvalidInput, map[string]string{"shell": args[0]})
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(completionCmd)

	configGetCmd.ValidArgsFunction = completeConfigKeys
	configSetCmd.ValidArgsFunction = completeConfigKeys
}

// completeConfigKeys offers configuration keys for the first argument.
func completeConfigKeys(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var keys []string
	for _, k := range config.Keys() {
		if strings.HasPrefix(k, toComplete) {
			keys = append(keys, k)
		}
	}
	return keys, cobra.ShellCompDirectiveNoFileComp
}
