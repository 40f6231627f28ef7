package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/config"
	"github.com/cupcakedapp/cupcake/internal/output"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// configCmd is the parent command for configuration operations.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Manage configuration",
	GroupID: groupConfig,
	Long:    `View and modify Cupcake configuration settings.`,
}

// configInitCmd initializes the configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long: `Create a default configuration file at ~/.cupcake/config.yaml.

If a configuration file already exists, this command will not overwrite it
unless --force is specified.`,
	Example: `  cupcake config init
  cupcake config init --force`,
	RunE: runConfigInit,
}

// configShowCmd shows the current configuration.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display every configuration key with its effective value, after
environment variables and command-line flags are applied.`,
	Example: `  cupcake config show
  cupcake config show -o json`,
	RunE: runConfigShow,
}

// configGetCmd gets a specific configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value by its key.

Keys use dot notation, for example provider.url or transaction.confirmation_timeout.`,
	Example: `  cupcake config get provider.url
  cupcake config get network.chain_id
  cupcake config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a specific configuration value by its key.

The value is parsed and the resulting configuration validated before the
file is rewritten. List values are comma-separated; durations accept Go
syntax such as 90s or 5m.`,
	Example: `  cupcake config set provider.url http://127.0.0.1:1248
  cupcake config set transaction.confirmation_timeout 10m
  cupcake config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var configForce bool

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	configPath := config.Path(cfg.Home)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return cerr.WithSuggestion(
			cerr.ErrGeneral,
			fmt.Sprintf("configuration already exists at %s. Use --force to overwrite.", configPath),
		)
	}

	defaultCfg := config.Defaults()
	defaultCfg.Home = cfg.Home

	if err := config.Save(defaultCfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	w := cmd.OutOrStdout()
	out(w, "Configuration initialized at %s\n", configPath)
	outln(w)
	outln(w, "Edit this file to configure:")
	outln(w, "  - provider.url: Your wallet provider JSON-RPC endpoint")
	outln(w, "  - contract.address: The Cupcake contract")
	outln(w, "  - transaction.confirmation_timeout: How long to wait for a confirmation")
	outln(w, "  - output.default_format: Output format (text/json)")
	outln(w, "  - logging.level: Log level (off/error/debug)")

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()

	values := make(map[string]string, len(config.Keys()))
	table := output.NewTable("KEY", "VALUE")
	for _, key := range config.Keys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		values[key] = value
		if value == "" {
			value = "(not configured)"
		}
		table.AddRow(key, value)
	}

	if formatter.Format() == output.FormatJSON {
		return writeJSON(w, values)
	}

	out(w, "Configuration (%s):\n\n", config.Path(cfg.Home))
	return table.Render(w)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}

	outln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	// Load current config from file
	configPath := config.Path(cfg.Home)
	currentCfg, err := config.Load(configPath)
	if err != nil {
		if !cerr.Is(err, cerr.ErrConfigNotFound) {
			return err
		}
		// If file doesn't exist, start with defaults
		currentCfg = config.Defaults()
		currentCfg.Home = cfg.Home
	}

	if err := currentCfg.Set(key, value); err != nil {
		return err
	}
	if err := currentCfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(currentCfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	stored, _ := currentCfg.Get(key)
	out(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
	return nil
}
