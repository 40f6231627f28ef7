// Package cli implements the Cupcake command-line interface.
//
// This package uses global variables to manage CLI state, which is the standard
// pattern for Cobra-based CLI applications. The globals are initialized in
// PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"

	"github.com/cupcakedapp/cupcake/internal/config"
	"github.com/cupcakedapp/cupcake/internal/output"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	providerURL  string

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	cmdCtx    *CommandContext

	buildInfo BuildInfo

	enrichOnce sync.Once
)

// Command groups shown in the root help.
const (
	groupSession = "session"
	groupNetwork = "network"
	groupConfig  = "config"
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cupcake",
	Short: "Give cupcakes on Arbitrum Sepolia from your terminal",
	Long: `Cupcake drives the Cupcake contract on Arbitrum Sepolia through a wallet
provider. The wallet holds the keys and signs; cupcake connects to it, keeps
it on the right network, shows balances and walks a giveCupcakeTo call
through simulation, broadcast and confirmation.

The wallet provider is any EIP-1193 compatible JSON-RPC endpoint, such as a
local wallet daemon or signer proxy (provider.url).`,
	Example: `  cupcake connect
  cupcake give
  cupcake give --to 0x742d35Cc6634C0532925a3b844Bc9e7595f8fE00
  cupcake run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// SetVersionInfo sets the version reported by --version.
func SetVersionInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// Execute runs the root command.
func Execute() error {
	enrichOnce.Do(func() { walkCommands(rootCmd, enrichParentLong) })

	err := rootCmd.Execute()
	if err != nil {
		formatErr(err)
		return err
	}
	return nil
}

// formatErr prints err to stderr in the active output format.
func formatErr(err error) {
	format := output.FormatText
	if formatter != nil {
		format = formatter.Format()
	}
	_ = output.FormatError(os.Stderr, err, format)
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return cerr.ExitCode(err)
}

// initGlobals initializes global configuration, logger, formatter and the
// command context.
func initGlobals(cmd *cobra.Command) error {
	// Determine home directory
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	// Load or create config
	var err error
	cfg, err = config.Load(config.Path(home))
	if err != nil {
		if !cerr.Is(err, cerr.ErrConfigNotFound) {
			return err
		}
		cfg = config.Defaults()
	}
	cfg.Home = home

	// Apply environment variable overrides
	config.ApplyEnvironment(cfg)

	// Override with command-line flags
	if homeDir != "" {
		cfg.Home = homeDir
	}
	if providerURL != "" {
		cfg.Provider.URL = config.SanitizeURL(providerURL)
	}
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != "auto" {
		cfg.Output.DefaultFormat = outputFormat
	}
	cfg.Logging.File = logFilePath(cfg)

	// Initialize logger
	logger, err = config.NewLoggerFromConfig(cfg.Logging, cfg.Output.Verbose)
	if err != nil {
		// Use null logger if we can't create the file
		logger = config.NullLogger()
	}

	// Initialize formatter
	explicitFormat := output.ParseFormat(cfg.Output.DefaultFormat)
	detectedFormat := output.DetectFormat(os.Stdout, explicitFormat)
	formatter = output.NewFormatter(detectedFormat, os.Stdout)

	// Commands that only touch the config file still run with an
	// unusable network section, so they can fix it.
	if isConfigCommand(cmd) {
		return nil
	}
	if err = cfg.Validate(); err != nil {
		return err
	}

	cmdCtx, err = NewCommandContext(cfg, logger, formatter,
		WithLiveOutput(output.NewFormatter(detectedFormat, os.Stderr)))
	return err
}

// logFilePath keeps the default log file inside the active home directory.
func logFilePath(c *config.Config) string {
	if c.Logging.File == config.Defaults().Logging.File {
		return filepath.Join(c.Home, "cupcake.log")
	}
	return c.Logging.File
}

func isConfigCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c == configCmd || c == completionCmd || c == versionCmd {
			return true
		}
	}
	return false
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the global configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

// Formatter returns the global output formatter.
func Formatter() *output.Formatter {
	return formatter
}

// Context returns the command context built for the running command.
func Context() *CommandContext {
	return cmdCtx
}

// requireContext returns the command context or an error when the
// configuration could not produce one.
func requireContext() (*CommandContext, error) {
	if cmdCtx == nil {
		return nil, cerr.WithSuggestion(cerr.ErrConfigInvalid, "Run 'cupcake config show' to check the configuration")
	}
	return cmdCtx, nil
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "cupcake data directory (default: ~/.cupcake)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&providerURL, "provider", "", "wallet provider JSON-RPC endpoint (overrides provider.url)")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupSession, Title: "Wallet Operations:"},
		&cobra.Group{ID: groupNetwork, Title: "Network:"},
		&cobra.Group{ID: groupConfig, Title: "Configuration:"},
	)

	SetVersionInfo(BuildInfo{})
}
