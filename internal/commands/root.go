package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/bankdesk/internal/buildinfo"
	"github.com/cleared-dev/bankdesk/internal/config"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	backendURL string
	logLevel   string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "bankdesk",
		Short:   "Bank feeds, statement import and reconciliation",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", config.FileName, "path to bankdesk.yaml")
	pf.StringVar(&opts.backendURL, "backend-url", "", "backend base URL (overrides config)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(
		newInitCommand(),
		newCenterCommand(opts),
		newAccountsCommand(opts),
		newFeedsCommand(opts),
		newImportCommand(opts),
		newReconcileCommand(opts),
		newActivityCommand(opts),
	)

	return rootCmd
}
