// Package cli wires the scryptex command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/scryptex/scryptex/internal/daemon"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "scryptex",
	Short: "Scryptex credit and referral service",
	Long: `Scryptex runs the credit and referral ledger behind the Scryptex dashboard.
Balances, purchases, feature consumption and referral rewards are served over
HTTP and journaled to SQLite so state survives restarts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.scryptex/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves --config and loads the effective configuration.
func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.DefaultConfigPath()
	}
	return daemon.LoadConfig(path)
}
