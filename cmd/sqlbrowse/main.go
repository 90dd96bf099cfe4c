// Sqlbrowse is a discovery utility for SQL Server instances.
//
// It queries SQL Server Browser services over UDP to enumerate instances,
// resolve connection details (TCP ports, named pipes), and look up dedicated
// admin connection ports. Sweeps can target a single host, a broadcast
// address, or a multicast group.
//
// Usage:
//
//	sqlbrowse [command] [flags]
//
// Running without arguments launches the interactive browse screen.
// See 'sqlbrowse --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkuiper/sqlbrowse/internal/logging"
	"github.com/mkuiper/sqlbrowse/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sqlbrowse",
	Short: "SQL Server Instance Discovery Utility",
	Long: `A standalone utility for discovering SQL Server instances.

Queries SQL Server Browser services (UDP 1434) to enumerate instances and
their connection details, and to resolve dedicated admin connection ports.

If no command is specified, the interactive browse screen will launch
automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run the browse screen when no subcommand provided
		return runBrowse(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sqlbrowse %s (commit: %s)\n", version.Version, version.Commit)
	},
}
