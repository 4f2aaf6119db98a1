// Package cli implements the ecopool command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; "dev" for local builds.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ecopool",
	Short: "Pooled ecological credit purchases",
	Long: `ecopool pools recurring USD contributions, buys ecological credits
on a monthly schedule, and attributes fractional credit back to every
contributor exactly once per period.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default $ECOPOOL_HOME/config.toml)")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ecopool version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(os.Stdout, "ecopool %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
