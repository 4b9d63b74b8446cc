// Package main is the entry point for the scopestate CLI.
//
// scopestate is a library first. This CLI runs a standalone store seeded
// from a config file and exposes it over HTTP for inspection and live
// updates.
//
// Usage:
//
//	scopestate serve -c seed.yaml          # Serve the seeded store
//	scopestate serve -c seed.yaml --watch  # Re-apply values when the file changes
//	scopestate validate -c seed.toml       # Validate configuration
//	scopestate version                     # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd only displays help; functionality lives in subcommands.
var rootCmd = &cobra.Command{
	Use:   "scopestate",
	Short: "A reactive scoped key-value store",
	Long: `scopestate serves a reactive key-value store seeded from a config file.

Every named scope holds one value. Clients read and write values over a
REST API and receive live updates through Server-Sent Events or a
WebSocket.

Quick start:
  1. Create a config file (seed.yaml)
  2. Run: scopestate serve -c seed.yaml
  3. curl http://localhost:8080/api/scopes

Example config:
  port: 8080
  scopes:
    - name: greeting
      value: Yada`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this scopestate binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scopestate %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
