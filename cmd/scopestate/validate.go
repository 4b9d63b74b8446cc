package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/scopestate/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a scopestate configuration file without starting the server.

This command parses the YAML or TOML file, expands environment variables,
and validates all fields. It's useful for CI/CD pipelines or pre-deployment
checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  scopestate validate -c seed.yaml
  scopestate validate --config /etc/scopestate/seed.toml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	names := make([]string, 0, len(cfg.Scopes))
	for _, sc := range cfg.Scopes {
		names = append(names, sc.Name)
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Port:      %d\n", cfg.Port)
	fmt.Printf("  Log level: %s\n", cfg.LogLevel)
	fmt.Printf("  Metrics:   %t\n", cfg.Metrics)
	fmt.Printf("  Scopes:    %d (%s)\n", len(cfg.Scopes), strings.Join(names, ", "))

	return nil
}
