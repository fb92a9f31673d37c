package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	auditConfigPath string
	demoMode        bool
	language        string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audit",
	Short: "Structural crisis audit - financial stress classification",
	Long: `Structural Crisis Audit CLI

Classifies structural market stress from price defense lines, funding
liquidity friction, infrastructure-adjusted cash durability and relative
market performance.

Usage:
  go run ./cmd/audit [command]

Examples:
  go run ./cmd/audit evaluate --demo
  go run ./cmd/audit evaluate --lang ja
  go run ./cmd/audit stress --fees 0,329.17,1000
  go run ./cmd/audit thresholds
  go run ./cmd/audit api --schedule
  go run ./cmd/audit test-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&auditConfigPath, "audit-config", "", "audit YAML (default AUDIT_CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVar(&demoMode, "demo", false, "use the offline demo snapshot instead of live sources")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "narrative language: en | ja (default AUDIT_LANGUAGE)")
}
