package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/pkg/config"
)

// thresholdsCmd represents the thresholds command
var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "유효 임계값 및 설정 경고 출력",
	Long: `Validates the audit YAML and prints the effective thresholds
(defaults with the file's windows, sensitivity and thresholds applied).
Runtime sheet overrides are not fetched.

Example:
  go run ./cmd/audit thresholds
  go run ./cmd/audit thresholds --audit-config config/audit.yaml`,
	RunE: runThresholds,
}

func init() {
	rootCmd.AddCommand(thresholdsCmd)
}

func runThresholds(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	path := cfg.Audit.ConfigPath
	if auditConfigPath != "" {
		path = auditConfigPath
	}

	auditCfg, raw, err := auditconfig.Load(path)
	if err != nil {
		return fmt.Errorf("❌ %s: %w", path, err)
	}
	snap, err := auditconfig.NewRunSnapshot(auditCfg, raw, cfg.Audit.GitCommit)
	if err != nil {
		return err
	}
	th, _, err := auditCfg.EngineThresholds(nil)
	if err != nil {
		return fmt.Errorf("❌ thresholds: %w", err)
	}

	fmt.Printf("=== Thresholds (%s) ===\n", path)
	fmt.Printf("Audit: %s  Hash: %s\n\n", auditCfg.Meta.AuditID, shortHash(snap.ConfigHash))

	values := th.Values()
	for _, key := range th.Keys() {
		marker := " "
		if _, ok := auditCfg.Thresholds[key]; ok {
			marker = "*"
		}
		fmt.Printf("%s %-24s %g\n", marker, key, values[key])
	}
	fmt.Println("\n(* set in file)")

	warnings := auditconfig.Warn(auditCfg)
	if len(warnings) == 0 {
		fmt.Println("\n✅ Configuration valid")
		return nil
	}
	fmt.Println("\n⚠️  Warnings:")
	for _, w := range warnings {
		fmt.Printf("   [%s] %s\n", w.Code, w.Message)
	}
	return nil
}
