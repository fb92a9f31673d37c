package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/crisis-audit/internal/narrative"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "감사 1회 실행 (collect → evaluate → persist)",
	Long: `Runs one full evaluation cycle and prints the narrative.

이 명령어는:
- 시장/금리/입찰 데이터 수집
- 4개 레이어 평가 및 종합 판정
- 결과 저장 (DATABASE_URL 설정 시 PostgreSQL)

Example:
  go run ./cmd/audit evaluate
  go run ./cmd/audit evaluate --demo --lang ja
  go run ./cmd/audit evaluate --json`,
	RunE: runEvaluate,
}

var evaluateJSON bool

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false, "print the full report as JSON")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.brain.Run(ctx)
	if err != nil {
		return fmt.Errorf("❌ evaluation: %w", err)
	}
	run := result.Run

	if evaluateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	n, err := narrative.Default().Render(run.Report, a.lang)
	if err != nil {
		return err
	}

	fmt.Println("=== Structural Crisis Audit ===")
	fmt.Printf("Audit: %s  Config: %s  Source: %s\n", run.AuditID, shortHash(run.ConfigHash), run.Source)
	fmt.Printf("As of: %s\n\n", run.AsOf.Format(time.RFC3339))
	fmt.Print(n.String())

	if len(run.Failures) > 0 {
		fmt.Printf("\n⚠️  %d source failures:\n", len(run.Failures))
		for _, f := range run.Failures {
			fmt.Printf("   %-20s %-12s %s\n", f.Source, f.ID, f.Error)
		}
	}
	if result.OverrideError != nil {
		fmt.Printf("\n⚠️  Runtime overrides rejected: %v\n", result.OverrideError)
	}
	if len(result.UnknownKeys) > 0 {
		fmt.Printf("\n⚠️  Ignored override keys: %v\n", result.UnknownKeys)
	}

	fmt.Printf("\n✅ Run completed in %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
