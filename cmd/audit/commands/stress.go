package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/crisis-audit/internal/engine"
)

// stressCmd represents the stress command
var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "단가 스트레스 테스트",
	Long: `Re-evaluates infrastructure-adjusted durability across unit fees.

Without --fees the sensitivity.stress_unit_fees list from the audit YAML is used.

Example:
  go run ./cmd/audit stress
  go run ./cmd/audit stress --fees 0,329.17,1000 --demo`,
	RunE: runStress,
}

var stressFees string

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().StringVar(&stressFees, "fees", "", "comma-separated unit fees (USD/MWh)")
}

func runStress(cmd *cobra.Command, args []string) error {
	fees, err := parseFeeList(stressFees)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	points, err := a.brain.Stress(ctx, fees)
	if err != nil {
		return fmt.Errorf("❌ stress sweep: %w", err)
	}

	fmt.Println("=== Unit Fee Stress Sweep ===")
	fmt.Printf("%10s  %10s  %-9s  %8s  %5s  %6s  %7s  %6s\n",
		"fee", "agg PSR", "level", "survivor", "watch", "hazard", "unknown", "broken")
	for _, p := range points {
		psr := "n/a"
		if p.Aggregate.Available {
			psr = fmt.Sprintf("%.3f", p.Aggregate.Value)
		}
		fmt.Printf("%10.2f  %10s  %-9s  %8d  %5d  %6d  %7d  %6d\n",
			p.UnitFee, psr, p.Aggregate.Level,
			p.Classes[engine.ClassSurvivor], p.Classes[engine.ClassWatch],
			p.Classes[engine.ClassHazard], p.Classes[engine.ClassUnknown], p.Broken)
	}
	return nil
}

func parseFeeList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	fees := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("invalid fee %q", p)
		}
		fees = append(fees, v)
	}
	return fees, nil
}
