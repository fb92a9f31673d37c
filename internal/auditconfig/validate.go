package auditconfig

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wonny/crisis-audit/internal/engine"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.AuditID == "" {
		return ValidationError{"meta.audit_id", "required"}
	}

	// === Universe ===
	if len(cfg.Universe.Focus) == 0 {
		return ValidationError{"universe.focus", "at least one ticker required"}
	}
	if len(cfg.Universe.Benchmark) == 0 {
		return ValidationError{"universe.benchmark", "at least one ticker required"}
	}
	if cfg.Universe.CreditProxy == "" || cfg.Universe.HighYieldProxy == "" {
		return ValidationError{"universe", "credit_proxy and high_yield_proxy are required"}
	}

	// === Entities ===
	if len(cfg.Entities) == 0 {
		return ValidationError{"entities", "at least one entity required"}
	}
	seen := make(map[string]bool)
	for i, e := range cfg.Entities {
		field := fmt.Sprintf("entities[%d]", i)
		if strings.TrimSpace(e.Ticker) == "" {
			return ValidationError{field + ".ticker", "required"}
		}
		if seen[e.Ticker] {
			return ValidationError{field + ".ticker", fmt.Sprintf("duplicate ticker %s", e.Ticker)}
		}
		seen[e.Ticker] = true
		if e.EnergyVolumeMWh != nil && *e.EnergyVolumeMWh < 0 {
			return ValidationError{field + ".energy_volume_mwh", "must be >= 0"}
		}
	}

	// === Sources ===
	if cfg.Sources.SPXSymbol == "" || cfg.Sources.FANGSymbol == "" || cfg.Sources.TNXSymbol == "" {
		return ValidationError{"sources", "spx_symbol, fang_symbol and tnx_symbol are required"}
	}
	switch cfg.Sources.TailSource {
	case TailSourceTreasury, TailSourceSheet:
	default:
		return ValidationError{"sources.tail_source", "must be treasury or sheet"}
	}

	// === Windows ===
	w := cfg.Windows
	if w.RateMA <= 0 || w.Short <= 0 || w.Long <= 0 || w.Relative <= 0 {
		return ValidationError{"windows", "all windows must be > 0"}
	}
	if w.Short >= w.Long {
		return ValidationError{"windows", "short must be < long"}
	}
	if cfg.Sources.HistoryDays <= w.Long {
		return ValidationError{"sources.history_days", "must exceed windows.long"}
	}

	// === Sensitivity ===
	if cfg.Sensitivity.UnitFee < 0 || cfg.Sensitivity.PriceDeltaPerUnit < 0 || cfg.Sensitivity.UnitConversion < 0 {
		return ValidationError{"sensitivity", "values must be >= 0"}
	}
	for _, fee := range cfg.Sensitivity.StressUnitFees {
		if fee < 0 {
			return ValidationError{"sensitivity.stress_unit_fees", "fees must be >= 0"}
		}
	}

	// === Thresholds ===
	known := make(map[string]bool)
	for _, k := range engine.DefaultThresholds().Keys() {
		known[k] = true
	}
	var unknown []string
	for k := range cfg.Thresholds {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return ValidationError{"thresholds", "unknown keys: " + strings.Join(unknown, ", ")}
	}
	if _, _, err := cfg.EngineThresholds(nil); err != nil {
		return ValidationError{"thresholds", err.Error()}
	}

	return nil
}

// Warn returns non-fatal recommendations
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	missing := 0
	for _, e := range cfg.Entities {
		if e.EnergyVolumeMWh == nil {
			missing++
		}
	}
	if missing > 0 {
		warnings = append(warnings, Warning{
			Code:    "MISSING_ENERGY_VOLUME",
			Message: fmt.Sprintf("%d entities without energy_volume_mwh: their solvency ratio stays unknown", missing),
		})
	}

	if len(cfg.Universe.Benchmark) == 1 && len(cfg.Universe.Focus) > 1 {
		warnings = append(warnings, Warning{
			Code:    "SINGLE_BENCHMARK",
			Message: "benchmark has a single ticker: one failed fetch makes relative performance unknown",
		})
	}

	if len(cfg.Sensitivity.StressUnitFees) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_STRESS_FEES",
			Message: "sensitivity.stress_unit_fees is empty: stress sweep uses the configured unit fee only",
		})
	}

	return warnings
}
