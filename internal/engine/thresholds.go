package engine

import (
	"fmt"
	"sort"
)

// =============================================================================
// Thresholds
// =============================================================================

// Thresholds 분류 기준값 (band constants, defense lines, sensitivity)
// ⭐ SSOT: every constant the classifiers compare against lives here
type Thresholds struct {
	// Layer 2: liquidity friction (CRITICAL checked first, strict >)
	SpreadCritical        float64 `json:"spread_critical"`
	SpreadWarning         float64 `json:"spread_warning"`
	RateDeviationCritical float64 `json:"rate_deviation_critical"`
	RateDeviationWarning  float64 `json:"rate_deviation_warning"`
	RealYieldCritical     float64 `json:"real_yield_critical"`
	RealYieldWarning      float64 `json:"real_yield_warning"`
	TailCritical          float64 `json:"tail_critical"`
	TailWarning           float64 `json:"tail_warning"`

	// Layer 1: aggregate durability (< critical, <= warning)
	SolvencyCritical      float64 `json:"solvency_critical"`
	SolvencyWarning       float64 `json:"solvency_warning"`
	SolvencyFallbackRatio float64 `json:"solvency_fallback_ratio"`

	// Per-entity 4-band scale (lower bounds, inclusive)
	DurabilityWeak   float64 `json:"durability_weak"`
	DurabilityMid    float64 `json:"durability_mid"`
	DurabilityStrong float64 `json:"durability_strong"`

	// Price defense lines (<= inclusive)
	SPXFriction  float64 `json:"spx_friction"`
	SPXDefense   float64 `json:"spx_defense"`
	FANGFriction float64 `json:"fang_friction"`
	FANGFlip     float64 `json:"fang_flip"`

	// Liquidity stress flag for the layer combination (>= inclusive)
	LiquidityStressSpread float64 `json:"liquidity_stress_spread"`

	// Relative performance / credit spread (strict <)
	RelativeDanger float64 `json:"relative_danger"`
	RelativeWatch  float64 `json:"relative_watch"`
	CreditDanger   float64 `json:"credit_danger"`
	CreditWatch    float64 `json:"credit_watch"`

	// Market favor bands (both windows strictly beyond the bound)
	MarketFavoredAbove float64 `json:"market_favored_above"`
	MarketDumpedBelow  float64 `json:"market_dumped_below"`

	// Anti-reversal guard margins beyond the band lower boundary
	SurvivorPSRMargin    float64 `json:"survivor_psr_margin"`
	SurvivorReturnMargin float64 `json:"survivor_return_margin"`

	// Windows (trading days)
	RateMAWindow   int `json:"rate_ma_window"`
	ShortWindow    int `json:"short_window"`
	LongWindow     int `json:"long_window"`
	RelativeWindow int `json:"relative_window"`

	// Burden sensitivity
	Burden BurdenParams `json:"burden"`
}

// DefaultThresholds 기본 기준값
func DefaultThresholds() Thresholds {
	return Thresholds{
		SpreadCritical:        0.05,
		SpreadWarning:         0.00,
		RateDeviationCritical: 0.15,
		RateDeviationWarning:  0.05,
		RealYieldCritical:     2.50,
		RealYieldWarning:      2.00,
		TailCritical:          3.0,
		TailWarning:           1.0,

		SolvencyCritical:      1.0,
		SolvencyWarning:       1.2,
		SolvencyFallbackRatio: 1.5,

		DurabilityWeak:   1.0,
		DurabilityMid:    1.1,
		DurabilityStrong: 1.3,

		SPXFriction:  7020,
		SPXDefense:   6880,
		FANGFriction: 12450,
		FANGFlip:     11820,

		LiquidityStressSpread: 0.05,

		RelativeDanger: -0.10,
		RelativeWatch:  -0.05,
		CreditDanger:   -0.10,
		CreditWatch:    -0.05,

		MarketFavoredAbove: 0.0,
		MarketDumpedBelow:  -0.05,

		SurvivorPSRMargin:    0.05,
		SurvivorReturnMargin: 0.02,

		RateMAWindow:   5,
		ShortWindow:    20,
		LongWindow:     60,
		RelativeWindow: 20,

		Burden: DefaultBurdenParams(),
	}
}

// overrideKeys maps flat configuration keys onto threshold fields
func (t *Thresholds) overrideKeys() map[string]*float64 {
	return map[string]*float64{
		"SPREAD_CRITICAL":         &t.SpreadCritical,
		"SPREAD_WARNING":          &t.SpreadWarning,
		"TNX_DEV_CRITICAL":        &t.RateDeviationCritical,
		"TNX_DEV_WARNING":         &t.RateDeviationWarning,
		"REAL_YIELD_CRITICAL":     &t.RealYieldCritical,
		"REAL_YIELD_WARNING":      &t.RealYieldWarning,
		"TAIL_CRITICAL":           &t.TailCritical,
		"TAIL_WARNING":            &t.TailWarning,
		"SOLVENCY_CRITICAL":       &t.SolvencyCritical,
		"SOLVENCY_WARNING":        &t.SolvencyWarning,
		"SOLVENCY_FALLBACK":       &t.SolvencyFallbackRatio,
		"PSR_WEAK":                &t.DurabilityWeak,
		"PSR_MID":                 &t.DurabilityMid,
		"PSR_STRONG":              &t.DurabilityStrong,
		"SPX_FRICTION":            &t.SPXFriction,
		"SPX_DEFENSE":             &t.SPXDefense,
		"FANG_FRICTION":           &t.FANGFriction,
		"FANG_FLIP":               &t.FANGFlip,
		"LIQUIDITY_STRESS_SPREAD": &t.LiquidityStressSpread,
		"RELATIVE_DANGER":         &t.RelativeDanger,
		"RELATIVE_WATCH":          &t.RelativeWatch,
		"CREDIT_DANGER":           &t.CreditDanger,
		"CREDIT_WATCH":            &t.CreditWatch,
		"MARKET_FAVORED_ABOVE":    &t.MarketFavoredAbove,
		"MARKET_DUMPED_BELOW":     &t.MarketDumpedBelow,
		"SURVIVOR_PSR_MARGIN":     &t.SurvivorPSRMargin,
		"SURVIVOR_RETURN_MARGIN":  &t.SurvivorReturnMargin,
		"UNIT_FEE":                &t.Burden.UnitFee,
		"PRICE_DELTA":             &t.Burden.PriceDeltaPerUnit,
		"UNIT_CONVERSION":         &t.Burden.UnitConversion,
	}
}

// Keys returns the recognised flat override keys, sorted
func (t Thresholds) Keys() []string {
	keys := make([]string, 0)
	for k := range t.overrideKeys() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the current value of every flat key
func (t Thresholds) Values() map[string]float64 {
	out := make(map[string]float64)
	for k, ptr := range t.overrideKeys() {
		out[k] = *ptr
	}
	return out
}

// Apply returns a copy with the flat key→value overrides applied.
// Absent keys keep their current value; unrecognised keys are returned so the
// caller can report them.
func (t Thresholds) Apply(overrides map[string]float64) (Thresholds, []string) {
	out := t
	fields := out.overrideKeys()

	var unknown []string
	for key, value := range overrides {
		ptr, ok := fields[key]
		if !ok {
			unknown = append(unknown, key)
			continue
		}
		*ptr = value
	}
	sort.Strings(unknown)
	return out, unknown
}

// Validate checks band ordering
func (t Thresholds) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"spread: critical must be >= warning", t.SpreadCritical >= t.SpreadWarning},
		{"rate deviation: critical must be >= warning", t.RateDeviationCritical >= t.RateDeviationWarning},
		{"real yield: critical must be >= warning", t.RealYieldCritical >= t.RealYieldWarning},
		{"tail: critical must be >= warning", t.TailCritical >= t.TailWarning},
		{"solvency: warning must be >= critical", t.SolvencyWarning >= t.SolvencyCritical},
		{"psr bands must be ascending", t.DurabilityWeak <= t.DurabilityMid && t.DurabilityMid <= t.DurabilityStrong},
		{"spx: friction must be >= defense", t.SPXFriction >= t.SPXDefense},
		{"fang: friction must be >= flip", t.FANGFriction >= t.FANGFlip},
		{"relative: watch must be >= danger", t.RelativeWatch >= t.RelativeDanger},
		{"credit: watch must be >= danger", t.CreditWatch >= t.CreditDanger},
		{"market: favored bound must be >= dumped bound", t.MarketFavoredAbove >= t.MarketDumpedBelow},
		{"survivor margins must be >= 0", t.SurvivorPSRMargin >= 0 && t.SurvivorReturnMargin >= 0},
		{"windows must be > 0", t.RateMAWindow > 0 && t.ShortWindow > 0 && t.LongWindow > 0 && t.RelativeWindow > 0},
		{"burden: days and hours per year must be > 0", t.Burden.DaysInYear > 0 && t.Burden.HoursInYear > 0},
	}

	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("%w: %s", ErrInvalidThresholds, c.name)
		}
	}
	return nil
}
