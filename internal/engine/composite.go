package engine

// =============================================================================
// Composite Aggregators (pure)
// =============================================================================

// Composite 레이어 종합 판정
type Composite struct {
	Level        Level `json:"level"`
	RedCount     int   `json:"red_count"`
	YellowCount  int   `json:"yellow_count"`
	UnknownCount int   `json:"unknown_count"`
	Partial      bool  `json:"partial"`      // unknown members could raise the level; it is the known floor
	Insufficient bool  `json:"insufficient"` // unknown members could decide the outcome
}

// countingRule is the order-independent layer rule:
//
//	red >= 2          → CRITICAL
//	red + yellow >= 2 → WARNING
//	red == 1          → WARNING (an isolated CRITICAL is downgraded)
//	otherwise         → HEALTHY
func countingRule(red, yellow int) Level {
	switch {
	case red >= 2:
		return LevelCritical
	case red+yellow >= 2:
		return LevelWarning
	case red == 1:
		return LevelWarning
	default:
		return LevelHealthy
	}
}

// Aggregate combines the sub-indicator levels of one layer.
// Unknown members are resolved both ways; when they could change the outcome
// the known floor is kept if it is already stressed, otherwise the composite
// is Unknown (insufficient data) rather than HEALTHY.
func Aggregate(levels ...Level) Composite {
	c := Composite{}
	for _, l := range levels {
		switch l {
		case LevelCritical:
			c.RedCount++
		case LevelWarning:
			c.YellowCount++
		case LevelHealthy:
		default:
			c.UnknownCount++
		}
	}

	if len(levels) == 0 {
		c.Level = LevelUnknown
		c.Insufficient = true
		return c
	}

	floor := countingRule(c.RedCount, c.YellowCount)
	ceiling := countingRule(c.RedCount+c.UnknownCount, c.YellowCount)
	switch {
	case floor == ceiling:
		c.Level = floor
	case floor.Severity() > LevelHealthy.Severity():
		c.Level = floor
		c.Partial = true
	default:
		c.Level = LevelUnknown
		c.Insufficient = true
	}
	return c
}

// combineKnown is the two-layer rule on fully known inputs
func combineKnown(price Level, stress bool) Level {
	breach := price == LevelCritical
	switch {
	case breach && stress:
		return LevelCritical
	case price.Severity() >= LevelWarning.Severity() || stress:
		return LevelWarning
	default:
		return LevelHealthy
	}
}

// CombineLayers combines the price-defense layer with the liquidity stress flag:
// breach AND stress → CRITICAL, either → WARNING, neither → HEALTHY.
// Unknown inputs are resolved over every possible value; an undetermined
// outcome keeps its certain floor when stressed, otherwise it is Unknown.
func CombineLayers(price Level, stress Flag) Level {
	prices := []Level{price}
	if !price.Known() {
		prices = []Level{LevelHealthy, LevelWarning, LevelCritical}
	}
	stresses := []bool{stress == FlagTrue}
	if stress == FlagUnknown {
		stresses = []bool{false, true}
	}

	lo, hi := LevelUnknown, LevelUnknown
	for _, p := range prices {
		for _, s := range stresses {
			out := combineKnown(p, s)
			if !lo.Known() || out.Severity() < lo.Severity() {
				lo = out
			}
			if out.Severity() > hi.Severity() {
				hi = out
			}
		}
	}

	if lo == hi || lo.Severity() > LevelHealthy.Severity() {
		return lo
	}
	return LevelUnknown
}
