package engine

// =============================================================================
// Threshold Classifiers (pure)
// =============================================================================
// Every classifier checks the most severe band first and falls through to the
// less severe ones; the first match wins. Unavailable input → LevelUnknown.

// bandAbove classifies with strict > comparisons (higher value = worse)
func bandAbove(r Reading, critical, warning float64) Level {
	if !r.Available() {
		return LevelUnknown
	}
	if r.Value > critical {
		return LevelCritical
	}
	if r.Value > warning {
		return LevelWarning
	}
	return LevelHealthy
}

// bandBelow classifies with strict < comparisons (lower value = worse)
func bandBelow(r Reading, danger, watch float64) Level {
	if !r.Available() {
		return LevelUnknown
	}
	if r.Value < danger {
		return LevelCritical
	}
	if r.Value < watch {
		return LevelWarning
	}
	return LevelHealthy
}

// ClassifyReserveSpread SOFR−IORB spread in percentage points
func ClassifyReserveSpread(spread Reading, th Thresholds) Level {
	return bandAbove(spread, th.SpreadCritical, th.SpreadWarning)
}

// ClassifyRateDeviation 10Y yield deviation from its short moving average
func ClassifyRateDeviation(dev Reading, th Thresholds) Level {
	return bandAbove(dev, th.RateDeviationCritical, th.RateDeviationWarning)
}

// ClassifyRealYield 10Y TIPS real yield level
func ClassifyRealYield(realYield Reading, th Thresholds) Level {
	return bandAbove(realYield, th.RealYieldCritical, th.RealYieldWarning)
}

// ClassifyAuctionTail treasury auction tail size
func ClassifyAuctionTail(tail Reading, th Thresholds) Level {
	return bandAbove(tail, th.TailCritical, th.TailWarning)
}

// ClassifyAggregateSolvency aggregate cash / physical burden.
// < critical → CRITICAL, <= warning → WARNING (inclusive), else HEALTHY.
func ClassifyAggregateSolvency(ratio Reading, th Thresholds) Level {
	if !ratio.Available() {
		return LevelUnknown
	}
	if ratio.Value < th.SolvencyCritical {
		return LevelCritical
	}
	if ratio.Value <= th.SolvencyWarning {
		return LevelWarning
	}
	return LevelHealthy
}

// ClassifyDurability per-entity PSR on the 4-band scale (lower bounds inclusive)
func ClassifyDurability(psr Reading, th Thresholds) Durability {
	if !psr.Available() {
		return DurabilityUnknown
	}
	switch {
	case psr.Value < th.DurabilityWeak:
		return DurabilityBroken
	case psr.Value < th.DurabilityMid:
		return DurabilityWeak
	case psr.Value < th.DurabilityStrong:
		return DurabilityMid
	default:
		return DurabilityStrong
	}
}

// durabilityFloor returns the inclusive lower boundary of a durability band
func durabilityFloor(d Durability, th Thresholds) (float64, bool) {
	switch d {
	case DurabilityWeak:
		return th.DurabilityWeak, true
	case DurabilityMid:
		return th.DurabilityMid, true
	case DurabilityStrong:
		return th.DurabilityStrong, true
	default:
		return 0, false
	}
}

// ClassifyDefenseLine price index vs its defense and friction lines (<= inclusive).
// friction is the looser line (friction >= defense).
func ClassifyDefenseLine(index Reading, defense, friction float64) Level {
	if !index.Available() {
		return LevelUnknown
	}
	if index.Value <= defense {
		return LevelCritical
	}
	if index.Value <= friction {
		return LevelWarning
	}
	return LevelHealthy
}

// ClassifyRelativePerformance group return minus benchmark return (fraction, -0.10 = -10%)
func ClassifyRelativePerformance(rel Reading, th Thresholds) Level {
	return bandBelow(rel, th.RelativeDanger, th.RelativeWatch)
}

// ClassifyCreditSpread high-yield proxy return minus credit proxy return
func ClassifyCreditSpread(spread Reading, th Thresholds) Level {
	return bandBelow(spread, th.CreditDanger, th.CreditWatch)
}

// LiquidityStress SOFR−IORB at or above the stress spread (inclusive)
func LiquidityStress(spread Reading, th Thresholds) Flag {
	if !spread.Available() {
		return FlagUnknown
	}
	return FlagOf(spread.Value >= th.LiquidityStressSpread)
}
