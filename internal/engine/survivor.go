package engine

// =============================================================================
// Multi-Axis Class Assignment (Survivor / Watch / Hazard)
// =============================================================================

// ClassifyMarket ranks market favor from two trailing relative-return windows.
// FAVORED: both windows strictly above MarketFavoredAbove.
// DUMPED:  both windows strictly below MarketDumpedBelow.
// Anything else is NEUTRAL.
func ClassifyMarket(relShort, relLong Reading, th Thresholds) MarketRank {
	if !relShort.Available() || !relLong.Available() {
		return MarketUnknown
	}
	switch {
	case relShort.Value > th.MarketFavoredAbove && relLong.Value > th.MarketFavoredAbove:
		return MarketFavored
	case relShort.Value < th.MarketDumpedBelow && relLong.Value < th.MarketDumpedBelow:
		return MarketDumped
	default:
		return MarketNeutral
	}
}

// marketFloor returns the lower boundary of the band a window has to stay above
func marketFloor(m MarketRank, th Thresholds) (float64, bool) {
	switch m {
	case MarketFavored:
		return th.MarketFavoredAbove, true
	case MarketNeutral:
		return th.MarketDumpedBelow, true
	default:
		return 0, false
	}
}

// ClassInput raw figures behind one class assignment
type ClassInput struct {
	Durability Durability
	Market     MarketRank
	PSR        Reading
	RelShort   Reading
	RelLong    Reading
}

// AssignClass combines durability and market favor into a final class.
//
//	survivor base: durability ∈ {STRONG, MID} and market ∈ {FAVORED, NEUTRAL}
//	hazard:        durability ∈ {WEAK, BROKEN} and market = DUMPED
//	otherwise:     WATCH
//
// A survivor base is only promoted when PSR and both relative returns each
// clear their band's lower boundary by the guard margin; otherwise WATCH.
// This stops an entity sitting on a boundary from flipping in and out.
func AssignClass(in ClassInput, th Thresholds) Class {
	if in.Durability == DurabilityUnknown || in.Market == MarketUnknown {
		return ClassUnknown
	}

	durable := in.Durability == DurabilityStrong || in.Durability == DurabilityMid
	fragile := in.Durability == DurabilityWeak || in.Durability == DurabilityBroken
	supported := in.Market == MarketFavored || in.Market == MarketNeutral

	switch {
	case durable && supported:
		if clearsGuard(in, th) {
			return ClassSurvivor
		}
		return ClassWatch
	case fragile && in.Market == MarketDumped:
		return ClassHazard
	default:
		return ClassWatch
	}
}

// clearsGuard anti-reversal check on all three raw values
func clearsGuard(in ClassInput, th Thresholds) bool {
	if !in.PSR.Available() || !in.RelShort.Available() || !in.RelLong.Available() {
		return false
	}

	psrFloor, ok := durabilityFloor(in.Durability, th)
	if !ok || quantize(in.PSR.Value, returnScale) < quantize(psrFloor+th.SurvivorPSRMargin, returnScale) {
		return false
	}

	retFloor, ok := marketFloor(in.Market, th)
	if !ok {
		return false
	}
	need := quantize(retFloor+th.SurvivorReturnMargin, returnScale)
	return quantize(in.RelShort.Value, returnScale) >= need && quantize(in.RelLong.Value, returnScale) >= need
}
