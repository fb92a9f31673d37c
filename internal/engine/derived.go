package engine

import "math"

// =============================================================================
// Derived Metrics (pure)
// =============================================================================

// Derived values are rounded to source precision so that a figure exactly on a
// band boundary compares equal to it.
const (
	rateScale   = 1e4 // percentage points, 1/100 bp
	returnScale = 1e6 // fractional returns and ratios
)

// quantize rounds v to 1/scale
func quantize(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}

// quantized rounds an available reading to 1/scale
func quantized(r Reading, scale float64) Reading {
	if !r.Available() {
		return r
	}
	return Present(quantize(r.Value, scale))
}

// firstUnavailable returns the first reading that is not usable
func firstUnavailable(rs ...Reading) (Reading, bool) {
	for _, r := range rs {
		if !r.Available() {
			if r.Status == StatusOK {
				// finite check failed on an OK reading
				return Reading{Status: StatusEmpty, Reason: "non-finite value"}, true
			}
			return r, true
		}
	}
	return Reading{}, false
}

// Difference a − b, propagating the first unavailable input
func Difference(a, b Reading) Reading {
	if bad, ok := firstUnavailable(a, b); ok {
		return Reading{Status: bad.Status, Reason: bad.Reason}
	}
	return Present(a.Value - b.Value)
}

// ReserveSpread SOFR − IORB in percentage points
func ReserveSpread(sofr, iorb Reading) Reading {
	return quantized(Difference(sofr, iorb), rateScale)
}

// RateDeviation latest yield minus its SMA over window points
func RateDeviation(yields SeriesInput, window int) Reading {
	if !yields.Available() {
		return Reading{Status: yields.Status, Reason: yields.Reason}
	}
	dev, ok := yields.Points.DeviationFromSMA(window)
	if !ok {
		return Reading{Status: StatusEmpty, Reason: "not enough history for moving average"}
	}
	return Present(quantize(dev, rateScale))
}

// TrailingReturn return over the last days points
func TrailingReturn(prices SeriesInput, days int) Reading {
	if !prices.Available() {
		return Reading{Status: prices.Status, Reason: prices.Reason}
	}
	ret, ok := prices.Points.TrailingReturn(days)
	if !ok {
		return Reading{Status: StatusEmpty, Reason: "not enough history for trailing return"}
	}
	return Present(ret)
}

// GroupReturn equal-weighted trailing return of a group of tickers.
// At least half of the members must have a usable return.
func GroupReturn(prices map[string]SeriesInput, tickers []string, days int) Reading {
	if len(tickers) == 0 {
		return Reading{Status: StatusEmpty, Reason: "empty group"}
	}

	var sum float64
	var n int
	for _, t := range tickers {
		r := TrailingReturn(prices[t], days)
		if !r.Available() {
			continue
		}
		sum += r.Value
		n++
	}

	if n == 0 || n*2 < len(tickers) {
		return Reading{Status: StatusEmpty, Reason: "too few members with price history"}
	}
	return Present(sum / float64(n))
}

// RelativeReturn subject return minus benchmark return over the same window
func RelativeReturn(subject, benchmark Reading) Reading {
	return quantized(Difference(subject, benchmark), returnScale)
}

// CreditSpread high-yield proxy return minus investment-grade proxy return
func CreditSpread(highYield, investmentGrade Reading) Reading {
	return quantized(Difference(highYield, investmentGrade), returnScale)
}
