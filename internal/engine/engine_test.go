package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/crisis-audit/internal/series"
)

var asOf = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

// linear builds n daily points from start to end
func linear(n int, start, end float64) SeriesInput {
	s := make(series.Series, n)
	step := (end - start) / float64(n-1)
	for i := 0; i < n; i++ {
		s[i] = series.Point{
			Time:  asOf.AddDate(0, 0, i-n+1),
			Value: start + step*float64(i),
		}
	}
	return PresentSeries(s)
}

func values(vs ...float64) SeriesInput {
	s := make(series.Series, len(vs))
	for i, v := range vs {
		s[i] = series.Point{Time: asOf.AddDate(0, 0, i-len(vs)+1), Value: v}
	}
	return PresentSeries(s)
}

func scenarioSnapshot() Snapshot {
	return Snapshot{
		AsOf:        asOf,
		SPX:         Present(7100),
		FANG:        Present(13000),
		SOFR:        Present(5.36),
		IORB:        Present(5.30),
		TNX:         values(4, 4, 4, 4, 4.25),
		RealYield:   values(1.0),
		AuctionTail: values(0.5),
		Entities: []EntityInput{
			entity("AAA", 150, 100, 0),
			entity("BBB", 95, 100, 0),
			entity("CCC", 115, 100, 0),
		},
		Prices: map[string]SeriesInput{
			"AAA": linear(61, 100, 130),
			"BBB": linear(61, 100, 70),
			"SPY": linear(61, 100, 100),
			"HYG": linear(61, 80, 80),
			"LQD": linear(61, 110, 110),
		},
		Universe: Universe{
			FocusName:      "test",
			Focus:          []string{"AAA", "BBB"},
			Benchmark:      []string{"SPY"},
			CreditProxy:    "LQD",
			HighYieldProxy: "HYG",
		},
	}
}

func TestEvaluate_LiquidityScenario(t *testing.T) {
	r := New(DefaultThresholds()).Evaluate(scenarioSnapshot())

	got := []Level{}
	for _, ind := range r.Liquidity.Indicators() {
		got = append(got, ind.Level)
	}
	assert.Equal(t, []Level{C, C, H, H}, got)
	assert.Equal(t, LevelCritical, r.Liquidity.Composite.Level)
	assert.Equal(t, 2, r.Liquidity.Composite.RedCount)

	assert.InDelta(t, 0.06, r.Liquidity.ReserveSpread.Value, 1e-9)
	assert.InDelta(t, 0.20, r.Liquidity.RateDeviation.Value, 1e-9)
	assert.Equal(t, FlagTrue, r.LiquidityStress)
}

func TestEvaluate_Layers(t *testing.T) {
	r := New(DefaultThresholds()).Evaluate(scenarioSnapshot())

	assert.Equal(t, asOf, r.AsOf)
	assert.Equal(t, LevelHealthy, r.Price.Level)
	assert.Equal(t, LevelWarning, r.Overall, "stress without breach")

	// 360 / 300 sits on the inclusive warning bound
	d := r.Durability
	assert.Equal(t, 3, d.Covered)
	assert.InDelta(t, 1.2, d.Aggregate.Value, 1e-12)
	assert.Equal(t, LevelWarning, d.Aggregate.Level)
	assert.False(t, d.Fallback)

	require.Len(t, d.Entities, 3)
	byTicker := map[string]EntityMetric{}
	for _, m := range d.Entities {
		byTicker[m.Ticker] = m
	}

	assert.Equal(t, DurabilityStrong, byTicker["AAA"].Durability)
	assert.Equal(t, MarketFavored, byTicker["AAA"].Market)
	assert.Equal(t, ClassSurvivor, byTicker["AAA"].Class)

	assert.Equal(t, DurabilityBroken, byTicker["BBB"].Durability)
	assert.Equal(t, LevelCritical, byTicker["BBB"].Tier)
	assert.Equal(t, MarketDumped, byTicker["BBB"].Market)
	assert.Equal(t, ClassHazard, byTicker["BBB"].Class)

	assert.Equal(t, DurabilityMid, byTicker["CCC"].Durability)
	assert.Equal(t, MarketUnknown, byTicker["CCC"].Market, "no price history")
	assert.Equal(t, ClassUnknown, byTicker["CCC"].Class)

	assert.Equal(t, 1, d.Classes[ClassSurvivor])
	assert.Equal(t, 1, d.Classes[ClassHazard])
	assert.Equal(t, 1, d.Classes[ClassUnknown])

	assert.Equal(t, LevelHealthy, r.Market.GroupRelative.Level)
	assert.InDelta(t, 0.0, r.Market.CreditSpread.Value, 1e-12)
}

func TestEvaluate_BreachAndStressIsCritical(t *testing.T) {
	snap := scenarioSnapshot()
	snap.SPX = Present(6800)

	r := New(DefaultThresholds()).Evaluate(snap)
	assert.Equal(t, LevelCritical, r.Price.Level)
	assert.Equal(t, LevelCritical, r.Overall)
}

func TestEvaluate_FiveBpSpreadOnBoundary(t *testing.T) {
	e := New(DefaultThresholds())
	for _, rates := range [][2]float64{{4.40, 4.35}, {4.38, 4.33}} {
		snap := scenarioSnapshot()
		snap.SOFR, snap.IORB = Present(rates[0]), Present(rates[1])

		r := e.Evaluate(snap)
		assert.Equal(t, 0.05, r.Liquidity.ReserveSpread.Value, "%v", rates)
		assert.Equal(t, LevelWarning, r.Liquidity.ReserveSpread.Level, "%v", rates)
		assert.Equal(t, FlagTrue, r.LiquidityStress, "%v", rates)
	}
}

func TestDerived_RoundedToSourcePrecision(t *testing.T) {
	assert.Equal(t, -0.03, RelativeReturn(Present(0.02), Present(0.05)).Value)
	assert.Equal(t, -0.05, CreditSpread(Present(0.01), Present(0.06)).Value)
	assert.Equal(t, 0.0, ReserveSpread(Present(4.33), Present(4.33)).Value)
	assert.False(t, ReserveSpread(Failed(nil), Present(4.4)).Available())
}

func TestEvaluate_AllMissing(t *testing.T) {
	var r Report
	require.NotPanics(t, func() {
		r = New(DefaultThresholds()).Evaluate(Snapshot{})
	})

	assert.Equal(t, LevelUnknown, r.Overall)
	assert.Equal(t, LevelUnknown, r.Liquidity.Composite.Level)
	assert.True(t, r.Liquidity.Composite.Insufficient)
	assert.Equal(t, FlagUnknown, r.LiquidityStress)
	assert.Equal(t, LevelUnknown, r.Durability.Aggregate.Level)
	assert.False(t, r.Durability.Aggregate.Available)
	for _, ind := range r.Indicators() {
		assert.Equal(t, LevelUnknown, ind.Level, ind.ID)
	}
}

func TestEvaluate_FailedInputsStayUnknown(t *testing.T) {
	snap := scenarioSnapshot()
	snap.SOFR = Failed(assert.AnError)
	snap.TNX = FailedSeries(assert.AnError)

	r := New(DefaultThresholds()).Evaluate(snap)
	assert.Equal(t, LevelUnknown, r.Liquidity.ReserveSpread.Level)
	assert.Equal(t, StatusFailed, r.Liquidity.ReserveSpread.Status)
	assert.NotEmpty(t, r.Liquidity.ReserveSpread.Reason)
	assert.Equal(t, FlagUnknown, r.LiquidityStress)
	assert.Equal(t, LevelUnknown, r.Overall, "healthy price with unknown stress is undetermined")
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := New(DefaultThresholds())
	snap := scenarioSnapshot()

	assert.Equal(t, e.Evaluate(snap), e.Evaluate(snap))
}

func TestEvaluate_ZeroBurdenFallback(t *testing.T) {
	snap := scenarioSnapshot()
	snap.Entities = []EntityInput{entity("AAA", 10, 0, 0)}

	r := New(DefaultThresholds()).Evaluate(snap)
	assert.True(t, r.Durability.Fallback)
	assert.Equal(t, 1.5, r.Durability.Aggregate.Value)
	assert.True(t, r.Durability.Entities[0].PSR.Fallback)
}

func TestStressSweep(t *testing.T) {
	model := DefaultBurdenModel()
	model.DeltaElectricity = nil
	e := NewWithModel(DefaultThresholds(), model)

	snap := scenarioSnapshot()
	snap.Entities = []EntityInput{entity("AAA", 150, 100, 8760)}

	points := e.StressSweep(snap, []float64{0, 0.1, 1})
	require.Len(t, points, 3)

	// fee 0: burden = capex only
	assert.InDelta(t, 1.5, points[0].Aggregate.Value, 1e-12)
	assert.Equal(t, 0, points[0].Broken)

	assert.Greater(t, points[0].Aggregate.Value, points[1].Aggregate.Value)
	assert.Greater(t, points[1].Aggregate.Value, points[2].Aggregate.Value)
	assert.Equal(t, 1, points[2].Broken)
	assert.Equal(t, LevelCritical, points[2].Aggregate.Level)

	// engine thresholds untouched
	assert.Equal(t, 329.17, e.Thresholds().Burden.UnitFee)
}

func TestGroupReturn_Coverage(t *testing.T) {
	prices := map[string]SeriesInput{
		"A": linear(21, 100, 110),
		"B": linear(21, 100, 90),
	}

	r := GroupReturn(prices, []string{"A", "B"}, 20)
	require.True(t, r.Available())
	assert.InDelta(t, 0.0, r.Value, 1e-12)

	r = GroupReturn(prices, []string{"A", "X", "Y"}, 20)
	assert.False(t, r.Available(), "fewer than half the members")

	r = GroupReturn(prices, nil, 20)
	assert.False(t, r.Available())
}
