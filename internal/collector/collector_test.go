package collector

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/internal/external/fred"
	"github.com/wonny/crisis-audit/internal/external/sheets"
	"github.com/wonny/crisis-audit/internal/external/yahoo"
	"github.com/wonny/crisis-audit/internal/series"
	"github.com/wonny/crisis-audit/pkg/logger"
)

var testNow = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func daily(values ...float64) series.Series {
	out := make(series.Series, len(values))
	for i, v := range values {
		out[i] = series.Point{Time: testNow.AddDate(0, 0, i-len(values)+1), Value: v}
	}
	return out
}

type fakeMarket struct {
	mu     sync.Mutex
	calls  map[string]int
	failed map[string]bool
}

func (f *fakeMarket) Chart(_ context.Context, symbol string, _ time.Duration) (yahoo.Quote, error) {
	f.mu.Lock()
	f.calls[symbol]++
	f.mu.Unlock()
	if f.failed[symbol] {
		return yahoo.Quote{}, errors.New("chart unavailable")
	}
	closes := daily(100, 101, 102, 103, 104, 105)
	return yahoo.Quote{Symbol: symbol, Price: 105, Closes: closes}, nil
}

func (f *fakeMarket) Fundamentals(_ context.Context, symbol string) (yahoo.Fundamentals, error) {
	if f.failed["fund:"+symbol] {
		return yahoo.Fundamentals{}, yahoo.ErrNoData
	}
	if symbol == "BBB" {
		return yahoo.Fundamentals{Symbol: symbol, FreeCashFlow: 50, CapEx: math.NaN()}, nil
	}
	return yahoo.Fundamentals{Symbol: symbol, FreeCashFlow: 150, CapEx: -100}, nil
}

type fakeRates struct {
	failed map[string]bool
	series map[string]series.Series
}

func (f *fakeRates) Observations(_ context.Context, id string, _ time.Time) (series.Series, error) {
	if f.failed[id] {
		return nil, fred.ErrNoAPIKey
	}
	if s, ok := f.series[id]; ok {
		return s, nil
	}
	switch id {
	case fred.SeriesSOFR:
		return daily(4.30, 4.45), nil
	case fred.SeriesIORB:
		return daily(4.40, 4.40), nil
	default:
		return daily(2.1, 2.2), nil
	}
}

type fakeAuctions struct{ err error }

func (f *fakeAuctions) Tails(context.Context, string) (series.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	return daily(0.5, 1.5), nil
}

type fakeSheets struct {
	overrides map[string]float64
	tails     series.Series
	err       error
}

func (f *fakeSheets) Overrides(context.Context) (map[string]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.overrides, nil
}

func (f *fakeSheets) Tails(context.Context) (series.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tails, nil
}

func testConfig() *auditconfig.Config {
	vol := 1000.0
	return &auditconfig.Config{
		Meta: auditconfig.Meta{AuditID: "t"},
		Universe: auditconfig.Universe{
			FocusName:      "focus",
			Focus:          []string{"AAA", "BBB"},
			Benchmark:      []string{"SPY"},
			CreditProxy:    "LQD",
			HighYieldProxy: "HYG",
		},
		Entities: []auditconfig.Entity{
			{Ticker: "AAA", EnergyVolumeMWh: &vol},
			{Ticker: "BBB"},
		},
		Sources: auditconfig.Sources{
			SPXSymbol: "^GSPC", FANGSymbol: "^NYFANG", TNXSymbol: "^TNX",
			AuctionTerm: "10-Year", HistoryDays: 120, TailSource: auditconfig.TailSourceTreasury,
		},
		Windows: auditconfig.Windows{RateMA: 5, Short: 20, Long: 60, Relative: 20},
	}
}

func newTestCollector(cfg *auditconfig.Config, src Sources) *Collector {
	c := New(cfg, src, nil, logger.Nop())
	c.now = func() time.Time { return testNow }
	return c
}

func defaultSources() (Sources, *fakeMarket) {
	market := &fakeMarket{calls: map[string]int{}, failed: map[string]bool{}}
	return Sources{
		Market:   market,
		Rates:    &fakeRates{failed: map[string]bool{}},
		Auctions: &fakeAuctions{},
		Sheets:   &fakeSheets{overrides: map[string]float64{"SPX_DEFENSE": 6500}},
	}, market
}

func TestCollect_AllSources(t *testing.T) {
	src, market := defaultSources()
	res, err := newTestCollector(testConfig(), src).Collect(context.Background())
	require.NoError(t, err)

	snap := res.Snapshot
	assert.Equal(t, testNow, snap.AsOf)
	assert.Equal(t, engine.Present(105), snap.SPX)
	assert.Equal(t, engine.Present(4.45), snap.SOFR)
	assert.Equal(t, engine.Present(4.40), snap.IORB)
	assert.True(t, snap.TNX.Available())
	assert.True(t, snap.RealYield.Available())
	assert.Equal(t, engine.Present(1.5), snap.AuctionTail.Latest())
	assert.Equal(t, map[string]float64{"SPX_DEFENSE": 6500}, res.Overrides)
	assert.Empty(t, res.Failures)

	for _, ticker := range []string{"AAA", "BBB", "SPY", "LQD", "HYG"} {
		assert.True(t, snap.Prices[ticker].Available(), ticker)
		assert.Equal(t, 1, market.calls[ticker], "each ticker is fetched once")
	}

	require.Len(t, snap.Entities, 2)
	aaa := snap.Entities[0]
	assert.Equal(t, engine.Present(150), aaa.CashFlow)
	assert.Equal(t, engine.Present(-100), aaa.CapEx)
	assert.Equal(t, engine.Present(1000), aaa.EnergyVolume)
	assert.Equal(t, engine.Present(105), aaa.Price)

	bbb := snap.Entities[1]
	assert.Equal(t, engine.StatusEmpty, bbb.CapEx.Status)
	assert.Equal(t, engine.StatusEmpty, bbb.EnergyVolume.Status)
}

func TestCollect_FailuresBecomeFailedReadings(t *testing.T) {
	src, market := defaultSources()
	market.failed["^GSPC"] = true
	market.failed["fund:AAA"] = true
	src.Rates = &fakeRates{failed: map[string]bool{fred.SeriesSOFR: true}}

	res, err := newTestCollector(testConfig(), src).Collect(context.Background())
	require.NoError(t, err)

	snap := res.Snapshot
	assert.Equal(t, engine.StatusFailed, snap.SPX.Status)
	assert.NotEmpty(t, snap.SPX.Reason)
	assert.Equal(t, engine.StatusFailed, snap.SOFR.Status)
	assert.Equal(t, engine.StatusFailed, snap.Entities[0].CashFlow.Status)
	assert.True(t, snap.FANG.Available())

	sources := make([]string, 0)
	for _, f := range res.Failures {
		sources = append(sources, f.Source+"/"+f.ID)
	}
	assert.ElementsMatch(t, []string{"yahoo_chart/^GSPC", "fred/SOFR", "yahoo_fundamentals/AAA"}, sources)

	report := engine.New(engine.DefaultThresholds()).Evaluate(snap)
	assert.Equal(t, engine.LevelUnknown, report.Liquidity.ReserveSpread.Level)
}

func TestCollect_RatesPairedOnCommonDate(t *testing.T) {
	day := func(offset int, v float64) series.Point {
		return series.Point{Time: testNow.AddDate(0, 0, offset), Value: v}
	}
	src, _ := defaultSources()
	// IORB already reflects a 25 bp cut that SOFR has not been published for yet
	src.Rates = &fakeRates{failed: map[string]bool{}, series: map[string]series.Series{
		fred.SeriesSOFR: {day(-2, 3.90), day(-1, 3.89)},
		fred.SeriesIORB: {day(-2, 3.90), day(-1, 3.90), day(0, 3.65)},
	}}

	res, err := newTestCollector(testConfig(), src).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.Present(3.89), res.Snapshot.SOFR)
	assert.Equal(t, engine.Present(3.90), res.Snapshot.IORB)

	r := engine.New(engine.DefaultThresholds()).Evaluate(res.Snapshot)
	assert.Equal(t, engine.LevelHealthy, r.Liquidity.ReserveSpread.Level)
	assert.Equal(t, engine.FlagFalse, r.LiquidityStress)
}

func TestCollect_RatesWithoutCommonDate(t *testing.T) {
	src, _ := defaultSources()
	src.Rates = &fakeRates{failed: map[string]bool{}, series: map[string]series.Series{
		fred.SeriesSOFR: {{Time: testNow.AddDate(0, 0, -3), Value: 3.90}},
		fred.SeriesIORB: {{Time: testNow, Value: 3.65}},
	}}

	res, err := newTestCollector(testConfig(), src).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusEmpty, res.Snapshot.SOFR.Status)
	assert.Equal(t, engine.StatusEmpty, res.Snapshot.IORB.Status)
}

func TestCollect_TailFallback(t *testing.T) {
	src, _ := defaultSources()
	src.Auctions = &fakeAuctions{err: errors.New("page layout changed")}
	src.Sheets = &fakeSheets{tails: daily(2.5)}

	res, err := newTestCollector(testConfig(), src).Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, engine.Present(2.5), res.Snapshot.AuctionTail.Latest())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "treasury", res.Failures[0].Source)
}

func TestCollect_SheetsNotConfigured(t *testing.T) {
	src, _ := defaultSources()
	src.Auctions = &fakeAuctions{err: errors.New("down")}
	src.Sheets = &fakeSheets{err: sheets.ErrNotConfigured}

	res, err := newTestCollector(testConfig(), src).Collect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Overrides)
	assert.Equal(t, engine.StatusFailed, res.Snapshot.AuctionTail.Status)
	assert.Len(t, res.Failures, 1, "an unconfigured sheet is not a failure")
}

func TestCollect_ContextCancelled(t *testing.T) {
	src, _ := defaultSources()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestCollector(testConfig(), src).Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDemo_EvaluatesEveryLayer(t *testing.T) {
	res := Demo(testConfig(), testNow)
	report := engine.New(engine.DefaultThresholds()).Evaluate(res.Snapshot)

	assert.Equal(t, engine.LevelWarning, report.Price.Level)
	assert.True(t, report.Liquidity.Composite.Level.Known())
	assert.Len(t, report.Durability.Entities, 2)
	assert.True(t, report.Overall.Known())
}
