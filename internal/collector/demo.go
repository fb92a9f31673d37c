package collector

import (
	"context"
	"time"

	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/internal/series"
)

// Demo builds a deterministic offline snapshot for the configured universe.
// Values are illustrative and sit near the default bands so every layer is populated.
func Demo(cfg *auditconfig.Config, now time.Time) *Result {
	days := cfg.Sources.HistoryDays

	snap := engine.Snapshot{
		AsOf:        now,
		SPX:         engine.Present(6950),
		FANG:        engine.Present(12600),
		SOFR:        engine.Present(4.36),
		IORB:        engine.Present(4.40),
		TNX:         engine.PresentSeries(ramp(now, days, 4.05, 4.32)),
		RealYield:   engine.PresentSeries(ramp(now, days, 1.85, 2.12)),
		AuctionTail: engine.PresentSeries(ramp(now, 6, 0.4, 1.3)),
		Universe:    cfg.UniverseSpec(),
		Prices:      make(map[string]engine.SeriesInput),
	}

	for i, ticker := range cfg.Tickers() {
		// alternate mild gains and losses across the universe
		drift := 0.08 - 0.03*float64(i%5)
		snap.Prices[ticker] = engine.PresentSeries(ramp(now, days, 100, 100*(1+drift)))
	}

	for i, e := range cfg.Entities {
		cash := 40e9 + 6e9*float64(i%4)
		capex := 30e9 + 4e9*float64(i%3)
		last, _ := snap.Prices[e.Ticker].Points.Latest()

		in := engine.EntityInput{
			Ticker:       e.Ticker,
			Price:        engine.Present(last.Value),
			CashFlow:     engine.Present(cash),
			CapEx:        engine.Present(-capex),
			EnergyVolume: ptrReading(e.EnergyVolumeMWh),
		}
		snap.Entities = append(snap.Entities, in)
	}

	return &Result{Snapshot: snap}
}

// ramp n daily points ending at now, linear from start to end
func ramp(now time.Time, n int, start, end float64) series.Series {
	if n < 2 {
		n = 2
	}
	points := make([]series.Point, n)
	step := (end - start) / float64(n-1)
	for i := range points {
		points[i] = series.Point{
			Time:  now.AddDate(0, 0, i-(n-1)).Truncate(24 * time.Hour),
			Value: start + step*float64(i),
		}
	}
	return series.Series(points)
}

// DemoCollector serves Demo snapshots through the collector interface
type DemoCollector struct {
	cfg *auditconfig.Config
	now func() time.Time
}

// NewDemo creates an offline collector
func NewDemo(cfg *auditconfig.Config) *DemoCollector {
	return &DemoCollector{cfg: cfg, now: time.Now}
}

// Collect returns a fresh demo snapshot stamped with the current time
func (d *DemoCollector) Collect(ctx context.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Demo(d.cfg, d.now()), nil
}
