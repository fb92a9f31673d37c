// Package collector gathers one immutable engine.Snapshot per evaluation cycle.
package collector

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/internal/external/fred"
	"github.com/wonny/crisis-audit/internal/external/sheets"
	"github.com/wonny/crisis-audit/internal/external/yahoo"
	"github.com/wonny/crisis-audit/internal/series"
	"github.com/wonny/crisis-audit/pkg/logger"
	"github.com/wonny/crisis-audit/pkg/redis"
)

// =============================================================================
// Sources
// =============================================================================

// MarketSource prices and fundamentals (yahoo.Client)
type MarketSource interface {
	Chart(ctx context.Context, symbol string, lookback time.Duration) (yahoo.Quote, error)
	Fundamentals(ctx context.Context, symbol string) (yahoo.Fundamentals, error)
}

// RateSource policy and market rates (fred.Client)
type RateSource interface {
	Observations(ctx context.Context, seriesID string, start time.Time) (series.Series, error)
}

// AuctionSource auction tails by security term (treasury.Client)
type AuctionSource interface {
	Tails(ctx context.Context, term string) (series.Series, error)
}

// SheetSource published override and liquidity sheets (sheets.Client)
type SheetSource interface {
	Overrides(ctx context.Context) (map[string]float64, error)
	Tails(ctx context.Context) (series.Series, error)
}

// Sources every collaborator the collector reads from
type Sources struct {
	Market   MarketSource
	Rates    RateSource
	Auctions AuctionSource
	Sheets   SheetSource
}

// =============================================================================
// Collector
// =============================================================================

const maxConcurrentFetches = 8

// Failure one fetch that did not produce data
type Failure struct {
	Source string `json:"source"`
	ID     string `json:"id"`
	Error  string `json:"error"`
}

// Result snapshot plus the runtime overrides read alongside it
type Result struct {
	Snapshot  engine.Snapshot    `json:"snapshot"`
	Overrides map[string]float64 `json:"overrides"`
	Failures  []Failure          `json:"failures"`
}

// Collector fetches every input concurrently and never substitutes defaults for
// failed fetches: a failure becomes a Failed reading.
// ⭐ SSOT: the engine never sees a partially mutated snapshot
type Collector struct {
	cfg     *auditconfig.Config
	sources Sources
	cache   *redis.Cache
	logger  *logger.Logger
	now     func() time.Time
}

// New creates a collector; a nil cache disables caching
func New(cfg *auditconfig.Config, sources Sources, cache *redis.Cache, log *logger.Logger) *Collector {
	if cache == nil {
		cache = redis.NewCache(redis.Disabled(), "audit")
	}
	return &Collector{
		cfg:     cfg,
		sources: sources,
		cache:   cache,
		logger:  log.WithComponent("collector"),
		now:     time.Now,
	}
}

// fundamentalsRecord JSON-safe fundamentals (NaN does not encode)
type fundamentalsRecord struct {
	FreeCashFlow *float64 `json:"free_cash_flow"`
	CapEx        *float64 `json:"capex"`
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func ptrReading(v *float64) engine.Reading {
	if v == nil {
		return engine.Empty()
	}
	return engine.Present(*v)
}

// Collect runs one collection cycle. It returns an error only when ctx ends.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	now := c.now()
	lookback := time.Duration(c.cfg.Sources.HistoryDays) * 24 * time.Hour
	start := now.Add(-lookback)

	var (
		mu       sync.Mutex
		failures []Failure
	)
	fail := func(source, id string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, Failure{Source: source, ID: id, Error: err.Error()})
	}

	snap := engine.Snapshot{
		AsOf:     now,
		Universe: c.cfg.UniverseSpec(),
	}

	tickers := c.cfg.Tickers()
	charts := make([]engine.SeriesInput, len(tickers))
	lastPrices := make([]engine.Reading, len(tickers))
	funds := make([]fundamentalsRecord, len(c.cfg.Entities))
	fundErrs := make([]error, len(c.cfg.Entities))
	var overrides map[string]float64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	// === Price layer ===
	g.Go(func() error {
		snap.SPX = c.quote(gctx, c.cfg.Sources.SPXSymbol, lookback, fail).Price
		return nil
	})
	g.Go(func() error {
		snap.FANG = c.quote(gctx, c.cfg.Sources.FANGSymbol, lookback, fail).Price
		return nil
	})

	// === Liquidity layer ===
	g.Go(func() error {
		snap.TNX = c.quote(gctx, c.cfg.Sources.TNXSymbol, lookback, fail).Closes
		return nil
	})
	var sofr, iorb engine.SeriesInput
	g.Go(func() error {
		sofr = c.rate(gctx, fred.SeriesSOFR, start, fail)
		return nil
	})
	g.Go(func() error {
		iorb = c.rate(gctx, fred.SeriesIORB, start, fail)
		return nil
	})
	g.Go(func() error {
		snap.RealYield = c.rate(gctx, fred.SeriesRealYield, start, fail)
		return nil
	})
	g.Go(func() error {
		snap.AuctionTail = c.tails(gctx, fail)
		return nil
	})

	// === Durability + market layers ===
	for i, ticker := range tickers {
		g.Go(func() error {
			q := c.quote(gctx, ticker, lookback, fail)
			charts[i], lastPrices[i] = q.Closes, q.Price
			return nil
		})
	}
	for i, e := range c.cfg.Entities {
		g.Go(func() error {
			funds[i], fundErrs[i] = c.fundamentals(gctx, e.Ticker)
			if fundErrs[i] != nil {
				fail("yahoo_fundamentals", e.Ticker, fundErrs[i])
			}
			return nil
		})
	}

	// === Runtime overrides ===
	g.Go(func() error {
		o, err := redis.Remember(gctx, c.cache, redis.SheetKey("config"), redis.TTLSheet,
			func(ctx context.Context) (map[string]float64, error) {
				return c.sources.Sheets.Overrides(ctx)
			})
		if err != nil {
			if !errors.Is(err, sheets.ErrNotConfigured) {
				fail("config_sheet", "overrides", err)
			}
			return nil
		}
		overrides = o
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap.SOFR, snap.IORB = pairRates(sofr, iorb)

	snap.Prices = make(map[string]engine.SeriesInput, len(tickers))
	priceOf := make(map[string]engine.Reading, len(tickers))
	for i, t := range tickers {
		snap.Prices[t] = charts[i]
		priceOf[t] = lastPrices[i]
	}

	snap.Entities = make([]engine.EntityInput, len(c.cfg.Entities))
	for i, e := range c.cfg.Entities {
		in := engine.EntityInput{
			Ticker:       e.Ticker,
			Price:        priceOf[e.Ticker],
			EnergyVolume: ptrReading(e.EnergyVolumeMWh),
		}
		if fundErrs[i] != nil {
			in.CashFlow = engine.Failed(fundErrs[i])
			in.CapEx = engine.Failed(fundErrs[i])
		} else {
			in.CashFlow = ptrReading(funds[i].FreeCashFlow)
			in.CapEx = ptrReading(funds[i].CapEx)
		}
		snap.Entities[i] = in
	}

	if len(failures) > 0 {
		c.logger.WithFields(map[string]interface{}{
			"failures": len(failures),
		}).Warn("collection finished with failed sources")
	}

	return &Result{Snapshot: snap, Overrides: overrides, Failures: failures}, nil
}

// pairRates reads SOFR and IORB on their latest common date.
// SOFR is published a business day after IORB, so the two latest points differ in date.
func pairRates(sofr, iorb engine.SeriesInput) (engine.Reading, engine.Reading) {
	if !sofr.Available() || !iorb.Available() {
		return sofr.Latest(), iorb.Latest()
	}
	a, b, ok := series.LatestCommon(sofr.Points, iorb.Points)
	if !ok {
		missing := engine.Reading{Status: engine.StatusEmpty, Reason: "no common SOFR/IORB date"}
		return missing, missing
	}
	return engine.Present(a.Value), engine.Present(b.Value)
}

type quoteInput struct {
	Price  engine.Reading
	Closes engine.SeriesInput
}

func (c *Collector) quote(ctx context.Context, symbol string, lookback time.Duration, fail func(string, string, error)) quoteInput {
	q, err := redis.Remember(ctx, c.cache, redis.SeriesKey("yahoo", symbol), redis.TTLMarket,
		func(ctx context.Context) (yahoo.Quote, error) {
			return c.sources.Market.Chart(ctx, symbol, lookback)
		})
	if err != nil {
		fail("yahoo_chart", symbol, err)
		return quoteInput{Price: engine.Failed(err), Closes: engine.FailedSeries(err)}
	}

	in := quoteInput{Closes: engine.PresentSeries(q.Closes), Price: engine.Empty()}
	if q.Price != 0 {
		in.Price = engine.Present(q.Price)
	}
	return in
}

func (c *Collector) rate(ctx context.Context, id string, start time.Time, fail func(string, string, error)) engine.SeriesInput {
	s, err := redis.Remember(ctx, c.cache, redis.SeriesKey("fred", id), redis.TTLMarket,
		func(ctx context.Context) (series.Series, error) {
			return c.sources.Rates.Observations(ctx, id, start)
		})
	if err != nil {
		fail("fred", id, err)
		return engine.FailedSeries(err)
	}
	return engine.PresentSeries(s)
}

func (c *Collector) fundamentals(ctx context.Context, ticker string) (fundamentalsRecord, error) {
	return redis.Remember(ctx, c.cache, redis.FundamentalsKey(ticker), redis.TTLDaily,
		func(ctx context.Context) (fundamentalsRecord, error) {
			f, err := c.sources.Market.Fundamentals(ctx, ticker)
			if err != nil {
				return fundamentalsRecord{}, err
			}
			return fundamentalsRecord{
				FreeCashFlow: finitePtr(f.FreeCashFlow),
				CapEx:        finitePtr(f.CapEx),
			}, nil
		})
}

// tails reads the configured primary tail source and falls back to the other one
func (c *Collector) tails(ctx context.Context, fail func(string, string, error)) engine.SeriesInput {
	term := c.cfg.Sources.AuctionTerm
	treasury := func(ctx context.Context) (series.Series, error) {
		return redis.Remember(ctx, c.cache, redis.SeriesKey("treasury", term), redis.TTLDaily,
			func(ctx context.Context) (series.Series, error) {
				return c.sources.Auctions.Tails(ctx, term)
			})
	}
	sheet := func(ctx context.Context) (series.Series, error) {
		return redis.Remember(ctx, c.cache, redis.SheetKey("liquidity"), redis.TTLSheet,
			func(ctx context.Context) (series.Series, error) {
				return c.sources.Sheets.Tails(ctx)
			})
	}

	type source struct {
		name  string
		fetch func(context.Context) (series.Series, error)
	}
	order := []source{{"treasury", treasury}, {"liquidity_sheet", sheet}}
	if c.cfg.Sources.TailSource == auditconfig.TailSourceSheet {
		order[0], order[1] = order[1], order[0]
	}

	var lastErr error
	for _, src := range order {
		s, err := src.fetch(ctx)
		if err == nil && len(s) > 0 {
			return engine.PresentSeries(s)
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, sheets.ErrNotConfigured) {
			fail(src.name, term, err)
		}
		lastErr = err
	}

	if lastErr != nil {
		return engine.FailedSeries(lastErr)
	}
	return engine.PresentSeries(nil)
}
