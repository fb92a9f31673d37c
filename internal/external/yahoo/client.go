package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/crisis-audit/internal/series"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
)

// Symbols referenced by default
const (
	SymbolSPX  = "^GSPC"
	SymbolFANG = "^NYFANG"
	SymbolTNX  = "^TNX"
)

var (
	ErrNoData   = errors.New("yahoo: no data")
	ErrUpstream = errors.New("yahoo: upstream error")
)

// Client Yahoo Finance chart and fundamentals endpoints
// ⭐ SSOT: Yahoo calls happen only in this client
type Client struct {
	httpClient      *httputil.Client
	logger          *logger.Logger
	chartURL        string
	fundamentalsURL string
	now             func() time.Time
}

// NewClient creates a Yahoo client
func NewClient(httpClient *httputil.Client, log *logger.Logger, chartURL, fundamentalsURL string) *Client {
	return &Client{
		httpClient:      httpClient,
		logger:          log.WithComponent("yahoo"),
		chartURL:        strings.TrimRight(chartURL, "/"),
		fundamentalsURL: strings.TrimRight(fundamentalsURL, "/"),
		now:             time.Now,
	}
}

// =============================================================================
// Chart
// =============================================================================

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quote latest market price plus daily close history
type Quote struct {
	Symbol string
	Price  float64
	Closes series.Series
}

// Chart fetches daily closes for the last lookback period
func (c *Client) Chart(ctx context.Context, symbol string, lookback time.Duration) (Quote, error) {
	end := c.now()
	start := end.Add(-lookback)

	endpoint := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d",
		c.chartURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return Quote{}, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return Quote{}, fmt.Errorf("%w: %s: %s", ErrUpstream, symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("%w: chart %s", ErrNoData, symbol)
	}

	r := resp.Chart.Result[0]
	points := make([]series.Point, 0, len(r.Timestamp))
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i, ts := range r.Timestamp {
			if i >= len(closes) || closes[i] == nil {
				continue
			}
			points = append(points, series.Point{
				Time:  time.Unix(ts, 0).UTC(),
				Value: *closes[i],
			})
		}
	}

	q := Quote{Symbol: symbol, Price: r.Meta.RegularMarketPrice, Closes: series.Sorted(points)}
	if q.Price == 0 {
		if last, ok := q.Closes.Latest(); ok {
			q.Price = last.Value
		}
	}
	if q.Price == 0 && len(q.Closes) == 0 {
		return Quote{}, fmt.Errorf("%w: chart %s", ErrNoData, symbol)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"points": len(q.Closes),
		"price":  q.Price,
	}).Debug("yahoo chart fetched")

	return q, nil
}

// =============================================================================
// Fundamentals
// =============================================================================

const (
	typeFreeCashFlow = "annualFreeCashFlow"
	typeCapEx        = "annualCapitalExpenditure"
)

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *apiError                    `json:"error"`
	} `json:"timeseries"`
}

type reportedPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

// Fundamentals latest annual cash flow figures. A missing figure is NaN.
type Fundamentals struct {
	Symbol       string
	FreeCashFlow float64
	CapEx        float64
	AsOf         time.Time
}

// Fundamentals fetches the most recent annual free cash flow and capital expenditure
func (c *Client) Fundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	end := c.now()
	start := end.AddDate(-5, 0, 0)

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("type", typeFreeCashFlow+","+typeCapEx)
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	endpoint := fmt.Sprintf("%s/%s?%s", c.fundamentalsURL, url.PathEscape(symbol), q.Encode())

	var resp timeseriesResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return Fundamentals{}, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}
	if resp.Timeseries.Error != nil {
		return Fundamentals{}, fmt.Errorf("%w: %s: %s", ErrUpstream, symbol, resp.Timeseries.Error.Description)
	}

	f := Fundamentals{Symbol: symbol, FreeCashFlow: math.NaN(), CapEx: math.NaN()}
	for _, result := range resp.Timeseries.Result {
		for _, key := range []string{typeFreeCashFlow, typeCapEx} {
			raw, ok := result[key]
			if !ok {
				continue
			}
			value, asOf, ok := latestReported(raw)
			if !ok {
				continue
			}
			if key == typeFreeCashFlow {
				f.FreeCashFlow = value
			} else {
				f.CapEx = value
			}
			if asOf.After(f.AsOf) {
				f.AsOf = asOf
			}
		}
	}

	if math.IsNaN(f.FreeCashFlow) && math.IsNaN(f.CapEx) {
		return Fundamentals{}, fmt.Errorf("%w: fundamentals %s", ErrNoData, symbol)
	}
	return f, nil
}

// latestReported picks the newest non-null reported value
func latestReported(raw json.RawMessage) (float64, time.Time, bool) {
	var points []*reportedPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return 0, time.Time{}, false
	}

	var best *reportedPoint
	var bestDate time.Time
	for _, p := range points {
		if p == nil {
			continue
		}
		d, err := time.Parse("2006-01-02", p.AsOfDate)
		if err != nil {
			continue
		}
		if best == nil || d.After(bestDate) {
			best, bestDate = p, d
		}
	}
	if best == nil {
		return 0, time.Time{}, false
	}
	return best.ReportedValue.Raw, bestDate, true
}
