package fred

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/wonny/crisis-audit/internal/series"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
)

// FRED series IDs used by the audit
const (
	SeriesSOFR      = "SOFR"   // Secured Overnight Financing Rate
	SeriesIORB      = "IORB"   // Interest on Reserve Balances
	SeriesRealYield = "DFII10" // 10Y TIPS real yield
	SeriesTenYear   = "DGS10"  // 10Y nominal constant maturity
)

// ErrNoAPIKey FRED_API_KEY is not configured
var ErrNoAPIKey = errors.New("fred: api key not configured")

// Client FRED observations API
// ⭐ SSOT: FRED calls happen only in this client
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a FRED client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("fred"),
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// Observations fetches a series from start (inclusive) to today, oldest first.
// FRED marks holidays with "."; those points are skipped.
func (c *Client) Observations(ctx context.Context, seriesID string, start time.Time) (series.Series, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	q.Set("observation_start", start.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/series/observations?%s", c.baseURL, q.Encode())

	var resp observationsResponse
	if err := c.httpClient.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("fred %s: %w", seriesID, err)
	}

	points := make([]series.Point, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		if o.Value == "" || o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		d, err := time.Parse("2006-01-02", o.Date)
		if err != nil {
			continue
		}
		points = append(points, series.Point{Time: d, Value: v})
	}

	c.logger.WithFields(map[string]interface{}{
		"series": seriesID,
		"points": len(points),
	}).Debug("fred observations fetched")

	return series.Sorted(points), nil
}
