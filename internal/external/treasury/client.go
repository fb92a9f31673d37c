package treasury

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/crisis-audit/internal/series"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
)

// ErrNoAuctions no usable auction row on the page
var ErrNoAuctions = errors.New("treasury: no auction results")

// Client scrapes the auction results table
// ⭐ SSOT: Treasury auction scraping happens only here
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
}

// NewClient creates a Treasury auction client
func NewClient(httpClient *httputil.Client, log *logger.Logger, url string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("treasury"),
		url:        url,
	}
}

// Auction one parsed result row
type Auction struct {
	Date       time.Time
	Term       string
	HighYield  float64 // percent
	WhenIssued float64 // percent
}

// TailBps high yield minus when-issued yield in basis points, to 1/100 bp
func (a Auction) TailBps() float64 {
	return math.Round((a.HighYield-a.WhenIssued)*1e4) / 100
}

// Tails fetches the results page and returns tail sizes (bps) for auctions
// whose security term contains term, oldest first.
func (c *Client) Tails(ctx context.Context, term string) (series.Series, error) {
	body, err := c.httpClient.GetBytes(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("treasury auctions: %w", err)
	}

	auctions, err := ParseAuctions(body)
	if err != nil {
		return nil, err
	}

	points := make([]series.Point, 0, len(auctions))
	for _, a := range auctions {
		if term != "" && !strings.Contains(strings.ToLower(a.Term), strings.ToLower(term)) {
			continue
		}
		points = append(points, series.Point{Time: a.Date, Value: a.TailBps()})
	}

	c.logger.WithFields(map[string]interface{}{
		"term":     term,
		"auctions": len(points),
	}).Debug("treasury tails parsed")

	if len(points) == 0 {
		return nil, fmt.Errorf("%w for term %q", ErrNoAuctions, term)
	}
	return series.Sorted(points), nil
}

// column indexes located from the header row
type columns struct {
	date, term, high, wi int
}

func locateColumns(headers []string) (columns, bool) {
	cols := columns{-1, -1, -1, -1}
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(h, "auction date"):
			cols.date = i
		case strings.Contains(h, "term"):
			cols.term = i
		case strings.Contains(h, "high yield"), strings.Contains(h, "high rate"):
			cols.high = i
		case strings.Contains(h, "when-issued"), strings.Contains(h, "when issued"), h == "wi":
			cols.wi = i
		}
	}
	ok := cols.date >= 0 && cols.term >= 0 && cols.high >= 0 && cols.wi >= 0
	return cols, ok
}

// ParseAuctions extracts auction rows from the first table with the expected headers
func ParseAuctions(html []byte) ([]Auction, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse auction html: %w", err)
	}

	var auctions []Auction
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		var headers []string
		table.Find("tr").First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cell.Text())
		})

		cols, ok := locateColumns(headers)
		if !ok {
			return true
		}
		found = true

		table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

			date, err := parseDate(text(cols.date))
			if err != nil {
				return
			}
			high, err1 := parsePercent(text(cols.high))
			wi, err2 := parsePercent(text(cols.wi))
			if err1 != nil || err2 != nil {
				return
			}

			auctions = append(auctions, Auction{
				Date:       date,
				Term:       text(cols.term),
				HighYield:  high,
				WhenIssued: wi,
			})
		})
		return false
	})

	if !found || len(auctions) == 0 {
		return nil, ErrNoAuctions
	}
	return auctions, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"01/02/2006", "2006-01-02", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	if s == "" || s == "-" {
		return 0, errors.New("empty")
	}
	return strconv.ParseFloat(s, 64)
}
