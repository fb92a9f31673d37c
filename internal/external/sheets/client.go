package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/crisis-audit/internal/series"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
)

var (
	ErrNotConfigured = errors.New("sheets: url not configured")
	ErrEmptySheet    = errors.New("sheets: no usable rows")
)

// Client published CSV sheets
// ⭐ SSOT: sheet downloads happen only here
type Client struct {
	httpClient   *httputil.Client
	logger       *logger.Logger
	configURL    string
	liquidityURL string
}

// NewClient creates a sheets client; empty URLs disable the matching sheet
func NewClient(httpClient *httputil.Client, log *logger.Logger, configURL, liquidityURL string) *Client {
	return &Client{
		httpClient:   httpClient,
		logger:       log.WithComponent("sheets"),
		configURL:    configURL,
		liquidityURL: liquidityURL,
	}
}

// Overrides downloads the Key,Value sheet as a flat threshold override map
func (c *Client) Overrides(ctx context.Context) (map[string]float64, error) {
	if c.configURL == "" {
		return nil, ErrNotConfigured
	}
	body, err := c.httpClient.GetBytes(ctx, c.configURL)
	if err != nil {
		return nil, fmt.Errorf("config sheet: %w", err)
	}
	return ParseOverrides(bytes.NewReader(body))
}

// Tails downloads the Date,Treasury_Tail sheet
func (c *Client) Tails(ctx context.Context) (series.Series, error) {
	if c.liquidityURL == "" {
		return nil, ErrNotConfigured
	}
	body, err := c.httpClient.GetBytes(ctx, c.liquidityURL)
	if err != nil {
		return nil, fmt.Errorf("liquidity sheet: %w", err)
	}
	return ParseTails(bytes.NewReader(body))
}

// ParseOverrides reads a CSV with Key and Value columns.
// Rows whose value is not numeric are skipped.
func ParseOverrides(r io.Reader) (map[string]float64, error) {
	rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	keyCol, valCol := 0, 1
	for i, h := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "key":
			keyCol = i
		case "value":
			valCol = i
		}
	}

	out := make(map[string]float64)
	for _, row := range rows[1:] {
		if len(row) <= keyCol || len(row) <= valCol {
			continue
		}
		key := strings.TrimSpace(row[keyCol])
		v, err := parseNumber(row[valCol])
		if key == "" || err != nil {
			continue
		}
		out[key] = v
	}

	if len(out) == 0 {
		return nil, ErrEmptySheet
	}
	return out, nil
}

// ParseTails reads the first two columns as date and tail size regardless of
// header names (the sheet may carry localized headers).
func ParseTails(r io.Reader) (series.Series, error) {
	rows, err := readAll(r)
	if err != nil {
		return nil, err
	}

	points := make([]series.Point, 0, len(rows))
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		d, err := parseDate(row[0])
		if err != nil {
			continue
		}
		v, err := parseNumber(row[1])
		if err != nil {
			continue
		}
		points = append(points, series.Point{Time: d, Value: v})
	}

	if len(points) == 0 {
		return nil, ErrEmptySheet
	}
	return series.Sorted(points), nil
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptySheet
	}
	return rows, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	return strconv.ParseFloat(s, 64)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"1/2/2006",
	"01/02/2006",
	"2006-01",
	"2006/01",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
