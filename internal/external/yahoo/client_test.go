package yahoo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/crisis-audit/pkg/config"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
)

func newClient(baseURL string) *Client {
	hc := httputil.New(&config.Config{HTTP: config.HTTPConfig{Timeout: 5 * time.Second}}, logger.Nop())
	c := NewClient(hc, logger.Nop(), baseURL+"/chart", baseURL+"/timeseries")
	c.now = func() time.Time { return time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC) }
	return c
}

func TestChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/chart/"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{
			"meta":{"symbol":"^GSPC","regularMarketPrice":7012.5},
			"timestamp":[1774828800,1774915200,1775001600],
			"indicators":{"quote":[{"close":[7000.0,null,7010.0]}]}
		}],"error":null}}`))
	}))
	defer server.Close()

	q, err := newClient(server.URL).Chart(context.Background(), SymbolSPX, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 7012.5, q.Price)
	require.Len(t, q.Closes, 2, "null closes skipped")
	assert.Equal(t, 7010.0, q.Closes[1].Value)
}

func TestChart_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Chart(context.Background(), "NOPE", time.Hour)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeseries/MSFT", r.URL.Path)
		_, _ = w.Write([]byte(`{"timeseries":{"result":[
			{"meta":{"type":["annualFreeCashFlow"]},"annualFreeCashFlow":[
				{"asOfDate":"2024-06-30","reportedValue":{"raw":74071000000}},
				{"asOfDate":"2025-06-30","reportedValue":{"raw":71611000000}},
				null
			]},
			{"meta":{"type":["annualCapitalExpenditure"]},"annualCapitalExpenditure":[
				{"asOfDate":"2025-06-30","reportedValue":{"raw":-64551000000}}
			]}
		],"error":null}}`))
	}))
	defer server.Close()

	f, err := newClient(server.URL).Fundamentals(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, 71611000000.0, f.FreeCashFlow)
	assert.Equal(t, -64551000000.0, f.CapEx)
	assert.Equal(t, 2025, f.AsOf.Year())
}

func TestFundamentals_PartialIsNaN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timeseries":{"result":[
			{"annualFreeCashFlow":[{"asOfDate":"2025-12-31","reportedValue":{"raw":100}}]}
		]}}`))
	}))
	defer server.Close()

	f, err := newClient(server.URL).Fundamentals(context.Background(), "AMZN")
	require.NoError(t, err)
	assert.Equal(t, 100.0, f.FreeCashFlow)
	assert.True(t, math.IsNaN(f.CapEx))
}

func TestFundamentals_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timeseries":{"result":[]}}`))
	}))
	defer server.Close()

	_, err := newClient(server.URL).Fundamentals(context.Background(), "X")
	assert.ErrorIs(t, err, ErrNoData)
}
