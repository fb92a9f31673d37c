package treasury

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/crisis-audit/pkg/config"
	"github.com/wonny/crisis-audit/pkg/httputil"
	"github.com/wonny/crisis-audit/pkg/logger"
)

const auctionPage = `<html><body>
<table class="nav"><tr><td>menu</td></tr></table>
<table class="results">
  <tr><th>Security Term</th><th>Auction Date</th><th>High Yield</th><th>When-Issued Yield</th></tr>
  <tr><td>10-Year</td><td>03/11/2026</td><td>4.312%</td><td>4.290%</td></tr>
  <tr><td>30-Year</td><td>03/12/2026</td><td>4.650%</td><td>4.655%</td></tr>
  <tr><td>10-Year</td><td>02/10/2026</td><td>4.150%</td><td>4.140%</td></tr>
  <tr><td>10-Year</td><td>01/13/2026</td><td>4.100%</td><td>-</td></tr>
</table>
</body></html>`

func TestParseAuctions(t *testing.T) {
	auctions, err := ParseAuctions([]byte(auctionPage))
	require.NoError(t, err)
	require.Len(t, auctions, 3, "row without when-issued yield skipped")

	assert.Equal(t, "10-Year", auctions[0].Term)
	assert.InDelta(t, 2.2, auctions[0].TailBps(), 1e-9)
	assert.InDelta(t, -0.5, auctions[1].TailBps(), 1e-9)
}

func TestTailBps_RoundedToHundredthBp(t *testing.T) {
	// 4.23 - 4.20 carries float noise above 3 bp
	assert.Equal(t, 3.0, Auction{HighYield: 4.23, WhenIssued: 4.20}.TailBps())
	assert.Equal(t, 1.0, Auction{HighYield: 4.11, WhenIssued: 4.10}.TailBps())
}

func TestParseAuctions_NoTable(t *testing.T) {
	_, err := ParseAuctions([]byte(`<html><table><tr><td>x</td></tr></table></html>`))
	assert.ErrorIs(t, err, ErrNoAuctions)
}

func TestTails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(auctionPage))
	}))
	defer server.Close()

	hc := httputil.New(&config.Config{HTTP: config.HTTPConfig{Timeout: 5 * time.Second}}, logger.Nop())
	c := NewClient(hc, logger.Nop(), server.URL)

	tails, err := c.Tails(context.Background(), "10-year")
	require.NoError(t, err)
	require.Len(t, tails, 2)

	latest, ok := tails.Latest()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), latest.Time)
	assert.InDelta(t, 2.2, latest.Value, 1e-9)

	_, err = c.Tails(context.Background(), "7-Year")
	assert.ErrorIs(t, err, ErrNoAuctions)
}
