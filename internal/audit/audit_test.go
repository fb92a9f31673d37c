package audit

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/crisis-audit/internal/collector"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/pkg/config"
	"github.com/wonny/crisis-audit/pkg/database"
)

func sampleRun(asOf time.Time, spx float64) *Run {
	report := engine.New(engine.DefaultThresholds()).Evaluate(engine.Snapshot{
		AsOf: asOf,
		SPX:  engine.Present(spx),
		FANG: engine.Present(12600),
		SOFR: engine.Present(4.50),
		IORB: engine.Present(4.40),
		Entities: []engine.EntityInput{{
			Ticker:       "AAA",
			CashFlow:     engine.Present(150),
			CapEx:        engine.Present(-100),
			EnergyVolume: engine.Present(0),
		}},
	})
	return &Run{
		AuditID:         "test",
		ConfigHash:      "abc",
		Source:          SourceDemo,
		AsOf:            asOf,
		Overall:         report.Overall,
		LiquidityStress: report.LiquidityStress,
		Report:          report,
		Failures:        []collector.Failure{{Source: "fred", ID: "DFII10", Error: "timeout"}},
	}
}

func TestReport_JSONRoundTrip(t *testing.T) {
	run := sampleRun(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 6800)

	data, err := json.Marshal(run.Report)
	require.NoError(t, err)

	var decoded engine.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, run.Report.Overall, decoded.Overall)
	assert.Equal(t, engine.FlagTrue, decoded.LiquidityStress)
	assert.Equal(t, run.Report.Durability.Classes, decoded.Durability.Classes)
	assert.Equal(t, run.Report.Durability.Entities[0].Durability, decoded.Durability.Entities[0].Durability)
	assert.Equal(t, engine.StatusMissing, decoded.Liquidity.AuctionTail.Status)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i, spx := range []float64{7100, 6950, 6800} {
		require.NoError(t, store.Save(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour), spx)))
	}

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest.ID)
	assert.Equal(t, engine.LevelCritical, latest.Overall, "breach + stress")

	history, err := store.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2, "oldest run evicted")
	assert.Equal(t, int64(3), history[0].ID)
	assert.Equal(t, engine.LevelWarning, history[1].Price)
	assert.Equal(t, 1, history[0].Failures)
}

func TestRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, &config.Config{
		Database: config.DatabaseConfig{URL: url, MaxConns: 2, MinConns: 1},
	})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db))

	repo := NewRepository(db.Pool)
	run := sampleRun(time.Now().UTC().Add(24*time.Hour), 6800)
	require.NoError(t, repo.Save(ctx, run))
	assert.NotZero(t, run.ID)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, engine.LevelCritical, latest.Overall)
	assert.Len(t, latest.Failures, 1)

	history, err := repo.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, run.ID, history[0].ID)

	_, err = db.Pool.Exec(ctx, `DELETE FROM audit.runs WHERE id = $1`, run.ID)
	require.NoError(t, err)
}
