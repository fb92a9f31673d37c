package brain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/crisis-audit/internal/audit"
	"github.com/wonny/crisis-audit/internal/auditconfig"
	"github.com/wonny/crisis-audit/internal/collector"
	"github.com/wonny/crisis-audit/internal/engine"
	"github.com/wonny/crisis-audit/internal/metrics"
	"github.com/wonny/crisis-audit/pkg/logger"
)

var testNow = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func testConfig() *auditconfig.Config {
	vol := 1000.0
	return &auditconfig.Config{
		Meta: auditconfig.Meta{AuditID: "brain-test"},
		Universe: auditconfig.Universe{
			FocusName: "focus", Focus: []string{"AAA"}, Benchmark: []string{"SPY"},
			CreditProxy: "LQD", HighYieldProxy: "HYG",
		},
		Entities: []auditconfig.Entity{{Ticker: "AAA", EnergyVolumeMWh: &vol}},
		Sources: auditconfig.Sources{
			SPXSymbol: "^GSPC", FANGSymbol: "^NYFANG", TNXSymbol: "^TNX",
			HistoryDays: 120, TailSource: auditconfig.TailSourceTreasury,
		},
		Windows:     auditconfig.Windows{RateMA: 5, Short: 20, Long: 60, Relative: 20},
		Sensitivity: auditconfig.Sensitivity{StressUnitFees: []float64{0, 1000}},
	}
}

type stubCollector struct {
	overrides map[string]float64
	err       error
}

func (s *stubCollector) Collect(ctx context.Context) (*collector.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := collector.Demo(testConfig(), testNow)
	res.Overrides = s.overrides
	res.Failures = []collector.Failure{{Source: "fred", ID: "IORB", Error: "timeout"}}
	return res, nil
}

type recorder struct{ runs []*audit.Run }

func (r *recorder) Publish(run *audit.Run) { r.runs = append(r.runs, run) }

func newOrchestrator(col Collector, reg *metrics.Registry) (*Orchestrator, *recorder) {
	rec := &recorder{}
	snap := &auditconfig.RunSnapshot{ConfigHash: "hash", GitCommit: "dev"}
	o := NewOrchestrator(testConfig(), snap, col, audit.NewMemoryStore(10), logger.Nop(), Options{
		Metrics:    reg,
		Publishers: []Publisher{rec},
		Source:     audit.SourceDemo,
	})
	return o, rec
}

func TestRun_AllStages(t *testing.T) {
	reg := metrics.New()
	o, rec := newOrchestrator(&stubCollector{overrides: map[string]float64{"SPX_FRICTION": 6900}}, reg)

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"collect", "thresholds", "evaluate", "persist"}, result.CompletedStages)
	assert.Equal(t, 6900.0, result.Thresholds.SPXFriction)
	assert.Equal(t, engine.LevelHealthy, result.Run.Report.Price.SPX.Level, "6950 clears the overridden friction line")
	assert.Equal(t, "hash", result.Run.ConfigHash)
	assert.Equal(t, audit.SourceDemo, result.Run.Source)
	assert.NotZero(t, result.Run.ID)

	require.Len(t, rec.runs, 1)
	assert.Same(t, result.Run, rec.runs[0])

	latest, err := o.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.Run.ID, latest.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.FetchFailures.WithLabelValues("fred")))
}

func TestRun_RejectedOverridesFallBack(t *testing.T) {
	o, _ := newOrchestrator(&stubCollector{overrides: map[string]float64{
		"SPX_DEFENSE": 9000, // above friction
		"COMMENT":     1,
	}}, nil)

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Error(t, result.OverrideError)
	assert.Equal(t, []string{"COMMENT"}, result.UnknownKeys)
	assert.Equal(t, engine.DefaultThresholds().SPXDefense, result.Thresholds.SPXDefense)
}

func TestRun_CollectFailure(t *testing.T) {
	reg := metrics.New()
	o, rec := newOrchestrator(&stubCollector{err: errors.New("boom")}, reg)

	_, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collect failed")
	assert.Empty(t, rec.runs)
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Runs.WithLabelValues("error")))

	_, err = o.Latest(context.Background())
	assert.ErrorIs(t, err, audit.ErrNoRuns)
}

func TestStress_UsesConfiguredFees(t *testing.T) {
	o, _ := newOrchestrator(&stubCollector{}, nil)

	points, err := o.Stress(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 0.0, points[0].UnitFee)
	assert.Equal(t, 1000.0, points[1].UnitFee)
	assert.GreaterOrEqual(t, points[0].Aggregate.Value, points[1].Aggregate.Value)

	points, err = o.Stress(context.Background(), []float64{500})
	require.NoError(t, err)
	require.Len(t, points, 1)
}
