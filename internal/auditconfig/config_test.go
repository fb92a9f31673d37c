package auditconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
meta:
  audit_id: test-audit
  version: "1"
universe:
  focus_name: FANG+
  focus: [AAA, BBB]
  benchmark: [SPY, QQQ]
  credit_proxy: LQD
  high_yield_proxy: HYG
entities:
  - ticker: AAA
    energy_volume_mwh: 1000
  - ticker: BBB
sources:
  spx_symbol: "^GSPC"
  fang_symbol: "^NYFANG"
  tnx_symbol: "^TNX"
  auction_term: 10-Year
  history_days: 120
  tail_source: treasury
windows:
  rate_ma: 5
  short: 20
  long: 60
  relative: 20
sensitivity:
  unit_fee: 400
  price_delta_per_unit: 0.03
  unit_conversion: 1000
  stress_unit_fees: [0, 500]
thresholds:
  SPX_DEFENSE: 6500
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfg, raw, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, validYAML, string(raw))

	assert.Equal(t, "test-audit", cfg.Meta.AuditID)
	require.Len(t, cfg.Entities, 2)
	require.NotNil(t, cfg.Entities[0].EnergyVolumeMWh)
	assert.Equal(t, 1000.0, *cfg.Entities[0].EnergyVolumeMWh)
	assert.Nil(t, cfg.Entities[1].EnergyVolumeMWh)
	assert.Equal(t, []string{"AAA", "BBB", "SPY", "QQQ", "LQD", "HYG"}, cfg.Tickers())
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, _, err := Load(filepath.Join("..", "..", "config", "audit.yaml"))
	require.NoError(t, err)
	for _, w := range Warn(cfg) {
		assert.NotEqual(t, "MISSING_ENERGY_VOLUME", w.Code)
	}
	assert.Len(t, cfg.Entities, 10)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, _, err := Load(writeConfig(t, validYAML+"\nextra_section: true\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing audit id", func(c *Config) { c.Meta.AuditID = "" }, "meta.audit_id"},
		{"empty focus", func(c *Config) { c.Universe.Focus = nil }, "universe.focus"},
		{"duplicate ticker", func(c *Config) { c.Entities[1].Ticker = "AAA" }, "entities[1].ticker"},
		{"negative volume", func(c *Config) {
			v := -1.0
			c.Entities[0].EnergyVolumeMWh = &v
		}, "entities[0].energy_volume_mwh"},
		{"bad tail source", func(c *Config) { c.Sources.TailSource = "ftp" }, "sources.tail_source"},
		{"short >= long", func(c *Config) { c.Windows.Short = 60 }, "windows"},
		{"history too short", func(c *Config) { c.Sources.HistoryDays = 30 }, "sources.history_days"},
		{"unknown threshold", func(c *Config) { c.Thresholds["SPX_DEFENCE"] = 1 }, "thresholds"},
		{"inverted band", func(c *Config) { c.Thresholds["SPX_FRICTION"] = 6000 }, "thresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(validYAML))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = Validate(cfg)
			require.Error(t, err)

			var ve ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	codes := make([]string, 0)
	for _, w := range Warn(cfg) {
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []string{"MISSING_ENERGY_VOLUME"}, codes)

	cfg.Universe.Benchmark = []string{"SPY"}
	cfg.Sensitivity.StressUnitFees = nil
	assert.Len(t, Warn(cfg), 3)
}

func TestEngineThresholds_Precedence(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	th, unknown, err := cfg.EngineThresholds(nil)
	require.NoError(t, err)
	assert.Empty(t, unknown)
	assert.Equal(t, 6500.0, th.SPXDefense)
	assert.Equal(t, 7020.0, th.SPXFriction)
	assert.Equal(t, 400.0, th.Burden.UnitFee)
	assert.Equal(t, 0.03, th.Burden.PriceDeltaPerUnit)

	th, unknown, err = cfg.EngineThresholds(map[string]float64{
		"SPX_DEFENSE": 6600,
		"UNIT_FEE":    250,
		"SHEET_NOTE":  1,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SHEET_NOTE"}, unknown)
	assert.Equal(t, 6600.0, th.SPXDefense)
	assert.Equal(t, 250.0, th.Burden.UnitFee)

	_, _, err = cfg.EngineThresholds(map[string]float64{"SPX_DEFENSE": 9000})
	assert.Error(t, err)
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Parse([]byte(validYAML))
	require.NoError(t, err)
	b, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	b.Windows.Short = 10
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestNewRunSnapshot(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	snap, err := NewRunSnapshot(cfg, []byte(validYAML), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "test-audit", snap.AuditID)
	assert.Equal(t, "abc123", snap.GitCommit)
	assert.Equal(t, validYAML, snap.ConfigYAML)
	assert.NotEmpty(t, snap.ConfigHash)
	assert.False(t, snap.CreatedAt.IsZero())
}
