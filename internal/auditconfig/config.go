package auditconfig

import "time"

// Config 감사 실행 설정 (universe, sources, sensitivity, threshold overrides)
type Config struct {
	Meta        Meta               `yaml:"meta" json:"meta"`
	Universe    Universe           `yaml:"universe" json:"universe"`
	Entities    []Entity           `yaml:"entities" json:"entities"`
	Sources     Sources            `yaml:"sources" json:"sources"`
	Windows     Windows            `yaml:"windows" json:"windows"`
	Sensitivity Sensitivity        `yaml:"sensitivity" json:"sensitivity"`
	Thresholds  map[string]float64 `yaml:"thresholds" json:"thresholds"`
}

// Meta 메타 정보
type Meta struct {
	AuditID string `yaml:"audit_id" json:"audit_id"`
	Version string `yaml:"version" json:"version"`
}

// Universe ticker groups for relative performance and credit spread
type Universe struct {
	FocusName      string   `yaml:"focus_name" json:"focus_name"`
	Focus          []string `yaml:"focus" json:"focus"`
	Benchmark      []string `yaml:"benchmark" json:"benchmark"`
	CreditProxy    string   `yaml:"credit_proxy" json:"credit_proxy"`
	HighYieldProxy string   `yaml:"high_yield_proxy" json:"high_yield_proxy"`
}

// Entity 감사 대상 종목
// EnergyVolumeMWh is optional: nil leaves the entity's burden incomplete.
type Entity struct {
	Ticker          string   `yaml:"ticker" json:"ticker"`
	EnergyVolumeMWh *float64 `yaml:"energy_volume_mwh" json:"energy_volume_mwh"`
}

// Sources symbols and lookbacks for the collectors
type Sources struct {
	SPXSymbol   string `yaml:"spx_symbol" json:"spx_symbol"`
	FANGSymbol  string `yaml:"fang_symbol" json:"fang_symbol"`
	TNXSymbol   string `yaml:"tnx_symbol" json:"tnx_symbol"`
	AuctionTerm string `yaml:"auction_term" json:"auction_term"`
	HistoryDays int    `yaml:"history_days" json:"history_days"`
	TailSource  string `yaml:"tail_source" json:"tail_source"` // treasury | sheet
}

// Tail sources
const (
	TailSourceTreasury = "treasury"
	TailSourceSheet    = "sheet"
)

// Windows trading-day windows
type Windows struct {
	RateMA   int `yaml:"rate_ma" json:"rate_ma"`
	Short    int `yaml:"short" json:"short"`
	Long     int `yaml:"long" json:"long"`
	Relative int `yaml:"relative" json:"relative"`
}

// Sensitivity burden model knobs
type Sensitivity struct {
	UnitFee           float64   `yaml:"unit_fee" json:"unit_fee"`
	PriceDeltaPerUnit float64   `yaml:"price_delta_per_unit" json:"price_delta_per_unit"`
	UnitConversion    float64   `yaml:"unit_conversion" json:"unit_conversion"`
	StressUnitFees    []float64 `yaml:"stress_unit_fees" json:"stress_unit_fees"`
}

// Tickers every symbol whose price history the collector must fetch, deduplicated
func (c *Config) Tickers() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(ts ...string) {
		for _, t := range ts {
			if t != "" && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	for _, e := range c.Entities {
		add(e.Ticker)
	}
	add(c.Universe.Focus...)
	add(c.Universe.Benchmark...)
	add(c.Universe.CreditProxy, c.Universe.HighYieldProxy)
	return out
}

// RunSnapshot 실행 스냅샷 (재현성용)
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	AuditID    string    `json:"audit_id"`
	GitCommit  string    `json:"git_commit"`
	CreatedAt  time.Time `json:"created_at"`
}
