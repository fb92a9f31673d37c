package auditconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wonny/crisis-audit/internal/engine"
)

// Load reads the YAML file and returns Config with raw bytes
// ⭐ SSOT: KnownFields(true) fails fast on typos and unused fields
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes and validates YAML bytes
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode audit config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON; map keys are sorted by encoding/json)
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// NewRunSnapshot creates a snapshot for audit persistence
func NewRunSnapshot(cfg *Config, yamlData []byte, gitCommit string) (*RunSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &RunSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		AuditID:    cfg.Meta.AuditID,
		GitCommit:  gitCommit,
		CreatedAt:  time.Now(),
	}, nil
}

// EngineThresholds builds engine thresholds: defaults, then windows and sensitivity,
// then the flat thresholds map, then any runtime overrides (e.g. a config sheet).
// Unrecognised runtime keys are returned, not rejected.
func (c *Config) EngineThresholds(runtime map[string]float64) (engine.Thresholds, []string, error) {
	th := engine.DefaultThresholds()

	th.RateMAWindow = c.Windows.RateMA
	th.ShortWindow = c.Windows.Short
	th.LongWindow = c.Windows.Long
	th.RelativeWindow = c.Windows.Relative

	if c.Sensitivity.UnitFee > 0 {
		th.Burden.UnitFee = c.Sensitivity.UnitFee
	}
	if c.Sensitivity.PriceDeltaPerUnit > 0 {
		th.Burden.PriceDeltaPerUnit = c.Sensitivity.PriceDeltaPerUnit
	}
	if c.Sensitivity.UnitConversion > 0 {
		th.Burden.UnitConversion = c.Sensitivity.UnitConversion
	}

	th, _ = th.Apply(c.Thresholds) // keys checked by Validate
	th, unknown := th.Apply(runtime)

	if err := th.Validate(); err != nil {
		return engine.Thresholds{}, unknown, err
	}
	return th, unknown, nil
}

// UniverseSpec engine view of the universe
func (c *Config) UniverseSpec() engine.Universe {
	return engine.Universe{
		FocusName:      c.Universe.FocusName,
		Focus:          c.Universe.Focus,
		Benchmark:      c.Universe.Benchmark,
		CreditProxy:    c.Universe.CreditProxy,
		HighYieldProxy: c.Universe.HighYieldProxy,
	}
}
