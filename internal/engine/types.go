package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/wonny/crisis-audit/internal/series"
)

// =============================================================================
// Severity Levels
// =============================================================================

// Level 리스크 레벨 (ordered severity scale)
// ⭐ SSOT: zero value is LevelUnknown so an unset result never reads as "safe"
type Level int

const (
	LevelUnknown  Level = iota // insufficient data, outside the ordering
	LevelHealthy               // HEALTHY / NORMAL
	LevelWarning               // WARNING / WATCH
	LevelCritical              // CRITICAL / DANGER
)

var levelNames = map[Level]string{
	LevelUnknown:  "UNKNOWN",
	LevelHealthy:  "HEALTHY",
	LevelWarning:  "WARNING",
	LevelCritical: "CRITICAL",
}

// Levels lists every level including Unknown
func Levels() []Level {
	return []Level{LevelHealthy, LevelWarning, LevelCritical, LevelUnknown}
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Severity returns 0..2 for known levels and -1 for Unknown
func (l Level) Severity() int {
	switch l {
	case LevelHealthy:
		return 0
	case LevelWarning:
		return 1
	case LevelCritical:
		return 2
	default:
		return -1
	}
}

// Known reports whether the level is on the severity scale
func (l Level) Known() bool {
	return l.Severity() >= 0
}

// Worst returns the most severe known level; Unknown only if every input is Unknown
func Worst(levels ...Level) Level {
	worst := LevelUnknown
	for _, l := range levels {
		if l.Severity() > worst.Severity() {
			worst = l
		}
	}
	return worst
}

// MarshalJSON encodes the level by name
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level name
func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel parses a level name
func ParseLevel(name string) (Level, error) {
	for l, n := range levelNames {
		if n == name {
			return l, nil
		}
	}
	return LevelUnknown, fmt.Errorf("unknown level %q", name)
}

// =============================================================================
// Entity Tiers
// =============================================================================

// Durability 구조적 내구성 등급 (4-band PSR scale)
type Durability int

const (
	DurabilityUnknown Durability = iota
	DurabilityBroken
	DurabilityWeak
	DurabilityMid
	DurabilityStrong
)

func (d Durability) String() string {
	switch d {
	case DurabilityBroken:
		return "BROKEN"
	case DurabilityWeak:
		return "WEAK"
	case DurabilityMid:
		return "MID"
	case DurabilityStrong:
		return "STRONG"
	default:
		return "UNKNOWN"
	}
}

// Level maps the 4-band scale onto the coarse 3-level scale.
// The coarse view is derived from the 4 bands, never computed separately.
func (d Durability) Level() Level {
	switch d {
	case DurabilityBroken:
		return LevelCritical
	case DurabilityWeak, DurabilityMid:
		return LevelWarning
	case DurabilityStrong:
		return LevelHealthy
	default:
		return LevelUnknown
	}
}

// MarshalJSON encodes the tier by name
func (d Durability) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalText decodes a tier name
func (d *Durability) UnmarshalText(text []byte) error {
	for _, candidate := range []Durability{DurabilityUnknown, DurabilityBroken, DurabilityWeak, DurabilityMid, DurabilityStrong} {
		if candidate.String() == string(text) {
			*d = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown durability %q", string(text))
}

// MarketRank 시장 선호 등급
type MarketRank int

const (
	MarketUnknown MarketRank = iota
	MarketDumped
	MarketNeutral
	MarketFavored
)

func (m MarketRank) String() string {
	switch m {
	case MarketDumped:
		return "DUMPED"
	case MarketNeutral:
		return "NEUTRAL"
	case MarketFavored:
		return "FAVORED"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the rank by name
func (m MarketRank) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalText decodes a rank name
func (m *MarketRank) UnmarshalText(text []byte) error {
	for _, candidate := range []MarketRank{MarketUnknown, MarketDumped, MarketNeutral, MarketFavored} {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown market rank %q", string(text))
}

// Class 최종 분류 (Survivor/Watch/Hazard/Unknown)
type Class int

const (
	ClassUnknown Class = iota
	ClassSurvivor
	ClassWatch
	ClassHazard
)

// Classes lists every class
func Classes() []Class {
	return []Class{ClassSurvivor, ClassWatch, ClassHazard, ClassUnknown}
}

func (c Class) String() string {
	switch c {
	case ClassSurvivor:
		return "SURVIVOR"
	case ClassWatch:
		return "WATCH"
	case ClassHazard:
		return "HAZARD"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the class by name
func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// MarshalText encodes the class as a map key
func (c Class) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a class name
func (c *Class) UnmarshalText(text []byte) error {
	for _, candidate := range Classes() {
		if candidate.String() == string(text) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown class %q", string(text))
}

// =============================================================================
// Inputs (Option/Result style)
// =============================================================================

// Status describes how a collaborator produced an input
type Status int

const (
	StatusMissing Status = iota // never supplied
	StatusOK                    // fetched successfully
	StatusEmpty                 // fetched but no data point
	StatusFailed                // fetch failed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "missing"
	}
}

// MarshalJSON encodes the status by name
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "ok":
		*s = StatusOK
	case "empty":
		*s = StatusEmpty
	case "failed":
		*s = StatusFailed
	default:
		*s = StatusMissing
	}
	return nil
}

// Reading is a scalar input that may be unavailable
type Reading struct {
	Value  float64 `json:"value"`
	Status Status  `json:"status"`
	Reason string  `json:"reason,omitempty"`
}

// Present wraps a fetched value
func Present(v float64) Reading {
	return Reading{Value: v, Status: StatusOK}
}

// Empty marks a fetch that returned no data point
func Empty() Reading {
	return Reading{Status: StatusEmpty}
}

// Failed marks a fetch failure
func Failed(err error) Reading {
	r := Reading{Status: StatusFailed}
	if err != nil {
		r.Reason = err.Error()
	}
	return r
}

// Available reports whether the reading carries a usable finite value
func (r Reading) Available() bool {
	return r.Status == StatusOK && !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0)
}

// SeriesInput is a historical series that may be unavailable
type SeriesInput struct {
	Points series.Series `json:"points"`
	Status Status        `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

// PresentSeries wraps a fetched series; an empty series is StatusEmpty
func PresentSeries(s series.Series) SeriesInput {
	if len(s) == 0 {
		return SeriesInput{Status: StatusEmpty}
	}
	return SeriesInput{Points: s, Status: StatusOK}
}

// FailedSeries marks a series fetch failure
func FailedSeries(err error) SeriesInput {
	in := SeriesInput{Status: StatusFailed}
	if err != nil {
		in.Reason = err.Error()
	}
	return in
}

// Available reports whether the series has at least one point
func (s SeriesInput) Available() bool {
	return s.Status == StatusOK && len(s.Points) > 0
}

// Latest returns the newest point as a Reading
func (s SeriesInput) Latest() Reading {
	if s.Status != StatusOK {
		return Reading{Status: s.Status, Reason: s.Reason}
	}
	p, ok := s.Points.Latest()
	if !ok {
		return Empty()
	}
	return Present(p.Value)
}

// Flag is a boolean condition that may be undetermined
type Flag int

const (
	FlagUnknown Flag = iota
	FlagFalse
	FlagTrue
)

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the flag as true/false/null
func (f Flag) MarshalJSON() ([]byte, error) {
	switch f {
	case FlagTrue:
		return []byte("true"), nil
	case FlagFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes true/false/null
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*f = FlagTrue
	case "false":
		*f = FlagFalse
	case "null":
		*f = FlagUnknown
	default:
		return fmt.Errorf("invalid flag %s", string(data))
	}
	return nil
}

// Bool returns the flag as a nullable bool
func (f Flag) Bool() *bool {
	if f == FlagUnknown {
		return nil
	}
	b := f == FlagTrue
	return &b
}

// FlagOf converts a bool
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}
