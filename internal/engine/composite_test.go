package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	H = LevelHealthy
	W = LevelWarning
	C = LevelCritical
	U = LevelUnknown
)

func TestAggregate_CountingRule(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
		want   Level
	}{
		{"two red", []Level{C, C, H, H}, C},
		{"one red one yellow", []Level{C, W, H, H}, W},
		{"one yellow", []Level{H, W, H, H}, H},
		{"lone critical is downgraded to warning", []Level{C, H, H, H}, W},
		{"two yellow", []Level{W, W, H, H}, W},
		{"all healthy", []Level{H, H, H, H}, H},
		{"three red", []Level{C, C, C, H}, C},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.levels...)
			assert.Equal(t, tt.want, got.Level)
			assert.False(t, got.Insufficient)
			assert.False(t, got.Partial)
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	a := Aggregate(C, H, W, H)
	b := Aggregate(H, W, H, C)
	assert.Equal(t, a, b)
}

func TestAggregate_AllUnknownIsInsufficient(t *testing.T) {
	got := Aggregate(U, U, U, U)

	assert.Equal(t, LevelUnknown, got.Level)
	assert.NotEqual(t, LevelHealthy, got.Level)
	assert.True(t, got.Insufficient)
	assert.Equal(t, 4, got.UnknownCount)
}

func TestAggregate_PartialUnknown(t *testing.T) {
	// two red already decide CRITICAL whatever the unknowns are
	got := Aggregate(C, C, U, U)
	assert.Equal(t, LevelCritical, got.Level)
	assert.False(t, got.Partial, "unknowns cannot change the outcome")
	assert.False(t, got.Insufficient)
	assert.Equal(t, 2, got.UnknownCount)

	// two yellow stay WARNING even if the unknown is red
	got = Aggregate(W, W, U)
	assert.Equal(t, LevelWarning, got.Level)
	assert.False(t, got.Partial)

	// one red: unknowns could push to CRITICAL, floor is WARNING
	got = Aggregate(C, H, U, H)
	assert.Equal(t, LevelWarning, got.Level)
	assert.True(t, got.Partial)

	// healthy floor with undecided unknowns must not read as safe
	got = Aggregate(H, H, U, H)
	assert.Equal(t, LevelUnknown, got.Level)
	assert.True(t, got.Insufficient)
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate()
	assert.Equal(t, LevelUnknown, got.Level)
	assert.True(t, got.Insufficient)
}

func TestCombineLayers(t *testing.T) {
	tests := []struct {
		name   string
		price  Level
		stress Flag
		want   Level
	}{
		{"breach and stress", C, FlagTrue, C},
		{"breach only", C, FlagFalse, W},
		{"friction only", W, FlagFalse, W},
		{"stress only", H, FlagTrue, W},
		{"neither", H, FlagFalse, H},
		{"friction and stress", W, FlagTrue, W},
		{"unknown stress with breach keeps floor", C, FlagUnknown, W},
		{"unknown stress with healthy price", H, FlagUnknown, U},
		{"unknown price with stress", U, FlagTrue, W},
		{"everything unknown", U, FlagUnknown, U},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CombineLayers(tt.price, tt.stress))
		})
	}
}

func TestWorst(t *testing.T) {
	assert.Equal(t, C, Worst(H, C, W))
	assert.Equal(t, H, Worst(U, H))
	assert.Equal(t, U, Worst(U, U))
	assert.Equal(t, U, Worst())
}
