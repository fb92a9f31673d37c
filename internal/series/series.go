// Package series holds the time-ordered numeric series handed to the engine.
package series

import (
	"math"
	"sort"
	"time"
)

// Point is one observation
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Series is an ordered sequence of points, ascending by time
// ⭐ SSOT: every series is handled oldest → newest
type Series []Point

// Sorted returns a copy sorted ascending by time with non-finite values dropped
func Sorted(points []Point) Series {
	out := make(Series, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s)
}

// Latest returns the most recent point
func (s Series) Latest() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// Values returns the raw values in order
func (s Series) Values() []float64 {
	vals := make([]float64, len(s))
	for i, p := range s {
		vals[i] = p.Value
	}
	return vals
}

// SMA calculates the simple moving average for the given window.
// Entries before the first full window are zero.
func SMA(data []float64, window int) []float64 {
	n := len(data)
	if n < window || window <= 0 {
		return nil
	}

	result := make([]float64, n)
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += data[i]
	}
	result[window-1] = sum / float64(window)

	for i := window; i < n; i++ {
		sum += data[i] - data[i-window]
		result[i] = sum / float64(window)
	}

	return result
}

// DeviationFromSMA returns latest value minus the SMA over the last window points
// (the window includes the latest point)
func (s Series) DeviationFromSMA(window int) (float64, bool) {
	vals := s.Values()
	ma := SMA(vals, window)
	if ma == nil {
		return 0, false
	}
	return vals[len(vals)-1] - ma[len(ma)-1], true
}

// TrailingReturn returns latest/value[n-1-days] - 1.
// A zero or negative base price yields false.
func (s Series) TrailingReturn(days int) (float64, bool) {
	if days <= 0 || len(s) < days+1 {
		return 0, false
	}

	current := s[len(s)-1].Value
	past := s[len(s)-1-days].Value
	if past <= 0 {
		return 0, false
	}

	return current/past - 1, true
}

// Align inner-joins two series on calendar date and returns the paired values
func Align(a, b Series) (dates []time.Time, left, right []float64) {
	idx := make(map[string]float64, len(b))
	for _, p := range b {
		idx[p.Time.Format("2006-01-02")] = p.Value
	}

	for _, p := range a {
		key := p.Time.Format("2006-01-02")
		if v, ok := idx[key]; ok {
			dates = append(dates, p.Time)
			left = append(left, p.Value)
			right = append(right, v)
		}
	}
	return dates, left, right
}

// LatestCommon returns the points of a and b on the latest date present in both
func LatestCommon(a, b Series) (Point, Point, bool) {
	dates, left, right := Align(a, b)
	n := len(dates)
	if n == 0 {
		return Point{}, Point{}, false
	}
	return Point{Time: dates[n-1], Value: left[n-1]}, Point{Time: dates[n-1], Value: right[n-1]}, true
}
