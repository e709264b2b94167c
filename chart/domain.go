package chart

import (
	"math"
	"strconv"
)

// defaultDomain is the fallback axis range used whenever the data yields no
// usable numeric range.
var defaultDomain = [2]float64{0, 100}

// toFloat coerces a row value to a float64 the way the data actually arrives
// from JSON decoding: numbers, numeric strings, or nothing usable.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if n == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ValidateDomain guards a computed domain before it reaches a renderer.
// Non-finite bounds or an empty/inverted range fall back to 0-100.
func ValidateDomain(domain [2]float64) [2]float64 {
	lo, hi := domain[0], domain[1]
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return defaultDomain
	}
	if lo >= hi {
		return defaultDomain
	}
	return domain
}

// AxisDomain computes the Y-axis range for the given series keys.
//
// The bounds get 10% padding and are then snapped to "nice" round numbers:
// the raw tick interval (range/4) is rounded up to 1, 2, 5 or 10 times its
// order of magnitude, min is rounded down and max rounded up to multiples of
// that interval, and the top is widened until at least 4 intervals fit.
// Percentage-formatted series skip the snapping and round to multiples of 5
// clamped to [-100, 1000]. Any degenerate outcome collapses to 0-100.
func AxisDomain(rows []map[string]interface{}, keys []string, format ValueFormat) [2]float64 {
	if len(rows) == 0 || len(keys) == 0 {
		return defaultDomain
	}

	minValue := math.Inf(1)
	maxValue := math.Inf(-1)
	for _, row := range rows {
		if row == nil {
			continue
		}
		for _, key := range keys {
			raw, ok := row[key]
			if !ok || raw == nil {
				continue
			}
			val, ok := toFloat(raw)
			if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
				continue
			}
			if val > maxValue {
				maxValue = val
			}
			if val < minValue {
				minValue = val
			}
		}
	}

	if math.IsInf(maxValue, 0) || math.IsInf(minValue, 0) {
		return defaultDomain
	}

	if format == FormatPercentage {
		padding := (maxValue - minValue) * 0.1
		lo := math.Floor((minValue-padding)/5) * 5
		hi := math.Ceil((maxValue+padding)/5) * 5
		lo = math.Max(lo, -100)
		hi = math.Min(hi, 1000)
		return ValidateDomain([2]float64{lo, hi})
	}

	if maxValue == 0 {
		return defaultDomain
	}

	padding := (maxValue - minValue) * 0.1
	paddedMin := math.Max(0, minValue-padding)
	paddedMax := maxValue + padding

	rawInterval := (paddedMax - paddedMin) / 4
	if rawInterval <= 0 || math.IsInf(rawInterval, 0) || math.IsNaN(rawInterval) {
		return defaultDomain
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(rawInterval)))
	normalized := rawInterval / magnitude
	var niceInterval float64
	switch {
	case normalized <= 1:
		niceInterval = 1 * magnitude
	case normalized <= 2:
		niceInterval = 2 * magnitude
	case normalized <= 5:
		niceInterval = 5 * magnitude
	default:
		niceInterval = 10 * magnitude
	}
	if niceInterval <= 0 || math.IsInf(niceInterval, 0) || math.IsNaN(niceInterval) {
		return defaultDomain
	}

	lo := math.Floor(paddedMin/niceInterval) * niceInterval
	if minValue >= 0 && lo < 0 {
		lo = 0
	}
	hi := math.Ceil(paddedMax/niceInterval) * niceInterval

	// Widen upward until the range spans at least 4 tick intervals.
	for (hi-lo)/niceInterval < 4 {
		hi += niceInterval
	}

	if math.IsInf(hi, 0) || math.IsNaN(hi) || hi <= 0 {
		return defaultDomain
	}
	if math.IsInf(lo, 0) || math.IsNaN(lo) || lo < 0 {
		lo = 0
	}

	return ValidateDomain([2]float64{lo, hi})
}

// NeedsDualAxis reports whether two series differ in scale by two orders of
// magnitude or more, comparing the maximum absolute value each series
// reaches. Renderers use this as a layout hint; the domain itself stays a
// single shared axis range.
func NeedsDualAxis(rows []map[string]interface{}, keys []string) bool {
	if len(keys) < 2 || len(rows) == 0 {
		return false
	}

	seriesMax := make([]float64, 0, len(keys))
	for _, key := range keys {
		peak := 0.0
		for _, row := range rows {
			if row == nil {
				continue
			}
			val, ok := toFloat(row[key])
			if !ok || math.IsNaN(val) || math.IsInf(val, 0) {
				continue
			}
			if abs := math.Abs(val); abs > peak {
				peak = abs
			}
		}
		if peak > 0 && !math.IsInf(peak, 0) {
			seriesMax = append(seriesMax, peak)
		}
	}

	if len(seriesMax) < 2 {
		return false
	}

	largest := seriesMax[0]
	smallest := seriesMax[0]
	for _, v := range seriesMax[1:] {
		if v > largest {
			largest = v
		}
		if v < smallest {
			smallest = v
		}
	}

	return smallest > 0 && largest/smallest >= 100
}
