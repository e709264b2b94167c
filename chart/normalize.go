package chart

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Status discriminates the three possible outcomes of Normalize. Callers
// must handle all three; only StatusOK carries a usable render plan.
type Status int

const (
	// StatusOK means the plan is safe to render.
	StatusOK Status = iota
	// StatusNoData means sanitation removed every row (or pie shaping left
	// no positive values).
	StatusNoData
	// StatusInvalidConfig means the config is missing a chart kind or a
	// usable color list.
	StatusInvalidConfig
)

// PiePoint is one shaped name/value pair for a pie rendering.
type PiePoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Plan is the validated, derived parameter set a chart widget needs to draw
// safely. Rows are the sanitized input rows; Config has cleaned key names.
type Plan struct {
	Status Status

	Config Config
	Rows   []map[string]interface{}

	// XKey and SeriesKeys are resolved for cartesian kinds.
	XKey       string
	SeriesKeys []string

	// Domain is the computed Y-axis range for bar/line/area/composed.
	Domain [2]float64

	// DualAxis hints that two series differ in scale by >= 100x.
	DualAxis bool

	// Pie holds the shaped slices for pie kinds.
	Pie []PiePoint
}

// seriesKeyBlacklist lists field names never treated as inferable series.
var seriesKeyBlacklist = map[string]bool{
	"id":    true,
	"name":  true,
	"date":  true,
	"month": true,
	"year":  true,
	"time":  true,
}

// maxInferredSeries caps how many series are picked up when the decision
// service omitted explicit data keys.
const maxInferredSeries = 2

// Normalize sanitizes the raw rows against the proposed config and computes
// the derived render parameters. It never returns an error and never panics;
// unusable input degrades to StatusNoData or StatusInvalidConfig.
func Normalize(rows []map[string]interface{}, cfg Config) Plan {
	cfg = cfg.SanitizeKeys()

	sanitized := SanitizeRows(rows)
	if len(sanitized) == 0 {
		return Plan{Status: StatusNoData, Config: cfg}
	}
	if !cfg.valid() {
		return Plan{Status: StatusInvalidConfig, Config: cfg}
	}

	plan := Plan{Status: StatusOK, Config: cfg, Rows: sanitized}

	if cfg.Type == KindPie {
		plan.Pie = shapePie(sanitized, cfg)
		if len(plan.Pie) == 0 {
			return Plan{Status: StatusNoData, Config: cfg}
		}
		return plan
	}

	plan.XKey = resolveXKey(cfg)
	plan.SeriesKeys = resolveSeriesKeys(sanitized, cfg)
	plan.Domain = AxisDomain(sanitized, plan.SeriesKeys, cfg.ValueFormat)
	plan.DualAxis = NeedsDualAxis(sanitized, plan.SeriesKeys)
	return plan
}

// SanitizeRows drops anything that is not a keyed record as well as any row
// carrying a non-finite numeric field. Running it twice is a no-op.
func SanitizeRows(rows []map[string]interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		clean := true
		for _, v := range row {
			var f float64
			switch n := v.(type) {
			case float64:
				f = n
			case float32:
				f = float64(n)
			default:
				continue
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				clean = false
				break
			}
		}
		if clean {
			out = append(out, row)
		}
	}
	return out
}

func resolveXKey(cfg Config) string {
	switch {
	case cfg.XAxisKey != "":
		return cfg.XAxisKey
	case cfg.NameKey != "":
		return cfg.NameKey
	default:
		return "name"
	}
}

// resolveSeriesKeys picks the Y-value keys for cartesian kinds. Line and
// composed charts support multi-series configs; when the decision service
// returned no explicit keys at all (a known gap for ad hoc aggregates) the
// first row is scanned for up to two numeric, non-dimension fields.
func resolveSeriesKeys(rows []map[string]interface{}, cfg Config) []string {
	if cfg.Type == KindLine || cfg.Type == KindComposed {
		if len(cfg.DataKeys) > 0 {
			return cfg.DataKeys
		}
		if cfg.YAxisKey != "" {
			return []string{cfg.YAxisKey}
		}
		if inferred := inferSeriesKeys(rows[0]); len(inferred) > 0 {
			return inferred
		}
	}

	switch {
	case cfg.YAxisKey != "":
		return []string{cfg.YAxisKey}
	case cfg.DataKey != "":
		return []string{cfg.DataKey}
	case cfg.ValueKey != "":
		return []string{cfg.ValueKey}
	default:
		return []string{"value"}
	}
}

func inferSeriesKeys(first map[string]interface{}) []string {
	if first == nil {
		return nil
	}
	// Stable order: iterate sorted so inference is deterministic.
	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	inferred := make([]string, 0, maxInferredSeries)
	for _, k := range keys {
		if seriesKeyBlacklist[strings.ToLower(k)] {
			continue
		}
		switch first[k].(type) {
		case float64, float32, int, int64:
			inferred = append(inferred, k)
		}
		if len(inferred) == maxInferredSeries {
			break
		}
	}
	return inferred
}

// shapePie derives name/value pairs, coercing values to numbers and dropping
// non-positive or non-finite slices.
func shapePie(rows []map[string]interface{}, cfg Config) []PiePoint {
	nameKey := cfg.NameKey
	if nameKey == "" {
		nameKey = cfg.XAxisKey
	}
	valueKey := cfg.ValueKey
	if valueKey == "" {
		valueKey = cfg.DataKey
	}
	if valueKey == "" {
		valueKey = cfg.YAxisKey
	}

	points := make([]PiePoint, 0, len(rows))
	for _, row := range rows {
		val, ok := toFloat(row[valueKey])
		if !ok || math.IsNaN(val) || math.IsInf(val, 0) || val <= 0 {
			continue
		}
		points = append(points, PiePoint{Name: stringify(row[nameKey]), Value: val})
	}
	return points
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		// Numeric labels show up for year/month groupings.
		if f, ok := toFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return ""
	}
}
