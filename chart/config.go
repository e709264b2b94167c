// Package chart turns arbitrary, possibly malformed tabular results plus a
// proposed chart configuration into a validated render plan. The chart-type
// decision itself is made upstream; this package only sanitizes, validates
// and derives the numeric parameters a renderer needs (axis domain, series
// keys, dual-axis hint). Nothing in here panics on bad input.
package chart

import "strings"

// Kind identifies the chart type the decision service proposed.
type Kind string

const (
	KindBar      Kind = "bar"
	KindLine     Kind = "line"
	KindPie      Kind = "pie"
	KindArea     Kind = "area"
	KindComposed Kind = "composed"
)

// ValueFormat tags how series values should be formatted on the axis.
type ValueFormat string

const (
	FormatDefault    ValueFormat = "default"
	FormatPercentage ValueFormat = "percentage"
	FormatCount      ValueFormat = "count"
	FormatCurrency   ValueFormat = "currency"
)

// Config is the chart configuration returned by the decision service.
// Key names frequently arrive with trailing commas or whitespace appended by
// the model; SanitizeKeys strips that before any lookup.
type Config struct {
	Type        Kind        `json:"chartType"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	XAxisKey    string      `json:"xAxisKey,omitempty"`
	YAxisKey    string      `json:"yAxisKey,omitempty"`
	DataKey     string      `json:"dataKey,omitempty"`
	DataKeys    []string    `json:"dataKeys,omitempty"`
	NameKey     string      `json:"nameKey,omitempty"`
	ValueKey    string      `json:"valueKey,omitempty"`
	Colors      []string    `json:"colors"`
	ShowLegend  bool        `json:"showLegend"`
	ShowGrid    bool        `json:"showGrid"`
	ValueFormat ValueFormat `json:"valueFormat,omitempty"`
}

// SanitizeKey trims whitespace and trailing comma noise from a key name.
func SanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	key = strings.TrimRight(key, ",")
	return strings.TrimSpace(key)
}

// SanitizeKeys returns a copy of the config with every referenced key name
// cleaned up. Empty entries in DataKeys are dropped.
func (c Config) SanitizeKeys() Config {
	out := c
	out.XAxisKey = SanitizeKey(c.XAxisKey)
	out.YAxisKey = SanitizeKey(c.YAxisKey)
	out.DataKey = SanitizeKey(c.DataKey)
	out.NameKey = SanitizeKey(c.NameKey)
	out.ValueKey = SanitizeKey(c.ValueKey)
	if len(c.DataKeys) > 0 {
		keys := make([]string, 0, len(c.DataKeys))
		for _, k := range c.DataKeys {
			if s := SanitizeKey(k); s != "" {
				keys = append(keys, s)
			}
		}
		out.DataKeys = keys
	}
	return out
}

// valid reports whether the config carries the minimum a renderer needs:
// a chart kind and at least one usable color.
func (c Config) valid() bool {
	if c.Type == "" || len(c.Colors) == 0 {
		return false
	}
	for _, col := range c.Colors {
		if strings.TrimSpace(col) == "" {
			return false
		}
	}
	return true
}
