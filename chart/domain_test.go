package chart

import (
	"math"
	"testing"
)

func rowsFromValues(key string, values ...interface{}) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(values))
	for _, v := range values {
		rows = append(rows, map[string]interface{}{"label": "x", key: v})
	}
	return rows
}

func TestAxisDomainNiceRounding(t *testing.T) {
	rows := rowsFromValues("sales", 10.0, 25.0, 50.0)
	got := AxisDomain(rows, []string{"sales"}, FormatDefault)

	// padded range 6..54, nice interval 20, widened to 4 intervals
	want := [2]float64{0, 80}
	if got != want {
		t.Errorf("AxisDomain = %v, want %v", got, want)
	}
}

func TestAxisDomainSpansNiceMultiples(t *testing.T) {
	rows := rowsFromValues("amount", 123.0, 456.0, 789.0)
	got := AxisDomain(rows, []string{"amount"}, FormatDefault)

	if got[0] < 0 || got[0] > 123 {
		t.Errorf("lower bound %v outside [0, min]", got[0])
	}
	if got[1] < 789 {
		t.Errorf("upper bound %v below data max", got[1])
	}
	if got[0] >= got[1] {
		t.Errorf("inverted domain %v", got)
	}
}

func TestAxisDomainPercentage(t *testing.T) {
	rows := rowsFromValues("rate", 12.0, 88.0)
	got := AxisDomain(rows, []string{"rate"}, FormatPercentage)

	want := [2]float64{0, 100}
	if got != want {
		t.Errorf("AxisDomain percentage = %v, want %v", got, want)
	}
	if math.Mod(got[0], 5) != 0 || math.Mod(got[1], 5) != 0 {
		t.Errorf("percentage bounds %v not multiples of 5", got)
	}
}

func TestAxisDomainPercentageClamped(t *testing.T) {
	rows := rowsFromValues("delta", -150.0, 950.0)
	got := AxisDomain(rows, []string{"delta"}, FormatPercentage)

	want := [2]float64{-100, 1000}
	if got != want {
		t.Errorf("AxisDomain clamped percentage = %v, want %v", got, want)
	}
}

func TestAxisDomainDegenerateInputs(t *testing.T) {
	cases := []struct {
		name string
		rows []map[string]interface{}
		keys []string
	}{
		{"no rows", nil, []string{"v"}},
		{"no keys", rowsFromValues("v", 1.0), nil},
		{"all zero", rowsFromValues("v", 0.0, 0.0), []string{"v"}},
		{"single repeated value", rowsFromValues("v", 5.0, 5.0), []string{"v"}},
		{"non-numeric", rowsFromValues("v", "abc", "def"), []string{"v"}},
		{"missing key", rowsFromValues("v", 1.0, 2.0), []string{"other"}},
	}
	for _, tc := range cases {
		got := AxisDomain(tc.rows, tc.keys, FormatDefault)
		if got != defaultDomain {
			t.Errorf("%s: AxisDomain = %v, want default %v", tc.name, got, defaultDomain)
		}
	}
}

func TestAxisDomainStringNumbers(t *testing.T) {
	rows := rowsFromValues("count", "10", "40")
	got := AxisDomain(rows, []string{"count"}, FormatDefault)
	if got == defaultDomain {
		t.Fatalf("numeric strings should produce a real domain, got default")
	}
	if got[1] < 40 {
		t.Errorf("upper bound %v below data max", got[1])
	}
}

func TestValidateDomain(t *testing.T) {
	if got := ValidateDomain([2]float64{0, 50}); got != [2]float64{0, 50} {
		t.Errorf("valid domain changed: %v", got)
	}
	if got := ValidateDomain([2]float64{50, 50}); got != defaultDomain {
		t.Errorf("empty range not defaulted: %v", got)
	}
	if got := ValidateDomain([2]float64{80, 20}); got != defaultDomain {
		t.Errorf("inverted range not defaulted: %v", got)
	}
	if got := ValidateDomain([2]float64{math.NaN(), 10}); got != defaultDomain {
		t.Errorf("NaN bound not defaulted: %v", got)
	}
	if got := ValidateDomain([2]float64{0, math.Inf(1)}); got != defaultDomain {
		t.Errorf("infinite bound not defaulted: %v", got)
	}
}

func TestNeedsDualAxis(t *testing.T) {
	wide := []map[string]interface{}{
		{"month": "Jan", "revenue": 900.0, "margin": 5.0},
		{"month": "Feb", "revenue": 995.0, "margin": 8.0},
	}
	if !NeedsDualAxis(wide, []string{"revenue", "margin"}) {
		t.Errorf("100x scale gap should request dual axis")
	}

	narrow := []map[string]interface{}{
		{"month": "Jan", "revenue": 50.0, "margin": 60.0},
		{"month": "Feb", "revenue": 55.0, "margin": 58.0},
	}
	if NeedsDualAxis(narrow, []string{"revenue", "margin"}) {
		t.Errorf("similar scales should not request dual axis")
	}

	if NeedsDualAxis(wide, []string{"revenue"}) {
		t.Errorf("single series can never need dual axis")
	}
	zero := []map[string]interface{}{{"a": 0.0, "b": 0.0}}
	if NeedsDualAxis(zero, []string{"a", "b"}) {
		t.Errorf("all-zero series should not request dual axis")
	}
}
