package agent

import (
	"testing"

	"github.com/vishwawinit/nfpc-1-sub001/chart"
)

func TestParseResultStrictJSON(t *testing.T) {
	v := NewVisualizer(nil, nil)

	res := v.parseResult(`{"canVisualize": true, "chartData": [{"m": "Jan", "v": 1}], "chartConfig": {"chartType": "bar", "xAxisKey": "m", "yAxisKey": "v", "colors": ["#8884d8"]}}`)
	if !res.CanVisualize {
		t.Fatalf("valid plan rejected")
	}
	if res.Config.Type != chart.KindBar || res.Config.XAxisKey != "m" {
		t.Errorf("config not decoded: %+v", res.Config)
	}
	if len(res.Data) != 1 {
		t.Errorf("data not decoded: %v", res.Data)
	}
}

func TestParseResultStripsCodeFences(t *testing.T) {
	v := NewVisualizer(nil, nil)

	fenced := "```json\n{\"canVisualize\": true, \"chartData\": [{\"a\": 1}], \"chartConfig\": {\"chartType\": \"line\", \"colors\": [\"#111\"]}}\n```"
	res := v.parseResult(fenced)
	if !res.CanVisualize {
		t.Errorf("fenced JSON rejected")
	}

	generic := "```\n{\"canVisualize\": false}\n```"
	if v.parseResult(generic).CanVisualize {
		t.Errorf("declined plan accepted")
	}
}

func TestParseResultDegradesToNoChart(t *testing.T) {
	v := NewVisualizer(nil, nil)

	cases := []string{
		"not json",
		"",
		`{"canVisualize": true}`,
		`{"canVisualize": true, "chartData": []}`,
		`{"canVisualize": true, "chartData": [{"a": 1}]}`,
		`{"canVisualize": false, "chartData": [{"a": 1}], "chartConfig": {"chartType": "bar"}}`,
	}
	for _, in := range cases {
		if res := v.parseResult(in); res.CanVisualize {
			t.Errorf("parseResult(%q) accepted, want declined", in)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	if got := extractJSON("  {\"a\":1}  "); got != `{"a":1}` {
		t.Errorf("plain JSON mangled: %q", got)
	}
	if got := extractJSON("prose\n```json\n{\"a\":1}\n```\nmore"); got != `{"a":1}` {
		t.Errorf("json fence not stripped: %q", got)
	}
	if got := extractJSON("```\n[1,2]\n```"); got != "[1,2]" {
		t.Errorf("generic fence not stripped: %q", got)
	}
}
