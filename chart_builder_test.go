package main

import (
	"context"
	"errors"
	"testing"

	"github.com/vishwawinit/nfpc-1-sub001/agent"
	"github.com/vishwawinit/nfpc-1-sub001/chart"
	"github.com/vishwawinit/nfpc-1-sub001/database"
)

type fakeViz struct {
	singleCalls   int
	combinedCalls int
	singleResult  *agent.VizResult
	singleErr     error
	combinedRes   *agent.VizResult
	combinedErr   error
	// per-call results for sequential multi-dataset planning
	perCall []*agent.VizResult
}

func (f *fakeViz) Visualize(ctx context.Context, question string, table *database.TableData) (*agent.VizResult, error) {
	f.singleCalls++
	if len(f.perCall) > 0 {
		res := f.perCall[0]
		f.perCall = f.perCall[1:]
		if res == nil {
			return nil, errors.New("planner failed")
		}
		return res, nil
	}
	return f.singleResult, f.singleErr
}

func (f *fakeViz) VisualizeCombined(ctx context.Context, question string, tables []*database.TableData) (*agent.VizResult, error) {
	f.combinedCalls++
	return f.combinedRes, f.combinedErr
}

func okViz() *agent.VizResult {
	return &agent.VizResult{
		CanVisualize: true,
		Data: []map[string]interface{}{
			{"month": "Jan", "revenue": 10.0},
			{"month": "Feb", "revenue": 20.0},
		},
		Config: &chart.Config{
			Type:     chart.KindBar,
			XAxisKey: "month",
			YAxisKey: "revenue",
			Colors:   []string{"#8884d8"},
		},
	}
}

func table(columns []string, rowCount int) *database.TableData {
	rows := make([][]interface{}, rowCount)
	for i := range rows {
		rows[i] = []interface{}{i}
	}
	return &database.TableData{Columns: columns, Rows: rows, RowCount: rowCount}
}

func TestBuildSingleSkipsTinyResults(t *testing.T) {
	viz := &fakeViz{singleResult: okViz()}
	b := NewChartBuilder(viz, nil)

	data, cfg := b.BuildSingle(context.Background(), "q", table([]string{"a"}, 1))
	if data != nil || cfg != nil {
		t.Errorf("one-row result should not chart")
	}
	if viz.singleCalls != 0 {
		t.Errorf("planner called for tiny result")
	}

	if data, _ := b.BuildSingle(context.Background(), "q", nil); data != nil {
		t.Errorf("nil table should not chart")
	}
}

func TestBuildSinglePlansChart(t *testing.T) {
	viz := &fakeViz{singleResult: okViz()}
	b := NewChartBuilder(viz, nil)

	data, cfg := b.BuildSingle(context.Background(), "q", table([]string{"month", "revenue"}, 3))
	if data == nil || cfg == nil {
		t.Fatalf("valid plan dropped")
	}
	if cfg.Type != chart.KindBar {
		t.Errorf("config type = %v", cfg.Type)
	}
}

func TestBuildSingleRejectsInvalidPlan(t *testing.T) {
	bad := okViz()
	bad.Config.Colors = nil

	viz := &fakeViz{singleResult: bad}
	b := NewChartBuilder(viz, nil)

	data, cfg := b.BuildSingle(context.Background(), "q", table([]string{"month"}, 3))
	if data != nil || cfg != nil {
		t.Errorf("plan without colors must be rejected")
	}
}

func TestBuildSingleSwallowsPlannerError(t *testing.T) {
	viz := &fakeViz{singleErr: errors.New("model down")}
	b := NewChartBuilder(viz, nil)

	data, cfg := b.BuildSingle(context.Background(), "q", table([]string{"month"}, 3))
	if data != nil || cfg != nil {
		t.Errorf("failed planning should yield no chart, not an error")
	}
}

func TestBuildChartsCombinesDateAxes(t *testing.T) {
	viz := &fakeViz{combinedRes: okViz()}
	b := NewChartBuilder(viz, nil)

	datasets := []database.Dataset{
		{ID: "d1", QueryData: *table([]string{"order_date", "sales"}, 3)},
		{ID: "d2", QueryData: *table([]string{"month", "cost"}, 4)},
	}
	charts := b.BuildCharts(context.Background(), "q", datasets)
	if len(charts) != 1 {
		t.Fatalf("got %d charts, want 1 combined", len(charts))
	}
	if viz.combinedCalls != 1 || viz.singleCalls != 0 {
		t.Errorf("combined=%d single=%d, want 1/0", viz.combinedCalls, viz.singleCalls)
	}
}

func TestBuildChartsNoFallbackAfterCombineFailure(t *testing.T) {
	viz := &fakeViz{combinedErr: errors.New("merge failed")}
	b := NewChartBuilder(viz, nil)

	datasets := []database.Dataset{
		{ID: "d1", QueryData: *table([]string{"date", "a"}, 3)},
		{ID: "d2", QueryData: *table([]string{"year", "b"}, 3)},
	}
	charts := b.BuildCharts(context.Background(), "q", datasets)
	if charts != nil {
		t.Errorf("combine failure must yield no charts, got %d", len(charts))
	}
	if viz.singleCalls != 0 {
		t.Errorf("fell back to per-dataset planning after combine failure")
	}
}

func TestBuildChartsNoFallbackWhenCombineDeclines(t *testing.T) {
	viz := &fakeViz{combinedRes: &agent.VizResult{CanVisualize: false}}
	b := NewChartBuilder(viz, nil)

	datasets := []database.Dataset{
		{ID: "d1", QueryData: *table([]string{"date", "a"}, 3)},
		{ID: "d2", QueryData: *table([]string{"day", "b"}, 3)},
	}
	if charts := b.BuildCharts(context.Background(), "q", datasets); charts != nil {
		t.Errorf("declined combine must yield no charts")
	}
	if viz.singleCalls != 0 {
		t.Errorf("fell back to per-dataset planning after declined combine")
	}
}

func TestBuildChartsWeekColumnsAreNotTimeAxes(t *testing.T) {
	viz := &fakeViz{singleResult: okViz()}
	b := NewChartBuilder(viz, nil)

	// week/time style names do not count as date columns, so these
	// datasets are planned one by one instead of merged.
	datasets := []database.Dataset{
		{ID: "d1", QueryData: *table([]string{"week_no", "a"}, 3)},
		{ID: "d2", QueryData: *table([]string{"time_slot", "b"}, 3)},
	}
	charts := b.BuildCharts(context.Background(), "q", datasets)
	if viz.combinedCalls != 0 {
		t.Errorf("datasets without date columns must not be merged")
	}
	if viz.singleCalls != 2 {
		t.Errorf("singleCalls = %d, want 2", viz.singleCalls)
	}
	if len(charts) != 2 {
		t.Errorf("got %d charts, want 2", len(charts))
	}
}

func TestBuildChartsSequentialWhenNotCombinable(t *testing.T) {
	viz := &fakeViz{perCall: []*agent.VizResult{okViz(), nil, okViz()}}
	b := NewChartBuilder(viz, nil)

	datasets := []database.Dataset{
		{ID: "d1", QueryData: *table([]string{"date", "a"}, 3)},
		{ID: "d2", QueryData: *table([]string{"region", "b"}, 3)}, // no time column
		{ID: "d3", QueryData: *table([]string{"month", "c"}, 3)},
	}
	charts := b.BuildCharts(context.Background(), "q", datasets)
	if viz.combinedCalls != 0 {
		t.Errorf("non-combinable datasets must not be merged")
	}
	if viz.singleCalls != 3 {
		t.Errorf("singleCalls = %d, want 3", viz.singleCalls)
	}
	// middle dataset failed and is skipped, the rest chart fine
	if len(charts) != 2 {
		t.Errorf("got %d charts, want 2", len(charts))
	}
}

func TestBuildChartsSkipsTinyDatasets(t *testing.T) {
	viz := &fakeViz{singleResult: okViz()}
	b := NewChartBuilder(viz, nil)

	datasets := []database.Dataset{
		{ID: "d1", QueryData: *table([]string{"region", "a"}, 1)},
	}
	if charts := b.BuildCharts(context.Background(), "q", datasets); charts != nil {
		t.Errorf("single-row dataset should not chart")
	}
	if viz.singleCalls != 0 {
		t.Errorf("planner called for tiny dataset")
	}
}
