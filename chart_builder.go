package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/vishwawinit/nfpc-1-sub001/agent"
	"github.com/vishwawinit/nfpc-1-sub001/chart"
	"github.com/vishwawinit/nfpc-1-sub001/database"
)

// VizService plans charts for tabular results.
type VizService interface {
	Visualize(ctx context.Context, question string, table *database.TableData) (*agent.VizResult, error)
	VisualizeCombined(ctx context.Context, question string, tables []*database.TableData) (*agent.VizResult, error)
}

// minChartRows is the smallest result worth charting. One-row results read
// better as plain text or a table.
const minChartRows = 2

// dateTokens marks a column as a time axis when its lowercased name contains
// one of them.
var dateTokens = []string{"date", "day", "month", "year"}

// ChartBuilder turns query results into chart payloads via the
// visualization model, validating every plan before it is kept.
type ChartBuilder struct {
	viz     VizService
	logFunc func(string)
}

// NewChartBuilder creates a ChartBuilder.
func NewChartBuilder(viz VizService, logFunc func(string)) *ChartBuilder {
	if logFunc == nil {
		logFunc = func(string) {}
	}
	return &ChartBuilder{viz: viz, logFunc: logFunc}
}

// BuildSingle plans one chart for a single result set. It returns nil data
// when the result is too small, the model declines, or the plan fails
// validation; the caller then simply renders no chart.
func (b *ChartBuilder) BuildSingle(ctx context.Context, question string, table *database.TableData) ([]map[string]interface{}, *chart.Config) {
	if table == nil || len(table.Rows) < minChartRows {
		return nil, nil
	}

	res, err := b.viz.Visualize(ctx, question, table)
	if err != nil {
		b.logFunc(fmt.Sprintf("[ChartBuilder] visualization failed: %v", err))
		return nil, nil
	}
	return b.validate(res)
}

// BuildCharts plans charts for a multi-dataset answer. When every dataset
// carries a time axis the datasets are merged into one combined chart; a
// failed combine yields no charts at all rather than falling back to
// per-dataset charts, since mixed output after a promised merge is more
// confusing than none. Non-combinable answers get one chart per dataset,
// planned sequentially, with individual failures skipped.
func (b *ChartBuilder) BuildCharts(ctx context.Context, question string, datasets []database.Dataset) []database.MessageChart {
	chartable := make([]*database.TableData, 0, len(datasets))
	for i := range datasets {
		if len(datasets[i].QueryData.Rows) >= minChartRows {
			chartable = append(chartable, &datasets[i].QueryData)
		}
	}
	if len(chartable) == 0 {
		return nil
	}

	if len(chartable) > 1 && combinable(chartable) {
		res, err := b.viz.VisualizeCombined(ctx, question, chartable)
		if err != nil {
			b.logFunc(fmt.Sprintf("[ChartBuilder] combined visualization failed: %v", err))
			return nil
		}
		data, cfg := b.validate(res)
		if data == nil {
			return nil
		}
		return []database.MessageChart{{ChartData: data, ChartConfig: cfg}}
	}

	var charts []database.MessageChart
	for _, table := range chartable {
		res, err := b.viz.Visualize(ctx, question, table)
		if err != nil {
			b.logFunc(fmt.Sprintf("[ChartBuilder] dataset visualization failed: %v", err))
			continue
		}
		data, cfg := b.validate(res)
		if data == nil {
			continue
		}
		charts = append(charts, database.MessageChart{ChartData: data, ChartConfig: cfg})
	}
	return charts
}

// validate runs a planned chart through normalization and keeps it only when
// it would actually render.
func (b *ChartBuilder) validate(res *agent.VizResult) ([]map[string]interface{}, *chart.Config) {
	if res == nil || !res.CanVisualize || res.Config == nil {
		return nil, nil
	}
	plan := chart.Normalize(res.Data, *res.Config)
	if plan.Status != chart.StatusOK {
		b.logFunc("[ChartBuilder] planned chart rejected by validation")
		return nil, nil
	}
	cfg := plan.Config
	return plan.Rows, &cfg
}

// combinable reports whether every result set carries a recognizable time
// column, which is the precondition for merging them onto one axis.
func combinable(tables []*database.TableData) bool {
	for _, table := range tables {
		if !hasDateColumn(table.Columns) {
			return false
		}
	}
	return true
}

func hasDateColumn(columns []string) bool {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, token := range dateTokens {
			if strings.Contains(lower, token) {
				return true
			}
		}
	}
	return false
}
