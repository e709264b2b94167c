package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vishwawinit/nfpc-1-sub001/chart"
	"github.com/vishwawinit/nfpc-1-sub001/database"
)

const vizSystemPrompt = `You are a data visualization planner. Given a user question and tabular data, decide whether the data is worth charting and, if so, emit the chart rows and configuration.

Respond with STRICT JSON only, no markdown, in this shape:
{"canVisualize": true|false, "chartData": [...], "chartConfig": {"chartType": "bar|line|pie|area|composed", "xAxisKey": "...", "yAxisKey": "...", "dataKeys": [...], "nameKey": "...", "valueKey": "...", "colors": [...], "showLegend": true, "showGrid": true, "valueFormat": "default|percentage|count|currency"}}

Set canVisualize to false when the data is a single value, free text, or otherwise not chartable.`

// Visualizer asks the chat model to plan a chart for one or more datasets.
type Visualizer struct {
	chatModel model.ChatModel
	logFunc   func(string)
}

// NewVisualizer creates a Visualizer on the given chat model.
func NewVisualizer(chatModel model.ChatModel, logFunc func(string)) *Visualizer {
	if logFunc == nil {
		logFunc = func(string) {}
	}
	return &Visualizer{chatModel: chatModel, logFunc: logFunc}
}

// Visualize plans a chart for a single dataset. An unparseable or negative
// model reply is a plain "no chart", not an error the caller must handle.
func (v *Visualizer) Visualize(ctx context.Context, question string, table *database.TableData) (*VizResult, error) {
	if table == nil || len(table.Rows) == 0 {
		return &VizResult{CanVisualize: false}, nil
	}
	prompt := v.buildPrompt(question, []*database.TableData{table}, false)
	return v.generate(ctx, prompt)
}

// VisualizeCombined plans a single chart covering several datasets at once,
// for results that were judged combinable onto one axis.
func (v *Visualizer) VisualizeCombined(ctx context.Context, question string, tables []*database.TableData) (*VizResult, error) {
	if len(tables) == 0 {
		return &VizResult{CanVisualize: false}, nil
	}
	prompt := v.buildPrompt(question, tables, true)
	return v.generate(ctx, prompt)
}

func (v *Visualizer) generate(ctx context.Context, prompt string) (*VizResult, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(vizSystemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := v.chatModel.Generate(ctx, msgs)
	if err != nil {
		v.logFunc(fmt.Sprintf("[Visualizer] generation failed: %v", err))
		return nil, err
	}
	return v.parseResult(resp.Content), nil
}

func (v *Visualizer) buildPrompt(question string, tables []*database.TableData, combined bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", question)

	if combined {
		fmt.Fprintf(&b, "The following %d result sets share a compatible time axis. Plan ONE chart that merges them.\n\n", len(tables))
	}

	for i, table := range tables {
		rows := table.Rows
		if len(rows) > 100 {
			rows = rows[:100]
		}
		data, _ := json.Marshal(map[string]interface{}{
			"columns":  table.Columns,
			"rows":     rows,
			"rowCount": table.RowCount,
		})
		if combined {
			fmt.Fprintf(&b, "Dataset %d: %s\n", i+1, data)
		} else {
			fmt.Fprintf(&b, "Data: %s\n", data)
		}
	}
	return b.String()
}

// parseResult decodes the model reply. Code fences are stripped first; any
// reply that then fails strict JSON decoding counts as "cannot visualize".
func (v *Visualizer) parseResult(content string) *VizResult {
	content = extractJSON(content)

	var decoded struct {
		CanVisualize bool                     `json:"canVisualize"`
		ChartData    []map[string]interface{} `json:"chartData"`
		ChartConfig  *chart.Config            `json:"chartConfig"`
	}
	if err := json.Unmarshal([]byte(content), &decoded); err != nil {
		v.logFunc(fmt.Sprintf("[Visualizer] unparseable reply: %v", err))
		return &VizResult{CanVisualize: false}
	}

	if !decoded.CanVisualize || len(decoded.ChartData) == 0 || decoded.ChartConfig == nil {
		return &VizResult{CanVisualize: false}
	}
	return &VizResult{
		CanVisualize: true,
		Data:         decoded.ChartData,
		Config:       decoded.ChartConfig,
	}
}

// extractJSON extracts JSON from markdown code blocks
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+7:]
		if endIdx := strings.Index(content, "```"); endIdx >= 0 {
			content = content[:endIdx]
		}
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+3:]
		if endIdx := strings.Index(content, "```"); endIdx >= 0 {
			content = content[:endIdx]
		}
	}

	return strings.TrimSpace(content)
}
