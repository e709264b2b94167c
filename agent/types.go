package agent

import (
	"github.com/vishwawinit/nfpc-1-sub001/chart"
	"github.com/vishwawinit/nfpc-1-sub001/database"
)

// MaxSampleRows caps how many data rows from a prior turn are carried into
// follow-up prompts. Full result sets can be huge; a small sample is enough
// for the model to understand the shape of earlier answers.
const MaxSampleRows = 5

// TableSample is a truncated view of one prior result set.
type TableSample struct {
	Columns  []string        `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"rowCount"`
}

// PriorTurn is the context-building view of one earlier exchange.
type PriorTurn struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Reasoning string       `json:"reasoning,omitempty"`
	SQL       string       `json:"sql,omitempty"`
	Sample    *TableSample `json:"sample,omitempty"`
}

// PriorTurns maps stored messages into prompt context. Assistant turns keep
// their SQL and at most MaxSampleRows rows of data; error turns contribute
// their text only.
func PriorTurns(messages []database.Message) []PriorTurn {
	turns := make([]PriorTurn, 0, len(messages))
	for _, m := range messages {
		turn := PriorTurn{Role: m.Role, Content: m.Content}
		if m.Role == "assistant" && !m.IsError {
			turn.Reasoning = m.Reasoning
			turn.SQL = m.SQLQuery
			if m.TableData != nil && len(m.TableData.Rows) > 0 {
				sample := TableSample{
					Columns:  m.TableData.Columns,
					Rows:     m.TableData.Rows,
					RowCount: m.TableData.RowCount,
				}
				if len(sample.Rows) > MaxSampleRows {
					sample.Rows = sample.Rows[:MaxSampleRows]
				}
				turn.Sample = &sample
			}
		}
		turns = append(turns, turn)
	}
	return turns
}

// AnswerResponse is the decoded reply of the answering backend for one
// question.
type AnswerResponse struct {
	Text            string
	Reasoning       string
	Question        string
	SQLQuery        string
	QueryData       *database.TableData
	Datasets        []database.Dataset
	Progressive     bool
	MultipleQueries bool
	// DataFlag is the backend's own hasData verdict. Nil when the backend
	// omitted the field; HasData then falls back to inspecting the rows.
	DataFlag *bool
}

// HasData reports whether the answer carries any tabular result at all.
func (r *AnswerResponse) HasData() bool {
	if r.DataFlag != nil {
		return *r.DataFlag
	}
	if r.QueryData != nil && len(r.QueryData.Rows) > 0 {
		return true
	}
	for _, ds := range r.Datasets {
		if len(ds.QueryData.Rows) > 0 {
			return true
		}
	}
	return false
}

// VizResult is the visualization model's verdict for one dataset.
type VizResult struct {
	CanVisualize bool
	Data         []map[string]interface{}
	Config       *chart.Config
}

// RequestError carries enough of a failed backend response for the caller to
// classify it (rate limit, context overflow, SQL failure, generic API error).
type RequestError struct {
	Status    int
	ErrorType string
	Message   string
	Details   string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "request failed"
}
