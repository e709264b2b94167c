package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vishwawinit/nfpc-1-sub001/database"
)

const summarySystemPrompt = `You are a data analyst assistant. Given a user question, the SQL that answered it and the resulting data, write a concise natural-language summary of what the data shows. Answer in the user's language. Do not restate the SQL. Do not invent numbers that are not in the data.`

// Summarizer turns a question plus its query result into a short
// natural-language summary.
type Summarizer struct {
	chatModel model.ChatModel
	logFunc   func(string)
}

// NewSummarizer creates a Summarizer on the given chat model.
func NewSummarizer(chatModel model.ChatModel, logFunc func(string)) *Summarizer {
	if logFunc == nil {
		logFunc = func(string) {}
	}
	return &Summarizer{chatModel: chatModel, logFunc: logFunc}
}

// Summarize produces the text summary for one answered question. Prior turns
// give the model conversational context for follow-up questions.
func (s *Summarizer) Summarize(ctx context.Context, question, sqlQuery string, table *database.TableData, turns []PriorTurn) (string, error) {
	prompt := s.buildPrompt(question, sqlQuery, table, turns)

	msgs := []*schema.Message{
		schema.SystemMessage(summarySystemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := s.chatModel.Generate(ctx, msgs)
	if err != nil {
		s.logFunc(fmt.Sprintf("[Summarizer] generation failed: %v", err))
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

func (s *Summarizer) buildPrompt(question, sqlQuery string, table *database.TableData, turns []PriorTurn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current time: %s\n\n", time.Now().Format("2006-01-02 15:04:05 Monday"))

	if len(turns) > 0 {
		b.WriteString("Earlier conversation:\n")
		for _, t := range turns {
			fmt.Fprintf(&b, "- %s: %s\n", t.Role, truncateText(t.Content, 300))
			if t.Sample != nil {
				sample, _ := json.Marshal(t.Sample)
				fmt.Fprintf(&b, "  data sample: %s\n", sample)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n", question)
	if sqlQuery != "" {
		fmt.Fprintf(&b, "SQL: %s\n", sqlQuery)
	}

	if table != nil && len(table.Rows) > 0 {
		rows := table.Rows
		if len(rows) > 50 {
			rows = rows[:50]
		}
		data, _ := json.Marshal(map[string]interface{}{
			"columns":  table.Columns,
			"rows":     rows,
			"rowCount": table.RowCount,
		})
		fmt.Fprintf(&b, "Result data: %s\n", data)
	} else {
		b.WriteString("Result data: (empty)\n")
	}

	b.WriteString("\nSummarize what this data shows.")
	return b.String()
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}
