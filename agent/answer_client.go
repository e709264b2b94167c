package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vishwawinit/nfpc-1-sub001/database"
)

// AnswerClient talks to the answering backend that turns a natural-language
// question into text, SQL and tabular data.
type AnswerClient struct {
	BaseURL string
	logFunc func(string)
	client  *http.Client
}

// NewAnswerClient creates an AnswerClient for the given backend URL.
func NewAnswerClient(baseURL string, logFunc func(string)) *AnswerClient {
	if logFunc == nil {
		logFunc = func(string) {}
	}
	return &AnswerClient{
		BaseURL: baseURL,
		logFunc: logFunc,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

type askRequest struct {
	Question string      `json:"question"`
	History  []PriorTurn `json:"history,omitempty"`
}

// Ask sends the question with prior-turn context and decodes the reply. The
// context governs the whole round trip, so cancelling it aborts an in-flight
// question.
func (c *AnswerClient) Ask(ctx context.Context, question string, history []PriorTurn) (*AnswerResponse, error) {
	jsonBody, err := json.Marshal(askRequest{Question: question, History: history})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logFunc(fmt.Sprintf("[AnswerClient] backend error (%d): %s", resp.StatusCode, truncateForLog(respBody)))
		return nil, decodeRequestError(resp.StatusCode, respBody)
	}

	return decodeAnswer(respBody), nil
}

// decodeRequestError pulls the structured error fields out of a failed
// response body. Bodies that are not JSON still produce a usable error.
func decodeRequestError(status int, body []byte) *RequestError {
	reqErr := &RequestError{Status: status, Message: string(body)}
	if parsed, ok := database.ParseMaybeJSON(string(body)); ok {
		if v := parsed.Get("errorType"); v.Exists() {
			reqErr.ErrorType = v.String()
		}
		if v := parsed.Get("error"); v.Exists() {
			reqErr.Message = v.String()
		} else if v := parsed.Get("message"); v.Exists() {
			reqErr.Message = v.String()
		}
		if v := parsed.Get("details"); v.Exists() {
			reqErr.Details = v.String()
		}
	}
	return reqErr
}

// decodeAnswer maps the backend JSON onto AnswerResponse. Every field is
// optional and shape-checked; a malformed field degrades to absent rather
// than failing the whole answer.
func decodeAnswer(body []byte) *AnswerResponse {
	ans := &AnswerResponse{}
	parsed, ok := database.ParseMaybeJSON(string(body))
	if !ok {
		ans.Text = string(body)
		return ans
	}

	ans.Text = parsed.Get("text").String()
	ans.Reasoning = parsed.Get("reasoning").String()
	ans.Question = parsed.Get("question").String()
	ans.SQLQuery = parsed.Get("sqlQuery").String()
	ans.Progressive = parsed.Get("progressive").Bool()
	ans.MultipleQueries = parsed.Get("multipleQueries").Bool()
	if v := parsed.Get("hasData"); v.Exists() {
		flag := v.Bool()
		ans.DataFlag = &flag
	}

	if qd := parsed.Get("queryData"); qd.IsObject() {
		ans.QueryData = decodeTable(qd)
	}
	if ds := parsed.Get("datasets"); ds.IsArray() {
		for _, item := range ds.Array() {
			if !item.IsObject() {
				continue
			}
			set := database.Dataset{
				ID:       item.Get("id").String(),
				SQLQuery: item.Get("sqlQuery").String(),
			}
			if td := decodeTable(item.Get("queryData")); td != nil {
				set.QueryData = *td
			}
			ans.Datasets = append(ans.Datasets, set)
		}
	}
	return ans
}

func decodeTable(v gjson.Result) *database.TableData {
	if !v.IsObject() {
		return nil
	}
	td := &database.TableData{}
	for _, col := range v.Get("columns").Array() {
		td.Columns = append(td.Columns, col.String())
	}
	for _, row := range v.Get("rows").Array() {
		if !row.IsArray() {
			continue
		}
		var cells []interface{}
		for _, cell := range row.Array() {
			cells = append(cells, cell.Value())
		}
		td.Rows = append(td.Rows, cells)
	}
	td.RowCount = int(v.Get("rowCount").Int())
	if td.RowCount == 0 {
		td.RowCount = len(td.Rows)
	}
	return td
}

func truncateForLog(body []byte) string {
	const max = 500
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
