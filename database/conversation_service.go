package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vishwawinit/nfpc-1-sub001/chart"
)

// TableData is one tabular query result: ordered rows of ordered values plus
// the column names.
type TableData struct {
	Rows     [][]interface{} `json:"rows"`
	Columns  []string        `json:"columns"`
	RowCount int             `json:"rowCount"`
}

// Dataset holds one tabular result together with the SQL that produced it.
// A single answer may carry several.
type Dataset struct {
	ID        string    `json:"id"`
	QueryData TableData `json:"queryData"`
	SQLQuery  string    `json:"sqlQuery"`
}

// MessageChart pairs chart rows with their configuration for the multi-chart
// form of a message.
type MessageChart struct {
	ChartData   []map[string]interface{} `json:"chartData"`
	ChartConfig *chart.Config            `json:"chartConfig"`
}

// Message is a single entry in a conversation. A message never carries both
// the single-chart fields and the Charts sequence: when multiple datasets
// produce charts, the sequence form wins and the single fields are cleared.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`

	ChartData   []map[string]interface{} `json:"chartData,omitempty"`
	ChartConfig *chart.Config            `json:"chartConfig,omitempty"`
	Charts      []MessageChart           `json:"charts,omitempty"`

	TableData  *TableData `json:"tableData,omitempty"`
	SQLQuery   string     `json:"sqlQuery,omitempty"`
	SQLQueries []string   `json:"sqlQueries,omitempty"`
	Datasets   []Dataset  `json:"datasets,omitempty"`

	IsError      bool   `json:"isError,omitempty"`
	ErrorType    string `json:"errorType,omitempty"`
	ErrorDetails string `json:"errorDetails,omitempty"`

	LoadingSummary       bool `json:"loadingSummary,omitempty"`
	LoadingVisualization bool `json:"loadingVisualization,omitempty"`

	CreatedAt int64 `json:"createdAt"`
}

// SetCharts stores the multi-chart sequence and clears the single-chart
// fields, keeping the exclusivity invariant.
func (m *Message) SetCharts(charts []MessageChart) {
	m.Charts = charts
	m.ChartData = nil
	m.ChartConfig = nil
}

// Conversation is one persisted chat thread.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt int64     `json:"createdAt"`
	UpdatedAt int64     `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// SqlHistoryEntry is one executed SQL statement. The log is append-only and
// survives message deletion.
type SqlHistoryEntry struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId"`
	Query          string `json:"query"`
	Timestamp      int64  `json:"timestamp"`
}

// ConversationService persists conversations, messages and the SQL history
// log. Saves are whole-list replacements: the client state is authoritative
// and no server-side merge logic is needed.
type ConversationService struct {
	db     *sql.DB
	logger func(string)
}

// NewConversationService creates a ConversationService on an initialized DB.
func NewConversationService(db *sql.DB, logger func(string)) *ConversationService {
	if logger == nil {
		logger = func(string) {}
	}
	return &ConversationService{db: db, logger: logger}
}

// CreateConversation inserts a new conversation row and returns it.
func (s *ConversationService) CreateConversation(title string) (Conversation, error) {
	if title == "" {
		title = "New Chat"
	}
	now := time.Now().UnixMilli()
	conv := Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
	_, err := s.db.Exec(
		"INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
		conv.ID, conv.Title, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// GetConversation loads a conversation and its messages. An unknown id is
// not an error: the caller gets a fresh, empty conversation carrying that id
// so the user can start chatting under it.
func (s *ConversationService) GetConversation(id string) (Conversation, error) {
	conv := Conversation{ID: id, Messages: []Message{}}

	row := s.db.QueryRow("SELECT title, created_at, updated_at FROM conversations WHERE id = ?", id)
	err := row.Scan(&conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return conv, nil
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}

	rows, err := s.db.Query(`
		SELECT id, role, content, reasoning, chart_data, chart_config, charts,
		       table_data, sql_query, sql_queries, datasets,
		       is_error, error_type, error_details, created_at
		FROM messages WHERE conversation_id = ? ORDER BY position`, id)
	if err != nil {
		return Conversation{}, fmt.Errorf("failed to load messages for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msg                                       Message
			reasoning, chartData, chartConfig, charts sql.NullString
			tableData, sqlQuery, sqlQueries, datasets sql.NullString
			errorType, errorDetails                   sql.NullString
			isError                                   int
		)
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &reasoning,
			&chartData, &chartConfig, &charts, &tableData, &sqlQuery,
			&sqlQueries, &datasets, &isError, &errorType, &errorDetails,
			&msg.CreatedAt); err != nil {
			return Conversation{}, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Reasoning = reasoning.String
		msg.SQLQuery = sqlQuery.String
		msg.IsError = isError != 0
		msg.ErrorType = errorType.String
		msg.ErrorDetails = errorDetails.String

		// Every chart/table-shaped column goes through the safe parser;
		// anything that is not the expected shape is dropped rather than
		// handed to the renderer.
		msg.ChartData = decodeChartRows(chartData.String)
		msg.ChartConfig = decodeChartConfig(chartConfig.String)
		msg.Charts = decodeCharts(charts.String)
		msg.TableData = decodeTableData(tableData.String)
		msg.SQLQueries = decodeStringList(sqlQueries.String)
		msg.Datasets = decodeDatasets(datasets.String)

		conv.Messages = append(conv.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return Conversation{}, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return conv, nil
}

// PutMessages replaces the stored message list for a conversation with the
// given one. The conversation row is created on demand so that locally
// started conversations (id minted before the first save) persist cleanly.
func (s *ConversationService) PutMessages(conversationID string, messages []Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	var exists int
	err = tx.QueryRow("SELECT COUNT(1) FROM conversations WHERE id = ?", conversationID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}
	if exists == 0 {
		title := "New Chat"
		for _, m := range messages {
			if m.Role == "user" && m.Content != "" {
				title = truncateTitle(m.Content)
				break
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
			conversationID, title, now, now,
		); err != nil {
			return fmt.Errorf("failed to create conversation row: %w", err)
		}
	} else {
		if _, err := tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", now, conversationID); err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages (id, conversation_id, position, role, content, reasoning,
			chart_data, chart_config, charts, table_data, sql_query, sql_queries, datasets,
			is_error, error_type, error_details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range messages {
		isError := 0
		if m.IsError {
			isError = 1
		}
		createdAt := m.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		if _, err := stmt.Exec(m.ID, conversationID, i, m.Role, m.Content, m.Reasoning,
			encodeJSON(m.ChartData), encodeJSON(m.ChartConfig), encodeJSON(m.Charts),
			encodeJSON(m.TableData), m.SQLQuery, encodeJSON(m.SQLQueries), encodeJSON(m.Datasets),
			isError, m.ErrorType, m.ErrorDetails, createdAt); err != nil {
			return fmt.Errorf("failed to insert message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save: %w", err)
	}
	return nil
}

// ListConversations returns all conversations newest-first, without their
// messages.
func (s *ConversationService) ListConversations() ([]Conversation, error) {
	rows, err := s.db.Query("SELECT id, title, created_at, updated_at FROM conversations ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConversation removes a conversation and its messages. The SQL
// history log is intentionally left in place.
func (s *ConversationService) DeleteConversation(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return tx.Commit()
}

// AppendSQLHistory records one executed SQL statement for the conversation.
func (s *ConversationService) AppendSQLHistory(conversationID, query string) (SqlHistoryEntry, error) {
	entry := SqlHistoryEntry{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Query:          query,
		Timestamp:      time.Now().UnixMilli(),
	}
	_, err := s.db.Exec(
		"INSERT INTO sql_history (id, conversation_id, query, created_at) VALUES (?, ?, ?, ?)",
		entry.ID, entry.ConversationID, entry.Query, entry.Timestamp,
	)
	if err != nil {
		return SqlHistoryEntry{}, fmt.Errorf("failed to append sql history: %w", err)
	}
	return entry, nil
}

// SQLHistory returns the executed-SQL log for a conversation, oldest first.
func (s *ConversationService) SQLHistory(conversationID string) ([]SqlHistoryEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, conversation_id, query, created_at FROM sql_history WHERE conversation_id = ? ORDER BY created_at",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load sql history: %w", err)
	}
	defer rows.Close()

	var out []SqlHistoryEntry
	for rows.Next() {
		var e SqlHistoryEntry
		if err := rows.Scan(&e.ID, &e.ConversationID, &e.Query, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan sql history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) > 60 {
		return string(runes[:60])
	}
	return content
}

// encodeJSON marshals v for a TEXT column; nil-ish values store as empty.
func encodeJSON(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case *TableData:
		if t == nil {
			return ""
		}
	case *chart.Config:
		if t == nil {
			return ""
		}
	case []map[string]interface{}:
		if len(t) == 0 {
			return ""
		}
	case []MessageChart:
		if len(t) == 0 {
			return ""
		}
	case []Dataset:
		if len(t) == 0 {
			return ""
		}
	case []string:
		if len(t) == 0 {
			return ""
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func decodeChartRows(value string) []map[string]interface{} {
	raw, ok := ParseJSONArray(value)
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func decodeChartConfig(value string) *chart.Config {
	raw, ok := ParseJSONObject(value)
	if !ok {
		return nil
	}
	var cfg chart.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil
	}
	return &cfg
}

func decodeCharts(value string) []MessageChart {
	raw, ok := ParseJSONArray(value)
	if !ok {
		return nil
	}
	var out []MessageChart
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func decodeTableData(value string) *TableData {
	raw, ok := ParseJSONObject(value)
	if !ok {
		return nil
	}
	var td TableData
	if err := json.Unmarshal([]byte(raw), &td); err != nil {
		return nil
	}
	return &td
}

func decodeStringList(value string) []string {
	raw, ok := ParseJSONArray(value)
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func decodeDatasets(value string) []Dataset {
	raw, ok := ParseJSONArray(value)
	if !ok {
		return nil
	}
	var out []Dataset
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
