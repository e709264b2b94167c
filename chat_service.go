package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vishwawinit/nfpc-1-sub001/agent"
	"github.com/vishwawinit/nfpc-1-sub001/chart"
	"github.com/vishwawinit/nfpc-1-sub001/database"
)

// AnswerService answers one natural-language question with text, SQL and
// data.
type AnswerService interface {
	Ask(ctx context.Context, question string, history []agent.PriorTurn) (*agent.AnswerResponse, error)
}

// SummaryService writes the natural-language summary for an answered
// question.
type SummaryService interface {
	Summarize(ctx context.Context, question, sqlQuery string, table *database.TableData, turns []agent.PriorTurn) (string, error)
}

// ChartPlanner builds chart payloads for query results.
type ChartPlanner interface {
	BuildSingle(ctx context.Context, question string, table *database.TableData) ([]map[string]interface{}, *chart.Config)
	BuildCharts(ctx context.Context, question string, datasets []database.Dataset) []database.MessageChart
}

// ConversationStore persists conversations and the SQL history log.
type ConversationStore interface {
	CreateConversation(title string) (database.Conversation, error)
	GetConversation(id string) (database.Conversation, error)
	PutMessages(conversationID string, messages []database.Message) error
	ListConversations() ([]database.Conversation, error)
	DeleteConversation(id string) error
	AppendSQLHistory(conversationID, query string) (database.SqlHistoryEntry, error)
	SQLHistory(conversationID string) ([]database.SqlHistoryEntry, error)
}

// summaryFallback fills the assistant text when summary generation fails but
// the rest of the turn succeeded.
const summaryFallback = "Summary could not be generated."

// ChatService drives one conversation turn at a time: it holds the message
// list, calls the answering backend, then fills in summary and charts. Only
// one turn may be in flight per service.
type ChatService struct {
	mu sync.Mutex

	store      ConversationStore
	answer     AnswerService
	summarizer SummaryService
	charts     ChartPlanner
	logFunc    func(string)

	conversationID string
	messages       []database.Message
	inFlight       bool
	cancelTurn     context.CancelFunc
}

// NewChatServiceOrchestrator creates a ChatService over its collaborators.
func NewChatServiceOrchestrator(store ConversationStore, answer AnswerService, summarizer SummaryService, charts ChartPlanner, logFunc func(string)) *ChatService {
	if logFunc == nil {
		logFunc = func(string) {}
	}
	return &ChatService{
		store:      store,
		answer:     answer,
		summarizer: summarizer,
		charts:     charts,
		logFunc:    logFunc,
	}
}

// NewConversation resets to a fresh, unsaved conversation. The id is minted
// on the first submitted turn.
func (s *ChatService) NewConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationID = ""
	s.messages = nil
}

// LoadConversation switches to a stored conversation. Unknown ids load as
// fresh empty conversations under that id.
func (s *ChatService) LoadConversation(id string) error {
	conv, err := s.store.GetConversation(id)
	if err != nil {
		return WrapError("chat", "LoadConversation", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return WrapError("chat", "LoadConversation", fmt.Errorf("a turn is in progress"))
	}
	s.conversationID = conv.ID
	s.messages = conv.Messages
	return nil
}

// Messages returns a snapshot of the current message list.
func (s *ChatService) Messages() []database.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ConversationID returns the current conversation id, empty before the first
// turn of a new conversation.
func (s *ChatService) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// SubmitTurn runs one full turn for the question: append the user message,
// ask the backend, then fill in summary and charts. It blocks until the turn
// settles. Failures land in the conversation as error messages rather than
// being returned; only misuse (empty question, concurrent turn) returns an
// error.
func (s *ChatService) SubmitTurn(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return WrapError("chat", "SubmitTurn", fmt.Errorf("empty question"))
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return WrapError("chat", "SubmitTurn", fmt.Errorf("a turn is already in progress"))
	}
	s.inFlight = true

	if s.conversationID == "" {
		conv, err := s.store.CreateConversation(titleFor(question))
		if err != nil {
			s.inFlight = false
			s.mu.Unlock()
			return WrapError("chat", "SubmitTurn", err)
		}
		s.conversationID = conv.ID
	}

	history := agent.PriorTurns(s.messages)
	s.messages = append(s.messages, database.Message{
		ID:      uuid.NewString(),
		Role:    "user",
		Content: question,
	})
	s.saveLocked()

	turnCtx, cancel := context.WithCancel(ctx)
	s.cancelTurn = cancel
	s.mu.Unlock()

	resp, err := s.answer.Ask(turnCtx, question, history)

	s.mu.Lock()
	s.cancelTurn = nil
	s.mu.Unlock()
	cancel()

	if err != nil {
		s.finishWithError(err)
		return nil
	}

	s.recordSQL(resp)
	s.completeTurn(question, history, resp)

	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
	return nil
}

// Stop cancels the in-flight backend call, if any. A stopped turn keeps the
// already-appended user message and adds no error message.
func (s *ChatService) Stop() {
	s.mu.Lock()
	cancel := s.cancelTurn
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// EditMessage rewrites an earlier user message: everything from that message
// on is discarded and the new text is submitted as a fresh turn.
func (s *ChatService) EditMessage(ctx context.Context, messageID, newContent string) error {
	newContent = strings.TrimSpace(newContent)
	if newContent == "" {
		return WrapError("chat", "EditMessage", fmt.Errorf("empty question"))
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return WrapError("chat", "EditMessage", fmt.Errorf("a turn is already in progress"))
	}
	idx := -1
	for i := range s.messages {
		if s.messages[i].ID == messageID && s.messages[i].Role == "user" {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return WrapError("chat", "EditMessage", fmt.Errorf("user message %s not found", messageID))
	}
	s.messages = s.messages[:idx]
	s.saveLocked()
	s.mu.Unlock()

	return s.SubmitTurn(ctx, newContent)
}

// finishWithError settles a failed turn. Cancellation is silent; real
// failures append a classified error message.
func (s *ChatService) finishWithError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if isCancellation(err) {
		s.logFunc("[ChatService] turn stopped by user")
		return
	}

	kind, details := classifyError(err)
	s.logFunc(fmt.Sprintf("[ChatService] turn failed (%s): %v", kind, err))

	// prefer the backend's own error text when it sent one
	content := errorText(kind)
	var reqErr *agent.RequestError
	if errors.As(err, &reqErr) && strings.TrimSpace(reqErr.Message) != "" {
		content = reqErr.Message
	}

	s.messages = append(s.messages, database.Message{
		ID:           uuid.NewString(),
		Role:         "assistant",
		Content:      content,
		IsError:      true,
		ErrorType:    kind,
		ErrorDetails: details,
	})
	s.saveLocked()
}

// completeTurn turns a successful backend answer into the final assistant
// message. Progressive answers first append a loading placeholder, run
// summary and chart planning concurrently, then update the stored message
// exactly once with both results.
func (s *ChatService) completeTurn(question string, history []agent.PriorTurn, resp *agent.AnswerResponse) {
	msg := database.Message{
		ID:         uuid.NewString(),
		Role:       "assistant",
		Content:    resp.Text,
		Reasoning:  resp.Reasoning,
		SQLQuery:   resp.SQLQuery,
		TableData:  resp.QueryData,
		Datasets:   resp.Datasets,
		SQLQueries: datasetQueries(resp),
	}

	if !resp.Progressive || !resp.HasData() {
		s.fillSequential(&msg, question, history, resp)
		s.mu.Lock()
		s.messages = append(s.messages, msg)
		s.saveLocked()
		s.mu.Unlock()
		return
	}

	msg.LoadingSummary = true
	msg.LoadingVisualization = true
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.saveLocked()
	s.mu.Unlock()

	// Summary and charts run concurrently; the message is updated once,
	// after both finish. Stopping the turn no longer applies here, so the
	// work runs on a detached context.
	bgCtx := context.Background()
	var (
		wg      sync.WaitGroup
		summary string
		sumErr  error
		single  []map[string]interface{}
		cfg     *chart.Config
		charts  []database.MessageChart
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, sumErr = s.summarizer.Summarize(bgCtx, question, resp.SQLQuery, resp.QueryData, history)
	}()
	go func() {
		defer wg.Done()
		if resp.MultipleQueries && len(resp.Datasets) > 0 {
			charts = s.charts.BuildCharts(bgCtx, question, resp.Datasets)
		} else {
			single, cfg = s.charts.BuildSingle(bgCtx, question, resp.QueryData)
		}
	}()
	wg.Wait()

	if sumErr != nil {
		s.logFunc(fmt.Sprintf("[ChatService] summary failed: %v", sumErr))
		summary = summaryFallback
	}
	if strings.TrimSpace(summary) == "" {
		summary = resp.Text
		if summary == "" {
			summary = summaryFallback
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID != msg.ID {
			continue
		}
		s.messages[i].Content = summary
		s.messages[i].LoadingSummary = false
		s.messages[i].LoadingVisualization = false
		if len(charts) > 0 {
			s.messages[i].SetCharts(charts)
		} else {
			s.messages[i].ChartData = single
			s.messages[i].ChartConfig = cfg
		}
		break
	}
	s.saveLocked()
}

// fillSequential completes a non-progressive answer in order: summary first
// when the backend sent no text, then charts.
func (s *ChatService) fillSequential(msg *database.Message, question string, history []agent.PriorTurn, resp *agent.AnswerResponse) {
	ctx := context.Background()

	if msg.Content == "" && resp.HasData() {
		summary, err := s.summarizer.Summarize(ctx, question, resp.SQLQuery, resp.QueryData, history)
		if err != nil {
			s.logFunc(fmt.Sprintf("[ChatService] summary failed: %v", err))
			summary = summaryFallback
		}
		msg.Content = summary
	}

	if !resp.HasData() {
		return
	}
	if resp.MultipleQueries && len(resp.Datasets) > 0 {
		if charts := s.charts.BuildCharts(ctx, question, resp.Datasets); len(charts) > 0 {
			msg.SetCharts(charts)
		}
		return
	}
	msg.ChartData, msg.ChartConfig = s.charts.BuildSingle(ctx, question, resp.QueryData)
}

// recordSQL appends every executed statement of the answer to the history
// log. Logging failures never fail the turn.
func (s *ChatService) recordSQL(resp *agent.AnswerResponse) {
	s.mu.Lock()
	convID := s.conversationID
	s.mu.Unlock()

	for _, query := range answerQueries(resp) {
		if _, err := s.store.AppendSQLHistory(convID, query); err != nil {
			s.logFunc(fmt.Sprintf("[ChatService] failed to record sql history: %v", err))
		}
	}
}

// SQLHistory returns the executed-SQL log for the current conversation.
func (s *ChatService) SQLHistory() ([]database.SqlHistoryEntry, error) {
	s.mu.Lock()
	convID := s.conversationID
	s.mu.Unlock()
	if convID == "" {
		return nil, nil
	}
	entries, err := s.store.SQLHistory(convID)
	if err != nil {
		return nil, WrapError("chat", "SQLHistory", err)
	}
	return entries, nil
}

// saveLocked persists the whole message list. Callers hold the lock. Save
// failures are logged, not surfaced: the in-memory state stays authoritative
// and the next save retries the full list anyway.
func (s *ChatService) saveLocked() {
	if s.conversationID == "" {
		return
	}
	if err := s.store.PutMessages(s.conversationID, s.messages); err != nil {
		s.logFunc(fmt.Sprintf("[ChatService] autosave failed: %v", err))
	}
}

func answerQueries(resp *agent.AnswerResponse) []string {
	var queries []string
	if resp.SQLQuery != "" {
		queries = append(queries, resp.SQLQuery)
	}
	for _, ds := range resp.Datasets {
		if ds.SQLQuery != "" && ds.SQLQuery != resp.SQLQuery {
			queries = append(queries, ds.SQLQuery)
		}
	}
	return queries
}

func datasetQueries(resp *agent.AnswerResponse) []string {
	if !resp.MultipleQueries {
		return nil
	}
	var queries []string
	for _, ds := range resp.Datasets {
		if ds.SQLQuery != "" {
			queries = append(queries, ds.SQLQuery)
		}
	}
	return queries
}

func titleFor(question string) string {
	runes := []rune(question)
	if len(runes) > 60 {
		return string(runes[:60])
	}
	return question
}

func errorText(kind string) string {
	switch kind {
	case ErrKindRateLimit:
		return "The service is receiving too many requests right now. Please wait a moment and try again."
	case ErrKindContextLimit:
		return "This conversation has grown too long for the model. Start a new conversation and ask again."
	case ErrKindSQL:
		return "The generated query failed against the database. Try rephrasing the question."
	case ErrKindAPI:
		return "The answering service returned an error. Please try again."
	default:
		return "Something went wrong while answering. Please try again."
	}
}
