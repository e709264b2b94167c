package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/vishwawinit/nfpc-1-sub001/agent"
	"github.com/vishwawinit/nfpc-1-sub001/config"
	"github.com/vishwawinit/nfpc-1-sub001/database"
	"github.com/vishwawinit/nfpc-1-sub001/dbpool"
	"github.com/vishwawinit/nfpc-1-sub001/logger"
)

// App wires configuration, storage and the chat services together and is
// the single entry point the CLI talks to.
type App struct {
	cfg       config.Config
	logger    *logger.Logger
	configSvc *ConfigService
	db        *sql.DB
	store     *database.ConversationService
	chat      *ChatService
}

// NewApp creates the application shell. Services come up in Startup.
func NewApp() *App {
	return &App{
		logger:    logger.NewLogger(),
		configSvc: NewConfigService(nil),
	}
}

// Startup loads configuration and brings up storage and the chat pipeline.
func (a *App) Startup(ctx context.Context) error {
	cfg, err := a.configSvc.GetConfig()
	if err != nil {
		return WrapError("app", "Startup", err)
	}
	a.cfg = cfg

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return WrapError("app", "Startup", fmt.Errorf("failed to create data dir: %w", err))
	}
	if cfg.DetailedLog {
		if err := a.logger.Init(cfg.DataDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: file logging disabled: %v\n", err)
		}
	}
	log := a.logger.Log

	engine := dbpool.EngineSQLite
	dsn := ""
	if cfg.StorageEngine == "mysql" {
		engine = dbpool.EngineMySQL
		dsn = cfg.MySQLDSN
	}
	db, err := database.InitDB(cfg.DataDir, engine, dsn, log)
	if err != nil {
		return WrapError("app", "Startup", err)
	}
	a.db = db
	a.store = database.NewConversationService(db, log)

	chatModel, err := agent.NewChatModel(ctx, cfg)
	if err != nil {
		return WrapError("app", "Startup", err)
	}

	answer := agent.NewAnswerClient(cfg.AnswerServiceURL, log)
	summarizer := agent.NewSummarizer(chatModel, log)
	visualizer := agent.NewVisualizer(chatModel, log)
	builder := NewChartBuilder(visualizer, log)

	a.chat = NewChatServiceOrchestrator(a.store, answer, summarizer, builder, log)
	log("App started")
	return nil
}

// Shutdown closes storage and the log file.
func (a *App) Shutdown() {
	if a.db != nil {
		a.db.Close()
	}
	a.logger.Close()
}

// SubmitTurn runs one conversation turn for the question.
func (a *App) SubmitTurn(ctx context.Context, question string) error {
	return a.chat.SubmitTurn(ctx, question)
}

// EditMessage rewrites an earlier user message and resubmits it.
func (a *App) EditMessage(ctx context.Context, messageID, newContent string) error {
	return a.chat.EditMessage(ctx, messageID, newContent)
}

// Stop cancels the in-flight turn, if any.
func (a *App) Stop() {
	a.chat.Stop()
}

// LoadConversation switches to a stored conversation.
func (a *App) LoadConversation(id string) error {
	return a.chat.LoadConversation(id)
}

// NewConversation resets to a fresh conversation.
func (a *App) NewConversation() {
	a.chat.NewConversation()
}

// Messages returns a snapshot of the current message list.
func (a *App) Messages() []database.Message {
	return a.chat.Messages()
}

// SQLHistory returns the executed-SQL log for the current conversation.
func (a *App) SQLHistory() ([]database.SqlHistoryEntry, error) {
	return a.chat.SQLHistory()
}

// Store returns the conversation store.
func (a *App) Store() *database.ConversationService {
	return a.store
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}
