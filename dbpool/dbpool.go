// Package dbpool provides a small connection manager for the conversation
// store. It abstracts the two supported engines (embedded SQLite for the
// default single-user setup, MySQL for shared server deployments) and
// handles retry/backoff for file-lock contention plus connection pool
// settings, so callers never call sql.Open directly.
package dbpool

import (
	"database/sql"
	"fmt"
	"time"
)

// Engine identifies the database engine backing the store.
type Engine string

const (
	EngineSQLite Engine = "sqlite"
	EngineMySQL  Engine = "mysql"
)

// AccessMode controls whether the connection is read-only or read-write.
type AccessMode int

const (
	ModeReadWrite AccessMode = iota
	ModeReadOnly
)

// OpenOptions configures how a connection is opened.
type OpenOptions struct {
	// Engine to use. Defaults to the manager's default engine if empty.
	Engine Engine
	// Path is the file path for SQLite. For MySQL it is the DSN string.
	Path string
	// Mode controls read-only vs read-write access (SQLite only).
	Mode AccessMode
	// MaxRetries overrides the default retry count (0 = use default).
	MaxRetries int
	// RetryBaseMs overrides the base retry interval in milliseconds.
	RetryBaseMs int
}

// Logger is a simple logging function signature.
type Logger func(string)

// Manager is the central connection manager.
type Manager struct {
	logger Logger
	engine Engine
}

// New creates a Manager with the given default engine and logger.
func New(defaultEngine Engine, logger Logger) *Manager {
	if logger == nil {
		logger = func(string) {}
	}
	return &Manager{engine: defaultEngine, logger: logger}
}

// DefaultEngine returns the manager's default engine.
func (m *Manager) DefaultEngine() Engine {
	return m.engine
}

// Open opens a database connection with the given options, retrying
// transient failures with linear backoff.
func (m *Manager) Open(opts OpenOptions) (*sql.DB, error) {
	eng := opts.Engine
	if eng == "" {
		eng = m.engine
	}

	switch eng {
	case EngineSQLite:
		return m.openSQLite(opts)
	case EngineMySQL:
		return m.openMySQL(opts)
	default:
		return nil, fmt.Errorf("dbpool: unsupported engine %q", eng)
	}
}

// openSQLite opens a SQLite database via the modernc driver. WAL mode keeps
// reads available while an autosave is writing; SQLITE_BUSY still needs the
// retry loop on Windows.
func (m *Manager) openSQLite(opts OpenOptions) (*sql.DB, error) {
	maxRetries, baseMs := retryParams(opts)

	connStr := opts.Path + "?_journal_mode=WAL&_busy_timeout=5000"
	if opts.Mode == ModeReadOnly {
		connStr += "&mode=ro"
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := sql.Open("sqlite", connStr)
		if err == nil {
			configurePool(db)
			err = db.Ping()
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			lastErr = err
			m.logger(fmt.Sprintf("[dbpool] SQLite open attempt %d/%d failed: %v", i+1, maxRetries, err))
			if maxRetries > 1 {
				time.Sleep(time.Duration(baseMs*(i+1)) * time.Millisecond)
			}
			continue
		}
		return db, nil
	}

	return nil, fmt.Errorf("dbpool: failed to open SQLite %q after %d retries: %w", opts.Path, maxRetries, lastErr)
}

// openMySQL opens a MySQL connection with retry. Path carries the DSN.
func (m *Manager) openMySQL(opts OpenOptions) (*sql.DB, error) {
	maxRetries, baseMs := retryParams(opts)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		db, err := sql.Open("mysql", opts.Path)
		if err == nil {
			err = db.Ping()
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			lastErr = err
			m.logger(fmt.Sprintf("[dbpool] MySQL attempt %d/%d failed: %v", i+1, maxRetries, err))
			if maxRetries > 1 {
				time.Sleep(time.Duration(baseMs*(i+1)) * time.Millisecond)
			}
			continue
		}
		return db, nil
	}

	return nil, fmt.Errorf("dbpool: failed to open MySQL after %d retries: %w", maxRetries, lastErr)
}

// configurePool keeps the pool small so SQLite file locks are released
// promptly on Close. MySQL tolerates the same settings at this scale.
func configurePool(db *sql.DB) {
	db.SetMaxIdleConns(0)
	db.SetMaxOpenConns(1)
}

// retryParams returns (maxRetries, baseMs) from opts or defaults.
func retryParams(opts OpenOptions) (int, int) {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 8
	}
	baseMs := opts.RetryBaseMs
	if baseMs <= 0 {
		baseMs = 400
	}
	return maxRetries, baseMs
}
