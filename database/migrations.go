package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/vishwawinit/nfpc-1-sub001/dbpool"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// GetMigrations returns all database migrations in order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create conversations table",
			Up: `
				CREATE TABLE IF NOT EXISTS conversations (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					created_at INTEGER NOT NULL,
					updated_at INTEGER NOT NULL
				);
			`,
			Down: `
				DROP TABLE IF EXISTS conversations;
			`,
		},
		{
			Version:     2,
			Description: "Create messages table",
			Up: `
				CREATE TABLE IF NOT EXISTS messages (
					id TEXT PRIMARY KEY,
					conversation_id TEXT NOT NULL,
					position INTEGER NOT NULL,
					role TEXT NOT NULL,
					content TEXT NOT NULL,
					reasoning TEXT,
					chart_data TEXT,
					chart_config TEXT,
					charts TEXT,
					table_data TEXT,
					sql_query TEXT,
					sql_queries TEXT,
					datasets TEXT,
					is_error INTEGER NOT NULL DEFAULT 0,
					error_type TEXT,
					error_details TEXT,
					created_at INTEGER NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, position);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_messages_conversation;
				DROP TABLE IF EXISTS messages;
			`,
		},
		{
			Version:     3,
			Description: "Create sql_history table",
			Up: `
				CREATE TABLE IF NOT EXISTS sql_history (
					id TEXT PRIMARY KEY,
					conversation_id TEXT NOT NULL,
					query TEXT NOT NULL,
					created_at INTEGER NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_sql_history_conversation ON sql_history(conversation_id, created_at);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_sql_history_conversation;
				DROP TABLE IF EXISTS sql_history;
			`,
		},
	}
}

// InitDB opens the conversation database in dataDir and runs migrations.
// With the MySQL engine, dsn is used instead of a file path.
func InitDB(dataDir string, engine dbpool.Engine, dsn string, logger dbpool.Logger) (*sql.DB, error) {
	mgr := dbpool.New(engine, logger)

	var opts dbpool.OpenOptions
	if engine == dbpool.EngineMySQL {
		opts = dbpool.OpenOptions{Engine: dbpool.EngineMySQL, Path: dsn}
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		opts = dbpool.OpenOptions{Engine: dbpool.EngineSQLite, Path: filepath.Join(dataDir, "askdata.db")}
	}

	db, err := mgr.Open(opts)
	if err != nil {
		return nil, err
	}

	if err := createMigrationsTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		);
	`)
	return err
}

func runMigrations(db *sql.DB) error {
	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return err
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()

	for _, m := range GetMigrations() {
		if applied[m.Version] {
			continue
		}
		if _, err := db.Exec(m.Up); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().Unix(),
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}
