package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of the article store. Both dialects share
// one logical schema.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

// Open connects to the store. SQLite is limited to a single connection so
// that in-memory databases stay shared across calls.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "postgres"
	case DialectSQLite:
		driver = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return db, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS news_items (
    id            SERIAL PRIMARY KEY,
    title         TEXT NOT NULL,
    url           TEXT,
    clean_content TEXT,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    isprocessed   INTEGER NOT NULL DEFAULT 0 CHECK (isprocessed IN (0, 1, 2)),
    process_data  JSONB
);
CREATE INDEX IF NOT EXISTS idx_news_items_pending ON news_items (isprocessed, created_at);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS news_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    title         TEXT NOT NULL,
    url           TEXT,
    clean_content TEXT,
    created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    isprocessed   INTEGER NOT NULL DEFAULT 0 CHECK (isprocessed IN (0, 1, 2)),
    process_data  TEXT
);
CREATE INDEX IF NOT EXISTS idx_news_items_pending ON news_items (isprocessed, created_at);
`

// Migrate creates the news_items table when it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if r.dialect == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s: %w", r.dialect, err)
	}
	return nil
}
