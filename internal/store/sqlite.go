// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides search-history persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS searches (
			id            TEXT PRIMARY KEY,
			search_type   TEXT NOT NULL,
			username      TEXT NOT NULL DEFAULT '',
			subreddit     TEXT NOT NULL DEFAULT '',
			keywords      TEXT NOT NULL DEFAULT '',
			period_days   INTEGER NOT NULL DEFAULT 0,
			limit_value   INTEGER NOT NULL DEFAULT 0,
			include_links INTEGER NOT NULL DEFAULT 1,
			results_json  TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL,

			CHECK (search_type IN ('user_details', 'user_top', 'subreddit_hot', 'subreddit_top'))
		);

		CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// CreateSearch records a completed search
func (s *SQLiteStore) CreateSearch(ctx context.Context, search *Search) error {
	if !reddit.Kind(search.SearchType).Valid() {
		return fmt.Errorf("unknown search type %q", search.SearchType)
	}
	if search.CreatedAt.IsZero() {
		search.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO searches (id, search_type, username, subreddit, keywords,
			period_days, limit_value, include_links, results_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		search.ID, search.SearchType, search.Username, search.Subreddit,
		search.Keywords, search.PeriodDays, search.LimitValue,
		boolToInt(search.IncludeLinks), search.ResultsJSON, search.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting search: %w", err)
	}

	s.logger.Debug("search recorded", "id", search.ID, "type", search.SearchType)
	return nil
}

// GetSearch retrieves a search by ID
func (s *SQLiteStore) GetSearch(ctx context.Context, id string) (*Search, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, search_type, username, subreddit, keywords,
			period_days, limit_value, include_links, results_json, created_at
		FROM searches WHERE id = ?`, id)

	search, err := scanSearch(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying search: %w", err)
	}
	return search, nil
}

// ListSearches returns the most recent searches, newest first
func (s *SQLiteStore) ListSearches(ctx context.Context, limit int) ([]*Search, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, search_type, username, subreddit, keywords,
			period_days, limit_value, include_links, results_json, created_at
		FROM searches ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var searches []*Search
	for rows.Next() {
		search, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		searches = append(searches, search)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating searches: %w", err)
	}
	return searches, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSearch(row rowScanner) (*Search, error) {
	var search Search
	var includeLinks int
	err := row.Scan(&search.ID, &search.SearchType, &search.Username,
		&search.Subreddit, &search.Keywords, &search.PeriodDays,
		&search.LimitValue, &includeLinks, &search.ResultsJSON,
		&search.CreatedAt)
	if err != nil {
		return nil, err
	}
	search.IncludeLinks = includeLinks != 0
	return &search, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
