// Package patternstore persists pattern snapshots to DuckDB, keyed by
// CompositeKey.StorageKey(). The engine itself never reads from this
// store — it is a one-way sink fed by a periodic flush, matching spec.md
// §1's "storage is somebody else's problem."
package patternstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tinytelemetry/logmine"
)

const tokenSeparator = "\x1f"

// Store manages the DuckDB connection holding persisted pattern
// snapshots.
type Store struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewStore opens or creates a DuckDB database at dbPath. An empty dbPath
// opens an in-memory database, matching duckdb.NewStore's convention.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("patternstore: mkdir: %w", err)
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("patternstore: open: %w", err)
	}

	if err := bootstrap(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("patternstore: bootstrap: %w", err)
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	return &Store{db: db, queryTimeout: qt}, nil
}

// bootstrap creates the patterns table if it does not already exist. The
// teacher's internal/duckdb/migrate package applies versioned .sql
// migrations from an embedded directory; this store's schema is a single
// table with no evolution history yet, so it is created inline rather
// than standing up a migrations directory for one statement.
func bootstrap(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS patterns (
		storage_key   VARCHAR PRIMARY KEY,
		pattern_id    VARCHAR NOT NULL,
		signature     VARCHAR NOT NULL,
		source        VARCHAR NOT NULL,
		environment   VARCHAR NOT NULL,
		tokens        VARCHAR NOT NULL,
		support_count INTEGER NOT NULL,
		specificity   DOUBLE NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	)`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert writes or replaces the row for key, derived from pattern.
func (s *Store) Upsert(key logmine.CompositeKey, pattern *logmine.Pattern) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patterns (storage_key, pattern_id, signature, source, environment, tokens, support_count, specificity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (storage_key) DO UPDATE SET
			signature = excluded.signature,
			tokens = excluded.tokens,
			support_count = excluded.support_count,
			specificity = excluded.specificity,
			updated_at = excluded.updated_at
	`, key.StorageKey(), key.PatternID, pattern.Signature(), key.Source, key.Environment,
		tokensToText(pattern.Tokens()), pattern.SupportCount(), pattern.Specificity(), time.Now())
	if err != nil {
		return fmt.Errorf("patternstore: upsert %s: %w", key.StorageKey(), err)
	}
	return nil
}

// UpsertSnapshot writes every pattern in patterns, keyed by
// NewCompositeKey(pattern, source, environment), in a single transaction.
// The first per-row failure aborts the snapshot: the transaction is rolled
// back and the error is returned with the count of rows written before it,
// none of which are committed.
func (s *Store) UpsertSnapshot(patterns []*logmine.Pattern, source, environment string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("patternstore: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO patterns (storage_key, pattern_id, signature, source, environment, tokens, support_count, specificity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (storage_key) DO UPDATE SET
			signature = excluded.signature,
			tokens = excluded.tokens,
			support_count = excluded.support_count,
			specificity = excluded.specificity,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return 0, fmt.Errorf("patternstore: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	written := 0
	for _, p := range patterns {
		key := logmine.NewCompositeKey(p, source, environment)
		if _, err := stmt.ExecContext(ctx, key.StorageKey(), key.PatternID, p.Signature(), key.Source, key.Environment,
			tokensToText(p.Tokens()), p.SupportCount(), p.Specificity(), now); err != nil {
			return written, fmt.Errorf("patternstore: row %s: %w", key.StorageKey(), err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return written, fmt.Errorf("patternstore: commit: %w", err)
	}
	committed = true
	return written, nil
}

// PatternRow is a persisted snapshot row.
type PatternRow struct {
	StorageKey   string
	PatternID    string
	Signature    string
	Source       string
	Environment  string
	Tokens       []string
	SupportCount int
	Specificity  float64
	UpdatedAt    time.Time
}

// Get looks up a single row by storage key.
func (s *Store) Get(storageKey string) (PatternRow, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	var row PatternRow
	var tokens string
	err := s.db.QueryRowContext(ctx, `
		SELECT storage_key, pattern_id, signature, source, environment, tokens, support_count, specificity, updated_at
		FROM patterns WHERE storage_key = ?
	`, storageKey).Scan(&row.StorageKey, &row.PatternID, &row.Signature, &row.Source, &row.Environment,
		&tokens, &row.SupportCount, &row.Specificity, &row.UpdatedAt)
	if err == sql.ErrNoRows {
		return PatternRow{}, false, nil
	}
	if err != nil {
		return PatternRow{}, false, fmt.Errorf("patternstore: get %s: %w", storageKey, err)
	}
	row.Tokens = tokensFromText(tokens)
	return row, true, nil
}

// ListBySource returns every persisted row for the given source.
func (s *Store) ListBySource(source string) ([]PatternRow, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT storage_key, pattern_id, signature, source, environment, tokens, support_count, specificity, updated_at
		FROM patterns WHERE source = ? ORDER BY support_count DESC
	`, source)
	if err != nil {
		return nil, fmt.Errorf("patternstore: list by source %s: %w", source, err)
	}
	defer rows.Close()

	var out []PatternRow
	for rows.Next() {
		var row PatternRow
		var tokens string
		if err := rows.Scan(&row.StorageKey, &row.PatternID, &row.Signature, &row.Source, &row.Environment,
			&tokens, &row.SupportCount, &row.Specificity, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("patternstore: scan row: %w", err)
		}
		row.Tokens = tokensFromText(tokens)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count returns the total number of persisted rows.
func (s *Store) Count() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.queryTimeout)
	defer cancel()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patterns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("patternstore: count: %w", err)
	}
	return n, nil
}

func tokensToText(tokens []string) string {
	return strings.Join(tokens, tokenSeparator)
}

func tokensFromText(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, tokenSeparator)
}
