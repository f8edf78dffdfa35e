package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/mina/internal/cascade"
	"github.com/nvandessel/mina/internal/sanitize"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteModelStore implements ModelStore on a SQLite database at
// <dir>/models.db.
type SQLiteModelStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

var _ ModelStore = (*SQLiteModelStore)(nil)

// NewSQLiteModelStore opens (creating if needed) the catalog in dir, which
// is a .mina directory.
func NewSQLiteModelStore(dir string) (*SQLiteModelStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteModelStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteModelStore) Path() string {
	return s.dbPath
}

// Save implements ModelStore.
func (s *SQLiteModelStore) Save(ctx context.Context, name, source string, m *cascade.Model) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("cannot save nil model %q", name)
	}
	source = sanitize.Label(source)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO models (name, source, root, increments, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			source = excluded.source,
			root = excluded.root,
			increments = excluded.increments,
			updated_at = excluded.updated_at`,
		name, nullString(source), m.Root(), m.Increments(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_levels WHERE model_name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear levels of %s: %w", name, err)
	}

	for i, l := range m.Levels() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO model_levels (model_name, level, alpha, beta, mean, variance, pairs, fixed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			name, i+1, l.Alpha, l.Beta, l.Mean, l.Variance, l.Pairs, boolToInt(l.Fixed))
		if err != nil {
			return fmt.Errorf("failed to save level %d of %s: %w", i+1, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit model %s: %w", name, err)
	}
	return nil
}

// Load implements ModelStore.
func (s *SQLiteModelStore) Load(ctx context.Context, name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		source           sql.NullString
		root             float64
		increments       int
		created, updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT source, root, increments, created_at, updated_at
		FROM models WHERE name = ?`, name).
		Scan(&source, &root, &increments, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", name, err)
	}

	levels, err := s.loadLevels(ctx, name)
	if err != nil {
		return nil, err
	}

	m, err := cascade.NewModel(root, increments, levels)
	if err != nil {
		return nil, fmt.Errorf("stored model %s is invalid: %w", name, err)
	}

	entry := newEntry(name, source.String, m, parseTime(created), parseTime(updated))
	return &entry, nil
}

func (s *SQLiteModelStore) loadLevels(ctx context.Context, name string) ([]cascade.Level, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT alpha, beta, mean, variance, pairs, fixed
		FROM model_levels WHERE model_name = ? ORDER BY level`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query levels of %s: %w", name, err)
	}
	defer rows.Close()

	var levels []cascade.Level
	for rows.Next() {
		var (
			l     cascade.Level
			fixed int
		)
		if err := rows.Scan(&l.Alpha, &l.Beta, &l.Mean, &l.Variance, &l.Pairs, &fixed); err != nil {
			return nil, fmt.Errorf("failed to scan level of %s: %w", name, err)
		}
		l.Fixed = fixed != 0
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

// List implements ModelStore.
func (s *SQLiteModelStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.name, m.source, m.root, m.increments, m.created_at, m.updated_at,
			(SELECT COUNT(*) FROM model_levels l WHERE l.model_name = m.name)
		FROM models m ORDER BY m.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                Entry
			source           sql.NullString
			created, updated string
		)
		if err := rows.Scan(&e.Name, &source, &e.Root, &e.Increments, &created, &updated, &e.Levels); err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		e.Source = source.String
		e.CreatedAt = parseTime(created)
		e.UpdatedAt = parseTime(updated)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete implements ModelStore.
func (s *SQLiteModelStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteModelStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
