package journal

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a SQLite database.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore creates a store for the database at path. Use ":memory:"
// for a throwaway database.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init implements Store. It opens the database and creates the table.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("journal: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			activation_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			command TEXT NOT NULL,
			resources TEXT NOT NULL,
			cycle INTEGER NOT NULL,
			is_default INTEGER NOT NULL,
			at_unix_nano INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS activations_by_id ON activations (activation_id);
	`)
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

// Append implements Store. The entries are written in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO activations (activation_id, kind, command, resources, cycle, is_default, at_unix_nano)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.ExecContext(ctx, e.ActivationID, e.Kind, e.Command,
			strings.Join(e.Resources, ","), int64(e.Cycle), e.Default, e.Time.UnixNano())
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

const selectColumns = `activation_id, kind, command, resources, cycle, is_default, at_unix_nano`

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT `+selectColumns+` FROM (
			SELECT seq, `+selectColumns+` FROM activations ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC
	`, n)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Activation implements Store.
func (s *SQLiteStore) Activation(ctx context.Context, id string) ([]Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM activations WHERE activation_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			resources string
			cycle     int64
			at        int64
		)
		if err := rows.Scan(&e.ActivationID, &e.Kind, &e.Command, &resources, &cycle, &e.Default, &at); err != nil {
			return nil, err
		}
		if resources != "" {
			e.Resources = strings.Split(resources, ",")
		}
		e.Cycle = uint64(cycle)
		e.Time = time.Unix(0, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
