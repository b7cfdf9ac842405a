package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS checkpoints (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	version  INTEGER NOT NULL,
	data     BLOB NOT NULL,
	saved_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS checkpoints_name_saved_at ON checkpoints (name, saved_at DESC);`

// SQLiteStore persists snapshots in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path, creating the schema if needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO checkpoints (id, name, version, data, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		    name = excluded.name,
		    version = excluded.version,
		    data = excluded.data,
		    saved_at = excluded.saved_at`,
		snap.ID, snap.Name, snap.Version, []byte(snap.Data), snap.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveFailed, snap.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, version, data, saved_at FROM checkpoints WHERE id = ?`,
		id,
	)
	return scanSnapshot(row, id)
}

func (s *SQLiteStore) Latest(ctx context.Context, name string) (Snapshot, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, version, data, saved_at FROM checkpoints
		 WHERE name = ?
		 ORDER BY saved_at DESC
		 LIMIT 1`,
		name,
	)
	return scanSnapshot(row, "name "+name)
}

func scanSnapshot(row *sql.Row, key string) (Snapshot, error) {
	var snap Snapshot
	var data []byte
	var savedAt int64
	if err := row.Scan(&snap.ID, &snap.Name, &snap.Version, &data, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return Snapshot{}, fmt.Errorf("%w: %s: %v", ErrLoadFailed, key, err)
	}
	snap.Data = data
	snap.Timestamp = time.Unix(0, savedAt)
	return snap, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete failed: %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM checkpoints ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return ids, nil
}
