// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultLimit bounds list queries that pass a non-positive limit.
const DefaultLimit = 20

// Backup is a configuration file written to disk.
type Backup struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Change is one configuration operation applied to a device.
type Change struct {
	ID        string    `json:"id"`
	Device    string    `json:"device"`
	Operation string    `json:"operation"`
	Commands  []string  `json:"commands"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is the SQLite-backed history. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the history database at path and migrates it.
//
// Parameters:
//   - path: Database file; its directory is created when missing
//
// Returns:
//   - *Store: Ready for use; the caller closes it
//   - error: If the directory, database, or schema cannot be set up
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS backups (
		id TEXT PRIMARY KEY,
		device TEXT NOT NULL,
		path TEXT NOT NULL,
		size INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS changes (
		id TEXT PRIMARY KEY,
		device TEXT NOT NULL,
		operation TEXT NOT NULL,
		commands TEXT NOT NULL,
		success INTEGER NOT NULL,
		message TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_backups_device ON backups(device, created_at);
	CREATE INDEX IF NOT EXISTS idx_changes_device ON changes(device, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBackup stores b. Empty ID and CreatedAt are filled in.
func (s *Store) RecordBackup(ctx context.Context, b Backup) (Backup, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (id, device, path, size, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Device, b.Path, b.Size, b.CreatedAt,
	)
	if err != nil {
		return Backup{}, fmt.Errorf("insert backup: %w", err)
	}
	return b, nil
}

// RecordChange stores c. Empty ID and CreatedAt are filled in.
func (s *Store) RecordChange(ctx context.Context, c Change) (Change, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.Commands == nil {
		c.Commands = []string{}
	}

	commands, err := json.Marshal(c.Commands)
	if err != nil {
		return Change{}, fmt.Errorf("encode commands: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO changes (id, device, operation, commands, success, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Device, c.Operation, string(commands), c.Success, c.Message, c.CreatedAt,
	)
	if err != nil {
		return Change{}, fmt.Errorf("insert change: %w", err)
	}
	return c, nil
}

// Backups returns the newest backups first, for one device or, when device
// is empty, for all of them.
func (s *Store) Backups(ctx context.Context, device string, limit int) ([]Backup, error) {
	query := `SELECT id, device, path, size, created_at FROM backups`
	rows, err := s.list(ctx, query, device, limit)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	var out []Backup
	for rows.Next() {
		var b Backup
		if err := rows.Scan(&b.ID, &b.Device, &b.Path, &b.Size, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Changes returns the newest changes first, for one device or, when device
// is empty, for all of them.
func (s *Store) Changes(ctx context.Context, device string, limit int) ([]Change, error) {
	query := `SELECT id, device, operation, commands, success, message, created_at FROM changes`
	rows, err := s.list(ctx, query, device, limit)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c        Change
			commands string
			message  sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Device, &c.Operation, &commands, &c.Success, &message, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if err := json.Unmarshal([]byte(commands), &c.Commands); err != nil {
			return nil, fmt.Errorf("decode commands of change %s: %w", c.ID, err)
		}
		c.Message = message.String
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) list(ctx context.Context, query, device string, limit int) (*sql.Rows, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	var args []any
	if device != "" {
		query += ` WHERE device = ?`
		args = append(args, device)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	return s.db.QueryContext(ctx, query, args...)
}
