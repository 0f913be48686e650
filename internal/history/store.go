package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mover/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Kind identifies what a history entry records.
type Kind string

const (
	KindSubmission Kind = "submission"
	KindPlacement  Kind = "placement"
)

// Status is the outcome of a recorded operation.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Entry is one ledger row.
type Entry struct {
	ID          string
	Kind        Kind
	Subject     string
	Destination string
	Status      Status
	Detail      string
	CreatedAt   time.Time
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database in the state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d; remove %s to reset history",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// RecordSubmission stores the outcome of submitting link to the torrent engine.
func (s *Store) RecordSubmission(ctx context.Context, link string, submitErr error) error {
	_, err := s.insert(ctx, KindSubmission, link, "", submitErr)
	return err
}

// RecordPlacement stores the outcome of relocating source to destination.
func (s *Store) RecordPlacement(ctx context.Context, source, destination string, placeErr error) error {
	_, err := s.insert(ctx, KindPlacement, source, destination, placeErr)
	return err
}

func (s *Store) insert(ctx context.Context, kind Kind, subject, destination string, opErr error) (Entry, error) {
	entry := Entry{
		ID:          uuid.NewString(),
		Kind:        kind,
		Subject:     subject,
		Destination: destination,
		Status:      StatusOK,
		CreatedAt:   time.Now().UTC(),
	}
	if opErr != nil {
		entry.Status = StatusFailed
		entry.Detail = strings.TrimSpace(opErr.Error())
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO history (id, kind, subject, destination, status, detail, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.Kind),
		entry.Subject,
		nullableString(entry.Destination),
		string(entry.Status),
		nullableString(entry.Detail),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert %s history: %w", kind, err)
	}
	return entry, nil
}

// ListOptions filters List results.
type ListOptions struct {
	Kind  Kind
	Limit int
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := "SELECT id, kind, subject, destination, status, detail, created_at FROM history"
	var args []any
	if opts.Kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(opts.Kind))
	}
	query += " ORDER BY rowid DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry       Entry
			kind        string
			status      string
			destination sql.NullString
			detail      sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&entry.ID, &kind, &entry.Subject, &destination, &status, &detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entry.Kind = Kind(kind)
		entry.Status = Status(status)
		entry.Destination = destination.String
		entry.Detail = detail.String
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
