// Package snapshots persists dependency graph snapshots in SQLite so a
// later run can update incrementally instead of rebuilding.
package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	domainerrors "impactgraph/internal/core/errors"
	"impactgraph/internal/engine/graph"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultProjectKey  = "default"
	defaultBusyTimeout = 2 * time.Second
)

// Entry describes one stored snapshot without its payload.
type Entry struct {
	ProjectKey string    `json:"project_key"`
	SnapshotID string    `json:"snapshot_id"`
	Version    uint64    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	Files      int       `json:"files"`
	Edges      int       `json:"edges"`
	Bytes      int       `json:"bytes"`
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex

	enc *zstd.Encoder
	dec *zstd.Decoder
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("snapshot store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("snapshot store path %q is a directory, expected file", cleanPath)
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while watch mode saves.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite snapshot store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite snapshot store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{path: cleanPath, db: db, enc: enc, dec: dec}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	_ = s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Save stores snap under projectKey. Saving the same snapshot twice is a
// no-op.
func (s *Store) Save(ctx context.Context, projectKey string, snap *graph.Snapshot) error {
	if snap == nil {
		return domainerrors.New(domainerrors.CodeValidationError, "nil snapshot")
	}
	raw, err := json.Marshal(snap.Data())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload := s.enc.EncodeAll(raw, nil)
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO snapshots (project_key, snapshot_id, version, created_at_utc, file_count, edge_count, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, snapshot_id) DO NOTHING
`,
			normalizeKey(projectKey),
			snap.ID(),
			int64(snap.Version()),
			snap.CreatedAt().UTC().Format(time.RFC3339Nano),
			snap.Len(),
			snap.EdgeCount(),
			payload,
		)
		return err
	})
}

// LoadLatest returns the most recently saved snapshot of projectKey, or a
// NOT_FOUND error when there is none.
func (s *Store) LoadLatest(ctx context.Context, projectKey string) (*graph.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(projectKey)
	var payload []byte
	err := s.withRetry("load latest snapshot", func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT payload FROM snapshots WHERE project_key = ? ORDER BY id DESC LIMIT 1`, key,
		).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "no stored snapshot"), "project_key", key)
	}
	if err != nil {
		return nil, err
	}

	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var data graph.SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return graph.FromData(data), nil
}

// List returns the stored snapshots of projectKey, newest first.
func (s *Store) List(ctx context.Context, projectKey string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("list snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `
SELECT project_key, snapshot_id, version, created_at_utc, file_count, edge_count, LENGTH(payload)
FROM snapshots WHERE project_key = ? ORDER BY id DESC`, normalizeKey(projectKey))
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e       Entry
			version int64
			tsRaw   string
		)
		if err := rows.Scan(&e.ProjectKey, &e.SnapshotID, &version, &tsRaw, &e.Files, &e.Edges, &e.Bytes); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		e.Version = uint64(version)
		e.CreatedAt = ts.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return entries, nil
}

// Prune keeps the newest keep snapshots of projectKey and deletes the rest.
func (s *Store) Prune(ctx context.Context, projectKey string, keep int) (int64, error) {
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune snapshots", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM snapshots
WHERE project_key = ? AND id NOT IN (
  SELECT id FROM snapshots WHERE project_key = ? ORDER BY id DESC LIMIT ?
)`, normalizeKey(projectKey), normalizeKey(projectKey), keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultProjectKey
	}
	return key
}
