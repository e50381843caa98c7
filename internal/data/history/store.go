package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
	defaultProjectKey  = "default"
)

var ErrRunNotFound = errors.New("history run not found")

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Open creates or opens the history database at path.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores a run, assigning an id and timestamp when missing. It returns the stored run.
func (s *Store) SaveRun(ctx context.Context, run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ProjectKey = projectKeyOrDefault(run.ProjectKey)
	if run.Kind == "" {
		run.Kind = KindScan
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now()
	}
	run.Timestamp = run.Timestamp.UTC()
	if run.FindingCount == 0 {
		run.FindingCount = len(run.Findings)
	}

	blob, err := encodeFindings(run.Findings)
	if err != nil {
		return Run{}, err
	}

	err = s.withRetry("save run", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, project_key, kind, ts_utc, php_version, file_count, finding_count, fixed_count, findings)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID.String(),
			run.ProjectKey,
			run.Kind,
			run.Timestamp.Format(time.RFC3339Nano),
			run.PHPVersion,
			run.FileCount,
			run.FindingCount,
			run.FixedCount,
			blob,
		)
		return err
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first, without their finding lists.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, projectKey string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT id, project_key, kind, ts_utc, php_version, file_count, finding_count, fixed_count
FROM runs WHERE project_key = ? ORDER BY ts_utc DESC, id ASC`
	args := []any{projectKeyOrDefault(projectKey)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("list runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			idRaw string
			tsRaw string
			run   Run
		)
		if err := rows.Scan(&idRaw, &run.ProjectKey, &run.Kind, &tsRaw, &run.PHPVersion, &run.FileCount, &run.FindingCount, &run.FixedCount); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if err := parseRunKeys(&run, idRaw, tsRaw); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// LoadRun returns one run including its decoded findings.
func (s *Store) LoadRun(ctx context.Context, id uuid.UUID) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		idRaw string
		tsRaw string
		blob  []byte
		run   Run
	)
	err := s.withRetry("load run", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT id, project_key, kind, ts_utc, php_version, file_count, finding_count, fixed_count, findings
FROM runs WHERE id = ?`, id.String()).
			Scan(&idRaw, &run.ProjectKey, &run.Kind, &tsRaw, &run.PHPVersion, &run.FileCount, &run.FindingCount, &run.FixedCount, &blob)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}
	if err := parseRunKeys(&run, idRaw, tsRaw); err != nil {
		return Run{}, err
	}
	if run.Findings, err = decodeFindings(blob); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Prune keeps the newest keep runs of a project and deletes the rest.
func (s *Store) Prune(ctx context.Context, projectKey string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	err := s.withRetry("prune runs", func() error {
		res, err := s.db.ExecContext(ctx, `
DELETE FROM runs WHERE project_key = ?1 AND id NOT IN (
  SELECT id FROM runs WHERE project_key = ?1 ORDER BY ts_utc DESC, id ASC LIMIT ?2
)`, projectKeyOrDefault(projectKey), keep)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return int(deleted), err
}

// Count returns the number of stored runs for a project.
func (s *Store) Count(ctx context.Context, projectKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.withRetry("count runs", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE project_key = ?`, projectKeyOrDefault(projectKey)).Scan(&n)
	})
	return n, err
}

func parseRunKeys(run *Run, idRaw, tsRaw string) error {
	id, err := uuid.Parse(idRaw)
	if err != nil {
		return fmt.Errorf("parse run id %q: %w", idRaw, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
	}
	run.ID = id
	run.Timestamp = ts.UTC()
	return nil
}

func projectKeyOrDefault(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultProjectKey
	}
	return key
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			return err
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

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
