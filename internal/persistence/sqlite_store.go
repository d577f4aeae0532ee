package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/MimeLyc/videotools/internal/jobs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore keeps job history in a single sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ jobs.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) LoadJobs(ctx context.Context) ([]*jobs.Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, kind, source, dedupe_key, payload_json, status, progress, status_text, error, result_json, created_at, updated_at
		 FROM jobs
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*jobs.Job, 0)
	for rows.Next() {
		var item jobs.Job
		var kind, status, payload, result string
		if err := rows.Scan(
			&item.ID,
			&kind,
			&item.Source,
			&item.DedupeKey,
			&payload,
			&status,
			&item.Progress,
			&item.StatusText,
			&item.Error,
			&result,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.Kind = jobs.Kind(kind)
		item.Status = jobs.Status(status)
		item.Payload = rawOrNil(payload)
		item.Result = rawOrNil(result)
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) DeleteJob(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, jobID)
	return err
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job *jobs.Job) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, kind, source, dedupe_key, payload_json, status, progress, status_text, error, result_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind=excluded.kind,
			source=excluded.source,
			dedupe_key=excluded.dedupe_key,
			payload_json=excluded.payload_json,
			status=excluded.status,
			progress=excluded.progress,
			status_text=excluded.status_text,
			error=excluded.error,
			result_json=excluded.result_json,
			updated_at=excluded.updated_at`,
		job.ID,
		string(job.Kind),
		job.Source,
		job.DedupeKey,
		string(job.Payload),
		string(job.Status),
		job.Progress,
		job.StatusText,
		job.Error,
		string(job.Result),
		job.CreatedAt,
		job.UpdatedAt,
	)
	return err
}

func rawOrNil(v string) []byte {
	if v == "" {
		return nil
	}
	return []byte(v)
}
