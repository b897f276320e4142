package runledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore keeps runs in the readme_runs table.
type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runledger schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS readme_runs (
  id TEXT PRIMARY KEY,
  repo TEXT NOT NULL DEFAULT '',
  branch TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  error_kind TEXT NOT NULL DEFAULT '',
  error_message TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL DEFAULT '',
  file_count INTEGER NOT NULL DEFAULT 0,
  selected INTEGER NOT NULL DEFAULT 0,
  fitted INTEGER NOT NULL DEFAULT 0,
  tokens INTEGER NOT NULL DEFAULT 0,
  started_at TIMESTAMP WITH TIME ZONE NOT NULL,
  finished_at TIMESTAMP WITH TIME ZONE
);
CREATE INDEX IF NOT EXISTS idx_readme_runs_started_at ON readme_runs (started_at DESC);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Put(ctx context.Context, run Run) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	run.ID = strings.TrimSpace(run.ID)
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO readme_runs (
  id, repo, branch, status, error_kind, error_message, title,
  file_count, selected, fitted, tokens, started_at, finished_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id)
DO UPDATE SET status=EXCLUDED.status,
  error_kind=EXCLUDED.error_kind,
  error_message=EXCLUDED.error_message,
  title=EXCLUDED.title,
  file_count=EXCLUDED.file_count,
  selected=EXCLUDED.selected,
  fitted=EXCLUDED.fitted,
  tokens=EXCLUDED.tokens,
  finished_at=EXCLUDED.finished_at`,
		run.ID, run.Repo, run.Branch, string(run.Status), run.ErrorKind, run.ErrorMessage, run.Title,
		run.FileCount, run.Selected, run.Fitted, run.Tokens, run.StartedAt, finished)
	return err
}

const selectRun = `SELECT id, repo, branch, status, error_kind, error_message, title,
  file_count, selected, fitted, tokens, started_at, finished_at
FROM readme_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r        Run
		status   string
		finished sql.NullTime
		started  time.Time
	)
	err := row.Scan(&r.ID, &r.Repo, &r.Branch, &status, &r.ErrorKind, &r.ErrorMessage, &r.Title,
		&r.FileCount, &r.Selected, &r.Fitted, &r.Tokens, &started, &finished)
	if err != nil {
		return Run{}, err
	}
	r.Status = Status(status)
	r.StartedAt = started.UTC()
	if finished.Valid {
		r.FinishedAt = finished.Time.UTC()
	}
	return r, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Run, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Run{}, err
	}
	r, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = $1`, strings.TrimSpace(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Run, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY started_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Run, 0, 32)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
