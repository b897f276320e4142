package runledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"readmegen/internal/readme"
)

// ErrNotFound is returned by Get for unknown run ids.
var ErrNotFound = errors.New("run not found")

// Status of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is the metadata kept per pipeline run. README text is never stored.
type Run struct {
	ID           string    `json:"id"`
	Repo         string    `json:"repo"`
	Branch       string    `json:"branch,omitempty"`
	Status       Status    `json:"status"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Title        string    `json:"title,omitempty"`
	FileCount    int       `json:"file_count"`
	Selected     int       `json:"selected"`
	Fitted       int       `json:"fitted"`
	Tokens       int       `json:"tokens"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`
}

// Store persists runs.
type Store interface {
	// Put inserts or replaces the run with the same id.
	Put(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	// List returns up to limit runs, most recently started first.
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// Begin returns a running record for a new run.
func Begin(id, repo, branch string) Run {
	return Run{
		ID:        strings.TrimSpace(id),
		Repo:      strings.TrimSpace(repo),
		Branch:    strings.TrimSpace(branch),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Complete fills in the outcome of a pipeline run.
func (r Run) Complete(res readme.Result, err error) Run {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Status = StatusFailed
		r.ErrorKind = string(readme.KindOf(err))
		r.ErrorMessage = err.Error()
		return r
	}
	r.Status = StatusSucceeded
	r.Title = res.Title
	r.FileCount = res.FileCount
	r.Selected = len(res.Selected)
	r.Fitted = len(res.Fitted)
	r.Tokens = res.Tokens
	return r
}

// New opens a Postgres-backed store when dsn is set, otherwise an in-memory one.
func New(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		s, err := NewMemoryStore(0)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := NewPostgresStore(dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
