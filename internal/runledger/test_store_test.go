package runledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"readmegen/internal/readme"
	"readmegen/internal/tester"
)

func TestMemoryStorePutGetList(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStore(2)
	tester.NoErr(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := Begin(id, "owner/repo", "main")
		run.StartedAt = base.Add(time.Duration(i) * time.Minute)
		tester.NoErr(t, s.Put(ctx, run))
	}

	_, err = s.Get(ctx, "a")
	tester.True(t, errors.Is(err, ErrNotFound), "oldest run should be evicted")

	got, err := s.List(ctx, 10)
	tester.NoErr(t, err)
	tester.Len(t, got, 2)
	tester.Eq(t, got[0].ID, "c")
	tester.Eq(t, got[1].ID, "b")

	got, err = s.List(ctx, 1)
	tester.NoErr(t, err)
	tester.Len(t, got, 1)
}

func TestMemoryStoreRequiresID(t *testing.T) {
	s, err := NewMemoryStore(0)
	tester.NoErr(t, err)
	tester.Err(t, s.Put(context.Background(), Run{ID: "  "}))
}

func TestCompleteRecordsOutcome(t *testing.T) {
	run := Begin("r1", "owner/repo", "")
	ok := run.Complete(readme.Result{
		Title:     "Demo",
		FileCount: 12,
		Selected:  []string{"a", "b", "c"},
		Fitted:    []string{"a", "b"},
		Tokens:    321,
		README:    "# Demo",
	}, nil)
	tester.Eq(t, ok.Status, StatusSucceeded)
	tester.Eq(t, ok.Title, "Demo")
	tester.Eq(t, ok.FileCount, 12)
	tester.Eq(t, ok.Selected, 3)
	tester.Eq(t, ok.Fitted, 2)
	tester.Eq(t, ok.Tokens, 321)
	tester.False(t, ok.FinishedAt.IsZero())

	failed := run.Complete(readme.Result{}, readme.Errorf(readme.KindBudget, nil, "no file fits"))
	tester.Eq(t, failed.Status, StatusFailed)
	tester.Eq(t, failed.ErrorKind, string(readme.KindBudget))
	tester.Eq(t, failed.ErrorMessage, "no file fits")
	tester.Eq(t, failed.Title, "")
}

func TestNewWithoutDSNUsesMemory(t *testing.T) {
	s, err := New("")
	tester.NoErr(t, err)
	_, ok := s.(*MemoryStore)
	tester.True(t, ok)
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("READMEGEN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("READMEGEN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := NewPostgresStore(dsn)
	tester.NoErr(t, err)
	defer s.Close()

	id := "test-" + time.Now().UTC().Format("20060102150405.000000000")
	run := Begin(id, "owner/repo", "main")
	tester.NoErr(t, s.Put(ctx, run))

	got, err := s.Get(ctx, id)
	tester.NoErr(t, err)
	tester.Eq(t, got.Status, StatusRunning)
	tester.True(t, got.FinishedAt.IsZero())

	done := run.Complete(readme.Result{Title: "T", Tokens: 10}, nil)
	tester.NoErr(t, s.Put(ctx, done))
	got, err = s.Get(ctx, id)
	tester.NoErr(t, err)
	tester.Eq(t, got.Status, StatusSucceeded)
	tester.Eq(t, got.Title, "T")

	_, err = s.Get(ctx, id+"-missing")
	tester.True(t, errors.Is(err, ErrNotFound))
}
