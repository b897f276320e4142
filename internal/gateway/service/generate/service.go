package generate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"readmegen/internal/archive"
	"readmegen/internal/llm"
	"readmegen/internal/readme"
	"readmegen/internal/repo"
	"readmegen/internal/runledger"
)

// Request names the repository to document.
type Request struct {
	Ref    repo.Ref
	Branch string
}

// Outcome is what the HTTP layer reports back. Err is a *readme.Error when
// the run failed; Result is only meaningful when Err is nil.
type Outcome struct {
	RunID  string
	Result readme.Result
	Err    error
}

// Cloner checks out a repository; *repo.Cloner in production.
type Cloner interface {
	Clone(ctx context.Context, ref repo.Ref, branch string) (repo.Checkout, error)
}

// Service clones a repository, runs the README pipeline on it and records
// the run in the ledger, trace log and prompt archive.
type Service struct {
	cloner        Cloner
	gen           *readme.Generator
	ledger        runledger.Store
	archive       archive.Store
	observer      readme.Observer
	defaultBranch string
	timeout       time.Duration
}

type Option func(*Service)

func WithLedger(s runledger.Store) Option { return func(svc *Service) { svc.ledger = s } }
func WithArchive(s archive.Store) Option { return func(svc *Service) { svc.archive = s } }
func WithObserver(o readme.Observer) Option { return func(svc *Service) { svc.observer = o } }
func WithDefaultBranch(b string) Option { return func(svc *Service) { svc.defaultBranch = b } }
func WithTimeout(d time.Duration) Option { return func(svc *Service) { svc.timeout = d } }

func New(cloner Cloner, gen *readme.Generator, opts ...Option) *Service {
	s := &Service{cloner: cloner, gen: gen, defaultBranch: "main"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns the run ledger, or nil.
func (s *Service) Ledger() runledger.Store { return s.ledger }

// Archive returns the prompt archive, or nil.
func (s *Service) Archive() archive.Store { return s.archive }

// Generate runs one request end to end. obs, when set, receives this run's
// stage events in addition to the service-wide observer.
func (s *Service) Generate(ctx context.Context, req Request, obs readme.Observer) Outcome {
	runID := uuid.NewString()
	branch := strings.TrimSpace(req.Branch)
	if branch == "" {
		branch = s.defaultBranch
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = llm.WithRunID(ctx, runID)
	if s.archive != nil {
		ctx = llm.WithPromptHook(ctx, &archive.Hook{Store: s.archive, Log: log.Default()})
	}

	observers := readme.Observers{}
	if s.observer != nil {
		observers = append(observers, s.observer)
	}
	if obs != nil {
		observers = append(observers, obs)
	}

	record := runledger.Begin(runID, req.Ref.String(), branch)
	s.record(ctx, record)

	checkout, err := s.cloner.Clone(ctx, req.Ref, branch)
	if err != nil {
		rerr := readme.Errorf(readme.KindClone, err, "Failed to clone repository")
		observers.Observe(readme.StageEvent{RunID: runID, Stage: readme.StageError, Time: time.Now(), Message: rerr.Error(), Kind: rerr.Kind})
		s.record(context.WithoutCancel(ctx), record.Complete(readme.Result{}, rerr))
		return Outcome{RunID: runID, Err: rerr}
	}
	defer func() {
		if err := checkout.Cleanup(); err != nil {
			log.Printf("[%s] cleanup %s: %v", runID, checkout.Dir, err)
		}
	}()
	observers.Observe(readme.StageEvent{
		RunID:   runID,
		Stage:   readme.StageClone,
		Time:    time.Now(),
		Message: fmt.Sprintf("cloned %s@%s", req.Ref, branch),
	})

	gen := *s.gen
	gen.Observer = readme.Observers{gen.Observer, observers}
	res, err := gen.Generate(ctx, checkout.Dir)
	s.record(context.WithoutCancel(ctx), record.Complete(res, err))
	return Outcome{RunID: runID, Result: res, Err: err}
}

// IsClone reports whether the outcome failed before the pipeline started.
func (o Outcome) IsClone() bool {
	return o.Err != nil && readme.KindOf(o.Err) == readme.KindClone
}

func (s *Service) record(ctx context.Context, run runledger.Run) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Put(ctx, run); err != nil {
		log.Printf("[%s] run ledger: %v", run.ID, err)
	}
}
