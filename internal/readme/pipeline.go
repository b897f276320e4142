package readme

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/safeio"
	"readmegen/internal/scan"
	"readmegen/internal/utils"
)

// Options tunes a Generator. Zero values fall back to the defaults.
type Options struct {
	TokenCeiling int
	Selection    SelectionPolicy
	// Layout adds a tree of the selected files to the synthesis prompt.
	Layout bool
	Log    *log.Logger
}

// Generator runs the README pipeline against a checked-out repository.
type Generator struct {
	Filter *scan.Filter
	// Client serves ranking and token counting; wrap it with llm.Retry.
	Client llmclient.Client
	// SynthClient serves the final generation call. Nil means Client.
	SynthClient llmclient.Client
	Observer    Observer
	Opts        Options
}

// Result is a successful run.
type Result struct {
	RunID     string       `json:"run_id"`
	README    string       `json:"readme"`
	HTML      string       `json:"html"`
	Title     string       `json:"title,omitempty"`
	FileCount int          `json:"file_count"`
	Ranked    []string     `json:"ranked"`
	Selected  []string     `json:"selected"`
	Fitted    []string     `json:"fitted"`
	Dropped   []string     `json:"dropped,omitempty"`
	Skipped   []Skipped    `json:"skipped,omitempty"`
	Tokens    int          `json:"tokens"`
	Steps     []BudgetStep `json:"steps"`
}

// run carries per-invocation state so a Generator stays reentrant.
type run struct {
	g     *Generator
	id    string
	start time.Time
}

func (r *run) emit(stage, msg string, data map[string]any) {
	if r.g.Observer == nil {
		return
	}
	r.g.Observer.Observe(StageEvent{RunID: r.id, Stage: stage, Time: time.Now(), Message: msg, Data: data})
}

func (r *run) fail(err *Error) (Result, error) {
	if r.g.Observer != nil {
		r.g.Observer.Observe(StageEvent{
			RunID:   r.id,
			Stage:   StageError,
			Time:    time.Now(),
			Message: err.Error(),
			Kind:    err.Kind,
			Data:    map[string]any{"elapsed_ms": time.Since(r.start).Milliseconds()},
		})
	}
	return Result{RunID: r.id}, err
}

func (r *run) logf(format string, args ...any) {
	if r.g.Opts.Log != nil {
		r.g.Opts.Log.Printf("[%s] "+format, append([]any{r.id}, args...)...)
	}
}

// Generate runs metadata, ranking, parsing, selection, budget fitting and
// synthesis in sequence. The run id is taken from ctx (llm.WithRunID) or
// generated. Any failure is a *Error and no README is returned with it.
func (g *Generator) Generate(ctx context.Context, root string) (Result, error) {
	id := llm.RunIDFrom(ctx)
	if id == "" {
		id = uuid.NewString()
		ctx = llm.WithRunID(ctx, id)
	}
	r := &run{g: g, id: id, start: time.Now()}
	if err := ctx.Err(); err != nil {
		return r.fail(Errorf(KindCanceled, err, "run canceled"))
	}

	md, err := scan.BuildMetadata(root, g.Filter)
	if err != nil {
		return r.fail(Errorf(KindInvalidInput, err, "cannot read repository"))
	}
	r.emit(StageMetadata, "", map[string]any{"dirs": len(md.Dirs), "files": md.FileCount()})
	r.logf("metadata: %d files in %d directories", md.FileCount(), len(md.Dirs))
	if md.FileCount() == 0 {
		return r.fail(Errorf(KindNoFiles, nil, NoSummarizableFiles))
	}

	ranker := &Ranker{LLM: g.Client}
	raw, err := ranker.Rank(ctx, md)
	if err != nil {
		return r.fail(asError(err))
	}
	r.emit(StageRank, "", map[string]any{"bytes": len(raw)})

	lines := ParseRanking(raw)
	if len(lines) == 0 {
		return r.fail(Errorf(KindFormat, nil, "no valid ranking in model response"))
	}
	r.emit(StageParse, "", map[string]any{"lines": len(lines)})

	ranked := ResolvePaths(md.Root, lines)
	policy := g.Opts.Selection
	if policy == (SelectionPolicy{}) {
		policy = DefaultSelection()
	}
	selected := policy.Select(ranked)
	r.emit(StageSelect, "", map[string]any{"ranked": len(ranked), "selected": len(selected)})

	fsys, err := safeio.NewSafeFS(md.Root)
	if err != nil {
		return r.fail(Errorf(KindInvalidInput, err, "cannot open repository"))
	}
	layout := ""
	if g.Opts.Layout {
		layout = utils.PathsToTree(filepath.Base(md.Root), relPaths(md.Root, selected))
	}
	ceiling := g.Opts.TokenCeiling
	if ceiling <= 0 {
		ceiling = DefaultTokenCeiling
	}
	fitter := &BudgetFitter{
		LLM:     g.Client,
		FS:      fsys,
		Ceiling: ceiling,
		Request: func(combined string) llmclient.Request { return SynthesisRequest(combined, layout) },
		Log:     g.Opts.Log,
	}
	blocks, skipped := fitter.LoadBlocks(selected)
	if len(blocks) == 0 {
		return r.fail(Errorf(KindNoFiles, nil, NoSummarizableFiles))
	}
	fit, err := fitter.Fit(ctx, blocks)
	if err != nil {
		return r.fail(asError(err))
	}
	r.emit(StageBudget, "", map[string]any{
		"tokens": fit.Tokens, "kept": len(fit.Kept), "dropped": len(fit.Dropped), "iterations": len(fit.Steps),
	})
	r.logf("budget: %d tokens with %d of %d files", fit.Tokens, len(fit.Kept), len(blocks))
	if len(fit.Kept) == 0 {
		return r.fail(Errorf(KindBudget, nil, "no file fits within %d tokens", ceiling))
	}

	synthClient := g.SynthClient
	if synthClient == nil {
		synthClient = g.Client
	}
	synth := &Synthesizer{LLM: synthClient}
	text, err := synth.Synthesize(ctx, SynthesisRequest(fit.Combined, layout))
	if err != nil {
		return r.fail(asError(err))
	}
	r.emit(StageSynthesize, "", map[string]any{"chars": len(text)})

	html, err := RenderHTML(text)
	if err != nil {
		r.logf("render html: %v", err)
	}
	res := Result{
		RunID:     id,
		README:    text,
		HTML:      html,
		Title:     Title(text),
		FileCount: md.FileCount(),
		Ranked:    ranked,
		Selected:  selected,
		Fitted:    blockPaths(fit.Kept),
		Dropped:   blockPaths(fit.Dropped),
		Skipped:   skipped,
		Tokens:    fit.Tokens,
		Steps:     fit.Steps,
	}
	r.emit(StageDone, res.Title, map[string]any{"tokens": res.Tokens, "elapsed_ms": time.Since(r.start).Milliseconds()})
	return res, nil
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Errorf(KindProvider, err, "pipeline failed")
}

func blockPaths(blocks []Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.Path
	}
	return out
}

// relPaths returns slash paths of the entries under root, dropping any that
// resolve outside it.
func relPaths(root string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}
