package readme

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/safeio"
	"readmegen/internal/scan"
)

// DefaultTokenCeiling bounds the synthesis prompt.
const DefaultTokenCeiling = 5000

// Block is one file rendered for the synthesis prompt.
type Block struct {
	Path    string
	Name    string
	Content string
}

func (b Block) String() string {
	return "Filename: " + b.Name + "\nContent:\n" + b.Content + "\n"
}

// JoinBlocks concatenates blocks in order, one blank-line separator apart.
func JoinBlocks(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.String()
	}
	return strings.Join(parts, "\n")
}

// Skipped records a selected path that produced no block.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// BudgetStep is one measurement of the fitting loop.
type BudgetStep struct {
	Blocks int `json:"blocks"`
	Tokens int `json:"tokens"`
}

// BudgetResult is the outcome of Fit.
type BudgetResult struct {
	Combined string
	Tokens   int
	Kept     []Block
	Dropped  []Block
	Steps    []BudgetStep
}

// RequestFunc renders the exact request whose cost is measured.
type RequestFunc func(combined string) llmclient.Request

// BudgetFitter trims ranked file content until the synthesis prompt fits
// Ceiling tokens as counted by the provider.
type BudgetFitter struct {
	LLM     llmclient.Client
	FS      *safeio.SafeFS
	Ceiling int
	Request RequestFunc
	Log     *log.Logger
}

// LoadBlocks reads each path in order. Missing, escaping, oversized and
// unreadable files are skipped; repeated paths keep their first position.
func (f *BudgetFitter) LoadBlocks(paths []string) ([]Block, []Skipped) {
	seen := make(map[string]bool, len(paths))
	var blocks []Block
	var skipped []Skipped
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		content, err := f.FS.ReadText(p, scan.MaxFileBytes)
		if err != nil {
			reason := err.Error()
			if errors.Is(err, safeio.ErrTooLarge) {
				reason = "too large"
			}
			f.logf("budget: skipping %s: %s", p, reason)
			skipped = append(skipped, Skipped{Path: p, Reason: reason})
			continue
		}
		blocks = append(blocks, Block{Path: p, Name: filepath.Base(p), Content: content})
	}
	return blocks, skipped
}

// Fit measures the full candidate and drops the last block while the count
// exceeds the ceiling. Every measured candidate is a prefix of the previous
// one, so it stops after at most len(blocks)+1 counts.
func (f *BudgetFitter) Fit(ctx context.Context, blocks []Block) (BudgetResult, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseBudget)
	ceiling := f.Ceiling
	if ceiling <= 0 {
		ceiling = DefaultTokenCeiling
	}
	kept := append([]Block(nil), blocks...)
	var res BudgetResult
	for {
		combined := JoinBlocks(kept)
		n, err := f.LLM.CountTokens(ctx, f.Request(combined))
		if err != nil {
			return res, Errorf(KindProvider, err, "token count failed")
		}
		res.Steps = append(res.Steps, BudgetStep{Blocks: len(kept), Tokens: n})
		res.Combined, res.Tokens = combined, n
		if n <= ceiling || len(kept) == 0 {
			break
		}
		last := kept[len(kept)-1]
		f.logf("budget: %d tokens > %d, dropping %s", n, ceiling, last.Name)
		res.Dropped = append(res.Dropped, last)
		kept = kept[:len(kept)-1]
	}
	res.Kept = kept
	return res, nil
}

func (f *BudgetFitter) logf(format string, args ...any) {
	if f.Log != nil {
		f.Log.Printf(format, args...)
	}
}
