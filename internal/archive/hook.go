package archive

import (
	"context"
	"log"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
)

// Artifact paths written by Hook.
const (
	RankPrompt      = "rank/prompt.txt"
	RankResponse    = "rank/response.txt"
	SynthesisPrompt = "synthesize/prompt.txt"
)

// Hook is an llm.PromptHook that archives ranking prompts and replies and the
// synthesis prompt. The generated README itself is not archived. Failures are
// logged and never affect the run.
type Hook struct {
	Store Store
	Log   *log.Logger
}

var _ llm.PromptHook = (*Hook)(nil)

func (h *Hook) Before(ctx context.Context, phase string, req llmclient.Request) {
	switch phase {
	case llm.PhaseRank:
		h.put(ctx, RankPrompt, llmclient.RenderText(req))
	case llm.PhaseSynthesize:
		h.put(ctx, SynthesisPrompt, llmclient.RenderText(req))
	}
}

func (h *Hook) After(ctx context.Context, phase string, resp llmclient.Response, err error) {
	if phase != llm.PhaseRank || err != nil {
		return
	}
	text, ferr := resp.FirstText()
	if ferr != nil {
		return
	}
	h.put(ctx, RankResponse, text)
}

func (h *Hook) put(ctx context.Context, path, content string) {
	if h == nil || h.Store == nil {
		return
	}
	runID := llm.RunIDFrom(ctx)
	if runID == "" {
		return
	}
	if err := h.Store.Put(ctx, runID, path, []byte(content)); err != nil && h.Log != nil {
		h.Log.Printf("archive %s/%s: %v", runID, path, err)
	}
}
