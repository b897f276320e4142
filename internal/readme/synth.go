package readme

import (
	"context"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
)

// Synthesizer issues the single README generation call.
type Synthesizer struct {
	LLM llmclient.Client
}

// Synthesize sends req and returns the trimmed text of the first segment.
// Failures come back as KindSynthesis errors, never as README text.
func (s *Synthesizer) Synthesize(ctx context.Context, req llmclient.Request) (string, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseSynthesize)
	resp, err := s.LLM.Complete(ctx, req)
	if err != nil {
		return "", Errorf(KindSynthesis, err, "README generation failed")
	}
	text, err := resp.FirstText()
	if err != nil || text == "" {
		if err == nil {
			err = llmclient.ErrEmptyResponse
		}
		return "", Errorf(KindSynthesis, err, "README generation failed")
	}
	return text, nil
}
