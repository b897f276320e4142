package readme

import (
	"context"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/scan"
)

// Ranker asks the model to order the repository files by README relevance.
// Retries belong to the client it is given (see llm.Retry).
type Ranker struct {
	LLM llmclient.Client
}

// Rank returns the raw ranking text. Exhausted retries and empty answers
// become KindProvider errors.
func (r *Ranker) Rank(ctx context.Context, md *scan.Metadata) (string, error) {
	ctx = llm.WithPhase(ctx, llm.PhaseRank)
	resp, err := r.LLM.Complete(ctx, RankingRequest(md.Listing()))
	if err != nil {
		return "", Errorf(KindProvider, err, "ranking request failed")
	}
	text, err := resp.FirstText()
	if err != nil {
		return "", Errorf(KindProvider, err, "ranking request failed")
	}
	return text, nil
}
