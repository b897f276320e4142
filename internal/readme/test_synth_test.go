package readme

import (
	"context"
	"errors"
	"testing"

	"readmegen/internal/llm"
	"readmegen/internal/llmclient"
	"readmegen/internal/scan"
	"readmegen/internal/tester"
)

func TestSynthesisRequestShape(t *testing.T) {
	req := SynthesisRequest("Filename: a\nContent:\nb\n", "repo\n└── a")
	tester.Eq(t, req.MaxTokens, 1024)
	tester.Eq(t, req.Temperature, 0.7)
	tester.Eq(t, req.System, synthesisSystem)
	tester.Len(t, req.Messages, 1)
	body := req.Messages[0].Content
	tester.Contains(t, body, "badges")
	tester.Contains(t, body, "Return only the README content")
	tester.Contains(t, body, "Repository layout:\nrepo\n└── a")
	tester.Contains(t, body, "Filename: a\nContent:\nb\n")

	tester.NotContains(t, SynthesisRequest("x", "").Messages[0].Content, "Repository layout")
}

func TestRankingRequestShape(t *testing.T) {
	req := RankingRequest("Directory: .\n  - a.go (.): 1.00 KB")
	tester.Eq(t, req.MaxTokens, 500)
	tester.Eq(t, req.Temperature, 0.2)
	tester.True(t, req.System != "")
	tester.Contains(t, req.Messages[0].Content, "<rank>. <file_name> (<directory>): <size> KB")
	tester.Contains(t, req.Messages[0].Content, "  - a.go (.): 1.00 KB")
}

func TestSynthesizeTrimsFirstSegment(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeReply{Text: "\n\n# Title\n\nBody\n\n"})
	s := &Synthesizer{LLM: fake}
	got, err := s.Synthesize(context.Background(), SynthesisRequest("x", ""))
	tester.NoErr(t, err)
	tester.Eq(t, got, "# Title\n\nBody")
}

func TestSynthesizeErrorIsTyped(t *testing.T) {
	fake := llmclient.NewFakeClient(llmclient.FakeReply{Err: &llmclient.StatusError{Provider: "anthropic", StatusCode: 500, Status: "500 Internal Server Error", Body: "overloaded"}})
	s := &Synthesizer{LLM: fake}
	got, err := s.Synthesize(context.Background(), SynthesisRequest("x", ""))
	tester.Eq(t, got, "")
	tester.Eq(t, KindOf(err), KindSynthesis)
	tester.Contains(t, err.Error(), "overloaded")

	empty := &Synthesizer{LLM: llmclient.NewFakeClient(llmclient.FakeReply{Text: "   "})}
	_, err = empty.Synthesize(context.Background(), SynthesisRequest("x", ""))
	tester.Eq(t, KindOf(err), KindSynthesis)
	tester.True(t, errors.Is(err, llmclient.ErrEmptyResponse))
}

func TestRankerRetriesThenFails(t *testing.T) {
	transient := errors.New("503 Service Unavailable")
	fake := llmclient.NewFakeClient(
		llmclient.FakeReply{Err: transient},
		llmclient.FakeReply{Err: transient},
		llmclient.FakeReply{Err: transient},
		llmclient.FakeReply{Text: "1. never.go (.): 1 KB"},
	)
	r := &Ranker{LLM: llm.Wrap(fake, llm.Retry(3, llm.Immediate))}
	md, err := scan.BuildMetadata(scenarioRepo(t), newFilter())
	tester.NoErr(t, err)

	_, err = r.Rank(context.Background(), md)
	tester.Eq(t, KindOf(err), KindProvider)
	tester.True(t, errors.Is(err, transient))
	tester.Len(t, fake.Requests(), 3)
}

func TestRankerRecoversWithinBudget(t *testing.T) {
	fake := llmclient.NewFakeClient(
		llmclient.FakeReply{Err: errors.New("timeout")},
		llmclient.FakeReply{Text: "1. main.py (src): 2 KB"},
	)
	r := &Ranker{LLM: llm.Wrap(fake, llm.Retry(3, llm.Immediate))}
	md, err := scan.BuildMetadata(scenarioRepo(t), newFilter())
	tester.NoErr(t, err)

	raw, err := r.Rank(context.Background(), md)
	tester.NoErr(t, err)
	tester.Eq(t, raw, "1. main.py (src): 2 KB")
	reqs := fake.Requests()
	tester.Len(t, reqs, 2)
	tester.Contains(t, reqs[1].Messages[0].Content, "main.py (src)")
}
