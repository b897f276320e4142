package llmclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeReply is one scripted answer. A non-nil Err is returned instead of Text.
type FakeReply struct {
	Text string
	Err  error
}

// FakeClient is an offline Client for tests and demos. Scripted replies are
// consumed in order; once the script is exhausted it answers from the prompt:
// a ranking of the listed files, or a small README naming the supplied files.
type FakeClient struct {
	mu        sync.Mutex
	script    []FakeReply
	requests  []Request
	counts    []Request
	countFunc func(Request) (int, error)
}

func NewFakeClient(replies ...FakeReply) *FakeClient {
	return &FakeClient{script: append([]FakeReply(nil), replies...)}
}

// WithCountFunc replaces the default word-estimate token counter.
func (f *FakeClient) WithCountFunc(fn func(Request) (int, error)) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countFunc = fn
	return f
}

func (f *FakeClient) Name() string { return "Fake" }
func (f *FakeClient) Close() error { return nil }

// Requests returns the Complete calls seen so far.
func (f *FakeClient) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// CountRequests returns the CountTokens calls seen so far.
func (f *FakeClient) CountRequests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.counts...)
}

func (f *FakeClient) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	var next *FakeReply
	if len(f.script) > 0 {
		r := f.script[0]
		f.script = f.script[1:]
		next = &r
	}
	f.mu.Unlock()

	text := ""
	if next != nil {
		if next.Err != nil {
			return Response{}, next.Err
		}
		text = next.Text
	} else {
		text = fakeAnswer(RenderText(req))
	}
	return Response{
		Segments:   []Segment{{Type: "text", Text: text}},
		Model:      "fake",
		StopReason: "end_turn",
		Usage:      Usage{InputTokens: EstimateTokens(RenderText(req)), OutputTokens: EstimateTokens(text)},
	}, nil
}

func (f *FakeClient) CountTokens(ctx context.Context, req Request) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.counts = append(f.counts, req)
	fn := f.countFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(req)
	}
	return EstimateTokens(RenderText(req)), nil
}

func fakeAnswer(prompt string) string {
	var files []string
	for _, line := range strings.Split(prompt, "\n") {
		if name, ok := strings.CutPrefix(line, "Filename: "); ok {
			files = append(files, strings.TrimSpace(name))
		}
	}
	if len(files) > 0 {
		var sb strings.Builder
		sb.WriteString("# Project\n\n## About\n\nGenerated offline from ")
		sb.WriteString(fmt.Sprintf("%d file(s).\n\n## Structure\n\n", len(files)))
		for _, f := range files {
			sb.WriteString("- " + f + "\n")
		}
		return sb.String()
	}

	var ranked []string
	for _, line := range strings.Split(prompt, "\n") {
		entry, ok := strings.CutPrefix(strings.TrimSpace(line), "- ")
		if !ok || !strings.HasSuffix(entry, " KB") {
			continue
		}
		ranked = append(ranked, fmt.Sprintf("%d. %s", len(ranked)+1, entry))
	}
	return strings.Join(ranked, "\n")
}
