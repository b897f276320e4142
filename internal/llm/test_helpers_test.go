package llm

import (
	"context"
	"sync"
	"time"

	"readmegen/internal/llmclient"
)

// scriptedClient fails the first `fail` calls of each kind with err.
type scriptedClient struct {
	mu      sync.Mutex
	fail    int
	err     error
	calls   int
	counts  int
	stamps  []time.Time
	closeFn func() error
}

func (s *scriptedClient) Name() string { return "scripted" }
func (s *scriptedClient) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

func (s *scriptedClient) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.stamps = append(s.stamps, time.Now())
	if s.calls <= s.fail {
		return llmclient.Response{}, s.err
	}
	return llmclient.Response{Segments: []llmclient.Segment{{Type: "text", Text: "ok"}}}, nil
}

func (s *scriptedClient) CountTokens(ctx context.Context, req llmclient.Request) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts++
	if s.counts <= s.fail {
		return 0, s.err
	}
	return len(llmclient.RenderText(req)), nil
}

// tagging appends its tag to a shared slice when Complete runs.
type tagging struct {
	next llmclient.Client
	tag  string
	seen *[]string
}

func (t *tagging) Name() string { return t.next.Name() }
func (t *tagging) Close() error { return t.next.Close() }
func (t *tagging) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	*t.seen = append(*t.seen, t.tag)
	return t.next.Complete(ctx, req)
}
func (t *tagging) CountTokens(ctx context.Context, req llmclient.Request) (int, error) {
	return t.next.CountTokens(ctx, req)
}

func tag(name string, seen *[]string) Middleware {
	return func(next llmclient.Client) llmclient.Client { return &tagging{next: next, tag: name, seen: seen} }
}
