package llm

import (
	"context"
	"log"
	"time"

	"readmegen/internal/llmclient"
)

// WithLogging logs request size and errors. Provide a custom logger or nil
// to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.Client) llmclient.Client {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.Client
	log  *log.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	start := time.Now()
	l.log.Printf("LLM request (%s) %s: %d bytes", PhaseFrom(ctx), l.next.Name(), len(llmclient.RenderText(req)))
	resp, err := l.next.Complete(ctx, req)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", PhaseFrom(ctx), err)
		return resp, err
	}
	l.log.Printf("LLM response (%s): in=%d out=%d stop=%s in %s",
		PhaseFrom(ctx), resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.StopReason, time.Since(start).Round(time.Millisecond))
	return resp, nil
}

func (l *logging) CountTokens(ctx context.Context, req llmclient.Request) (int, error) {
	n, err := l.next.CountTokens(ctx, req)
	if err != nil {
		l.log.Printf("LLM count error (%s): %v", PhaseFrom(ctx), err)
	}
	return n, err
}
