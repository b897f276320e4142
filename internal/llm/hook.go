package llm

import (
	"context"

	"readmegen/internal/llmclient"
)

// Phase tags used by the README pipeline.
const (
	PhaseRank       = "rank"
	PhaseBudget     = "budget"
	PhaseSynthesize = "synthesize"
)

// PromptHook defines callbacks around completion requests.
type PromptHook interface {
	Before(ctx context.Context, phase string, req llmclient.Request)
	After(ctx context.Context, phase string, resp llmclient.Response, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}
type ctxKeyRun struct{}

// WithPhase attaches a phase name to the context.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}

// WithRunID attaches the pipeline run id to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRun{}, id)
}

// RunIDFrom returns the run id stored in the context, or "".
func RunIDFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRun{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithPromptHook attaches a PromptHook to the context. Middlewares that call
// HookFrom(ctx) can use this to invoke Before/After around requests.
func WithPromptHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// WithHooks calls HookFrom(ctx).Before/After around Complete.
// If no hook is present in the context, it is a no-op. Token counting is not hooked.
func WithHooks() Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &hooked{next: next}
	}
}

type hooked struct{ next llmclient.Client }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) CountTokens(ctx context.Context, req llmclient.Request) (int, error) {
	return h.next.CountTokens(ctx, req)
}

func (h *hooked) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), req)
	}
	resp, err := h.next.Complete(ctx, req)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), resp, err)
	}
	return resp, err
}
