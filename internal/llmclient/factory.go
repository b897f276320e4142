package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderFake      = "fake"
)

// New builds the named provider client. An empty apiKey lets each provider
// fall back to its own environment variable.
func New(ctx context.Context, provider, model, apiKey string, timeout time.Duration) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderAnthropic:
		return NewAnthropicClient(apiKey, model, timeout)
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, model, timeout)
	case ProviderGroq:
		return NewGroqClient(apiKey, model, timeout)
	case ProviderFake:
		return NewFakeClient(), nil
	default:
		return nil, fmt.Errorf("llmclient: unknown provider %q", provider)
	}
}
