package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	DefaultAnthropicModel   = "claude-3-5-sonnet-20241022"
	DefaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// AnthropicClient calls the Anthropic Messages API and its count_tokens endpoint.
// See: https://docs.anthropic.com/en/api/messages
type AnthropicClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
}

// AnthropicOption customizes an AnthropicClient.
type AnthropicOption func(*AnthropicClient)

// WithAnthropicBaseURL points the client at another host (tests, proxies).
func WithAnthropicBaseURL(u string) AnthropicOption {
	return func(c *AnthropicClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAnthropicHTTPClient replaces the underlying http.Client.
func WithAnthropicHTTPClient(h *http.Client) AnthropicOption {
	return func(c *AnthropicClient) { c.http = h }
}

// NewAnthropicClient creates an Anthropic client. If apiKey is empty, it falls
// back to ANTHROPIC_API_KEY; a key is required.
func NewAnthropicClient(apiKey, model string, timeout time.Duration, opts ...AnthropicOption) (*AnthropicClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w (ANTHROPIC_API_KEY)", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &AnthropicClient{
		http:    &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultAnthropicBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (a *AnthropicClient) Name() string { return "Anthropic:" + a.model }
func (a *AnthropicClient) Close() error { return nil }

type anthropicMessagesReq struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type anthropicMessagesResp struct {
	Model      string    `json:"model"`
	Content    []Segment `json:"content"`
	StopReason string    `json:"stop_reason"`
	Usage      Usage     `json:"usage"`
}

type anthropicCountResp struct {
	InputTokens int `json:"input_tokens"`
}

func (a *AnthropicClient) modelFor(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return a.model
}

// Complete posts to /v1/messages and returns every content segment.
func (a *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	temp := req.Temperature
	body := anthropicMessagesReq{
		Model:       a.modelFor(req),
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Messages:    req.Messages,
		Temperature: &temp,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = 1024
	}
	var out anthropicMessagesResp
	if err := a.post(ctx, "/v1/messages", body, &out); err != nil {
		return Response{}, err
	}
	if len(out.Content) == 0 {
		return Response{}, ErrEmptyResponse
	}
	return Response{
		Segments:   out.Content,
		Model:      out.Model,
		StopReason: out.StopReason,
		Usage:      out.Usage,
	}, nil
}

// CountTokens posts the same system/messages structure to
// /v1/messages/count_tokens.
func (a *AnthropicClient) CountTokens(ctx context.Context, req Request) (int, error) {
	body := anthropicMessagesReq{
		Model:    a.modelFor(req),
		System:   req.System,
		Messages: req.Messages,
	}
	var out anthropicCountResp
	if err := a.post(ctx, "/v1/messages/count_tokens", body, &out); err != nil {
		return 0, err
	}
	return out.InputTokens, nil
}

func (a *AnthropicClient) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return NewPermanentError(fmt.Errorf("anthropic: encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return NewPermanentError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return newStatusError("anthropic", resp.StatusCode, resp.Status, raw)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("anthropic: decode response: %w", err)
	}
	return nil
}
