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
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1/chat/completions"

	// chat formatting overhead per message, as counted by OpenAI-style tokenizers.
	tokensPerMessage = 3
)

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible).
// Groq has no counting endpoint, so CountTokens uses a local cl100k tokenizer.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string
	tok     *Tokenizer
}

// NewGroqClient creates a Groq client. If apiKey is empty, it falls back to GROQ_API_KEY env var.
func NewGroqClient(apiKey, model string, timeout time.Duration) (*GroqClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("groq: %w (GROQ_API_KEY)", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultGroqModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GroqClient{
		http:    &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultGroqBaseURL,
	}, nil
}

// SetBaseURL overrides the chat completions URL.
func (g *GroqClient) SetBaseURL(u string) { g.baseURL = u }

func (g *GroqClient) Name() string { return "Groq:" + g.model }
func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type groqChatResp struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func groqMessages(req Request) []groqMessage {
	out := make([]groqMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, groqMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		out = append(out, groqMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// Complete sends the system instruction as a system message followed by the
// request turns. Each choice becomes one segment.
func (g *GroqClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	reqBody := groqChatReq{
		Model:       model,
		Messages:    groqMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, NewPermanentError(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(b))
	if err != nil {
		return Response{}, NewPermanentError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		serr := newStatusError("groq", resp.StatusCode, resp.Status, body)
		// Check for context length exceeded (permanent error)
		if resp.StatusCode == http.StatusBadRequest && strings.Contains(serr.Body, `"code":"context_length_exceeded"`) {
			return Response{}, NewPermanentError(serr)
		}
		return Response{}, serr
	}
	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("groq: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}
	segs := make([]Segment, 0, len(out.Choices))
	for _, c := range out.Choices {
		segs = append(segs, Segment{Type: "text", Text: c.Message.Content})
	}
	return Response{
		Segments:   segs,
		Model:      out.Model,
		StopReason: out.Choices[0].FinishReason,
		Usage:      Usage{InputTokens: out.Usage.PromptTokens, OutputTokens: out.Usage.CompletionTokens},
	}, nil
}

// CountTokens tokenizes every message locally and adds the per-message overhead.
func (g *GroqClient) CountTokens(ctx context.Context, req Request) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tok := g.tok
	if tok == nil {
		tok = sharedTokenizer()
	}
	total := 0
	for _, m := range groqMessages(req) {
		total += tokensPerMessage + tok.Count(m.Content)
	}
	return total, nil
}
