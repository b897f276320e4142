package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	genai "google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is a thin wrapper around the official genai client.
// It only focuses on the API call itself. Cross-cutting concerns
// (rate limiting, retries, logging, hooks) are applied via Middleware.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient builds a Gemini client. A positive timeout bounds every
// request; GOOGLE_GEMINI_BASE_URL overrides the endpoint.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w (GEMINI_API_KEY)", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: timeout}
		cfg.HTTPOptions.Timeout = &timeout
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) modelFor(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return g.model
}

func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	return out
}

// Complete maps System to SystemInstruction and returns the parts of the first
// candidate as segments.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.modelFor(req), geminiContents(req.Messages), cfg)
	if err != nil {
		return Response{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, ErrEmptyResponse
	}
	cand := resp.Candidates[0]
	segs := make([]Segment, 0, len(cand.Content.Parts))
	for _, p := range cand.Content.Parts {
		if p == nil || p.Text == "" {
			continue
		}
		segs = append(segs, Segment{Type: "text", Text: p.Text})
	}
	if len(segs) == 0 {
		return Response{}, ErrEmptyResponse
	}
	out := Response{
		Segments:   segs,
		Model:      resp.ModelVersion,
		StopReason: string(cand.FinishReason),
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// CountTokens calls the countTokens endpoint. The Gemini API rejects a
// system instruction on that call, so it is counted as a leading user turn.
func (g *GeminiClient) CountTokens(ctx context.Context, req Request) (int, error) {
	msgs := req.Messages
	if req.System != "" {
		msgs = append([]Message{{Role: RoleUser, Content: req.System}}, msgs...)
	}
	resp, err := g.cli.Models.CountTokens(ctx, g.modelFor(req), geminiContents(msgs), nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}
