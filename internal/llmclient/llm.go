package llmclient

import (
	"context"
	"strings"
)

// Roles used in Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-neutral chat-completion request. System is sent as the
// provider's system instruction, Messages as the conversation.
type Request struct {
	Model       string    `json:"model,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// UserRequest builds a request with a system instruction and a single user turn.
func UserRequest(system, prompt string, maxTokens int, temperature float64) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

// Segment is one content block of a response.
type Segment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a provider-neutral completion result.
type Response struct {
	Segments   []Segment `json:"segments"`
	Model      string    `json:"model"`
	StopReason string    `json:"stop_reason,omitempty"`
	Usage      Usage     `json:"usage"`
}

// FirstText returns the trimmed text of the first segment. Later segments are
// ignored. An empty segment list yields ErrEmptyResponse.
func (r Response) FirstText() (string, error) {
	if len(r.Segments) == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(r.Segments[0].Text), nil
}

// Client is the contract every provider implements. Cross-cutting concerns
// (rate limiting, retries, logging, hooks) are layered on via llm.Middleware.
type Client interface {
	Name() string
	Close() error
	// Complete issues one chat-completion call.
	Complete(ctx context.Context, req Request) (Response, error)
	// CountTokens returns the provider's token count for the rendered input of req.
	CountTokens(ctx context.Context, req Request) (int, error)
}

// RenderText flattens a request into plain text for local token estimation
// and logging.
func RenderText(req Request) string {
	var sb strings.Builder
	if req.System != "" {
		sb.WriteString(req.System)
		sb.WriteString("\n\n")
	}
	for i, m := range req.Messages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(m.Content)
	}
	return sb.String()
}
