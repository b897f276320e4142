package llmclient

import (
	"fmt"
	"log"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps tiktoken for providers without a remote counting endpoint.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer loads the cl100k_base encoding.
func NewTokenizer() (*Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("tokenizer: get encoding: %w", err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Count returns the number of tokens in s.
func (t *Tokenizer) Count(s string) int {
	if t == nil || t.enc == nil {
		return EstimateTokens(s)
	}
	return len(t.enc.Encode(s, nil, nil))
}

var (
	sharedTokOnce sync.Once
	sharedTok     *Tokenizer
)

// sharedTokenizer loads the encoding once per process. When it cannot be
// loaded (offline, no cache) counting falls back to EstimateTokens.
func sharedTokenizer() *Tokenizer {
	sharedTokOnce.Do(func() {
		t, err := NewTokenizer()
		if err != nil {
			log.Printf("llmclient: %v; falling back to word estimate", err)
			return
		}
		sharedTok = t
	})
	return sharedTok
}

// EstimateTokens provides a rough token count for text.
// It counts whitespace-delimited words and falls back to a character-based heuristic.
func EstimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	words := strings.Fields(text)
	if len(words) > 0 {
		return len(words)
	}
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
