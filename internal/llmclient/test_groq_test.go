package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"readmegen/internal/tester"
)

func TestGroqCompleteSendsSystemMessage(t *testing.T) {
	var got groqChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tester.Eq(t, r.Header.Get("Authorization"), "Bearer k")
		tester.NoErr(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"message":{"content":"1. a.go (.): 1 KB"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":7,"completion_tokens":2}}`))
	}))
	defer srv.Close()

	g, err := NewGroqClient("k", "m", time.Second)
	tester.NoErr(t, err)
	g.SetBaseURL(srv.URL)

	resp, err := g.Complete(context.Background(), UserRequest("sys", "user", 500, 0.2))
	tester.NoErr(t, err)
	tester.Eq(t, got.Messages, []groqMessage{{Role: "system", Content: "sys"}, {Role: "user", Content: "user"}})
	tester.Eq(t, got.MaxTokens, 500)
	text, _ := resp.FirstText()
	tester.Eq(t, text, "1. a.go (.): 1 KB")
	tester.Eq(t, resp.Usage.InputTokens, 7)
}

func TestGroqContextLengthIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"context_length_exceeded"}}`))
	}))
	defer srv.Close()

	g, err := NewGroqClient("k", "m", time.Second)
	tester.NoErr(t, err)
	g.SetBaseURL(srv.URL)
	_, err = g.Complete(context.Background(), UserRequest("", "x", 1, 0))
	tester.True(t, IsPermanent(err))
}

func TestGroqCountTokensAddsMessageOverhead(t *testing.T) {
	g, err := NewGroqClient("k", "m", time.Second)
	tester.NoErr(t, err)
	g.tok = &Tokenizer{} // no encoding loaded: word estimate

	n, err := g.CountTokens(context.Background(), UserRequest("one two", "three four five", 0, 0))
	tester.NoErr(t, err)
	tester.Eq(t, n, 2*tokensPerMessage+2+3)
}
