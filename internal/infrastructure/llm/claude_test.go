package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hnbriefs/internal/config"
)

const messageBody = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-sonnet-20241022",
	"content": [{"type": "text", "text": "{\"summary\":\"ok\"}"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *ClaudeClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := config.AnthropicConfig{
		AuthToken: "test-token",
		BaseURL:   server.URL,
		Model:     "claude-3-5-sonnet-20241022",
	}
	return NewClaudeClient(cfg, opts...)
}

func TestCompleteSuccess(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageBody))
	})

	reply, err := client.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != `{"summary":"ok"}` {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestCompleteRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var sleeps []time.Duration
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		// 400 is terminal per request, so each failure is one attempt
		// of the outer retry loop.
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(messageBody))
	},
		WithRetry(3, time.Millisecond, 10*time.Millisecond),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)

	reply, err := client.Complete(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply == "" {
		t.Fatalf("expected a reply after retries")
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 backoff sleeps, got %v", sleeps)
	}
	if sleeps[1] <= sleeps[0] {
		t.Fatalf("backoff must grow, got %v", sleeps)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	t.Parallel()

	var sleeps []time.Duration
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	},
		WithRetry(3, time.Millisecond, 10*time.Millisecond),
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }),
	)

	if _, err := client.Complete(context.Background(), "analyze this"); err == nil {
		t.Fatalf("expected an error after exhausting retries")
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 sleeps for 3 attempts, got %d", len(sleeps))
	}
}

func TestCompleteEmptyPrompt(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Errorf("no request may be sent for an empty prompt")
	})

	if _, err := client.Complete(context.Background(), "   "); err == nil {
		t.Fatalf("expected an error for a blank prompt")
	}
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	client := NewClaudeClient(config.AnthropicConfig{},
		WithRetry(5, time.Second, 4*time.Second))

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 4 * time.Second},
	}
	for _, tc := range cases {
		if got := client.backoffDelay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: got %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
