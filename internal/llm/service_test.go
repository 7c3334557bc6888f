package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/comigor/mineai-smoke/internal/config"
	"github.com/stretchr/testify/require"
)

const completionBody = `{"id":"cmpl-1","object":"chat.completion","model":"mine:o1-free",
"choices":[{"index":0,"message":{"role":"assistant","content":"Hello, World!"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":12,"completion_tokens":4,"total_tokens":16}%s}`

// fakeMineAI is an OpenAI-compatible backend that records request bodies.
type fakeMineAI struct {
	mu     sync.Mutex
	bodies []map[string]any

	throttle bool
	header   http.Header
}

func (f *fakeMineAI) lastBody() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[len(f.bodies)-1]
}

func (f *fakeMineAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer good-key" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid API key","type":"invalid_request_error"}}`)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	if body["model"] == "invalid-model" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Unknown model","type":"invalid_request_error"}}`)
		return
	}

	if stream, _ := body["stream"].(bool); stream {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"1, ", "2, ", "3"} {
			fmt.Fprintf(w, "data: {\"id\":\"s1\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", part)
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
		return
	}

	for k, vs := range f.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	extra := ""
	if f.throttle {
		extra = `,"throttle":true`
	}
	fmt.Fprintf(w, completionBody, extra)
}

func newTestService(t *testing.T, fake *fakeMineAI, key string) *OpenAIService {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewServiceFromConfig(config.LLMConfig{BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}, key)
}

func TestService_Complete(t *testing.T) {
	fake := &fakeMineAI{}
	svc := newTestService(t, fake, "good-key")

	c, err := svc.Complete(context.Background(), Request{
		Model:     config.ModelO1Free,
		Messages:  []Message{UserMessage("Say 'Hello, World!' and nothing else.")},
		MaxTokens: 50,
	})
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", c.Content)
	require.NotNil(t, c.Usage)
	require.Equal(t, 4, c.Usage.CompletionTokens)
	require.False(t, c.Throttled)

	body := fake.lastBody()
	require.Equal(t, float64(50), body["max_tokens"])
	require.NotContains(t, body, "memory")
	require.NotContains(t, body, "retry_on_failure")
}

func TestService_ExtensionsReachTheWire(t *testing.T) {
	fake := &fakeMineAI{}
	svc := newTestService(t, fake, "good-key")

	_, err := svc.Complete(context.Background(), Request{
		Model:          config.ModelO1Free,
		Messages:       []Message{UserMessage("My favorite color is blue. Remember this.")},
		Memory:         true,
		RetryOnFailure: true,
	})
	require.NoError(t, err)

	body := fake.lastBody()
	require.Equal(t, true, body["memory"])
	require.Equal(t, true, body["retry_on_failure"])
	require.Equal(t, config.ModelO1Free, body["model"])
}

func TestService_ThrottleFromBody(t *testing.T) {
	fake := &fakeMineAI{throttle: true}
	svc := newTestService(t, fake, "good-key")

	c, err := svc.Complete(context.Background(), Request{Model: config.ModelO1Free, Messages: []Message{UserMessage("Quick test 0")}})
	require.NoError(t, err)
	require.True(t, c.Throttled)
}

func TestService_ThrottleFromRateLimitHeaders(t *testing.T) {
	fake := &fakeMineAI{header: http.Header{
		"X-Ratelimit-Limit-Requests":     {"10"},
		"X-Ratelimit-Remaining-Requests": {"0"},
	}}
	svc := newTestService(t, fake, "good-key")

	c, err := svc.Complete(context.Background(), Request{Model: config.ModelO1Free, Messages: []Message{UserMessage("Quick test 1")}})
	require.NoError(t, err)
	require.True(t, c.Throttled)
}

func TestService_AuthenticationError(t *testing.T) {
	svc := newTestService(t, &fakeMineAI{}, "invalid_key_12345")

	_, err := svc.Complete(context.Background(), Request{Model: config.ModelO1Free, Messages: []Message{UserMessage("Test")}})
	require.Error(t, err)
	require.Equal(t, KindAuthentication, KindOf(err))

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, http.StatusUnauthorized, e.StatusCode)
}

func TestService_BadRequest(t *testing.T) {
	svc := newTestService(t, &fakeMineAI{}, "good-key")

	_, err := svc.Complete(context.Background(), Request{Model: "invalid-model", Messages: []Message{UserMessage("Test")}})
	require.Equal(t, KindBadRequest, KindOf(err))
}

func TestService_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	svc := NewServiceFromConfig(config.LLMConfig{BaseURL: base + "/v1", Timeout: time.Second}, "good-key")
	_, err := svc.Complete(context.Background(), Request{Model: config.ModelO1Free, Messages: []Message{UserMessage("Test")}})
	require.Equal(t, KindConnection, KindOf(err))
}

func TestService_Stream(t *testing.T) {
	fake := &fakeMineAI{}
	svc := newTestService(t, fake, "good-key")

	stream, err := svc.Stream(context.Background(), Request{
		Model:    config.ModelO1Free,
		Messages: []Message{UserMessage("Count from 1 to 5.")},
		Memory:   true,
	})
	require.NoError(t, err)
	defer stream.Close()

	var parts []string
	for {
		d, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		parts = append(parts, d.Content)
	}
	require.Equal(t, []string{"1, ", "2, ", "3"}, parts)
	require.Equal(t, true, fake.lastBody()["stream"])
	require.Equal(t, true, fake.lastBody()["memory"])
}

func TestService_StreamAuthError(t *testing.T) {
	svc := newTestService(t, &fakeMineAI{}, "nope")

	_, err := svc.Stream(context.Background(), Request{Model: config.ModelO1Free, Messages: []Message{UserMessage("Count")}})
	require.Equal(t, KindAuthentication, KindOf(err))
}

func TestAsyncService_Complete(t *testing.T) {
	svc := newTestService(t, &fakeMineAI{}, "good-key")
	async := NewAsyncService(svc)

	c, err := async.Complete(context.Background(), Request{
		Model:    config.ModelO1Free,
		Messages: []Message{UserMessage("Say 'Async works!' and nothing else.")},
	}).Await()
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", c.Content)
}
