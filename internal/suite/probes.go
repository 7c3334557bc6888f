package suite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/comigor/mineai-smoke/internal/llm"
	"github.com/comigor/mineai-smoke/internal/report"
)

const (
	invalidAPIKey = "invalid_key_12345"
	invalidModel  = "invalid-model"
	previewRunes  = 50
)

type probe struct {
	name string
	run  func(r *Runner, ctx context.Context)
}

// Order matters: results are reported in this sequence.
var syncProbes = []probe{
	{"Basic Completion", (*Runner).testBasicCompletion},
	{"Streaming", (*Runner).testStreaming},
	{"Memory", (*Runner).testMemory},
	{"Temperature", (*Runner).testTemperature},
	{"Max Tokens", (*Runner).testMaxTokens},
	{"Retry Logic", (*Runner).testRetryOnFailure},
	{"Rate Limiting", (*Runner).testRateLimiting},
	{"Error Handling", (*Runner).testErrorHandling},
	{"All Models", (*Runner).testAllModels},
}

var asyncProbe = probe{"Async Completion", (*Runner).testAsyncCompletion}

func (r *Runner) header(n int, title string) {
	fmt.Fprintf(r.out, "\n📝 Test %d: %s\n", n, title)
}

func (r *Runner) request(prompt string) llm.Request {
	return llm.Request{
		Model:    r.llmCfg.Model,
		Messages: []llm.Message{llm.UserMessage(prompt)},
	}
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return string(runes) + "..."
}

func (r *Runner) testBasicCompletion(ctx context.Context) {
	r.header(1, "Basic Chat Completion")
	c, err := r.client.Complete(ctx, r.request("Say 'Hello, World!' and nothing else."))
	switch {
	case errors.Is(err, llm.ErrMalformedResponse):
		r.LogResult("Basic Completion", report.Fail, "Invalid response structure")
	case err != nil:
		r.LogResult("Basic Completion", report.Fail, err.Error())
	default:
		r.LogResult("Basic Completion", report.Pass, "Response: "+preview(c.Content))
	}
}

func (r *Runner) testStreaming(ctx context.Context) {
	r.header(2, "Streaming Response")
	req := r.request("Count from 1 to 5.")
	stream, err := r.client.Stream(ctx, req)
	if err != nil {
		r.LogResult("Streaming", report.Fail, err.Error())
		return
	}
	defer stream.Close()

	chunks := 0
	for {
		d, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.LogResult("Streaming", report.Fail, err.Error())
			return
		}
		if d.Content != "" {
			chunks++
		}
	}

	if chunks > 0 {
		r.LogResult("Streaming", report.Pass, fmt.Sprintf("Received %d chunks", chunks))
	} else {
		r.LogResult("Streaming", report.Fail, "No chunks received")
	}
}

func (r *Runner) testAsyncCompletion(ctx context.Context) {
	r.header(3, "Async Chat Completion")
	c, err := r.async.Complete(ctx, r.request("Say 'Async works!' and nothing else.")).Await()
	switch {
	case errors.Is(err, llm.ErrMalformedResponse):
		r.LogResult("Async Completion", report.Fail, "Invalid response structure")
	case err != nil:
		r.LogResult("Async Completion", report.Fail, err.Error())
	default:
		r.LogResult("Async Completion", report.Pass, "Response: "+preview(c.Content))
	}
}

func (r *Runner) testMemory(ctx context.Context) {
	r.header(4, "Memory Functionality")

	first := r.request("My favorite color is blue. Remember this.")
	first.Memory = true
	if _, err := r.client.Complete(ctx, first); err != nil {
		r.memoryFailed(err)
		return
	}

	time.Sleep(r.suiteCfg.MemoryPause)

	second := r.request("What is my favorite color?")
	second.Memory = true
	if _, err := r.client.Complete(ctx, second); err != nil {
		r.memoryFailed(err)
		return
	}
	r.LogResult("Memory", report.Pass, "Memory conversation completed")
}

func (r *Runner) memoryFailed(err error) {
	if errors.Is(err, llm.ErrMalformedResponse) {
		r.LogResult("Memory", report.Fail, "Memory responses incomplete")
		return
	}
	r.LogResult("Memory", report.Fail, err.Error())
}

func (r *Runner) testTemperature(ctx context.Context) {
	r.header(5, "Temperature Parameter")

	low := r.request("What is 2+2?")
	low.Temperature = 0.1
	high := r.request("Write a creative word.")
	high.Temperature = 1.5

	for _, req := range []llm.Request{low, high} {
		if _, err := r.client.Complete(ctx, req); err != nil {
			if errors.Is(err, llm.ErrMalformedResponse) {
				r.LogResult("Temperature", report.Fail, "Temperature responses incomplete")
			} else {
				r.LogResult("Temperature", report.Fail, err.Error())
			}
			return
		}
	}
	r.LogResult("Temperature", report.Pass, "Temperature variations tested")
}

func (r *Runner) testMaxTokens(ctx context.Context) {
	r.header(6, "Max Tokens Parameter")

	limit := r.suiteCfg.MaxTokens
	req := r.request("Write a long essay about space.")
	req.MaxTokens = limit

	c, err := r.client.Complete(ctx, req)
	switch {
	case err != nil:
		r.LogResult("Max Tokens", report.Fail, err.Error())
	case c.Usage == nil:
		r.LogResult("Max Tokens", report.Pass, "Max tokens parameter accepted")
	case c.Usage.CompletionTokens <= limit:
		r.LogResult("Max Tokens", report.Pass, fmt.Sprintf("Response limited to %d tokens", c.Usage.CompletionTokens))
	default:
		r.LogResult("Max Tokens", report.Warn, fmt.Sprintf("Exceeded limit: %d tokens", c.Usage.CompletionTokens))
	}
}

func (r *Runner) testRetryOnFailure(ctx context.Context) {
	r.header(7, "Retry on Failure")

	req := r.request("Test retry logic.")
	req.RetryOnFailure = true
	if _, err := r.client.Complete(ctx, req); err != nil {
		if errors.Is(err, llm.ErrMalformedResponse) {
			r.LogResult("Retry Logic", report.Fail, "No response received")
		} else {
			r.LogResult("Retry Logic", report.Fail, err.Error())
		}
		return
	}
	r.LogResult("Retry Logic", report.Pass, "Retry parameter accepted")
}

// testRateLimiting sends a short sequential burst and only observes throttling.
func (r *Runner) testRateLimiting(ctx context.Context) {
	r.header(8, "Rate Limiting Detection")

	throttled := false
	for i := 0; i < r.suiteCfg.RateLimitBurst; i++ {
		c, err := r.client.Complete(ctx, r.request(fmt.Sprintf("Quick test %d", i)))
		if err != nil {
			r.LogResult("Rate Limiting", report.Fail, err.Error())
			return
		}
		throttled = throttled || c.Throttled
		time.Sleep(r.suiteCfg.RateLimitPause)
	}

	if throttled {
		r.LogResult("Rate Limiting", report.Pass, "Throttling detected in responses")
	} else {
		r.LogResult("Rate Limiting", report.Pass, "No throttling triggered (expected with low volume)")
	}
}

func (r *Runner) testErrorHandling(ctx context.Context) {
	r.header(9, "Error Handling")

	bad := r.factory(invalidAPIKey)
	_, err := bad.Complete(ctx, r.request("Test"))
	switch {
	case err == nil:
		r.LogResult("Error Handling (401)", report.Fail, "Should have raised AuthenticationError")
	case llm.KindOf(err) == llm.KindAuthentication:
		r.LogResult("Error Handling (401)", report.Pass, "AuthenticationError raised correctly")
	default:
		r.LogResult("Error Handling (401)", report.Fail, fmt.Sprintf("Unexpected error: %v", err))
	}

	// Any error for an unknown model is accepted, not only BadRequest.
	req := r.request("Test")
	req.Model = invalidModel
	if _, err := r.client.Complete(ctx, req); err != nil {
		r.LogResult("Error Handling (400)", report.Pass, "Bad request error handled")
	} else {
		r.LogResult("Error Handling (400)", report.Warn, "Invalid model accepted")
	}
}

func (r *Runner) testAllModels(ctx context.Context) {
	r.header(10, "All Supported Models")

	for _, model := range r.llmCfg.Models {
		name := "Model: " + model
		req := r.request("Hi")
		req.Model = model
		req.MaxTokens = r.suiteCfg.ModelMaxTokens

		if _, err := r.client.Complete(ctx, req); err != nil {
			// Some models require a paid plan.
			r.LogResult(name, report.Warn, err.Error())
			continue
		}
		r.LogResult(name, report.Pass, "Model responded")
		time.Sleep(r.suiteCfg.ModelPause)
	}
}
