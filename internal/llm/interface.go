package llm

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

// Client is minimal subset of openai.Client used by the service; it is easy to mock in tests.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// Service is the typed chat surface probed by the suite.
type Service interface {
	Complete(ctx context.Context, req Request) (Completion, error)
	Stream(ctx context.Context, req Request) (DeltaStream, error)
}

// DeltaStream yields partial completions until io.EOF.
type DeltaStream interface {
	Recv() (Delta, error)
	Close() error
}
