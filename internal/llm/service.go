package llm

import (
	"context"
	"errors"
	"io"

	"github.com/comigor/mineai-smoke/internal/task"
	"github.com/sashabaranov/go-openai"
)

// OpenAIService implements Service over an OpenAI-compatible client.
type OpenAIService struct {
	client Client
}

// NewService creates a Service backed by client.
func NewService(client Client) *OpenAIService {
	return &OpenAIService{client: client}
}

// Complete performs a blocking completion and decodes the response.
func (s *OpenAIService) Complete(ctx context.Context, req Request) (Completion, error) {
	resp, err := s.client.CreateChatCompletion(WithExtensions(ctx, req.extensions()), req.toOpenAI(false))
	if err != nil {
		return Completion{}, Wrap(err)
	}
	return DecodeCompletion(resp)
}

// Stream opens a streaming completion.
func (s *OpenAIService) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	stream, err := s.client.CreateChatCompletionStream(WithExtensions(ctx, req.extensions()), req.toOpenAI(true))
	if err != nil {
		return nil, Wrap(err)
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (Delta, error) {
	chunk, err := s.stream.Recv()
	if errors.Is(err, io.EOF) {
		return Delta{}, io.EOF
	}
	if err != nil {
		return Delta{}, Wrap(err)
	}
	return DecodeDelta(chunk), nil
}

func (s *openAIStream) Close() error { return s.stream.Close() }

// AsyncService issues completions as futures.
type AsyncService struct {
	svc Service
}

// NewAsyncService wraps svc.
func NewAsyncService(svc Service) *AsyncService {
	return &AsyncService{svc: svc}
}

// Complete starts the call and returns immediately.
func (a *AsyncService) Complete(ctx context.Context, req Request) *task.Future[Completion] {
	return task.Go(ctx, func(ctx context.Context) (Completion, error) {
		return a.svc.Complete(ctx, req)
	})
}
