package llm

import (
	"errors"

	"github.com/sashabaranov/go-openai"
)

// ErrMalformedResponse is returned when a completion carries no choices.
var ErrMalformedResponse = errors.New("malformed chat completion response")

// Message is one conversation turn.
type Message struct {
	Role    string
	Content string
}

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) Message {
	return Message{Role: openai.ChatMessageRoleUser, Content: content}
}

// Request describes a chat completion call. Memory and RetryOnFailure are
// MineAI extensions that travel in the request body.
type Request struct {
	Model          string
	Messages       []Message
	Temperature    float32
	MaxTokens      int
	Memory         bool
	RetryOnFailure bool
}

func (r Request) extensions() Extensions {
	return Extensions{Memory: r.Memory, RetryOnFailure: r.RetryOnFailure}
}

func (r Request) toOpenAI(stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:       r.Model,
		Messages:    msgs,
		Temperature: r.Temperature,
		MaxTokens:   r.MaxTokens,
		Stream:      stream,
	}
}

// Usage is token accounting reported by the server.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the decoded result of a non-streaming call.
// Usage is nil when the server reported none.
type Completion struct {
	ID        string
	Model     string
	Content   string
	Usage     *Usage
	Throttled bool
}

// Delta is the content of one streamed chunk.
type Delta struct {
	Content string
}

// DecodeCompletion converts a raw response into a Completion, failing closed
// when the response has no choices.
func DecodeCompletion(resp openai.ChatCompletionResponse) (Completion, error) {
	if len(resp.Choices) == 0 {
		return Completion{}, ErrMalformedResponse
	}

	c := Completion{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: resp.Choices[0].Message.Content,
	}
	if u := resp.Usage; u.PromptTokens > 0 || u.CompletionTokens > 0 || u.TotalTokens > 0 {
		c.Usage = &Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}

	if resp.Header().Get(ThrottleHeader) == "true" {
		c.Throttled = true
	}
	// An exhausted request budget counts as throttling as well.
	if rl := resp.GetRateLimitHeaders(); rl.LimitRequests > 0 && rl.RemainingRequests == 0 {
		c.Throttled = true
	}
	return c, nil
}

// DecodeDelta extracts the content of a stream chunk. Chunks without choices yield an empty Delta.
func DecodeDelta(chunk openai.ChatCompletionStreamResponse) Delta {
	if len(chunk.Choices) == 0 {
		return Delta{}
	}
	return Delta{Content: chunk.Choices[0].Delta.Content}
}
