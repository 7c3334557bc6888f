package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/comigor/mineai-smoke/internal/logger"
)

// ThrottleHeader is set on responses whose body carried a truthy "throttle" field.
const ThrottleHeader = "X-Mineai-Throttle"

// Extensions are request fields outside the OpenAI schema.
type Extensions struct {
	Memory         bool
	RetryOnFailure bool
}

func (e Extensions) empty() bool { return !e.Memory && !e.RetryOnFailure }

type extensionsKey struct{}

// WithExtensions attaches ext to ctx; the transport merges them into the outgoing body.
func WithExtensions(ctx context.Context, ext Extensions) context.Context {
	return context.WithValue(ctx, extensionsKey{}, ext)
}

// ExtensionsFrom returns the extensions attached to ctx, if any.
func ExtensionsFrom(ctx context.Context) (Extensions, bool) {
	ext, ok := ctx.Value(extensionsKey{}).(Extensions)
	return ext, ok
}

// Transport is an openai.HTTPDoer that speaks the MineAI dialect.
type Transport struct {
	next *http.Client
}

// NewTransport wraps next; a nil next uses http.DefaultClient.
func NewTransport(next *http.Client) *Transport {
	if next == nil {
		next = http.DefaultClient
	}
	return &Transport{next: next}
}

// Do implements openai.HTTPDoer.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	if ext, ok := ExtensionsFrom(req.Context()); ok && !ext.empty() && req.Body != nil {
		var err error
		req, err = withExtensionFields(req, ext)
		if err != nil {
			return nil, err
		}
	}

	logger.L.Debug("chat request", "method", req.Method, "url", req.URL.String())
	resp, err := t.next.Do(req)
	if err != nil {
		return nil, err
	}
	logger.L.Debug("chat response", "status", resp.StatusCode, "url", req.URL.String())

	if resp.StatusCode == http.StatusOK && strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := markThrottle(resp); err != nil {
			resp.Body.Close()
			return nil, err
		}
	}
	return resp, nil
}

func withExtensionFields(req *http.Request, ext Extensions) (*http.Request, error) {
	raw, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	if ext.Memory {
		fields["memory"] = json.RawMessage("true")
	}
	if ext.RetryOnFailure {
		fields["retry_on_failure"] = json.RawMessage("true")
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return out, nil
}

func markThrottle(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var probe struct {
		Throttle any `json:"throttle"`
	}
	// Bodies that are not objects are left for the client to reject.
	if json.Unmarshal(raw, &probe) == nil && truthy(probe.Throttle) {
		resp.Header.Set(ThrottleHeader, "true")
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
