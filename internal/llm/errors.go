package llm

import (
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/sashabaranov/go-openai"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindBadRequest
	KindRateLimited
	KindServerFault
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "AuthenticationError"
	case KindBadRequest:
		return "BadRequestError"
	case KindRateLimited:
		return "RateLimitError"
	case KindServerFault:
		return "InternalServerError"
	case KindConnection:
		return "APIConnectionError"
	default:
		return "Error"
	}
}

// Error wraps a client failure with its Kind.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status code to a Kind.
func KindForStatus(code int) Kind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuthentication
	case code == http.StatusTooManyRequests:
		return KindRateLimited
	case code >= 500:
		return KindServerFault
	case code >= 400:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// Wrap classifies err. Nil stays nil and an *Error is returned unchanged.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindForStatus(apiErr.HTTPStatusCode), StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindForStatus(reqErr.HTTPStatusCode), StatusCode: reqErr.HTTPStatusCode, Err: err}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &Error{Kind: KindConnection, Err: err}
	}
	return &Error{Kind: KindUnknown, Err: err}
}

// KindOf reports the Kind of err, classifying it if needed.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(Wrap(err), &e) {
		return e.Kind
	}
	return KindUnknown
}
