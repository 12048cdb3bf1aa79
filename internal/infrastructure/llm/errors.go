package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedModel reports a model key no registered provider claims.
var ErrUnsupportedModel = errors.New("unsupported model")

// AuthError means the provider's API key is missing or was rejected.
type AuthError struct {
	Provider string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: api key missing or rejected", e.Provider)
}

// TransportError wraps a network-level failure (DNS, connect, timeout).
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError carries a non-2xx provider response. HTMLBody marks responses
// whose body is an HTML error page rather than an API payload; these usually
// mean a gateway or proxy failure in front of the provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
	HTMLBody   bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// HTMLErrorPage reports whether the response body was an HTML page. Callers
// that run batches match on this method instead of the concrete type.
func (e *StatusError) HTMLErrorPage() bool { return e.HTMLBody }

// MalformedError means a 2xx response did not carry the expected shape.
type MalformedError struct {
	Provider string
	Detail   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Detail)
}

// IsHTMLErrorPage reports whether err is a StatusError whose body looked like
// an HTML page. Batch runs abort on these instead of burning the whole queue
// against a dead gateway.
func IsHTMLErrorPage(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.HTMLBody
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html")
}
