// Package fetch retrieves rendered page bodies from an application without
// a network listener, by driving its http.Handler through a simulated
// request/response pair.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
)

// Sentinel errors for fetch preconditions.
var (
	// ErrNoBaseURL is returned when the client has no base URL configured.
	ErrNoBaseURL = errors.New("fetch: base URL not configured")

	// ErrOutsideBase is returned when the requested URL does not begin
	// with the configured base URL.
	ErrOutsideBase = errors.New("fetch: url outside configured base")

	// ErrQueryString is returned when the requested URL contains a query
	// string. Query URLs have no static-file equivalent.
	ErrQueryString = errors.New("fetch: url contains a query string")
)

// StatusError reports a non-success status from the handler.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch: %s: status %d", e.URL, e.Code)
}

// Client fetches page bodies from an http.Handler.
type Client struct {
	handler http.Handler
	baseURL string
}

// New creates a Client. baseURL is the fully-qualified site base, e.g.
// "https://example.com"; a trailing slash is ignored.
func New(handler http.Handler, baseURL string) *Client {
	return &Client{
		handler: handler,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Body returns the rendered body for rawurl, which must be a
// fully-qualified URL under the configured base with no query string.
// Any handler status outside 2xx fails with a *StatusError.
func (c *Client) Body(ctx context.Context, rawurl string) (string, error) {
	if c.baseURL == "" {
		return "", ErrNoBaseURL
	}
	if !strings.HasPrefix(rawurl, c.baseURL) {
		return "", fmt.Errorf("%w: %s", ErrOutsideBase, rawurl)
	}
	if strings.Contains(rawurl, "?") {
		return "", fmt.Errorf("%w: %s", ErrQueryString, rawurl)
	}

	p := strings.TrimPrefix(rawurl, c.baseURL)
	if p == "" {
		p = "/"
	}

	req := httptest.NewRequest(http.MethodGet, p, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if rec.Code < 200 || rec.Code >= 300 {
		return "", &StatusError{URL: rawurl, Code: rec.Code}
	}
	return rec.Body.String(), nil
}
