package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// Sentinels matched by the typed errors below so callers can use errors.Is
// without knowing the concrete type.
var (
	ErrAuth           = errors.New("spotify: authentication failed")
	ErrRateLimited    = errors.New("spotify: rate limited")
	ErrUpstreamServer = errors.New("spotify: upstream server error")
	ErrUpstreamClient = errors.New("spotify: request rejected")
)

// AuthError reports that no access token could be obtained.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string        { return "spotify: token exchange failed: " + e.Err.Error() }
func (e *AuthError) Unwrap() error        { return e.Err }
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// RateLimitError is a 429 response. RetryAfter is zero when the response
// carried no usable Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("spotify: rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("spotify: rate limited: %v", e.Err)
}
func (e *RateLimitError) Unwrap() error        { return e.Err }
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
func (e *RateLimitError) StatusCode() int      { return http.StatusTooManyRequests }

// UpstreamServerError is a 5xx response.
type UpstreamServerError struct {
	Status int
	Err    error
}

func (e *UpstreamServerError) Error() string {
	return fmt.Sprintf("spotify: upstream status %d: %v", e.Status, e.Err)
}
func (e *UpstreamServerError) Unwrap() error        { return e.Err }
func (e *UpstreamServerError) Is(target error) bool { return target == ErrUpstreamServer }
func (e *UpstreamServerError) StatusCode() int      { return e.Status }

// UpstreamClientError is a 4xx response other than 429.
type UpstreamClientError struct {
	Status int
	Err    error
}

func (e *UpstreamClientError) Error() string {
	return fmt.Sprintf("spotify: request rejected with status %d: %v", e.Status, e.Err)
}
func (e *UpstreamClientError) Unwrap() error        { return e.Err }
func (e *UpstreamClientError) Is(target error) bool { return target == ErrUpstreamClient }
func (e *UpstreamClientError) StatusCode() int      { return e.Status }

// OperationError is returned once an operation gives up, either because the
// failure was not retryable or because the attempt ceiling was reached.
type OperationError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("spotify: %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// HTTPStatus extracts the HTTP status carried by err, or 0 when there is
// none. It understands the catalog library's error type, oauth2 token
// endpoint failures and the typed errors of this package.
func HTTPStatus(err error) int {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := e.(type) {
		case interface{ StatusCode() int }:
			return v.StatusCode()
		case spotify.Error:
			return v.Status
		case *spotify.Error:
			if v != nil {
				return v.Status
			}
		case *oauth2.RetrieveError:
			if v.Response != nil {
				return v.Response.StatusCode
			}
		}
	}
	return 0
}

// classify wraps a raw failure in the typed error matching its status.
// observed is the status seen on the wire and is used when err itself
// carries none. retryAfter is the delay the server asked for, if any.
func classify(err error, observed int, retryAfter time.Duration) error {
	var ae *AuthError
	if errors.As(err, &ae) {
		return err
	}
	status := HTTPStatus(err)
	if status == 0 {
		status = observed
	}
	switch {
	case status == http.StatusTooManyRequests:
		var rl *RateLimitError
		if errors.As(err, &rl) {
			return err
		}
		return &RateLimitError{RetryAfter: retryAfter, Err: err}
	case status >= 500:
		var se *UpstreamServerError
		if errors.As(err, &se) {
			return err
		}
		return &UpstreamServerError{Status: status, Err: err}
	case status >= 400:
		var ce *UpstreamClientError
		if errors.As(err, &ce) {
			return err
		}
		return &UpstreamClientError{Status: status, Err: err}
	}
	return err
}

// networkSignatures are lower-case fragments of transport failures worth
// another attempt.
var networkSignatures = []string{
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"temporary failure",
	"no such host",
	"network is unreachable",
	"no route to host",
	"broken pipe",
	"unexpected eof",
	"tls handshake",
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuth) || errors.Is(err, context.Canceled) {
		return false
	}
	if status := HTTPStatus(err); status != 0 {
		return status == http.StatusTooManyRequests ||
			status == http.StatusRequestTimeout ||
			status == http.StatusGatewayTimeout ||
			status >= 500
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range networkSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
