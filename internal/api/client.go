package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iterate-binary-hack/submitdiff/internal/errs"
	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

// DiffPath is the submission endpoint relative to the mode's base URL.
const DiffPath = "/api/workbench/problems/diff"

// DefaultTimeout bounds a single submission attempt.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is kept.
var maxResponseBytes = 10 << 20

// SubmissionResult is the server's answer to a submission.
type SubmissionResult struct {
	StatusCode int
	Body       []byte
	RequestID  string
	// Truncated is set when the body exceeded the read limit and was cut.
	Truncated bool
}

// Accepted reports whether the server created the submission.
func (r SubmissionResult) Accepted() bool {
	return r.StatusCode == http.StatusCreated
}

// Text returns the body as a string.
func (r SubmissionResult) Text() string {
	return string(r.Body)
}

// NetworkError means no complete HTTP response was received.
type NetworkError struct {
	URL string
	Err error

	retryable bool
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error contacting %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client submits diffs to a review API.
type Client struct {
	baseURL string
	httpCli *http.Client
	timeout time.Duration
	retries int
	backoff func(attempt int) time.Duration
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client the Client copies its transport and
// settings from. hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpCli = hc
		}
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetries allows n extra attempts after a transport failure. A request
// that received any response is never retried.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{},
		timeout: DefaultTimeout,
		backoff: func(attempt int) time.Duration { return time.Duration(1<<uint(attempt)) * time.Second },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.httpCli
	hc.Timeout = c.timeout
	c.httpCli = &hc
	return c
}

// Endpoint returns the full submission URL.
func (c *Client) Endpoint() string {
	return c.baseURL + DiffPath
}

// Submit POSTs p and returns the status and body of the response. Any
// status is a successful Submit; only a transport failure returns an error,
// and that error wraps *NetworkError.
func (c *Client) Submit(ctx context.Context, p DiffPayload) (SubmissionResult, error) {
	body, err := p.Encode()
	if err != nil {
		return SubmissionResult{}, err
	}

	url := c.Endpoint()
	requestID := uuid.NewString()
	logger := c.logger.With(zap.String("url", url), zap.String("request_id", requestID))

	var result SubmissionResult
	err = retryWithBackoff(ctx, c.retries, c.backoff, func(attempt int) error {
		logger.Debug("sending diff", zap.Int("attempt", attempt+1), zap.Int("bytes", len(body)))

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return goerr.Wrap(err, "failed to create request", goerr.V("url", url))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)

		resp, err := c.httpCli.Do(req)
		if err != nil {
			logger.Warn("request failed", zap.Int("attempt", attempt+1), zap.Error(err))
			return &NetworkError{URL: url, Err: err, retryable: true}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxResponseBytes)+1))
		if err != nil {
			return &NetworkError{URL: url, Err: fmt.Errorf("reading response (status %d): %w", resp.StatusCode, err)}
		}
		truncated := len(respBody) > maxResponseBytes
		if truncated {
			respBody = respBody[:maxResponseBytes]
			logger.Warn("response body truncated", zap.Int("limit_bytes", maxResponseBytes))
		}

		result = SubmissionResult{
			StatusCode: resp.StatusCode,
			Body:       respBody,
			RequestID:  requestID,
			Truncated:  truncated,
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(*NetworkError); ok {
			return SubmissionResult{}, goerr.Wrap(err, "diff submission did not reach the server",
				goerr.T(errs.TagNetwork),
				goerr.V("url", url),
				goerr.V("request_id", requestID))
		}
		return SubmissionResult{}, err
	}

	logger.Info("diff submitted", zap.Int("status", result.StatusCode))
	return result, nil
}
