// Package apiclient talks to the portal backend, which wraps every payload
// in a {code, message, data} envelope.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a backend call when Options.Timeout is zero
const DefaultTimeout = 30 * time.Second

var (
	// ErrTimeout is returned when the backend does not answer in time
	ErrTimeout = errors.New("request timeout")
	// ErrNotJSON is returned when the backend answers with a non-JSON body
	ErrNotJSON = errors.New("response is not JSON")
)

// Envelope is the unified backend response
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError is a business failure reported inside a well-formed envelope
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: code=%d, message=%s", e.Code, e.Message)
}

// HTTPError is a non-2xx transport answer
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token is sent as a Bearer credential unless a request overrides it
	Token string
}

// RequestOptions are per-call settings
type RequestOptions struct {
	Query map[string]string
	Body  any
	Token string
}

// Client is a backend HTTP client
type Client struct {
	http  *resty.Client
	token string
}

// New creates a backend client
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Client{http: c, token: opts.Token}
}

// Do issues a request and decodes envelope data into out (may be nil)
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions, out any) error {
	req := c.http.R().SetContext(ctx)

	token := opts.Token
	if token == "" {
		token = c.token
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(opts.Query) > 0 {
		req.SetQueryParams(opts.Query)
	}
	if opts.Body != nil && method != http.MethodGet {
		req.SetBody(opts.Body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.IsError() {
		return &HTTPError{Status: resp.StatusCode(), Body: resp.String()}
	}
	if !strings.Contains(resp.Header().Get("Content-Type"), "application/json") {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotJSON)
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return &APIError{Code: env.Code, Message: msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, query map[string]string, out any) error {
	return c.Do(ctx, http.MethodGet, path, RequestOptions{Query: query}, out)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, RequestOptions{Body: body}, out)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
