// Package backend provides an HTTP client for the access-control REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNotFound is returned when the backend answers 404
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status  int
	Message string
	// generic is set when the backend sent no message of its own
	generic bool
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// MessageOf returns the backend-supplied message of err, or "" when err is
// not an API error or the backend sent no message.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && !apiErr.generic {
		return apiErr.Message
	}
	return ""
}

// Client is an HTTP client for the backend API. The bearer token is taken
// from the request context (see WithToken) and falls back to the static
// token given to New.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. baseURL includes the /api prefix.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tokenKey struct{}

// WithToken attaches a bearer token to ctx for every request made with it
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token attached by WithToken, or ""
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

func (c *Client) tokenFor(ctx context.Context) string {
	if t := TokenFromContext(ctx); t != "" {
		return t
	}
	return c.token
}

// get performs a GET request and decodes the response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// send performs a request with an optional JSON body and decodes the response.
func (c *Client) send(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if token := c.tokenFor(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Printf("[WARNING] closing response body: %v", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Message != "" {
				return &APIError{Status: resp.StatusCode, Message: errResp.Message}
			}
			if errResp.Error != "" {
				return &APIError{Status: resp.StatusCode, Message: errResp.Error}
			}
		}
		return &APIError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("server error: %s", http.StatusText(resp.StatusCode)),
			generic: true,
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func query(key, value string) string {
	return "?" + url.Values{key: []string{value}}.Encode()
}
