// Package apiclient sends JSON requests to the todo API and unwraps the
// {message, data} envelope every endpoint responds with.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://906db7c7fc2a.ngrok-free.app"

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

type Config struct {
	BaseURL string
	// HTTPClient defaults to a client without timeout; calls end when the
	// server answers, the connection fails or ctx is done.
	HTTPClient *http.Client
}

// ConfigFromEnv reads TODO_API_BASE_URL, then VITE_TASK_APP_BASE_URL, then
// falls back to the default host.
func ConfigFromEnv() Config {
	base := os.Getenv("TODO_API_BASE_URL")
	if base == "" {
		base = os.Getenv("VITE_TASK_APP_BASE_URL")
	}
	if base == "" {
		base = defaultBaseURL
	}
	return Config{BaseURL: base}
}

// AuthMode says whether a call carries the session's bearer token.
type AuthMode int

const (
	NoAuth AuthMode = iota
	WithAuth
)

// Session is what the client needs from the session store.
type Session interface {
	Token() string
	Invalidate(ctx context.Context, reason string) error
}

// Envelope is the wrapper of every API response.
type Envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HasData reports whether the envelope carries a non-null data field.
func (e *Envelope) HasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

type Client struct {
	baseURL    string
	session    Session
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

func New(cfg Config, session Session, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	// copy so the caller's client is left untouched
	wrapped := *hc
	wrapped.Transport = newLoggingTransport(hc.Transport, logger)
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		session:    session,
		httpClient: &wrapped,
		logger:     logger,
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Call performs one request. body is JSON encoded when non-nil. With
// WithAuth the bearer token is attached if the session has one; without a
// token the request is still sent. A 401 invalidates the session and
// returns ErrUnauthorized. There are no retries.
func (c *Client) Call(ctx context.Context, method, path string, body any, auth AuthMode) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if auth == WithAuth && c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		if c.session != nil {
			// the session is cleared even if the caller gave up on ctx
			if err := c.session.Invalidate(context.WithoutCancel(ctx), "unauthorized"); err != nil {
				c.logger.Warnw("invalidate session failed", "err", err)
			}
		}
		return nil, ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response: %w", err)}
	}
	env := &Envelope{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("%s: decode response: %w", networkErrorMessage, err)}
	}
	return env, nil
}

// errorMessage reads {message} from a failed response, falling back to the
// status text.
func errorMessage(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err != nil {
		return statusMessage(resp.StatusCode, text)
	}
	if body.Message == "" {
		return statusMessage(resp.StatusCode, "")
	}
	return body.Message
}

// Do calls the API and decodes the envelope's data into a T. A success
// response without data yields a nil *T and no error.
func Do[T any](ctx context.Context, c *Client, method, path string, body any, auth AuthMode) (*T, error) {
	env, err := c.Call(ctx, method, path, body, auth)
	if err != nil {
		return nil, err
	}
	return Data[T](env)
}

// Data decodes env.Data into a T.
func Data[T any](env *Envelope) (*T, error) {
	if env == nil || !env.HasData() {
		return nil, nil
	}
	out := new(T)
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("%s: decode data: %w", networkErrorMessage, err)}
	}
	return out, nil
}
