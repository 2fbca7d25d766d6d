package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stylehub/storefront/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const sessionHeader = "X-Session-ID"

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// ErrUnavailable is returned while the circuit to a service is open.
var ErrUnavailable = errors.New("service temporarily unavailable")

// SessionFunc supplies the session id sent with every request.
type SessionFunc func(ctx context.Context) (string, error)

type Option func(*client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *client) { cl.http = c }
}

func WithSession(fn SessionFunc) Option {
	return func(cl *client) { cl.session = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(cl *client) { cl.log = log }
}

// NewHTTPClient returns an instrumented client whose transport opens a
// circuit after repeated failures against the named service.
func NewHTTPClient(name string, log *zap.Logger) *http.Client {
	breaker := circuitbreaker.NewTransport(http.DefaultTransport, circuitbreaker.DefaultSettings(name), log)
	return &http.Client{Transport: otelhttp.NewTransport(breaker)}
}

type client struct {
	name    string
	baseURL string
	http    *http.Client
	session SessionFunc
	log     *zap.Logger
}

func newClient(name, baseURL string, opts ...Option) *client {
	c := &client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(name, c.log)
	}
	return c
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become *StatusError carrying the server's error text; the raw
// body is returned as well so callers can inspect it.
func (c *client) do(ctx context.Context, method, path string, body, out interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		sessionID, err := c.session(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve session: %w", err)
		}
		req.Header.Set(sessionHeader, sessionID)
	}

	resp, err := c.http.Do(req)
	if circuitbreaker.IsOpen(err) {
		return nil, fmt.Errorf("%s: %w", c.name, ErrUnavailable)
	}
	if err != nil {
		c.log.Warn("remote request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		_ = json.Unmarshal(raw, &env)
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return raw, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("decode response: %w", err)
		}
	}
	return raw, nil
}
