// Package jolokia invokes JMX bean operations through a Jolokia agent over HTTP.
package jolokia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jayteealao/gitbean/internal/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultTimeout bounds a single bean invocation.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 32 << 20

// Transport invokes a named operation on a bean with positional arguments.
// It returns the operation's raw JSON value or an error.
type Transport interface {
	Execute(ctx context.Context, mbean, operation string, args ...any) (json.RawMessage, error)
}

// Request is a Jolokia exec request.
type Request struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean"`
	Operation string `json:"operation"`
	Arguments []any  `json:"arguments"`
}

// Response is a Jolokia response envelope.
type Response struct {
	Status     int             `json:"status"`
	Value      json.RawMessage `json:"value,omitempty"`
	Error      string          `json:"error,omitempty"`
	ErrorType  string          `json:"error_type,omitempty"`
	Stacktrace string          `json:"stacktrace,omitempty"`
	Timestamp  int64           `json:"timestamp,omitempty"`
}

// RemoteError is an error reported by the agent or the bean itself.
type RemoteError struct {
	Status  int
	Type    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("jolokia status %d: %s: %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("jolokia status %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match remote failures with errors.Is(err, ErrRemote).
func (e *RemoteError) Unwrap() error {
	return errors.ErrRemote
}

// Client talks to a single Jolokia agent endpoint.
type Client struct {
	url      string
	username string
	password string
	headers  map[string]string
	client   *http.Client
	log      logrus.FieldLogger
}

// Ensure Client implements Transport
var _ Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithBasicAuth authenticates every request with HTTP basic auth.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithOAuth2 obtains bearer tokens with the client-credentials grant.
// The token source is bound to ctx for token refreshes.
func WithOAuth2(ctx context.Context, cfg *clientcredentials.Config) Option {
	return func(c *Client) {
		timeout := c.client.Timeout
		c.client = oauth2.NewClient(ctx, cfg.TokenSource(ctx))
		c.client.Timeout = timeout
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for the agent at url, e.g. http://host:8181/jolokia.
func New(url string, opts ...Option) *Client {
	c := &Client{
		url:    url,
		client: &http.Client{Timeout: DefaultTimeout},
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the agent endpoint.
func (c *Client) URL() string {
	return c.url
}

// Execute runs operation on mbean. Network failures, non-2xx HTTP
// statuses and undecodable bodies wrap ErrTransport; errors reported in the
// Jolokia envelope are returned as *RemoteError. Nothing is retried.
func (c *Client) Execute(ctx context.Context, mbean, operation string, args ...any) (json.RawMessage, error) {
	if args == nil {
		args = []any{}
	}
	reqID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"request_id": reqID,
		"mbean":      mbean,
		"operation":  operation,
	})

	body, err := json.Marshal(Request{
		Type:      "exec",
		MBean:     mbean,
		Operation: operation,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", errors.ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", errors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	log.Debug("invoking bean operation")

	resp, err := c.client.Do(req)
	if err != nil {
		log.WithError(err).Debug("bean invocation failed")
		return nil, fmt.Errorf("%w: %v", errors.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", errors.ErrTransport, err)
	}

	log = log.WithFields(logrus.Fields{
		"http_status": resp.StatusCode,
		"duration":    time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug("agent returned HTTP error")
		return nil, fmt.Errorf("%w: agent returned HTTP status %d", errors.ErrTransport, resp.StatusCode)
	}

	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", errors.ErrTransport, err)
	}

	if r.Status != http.StatusOK {
		log.WithField("error_type", r.ErrorType).Debug("bean operation failed")
		return nil, &RemoteError{Status: r.Status, Type: r.ErrorType, Message: r.Error}
	}

	log.Debug("bean operation succeeded")
	if len(r.Value) == 0 {
		return json.RawMessage("null"), nil
	}
	return r.Value, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
