package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20
)

// HTTPClient is the shared transport. It is safe for concurrent use.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func(token string)
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for per-call debug lines.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient returns a transport for the API rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken makes token the credential attached to subsequent calls.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the credential.
func (c *HTTPClient) ClearToken() {
	c.SetToken("")
}

// Token returns the current credential, or "".
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers fn to be called with the credential of any
// request rejected with 401/403. Only one handler is kept.
func (c *HTTPClient) OnUnauthorized(fn func(token string)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *HTTPClient) notifyUnauthorized(token string) {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn(token)
	}
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type call struct {
	method    string
	path      string
	query     url.Values
	body      any
	out       any
	anonymous bool
}

func (c *HTTPClient) do(ctx context.Context, cl call) error {
	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeaderName, requestID)

	var token string
	if !cl.anonymous {
		token = c.Token()
		if token != "" {
			req.Header.Set(common.AuthorizationHeaderName, common.BearerValue(token))
		}
	}

	log := c.logger.With("method", cl.method, "path", cl.path, "request_id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug(ctx, "api call failed", "error", err, "duration", time.Since(start))
		return networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return networkError(err)
	}
	log.Debug(ctx, "api call", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp.StatusCode, data)
		if apiErr.Kind == ErrAuth && token != "" {
			c.notifyUnauthorized(token)
		}
		return apiErr
	}

	if cl.out == nil {
		return nil
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return malformedResponse(resp.StatusCode, err)
	}
	return nil
}
