package apiclient

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

	"github.com/google/uuid"

	"rentoo/internal/logger"
	"rentoo/internal/metrics"
)

const (
	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"

	// LoginPath is the credential exchange endpoint. A 401 from it means bad
	// credentials rather than an expired session.
	LoginPath = "/api/auth/login"
)

// TokenSource supplies the bearer credential attached to outbound calls.
type TokenSource interface {
	AccessToken() string
}

// UnauthorizedHandler is the single process-wide reaction to a 401 response.
type UnauthorizedHandler interface {
	HandleUnauthorized(endpoint string)
}

// Handler sends one prepared request.
type Handler func(req *http.Request) (*http.Response, error)

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Request describes one API call relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is encoded as JSON when set.
	Body any
	// RawBody is sent verbatim with ContentType; takes precedence over Body.
	RawBody     io.Reader
	ContentType string
}

// Response is a successful (2xx) API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type endpointKey struct{}

// endpointOf returns the API path a request was issued for.
func endpointOf(req *http.Request) string {
	if ep, ok := req.Context().Value(endpointKey{}).(string); ok {
		return ep
	}
	return req.URL.Path
}

// Pipeline is the shared request path every API call goes through.
type Pipeline struct {
	baseURL    *url.URL
	httpClient *http.Client
	metrics    *metrics.Client

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler

	handler Handler
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.httpClient = c }
}

// WithTimeout sets the per-call timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.httpClient.Timeout = d }
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Client) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// NewPipeline creates the pipeline for the API at baseURL.
func NewPipeline(baseURL string, opts ...Option) (*Pipeline, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host are required", baseURL)
	}

	p := &Pipeline{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}

	p.handler = chain(p.send,
		p.requestID,
		p.bearer,
		p.unauthorized,
		p.observe,
	)
	return p, nil
}

// Bind installs the credential source and the 401 policy. The session store
// is usually both, and is created after the pipeline it depends on.
func (p *Pipeline) Bind(tokens TokenSource, onUnauthorized UnauthorizedHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = tokens
	p.onUnauthorized = onUnauthorized
}

// BaseURL returns the API root the pipeline talks to.
func (p *Pipeline) BaseURL() string {
	return p.baseURL.String()
}

// Do sends req and returns the response for 2xx statuses. Other statuses
// become *FieldErrors or *APIError; transport failures become *NetworkError.
func (p *Pipeline) Do(ctx context.Context, r Request) (*Response, error) {
	httpReq, err := p.build(ctx, r)
	if err != nil {
		return nil, err
	}

	resp, err := p.handler(httpReq)
	if err != nil {
		return nil, &NetworkError{Method: r.Method, Path: r.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: r.Method, Path: r.Path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, body)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (p *Pipeline) build(ctx context.Context, r Request) (*http.Request, error) {
	u := *p.baseURL
	u.Path = p.baseURL.Path + r.Path
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}

	var body io.Reader
	contentType := ""
	switch {
	case r.RawBody != nil:
		body = r.RawBody
		contentType = r.ContentType
	case r.Body != nil:
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	ctx = context.WithValue(ctx, endpointKey{}, r.Path)
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (p *Pipeline) send(req *http.Request) (*http.Response, error) {
	return p.httpClient.Do(req)
}

func chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (p *Pipeline) requestID(next Handler) Handler {
	return func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(HeaderRequestID) == "" {
			req.Header.Set(HeaderRequestID, uuid.NewString())
		}
		return next(req)
	}
}

func (p *Pipeline) bearer(next Handler) Handler {
	return func(req *http.Request) (*http.Response, error) {
		p.mu.RLock()
		tokens := p.tokens
		p.mu.RUnlock()

		if tokens != nil {
			if token := tokens.AccessToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
		return next(req)
	}
}

// unauthorized hands every 401 to the bound handler together with the
// endpoint that produced it, so the handler can tell a failed login apart.
func (p *Pipeline) unauthorized(next Handler) Handler {
	return func(req *http.Request) (*http.Response, error) {
		resp, err := next(req)
		if err != nil || resp.StatusCode != http.StatusUnauthorized {
			return resp, err
		}

		endpoint := endpointOf(req)
		p.mu.RLock()
		handler := p.onUnauthorized
		p.mu.RUnlock()
		if handler != nil {
			handler.HandleUnauthorized(endpoint)
		}
		return resp, nil
	}
}

func (p *Pipeline) observe(next Handler) Handler {
	return func(req *http.Request) (*http.Response, error) {
		endpoint := endpointOf(req)
		logger.APICall(req.Method, endpoint, req.Header.Get(HeaderRequestID))
		start := time.Now()

		resp, err := next(req)

		status := 0
		outcome := "ok"
		switch {
		case err != nil:
			outcome = "network_error"
		case resp.StatusCode == http.StatusUnauthorized:
			status = resp.StatusCode
			outcome = "unauthorized"
		case resp.StatusCode >= 400:
			status = resp.StatusCode
			outcome = "http_error"
		default:
			status = resp.StatusCode
		}
		logger.APIResult(req.Method, endpoint, status, time.Since(start), err)
		p.metrics.IncrementRequest(req.Method, metricEndpoint(endpoint), outcome)
		return resp, err
	}
}

// metricEndpoint collapses identifiers out of a path to keep label cardinality bounded.
func metricEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if i < 3 || part == "" {
			continue
		}
		switch part {
		case "my", "images", "confirm", "complete", "read", "rental", "login", "register", "me":
			continue
		}
		parts[i] = "{id}"
	}
	return strings.Join(parts, "/")
}
