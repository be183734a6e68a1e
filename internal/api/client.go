// Package api is a typed client for the church finance backend.
package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"offertory/internal/cache"
	"offertory/internal/log"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 5 * time.Minute
	cacheSize       = 128
	maxErrorBody    = 4 << 10
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Options struct {
	BaseURL string
	Timeout time.Duration
	// RateLimit is requests per second; zero or less disables limiting.
	RateLimit  float64
	CacheTTL   time.Duration
	HTTPClient *http.Client
	Logger     *log.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *cache.LRUCache[[]byte]
	tokens  TokenSource
	logger  *log.Logger
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
		burst = max(1, int(opts.RateLimit))
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		cache:   cache.NewLRUCache[[]byte](cacheSize, ttl),
		logger:  logger.WithComponent(log.ComponentAPI),
	}, nil
}

// WithTokens returns a copy that authenticates with ts. The copy shares the
// HTTP client, rate limiter and cache with c.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

// Cache exposes the response cache so it can be registered for cleanup.
func (c *Client) Cache() *cache.LRUCache[[]byte] { return c.cache }

// Purge drops every cached response. Call it when the signed-in user changes.
func (c *Client) Purge() { c.cache.Purge() }

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// upload is sent as multipart/form-data instead of a JSON body.
	upload *upload
	// token overrides the token source when set.
	token string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, body)
		return nil
	}
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	return nil
}

// cached serves GET requests from the response cache when possible.
// Entries are scoped to the bearer token, so copies from WithTokens never
// see each other's responses.
func (c *Client) cached(ctx context.Context, req request, out any) error {
	key := cacheKey(c.token(req), req)
	if data, ok := c.cache.Get(key); ok {
		c.logger.DebugContext(ctx, "Cache hit", log.FieldPath, key)
		return json.Unmarshal(data, out)
	}

	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read %s: %w", req.path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.method, req.path, err)
	}
	c.cache.Set(key, data)
	return nil
}

// send performs the request and returns the body of a 2xx response.
func (c *Client) send(ctx context.Context, req request) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	target := req.path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch {
	case req.upload != nil:
		b, ct, err := req.upload.encode()
		if err != nil {
			return nil, fmt.Errorf("encode upload: %w", err)
		}
		reader, contentType = bytes.NewReader(b), ct
	case req.body != nil:
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader, contentType = bytes.NewReader(b), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token := c.token(req); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "Backend request failed",
			log.FieldMethod, req.method,
			log.FieldPath, req.path,
			log.FieldRequestID, requestID,
			log.FieldError, err)
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}

	c.logger.DebugContext(ctx, "Backend request",
		log.FieldMethod, req.method,
		log.FieldPath, req.path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds(),
		log.FieldRequestID, requestID)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, newAPIError(req.method, req.path, resp.StatusCode, raw)
}

func (c *Client) token(req request) string {
	if req.token != "" {
		return req.token
	}
	if c.tokens != nil {
		return c.tokens.Token()
	}
	return ""
}

func cacheKey(token string, req request) string {
	sum := sha256.Sum256([]byte(token))
	key := hex.EncodeToString(sum[:8]) + " " + req.path
	if len(req.query) > 0 {
		key += "?" + req.query.Encode()
	}
	return key
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
