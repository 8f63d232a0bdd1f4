// Package api is the HTTP gateway to the remote catalog service. It attaches
// the current session token as a bearer credential to every outbound call;
// endpoints that need no token (login, register) simply see no header.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitrinecli/vitrine/internal/errs"
)

const (
	headerContentType = "Content-Type"
	headerClientID    = "X-Client-Id"
	contentTypeJSON   = "application/json"
)

// TokenSource supplies the current bearer token. An empty string means the
// request proceeds unauthenticated.
type TokenSource interface {
	Token() string
}

// Client performs authenticated HTTP calls against the catalog service.
// A rejection (401) is surfaced to the caller as errs.ErrUnauthorized; the
// client never clears the session itself.
type Client struct {
	baseURL  string
	httpc    *http.Client
	tokens   TokenSource
	limiter  *rate.Limiter
	clientID string
	log      *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (timeouts, transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithLogger attaches a structured logger for request-level debug output.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit caps outbound request throughput. Catalog services throttle
// aggressively; pacing on our side turns hard 429s into short waits.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// NewClient builds a Client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		httpc:    &http.Client{Timeout: 15 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(10), 20),
		clientID: uuid.New().String(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource wires the session store in after construction. The store
// needs the client to perform login, and the client needs the store for the
// token, so the wiring is two-phase.
func (c *Client) SetTokenSource(ts TokenSource) { c.tokens = ts }

// do performs a JSON request and decodes the response into result (when
// non-nil). query may be nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	contentType := ""
	if body != nil {
		contentType = contentTypeJSON
	}
	return c.roundTrip(ctx, method, path, query, bodyReader, contentType, result)
}

// roundTrip is the shared request path for JSON and multipart calls.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &errs.TransportError{Op: method + " " + path, Err: err}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set(headerContentType, contentType)
	}
	req.Header.Set(headerClientID, c.clientID)
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return &errs.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.TransportError{Op: method + " " + path, Err: err}
	}

	c.log.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return parseError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// get performs a GET request.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs a POST request with a JSON body.
func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, result)
}

// patch performs a PATCH request with a JSON body.
func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, result)
}

// put performs a PUT request with a JSON body.
func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, result)
}

// delete performs a DELETE request.
func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// postMultipart sends form fields plus one file part named "thumbnail".
func (c *Client) postMultipart(ctx context.Context, method, path string, fields map[string]string, filename string, file io.Reader, result any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("thumbnail", filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}
	return c.roundTrip(ctx, method, path, nil, &buf, w.FormDataContentType(), result)
}

// parseError maps a non-2xx response onto a RemoteError, keeping the
// structured message when the body carries one.
func parseError(status int, body []byte) error {
	remote := &errs.RemoteError{Status: status}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		remote.Code = envelope.Code
		switch {
		case envelope.Message != "":
			remote.Message = envelope.Message
		case envelope.Error != "":
			remote.Message = envelope.Error
		}
	}
	return remote
}
