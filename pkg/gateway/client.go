package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/comigor/jack-go/internal/config"
	"github.com/comigor/jack-go/internal/logger"
)

// Endpoint is the path of a question-answering route on the backend.
type Endpoint string

const (
	// EndpointAsk is the main retrieval + answer pipeline.
	EndpointAsk Endpoint = "/ask"
	// EndpointAskNuclia is the secondary backend variant.
	EndpointAskNuclia Endpoint = "/ask-nuclia"
)

// ParseEndpoint accepts a bare name ("ask", "ask-nuclia") or a path.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return EndpointAsk, nil
	case strings.HasPrefix(s, "/"):
		return Endpoint(s), nil
	case s == "ask", s == "ask-nuclia":
		return Endpoint("/" + s), nil
	}
	return "", fmt.Errorf("unknown endpoint %q", s)
}

const (
	maxAnswerBytes = 8 << 20
	maxErrorBytes  = 64 << 10
)

// ErrResourceTooLarge is returned by FetchResource when the payload exceeds
// the caller's limit.
var ErrResourceTooLarge = errors.New("resource exceeds size limit")

// Client is a client for the Jack AI backend API
type Client struct {
	cfg    config.APIConfig
	client *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a new Client
func NewClient(cfg config.APIConfig, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c := &Client{
		cfg:    cfg,
		client: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address requests are sent to.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}

// CheckHealth probes GET /health. It reports true only for a 2xx response;
// every failure, including a cancelled context, reads as unavailable.
func (c *Client) CheckHealth(ctx context.Context) bool {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		logger.L.Warn("health request build failed", "error", err)
		return false
	}

	resp, err := c.client.Do(req)
	if err != nil {
		logger.L.Debug("health probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBytes))

	logger.L.Debug("health probe", "status", resp.StatusCode)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Ask submits a question to the given endpoint. A non-2xx response becomes
// an *Error carrying the backend's detail message; a 2xx body that cannot be
// understood yields an empty Answer rather than an error.
func (c *Client) Ask(ctx context.Context, endpoint Endpoint, question string) (*Answer, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	body, err := json.Marshal(NewAskRequest(question))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+string(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		logger.L.Warn("ask request failed", "endpoint", endpoint, "error", err)
		return nil, transportError("ask", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := statusError(resp)
		logger.L.Warn("ask rejected by backend", "endpoint", endpoint, "status", resp.StatusCode, "detail", gwErr.Message)
		return nil, gwErr
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerBytes+1))
	if err != nil {
		return nil, transportError("ask", err)
	}
	if len(raw) > maxAnswerBytes {
		logger.L.Warn("answer too large", "endpoint", endpoint, "limit_bytes", maxAnswerBytes)
		return &Answer{}, nil
	}

	answer := ParseAnswer(raw)
	logger.L.Debug("ask answered", "endpoint", endpoint, "sources", len(answer.Sources), "elapsed", time.Since(started))
	return answer, nil
}

// ResourceURL is the backend address of a resource's original file.
func (c *Client) ResourceURL(id string) string {
	return fmt.Sprintf("%s/resources/%s/file", c.cfg.BaseURL, url.PathEscape(id))
}

// FetchResource downloads a resource's original file (usually a PDF),
// reading at most limit bytes; limit <= 0 means unbounded.
func (c *Client) FetchResource(ctx context.Context, id string, limit int64) (*Resource, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResourceURL(id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, transportError("fetch resource", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var r io.Reader = resp.Body
	if limit > 0 {
		r = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, transportError("fetch resource", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("resource %s: %w (%d bytes)", id, ErrResourceTooLarge, limit)
	}

	return &Resource{
		ID:          id,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// statusError builds the error for a non-2xx response, preferring the
// backend's {"detail": "..."} message over a generic "HTTP <status>".
func statusError(resp *http.Response) *Error {
	gwErr := &Error{
		Kind:    KindBackend,
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	if err != nil || len(raw) == 0 {
		return gwErr
	}
	var body struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return gwErr
	}
	if detail, ok := body.Detail.(string); ok && detail != "" {
		gwErr.Message = detail
	}
	return gwErr
}
