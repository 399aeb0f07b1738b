package docqa

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
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 64 << 10
)

// Client talks to a docqa server over HTTP. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	obs       *observer
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("docqa: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("docqa: base url %q must be http or https", baseURL)
	}

	cfg := &clientConfig{timeout: defaultTimeout, userAgent: "docqa-go"}
	for _, o := range opts {
		o.apply(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	return &Client{baseURL: u, http: hc, userAgent: cfg.userAgent, obs: obs}, nil
}

// Ask sends a question and returns the answer or the server's abstention.
func (c *Client) Ask(ctx context.Context, req AskRequest) (_ Answer, err error) {
	defer func(start time.Time) { c.obs.observe("ask", start, err) }(time.Now())

	if strings.TrimSpace(req.Query) == "" {
		return Answer{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Answer{}, fmt.Errorf("docqa: encode request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/ask", body)
	if err != nil {
		return Answer{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Answer{}, decodeError(resp)
	}
	var ans Answer
	if err := json.NewDecoder(resp.Body).Decode(&ans); err != nil {
		return Answer{}, fmt.Errorf("docqa: decode answer: %w", err)
	}
	return ans, nil
}

// Health fetches the server health report. A degraded or failing server
// answers 503 with a report body; that is returned without error.
func (c *Client) Health(ctx context.Context) (_ HealthStatus, err error) {
	defer func(start time.Time) { c.obs.observe("health", start, err) }(time.Now())

	resp, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return HealthStatus{}, decodeError(resp)
	}
	var hs HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&hs); err != nil || hs.Status == "" {
		return HealthStatus{}, &APIError{StatusCode: resp.StatusCode, Message: "malformed health report"}
	}
	return hs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, rd)
	if err != nil {
		return nil, fmt.Errorf("docqa: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docqa: %s %s: %w", method, path, err)
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

// IsTemporary reports whether a retry may succeed.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrRetrievalUnavailable) || errors.Is(err, ErrEmbeddingProviderError)
}
