package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/httpx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	// RetryWait is the initial backoff between GET retries.
	RetryWait time.Duration
}

// Client talks to the CertifyTrack REST API. Every call returns either the decoded payload or an
// error: *apierr.Error for API failures, *TransportError for everything else.
type Client struct {
	log  *logger.Logger
	http *resty.Client

	mu    sync.RWMutex
	token string
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("missing api base url")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", base, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}

	c := &Client{log: log.With("service", "APIClient")}
	c.http = resty.New().
		SetBaseURL(base).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(retryable).
		AddRetryHook(func(resp *resty.Response, err error) {
			status := 0
			if resp != nil {
				status = resp.StatusCode()
			}
			c.log.Warn("API request retrying", "status", status, "error", err)
		})
	return c, nil
}

// retryable limits retries to GETs that failed in a way a second attempt could fix.
func retryable(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return httpx.IsRetryableError(err)
	}
	return httpx.IsRetryableHTTPStatus(resp.StatusCode())
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = strings.TrimSpace(token)
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Raw fetches a non-JSON resource such as the certificate PNG.
func (c *Client) Raw(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := c.request(ctx).SetHeader("Accept", "*/*").Get(path)
	if err != nil {
		return nil, "", &TransportError{Method: http.MethodGet, Path: path, Err: err}
	}
	if resp.IsError() {
		_, apiErr := unwrap(resp.StatusCode(), resp.Body())
		if apiErr == nil {
			apiErr = fmt.Errorf("unexpected status")
		}
		return nil, "", c.classify(http.MethodGet, path, resp.StatusCode(), apiErr)
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

// UploadFile posts r as the multipart field "file".
func (c *Client) UploadFile(ctx context.Context, path, filename string, r io.Reader, out any) error {
	resp, err := c.request(ctx).SetFileReader("file", filename, r).Post(path)
	if err != nil {
		return &TransportError{Method: http.MethodPost, Path: path, Err: err}
	}
	return c.decode(http.MethodPost, path, resp, out)
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if tok := c.Token(); tok != "" {
		req.SetAuthToken(tok)
	}
	return req
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req := c.request(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Debug("API request failed", "method", method, "path", path, "error", err)
		return &TransportError{Method: method, Path: path, Err: err}
	}
	return c.decode(method, path, resp, out)
}

func (c *Client) decode(method, path string, resp *resty.Response, out any) error {
	payload, err := unwrap(resp.StatusCode(), resp.Body())
	if err != nil {
		return c.classify(method, path, resp.StatusCode(), err)
	}
	if out == nil || len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &TransportError{Method: method, Path: path, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classify passes API errors through and wraps anything else as a transport failure.
func (c *Client) classify(method, path string, status int, err error) error {
	if _, ok := apierr.As(err); ok {
		return err
	}
	return &TransportError{Method: method, Path: path, Status: status, Err: err}
}
