package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Skotchmaster/mobileshop/pkg/logging"
)

const maxBodyBytes = 4 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[rawResponse]
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBreaker trips after failures consecutive transport errors and keeps
// failing fast for cooldown. HTTP error statuses never count as failures.
func WithBreaker(failures int, cooldown time.Duration) Option {
	return func(c *Client) {
		if failures <= 0 {
			c.breaker = nil
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker[rawResponse](gobreaker.Settings{
			Name:        "backend-api",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(failures)
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Options describe one backend call. Empty query values are not serialized;
// Headers are merged over the JSON defaults.
type Options struct {
	Method  string
	Query   map[string]string
	Headers map[string]string
	Body    any
}

type rawResponse struct {
	status int
	body   []byte
}

// Do issues the call and decodes a 2xx JSON body into out (which may be nil).
// Non-2xx responses fail with *Error; transport failures wrap
// ErrNetworkUnavailable. There is no retry.
func (c *Client) Do(ctx context.Context, path string, opts Options, out any) error {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil {
		buf, err := json.Marshal(opts.Body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, opts.Query), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Pragma", "no-cache")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	l := logging.FromContext(ctx).With("svc", "apiclient", "method", method, "api_path", path)
	start := time.Now()

	raw, err := c.roundTrip(req)
	if err != nil {
		l.Warn("api_call_failed", "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return err
	}
	l.Debug("api_call", "status", raw.status, "duration_ms", time.Since(start).Milliseconds())

	if raw.status < 200 || raw.status > 299 {
		return &Error{Status: raw.status, Body: string(raw.body), Path: path}
	}
	if out == nil || raw.status == http.StatusNoContent || len(bytes.TrimSpace(raw.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) roundTrip(req *http.Request) (rawResponse, error) {
	if c.breaker == nil {
		return c.send(req)
	}
	raw, err := c.breaker.Execute(func() (rawResponse, error) { return c.send(req) })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return rawResponse{}, fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	}
	return raw, err
}

func (c *Client) send(req *http.Request) (rawResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return rawResponse{}, ctxErr
		}
		return rawResponse{}, fmt.Errorf("%w: %w", ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return rawResponse{}, fmt.Errorf("%w: read body: %w", ErrNetworkUnavailable, err)
	}
	return rawResponse{status: resp.StatusCode, body: b}, nil
}

func (c *Client) buildURL(path string, query map[string]string) string {
	u := c.baseURL + path
	if len(query) == 0 {
		return u
	}
	keys := make([]string, 0, len(query))
	for k, v := range query {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return u
	}
	sort.Strings(keys)
	vals := url.Values{}
	for _, k := range keys {
		vals.Set(k, query[k])
	}
	return u + "?" + vals.Encode()
}

// Get is Request with the GET method.
func Get[T any](ctx context.Context, c *Client, path string, opts Options) (T, error) {
	opts.Method = http.MethodGet
	return Request[T](ctx, c, path, opts)
}

func Request[T any](ctx context.Context, c *Client, path string, opts Options) (T, error) {
	var out T
	if err := c.Do(ctx, path, opts, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
