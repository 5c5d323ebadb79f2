package httpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"automark_backend/internals/configs"
)

const defaultTimeout = 30 * time.Second

// maxBodyBytes membatasi body yang dibaca ke memori (PDF maks 16MB + margin).
const maxBodyBytes = 64 << 20

type Client struct {
	httpClient *http.Client
	policy     Policy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithPolicy(p Policy) Option {
	return func(c *Client) { c.policy = p }
}

func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) { c.policy.Sleeper = sleeper }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		policy:     DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func NewFromConfig(cfg configs.HTTPConfig, opts ...Option) *Client {
	all := append([]Option{WithPolicy(PolicyFromConfig(cfg))}, opts...)
	return NewClient(cfg.Timeout, all...)
}

func (c *Client) Policy() Policy { return c.policy }

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do: build dipanggil ulang tiap percobaan supaya body request selalu baru.
func (c *Client) Do(ctx context.Context, op string, build func(ctx context.Context) (*http.Request, error)) (*Response, error) {
	var out *Response
	err := Retry(ctx, c.policy, op, func(ctx context.Context, _ int) error {
		req, err := build(ctx)
		if err != nil {
			return fmt.Errorf("%s: build request: %w", op, err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return Transient(fmt.Errorf("%s: read body: %w", op, err))
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return &StatusError{
				StatusCode: resp.StatusCode,
				Body:       string(body),
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}
		out = &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get mengunduh URL dan mengembalikan body mentah.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	resp, err := c.Do(ctx, "GET "+rawURL, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
