package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

// maxBody ограничивает размер ответа внешнего сервиса.
const maxBody = 16 << 20

// StatusError: ответ внешнего сервиса с кодом не 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return entity.ErrUpstream }

// Client выполняет запросы с повторами. Ответы 4xx не повторяются.
type Client struct {
	lggr   logger.Logger
	http   *http.Client
	delays []time.Duration
}

// Option настраивает клиента.
type Option func(*Client)

// WithHTTPClient подменяет *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetryDelays задаёт задержки между попытками; их число определяет число повторов.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(c *Client) { c.delays = delays }
}

// New создаёт клиента.
func New(lggr logger.Logger, opts ...Option) *Client {
	c := &Client{
		lggr: lggr,
		http: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do выполняет запрос, построенный build, и возвращает тело ответа.
func (c *Client) Do(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	body, err := Retry(ctx, func(ctx context.Context) ([]byte, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, retry.Unrecoverable(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", entity.ErrUpstream, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %w", entity.ErrUpstream, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			serr := &StatusError{Code: resp.StatusCode, Body: truncate(string(raw), 256)}
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, retry.Unrecoverable(serr)
			}
			return nil, serr
		}
		return raw, nil
	}, append(RetryOpts(ctx, c.delays), retry.OnRetry(func(n uint, err error) {
		c.lggr.Debugw("Retrying upstream request", "attempt", n+1, "err", err)
	}))...)
	return body, err
}

// GetJSON выполняет GET и декодирует JSON-ответ в out.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	raw, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", entity.ErrUpstream, err)
	}
	return nil
}

// PostJSON отправляет in как JSON и декодирует ответ в out.
func (c *Client) PostJSON(ctx context.Context, url string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	raw, err := c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", entity.ErrUpstream, err)
	}
	return nil
}

// Get выполняет GET и возвращает сырое тело ответа.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
