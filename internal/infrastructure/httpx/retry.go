// Package httpx: HTTP-клиент внешних сервисов с повторами.
package httpx

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
)

var (
	defaultRetryDelays  = []time.Duration{200 * time.Millisecond, time.Second, 3 * time.Second}
	retryContextTimeout = 15 * time.Second
)

// RetryOpts: повторы с нарастающими задержками, пока жив ctx.
func RetryOpts(ctx context.Context, delays []time.Duration) []retry.Option {
	if len(delays) == 0 {
		delays = defaultRetryDelays
	}
	return []retry.Option{
		retry.Context(ctx),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return delays[min(int(n), len(delays)-1)]
		}),
		retry.Attempts(uint(len(delays) + 1)),
		retry.LastErrorOnly(true),
	}
}

type retryCallback[T any] func(ctx context.Context) (T, error)

// Retry вызывает callback с таймаутом на каждую попытку.
// Ошибки, обёрнутые retry.Unrecoverable, не повторяются.
func Retry[T any](ctx context.Context, callback retryCallback[T], opts ...retry.Option) (T, error) {
	var returnValue T

	err := retry.Do(func() error {
		rctx, cancel := context.WithTimeout(ctx, retryContextTimeout)
		defer cancel()

		v, err := callback(rctx)
		if err != nil {
			return err
		}
		returnValue = v
		return nil
	}, append(RetryOpts(ctx, nil), opts...)...)

	return returnValue, err
}
