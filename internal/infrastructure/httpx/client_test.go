package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/logger"
)

func newTestClient(t *testing.T) *Client {
	return New(logger.Test(t), WithRetryDelays(time.Millisecond, time.Millisecond))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	var out struct{ OK bool }
	require.NoError(t, newTestClient(t).GetJSON(context.Background(), srv.URL, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(t).Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, entity.ErrUpstream)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusUnauthorized, serr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t).Get(context.Background(), srv.URL)
	require.ErrorIs(t, err, entity.ErrUpstream)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"echo":"hi"}`))
	}))
	defer srv.Close()

	var out struct{ Echo string }
	require.NoError(t, newTestClient(t).PostJSON(context.Background(), srv.URL, map[string]string{"a": "b"}, &out))
	assert.Equal(t, "hi", out.Echo)
}

func TestClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`nope`))
	}))
	defer srv.Close()

	var out struct{}
	err := newTestClient(t).GetJSON(context.Background(), srv.URL, &out)
	require.ErrorIs(t, err, entity.ErrUpstream)
}

func TestRetry(t *testing.T) {
	n := 0
	v, err := Retry(context.Background(), func(context.Context) (int, error) {
		n++
		if n < 2 {
			return 0, errors.New("flaky")
		}
		return 42, nil
	}, RetryOpts(context.Background(), []time.Duration{time.Millisecond})...)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
