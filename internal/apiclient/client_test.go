package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_QueryHeadersAndBody(t *testing.T) {
	t.Parallel()

	var seen *http.Request
	var seenBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Clone(context.Background())
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &seenBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.Do(context.Background(), "/api/cart/items/", Options{
		Method:  http.MethodPost,
		Query:   map[string]string{"page": "2", "search": "", "brand": "apple"},
		Headers: map[string]string{"X-Cart-Session": "sess-1", "Content-Type": "application/json; charset=utf-8"},
		Body:    map[string]int{"quantity": 1},
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)

	require.NotNil(t, seen)
	assert.Equal(t, http.MethodPost, seen.Method)
	assert.Equal(t, "/api/cart/items/", seen.URL.Path)
	assert.Equal(t, "brand=apple&page=2", seen.URL.RawQuery)
	assert.Equal(t, "sess-1", seen.Header.Get("X-Cart-Session"))
	assert.Equal(t, "application/json; charset=utf-8", seen.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", seen.Header.Get("Cache-Control"))
	assert.Equal(t, float64(1), seenBody["quantity"])
}

func TestDo_NonSuccessReturnsAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Cart is empty."}`))
	}))
	defer srv.Close()

	_, err := Get[map[string]any](context.Background(), New(srv.URL), "/api/orders/checkout/", Options{})
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Body, "Cart is empty.")
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestDo_NoContentIsSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	err := New(srv.URL).Do(context.Background(), "/api/cart/items/1/", Options{Method: http.MethodDelete}, &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDo_NoRetryOnFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL).Do(context.Background(), "/api/cart/", Options{}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_TransportFailureIsNetworkUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url).Do(context.Background(), "/api/cart/", Options{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.Equal(t, 0, StatusOf(err))
}

func TestDo_BreakerFailsFastAfterTrips(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, WithBreaker(2, time.Minute))
	for i := 0; i < 2; i++ {
		require.ErrorIs(t, c.Do(context.Background(), "/x", Options{}, nil), ErrNetworkUnavailable)
	}

	err := c.Do(context.Background(), "/x", Options{}, nil)
	require.ErrorIs(t, err, ErrNetworkUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestDo_BreakerIgnoresHTTPErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, WithBreaker(1, time.Minute))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusServiceUnavailable, StatusOf(c.Do(context.Background(), "/x", Options{}, nil)))
	}
	assert.Equal(t, int32(3), calls.Load())
}
