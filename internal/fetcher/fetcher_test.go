package fetcher_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PioneersHub/pytanis-go/internal/fetcher"
	"github.com/PioneersHub/pytanis-go/internal/ratelimit"
	"github.com/PioneersHub/pytanis-go/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) fetcher.Config {
	return fetcher.Config{
		BaseURL: baseURL,
		Token:   "secret",
		Retry: fetcher.RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  time.Millisecond,
			MaxDelay:      5 * time.Millisecond,
			BackoffFactor: 2,
		},
		RateLimit: ratelimit.Config{RatePerSecond: 1000, Burst: 1000},
	}
}

func TestGetSetsAuthAndVersionHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "v1", r.Header.Get("Accept-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(srv.URL), nil)
	body, err := f.Get(context.Background(), "/me", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetRetriesOn503ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(srv.URL), nil)
	body, err := f.Get(context.Background(), "/talks/", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls)
}

func TestGetFailsFastOn400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad filter"))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(srv.URL), nil)
	_, err := f.Get(context.Background(), "/talks/", nil)
	require.Error(t, err)
	var clientErr *wire.UpstreamClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, http.StatusBadRequest, clientErr.Status)
}

func TestGetReturnsNotFoundOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(srv.URL), nil)
	_, err := f.Get(context.Background(), "/talks/9999/", nil)
	require.Error(t, err)
	assert.True(t, wire.IsNotFound(err))
}

func TestGetFailsAfterMaxRetriesOn429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(srv.URL), nil)
	_, err := f.Get(context.Background(), "/talks/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, wire.ErrUnavailable)
}

func TestGetHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	f := fetcher.New(testConfig(srv.URL), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := f.Get(ctx, "/talks/", nil)
	require.Error(t, err)
}

func TestGetHonorsPerRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 5 * time.Millisecond
	cfg.Retry.MaxAttempts = 1
	f := fetcher.New(cfg, nil)
	_, err := f.Get(context.Background(), "/talks/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, wire.ErrTimeout)
}

func ExampleFetcher_Get() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count":1}`))
	}))
	defer srv.Close()

	f := fetcher.New(testConfig(srv.URL), nil)
	body, _ := f.Get(context.Background(), "/submissions/", nil)
	fmt.Println(string(body))
	// Output: {"count":1}
}
