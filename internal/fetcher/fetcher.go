// Package fetcher implements the paginated, rate-limit-aware, version-pinned
// HTTP client at the bottom of the upstream client stack. It knows nothing
// about conference domain types; it speaks in raw JSON bytes and the
// {count, next, previous, results} envelope shape.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PioneersHub/pytanis-go/internal/ratelimit"
	"github.com/PioneersHub/pytanis-go/internal/wire"
	"github.com/PioneersHub/pytanis-go/pkg/logger"
	"github.com/PioneersHub/pytanis-go/pkg/resilience"
	"github.com/PioneersHub/pytanis-go/pkg/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RetryConfig controls the bounded exponential backoff applied to
// retryable failures (HTTP 429 and 5xx). Converted to a
// resilience.RetryConfig and driven through resilience.RetryWithCircuitBreaker;
// 4xx responses other than 429 are wrapped as resilience.Permanent so the
// breaker never counts a caller's own bad request against the upstream.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryConfig holds sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Config configures a Fetcher.
type Config struct {
	BaseURL       string
	Token         string
	Version       string // default "v1"
	VersionHeader string // default "Accept-Version"
	Timeout       time.Duration
	Retry         RetryConfig
	RateLimit     ratelimit.Config
	HTTPClient    *http.Client
	// CircuitBreaker short-circuits attempts once the upstream has
	// failed repeatedly, instead of burning the retry budget on a call
	// already known to be failing. Zero value uses
	// resilience.DefaultCircuitBreakerConfig.
	CircuitBreaker resilience.CircuitBreakerConfig
	// Tracer, when non-nil, receives one span per Get call. A nil Tracer
	// falls back to the process-global OpenTelemetry provider's tracer
	// (a no-op unless the caller registered an exporter), so tracing is
	// always safe to leave unconfigured.
	Tracer trace.Tracer
}

// Fetcher issues GET requests against one upstream, applying auth,
// version-pinning, rate limiting, retries, and per-request deadlines.
type Fetcher struct {
	cfg    Config
	client *http.Client
	bucket *ratelimit.Bucket
	cb     *resilience.CircuitBreaker
	log    logger.Logger
	tracer trace.Tracer
}

// New constructs a Fetcher. cfg.Version defaults to "v1",
// cfg.VersionHeader to "Accept-Version".
func New(cfg Config, log logger.Logger) *Fetcher {
	if cfg.Version == "" {
		cfg.Version = "v1"
	}
	if cfg.VersionHeader == "" {
		cfg.VersionHeader = "Accept-Version"
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseTransport := httpClient.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	instrumented := *httpClient
	instrumented.Transport = otelhttp.NewTransport(baseTransport)
	httpClient = &instrumented
	if log == nil {
		log = logger.NoOpLogger{}
	}
	if cal, ok := log.(logger.ComponentAwareLogger); ok {
		log = cal.WithComponent("fetcher")
	}
	return &Fetcher{
		cfg:    cfg,
		client: httpClient,
		bucket: ratelimit.New(cfg.RateLimit),
		cb:     resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		log:    log,
		tracer: cfg.Tracer,
	}
}

// Envelope is the wire shape of a paginated list response.
type Envelope struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// Get issues a single GET against path with the given query parameters and
// returns the raw response body. path may be absolute (used internally to
// follow a "next" cursor URL) or relative to cfg.BaseURL.
func (f *Fetcher) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, f.tracer, "fetcher.get", attribute.String("path", path))
	body, err := f.get(ctx, path, query)
	telemetry.EndSpan(span, err)
	return body, err
}

func (f *Fetcher) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL, err := f.buildURL(path, query)
	if err != nil {
		return nil, err
	}

	attempt := 0
	var body []byte
	retryCfg := &resilience.RetryConfig{
		MaxAttempts:   f.cfg.Retry.MaxAttempts,
		InitialDelay:  f.cfg.Retry.InitialDelay,
		MaxDelay:      f.cfg.Retry.MaxDelay,
		BackoffFactor: f.cfg.Retry.BackoffFactor,
		JitterEnabled: f.cfg.Retry.JitterEnabled,
	}

	err = resilience.RetryWithCircuitBreaker(ctx, retryCfg, f.cb, func() error {
		attempt++

		if err := f.bucket.Wait(ctx); err != nil {
			return resilience.NonRetryable(fmt.Errorf("fetcher: rate limiter wait: %w", err))
		}

		reqCtx := ctx
		var cancel context.CancelFunc
		if f.cfg.Timeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		}

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
		if err != nil {
			if cancel != nil {
				cancel()
			}
			return resilience.NonRetryable(err)
		}
		f.setHeaders(req)

		f.log.Debug("issuing request", "url", reqURL, "attempt", attempt)
		resp, doErr := f.client.Do(req)
		if cancel != nil {
			cancel()
		}

		if doErr != nil {
			if ctx.Err() != nil {
				return resilience.NonRetryable(fmt.Errorf("%w: %v", wire.ErrCancelled, doErr))
			}
			if reqCtxErr := reqCtx.Err(); reqCtxErr != nil {
				return resilience.NonRetryable(fmt.Errorf("%w: %v", wire.ErrTimeout, doErr))
			}
			return fmt.Errorf("%w: %v", wire.ErrUnavailable, doErr)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return resilience.NonRetryable(fmt.Errorf("fetcher: reading body: %w", readErr))
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			body = respBody
			return nil

		case resp.StatusCode == http.StatusNotFound:
			// Not-found is a caller error, not an upstream failure: it
			// doesn't count against the circuit breaker and isn't retried.
			return resilience.NonRetryable(&wire.NotFound{Path: path})

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			f.log.Warn("retryable status, backing off", "status", resp.StatusCode, "attempt", attempt)
			return fmt.Errorf("%w: status %d", wire.ErrUnavailable, resp.StatusCode)

		default:
			return resilience.NonRetryable(&wire.UpstreamClientError{Status: resp.StatusCode, Body: string(respBody)})
		}
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) setHeaders(req *http.Request) {
	if f.cfg.Token != "" {
		req.Header.Set("Authorization", "Token "+f.cfg.Token)
	}
	req.Header.Set(f.cfg.VersionHeader, f.cfg.Version)
	req.Header.Set("Accept", "application/json")
}

func (f *Fetcher) buildURL(path string, query url.Values) (string, error) {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		if len(query) > 0 {
			q := u.Query()
			for k, vs := range query {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	base, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("fetcher: invalid base url: %w", err)
	}
	rel, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("fetcher: invalid path: %w", err)
	}
	full := base.ResolveReference(rel)
	full.RawQuery = query.Encode()
	return full.String(), nil
}

// GetJSON issues a Get and decodes the response body as JSON into v.
func (f *Fetcher) GetJSON(ctx context.Context, path string, query url.Values, v interface{}) error {
	body, err := f.Get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &wire.WireError{Path: path, Cause: err}
	}
	return nil
}
