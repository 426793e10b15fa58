// Package client is the typed entity client for the JayTalk service. It
// owns the single request path through which every remote call flows:
// bearer-token attachment, circuit breaking, metrics, tracing, and the
// {status, body} surfacing of non-2xx responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jaytalk/internal/models"
	"jaytalk/internal/observability"
	"jaytalk/internal/session"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// Client issues requests against one JayTalk deployment. Construct it
// once and share it; all methods are safe for concurrent use.
type Client struct {
	base          *url.URL
	http          *http.Client
	sessions      session.Store
	breaker       *gobreaker.CircuitBreaker
	ops           *observability.OpLogger
	pageSize      int
	maxCountPages int
}

// Options configures a Client. Sessions is required; everything else has
// a usable default.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	Sessions      session.Store
	PageSize      int
	MaxCountPages int
}

func New(opts Options) (*Client, error) {
	if opts.Sessions == nil {
		return nil, fmt.Errorf("client: a session store is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: base URL must be absolute, got %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.MaxCountPages <= 0 {
		opts.MaxCountPages = 50
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "jaytalk-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				observability.BreakerOpens.Inc()
			}
		},
	})

	return &Client{
		base:          base,
		http:          &http.Client{Timeout: opts.Timeout},
		sessions:      opts.Sessions,
		breaker:       breaker,
		ops:           observability.NewOpLogger("client"),
		pageSize:      opts.PageSize,
		maxCountPages: opts.MaxCountPages,
	}, nil
}

// DoAuth issues a POST on behalf of the auth flow, which shares the
// request path but owns its own response semantics.
func (c *Client) DoAuth(ctx context.Context, op, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, op, http.MethodPost, path, nil, body)
}

// Sessions exposes the injected token store.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// token reads the current bearer token, "" when unauthenticated.
func (c *Client) token(ctx context.Context) string {
	return c.sessions.Read(ctx)
}

// do performs one request. op names the operation for metrics and traces
// (low cardinality, unlike the path). The bearer token, when present, is
// attached to every call; whether it was required is the server's
// decision to make. Non-2xx responses come back as *models.APIError;
// transport failures (including an open breaker) as NETWORK_ERROR.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body interface{}) ([]byte, error) {
	span, ctx := observability.NewSpan(ctx, "client."+op)
	defer span.End()
	span.AddAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	target := *c.base
	target.Path = strings.TrimSuffix(target.Path, "/") + path
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.http.Do(req)
	})
	elapsed := time.Since(start)
	if err != nil {
		span.SetError(err)
		observability.RequestsTotal.WithLabelValues(op, method, "error").Inc()
		return nil, models.NewNetworkError(err)
	}
	resp := result.(*http.Response)
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetError(err)
		observability.RequestsTotal.WithLabelValues(op, method, "error").Inc()
		return nil, models.NewNetworkError(err)
	}

	observability.RequestsTotal.WithLabelValues(op, method, strconv.Itoa(resp.StatusCode)).Inc()
	observability.RequestLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	c.ops.LogRequest(ctx, method, path, resp.StatusCode, elapsed)
	span.AddAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &models.APIError{Status: resp.StatusCode, Body: string(payload)}
		span.SetError(apiErr)
		return nil, apiErr
	}
	return payload, nil
}
