// Package carely is the single outbound client for the Carely REST API.
// Every request carries the session bearer token, and any 401 response
// ends the session through the configured hook.
package carely

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/carely-portal/internal/observability/metrics"
	"github.com/wolfman30/carely-portal/pkg/logging"
)

const defaultBaseURL = "http://localhost:5000"

var apiTracer = otel.Tracer("carely.internal.carely")

// TokenSource supplies the current bearer token, or "" when logged out.
type TokenSource interface {
	Token() string
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout of zero waits indefinitely.
	Timeout time.Duration
	Tokens  TokenSource
	// OnUnauthorized runs once per 401 response, before the error returns.
	OnUnauthorized func(ctx context.Context)
	Metrics        *metrics.APIMetrics
	Logger         *logging.Logger
	HTTPClient     *http.Client
}

// Client wraps the Carely REST API grouped by audience.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	onUnauthorized func(ctx context.Context)
	metrics        *metrics.APIMetrics
	logger         *logging.Logger

	Auth      *AuthAPI
	Common    *CommonAPI
	User      *UserAPI
	Caregiver *CaregiverAPI
	Admin     *AdminAPI
}

// NewClient constructs a Carely API client.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The backend also issues cookies; keep them like a browser would.
		jar, _ := cookiejar.New(nil)
		httpClient = &http.Client{Timeout: cfg.Timeout, Jar: jar}
	}
	c := &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		tokens:         cfg.Tokens,
		onUnauthorized: cfg.OnUnauthorized,
		metrics:        cfg.Metrics,
		logger:         logger,
	}
	c.Auth = &AuthAPI{c: c}
	c.Common = &CommonAPI{c: c}
	c.User = &UserAPI{c: c}
	c.Caregiver = &CaregiverAPI{c: c}
	c.Admin = &AdminAPI{c: c}
	return c
}

// Envelope is the backend's standard response wrapper.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       T           `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// call sends a request and unwraps the envelope's data.
func call[T any](ctx context.Context, c *Client, group, method, path string, body any) (T, error) {
	var env Envelope[T]
	if err := c.doJSON(ctx, group, method, path, body, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// action sends a request whose response carries only a status message.
func action(ctx context.Context, c *Client, group, method, path string, body any) (*Result, error) {
	var res Result
	if err := c.doJSON(ctx, group, method, path, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) doJSON(ctx context.Context, group, method, path string, body any, out any) error {
	ctx, span := apiTracer.Start(ctx, "carely."+group,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("carely.path", path),
		),
	)
	defer span.End()

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, group, "error", time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveRequest(method, group, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, method, path, respBody)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Error())
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Warn("carely API unauthorized, ending session", "path", path)
			c.metrics.ObserveUnauthorized()
			if c.onUnauthorized != nil {
				c.onUnauthorized(context.WithoutCancel(ctx))
			}
			return apiErr
		}
		c.logger.Warn("carely API non-2xx response", "status", resp.StatusCode, "path", path, "body", apiErr.Body)
		return apiErr
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
