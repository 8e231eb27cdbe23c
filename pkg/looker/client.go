package looker

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

// APIVersionPath is the path prefix of every API 4.0 endpoint.
const APIVersionPath = "/api/4.0"

// Config holds the settings used to build a Client.
type Config struct {
	// BaseURL is the Looker API host, e.g. "https://example.looker.com:19999".
	BaseURL string

	// ClientID and ClientSecret are API3 credentials.
	ClientID     string
	ClientSecret string

	// Timeout bounds every HTTP round trip, including login.
	Timeout time.Duration

	// VerifySSL disables certificate verification when false.
	VerifySSL bool

	// RequestsPerSecond paces outgoing calls. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the pacing bucket size. Defaults to 1.
	Burst int

	// HTTPClient overrides the base transport (tests).
	HTTPClient *http.Client
}

// RequestObserver is notified after every API call. statusCode is zero when no
// response was received.
type RequestObserver func(operation string, statusCode int, duration time.Duration, err error)

// Client talks to the Looker REST API 4.0.
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	limiter  *rate.Limiter
	tracer   trace.Tracer
	logger   *slog.Logger
	observer RequestObserver
	mu       sync.RWMutex
}

// NewClient validates cfg and returns a client authenticated through the
// OAuth2 client credentials flow against /api/4.0/login.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("looker base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid looker base URL: %w", err)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("looker client_id and client_secret are required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	base := cfg.HTTPClient
	if base == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if !cfg.VerifySSL {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opted out
		}
		base = &http.Client{Transport: transport, Timeout: cfg.Timeout}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     baseURL + APIVersionPath + "/login",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	authed := cc.Client(tokenCtx)
	authed.Timeout = cfg.Timeout

	c := &Client{
		baseURL: baseURL + APIVersionPath,
		timeout: cfg.Timeout,
		http:    authed,
		tracer:  otel.Tracer("janitor/looker"),
		logger:  slog.Default().With("component", "looker.client"),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c, nil
}

// SetObserver registers fn to be called after every API call.
func (c *Client) SetObserver(fn RequestObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = fn
}

// CreateQuery implements API.
func (c *Client) CreateQuery(ctx context.Context, query *WriteQuery) (*Query, error) {
	var out Query
	if err := c.do(ctx, "create_query", http.MethodPost, "/queries", nil, query, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, &ParseError{Operation: "create_query", Cause: errors.New("response has no query id")}
	}
	return &out, nil
}

// RunQuery implements API.
func (c *Client) RunQuery(ctx context.Context, queryID, resultFormat string, cache bool) ([]byte, error) {
	q := url.Values{}
	q.Set("cache", strconv.FormatBool(cache))
	path := "/queries/" + url.PathEscape(queryID) + "/run/" + url.PathEscape(resultFormat)

	var raw []byte
	if err := c.do(ctx, "run_query", http.MethodGet, path, q, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// UpdateDashboard implements API.
func (c *Client) UpdateDashboard(ctx context.Context, dashboardID string, body *WriteDashboard) error {
	return c.do(ctx, "update_dashboard", http.MethodPatch, "/dashboards/"+url.PathEscape(dashboardID), nil, body, nil)
}

// UpdateLook implements API.
func (c *Client) UpdateLook(ctx context.Context, lookID string, body *WriteLookWithQuery) error {
	return c.do(ctx, "update_look", http.MethodPatch, "/looks/"+url.PathEscape(lookID), nil, body, nil)
}

// DeleteDashboard implements API.
func (c *Client) DeleteDashboard(ctx context.Context, dashboardID string) error {
	return c.do(ctx, "delete_dashboard", http.MethodDelete, "/dashboards/"+url.PathEscape(dashboardID), nil, nil, nil)
}

// DeleteLook implements API.
func (c *Client) DeleteLook(ctx context.Context, lookID string) error {
	return c.do(ctx, "delete_look", http.MethodDelete, "/looks/"+url.PathEscape(lookID), nil, nil, nil)
}

// ScheduledPlanRunOnce implements API.
func (c *Client) ScheduledPlanRunOnce(ctx context.Context, plan *WriteScheduledPlan) (*ScheduledPlan, error) {
	var out ScheduledPlan
	if err := c.do(ctx, "scheduled_plan_run_once", http.MethodPost, "/scheduled_plans/run_once", nil, plan, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, "me", http.MethodGet, "/user", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping verifies credentials and connectivity.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Me(ctx)
	return err
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do performs a single API call. It never retries. When out is a *[]byte the
// raw body is stored; otherwise a non-nil out is JSON decoded.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "looker."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("looker.path", path),
		),
	)
	defer span.End()

	start := time.Now()
	status := 0
	defer func() {
		c.notify(op, status, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return &TimeoutError{Operation: op, Timeout: c.timeout, Cause: werr}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, merr)
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("sending request to looker", "operation", op, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", status))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if status < 200 || status >= 300 {
		return statusError(op, path, status, respBody)
	}

	switch dst := out.(type) {
	case nil:
		return nil
	case *[]byte:
		*dst = respBody
		return nil
	default:
		if len(respBody) == 0 {
			return nil
		}
		if jerr := json.Unmarshal(respBody, dst); jerr != nil {
			return &ParseError{Operation: op, RawResponse: truncate(string(respBody), 512), Cause: jerr}
		}
		return nil
	}
}

func (c *Client) notify(op string, status int, d time.Duration, err error) {
	c.mu.RLock()
	fn := c.observer
	c.mu.RUnlock()
	if fn != nil {
		fn(op, status, d, err)
	}
}

// transportError classifies an error returned by http.Client.Do.
func (c *Client) transportError(ctx context.Context, op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		msg := retrieveErr.ErrorDescription
		if msg == "" && retrieveErr.Response != nil {
			msg = retrieveErr.Response.Status
		}
		return &AuthError{Operation: op, Message: msg, Cause: err}
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Operation: op, Timeout: c.timeout, Cause: err}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &TimeoutError{Operation: op, Timeout: c.timeout, Cause: err}
	}
	return fmt.Errorf("looker %s request failed: %w", op, err)
}

// statusError maps a non-2xx response to a typed error.
func statusError(op, path string, status int, body []byte) error {
	msg := string(body)
	var doc apiErrorBody
	if json.Unmarshal(body, &doc) == nil && doc.Message != "" {
		msg = doc.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Operation: op, Message: msg}
	case http.StatusNotFound:
		resource, id := splitResource(path)
		return &NotFoundError{Operation: op, Resource: resource, ID: id}
	default:
		return &APIError{Operation: op, StatusCode: status, Message: truncate(msg, 512)}
	}
}

// splitResource turns "/dashboards/12" into ("dashboards", "12").
func splitResource(path string) (string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 {
		return strings.Join(parts, "/"), ""
	}
	id, err := url.PathUnescape(parts[1])
	if err != nil {
		id = parts[1]
	}
	return parts[0], id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
