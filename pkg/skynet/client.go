package skynet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alexcarney460-hue/skynet/internal/logging"
)

const (
	// DefaultEndpoint is the hosted assessment service base URL.
	DefaultEndpoint = "https://skynetx.io/api/v1"
	// DefaultTimeout bounds one round trip.
	DefaultTimeout = 5 * time.Second
	// Version is reported in the default User-Agent.
	Version = "0.1.0"

	maxResponseBytes    = 1 << 20
	instrumentationName = "github.com/alexcarney460-hue/skynet/pkg/skynet"
)

// Operation names used in errors, logs, spans and metric labels.
const (
	OpPressure  = "pressure"
	OpVerbosity = "verbosity"
	OpHalfLife  = "half-life"
)

// Client calls the assessment service. It is immutable after New and safe
// for concurrent use.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	token      string
	userAgent  string
	logger     *logging.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the service base URL. It is stored verbatim; a malformed
// value surfaces as a request failure on the first call.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithTimeout sets the per-call round-trip bound. Values <= 0 disable the
// client-side deadline; the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAPIToken sends "Authorization: Bearer <token>" with every call.
func WithAPIToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the logger used for fallback notices.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = logging.FromZap(l)
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracerProvider sets the provider for call spans. Default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithRateLimit throttles calls client-side. A call that cannot get a token
// before its deadline fails and falls back; it is never retried.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.limiter = rate.NewLimiter(limit, burst)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a Client. Options are independent; anything not set keeps its default.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:   DefaultEndpoint,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
		userAgent:  "skynet-go/" + Version,
		logger:     logging.Nop(),
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.token != "" {
		c.httpClient = withBearer(c.httpClient, c.token)
	}
	return c
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Timeout returns the configured per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Outcome is an assessment together with how it was obtained.
type Outcome[T any] struct {
	Value T
	// Fallback is true when Value is the fallback record.
	Fallback bool
	// Err is the failure that caused the fallback, nil otherwise.
	Err error
}

// TryEvaluatePressure asks the service for a pressure assessment.
// On failure the error is a *FailureError and the record is zero.
func (c *Client) TryEvaluatePressure(ctx context.Context, in PressureInput) (PressureAssessment, error) {
	return tryAssess(ctx, c, OpPressure, pathPressure, in.request(), (*pressureEnvelope).assessment)
}

// TryAssessVerbosity asks the service for a verbosity assessment.
func (c *Client) TryAssessVerbosity(ctx context.Context, in VerbosityInput) (VerbosityAssessment, error) {
	return tryAssess(ctx, c, OpVerbosity, pathVerbosity, in.request(), (*verbosityEnvelope).assessment)
}

// TryEstimateHalfLife asks the service for a half-life estimate.
func (c *Client) TryEstimateHalfLife(ctx context.Context, in HalfLifeInput) (HalfLifeAssessment, error) {
	return tryAssess(ctx, c, OpHalfLife, pathHalfLife, in.request(), (*halfLifeEnvelope).assessment)
}

// EvaluatePressureOutcome is EvaluatePressure with the fallback made visible.
func (c *Client) EvaluatePressureOutcome(ctx context.Context, in PressureInput) Outcome[PressureAssessment] {
	a, err := c.TryEvaluatePressure(ctx, in)
	return resolve(ctx, c, OpPressure, a, err, FallbackPressure)
}

// AssessVerbosityOutcome is AssessVerbosity with the fallback made visible.
func (c *Client) AssessVerbosityOutcome(ctx context.Context, in VerbosityInput) Outcome[VerbosityAssessment] {
	a, err := c.TryAssessVerbosity(ctx, in)
	return resolve(ctx, c, OpVerbosity, a, err, FallbackVerbosity)
}

// EstimateHalfLifeOutcome is EstimateHalfLife with the fallback made visible.
func (c *Client) EstimateHalfLifeOutcome(ctx context.Context, in HalfLifeInput) Outcome[HalfLifeAssessment] {
	a, err := c.TryEstimateHalfLife(ctx, in)
	return resolve(ctx, c, OpHalfLife, a, err, FallbackHalfLife)
}

// EvaluatePressure returns the service's pressure assessment, or
// FallbackPressure() if the call fails for any reason.
func (c *Client) EvaluatePressure(ctx context.Context, in PressureInput) PressureAssessment {
	return c.EvaluatePressureOutcome(ctx, in).Value
}

// AssessVerbosity returns the service's verbosity assessment, or
// FallbackVerbosity() if the call fails for any reason.
func (c *Client) AssessVerbosity(ctx context.Context, in VerbosityInput) VerbosityAssessment {
	return c.AssessVerbosityOutcome(ctx, in).Value
}

// EstimateHalfLife returns the service's half-life estimate, or
// FallbackHalfLife() if the call fails for any reason.
func (c *Client) EstimateHalfLife(ctx context.Context, in HalfLifeInput) HalfLifeAssessment {
	return c.EstimateHalfLifeOutcome(ctx, in).Value
}

func resolve[T any](ctx context.Context, c *Client, op string, v T, err error, fallback func() T) Outcome[T] {
	if err == nil {
		return Outcome[T]{Value: v}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var requestID string
	var fe *FailureError
	if errors.As(err, &fe) {
		requestID = fe.RequestID
	}
	c.logger.Info(ctx, "assessment unavailable, using fallback",
		zap.String("operation", op),
		zap.String("failure_kind", string(KindOf(err))),
		zap.Error(err),
		zap.String("request_id", requestID),
	)
	return Outcome[T]{Value: fallback(), Fallback: true, Err: err}
}

func tryAssess[T any, E any](ctx context.Context, c *Client, op, path string, body any, decode func(*E) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.tracer.Start(ctx, "skynet."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("skynet.endpoint", c.endpoint)),
	)
	defer span.End()

	requestID := uuid.NewString()
	start := time.Now()

	var env E
	status, err := c.post(ctx, op, path, requestID, body, &env)
	var out T
	if err == nil {
		var derr error
		if out, derr = decode(&env); derr != nil {
			err = &FailureError{Op: op, Kind: FailureSchema, Status: status, RequestID: requestID, Err: derr}
		}
	}
	c.metrics.observe(op, time.Since(start), err)

	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.SetAttributes(
			attribute.Bool("skynet.fallback", true),
			attribute.String("skynet.failure_kind", string(KindOf(err))),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}
	span.SetAttributes(attribute.Bool("skynet.fallback", false))
	return out, nil
}

// post sends one JSON request and decodes the 2xx body into out. It returns
// the HTTP status when a response arrived. Errors are *FailureError.
func (c *Client) post(ctx context.Context, op, path, requestID string, body, out any) (int, error) {
	fail := func(kind FailureKind, status int, err error) (int, error) {
		return status, &FailureError{Op: op, Kind: kind, Status: status, RequestID: requestID, Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fail(FailureRequest, 0, fmt.Errorf("encode request: %w", err))
	}

	url := strings.TrimRight(c.endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fail(FailureRequest, 0, fmt.Errorf("build request: %w", err))
	}
	if req.URL.Scheme == "" || req.URL.Host == "" {
		return fail(FailureRequest, 0, fmt.Errorf("invalid endpoint %q", c.endpoint))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(FailureRequest, 0, fmt.Errorf("rate limit: %w", err))
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(classifyTransport(err), 0, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		kind := classifyTransport(err)
		if kind == FailureTransport {
			kind = FailureProtocol
		}
		return fail(kind, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	if len(data) > maxResponseBytes {
		return fail(FailureProtocol, resp.StatusCode, fmt.Errorf("response exceeds %d bytes", maxResponseBytes))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(FailureProtocol, resp.StatusCode, fmt.Errorf("unexpected status: %s", snippet(data)))
	}
	if !json.Valid(data) {
		return fail(FailureProtocol, resp.StatusCode, fmt.Errorf("response is not valid JSON: %s", snippet(data)))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fail(FailureSchema, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return resp.StatusCode, nil
}

func classifyTransport(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	return FailureTransport
}

func snippet(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
