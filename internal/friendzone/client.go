package friendzone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/friendzone-web/internal/dto"
	"github.com/noah-isme/friendzone-web/internal/observability"
)

// Config defines connection settings for the FriendZone API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
	// Headers returns extra headers for an outgoing request, such as a correlation id.
	Headers func(ctx context.Context) map[string]string
}

// Client talks to the FriendZone JSON API on behalf of a session.
type Client struct {
	baseURL string
	timeout time.Duration
	headers func(ctx context.Context) map[string]string
	logger  zerolog.Logger
	tracer  trace.Tracer
	schemas schemaSet
}

// New builds a client and compiles the response schemas.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("friendzone base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: base,
		timeout: cfg.Timeout,
		headers: cfg.Headers,
		logger:  cfg.Logger.With().Str("component", "friendzone_client").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/friendzone-web/internal/friendzone"),
		schemas: schemas,
	}, nil
}

type call struct {
	endpoint string
	method   string
	path     string
	token    string
	body     interface{}
	schema   schemaName
	out      interface{ Header() dto.Status }
}

func (c *Client) do(ctx context.Context, req call) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(req.token) == "" {
		return ErrUnauthenticated
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ErrTransport, ctxErr)
	}

	ctx, span := c.tracer.Start(ctx, "friendzone."+req.endpoint, trace.WithAttributes(
		attribute.String("http.method", req.method),
		attribute.String("http.path", req.path),
	))
	start := time.Now()
	defer func() {
		observability.UpstreamLatency().WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.UpstreamRequests().WithLabelValues(req.endpoint, outcome).Inc()
		span.End()
	}()

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("%w: %v", ErrTransport, context.DeadlineExceeded)
	}

	agent := fiber.AcquireAgent()
	request := agent.Request()
	request.Header.SetMethod(req.method)
	request.SetRequestURI(c.baseURL + req.path)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+req.token)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.headers != nil {
		for key, value := range c.headers(ctx) {
			if value != "" {
				agent.Set(key, value)
			}
		}
	}
	if req.body != nil {
		agent.JSON(req.body)
	}
	agent.Timeout(timeout)

	if parseErr := agent.Parse(); parseErr != nil {
		fiber.ReleaseAgent(agent)
		return fmt.Errorf("%w: %v", ErrTransport, parseErr)
	}

	// The agent only honours its own timeout, so cancellation is observed once the call returns.
	status, raw, errs := agent.Bytes()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrTransport, ctxErr)
	}
	if len(errs) > 0 {
		c.logger.Warn().Errs("errors", errs).Str("endpoint", req.endpoint).Msg("friendzone request failed")
		return fmt.Errorf("%w: %v", ErrTransport, errs[0])
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status >= fiber.StatusBadRequest {
		var header dto.Status
		_ = json.Unmarshal(raw, &header)
		return &APIError{Status: status, Message: header.Message}
	}

	if err := c.schemas.validate(req.schema, raw, req.out); err != nil {
		c.logger.Warn().Err(err).Str("endpoint", req.endpoint).Msg("friendzone response rejected")
		return err
	}

	if header := req.out.Header(); header.Failed() {
		return &APIError{Status: status, Message: header.Message}
	}

	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "api_error"
	}
}
