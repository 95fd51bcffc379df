package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	interpretDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bring",
		Subsystem: "ai",
		Name:      "interpretation_duration_seconds",
		Help:      "Duration of dream interpretation requests",
	}, []string{"generator"})

	interpretTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bring",
		Subsystem: "ai",
		Name:      "interpretations_total",
		Help:      "Dream interpretation requests by resolved mode and outcome",
	}, []string{"mode", "outcome"})
)

// GatewayConfig configures the interpretation gateway.
type GatewayConfig struct {
	Generator  Generator
	GatedNames []string
	Timeout    time.Duration
	Logger     zerolog.Logger
}

// Gateway resolves the interpretation mode, builds the prompt and calls the generator.
type Gateway struct {
	generator Generator
	allow     AllowList
	timeout   time.Duration
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewGateway builds a gateway around the configured generator.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("ai generator is required")
	}

	return &Gateway{
		generator: cfg.Generator,
		allow:     NewAllowList(cfg.GatedNames),
		timeout:   cfg.Timeout,
		tracer:    otel.Tracer("github.com/noah-isme/bring-api/pkg/ai/gateway"),
		logger:    cfg.Logger.With().Str("component", "ai_gateway").Logger(),
	}, nil
}

// Resolve returns the mode the gateway would use for the request.
func (g *Gateway) Resolve(requested Mode, profile *Profile) Mode {
	return ResolveMode(requested, profile, g.allow)
}

// Interpret never fails: generator errors are logged and reported through Interpretation.Err,
// with FallbackText and the requested mode in place of a result.
func (g *Gateway) Interpret(parent context.Context, dream string, requested Mode, profile *Profile) Interpretation {
	resolved := g.Resolve(requested, profile)

	ctx, span := g.tracer.Start(parent, "ai.interpret", trace.WithAttributes(
		attribute.String("ai.generator", g.generator.Name()),
		attribute.String("ai.mode.requested", string(requested)),
		attribute.String("ai.mode.resolved", string(resolved)),
	))
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.generator.Generate(ctx, BuildPrompt(dream, resolved, profile))
	interpretDuration.WithLabelValues(g.generator.Name()).Observe(time.Since(start).Seconds())

	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrEmptyResponse
	}

	if err != nil {
		interpretTotal.WithLabelValues(string(resolved), "failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn().
			Err(err).
			Str("mode", string(requested)).
			Str("resolved_mode", string(resolved)).
			Str("generator", g.generator.Name()).
			Msg("dream interpretation failed")
		return Interpretation{Text: FallbackText, Mode: requested, Err: err}
	}

	interpretTotal.WithLabelValues(string(resolved), "success").Inc()
	return Interpretation{Text: text, Mode: resolved}
}
