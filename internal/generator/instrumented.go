package generator

import (
	"career_advisor_backend/pkg/logger"
	"career_advisor_backend/pkg/monitoring"
	"career_advisor_backend/pkg/tracing"
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Instrumented 为任意后端记录耗时、结果与 trace span
type Instrumented struct {
	next ContentGenerator
}

func Instrument(next ContentGenerator) *Instrumented {
	return &Instrumented{next: next}
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) GenerateJSON(ctx context.Context, prompt string) (map[string]any, error) {
	ctx, done := i.begin(ctx, "json")
	out, err := i.next.GenerateJSON(ctx, prompt)
	done(err)
	return out, err
}

func (i *Instrumented) Chat(ctx context.Context, system string, history []Message, message string) (string, error) {
	ctx, done := i.begin(ctx, "chat")
	out, err := i.next.Chat(ctx, system, history, message)
	done(err)
	return out, err
}

func (i *Instrumented) begin(ctx context.Context, kind string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := tracing.Tracer.Start(ctx, "generator."+kind)
	span.SetAttributes(
		attribute.String("generator.provider", i.next.Name()),
		attribute.String("generator.kind", kind),
	)

	return ctx, func(err error) {
		defer span.End()
		elapsed := time.Since(start)
		outcome := Outcome(err)
		monitoring.GeneratorDuration.WithLabelValues(i.next.Name(), kind, outcome).Observe(elapsed.Seconds())

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			logger.Log.Warn("Content generator call failed",
				zap.String("provider", i.next.Name()),
				zap.String("kind", kind),
				zap.String("outcome", outcome),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			return
		}
		logger.Log.Debug("Content generator call finished",
			zap.String("provider", i.next.Name()),
			zap.String("kind", kind),
			zap.Duration("elapsed", elapsed))
	}
}

// Outcome 错误分类标签，用于指标与日志
func Outcome(err error) string {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case IsMalformed(err):
		return "malformed"
	case errors.As(err, &httpErr):
		return "http_error"
	default:
		return "error"
	}
}
