package middleware

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-wrangle/pipeline"
)

// Tracing decorates next with an OpenTelemetry span per application. The
// span carries the transform name and a unique apply id for correlating
// nested spans within one mapping run.
func Tracing(next pipeline.Transform, tracerName string) pipeline.Transform {
	return &tracedTransform{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

type tracedTransform struct {
	next   pipeline.Transform
	tracer trace.Tracer
}

// Name reports the wrapped transform's name to keep provenance transparent.
func (t *tracedTransform) Name() string { return t.next.Name() }

// Validate forwards to the wrapped transform when it is validatable.
func (t *tracedTransform) Validate() error {
	if v, ok := t.next.(pipeline.Validator); ok {
		return v.Validate()
	}
	return nil
}

// Apply runs the wrapped transform inside a span, recording failures.
func (t *tracedTransform) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	ctx, span := t.tracer.Start(ctx, "Transform.Apply",
		trace.WithAttributes(
			attribute.String("transform.name", t.next.Name()),
			attribute.String("transform.apply_id", uuid.NewString()),
		),
	)
	defer span.End()

	out, err := pipeline.Run(ctx, t.next, p, data, extra...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}
