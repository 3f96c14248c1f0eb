package middleware

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ahrav/go-wrangle/pipeline"
)

// Retry decorates next with automatic retries and exponential backoff.
// Transient failures in transforms that reach external systems, such as
// lookups against a remote table, get retried with increasing delays.
// Failures that carry field provenance are not retried: by the time a
// FieldError exists the surrounding build already failed deterministically.
func Retry(next pipeline.Transform, maxRetries int, baseDelay, maxDelay time.Duration) pipeline.Transform {
	return &retryTransform{
		next:       next,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
	}
}

type retryTransform struct {
	next       pipeline.Transform
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Name reports the wrapped transform's name to keep provenance transparent.
func (r *retryTransform) Name() string { return r.next.Name() }

// Validate forwards to the wrapped transform when it is validatable.
func (r *retryTransform) Validate() error {
	if v, ok := r.next.(pipeline.Validator); ok {
		return v.Validate()
	}
	return nil
}

// Apply runs the wrapped transform, retrying on failure until the attempt
// budget is spent. Context cancellation stops retries immediately, both
// between attempts and while waiting out a backoff delay.
func (r *retryTransform) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		out, err := pipeline.Run(ctx, r.next, p, data, extra...)
		if err == nil {
			return out, nil
		}

		lastErr = err

		var fieldErr *pipeline.FieldError
		if ctx.Err() != nil || errors.As(err, &fieldErr) {
			return nil, err
		}

		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.delay(attempt)):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryTransform) delay(attempt int) time.Duration {
	// Exponential backoff with jitter.
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Add jitter (±25%).
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}
