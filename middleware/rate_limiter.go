package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-wrangle/pipeline"
)

// RateLimit decorates next with a token bucket gate. Each application waits
// for a token before running, which paces transforms that reach out to
// shared services, such as Custom transforms issuing lookups. The limit is
// applications per second; burst allows temporary spikes above it.
func RateLimit(next pipeline.Transform, limit rate.Limit, burst int) pipeline.Transform {
	return &rateLimitedTransform{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

type rateLimitedTransform struct {
	next    pipeline.Transform
	limiter *rate.Limiter
}

// Name reports the wrapped transform's name to keep provenance transparent.
func (r *rateLimitedTransform) Name() string { return r.next.Name() }

// Validate forwards to the wrapped transform when it is validatable.
func (r *rateLimitedTransform) Validate() error {
	if v, ok := r.next.(pipeline.Validator); ok {
		return v.Validate()
	}
	return nil
}

// Apply waits for rate limit permission before running the wrapped
// transform. The wait respects context cancellation.
func (r *rateLimitedTransform) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return pipeline.Run(ctx, r.next, p, data, extra...)
}
