// Package pipeline implements a declarative data-mapping engine that builds
// typed model instances from raw, untyped input data (decoded JSON or YAML
// documents, database rows, API payloads).
//
// Each constructor argument of a model is produced by a named Transform.
// Transforms are small immutable value objects that compose into Chains, and
// a Pipeline holds the registry binding each model type to its set of
// transforms. The Pipeline exposes Create, CreateMultiple, GetOrCreate, and
// GetOrCreateMultiple on top of the registry, with get-or-create semantics
// backed by a caller-supplied LookupFunc.
package pipeline

import (
	"context"
	"errors"
)

// Transform is the fundamental unit of work in a mapping pipeline.
// Each Transform maps an input value to an output value, given the owning
// Pipeline (for recursive Create/GetOrCreate calls) and any pass-through
// arguments supplied by the caller.
//
// Transforms must be immutable once constructed and safe for concurrent use;
// all of their parameters (a key, a predicate, a child transform) are fixed
// at construction time.
type Transform interface {
	// Name returns the identifier recorded in error provenance when this
	// transform fails. Implementations typically return their type name.
	Name() string

	// Apply performs the transform on data and returns the derived value.
	// Implementations are free to return any error; the Run entry point
	// wraps it with provenance. Apply must not be invoked directly outside
	// of Run, since direct invocation bypasses error tagging.
	Apply(ctx context.Context, p *Pipeline, data any, extra ...any) (any, error)
}

// Validator is implemented by transforms that carry configuration which can
// be invalid. Register checks it for every bound transform so that
// misconfiguration surfaces at registration time rather than mid-mapping.
type Validator interface {
	Validate() error
}

// Run invokes a transform through the protective boundary that supplies
// uniform error tagging. It is the only supported invocation path for a
// Transform, including every step inside a Chain.
//
// On failure the original error is wrapped exactly once into an *Error
// recording the transform's name. An error that already carries an *Error is
// passed through unchanged, so across nested chains the innermost failing
// transform owns the provenance. Context cancellation is reported as-is and
// is never attributed to the transform.
func Run(ctx context.Context, t Transform, p *Pipeline, data any, extra ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := t.Apply(ctx, p, data, extra...)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		var te *Error
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &Error{Transform: t.Name(), Err: err}
	}
	return out, nil
}

// Then composes two transforms into a left-to-right chain: the output of a
// becomes the input of b. If a is already a *Chain, b is appended in place
// and a is returned, so repeated composition yields one flat chain rather
// than nested ones:
//
//	t := pipeline.Then(pipeline.Then(a, b), c) // one Chain with steps a, b, c
func Then(a, b Transform) Transform {
	if c, ok := a.(*Chain); ok {
		return c.Then(b)
	}
	return NewChain(a, b)
}
