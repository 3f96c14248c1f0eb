package transforms

import (
	"context"
	"fmt"

	"github.com/ahrav/go-wrangle/pipeline"
)

// Compile-time checks that every basic transform satisfies the contract.
var (
	_ pipeline.Transform = Identity{}
	_ pipeline.Transform = Constant{}
	_ pipeline.Transform = Cast[any, any]{}
	_ pipeline.Transform = Custom{}
	_ pipeline.Transform = Default{}
)

// Identity returns its input unchanged. Composing it into a chain does not
// alter the chain's behavior.
type Identity struct{}

// Name returns the provenance identifier.
func (Identity) Name() string { return "Identity" }

// Apply returns data unchanged.
func (Identity) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	return data, nil
}

// Constant ignores its input and always produces Value.
type Constant struct {
	Value any
}

// Name returns the provenance identifier.
func (Constant) Name() string { return "Constant" }

// Apply returns the configured value.
func (c Constant) Apply(_ context.Context, _ *pipeline.Pipeline, _ any, _ ...any) (any, error) {
	return c.Value, nil
}

// Cast applies a typed conversion function to the input. The input must
// have dynamic type I; anything else fails with ErrTypeMismatch, which the
// wrapping contract attributes to this transform.
type Cast[I, O any] struct {
	Func func(I) (O, error)
}

// Name returns the provenance identifier.
func (Cast[I, O]) Name() string { return "Cast" }

// Validate checks that a conversion function was supplied.
func (c Cast[I, O]) Validate() error {
	if c.Func == nil {
		return ErrNilFunc
	}
	return nil
}

// Apply asserts the input type and applies the conversion.
func (c Cast[I, O]) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	in, ok := data.(I)
	if !ok {
		return nil, fmt.Errorf("cast: got %T: %w", data, ErrTypeMismatch)
	}
	out, err := c.Func(in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Custom wraps an arbitrary mapping function that receives the full apply
// context: the owning pipeline, the input, and the pass-through arguments.
type Custom struct {
	Func func(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error)
}

// Name returns the provenance identifier.
func (Custom) Name() string { return "Custom" }

// Validate checks that a function was supplied.
func (c Custom) Validate() error {
	if c.Func == nil {
		return ErrNilFunc
	}
	return nil
}

// Apply delegates to the wrapped function.
func (c Custom) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	return c.Func(ctx, p, data, extra...)
}

// Default substitutes Value when the input fails its condition. With no
// condition, zero-value semantics apply: nil, false, numeric zero, and
// empty strings, slices, and maps are replaced.
type Default struct {
	Value any
	Cond  func(any) bool
}

// Name returns the provenance identifier.
func (Default) Name() string { return "Default" }

// Apply returns data when it passes the condition, Value otherwise.
func (d Default) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	cond := d.Cond
	if cond == nil {
		cond = truthy
	}
	if cond(data) {
		return data, nil
	}
	return d.Value, nil
}
