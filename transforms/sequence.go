package transforms

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ahrav/go-wrangle/pipeline"
)

var (
	_ pipeline.Transform = Filter{}
	_ pipeline.Transform = Map{}
	_ pipeline.Transform = ForEach{}
	_ pipeline.Transform = Flatten{}
)

// Filter keeps the elements of a sequence for which Pred holds.
type Filter struct {
	Pred func(any) bool
}

// Name returns the provenance identifier.
func (Filter) Name() string { return "Filter" }

// Validate checks that a predicate was supplied.
func (f Filter) Validate() error {
	if f.Pred == nil {
		return ErrNilFunc
	}
	return nil
}

// Apply returns the kept elements as a []any, preserving order.
func (f Filter) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	elems, err := asSequence(data)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(elems))
	for _, el := range elems {
		if f.Pred(el) {
			out = append(out, el)
		}
	}
	return out, nil
}

// Map applies Func to every element of a sequence.
type Map struct {
	Func func(any) (any, error)
}

// Name returns the provenance identifier.
func (Map) Name() string { return "Map" }

// Validate checks that a mapping function was supplied.
func (m Map) Validate() error {
	if m.Func == nil {
		return ErrNilFunc
	}
	return nil
}

// Apply returns the mapped elements as a []any, preserving order.
func (m Map) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	elems, err := asSequence(data)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(elems))
	for i, el := range elems {
		mapped, err := m.Func(el)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}

// ForEach applies a child transform to every element of a sequence. The
// child runs through the standard call contract, so an element failure
// carries the child's name in provenance, not ForEach's.
type ForEach struct {
	Transform pipeline.Transform
}

// Name returns the provenance identifier.
func (ForEach) Name() string { return "ForEach" }

// Validate checks the child transform and its own configuration.
func (fe ForEach) Validate() error {
	if fe.Transform == nil {
		return ErrNilTransform
	}
	if v, ok := fe.Transform.(pipeline.Validator); ok {
		return v.Validate()
	}
	return nil
}

// Apply returns the per-element results as a []any, preserving order.
func (fe ForEach) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	elems, err := asSequence(data)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(elems))
	for i, el := range elems {
		mapped, err := pipeline.Run(ctx, fe.Transform, p, el, extra...)
		if err != nil {
			return nil, err
		}
		out[i] = mapped
	}
	return out, nil
}

// Flatten concatenates one level of nesting per depth step: a sequence of
// sequences becomes a single sequence. The zero value flattens one level,
// so a no-op depth is not expressible; leave Flatten out of the chain (or
// use Identity) where the input should pass through unchanged.
type Flatten struct {
	Depth int `validate:"gte=0"`
}

// Name returns the provenance identifier.
func (Flatten) Name() string { return "Flatten" }

// Validate rejects negative depths.
func (f Flatten) Validate() error { return validate.Struct(f) }

// Apply returns the flattened sequence as a []any.
func (f Flatten) Apply(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
	depth := f.Depth
	if depth == 0 {
		depth = 1
	}
	current, err := asSequence(data)
	if err != nil {
		return nil, err
	}
	for range depth {
		var next []any
		for _, el := range current {
			inner, err := asSequence(el)
			if err != nil {
				return nil, fmt.Errorf("flatten element %T: %w", el, err)
			}
			next = append(next, inner...)
		}
		current = next
	}
	return current, nil
}

// asSequence normalizes any slice or array to []any.
func asSequence(data any) ([]any, error) {
	if elems, ok := data.([]any); ok {
		return elems, nil
	}
	rv := reflect.ValueOf(data)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("got %T: %w", data, ErrNotIterable)
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
