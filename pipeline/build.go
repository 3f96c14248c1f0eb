package pipeline

import (
	"context"
	"fmt"
	"iter"
)

// CallOption adjusts a single get-or-create call.
type CallOption func(*callOptions)

type callOptions struct {
	lookup LookupFunc
	extra  []any
}

// WithLookupOverride supplies a lookup for this call only, taking precedence
// over the pipeline default.
func WithLookupOverride(fn LookupFunc) CallOption {
	return func(co *callOptions) { co.lookup = fn }
}

// WithExtra forwards pass-through arguments to every transform evaluated
// during the call, mirroring the extra arguments of Create and BuildKwargs.
func WithExtra(extra ...any) CallOption {
	return func(co *callOptions) { co.extra = extra }
}

// Result pairs a resolved instance with whether it was newly constructed.
type Result[M any] struct {
	Instance M
	Created  bool
}

// BuildKwarg builds the single named constructor argument for model M from
// data. It fails with ErrNotRegistered when the model or field has no
// binding, or with a *FieldError carrying full provenance when the
// registered transform fails.
func BuildKwarg[M any](ctx context.Context, p *Pipeline, field string, data any, extra ...any) (any, error) {
	b, err := p.bindingFor(typeOf[M]())
	if err != nil {
		return nil, err
	}
	return p.buildKwarg(ctx, b, field, data, extra...)
}

// BuildKwargs builds every registered constructor argument for model M from
// data, keyed by argument name. Evaluation order across fields is
// unspecified; any field failure discards the partial result and propagates.
func BuildKwargs[M any](ctx context.Context, p *Pipeline, data any, extra ...any) (map[string]any, error) {
	b, err := p.bindingFor(typeOf[M]())
	if err != nil {
		return nil, err
	}
	return p.buildKwargs(ctx, b, data, extra...)
}

// Create builds a single instance of model M from data by running every
// registered field transform and invoking the model's constructor with the
// results.
func Create[M any](ctx context.Context, p *Pipeline, data any, extra ...any) (M, error) {
	var zero M
	b, err := p.bindingFor(typeOf[M]())
	if err != nil {
		return zero, err
	}
	inst, err := p.create(ctx, b, data, extra...)
	if err != nil {
		return zero, err
	}
	return inst.(M), nil
}

func (p *Pipeline) create(ctx context.Context, b *binding, data any, extra ...any) (any, error) {
	kwargs, err := p.buildKwargs(ctx, b, data, extra...)
	if err != nil {
		return nil, err
	}
	inst, err := b.build(kwargs)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", b.name, err)
	}
	return inst, nil
}

// CreateMultiple lazily builds one instance of M per element of data. Each
// pull of the returned sequence maps exactly one element; nothing is
// evaluated ahead of consumption. The sequence is single-pass and ends after
// the first failure; restart by calling CreateMultiple again on the source.
func CreateMultiple[M any](ctx context.Context, p *Pipeline, data iter.Seq[any], extra ...any) iter.Seq2[M, error] {
	return func(yield func(M, error) bool) {
		for item := range data {
			inst, err := Create[M](ctx, p, item, extra...)
			if !yield(inst, err) || err != nil {
				return
			}
		}
	}
}

// GetOrCreate resolves an existing instance of M matching data, or builds a
// new one. The returned flag is true when a new instance was constructed.
//
// The lookup key is the full set of built kwargs when matchTargets is empty,
// or only the named fields otherwise; the narrow key avoids building fields
// that matching does not need. When a narrow match misses, the full kwargs
// are rebuilt from scratch before construction, re-running every transform
// including the match-target ones. Registered transforms must therefore be
// safe to re-run; see the package tests for the exact semantics.
func GetOrCreate[M any](ctx context.Context, p *Pipeline, data any, matchTargets []string, opts ...CallOption) (M, bool, error) {
	var zero M

	b, err := p.bindingFor(typeOf[M]())
	if err != nil {
		return zero, false, err
	}

	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	lookup := co.lookup
	if lookup == nil {
		lookup = p.lookup
	}
	if lookup == nil {
		return zero, false, fmt.Errorf("model %s: %w", b.name, ErrNoLookup)
	}

	var key map[string]any
	if len(matchTargets) == 0 {
		key, err = p.buildKwargs(ctx, b, data, co.extra...)
		if err != nil {
			return zero, false, err
		}
	} else {
		key = make(map[string]any, len(matchTargets))
		for _, field := range matchTargets {
			val, err := p.buildKwarg(ctx, b, field, data, co.extra...)
			if err != nil {
				return zero, false, err
			}
			key[field] = val
		}
	}

	found, err := lookup(ctx, b.name, key)
	if err != nil {
		return zero, false, fmt.Errorf("lookup %s: %w", b.name, err)
	}
	if found != nil {
		inst, ok := found.(M)
		if !ok {
			return zero, false, fmt.Errorf("lookup %s: returned %T, want %s", b.name, found, b.model)
		}
		return inst, false, nil
	}

	kwargs := key
	if len(matchTargets) > 0 {
		// The narrow key covers only the match fields; construction needs
		// every field, so rebuild the full set.
		kwargs, err = p.buildKwargs(ctx, b, data, co.extra...)
		if err != nil {
			return zero, false, err
		}
	}
	inst, err := b.build(kwargs)
	if err != nil {
		return zero, false, fmt.Errorf("construct %s: %w", b.name, err)
	}
	return inst.(M), true, nil
}

// GetOrCreateMultiple lazily applies GetOrCreate to each element of data,
// with the same single-pass and restart semantics as CreateMultiple.
func GetOrCreateMultiple[M any](ctx context.Context, p *Pipeline, data iter.Seq[any], matchTargets []string, opts ...CallOption) iter.Seq2[Result[M], error] {
	return func(yield func(Result[M], error) bool) {
		for item := range data {
			inst, created, err := GetOrCreate[M](ctx, p, item, matchTargets, opts...)
			res := Result[M]{Instance: inst, Created: created}
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
}

// Values adapts a slice to the iter.Seq consumed by CreateMultiple and
// GetOrCreateMultiple.
func Values[S ~[]E, E any](s S) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}
}
