package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LookupFunc resolves whether an instance matching the given fields already
// exists, typically against a database or cache. The model parameter is the
// registered model name and key maps field names to the values produced by
// the registered transforms.
//
// A (nil, nil) return means "not found". A non-nil first return must be an
// instance of the model being resolved. Implementations must return an
// untyped nil for the not-found case; a typed nil pointer wrapped in an
// interface is treated as found.
type LookupFunc func(ctx context.Context, model string, key map[string]any) (any, error)

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithLookup sets the pipeline-wide default lookup used by get-or-create
// operations when no per-call lookup is supplied.
func WithLookup(fn LookupFunc) Option {
	return func(p *Pipeline) { p.lookup = fn }
}

// WithFieldConcurrency allows up to n sibling fields of one model to be
// built concurrently during BuildKwargs. Fields are logically independent,
// so concurrent evaluation is observationally equivalent to sequential
// evaluation as long as the registered transforms are safe for concurrent
// use. Values below 2 keep the default sequential behavior.
func WithFieldConcurrency(n int) Option {
	return func(p *Pipeline) { p.fieldConcurrency = n }
}

// binding is the registered mapping for one model type: the transform per
// constructor argument plus the constructor invoked with the built values.
type binding struct {
	model  reflect.Type
	name   string
	fields map[string]Transform
	build  func(kwargs map[string]any) (any, error)
}

// Pipeline orchestrates model construction. It owns the registry binding
// each model type to its field transforms and an optional default lookup.
//
// A Pipeline carries no per-call state: once registration is complete it is
// safe for concurrent use from multiple goroutines.
type Pipeline struct {
	// mu guards bindings against registration racing with use.
	mu       sync.RWMutex
	bindings map[reflect.Type]*binding

	// lookup is the default lookup for get-or-create operations.
	lookup LookupFunc

	// fieldConcurrency bounds concurrent sibling-field evaluation;
	// values below 2 mean sequential.
	fieldConcurrency int
}

// New creates an empty Pipeline. Models are added with Register before the
// first Create or GetOrCreate call for that model.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{bindings: make(map[reflect.Type]*binding)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Binding declares how instances of model type M are built: one Transform
// per constructor argument, keyed by argument name, plus an optional
// constructor.
type Binding[M any] struct {
	// Fields maps each constructor argument name to the transform that
	// produces its value from the raw input data. For the default
	// constructor the keys must match exported struct field names of M.
	Fields map[string]Transform

	// Build constructs an instance from the built argument values. When
	// nil, a reflective constructor fills the exported struct fields of M
	// by name.
	Build func(kwargs map[string]any) (M, error)
}

// Register binds model type M to the pipeline. Every transform that carries
// validatable configuration is checked here so that misconfiguration fails
// at registration rather than during mapping. Registering the same model
// twice replaces the previous binding.
func Register[M any](p *Pipeline, b Binding[M]) error {
	t := typeOf[M]()
	if len(b.Fields) == 0 {
		return fmt.Errorf("register %s: binding has no fields", t.Name())
	}
	for field, tr := range b.Fields {
		if tr == nil {
			return fmt.Errorf("register %s: field %s has a nil transform", t.Name(), field)
		}
		if v, ok := tr.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("register %s: field %s: %w", t.Name(), field, err)
			}
		}
	}

	build := func(kwargs map[string]any) (any, error) {
		return buildByReflection(t, kwargs)
	}
	if b.Build != nil {
		custom := b.Build
		build = func(kwargs map[string]any) (any, error) {
			return custom(kwargs)
		}
	}

	fields := make(map[string]Transform, len(b.Fields))
	for name, tr := range b.Fields {
		fields[name] = tr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindings[t] = &binding{
		model:  t,
		name:   t.Name(),
		fields: fields,
		build:  build,
	}
	return nil
}

// Registered reports whether model type M has a binding in the pipeline.
func Registered[M any](p *Pipeline) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.bindings[typeOf[M]()]
	return ok
}

// typeOf resolves the reflect.Type of M without allocating an instance.
func typeOf[M any]() reflect.Type {
	return reflect.TypeOf((*M)(nil)).Elem()
}

// bindingFor returns the binding for t or a registry-miss error.
func (p *Pipeline) bindingFor(t reflect.Type) (*binding, error) {
	p.mu.RLock()
	b, ok := p.bindings[t]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("model %s: %w", t.Name(), ErrNotRegistered)
	}
	return b, nil
}

// buildKwarg builds a single constructor argument by running the registered
// transform on data. A propagated transform failure is re-tagged exactly
// once with model and field provenance; the original error kind remains
// reachable through Unwrap.
func (p *Pipeline) buildKwarg(ctx context.Context, b *binding, field string, data any, extra ...any) (any, error) {
	tr, ok := b.fields[field]
	if !ok {
		return nil, fmt.Errorf("field %s.%s: %w", b.name, field, ErrNotRegistered)
	}

	out, err := Run(ctx, tr, p, data, extra...)
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			return nil, &FieldError{
				Model:     b.name,
				Field:     field,
				Transform: te.Transform,
				Err:       te.Err,
			}
		}
		return nil, err
	}
	return out, nil
}

// buildKwargs builds every registered constructor argument for the model.
// It fails fast: on the first field failure the partial result is discarded
// and the error propagates. With field concurrency enabled, sibling fields
// are evaluated in a bounded errgroup; each field's own chain remains
// strictly sequential.
func (p *Pipeline) buildKwargs(ctx context.Context, b *binding, data any, extra ...any) (map[string]any, error) {
	if p.fieldConcurrency > 1 && len(b.fields) > 1 {
		return p.buildKwargsConcurrent(ctx, b, data, extra...)
	}

	kwargs := make(map[string]any, len(b.fields))
	for field := range b.fields {
		val, err := p.buildKwarg(ctx, b, field, data, extra...)
		if err != nil {
			return nil, err
		}
		kwargs[field] = val
	}
	return kwargs, nil
}

func (p *Pipeline) buildKwargsConcurrent(ctx context.Context, b *binding, data any, extra ...any) (map[string]any, error) {
	kwargs := make(map[string]any, len(b.fields))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.fieldConcurrency)

	for field := range b.fields {
		g.Go(func() error {
			val, err := p.buildKwarg(gctx, b, field, data, extra...)
			if err != nil {
				return err
			}
			mu.Lock()
			kwargs[field] = val
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return kwargs, nil
}

// buildByReflection is the default model constructor: it fills the exported
// struct fields of t by name from kwargs. Values must be assignable to the
// target field type, or convertible without changing their meaning (see
// losslessConvertible); nil values leave the zero value.
func buildByReflection(t reflect.Type, kwargs map[string]any) (any, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model %s: default constructor requires a struct type, got %s", t.Name(), t.Kind())
	}

	inst := reflect.New(t).Elem()
	// Deterministic order so the first bad field reported is stable.
	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val := kwargs[name]
		field := inst.FieldByName(name)
		if !field.IsValid() {
			return nil, fmt.Errorf("model %s: no field %q to assign", t.Name(), name)
		}
		if !field.CanSet() {
			return nil, fmt.Errorf("model %s: field %q is not settable", t.Name(), name)
		}
		if val == nil {
			continue
		}
		vv := reflect.ValueOf(val)
		switch {
		case vv.Type().AssignableTo(field.Type()):
			field.Set(vv)
		case losslessConvertible(vv.Type(), field.Type()):
			field.Set(vv.Convert(field.Type()))
		default:
			return nil, fmt.Errorf("model %s: field %q: cannot assign %T", t.Name(), name, val)
		}
	}
	return inst.Interface(), nil
}

// losslessConvertible reports whether converting from one type to the other
// preserves the value's meaning. Go's full conversion set does not: int to
// string is a rune conversion (65 becomes "A") and float to int truncates,
// both of which would corrupt data silently. Only conversions within one
// numeric class, or between types of the same kind (named types), qualify.
func losslessConvertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	f, t := from.Kind(), to.Kind()
	switch {
	case isIntKind(f) && isIntKind(t),
		isUintKind(f) && isUintKind(t),
		isFloatKind(f) && isFloatKind(t):
		return true
	case f == t:
		return true
	}
	return false
}

func isIntKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUintKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
