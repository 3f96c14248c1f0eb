package transforms

import (
	"context"

	"github.com/ahrav/go-wrangle/pipeline"
)

var (
	_ pipeline.Transform = Create[struct{}]{}
	_ pipeline.Transform = CreateMultiple[struct{}]{}
	_ pipeline.Transform = GetOrCreate[struct{}]{}
	_ pipeline.Transform = GetOrCreateMultiple[struct{}]{}
)

// Create recursively builds an instance of model M from the current value,
// using the owning pipeline's registry. It is how nested models are mapped:
// register M separately and point a field's transform at Create[M].
type Create[M any] struct{}

// Name returns the provenance identifier.
func (Create[M]) Name() string { return "Create" }

// Apply delegates to the pipeline's Create for model M.
func (Create[M]) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	return pipeline.Create[M](ctx, p, data, extra...)
}

// CreateMultiple builds one instance of model M per element of a
// sequence-shaped value and collects them into a []M.
type CreateMultiple[M any] struct{}

// Name returns the provenance identifier.
func (CreateMultiple[M]) Name() string { return "CreateMultiple" }

// Apply maps every element and returns the collected []M.
func (CreateMultiple[M]) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	elems, err := asSequence(data)
	if err != nil {
		return nil, err
	}
	out := make([]M, 0, len(elems))
	for inst, err := range pipeline.CreateMultiple[M](ctx, p, pipeline.Values(elems), extra...) {
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// GetOrCreate resolves or builds an instance of model M from the current
// value, returning a pipeline.Result carrying the instance and whether it
// was newly constructed. A nil Lookup falls back to the pipeline default.
type GetOrCreate[M any] struct {
	MatchTargets []string
	Lookup       pipeline.LookupFunc
}

// Name returns the provenance identifier.
func (GetOrCreate[M]) Name() string { return "GetOrCreate" }

// Apply delegates to the pipeline's GetOrCreate for model M.
func (g GetOrCreate[M]) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	inst, created, err := pipeline.GetOrCreate[M](ctx, p, data, g.MatchTargets, g.callOptions(extra)...)
	if err != nil {
		return nil, err
	}
	return pipeline.Result[M]{Instance: inst, Created: created}, nil
}

func (g GetOrCreate[M]) callOptions(extra []any) []pipeline.CallOption {
	opts := []pipeline.CallOption{pipeline.WithExtra(extra...)}
	if g.Lookup != nil {
		opts = append(opts, pipeline.WithLookupOverride(g.Lookup))
	}
	return opts
}

// GetOrCreateMultiple applies get-or-create to every element of a
// sequence-shaped value, collecting the results into a []pipeline.Result.
type GetOrCreateMultiple[M any] struct {
	MatchTargets []string
	Lookup       pipeline.LookupFunc
}

// Name returns the provenance identifier.
func (GetOrCreateMultiple[M]) Name() string { return "GetOrCreateMultiple" }

// Apply resolves every element and returns the collected results.
func (g GetOrCreateMultiple[M]) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	elems, err := asSequence(data)
	if err != nil {
		return nil, err
	}
	single := GetOrCreate[M]{MatchTargets: g.MatchTargets, Lookup: g.Lookup}
	out := make([]pipeline.Result[M], 0, len(elems))
	for res, err := range pipeline.GetOrCreateMultiple[M](ctx, p, pipeline.Values(elems), g.MatchTargets, single.callOptions(extra)...) {
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}
