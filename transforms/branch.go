package transforms

import (
	"context"

	"github.com/ahrav/go-wrangle/pipeline"
)

var _ pipeline.Transform = If{}

// If routes the input through Then when Cond holds, or through Else
// otherwise. With no Else branch, a failed condition produces nil. Both
// branches run through the standard call contract, so provenance reports
// the branch transform that failed, not If.
type If struct {
	Cond func(any) bool
	Then pipeline.Transform
	Else pipeline.Transform
}

// Name returns the provenance identifier.
func (If) Name() string { return "If" }

// Validate checks the condition and both branches.
func (t If) Validate() error {
	if t.Cond == nil {
		return ErrNilFunc
	}
	if t.Then == nil {
		return ErrNilTransform
	}
	for _, branch := range []pipeline.Transform{t.Then, t.Else} {
		if v, ok := branch.(pipeline.Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Apply evaluates the condition and runs the selected branch.
func (t If) Apply(ctx context.Context, p *pipeline.Pipeline, data any, extra ...any) (any, error) {
	if t.Cond(data) {
		return pipeline.Run(ctx, t.Then, p, data, extra...)
	}
	if t.Else != nil {
		return pipeline.Run(ctx, t.Else, p, data, extra...)
	}
	return nil, nil
}
