package pipeline

import "context"

// Compile-time check that Chain satisfies the Transform contract.
var _ Transform = (*Chain)(nil)

// Chain is a composite Transform that applies an ordered sequence of child
// transforms left to right, each consuming the previous one's output.
// A Chain is itself a Transform, so chains nest to arbitrary depth, though
// Then keeps left-associative composition flat.
//
// Chains grow only by appending. An empty Chain is the identity transform.
type Chain struct {
	steps []Transform
}

// NewChain creates a Chain with the given initial steps.
func NewChain(steps ...Transform) *Chain {
	c := &Chain{steps: make([]Transform, 0, len(steps))}
	c.steps = append(c.steps, steps...)
	return c
}

// Name returns the provenance identifier for the chain itself. It only
// appears in provenance when the chain fails outside of any step, which the
// implementation never does; step failures carry the step's own name.
func (c *Chain) Name() string { return "Chain" }

// Then appends t as the next step and returns the chain for fluent use.
// The right operand is appended as a single step even if it is itself a
// chain; flattening applies to left-associative composition only.
func (c *Chain) Then(t Transform) *Chain {
	c.steps = append(c.steps, t)
	return c
}

// Len returns the number of steps in the chain.
func (c *Chain) Len() int { return len(c.steps) }

// Steps returns a copy of the chain's step sequence in application order.
func (c *Chain) Steps() []Transform {
	out := make([]Transform, len(c.steps))
	copy(out, c.steps)
	return out
}

// Apply threads a single value through every step in order and returns the
// final value. Each step runs through Run, so a failure at step k surfaces
// with step k's transform name recorded, never the chain's.
func (c *Chain) Apply(ctx context.Context, p *Pipeline, data any, extra ...any) (any, error) {
	val := data
	for _, step := range c.steps {
		next, err := Run(ctx, step, p, val, extra...)
		if err != nil {
			return nil, err
		}
		val = next
	}
	return val, nil
}

// Validate checks every step that carries validatable configuration.
func (c *Chain) Validate() error {
	for _, step := range c.steps {
		if v, ok := step.(Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
