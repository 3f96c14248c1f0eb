package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// static is a stub transform returning a fixed value.
type static struct {
	name string
	out  any
}

func (s static) Name() string { return s.name }

func (s static) Apply(_ context.Context, _ *Pipeline, _ any, _ ...any) (any, error) {
	return s.out, nil
}

// appendStr is a stub transform appending a suffix to a string input.
type appendStr struct {
	suffix string
}

func (appendStr) Name() string { return "AppendStr" }

func (a appendStr) Apply(_ context.Context, _ *Pipeline, data any, _ ...any) (any, error) {
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("append: got %T, want string", data)
	}
	return s + a.suffix, nil
}

// failing is a stub transform that always returns its configured error.
type failing struct {
	name string
	err  error
}

func (f failing) Name() string { return f.name }

func (f failing) Apply(_ context.Context, _ *Pipeline, _ any, _ ...any) (any, error) {
	return nil, f.err
}

// passthrough returns its input unchanged.
type passthrough struct{}

func (passthrough) Name() string { return "Passthrough" }

func (passthrough) Apply(_ context.Context, _ *Pipeline, data any, _ ...any) (any, error) {
	return data, nil
}

var errBoom = errors.New("boom")

func TestRun_Success(t *testing.T) {
	out, err := Run(context.Background(), appendStr{suffix: "!"}, nil, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi!", out)
}

func TestRun_WrapsOriginalErrorOnce(t *testing.T) {
	_, err := Run(context.Background(), failing{name: "Explode", err: errBoom}, nil, "data")
	require.Error(t, err)

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Explode", te.Transform)
	assert.ErrorIs(t, err, errBoom, "original error kind must survive wrapping")
	assert.Contains(t, err.Error(), "Explode")
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_PassesExistingErrorUnchanged(t *testing.T) {
	inner := &Error{Transform: "Inner", Err: errBoom}
	_, err := Run(context.Background(), failing{name: "Outer", err: inner}, nil, nil)
	require.Error(t, err)

	var te *Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Inner", te.Transform, "existing provenance must not be overwritten")
	assert.Same(t, inner, te)
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, passthrough{}, nil, "data")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var te *Error
	assert.False(t, errors.As(err, &te), "cancellation must not be attributed to a transform")
}

func TestRun_CancellationInsideApplyNotAttributed(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", context.DeadlineExceeded)
	_, err := Run(context.Background(), failing{name: "Slow", err: wrapped}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var te *Error
	assert.False(t, errors.As(err, &te))
}

func TestThen_AllocatesChainForPlainTransforms(t *testing.T) {
	a := static{name: "A", out: 1}
	b := static{name: "B", out: 2}

	composed := Then(a, b)
	chain, ok := composed.(*Chain)
	require.True(t, ok)
	assert.Equal(t, 2, chain.Len())
}

func TestThen_FlattensLeftAssociativeComposition(t *testing.T) {
	a := appendStr{suffix: "a"}
	b := appendStr{suffix: "b"}
	c := appendStr{suffix: "c"}

	composed := Then(Then(a, b), c)
	chain, ok := composed.(*Chain)
	require.True(t, ok)
	require.Equal(t, 3, chain.Len(), "composition must flatten, not nest")

	out, err := Run(context.Background(), composed, nil, "_")
	require.NoError(t, err)
	assert.Equal(t, "_abc", out)
}

func TestThen_MutatesExistingChainInPlace(t *testing.T) {
	chain := NewChain(appendStr{suffix: "a"})
	composed := Then(chain, appendStr{suffix: "b"})
	assert.Same(t, chain, composed)
	assert.Equal(t, 2, chain.Len())
}

func TestThen_IdentityDoesNotAlterBehavior(t *testing.T) {
	base := appendStr{suffix: "x"}
	withIdentity := Then(Then(passthrough{}, base), passthrough{})

	got, err := Run(context.Background(), withIdentity, nil, "in")
	require.NoError(t, err)

	want, err := Run(context.Background(), base, nil, "in")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
