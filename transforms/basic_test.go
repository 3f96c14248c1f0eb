package transforms

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-wrangle/pipeline"
)

func apply(t *testing.T, tr pipeline.Transform, data any) (any, error) {
	t.Helper()
	return pipeline.Run(context.Background(), tr, nil, data)
}

func TestIdentity(t *testing.T) {
	out, err := apply(t, Identity{}, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestConstant(t *testing.T) {
	out, err := apply(t, Constant{Value: "fixed"}, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)
}

func TestCast(t *testing.T) {
	atoi := Cast[string, int]{Func: strconv.Atoi}

	t.Run("converts matching input", func(t *testing.T) {
		out, err := apply(t, atoi, "36")
		require.NoError(t, err)
		assert.Equal(t, 36, out)
	})

	t.Run("conversion failure propagates", func(t *testing.T) {
		_, err := apply(t, atoi, "not a number")
		require.Error(t, err)

		var te *pipeline.Error
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "Cast", te.Transform)
	})

	t.Run("wrong dynamic type", func(t *testing.T) {
		_, err := apply(t, atoi, 36)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTypeMismatch)
	})

	t.Run("validate rejects nil func", func(t *testing.T) {
		assert.ErrorIs(t, Cast[string, int]{}.Validate(), ErrNilFunc)
	})
}

func TestCustom(t *testing.T) {
	double := Custom{
		Func: func(_ context.Context, _ *pipeline.Pipeline, data any, _ ...any) (any, error) {
			return data.(int) * 2, nil
		},
	}

	out, err := apply(t, double, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
}

func TestCustom_ReceivesExtraArgs(t *testing.T) {
	var got []any
	record := Custom{
		Func: func(_ context.Context, _ *pipeline.Pipeline, data any, extra ...any) (any, error) {
			got = extra
			return data, nil
		},
	}

	_, err := pipeline.Run(context.Background(), record, nil, "data", "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", 2}, got)
}

func TestCustom_ErrorTagged(t *testing.T) {
	errNope := errors.New("nope")
	failing := Custom{
		Func: func(context.Context, *pipeline.Pipeline, any, ...any) (any, error) {
			return nil, errNope
		},
	}

	_, err := apply(t, failing, nil)
	require.Error(t, err)

	var te *pipeline.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Custom", te.Transform)
	assert.ErrorIs(t, err, errNope)
}

func TestDefault(t *testing.T) {
	tests := []struct {
		name string
		tr   Default
		in   any
		want any
	}{
		{name: "nil replaced", tr: Default{Value: 0}, in: nil, want: 0},
		{name: "zero int replaced", tr: Default{Value: 7}, in: 0, want: 7},
		{name: "empty string replaced", tr: Default{Value: "anon"}, in: "", want: "anon"},
		{name: "empty slice replaced", tr: Default{Value: "none"}, in: []any{}, want: "none"},
		{name: "non-zero kept", tr: Default{Value: 0}, in: 36, want: 36},
		{name: "false replaced", tr: Default{Value: true}, in: false, want: true},
		{
			name: "custom condition",
			tr:   Default{Value: "short", Cond: func(v any) bool { return len(v.(string)) > 3 }},
			in:   "ab",
			want: "short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := apply(t, tt.tr, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
