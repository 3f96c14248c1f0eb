package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-wrangle/pipeline"
	"github.com/ahrav/go-wrangle/transforms"
)

func TestCollector_WrapRecordsSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	wrapped := collector.Wrap(transforms.Get{Key: "name"})
	assert.Equal(t, "Get", wrapped.Name(), "metrics wrapping is transparent to provenance")

	out, err := pipeline.Run(context.Background(), wrapped, nil, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out)

	success := testutil.ToFloat64(collector.applyTotal.WithLabelValues("Get", "success"))
	assert.Equal(t, 1.0, success)
}

func TestCollector_WrapRecordsErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	wrapped := collector.Wrap(transforms.Get{Key: "missing"})

	_, err := pipeline.Run(context.Background(), wrapped, nil, map[string]any{})
	require.Error(t, err)

	// The wrapped transform still owns provenance.
	var te *pipeline.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Get", te.Transform)
	assert.ErrorIs(t, err, transforms.ErrKeyNotFound)

	failures := testutil.ToFloat64(collector.applyTotal.WithLabelValues("Get", "error"))
	assert.Equal(t, 1.0, failures)
}

func TestCollector_SharedAcrossTransforms(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	chain := pipeline.NewChain(
		collector.Wrap(transforms.Get{Key: "items"}),
		collector.Wrap(transforms.Flatten{}),
	)

	out, err := pipeline.Run(context.Background(), chain, nil, map[string]any{
		"items": []any{[]any{1}, []any{2}},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, out)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.applyTotal.WithLabelValues("Get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.applyTotal.WithLabelValues("Flatten", "success")))
}

func TestCollector_ValidateForwards(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	invalid := collector.Wrap(transforms.Gather{})
	v, ok := invalid.(pipeline.Validator)
	require.True(t, ok)
	assert.Error(t, v.Validate())

	valid := collector.Wrap(transforms.Identity{})
	v, ok = valid.(pipeline.Validator)
	require.True(t, ok)
	assert.NoError(t, v.Validate())
}

func TestCollector_NestedErrorNotDoubleCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	errInner := errors.New("inner failure")
	failing := collector.Wrap(failingTransform{err: errInner})

	_, err := pipeline.Run(context.Background(), failing, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errInner)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.applyTotal.WithLabelValues("Failing", "error")))
}

type failingTransform struct {
	err error
}

func (failingTransform) Name() string { return "Failing" }

func (f failingTransform) Apply(context.Context, *pipeline.Pipeline, any, ...any) (any, error) {
	return nil, f.err
}
