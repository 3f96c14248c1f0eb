package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-wrangle/pipeline"
	"github.com/ahrav/go-wrangle/transforms"
)

func TestTracing_Passthrough(t *testing.T) {
	traced := Tracing(transforms.Get{Key: "name"}, "wrangle-test")
	assert.Equal(t, "Get", traced.Name(), "tracing wrapping is transparent to provenance")

	out, err := pipeline.Run(context.Background(), traced, nil, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", out)
}

func TestTracing_ErrorKeepsProvenance(t *testing.T) {
	traced := Tracing(transforms.Get{Key: "missing"}, "wrangle-test")

	_, err := pipeline.Run(context.Background(), traced, nil, map[string]any{})
	require.Error(t, err)

	var te *pipeline.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Get", te.Transform)
	assert.ErrorIs(t, err, transforms.ErrKeyNotFound)
}

func TestTracing_ComposesInChains(t *testing.T) {
	chain := pipeline.Then(
		Tracing(transforms.Get{Key: "age"}, "wrangle-test"),
		Tracing(transforms.Default{Value: 0}, "wrangle-test"),
	)

	out, err := pipeline.Run(context.Background(), chain, nil, map[string]any{"age": 36})
	require.NoError(t, err)
	assert.Equal(t, 36, out)
}
