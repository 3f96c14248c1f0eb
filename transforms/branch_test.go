package transforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-wrangle/pipeline"
)

func TestIf(t *testing.T) {
	isString := func(v any) bool { _, ok := v.(string); return ok }

	branch := If{
		Cond: isString,
		Then: Constant{Value: "string"},
		Else: Constant{Value: "other"},
	}

	out, err := apply(t, branch, "hello")
	require.NoError(t, err)
	assert.Equal(t, "string", out)

	out, err = apply(t, branch, 42)
	require.NoError(t, err)
	assert.Equal(t, "other", out)
}

func TestIf_NoElseYieldsNil(t *testing.T) {
	branch := If{
		Cond: func(any) bool { return false },
		Then: Constant{Value: "never"},
	}

	out, err := apply(t, branch, "data")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestIf_BranchOwnsProvenance(t *testing.T) {
	branch := If{
		Cond: func(any) bool { return true },
		Then: Get{Key: "missing"},
	}

	_, err := apply(t, branch, map[string]any{})
	require.Error(t, err)

	var te *pipeline.Error
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "Get", te.Transform, "the branch transform owns provenance, not If")
}

func TestIf_Validate(t *testing.T) {
	assert.ErrorIs(t, If{}.Validate(), ErrNilFunc)
	assert.ErrorIs(t, If{Cond: func(any) bool { return true }}.Validate(), ErrNilTransform)
	assert.NoError(t, If{Cond: func(any) bool { return true }, Then: Identity{}}.Validate())
}
