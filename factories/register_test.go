package factories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/factory"
	"github.com/c360/nodeforge/graph"
)

func TestRegister_AllGraphKinds(t *testing.T) {
	registry := factory.NewRegistry()
	require.NoError(t, Register(registry, asset.NewIndex()))

	kinds := registry.GraphKinds()
	assert.Equal(t, []graph.Kind{
		graph.KindEventFlow,
		graph.KindParticle,
		graph.KindShaderExpression,
		graph.KindStateMachine,
		graph.KindUILayout,
	}, kinds)

	for _, kind := range kinds {
		f, ok := registry.Factory(kind)
		require.True(t, ok, kind)
		assert.Equal(t, kind, f.GraphKind())
		assert.NotEmpty(t, f.Kinds())
	}
}

func TestRegister_NilArguments(t *testing.T) {
	err := Register(nil, asset.NewIndex())
	assert.True(t, errors.IsValidation(err))

	err = Register(factory.NewRegistry(), nil)
	assert.True(t, errors.IsValidation(err))
}

func TestRegister_Twice(t *testing.T) {
	registry := factory.NewRegistry()
	index := asset.NewIndex()
	require.NoError(t, Register(registry, index))

	err := Register(registry, index)
	assert.True(t, errors.IsValidation(err))
}
