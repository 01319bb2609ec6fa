package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeforge/asset"
	"github.com/c360/nodeforge/errors"
	"github.com/c360/nodeforge/graph"
)

func resolverIndex(t *testing.T) *asset.Index {
	t.Helper()
	ix := asset.NewIndex()
	require.NoError(t, ix.RegisterType(asset.TypeInfo{
		Entry: asset.Entry{Name: "Character", Path: "/game/actors/Character", Aliases: []string{"ACharacter"}},
	}))
	require.NoError(t, ix.RegisterType(asset.TypeInfo{
		Entry: asset.Entry{Name: "CharacterSpawner", Path: "/game/actors/CharacterSpawner"},
	}))
	require.NoError(t, ix.RegisterSchema(asset.ValueSchema{
		Entry: asset.Entry{Name: "HitResult", Aliases: []string{"FHitResult"}},
	}))
	require.NoError(t, ix.RegisterCallable(asset.Callable{
		Entry: asset.Entry{Name: "SpawnActor", Path: "/engine/world.K2_SpawnActor"},
	}))
	require.NoError(t, ix.RegisterSignal(asset.Signal{
		Entry: asset.Entry{Name: "Overlap"},
	}))
	return ix
}

func TestResolve_StrategyOrder(t *testing.T) {
	r := NewResolver(resolverIndex(t))

	tests := []struct {
		name          string
		class         asset.RefClass
		query         string
		wantCanonical string
		wantStrategy  Strategy
	}{
		{"exact canonical name", asset.RefType, "Character", "Character", StrategyExact},
		{"exact path", asset.RefType, "/game/actors/Character", "Character", StrategyExact},
		{"exact alias", asset.RefType, "ACharacter", "Character", StrategyExact},
		{"prefix added", asset.RefSchema, "HitResult", "HitResult", StrategyExact},
		{"prefix stripped", asset.RefSchema, "FHitResult", "HitResult", StrategyExact},
		{"signal decorated query", asset.RefSignal, "OnOverlap", "Overlap", StrategyPrefix},
		{"indexed last path segment", asset.RefCallable, "k2_spawnactor", "SpawnActor", StrategyIndexed},
		{"partial substring", asset.RefType, "Spawner", "CharacterSpawner", StrategyPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(tt.class, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCanonical, res.Canonical)
			assert.Equal(t, tt.wantStrategy, res.Strategy)
			assert.Equal(t, tt.query, res.Query)
		})
	}
}

func TestResolve_ExactBeatsPartial(t *testing.T) {
	r := NewResolver(resolverIndex(t))

	// "Character" is also a substring of "CharacterSpawner"; exact wins.
	res, err := r.Resolve(asset.RefType, "Character")
	require.NoError(t, err)
	assert.Equal(t, "Character", res.Canonical)
	assert.Equal(t, StrategyExact, res.Strategy)
}

func TestResolve_PartialDeterministic(t *testing.T) {
	r := NewResolver(resolverIndex(t))

	// Both entries contain "aracter"; the lexicographically smallest
	// canonical name wins every time.
	for i := 0; i < 5; i++ {
		res, err := r.Resolve(asset.RefType, "aracter")
		require.NoError(t, err)
		assert.Equal(t, "Character", res.Canonical)
		assert.Equal(t, StrategyPartial, res.Strategy)
	}
}

func TestResolve_NotFound(t *testing.T) {
	r := NewResolver(resolverIndex(t))

	_, err := r.Resolve(asset.RefEnum, "NoSuchEnum")
	assert.True(t, errors.IsNotFound(err))
	assert.ErrorIs(t, err, errors.ErrNameNotResolved)

	_, err = r.Resolve(asset.RefType, "")
	assert.True(t, errors.IsValidation(err))
}

func TestDataKind_Mapping(t *testing.T) {
	ix := resolverIndex(t)
	require.NoError(t, ix.RegisterSchema(asset.ValueSchema{
		Entry: asset.Entry{Name: "Transform"},
		Fields: []graph.ComponentKind{
			{Name: "Location", Kind: "vector"},
			{Name: "Scale", Kind: "float"},
		},
	}))
	r := NewResolver(ix)

	assert.True(t, r.DataKind("").Name == graph.KindNameAny)
	assert.True(t, r.DataKind("exec").IsExec())
	assert.Len(t, r.DataKind("vector").Components, 3)
	assert.Len(t, r.DataKind("color").Components, 4)
	assert.Equal(t, "float", r.DataKind("float").Name)

	transform := r.DataKind("Transform")
	assert.True(t, transform.IsComposite())
	require.Len(t, transform.Components, 2)
	assert.Equal(t, "Location", transform.Components[0].Name)
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register(nil)
	assert.True(t, errors.IsValidation(err))

	f := &stubFactory{Base: NewBase(graph.KindEventFlow, nil)}
	require.NoError(t, reg.Register(f))

	err = reg.Register(&stubFactory{Base: NewBase(graph.KindEventFlow, nil)})
	assert.True(t, errors.IsValidation(err))

	got, ok := reg.Factory(graph.KindEventFlow)
	require.True(t, ok)
	assert.Same(t, f, got)

	_, ok = reg.Factory(graph.KindParticle)
	assert.False(t, ok)

	assert.Equal(t, []graph.Kind{graph.KindEventFlow}, reg.GraphKinds())
}

func TestRegistry_FactoryFor(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&stubFactory{Base: NewBase(graph.KindEventFlow, nil)}))

	owner := asset.New("Door", "actor")

	tagged := graph.New("main", graph.KindEventFlow)
	f, err := reg.FactoryFor(owner, tagged)
	require.NoError(t, err)
	assert.Equal(t, graph.KindEventFlow, f.GraphKind())

	// Untagged graphs fall back to the kind implied by the owner's schema.
	untagged := graph.New("main", "")
	f, err = reg.FactoryFor(owner, untagged)
	require.NoError(t, err)
	assert.Equal(t, graph.KindEventFlow, f.GraphKind())

	// No tag and no owner schema.
	_, err = reg.FactoryFor(nil, graph.New("main", ""))
	assert.ErrorIs(t, err, errors.ErrNoFactory)

	// Tagged with a kind nobody registered.
	_, err = reg.FactoryFor(owner, graph.New("fx", graph.KindParticle))
	assert.ErrorIs(t, err, errors.ErrNoFactory)
}

// stubFactory satisfies NodeFactory for registry tests; Create is never
// exercised here.
type stubFactory struct {
	Base
}

func (s *stubFactory) Create(*graph.Graph, string, map[string]any, graph.Position) (*graph.Node, error) {
	return nil, nil
}
