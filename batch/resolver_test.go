package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeforge/errors"
)

func TestAliasResolver_DeclareAndResolve(t *testing.T) {
	r := newAliasResolver()
	require.NoError(t, r.declare("spawn", "node-1"))

	id, err := r.resolve("spawn")
	require.NoError(t, err)
	assert.Equal(t, "node-1", id)
}

func TestAliasResolver_EmptyAlias(t *testing.T) {
	r := newAliasResolver()
	err := r.declare("", "node-1")
	assert.True(t, errors.IsValidation(err))
}

func TestAliasResolver_DuplicateAlias(t *testing.T) {
	r := newAliasResolver()
	require.NoError(t, r.declare("spawn", "node-1"))

	err := r.declare("spawn", "node-2")
	assert.True(t, errors.IsValidation(err))
	assert.ErrorIs(t, err, errors.ErrDuplicateAlias)

	// The original binding survives the collision.
	id, err := r.resolve("spawn")
	require.NoError(t, err)
	assert.Equal(t, "node-1", id)
}

func TestAliasResolver_UndeclaredAlias(t *testing.T) {
	r := newAliasResolver()
	_, err := r.resolve("ghost")
	assert.True(t, errors.IsUnresolvedAlias(err))
	assert.ErrorIs(t, err, errors.ErrAliasUndeclared)
}

func TestAliasResolver_FailedAliasCarriesCause(t *testing.T) {
	r := newAliasResolver()
	r.markFailed("spawn", fmt.Errorf("kind %q is unknown", "no-such"))

	_, err := r.resolve("spawn")
	assert.True(t, errors.IsUnresolvedAlias(err))
	assert.ErrorIs(t, err, errors.ErrAliasFailed)
	assert.Contains(t, err.Error(), "no-such")
}

func TestAliasResolver_AliasMapIsACopy(t *testing.T) {
	r := newAliasResolver()
	require.NoError(t, r.declare("a", "node-1"))

	m := r.aliasMap()
	m["a"] = "tampered"

	id, err := r.resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "node-1", id)

	assert.Nil(t, newAliasResolver().aliasMap())
}

func TestJournal_RollbackRunsInReverse(t *testing.T) {
	j := newJournal()
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		j.record(func() { order = append(order, i) })
	}
	require.Equal(t, 3, j.size())

	j.rollback()
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, j.size())

	// A second rollback replays nothing.
	j.rollback()
	assert.Equal(t, []int{2, 1, 0}, order)
}
