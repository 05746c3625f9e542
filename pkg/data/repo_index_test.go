package data

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/recipe/pkg/descriptor"
	"lab47.dev/recipe/pkg/recipes"
)

func TestRepoIndex(t *testing.T) {
	env := descriptor.Env{CICommitTag: "v1.2.3"}

	idx := NewRepoIndex(env, recipes.Default().All(env))

	require.Len(t, idx.Entries, 2)
	assert.Equal(t, "v1.2.3", idx.CITag)

	var buf bytes.Buffer

	err := idx.Write(&buf)
	require.NoError(t, err)

	back, err := ReadRepoIndex(&buf)
	require.NoError(t, err)

	ent, ok := back.Lookup("container-builder")
	require.True(t, ok)

	assert.Equal(t, "container-builder Client", ent.Description)
	require.Len(t, ent.Versions, 2)
	assert.Equal(t, "v1.2.3", ent.Versions[1].Tag)
	assert.Equal(t, []descriptor.DependencyPair{
		{Name: "boost", Constraint: "boost@1.66.0+coroutine"},
	}, ent.Dependencies)

	assert.Equal(t, "code.ornl.gov/olcf/container-builder", ent.Metadata["repository"])

	ent, ok = back.Lookup("containerbuilder")
	require.True(t, ok)
	assert.Equal(t, descriptor.SourceArchive, ent.Versions[0].Kind)
	assert.Nil(t, ent.Metadata)

	_, ok = back.Lookup("nope")
	assert.False(t, ok)
}

func TestRepoIndexStale(t *testing.T) {
	reg := recipes.Default()

	written := NewRepoIndex(descriptor.Env{}, reg.All(descriptor.Env{}))

	var buf bytes.Buffer
	require.NoError(t, written.Write(&buf))

	saved, err := ReadRepoIndex(&buf)
	require.NoError(t, err)

	t.Run("up to date", func(t *testing.T) {
		current := NewRepoIndex(descriptor.Env{}, reg.All(descriptor.Env{}))
		assert.Empty(t, saved.Stale(current))
	})

	t.Run("a new tag changes one entry", func(t *testing.T) {
		env := descriptor.Env{CICommitTag: "v1.2.3"}
		current := NewRepoIndex(env, reg.All(env))

		assert.Equal(t, []string{"container-builder"}, saved.Stale(current))
	})

	t.Run("added and removed packages", func(t *testing.T) {
		only := recipes.NewRegistry()
		only.MustRegister("containerbuilder", recipes.LegacyContainerBuilder)

		current := NewRepoIndex(descriptor.Env{}, only.All(descriptor.Env{}))
		assert.Equal(t, []string{"container-builder"}, saved.Stale(current))

		partial := NewRepoIndex(descriptor.Env{}, only.All(descriptor.Env{}))
		full := NewRepoIndex(descriptor.Env{}, reg.All(descriptor.Env{}))
		assert.Equal(t, []string{"container-builder"}, partial.Stale(full))
	})
}
