package descriptor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConstraint(t *testing.T) {
	cases := []struct {
		in   string
		want Constraint
	}{
		{
			in:   "boost",
			want: Constraint{Raw: "boost", Name: "boost"},
		},
		{
			in:   "boost@1.65.1",
			want: Constraint{Raw: "boost@1.65.1", Name: "boost", Version: "1.65.1"},
		},
		{
			in: "boost@1.66.0+coroutine",
			want: Constraint{
				Raw:      "boost@1.66.0+coroutine",
				Name:     "boost",
				Version:  "1.66.0",
				Variants: []Variant{{Name: "coroutine", Enabled: true}},
			},
		},
		{
			in: "boost+coroutine~shared +mpi",
			want: Constraint{
				Raw:  "boost+coroutine~shared +mpi",
				Name: "boost",
				Variants: []Variant{
					{Name: "coroutine", Enabled: true},
					{Name: "shared", Enabled: false},
					{Name: "mpi", Enabled: true},
				},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			assert.Equal(t, c.want, ParseConstraint(c.in))
		})
	}
}

func TestDependency(t *testing.T) {
	t.Run("keeps the constraint verbatim", func(t *testing.T) {
		dep := DependsOn("boost@1.66.0+coroutine")

		assert.Equal(t, "boost", dep.Name)
		assert.Equal(t, "boost@1.66.0+coroutine", dep.Constraint)

		c := dep.Parsed()
		assert.Equal(t, "boost@1.66.0+coroutine", c.String())
		assert.Equal(t, "1.66.0", c.Version)
		assert.Equal(t, []Variant{{Name: "coroutine", Enabled: true}}, c.Variants)
		assert.Equal(t, "+coroutine", c.Variants[0].String())
		assert.Equal(t, "~shared", Variant{Name: "shared"}.String())
	})

	t.Run("checks versions", func(t *testing.T) {
		c := ParseConstraint("boost@1.66.0+coroutine")

		v, err := c.Semver()
		require.NoError(t, err)
		assert.Equal(t, uint64(66), v.Minor)

		ok, err := c.Satisfies("1.66.0")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Satisfies("1.65.1")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = c.Satisfies("garbage")
		assert.Error(t, err)
	})

	t.Run("accepts short versions", func(t *testing.T) {
		c := ParseConstraint("boost@1.66")

		v, err := c.Semver()
		require.NoError(t, err)
		assert.Equal(t, "1.66.0", v.String())

		ok, err := c.Satisfies("1.66.0")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no version", func(t *testing.T) {
		c := ParseConstraint("boost")

		_, err := c.Semver()
		assert.True(t, errors.Is(err, ErrNoVersion))

		ok, err := c.Satisfies("1.0.0")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestUnsatisfied(t *testing.T) {
	d := New("a", "").
		DependsOn("boost@1.66.0+coroutine").
		DependsOn("zlib@1.2.11").
		DependsOn("cmake").
		Build()

	bad, err := Unsatisfied(d, map[string]string{
		"boost": "1.65.1",
		"zlib":  "1.2.11",
		"cmake": "3.20",
	})
	require.NoError(t, err)

	assert.Equal(t, []Dependency{{Name: "boost", Constraint: "boost@1.66.0+coroutine"}}, bad)

	bad, err = Unsatisfied(d, nil)
	require.NoError(t, err)
	assert.Empty(t, bad)

	_, err = Unsatisfied(d, map[string]string{"zlib": "not-a-version"})
	assert.Error(t, err)
}
