package descriptor

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRepo = "https://example.com/x/widget.git"

func widget(env Env) *Descriptor {
	b := New("widget", "widget Client").
		Homepage("https://example.com/x/widget").
		URL("https://example.com/x/widget/archive/master.zip").
		Version(GitVersion("master", testRepo))

	if env.CICommitTag != "" {
		b.Version(GitTagVersion(env.CICommitTag, testRepo, env.CICommitTag))
	}

	return b.DependsOn("boost@1.66.0+coroutine").Build()
}

func TestDescriptor(t *testing.T) {
	t.Run("versions are kept in order", func(t *testing.T) {
		d := New("a", "").
			Version(Version("2.0.0")).
			Version(Version("1.0.0")).
			Version(Version("1.0.0")).
			Build()

		var labels []string
		for _, v := range d.Versions() {
			labels = append(labels, v.VersionLabel())
		}

		assert.Equal(t, []string{"2.0.0", "1.0.0", "1.0.0"}, labels)
		assert.Equal(t, "1.0.0", d.Latest().VersionLabel())
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		d := widget(Env{})

		vers := d.Versions()
		vers[0] = Version("bogus")

		deps := d.Dependencies()
		deps[0].Constraint = "bogus"

		assert.Equal(t, "master", d.Versions()[0].VersionLabel())
		assert.Equal(t, "boost@1.66.0+coroutine", d.Dependencies()[0].Constraint)
	})

	t.Run("built descriptors don't change", func(t *testing.T) {
		b := New("a", "a Client").
			URL("https://example.com/a/archive/master.zip").
			Version(Version("1.0.0")).
			DependsOn("boost@1.65.1")

		d := b.Build()

		b.Homepage("https://example.com/other").
			URL("https://example.com/other.zip").
			Version(Version("2.0.0")).
			DependsOn("zlib")

		assert.Equal(t, "", d.Homepage())
		assert.Equal(t, "https://example.com/a/archive/master.zip", d.URL())
		assert.Equal(t, []VersionSpec{Fixed{Label: "1.0.0"}}, d.Versions())
		assert.Equal(t, []Dependency{{Name: "boost", Constraint: "boost@1.65.1"}}, d.Dependencies())

		again := b.Build()
		assert.Len(t, again.Versions(), 2)
		assert.Len(t, d.Versions(), 1)
	})

	t.Run("construction is idempotent", func(t *testing.T) {
		for _, env := range []Env{{}, {CICommitTag: "v9"}} {
			assert.Equal(t, widget(env), widget(env))
		}
	})

	t.Run("looks up versions by label", func(t *testing.T) {
		d := widget(Env{CICommitTag: "v1.2.3"})

		v, err := d.Version("v1.2.3")
		require.NoError(t, err)

		g, ok := v.(GitRef)
		require.True(t, ok)

		assert.Equal(t, "v1.2.3", g.Ref())

		_, err = d.Version("nope")
		assert.True(t, errors.Is(err, ErrUnknown))
	})

	t.Run("validates", func(t *testing.T) {
		require.NoError(t, widget(Env{CICommitTag: "v1"}).Validate())

		assert.Equal(t, ErrNoName, New("", "").Build().Validate())

		err := New("a", "").Version(GitTagVersion("", testRepo, "v1")).Build().Validate()
		assert.True(t, errors.Is(err, ErrNoLabel))

		err = New("a", "").Version(GitVersion("master", "")).Build().Validate()
		assert.True(t, errors.Is(err, ErrNoRepository))
	})

	t.Run("accepts odd tag contents", func(t *testing.T) {
		d := widget(Env{CICommitTag: "not a ref.."})
		require.NoError(t, d.Validate())
		assert.Len(t, d.Versions(), 2)
	})
}

func TestURLFor(t *testing.T) {
	urlFor := func(t *testing.T, tmpl, label string) string {
		u, err := New("a", "").URL(tmpl).Build().URLFor(label)
		require.NoError(t, err)
		return u
	}

	t.Run("replaces a stem without a version", func(t *testing.T) {
		assert.Equal(t,
			"https://example.com/a/archive/0.0.0.zip",
			urlFor(t, "https://example.com/a/archive/master.zip", "0.0.0"))
	})

	t.Run("replaces the version inside the stem", func(t *testing.T) {
		assert.Equal(t,
			"https://example.com/dl/boost-1.66.0.tar.gz",
			urlFor(t, "https://example.com/dl/boost-1.65.1.tar.gz", "1.66.0"))

		assert.Equal(t,
			"https://example.com/a-2.1.tar.gz",
			urlFor(t, "https://example.com/a-1.0.tar.gz", "2.1"))
	})

	t.Run("replaces only the last version", func(t *testing.T) {
		assert.Equal(t,
			"https://example.com/v1.0/lib2.0-3.1.tgz",
			urlFor(t, "https://example.com/v1.0/lib2.0-1.4.tgz", "3.1"))
	})

	t.Run("handles a file without an archive extension", func(t *testing.T) {
		assert.Equal(t,
			"https://example.com/tool-1.3.0",
			urlFor(t, "https://example.com/tool-1.2.3", "1.3.0"))
	})

	t.Run("expands a placeholder", func(t *testing.T) {
		assert.Equal(t,
			"https://example.com/a/v1.2/a-1.2.tgz",
			urlFor(t, "https://example.com/a/v$version/a-$version.tgz", "1.2"))
	})

	t.Run("errors without a file", func(t *testing.T) {
		_, err := New("a", "").URL("https://example.com/a/").Build().URLFor("1.2")
		assert.Error(t, err)
	})
}

func TestTuples(t *testing.T) {
	t.Run("env unset", func(t *testing.T) {
		d := widget(Env{})

		assert.Equal(t, []VersionTuple{
			{Label: "master", Kind: SourceGit, Location: testRepo, Ref: "master"},
		}, d.Tuples())
	})

	t.Run("env set", func(t *testing.T) {
		d := widget(Env{CICommitTag: "v1.2.3"})

		assert.Equal(t, []VersionTuple{
			{Label: "master", Kind: SourceGit, Location: testRepo, Ref: "master"},
			{Label: "v1.2.3", Kind: SourceGit, Location: testRepo, Ref: "v1.2.3", Tag: "v1.2.3"},
		}, d.Tuples())
	})

	t.Run("fixed versions resolve the archive", func(t *testing.T) {
		d := New("a", "").
			URL("https://example.com/a/archive/master.zip").
			Version(Version("0.0.0")).
			Build()

		assert.Equal(t, []VersionTuple{
			{Label: "0.0.0", Kind: SourceArchive, Location: "https://example.com/a/archive/0.0.0.zip"},
		}, d.Tuples())
	})

	t.Run("dependency pairs", func(t *testing.T) {
		assert.Equal(t, []DependencyPair{
			{Name: "boost", Constraint: "boost@1.66.0+coroutine"},
		}, widget(Env{}).DependencyPairs())
	})
}
