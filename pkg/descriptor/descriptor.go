package descriptor

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var (
	ErrNoName       = errors.New("descriptor has no name")
	ErrNoLabel      = errors.New("version has no label")
	ErrNoRepository = errors.New("git version has no repository")
	ErrUnknown      = errors.New("unknown version")
)

// Env carries the values a recipe may depend on. Recipes only ever see
// the environment through this struct.
type Env struct {
	// CICommitTag is the tag of the pipeline being built, empty when the
	// build is not for a tag.
	CICommitTag string
}

// VersionDescriber is implemented by anything that declares installable
// versions.
type VersionDescriber interface {
	Versions() []VersionSpec
}

// DependencyDescriber is implemented by anything that declares dependencies.
type DependencyDescriber interface {
	Dependencies() []Dependency
}

// Package is the full surface read by a resolver.
type Package interface {
	VersionDescriber
	DependencyDescriber

	Name() string
	Homepage() string
	URL() string
}

// Descriptor is the static record for one package. It has no mutating
// methods; use a Builder to make one.
type Descriptor struct {
	name     string
	summary  string
	homepage string
	url      string

	versions []VersionSpec
	deps     []Dependency
}

var _ Package = (*Descriptor)(nil)

// Recipe builds a Descriptor for the given environment. Recipes must not
// read any state beyond env.
type Recipe func(env Env) *Descriptor

// Builder accumulates declarations for a Descriptor.
type Builder struct {
	d Descriptor
}

func New(name, summary string) *Builder {
	return &Builder{
		d: Descriptor{
			name:    name,
			summary: summary,
		},
	}
}

func (b *Builder) Homepage(homepage string) *Builder {
	b.d.homepage = homepage
	return b
}

func (b *Builder) URL(u string) *Builder {
	b.d.url = u
	return b
}

// Version appends v. Duplicates are kept in declaration order.
func (b *Builder) Version(v VersionSpec) *Builder {
	b.d.versions = append(b.d.versions, v)
	return b
}

// DependsOn appends a dependency parsed from constraint, which is kept
// verbatim.
func (b *Builder) DependsOn(constraint string) *Builder {
	b.d.deps = append(b.d.deps, DependsOn(constraint))
	return b
}

// Build returns the declared Descriptor. Later calls on b do not affect
// it.
func (b *Builder) Build() *Descriptor {
	d := b.d

	if b.d.versions != nil {
		d.versions = make([]VersionSpec, len(b.d.versions))
		copy(d.versions, b.d.versions)
	}

	if b.d.deps != nil {
		d.deps = make([]Dependency, len(b.d.deps))
		copy(d.deps, b.d.deps)
	}

	return &d
}

func (d *Descriptor) Name() string     { return d.name }
func (d *Descriptor) Summary() string  { return d.summary }
func (d *Descriptor) Homepage() string { return d.homepage }
func (d *Descriptor) URL() string      { return d.url }

// Versions returns the declared versions. The returned slice is a copy.
func (d *Descriptor) Versions() []VersionSpec {
	out := make([]VersionSpec, len(d.versions))
	copy(out, d.versions)
	return out
}

// Dependencies returns the declared dependencies. The returned slice is a
// copy.
func (d *Descriptor) Dependencies() []Dependency {
	out := make([]Dependency, len(d.deps))
	copy(out, d.deps)
	return out
}

// Version returns the first version declared with label.
func (d *Descriptor) Version(label string) (VersionSpec, error) {
	for _, v := range d.versions {
		if v.VersionLabel() == label {
			return v, nil
		}
	}

	return nil, errors.Wrapf(ErrUnknown, "%s@%s", d.name, label)
}

// Latest returns the last declared version, or nil if there are none.
func (d *Descriptor) Latest() VersionSpec {
	if len(d.versions) == 0 {
		return nil
	}

	return d.versions[len(d.versions)-1]
}

// Validate checks the structural invariants. Tag contents and URL
// reachability are left to whatever fetches the source.
func (d *Descriptor) Validate() error {
	if d.name == "" {
		return ErrNoName
	}

	for i, v := range d.versions {
		if v.VersionLabel() == "" {
			return errors.Wrapf(ErrNoLabel, "%s: version %d", d.name, i)
		}

		if g, ok := v.(GitRef); ok && g.Repository == "" {
			return errors.Wrapf(ErrNoRepository, "%s@%s", d.name, g.Label)
		}
	}

	return nil
}

// URLFor returns the archive URL for label. A $version placeholder in the
// package URL is replaced. Otherwise the last dotted version in the
// archive file name is, or the whole file stem when it has none.
func (d *Descriptor) URLFor(label string) (string, error) {
	if strings.Contains(d.url, "$version") {
		return strings.Replace(d.url, "$version", label, -1), nil
	}

	u, err := url.Parse(d.url)
	if err != nil {
		return "", errors.Wrapf(err, "parsing url of %s", d.name)
	}

	dir, file := path.Split(u.Path)
	if file == "" {
		return "", errors.Errorf("url of %s has no file name: %s", d.name, d.url)
	}

	ext := archiveExt(file)
	stem := strings.TrimSuffix(file, ext)

	if loc := lastVersion(stem); loc != nil {
		stem = stem[:loc[0]] + label + stem[loc[1]:]
	} else {
		stem = label
	}

	u.Path = dir + stem + ext

	return u.String(), nil
}

var versionRe = regexp.MustCompile(`\d+(?:\.\d+)+`)

func lastVersion(stem string) []int {
	locs := versionRe.FindAllStringIndex(stem, -1)
	if len(locs) == 0 {
		return nil
	}

	return locs[len(locs)-1]
}

// VersionTuple is the flattened view of a version handed to a resolver.
type VersionTuple struct {
	Label    string     `json:"label"`
	Kind     SourceKind `json:"kind"`
	Location string     `json:"location"`
	Ref      string     `json:"ref,omitempty"`
	Tag      string     `json:"tag,omitempty"`
}

// Tuples flattens the declared versions. Fixed versions that can't have
// their URL computed fall back to the raw package URL.
func (d *Descriptor) Tuples() []VersionTuple {
	var out []VersionTuple

	for _, v := range d.versions {
		switch v := v.(type) {
		case Fixed:
			loc, err := d.URLFor(v.Label)
			if err != nil {
				loc = d.url
			}

			out = append(out, VersionTuple{
				Label:    v.Label,
				Kind:     SourceArchive,
				Location: loc,
			})
		case GitRef:
			out = append(out, VersionTuple{
				Label:    v.Label,
				Kind:     SourceGit,
				Location: v.Repository,
				Ref:      v.Ref(),
				Tag:      v.Tag,
			})
		}
	}

	return out
}

// DependencyPair is a dependency as (name, constraint).
type DependencyPair struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint"`
}

func (d *Descriptor) DependencyPairs() []DependencyPair {
	var out []DependencyPair

	for _, dep := range d.deps {
		out = append(out, DependencyPair{Name: dep.Name, Constraint: dep.Constraint})
	}

	return out
}
