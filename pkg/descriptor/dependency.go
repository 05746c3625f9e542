package descriptor

import (
	"strings"

	"github.com/blang/semver"
	"github.com/pkg/errors"
)

var ErrNoVersion = errors.New("constraint has no version")

// Dependency is a required package and the constraint placed on it.
// Constraint is always the string that was declared.
type Dependency struct {
	Name       string `json:"name"`
	Constraint string `json:"constraint"`
}

func DependsOn(constraint string) Dependency {
	c := ParseConstraint(constraint)

	return Dependency{
		Name:       c.Name,
		Constraint: constraint,
	}
}

// Parsed returns the constraint broken into its parts.
func (d Dependency) Parsed() Constraint {
	return ParseConstraint(d.Constraint)
}

// Variant is a named feature toggle on a constraint, such as +coroutine.
type Variant struct {
	Name    string
	Enabled bool
}

func (v Variant) String() string {
	if v.Enabled {
		return "+" + v.Name
	}

	return "~" + v.Name
}

// Constraint is a dependency constraint of the form
// name[@version][+variant|~variant]...
type Constraint struct {
	Raw      string
	Name     string
	Version  string
	Variants []Variant
}

func (c Constraint) String() string {
	return c.Raw
}

// Semver parses the version part as a semantic version. Missing minor
// or patch components are treated as zero.
func (c Constraint) Semver() (semver.Version, error) {
	if c.Version == "" {
		return semver.Version{}, errors.Wrapf(ErrNoVersion, "%s", c.Raw)
	}

	v, err := semver.ParseTolerant(c.Version)
	if err != nil {
		return semver.Version{}, errors.Wrapf(err, "constraint %s", c.Raw)
	}

	return v, nil
}

// Satisfies reports whether version meets the constraint. A constraint
// without a version is satisfied by anything; otherwise the versions must
// compare equal.
func (c Constraint) Satisfies(version string) (bool, error) {
	if c.Version == "" {
		return true, nil
	}

	want, err := c.Semver()
	if err != nil {
		return false, err
	}

	have, err := semver.ParseTolerant(version)
	if err != nil {
		return false, errors.Wrapf(err, "version %s", version)
	}

	return have.Equals(want), nil
}

// Unsatisfied returns the dependencies of d whose constraint is not met
// by the version given for it in have. Dependencies missing from have
// are skipped.
func Unsatisfied(d DependencyDescriber, have map[string]string) ([]Dependency, error) {
	var out []Dependency

	for _, dep := range d.Dependencies() {
		version, ok := have[dep.Name]
		if !ok {
			continue
		}

		ok, err := dep.Parsed().Satisfies(version)
		if err != nil {
			return nil, err
		}

		if !ok {
			out = append(out, dep)
		}
	}

	return out, nil
}

func isVariantStart(r byte) bool {
	return r == '+' || r == '~'
}

// ParseConstraint splits s. It never fails; unrecognized text stays in
// Raw.
func ParseConstraint(s string) Constraint {
	c := Constraint{Raw: s}

	rest := strings.TrimSpace(s)

	end := strings.IndexAny(rest, "@+~ ")
	if end == -1 {
		c.Name = rest
		return c
	}

	c.Name = rest[:end]
	rest = rest[end:]

	if rest[0] == '@' {
		rest = rest[1:]
		end = strings.IndexAny(rest, "+~ ")
		if end == -1 {
			c.Version = rest
			return c
		}

		c.Version = rest[:end]
		rest = rest[end:]
	}

	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" || !isVariantStart(rest[0]) {
			break
		}

		enabled := rest[0] == '+'
		rest = rest[1:]

		end = strings.IndexAny(rest, "+~ ")
		if end == -1 {
			end = len(rest)
		}

		if end > 0 {
			c.Variants = append(c.Variants, Variant{Name: rest[:end], Enabled: enabled})
		}

		rest = rest[end:]
	}

	return c
}
