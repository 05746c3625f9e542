package descriptor

// SourceKind names how a version's source is obtained.
type SourceKind string

const (
	SourceArchive SourceKind = "archive"
	SourceGit     SourceKind = "git"
)

// VersionSpec is one installable revision of a package. It is either a
// Fixed or a GitRef.
type VersionSpec interface {
	VersionLabel() string
	Kind() SourceKind

	isVersion()
}

// Fixed is a literal release whose source is derived from the package URL.
type Fixed struct {
	Label string `json:"label"`
}

func (f Fixed) VersionLabel() string { return f.Label }
func (f Fixed) Kind() SourceKind     { return SourceArchive }
func (Fixed) isVersion()             {}

// GitRef is a version fetched from a git remote. When Tag is empty the
// ref named by Label is checked out, otherwise Tag is checked out and the
// version is still keyed by Label.
type GitRef struct {
	Label      string `json:"label"`
	Repository string `json:"repository"`
	Tag        string `json:"tag,omitempty"`
}

func (g GitRef) VersionLabel() string { return g.Label }
func (g GitRef) Kind() SourceKind     { return SourceGit }
func (GitRef) isVersion()             {}

// Ref returns the git reference to check out.
func (g GitRef) Ref() string {
	if g.Tag != "" {
		return g.Tag
	}

	return g.Label
}

func Version(label string) Fixed {
	return Fixed{Label: label}
}

func GitVersion(label, repo string) GitRef {
	return GitRef{Label: label, Repository: repo}
}

func GitTagVersion(label, repo, tag string) GitRef {
	return GitRef{Label: label, Repository: repo, Tag: tag}
}
