package data

import (
	"encoding/json"
	"io"
	"reflect"
	"sort"
	"time"

	"github.com/pkg/errors"
	"lab47.dev/recipe/pkg/descriptor"
	"lab47.dev/recipe/pkg/repo"
)

type RepoEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Homepage    string `json:"homepage"`
	URL         string `json:"url"`

	Versions     []descriptor.VersionTuple   `json:"versions"`
	Dependencies []descriptor.DependencyPair `json:"dependencies"`
	Metadata     map[string]string           `json:"metadata,omitempty"`
}

type RepoIndex struct {
	CreatedAt time.Time   `json:"created_at"`
	CITag     string      `json:"ci_tag,omitempty"`
	Entries   []RepoEntry `json:"entries"`
}

func EntryFor(d *descriptor.Descriptor) RepoEntry {
	ent := RepoEntry{
		Name:         d.Name(),
		Description:  d.Summary(),
		Homepage:     d.Homepage(),
		URL:          d.URL(),
		Versions:     d.Tuples(),
		Dependencies: d.DependencyPairs(),
	}

	for _, v := range ent.Versions {
		if v.Kind != descriptor.SourceGit {
			continue
		}

		if id, err := repo.RemoteID(v.Location); err == nil {
			ent.Metadata = map[string]string{"repository": id}
			break
		}
	}

	return ent
}

func NewRepoIndex(env descriptor.Env, ds []*descriptor.Descriptor) *RepoIndex {
	idx := &RepoIndex{
		CreatedAt: time.Now().UTC(),
		CITag:     env.CICommitTag,
	}

	for _, d := range ds {
		idx.Entries = append(idx.Entries, EntryFor(d))
	}

	return idx
}

func (r *RepoIndex) Lookup(name string) (RepoEntry, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e, true
		}
	}

	return RepoEntry{}, false
}

func (r *RepoIndex) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrapf(enc.Encode(r), "encoding repo index")
}

func ReadRepoIndex(r io.Reader) (*RepoIndex, error) {
	var idx RepoIndex

	err := json.NewDecoder(r).Decode(&idx)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding repo index")
	}

	return &idx, nil
}

// Stale compares r against current and returns the names whose entries
// differ, are missing from r, or no longer exist in current.
func (r *RepoIndex) Stale(current *RepoIndex) []string {
	seen := map[string]bool{}

	var names []string

	for _, want := range current.Entries {
		seen[want.Name] = true

		have, ok := r.Lookup(want.Name)
		if !ok || !reflect.DeepEqual(normalizeEntry(have), normalizeEntry(want)) {
			names = append(names, want.Name)
		}
	}

	for _, have := range r.Entries {
		if !seen[have.Name] {
			names = append(names, have.Name)
		}
	}

	sort.Strings(names)

	return names
}

// normalizeEntry makes empty and nil collections compare equal, since
// they don't survive a JSON round trip distinctly.
func normalizeEntry(e RepoEntry) RepoEntry {
	if len(e.Versions) == 0 {
		e.Versions = nil
	}

	if len(e.Dependencies) == 0 {
		e.Dependencies = nil
	}

	if len(e.Metadata) == 0 {
		e.Metadata = nil
	}

	return e
}
