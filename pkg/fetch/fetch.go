package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"lab47.dev/recipe/pkg/descriptor"
	"lab47.dev/recipe/pkg/progress"
	"lab47.dev/recipe/pkg/sumfile"
)

var (
	ErrSumMismatch = errors.New("source hash mismatch")
	ErrUnsupported = errors.New("unsupported version kind")
	ErrBadLabel    = errors.New("version label can't be used as a directory name")
)

// Fetcher materializes the source of a descriptor's versions on disk.
type Fetcher struct {
	common

	// Root is the directory each version is fetched below.
	Root string

	// SumsPath, when set, is loaded before the first archive fetch and
	// rewritten after each new hash is recorded.
	SumsPath string

	// Shallow limits git clones to the requested commit.
	Shallow bool

	mu   sync.Mutex
	sums *sumfile.Sumfile
}

// Result describes one fetched version.
type Result struct {
	Name  string
	Label string
	Kind  descriptor.SourceKind
	Dir   string

	// Sum and Size are set for archives, Commit for git sources.
	Sum    string
	Size   int64
	Commit string
}

// dirFor returns the directory for label, which must be a direct child of
// Root. Labels come from CI tags and are otherwise unchecked.
func (f *Fetcher) dirFor(d *descriptor.Descriptor, label string) (string, error) {
	base := fmt.Sprintf("%s-%s", d.Name(), label)
	dir := filepath.Join(f.Root, base)

	switch {
	case strings.ContainsAny(label, "\r\n"),
		filepath.Base(dir) != base,
		filepath.Dir(dir) != filepath.Clean(f.Root):
		return "", errors.Wrapf(ErrBadLabel, "%s@%s", d.Name(), label)
	}

	return dir, nil
}

// Fetch retrieves the version of d declared as label.
func (f *Fetcher) Fetch(ctx context.Context, d *descriptor.Descriptor, label string) (*Result, error) {
	v, err := d.Version(label)
	if err != nil {
		return nil, err
	}

	return f.fetchVersion(ctx, d, v)
}

// FetchAll retrieves every declared version of d in declaration order.
func (f *Fetcher) FetchAll(ctx context.Context, d *descriptor.Descriptor) ([]*Result, error) {
	vers := d.Versions()

	bar := progress.Count(ctx, int64(len(vers)), d.Name())
	defer bar.Close()

	var out []*Result

	for _, v := range vers {
		bar.On(v.VersionLabel())

		res, err := f.fetchVersion(ctx, d, v)
		if err != nil {
			return out, err
		}

		out = append(out, res)
		bar.Tick()
	}

	return out, nil
}

func (f *Fetcher) fetchVersion(ctx context.Context, d *descriptor.Descriptor, v descriptor.VersionSpec) (*Result, error) {
	dir, err := f.dirFor(d, v.VersionLabel())
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(f.Root, 0755)
	if err != nil {
		return nil, track(err)
	}

	switch v := v.(type) {
	case descriptor.Fixed:
		return f.fetchArchive(ctx, d, v, dir)
	case descriptor.GitRef:
		return f.fetchGit(ctx, d, v, dir)
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%T", v)
	}
}

func (f *Fetcher) loadSums() (*sumfile.Sumfile, error) {
	if f.sums != nil {
		return f.sums, nil
	}

	if f.SumsPath == "" {
		f.sums = &sumfile.Sumfile{}
		return f.sums, nil
	}

	sf, err := sumfile.LoadFile(f.SumsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading sums %s", f.SumsPath)
	}

	f.sums = sf

	return sf, nil
}
