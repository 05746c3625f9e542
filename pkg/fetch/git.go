package fetch

import (
	"context"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pkg/errors"
	"lab47.dev/recipe/pkg/descriptor"
)

func (f *Fetcher) cloneOptions(v descriptor.GitRef) *git.CloneOptions {
	opts := &git.CloneOptions{
		URL:          v.Repository,
		SingleBranch: true,
	}

	if v.Tag != "" {
		opts.ReferenceName = plumbing.NewTagReferenceName(v.Tag)
	} else {
		opts.ReferenceName = plumbing.NewBranchReferenceName(v.Label)
	}

	if f.Shallow {
		opts.Depth = 1
	}

	return opts
}

func (f *Fetcher) fetchGit(ctx context.Context, d *descriptor.Descriptor, v descriptor.GitRef, dir string) (*Result, error) {
	L := f.L().Named("git")

	err := os.RemoveAll(dir)
	if err != nil {
		return nil, track(err)
	}

	opts := f.cloneOptions(v)

	L.Debug("cloning", "repo", v.Repository, "ref", opts.ReferenceName, "dir", dir)

	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrapf(err, "cloning %s at %s", v.Repository, opts.ReferenceName)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, errors.Wrapf(err, "resolving HEAD of %s", dir)
	}

	L.Info("fetched git source", "name", d.Name(), "version", v.Label, "commit", head.Hash().String())

	return &Result{
		Name:   d.Name(),
		Label:  v.Label,
		Kind:   descriptor.SourceGit,
		Dir:    dir,
		Commit: head.Hash().String(),
	}, nil
}
