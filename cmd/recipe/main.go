package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/morikuni/aec"
	"github.com/pkg/errors"
	"lab47.dev/recipe/pkg/cmd"
	"lab47.dev/recipe/pkg/config"
	"lab47.dev/recipe/pkg/data"
	"lab47.dev/recipe/pkg/descriptor"
	"lab47.dev/recipe/pkg/fetch"
	"lab47.dev/recipe/pkg/humanize"
	"lab47.dev/recipe/pkg/lockfile"
	"lab47.dev/recipe/pkg/recipes"
)

func main() {
	c := cli.NewCLI("recipe", "0.1.0")
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"list": func() (cli.Command, error) {
			return cmd.New(
				"list",
				"List the known packages",
				listF,
			), nil
		},
		"info": func() (cli.Command, error) {
			return cmd.New(
				"info",
				"Show the versions and dependencies of a package",
				infoF,
			), nil
		},
		"index": func() (cli.Command, error) {
			return cmd.New(
				"index",
				"Write a JSON index of every package",
				indexF,
			), nil
		},
		"fetch": func() (cli.Command, error) {
			return cmd.New(
				"fetch",
				"Fetch the source of a package version",
				fetchF,
			), nil
		},
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}

type GlobalOpts struct {
	Tag   string `long:"tag" description:"use this CI commit tag instead of CI_COMMIT_TAG"`
	Trace bool   `long:"trace" description:"log in trace mode"`
}

func (g GlobalOpts) load() (*config.Config, hclog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Unable to load configuration")
	}

	if g.Tag != "" {
		cfg.CITag = g.Tag
	}

	level := hclog.Info

	if g.Trace {
		level = hclog.Trace
	}

	L := hclog.New(&hclog.LoggerOptions{
		Name:  "recipe",
		Level: level,
	})

	return cfg, L, nil
}

func listF(ctx context.Context, opts struct {
	GlobalOpts
}) error {
	cfg, _, err := opts.load()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	defer tw.Flush()

	for _, d := range recipes.Default().All(cfg.Env()) {
		fmt.Fprintf(tw, "%s\t%s\t%d versions\n", d.Name(), d.Summary(), len(d.Versions()))
	}

	return nil
}

func infoF(ctx context.Context, opts struct {
	GlobalOpts
	Dump bool              `long:"dump" description:"dump the raw descriptor"`
	Have map[string]string `long:"have" key-value-delimiter:"=" description:"check a dependency version against its constraint, as name=version"`

	Pos struct {
		Package string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes"`
}) error {
	cfg, _, err := opts.load()
	if err != nil {
		return err
	}

	d, err := recipes.Default().Build(opts.Pos.Package, cfg.Env())
	if err != nil {
		return err
	}

	if opts.Dump {
		spew.Dump(d)
		return nil
	}

	heading := func(s string) {
		fmt.Println(aec.Bold.Apply(s))
	}

	heading(d.Name())
	fmt.Printf("  %s\n", d.Summary())
	fmt.Printf("  homepage: %s\n", d.Homepage())
	fmt.Printf("  url:      %s\n\n", d.URL())

	heading("Versions:")

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)

	for _, v := range d.Tuples() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", v.Label, v.Kind, v.Location, v.Ref)
	}

	tw.Flush()

	fmt.Println()
	heading("Dependencies:")

	tw = tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)

	for _, dep := range d.Dependencies() {
		c := dep.Parsed()

		version := c.Version
		if version == "" {
			version = "any"
		}

		var variants []string
		for _, v := range c.Variants {
			variants = append(variants, v.String())
		}

		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", c.Name, version, strings.Join(variants, " "), dep.Constraint)
	}

	tw.Flush()

	err = d.Validate()
	if err != nil {
		return err
	}

	if len(opts.Have) == 0 {
		return nil
	}

	bad, err := descriptor.Unsatisfied(d, opts.Have)
	if err != nil {
		return err
	}

	for _, dep := range bad {
		fmt.Printf("! %s %s does not satisfy %s\n", dep.Name, opts.Have[dep.Name], dep.Constraint)
	}

	if len(bad) > 0 {
		return errors.Errorf("%d dependencies of %s unsatisfied", len(bad), d.Name())
	}

	return nil
}

func indexF(ctx context.Context, opts struct {
	GlobalOpts
	Output string `short:"o" long:"output" description:"write the index to this file"`
	Check  string `long:"check" description:"report packages whose entry in this index is out of date"`
}) error {
	cfg, L, err := opts.load()
	if err != nil {
		return err
	}

	env := cfg.Env()

	idx := data.NewRepoIndex(env, recipes.Default().All(env))

	if opts.Check != "" {
		return checkIndex(opts.Check, idx)
	}

	if opts.Output == "" {
		return idx.Write(os.Stdout)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return err
	}

	defer f.Close()

	L.Info("writing index", "path", opts.Output, "entries", len(idx.Entries))

	return idx.Write(f)
}

func checkIndex(path string, current *data.RepoIndex) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close()

	saved, err := data.ReadRepoIndex(f)
	if err != nil {
		return err
	}

	stale := saved.Stale(current)

	for _, name := range stale {
		fmt.Printf("stale: %s\n", name)
	}

	if len(stale) > 0 {
		return errors.Errorf("%s is out of date for %d packages", path, len(stale))
	}

	return nil
}

func fetchF(ctx context.Context, opts struct {
	GlobalOpts
	Dir     string `short:"d" long:"dir" description:"directory to fetch sources into"`
	All     bool   `short:"a" long:"all" description:"fetch every declared version"`
	Shallow bool   `long:"shallow" description:"only fetch the requested commit of git sources"`

	Pos struct {
		Package string `positional-arg-name:"name" required:"yes"`
		Version string `positional-arg-name:"version"`
	} `positional-args:"yes"`
}) error {
	cfg, L, err := opts.load()
	if err != nil {
		return err
	}

	d, err := recipes.Default().Build(opts.Pos.Package, cfg.Env())
	if err != nil {
		return err
	}

	err = d.Validate()
	if err != nil {
		return err
	}

	f := &fetch.Fetcher{
		Root:     opts.Dir,
		SumsPath: cfg.SumsPath(),
		Shallow:  opts.Shallow,
	}

	if f.Root == "" {
		f.Root = cfg.SourcesPath()
	}

	err = os.MkdirAll(cfg.CacheDir, 0755)
	if err != nil {
		return err
	}

	var showLock bool
	release, err := lockfile.Take(ctx, filepath.Join(cfg.CacheDir, ".lock"), func() {
		if !showLock {
			fmt.Printf("Lock detected, waiting...\n")
			showLock = true
		}
	})
	if err != nil {
		return err
	}

	defer release()

	f.SetLogger(L)

	var results []*fetch.Result

	if opts.All {
		results, err = f.FetchAll(ctx, d)
	} else {
		label := opts.Pos.Version
		if label == "" {
			label = latestLabel(d)
		}

		var res *fetch.Result
		res, err = f.Fetch(ctx, d, label)
		if res != nil {
			results = append(results, res)
		}
	}

	for _, res := range results {
		ident := fmt.Sprintf("%s (%s)", res.Sum, humanize.Format(res.Size))
		if res.Kind == descriptor.SourceGit {
			ident = res.Commit
		}

		fmt.Printf("%s@%s %s %s\n", res.Name, res.Label, ident, res.Dir)
	}

	return err
}

func latestLabel(d *descriptor.Descriptor) string {
	if v := d.Latest(); v != nil {
		return v.VersionLabel()
	}

	return ""
}
