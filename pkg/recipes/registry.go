package recipes

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"lab47.dev/recipe/pkg/descriptor"
)

var (
	ErrNotFound  = errors.New("recipe not found")
	ErrDuplicate = errors.New("recipe already registered")
)

// Registry maps package names to recipes.
type Registry struct {
	mu      sync.RWMutex
	recipes map[string]descriptor.Recipe
}

func NewRegistry() *Registry {
	return &Registry{recipes: make(map[string]descriptor.Recipe)}
}

// Default returns a registry holding every recipe in this package.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister("container-builder", ContainerBuilder)
	r.MustRegister("containerbuilder", LegacyContainerBuilder)
	return r
}

func (r *Registry) Register(name string, recipe descriptor.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[name]; ok {
		return errors.Wrapf(ErrDuplicate, "%s", name)
	}

	r.recipes[name] = recipe
	return nil
}

func (r *Registry) MustRegister(name string, recipe descriptor.Recipe) {
	if err := r.Register(name, recipe); err != nil {
		panic(err)
	}
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string

	for k := range r.recipes {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.Replace(name, "_", "-", -1))
}

// Lookup finds a recipe by name. An exact match wins, then a match
// ignoring case and treating _ as -, then one ignoring separators.
func (r *Registry) Lookup(name string) (descriptor.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rec, ok := r.recipes[name]; ok {
		return rec, nil
	}

	norm := normalize(name)
	bare := strings.Replace(norm, "-", "", -1)

	var loose descriptor.Recipe

	for k, rec := range r.recipes {
		kn := normalize(k)
		if kn == norm {
			return rec, nil
		}

		if loose == nil && strings.Replace(kn, "-", "", -1) == bare {
			loose = rec
		}
	}

	if loose != nil {
		return loose, nil
	}

	return nil, errors.Wrapf(ErrNotFound, "%s", name)
}

// Build looks up name and builds it for env.
func (r *Registry) Build(name string, env descriptor.Env) (*descriptor.Descriptor, error) {
	rec, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}

	return rec(env), nil
}

// All builds every registered recipe, in name order.
func (r *Registry) All(env descriptor.Env) []*descriptor.Descriptor {
	var out []*descriptor.Descriptor

	for _, name := range r.Names() {
		rec, err := r.Lookup(name)
		if err != nil {
			continue
		}

		out = append(out, rec(env))
	}

	return out
}
