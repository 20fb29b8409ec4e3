// Package target provides the registry of named build targets and the
// dispatcher that decides which one a run builds.
//
// Targets are registered once at startup under unique names. The dispatcher
// picks the explicitly requested target, else the last target the developer
// chose (remembered in the settings store), else a fixed fallback target.
package target

import (
	"context"
	"fmt"
	"sort"
)

// Action is a build action. flags is the compiler flag string of the
// resolved build mode; the action supplies everything else itself.
//
// Run returns the exit status of the build. A non-zero status is a build
// failure, not an error; errors are reserved for failures of the framework
// around the build (e.g. an unusable output directory).
type Action interface {
	Run(ctx context.Context, flags string) (int, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, flags string) (int, error)

// Run calls f.
func (f ActionFunc) Run(ctx context.Context, flags string) (int, error) {
	return f(ctx, flags)
}

// Registry maps target names to actions.
type Registry struct {
	actions map[string]Action
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds action under name. Names must be non-empty and unique.
func (r *Registry) Register(name string, action Action) error {
	if name == "" {
		return fmt.Errorf("target name must not be empty")
	}
	if action == nil {
		return fmt.Errorf("target %q: action must not be nil", name)
	}
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("target %q is already registered", name)
	}
	r.actions[name] = action
	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// builtin targets wired at program start.
func (r *Registry) MustRegister(name string, action Action) {
	if err := r.Register(name, action); err != nil {
		panic(err)
	}
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.actions[name]
	return ok
}

// Names returns the registered target names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.actions)
}
