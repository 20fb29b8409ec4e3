// Package option resolves declared command-line options against the
// persisted settings.
//
// Precedence for every option is: an explicit flag value (validated against
// the option's legal values), then the value remembered in the settings
// store, then the option's hard-coded default. Explicit values are written
// back so the next bare invocation reuses them.
package option

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shinji-kodama/mkgo/internal/model"
	"github.com/shinji-kodama/mkgo/internal/settings"
)

// Spec declares a command-line option whose value is remembered between
// runs. Specs are defined at process start and never mutated.
type Spec struct {
	// Long is the long flag name without dashes, e.g. "mode".
	Long string

	// Short is the single-letter shorthand, e.g. "M". May be empty.
	Short string

	// Key is the settings key the resolved value is persisted under.
	Key string

	// Values is the finite set of legal values. Empty means any value.
	Values []string

	// Default is used when neither a flag nor a stored value is present.
	Default string

	// Usage is the help text for the flag.
	Usage string
}

// FlagNames returns the spellings of the flag as typed on a command line,
// long form first.
func (s Spec) FlagNames() []string {
	names := []string{"--" + s.Long}
	if s.Short != "" {
		names = append(names, "-"+s.Short)
	}
	return names
}

// Display returns the flag spelling used in messages, e.g. "-M/--mode".
func (s Spec) Display() string {
	if s.Short == "" {
		return "--" + s.Long
	}
	return "-" + s.Short + "/--" + s.Long
}

// Allows reports whether value is legal for the option.
func (s Spec) Allows(value string) bool {
	return len(s.Values) == 0 || slices.Contains(s.Values, value)
}

// ModeSpec declares -M/--mode, persisted under the "mode" key.
func ModeSpec() Spec {
	return Spec{
		Long:    "mode",
		Short:   "M",
		Key:     model.KeyMode,
		Values:  model.BuildModes(),
		Default: string(model.ModeDebug),
		Usage:   fmt.Sprintf("build mode (%s)", strings.Join(model.BuildModes(), "|")),
	}
}

// Resolver resolves option values using a settings store.
type Resolver struct {
	Store settings.Store
}

// NewResolver creates a Resolver backed by store.
func NewResolver(store settings.Store) *Resolver {
	return &Resolver{Store: store}
}

// Resolve returns the effective value of spec. supplied reports whether the
// user passed the flag explicitly; explicit is its value.
//
// An explicit value outside spec.Values fails with an InvalidOption error and
// nothing is written. A stored value outside spec.Values also fails, since
// silently substituting the default would hide a broken settings file. On
// success an explicit value is recorded in the store; the caller is
// responsible for flushing.
func (r *Resolver) Resolve(spec Spec, explicit string, supplied bool) (string, error) {
	value, err := r.lookup(spec, explicit, supplied)
	if err != nil {
		return "", err
	}
	if supplied {
		r.Store.Set(spec.Key, value)
	}
	return value, nil
}

// ResolveAll resolves several independent options at once. explicit holds
// the values of the flags the user supplied, keyed by Spec.Key.
//
// Every option is validated before any value is written back, so a single
// bad flag leaves the store untouched.
func (r *Resolver) ResolveAll(specs []Spec, explicit map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(specs))
	for _, spec := range specs {
		value, supplied := explicit[spec.Key]
		v, err := r.lookup(spec, value, supplied)
		if err != nil {
			return nil, err
		}
		resolved[spec.Key] = v
	}

	for _, spec := range specs {
		if _, supplied := explicit[spec.Key]; supplied {
			r.Store.Set(spec.Key, resolved[spec.Key])
		}
	}
	return resolved, nil
}

// lookup applies the precedence rules without touching the store's contents.
func (r *Resolver) lookup(spec Spec, explicit string, supplied bool) (string, error) {
	if supplied {
		if !spec.Allows(explicit) {
			return "", model.InvalidOptionError(spec.Display(), explicit, spec.Values)
		}
		return explicit, nil
	}

	stored := r.Store.Get(spec.Key, spec.Default)
	if !spec.Allows(stored) {
		return "", model.WrapCLIError(model.ExitInvalidOption,
			fmt.Sprintf("stored setting %s=%q is not valid (valid: %s); pass %s to override it",
				spec.Key, stored, strings.Join(spec.Values, ", "), spec.Display()),
			model.ErrInvalidOption)
	}
	return stored, nil
}
