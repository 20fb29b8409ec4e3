package target

import (
	"context"
	"fmt"

	"github.com/shinji-kodama/mkgo/internal/model"
	"github.com/shinji-kodama/mkgo/internal/settings"
)

// Source records where a dispatched target name came from.
type Source string

const (
	// SourceExplicit means the name was given on the command line.
	SourceExplicit Source = "explicit"

	// SourceRemembered means the name was read from the settings store.
	SourceRemembered Source = "remembered"

	// SourceFallback means the dispatcher's fallback target was used.
	SourceFallback Source = "fallback"
)

// Dispatcher resolves which target to build and invokes it.
type Dispatcher struct {
	// Registry holds the available targets.
	Registry *Registry

	// Store remembers the last explicitly requested target.
	Store settings.Store

	// Fallback is built when no target was requested or remembered.
	Fallback string

	// Warnf receives diagnostics, such as a remembered target that is no
	// longer registered. May be nil.
	Warnf func(format string, args ...any)
}

// Resolve picks the target name to build without invoking anything.
//
// An explicit name must be registered. Without one, the remembered
// last_target is used if it is still registered; a stale remembered name
// falls back to the fallback target with a warning. The fallback itself must
// be registered.
func (d *Dispatcher) Resolve(explicit string) (string, Source, error) {
	if explicit != "" {
		if !d.Registry.Has(explicit) {
			return "", "", model.UnknownTargetError(explicit, d.Registry.Names())
		}
		return explicit, SourceExplicit, nil
	}

	if last := d.Store.Get(model.KeyLastTarget, ""); last != "" {
		if d.Registry.Has(last) {
			return last, SourceRemembered, nil
		}
		d.warnf("remembered target %q is no longer registered, building %q instead", last, d.Fallback)
	}

	if !d.Registry.Has(d.Fallback) {
		return "", "", model.UnknownTargetError(d.Fallback, d.Registry.Names())
	}
	return d.Fallback, SourceFallback, nil
}

// Dispatch resolves the target and runs it with the given mode flags,
// returning the action's exit status.
//
// An explicitly requested target is persisted as last_target and the store
// is flushed before the action runs, so the choice survives a crash or an
// interrupted build. Nothing is persisted or executed when resolution fails.
func (d *Dispatcher) Dispatch(ctx context.Context, explicit, flags string) (string, int, error) {
	name, source, err := d.Resolve(explicit)
	if err != nil {
		return "", 0, err
	}

	if source == SourceExplicit {
		d.Store.Set(model.KeyLastTarget, name)
		if err := d.Store.Flush(); err != nil {
			d.warnf("could not save settings: %v", err)
		}
	}

	action, _ := d.Registry.Lookup(name)
	status, err := action.Run(ctx, flags)
	if err != nil {
		return name, status, fmt.Errorf("target %q: %w", name, err)
	}
	return name, status, nil
}

func (d *Dispatcher) warnf(format string, args ...any) {
	if d.Warnf != nil {
		d.Warnf(format, args...)
	}
}
