package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mkgo/internal/model"
	"github.com/shinji-kodama/mkgo/internal/option"
	"github.com/shinji-kodama/mkgo/internal/project"
	"github.com/shinji-kodama/mkgo/internal/settings"
	"github.com/shinji-kodama/mkgo/internal/target"
)

// buildFlags holds the flag values for the root (build) command.
type buildFlags struct {
	// mode is the value of -M/--mode; only used when explicitly set.
	mode string

	// dryRun prints the compiler command instead of running it.
	dryRun bool
}

// runBuild resolves the target and the remembered options, persists explicit
// choices and runs the target.
//
// Nothing is written before both the target name and every option value
// have been validated, so an unknown target or an invalid mode leaves the
// settings file untouched.
func (a *App) runBuild(cmd *cobra.Command, proj *project.Project, flags *buildFlags, explicitTarget string) error {
	// Step 1: Open the settings store. A broken file degrades to defaults.
	store, err := settings.Open(proj.Dir)
	if err != nil {
		if !errors.Is(err, model.ErrStoreUnavailable) {
			return err
		}
		a.Warnf("%v; using defaults", err)
	}
	a.VerboseLog("Settings file: %s", store.Path())

	// Step 2: Register every target of the project.
	reg, err := proj.Registry(project.ActionConfig{
		DryRun: flags.dryRun,
		Stdout: a.Stdout,
		Stderr: a.Stderr,
		Logf:   a.VerboseLog,
	})
	if err != nil {
		return err
	}

	dispatcher := &target.Dispatcher{
		Registry: reg,
		Store:    store,
		Fallback: proj.Default,
		Warnf:    a.Warnf,
	}

	// Step 3: Validate the target name before anything is persisted.
	name, source, err := dispatcher.Resolve(explicitTarget)
	if err != nil {
		return err
	}
	a.VerboseLog("Target %q (%s)", name, source)

	// Step 4: Resolve options, explicit flag > remembered > default.
	explicit := make(map[string]string)
	if cmd.Flags().Changed(option.ModeSpec().Long) {
		explicit[model.KeyMode] = flags.mode
	}
	resolved, err := option.NewResolver(store).ResolveAll(optionSpecs(), explicit)
	if err != nil {
		return err
	}
	mode, err := model.ParseBuildMode(resolved[model.KeyMode])
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidOption, "cannot resolve build mode", err)
	}
	a.VerboseLog("Build mode %q: %s", mode, mode.Flags())

	// Step 5: Make the choices durable before the build starts.
	if err := store.Flush(); err != nil {
		a.Warnf("could not save settings: %v", err)
	}

	// Step 6: Build.
	built, status, err := dispatcher.Dispatch(cmd.Context(), explicitTarget, mode.Flags())
	if err != nil {
		return err
	}
	if status != 0 {
		return model.ExternalProcessError(built, status)
	}

	a.VerboseLog("Built %q", built)
	return nil
}
