// Package cli implements the cobra-based command line of mkgo.
//
// The root command builds a target. The "targets" and "settings"
// subcommands inspect the project, and cobra provides "completion" and
// "help". Before cobra sees the arguments, Run checks whether the
// invocation is a completion or dependency-listing query and, if so,
// answers it without opening the settings store or building anything.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mkgo/internal/completion"
	"github.com/shinji-kodama/mkgo/internal/model"
	"github.com/shinji-kodama/mkgo/internal/option"
	"github.com/shinji-kodama/mkgo/internal/project"
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// ProjectDirEnv overrides the project root, which otherwise is the
// working directory.
const ProjectDirEnv = "MKGO_PROJECT_DIR"

// App holds the state of one mkgo invocation.
type App struct {
	// ProjectDir is the project root holding mkgo.yaml and .mkgo/.
	ProjectDir string

	// Stdout and Stderr receive all output.
	Stdout io.Writer
	Stderr io.Writer

	// Getenv looks up environment variables.
	Getenv func(string) string

	// Global flag values, bound to persistent flags on the root command.
	jsonOutput bool
	verbose    bool
}

// NewApp creates an App for projectDir writing to the process's streams.
func NewApp(projectDir string) *App {
	return &App{
		ProjectDir: projectDir,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Getenv:     os.Getenv,
	}
}

// ResolveProjectDir returns $MKGO_PROJECT_DIR if set, else the working
// directory.
func ResolveProjectDir(getenv func(string) string) string {
	if dir := strings.TrimSpace(getenv(ProjectDirEnv)); dir != "" {
		return dir
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}

// optionSpecs returns the options whose values are remembered.
func optionSpecs() []option.Spec {
	return []option.Spec{option.ModeSpec()}
}

// Run executes one invocation and returns its exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	// cobra's own completion protocol is served by the root command, so only
	// classify invocations that are not already "__complete" requests.
	if len(args) == 0 || !strings.HasPrefix(args[0], cobra.ShellCompRequestCmd) {
		if req, mode := completion.Detect(args, a.Getenv); mode == completion.Completing {
			a.complete(req)
			return int(model.ExitSuccess)
		}
	}

	proj, err := project.Load(a.ProjectDir)
	if err != nil {
		return a.exitCode(model.WrapCLIError(model.ExitGeneralError, "cannot load project", err))
	}

	rootCmd := a.NewRootCommand(proj)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.Stdout)
	rootCmd.SetErr(a.Stderr)

	return a.exitCode(rootCmd.ExecuteContext(ctx))
}

// NewRootCommand creates and configures the root cobra command for proj.
func (a *App) NewRootCommand(proj *project.Project) *cobra.Command {
	flags := &buildFlags{}

	rootCmd := &cobra.Command{
		Use:   "mkgo [target]",
		Short: "Build project targets, remembering the last target and mode",
		Long: `mkgo builds a named target of the current project by running the C compiler.

The target and build mode given on the command line are remembered in
.mkgo/settings.json, so a bare "mkgo" repeats the previous build. Without any
remembered choice the project's default target is built in debug mode.

Examples:
  mkgo                     # rebuild the last target in the last mode
  mkgo closet_maker -M release
  mkgo --dry-run
  mkgo --get_build_deps    # packages needed to build the default target`,

		// At most one target name; unknown names are reported by the
		// dispatcher together with the registered ones.
		Args: cobra.MaximumNArgs(1),

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return filterPrefix(proj.Names(), toComplete), cobra.ShellCompDirectiveNoFileComp
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			explicitTarget := ""
			if len(args) == 1 {
				explicitTarget = args[0]
			}
			return a.runBuild(cmd, proj, flags, explicitTarget)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")

	mode := option.ModeSpec()
	rootCmd.Flags().StringVarP(&flags.mode, mode.Long, mode.Short, mode.Default, mode.Usage)
	rootCmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "Print the compiler command instead of running it")
	_ = rootCmd.RegisterFlagCompletionFunc(mode.Long, func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return filterPrefix(mode.Values, toComplete), cobra.ShellCompDirectiveNoFileComp
	})

	// Malformed flags (unknown flag, missing value) are option errors.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return model.WrapCLIError(model.ExitInvalidOption, "invalid command line", err)
	})

	rootCmd.AddCommand(a.NewTargetsCommand(proj))
	rootCmd.AddCommand(a.NewSettingsCommand(proj))

	return rootCmd
}

// exitCode reports err and translates it into an OS exit code.
// CLIError types carry their own exit codes; other errors map to 1.
func (a *App) exitCode(err error) int {
	if err == nil {
		return int(model.ExitSuccess)
	}

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		a.printError(cliErr.Message, cliErr.Err)
		return int(cliErr.Code)
	}

	a.printError(err.Error(), nil)
	return int(model.ExitGeneralError)
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func (a *App) printError(message string, underlying error) {
	if a.jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(a.Stderr, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(a.Stderr, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(a.Stderr, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
func (a *App) VerboseLog(format string, args ...interface{}) {
	if a.verbose {
		fmt.Fprintf(a.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// Warnf prints a warning to stderr regardless of verbosity.
func (a *App) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(a.Stderr, "Warning: "+format+"\n", args...)
}

// IsJSONOutput returns whether the --json flag is set.
func (a *App) IsJSONOutput() bool {
	return a.jsonOutput
}
