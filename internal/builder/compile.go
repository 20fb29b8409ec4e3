// Package builder runs the external compiler for a build target.
//
// A Compile action assembles a single command line from a template by
// substituting the build mode's flags, the target's sources, output path and
// static dependency flags, makes sure the output directory exists, and runs
// the compiler synchronously. The compiler's exit status is returned as-is;
// interpreting compiler flags is left entirely to the compiler.
package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/shinji-kodama/mkgo/internal/model"
)

// DefaultCompiler is used when neither the target nor $CC names a compiler.
const DefaultCompiler = "gcc"

// DefaultTemplate is the command template used when Compile.Template is
// empty. Placeholders are replaced before the line is split into arguments:
//
//	{CC}        compiler, inserted verbatim so "ccache gcc" works
//	{FLAGS}     build mode flags
//	{OUTPUT}    output path
//	{SOURCES}   source files, shell-quoted
//	{DEP_FLAGS} static library/include flags
const DefaultTemplate = "{CC} {FLAGS} -o {OUTPUT} {SOURCES} {DEP_FLAGS}"

// interruptGrace is how long a compiler gets to exit after being forwarded
// an interrupt before it is killed.
const interruptGrace = 5 * time.Second

// Compile builds one output file by running the compiler once.
type Compile struct {
	// Name is the target name, used in messages.
	Name string

	// Output is the path of the produced binary, relative to Dir.
	Output string

	// Sources lists the source files passed to the compiler.
	Sources []string

	// DepFlags is the static library/include flag string of the target.
	DepFlags string

	// Compiler overrides $CC and DefaultCompiler.
	Compiler string

	// Template overrides DefaultTemplate.
	Template string

	// Dir is the working directory of the compiler. Empty means the
	// current directory.
	Dir string

	// DryRun prints the command instead of running it.
	DryRun bool

	// Stdout and Stderr receive the compiler's output. Nil means the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer

	// Logf receives progress messages. May be nil.
	Logf func(format string, args ...any)
}

// Run builds the target with the given mode flags and returns the
// compiler's exit status. A non-zero status is returned without an error.
// Errors report failures to set up or start the compiler.
func (c *Compile) Run(ctx context.Context, flags string) (int, error) {
	argv, err := c.Command(flags)
	if err != nil {
		return 0, err
	}

	if c.DryRun {
		fmt.Fprintln(c.stdout(), shellquote.Join(argv...))
		return 0, nil
	}

	if err := c.ensureOutputDir(); err != nil {
		return 0, err
	}

	c.logf("running: %s", shellquote.Join(argv...))

	// #nosec G204 -- the command comes from the project's own target definitions
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.stdout()
	cmd.Stderr = c.stderr()

	// On cancellation forward an interrupt instead of killing the compiler
	// outright, and only kill it if it does not exit in time.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = interruptGrace

	err = cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		status := exitErr.ExitCode()
		if status < 0 {
			// Terminated by a signal; report it as a generic failure status.
			status = int(model.ExitGeneralError)
		}
		return status, nil
	}
	return 0, fmt.Errorf("failed to run %s: %w", argv[0], err)
}

// Command renders the template for flags and splits it into an argument
// vector.
func (c *Compile) Command(flags string) ([]string, error) {
	tmpl := c.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	line := strings.NewReplacer(
		"{CC}", c.compiler(),
		"{FLAGS}", flags,
		"{OUTPUT}", shellquote.Join(c.Output),
		"{SOURCES}", shellquote.Join(c.Sources...),
		"{DEP_FLAGS}", c.DepFlags,
	).Replace(tmpl)

	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("target %q: malformed command %q: %w", c.Name, line, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("target %q: empty command", c.Name)
	}
	return argv, nil
}

// ensureOutputDir creates the output file's parent directory, including any
// missing parents. It fails only when the path cannot be a directory, e.g.
// because a regular file already occupies it.
func (c *Compile) ensureOutputDir() error {
	dir := filepath.Dir(c.Output)
	if c.Dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(c.Dir, dir)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return model.WrapCLIError(model.ExitDirectoryCreationFailed,
			fmt.Sprintf("cannot create output directory %s for target %q", dir, c.Name),
			fmt.Errorf("%w: %v", model.ErrDirectoryCreation, err))
	}
	return nil
}

// compiler returns the compiler to invoke.
func (c *Compile) compiler() string {
	if c.Compiler != "" {
		return c.Compiler
	}
	if cc := strings.TrimSpace(os.Getenv("CC")); cc != "" {
		return cc
	}
	return DefaultCompiler
}

func (c *Compile) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Compile) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

func (c *Compile) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}
