package cli

import (
	"strings"

	"github.com/shinji-kodama/mkgo/internal/completion"
	"github.com/shinji-kodama/mkgo/internal/project"
)

// complete answers a completion or dependency-listing query.
//
// A broken mkgo.yaml must not break the shell's completion session, so a
// project that fails to load degrades to the builtin targets.
func (a *App) complete(req completion.Request) {
	proj, err := project.Load(a.ProjectDir)
	if err != nil {
		proj = &project.Project{Dir: a.ProjectDir, Default: project.DefaultTarget, Targets: project.Builtin()}
	}

	a.completionHandler(proj).Handle(a.Stdout, req)
}

// completionHandler builds the handler for proj. Dependency listings
// describe the project's default target.
func (a *App) completionHandler(proj *project.Project) *completion.Handler {
	h := &completion.Handler{
		Targets: proj.Names(),
		Options: optionSpecs(),
		Flags:   append([]string{"--dry-run", "--json", "--verbose"}, completion.BuiltinFlags...),
	}
	if def, ok := proj.Lookup(proj.Default); ok {
		h.Deps = completion.Deps{Build: def.BuildPackages, Run: def.RunPackages}
	}
	return h
}

// filterPrefix returns the candidates starting with prefix.
func filterPrefix(candidates []string, prefix string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
