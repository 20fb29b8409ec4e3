package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mkgo/internal/model"
	"github.com/shinji-kodama/mkgo/internal/project"
	"github.com/shinji-kodama/mkgo/internal/settings"
)

// targetsFlags holds the flag values for the targets command.
type targetsFlags struct {
	// manifest prints the full definitions in mkgo.yaml form.
	manifest bool
}

// NewTargetsCommand creates the "targets" cobra command.
func (a *App) NewTargetsCommand(proj *project.Project) *cobra.Command {
	flags := &targetsFlags{}

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the targets of the project",
		Long: `List every target mkgo can build in this project, marking the default
target and the target a bare "mkgo" would build.

Examples:
  mkgo targets
  mkgo targets --json
  mkgo targets --manifest > mkgo.yaml`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTargets(proj, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.manifest, "manifest", false, "Print target definitions as mkgo.yaml")

	return cmd
}

// targetJSON is the JSON output structure for one target.
type targetJSON struct {
	Name     string   `json:"name"`
	Output   string   `json:"output"`
	Sources  []string `json:"sources"`
	Default  bool     `json:"default"`
	Last     bool     `json:"last"`
	DepFlags string   `json:"depFlags,omitempty"`
}

// runTargets prints the project's targets. It only reads the settings file.
func (a *App) runTargets(proj *project.Project, flags *targetsFlags) error {
	if flags.manifest {
		data, err := proj.Marshal()
		if err != nil {
			return err
		}
		_, err = a.Stdout.Write(data)
		return err
	}

	// The remembered target is informational; a broken settings file only
	// means nothing is marked.
	store, err := settings.Open(proj.Dir)
	if err != nil {
		a.VerboseLog("%v", err)
	}
	last := store.Get(model.KeyLastTarget, "")

	if a.IsJSONOutput() {
		result := struct {
			Targets []targetJSON `json:"targets"`
		}{Targets: make([]targetJSON, 0, len(proj.Targets))}

		for _, def := range proj.Targets {
			result.Targets = append(result.Targets, targetJSON{
				Name:     def.Name,
				Output:   def.Output,
				Sources:  def.Sources,
				Default:  def.Name == proj.Default,
				Last:     def.Name == last,
				DepFlags: strings.TrimSpace(def.DepFlags),
			})
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(a.Stdout, string(data))
		return nil
	}

	// Text format:
	//
	//	NAME                 OUTPUT               NOTES
	//	closet_maker         bin/closet_maker     default, last
	fmt.Fprintf(a.Stdout, "%-20s %-20s %s\n", "NAME", "OUTPUT", "NOTES")
	for _, def := range proj.Targets {
		fmt.Fprintf(a.Stdout, "%-20s %-20s %s\n", def.Name, def.Output, formatNotes(def.Name, proj.Default, last))
	}
	return nil
}

// formatNotes describes why a target is special. Returns "-" if it isn't.
func formatNotes(name, def, last string) string {
	var notes []string
	if name == def {
		notes = append(notes, "default")
	}
	if name == last {
		notes = append(notes, "last")
	}
	if len(notes) == 0 {
		return "-"
	}
	return strings.Join(notes, ", ")
}
