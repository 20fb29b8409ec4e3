package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/mkgo/internal/project"
	"github.com/shinji-kodama/mkgo/internal/settings"
)

// NewSettingsCommand creates the "settings" cobra command, which shows the
// remembered choices without changing them.
func (a *App) NewSettingsCommand(proj *project.Project) *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the remembered build settings",
		Long: `Show the settings file of the project and the values remembered in it.

Values are updated whenever a build is started with an explicit target or
-M/--mode. The file is plain JSON and may be edited by hand.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSettings(proj)
		},
	}
}

// runSettings prints the settings path and values.
func (a *App) runSettings(proj *project.Project) error {
	store, err := settings.Open(proj.Dir)
	if err != nil {
		a.Warnf("%v", err)
	}
	values := store.All()

	if a.IsJSONOutput() {
		result := struct {
			Path   string            `json:"path"`
			Values map[string]string `json:"values"`
		}{Path: store.Path(), Values: values}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(a.Stdout, string(data))
		return nil
	}

	fmt.Fprintln(a.Stdout, store.Path())
	if len(values) == 0 {
		fmt.Fprintln(a.Stdout, "  (no remembered settings)")
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.Stdout, "  %s = %s\n", k, values[k])
	}
	return nil
}
