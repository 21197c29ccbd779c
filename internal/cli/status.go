package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/agentx-labs/rulesync/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	statusTarget string
	statusJSON   bool
)

func init() {
	statusCmd.Flags().StringVar(&statusTarget, "target", ".", "Project directory to inspect")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is installed in a project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(statusTarget)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		st, err := newInstaller(nil).Status(dir)
		if errors.Is(err, manifest.ErrNotFound) {
			fmt.Fprintf(out, "Nothing installed in %s. Run '%s init' to get started.\n", dir, branding.CLIName())
			return nil
		}
		if err != nil {
			return err
		}

		if statusJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		}

		m := st.Manifest
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "Manifest:\t%s\n", st.ManifestPath)
		fmt.Fprintf(w, "Installed version:\t%s\n", m.Version)
		fmt.Fprintf(w, "Installed at:\t%s\n", m.InstalledAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Technologies:\t%s\n", strings.Join(m.Technologies, ", "))
		fmt.Fprintf(w, "Targets:\t%s\n", strings.Join(m.Targets, ", "))
		fmt.Fprintf(w, "Rules:\t%t\n", m.Options.WithRules)
		fmt.Fprintf(w, "Skills:\t%t\n", m.Options.WithSkills)
		for _, line := range choiceLines(m.Options.TechChoices) {
			fmt.Fprintf(w, "Choice:\t%s\n", line)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, driftMessage(out, st.Drift, m.Version, st.Running))
		return nil
	},
}

func choiceLines(choices map[string]map[string]string) []string {
	var lines []string
	for tech, sel := range choices {
		for category, value := range sel {
			lines = append(lines, fmt.Sprintf("%s/%s=%s", tech, category, value))
		}
	}
	sort.Strings(lines)
	return lines
}

func driftMessage(w io.Writer, drift manifest.Drift, installed, running string) string {
	switch drift {
	case manifest.DriftNone:
		return styled(w, createStyle, "Up to date with "+branding.CLIName()+" "+running+".")
	case manifest.DriftOlder:
		return styled(w, overwriteStyle, fmt.Sprintf("Installed by %s, running %s: run '%s update'.", installed, running, branding.CLIName()))
	case manifest.DriftNewer:
		return styled(w, overwriteStyle, fmt.Sprintf("Installed by a newer version (%s) than this one (%s).", installed, running))
	default:
		return styled(w, mutedStyle, fmt.Sprintf("Installed by %s, running %s.", installed, running))
	}
}
