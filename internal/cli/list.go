package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/rulesync/internal/adapters"
	"github.com/spf13/cobra"
)

var (
	listJSON    bool
	listConfigs string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available technologies and targets",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listConfigs, "configs", "", "Directory holding the technology sources")
	rootCmd.AddCommand(listCmd)
}

// techEntry represents a technology for display.
type techEntry struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Variants    map[string][]string `json:"variants,omitempty"`
}

type listOutput struct {
	Technologies []techEntry           `json:"technologies"`
	Targets      []adapters.Descriptor `json:"targets"`
}

func runList(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(listConfigs)
	if err != nil {
		return err
	}

	out := listOutput{Targets: adapters.NewRegistry().Descriptors()}
	for _, t := range cat.Technologies() {
		out.Technologies = append(out.Technologies, techEntry{
			Name:        t.Name,
			Description: t.Description,
			Variants:    t.Variants,
		})
	}

	if listJSON {
		return printListJSON(cmd, out)
	}
	return printListTable(cmd, out)
}

func printListTable(cmd *cobra.Command, out listOutput) error {
	stdout := cmd.OutOrStdout()
	w := tabwriter.NewWriter(stdout, 0, 0, 3, ' ', 0)

	fmt.Fprintln(w, styled(stdout, headerStyle, "TECHNOLOGY")+"\tDESCRIPTION\tVARIANTS")
	if len(out.Technologies) == 0 {
		fmt.Fprintln(w, "-\t-\t-")
	}
	for _, t := range out.Technologies {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, dash(t.Description), dash(variantSummary(t)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, styled(stdout, headerStyle, "TARGET")+"\tNAME\tOUTPUT\tSUPPORTS")
	for _, d := range out.Targets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.OutputDir, supports(d.Supports))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, out listOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func variantSummary(t techEntry) string {
	var parts []string
	for _, category := range sortedKeys(t.Variants) {
		parts = append(parts, category+"="+strings.Join(t.Variants[category], "|"))
	}
	return strings.Join(parts, " ")
}

func supports(c adapters.Capabilities) string {
	var parts []string
	if c.Rules {
		parts = append(parts, "rules")
	}
	if c.Skills {
		parts = append(parts, "skills")
	}
	if c.Workflows {
		parts = append(parts, "workflows")
	}
	if c.Settings {
		parts = append(parts, "settings")
	}
	return strings.Join(parts, ", ")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
