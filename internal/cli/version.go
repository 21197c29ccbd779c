package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/spf13/cobra"
)

var (
	versionShort bool
	versionJSON  bool
)

// versionInfo is the build metadata printed by the version command.
type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version number only")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build information as JSON")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Version:   buildVersion,
			Commit:    buildCommit,
			Date:      buildDate,
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}

		out := cmd.OutOrStdout()
		switch {
		case versionShort:
			fmt.Fprintln(out, info.Version)
		case versionJSON:
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding version info: %w", err)
			}
			fmt.Fprintln(out, string(data))
		default:
			fmt.Fprintf(out, "%s %s (commit %s, built %s, %s %s)\n",
				branding.CLIName(), info.Version, info.Commit, info.Date, info.GoVersion, info.Platform)
		}
		return nil
	},
}
