package cli

import (
	"fmt"
	"os"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/agentx-labs/rulesync/internal/config"
	"github.com/agentx-labs/rulesync/internal/logging"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	verbosity int
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` renders one source of truth of rules, skills, and settings into the
configuration formats of several AI coding assistants and keeps projects in sync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbosity)
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", styled(os.Stderr, errorStyle, "Error:"), err)
		return err
	}
	return nil
}
