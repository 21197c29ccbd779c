package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/rulesync/internal/adapters"
	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/agentx-labs/rulesync/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write ` + branding.DisplayName() + ` settings stored at ~/` + branding.HomeDir() + `/config.yaml.
Every key can also be set through the environment as ` + branding.EnvVar("<KEY>") + `.

Keys:
  ` + config.KeyConfigsDir + `   directory holding the technology sources
  ` + config.KeyTargets + `       default comma-separated target list for init
  ` + config.KeyBackup + `        back up overwritten files (true/false)`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if key == config.KeyTargets {
			if err := adapters.NewRegistry().Validate(config.SplitList(value)); err != nil {
				return err
			}
		}
		if err := config.Set(key, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every configuration key and its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		for _, key := range config.Keys() {
			fmt.Fprintf(w, "%s\t%s\n", key, dash(config.Get(key)))
		}
		return w.Flush()
	},
}
