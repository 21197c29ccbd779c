package cli

import (
	"errors"
	"fmt"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/agentx-labs/rulesync/internal/installer"
	"github.com/agentx-labs/rulesync/internal/manifest"
	"github.com/spf13/cobra"
)

var (
	updateTarget  string
	updateDryRun  bool
	updateForce   bool
	updateConfigs string
)

func init() {
	updateCmd.Flags().StringVar(&updateTarget, "target", ".", "Project directory to update")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "Show what would be written without touching the filesystem")
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Re-install even when up to date, without backups")
	updateCmd.Flags().StringVar(&updateConfigs, "configs", "", "Directory holding the technology sources")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-install a project's recorded technologies with this version",
	Long: `Re-run the installation recorded in the project's manifest when it was made
by a different version of ` + branding.CLIName() + `. A project installed by this version is left
untouched unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := projectDir(updateTarget)
		if err != nil {
			return err
		}
		cat, err := loadCatalog(updateConfigs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		res, err := newInstaller(cat).Update(installer.UpdateRequest{
			TargetDir: dir,
			DryRun:    updateDryRun,
			Force:     updateForce,
		})
		if errors.Is(err, manifest.ErrNotFound) {
			return fmt.Errorf("nothing installed in %s: run '%s init' first", dir, branding.CLIName())
		}
		if res != nil && res.UpToDate {
			fmt.Fprintf(out, "Already up to date (version %s).\n", res.Previous.Version)
			return nil
		}
		if res != nil && res.Install != nil {
			fmt.Fprintf(out, "Updating %s -> %s\n", res.Previous.Version, buildVersion)
			printOperations(out, res.Install.Operations, updateDryRun)
		}
		if err != nil {
			return err
		}
		printSummary(out, res.Install)
		return nil
	},
}
