package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/agentx-labs/rulesync/internal/branding"
	"github.com/agentx-labs/rulesync/internal/config"
	"github.com/agentx-labs/rulesync/internal/installer"
	"github.com/spf13/cobra"
)

var (
	initTarget   string
	initTools    string
	initDryRun   bool
	initForce    bool
	initNoSkills bool
	initNoRules  bool
	initChoices  []string
	initConfigs  string
)

func init() {
	initCmd.Flags().StringVar(&initTarget, "target", ".", "Project directory to install into")
	initCmd.Flags().StringVar(&initTools, "tools", "", "Comma-separated list of target tools (default from config key \"targets\")")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Show what would be written without touching the filesystem")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite without backing up existing files")
	initCmd.Flags().BoolVar(&initNoSkills, "no-skills", false, "Do not install skills or workflows")
	initCmd.Flags().BoolVar(&initNoRules, "no-rules", false, "Do not install rules")
	initCmd.Flags().StringArrayVar(&initChoices, "choice", nil, "Variant choice as tech/category=value (value 'none' skips the category); repeatable")
	initCmd.Flags().StringVar(&initConfigs, "configs", "", "Directory holding the technology sources")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [tech...]",
	Short: "Install rules, skills, and settings into a project",
	Long: `Install the rules, skills, and settings of one or more technologies into a
project, rendered for each selected AI tool.

Without technology arguments and with an interactive terminal, numbered menus
ask for the technologies and for every variant category.

  ` + branding.CLIName() + ` init go --tools claude,copilot
  ` + branding.CLIName() + ` init go --choice go/conventions=styleA --dry-run`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(initConfigs)
	if err != nil {
		return err
	}
	dir, err := projectDir(initTarget)
	if err != nil {
		return err
	}

	targets := config.SplitList(initTools)
	if len(targets) == 0 {
		targets = config.DefaultTargets()
	}

	choices, err := parseChoices(initChoices)
	if err != nil {
		return err
	}

	techs := args
	if isTerminal(cmd.InOrStdin()) {
		reader := bufio.NewReader(cmd.InOrStdin())
		if len(techs) == 0 {
			if techs, err = promptTechnologies(reader, cmd.OutOrStdout(), cat); err != nil {
				return err
			}
		}
		if choices, err = promptChoices(reader, cmd.OutOrStdout(), cat, techs, choices); err != nil {
			return err
		}
	} else if len(techs) == 0 {
		return fmt.Errorf("no technologies given (available: %s)", strings.Join(cat.Names(), ", "))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Installing %s for %s into %s\n",
		strings.Join(techs, ", "), strings.Join(targets, ", "), dir)

	res, err := newInstaller(cat).Install(installer.Request{
		TargetDir:    dir,
		Targets:      targets,
		Technologies: techs,
		Options: installer.Options{
			WithSkills:  !initNoSkills,
			WithRules:   !initNoRules,
			TechChoices: choices,
			DryRun:      initDryRun,
			Force:       initForce,
		},
	})
	if res != nil {
		printOperations(out, res.Operations, initDryRun)
	}
	if err != nil {
		return err
	}
	printSummary(out, res)
	return nil
}
