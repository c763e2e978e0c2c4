package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:   "init <project>",
	Short: "Create an empty project in the workspace",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	p, err := workspace().Init(args[0])
	if err != nil {
		return err
	}

	logger.Info("project created", "project", p.Name, "root", p.Root())
	fmt.Fprintf(cmd.OutOrStdout(), "> Created project %s in %s\n", p.Name, p.Root())

	return nil
}
