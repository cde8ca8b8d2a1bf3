package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the command for displaying the build version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of padws",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "padws version %s\n", rootCmd.Version)
		},
	}
}
