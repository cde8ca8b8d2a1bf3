package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point when padws is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "padws",
	Short: "Backend for the pad.ws whiteboard IDE",
	Long: `padws serves the pad.ws backend: OIDC login against Keycloak,
Redis-backed browser sessions, pad persistence in Postgres, and
workspace lifecycle orchestration through the Coder API.`,
	SilenceUsage: true,
}

// SetVersion injects the build version from the main package.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "padws version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
