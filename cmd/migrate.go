package cmd

import (
	"context"

	"padws/internal/app"

	"github.com/spf13/cobra"
)

var migrateDebug bool
var migrateConfigPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations and exit",
	Long: `Applies pending database migrations directly, without the Redis
coordination lock. Intended for deploy pipelines that migrate before
rolling out the server; 'padws serve' also migrates on startup.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return app.Migrate(ctx, app.Options{
			ConfigPath: migrateConfigPath,
			Debug:      migrateDebug,
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateDebug, "debug", false, "Enable debug logging")
	migrateCmd.Flags().StringVar(&migrateConfigPath, "config-path", "", "Path to a config.yaml file")
}
