package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"padws/internal/app"

	"github.com/spf13/cobra"
)

// serveDebug enables verbose logging across the application.
var serveDebug bool

// serveConfigPath points at an optional config.yaml. Environment
// variables override file values either way.
var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the padws HTTP server",
	Long: `Starts the padws server: runs database migrations (coordinated
across replicas via a Redis lock), discovers the OIDC provider, syncs
template pads from disk, and serves the HTTP API until interrupted.

Configuration comes from built-in defaults, overridden by an optional
config.yaml (--config-path), overridden by environment variables
(OIDC_CLIENT_ID, CODER_URL, POSTGRES_HOST, and so on).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApplication(ctx, app.Options{
		ConfigPath: serveConfigPath,
		Debug:      serveDebug,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "Path to a config.yaml file")
}
