// Package main implements sitectl, the admin CLI for the contact database.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/toonarmycaptain/website/internal/app"
	"github.com/toonarmycaptain/website/pkg/config"
	"github.com/toonarmycaptain/website/pkg/logger"
)

var (
	// envFiles are loaded before the process environment
	envFiles []string
	logLevel string
	version  = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "Admin tasks for the website's contact database",
	Long: `sitectl manages the contact database behind the website.
It reads the same environment and .env files as the web server.`,
	Version:       version,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env file to load (repeatable, default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resendCmd)
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFiles...)
}

// openApp loads configuration and opens the migrated database.
func openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithOutput(cmd.ErrOrStderr(), logLevel, "text")
	return app.New(ctx, cfg, log)
}
