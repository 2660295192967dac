package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/cft-installer/internal/config"
	"github.com/oshokin/cft-installer/internal/logger"
	"github.com/oshokin/cft-installer/internal/service/installer"
	"github.com/oshokin/cft-installer/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel selects the logging verbosity.
	logLevel string

	// rootCmd represents the base command for installing Chrome for Testing.
	rootCmd = &cobra.Command{
		Use:   "cft-installer [destination]",
		Short: "Download and install the latest stable Chrome for Testing and ChromeDriver",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &installer.Options{
				ConfigPath: configPath,
			}

			if len(args) > 0 {
				options.Destination = args[0]
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the cft-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
