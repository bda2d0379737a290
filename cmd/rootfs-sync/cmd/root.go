package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/rootfs-sync/internal/config"
	"github.com/oshokin/rootfs-sync/internal/service/syncer"
	"github.com/oshokin/rootfs-sync/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd syncs the installer script to a published rootfs build.
	rootCmd = &cobra.Command{
		Use:   "rootfs-sync [version]",
		Short: "Sync the installer script and readme to a published rootfs build",
		Long: `Resolve a rootfs build from the remote image index (the requested one if it
exists, the latest otherwise), verify its trusted checksums and artifacts, then
patch the installer script and readme. The outcome is written to the status file.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &syncer.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
			}

			if len(args) > 0 {
				options.RequestedVersion = args[0]
			}

			return syncer.Run(ctx, options)
		},
	}
)

// Execute runs the rootfs-sync CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level (debug, info, warn, error), overrides the configuration")
}
