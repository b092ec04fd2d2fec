// Package cmd implements the reduce-file-sizes command-line interface.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/logging"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/version"

	"github.com/spf13/cobra"
)

// globalFlags holds persistent flags that apply to all commands
type globalFlags struct {
	debug     bool
	logFormat string
}

// NewRootCmd builds the base command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: "Compress project images with the Tinify API from build events",
		Long: `reduce-file-sizes compresses JPEG and PNG images in place.

Run "source" as a pre-build event to compress new images in the project's
Content folder, and "output" as a post-build event to compress every image
copied to the target's output directory. Each run records the images it found
in reduce-file-sizes-log.json in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(logging.Options{
				Debug:      flags.debug,
				Format:     flags.logFormat,
				AppName:    version.AppName,
				AppVersion: version.Get().Version,
			})
		},
	}

	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(newSourceCmd(), newOutputCmd(), newVersionCmd())
	return rootCmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewRootCmd().ExecuteContext(ctx)
}
