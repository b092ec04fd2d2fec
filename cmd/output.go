package cmd

import (
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/logging"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"

	"github.com/spf13/cobra"
)

func newOutputCmd() *cobra.Command {
	opts := &passOptions{}

	cmd := &cobra.Command{
		Use:   "output",
		Short: "Compress every image in a build output directory (post-build)",
		Long: `Compress JPEG and PNG images in a target's output directory.

Pass --output $(OutputDirectory) from the post-build event. Skins and skins
folders are always skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newPassRunner(runlog.PassOutput, opts, logging.Logger).run(cmd.Context())
		},
	}

	addCommonFlags(cmd.Flags(), opts)
	cmd.Flags().Var(&opts.output, "output", "Output directory of the build target")
	return cmd
}
