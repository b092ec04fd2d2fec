package cmd

import (
	"path/filepath"

	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/logging"
	"github.com/kschatzke/reduce-image-file-sizes-in-flare/pkg/runlog"

	"github.com/spf13/cobra"
)

func newSourceCmd() *cobra.Command {
	opts := &passOptions{}

	cmd := &cobra.Command{
		Use:   "source",
		Short: "Compress new images in the project's Content folder (pre-build)",
		Long: `Compress JPEG and PNG images in the project's Content folder.

By default the Content folder is two levels above the working directory. Images
listed in the previous run log are skipped, so repeated builds only send new
images to the compression service.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newPassRunner(runlog.PassSource, opts, logging.Logger).run(cmd.Context())
		},
	}

	addCommonFlags(cmd.Flags(), opts)
	cmd.Flags().Var(&opts.content, "content", "Folder to compress (defaults to two levels above the working directory)")
	return cmd
}

// grandparent returns the directory two levels above dir.
func grandparent(dir string) string {
	return filepath.Dir(filepath.Dir(dir))
}
