package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/panelkit/panel/internal/archive"
)

var exportAssets string

var extensionsExportCmd = &cobra.Command{
	Use:   "export <identifier> <destination>",
	Short: "Write the package archive of a compiled-in extension",
	Long: `Write a package archive for a compiled-in extension. The archive holds the
extension's manifest.yaml and, when present, the files of its assets directory
(extensions.assets_dir/<identifier> by default) under assets/.

Example:
  panel extensions export announcements ./announcements.zip`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier, dest := args[0], args[1]

		descs, err := compiledDescriptors()
		if err != nil {
			return err
		}

		opts := archive.ExportOptions{AssetsDir: exportAssets}
		if opts.AssetsDir == "" && settings != nil && settings.Extensions.AssetsDir != "" {
			dir := filepath.Join(settings.Extensions.AssetsDir, identifier)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				opts.AssetsDir = dir
			}
		}

		if err := archive.Export(descs, identifier, dest, opts); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", identifier, dest)
		return nil
	},
}

func init() {
	extensionsExportCmd.Flags().StringVar(&exportAssets, "assets", "", "Directory packed under assets/ (default: extensions.assets_dir/<identifier> if it exists)")
}
