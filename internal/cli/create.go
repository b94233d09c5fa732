package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panelkit/panel/internal/scaffold"
)

var (
	createOutputDir   string
	createName        string
	createDescription string
	createAuthors     []string
	createVersion     string
)

var extensionsCreateCmd = &cobra.Command{
	Use:   "create <identifier>",
	Short: "Scaffold a new compiled-in extension",
	Long: `Generate the Go package for a new extension: an Extension implementation with
a sample route and call, a test, and a manifest.yaml matching its descriptor.

Examples:
  panel extensions create server-stats
  panel extensions create dns-zones --name "DNS Zones" --author "Ops Team"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identifier := args[0]

		data := scaffold.NewScaffoldData(identifier)
		if createName != "" {
			data.Name = createName
		}
		if createDescription != "" {
			data.Description = createDescription
		}
		if createVersion != "" {
			data.Version = createVersion
		}
		data.Authors = createAuthors

		outDir := createOutputDir
		if outDir == "" {
			outDir = scaffold.DefaultOutputDir(identifier)
		}

		result, err := scaffold.Generate(data, outDir)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created extension %s at %s/\n", identifier, result.OutputDir)
		for _, f := range result.Files {
			fmt.Fprintf(out, "  %s\n", f)
		}
		if len(result.Warnings) > 0 {
			fmt.Fprintln(out, "\nWarnings:")
			for _, w := range result.Warnings {
				fmt.Fprintf(out, "  - %s\n", w)
			}
		}

		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintf(out, "  1. Add %s.New() to extensions.All in internal/extensions/extensions.go\n", data.PackageName)
		fmt.Fprintln(out, "  2. Implement Initialize, InitializeRouter and ProcessCall")
		fmt.Fprintln(out, "  3. Rebuild and run 'panel extensions list'")
		return nil
	},
}

func init() {
	extensionsCreateCmd.Flags().StringVar(&createOutputDir, "output-dir", "", "Output directory (default: internal/extensions/<package>)")
	extensionsCreateCmd.Flags().StringVar(&createName, "name", "", "Display name (default: derived from the identifier)")
	extensionsCreateCmd.Flags().StringVar(&createDescription, "description", "", "One-line description")
	extensionsCreateCmd.Flags().StringArrayVar(&createAuthors, "author", nil, "Author name (repeatable)")
	extensionsCreateCmd.Flags().StringVar(&createVersion, "version", "", "Initial version (default: 0.1.0)")
}
