package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/panelkit/panel/internal/archive"
)

var inspectJSON bool

var extensionsInspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "Show the manifest of an extension package archive",
	Long: `Open an extension package archive, validate its manifest.yaml and list the
payload entries. Nothing in the archive is executed.

Example:
  panel extensions inspect ./server-stats.zip`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := archive.Inspect(args[0])
		if err != nil {
			return err
		}

		if inspectJSON {
			return printJSON(cmd.OutOrStdout(), report)
		}

		m := report.Manifest
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Identifier:\t%s\n", m.Identifier)
		fmt.Fprintf(w, "Name:\t%s\n", m.Name)
		fmt.Fprintf(w, "Description:\t%s\n", m.Description)
		fmt.Fprintf(w, "Authors:\t%s\n", strings.Join(m.Authors, ", "))
		fmt.Fprintf(w, "Version:\t%s\n", m.Version)
		fmt.Fprintf(w, "Entries:\t%d\n", len(report.Entries))
		if err := w.Flush(); err != nil {
			return err
		}
		for _, e := range report.Entries {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d bytes)\n", e.Name, e.Size)
		}
		return nil
	},
}

func init() {
	extensionsInspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Output in JSON format")
}
