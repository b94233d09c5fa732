package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/panelkit/panel/internal/extension"
)

var listJSON bool

var extensionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compiled-in extensions",
	Long:  `List every extension compiled into this binary, in registration order.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	extensionsListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}

func runList(cmd *cobra.Command, args []string) error {
	descs, err := compiledDescriptors()
	if err != nil {
		return err
	}

	if listJSON {
		return printJSON(cmd.OutOrStdout(), descs)
	}
	if len(descs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No extensions compiled in.")
		return nil
	}
	return printListTable(cmd, descs)
}

func printListTable(cmd *cobra.Command, descs []extension.Descriptor) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "IDENTIFIER\tNAME\tVERSION\tAUTHORS\tDESCRIPTION")
	for _, d := range descs {
		authors := strings.Join(d.Authors, ", ")
		if authors == "" {
			authors = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Identifier, d.Name, d.Version, authors, d.Description)
	}
	return w.Flush()
}
