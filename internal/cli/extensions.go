package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/extensions"
)

func init() {
	extensionsCmd.AddCommand(extensionsListCmd)
	extensionsCmd.AddCommand(extensionsInspectCmd)
	extensionsCmd.AddCommand(extensionsExportCmd)
	extensionsCmd.AddCommand(extensionsCreateCmd)
	rootCmd.AddCommand(extensionsCmd)
}

var extensionsCmd = &cobra.Command{
	Use:     "extensions",
	Aliases: []string{"extension", "ext"},
	Short:   "Work with compiled-in extensions and extension packages",
	Long: `List the extensions compiled into this binary, inspect extension package
archives, export an extension's package archive, or scaffold a new extension.

Package archives are descriptive only. Installing an archive does not load
code; extensions are enabled by adding them to the compiled-in list.`,
}

// compiledDescriptors returns the descriptors of the compiled-in list after
// checking it forms a valid registry.
func compiledDescriptors() ([]extension.Descriptor, error) {
	reg, err := extension.New(extensions.All())
	if err != nil {
		return nil, err
	}
	return reg.Descriptors(), nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
