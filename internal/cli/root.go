package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panelkit/panel/internal/branding"
	"github.com/panelkit/panel/internal/config"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	cfgFile  string
	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` is the backend of a hosting control panel. Features beyond the core
are compiled-in extensions that contribute HTTP routes and answer named calls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: "+config.FilePath()+")")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
