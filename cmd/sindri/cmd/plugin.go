package cmd

import (
	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:     "plugin",
	Aliases: []string{"plugins"},
	Short:   "Manage tool and agent plugins",
	Long: `Install, update and inspect sindri plugins.

Tool plugins are Go source files placed in ~/.sindri/plugins. Agent plugins
are TOML or YAML files placed in ~/.sindri/agents. Installed plugins are
recorded in ~/.sindri/marketplace/index.json.`,
}

func init() {
	rootCmd.AddCommand(pluginCmd)
}
