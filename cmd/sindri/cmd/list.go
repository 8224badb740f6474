package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed plugins",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		pt, err := pluginTypeFlag(cmd)
		if err != nil {
			return err
		}
		enabledOnly, _ := cmd.Flags().GetBool("enabled")
		asJSON, _ := cmd.Flags().GetBool("json")

		var plugins []*core.InstalledPlugin
		for _, hit := range d.installer().Search("", core.SearchFilter{PluginType: pt, EnabledOnly: enabledOnly}) {
			plugins = append(plugins, hit.Plugin)
		}

		if asJSON {
			if plugins == nil {
				plugins = []*core.InstalledPlugin{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plugins)
		}

		if len(plugins) == 0 {
			fmt.Fprintln(os.Stdout, "No plugins installed.")
			return nil
		}
		printPluginGroup("TOOLS", plugins, core.PluginTypeTool)
		printPluginGroup("AGENTS", plugins, core.PluginTypeAgent)
		return nil
	},
}

func printPluginGroup(label string, plugins []*core.InstalledPlugin, t core.PluginType) {
	var group []*core.InstalledPlugin
	for _, p := range plugins {
		if p.Metadata.PluginType == t {
			group = append(group, p)
		}
	}
	if len(group) == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "%s (%d)\n", ui.SectionHeader(label), len(group))
	for _, p := range group {
		line := fmt.Sprintf("  %-20s %-9s %s", p.Name(), p.Metadata.Version, ui.MutedStyle.Render(p.Metadata.Description))
		if flags := flagsLabel(p); flags != "" {
			line += " " + flags
		}
		fmt.Fprintln(os.Stdout, ui.Truncate(line, 2*ui.DefaultWidth))
	}
}

func init() {
	listCmd.Flags().StringP("type", "t", "", "Only list plugins of this type (tool or agent)")
	listCmd.Flags().Bool("enabled", false, "Only list enabled plugins")
	listCmd.Flags().Bool("json", false, "Print the index entries as JSON")
	pluginCmd.AddCommand(listCmd)
}
