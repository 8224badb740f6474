package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search installed plugins",
	Long: `Search installed plugins by name, description, tags and category.
Every word of the query must match. Results are ranked with name matches first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		pt, err := pluginTypeFlag(cmd)
		if err != nil {
			return err
		}
		category, _ := cmd.Flags().GetString("category")
		tag, _ := cmd.Flags().GetString("tag")
		enabledOnly, _ := cmd.Flags().GetBool("enabled")

		filter := core.SearchFilter{PluginType: pt, Tag: tag, EnabledOnly: enabledOnly}
		if category != "" {
			filter.Category = core.ParseCategory(category)
		}

		hits := d.installer().Search(strings.Join(args, " "), filter)
		if len(hits) == 0 {
			fmt.Fprintln(os.Stdout, "No matching plugins.")
			return nil
		}
		for _, h := range hits {
			p := h.Plugin
			line := fmt.Sprintf("%-20s %-6s %s", p.Name(), p.Metadata.PluginType, ui.MutedStyle.Render(p.Metadata.Description))
			fmt.Fprintln(os.Stdout, ui.Truncate(line, 2*ui.DefaultWidth))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringP("type", "t", "", "Only match plugins of this type (tool or agent)")
	searchCmd.Flags().StringP("category", "c", "", "Only match plugins in this category")
	searchCmd.Flags().String("tag", "", "Only match plugins with this tag")
	searchCmd.Flags().Bool("enabled", false, "Only match enabled plugins")
	pluginCmd.AddCommand(searchCmd)
}
