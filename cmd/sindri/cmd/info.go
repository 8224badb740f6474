package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/ui"
)

var infoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show details of an installed plugin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		p, err := d.installer().Lookup(args[0])
		if err != nil {
			return err
		}

		m := p.Metadata
		status := string(p.Verify())
		fmt.Fprintf(os.Stdout, "%s %s\n", ui.TitleStyle.Render(m.Name), ui.BadgeStyle.Render(m.Version))
		field := func(label, value string) {
			if value != "" {
				fmt.Fprintf(os.Stdout, "  %-12s %s\n", label+":", value)
			}
		}
		field("Type", string(m.PluginType))
		field("Category", string(m.Category))
		field("Author", m.Author)
		field("License", m.License)
		field("Homepage", m.Homepage)
		field("Repository", m.Repository)
		if len(m.Tags) > 0 {
			field("Tags", ui.Join(m.Tags))
		}
		if len(m.Dependencies) > 0 {
			field("Requires", ui.Join(m.Dependencies))
		}
		field("Sindri", m.SindriVersion)
		field("Source", sourceLabel(p.Source))
		field("Installed", p.Source.InstalledAt.Local().Format(time.RFC3339))
		if p.Source.UpdatedAt != nil {
			field("Updated", p.Source.UpdatedAt.Local().Format(time.RFC3339))
		}
		field("Path", p.InstalledPath)
		field("Prompt", p.PromptPath)
		field("Status", ui.StateStyle(status).Render(status))
		if flags := flagsLabel(p); flags != "" {
			field("Flags", flags)
		}

		body := m.Readme
		if body == "" {
			body = m.Description
		}
		if out := ui.Markdown(body, ui.DefaultWidth); out != "" {
			fmt.Fprintln(os.Stdout)
			fmt.Fprint(os.Stdout, out)
		}
		return nil
	},
}

func sourceLabel(s core.PluginSource) string {
	label := string(s.Kind) + " " + s.Location
	if s.Ref != "" {
		label += "@" + s.Ref
	}
	return label
}

func init() {
	pluginCmd.AddCommand(infoCmd)
}
