package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/core/plugin"
	"github.com/sindri-ai/sindri/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Load plugins into a scratch host and report their state",
	Long: `Discover, validate and register every plugin the way the host does at
startup, then report the lifecycle state of each one. Installed plugin
files are also checked against the checksum recorded at install time.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}

		mgr := d.manager(false)
		summary, err := mgr.Reload(cmd.Context(), d.host(workDir))
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Plugins: %d discovered, %d tools loaded, %d agents loaded, %d failed\n",
			summary.Discovered, summary.Tools, summary.Agents, summary.Failed)
		printPluginStates(mgr.Plugins())

		var drift []*core.InstalledPlugin
		for _, p := range d.installer().Installed() {
			if p.Verify() != core.StatusOK {
				drift = append(drift, p)
			}
		}
		if len(drift) > 0 {
			fmt.Fprintln(os.Stdout)
			fmt.Fprintln(os.Stdout, ui.SectionHeader("CHANGED ON DISK"))
			for _, p := range drift {
				s := string(p.Verify())
				fmt.Fprintf(os.Stdout, "  %-20s %s\n", p.Name(), ui.StateStyle(s).Render(s))
			}
		}
		return nil
	},
}

func printPluginStates(plugins []plugin.LoadedPlugin) {
	for _, p := range plugins {
		state := p.State.String()
		fmt.Fprintf(os.Stdout, "  %-6s %-20s %s\n", p.Kind(), p.Name(), ui.StateStyle(state).Render(state))
		if p.Error != "" {
			fmt.Fprintf(os.Stdout, "         %s\n", ui.ErrorStyle.Render(p.Error))
		}
	}
}

func init() {
	pluginCmd.AddCommand(statusCmd)
}
