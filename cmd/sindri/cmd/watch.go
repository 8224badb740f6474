package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core/plugin"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload plugins whenever their files change",
	Long: `Load every plugin, then watch the plugin and agent directories and
reload after each burst of changes. Runs until interrupted.`,
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
		debounce, _ := cmd.Flags().GetDuration("debounce")

		mgr := d.manager(false)
		h := d.host(workDir)
		reload := func(ctx context.Context) {
			s, err := mgr.Reload(ctx, h)
			if err != nil {
				return
			}
			fmt.Fprintf(os.Stdout, "Reloaded: %d tools, %d agents, %d failed\n", s.Tools, s.Agents, s.Failed)
			for _, p := range mgr.FailedPlugins() {
				fmt.Fprintf(os.Stdout, "  %s: %s\n", p.Key(), p.Error)
			}
		}

		reload(cmd.Context())
		w := plugin.NewWatcher(d.logger, debounce, d.cfg.PluginDir, d.cfg.AgentDir)
		return w.Run(cmd.Context(), reload)
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", plugin.DefaultDebounce, "Quiet period after the last change before reloading")
	pluginCmd.AddCommand(watchCmd)
}
