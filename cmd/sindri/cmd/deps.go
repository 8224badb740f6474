package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/core/plugin"
	"github.com/sindri-ai/sindri/internal/host"
)

// deps holds shared dependencies for CLI commands.
type deps struct {
	config *core.ConfigManager
	cfg    *core.Config
	logger hclog.Logger

	inst *core.Installer
}

// newDeps loads the config and builds the logger. Called lazily by
// commands that need them.
func newDeps(cmd *cobra.Command) (*deps, error) {
	config, err := core.NewConfigManager()
	if err != nil {
		return nil, fmt.Errorf("initializing config: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.LogLevel
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Warn
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "sindri",
		Level:  lvl,
		Output: os.Stderr,
	})

	return &deps{config: config, cfg: cfg, logger: logger}, nil
}

// installer returns the marketplace installer, creating it on first use.
func (d *deps) installer() *core.Installer {
	if d.inst == nil {
		d.inst = core.NewInstaller(d.cfg,
			core.WithInstallerLogger(d.logger),
			core.WithBuiltins(host.BuiltinToolNames(), host.AgentNames(host.BuiltinAgents())),
		)
	}
	return d.inst
}

// discoverer scans the configured plugin directories. Plugins disabled in
// the config or the index are reported as disabled.
func (d *deps) discoverer() *plugin.Discoverer {
	return plugin.NewDiscoverer(d.cfg.PluginDir, d.cfg.AgentDir,
		plugin.WithDisabled(d.installer().DisabledNames()...),
		plugin.WithLogger(d.logger),
	)
}

func (d *deps) manager(strict bool) *plugin.Manager {
	return plugin.NewManager(d.discoverer(), plugin.ManagerConfig{
		Strict: strict || d.cfg.Strict,
		Logger: d.logger,
	})
}

// host builds a fresh set of host collaborators seeded with the built-ins.
func (d *deps) host(workDir string) plugin.Host {
	agents := host.BuiltinAgents()
	return plugin.Host{
		Tools:         host.NewToolRegistry(),
		Agents:        agents,
		WorkDir:       workDir,
		BuiltinTools:  host.BuiltinToolNames(),
		BuiltinAgents: host.AgentNames(agents),
		Models:        d.cfg.AvailableModels,
	}
}
