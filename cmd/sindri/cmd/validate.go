package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/core/plugin"
	"github.com/sindri-ai/sindri/internal/host"
	"github.com/sindri-ai/sindri/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path...]",
	Short: "Validate plugin files without installing them",
	Long: `Validate plugin files or directories against the host.

With no arguments, every plugin in the configured plugin and agent
directories is validated. Built-in tool and agent names count as conflicts;
installed plugins and the other files being validated can be referenced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}
		strict, _ := cmd.Flags().GetBool("strict")

		var descs []*plugin.Descriptor
		if len(args) == 0 {
			descs = d.discoverer().Discover()
		} else {
			descs, err = discoverPaths(args)
			if err != nil {
				return err
			}
		}
		if len(descs) == 0 {
			fmt.Fprintln(os.Stdout, "No plugins found.")
			return nil
		}

		refTools, refAgents := referenceNames(d.installer().Installed(), descs)
		v := plugin.NewValidator(
			plugin.WithExistingTools(host.BuiltinToolNames()...),
			plugin.WithExistingAgents(host.AgentNames(host.BuiltinAgents())...),
			plugin.WithAvailableModels(d.cfg.AvailableModels...),
			plugin.WithReferenceTools(refTools...),
			plugin.WithReferenceAgents(refAgents...),
			plugin.WithStrict(strict || d.cfg.Strict),
		)

		failed := 0
		for _, desc := range descs {
			out := v.Validate(desc)
			printOutcome(desc, out)
			if !out.Valid {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d plugin(s) failed validation", failed, len(descs))
		}
		return nil
	},
}

// discoverPaths discovers each file argument, and every plugin file
// inside each directory argument.
func discoverPaths(paths []string) ([]*plugin.Descriptor, error) {
	var out []*plugin.Descriptor
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			out = append(out, plugin.NewDiscoverer(p, p).Discover()...)
			continue
		}
		desc, err := plugin.NewDiscoverer("", "").DiscoverFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

// referenceNames collects the tool and agent names that plugins may refer
// to: everything installed plus the batch itself.
func referenceNames(installed []*core.InstalledPlugin, batch []*plugin.Descriptor) (tools, agents []string) {
	for _, p := range installed {
		if p.Metadata.PluginType == core.PluginTypeAgent {
			agents = append(agents, p.Name())
		} else {
			tools = append(tools, p.Name())
		}
	}
	for _, d := range batch {
		if d.Kind == plugin.KindAgent {
			agents = append(agents, d.Name)
		} else {
			tools = append(tools, d.Name)
		}
	}
	return tools, agents
}

func printOutcome(d *plugin.Descriptor, out plugin.Outcome) {
	label := "valid"
	if !out.Valid {
		label = "invalid"
	}
	fmt.Fprintf(os.Stdout, "%s %s (%s) %s\n", ui.StateStyle(label).Render(label+":"), d.Name, d.Kind, ui.MutedStyle.Render(d.SourcePath))
	for _, e := range out.Errors {
		fmt.Fprintf(os.Stdout, "    error: %s\n", e)
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stdout, "    warning: %s\n", w)
	}
	for _, i := range out.Info {
		fmt.Fprintf(os.Stdout, "    info: %s\n", i)
	}
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Treat warnings as errors")
	pluginCmd.AddCommand(validateCmd)
}
