package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
	"github.com/sindri-ai/sindri/internal/ui"
)

// installedOf returns the plugins an install or update produced.
func installedOf(res *core.InstallResult) []*core.InstalledPlugin {
	if len(res.Installed) > 0 {
		return res.Installed
	}
	if res.Plugin != nil {
		return []*core.InstalledPlugin{res.Plugin}
	}
	return nil
}

// printWarnings writes result warnings to stderr.
func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.WarningStyle.Render("Warning:"), w)
	}
}

// printFailed writes the failed members of a batch to stderr.
func printFailed(failed []core.FailedInstall) {
	for _, f := range failed {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", ui.ErrorStyle.Render("Failed:"), f.Name, f.Error)
	}
}

// resultError turns a failed result into the command error. Clone
// failures print their hints first.
func resultError(res *core.InstallResult) error {
	if ce, ok := core.AsCloneError(res.Err); ok {
		for _, hint := range ce.Hints {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", hint)
		}
	}
	if res.Err != nil {
		return res.Err
	}
	return errors.New(res.Error)
}

// pluginTypeFlag parses the --type flag.
func pluginTypeFlag(cmd *cobra.Command) (core.PluginType, error) {
	s, _ := cmd.Flags().GetString("type")
	var t core.PluginType
	if err := t.UnmarshalText([]byte(s)); err != nil {
		return "", err
	}
	return t, nil
}

// flagsLabel renders the enabled and pinned markers of an entry.
func flagsLabel(p *core.InstalledPlugin) string {
	var labels []string
	if !p.Enabled {
		labels = append(labels, ui.StateStyle("disabled").Render("disabled"))
	}
	if p.Pinned {
		labels = append(labels, ui.StateStyle("pinned").Render("pinned"))
	}
	if len(labels) == 0 {
		return ""
	}
	return "[" + strings.Join(labels, ", ") + "]"
}
