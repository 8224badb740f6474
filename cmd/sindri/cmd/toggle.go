package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
)

var enableCmd = &cobra.Command{
	Use:   "enable <name>",
	Short: "Load a disabled plugin again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Keep a plugin installed but stop loading it",
	Long: `Disable a plugin. Marketplace plugins are flagged in the index; any other
plugin file is added to the disabled list in config.json.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin <name>",
	Short: "Exclude a plugin from update without a name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPinned(cmd, args[0], true)
	},
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <name>",
	Short: "Include a pinned plugin in update again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPinned(cmd, args[0], false)
	},
}

func setEnabled(cmd *cobra.Command, name string, enabled bool) error {
	d, err := newDeps(cmd)
	if err != nil {
		return err
	}

	err = d.installer().SetEnabled(name, enabled)
	switch {
	case errors.Is(err, core.ErrNotFound):
		// Not a marketplace plugin; the config list covers hand-placed files.
	case err != nil:
		return err
	}
	if enabled || errors.Is(err, core.ErrNotFound) {
		if err := d.config.SetDisabled(name, !enabled); err != nil {
			return err
		}
	}

	if enabled {
		fmt.Fprintf(os.Stdout, "Enabled: %s\n", name)
	} else {
		fmt.Fprintf(os.Stdout, "Disabled: %s\n", name)
	}
	return nil
}

func setPinned(cmd *cobra.Command, name string, pinned bool) error {
	d, err := newDeps(cmd)
	if err != nil {
		return err
	}
	if err := d.installer().SetPinned(name, pinned); err != nil {
		return err
	}
	if pinned {
		fmt.Fprintf(os.Stdout, "Pinned: %s\n", name)
	} else {
		fmt.Fprintf(os.Stdout, "Unpinned: %s\n", name)
	}
	return nil
}

func init() {
	pluginCmd.AddCommand(enableCmd)
	pluginCmd.AddCommand(disableCmd)
	pluginCmd.AddCommand(pinCmd)
	pluginCmd.AddCommand(unpinCmd)
}
