package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <name>...",
	Aliases: []string{"remove"},
	Short:   "Remove installed plugins",
	Long:    `Remove plugins installed through the marketplace. The plugin file, its copied prompt file and its index entry are deleted.`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		var errs *multierror.Error
		for _, name := range args {
			res := d.installer().Uninstall(name)
			printWarnings(res.Warnings)
			if !res.Success {
				errs = multierror.Append(errs, resultError(res))
				continue
			}
			fmt.Fprintf(os.Stdout, "Removed: %s\n", name)
		}
		return errs.ErrorOrNil()
	},
}

func init() {
	pluginCmd.AddCommand(uninstallCmd)
}
