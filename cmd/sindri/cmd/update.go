package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [name]",
	Short: "Reinstall plugins from their recorded source",
	Long: `Reinstall a plugin from the git repository or URL it was installed from.

Without a name, every remote plugin that is not pinned is updated. A failed
update restores the previous version.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		}

		results := d.installer().Update(cmd.Context(), name)
		if len(results) == 0 {
			fmt.Fprintln(os.Stdout, "Nothing to update.")
			return nil
		}

		failed := 0
		for _, res := range results {
			printWarnings(res.Warnings)
			if !res.Success {
				failed++
				fmt.Fprintf(os.Stderr, "Update failed: %s\n", res.Error)
				continue
			}
			for _, p := range installedOf(res) {
				fmt.Fprintf(os.Stdout, "Updated: %s %s\n", p.Name(), p.Metadata.Version)
			}
		}
		if failed > 0 {
			if len(results) == 1 {
				return resultError(results[0])
			}
			return fmt.Errorf("%d of %d update(s) failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	pluginCmd.AddCommand(updateCmd)
}
