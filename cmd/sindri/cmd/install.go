package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
)

var installCmd = &cobra.Command{
	Use:   "install <source>",
	Short: "Install plugin(s) from a source",
	Long: `Install plugin(s) from a local path, git repository or download URL.

Sources can be:
  ./echo.go                 Local tool plugin file
  ./reviewer.toml           Local agent plugin file
  ./bundle                  Local directory (with or without sindri-plugin.json)
  owner/repo                Repository on the default forge
  https://github.com/...    Repository URL (/tree/<ref> selects a ref)
  git@host:owner/repo.git   SSH clone URL
  https://host/bundle.zip   Archive (.zip, .tar, .tar.gz) or single file

Plugins are validated before they are copied unless --no-validate is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps(cmd)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		ref, _ := cmd.Flags().GetString("ref")
		noValidate, _ := cmd.Flags().GetBool("no-validate")
		strict, _ := cmd.Flags().GetBool("strict")

		res := d.installer().Install(cmd.Context(), args[0], core.InstallOptions{
			Name:           name,
			Ref:            ref,
			SkipValidation: noValidate,
			Strict:         strict,
		})
		printWarnings(res.Warnings)
		printFailed(res.Failed)
		if !res.Success {
			return resultError(res)
		}

		for _, p := range installedOf(res) {
			fmt.Fprintf(os.Stdout, "Installed: %s %s (%s)\n", p.Name(), p.Metadata.Version, p.Metadata.PluginType)
			fmt.Fprintf(os.Stdout, "  Path: %s\n", p.InstalledPath)
			if p.PromptPath != "" {
				fmt.Fprintf(os.Stdout, "  Prompt: %s\n", p.PromptPath)
			}
		}
		return nil
	},
}

func init() {
	installCmd.Flags().StringP("name", "n", "", "Install under a different name (single plugin only)")
	installCmd.Flags().String("ref", "", "Git branch or tag to install from")
	installCmd.Flags().Bool("no-validate", false, "Skip validation before copying")
	installCmd.Flags().Bool("strict", false, "Treat validation warnings as errors")
	pluginCmd.AddCommand(installCmd)
}
