package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sindri-ai/sindri/internal/core"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sindri",
	Short: "Local multi-agent coding assistant",
	Long: `Sindri runs a team of local LLM agents against your code.

The plugin commands install, validate and inspect the Go tool plugins and
TOML/YAML agent plugins sindri loads from ~/.sindri.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sindri %s (commit: %s, built: %s)\n", Version, Commit, Date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (default from config, else warn)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command. An interrupt cancels the command context.
func Execute() error {
	if Version != "dev" {
		core.HostVersion = strings.TrimPrefix(Version, "v")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
