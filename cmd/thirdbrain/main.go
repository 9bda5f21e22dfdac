// Package main is the entry point for the thirdbrain CLI.
//
// Usage:
//
//	thirdbrain research "What is new in solid-state batteries?" --poll
//	thirdbrain poll resp_abc123 -o report.md
//	thirdbrain extract research-raw.json research.md
//	thirdbrain gamma generate --input-file outline.md --export-as pdf
//	thirdbrain gamma assets GENERATION_ID --download
//	thirdbrain image --prompt "isometric cyberpunk office" --size 1024x1024
//	thirdbrain jobs list
//	thirdbrain validate -c thirdbrain.yaml
//	thirdbrain version
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted = 130

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "thirdbrain",
	Short: "Research, presentation and image tools for long-running AI jobs",
	Long: `thirdbrain submits long-running jobs to third-party AI services and waits
for them with an adaptive poller (10s, 30s, 1m, then 5m between checks).

  research   deep research with OpenAI (async) or DeepSeek (sync)
  poll       resume waiting for an OpenAI research request
  extract    pull the markdown report out of a saved OpenAI response
  gamma      generate Gamma presentations and fetch their exports
  image      generate or edit images with Gemini
  jobs       list submitted jobs recorded in the local ledger

API keys are read from the environment, from .env and ~/.nanobanana.env,
or from an optional YAML config file (-c).`,
	SilenceUsage: true,
}

// Execute runs the root command and returns the process exit status.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// cobra already printed the error
		if errors.Is(err, context.Canceled) {
			return exitInterrupted
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(Execute())
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this thirdbrain binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("thirdbrain %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file (optional)")
	flags.String("env-file", "", "env file to load instead of .env and ~/.nanobanana.env")
	flags.BoolP("verbose", "v", false, "log debug details, including every status check")
	flags.String("log-format", "json", "log format on stderr: json or text")
	flags.Bool("no-ledger", false, "do not record jobs in the local ledger")
}
