package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/config"
	"github.com/jpalmerr/thirdbrain/internal/store"
	"github.com/jpalmerr/thirdbrain/research"
)

var pollCmd = &cobra.Command{
	Use:   "poll REQUEST_ID",
	Short: "Wait for an OpenAI research request and save the result",
	Long: `Reconnect to an OpenAI deep research request and poll it with adaptive
intervals (10s, 30s, 1m, then 5m) until it completes, fails or the timeout
is reached.

On completion the raw response and a markdown report with YAML frontmatter
are saved. A timeout leaves the request running; poll again later with the
same ID.

Examples:
  thirdbrain poll resp_abc123
  thirdbrain poll resp_abc123 -o research.md --timeout 3600
  thirdbrain poll resp_abc123 --check-only`,
	Args: cobra.ExactArgs(1),
	RunE: runPoll,
}

func init() {
	rootCmd.AddCommand(pollCmd)

	pollCmd.Flags().StringP("output", "o", "", "markdown output path; a timestamp is added before the extension")
	pollCmd.Flags().Int("timeout", 0, "maximum time to poll in seconds (default: poll.max_duration, 1800)")
	pollCmd.Flags().Bool("check-only", false, "check the status once and print the raw response")
}

func runPoll(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	id := args[0]
	output, _ := cmd.Flags().GetString("output")
	timeout, _ := cmd.Flags().GetInt("timeout")
	checkOnly, _ := cmd.Flags().GetBool("check-only")

	if timeout < 0 {
		return fmt.Errorf("--timeout must be positive, got %d", timeout)
	}

	_, settings, err := config.BuildResearchSettings(a.cfg, "openai", a.logger)
	if err != nil {
		return err
	}
	if settings.APIKey == "" {
		return fmt.Errorf("%w: set OPENAI_API_KEY", research.ErrMissingAPIKey)
	}
	provider := research.NewOpenAI(settings)
	defer provider.Close()

	if checkOnly {
		resp, err := provider.Retrieve(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check status: %w", err)
		}
		status, ok := thirdbrain.JSONField("status")(resp)
		if !ok {
			status = "unknown"
		}
		a.logger.Info("request status", "handle", id, "status", status)
		return printJSON(resp)
	}

	opts, err := config.BuildPollOptions(a.cfg, config.Duration(time.Duration(timeout)*time.Second), a.logger)
	if err != nil {
		return err
	}

	res, err := thirdbrain.Poll(ctx, id, provider.Check, opts...)
	ledgerRec := store.JobRecord{Handle: id, Provider: "openai", Kind: "research", Status: res.State.String()}
	switch {
	case errors.Is(err, thirdbrain.ErrJobFailed):
		a.finish(ctx, ledgerRec)
		return fmt.Errorf("research failed: %w", err)
	case err != nil:
		return err
	case res.State == thirdbrain.StateTimedOut:
		a.finish(ctx, ledgerRec)
		fmt.Fprintf(os.Stderr, "Request still in progress after %s. Poll again later with:\n  thirdbrain poll %s\n",
			res.Elapsed.Round(time.Second), id)
		return fmt.Errorf("timed out waiting for %s", id)
	}

	resp, err := provider.Retrieve(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to retrieve %s: %w", id, err)
	}

	model, ok := thirdbrain.JSONField("model")(resp)
	if !ok {
		model = "unknown"
	}
	now := time.Now()
	mdPath, rawPath := research.PollPaths(output, a.cfg.OutputDir, model, now)

	if err := research.SaveRaw(rawPath, resp); err != nil {
		return err
	}

	frontmatter, err := research.NewFrontmatter("openai", model, id, now).Render()
	if err != nil {
		return err
	}
	markdown := frontmatter + research.ExtractOpenAIReport(resp)
	if err := research.WriteFile(mdPath, []byte(markdown)); err != nil {
		return err
	}

	ledgerRec.Model = model
	ledgerRec.OutputPath = mdPath
	a.finish(ctx, ledgerRec)

	fmt.Printf("Research completed after %s (%d polls)\n", res.Elapsed.Round(time.Second), res.Polls)
	fmt.Printf("  Characters: %d\n", len([]rune(markdown)))
	fmt.Printf("  Files saved:\n")
	fmt.Printf("    - %s\n", mdPath)
	fmt.Printf("    - %s\n", rawPath)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
