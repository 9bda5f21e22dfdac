package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/config"
	"github.com/jpalmerr/thirdbrain/internal/store"
	"github.com/jpalmerr/thirdbrain/research"
)

// ledgerQueryLimit truncates prompts stored in the ledger.
const ledgerQueryLimit = 200

var researchCmd = &cobra.Command{
	Use:   "research [QUERY]",
	Short: "Run a deep research query",
	Long: `Submit a research query to OpenAI or DeepSeek and print the markdown report.

OpenAI runs in the background: without --poll the command prints the request
ID and exits 1, and "thirdbrain poll" picks the job up later. DeepSeek
answers synchronously.

The report is printed to stdout and saved to --output, or to
<output_dir>/<provider>_<id>_<timestamp>.md.

Examples:
  thirdbrain research "What is quantum computing?" --provider openai --poll
  thirdbrain research "Latest AI breakthroughs" --provider deepseek
  thirdbrain research --query-file question.md --model o3-deep-research --poll`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResearch,
}

func init() {
	rootCmd.AddCommand(researchCmd)

	researchCmd.Flags().String("query-file", "", "read the query from a file")
	researchCmd.Flags().String("provider", "", "openai or deepseek (default: providers.default, $REASONING_DEFAULT_PROVIDER or openai)")
	researchCmd.Flags().String("model", "", "model override (default: provider default)")
	researchCmd.Flags().Bool("poll", false, "wait for async providers to finish")
	researchCmd.Flags().StringP("output", "o", "", "report file path")
}

func runResearch(cmd *cobra.Command, args []string) error {
	query, err := readQuery(cmd, args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	providerName, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	poll, _ := cmd.Flags().GetBool("poll")
	output, _ := cmd.Flags().GetString("output")

	name, settings, err := config.BuildResearchSettings(a.cfg, providerName, a.logger)
	if err != nil {
		return err
	}
	provider, err := research.New(name, settings)
	if err != nil {
		return err
	}

	a.logger.Info("creating research request", "provider", name)
	sub, err := provider.Submit(ctx, query, model)
	if err != nil {
		return err
	}
	a.record(ctx, store.JobRecord{
		Handle:   sub.Handle,
		Provider: name,
		Kind:     "research",
		Query:    truncate(query, ledgerQueryLimit),
		Model:    sub.Model,
		Status:   sub.Outcome.String(),
	})

	outcome := sub.Outcome
	if outcome == thirdbrain.OutcomeInProgress && poll {
		opts, err := config.BuildPollOptions(a.cfg, 0, a.logger)
		if err != nil {
			return err
		}
		res, err := thirdbrain.Poll(ctx, sub.Handle, provider.Check, opts...)
		switch {
		case errors.Is(err, thirdbrain.ErrJobFailed):
			a.finish(ctx, store.JobRecord{Handle: sub.Handle, Provider: name, Kind: "research", Status: res.State.String()})
			return fmt.Errorf("research failed: %w", err)
		case err != nil:
			return err
		case res.State == thirdbrain.StateTimedOut:
			a.finish(ctx, store.JobRecord{Handle: sub.Handle, Provider: name, Kind: "research", Status: res.State.String()})
			return fmt.Errorf("research still in progress after %s, resume with: thirdbrain poll %s",
				res.Elapsed.Round(time.Second), sub.Handle)
		}
		outcome = thirdbrain.OutcomeCompleted
	}

	if outcome != thirdbrain.OutcomeCompleted {
		return fmt.Errorf("research still in progress, use --poll to wait for completion (request ID: %s)", sub.Handle)
	}

	report, err := provider.Fetch(ctx, sub.Handle)
	if err != nil {
		return err
	}
	markdown := report.Markdown()

	path := research.ReportPath(output, a.cfg.OutputDir, name, sub.Handle, time.Now())
	if err := research.WriteFile(path, []byte(markdown)); err != nil {
		a.logger.Warn("could not save report", "path", path, "error", err)
		path = ""
	} else {
		a.logger.Info("report saved", "path", path)
	}
	a.finish(ctx, store.JobRecord{
		Handle:     sub.Handle,
		Provider:   name,
		Kind:       "research",
		Model:      sub.Model,
		Status:     thirdbrain.OutcomeCompleted.String(),
		OutputPath: path,
	})

	fmt.Println(markdown)
	return nil
}

func readQuery(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("query-file")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read query file: %w", err)
		}
		if q := strings.TrimSpace(string(data)); q != "" {
			return q, nil
		}
		return "", fmt.Errorf("query file %s is empty", file)
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", errors.New("must provide either a query or --query-file")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
