package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/thirdbrain/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect jobs recorded in the local ledger",
	Long: `Every research request, Gamma generation and image submitted through this
CLI is recorded in a SQLite ledger (ledger.path, ~/.config/thirdbrain/jobs.db
by default) so that handles are not lost between sessions.`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent jobs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show HANDLE",
	Short: "Print one job as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd)

	jobsListCmd.Flags().IntP("limit", "n", 20, "maximum number of jobs; 0 lists all")
	jobsListCmd.Flags().Bool("json", false, "print JSON instead of a table")
}

func runJobsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	jobs, err := a.ledger.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if asJSON {
		if jobs == nil {
			jobs = []store.JobRecord{}
		}
		return printJSON(jobs)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tPROVIDER\tKIND\tSTATUS\tSUBMITTED\tOUTPUT")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.Handle, j.Provider, j.Kind, j.Status,
			j.SubmittedAt.Local().Format(time.DateTime), j.OutputPath)
	}
	return w.Flush()
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := a.ledger.Get(cmd.Context(), args[0])
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no job recorded for %s", args[0])
	}
	if err != nil {
		return err
	}
	return printJSON(job)
}
