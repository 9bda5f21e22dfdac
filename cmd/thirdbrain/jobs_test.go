package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/thirdbrain/internal/store"
)

func seedLedger(t *testing.T, path string, recs ...store.JobRecord) {
	t.Helper()
	s, err := store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()
	for _, rec := range recs {
		if err := s.Record(context.Background(), rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
}

func TestRunJobs(t *testing.T) {
	isolate(t)
	configPath, dir := writeConfig(t, "https://api.example.com")

	base := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)
	seedLedger(t, dir+"/jobs.db",
		store.JobRecord{Handle: "resp_old", Provider: "openai", Kind: "research", Status: "completed", SubmittedAt: base},
		store.JobRecord{Handle: "gen_new", Provider: "gamma", Kind: "presentation", Status: "in_progress", SubmittedAt: base.Add(time.Hour)},
	)

	out, err := executeCmd(t, "jobs", "list", "-c", configPath)
	if err != nil {
		t.Fatalf("jobs list error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "HANDLE") {
		t.Fatalf("jobs list output:\n%s", out)
	}
	if !strings.HasPrefix(lines[1], "gen_new") || !strings.HasPrefix(lines[2], "resp_old") {
		t.Errorf("jobs list order:\n%s", out)
	}

	out, err = executeCmd(t, "jobs", "list", "-n", "1", "-c", configPath)
	if err != nil || strings.Contains(out, "resp_old") {
		t.Errorf("jobs list -n 1 = %q (%v)", out, err)
	}

	out, err = executeCmd(t, "jobs", "show", "resp_old", "-c", configPath)
	if err != nil || !strings.Contains(out, `"handle": "resp_old"`) {
		t.Errorf("jobs show = %q (%v)", out, err)
	}

	if _, err := executeCmd(t, "jobs", "show", "resp_missing", "-c", configPath); err == nil || !strings.Contains(err.Error(), "no job recorded") {
		t.Errorf("jobs show missing error = %v", err)
	}
}

func TestRunJobs_Empty(t *testing.T) {
	isolate(t)
	configPath, _ := writeConfig(t, "https://api.example.com")

	out, err := executeCmd(t, "jobs", "list", "-c", configPath)
	if err != nil || out != "No jobs recorded.\n" {
		t.Errorf("jobs list = %q (%v)", out, err)
	}

	out, err = executeCmd(t, "jobs", "list", "--json", "-c", configPath)
	if err != nil || strings.TrimSpace(out) != "[]" {
		t.Errorf("jobs list --json = %q (%v)", out, err)
	}
}
