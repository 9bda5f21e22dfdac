package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/thirdbrain"
)

const baseURL = "http://localhost:9999"

func main() {
	// start mock server (see mock_server.go)
	go StartMockJobServer(":9999")
	time.Sleep(100 * time.Millisecond)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id, err := submit(ctx)
	if err != nil {
		logger.Error("failed to submit job", "error", err)
		os.Exit(1)
	}

	// the mock nests its label and uses its own vocabulary
	label := thirdbrain.FirstField("result.state", "state")
	normalize := thirdbrain.NewStatusNormalizer(
		[]string{"succeeded"},
		[]string{"error"},
	)

	check := func(ctx context.Context, id string) (thirdbrain.Outcome, error) {
		doc, err := getJSON(ctx, baseURL+"/jobs/"+id)
		if err != nil {
			return "", err
		}
		l, _ := label(doc)
		return normalize(l), nil
	}

	res, err := thirdbrain.Poll(ctx, id, check,
		thirdbrain.WithMaxDuration(2*time.Minute),
		thirdbrain.WithLogger(logger),
	)
	switch {
	case errors.Is(err, thirdbrain.ErrJobFailed):
		fmt.Printf("%s failed after %d polls\n", id, res.Polls)
		os.Exit(1)
	case err != nil:
		logger.Error("polling stopped", "error", err)
		os.Exit(1)
	case res.State == thirdbrain.StateTimedOut:
		fmt.Printf("%s still running after %s; poll again later\n", id, res.Elapsed.Round(time.Second))
	default:
		fmt.Printf("%s completed in %s (%d polls)\n", id, res.Elapsed.Round(time.Second), res.Polls)
	}
}

func submit(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/jobs", nil)
	if err != nil {
		return "", err
	}
	doc, err := do(req)
	if err != nil {
		return "", err
	}
	id, ok := thirdbrain.FirstField("jobId", "id")(doc)
	if !ok {
		return "", errors.New("response has no job id")
	}
	return id, nil
}

func getJSON(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return do(req)
}

func do(req *http.Request) (map[string]any, error) {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, thirdbrain.Permanent(fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
