package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// mockJob is one simulated long-running job.
type mockJob struct {
	createdAt time.Time
	readyAt   time.Time
	fails     bool
}

// StartMockJobServer runs a job API whose jobs finish 15-45 seconds after
// creation; roughly one in five fails. Status labels follow a typical
// provider: queued, processing, succeeded, error.
// Call this in a goroutine before polling.
func StartMockJobServer(addr string) {
	var (
		jobs = make(map[string]*mockJob)
		mu   sync.Mutex
		next int
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		next++
		id := "job_" + strconv.Itoa(next)
		now := time.Now()
		jobs[id] = &mockJob{
			createdAt: now,
			readyAt:   now.Add(time.Duration(15+rand.Intn(31)) * time.Second),
			fails:     rand.Intn(5) == 0,
		}
		mu.Unlock()

		slog.Info("job created", "id", id)
		writeJSON(w, map[string]string{"jobId": id, "state": "queued"})
	})

	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		job, ok := jobs[r.PathValue("id")]
		mu.Unlock()
		if !ok {
			http.Error(w, `{"error": "no such job"}`, http.StatusNotFound)
			return
		}

		now := time.Now()
		state := "processing"
		switch {
		case now.Sub(job.createdAt) < 5*time.Second:
			state = "queued"
		case now.After(job.readyAt) && job.fails:
			state = "error"
		case now.After(job.readyAt):
			state = "succeeded"
		}
		writeJSON(w, map[string]any{"result": map[string]string{"state": state}})
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
