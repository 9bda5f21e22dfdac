// Standalone mock of the OpenAI Responses API for trying the CLI offline.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	OPENAI_API_KEY=test OPENAI_BASE_URL=http://localhost:9999 \
//	    go run ./cmd/thirdbrain research "anything" --poll --no-ledger
//	OPENAI_API_KEY=test OPENAI_BASE_URL=http://localhost:9999 \
//	    go run ./cmd/thirdbrain poll resp_1 -o demo.md
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// responses complete this long after they are created
const researchTime = 45 * time.Second

func main() {
	fmt.Println("Mock Responses API starting on :9999")
	fmt.Printf("Requests complete %s after creation\n", researchTime)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		created = make(map[string]time.Time)
		mu      sync.Mutex
		next    int
	)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /responses", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		mu.Lock()
		next++
		id := "resp_" + strconv.Itoa(next)
		created[id] = time.Now()
		mu.Unlock()

		slog.Info("response created", "id", id, "model", body.Model)
		writeJSON(w, map[string]any{"id": id, "status": "queued", "model": body.Model})
	})

	mux.HandleFunc("GET /responses/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		mu.Lock()
		at, ok := created[id]
		if !ok {
			// unknown ids, e.g. after a restart, count as just created
			at = time.Now()
			created[id] = at
		}
		mu.Unlock()

		if time.Since(at) < researchTime {
			writeJSON(w, map[string]any{"id": id, "status": "in_progress"})
			return
		}
		writeJSON(w, map[string]any{
			"id":     id,
			"status": "completed",
			"model":  "o3-deep-research-mock",
			"output": []any{
				map[string]any{"type": "reasoning", "summary": []any{}},
				map[string]any{"type": "message", "content": []any{
					map[string]any{
						"type": "output_text",
						"text": "## Findings\n\nThis is a mock research report for " + id + ".",
						"annotations": []any{
							map[string]any{"type": "url_citation", "title": "Example", "url": "https://example.com"},
						},
					},
				}},
			},
		})
	})

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
