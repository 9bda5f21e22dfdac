package gamma

import (
	"encoding/json"
	"testing"

	"github.com/jpalmerr/thirdbrain"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("invalid test JSON: %v", err)
	}
	return m
}

func TestExtractGenerationID(t *testing.T) {
	tests := []struct {
		body   string
		want   string
		wantOK bool
	}{
		{`{"generationId": "a", "generation_id": "b", "id": "c"}`, "a", true},
		{`{"generation_id": "b", "id": "c"}`, "b", true},
		{`{"id": "c"}`, "c", true},
		{`{"message": "queued"}`, "", false},
	}

	for _, tt := range tests {
		got, ok := ExtractGenerationID(decode(t, tt.body))
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractGenerationID(%s) = (%q, %v), want (%q, %v)", tt.body, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExtractStatus(t *testing.T) {
	tests := []struct {
		body      string
		wantLabel string
		want      thirdbrain.Outcome
	}{
		{`{"status": "COMPLETED"}`, "completed", thirdbrain.OutcomeCompleted},
		{`{"state": "succeeded"}`, "succeeded", thirdbrain.OutcomeCompleted},
		{`{"status": "failed"}`, "failed", thirdbrain.OutcomeFailed},
		{`{"status": "error"}`, "error", thirdbrain.OutcomeFailed},
		{`{"status": "pending", "state": "completed"}`, "pending", thirdbrain.OutcomeInProgress},
		{`{}`, "", thirdbrain.OutcomeInProgress},
	}

	for _, tt := range tests {
		label, got := ExtractStatus(decode(t, tt.body))
		if label != tt.wantLabel || got != tt.want {
			t.Errorf("ExtractStatus(%s) = (%q, %v), want (%q, %v)", tt.body, label, got, tt.wantLabel, tt.want)
		}
	}
}

func TestExtractURL_Order(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"gammaUrl first", `{"gammaUrl": "g", "url": "u", "exportUrl": "e"}`, "g"},
		{"snake case", `{"gamma_url": "g2", "url": "u"}`, "g2"},
		{"plain url", `{"url": "u", "exportUrl": "e"}`, "u"},
		{"export url", `{"export_url": "e", "outputUrl": "o"}`, "e"},
		{"output url", `{"output_url": "o"}`, "o"},
		{"outputs list", `{"outputs": [{"url": "o0"}], "exports": [{"url": "x0"}]}`, "o0"},
		{"exports object", `{"exports": [{"url": "x0"}], "artifacts": [{"url": "a0"}]}`, "x0"},
		{"exports string", `{"exports": ["x-str"]}`, "x-str"},
		{"artifacts", `{"artifacts": [{"url": "a0"}]}`, "a0"},
		{"empty string skipped", `{"gammaUrl": "", "url": "u"}`, "u"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractURL(decode(t, tt.body))
			if !ok || got != tt.want {
				t.Errorf("ExtractURL() = (%q, %v), want %q", got, ok, tt.want)
			}
		})
	}

	if _, ok := ExtractURL(decode(t, `{"status": "completed"}`)); ok {
		t.Error("ExtractURL() found a URL in a document without one")
	}
}

func TestExtractAssets(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPDF  string
		wantPPTX string
	}{
		{"dedicated fields", `{"pdfUrl": "p", "pptx_url": "x", "exports": [{"url": "e1"}]}`, "p", "x"},
		{"exports by position", `{"exports": [{"url": "deck.pdf"}, {"url": "deck.pptx"}, {"url": "e3"}]}`, "deck.pdf", "deck.pptx"},
		{
			"pdf field with both exports",
			`{"pdfUrl": "https://x/deck.pdf", "exports": [{"url": "https://x/deck.pdf"}, {"url": "https://x/deck.pptx"}]}`,
			"https://x/deck.pdf", "https://x/deck.pptx",
		},
		{"single export is pdf only", `{"exports": [{"url": "deck.pdf"}]}`, "deck.pdf", ""},
		{"missing pdf export leaves pptx", `{"exports": [{"format": "pdf"}, {"url": "deck.pptx"}]}`, "", "deck.pptx"},
		{"nothing", `{"status": "completed"}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pdf, pptx := ExtractAssets(decode(t, tt.body))
			if pdf != tt.wantPDF || pptx != tt.wantPPTX {
				t.Errorf("ExtractAssets() = (%q, %q), want (%q, %q)", pdf, pptx, tt.wantPDF, tt.wantPPTX)
			}
		})
	}
}
