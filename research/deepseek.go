package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/internal/httpclient"
)

const (
	deepSeekDefaultBaseURL = "https://api.deepseek.com"
	deepSeekDefaultModel   = "deepseek-reasoner"
	deepSeekDefaultTimeout = 300 * time.Second
	deepSeekSource         = "DeepSeek Reasoning"
	deepSeekHandlePrefix   = "deepseek_"
)

type deepSeekResult struct {
	response map[string]any
	model    string
}

// DeepSeek answers synchronously through the chat completions API.
//
// Submit blocks until the answer arrives and stores it under a generated
// handle. Check reports completed for stored handles and Fetch removes the
// result, so each answer can be fetched once. Results live only as long as
// the DeepSeek value.
type DeepSeek struct {
	client  *httpclient.Client
	baseURL string
	model   string
	logger  *slog.Logger

	mu      sync.Mutex
	results map[string]deepSeekResult
}

// NewDeepSeek creates a DeepSeek provider. Empty settings fall back to the
// public endpoint, model deepseek-reasoner and a 300s request timeout.
func NewDeepSeek(s Settings) *DeepSeek {
	if s.BaseURL == "" {
		s.BaseURL = deepSeekDefaultBaseURL
	}
	if s.Model == "" {
		s.Model = deepSeekDefaultModel
	}
	if s.Timeout <= 0 {
		s.Timeout = deepSeekDefaultTimeout
	}

	return &DeepSeek{
		client: httpclient.New(s.Timeout, map[string]string{
			"Authorization": "Bearer " + s.APIKey,
		}),
		baseURL: strings.TrimRight(s.BaseURL, "/"),
		model:   s.Model,
		logger:  loggerOrDefault(s.Logger),
		results: make(map[string]deepSeekResult),
	}
}

func (d *DeepSeek) Name() string { return "deepseek" }

func (d *DeepSeek) Submit(ctx context.Context, query, model string) (Submission, error) {
	if model == "" {
		model = d.model
	}

	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": query},
		},
		// reasoning models require temperature 1.0
		"temperature": 1.0,
		"stream":      false,
	}

	resp, err := d.client.PostJSON(ctx, d.baseURL+"/v1/chat/completions", payload)
	if err != nil {
		return Submission{}, fmt.Errorf("deepseek request failed: %w", err)
	}

	handle := deepSeekHandlePrefix + uuid.NewString()

	d.mu.Lock()
	d.results[handle] = deepSeekResult{response: resp, model: model}
	d.mu.Unlock()

	d.logger.Info("research completed", "provider", d.Name(), "handle", handle, "model", model)
	return Submission{Handle: handle, Outcome: thirdbrain.OutcomeCompleted, Model: model}, nil
}

// Check never fails: a stored handle is completed, anything else is
// reported as in progress.
func (d *DeepSeek) Check(_ context.Context, handle string) (thirdbrain.Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.results[handle]; ok {
		return thirdbrain.OutcomeCompleted, nil
	}
	return thirdbrain.OutcomeInProgress, nil
}

// Fetch returns and forgets the stored answer. A second Fetch of the same
// handle returns [ErrUnknownHandle].
func (d *DeepSeek) Fetch(_ context.Context, handle string) (Report, error) {
	d.mu.Lock()
	result, ok := d.results[handle]
	delete(d.results, handle)
	d.mu.Unlock()

	if !ok {
		return Report{}, fmt.Errorf("%s: %w (already fetched?)", handle, ErrUnknownHandle)
	}

	content, err := deepSeekContent(result.response)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Title:   DefaultTitle,
		Content: content,
		Model:   result.model,
		Source:  deepSeekSource,
		Raw:     result.response,
	}, nil
}

// deepSeekContent returns the answer of the first choice, preceded by the
// model's reasoning when the response includes it.
func deepSeekContent(resp map[string]any) (string, error) {
	msg, ok := thirdbrain.Lookup(resp, "choices", "0", "message")
	if !ok {
		return "", errors.New("unable to extract response content: no choices in response")
	}
	m, _ := msg.(map[string]any)
	content, _ := m["content"].(string)
	reasoning, _ := m["reasoning_content"].(string)

	if reasoning != "" {
		return fmt.Sprintf("## Reasoning\n\n%s\n\n## Response\n\n%s", reasoning, content), nil
	}
	return content, nil
}

// Close releases idle connections.
func (d *DeepSeek) Close() { d.client.Close() }

var (
	_ Provider = (*DeepSeek)(nil)
	_ Provider = (*OpenAI)(nil)
)
