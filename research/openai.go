package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/internal/httpclient"
)

const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "o1"
	openAIDefaultTimeout = 120 * time.Second
	openAISource         = "OpenAI Deep Research"
)

// openAIStatus treats queued, processing and any unfamiliar label as still
// running.
var openAIStatus = thirdbrain.NewStatusNormalizer(
	[]string{"completed"},
	[]string{"failed", "cancelled"},
)

// OpenAI runs background deep research through the Responses API.
type OpenAI struct {
	client  *httpclient.Client
	baseURL string
	model   string
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI provider. Empty settings fall back to the
// public endpoint, model o1 and a 120s request timeout.
func NewOpenAI(s Settings) *OpenAI {
	if s.BaseURL == "" {
		s.BaseURL = openAIDefaultBaseURL
	}
	if s.Model == "" {
		s.Model = openAIDefaultModel
	}
	if s.Timeout <= 0 {
		s.Timeout = openAIDefaultTimeout
	}

	return &OpenAI{
		client: httpclient.New(s.Timeout, map[string]string{
			"Authorization": "Bearer " + s.APIKey,
		}),
		baseURL: strings.TrimRight(s.BaseURL, "/"),
		model:   s.Model,
		logger:  loggerOrDefault(s.Logger),
	}
}

func (o *OpenAI) Name() string { return "openai" }

// Submit creates a background response with web search enabled.
func (o *OpenAI) Submit(ctx context.Context, query, model string) (Submission, error) {
	if model == "" {
		model = o.model
	}

	payload := map[string]any{
		"model": model,
		"input": []map[string]string{
			{"role": "user", "content": query},
		},
		"tools": []map[string]string{
			{"type": "web_search_preview"},
		},
		"background": true,
	}

	resp, err := o.client.PostJSON(ctx, o.baseURL+"/responses", payload)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to create research request: %w", err)
	}

	id, ok := thirdbrain.JSONField("id")(resp)
	if !ok {
		return Submission{}, errors.New("research request accepted but response has no id")
	}

	status, _ := thirdbrain.JSONField("status")(resp)
	o.logger.Info("research request created", "provider", o.Name(), "handle", id, "model", model, "status", status)

	outcome := thirdbrain.OutcomeInProgress
	if openAIStatus(status) == thirdbrain.OutcomeCompleted {
		outcome = thirdbrain.OutcomeCompleted
	}
	return Submission{Handle: id, Outcome: outcome, Model: model}, nil
}

// Check fetches the response and normalises its status.
func (o *OpenAI) Check(ctx context.Context, handle string) (thirdbrain.Outcome, error) {
	resp, err := o.Retrieve(ctx, handle)
	if err != nil {
		return "", classify(err)
	}
	status, _ := thirdbrain.JSONField("status")(resp)
	return openAIStatus(status), nil
}

// Retrieve returns the raw response object for handle.
func (o *OpenAI) Retrieve(ctx context.Context, handle string) (map[string]any, error) {
	return o.client.GetJSON(ctx, o.baseURL+"/responses/"+url.PathEscape(handle))
}

// Fetch retrieves a completed response and extracts report and citations.
func (o *OpenAI) Fetch(ctx context.Context, handle string) (Report, error) {
	resp, err := o.Retrieve(ctx, handle)
	if err != nil {
		return Report{}, fmt.Errorf("failed to retrieve %s: %w", handle, err)
	}

	model, _ := thirdbrain.JSONField("model")(resp)
	return Report{
		Title:     DefaultTitle,
		Content:   ExtractOpenAIReport(resp),
		Citations: ExtractOpenAICitations(resp),
		Model:     model,
		Source:    openAISource,
		Raw:       resp,
	}, nil
}

// Close releases idle connections.
func (o *OpenAI) Close() { o.client.Close() }
