package gamma

import (
	"context"
	"encoding/json"
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
	DefaultBaseURL     = "https://public-api.gamma.app/v1.0"
	DefaultTimeout     = 60 * time.Second
	DefaultMaxDuration = 10 * time.Minute
)

// ErrMissingAPIKey is returned by [New] when no API key is configured.
var ErrMissingAPIKey = errors.New("missing Gamma API key: set GAMMA_API_KEY")

// Settings configures a [Client]. Zero values select the defaults above.
type Settings struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxDuration time.Duration
	Logger      *slog.Logger

	// Clock replaces the poller's real clock; nil keeps it.
	Clock thirdbrain.Clock
}

// Client talks to the Gamma generations API.
type Client struct {
	http        *httpclient.Client
	baseURL     string
	maxDuration time.Duration
	clock       thirdbrain.Clock
	logger      *slog.Logger
}

// Result is the JSON document printed for a generation. Unset fields are
// encoded as null.
type Result struct {
	URL          *string `json:"url"`
	GenerationID *string `json:"generation_id"`
	Error        *string `json:"error"`
}

// Failed reports whether the result carries an error.
func (r Result) Failed() bool { return r.Error != nil }

func New(s Settings) (*Client, error) {
	if s.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if s.BaseURL == "" {
		s.BaseURL = DefaultBaseURL
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.MaxDuration <= 0 {
		s.MaxDuration = DefaultMaxDuration
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	return &Client{
		http: httpclient.New(s.Timeout, map[string]string{
			"X-API-KEY": s.APIKey,
			"Accept":    "application/json",
		}),
		baseURL:     strings.TrimRight(s.BaseURL, "/"),
		maxDuration: s.MaxDuration,
		clock:       s.Clock,
		logger:      s.Logger,
	}, nil
}

// Submit starts a generation and returns its id.
func (c *Client) Submit(ctx context.Context, params GenerateParams) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/generations", params.Body())
	if err != nil {
		return "", fmt.Errorf("failed to start generation: %w", err)
	}

	id, ok := ExtractGenerationID(resp)
	if !ok {
		return "", fmt.Errorf("failed to extract generation ID from response: %s", compactJSON(resp))
	}
	c.logger.Info("generation started", "generation_id", id)
	return id, nil
}

// Status returns the raw generation document.
func (c *Client) Status(ctx context.Context, id string) (map[string]any, error) {
	return c.http.GetJSON(ctx, c.baseURL+"/generations/"+url.PathEscape(id))
}

// Check is a [thirdbrain.StatusCheck] for generation ids.
func (c *Client) Check(ctx context.Context, id string) (thirdbrain.Outcome, error) {
	_, outcome, err := c.check(ctx, id)
	return outcome, err
}

func (c *Client) check(ctx context.Context, id string) (map[string]any, thirdbrain.Outcome, error) {
	data, err := c.Status(ctx, id)
	if err != nil {
		return nil, "", classify(err)
	}
	label, outcome := ExtractStatus(data)
	c.logger.Debug("generation status", "generation_id", id, "status", label)
	return data, outcome, nil
}

// Generate submits params and waits for the generation to finish.
func (c *Client) Generate(ctx context.Context, params GenerateParams) Result {
	id, err := c.Submit(ctx, params)
	if err != nil {
		return Result{Error: ptr(err.Error())}
	}
	return c.Wait(ctx, id)
}

// Wait polls generation id until it completes, fails or the polling budget
// runs out. Every outcome is reported through the returned Result.
func (c *Client) Wait(ctx context.Context, id string) Result {
	var last map[string]any
	check := func(ctx context.Context, id string) (thirdbrain.Outcome, error) {
		data, outcome, err := c.check(ctx, id)
		if err == nil {
			last = data
		}
		return outcome, err
	}

	opts := []thirdbrain.PollOption{
		thirdbrain.WithMaxDuration(c.maxDuration),
		thirdbrain.WithErrorPolicy(thirdbrain.RetryOnError),
		thirdbrain.WithLogger(c.logger),
	}
	if c.clock != nil {
		opts = append(opts, thirdbrain.WithClock(c.clock))
	}

	res, err := thirdbrain.Poll(ctx, id, check, opts...)
	result := Result{GenerationID: ptr(id)}

	switch {
	case errors.Is(err, thirdbrain.ErrJobFailed):
		result.Error = ptr("Generation failed: " + compactJSON(last))
	case err != nil:
		result.Error = ptr(err.Error())
	case res.State == thirdbrain.StateTimedOut:
		result.Error = ptr("Timed out waiting for generation " + id)
	default:
		if u, ok := ExtractURL(last); ok {
			result.URL = ptr(u)
		} else {
			result.Error = ptr("Generation completed but no export URL found: " + compactJSON(last))
		}
	}
	return result
}

// Close releases idle connections.
func (c *Client) Close() { c.http.Close() }

// classify marks errors that will not go away on retry as permanent.
func classify(err error) error {
	if httpclient.IsTransient(err) {
		return err
	}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		return thirdbrain.Permanent(err)
	}
	return err
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func ptr(s string) *string { return &s }
