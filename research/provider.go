// Package research submits questions to deep research APIs and turns their
// answers into markdown reports.
//
// Every backend implements [Provider]. Asynchronous backends (OpenAI) hand
// back a job handle that is polled with [thirdbrain.Poll] using
// [Provider.Check]; synchronous backends (DeepSeek) complete during
// [Provider.Submit] and keep the answer until [Provider.Fetch] collects it.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/internal/httpclient"
)

// ErrUnknownHandle is returned by [Provider.Fetch] for handles the provider
// has no result for, including handles that were already fetched.
var ErrUnknownHandle = errors.New("unknown request handle")

// ErrMissingAPIKey is returned when a provider is created without a key.
var ErrMissingAPIKey = errors.New("API key not found")

// Provider is a deep research backend.
type Provider interface {
	// Name is the identifier used on the command line ("openai").
	Name() string

	// Submit starts a research request. model may be empty for the
	// provider default.
	Submit(ctx context.Context, query, model string) (Submission, error)

	// Check reports the current outcome of a submitted request. It is
	// shaped to be passed directly to [thirdbrain.Poll]. Errors that
	// retrying cannot fix are marked with [thirdbrain.Permanent].
	Check(ctx context.Context, handle string) (thirdbrain.Outcome, error)

	// Fetch retrieves the report of a completed request.
	Fetch(ctx context.Context, handle string) (Report, error)
}

// Submission is the provider's answer to [Provider.Submit].
type Submission struct {
	Handle  string
	Outcome thirdbrain.Outcome
	Model   string
}

// Settings configures a provider.
type Settings struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *slog.Logger
}

type factory struct {
	envKey string
	build  func(Settings) Provider
}

var providers = map[string]factory{
	"openai":   {envKey: "OPENAI_API_KEY", build: func(s Settings) Provider { return NewOpenAI(s) }},
	"deepseek": {envKey: "DEEPSEEK_API_KEY", build: func(s Settings) Provider { return NewDeepSeek(s) }},
}

// Names returns the registered provider names in sorted order.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the provider registered under name.
//
// Returns an error listing the available providers for unknown names, and
// an error wrapping [ErrMissingAPIKey] when s.APIKey is empty.
func New(name string, s Settings) (Provider, error) {
	f, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", ErrMissingAPIKey, f.envKey)
	}
	return f.build(s), nil
}

// classify marks errors that will not go away on retry as permanent.
func classify(err error) error {
	if err == nil || httpclient.IsTransient(err) {
		return err
	}
	return thirdbrain.Permanent(err)
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
