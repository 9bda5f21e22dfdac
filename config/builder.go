package config

import (
	"fmt"
	"log/slog"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/gamma"
	"github.com/jpalmerr/thirdbrain/imagegen"
	"github.com/jpalmerr/thirdbrain/internal/store"
	"github.com/jpalmerr/thirdbrain/research"
)

// BuildPollOptions converts the poll section into [thirdbrain.Poll] options.
//
// A positive override replaces poll.max_duration, as the --timeout flag does.
func BuildPollOptions(cfg *Config, override Duration, logger *slog.Logger) ([]thirdbrain.PollOption, error) {
	policy, err := thirdbrain.ParseErrorPolicy(cfg.Poll.OnError)
	if err != nil {
		return nil, fmt.Errorf("poll.on_error: %w", err)
	}

	maxDuration := cfg.Poll.MaxDuration
	if override > 0 {
		maxDuration = override
	}

	opts := []thirdbrain.PollOption{
		thirdbrain.WithMaxDuration(maxDuration.Duration()),
		thirdbrain.WithErrorPolicy(policy),
	}
	if logger != nil {
		opts = append(opts, thirdbrain.WithLogger(logger))
	}
	return opts, nil
}

// BuildResearchSettings returns the settings for the named research
// provider. An empty name selects providers.default.
func BuildResearchSettings(cfg *Config, name string, logger *slog.Logger) (string, research.Settings, error) {
	if name == "" {
		name = cfg.Providers.Default
	}

	var pc ProviderConfig
	switch name {
	case "openai":
		pc = cfg.Providers.OpenAI
	case "deepseek":
		pc = cfg.Providers.DeepSeek
	default:
		return "", research.Settings{}, fmt.Errorf("unknown provider %q (available: deepseek, openai)", name)
	}

	return name, research.Settings{
		APIKey:  pc.APIKey,
		BaseURL: pc.BaseURL,
		Model:   pc.Model,
		Timeout: pc.Timeout.Duration(),
		Logger:  logger,
	}, nil
}

// BuildGammaSettings converts the gamma section.
func BuildGammaSettings(cfg *Config, logger *slog.Logger) gamma.Settings {
	return gamma.Settings{
		APIKey:      cfg.Gamma.APIKey,
		BaseURL:     cfg.Gamma.BaseURL,
		Timeout:     cfg.Gamma.Timeout.Duration(),
		MaxDuration: cfg.Gamma.MaxDuration.Duration(),
		Logger:      logger,
	}
}

// BuildImageSettings converts the gemini section.
func BuildImageSettings(cfg *Config, logger *slog.Logger) imagegen.Settings {
	return imagegen.Settings{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
		Timeout: cfg.Gemini.Timeout.Duration(),
		Logger:  logger,
	}
}

// OpenLedger opens the job ledger. A disabled ledger is an in-memory store
// that lives for the process.
func OpenLedger(cfg *Config) (store.Store, error) {
	if cfg.Ledger.Disabled || cfg.Ledger.Path == "" {
		return store.NewMemoryStore(), nil
	}
	s, err := store.OpenSQLite(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", cfg.Ledger.Path, err)
	}
	return s, nil
}
