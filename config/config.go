// Package config provides YAML configuration parsing for thirdbrain.
//
// Every field is optional. Values left empty fall back to environment
// variables and then to built-in defaults, so the CLI runs with no file at
// all as long as the relevant API keys are exported.
//
// Example configuration:
//
//	output_dir: 99-TMP/OUTPUT
//
//	poll:
//	  max_duration: 30m
//	  on_error: retry
//
//	providers:
//	  default: openai
//	  openai:
//	    api_key: ${OPENAI_API_KEY}
//	    model: o1
//	  deepseek:
//	    base_url: ${DEEPSEEK_BASE_URL:-https://api.deepseek.com}
//
//	gamma:
//	  max_duration: 10m
//
//	ledger:
//	  path: ~/.config/thirdbrain/jobs.db
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/thirdbrain"
	"github.com/jpalmerr/thirdbrain/internal/store"
)

const (
	DefaultOutputDir = "99-TMP/OUTPUT"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "o1"
	DefaultOpenAITimeout = 120 * time.Second

	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
	DefaultDeepSeekModel   = "deepseek-reasoner"
	DefaultDeepSeekTimeout = 300 * time.Second

	DefaultGammaBaseURL     = "https://public-api.gamma.app/v1.0"
	DefaultGammaMaxDuration = 10 * time.Minute
	DefaultGammaTimeout     = 60 * time.Second

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiModel   = "gemini-3-pro-image-preview"
	DefaultGeminiTimeout = 180 * time.Second

	DefaultProvider = "openai"
)

// maxPollDuration caps every polling budget.
const maxPollDuration = 24 * time.Hour

// Config is the root configuration structure for thirdbrain.
//
// Use [Load], [Parse] or [Default] to create one; all three apply defaults.
type Config struct {
	// OutputDir is where reports and results are written when no explicit
	// output path is given. Relative paths resolve against the working
	// directory. Defaults to "99-TMP/OUTPUT".
	OutputDir string `yaml:"output_dir"`

	Poll      PollConfig      `yaml:"poll"`
	Providers ProvidersConfig `yaml:"providers"`
	Gamma     GammaConfig     `yaml:"gamma"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Ledger    LedgerConfig    `yaml:"ledger"`
}

// PollConfig tunes research polling sessions.
type PollConfig struct {
	// MaxDuration is the session budget. Defaults to 30m.
	MaxDuration Duration `yaml:"max_duration"`

	// OnError is "retry" (default) or "abort".
	OnError string `yaml:"on_error"`
}

// ProvidersConfig configures the research providers.
type ProvidersConfig struct {
	// Default is the provider used when --provider is not given.
	// Falls back to $REASONING_DEFAULT_PROVIDER, then "openai".
	Default string `yaml:"default"`

	OpenAI   ProviderConfig `yaml:"openai"`
	DeepSeek ProviderConfig `yaml:"deepseek"`
}

// ProviderConfig holds connection settings for one HTTP API.
type ProviderConfig struct {
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// GammaConfig configures the presentation generator.
type GammaConfig struct {
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`

	// MaxDuration is the polling budget for a generation. Defaults to 10m.
	MaxDuration Duration `yaml:"max_duration"`
}

// GeminiConfig configures the image generator.
type GeminiConfig struct {
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// LedgerConfig configures the job ledger.
type LedgerConfig struct {
	// Disabled turns the ledger off entirely.
	Disabled bool `yaml:"disabled"`

	// Path is the SQLite file. Defaults to ~/.config/thirdbrain/jobs.db.
	Path string `yaml:"path"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in string fields are expanded after parsing.
// Returns an error if the file cannot be read, parsed, or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, expands environment variables,
// applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given: defaults
// and environment variables only.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// expand runs env var expansion over every user-supplied string.
func (c *Config) expand() error {
	fields := map[string]*string{
		"output_dir":                  &c.OutputDir,
		"providers.default":           &c.Providers.Default,
		"providers.openai.api_key":    &c.Providers.OpenAI.APIKey,
		"providers.openai.base_url":   &c.Providers.OpenAI.BaseURL,
		"providers.openai.model":      &c.Providers.OpenAI.Model,
		"providers.deepseek.api_key":  &c.Providers.DeepSeek.APIKey,
		"providers.deepseek.base_url": &c.Providers.DeepSeek.BaseURL,
		"providers.deepseek.model":    &c.Providers.DeepSeek.Model,
		"gamma.api_key":               &c.Gamma.APIKey,
		"gamma.base_url":              &c.Gamma.BaseURL,
		"gemini.api_key":              &c.Gemini.APIKey,
		"gemini.base_url":             &c.Gemini.BaseURL,
		"gemini.model":                &c.Gemini.Model,
		"ledger.path":                 &c.Ledger.Path,
	}

	for name, field := range fields {
		expanded, err := expandEnvVars(*field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = expanded
	}
	return nil
}

// applyDefaults fills empty fields from the environment, then from
// built-in defaults.
func (c *Config) applyDefaults() {
	setDefault(&c.OutputDir, DefaultOutputDir)

	if c.Poll.MaxDuration == 0 {
		c.Poll.MaxDuration = Duration(thirdbrain.DefaultMaxDuration)
	}
	setDefault(&c.Poll.OnError, thirdbrain.RetryOnError.String())

	setDefault(&c.Providers.Default, os.Getenv("REASONING_DEFAULT_PROVIDER"), DefaultProvider)

	oa := &c.Providers.OpenAI
	setDefault(&oa.APIKey, os.Getenv("OPENAI_API_KEY"))
	setDefault(&oa.BaseURL, os.Getenv("OPENAI_BASE_URL"), DefaultOpenAIBaseURL)
	setDefault(&oa.Model, os.Getenv("OPENAI_DEFAULT_MODEL"), DefaultOpenAIModel)
	if oa.Timeout == 0 {
		oa.Timeout = Duration(DefaultOpenAITimeout)
	}

	ds := &c.Providers.DeepSeek
	setDefault(&ds.APIKey, os.Getenv("DEEPSEEK_API_KEY"))
	setDefault(&ds.BaseURL, os.Getenv("DEEPSEEK_BASE_URL"), DefaultDeepSeekBaseURL)
	setDefault(&ds.Model, os.Getenv("DEEPSEEK_DEFAULT_MODEL"), DefaultDeepSeekModel)
	if ds.Timeout == 0 {
		ds.Timeout = Duration(DefaultDeepSeekTimeout)
	}

	g := &c.Gamma
	setDefault(&g.APIKey, os.Getenv("GAMMA_API_KEY"))
	setDefault(&g.BaseURL, DefaultGammaBaseURL)
	if g.Timeout == 0 {
		g.Timeout = Duration(DefaultGammaTimeout)
	}
	if g.MaxDuration == 0 {
		g.MaxDuration = Duration(DefaultGammaMaxDuration)
	}

	gm := &c.Gemini
	setDefault(&gm.APIKey, os.Getenv("GEMINI_API_KEY"))
	setDefault(&gm.BaseURL, DefaultGeminiBaseURL)
	setDefault(&gm.Model, DefaultGeminiModel)
	if gm.Timeout == 0 {
		gm.Timeout = Duration(DefaultGeminiTimeout)
	}

	setDefault(&c.Ledger.Path, store.DefaultPath)
}

// setDefault sets *field to the first non-empty candidate if it is empty.
func setDefault(field *string, candidates ...string) {
	if *field != "" {
		return
	}
	for _, c := range candidates {
		if c != "" {
			*field = c
			return
		}
	}
}

// Validate checks a configuration with defaults applied.
func (c *Config) Validate() error {
	if d := c.Poll.MaxDuration.Duration(); d <= 0 || d > maxPollDuration {
		return fmt.Errorf("poll.max_duration must be positive and at most %s, got %s", maxPollDuration, d)
	}
	if _, err := thirdbrain.ParseErrorPolicy(c.Poll.OnError); err != nil {
		return fmt.Errorf("poll.on_error: %w", err)
	}

	switch c.Providers.Default {
	case "openai", "deepseek":
	default:
		return fmt.Errorf("providers.default must be openai or deepseek, got %q", c.Providers.Default)
	}

	urls := []struct {
		name  string
		value string
	}{
		{"providers.openai.base_url", c.Providers.OpenAI.BaseURL},
		{"providers.deepseek.base_url", c.Providers.DeepSeek.BaseURL},
		{"gamma.base_url", c.Gamma.BaseURL},
		{"gemini.base_url", c.Gemini.BaseURL},
	}
	for _, u := range urls {
		if err := validateURL(u.value); err != nil {
			return fmt.Errorf("%s: %w", u.name, err)
		}
	}

	timeouts := []struct {
		name  string
		value Duration
	}{
		{"providers.openai.timeout", c.Providers.OpenAI.Timeout},
		{"providers.deepseek.timeout", c.Providers.DeepSeek.Timeout},
		{"gamma.timeout", c.Gamma.Timeout},
		{"gemini.timeout", c.Gemini.Timeout},
	}
	for _, t := range timeouts {
		if t.value.Duration() < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", t.name, t.value.Duration())
		}
	}

	if c.Gamma.MaxDuration.Duration() <= 0 || c.Gamma.MaxDuration.Duration() > maxPollDuration {
		return fmt.Errorf("gamma.max_duration must be positive and at most %s, got %s", maxPollDuration, c.Gamma.MaxDuration.Duration())
	}

	return nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// Summary returns a short human-readable description with secrets masked.
func (c *Config) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Output dir:       %s\n", c.OutputDir)
	fmt.Fprintf(&b, "Poll budget:      %s (on error: %s)\n", c.Poll.MaxDuration.Duration(), c.Poll.OnError)
	fmt.Fprintf(&b, "Default provider: %s\n", c.Providers.Default)
	fmt.Fprintf(&b, "OpenAI:           %s model=%s key=%s\n", c.Providers.OpenAI.BaseURL, c.Providers.OpenAI.Model, mask(c.Providers.OpenAI.APIKey))
	fmt.Fprintf(&b, "DeepSeek:         %s model=%s key=%s\n", c.Providers.DeepSeek.BaseURL, c.Providers.DeepSeek.Model, mask(c.Providers.DeepSeek.APIKey))
	fmt.Fprintf(&b, "Gamma:            budget=%s key=%s\n", c.Gamma.MaxDuration.Duration(), mask(c.Gamma.APIKey))
	fmt.Fprintf(&b, "Gemini:           model=%s key=%s\n", c.Gemini.Model, mask(c.Gemini.APIKey))
	if c.Ledger.Disabled {
		b.WriteString("Ledger:           disabled\n")
	} else {
		fmt.Fprintf(&b, "Ledger:           %s\n", c.Ledger.Path)
	}
	return b.String()
}

func mask(secret string) string {
	switch {
	case secret == "":
		return "(unset)"
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "****"
	}
}
