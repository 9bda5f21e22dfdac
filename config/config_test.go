package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var providerEnv = []string{
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_DEFAULT_MODEL",
	"DEEPSEEK_API_KEY", "DEEPSEEK_BASE_URL", "DEEPSEEK_DEFAULT_MODEL",
	"REASONING_DEFAULT_PROVIDER", "GAMMA_API_KEY", "GEMINI_API_KEY",
}

// unsetEnv removes variables for the duration of the test.
func unsetEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "") // registers restore
		os.Unsetenv(name)
	}
}

func TestParse_EmptyConfigUsesDefaults(t *testing.T) {
	unsetEnv(t, providerEnv...)

	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, DefaultOutputDir)
	}
	if cfg.Poll.MaxDuration.Duration() != 30*time.Minute {
		t.Errorf("Poll.MaxDuration = %v, want 30m", cfg.Poll.MaxDuration.Duration())
	}
	if cfg.Poll.OnError != "retry" {
		t.Errorf("Poll.OnError = %q, want retry", cfg.Poll.OnError)
	}
	if cfg.Providers.Default != "openai" {
		t.Errorf("Providers.Default = %q, want openai", cfg.Providers.Default)
	}
	if cfg.Providers.OpenAI.BaseURL != DefaultOpenAIBaseURL || cfg.Providers.OpenAI.Model != "o1" {
		t.Errorf("OpenAI = %+v", cfg.Providers.OpenAI)
	}
	if cfg.Providers.OpenAI.Timeout.Duration() != 120*time.Second {
		t.Errorf("OpenAI.Timeout = %v, want 120s", cfg.Providers.OpenAI.Timeout.Duration())
	}
	if cfg.Providers.DeepSeek.Model != "deepseek-reasoner" || cfg.Providers.DeepSeek.Timeout.Duration() != 300*time.Second {
		t.Errorf("DeepSeek = %+v", cfg.Providers.DeepSeek)
	}
	if cfg.Gamma.MaxDuration.Duration() != 10*time.Minute {
		t.Errorf("Gamma.MaxDuration = %v, want 10m", cfg.Gamma.MaxDuration.Duration())
	}
	if cfg.Gemini.Model != "gemini-3-pro-image-preview" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.Ledger.Path != "~/.config/thirdbrain/jobs.db" || cfg.Ledger.Disabled {
		t.Errorf("Ledger = %+v", cfg.Ledger)
	}
	if cfg.Providers.OpenAI.APIKey != "" {
		t.Errorf("OpenAI.APIKey = %q, want empty", cfg.Providers.OpenAI.APIKey)
	}
}

func TestParse_EnvironmentFillsGaps(t *testing.T) {
	unsetEnv(t, providerEnv...)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example.com/v1")
	t.Setenv("OPENAI_DEFAULT_MODEL", "o3-deep-research")
	t.Setenv("DEEPSEEK_DEFAULT_MODEL", "deepseek-chat")
	t.Setenv("REASONING_DEFAULT_PROVIDER", "deepseek")
	t.Setenv("GAMMA_API_KEY", "gamma-env")
	t.Setenv("GEMINI_API_KEY", "gemini-env")

	cfg, err := Parse([]byte(`
providers:
  openai:
    model: o1-pro
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Providers.OpenAI.APIKey != "sk-env" {
		t.Errorf("OpenAI.APIKey = %q, want sk-env", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.OpenAI.BaseURL != "https://proxy.example.com/v1" {
		t.Errorf("OpenAI.BaseURL = %q", cfg.Providers.OpenAI.BaseURL)
	}
	// file beats environment
	if cfg.Providers.OpenAI.Model != "o1-pro" {
		t.Errorf("OpenAI.Model = %q, want o1-pro", cfg.Providers.OpenAI.Model)
	}
	if cfg.Providers.DeepSeek.Model != "deepseek-chat" {
		t.Errorf("DeepSeek.Model = %q, want deepseek-chat", cfg.Providers.DeepSeek.Model)
	}
	if cfg.Providers.Default != "deepseek" {
		t.Errorf("Providers.Default = %q, want deepseek", cfg.Providers.Default)
	}
	if cfg.Gamma.APIKey != "gamma-env" || cfg.Gemini.APIKey != "gemini-env" {
		t.Errorf("Gamma/Gemini keys = %q/%q", cfg.Gamma.APIKey, cfg.Gemini.APIKey)
	}
}

func TestParse_FullConfig(t *testing.T) {
	unsetEnv(t, providerEnv...)

	cfg, err := Parse([]byte(`
output_dir: reports
poll:
  max_duration: 45m
  on_error: abort
providers:
  default: deepseek
  deepseek:
    api_key: ds-key
    base_url: https://ds.internal
    timeout: 10m
gamma:
  api_key: g-key
  max_duration: 15m
  timeout: 30s
gemini:
  model: gemini-2.5-flash-image
ledger:
  disabled: true
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.OutputDir != "reports" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.Poll.MaxDuration.Duration() != 45*time.Minute || cfg.Poll.OnError != "abort" {
		t.Errorf("Poll = %+v", cfg.Poll)
	}
	if cfg.Providers.DeepSeek.Timeout.Duration() != 10*time.Minute {
		t.Errorf("DeepSeek.Timeout = %v", cfg.Providers.DeepSeek.Timeout.Duration())
	}
	if cfg.Gamma.MaxDuration.Duration() != 15*time.Minute || cfg.Gamma.Timeout.Duration() != 30*time.Second {
		t.Errorf("Gamma = %+v", cfg.Gamma)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash-image" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if !cfg.Ledger.Disabled {
		t.Error("Ledger.Disabled = false, want true")
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	unsetEnv(t, providerEnv...)
	t.Setenv("TB_TEST_KEY", "secret123")

	cfg, err := Parse([]byte(`
providers:
  openai:
    api_key: ${TB_TEST_KEY}
  deepseek:
    base_url: ${TB_TEST_UNSET:-https://fallback.example.com}
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Providers.OpenAI.APIKey != "secret123" {
		t.Errorf("OpenAI.APIKey = %q, want secret123", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Providers.DeepSeek.BaseURL != "https://fallback.example.com" {
		t.Errorf("DeepSeek.BaseURL = %q", cfg.Providers.DeepSeek.BaseURL)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	_, err := Parse([]byte(`
gamma:
  api_key: ${TB_DEFINITELY_NOT_SET}
`))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "gamma.api_key") {
		t.Errorf("error %q should name the field", err)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	unsetEnv(t, providerEnv...)

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad policy", "poll:\n  on_error: ignore\n", "poll.on_error"},
		{"negative budget", "poll:\n  max_duration: -1m\n", "poll.max_duration"},
		{"budget too long", "poll:\n  max_duration: 48h\n", "poll.max_duration"},
		{"unknown provider", "providers:\n  default: anthropic\n", "providers.default"},
		{"bad scheme", "providers:\n  openai:\n    base_url: ftp://x\n", "providers.openai.base_url"},
		{"no host", "gamma:\n  base_url: https://\n", "gamma.base_url"},
		{"short timeout", "gemini:\n  timeout: 500ms\n", "gemini.timeout"},
		{"gamma budget", "gamma:\n  max_duration: -5s\n", "gamma.max_duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("poll: [unclosed")); err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	unsetEnv(t, providerEnv...)

	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "90s", 90 * time.Second, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"hours", "1h", time.Hour, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("poll:\n  max_duration: " + tt.input + "\n"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Poll.MaxDuration.Duration() != tt.want {
				t.Errorf("MaxDuration = %v, want %v", cfg.Poll.MaxDuration.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default", "${UNSET:-}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	unsetEnv(t, providerEnv...)

	path := filepath.Join(t.TempDir(), "thirdbrain.yaml")
	if err := os.WriteFile(path, []byte("output_dir: out\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir = %q, want out", cfg.OutputDir)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) expected error")
	}
}

func TestSummary_MasksSecrets(t *testing.T) {
	unsetEnv(t, providerEnv...)
	t.Setenv("OPENAI_API_KEY", "sk-abcdefghijklmnop")

	s := Default().Summary()
	if strings.Contains(s, "sk-abcdefghijklmnop") {
		t.Errorf("Summary() leaked the API key:\n%s", s)
	}
	if !strings.Contains(s, "sk-a****") {
		t.Errorf("Summary() missing masked key:\n%s", s)
	}
	if !strings.Contains(s, "key=(unset)") {
		t.Errorf("Summary() should show unset keys:\n%s", s)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	unsetEnv(t, "TB_DOTENV_NEW", "TB_DOTENV_SECOND")
	t.Setenv("TB_DOTENV_EXISTING", "from-shell")

	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	os.WriteFile(first, []byte("TB_DOTENV_NEW=from-file\nTB_DOTENV_EXISTING=from-file\n"), 0o644)
	os.WriteFile(second, []byte("TB_DOTENV_NEW=later\nTB_DOTENV_SECOND=two\n"), 0o644)

	set, err := LoadEnvFiles(first, filepath.Join(dir, "missing.env"), second)
	if err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}

	if got := os.Getenv("TB_DOTENV_NEW"); got != "from-file" {
		t.Errorf("TB_DOTENV_NEW = %q, want from-file (first file wins)", got)
	}
	if got := os.Getenv("TB_DOTENV_EXISTING"); got != "from-shell" {
		t.Errorf("TB_DOTENV_EXISTING = %q, want from-shell (never override)", got)
	}
	if got := os.Getenv("TB_DOTENV_SECOND"); got != "two" {
		t.Errorf("TB_DOTENV_SECOND = %q, want two", got)
	}
	if len(set) != 2 {
		t.Errorf("LoadEnvFiles() set %v, want 2 variables", set)
	}
}

func TestDefaultEnvFiles_HomeFileFirst(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := DefaultEnvFiles()
	want := []string{filepath.Join(home, ".nanobanana.env"), ".env"}
	if len(got) != len(want) {
		t.Fatalf("DefaultEnvFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DefaultEnvFiles()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadEnvFiles_HomeFileWinsOverLocal(t *testing.T) {
	unsetEnv(t, "TB_DOTENV_KEY")
	home := t.TempDir()
	t.Setenv("HOME", home)
	os.WriteFile(filepath.Join(home, ".nanobanana.env"), []byte("TB_DOTENV_KEY=home\n"), 0o644)

	local := t.TempDir()
	os.WriteFile(filepath.Join(local, ".env"), []byte("TB_DOTENV_KEY=local\n"), 0o644)
	t.Chdir(local)

	if _, err := LoadEnvFiles(DefaultEnvFiles()...); err != nil {
		t.Fatalf("LoadEnvFiles() error = %v", err)
	}
	if got := os.Getenv("TB_DOTENV_KEY"); got != "home" {
		t.Errorf("TB_DOTENV_KEY = %q, want home", got)
	}
}
