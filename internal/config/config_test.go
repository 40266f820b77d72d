package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/spf13/pflag"
)

// isolate clears variables that would leak from the host into Load.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"MATHCHAT_MODEL", "MATHCHAT_BASE_URL", "MATHCHAT_API_KEY",
		"MATHCHAT_TEMPERATURE", "MATHCHAT_RETRY_MAX_RETRIES", "MATHCHAT_LOG_LEVEL",
		"MATHCHAT_SYSTEM_PROMPT", "OPENAI_API_BASE_URL", "OPENAI_API_KEY", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return fs
}

// TestLoad_Defaults verifies the built-in values when no source sets anything.
func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{EnvFile: "-"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "mistral" {
		t.Errorf("Model = %q, want mistral", cfg.Model)
	}
	if cfg.BaseURL != "http://localhost:11434/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.MaxOutputTokens != 2000 {
		t.Errorf("MaxOutputTokens = %d, want 2000", cfg.MaxOutputTokens)
	}
	if cfg.Temperature != 0 {
		t.Errorf("Temperature = %g, want 0", cfg.Temperature)
	}
	if cfg.ToolChoice != "auto" {
		t.Errorf("ToolChoice = %q, want auto", cfg.ToolChoice)
	}
	if cfg.RequestTimeout != 2*time.Minute {
		t.Errorf("RequestTimeout = %s, want 2m", cfg.RequestTimeout)
	}
	if cfg.MaxToolRounds != 5 {
		t.Errorf("MaxToolRounds = %d, want 5", cfg.MaxToolRounds)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.InitialBackoff != 500*time.Millisecond {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "compact" || cfg.Log.Requests != "standard" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Color || !cfg.Banner {
		t.Errorf("Color = %v, Banner = %v, want both true", cfg.Color, cfg.Banner)
	}
}

// TestLoad_Precedence checks flag > env > file > default for a single key.
func TestLoad_Precedence(t *testing.T) {
	file := "model: from-file\nmax_output_tokens: 100\nretry:\n  max_retries: 4\n"

	tests := []struct {
		name  string
		env   string
		args  []string
		want  string
		file  bool
		flags bool
	}{
		{name: "default", want: "mistral"},
		{name: "file over default", file: true, want: "from-file"},
		{name: "env over file", file: true, env: "from-env", want: "from-env"},
		{name: "flag over env", file: true, env: "from-env", flags: true, args: []string{"--model", "from-flag"}, want: "from-flag"},
		{name: "unchanged flag keeps env", file: true, env: "from-env", flags: true, want: "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			if tt.env != "" {
				t.Setenv("MATHCHAT_MODEL", tt.env)
			}

			opts := LoadOptions{EnvFile: "-"}
			if tt.file {
				opts.ConfigFile = writeFile(t, "mathchat.yaml", file)
			}
			if tt.flags {
				opts.Flags = newFlags(t, tt.args...)
			}

			cfg, err := Load(opts)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Model != tt.want {
				t.Errorf("Model = %q, want %q", cfg.Model, tt.want)
			}
			if tt.file && (cfg.MaxOutputTokens != 100 || cfg.Retry.MaxRetries != 4) {
				t.Errorf("file values not applied: tokens=%d retries=%d", cfg.MaxOutputTokens, cfg.Retry.MaxRetries)
			}
		})
	}
}

// TestLoad_NestedEnv verifies that dotted keys map to underscored variables.
func TestLoad_NestedEnv(t *testing.T) {
	isolate(t)
	t.Setenv("MATHCHAT_RETRY_MAX_RETRIES", "7")
	t.Setenv("MATHCHAT_TEMPERATURE", "0.5")

	cfg, err := Load(LoadOptions{EnvFile: "-"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Errorf("Retry.MaxRetries = %d, want 7", cfg.Retry.MaxRetries)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Temperature = %g, want 0.5", cfg.Temperature)
	}
}

// TestLoad_EnvAliases verifies the OpenAI-style variable names.
func TestLoad_EnvAliases(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_BASE_URL", "http://gpu-box:8080/v1/")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(LoadOptions{EnvFile: "-"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BaseURL != "http://gpu-box:8080/v1" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
	if cfg.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

// TestLoad_EnvFile verifies that a dotenv file feeds the environment layer.
func TestLoad_EnvFile(t *testing.T) {
	isolate(t)
	t.Cleanup(func() { _ = os.Unsetenv("MATHCHAT_MAX_TOOL_ROUNDS") })

	path := writeFile(t, ".env", "MATHCHAT_MAX_TOOL_ROUNDS=9\n")

	cfg, err := Load(LoadOptions{EnvFile: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxToolRounds != 9 {
		t.Errorf("MaxToolRounds = %d, want 9", cfg.MaxToolRounds)
	}
}

// TestLoad_MissingEnvFile verifies that an absent dotenv file is not an error.
func TestLoad_MissingEnvFile(t *testing.T) {
	isolate(t)

	if _, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

// TestLoad_ConfigFileErrors covers unreadable and misspelled configuration.
func TestLoad_ConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing explicit file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: "read config",
		},
		{
			name:    "unknown key",
			path:    func(t *testing.T) string { return writeFile(t, "mathchat.yaml", "modle: typo\n") },
			wantErr: "decode config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(LoadOptions{EnvFile: "-", ConfigFile: tt.path(t)})
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestLoad_Flags verifies typed flags and the negative switches.
func TestLoad_Flags(t *testing.T) {
	isolate(t)

	fs := newFlags(t,
		"--request-timeout", "30s",
		"--retry-backoff", "1s",
		"--temperature", "1.5",
		"--max-output-tokens", "256",
		"--tool-choice", "NONE",
		"--no-color",
		"--no-banner",
	)

	cfg, err := Load(LoadOptions{EnvFile: "-", Flags: fs})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %s, want 30s", cfg.RequestTimeout)
	}
	if cfg.Retry.InitialBackoff != time.Second {
		t.Errorf("Retry.InitialBackoff = %s, want 1s", cfg.Retry.InitialBackoff)
	}
	if cfg.Temperature != 1.5 {
		t.Errorf("Temperature = %g, want 1.5", cfg.Temperature)
	}
	if cfg.MaxOutputTokens != 256 {
		t.Errorf("MaxOutputTokens = %d, want 256", cfg.MaxOutputTokens)
	}
	if cfg.ToolChoice != "none" {
		t.Errorf("ToolChoice = %q, want none", cfg.ToolChoice)
	}
	if cfg.Color || cfg.Banner {
		t.Errorf("Color = %v, Banner = %v, want both false", cfg.Color, cfg.Banner)
	}
}

// TestValidate rejects each invalid setting.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "empty model", mutate: func(c *Config) { c.Model = "" }, wantErr: "model must not be empty"},
		{name: "empty base url", mutate: func(c *Config) { c.BaseURL = "" }, wantErr: "base_url must not be empty"},
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "localhost" }, wantErr: "not an absolute URL"},
		{name: "zero tokens", mutate: func(c *Config) { c.MaxOutputTokens = 0 }, wantErr: "max_output_tokens"},
		{name: "hot temperature", mutate: func(c *Config) { c.Temperature = 2.5 }, wantErr: "temperature"},
		{name: "unknown tool choice", mutate: func(c *Config) { c.ToolChoice = "sometimes" }, wantErr: "tool_choice"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "request_timeout"},
		{name: "negative rounds", mutate: func(c *Config) { c.MaxToolRounds = -1 }, wantErr: "max_tool_rounds"},
		{name: "negative retries", mutate: func(c *Config) { c.Retry.MaxRetries = -1 }, wantErr: "retry.max_retries"},
		{name: "unknown level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "unknown format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log.format"},
		{name: "unknown request detail", mutate: func(c *Config) { c.Log.Requests = "all" }, wantErr: "log.requests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestValidate_CollectsAll verifies that every problem is reported at once.
func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Model = ""
	cfg.MaxOutputTokens = -1

	var verr *ValidationError
	if err := cfg.Validate(); !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	if len(verr.Errs) != 2 {
		t.Errorf("len(Errs) = %d, want 2", len(verr.Errs))
	}
}

// TestValidate_ReasonCode verifies the machine-readable reason.
func TestValidate_ReasonCode(t *testing.T) {
	cfg := Default()
	cfg.ToolChoice = "never"

	if got := errorsx.Reason(cfg.Validate()); got != errorsx.ReasonConfigInvalid {
		t.Errorf("Reason = %q, want %q", got, errorsx.ReasonConfigInvalid)
	}
}
