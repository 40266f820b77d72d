package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag names that do not map one-to-one to a configuration key.
const (
	FlagConfig   = "config"
	FlagEnvFile  = "env-file"
	FlagNoColor  = "no-color"
	FlagNoBanner = "no-banner"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"model":             "model",
	"base-url":          "base_url",
	"api-key":           "api_key",
	"system-prompt":     "system_prompt",
	"max-output-tokens": "max_output_tokens",
	"temperature":       "temperature",
	"tool-choice":       "tool_choice",
	"request-timeout":   "request_timeout",
	"max-tool-rounds":   "max_tool_rounds",
	"max-retries":       "retry.max_retries",
	"retry-backoff":     "retry.initial_backoff",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"log-requests":      "log.requests",
}

// RegisterFlags defines the configuration flags on fs with the built-in
// defaults, so that --help shows them.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()

	fs.String(FlagConfig, "", "config file (YAML, JSON or TOML)")
	fs.String(FlagEnvFile, ".env", `dotenv file to load, "-" to skip`)

	fs.String("model", d.Model, "model name")
	fs.String("base-url", d.BaseURL, "OpenAI-compatible API base URL")
	fs.String("api-key", d.APIKey, "API key, not needed for Ollama")
	fs.String("system-prompt", d.SystemPrompt, "system prompt sent with every request")
	fs.Int("max-output-tokens", d.MaxOutputTokens, "output token limit per response")
	fs.Float64("temperature", d.Temperature, "sampling temperature [0, 2]")
	fs.String("tool-choice", d.ToolChoice, "tool invocation mode: auto, none or required")
	fs.Duration("request-timeout", d.RequestTimeout, "timeout for one request including its stream")
	fs.Int("max-tool-rounds", d.MaxToolRounds, "maximum tool exchanges per turn")
	fs.Int("max-retries", d.Retry.MaxRetries, "retries for requests that fail before streaming")
	fs.Duration("retry-backoff", d.Retry.InitialBackoff, "initial retry backoff")
	fs.String("log-level", d.Log.Level, "log level: trace, debug, info, warn or error")
	fs.String("log-format", d.Log.Format, "log format: compact, text or json")
	fs.String("log-requests", d.Log.Requests, "request log detail: minimal, standard or verbose")
	fs.Bool(FlagNoColor, false, "disable colored output")
	fs.Bool(FlagNoBanner, false, "do not print the startup banner")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// applySwitches handles the negative boolean flags, which only ever turn a
// feature off.
func applySwitches(cfg *Config, fs *pflag.FlagSet) {
	if off, err := fs.GetBool(FlagNoColor); err == nil && off {
		cfg.Color = false
	}
	if off, err := fs.GetBool(FlagNoBanner); err == nil && off {
		cfg.Banner = false
	}
}
