package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leofalp/mathchat/internal/errorsx"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key read from the environment,
// e.g. MATHCHAT_MODEL or MATHCHAT_RETRY_MAX_RETRIES.
const EnvPrefix = "MATHCHAT"

// Config holds every setting of the chat client.
type Config struct {
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	SystemPrompt    string        `mapstructure:"system_prompt"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	Temperature     float64       `mapstructure:"temperature"`
	ToolChoice      string        `mapstructure:"tool_choice"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxToolRounds   int           `mapstructure:"max_tool_rounds"`
	Retry           RetryConfig   `mapstructure:"retry"`
	Log             LogConfig     `mapstructure:"log"`
	Color           bool          `mapstructure:"color"`
	Banner          bool          `mapstructure:"banner"`
}

// RetryConfig controls retries of requests that failed before streaming.
type RetryConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

// LogConfig controls diagnostics written to stderr.
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Requests string `mapstructure:"requests"`
}

// Default returns the built-in configuration: a local Ollama server running
// mistral with deterministic sampling and automatic tool choice.
func Default() Config {
	return Config{
		Model:           "mistral",
		BaseURL:         "http://localhost:11434/v1",
		MaxOutputTokens: 2000,
		Temperature:     0,
		ToolChoice:      "auto",
		RequestTimeout:  2 * time.Minute,
		MaxToolRounds:   5,
		Retry: RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:    "warn",
			Format:   "compact",
			Requests: "standard",
		},
		Color:  true,
		Banner: true,
	}
}

// LoadOptions tells Load where to look besides the environment.
type LoadOptions struct {
	// ConfigFile is an explicit YAML, JSON or TOML file. When empty, Load
	// looks for an optional mathchat.{yaml,json,toml} in the working
	// directory and in $HOME/.config/mathchat.
	ConfigFile string

	// EnvFile is a dotenv file loaded into the process environment before
	// reading variables. Variables already set are not overridden. A missing
	// file is ignored. Empty means ".env"; "-" disables it.
	EnvFile string

	// Flags, when set, override every other source for flags the user changed.
	// Use RegisterFlags to define them.
	Flags *pflag.FlagSet
}

// Load builds the configuration with precedence flag > env > file > default
// and validates it.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names understood by other OpenAI-compatible tooling.
	_ = v.BindEnv("base_url", EnvPrefix+"_BASE_URL", "OPENAI_API_BASE_URL")
	_ = v.BindEnv("api_key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.UnmarshalExact(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if opts.Flags != nil {
		applySwitches(&cfg, opts.Flags)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	switch path {
	case "-":
		return nil
	case "":
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("mathchat")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/mathchat")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("model", d.Model)
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("system_prompt", d.SystemPrompt)
	v.SetDefault("max_output_tokens", d.MaxOutputTokens)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("tool_choice", d.ToolChoice)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("max_tool_rounds", d.MaxToolRounds)
	v.SetDefault("retry.max_retries", d.Retry.MaxRetries)
	v.SetDefault("retry.initial_backoff", d.Retry.InitialBackoff)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.requests", d.Log.Requests)
	v.SetDefault("color", d.Color)
	v.SetDefault("banner", d.Banner)
}

func (c *Config) normalize() {
	c.Model = strings.TrimSpace(c.Model)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.ToolChoice = strings.ToLower(strings.TrimSpace(c.ToolChoice))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Log.Requests = strings.ToLower(strings.TrimSpace(c.Log.Requests))
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url must not be empty"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q is not an absolute URL", c.BaseURL))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_output_tokens must be positive, got %d", c.MaxOutputTokens))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature))
	}
	switch c.ToolChoice {
	case "auto", "none", "required":
	default:
		errs = append(errs, fmt.Errorf("tool_choice must be auto, none or required, got %q", c.ToolChoice))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.MaxToolRounds < 0 {
		errs = append(errs, fmt.Errorf("max_tool_rounds must not be negative, got %d", c.MaxToolRounds))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("retry.max_retries must not be negative, got %d", c.Retry.MaxRetries))
	}
	if c.Retry.InitialBackoff < 0 {
		errs = append(errs, fmt.Errorf("retry.initial_backoff must not be negative, got %s", c.Retry.InitialBackoff))
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be trace, debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "compact", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be compact, text or json, got %q", c.Log.Format))
	}
	switch c.Log.Requests {
	case "minimal", "standard", "verbose":
	default:
		errs = append(errs, fmt.Errorf("log.requests must be minimal, standard or verbose, got %q", c.Log.Requests))
	}

	if len(errs) > 0 {
		return &ValidationError{Errs: errs}
	}
	return nil
}

// ValidationError collects every invalid setting found by Validate.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	messages := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		messages[i] = err.Error()
	}
	return "invalid config: " + strings.Join(messages, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Errs
}

// ReasonCode implements the errorsx reasoner interface.
func (e *ValidationError) ReasonCode() errorsx.ReasonCode {
	return errorsx.ReasonConfigInvalid
}
