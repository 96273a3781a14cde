package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/llm"
)

const (
	// EnvPrefix is prepended to every environment variable scriptwrap reads.
	EnvPrefix = "SCRIPTWRAP"

	// FileName is the config file looked up in the working directory and $HOME.
	FileName = ".scriptwrap"

	DefaultProvider    = "openai"
	DefaultMaxAttempts = 2
	DefaultBackoff     = 2 * time.Second
)

// Config is the resolved scriptwrap configuration.
type Config struct {
	LLM   LLMConfig   `mapstructure:"llm"`
	Build BuildConfig `mapstructure:"build"`
}

// LLMConfig selects and configures the language-model provider.
type LLMConfig struct {
	Provider        string `mapstructure:"provider" validate:"required"`
	APIKey          string `mapstructure:"api_key"`
	BaseURL         string `mapstructure:"base_url" validate:"omitempty,url"`
	TextModel       string `mapstructure:"text_model"`
	StructuredModel string `mapstructure:"structured_model"`
	MaxTokens       int    `mapstructure:"max_tokens" validate:"gte=0"`
}

// BuildConfig bounds the regenerate-and-rebuild loop.
type BuildConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	Backoff     time.Duration `mapstructure:"backoff" validate:"gte=0"`
}

// ProviderConfig converts the LLM section into what provider factories expect.
func (c LLMConfig) ProviderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		TextModel:       c.TextModel,
		StructuredModel: c.StructuredModel,
		MaxTokens:       c.MaxTokens,
	}
}

// Options controls where Load looks for settings.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, .scriptwrap.yaml is looked up
	// in the working directory and then $HOME, and its absence is not an error.
	ConfigFile string

	// Flags are bound on top of file and environment values; only flags the user set win.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"llm":            "llm.provider",
	"api-key":        "llm.api_key",
	"build-attempts": "build.max_attempts",
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load resolves configuration from defaults, the config file, the environment and flags,
// in increasing order of precedence.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	v.SetDefault("llm.provider", DefaultProvider)
	v.SetDefault("build.max_attempts", DefaultMaxAttempts)
	v.SetDefault("build.backoff", DefaultBackoff)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"llm.provider", "llm.base_url", "llm.text_model", "llm.structured_model", "llm.max_tokens", "build.max_attempts", "build.backoff"} {
		if err := v.BindEnv(key); err != nil {
			return nil, configError("Failed to bind environment", err)
		}
	}
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, configError("Failed to bind environment", err)
	}

	if err := readConfigFile(v, opts.ConfigFile); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, configError("Failed to bind command-line flags", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configError("Failed to parse configuration", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if err := validate.Struct(&cfg); err != nil {
		return nil, configError("Invalid configuration", formatValidationError(err))
	}

	return &cfg, nil
}

func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return swerrors.NewConfigError(
				"Config file not found",
				configFile,
				"Check the --config path",
				fmt.Errorf("config file not found: %s", configFile),
			)
		}
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return configError("Failed to read config file", fmt.Errorf("failed to read config file: %w", err))
	}
	return nil
}

func configError(context string, err error) error {
	return swerrors.NewConfigError(context, err.Error(), "Review the config file, SCRIPTWRAP_* environment variables and flags", err)
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, formatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("field '%s' must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("field '%s' must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, e.Tag())
	}
}
