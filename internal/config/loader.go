package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Legacy environment names that bind directly to config keys.
var envAliases = map[string]string{
	"upstream.token":      "HUGGINGFACE_API_TOKEN",
	"image.model":         "HF_IMG_MODEL",
	"openai.api_key":      "OPENAI_API_KEY",
	"quota.redis.address": "REDIS_ADDRESS",
}

// Load reads .env (if present), config.yaml from the usual locations, and
// GAMEBIBLE_* environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper applies defaults and environment bindings to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("GAMEBIBLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "GAMEBIBLE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	cfg, err := FromViper(viper.New())
	if err != nil {
		panic(err)
	}
	return *cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("upstream.base_url", DefaultBaseURL)
	v.SetDefault("upstream.timeout", 120*time.Second)
	v.SetDefault("upstream.max_retries", 3)
	v.SetDefault("upstream.model_loading_wait", 30*time.Second)
	v.SetDefault("upstream.rate_limit_wait", 60*time.Second)
	v.SetDefault("upstream.connect_wait", 10*time.Second)
	v.SetDefault("upstream.timeout_wait", 15*time.Second)
	v.SetDefault("upstream.backoff_step", 10*time.Second)

	v.SetDefault("text.models", DefaultTextModels)
	v.SetDefault("text.max_tokens", 800)
	v.SetDefault("text.temperature", 0.7)
	v.SetDefault("text.top_p", 0.9)
	v.SetDefault("text.language", "français")

	v.SetDefault("image.model", DefaultImageModel)

	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("quota.daily_limit", 10)
	v.SetDefault("quota.redis.password", "")
	v.SetDefault("quota.redis.db", 0)

	v.SetDefault("storage.dir", "generated")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.generation_deadline", 10*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Upstream.BaseURL == "":
		return fmt.Errorf("%w: upstream.base_url is required", ErrInvalidConfig)
	case c.Upstream.MaxRetries < 1:
		return fmt.Errorf("%w: upstream.max_retries must be at least 1", ErrInvalidConfig)
	case c.Upstream.Timeout <= 0:
		return fmt.Errorf("%w: upstream.timeout must be positive", ErrInvalidConfig)
	case len(c.Text.Models) == 0:
		return fmt.Errorf("%w: text.models must list at least one model", ErrInvalidConfig)
	case c.Text.MaxTokens <= 0:
		return fmt.Errorf("%w: text.max_tokens must be positive", ErrInvalidConfig)
	case c.Image.Model == "":
		return fmt.Errorf("%w: image.model is required", ErrInvalidConfig)
	case c.Quota.DailyLimit < 0:
		return fmt.Errorf("%w: quota.daily_limit cannot be negative", ErrInvalidConfig)
	case c.Storage.Dir == "":
		return fmt.Errorf("%w: storage.dir is required", ErrInvalidConfig)
	}
	return nil
}
