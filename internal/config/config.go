// Package config loads the runtime configuration for gamebible. Values come from
// built-in defaults, an optional config.yaml, and the environment, in that order.
// The resulting Config is read once at startup and treated as immutable.
package config

import "time"

// Config is the root configuration object.
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Text     TextConfig     `mapstructure:"text"`
	Image    ImageConfig    `mapstructure:"image"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// UpstreamConfig describes the hosted inference API and its retry policy.
type UpstreamConfig struct {
	// BaseURL is the model endpoint prefix; requests go to BaseURL/<model>
	BaseURL string `mapstructure:"base_url"`

	// Token is sent as a bearer credential when non-empty
	Token string `mapstructure:"token"`

	// Timeout bounds a single HTTP attempt
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxRetries is the total number of attempts per call
	MaxRetries int `mapstructure:"max_retries"`

	ModelLoadingWait time.Duration `mapstructure:"model_loading_wait"`
	RateLimitWait    time.Duration `mapstructure:"rate_limit_wait"`
	ConnectWait      time.Duration `mapstructure:"connect_wait"`
	TimeoutWait      time.Duration `mapstructure:"timeout_wait"`
	BackoffStep      time.Duration `mapstructure:"backoff_step"`
}

// TextConfig configures the text model cascade.
type TextConfig struct {
	// Models are tried in order until one produces text
	Models      []string `mapstructure:"models"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature float64  `mapstructure:"temperature"`
	TopP        float64  `mapstructure:"top_p"`

	// Language is the output language the prompt demands
	Language string `mapstructure:"language"`
}

// ImageConfig configures concept image generation.
type ImageConfig struct {
	Model string `mapstructure:"model"`
}

// OpenAIConfig enables an optional last-resort chat backend. An empty APIKey disables it.
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// QuotaConfig configures the per-user daily generation limit.
type QuotaConfig struct {
	DailyLimit int         `mapstructure:"daily_limit"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig points at the quota counter store. An empty Address selects the
// in-process limiter.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig locates generated projects on disk.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Address string `mapstructure:"address"`

	// GenerationDeadline bounds one full project generation request
	GenerationDeadline time.Duration `mapstructure:"generation_deadline"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultTextModels is the built-in cascade order, most preferred first.
var DefaultTextModels = []string{
	"mistralai/Mistral-7B-Instruct-v0.2",
	"mistralai/Mistral-7B-v0.1",
	"HuggingFaceH4/zephyr-7b-beta",
	"google/flan-t5-xxl",
}

const (
	DefaultBaseURL    = "https://api-inference.huggingface.co/models"
	DefaultImageModel = "stabilityai/stable-diffusion-2-1"
)
