package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/careprep/ai-service/pkg/completion"
	"github.com/careprep/ai-service/pkg/messaging/redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type AIConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	BaseURL        string        `mapstructure:"base_url"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Referer        string        `mapstructure:"referer"`
	Title          string        `mapstructure:"title"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"rps"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// env names kept from the original deployment.
var envBindings = map[string]string{
	"server.port": "PORT",
	"ai.api_key":  "OPENROUTER_API_KEY",
	"ai.model":    "OPENROUTER_MODEL",
	"ai.base_url": "OPENROUTER_BASE_URL",
	"redis.url":   "REDIS_URL",
	"log.level":   "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.max_body_bytes", 1<<20)

	def := completion.DefaultConfig()
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", def.Model)
	v.SetDefault("ai.base_url", def.BaseURL)
	v.SetDefault("ai.max_attempts", def.MaxAttempts)
	v.SetDefault("ai.base_delay", def.BaseDelay)
	v.SetDefault("ai.request_timeout", def.Timeout)
	v.SetDefault("ai.referer", def.Referer)
	v.SetDefault("ai.title", def.Title)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 5.0)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	rd := redis.DefaultConfig("")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", rd.MaxRetries)
	v.SetDefault("redis.retry_backoff", rd.RetryBackoff)
	v.SetDefault("redis.pool_size", rd.PoolSize)
	v.SetDefault("redis.min_idle_conns", rd.MinIdleConns)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
}

// LoadConfig reads an optional .env file, an optional config.yaml from the
// working directory or ./config, and the environment. Later sources win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.AI.MaxAttempts < 1 {
		return fmt.Errorf("ai.max_attempts must be at least 1, got %d", c.AI.MaxAttempts)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("invalid rate limit %v/%d", c.RateLimit.RequestsPerSecond, c.RateLimit.Burst)
	}
	return nil
}

func (c *AIConfig) ToCompletionConfig() completion.Config {
	return completion.Config{
		APIKey:      c.APIKey,
		Model:       c.Model,
		BaseURL:     c.BaseURL,
		Timeout:     c.RequestTimeout,
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.BaseDelay,
		Referer:     c.Referer,
		Title:       c.Title,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	cfg := redis.DefaultConfig(c.URL)
	cfg.MaxRetries = c.MaxRetries
	cfg.RetryBackoff = c.RetryBackoff
	cfg.PoolSize = c.PoolSize
	cfg.MinIdleConns = c.MinIdleConns
	return cfg
}
