// Package config loads application configuration from the environment
// (and an optional config file) using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Billing   BillingConfig   `mapstructure:"billing"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// AssistantConfig configures the inference endpoint. An empty APIKey
// disables live inference; FallbackEnabled then decides whether the
// assistant serves deterministic template results instead of failing.
type AssistantConfig struct {
	APIKey          string `mapstructure:"api_key"`
	APIURL          string `mapstructure:"api_url"`
	Model           string `mapstructure:"model"`
	FallbackEnabled bool   `mapstructure:"fallback_enabled"`
}

// BillingConfig configures the checkout backend. DemoMode permits
// client-driven premium confirmation; a production deployment confirms
// entitlements from the payment provider's signed webhook instead.
type BillingConfig struct {
	APIURL   string `mapstructure:"api_url"`
	DemoMode bool   `mapstructure:"demo_mode"`
}

type StorageConfig struct {
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Region string `mapstructure:"s3_region"`
}

// Load reads configuration from FORKFUL_* environment variables, with an
// optional config.yaml in the working directory taking lower precedence.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "forkful")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "forkful")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("assistant.api_key", "")
	v.SetDefault("assistant.api_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("assistant.model", "gpt-3.5-turbo")
	v.SetDefault("assistant.fallback_enabled", true)
	v.SetDefault("billing.api_url", "")
	v.SetDefault("billing.demo_mode", false)
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "us-east-1")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("FORKFUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings without which the service cannot run.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Billing.APIURL == "" && !c.Billing.DemoMode {
		return fmt.Errorf("billing.api_url is required unless billing.demo_mode is set")
	}
	return nil
}
