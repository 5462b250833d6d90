package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Log         LogConfig
	CORS        CORSConfig
	Classifier  ClassifierConfig
	Queue       QueueConfig
	Engine      EngineConfig
	Integration IntegrationConfig
	S3          S3Config
	Email       EmailConfig
	Webhook     WebhookConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ClassifierProviderConfig holds settings for a single vision-model provider.
type ClassifierProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ClassifierConfig holds document classifier settings with multi-provider support.
type ClassifierConfig struct {
	Primary   ClassifierProviderConfig `mapstructure:"primary"`
	Secondary ClassifierProviderConfig `mapstructure:"secondary"`
	Tertiary  ClassifierProviderConfig `mapstructure:"tertiary"`
}

// Chain returns the configured providers in fallback order.
func (c *ClassifierConfig) Chain() []*ClassifierProviderConfig {
	var chain []*ClassifierProviderConfig
	for _, p := range []*ClassifierProviderConfig{&c.Primary, &c.Secondary, &c.Tertiary} {
		if p.Provider != "" {
			chain = append(chain, p)
		}
	}
	return chain
}

// QueueConfig holds requeue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	Concurrency      int `mapstructure:"concurrency"`
	StaleAfterSecs   int `mapstructure:"stale_after_secs"`
}

// EngineConfig holds workflow engine settings.
type EngineConfig struct {
	MaxSteps        int `mapstructure:"max_steps"`
	HTTPTimeoutSecs int `mapstructure:"http_timeout_secs"`
}

// IntegrationConfig holds downstream utility gateway settings.
type IntegrationConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// S3Config holds AWS S3 settings for attachment storage.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// EmailConfig holds notification email settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// WebhookConfig holds outbound webhook delivery settings.
type WebhookConfig struct {
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// Load reads configuration from environment variables with the ONEBILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ONEBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "onebill")
	v.SetDefault("db.password", "onebill_secret")
	v.SetDefault("db.name", "onebill_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Classifier defaults: OpenAI vision as the primary provider
	v.SetDefault("classifier.primary.provider", "openai")
	v.SetDefault("classifier.primary.api_key", "")
	v.SetDefault("classifier.primary.default_model", "gpt-4o")
	v.SetDefault("classifier.primary.timeout_secs", 120)
	v.SetDefault("classifier.secondary.provider", "")
	v.SetDefault("classifier.secondary.api_key", "")
	v.SetDefault("classifier.secondary.default_model", "")
	v.SetDefault("classifier.secondary.timeout_secs", 120)
	v.SetDefault("classifier.tertiary.provider", "")
	v.SetDefault("classifier.tertiary.api_key", "")
	v.SetDefault("classifier.tertiary.default_model", "")
	v.SetDefault("classifier.tertiary.timeout_secs", 120)

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.stale_after_secs", 600)

	// Engine defaults
	v.SetDefault("engine.max_steps", 100)
	v.SetDefault("engine.http_timeout_secs", 30)

	// Integration defaults
	v.SetDefault("integration.base_url", "")
	v.SetDefault("integration.api_key", "")
	v.SetDefault("integration.timeout_secs", 30)

	// S3 defaults
	v.SetDefault("s3.region", "eu-west-1")
	v.SetDefault("s3.bucket", "onebill-attachments")
	v.SetDefault("s3.endpoint", "")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-west-1")
	v.SetDefault("email.from_address", "noreply@onebill.ie")
	v.SetDefault("email.from_name", "OneBill")

	// Webhook defaults
	v.SetDefault("webhook.timeout_secs", 10)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                        "ONEBILL_SERVER_PORT",
		"server.read_timeout":                "ONEBILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":               "ONEBILL_SERVER_WRITE_TIMEOUT",
		"server.environment":                 "ONEBILL_SERVER_ENVIRONMENT",
		"db.host":                            "ONEBILL_DB_HOST",
		"db.port":                            "ONEBILL_DB_PORT",
		"db.user":                            "ONEBILL_DB_USER",
		"db.password":                        "ONEBILL_DB_PASSWORD",
		"db.name":                            "ONEBILL_DB_NAME",
		"db.sslmode":                         "ONEBILL_DB_SSLMODE",
		"db.max_open":                        "ONEBILL_DB_MAX_OPEN",
		"db.max_idle":                        "ONEBILL_DB_MAX_IDLE",
		"log.level":                          "ONEBILL_LOG_LEVEL",
		"log.format":                         "ONEBILL_LOG_FORMAT",
		"cors.allowed_origins":               "ONEBILL_CORS_ALLOWED_ORIGINS",
		"classifier.primary.provider":        "ONEBILL_CLASSIFIER_PRIMARY_PROVIDER",
		"classifier.primary.api_key":         "ONEBILL_CLASSIFIER_PRIMARY_API_KEY",
		"classifier.primary.default_model":   "ONEBILL_CLASSIFIER_PRIMARY_DEFAULT_MODEL",
		"classifier.primary.timeout_secs":    "ONEBILL_CLASSIFIER_PRIMARY_TIMEOUT_SECS",
		"classifier.secondary.provider":      "ONEBILL_CLASSIFIER_SECONDARY_PROVIDER",
		"classifier.secondary.api_key":       "ONEBILL_CLASSIFIER_SECONDARY_API_KEY",
		"classifier.secondary.default_model": "ONEBILL_CLASSIFIER_SECONDARY_DEFAULT_MODEL",
		"classifier.secondary.timeout_secs":  "ONEBILL_CLASSIFIER_SECONDARY_TIMEOUT_SECS",
		"classifier.tertiary.provider":       "ONEBILL_CLASSIFIER_TERTIARY_PROVIDER",
		"classifier.tertiary.api_key":        "ONEBILL_CLASSIFIER_TERTIARY_API_KEY",
		"classifier.tertiary.default_model":  "ONEBILL_CLASSIFIER_TERTIARY_DEFAULT_MODEL",
		"classifier.tertiary.timeout_secs":   "ONEBILL_CLASSIFIER_TERTIARY_TIMEOUT_SECS",
		"queue.poll_interval_secs":           "ONEBILL_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_attempts":                 "ONEBILL_QUEUE_MAX_ATTEMPTS",
		"queue.concurrency":                  "ONEBILL_QUEUE_CONCURRENCY",
		"queue.stale_after_secs":             "ONEBILL_QUEUE_STALE_AFTER_SECS",
		"engine.max_steps":                   "ONEBILL_ENGINE_MAX_STEPS",
		"engine.http_timeout_secs":           "ONEBILL_ENGINE_HTTP_TIMEOUT_SECS",
		"integration.base_url":               "ONEBILL_INTEGRATION_BASE_URL",
		"integration.api_key":                "ONEBILL_INTEGRATION_API_KEY",
		"integration.timeout_secs":           "ONEBILL_INTEGRATION_TIMEOUT_SECS",
		"s3.region":                          "ONEBILL_S3_REGION",
		"s3.bucket":                          "ONEBILL_S3_BUCKET",
		"s3.endpoint":                        "ONEBILL_S3_ENDPOINT",
		"s3.access_key":                      "ONEBILL_S3_ACCESS_KEY",
		"s3.secret_key":                      "ONEBILL_S3_SECRET_KEY",
		"email.provider":                     "ONEBILL_EMAIL_PROVIDER",
		"email.region":                       "ONEBILL_EMAIL_REGION",
		"email.from_address":                 "ONEBILL_EMAIL_FROM_ADDRESS",
		"email.from_name":                    "ONEBILL_EMAIL_FROM_NAME",
		"webhook.timeout_secs":               "ONEBILL_WEBHOOK_TIMEOUT_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if ONEBILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("ONEBILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Classifier = ClassifierConfig{
		Primary: ClassifierProviderConfig{
			Provider:     v.GetString("classifier.primary.provider"),
			APIKey:       v.GetString("classifier.primary.api_key"),
			DefaultModel: v.GetString("classifier.primary.default_model"),
			TimeoutSecs:  v.GetInt("classifier.primary.timeout_secs"),
		},
		Secondary: ClassifierProviderConfig{
			Provider:     v.GetString("classifier.secondary.provider"),
			APIKey:       v.GetString("classifier.secondary.api_key"),
			DefaultModel: v.GetString("classifier.secondary.default_model"),
			TimeoutSecs:  v.GetInt("classifier.secondary.timeout_secs"),
		},
		Tertiary: ClassifierProviderConfig{
			Provider:     v.GetString("classifier.tertiary.provider"),
			APIKey:       v.GetString("classifier.tertiary.api_key"),
			DefaultModel: v.GetString("classifier.tertiary.default_model"),
			TimeoutSecs:  v.GetInt("classifier.tertiary.timeout_secs"),
		},
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxAttempts:      v.GetInt("queue.max_attempts"),
		Concurrency:      v.GetInt("queue.concurrency"),
		StaleAfterSecs:   v.GetInt("queue.stale_after_secs"),
	}
	cfg.Engine = EngineConfig{
		MaxSteps:        v.GetInt("engine.max_steps"),
		HTTPTimeoutSecs: v.GetInt("engine.http_timeout_secs"),
	}
	cfg.Integration = IntegrationConfig{
		BaseURL:     v.GetString("integration.base_url"),
		APIKey:      v.GetString("integration.api_key"),
		TimeoutSecs: v.GetInt("integration.timeout_secs"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}
	cfg.Webhook = WebhookConfig{
		TimeoutSecs: v.GetInt("webhook.timeout_secs"),
	}

	return cfg, nil
}
