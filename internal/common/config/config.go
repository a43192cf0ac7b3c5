// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Matching MatchingConfig `mapstructure:"matching"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	Talents  TalentsConfig  `mapstructure:"talents"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig holds settings for the session and draft stores.
type SessionConfig struct {
	Namespace string `mapstructure:"namespace"`
	TTL       int    `mapstructure:"ttl"`       // seconds, ephemeral session keys
	DraftTTL  int    `mapstructure:"draft_ttl"` // seconds, wizard drafts
}

// MatchingConfig holds settings for the scoring service client.
type MatchingConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// TrackingConfig holds settings for the click-correlation client.
type TrackingConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// TalentsConfig holds settings for the talent detail lookup client.
type TalentsConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// NotifyConfig holds settings for the host notifier. Channel selects the
// messenger implementation; an empty ParentURL with the webhook channel
// means the app is not embedded.
type NotifyConfig struct {
	Channel      string `mapstructure:"channel"` // "webhook" or "sns"
	ParentURL    string `mapstructure:"parent_url"`
	TopicARN     string `mapstructure:"topic_arn"`
	AWSRegion    string `mapstructure:"aws_region"`
	ResetTimeout int    `mapstructure:"reset_timeout"` // milliseconds
	FallbackURL  string `mapstructure:"fallback_url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
