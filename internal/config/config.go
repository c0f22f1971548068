package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application settings.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Email        EmailConfig
	Verification VerificationConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig holds the PostgreSQL connection settings. Postgres backs
// only the ticket-order records; leave Host empty to run without it.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the unified Redis connection settings.
// Supported modes: single, sentinel, cluster. Leave both Addr and Addrs
// empty to run with the in-memory verification store (single instance only).
type RedisConfig struct {
	// Mode: "single", "sentinel" or "cluster". Defaults to "single".
	Mode string `mapstructure:"mode"`

	// Addrs: list of host:port addresses, used by all modes. For "single"
	// the first address wins when non-empty.
	Addrs []string `mapstructure:"addrs"`

	// Addr: alternative single address for "single" mode.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Redis master name, "sentinel" mode only.
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: reconnect attempts (-1 for unlimited). Default 0.
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff / MaxRetryBackoff in milliseconds.
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// EmailConfig selects and configures the email provider.
type EmailConfig struct {
	// Provider: "resend" or "noop".
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
}

// VerificationConfig holds the code TTL policies per flow and the sweep
// interval for abandoned in-memory entries.
type VerificationConfig struct {
	RegistrationTTL  time.Duration `mapstructure:"registration_ttl"`
	PasswordResetTTL time.Duration `mapstructure:"password_reset_ttl"`
	ReaperInterval   time.Duration `mapstructure:"reaper_interval"`
}

// PostgresConnectionString builds the PostgreSQL DSN.
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Enabled reports whether Postgres is configured at all.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// Enabled reports whether Redis is configured at all.
func (r *RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// Load reads the configuration from a file merged with environment
// variables. A missing file is not fatal: every setting is reachable
// through the explicit env bindings below.
func Load(configPath string) (*Config, error) {
	vip := viper.New() // fresh instance, no global viper state

	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 15)
	vip.SetDefault("server.writetimeout", 15)
	vip.SetDefault("email.provider", "noop")
	vip.SetDefault("verification.registration_ttl", 15*time.Minute)
	vip.SetDefault("verification.password_reset_ttl", 1*time.Minute)
	vip.SetDefault("verification.reaper_interval", 10*time.Minute)

	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("email.provider", "EMAIL_PROVIDER")
	vip.BindEnv("email.api_key", "EMAIL_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")

	vip.BindEnv("verification.registration_ttl", "VERIFICATION_REGISTRATION_TTL")
	vip.BindEnv("verification.password_reset_ttl", "VERIFICATION_PASSWORD_RESET_TTL")
	vip.BindEnv("verification.reaper_interval", "VERIFICATION_REAPER_INTERVAL")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Config file '%s' not found, relying on environment variables and defaults.", configPath)
			} else {
				log.Printf("Warning: could not read config file '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Email.Provider == "resend" {
		if cfg.Email.APIKey == "" {
			return nil, fmt.Errorf("email api key is required for the resend provider (check EMAIL_API_KEY env var)")
		}
		if cfg.Email.From == "" {
			return nil, fmt.Errorf("email from address is required for the resend provider (check EMAIL_FROM env var)")
		}
	}
	if cfg.Database.Enabled() {
		if cfg.Database.DBName == "" || cfg.Database.User == "" {
			return nil, fmt.Errorf("database configuration (dbname, user) is incomplete (check DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	}

	return &cfg, nil
}
