package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Runtime environment: "development" or "production"
	Env string `mapstructure:"env"`

	// Optional HTTP settings
	HTTPHost string `mapstructure:"http_host"`
	HTTPPort int    `mapstructure:"http_port"`
	BaseURL  string `mapstructure:"base_url"`

	// Optional SSL settings
	SSLCert string `mapstructure:"ssl_cert"`
	SSLKey  string `mapstructure:"ssl_key"`

	// Database settings
	DatabaseDriver string `mapstructure:"database_driver"` // "sqlite" or "pgx"
	DatabaseDSN    string `mapstructure:"database_dsn"`

	// Cookie signing key, required in production
	SecretKey string `mapstructure:"secret_key"`

	RememberCookieDuration time.Duration `mapstructure:"remember_cookie_duration"`
	ResetTokenTTL          time.Duration `mapstructure:"reset_token_ttl"`

	// Optional logging settings
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	ConfigPath string
}

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	DefaultConfigPath             = "config.yml"
	DefaultEnvFile                = ".env"
	DefaultHTTPHost               = "0.0.0.0"
	DefaultHTTPPort               = 5000
	DefaultBaseURL                = "http://localhost:5000"
	DefaultDatabaseDriver         = DriverSQLite
	DefaultDatabaseDSN            = "app.db"
	DefaultDevSecretKey           = "dev-secret-key-change-in-production"
	DefaultRememberCookieDuration = 24 * time.Hour
	DefaultResetTokenTTL          = time.Hour
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
)

// Load reads .env, the YAML config file (optional) and WEBSITE_* environment
// variables, in increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFile, err)
	}

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("http_host", DefaultHTTPHost)
	v.SetDefault("http_port", DefaultHTTPPort)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("database_driver", DefaultDatabaseDriver)
	v.SetDefault("database_dsn", DefaultDatabaseDSN)
	v.SetDefault("secret_key", "")
	v.SetDefault("ssl_cert", "")
	v.SetDefault("ssl_key", "")
	v.SetDefault("remember_cookie_duration", DefaultRememberCookieDuration)
	v.SetDefault("reset_token_ttl", DefaultResetTokenTTL)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)

	// Allow environment variable overrides
	v.SetEnvPrefix("WEBSITE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// The file is optional unless it was asked for explicitly
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigPath = configPath

	if cfg.SecretKey == "" && !cfg.IsProduction() {
		cfg.SecretKey = DefaultDevSecretKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("env must be '%s' or '%s'", EnvDevelopment, EnvProduction)
	}

	if c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres {
		return fmt.Errorf("database_driver must be '%s' or '%s'", DriverSQLite, DriverPostgres)
	}

	if c.DatabaseDSN == "" {
		return fmt.Errorf("database_dsn is required")
	}

	if c.SecretKey == "" {
		return fmt.Errorf("secret_key is required")
	}

	if c.IsProduction() && c.SecretKey == DefaultDevSecretKey {
		return fmt.Errorf("secret_key must be changed in production")
	}

	if c.RememberCookieDuration <= 0 {
		return fmt.Errorf("remember_cookie_duration must be positive")
	}

	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("reset_token_ttl must be positive")
	}

	// Validate SSL config if provided
	if c.SSLCert != "" || c.SSLKey != "" {
		if c.SSLCert == "" || c.SSLKey == "" {
			return fmt.Errorf("both ssl_cert and ssl_key must be provided")
		}
		if _, err := os.Stat(c.SSLCert); os.IsNotExist(err) {
			return fmt.Errorf("ssl_cert file does not exist: %s", c.SSLCert)
		}
		if _, err := os.Stat(c.SSLKey); os.IsNotExist(err) {
			return fmt.Errorf("ssl_key file does not exist: %s", c.SSLKey)
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// SecureCookies reports whether cookies must only travel over HTTPS.
func (c *Config) SecureCookies() bool {
	return c.IsProduction()
}
