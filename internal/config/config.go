package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const devSecret = "dev-secret-change-in-production-min-32-chars"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Output   OutputConfig   `mapstructure:"output"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Header   HeaderConfig   `mapstructure:"header"`
}

type ServerConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DefaultFormat   string        `mapstructure:"default_format"`
}

// OutputConfig controls the optional fields of the JSON flavor.
type OutputConfig struct {
	CategoryOutput   bool `mapstructure:"category_output"`
	InstanceIDOutput bool `mapstructure:"instance_id_output"`
	Indent           bool `mapstructure:"indent"`
}

type CatalogConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

// DatabaseConfig is optional; without a host the agent keeps current values
// in memory.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type AuthConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	JWTSecretEnv   string        `mapstructure:"jwt_secret_env"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type HeaderConfig struct {
	Sender     string `mapstructure:"sender"`
	Version    string `mapstructure:"version"`
	BufferSize uint64 `mapstructure:"buffer_size"`
}

// Load reads the YAML file at path. An empty path uses defaults and
// environment variables only. Variables use the MTC_ prefix with dots
// replaced by underscores, e.g. MTC_SERVER_HTTP_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.default_format", "JSON")

	v.SetDefault("output.category_output", false)
	v.SetDefault("output.instance_id_output", false)
	v.SetDefault("output.indent", false)

	v.SetDefault("catalog.search_paths", []string{})

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "mtconnect")
	v.SetDefault("database.user", "mtconnect")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	v.SetDefault("auth.issuer", "mtconnect-core")
	v.SetDefault("auth.access_token_ttl", "60m")

	v.SetDefault("header.sender", "mtconnect-core")
	v.SetDefault("header.version", "2.3")
	v.SetDefault("header.buffer_size", 131072)

	v.SetEnvPrefix("MTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// GetJWTSecret reads the signing secret from the configured environment
// variable, falling back to a development secret.
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET"
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		return devSecret
	}
	return secret
}

func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != devSecret && len(secret) >= 32
}
