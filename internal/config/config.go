package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig
	App        AppConfig
	Cache      CacheConfig
	Database   DatabaseConfig
	ProductDB  ProductDBConfig
	OAuth      OAuthConfig
	Resilience ResilienceConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"storefront-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// CacheConfig holds Redis and cache TTL settings.
type CacheConfig struct {
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	KeyPrefix  string        `envconfig:"CACHE_KEY_PREFIX" default:"storefront"`
	ListTTL    time.Duration `envconfig:"CACHE_LIST_TTL" default:"60s"`
	ProductTTL time.Duration `envconfig:"CACHE_PRODUCT_TTL" default:"5m"`
}

// DatabaseConfig holds MySQL connection settings (production product store).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"storefront"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// ProductDBConfig selects and configures the product database backend.
type ProductDBConfig struct {
	Type string `envconfig:"PRODUCT_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	Path string `envconfig:"PRODUCT_DB_PATH" default:"./data/products.db"`
	// PostgreSQL settings
	Host     string `envconfig:"PRODUCT_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"PRODUCT_DB_PORT" default:"5432"`
	Name     string `envconfig:"PRODUCT_DB_NAME" default:"storefront"`
	User     string `envconfig:"PRODUCT_DB_USER" default:"postgres"`
	Password string `envconfig:"PRODUCT_DB_PASS" default:""`
	SSLMode  string `envconfig:"PRODUCT_DB_SSLMODE" default:"disable"`
}

// OAuthConfig holds the shared-credential refresh settings.
type OAuthConfig struct {
	TokenURL     string        `envconfig:"OAUTH_TOKEN_URL" default:""`
	ClientID     string        `envconfig:"OAUTH_CLIENT_ID" default:""`
	ClientSecret string        `envconfig:"OAUTH_CLIENT_SECRET" default:""`
	SafetyBuffer time.Duration `envconfig:"OAUTH_SAFETY_BUFFER" default:"60s"`
	LockTTL      time.Duration `envconfig:"OAUTH_LOCK_TTL" default:"10s"`
	LockWait     time.Duration `envconfig:"OAUTH_LOCK_WAIT" default:"100ms"`
	LockAttempts int           `envconfig:"OAUTH_LOCK_ATTEMPTS" default:"50"`
	RefreshAhead time.Duration `envconfig:"OAUTH_REFRESH_AHEAD_INTERVAL" default:"30s"`
}

// ResilienceConfig holds circuit breaker and retry settings for outbound calls.
type ResilienceConfig struct {
	BreakerThreshold int           `envconfig:"BREAKER_FAILURE_THRESHOLD" default:"5"`
	BreakerReset     time.Duration `envconfig:"BREAKER_RESET_TIMEOUT" default:"30s"`
	RetryMaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" default:"200ms"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (p *ProductDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
