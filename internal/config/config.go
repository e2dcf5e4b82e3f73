package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration shared by the API server,
// the cron runner and the terminal client.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Health    HealthConfig    `yaml:"health"`
	Client    ClientConfig    `yaml:"client"`
}

// ServerConfig contains HTTP API server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

// StorageConfig selects the record store and configures image uploads
type StorageConfig struct {
	Backend      string   `yaml:"backend"`    // "memory" or "postgres"
	UploadDir    string   `yaml:"upload_dir"` // local directory for item images
	MaxFileSize  int64    `yaml:"max_file_size_mb"`
	AllowedTypes []string `yaml:"allowed_types"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// EmailConfig configures outbound rental emails. Empty API key disables sending.
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

// RateLimitConfig configures the Redis token bucket in front of the login endpoint
type RateLimitConfig struct {
	Enabled        bool          `yaml:"enabled"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisPassword  string        `yaml:"redis_password"`
	RedisDB        int           `yaml:"redis_db"`
	Capacity       int           `yaml:"capacity"`
	RefillTokens   int           `yaml:"refill_tokens"`
	RefillInterval time.Duration `yaml:"refill_interval"`
	TTL            time.Duration `yaml:"ttl"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	// Embedded runs the scheduler inside the API server process.
	Embedded        bool   `yaml:"embedded"`
	StartDueRentals string `yaml:"start_due_rentals"`
}

// HealthConfig contains the gRPC health endpoint settings. Port 0 disables it.
type HealthConfig struct {
	Port         int           `yaml:"port"`
	PingInterval time.Duration `yaml:"ping_interval"`
}

// ClientConfig contains terminal client settings
type ClientConfig struct {
	APIURL    string        `yaml:"api_url"`
	StateFile string        `yaml:"state_file"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Load reads configuration from a YAML file and validates it for the server
func Load(configPath string) (*Config, error) {
	cfg, err := read(configPath, false)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadClient reads configuration for the terminal client. A missing file is
// not an error; the client runs on environment and defaults alone.
func LoadClient(configPath string) (*Config, error) {
	cfg, err := read(configPath, true)
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateClient(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	return cfg, nil
}

func read(configPath string, optional bool) (*Config, error) {
	// .env is a convenience for local runs; absence is fine
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case optional && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.overrideWithEnv()
	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Storage
	if val := os.Getenv("STORAGE_BACKEND"); val != "" {
		c.Storage.Backend = val
	}
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}

	// Rate limiting
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.RateLimit.RedisAddr = val
	}

	// Client
	if val := os.Getenv("RENTOO_API_URL"); val != "" {
		c.Client.APIURL = val
	}
	if val := os.Getenv("RENTOO_STATE_FILE"); val != "" {
		c.Client.StateFile = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the server configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 30
	}
	if c.JWT.RefreshTokenExpiry == 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("upload directory is required")
	}
	if c.Storage.MaxFileSize == 0 {
		c.Storage.MaxFileSize = 10
	}
	if len(c.Storage.AllowedTypes) == 0 {
		c.Storage.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RedisAddr == "" {
			return fmt.Errorf("redis address is required when rate limiting is enabled")
		}
		if c.RateLimit.Capacity <= 0 {
			c.RateLimit.Capacity = 10
		}
		if c.RateLimit.RefillTokens <= 0 {
			c.RateLimit.RefillTokens = 1
		}
		if c.RateLimit.RefillInterval <= 0 {
			c.RateLimit.RefillInterval = 6 * time.Second
		}
		if c.RateLimit.TTL <= 0 {
			c.RateLimit.TTL = 10 * time.Minute
		}
	}

	if c.Scheduler.StartDueRentals == "" {
		c.Scheduler.StartDueRentals = "0 */15 * * * *" // every 15 minutes
	}

	if c.Health.Port < 0 || c.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", c.Health.Port)
	}
	if c.Health.PingInterval <= 0 {
		c.Health.PingInterval = 15 * time.Second
	}

	if c.Email.From == "" {
		c.Email.From = "noreply@rentoo.local"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Rentoo"
	}

	return nil
}

// ValidateClient checks the terminal client settings and fills defaults
func (c *Config) ValidateClient() error {
	if c.Client.APIURL == "" {
		c.Client.APIURL = "http://localhost:8000"
	}
	if c.Client.StateFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot resolve state file location: %w", err)
		}
		c.Client.StateFile = filepath.Join(home, ".rentoo", "state.db")
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = 30 * time.Second
	}
	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHealthAddress returns the gRPC health server address
func (c *Config) GetHealthAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Health.Port)
}

// AccessTokenTTL returns the access token lifetime
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiry) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTokenExpiry) * time.Minute
}

// MaxUploadBytes returns the image upload limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxFileSize * 1024 * 1024
}
