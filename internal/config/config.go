package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `json:"server"`
	Database    DatabaseConfig    `json:"database"`
	Redis       RedisConfig       `json:"redis"`
	Storage     StorageConfig     `json:"storage"`
	Provider    ProviderConfig    `json:"provider"`
	Identity    IdentityConfig    `json:"identity"`
	Correlation CorrelationConfig `json:"correlation"`
	Log         LogConfig         `json:"log"`
	Security    SecurityConfig    `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port          int    `json:"port"`
	Environment   string `json:"environment"`
	ReadTimeout   int    `json:"read_timeout"`
	WriteTimeout  int    `json:"write_timeout"`
	IdleTimeout   int    `json:"idle_timeout"`
	MaxUploadSize int64  `json:"max_upload_size"`
}

// DatabaseConfig holds database configuration. An empty URL keeps batches and
// profiles in memory.
type DatabaseConfig struct {
	URL             string        `json:"-"`
	MaxConns        int32         `json:"max_conns"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"-"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	Disabled     bool          `json:"disabled"`
}

// StorageConfig holds object storage configuration for batch result files.
// An empty endpoint keeps result files in memory.
type StorageConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
}

// ProviderConfig holds the external balance provider configuration
type ProviderConfig struct {
	AuthURL          string        `json:"auth_url"`
	ClientID         string        `json:"client_id"`
	Username         string        `json:"username"`
	Password         string        `json:"-"`
	Audience         string        `json:"audience"`
	Scope            string        `json:"scope"`
	ConsultaURL      string        `json:"consulta_url"`
	WebhookURL       string        `json:"webhook_url"`
	AllowedProviders []string      `json:"allowed_providers"`
	HTTPTimeout      time.Duration `json:"http_timeout"`
	PollInterval     time.Duration `json:"poll_interval"`
	MaxPollAttempts  int           `json:"max_poll_attempts"`
}

// IdentityConfig holds the external identity provider configuration
type IdentityConfig struct {
	URL        string        `json:"url"`
	ServiceKey string        `json:"-"`
	Timeout    time.Duration `json:"timeout"`
}

// CorrelationConfig holds correlation store configuration
type CorrelationConfig struct {
	TTL       time.Duration `json:"ttl"`
	SweepSpec string        `json:"sweep_spec"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:          getEnvAsInt("PORT", 8080),
			Environment:   getEnv("ENVIRONMENT", "development"),
			ReadTimeout:   getEnvAsInt("READ_TIMEOUT", 30),
			WriteTimeout:  getEnvAsInt("WRITE_TIMEOUT", 60),
			IdleTimeout:   getEnvAsInt("IDLE_TIMEOUT", 60),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_MB", 10)) << 20,
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 8)),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			DialTimeout:  time.Duration(getEnvAsInt("REDIS_DIAL_TIMEOUT", 5)) * time.Second,
			ReadTimeout:  time.Duration(getEnvAsInt("REDIS_READ_TIMEOUT", 3)) * time.Second,
			WriteTimeout: time.Duration(getEnvAsInt("REDIS_WRITE_TIMEOUT", 3)) * time.Second,
			Disabled:     getEnvAsBool("REDIS_DISABLED", false),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "lotes-resultados"),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			UseSSL:    getEnvAsBool("STORAGE_USE_SSL", false),
		},
		Provider: ProviderConfig{
			AuthURL:          getEnv("V8_AUTH_URL", ""),
			ClientID:         getEnv("V8_CLIENT_ID", ""),
			Username:         getEnv("V8_USERNAME", ""),
			Password:         getEnv("V8_PASSWORD", ""),
			Audience:         getEnv("V8_AUDIENCE", ""),
			Scope:            getEnv("V8_SCOPE", ""),
			ConsultaURL:      getEnv("CONSULTA_API_URL", ""),
			WebhookURL:       getEnv("WEBHOOK_URL", ""),
			AllowedProviders: getEnvAsList("ALLOWED_PROVIDERS", []string{"bms", "qi", "cartos"}),
			HTTPTimeout:      getEnvAsDuration("PROVIDER_HTTP_TIMEOUT", 30*time.Second),
			PollInterval:     getEnvAsDuration("CONSULTA_POLL_INTERVAL", time.Second),
			MaxPollAttempts:  getEnvAsInt("CONSULTA_MAX_POLL_ATTEMPTS", 20),
		},
		Identity: IdentityConfig{
			URL:        strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			ServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			Timeout:    getEnvAsDuration("IDENTITY_TIMEOUT", 10*time.Second),
		},
		Correlation: CorrelationConfig{
			TTL:       getEnvAsDuration("CORRELATION_TTL", time.Hour),
			SweepSpec: getEnv("CORRELATION_SWEEP_SPEC", "@every 1m"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 120),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 20),
				CleanupInterval:   time.Duration(getEnvAsInt("RATE_LIMIT_CLEANUP", 60)) * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
				AllowCredentials: false,
			},
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Provider.AllowedProviders) == 0 {
		return fmt.Errorf("ALLOWED_PROVIDERS must list at least one provider")
	}
	if c.Provider.MaxPollAttempts <= 0 {
		return fmt.Errorf("CONSULTA_MAX_POLL_ATTEMPTS must be positive, got %d", c.Provider.MaxPollAttempts)
	}
	if c.Provider.PollInterval <= 0 {
		return fmt.Errorf("CONSULTA_POLL_INTERVAL must be positive")
	}
	if c.Correlation.TTL <= 0 {
		return fmt.Errorf("CORRELATION_TTL must be positive")
	}
	// an entry must outlive the poll window or late answers read as never sent
	if window := c.Provider.PollWindow(); c.Correlation.TTL < window {
		return fmt.Errorf("CORRELATION_TTL (%s) must cover the poll window of %s", c.Correlation.TTL, window)
	}
	return nil
}

// PollWindow is the longest a consultation waits for its callback
func (p ProviderConfig) PollWindow() time.Duration {
	return p.PollInterval * time.Duration(p.MaxPollAttempts)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
