package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Addr               string        `yaml:"addr"`
	Environment        string        `yaml:"environment"`
	StorageDriver      string        `yaml:"storage_driver"`
	DatabaseURL        string        `yaml:"database_url"`
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	DataEncryptionKey  string        `yaml:"data_encryption_key"`
	SeedAdminEmail     string        `yaml:"seed_admin_email"`
	SeedAdminUsername  string        `yaml:"seed_admin_username"`
	SeedAdminPassword  string        `yaml:"seed_admin_password"`
	RunMigrations      bool          `yaml:"run_migrations"`
	RunSeed            bool          `yaml:"run_seed"`
	EmailFrom          string        `yaml:"email_from"`
	EmailEnabled       bool          `yaml:"email_enabled"`
	EmailRatePerSecond float64       `yaml:"email_rate_per_second"`
	SMTPHost           string        `yaml:"smtp_host"`
	SMTPPort           int           `yaml:"smtp_port"`
	SMTPUser           string        `yaml:"smtp_user"`
	SMTPPassword       string        `yaml:"smtp_password"`
	SMTPUseTLS         bool          `yaml:"smtp_use_tls"`
	SMTPTimeout        time.Duration `yaml:"smtp_timeout"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	NotifyQueueSize    int           `yaml:"notify_queue_size"`
	NotifyTimeout      time.Duration `yaml:"notify_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	MetricsEnabled     bool          `yaml:"metrics_enabled"`
	LogLevel           string        `yaml:"log_level"`
	LogFormat          string        `yaml:"log_format"`
}

func Defaults() Config {
	return Config{
		Addr:               ":8080",
		Environment:        "development",
		StorageDriver:      StoragePostgres,
		TokenTTL:           8 * time.Hour,
		SeedAdminUsername:  "hradmin",
		RunMigrations:      true,
		RunSeed:            true,
		EmailFrom:          "no-reply@example.com",
		EmailRatePerSecond: 5,
		SMTPPort:           587,
		SMTPUseTLS:         true,
		SMTPTimeout:        15 * time.Second,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 60,
		NotifyQueueSize:    128,
		NotifyTimeout:      30 * time.Second,
		ShutdownTimeout:    15 * time.Second,
		MetricsEnabled:     true,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by CONFIG_FILE, then environment variables, in that order of precedence.
func Load() (Config, error) {
	base := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fromFile, err := LoadFile(path, base)
		if err != nil {
			return Config{}, err
		}
		base = fromFile
	}
	return fromEnv(base), nil
}

func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing YAML: %w", err)
	}
	return cfg, nil
}

func fromEnv(base Config) Config {
	return Config{
		Addr:               getEnv("APP_ADDR", base.Addr),
		Environment:        getEnv("APP_ENV", base.Environment),
		StorageDriver:      strings.ToLower(getEnv("STORAGE_DRIVER", base.StorageDriver)),
		DatabaseURL:        getEnv("DATABASE_URL", base.DatabaseURL),
		JWTSecret:          getEnv("JWT_SECRET", base.JWTSecret),
		TokenTTL:           getEnvDuration("TOKEN_TTL", base.TokenTTL),
		DataEncryptionKey:  getEnv("DATA_ENCRYPTION_KEY", base.DataEncryptionKey),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", base.SeedAdminEmail),
		SeedAdminUsername:  getEnv("SEED_ADMIN_USERNAME", base.SeedAdminUsername),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", base.SeedAdminPassword),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", base.RunMigrations),
		RunSeed:            getEnvBool("RUN_SEED", base.RunSeed),
		EmailFrom:          getEnv("EMAIL_FROM", base.EmailFrom),
		EmailEnabled:       getEnvBool("EMAIL_ENABLED", base.EmailEnabled),
		EmailRatePerSecond: getEnvFloat("EMAIL_RATE_PER_SECOND", base.EmailRatePerSecond),
		SMTPHost:           getEnv("SMTP_HOST", base.SMTPHost),
		SMTPPort:           getEnvInt("SMTP_PORT", base.SMTPPort),
		SMTPUser:           getEnv("SMTP_USER", base.SMTPUser),
		SMTPPassword:       getEnv("SMTP_PASSWORD", base.SMTPPassword),
		SMTPUseTLS:         getEnvBool("SMTP_USE_TLS", base.SMTPUseTLS),
		SMTPTimeout:        getEnvDuration("SMTP_TIMEOUT", base.SMTPTimeout),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", int(base.MaxBodyBytes))),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", base.RateLimitPerMinute),
		NotifyQueueSize:    getEnvInt("NOTIFY_QUEUE_SIZE", base.NotifyQueueSize),
		NotifyTimeout:      getEnvDuration("NOTIFY_TIMEOUT", base.NotifyTimeout),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", base.ShutdownTimeout),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", base.MetricsEnabled),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", base.LogLevel)),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", base.LogFormat)),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StorageMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORAGE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q", StoragePostgres, StorageMemory)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.NotifyTimeout <= 0 || c.SMTPTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT and SMTP_TIMEOUT must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
