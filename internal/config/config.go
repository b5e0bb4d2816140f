package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Signature    SignatureConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
	Documents    DocumentsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds staff token configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// SignatureConfig holds signature lifecycle settings
type SignatureConfig struct {
	ExpiryWindow time.Duration
}

// RatePolicy allows Limit requests per Window
type RatePolicy struct {
	Limit  int
	Window time.Duration
}

func (p RatePolicy) String() string {
	return fmt.Sprintf("%d/%s", p.Limit, p.Window)
}

// RateLimitConfig holds abuse guard settings
type RateLimitConfig struct {
	Backend string // memory | redis
	Sign    RatePolicy
	Status  RatePolicy
	Consent RatePolicy
}

// NotificationConfig holds outbound notification settings
type NotificationConfig struct {
	Mode       string // log | webhook
	WebhookURL string
	Timeout    time.Duration
	PortalURL  string
}

// DocumentsConfig holds document access settings
type DocumentsConfig struct {
	FetchTimeout  time.Duration
	MaxBytes      int64
	ArtifactDir   string
	PublicBaseURL string
}

var fileConfig *viper.Viper

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "esign"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		},
		Signature: SignatureConfig{
			ExpiryWindow: getEnvAsDuration("SIGNATURE_EXPIRY_WINDOW", 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Backend: strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory")),
			Sign:    getEnvAsRatePolicy("RATE_LIMIT_SIGN", RatePolicy{Limit: 5, Window: 5 * time.Minute}),
			Status:  getEnvAsRatePolicy("RATE_LIMIT_STATUS", RatePolicy{Limit: 30, Window: time.Minute}),
			Consent: getEnvAsRatePolicy("RATE_LIMIT_CONSENT", RatePolicy{Limit: 10, Window: 5 * time.Minute}),
		},
		Notification: NotificationConfig{
			Mode:       strings.ToLower(getEnv("NOTIFICATION_MODE", "log")),
			WebhookURL: getEnv("NOTIFICATION_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("NOTIFICATION_TIMEOUT", 10*time.Second),
			PortalURL:  getEnv("SIGNING_PORTAL_URL", "http://localhost:3000/sign"),
		},
		Documents: DocumentsConfig{
			FetchTimeout:  getEnvAsDuration("DOCUMENT_FETCH_TIMEOUT", 15*time.Second),
			MaxBytes:      int64(getEnvAsInt("DOCUMENT_MAX_BYTES", 25<<20)),
			ArtifactDir:   getEnv("ARTIFACT_DIR", ""),
			PublicBaseURL: getEnv("ARTIFACT_PUBLIC_BASE_URL", ""),
		},
	}
}

// LoadFile layers a YAML config file underneath the environment.
// Keys in the file use the environment variable names, e.g. server_port.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	fileConfig = v
	defer func() { fileConfig = nil }()
	return Load(), nil
}

func lookup(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if fileConfig != nil {
		return fileConfig.GetString(strings.ToLower(key))
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := lookup(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := lookup(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := lookup(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsRatePolicy(key string, defaultValue RatePolicy) RatePolicy {
	if value := lookup(key); value != "" {
		if policy, err := ParseRatePolicy(value); err == nil {
			return policy
		}
	}
	return defaultValue
}

// ParseRatePolicy parses "<limit>/<window>", e.g. "5/5m".
func ParseRatePolicy(value string) (RatePolicy, error) {
	limitStr, windowStr, ok := strings.Cut(strings.TrimSpace(value), "/")
	if !ok {
		return RatePolicy{}, fmt.Errorf("rate policy %q: expected <limit>/<window>", value)
	}
	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil || limit <= 0 {
		return RatePolicy{}, fmt.Errorf("rate policy %q: invalid limit", value)
	}
	window, err := time.ParseDuration(strings.TrimSpace(windowStr))
	if err != nil || window <= 0 {
		return RatePolicy{}, fmt.Errorf("rate policy %q: invalid window", value)
	}
	return RatePolicy{Limit: limit, Window: window}, nil
}
