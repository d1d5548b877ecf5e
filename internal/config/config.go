// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database      DatabaseConfig
	Redis         RedisConfig
	Server        ServerConfig
	Logging       LoggingConfig
	CORS          CORSConfig
	JWT           JWTConfig
	SMTP          SMTPConfig
	Media         MediaConfig
	Speech        SpeechConfig
	Polish        PolishConfig
	Session       SessionConfig
	RateLimit     RateLimitConfig
	PasswordReset PasswordResetConfig
	APIKey        string
	// BinRetention is the age after which soft-deleted stories are purged automatically, 0 disables it
	BinRetention time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the Redis address in host:port form
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MediaConfig holds media storage settings
type MediaConfig struct {
	BasePath string
	BaseURL  string
}

// SpeechConfig holds Speech-to-Text settings
type SpeechConfig struct {
	APIKey   string
	Endpoint string
	Model    string
}

// PolishConfig holds generative text settings
type PolishConfig struct {
	APIKey   string
	Endpoint string
	Model    string
}

// SessionConfig holds anonymous session cookie settings
type SessionConfig struct {
	Secret string
	Secure bool
}

// RateLimitConfig holds settings of the sensitive endpoints limiter
type RateLimitConfig struct {
	// Backend is either "memory" or "redis"
	Backend string
	Limit   int
	Window  time.Duration
}

// PasswordResetConfig holds password reset settings
type PasswordResetConfig struct {
	TTL     time.Duration
	LinkURL string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}

	// Database configuration
	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.Secret = jwtSecret

	if cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshTokenExpiry, err = durationEnv("JWT_REFRESH_TOKEN_EXPIRY", 168*time.Hour); err != nil {
		return nil, err
	}

	cfg.APIKey = os.Getenv("API_KEY")

	// Redis configuration (task queue and shared rate limiting)
	cfg.Redis.Host = stringEnv("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// SMTP configuration (worker)
	cfg.SMTP.Host = stringEnv("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = stringEnv("SMTP_FROM", "noreply@storykeeper.app")

	// Media storage
	cfg.Media.BasePath = stringEnv("MEDIA_BASE_PATH", "./media")
	cfg.Media.BaseURL = stringEnv("MEDIA_BASE_URL", "/media")

	// External collaborators
	cfg.Speech.APIKey = os.Getenv("GOOGLE_API_KEY")
	cfg.Speech.Endpoint = os.Getenv("SPEECH_ENDPOINT")
	cfg.Speech.Model = stringEnv("SPEECH_MODEL", "latest_long")

	cfg.Polish.APIKey = stringEnv("GEMINI_API_KEY", cfg.Speech.APIKey)
	cfg.Polish.Endpoint = stringEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta")
	cfg.Polish.Model = stringEnv("GEMINI_MODEL", "gemini-2.5-flash")

	// Sessions
	cfg.Session.Secret = stringEnv("SESSION_SECRET", jwtSecret)
	cfg.Session.Secure = os.Getenv("SESSION_SECURE") == "true"

	// Rate limiting
	cfg.RateLimit.Backend = stringEnv("RATE_LIMIT_BACKEND", "memory")
	if cfg.RateLimit.Backend != "memory" && cfg.RateLimit.Backend != "redis" {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BACKEND: %s", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.Limit, err = intEnv("RATE_LIMIT_REQUESTS", 5); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = durationEnv("RATE_LIMIT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}

	// Password reset
	if cfg.PasswordReset.TTL, err = durationEnv("PASSWORD_RESET_TTL", time.Hour); err != nil {
		return nil, err
	}
	cfg.PasswordReset.LinkURL = stringEnv("PASSWORD_RESET_URL", "http://localhost:8080/reset-password")

	if cfg.BinRetention, err = durationEnv("BIN_RETENTION", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDatabase fills the required database settings
func loadDatabase(cfg *Config) error {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	dbPassword := os.Getenv("DB_PASSWORD")
	if dbPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.Database.Password = dbPassword

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

// parseOrigins parses comma-separated origins, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		return []string{"*"}
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}
