package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// HTTP Server
	Port        string
	GinMode     string
	CORSOrigins []string

	// Storage
	DataBackend string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Sessions
	RedisAddr  string
	JWTSecret  string
	SessionTTL time.Duration

	// Invoicing
	TaxRate                     decimal.Decimal
	PerformanceIncludeDirectors bool

	// Director account created at startup when both are set
	DirectorEmail    string
	DirectorPassword string
	DirectorName     string

	LogLevel slog.Level
}

// Load reads configs/.env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load("configs/.env"); err != nil {
		slog.Debug("no configs/.env file loaded", "error", err)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),

		DataBackend: getEnv("DATA_BACKEND", BackendPostgres),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "postgres"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		RedisAddr:  getEnv("REDIS_ADDR", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),

		TaxRate:                     getEnvDecimal("TAX_RATE", decimal.RequireFromString("0.10")),
		PerformanceIncludeDirectors: getEnvBool("PERFORMANCE_INCLUDE_DIRECTORS", false),

		DirectorEmail:    getEnv("DIRECTOR_EMAIL", ""),
		DirectorPassword: getEnv("DIRECTOR_PASSWORD", ""),
		DirectorName:     getEnv("DIRECTOR_NAME", "Director"),

		LogLevel: getEnvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

// Secret returns the JWT signing key, falling back to a development key outside release mode.
func (c *Config) Secret() []byte {
	if c.JWTSecret == "" && !c.IsRelease() {
		return []byte("default_super_secret_key") // Development fallback only
	}
	return []byte(c.JWTSecret)
}

// Validate validates the configuration and returns every problem found
func (c *Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendPostgres:
		if c.DBHost == "" || c.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("invalid data backend '%s': must be one of [%s %s]", c.DataBackend, BackendPostgres, BackendMemory))
	}

	if c.IsRelease() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in release mode"))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("invalid session TTL %s: must be positive", c.SessionTTL))
	}

	if c.TaxRate.IsNegative() || c.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("invalid tax rate %s: must be in [0, 1)", c.TaxRate))
	}

	if (c.DirectorEmail == "") != (c.DirectorPassword == "") {
		errs = append(errs, errors.New("DIRECTOR_EMAIL and DIRECTOR_PASSWORD must be set together"))
	}
	if c.DirectorPassword != "" && len(c.DirectorPassword) < 8 {
		errs = append(errs, errors.New("DIRECTOR_PASSWORD must be at least 8 characters"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvLevel(key string, def slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(os.Getenv(key))); err != nil {
		return def
	}
	return lvl
}
