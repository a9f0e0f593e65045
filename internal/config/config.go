package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Development bool
}

// AuthConfig defines token, lockout and hashing parameters.
type AuthConfig struct {
	PrivateKeyPEM          string
	PublicKeyPEM           string
	Algorithm              string
	Issuer                 string
	TokenVersion           int
	EncryptionKey          string
	TokenTTLMinutes        int
	SameIPTokenTTLMinutes  int
	MaxLoginAttempts       int
	AccountBlockHours      int
	BcryptCost             int
	LoginRateLimit         int
	LoginRateWindowSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tokenVersion, err := strconv.Atoi(getEnv("AUTH_TOKEN_VERSION", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_VERSION: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "auth-service"),
			Env:                   getEnv("APP_ENV", "dev"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			PrivateKeyPEM:          pemFromEnv("AUTH_JWT_PRIVATE_KEY"),
			PublicKeyPEM:           pemFromEnv("AUTH_JWT_PUBLIC_KEY"),
			Algorithm:              getEnv("AUTH_JWT_ALGORITHM", "ES512"),
			Issuer:                 getEnv("AUTH_ISSUER", "auth-service"),
			TokenVersion:           tokenVersion,
			EncryptionKey:          os.Getenv("AUTH_ENCRYPTION_KEY"),
			TokenTTLMinutes:        getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 1),
			SameIPTokenTTLMinutes:  getEnvAsInt("AUTH_SAME_IP_TOKEN_TTL_MINUTES", 60),
			MaxLoginAttempts:       getEnvAsInt("AUTH_MAX_LOGIN_ATTEMPTS", 3),
			AccountBlockHours:      getEnvAsInt("AUTH_ACCOUNT_BLOCK_HOURS", 1),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginRateLimit:         getEnvAsInt("AUTH_LOGIN_RATE_LIMIT", 10),
			LoginRateWindowSeconds: getEnvAsInt("AUTH_LOGIN_RATE_WINDOW_SECONDS", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot safely start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.TokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Auth.SameIPTokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_SAME_IP_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("AUTH_MAX_LOGIN_ATTEMPTS must be positive"))
	}
	if c.App.IsProd() {
		if c.Auth.PrivateKeyPEM == "" || c.Auth.PublicKeyPEM == "" {
			errs = append(errs, errors.New("AUTH_JWT_PRIVATE_KEY and AUTH_JWT_PUBLIC_KEY must be set in prod"))
		}
		if c.Auth.EncryptionKey == "" {
			errs = append(errs, errors.New("AUTH_ENCRYPTION_KEY must be set in prod"))
		}
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProd reports whether the service runs in production.
func (a AppConfig) IsProd() bool {
	env := strings.ToLower(a.Env)
	return env == "prod" || env == "production"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL is the general (any IP) expiry window for WEB tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// SameIPTokenTTL is the expiry window for WEB tokens used from the issuing IP.
func (a AuthConfig) SameIPTokenTTL() time.Duration {
	return time.Duration(a.SameIPTokenTTLMinutes) * time.Minute
}

// AccountBlockDuration is how long an account stays locked after too many failures.
func (a AuthConfig) AccountBlockDuration() time.Duration {
	return time.Duration(a.AccountBlockHours) * time.Hour
}

// LoginRateWindow is the fixed window used by the per-IP login throttle.
func (a AuthConfig) LoginRateWindow() time.Duration {
	return time.Duration(a.LoginRateWindowSeconds) * time.Second
}

// pemFromEnv allows PEM blocks to be passed on a single line with literal \n.
func pemFromEnv(key string) string {
	return strings.ReplaceAll(os.Getenv(key), `\n`, "\n")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
