package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "TodoList"
	defaultAppEnv          = "development"
	defaultPort            = "5000"
	defaultLogLevel        = "info"
	defaultMongoDatabase   = "todolist"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultAccessTokenTTL  = 24 * time.Hour
	defaultRefreshTokenTTL = 24 * time.Hour
	defaultOTPTTL          = 10 * time.Minute
	defaultRefreshPath     = "/service/user/refresh_token"
	defaultLoginRateLimit  = 5
	defaultSMTPPort        = 587
	defaultCORSOrigins     = "http://localhost:5173"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	accessTTLEnvVar        = "ACCESS_TOKEN_TTL"
	refreshTTLEnvVar       = "REFRESH_TOKEN_TTL"
	otpTTLEnvVar           = "OTP_TTL"
	loginRateLimitEnvVar   = "LOGIN_RATE_LIMIT"
	smtpPortEnvVar         = "SMTP_PORT"
	StoreMemory            = "memory"
	StorePostgres          = "postgres"
	StoreMongo             = "mongo"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	StoreDriver    string
	DatabaseURL    string
	MongoURL       string
	MongoDatabase  string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
	LoginRateLimit int
	CORSOrigins    string // comma separated
	Auth           AuthConfig
	Mail           MailConfig
	Admin          AdminConfig
}

// AdminConfig names an admin account ensured at startup. Empty Email skips it.
type AdminConfig struct {
	Email    string
	Password string
}

// AuthConfig holds token signing and OTP settings.
type AuthConfig struct {
	AccessSecret      string
	RefreshSecret     string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	RefreshCookiePath string
	OTPTTL            time.Duration
}

// MailConfig describes the SMTP relay used for OTP delivery. An empty Host
// means mail is written to the log instead.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Load reads configuration values from the environment and populates a Config instance.
// In development a .env file in the working directory is honoured.
func Load() (Config, error) {
	if IsDev(getEnv("APP_ENV", defaultAppEnv)) {
		_ = godotenv.Load()
	}

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		StoreDriver:    strings.ToLower(os.Getenv("STORE_DRIVER")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MongoURL:       os.Getenv("MONGO_URL"),
		MongoDatabase:  getEnv("MONGO_DATABASE", defaultMongoDatabase),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
		LoginRateLimit: defaultLoginRateLimit,
		CORSOrigins:    getEnv("CORS_ORIGINS", defaultCORSOrigins),
		Auth: AuthConfig{
			AccessSecret:      os.Getenv("JWT_SECRET"),
			RefreshSecret:     os.Getenv("REFRESH_TOKEN_SECRET"),
			AccessTokenTTL:    defaultAccessTokenTTL,
			RefreshTokenTTL:   defaultRefreshTokenTTL,
			RefreshCookiePath: getEnv("REFRESH_COOKIE_PATH", defaultRefreshPath),
			OTPTTL:            defaultOTPTTL,
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     defaultSMTPPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", os.Getenv("SMTP_USERNAME")),
		},
		Admin: AdminConfig{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = durationPair(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationPair(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.Auth.AccessTokenTTL, err = duration(accessTTLEnvVar, cfg.Auth.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Auth.RefreshTokenTTL, err = duration(refreshTTLEnvVar, cfg.Auth.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Auth.OTPTTL, err = duration(otpTTLEnvVar, cfg.Auth.OTPTTL); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimit, err = integer(loginRateLimitEnvVar, cfg.LoginRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.Mail.Port, err = integer(smtpPortEnvVar, cfg.Mail.Port); err != nil {
		return Config{}, err
	}

	// Access and refresh tokens may share one secret.
	if cfg.Auth.AccessSecret == "" {
		cfg.Auth.AccessSecret = cfg.Auth.RefreshSecret
	}
	if cfg.Auth.RefreshSecret == "" {
		cfg.Auth.RefreshSecret = cfg.Auth.AccessSecret
	}
	if cfg.Auth.AccessSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET or REFRESH_TOKEN_SECRET must be set")
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password == "" {
		return Config{}, fmt.Errorf("ADMIN_PASSWORD must be set when ADMIN_EMAIL is")
	}

	// Credentialed CORS cannot be combined with a wildcard origin.
	if strings.Contains(cfg.CORSOrigins, "*") {
		return Config{}, fmt.Errorf("CORS_ORIGINS must list explicit origins")
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = inferStoreDriver(cfg)
	}
	switch cfg.StoreDriver {
	case StoreMemory:
		if !IsDev(cfg.AppEnv) {
			return Config{}, fmt.Errorf("STORE_DRIVER=memory is only allowed when APP_ENV is a development environment")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
	case StoreMongo:
		if cfg.MongoURL == "" {
			return Config{}, fmt.Errorf("MONGO_URL must be set")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether env names a development environment.
func IsDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func inferStoreDriver(cfg Config) string {
	switch {
	case cfg.MongoURL != "":
		return StoreMongo
	case cfg.DatabaseURL != "":
		return StorePostgres
	default:
		return StoreMemory
	}
}

func durationPair(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	return duration(durationKey, fallback)
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
