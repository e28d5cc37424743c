package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Assignment policies.
const (
	AssignmentRandom = "random"
	AssignmentFirst  = "first"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Session      SessionConfig
	Tickets      TicketsConfig
	Notification NotificationConfig
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

// DatabaseConfig selects and tunes the relational store.
type DatabaseConfig struct {
	Driver         string
	Path           string
	DSN            string
	MaxConns       int
	RunMigrations  bool
	ConnMaxIdleSec int
	ConnMaxLifeSec int
}

// RedisConfig holds Redis connection values. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	SecretKey             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SessionConfig controls browser sessions.
type SessionConfig struct {
	Store            string
	CookieName       string
	TTLMinutes       int
	RememberTTLHours int
	CookieSecure     bool
	CSRFEnabled      bool
}

// TicketsConfig tunes ticket lifecycle behavior.
type TicketsConfig struct {
	AssignmentPolicy  string
	StrictTransitions bool
}

// NotificationConfig holds notification endpoints.
type NotificationConfig struct {
	WebhookURL    string
	EventsChannel string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	defaultSessionStore := SessionStoreMemory
	if redisAddr != "" {
		defaultSessionStore = SessionStoreRedis
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-tickets"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("DATABASE_DRIVER", DriverSQLite)),
			Path:           getEnv("DATABASE_PATH", "database.db"),
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       getEnvAsInt("DATABASE_MAX_CONNS", 10),
			RunMigrations:  getEnvAsBool("DATABASE_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: getEnvAsInt("DATABASE_CONN_MAX_IDLE_SECONDS", 30),
			ConnMaxLifeSec: getEnvAsInt("DATABASE_CONN_MAX_LIFE_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SecretKey:             getEnv("AUTH_SECRET_KEY", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Session: SessionConfig{
			Store:            strings.ToLower(getEnv("SESSION_STORE", defaultSessionStore)),
			CookieName:       getEnv("SESSION_COOKIE_NAME", "session"),
			TTLMinutes:       getEnvAsInt("SESSION_TTL_MINUTES", 120),
			RememberTTLHours: getEnvAsInt("SESSION_REMEMBER_TTL_HOURS", 720),
			CookieSecure:     getEnvAsBool("SESSION_COOKIE_SECURE", false),
			CSRFEnabled:      getEnvAsBool("CSRF_ENABLED", true),
		},
		Tickets: TicketsConfig{
			AssignmentPolicy:  strings.ToLower(getEnv("TICKETS_ASSIGNMENT_POLICY", AssignmentRandom)),
			StrictTransitions: getEnvAsBool("TICKETS_STRICT_TRANSITIONS", false),
		},
		Notification: NotificationConfig{
			WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
			EventsChannel: getEnv("EVENTS_REDIS_CHANNEL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DATABASE_PATH required for sqlite driver")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN required for postgres driver")
		}
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q", c.Database.Driver)
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR required for redis session store")
		}
	default:
		return fmt.Errorf("invalid SESSION_STORE %q", c.Session.Store)
	}

	switch c.Tickets.AssignmentPolicy {
	case AssignmentRandom, AssignmentFirst:
	default:
		return fmt.Errorf("invalid TICKETS_ASSIGNMENT_POLICY %q", c.Tickets.AssignmentPolicy)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TTL is the server-side lifetime of a browser-session login.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// RememberTTL is the lifetime of a "remember me" login.
func (s SessionConfig) RememberTTL() time.Duration {
	if s.RememberTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(s.RememberTTLHours) * time.Hour
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
