package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Port string

	// DatabaseURL, when set, overrides the individual DB_* settings.
	DatabaseURL string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// MigrateOnStart applies embedded migrations before serving (default true).
	MigrateOnStart bool

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// SessionTTLHours is the token lifetime in hours (default 24). 0 issues tokens without expiry.
	SessionTTLHours int

	// BcryptCost is the bcrypt work factor for new admin passwords (default 10).
	BcryptCost int

	// SecureCookies marks the token cookie Secure. Enable when served over HTTPS.
	SecureCookies bool

	// AuthFailurePolicy is "redirect" (default) or "json".
	AuthFailurePolicy string
	// LoginPath is where the redirect policy sends unauthenticated visitors.
	LoginPath string

	// PageSize is the number of posts per listing page (default 10).
	PageSize int

	// SearchStrategy is "substring" (default) or "tokenized".
	SearchStrategy string
	// SearchLimit caps the number of search results (default 50).
	SearchLimit int

	// AllowRegistration exposes POST /register (default true).
	AllowRegistration bool
	// RegistrationRequiresAuth puts POST /register behind the session guard.
	RegistrationRequiresAuth bool

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a comma-separated list in CORS_ALLOWED_ORIGINS. Empty means same-origin only.
	CORSAllowedOrigins []string

	// MaxBodyBytes limits request bodies (default 1 MiB).
	MaxBodyBytes int64
}

// Load reads .env when present and then builds Config from the environment.
// Variables already set in the environment win over .env.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "3000"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBName:      getEnv("DB_NAME", "blog"),
		DBUser:      getEnv("DB_USER", "blog"),
		DBPass:      getEnv("DB_PASS", "blog"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		JWTSecret:       getEnv("JWT_SECRET", DefaultJWTSecret),
		Env:             getEnv("ENV", "dev"),
		SessionTTLHours: getEnvIntAllowZero("SESSION_TTL_HOURS", 24),
		BcryptCost:      getEnvInt("BCRYPT_COST", 10),
		SecureCookies:   getEnvBool("SECURE_COOKIES", false),

		AuthFailurePolicy: getEnv("AUTH_FAILURE_POLICY", "redirect"),
		LoginPath:         getEnv("LOGIN_PATH", "/admin"),

		PageSize:       getEnvInt("PAGE_SIZE", 10),
		SearchStrategy: getEnv("SEARCH_STRATEGY", "substring"),
		SearchLimit:    getEnvInt("SEARCH_LIMIT", 50),

		AllowRegistration:        getEnvBool("ALLOW_REGISTRATION", true),
		RegistrationRequiresAuth: getEnvBool("REGISTRATION_REQUIRES_AUTH", false),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),

		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
	}
}

// Validate rejects settings that are unsafe or unusable.
func (c Config) Validate() error {
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == DefaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	switch c.AuthFailurePolicy {
	case "redirect", "json":
	default:
		return fmt.Errorf("AUTH_FAILURE_POLICY must be redirect or json, got %q", c.AuthFailurePolicy)
	}
	switch c.SearchStrategy {
	case "substring", "tokenized":
	default:
		return fmt.Errorf("SEARCH_STRATEGY must be substring or tokenized, got %q", c.SearchStrategy)
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// SessionTTL is the token lifetime; zero means tokens do not expire.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// DSN returns a postgres URL suitable for both lib/pq and golang-migrate.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPass),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvIntAllowZero(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
