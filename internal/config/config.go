// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database, the generative model, accrual
// rules, authentication, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "bloom-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DBConfig selects and locates the relational store.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH (sqlite)
	URL    string // DATABASE_URL (postgres DSN)
}

// CatalogConfig controls seeding and caching of shop items.
type CatalogConfig struct {
	Seed      bool          // CATALOG_SEED
	CacheSize int           // CATALOG_CACHE_SIZE
	CacheTTL  time.Duration // CATALOG_CACHE_TTL
}

// GenAIConfig configures the generative model. An empty APIKey selects the
// offline dialogue-library responder.
type GenAIConfig struct {
	APIKey  string        // GEMINI_API_KEY
	Model   string        // GEMINI_MODEL
	BaseURL string        // GEMINI_BASE_URL
	Timeout time.Duration // GEMINI_TIMEOUT (whole stream)
}

// ChatConfig bounds a single chat turn.
type ChatConfig struct {
	MaxPromptRunes int           // CHAT_MAX_PROMPT_RUNES
	MaxHistory     int           // CHAT_MAX_HISTORY (turns forwarded to the model)
	PersistTimeout time.Duration // CHAT_PERSIST_TIMEOUT (trailing writes)
}

// AccrualConfig holds the gamification constants.
type AccrualConfig struct {
	CheckInBase        int // CHECKIN_BASE_POINTS
	CheckInStreakBonus int // CHECKIN_STREAK_BONUS
	XPPerMessage       int // XP_PER_MESSAGE
}

// AuthConfig configures principal resolution at the HTTP boundary.
type AuthConfig struct {
	JWTSecret           string // AUTH_JWT_SECRET (HS256)
	AllowHeaderIdentity bool   // AUTH_ALLOW_HEADER_IDENTITY (X-User-ID, dev only)
}

// JobsConfig configures background maintenance.
type JobsConfig struct {
	Enabled          bool   // JOBS_ENABLED
	IdempotencyPurge string // JOBS_IDEMPOTENCY_PURGE (cron spec)
	CatalogRefresh   string // JOBS_CATALOG_REFRESH (cron spec)
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // covers a whole streamed chat turn
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB      DBConfig
	Catalog CatalogConfig

	// Companion
	GenAI   GenAIConfig
	Chat    ChatConfig
	Accrual AccrualConfig

	// Identity
	Auth AuthConfig

	// Background jobs
	Jobs JobsConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 90*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Storage
		DB: DBConfig{
			Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
			Path:   getenv("DB_PATH", "bloom.db"),
			URL:    getenv("DATABASE_URL", ""),
		},
		Catalog: CatalogConfig{
			Seed:      getbool("CATALOG_SEED", true),
			CacheSize: getint("CATALOG_CACHE_SIZE", 256),
			CacheTTL:  getdur("CATALOG_CACHE_TTL", 10*time.Minute),
		},

		// Companion
		GenAI: GenAIConfig{
			APIKey:  getenv("GEMINI_API_KEY", ""),
			Model:   getenv("GEMINI_MODEL", "gemini-2.5-flash"),
			BaseURL: getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Timeout: getdur("GEMINI_TIMEOUT", 60*time.Second),
		},
		Chat: ChatConfig{
			MaxPromptRunes: getint("CHAT_MAX_PROMPT_RUNES", 4000),
			MaxHistory:     getint("CHAT_MAX_HISTORY", 40),
			PersistTimeout: getdur("CHAT_PERSIST_TIMEOUT", 5*time.Second),
		},
		Accrual: AccrualConfig{
			CheckInBase:        getint("CHECKIN_BASE_POINTS", 50),
			CheckInStreakBonus: getint("CHECKIN_STREAK_BONUS", 10),
			XPPerMessage:       getint("XP_PER_MESSAGE", 10),
		},

		// Identity
		Auth: AuthConfig{
			JWTSecret:           getenv("AUTH_JWT_SECRET", ""),
			AllowHeaderIdentity: getbool("AUTH_ALLOW_HEADER_IDENTITY", false),
		},

		// Background jobs
		Jobs: JobsConfig{
			Enabled:          getbool("JOBS_ENABLED", true),
			IdempotencyPurge: getenv("JOBS_IDEMPOTENCY_PURGE", "@every 1h"),
			CatalogRefresh:   getenv("JOBS_CATALOG_REFRESH", "@every 30m"),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Idempotency
		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "bloom-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DB.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.DB.Path) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DB.URL) == "" {
			return cfg, errors.New("DATABASE_URL must be set when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.Catalog.CacheSize < 1 || cfg.Catalog.CacheTTL <= 0 {
		return cfg, errors.New("CATALOG_CACHE_SIZE must be >= 1 and CATALOG_CACHE_TTL > 0")
	}
	if strings.TrimSpace(cfg.GenAI.Model) == "" {
		return cfg, errors.New("GEMINI_MODEL must not be empty")
	}
	if cfg.GenAI.Timeout < 0 {
		return cfg, errors.New("GEMINI_TIMEOUT must be >= 0")
	}
	if cfg.Chat.MaxPromptRunes < 1 || cfg.Chat.MaxHistory < 1 {
		return cfg, errors.New("CHAT_MAX_PROMPT_RUNES and CHAT_MAX_HISTORY must be >= 1")
	}
	if cfg.Chat.PersistTimeout <= 0 {
		return cfg, errors.New("CHAT_PERSIST_TIMEOUT must be > 0")
	}
	if cfg.Accrual.CheckInBase < 0 || cfg.Accrual.CheckInStreakBonus < 0 || cfg.Accrual.XPPerMessage < 0 {
		return cfg, errors.New("CHECKIN_BASE_POINTS, CHECKIN_STREAK_BONUS and XP_PER_MESSAGE must be >= 0")
	}
	if cfg.Auth.JWTSecret == "" && !cfg.Auth.AllowHeaderIdentity {
		return cfg, errors.New("AUTH_JWT_SECRET must be set unless AUTH_ALLOW_HEADER_IDENTITY=true")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return cfg, errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
