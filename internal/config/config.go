// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the bot transport,
// storage backends, evaluation provider, HTTP server and observability settings.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Pending store backends.
const (
	BackendSQL   = "sql"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// SQL dialects.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Evaluation providers.
const (
	EvalNone   = "none"
	EvalMock   = "mock"
	EvalRemote = "remote"
	EvalOllama = "ollama"
)

// CORSConfig defines Cross-Origin Resource Sharing settings for the admin API.
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
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-tutor-bot")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BotConfig holds chat transport settings.
type BotConfig struct {
	Token            string        // BOT_TOKEN
	Mode             string        // polling|webhook
	WebhookURL       string        // public base URL; setWebhook is called when set
	WebhookSecret    string        // path segment of /webhook/:secret
	WebhookHeader    string        // optional X-Telegram-Bot-Api-Secret-Token value
	WebhookTimeout   time.Duration // budget for handling one webhook update
	PollTimeout      int           // long-poll timeout in seconds
	Workers          int           // concurrent update handlers when polling
	TransportTimeout time.Duration // HTTP client timeout toward the chat API
}

// StoreConfig holds persistence settings for pending exchanges, the event log
// and processed updates.
type StoreConfig struct {
	DBDriver       string        // sqlite|postgres
	DBPath         string        // SQLite file
	DatabaseURL    string        // postgres DSN
	PendingBackend string        // sql|file|redis
	PendingPath    string        // JSON file for the file backend
	EventLogPath   string        // JSONL audit log
	EventLogFsync  bool          // fsync after every appended entry
	EventLogMirror bool          // also mirror events into the SQL database
	UpdateDedupTTL time.Duration // how long a processed update id is remembered
	PendingMaxAge  time.Duration // 0 disables the stale-question sweep
	SweepInterval  time.Duration
}

// RedisConfig holds settings for the redis pending backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// ContentConfig points at the question and confirmation sources.
type ContentConfig struct {
	QuestionsPath    string
	AnswersPath      string
	DefaultDirection string // IT|EN
}

// EvalConfig holds the evaluation provider settings.
type EvalConfig struct {
	Provider      string // none|mock|remote|ollama
	URL           string // remote evaluation service base URL
	OllamaURL     string
	OllamaModel   string
	Timeout       time.Duration
	Serve         bool   // expose POST /v1/evaluate
	ServeProvider string // mock|ollama
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for admin API routes
	AdminToken     string // bearer token; empty disables the admin API

	Bot     BotConfig
	Store   StoreConfig
	Redis   RedisConfig
	Content ContentConfig
	Eval    EvalConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

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
		WriteTimeout:      getdur("WRITE_TIMEOUT", 40*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),
		AdminToken:     strings.TrimSpace(getenv("ADMIN_TOKEN", "")),

		Bot: BotConfig{
			Token:            strings.TrimSpace(getenv("BOT_TOKEN", "")),
			Mode:             strings.ToLower(getenv("MODE", ModePolling)),
			WebhookURL:       strings.TrimRight(strings.TrimSpace(getenv("WEBHOOK_URL", "")), "/"),
			WebhookSecret:    strings.TrimSpace(getenv("WEBHOOK_SECRET", "")),
			WebhookHeader:    strings.TrimSpace(getenv("WEBHOOK_HEADER_TOKEN", "")),
			WebhookTimeout:   getdur("WEBHOOK_TIMEOUT", 35*time.Second),
			PollTimeout:      getint("POLL_TIMEOUT", 60),
			Workers:          getint("WORKERS", 16),
			TransportTimeout: getdur("TRANSPORT_TIMEOUT", 10*time.Second),
		},

		Store: StoreConfig{
			DBDriver:       strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
			DBPath:         getenv("DB_PATH", "data/tutor.db"),
			DatabaseURL:    getenv("DATABASE_URL", ""),
			PendingBackend: strings.ToLower(getenv("PENDING_BACKEND", BackendSQL)),
			PendingPath:    getenv("PENDING_PATH", "data/pending.json"),
			EventLogPath:   getenv("EVENT_LOG_PATH", "data/log.jsonl"),
			EventLogFsync:  getbool("EVENT_LOG_FSYNC", true),
			EventLogMirror: getbool("EVENT_LOG_MIRROR", false),
			UpdateDedupTTL: getdur("UPDATE_DEDUP_TTL", 24*time.Hour),
			PendingMaxAge:  getdur("PENDING_MAX_AGE", 0),
			SweepInterval:  getdur("SWEEP_INTERVAL", time.Hour),
		},

		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
			Prefix:   getenv("REDIS_PREFIX", "tutor:pending:"),
		},

		Content: ContentConfig{
			QuestionsPath:    getenv("QUESTIONS_PATH", "questions.txt"),
			AnswersPath:      getenv("ANSWERS_PATH", "answers.txt"),
			DefaultDirection: strings.ToUpper(strings.TrimSpace(getenv("DEFAULT_DIRECTION", "EN"))),
		},

		Eval: EvalConfig{
			Provider:      strings.ToLower(getenv("EVAL_PROVIDER", EvalNone)),
			URL:           strings.TrimRight(getenv("EVAL_URL", "http://localhost:8000"), "/"),
			OllamaURL:     strings.TrimRight(getenv("OLLAMA_URL", "http://localhost:11434"), "/"),
			OllamaModel:   getenv("OLLAMA_MODEL", "llama3.2:1b"),
			Timeout:       getdur("EVAL_TIMEOUT", 30*time.Second),
			Serve:         getbool("EVAL_SERVE", false),
			ServeProvider: strings.ToLower(getenv("EVAL_SERVE_PROVIDER", EvalMock)),
		},

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 20.0),
		RateBurst: getint("RATE_BURST", 40),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-tutor-bot"),
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
	if cfg.Store.DBDriver == "sqlite3" {
		cfg.Store.DBDriver = DriverSQLite
	}
	if cfg.Store.DBDriver == "postgresql" {
		cfg.Store.DBDriver = DriverPostgres
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
	switch cfg.Bot.Mode {
	case ModePolling:
	case ModeWebhook:
		if cfg.Bot.WebhookSecret == "" {
			return cfg, errors.New("WEBHOOK_SECRET is required when MODE=webhook")
		}
	default:
		return cfg, errors.New("MODE must be one of: polling, webhook")
	}
	if cfg.Bot.WebhookTimeout <= 0 || cfg.Bot.TransportTimeout <= 0 {
		return cfg, errors.New("WEBHOOK_TIMEOUT and TRANSPORT_TIMEOUT must be > 0")
	}
	if cfg.Bot.PollTimeout < 0 {
		return cfg, errors.New("POLL_TIMEOUT must be >= 0")
	}
	if cfg.Bot.Workers < 1 {
		return cfg, errors.New("WORKERS must be >= 1")
	}
	switch cfg.Store.DBDriver {
	case DriverSQLite:
		if strings.TrimSpace(cfg.Store.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case DriverPostgres:
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			return cfg, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	switch cfg.Store.PendingBackend {
	case BackendSQL, BackendRedis:
	case BackendFile:
		if strings.TrimSpace(cfg.Store.PendingPath) == "" {
			return cfg, errors.New("PENDING_PATH must not be empty")
		}
	default:
		return cfg, errors.New("PENDING_BACKEND must be one of: sql, file, redis")
	}
	if strings.TrimSpace(cfg.Store.EventLogPath) == "" {
		return cfg, errors.New("EVENT_LOG_PATH must not be empty")
	}
	if cfg.Store.UpdateDedupTTL <= 0 {
		return cfg, errors.New("UPDATE_DEDUP_TTL must be > 0")
	}
	if cfg.Store.PendingMaxAge < 0 {
		return cfg, errors.New("PENDING_MAX_AGE must be >= 0")
	}
	if cfg.Store.PendingMaxAge > 0 && cfg.Store.SweepInterval <= 0 {
		return cfg, errors.New("SWEEP_INTERVAL must be > 0 when PENDING_MAX_AGE is set")
	}
	if cfg.Store.PendingBackend == BackendRedis && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return cfg, errors.New("REDIS_ADDR must not be empty")
	}
	switch cfg.Content.DefaultDirection {
	case "IT", "EN":
	default:
		return cfg, errors.New("DEFAULT_DIRECTION must be one of: IT, EN")
	}
	switch cfg.Eval.Provider {
	case EvalNone, EvalMock, EvalRemote, EvalOllama:
	default:
		return cfg, errors.New("EVAL_PROVIDER must be one of: none, mock, remote, ollama")
	}
	if cfg.Eval.Timeout <= 0 {
		return cfg, errors.New("EVAL_TIMEOUT must be > 0")
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
