package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Bot.Mode != ModePolling || cfg.Bot.Workers != 16 || cfg.Bot.PollTimeout != 60 {
		t.Fatalf("bot defaults unexpected: %+v", cfg.Bot)
	}
	if cfg.Store.DBDriver != DriverSQLite || cfg.Store.PendingBackend != BackendSQL {
		t.Fatalf("store defaults unexpected: %+v", cfg.Store)
	}
	if cfg.Store.PendingMaxAge != 0 {
		t.Fatalf("stale sweep must be disabled by default, got %v", cfg.Store.PendingMaxAge)
	}
	if cfg.Store.EventLogPath != "data/log.jsonl" || !cfg.Store.EventLogFsync {
		t.Fatalf("event log defaults unexpected: %+v", cfg.Store)
	}
	if cfg.Content.DefaultDirection != "EN" || cfg.Content.QuestionsPath != "questions.txt" {
		t.Fatalf("content defaults unexpected: %+v", cfg.Content)
	}
	if cfg.Eval.Provider != EvalNone || cfg.Eval.Timeout != 30*time.Second {
		t.Fatalf("eval defaults unexpected: %+v", cfg.Eval)
	}
	if cfg.APIBasePath != "/api/v1" || cfg.AdminToken != "" {
		t.Fatalf("admin defaults unexpected: %q %q", cfg.APIBasePath, cfg.AdminToken)
	}
}

func TestLoad_Success_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "admin/")
	t.Setenv("ADMIN_TOKEN", " s3cret ")

	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("MODE", "WEBHOOK")
	t.Setenv("WEBHOOK_SECRET", "hook")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/")
	t.Setenv("WORKERS", "4")

	t.Setenv("DB_DRIVER", "postgresql")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/tutor")
	t.Setenv("PENDING_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("EVENT_LOG_MIRROR", "on")
	t.Setenv("PENDING_MAX_AGE", "72h")

	t.Setenv("DEFAULT_DIRECTION", " it ")
	t.Setenv("EVAL_PROVIDER", "Remote")
	t.Setenv("EVAL_URL", "http://llm:8000/")

	t.Setenv("RATE_RPS", "x")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")

	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_SERVICE_NAME", "svc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second || cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty || cfg.APIBasePath != "/admin" || cfg.AdminToken != "s3cret" {
		t.Fatalf("logging/admin unexpected: %+v", cfg)
	}
	if cfg.Bot.Token != "123:abc" || cfg.Bot.Mode != ModeWebhook || cfg.Bot.WebhookSecret != "hook" ||
		cfg.Bot.WebhookURL != "https://bot.example.com" || cfg.Bot.Workers != 4 {
		t.Fatalf("bot unexpected: %+v", cfg.Bot)
	}
	if cfg.Store.DBDriver != DriverPostgres || cfg.Store.PendingBackend != BackendRedis ||
		!cfg.Store.EventLogMirror || cfg.Store.PendingMaxAge != 72*time.Hour {
		t.Fatalf("store unexpected: %+v", cfg.Store)
	}
	if cfg.Redis.Addr != "redis:6379" || cfg.Redis.Prefix != "tutor:pending:" {
		t.Fatalf("redis unexpected: %+v", cfg.Redis)
	}
	if cfg.Content.DefaultDirection != "IT" {
		t.Fatalf("direction unexpected: %q", cfg.Content.DefaultDirection)
	}
	if cfg.Eval.Provider != EvalRemote || cfg.Eval.URL != "http://llm:8000" {
		t.Fatalf("eval unexpected: %+v", cfg.Eval)
	}
	if cfg.RateRPS != 20.0 {
		t.Fatalf("RATE_RPS parse fallback expected 20, got %v", cfg.RateRPS)
	}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "svc" {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"invalid LOG_LEVEL", map[string]string{"LOG_LEVEL": "verbose"}, "LOG_LEVEL"},
		{"empty PORT via spaces", map[string]string{"PORT": "   "}, "PORT must not be empty"},
		{"non-positive timeouts", map[string]string{"READ_TIMEOUT": "0s"}, "timeouts must be positive"},
		{"max header bytes", map[string]string{"MAX_HEADER_BYTES": "0"}, "MAX_HEADER_BYTES"},
		{"unknown mode", map[string]string{"MODE": "carrier-pigeon"}, "MODE must be one of"},
		{"webhook without secret", map[string]string{"MODE": "webhook"}, "WEBHOOK_SECRET"},
		{"zero workers", map[string]string{"WORKERS": "0"}, "WORKERS"},
		{"negative poll timeout", map[string]string{"POLL_TIMEOUT": "-1"}, "POLL_TIMEOUT"},
		{"empty DB_PATH", map[string]string{"DB_PATH": "   "}, "DB_PATH must not be empty"},
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}, "DB_DRIVER"},
		{"unknown backend", map[string]string{"PENDING_BACKEND": "s3"}, "PENDING_BACKEND"},
		{"empty pending path", map[string]string{"PENDING_BACKEND": "file", "PENDING_PATH": " "}, "PENDING_PATH"},
		{"empty event log", map[string]string{"EVENT_LOG_PATH": " "}, "EVENT_LOG_PATH"},
		{"dedup ttl", map[string]string{"UPDATE_DEDUP_TTL": "0s"}, "UPDATE_DEDUP_TTL"},
		{"negative max age", map[string]string{"PENDING_MAX_AGE": "-1h"}, "PENDING_MAX_AGE"},
		{"sweep interval", map[string]string{"PENDING_MAX_AGE": "1h", "SWEEP_INTERVAL": "0s"}, "SWEEP_INTERVAL"},
		{"bad direction", map[string]string{"DEFAULT_DIRECTION": "FR"}, "DEFAULT_DIRECTION"},
		{"bad provider", map[string]string{"EVAL_PROVIDER": "gpt"}, "EVAL_PROVIDER"},
		{"eval timeout", map[string]string{"EVAL_TIMEOUT": "0s"}, "EVAL_TIMEOUT"},
		{"rate rps negative", map[string]string{"RATE_RPS": "-1"}, "RATE_RPS"},
		{"rate burst < 1", map[string]string{"RATE_BURST": "0"}, "RATE_BURST"},
		{"hsts max age negative", map[string]string{"HSTS_MAX_AGE": "-1s"}, "HSTS_MAX_AGE"},
		{"otel sample ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil || !containsErr(err, tc.want) {
				t.Fatalf("expected error containing %q, got: %v", tc.want, err)
			}
		})
	}
}

// --- helpers ---

func TestHelpers_getenv(t *testing.T) {
	t.Setenv("X_EMPTY", "")
	if getenv("X_EMPTY", "d") != "d" {
		t.Fatalf("getenv should fall back to default on empty var")
	}
	t.Setenv("X_SET", "val")
	if getenv("X_SET", "d") != "val" {
		t.Fatalf("getenv should read set value")
	}
}

func TestHelpers_getfloat_getint_getdur(t *testing.T) {
	t.Setenv("F_VALID", "3.14")
	if getfloat("F_VALID", 0) != 3.14 {
		t.Fatalf("getfloat parse failed")
	}
	t.Setenv("F_BAD", "nope")
	if getfloat("F_BAD", 1.23) != 1.23 {
		t.Fatalf("getfloat default on bad parse failed")
	}
	t.Setenv("I_VALID", "42")
	if getint("I_VALID", 0) != 42 {
		t.Fatalf("getint parse failed")
	}
	t.Setenv("I_BAD", "x")
	if getint("I_BAD", 7) != 7 {
		t.Fatalf("getint default on bad parse failed")
	}
	t.Setenv("D_VALID", "150ms")
	if getdur("D_VALID", time.Second) != 150*time.Millisecond {
		t.Fatalf("getdur parse failed")
	}
	t.Setenv("D_BAD", "zzz")
	if getdur("D_BAD", 2*time.Second) != 2*time.Second {
		t.Fatalf("getdur default on bad parse failed")
	}
}

func TestHelpers_getbool(t *testing.T) {
	for i, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on"} {
		k := "B_T_" + string(rune('a'+i))
		t.Setenv(k, v)
		if !getbool(k, false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for i, v := range []string{"0", "false", "FALSE", " no ", "N", "off"} {
		k := "B_F_" + string(rune('a'+i))
		t.Setenv(k, v)
		if getbool(k, true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("B_EMPTY", "")
	if !getbool("B_EMPTY", true) || getbool("B_EMPTY", false) {
		t.Fatalf("getbool default behavior unexpected")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got := splitCSV(" a, ,b ,  c  ,"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("splitCSV mismatch: got %#v", got)
	}
	for in, want := range map[string]string{"": "/", "v1": "/v1", "/v1/": "/v1", " / ": "/"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q want %q", in, got, want)
		}
	}
}

func TestMain(m *testing.M) {
	for _, k := range []string{"PORT", "MODE", "BOT_TOKEN", "WEBHOOK_SECRET", "DB_DRIVER", "PENDING_BACKEND", "EVAL_PROVIDER"} {
		os.Unsetenv(k)
	}
	os.Exit(m.Run())
}

func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}
