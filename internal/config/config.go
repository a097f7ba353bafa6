// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes relay settings such
// as the watched channel, cooldown and admission thresholds, completion-engine
// bounds, database path, logging, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the relay.
type Config struct {
	// Credentials (fatal if missing)
	DiscordToken     string // DISCORD_TOKEN
	OpenRouterAPIKey string // OPENROUTER_API_KEY
	OpenRouterBase   string // OPENROUTER_BASE_URL

	// Channel / admission
	TargetChannel    int64         // TARGET_CHANNEL (snowflake)
	CheckInterval    time.Duration // CHECK_INTERVAL seconds, poll period
	Cooldown         time.Duration // COOLDOWN_SECONDS between sent replies
	MinContentLength int           // MIN_CONTENT_LENGTH, trimmed runes

	// Transcript / context
	Retention    int // RETENTION rows kept per channel
	ContextLimit int // CONTEXT_LIMIT turns rendered into the prompt

	// Completion engine
	MaxAttempts    int           // MAX_ATTEMPTS per tier
	AttemptTimeout time.Duration // ATTEMPT_TIMEOUT per call
	RetryDelay     time.Duration // RETRY_DELAY between attempts
	MaxTokens      int           // MAX_TOKENS generated per call
	Temperature    float64       // TEMPERATURE sampling

	// Response shaping
	MaxSentences int           // MAX_SENTENCES kept per reply
	MaxWords     int           // MAX_WORDS kept per reply
	TypingDelay  time.Duration // TYPING_DELAY before sending

	// Persistence / instructions
	DBPath           string // DB_PATH, SQLite file
	InstructionsPath string // INSTRUCTIONS_PATH, system prompt file

	// HTTP surface
	Port      string  // PORT, just the number
	RateRPS   float64 // RATE_RPS tokens per second (>= 0)
	RateBurst int     // RATE_BURST bucket size (>= 1)

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Observability
	OTEL OTELConfig
}

// defaultChannel is the channel the original deployment watched; overridden
// by TARGET_CHANNEL in any real install.
const defaultChannel = 1470478653606461532

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. Missing credentials are the
// only fatal class of error and surface here.
func Load() (Config, error) {
	cfg := Config{
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBase:   getenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),

		TargetChannel:    getint64("TARGET_CHANNEL", defaultChannel),
		CheckInterval:    getsecs("CHECK_INTERVAL", 30*time.Second),
		Cooldown:         getsecs("COOLDOWN_SECONDS", 60*time.Second),
		MinContentLength: getint("MIN_CONTENT_LENGTH", 2),

		Retention:    getint("RETENTION", 100),
		ContextLimit: getint("CONTEXT_LIMIT", 10),

		MaxAttempts:    getint("MAX_ATTEMPTS", 3),
		AttemptTimeout: getdur("ATTEMPT_TIMEOUT", 10*time.Second),
		RetryDelay:     getdur("RETRY_DELAY", time.Second),
		MaxTokens:      getint("MAX_TOKENS", 600),
		Temperature:    getfloat("TEMPERATURE", 0.7),

		MaxSentences: getint("MAX_SENTENCES", 2),
		MaxWords:     getint("MAX_WORDS", 30),
		TypingDelay:  getdur("TYPING_DELAY", 3*time.Second),

		DBPath:           getenv("DB_PATH", "relay.db"),
		InstructionsPath: getenv("INSTRUCTIONS_PATH", "config/instructions.txt"),

		Port:      getenv("PORT", "8080"),
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-discord-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.OpenRouterBase = strings.TrimRight(cfg.OpenRouterBase, "/")

	// --- validation ---
	if strings.TrimSpace(cfg.DiscordToken) == "" {
		return cfg, errors.New("DISCORD_TOKEN is required")
	}
	if strings.TrimSpace(cfg.OpenRouterAPIKey) == "" {
		return cfg, errors.New("OPENROUTER_API_KEY is required")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if cfg.TargetChannel <= 0 {
		return cfg, errors.New("TARGET_CHANNEL must be a positive snowflake")
	}
	if cfg.CheckInterval <= 0 || cfg.Cooldown < 0 {
		return cfg, errors.New("CHECK_INTERVAL must be positive and COOLDOWN_SECONDS non-negative")
	}
	if cfg.MinContentLength < 1 {
		return cfg, errors.New("MIN_CONTENT_LENGTH must be >= 1")
	}
	if cfg.Retention < 1 {
		return cfg, errors.New("RETENTION must be >= 1")
	}
	if cfg.ContextLimit < 0 {
		return cfg, errors.New("CONTEXT_LIMIT must be >= 0")
	}
	if cfg.MaxAttempts < 1 {
		return cfg, errors.New("MAX_ATTEMPTS must be >= 1")
	}
	if cfg.AttemptTimeout <= 0 {
		return cfg, errors.New("ATTEMPT_TIMEOUT must be a positive duration")
	}
	if cfg.RetryDelay < 0 || cfg.TypingDelay < 0 {
		return cfg, errors.New("RETRY_DELAY and TYPING_DELAY must be non-negative")
	}
	if cfg.MaxTokens < 1 {
		return cfg, errors.New("MAX_TOKENS must be >= 1")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return cfg, errors.New("TEMPERATURE must be in [0,2]")
	}
	if cfg.MaxSentences < 1 || cfg.MaxWords < 1 {
		return cfg, errors.New("MAX_SENTENCES and MAX_WORDS must be >= 1")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
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

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
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

// getsecs reads a bare integer number of seconds, matching how the deployment
// platform supplies CHECK_INTERVAL and COOLDOWN_SECONDS.
func getsecs(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return def
}
