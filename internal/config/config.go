package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Inbound request authentication (x-api-key header).
	APIKey string

	// Generation capability.
	LLMProvider  string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration
	PhrasingSeed int64

	// Session store.
	UseMemoryStore   bool
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	SessionTTL       time.Duration
	SessionRetention time.Duration

	// Engagement policy.
	TurnCap       int
	HistoryWindow int

	// Final report delivery.
	ReportCallbackURL string
	ReportAPIKey      string
	ReportMaxAttempts int
	ReportBackoff     time.Duration
	ReportTimeout     time.Duration

	// HTTP surface.
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIKey: getEnv("API_KEY", ""),

		LLMProvider:  strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "auto"))),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:   getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		PhrasingSeed: int64(getEnvAsInt("PHRASING_SEED", 0)),

		UseMemoryStore:   getEnvAsBool("USE_MEMORY_STORE", false),
		RedisAddr:        getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		SessionRetention: getEnvAsDuration("SESSION_RETENTION", time.Minute),

		TurnCap:       getEnvAsInt("TURN_CAP", 10),
		HistoryWindow: getEnvAsInt("HISTORY_WINDOW", 20),

		ReportCallbackURL: getEnv("REPORT_CALLBACK_URL", ""),
		ReportAPIKey:      getEnv("REPORT_API_KEY", ""),
		ReportMaxAttempts: getEnvAsInt("REPORT_MAX_ATTEMPTS", 3),
		ReportBackoff:     getEnvAsDuration("REPORT_BACKOFF", 2*time.Second),
		ReportTimeout:     getEnvAsDuration("REPORT_TIMEOUT", 10*time.Second),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
