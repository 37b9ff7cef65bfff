package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Demo mode serves canned scenarios without database, redis or LLM
	DemoMode bool

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// LLM
	LLMProvider    string
	LLMConcurrency int

	OpenAIAPIKey string
	OpenAIModel  string

	GeminiAPIKey string
	GeminiModel  string

	// Limits
	RateLimitPerMinute int
	SessionCacheSize   int
	WorkerCount        int

	// SMTP (clinic notifications, logged when unset)
	SMTPHost    string
	SMTPPort    string
	SMTPUser    string
	SMTPPass    string
	SMTPFrom    string
	ClinicEmail string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:               getEnvOrDefault("PORT", "8080"),
		Env:                getEnvOrDefault("ENV", "development"),
		DemoMode:           getEnvAsBoolOrDefault("DEMO_MODE", false),
		MigrationsDir:      getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		LLMProvider:        strings.ToLower(getEnvOrDefault("LLM_PROVIDER", ProviderOpenAI)),
		LLMConcurrency:     getEnvAsIntOrDefault("LLM_CONCURRENT_REQUESTS", 5),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		SessionCacheSize:   getEnvAsIntOrDefault("SESSION_CACHE_SIZE", 1024),
		WorkerCount:        getEnvAsIntOrDefault("WORKER_COUNT", 2),
		FrontendURL:        getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
		SMTPHost:           getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort:           getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser:           getEnvOrDefault("SMTP_USER", ""),
		SMTPPass:           getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom:           getEnvOrDefault("SMTP_FROM", "intake@localhost"),
		ClinicEmail:        getEnvOrDefault("CLINIC_EMAIL", "clinic@localhost"),
		JWTSecret:          mustGetEnv("JWT_SECRET"),
	}

	if cfg.DemoMode {
		cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "")
		cfg.RedisURL = getEnvOrDefault("REDIS_URL", "")
		return cfg
	}

	cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	cfg.RedisURL = mustGetEnv("REDIS_URL")

	switch cfg.LLMProvider {
	case ProviderOpenAI:
		cfg.OpenAIAPIKey = mustGetEnv("OPENAI_API_KEY")
	case ProviderGemini:
		cfg.GeminiAPIKey = mustGetEnv("GEMINI_API_KEY")
	default:
		panic(fmt.Sprintf("unsupported LLM_PROVIDER %q (want %s or %s)", cfg.LLMProvider, ProviderOpenAI, ProviderGemini))
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
