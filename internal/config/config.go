package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// ConfigurationError reports a required setting that is absent at startup.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return e.Key + " is required"
}

type Config struct {
	Addr     string
	LogLevel string
	Debug    bool

	PreferIPv4     bool
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration

	PromptProvider string

	// Sampling settings shared by every prompt provider.
	PromptTemperature float64
	PromptMaxTokens   int

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string

	GeminiAPIKey string
	GeminiModel  string

	StabilityAPIKey       string
	StabilityBaseURL      string
	StabilityOutputFormat string

	CORSAllowedOrigins []string
	RateLimitPerMinute int
	RateLimitBurst     int

	PreviewRateLimitPerMinute int
	PreviewRateLimitBurst     int

	TelegramToken string
	MaxConcurrent int
	SessionTTL    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads the web server configuration from the environment.
func Load() (Config, error) {
	return load(false)
}

// LoadBot is Load plus the Telegram settings the bot cannot start without.
func LoadBot() (Config, error) {
	return load(true)
}

func load(requireTelegram bool) (Config, error) {
	v := viper.New()

	v.SetDefault("WEB_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEBUG", false)
	v.SetDefault("PREFER_IPV4", true)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 180)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 240)
	v.SetDefault("PROMPT_PROVIDER", ProviderGroq)
	v.SetDefault("PROMPT_TEMPERATURE", 0.8)
	v.SetDefault("PROMPT_MAX_TOKENS", 1000)
	v.SetDefault("GROQ_API_KEY", "")
	v.SetDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1")
	v.SetDefault("GROQ_MODEL", "llama-3.1-70b-versatile")
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("STABILITY_API_KEY", "")
	v.SetDefault("STABILITY_BASE_URL", "https://api.stability.ai")
	v.SetDefault("STABILITY_OUTPUT_FORMAT", "png")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_BURST", 3)
	v.SetDefault("PREVIEW_RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("PREVIEW_RATE_LIMIT_BURST", 5)
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("MAX_CONCURRENT", 4)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.AutomaticEnv()

	cfg := Config{
		Addr:     strings.TrimSpace(v.GetString("WEB_ADDR")),
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		Debug:    v.GetBool("DEBUG"),

		PreferIPv4:     v.GetBool("PREFER_IPV4"),
		HTTPTimeout:    time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		RequestTimeout: time.Duration(v.GetInt("REQUEST_TIMEOUT_SECONDS")) * time.Second,

		PromptProvider:    strings.ToLower(strings.TrimSpace(v.GetString("PROMPT_PROVIDER"))),
		PromptTemperature: v.GetFloat64("PROMPT_TEMPERATURE"),
		PromptMaxTokens:   v.GetInt("PROMPT_MAX_TOKENS"),

		GroqAPIKey:  strings.TrimSpace(v.GetString("GROQ_API_KEY")),
		GroqBaseURL: strings.TrimSpace(v.GetString("GROQ_BASE_URL")),
		GroqModel:   strings.TrimSpace(v.GetString("GROQ_MODEL")),

		GeminiAPIKey: strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		GeminiModel:  strings.TrimSpace(v.GetString("GEMINI_MODEL")),

		StabilityAPIKey:       strings.TrimSpace(v.GetString("STABILITY_API_KEY")),
		StabilityBaseURL:      strings.TrimSpace(v.GetString("STABILITY_BASE_URL")),
		StabilityOutputFormat: strings.ToLower(strings.TrimSpace(v.GetString("STABILITY_OUTPUT_FORMAT"))),

		CORSAllowedOrigins: splitCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),

		PreviewRateLimitPerMinute: v.GetInt("PREVIEW_RATE_LIMIT_PER_MINUTE"),
		PreviewRateLimitBurst:     v.GetInt("PREVIEW_RATE_LIMIT_BURST"),

		TelegramToken: strings.TrimSpace(v.GetString("TELEGRAM_BOT_TOKEN")),
		MaxConcurrent: v.GetInt("MAX_CONCURRENT"),
		SessionTTL:    time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute,
		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
	}

	switch cfg.PromptProvider {
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return Config{}, &ConfigurationError{Key: "GROQ_API_KEY"}
		}
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return Config{}, &ConfigurationError{Key: "GEMINI_API_KEY"}
		}
	default:
		return Config{}, fmt.Errorf("PROMPT_PROVIDER %q is not supported", cfg.PromptProvider)
	}

	switch {
	case cfg.StabilityAPIKey == "":
		return Config{}, &ConfigurationError{Key: "STABILITY_API_KEY"}
	case requireTelegram && cfg.TelegramToken == "":
		return Config{}, &ConfigurationError{Key: "TELEGRAM_BOT_TOKEN"}
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 240 * time.Second
	}
	if cfg.PromptMaxTokens < 1 {
		cfg.PromptMaxTokens = 1000
	}
	if cfg.PromptTemperature < 0 {
		cfg.PromptTemperature = 0.8
	}
	switch cfg.StabilityOutputFormat {
	case "png", "jpeg", "webp":
	default:
		cfg.StabilityOutputFormat = "png"
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.RateLimitPerMinute < 1 {
		cfg.RateLimitPerMinute = 1
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 1
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}

	return cfg, nil
}

func splitCSV(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
