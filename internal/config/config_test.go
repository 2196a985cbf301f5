package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PROMPT_PROVIDER", "")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("STABILITY_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PROMPT_PROVIDER", "groq")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ProviderGroq, cfg.PromptProvider)
	assert.Equal(t, "gsk-test", cfg.GroqAPIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.GroqModel)
	assert.InDelta(t, 0.8, cfg.PromptTemperature, 1e-9)
	assert.Equal(t, 1000, cfg.PromptMaxTokens)
	assert.Equal(t, "https://api.stability.ai", cfg.StabilityBaseURL)
	assert.Equal(t, "png", cfg.StabilityOutputFormat)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 240*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30, cfg.PreviewRateLimitPerMinute)
	assert.Equal(t, 5, cfg.PreviewRateLimitBurst)
}

func TestLoadOverridesAndClamps(t *testing.T) {
	setRequired(t)
	t.Setenv("PROMPT_PROVIDER", "groq")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("PROMPT_TEMPERATURE", "0.3")
	t.Setenv("PROMPT_MAX_TOKENS", "-5")
	t.Setenv("STABILITY_OUTPUT_FORMAT", "gif")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://tattty.app, http://localhost:3000,")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("MAX_CONCURRENT", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 0.3, cfg.PromptTemperature, 1e-9)
	assert.Equal(t, 1000, cfg.PromptMaxTokens)
	assert.Equal(t, "png", cfg.StabilityOutputFormat)
	assert.Equal(t, []string{"https://tattty.app", "http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 1, cfg.RateLimitPerMinute)
	assert.Equal(t, 1, cfg.MaxConcurrent)
}

func TestLoadMissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantKey string
		bot     bool
	}{
		{
			name:    "groq key",
			env:     map[string]string{"PROMPT_PROVIDER": "groq", "GROQ_API_KEY": ""},
			wantKey: "GROQ_API_KEY",
		},
		{
			name:    "stability key",
			env:     map[string]string{"PROMPT_PROVIDER": "groq", "STABILITY_API_KEY": ""},
			wantKey: "STABILITY_API_KEY",
		},
		{
			name:    "gemini key",
			env:     map[string]string{"PROMPT_PROVIDER": "gemini", "GEMINI_API_KEY": ""},
			wantKey: "GEMINI_API_KEY",
		},
		{
			name:    "telegram token",
			env:     map[string]string{"PROMPT_PROVIDER": "groq"},
			wantKey: "TELEGRAM_BOT_TOKEN",
			bot:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var err error
			if tt.bot {
				_, err = LoadBot()
			} else {
				_, err = Load()
			}

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
			assert.Equal(t, tt.wantKey+" is required", err.Error())
		})
	}
}

func TestLoadGeminiProviderSkipsGroqKey(t *testing.T) {
	setRequired(t)
	t.Setenv("PROMPT_PROVIDER", "Gemini")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gm-test")
	t.Setenv("PROMPT_TEMPERATURE", "0.4")
	t.Setenv("PROMPT_MAX_TOKENS", "600")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.PromptProvider)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.InDelta(t, 0.4, cfg.PromptTemperature, 1e-9)
	assert.Equal(t, 600, cfg.PromptMaxTokens)
}

func TestLoadUnknownProvider(t *testing.T) {
	setRequired(t)
	t.Setenv("PROMPT_PROVIDER", "openai")

	_, err := Load()
	assert.ErrorContains(t, err, "not supported")
}

func TestLoadBot(t *testing.T) {
	setRequired(t)
	t.Setenv("PROMPT_PROVIDER", "groq")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_TTL_MINUTES", "15")

	cfg, err := LoadBot()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
}
