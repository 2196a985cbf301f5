package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tattty/internal/config"
	"tattty/internal/design"
)

func TestNewGeneratorEndToEnd(t *testing.T) {
	groqServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]string{"role": "assistant", "content": "Professional tattoo design artwork of a phoenix"},
				"finish_reason": "stop",
			}},
		})
	}))
	defer groqServer.Close()

	var gotRatio string
	stabilityServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			gotRatio = r.FormValue("aspect_ratio")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"image":"QUJD","seed":99,"finish_reason":"SUCCESS"}`))
	}))
	defer stabilityServer.Close()

	cfg := config.Config{
		PromptProvider:        config.ProviderGroq,
		GroqAPIKey:            "gsk",
		GroqBaseURL:           groqServer.URL,
		PromptTemperature:     0.8,
		PromptMaxTokens:       1000,
		StabilityAPIKey:       "sk",
		StabilityBaseURL:      stabilityServer.URL,
		StabilityOutputFormat: "png",
	}

	g, err := NewGenerator(context.Background(), cfg, http.DefaultClient, zap.NewNop())
	require.NoError(t, err)

	res, err := g.Generate(context.Background(), design.UserStory{
		LifeJourney:       "a",
		ValuesPassion:     "b",
		InspirationMemory: "c",
		FutureVision:      "d",
		Placement:         "Thigh",
		Size:              "Large (6-8 inches)",
		Color:             "Full Color",
		Style:             "Japanese",
	})
	require.NoError(t, err)

	assert.Equal(t, "4:5", gotRatio)
	assert.Equal(t, design.Ratio4x5, res.AspectRatio)
	assert.Equal(t, int64(99), res.Seed)
	assert.True(t, strings.HasPrefix(res.ImageURL, "data:image/png;base64,"))
	assert.NotContains(t, strings.ToLower(res.Prompt), "photo")
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.Config{PromptProvider: "openai", StabilityAPIKey: "sk"}, http.DefaultClient, zap.NewNop())
	assert.ErrorContains(t, err, "unknown prompt provider")
}

func TestNewGeneratorMissingKey(t *testing.T) {
	_, err := NewGenerator(context.Background(), config.Config{PromptProvider: config.ProviderGroq, StabilityAPIKey: "sk"}, http.DefaultClient, zap.NewNop())
	assert.ErrorContains(t, err, "init groq")
}
