package providers

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"tattty/internal/config"
	"tattty/internal/gemini"
	"tattty/internal/generator"
	"tattty/internal/groq"
	"tattty/internal/stability"
)

// NewGenerator builds the pipeline from configuration, selecting the prompt
// backend by cfg.PromptProvider.
func NewGenerator(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *zap.Logger) (*generator.Generator, error) {
	prompts, err := newPromptSynthesizer(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	images, err := stability.New(stability.Options{
		APIKey:     cfg.StabilityAPIKey,
		BaseURL:    cfg.StabilityBaseURL,
		HTTPClient: httpClient,
		Logger:     logger.Named("stability"),
	})
	if err != nil {
		return nil, fmt.Errorf("init stability: %w", err)
	}

	return generator.New(generator.Options{
		Prompts:      prompts,
		Images:       images,
		OutputFormat: cfg.StabilityOutputFormat,
		Logger:       logger.Named("generator"),
	})
}

func newPromptSynthesizer(ctx context.Context, cfg config.Config, httpClient *http.Client, logger *zap.Logger) (generator.PromptSynthesizer, error) {
	switch cfg.PromptProvider {
	case config.ProviderGemini:
		c, err := gemini.New(ctx, gemini.Options{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.GeminiModel,
			Temperature: float32(cfg.PromptTemperature),
			MaxTokens:   int32(cfg.PromptMaxTokens),
			HTTPClient:  httpClient,
			Logger:      logger.Named("gemini"),
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		return c, nil
	case config.ProviderGroq, "":
		c, err := groq.New(groq.Options{
			APIKey:      cfg.GroqAPIKey,
			BaseURL:     cfg.GroqBaseURL,
			Model:       cfg.GroqModel,
			Temperature: cfg.PromptTemperature,
			MaxTokens:   cfg.PromptMaxTokens,
			HTTPClient:  httpClient,
			Logger:      logger.Named("groq"),
		})
		if err != nil {
			return nil, fmt.Errorf("init groq: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown prompt provider %q", cfg.PromptProvider)
	}
}
