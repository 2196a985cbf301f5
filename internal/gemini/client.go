package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"tattty/internal/design"
)

const (
	defaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.8
	defaultMaxTokens   = 1000
)

type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	APIVersion  string
	Temperature float32
	MaxTokens   int32
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client synthesizes design prompts with a Gemini text model.
type Client struct {
	genai       *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *zap.Logger
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
			APIVersion: strings.TrimSpace(opts.APIVersion),
		},
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		genai:       client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}, nil
}

func (c *Client) SynthesizePrompt(ctx context.Context, story design.UserStory) (string, error) {
	result, err := c.genai.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(design.UserInstruction(story)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(design.SystemInstruction(story), genai.RoleUser),
			Temperature:       genai.Ptr(c.temperature),
			MaxOutputTokens:   c.maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("%w: no response from gemini API", design.ErrMalformedResponse)
	}

	prompt := strings.TrimSpace(result.Text())
	if prompt == "" {
		return "", fmt.Errorf("%w: empty completion from gemini API (finish reason %s)", design.ErrMalformedResponse, result.Candidates[0].FinishReason)
	}

	fields := []zap.Field{
		zap.String("model", c.model),
		zap.String("finish_reason", string(result.Candidates[0].FinishReason)),
	}
	if usage := result.UsageMetadata; usage != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", usage.PromptTokenCount),
			zap.Int32("completion_tokens", usage.CandidatesTokenCount),
			zap.Int32("total_tokens", usage.TotalTokenCount),
		)
	}
	c.logger.Debug("gemini completion", fields...)

	return prompt, nil
}
