package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tattty/internal/design"
)

const (
	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.1-70b-versatile"
	defaultTemperature = 0.8
	defaultMaxTokens   = 1000
)

// APIError is a non-2xx answer from the chat completions endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq API error: %d - %s", e.StatusCode, e.Body)
}

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("groq api key is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
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
		apiKey:      opts.APIKey,
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient:  opts.HTTPClient,
		logger:      logger,
	}, nil
}

// SynthesizePrompt turns the questionnaire answers into an image prompt.
func (c *Client) SynthesizePrompt(ctx context.Context, story design.UserStory) (string, error) {
	resp, err := c.Complete(ctx, []Message{
		{Role: RoleSystem, Content: design.SystemInstruction(story)},
		{Role: RoleUser, Content: design.UserInstruction(story)},
	})
	if err != nil {
		return "", err
	}

	prompt := strings.TrimSpace(resp.Text)
	if prompt == "" {
		return "", fmt.Errorf("%w: empty completion from groq API", design.ErrMalformedResponse)
	}
	return prompt, nil
}

// Complete sends messages and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message) (Response, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("groq request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return Response{}, &APIError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(rawBody))}
	}

	var decoded chatResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Response{}, fmt.Errorf("%w: decode groq response: %v", design.ErrMalformedResponse, err)
	}
	if len(decoded.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: no response from groq API", design.ErrMalformedResponse)
	}

	first := decoded.Choices[0]
	c.logger.Debug("groq completion",
		zap.String("model", c.model),
		zap.String("finish_reason", first.FinishReason),
		zap.Int("prompt_tokens", decoded.Usage.PromptTokens),
		zap.Int("completion_tokens", decoded.Usage.CompletionTokens),
		zap.Int("total_tokens", decoded.Usage.TotalTokens),
	)

	return Response{
		Text:         first.Message.Content,
		FinishReason: first.FinishReason,
		Usage:        decoded.Usage,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

type choice struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}
