package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tattty/internal/design"
)

var testStory = design.UserStory{
	LifeJourney:       "Survived a long illness",
	ValuesPassion:     "Family and music",
	InspirationMemory: "Summers at the lake",
	FutureVision:      "Teaching kids to play guitar",
	Placement:         "Shoulder",
	Size:              "Medium (4-6 inches)",
	Color:             "Blue Tones",
	Style:             "Fine Line",
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{APIKey: "gsk-test", BaseURL: url, HTTPClient: http.DefaultClient})
	require.NoError(t, err)
	return c
}

func TestSynthesizePrompt(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "  Professional tattoo design artwork of a lighthouse  "}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 400, "completion_tokens": 120, "total_tokens": 520}
		}`))
	}))
	defer server.Close()

	prompt, err := newTestClient(t, server.URL).SynthesizePrompt(context.Background(), testStory)
	require.NoError(t, err)
	assert.Equal(t, "Professional tattoo design artwork of a lighthouse", prompt)

	assert.Equal(t, "llama-3.1-70b-versatile", got.Model)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	assert.Equal(t, 1000, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, RoleUser, got.Messages[1].Role)
	assert.Contains(t, got.Messages[1].Content, "Summers at the lake")
	assert.Contains(t, got.Messages[0].Content, "Fine Line")
}

func TestSynthesizePromptErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
		apiErr    bool
	}{
		{name: "non-2xx", status: http.StatusTooManyRequests, body: `{"error":"rate limited"}`, apiErr: true},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", apiErr: true},
		{name: "no choices", status: http.StatusOK, body: `{"choices": []}`, malformed: true},
		{name: "blank content", status: http.StatusOK, body: `{"choices": [{"message": {"content": "  "}}]}`, malformed: true},
		{name: "not json", status: http.StatusOK, body: `<html>`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).SynthesizePrompt(context.Background(), testStory)
			require.Error(t, err)

			assert.Equal(t, tt.malformed, errors.Is(err, design.ErrMalformedResponse))

			var apiErr *APIError
			assert.Equal(t, tt.apiErr, errors.As(err, &apiErr))
			if tt.apiErr {
				assert.Equal(t, tt.status, apiErr.StatusCode)
				assert.Contains(t, err.Error(), tt.body)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{HTTPClient: http.DefaultClient})
	assert.Error(t, err)

	_, err = New(Options{APIKey: "k"})
	assert.Error(t, err)

	c, err := New(Options{APIKey: "k", BaseURL: "https://example.test/v1/", HTTPClient: http.DefaultClient, Temperature: 0.5, MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/v1", c.baseURL)
	assert.InDelta(t, 0.5, c.temperature, 1e-9)
	assert.Equal(t, 64, c.maxTokens)
}
