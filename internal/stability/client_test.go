package stability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tattty/internal/design"
)

type capturedForm struct {
	mu     sync.Mutex
	values map[string][]string
	header http.Header
	path   string
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *capturedForm) {
	t.Helper()
	captured := &capturedForm{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.mu.Lock()
		defer captured.mu.Unlock()
		captured.header = r.Header.Clone()
		captured.path = r.URL.Path
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			captured.values = r.MultipartForm.Value
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, captured
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{APIKey: "sk-test", BaseURL: url, HTTPClient: http.DefaultClient})
	require.NoError(t, err)
	return c
}

func TestSynthesizeImage(t *testing.T) {
	server, captured := newServer(t, http.StatusOK, `{"image":"iVBORw0KGgo=","seed":4242,"finish_reason":"CONTENT_FILTERED"}`)

	art, err := newTestClient(t, server.URL).SynthesizeImage(context.Background(), design.ImageRequest{
		Prompt:       "Professional tattoo design artwork of a compass",
		AspectRatio:  design.Ratio2x3,
		Seed:         4242,
		OutputFormat: design.FormatPNG,
	})
	require.NoError(t, err)

	assert.Equal(t, "iVBORw0KGgo=", art.Image)
	assert.Equal(t, int64(4242), art.Seed)
	assert.Equal(t, "CONTENT_FILTERED", art.FinishReason)

	assert.Equal(t, "/v2beta/stable-image/generate/ultra", captured.path)
	assert.Equal(t, "Bearer sk-test", captured.header.Get("Authorization"))
	assert.Equal(t, "application/json", captured.header.Get("Accept"))
	assert.Equal(t, []string{"Professional tattoo design artwork of a compass"}, captured.values["prompt"])
	assert.Equal(t, []string{"2:3"}, captured.values["aspect_ratio"])
	assert.Equal(t, []string{"4242"}, captured.values["seed"])
	assert.Equal(t, []string{"png"}, captured.values["output_format"])
	assert.Equal(t, []string{design.NegativePrompt}, captured.values["negative_prompt"])
}

func TestSynthesizeImageOptionalFields(t *testing.T) {
	server, captured := newServer(t, http.StatusOK, `{"image":"AAAA"}`)

	art, err := newTestClient(t, server.URL).SynthesizeImage(context.Background(), design.ImageRequest{
		Prompt: "Professional tattoo design artwork",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), art.Seed)
	assert.Equal(t, design.FinishSuccess, art.FinishReason)

	_, hasSeed := captured.values["seed"]
	assert.False(t, hasSeed, "zero seed must not be sent")
	_, hasRatio := captured.values["aspect_ratio"]
	assert.False(t, hasRatio)
	assert.Equal(t, []string{"png"}, captured.values["output_format"])
}

func TestSynthesizeImageKeepsRequestedSeed(t *testing.T) {
	server, _ := newServer(t, http.StatusOK, `{"image":"AAAA","finish_reason":"SUCCESS"}`)

	art, err := newTestClient(t, server.URL).SynthesizeImage(context.Background(), design.ImageRequest{
		Prompt: "Professional tattoo design artwork",
		Seed:   31337,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(31337), art.Seed)
}

func TestSynthesizeImageErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		server, _ := newServer(t, http.StatusForbidden, `{"name":"content_moderation"}`)
		_, err := newTestClient(t, server.URL).SynthesizeImage(context.Background(), design.ImageRequest{Prompt: "p"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		assert.Equal(t, `stability AI API error: 403 - {"name":"content_moderation"}`, err.Error())
		assert.False(t, errors.Is(err, design.ErrMalformedResponse))
	})

	t.Run("missing image", func(t *testing.T) {
		server, _ := newServer(t, http.StatusOK, `{"seed": 1}`)
		_, err := newTestClient(t, server.URL).SynthesizeImage(context.Background(), design.ImageRequest{Prompt: "p"})
		assert.ErrorIs(t, err, design.ErrMalformedResponse)
	})

	t.Run("empty prompt", func(t *testing.T) {
		c := newTestClient(t, "http://127.0.0.1:1")
		_, err := c.SynthesizeImage(context.Background(), design.ImageRequest{Prompt: " "})
		assert.EqualError(t, err, "prompt is empty")
	})
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{HTTPClient: http.DefaultClient})
	assert.Error(t, err)

	c, err := New(Options{APIKey: "k", HTTPClient: http.DefaultClient})
	require.NoError(t, err)
	assert.Equal(t, "https://api.stability.ai", c.baseURL)
}
