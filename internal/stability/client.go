package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tattty/internal/design"
)

const (
	defaultBaseURL = "https://api.stability.ai"
	generatePath   = "/v2beta/stable-image/generate/ultra"
)

// APIError is a non-2xx answer from the generate endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stability AI API error: %d - %s", e.StatusCode, e.Body)
}

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("stability api key is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}, nil
}

// SynthesizeImage renders req.Prompt. An empty NegativePrompt is replaced by
// design.NegativePrompt.
func (c *Client) SynthesizeImage(ctx context.Context, req design.ImageRequest) (design.Artwork, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return design.Artwork{}, errors.New("prompt is empty")
	}

	body, contentType, err := encodeForm(req)
	if err != nil {
		return design.Artwork{}, fmt.Errorf("encode form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, body)
	if err != nil {
		return design.Artwork{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", contentType)
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("authorization", "Bearer "+c.apiKey)

	c.logger.Debug("stability generate",
		zap.Int("prompt_len", len(req.Prompt)),
		zap.String("aspect_ratio", string(req.AspectRatio)),
		zap.Int64("seed", req.Seed),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return design.Artwork{}, fmt.Errorf("stability request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return design.Artwork{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return design.Artwork{}, &APIError{StatusCode: httpResp.StatusCode, Body: strings.TrimSpace(string(rawBody))}
	}

	var decoded generateResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return design.Artwork{}, fmt.Errorf("%w: decode stability response: %v", design.ErrMalformedResponse, err)
	}
	if decoded.Image == "" {
		return design.Artwork{}, fmt.Errorf("%w: no image data received from stability AI", design.ErrMalformedResponse)
	}

	out := design.Artwork{
		Image:        decoded.Image,
		Seed:         decoded.Seed,
		FinishReason: decoded.FinishReason,
	}
	if out.FinishReason == "" {
		out.FinishReason = design.FinishSuccess
	}
	if out.Seed == 0 {
		out.Seed = req.Seed
	}
	return out, nil
}

func encodeForm(req design.ImageRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	format := req.OutputFormat
	if format == "" {
		format = design.FormatPNG
	}
	negative := req.NegativePrompt
	if negative == "" {
		negative = design.NegativePrompt
	}

	fields := [][2]string{{"prompt", req.Prompt}}
	if req.AspectRatio != "" {
		fields = append(fields, [2]string{"aspect_ratio", string(req.AspectRatio)})
	}
	if req.Seed > 0 {
		fields = append(fields, [2]string{"seed", strconv.FormatInt(req.Seed, 10)})
	}
	fields = append(fields,
		[2]string{"output_format", format},
		[2]string{"negative_prompt", negative},
	)

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

type generateResponse struct {
	Image        string `json:"image"`
	Seed         int64  `json:"seed"`
	FinishReason string `json:"finish_reason"`
}
