package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"go.uber.org/zap"

	"tattty/internal/design"
)

// SeedRange is the exclusive upper bound of generated seeds.
const SeedRange = 1_000_000

type PromptSynthesizer interface {
	SynthesizePrompt(ctx context.Context, story design.UserStory) (string, error)
}

type ImageSynthesizer interface {
	SynthesizeImage(ctx context.Context, req design.ImageRequest) (design.Artwork, error)
}

type Options struct {
	Prompts      PromptSynthesizer
	Images       ImageSynthesizer
	Seed         func() int64
	OutputFormat string
	Logger       *zap.Logger
}

type Metadata struct {
	Placement    string `json:"placement"`
	Size         string `json:"size"`
	Style        string `json:"style"`
	Color        string `json:"color"`
	FinishReason string `json:"finishReason"`
}

type Result struct {
	ImageURL    string             `json:"imageUrl"`
	Prompt      string             `json:"prompt"`
	Seed        int64              `json:"seed"`
	AspectRatio design.AspectRatio `json:"aspectRatio"`
	Metadata    Metadata           `json:"metadata"`
}

// Generator runs the two-call pipeline: story to prompt, prompt to artwork.
// It holds no per-request state and is safe for concurrent use.
type Generator struct {
	prompts PromptSynthesizer
	images  ImageSynthesizer
	seed    func() int64
	format  string
	logger  *zap.Logger
}

func New(opts Options) (*Generator, error) {
	if opts.Prompts == nil {
		return nil, &ConfigurationError{Component: "prompt synthesizer"}
	}
	if opts.Images == nil {
		return nil, &ConfigurationError{Component: "image synthesizer"}
	}

	seed := opts.Seed
	if seed == nil {
		seed = RandomSeed
	}

	format := strings.TrimSpace(opts.OutputFormat)
	if format == "" {
		format = design.FormatPNG
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		prompts: opts.Prompts,
		images:  opts.Images,
		seed:    seed,
		format:  format,
		logger:  logger,
	}, nil
}

func RandomSeed() int64 {
	return rand.Int64N(SeedRange)
}

func (g *Generator) Generate(ctx context.Context, story design.UserStory) (Result, error) {
	if missing := story.Missing(); len(missing) > 0 {
		return Result{}, &ValidationError{Missing: missing}
	}

	start := time.Now()

	prompt, err := g.prompts.SynthesizePrompt(ctx, story)
	if err != nil {
		return Result{}, &UpstreamError{Stage: StagePrompt, Err: err}
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, &UpstreamError{
			Stage: StagePrompt,
			Err:   fmt.Errorf("%w: prompt synthesizer returned empty text", design.ErrMalformedResponse),
		}
	}
	g.logger.Debug("design prompt ready", zap.Int("prompt_len", len(prompt)), zap.Duration("dur", time.Since(start)))

	ratio := design.ResolveAspectRatio(story.Placement)
	seed := g.seed()

	art, err := g.images.SynthesizeImage(ctx, design.ImageRequest{
		Prompt:         prompt,
		NegativePrompt: design.NegativePrompt,
		AspectRatio:    ratio,
		Seed:           seed,
		OutputFormat:   g.format,
	})
	if err != nil {
		return Result{}, &UpstreamError{Stage: StageImage, Err: err}
	}

	g.logger.Info("design generated",
		zap.String("aspect_ratio", string(ratio)),
		zap.Int64("requested_seed", seed),
		zap.Int64("seed", art.Seed),
		zap.String("finish_reason", art.FinishReason),
		zap.Duration("dur", time.Since(start)),
	)

	return Result{
		ImageURL:    design.DataURL(g.format, art.Image),
		Prompt:      prompt,
		Seed:        art.Seed,
		AspectRatio: ratio,
		Metadata: Metadata{
			Placement:    story.Placement,
			Size:         story.Size,
			Style:        story.Style,
			Color:        story.Color,
			FinishReason: art.FinishReason,
		},
	}, nil
}
