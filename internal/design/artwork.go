package design

import "errors"

// ErrMalformedResponse marks an upstream success response that carries no
// usable payload (no choices, empty text, no image).
var ErrMalformedResponse = errors.New("malformed upstream response")

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"

	FinishSuccess = "SUCCESS"
)

type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    AspectRatio
	// Seed is only forwarded when positive.
	Seed         int64
	OutputFormat string
}

// Artwork is a rendered design. Image is base64 without a data URI prefix.
type Artwork struct {
	Image        string
	Seed         int64
	FinishReason string
}

func MimeType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

func DataURL(format, base64Data string) string {
	return "data:" + MimeType(format) + ";base64," + base64Data
}
