package design

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserInstruction(t *testing.T) {
	s := completeStory()
	got := UserInstruction(s)

	for _, field := range Fields() {
		assert.Contains(t, got, s.Get(field), field)
	}
	assert.Contains(t, got, `Start with "Professional tattoo design artwork"`)
	assert.Contains(t, got, `End with "clean line art, white background, tattoo stencil ready"`)
	assert.Contains(t, got, "Specify Minimalist artistic style")
	assert.Contains(t, got, "Include Black & Gray color scheme")
	assert.Contains(t, got, "Be optimized for Forearm placement")
}

func TestSystemInstruction(t *testing.T) {
	got := SystemInstruction(completeStory())

	assert.Contains(t, got, "not photos of tattoos on people")
	assert.Contains(t, got, "white background")
	assert.Contains(t, got, "visual metaphors")
	assert.Contains(t, got, "Specify the artistic style (Minimalist)")
	assert.Contains(t, got, "Include color specifications (Black & Gray)")
	assert.True(t, strings.HasPrefix(got, "You are an expert tattoo design prompt engineer."))
}

func TestNegativePrompt(t *testing.T) {
	for _, term := range []string{"photograph", "human skin", "tattoo on person", "watermark", "text", "nsfw", "low quality"} {
		assert.Contains(t, NegativePrompt, term)
	}
	assert.NotContains(t, NegativePrompt, "  ")
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,QUJD", DataURL(FormatPNG, "QUJD"))
	assert.Equal(t, "data:image/jpeg;base64,QUJD", DataURL(FormatJPEG, "QUJD"))
	assert.Equal(t, "data:image/png;base64,QUJD", DataURL("", "QUJD"))
}
