package design

import (
	"fmt"
	"strings"
)

const (
	PromptLead    = "Professional tattoo design artwork"
	PromptTrailer = "clean line art, white background, tattoo stencil ready"
)

// NegativePrompt is sent with every image request to keep the output a
// standalone stencil-style artwork instead of a photo of skin.
const NegativePrompt = "photograph, photo, realistic person, human skin, existing tattoo, tattoo on person, " +
	"body, flesh, realistic human, portrait, photography, camera, selfie, people, faces, hands, arms, legs, " +
	"torso, background clutter, text, watermark, signature, blurry, low quality, distorted, deformed, nsfw, nude, sexual"

// SystemInstruction describes the output contract for the text model. Style
// and color are embedded so the structure section reads concretely.
func SystemInstruction(story UserStory) string {
	var b strings.Builder
	b.Grow(2048)

	b.WriteString("You are an expert tattoo design prompt engineer. Your job is to create detailed prompts for an image generation model that will produce professional tattoo artwork designs.\n\n")

	b.WriteString("CRITICAL REQUIREMENTS:\n")
	b.WriteString("- Generate TATTOO ARTWORK DESIGNS, not photos of tattoos on people\n")
	b.WriteString("- Output should be clean tattoo line art/design on white background\n")
	b.WriteString("- Focus on symbolic, artistic representations\n")
	b.WriteString("- Include specific artistic style directions\n")
	b.WriteString("- Ensure designs are suitable for actual tattooing\n\n")

	b.WriteString("PROMPT STRUCTURE:\n")
	fmt.Fprintf(&b, "1. Start with %q\n", PromptLead)
	b.WriteString("2. Describe the symbolic elements based on the user's story\n")
	fmt.Fprintf(&b, "3. Specify the artistic style (%s)\n", strings.TrimSpace(story.Style))
	fmt.Fprintf(&b, "4. Include color specifications (%s)\n", strings.TrimSpace(story.Color))
	b.WriteString("5. Add technical details for tattoo quality\n")
	fmt.Fprintf(&b, "6. End with %q\n\n", PromptTrailer)

	b.WriteString("AVOID IN PROMPTS:\n")
	b.WriteString("- \"photo\", \"photograph\", \"realistic person\", \"human skin\"\n")
	b.WriteString("- \"tattoo on person\", \"body\", \"flesh\", \"arms\", \"legs\"\n")
	b.WriteString("- Any references to existing tattoos or people with tattoos\n\n")

	b.WriteString("CREATE SYMBOLIC REPRESENTATIONS:\n")
	b.WriteString("- Transform personal stories into visual metaphors\n")
	b.WriteString("- Use nature, geometric, abstract elements\n")
	b.WriteString("- Focus on meaningful symbols that represent their journey")

	return b.String()
}

// UserInstruction embeds all eight answers verbatim followed by the output
// directives.
func UserInstruction(story UserStory) string {
	var b strings.Builder
	b.Grow(2048)

	b.WriteString("Create an image generation prompt for a tattoo design based on this person's story:\n\n")

	b.WriteString("PERSONAL STORY:\n")
	fmt.Fprintf(&b, "Life Journey: %s\n", story.LifeJourney)
	fmt.Fprintf(&b, "Values & Passion: %s\n", story.ValuesPassion)
	fmt.Fprintf(&b, "Inspiration & Memory: %s\n", story.InspirationMemory)
	fmt.Fprintf(&b, "Future Vision: %s\n\n", story.FutureVision)

	b.WriteString("DESIGN SPECIFICATIONS:\n")
	fmt.Fprintf(&b, "Placement: %s\n", story.Placement)
	fmt.Fprintf(&b, "Size: %s\n", story.Size)
	fmt.Fprintf(&b, "Color: %s\n", story.Color)
	fmt.Fprintf(&b, "Style: %s\n\n", story.Style)

	b.WriteString("Generate a detailed prompt that will create a professional tattoo design artwork. The prompt should:\n")
	fmt.Fprintf(&b, "1. Start with %q\n", PromptLead)
	b.WriteString("2. Transform their story into symbolic visual elements\n")
	fmt.Fprintf(&b, "3. Specify %s artistic style\n", story.Style)
	fmt.Fprintf(&b, "4. Include %s color scheme\n", story.Color)
	fmt.Fprintf(&b, "5. Be optimized for %s placement\n", story.Placement)
	fmt.Fprintf(&b, "6. End with %q\n\n", PromptTrailer)

	b.WriteString("Make this a complete, detailed prompt that the image model can use to generate a beautiful tattoo design.")

	return b.String()
}
