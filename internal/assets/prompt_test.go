package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"brandforge/internal/brand"
)

func symbolSpec() brand.LogoSpec {
	return brand.LogoSpec{
		LogoType:     "symbol",
		Form:         "interlocking contour lines forming a ridge",
		Composition:  "centered, generous padding",
		ColorHex:     "#2D6A4F",
		ColorName:    "Deep Forest",
		FillStyle:    "outline_only",
		StrokeWeight: "thin",
		RenderStyle:  "clean vector, flat",
		Metaphor:     "elevation and provenance",
		Avoid:        []string{"coffee beans", "steam swirls"},
	}
}

func TestLogoPromptSymbolStack(t *testing.T) {
	got := LogoPrompt(symbolSpec(), "Northbind", "")

	assert.Contains(t, got, "[LOGO TYPE]: symbol, standalone mark, no text")
	assert.Contains(t, got, "[FORM]: interlocking contour lines forming a ridge")
	assert.Contains(t, got, "[COLOR]: outline only, thin stroke, transparent interior, Deep Forest #2D6A4F, monochrome single-color only")
	assert.Contains(t, got, "[RENDER]: clean vector, flat, centered, generous padding")
	assert.Contains(t, got, "[METAPHOR]: elevation and provenance")
	assert.NotContains(t, got, "[TYPOGRAPHY]")
	assert.NotContains(t, got, "[STYLE DNA]")

	// Symbol marks must ban letterforms and the hard cliches.
	forbidden := got[strings.Index(got, "[FORBIDDEN]"):]
	assert.Contains(t, forbidden, "text, letterforms, words")
	assert.Contains(t, forbidden, "coffee beans")
	assert.Contains(t, forbidden, "lightbulb")
	assert.Contains(t, forbidden, "gradient")
	assert.Contains(t, forbidden, "multiple colors")
	// "steam swirls" already covers the cliche list's "steam".
	assert.Equal(t, 1, strings.Count(forbidden, "steam"))
}

func TestLogoPromptLogotypeTypography(t *testing.T) {
	spec := symbolSpec()
	spec.LogoType = "logotype"
	spec.Form = "wordmark with tightened tracking"
	spec.FillStyle = "solid_fill"
	spec.TypographyTreatment = "high-contrast serif similar to Didot, with flared terminals"

	got := LogoPrompt(spec, "Northbind", "")

	assert.Contains(t, got, "[LOGO TYPE]: brand logotype, 'Northbind' as pure typography")
	assert.Contains(t, got, "[COLOR]: solid flat fill, Deep Forest #2D6A4F")
	assert.Contains(t, got, "[TYPOGRAPHY]: high-contrast serif")
	assert.NotContains(t, got, "Didot")
	assert.NotContains(t, got, "similar to")
	assert.Contains(t, got, "flared terminals")
	// Logotypes carry text, so no letterform ban.
	assert.NotContains(t, got, "letterforms")
}

func TestLogoPromptLettermarkUsesBrandInitial(t *testing.T) {
	spec := symbolSpec()
	spec.LogoType = "lettermark"
	spec.Form = "a bold uppercase B built from roasting-drum curves"

	got := LogoPrompt(spec, "Quill & Co", "")

	assert.Contains(t, got, "[LOGO TYPE]: lettermark logo, single letter mark")
	assert.Contains(t, got, "uppercase Q")
	assert.NotContains(t, got, "uppercase B")
}

func TestLogoPromptLettermarkPrefixesWhenNoLetterSlot(t *testing.T) {
	spec := symbolSpec()
	spec.LogoType = "lettermark"
	spec.Form = "rounded monogram in a circular frame"

	got := LogoPrompt(spec, "Zephyr", "")

	assert.Contains(t, got, "[FORM]: uppercase Z, rounded monogram in a circular frame")
}

func TestLogoPromptStyleDNALeadsAndReplacesRenderStyle(t *testing.T) {
	got := LogoPrompt(symbolSpec(), "Northbind", "thin stroke weight, sharp corners, geometric shapes")

	lines := strings.Split(got, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "[STYLE DNA]: MUST MATCH: thin stroke weight"))
	assert.Contains(t, got, "[RENDER]: centered, generous padding")
	assert.NotContains(t, got, "clean vector, flat")
}

func TestLogoPromptStripsDimensions(t *testing.T) {
	spec := symbolSpec()
	spec.Form = "mark sized 1024x1024 px with 2px hairlines at 12pt"

	got := LogoPrompt(spec, "Northbind", "")

	assert.NotContains(t, got, "px")
	assert.NotContains(t, got, "pt")
	assert.NotContains(t, got, "1024")
}

func TestLogoPromptSkipsEmptyMetaphor(t *testing.T) {
	spec := symbolSpec()
	spec.Metaphor = "Abstract"
	assert.NotContains(t, LogoPrompt(spec, "Northbind", ""), "[METAPHOR]")

	spec.Metaphor = "n/a"
	assert.NotContains(t, LogoPrompt(spec, "Northbind", ""), "[METAPHOR]")
}

func TestLogoPromptDoesNotDuplicateBans(t *testing.T) {
	spec := symbolSpec()
	spec.Avoid = []string{"gradients", "text of any kind"}

	got := LogoPrompt(spec, "Northbind", "")
	forbidden := got[strings.Index(got, "[FORBIDDEN]"):]

	assert.Equal(t, 1, strings.Count(forbidden, "gradient"))
	assert.Equal(t, 1, strings.Count(forbidden, "text"))
}

func TestPatternPrompt(t *testing.T) {
	spec := brand.PatternSpec{
		Motif:              "offset contour lines",
		DensityScale:       "medium",
		PrimaryColorHex:    "#2D6A4F",
		SecondaryColorHex:  "none",
		BackgroundColorHex: "#F4EFE6",
		OpacityNotes:       "solid",
		RenderStyle:        "monoline vector",
		Mood:               "calm",
		Avoid:              []string{"coffee beans", "gradients"},
	}

	got := PatternPrompt(spec)

	assert.Contains(t, got, "[MOTIF]: seamless repeating pattern tile, offset contour lines, density medium")
	assert.Contains(t, got, "[COLOR]: primary motif #2D6A4F, background #F4EFE6")
	assert.NotContains(t, got, "secondary accent")
	assert.NotContains(t, got, "solid")
	assert.Contains(t, got, "[RENDER]: monoline vector, calm")
	assert.Contains(t, got, "[TILING]: all 4 edges align perfectly")
	assert.Contains(t, got, "[FORBIDDEN]: coffee beans, gradients")
}

func TestPatternPromptIncludesSecondaryAndOpacity(t *testing.T) {
	spec := brand.PatternSpec{
		Motif:              "scattered seeds",
		PrimaryColorHex:    "#C84B31",
		SecondaryColorHex:  "#E8B04B",
		BackgroundColorHex: "#1B1B1B",
		OpacityNotes:       "motif at 30% opacity",
		RenderStyle:        "flat",
	}

	got := PatternPrompt(spec)

	assert.Contains(t, got, "secondary accent #E8B04B")
	assert.Contains(t, got, "motif at 30% opacity")
	assert.Contains(t, got, "[RENDER]: flat")
}

func TestBackgroundPrompt(t *testing.T) {
	spec := brand.BackgroundSpec{
		SceneType:       "macro_texture",
		Description:     "raw linen weave under raking light.",
		PrimaryColorHex: "#F4EFE6",
		AccentColorHex:  "none",
		Lighting:        "low warm side light",
		Composition:     "texture fills the frame",
		Texture:         "coarse woven fiber",
		Mood:            "quiet, tactile",
		Avoid:           []string{"text", "logos"},
	}

	got := BackgroundPrompt(spec)

	assert.Contains(t, got, "A close-up macro texture photograph: raw linen weave under raking light.")
	assert.Contains(t, got, "Composition: texture fills the frame.")
	assert.Contains(t, got, "Color palette: dominant color #F4EFE6.")
	assert.NotContains(t, got, "accent")
	assert.Contains(t, got, "Lighting: low warm side light. Texture: coarse woven fiber. Mood: quiet, tactile.")
	assert.Contains(t, got, "Wide cinematic format filling the entire frame edge-to-edge, close-up macro texture photograph rendering quality.")
	assert.Contains(t, got, "Absolutely no: text, logos.")
}

func TestBackgroundPromptSkipsDefaultTexture(t *testing.T) {
	spec := brand.BackgroundSpec{
		SceneType:       "abstract_field",
		Description:     "slow gradient field",
		PrimaryColorHex: "#1D3557",
		AccentColorHex:  "#E8B04B",
		Texture:         "smooth digital",
		Mood:            "calm",
	}

	got := BackgroundPrompt(spec)

	assert.Contains(t, got, "A high-end abstract digital art: slow gradient field.")
	assert.Contains(t, got, "accent #E8B04B")
	assert.NotContains(t, got, "Texture:")
	assert.Contains(t, got, "Mood: calm.")
}

func TestBackgroundPromptUnknownSceneType(t *testing.T) {
	spec := brand.BackgroundSpec{
		SceneType:       "hologram",
		Description:     "drifting light planes",
		PrimaryColorHex: "#0B0B0F",
	}

	got := BackgroundPrompt(spec)

	assert.Contains(t, got, "A premium digital artwork: drifting light planes.")
}

func TestCleanTypographyEdgeCases(t *testing.T) {
	assert.Equal(t, "", cleanTypography("N/A"))
	assert.Equal(t, "", cleanTypography("  "))
	assert.Equal(t, "", cleanTypography("Garamond"))
	assert.Equal(t, "geometric sans, wide tracking", cleanTypography("geometric sans, Futura, wide tracking"))
}
