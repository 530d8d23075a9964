package director

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/model"
)

func testBrief() *brand.Brief {
	return &brand.Brief{
		BrandName:          "Northbind",
		ProductDescription: "Specialty coffee roaster sourcing single-origin highland lots",
		TargetAudience:     "design-literate urban professionals",
		Tone:               "assured, warm, specific",
		Keywords:           []string{"terroir", "slow"},
	}
}

func makeDirection(n int, name, logoType, primaryHex string) brand.BrandDirection {
	d := brand.BrandDirection{
		OptionNumber:  n,
		OptionType:    brand.OptionTypeFor(n),
		DirectionName: name,
		Rationale:     "Earns category trust while owning a territory competitors ignore.",
		Colors: []brand.ColorSwatch{
			{Hex: primaryHex, Role: brand.RolePrimary, Name: "ink"},
			{Hex: "#1A1A1A", Role: brand.RoleNeutralDark, Name: "char"},
			{Hex: "#F5F0E8", Role: brand.RoleNeutralLight, Name: "bone"},
			{Hex: "#D9A441", Role: brand.RoleAccent, Name: "brass"},
		},
		TypographyPrimary:   "grotesque with editorial weight",
		TypographySecondary: "humanist text face",
		GraphicStyle:        "restrained geometry with one expressive gesture",
		LogoConcept:         "Conceptual territory: terroir contour. It maps origin without showing a bean.",
		LogoSpec: brand.LogoSpec{
			LogoType:            logoType,
			Form:                "three nested contour lines",
			Composition:         "asymmetric stack, slightly off-center",
			ColorHex:            primaryHex,
			ColorName:           "ink",
			FillStyle:           "solid_fill",
			StrokeWeight:        "medium",
			TypographyTreatment: "N/A",
			RenderStyle:         "clean vector, crisp edges",
			Metaphor:            "altitude and patience",
			Avoid:               []string{"text", "letterforms", "words"},
		},
		PatternSpec: brand.PatternSpec{
			Motif:              "contour line fragments",
			DensityScale:       "sparse, large repeat",
			PrimaryColorHex:    primaryHex,
			SecondaryColorHex:  "none",
			BackgroundColorHex: "#F5F0E8",
			OpacityNotes:       "ten percent tint over a light ground",
			RenderStyle:        "monoline vector",
			Mood:               "calm, assured",
		},
		BackgroundSpec: brand.BackgroundSpec{
			SceneType:       "abstract_field",
			Description:     "soft gradient field with faint contour shadows",
			PrimaryColorHex: primaryHex,
			AccentColorHex:  "none",
			Lighting:        "diffuse, even",
			Composition:     "clear center, detail at the edges",
			Texture:         "matte paper grain",
			Mood:            "quiet confidence",
		},
		Tagline:          "Grown slow, poured with intent",
		AdSlogan:         "Altitude in every cup",
		AnnouncementCopy: "Meet the roaster that maps every cup back to the hillside it came from.",
	}
	if logoType == brand.LogoLogotype || logoType == brand.LogoCombination {
		d.LogoSpec.TypographyTreatment = "custom grotesque wordmark with clipped terminals"
		d.LogoSpec.Avoid = []string{"symbols", "decorative elements"}
	}
	return d
}

// makeDirections builds a fully valid four-slot output. Logo types
// are all distinct, so distinctness holds whatever the hue families
// resolve to.
func makeDirections() *brand.BrandDirectionsOutput {
	return &brand.BrandDirectionsOutput{
		BrandSummary: "A specialty roaster trading on provenance instead of ritual.",
		Directions: []brand.BrandDirection{
			makeDirection(1, "Highland Ledger", brand.LogoSymbol, "#C84B31"),
			makeDirection(2, "Quiet Terroir", brand.LogoAbstractMark, "#2D6A4F"),
			makeDirection(3, "Contour and Crema", brand.LogoLogotype, "#1D3557"),
			makeDirection(4, "The Pause", brand.LogoLettermark, "#6D28D9"),
		},
	}
}

func directionsJSON(t *testing.T, out *brand.BrandDirectionsOutput) string {
	t.Helper()
	b, err := json.Marshal(out)
	require.NoError(t, err)
	return string(b)
}

func writeTestImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, model.TestPNG(4, 4, color.Gray{Y: 0x99}), 0o644))
	return path
}

func TestGenerateDirectionsParsesValidOutput(t *testing.T) {
	text := &model.MockTextClient{Responses: []string{directionsJSON(t, makeDirections())}}
	d := New(text, &model.MockVisionClient{}, nil)

	out, err := d.GenerateDirections(context.Background(), Request{Brief: testBrief()})
	require.NoError(t, err)
	require.Len(t, out.Directions, 4)

	opt3, ok := out.ByOption(3)
	require.True(t, ok)
	assert.Equal(t, brand.OptionHybrid, opt3.OptionType)
	assert.Equal(t, brand.LogoLogotype, opt3.LogoSpec.LogoType)

	require.Equal(t, 1, text.CallCount())
	req := text.Calls()[0]
	assert.True(t, req.JSONOutput)
	assert.Contains(t, req.SystemPrompt, "CARDINAL RULE")
	assert.Contains(t, req.SystemPrompt, "THE DIVERGENCE RULE")
	assert.Contains(t, req.UserPrompt, "## BRAND BRIEF")
	assert.Contains(t, req.UserPrompt, "Northbind")
}

func TestGenerateDirectionsInjectsIndustryConstraints(t *testing.T) {
	text := &model.MockTextClient{Responses: []string{directionsJSON(t, makeDirections())}}
	d := New(text, &model.MockVisionClient{}, nil)

	_, err := d.GenerateDirections(context.Background(), Request{
		Brief:           testBrief(),
		ResearchContext: "## MARKET RESEARCH CONTEXT\n\nCrowded shelf, muted palettes.",
	})
	require.NoError(t, err)

	prompt := text.Calls()[0].UserPrompt
	assert.Contains(t, prompt, "Crowded shelf, muted palettes.")
	assert.Contains(t, prompt, "Coffee FORBIDDEN visuals:")
	assert.Contains(t, prompt, "steam swirls rising from cup")
	assert.Contains(t, prompt, "## LATERAL TERRITORIES")
	assert.Contains(t, prompt, "## THE 4-DIRECTION DIVERSITY RULE")
}

func TestGenerateDirectionsNormalizesSlotSpelling(t *testing.T) {
	out := makeDirections()
	raw := directionsJSON(t, out)
	raw = strings.Replace(raw, `"Wild-Card"`, `"Wild Card"`, 1)
	raw = strings.Replace(raw, `"Market-Aligned"`, `"market-aligned"`, 1)

	text := &model.MockTextClient{Responses: []string{raw}}
	d := New(text, &model.MockVisionClient{}, nil)

	got, err := d.GenerateDirections(context.Background(), Request{Brief: testBrief()})
	require.NoError(t, err)
	assert.Equal(t, 1, text.CallCount(), "spelling variants must not burn a repair attempt")

	opt4, _ := got.ByOption(4)
	assert.Equal(t, brand.OptionWildCard, opt4.OptionType)
	opt1, _ := got.ByOption(1)
	assert.Equal(t, brand.OptionMarketAligned, opt1.OptionType)
}

func TestGenerateDirectionsRepairsThenSucceeds(t *testing.T) {
	broken := makeDirections()
	broken.Directions = broken.Directions[:3]

	text := &model.MockTextClient{Responses: []string{
		directionsJSON(t, broken),
		directionsJSON(t, makeDirections()),
	}}
	d := New(text, &model.MockVisionClient{}, nil)

	out, err := d.GenerateDirections(context.Background(), Request{Brief: testBrief()})
	require.NoError(t, err)
	require.Len(t, out.Directions, 4)

	require.Equal(t, 2, text.CallCount())
	assert.Contains(t, text.Calls()[1].UserPrompt, "could not be used")
	assert.Contains(t, text.Calls()[1].UserPrompt, "want exactly 4")
}

func TestGenerateDirectionsInvalidAfterRepairsIsFatal(t *testing.T) {
	broken := makeDirections()
	broken.Directions[0].Colors = broken.Directions[0].Colors[:2]

	text := &model.MockTextClient{Responses: []string{directionsJSON(t, broken)}}
	d := New(text, &model.MockVisionClient{}, nil)

	_, err := d.GenerateDirections(context.Background(), Request{Brief: testBrief()})
	require.Error(t, err)
	assert.Equal(t, bferrors.KindDirectorOutputInvalid, bferrors.KindOf(err))
	assert.Equal(t, 3, text.CallCount(), "initial call plus two repair attempts")
}

func TestGenerateDirectionsTransportErrorKeepsKind(t *testing.T) {
	text := &model.MockTextClient{Errs: []error{
		fmt.Errorf("boom"), fmt.Errorf("boom"), fmt.Errorf("boom"),
	}}
	d := New(text, &model.MockVisionClient{}, nil)

	_, err := d.GenerateDirections(context.Background(), Request{Brief: testBrief()})
	require.Error(t, err)
	assert.NotEqual(t, bferrors.KindDirectorOutputInvalid, bferrors.KindOf(err))
}

func TestGenerateDirectionsAppliesLockedCopy(t *testing.T) {
	brief := testBrief()
	brief.LockedCopy = brand.LockedCopy{
		Tagline: "Roasted where it rains",
		Slogan:  "Drink the hillside",
	}

	text := &model.MockTextClient{Responses: []string{directionsJSON(t, makeDirections())}}
	d := New(text, &model.MockVisionClient{}, nil)

	out, err := d.GenerateDirections(context.Background(), Request{Brief: brief})
	require.NoError(t, err)
	for _, dir := range out.Directions {
		assert.Equal(t, "Roasted where it rains", dir.Tagline)
		assert.Equal(t, "Drink the hillside", dir.AdSlogan)
		assert.NotEmpty(t, dir.AnnouncementCopy, "unlocked fields keep the model's copy")
	}
	assert.NoError(t, out.VerifyLockedCopy(brief.LockedCopy))
	assert.Contains(t, text.Calls()[0].UserPrompt, "## PRE-WRITTEN COPY")
}

func TestGenerateDirectionsAttachesImagesThroughVision(t *testing.T) {
	dir := t.TempDir()
	brief := testBrief()
	brief.StyleRefImages = []string{writeTestImage(t, dir, "style.png")}
	brief.MoodboardImages = []string{
		writeTestImage(t, dir, "mood1.png"),
		writeTestImage(t, dir, "mood2.jpg"),
	}

	text := &model.MockTextClient{Responses: []string{directionsJSON(t, makeDirections())}}
	vision := &model.MockVisionClient{Responses: []string{directionsJSON(t, makeDirections())}}
	d := New(text, vision, nil)

	dna := brand.StyleDNA{
		StrokeWeight:    "medium",
		CornerTreatment: "sharp",
		ShapeVocabulary: "geometric",
		RenderingMedium: "clean-digital-vector",
		Complexity:      2,
		FillStyle:       "solid-fill",
	}
	_, err := d.GenerateDirections(context.Background(), Request{
		Brief:    brief,
		StyleDNA: map[string]brand.StyleDNA{brief.StyleRefImages[0]: dna},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, text.CallCount())
	require.Equal(t, 1, vision.CallCount())

	req := vision.Calls()[0]
	require.Len(t, req.Images, 3)
	assert.Equal(t, brief.StyleRefImages[0], req.Images[0].Path, "style refs attach before moodboard")
	assert.Equal(t, "image/jpeg", req.Images[2].MIME)
	assert.True(t, req.JSONOutput)

	assert.Contains(t, req.Prompt, "CARDINAL RULE", "persona folds into the vision prompt")
	assert.Contains(t, req.Prompt, "## ATTACHED IMAGES (in order)")
	assert.Contains(t, req.Prompt, "1. CRITICAL STYLE REFERENCE 1")
	assert.Contains(t, req.Prompt, "Measured attributes: medium stroke weight")
	assert.Contains(t, req.Prompt, "2. CLIENT MOODBOARD #1")
	assert.Contains(t, req.Prompt, "## STYLE REFERENCE, VISUAL RENDERING ANCHOR")
}

func TestGenerateDirectionsCapsAndDedupesAttachments(t *testing.T) {
	dir := t.TempDir()
	brief := testBrief()
	for i := 0; i < 3; i++ {
		brief.StyleRefImages = append(brief.StyleRefImages, writeTestImage(t, dir, fmt.Sprintf("style%d.png", i)))
	}
	// First moodboard entry duplicates a style ref and must be skipped.
	brief.MoodboardImages = []string{brief.StyleRefImages[0]}
	for i := 0; i < 11; i++ {
		brief.MoodboardImages = append(brief.MoodboardImages, writeTestImage(t, dir, fmt.Sprintf("mood%d.png", i)))
	}

	vision := &model.MockVisionClient{Responses: []string{directionsJSON(t, makeDirections())}}
	d := New(&model.MockTextClient{}, vision, nil)

	_, err := d.GenerateDirections(context.Background(), Request{Brief: brief})
	require.NoError(t, err)

	req := vision.Calls()[0]
	assert.Len(t, req.Images, 10, "2 style refs plus 8 moodboard images")
	assert.Contains(t, req.Prompt, "CRITICAL STYLE REFERENCE 2")
	assert.NotContains(t, req.Prompt, "CRITICAL STYLE REFERENCE 3")
	assert.Contains(t, req.Prompt, "CLIENT MOODBOARD #8")
	assert.NotContains(t, req.Prompt, "CLIENT MOODBOARD #9")
	for _, img := range req.Images {
		assert.NotEqual(t, brief.StyleRefImages[2], img.Path)
	}
}

func TestGenerateDirectionsSkipsUnreadableImages(t *testing.T) {
	brief := testBrief()
	brief.StyleRefImages = []string{"/nonexistent/style.png"}

	text := &model.MockTextClient{Responses: []string{directionsJSON(t, makeDirections())}}
	vision := &model.MockVisionClient{}
	d := New(text, vision, nil)

	_, err := d.GenerateDirections(context.Background(), Request{Brief: brief})
	require.NoError(t, err)
	assert.Equal(t, 0, vision.CallCount(), "no readable images means a plain text call")
	assert.Equal(t, 1, text.CallCount())
}

func TestRefineReportsChangedOptions(t *testing.T) {
	previous := makeDirections()

	revised := makeDirections()
	opt3, _ := revised.ByOption(3)
	opt3.DirectionName = "Ledger Lines"
	opt3.Rationale = "A complete rethink: the wordmark now carries the provenance story alone, dropping the borrowed crest language entirely."
	opt3.GraphicStyle = "typographic system with engraved ledger rules and generous margins"
	opt3.PatternSpec.Motif = "ledger rule intersections"

	text := &model.MockTextClient{Responses: []string{directionsJSON(t, revised)}}
	d := New(text, &model.MockVisionClient{}, nil)

	res, err := d.Refine(context.Background(), Request{Brief: testBrief()}, previous, "Option 3 feels derivative, push the typography harder")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, res.Changed)

	prompt := text.Calls()[0].UserPrompt
	assert.Contains(t, prompt, "## PREVIOUS DIRECTIONS")
	assert.Contains(t, prompt, "## REFINEMENT REQUEST")
	assert.Contains(t, prompt, "Option 3 feels derivative, push the typography harder")
	assert.Contains(t, prompt, "Keep what works, change what was requested.")
}

func TestRefineRequiresFeedbackAndPrevious(t *testing.T) {
	d := New(&model.MockTextClient{}, &model.MockVisionClient{}, nil)

	_, err := d.Refine(context.Background(), Request{Brief: testBrief()}, makeDirections(), "   ")
	require.Error(t, err)
	assert.Equal(t, bferrors.KindBriefInvalid, bferrors.KindOf(err))

	_, err = d.Refine(context.Background(), Request{Brief: testBrief()}, nil, "tighten it")
	require.Error(t, err)
	assert.Equal(t, bferrors.KindBriefInvalid, bferrors.KindOf(err))
}

func TestChangedOptionsIgnoresMinorDrift(t *testing.T) {
	previous := makeDirections()
	next := makeDirections()
	opt2, _ := next.ByOption(2)
	opt2.Rationale = strings.Replace(opt2.Rationale, "ignore", "overlook", 1)

	assert.Empty(t, changedOptions(previous, next), "a one-word rewording stays under the change ratio")
}
