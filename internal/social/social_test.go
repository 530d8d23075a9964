package social

import (
	"context"
	"errors"
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
		ProductDescription: "single-origin coffee roastery",
	}
}

func testDirection() *brand.BrandDirection {
	return &brand.BrandDirection{
		OptionNumber:  2,
		OptionType:    "modern_minimal",
		DirectionName: "Ember Field",
		Rationale:     "warmth without clutter",
		GraphicStyle:  "flat geometric shapes, generous whitespace",
		Colors: []brand.ColorSwatch{
			{Hex: "#2D6A4F", Role: brand.RolePrimary, Name: "Deep Forest"},
			{Hex: "#D8F3DC", Role: brand.RoleNeutralLight, Name: "Mist"},
			{Hex: "#1B1B1E", Role: brand.RoleNeutralDark, Name: "Char"},
			{Hex: "#E07A5F", Role: brand.RoleAccent, Name: "Ember"},
		},
		Tagline:          "Roasted where the light is",
		AdSlogan:         "Taste the origin",
		AnnouncementCopy: "Northbind is open: single-origin roasts, shipped the week they land.",
	}
}

// testAssets writes logo fixtures large enough to pass the
// usable-file size gate, which a tiny solid PNG does not.
func testAssets(t *testing.T) brand.DirectionAssets {
	t.Helper()
	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	transparent := filepath.Join(dir, "logo_transparent.png")
	require.NoError(t, os.WriteFile(logo, model.TestPNGGradient(24, 24), 0o644))
	require.NoError(t, os.WriteFile(transparent, model.TestPNGGradient(24, 24), 0o644))
	return brand.DirectionAssets{Logo: logo, LogoTransparent: transparent}
}

// callForPost finds the image request generated for one post by its
// envelope post_type field.
func callForPost(t *testing.T, calls []model.ImageRequest, name string) model.ImageRequest {
	t.Helper()
	marker := fmt.Sprintf("%q: %q", "post_type", name)
	for _, c := range calls {
		if strings.Contains(c.Prompt, marker) {
			return c
		}
	}
	t.Fatalf("no call for post %s", name)
	return model.ImageRequest{}
}

func TestGeneratePosts_WritesFullSet(t *testing.T) {
	img := &model.MockImageClient{}
	g := New(Config{Image: img})
	assetDir := t.TempDir()

	var seen []string
	paths, statuses, err := g.GeneratePosts(context.Background(), testBrief(), testDirection(),
		testAssets(t), assetDir, func(s PostStatus) { seen = append(seen, s.Name) })
	require.NoError(t, err)

	want := []string{"ig_post", "ig_story", "fb_post", "x_post", "linkedin_post"}
	require.Len(t, paths, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(assetDir, "social", name+".png"), paths[i])
		assert.FileExists(t, paths[i])
	}
	assert.Equal(t, want, seen)

	require.Len(t, statuses, len(want))
	for _, s := range statuses {
		assert.NoError(t, s.Err)
		assert.NotEmpty(t, s.Path)
	}
	assert.Equal(t, len(want), img.CallCount())
	assert.FileExists(t, filepath.Join(assetDir, BoardFile))
}

func TestGeneratePosts_LockedCopyWins(t *testing.T) {
	img := &model.MockImageClient{}
	g := New(Config{Image: img})
	brief := testBrief()
	brief.LockedCopy.Announcement = "Hand-roasted, finally here."
	dir := testDirection()

	_, _, err := g.GeneratePosts(context.Background(), brief, dir, testAssets(t), t.TempDir(), nil)
	require.NoError(t, err)

	igPost := callForPost(t, img.Calls(), "ig_post")
	assert.Contains(t, igPost.Prompt, `"copy": "Hand-roasted, finally here."`)
	assert.NotContains(t, igPost.Prompt, dir.AnnouncementCopy)

	// Unlocked fields still come from the direction.
	igStory := callForPost(t, img.Calls(), "ig_story")
	assert.Contains(t, igStory.Prompt, `"copy": "Roasted where the light is"`)
	xPost := callForPost(t, img.Calls(), "x_post")
	assert.Contains(t, xPost.Prompt, `"copy": "Taste the origin"`)
}

func TestGeneratePosts_GeneratesMissingCopyOnce(t *testing.T) {
	img := &model.MockImageClient{}
	text := &model.MockTextClient{Responses: []string{
		`{"tagline": "Brew beyond the bean", "slogan": "Origin first", "announcement": "The roastery is open."}`,
	}}
	g := New(Config{Image: img, Text: text})
	dir := testDirection()
	dir.Tagline = ""
	dir.AdSlogan = ""
	dir.AnnouncementCopy = ""

	_, statuses, err := g.GeneratePosts(context.Background(), testBrief(), dir, testAssets(t), t.TempDir(), nil)
	require.NoError(t, err)
	require.Len(t, statuses, 5)
	assert.Equal(t, 1, text.CallCount())

	assert.Contains(t, callForPost(t, img.Calls(), "ig_story").Prompt, `"copy": "Brew beyond the bean"`)
	assert.Contains(t, callForPost(t, img.Calls(), "x_post").Prompt, `"copy": "Origin first"`)
	assert.Contains(t, callForPost(t, img.Calls(), "ig_post").Prompt, `"copy": "The roastery is open."`)
}

func TestGeneratePosts_DeterministicCopyWithoutTextModel(t *testing.T) {
	img := &model.MockImageClient{}
	g := New(Config{Image: img})
	dir := testDirection()
	dir.Tagline = ""
	dir.AdSlogan = ""
	dir.AnnouncementCopy = ""

	_, _, err := g.GeneratePosts(context.Background(), testBrief(), dir, testAssets(t), t.TempDir(), nil)
	require.NoError(t, err)

	assert.Contains(t, callForPost(t, img.Calls(), "ig_story").Prompt, `"copy": "Northbind"`)
	assert.Contains(t, callForPost(t, img.Calls(), "ig_post").Prompt, `"copy": "Something new from Northbind."`)
}

func TestGeneratePosts_FailedPostContinues(t *testing.T) {
	img := &model.MockImageClient{
		Fn: func(ctx context.Context, req model.ImageRequest) (*model.ImageResponse, error) {
			if strings.Contains(req.Prompt, `"post_type": "x_post"`) {
				return nil, errors.New("blocked output")
			}
			return &model.ImageResponse{Data: model.TestPNG(8, 8, color.Gray{Y: 0x42}), MIME: "image/png"}, nil
		},
	}
	g := New(Config{Image: img})
	assetDir := t.TempDir()

	paths, statuses, err := g.GeneratePosts(context.Background(), testBrief(), testDirection(),
		testAssets(t), assetDir, nil)
	require.NoError(t, err)
	require.Len(t, statuses, 5)

	assert.Equal(t, "x_post", statuses[3].Name)
	assert.Equal(t, bferrors.KindAssetGenerationFailed, bferrors.KindOf(statuses[3].Err))
	assert.Empty(t, statuses[3].Path)

	assert.Len(t, paths, 4)
	for _, p := range paths {
		assert.NotContains(t, p, "x_post")
	}
	assert.FileExists(t, filepath.Join(assetDir, BoardFile))
}

func TestGeneratePosts_CancelledBeforeStart(t *testing.T) {
	img := &model.MockImageClient{}
	g := New(Config{Image: img})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, statuses, err := g.GeneratePosts(ctx, testBrief(), testDirection(), testAssets(t), t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, bferrors.IsCancellation(err))
	assert.Empty(t, paths)
	assert.Empty(t, statuses)
	assert.Zero(t, img.CallCount())
}

func TestGeneratePosts_AttachesTransparentLogo(t *testing.T) {
	img := &model.MockImageClient{}
	g := New(Config{Image: img})
	assets := testAssets(t)

	_, _, err := g.GeneratePosts(context.Background(), testBrief(), testDirection(), assets, t.TempDir(), nil)
	require.NoError(t, err)

	for _, call := range img.Calls() {
		require.Len(t, call.Images, 1)
		assert.Equal(t, assets.LogoTransparent, call.Images[0].Path)
		assert.Contains(t, call.Prompt, "## ATTACHED IMAGES")
	}
}

func TestGeneratePosts_NoLogoRendersFromPromptAlone(t *testing.T) {
	img := &model.MockImageClient{}
	g := New(Config{Image: img})

	_, statuses, err := g.GeneratePosts(context.Background(), testBrief(), testDirection(),
		brand.DirectionAssets{}, t.TempDir(), nil)
	require.NoError(t, err)
	require.Len(t, statuses, 5)

	for _, call := range img.Calls() {
		assert.Empty(t, call.Images)
		assert.NotContains(t, call.Prompt, "## ATTACHED IMAGES")
	}
}

func TestBuildPostPrompt_Envelope(t *testing.T) {
	spec := postSpecs[0] // ig_post
	prompt, err := buildPostPrompt(spec, testBrief(), testDirection(), "Launch day.", true)
	require.NoError(t, err)

	assert.Contains(t, prompt, `"IMAGE_GEN_V1"`)
	assert.Contains(t, prompt, `"task": "image_create"`)
	assert.Contains(t, prompt, `"format": "social_post_1_1"`)
	assert.Contains(t, prompt, `"width": 1080`)
	assert.Contains(t, prompt, `"ratio": "1:1"`)
	assert.Contains(t, prompt, `"name": "Northbind"`)
	assert.Contains(t, prompt, `"direction": "Ember Field"`)
	assert.Contains(t, prompt, `"primary_color": "#2D6A4F"`)
	assert.Contains(t, prompt, `"accent_color": "#E07A5F"`)
	assert.Contains(t, prompt, `"copy": "Launch day."`)
	assert.Contains(t, prompt, `"resolution": "1080x1080"`)
	assert.Contains(t, prompt, "strict 1:1 ratio, 1080x1080px")
	assert.Contains(t, prompt, "## ATTACHED IMAGES")
	assert.Contains(t, prompt, "Generate the Instagram Post now. Output only the final 1:1 image.")
}

func TestBuildPostPrompt_WideFormatAndFallbackColors(t *testing.T) {
	spec := postSpecs[3] // x_post
	dir := testDirection()
	dir.Colors = nil
	prompt, err := buildPostPrompt(spec, testBrief(), dir, "Taste the origin", false)
	require.NoError(t, err)

	assert.Contains(t, prompt, `"format": "social_post_16_9"`)
	assert.Contains(t, prompt, `"resolution": "1920x1080"`)
	assert.Contains(t, prompt, `"primary_color": "#333333"`)
	assert.Contains(t, prompt, `"secondary_color": "#666666"`)
	assert.Contains(t, prompt, `"accent_color": "#999999"`)
	assert.NotContains(t, prompt, "## ATTACHED IMAGES")
	assert.Contains(t, prompt, "Generate the X Post now. Output only the final 16:9 image.")
}

func TestResolveCopy_PriorityChain(t *testing.T) {
	g := New(Config{})
	brief := testBrief()
	brief.LockedCopy = brand.LockedCopy{Tagline: "Locked line"}
	dir := testDirection()

	rc := g.resolveCopy(context.Background(), brief, dir)
	assert.Equal(t, "Locked line", rc.Tagline)
	assert.Equal(t, dir.AdSlogan, rc.Slogan)
	assert.Equal(t, dir.AnnouncementCopy, rc.Announcement)
}

func TestResolveCopy_GenerationFailureDegrades(t *testing.T) {
	text := &model.MockTextClient{Errs: []error{errors.New("model down")}}
	g := New(Config{Text: text})
	dir := testDirection()
	dir.Tagline = ""
	dir.AdSlogan = ""
	dir.AnnouncementCopy = ""

	rc := g.resolveCopy(context.Background(), testBrief(), dir)
	assert.Equal(t, "Northbind", rc.Tagline)
	assert.Equal(t, "Northbind", rc.Slogan)
	assert.Equal(t, "Something new from Northbind.", rc.Announcement)
}
