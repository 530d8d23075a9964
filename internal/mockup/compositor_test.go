package mockup

import (
	"context"
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
		Colors: []brand.ColorSwatch{
			{Hex: "#2D6A4F", Role: brand.RolePrimary, Name: "Deep Forest"},
			{Hex: "#D8F3DC", Role: brand.RoleNeutralLight, Name: "Pale Mint"},
			{Hex: "#1B1B1E", Role: brand.RoleNeutralDark, Name: "Char"},
			{Hex: "#E07A5F", Role: brand.RoleAccent, Name: "Ember"},
		},
	}
}

func writePhoto(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, model.TestPNG(16, 16, color.Gray{Y: 0xAA}), 0o644))
	return path
}

// writeLogo writes a logo fixture large enough to pass the usable-file
// size gate, which a tiny solid PNG does not.
func writeLogo(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, model.TestPNGGradient(24, 24), 0o644))
	return path
}

// testLibrary returns one dark and one light mockup backed by real
// photo files.
func testLibrary(t *testing.T) []Mockup {
	t.Helper()
	photoDir := t.TempDir()
	return []Mockup{
		{
			Name:  "tote_bag",
			Photo: writePhoto(t, filepath.Join(photoDir, "tote_bag_processed.jpg")),
			Zone:  "front panel of the canvas tote",
			Dark:  true,
			Scene: "Natural canvas tote bag on a bench.",
		},
		{
			Name:  "billboard",
			Photo: writePhoto(t, filepath.Join(photoDir, "billboard_processed.png")),
			Zone:  "logo zone on the right side of the board",
			Scene: "Roadside billboard at dusk.",
		},
	}
}

func testAssets(t *testing.T) brand.DirectionAssets {
	t.Helper()
	logoDir := t.TempDir()
	return brand.DirectionAssets{
		Logo:            writeLogo(t, filepath.Join(logoDir, "logo.png")),
		LogoWhite:       writeLogo(t, filepath.Join(logoDir, "logo_white.png")),
		LogoTransparent: writeLogo(t, filepath.Join(logoDir, "logo_transparent.png")),
	}
}

func callWithScene(t *testing.T, calls []model.ImageRequest, scene string) model.ImageRequest {
	t.Helper()
	for _, call := range calls {
		if strings.Contains(call.Prompt, scene) {
			return call
		}
	}
	t.Fatalf("no image call mentions scene %q", scene)
	return model.ImageRequest{}
}

func TestComposite_WritesAllItems(t *testing.T) {
	img := &model.MockImageClient{}
	c := New(Config{Image: img, Library: testLibrary(t)})
	assetDir := t.TempDir()

	var seen []string
	paths, statuses, err := c.Composite(context.Background(), testBrief(), testDirection(), testAssets(t), assetDir,
		func(s ItemStatus) { seen = append(seen, s.Name) })
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	require.Len(t, paths, 2)

	// Paths follow library order regardless of completion order.
	assert.Equal(t, filepath.Join(assetDir, "mockups", "tote_bag_composite.png"), paths[0])
	assert.Equal(t, filepath.Join(assetDir, "mockups", "billboard_composite.png"), paths[1])
	for _, p := range paths {
		assert.FileExists(t, p)
	}
	for _, s := range statuses {
		assert.NoError(t, s.Err)
		assert.False(t, s.Skipped)
	}
	assert.ElementsMatch(t, []string{"tote_bag", "billboard"}, seen)
	assert.Equal(t, 2, img.CallCount())
}

func TestComposite_DarkSurfaceGetsWhiteLogo(t *testing.T) {
	img := &model.MockImageClient{}
	lib := testLibrary(t)
	assets := testAssets(t)
	c := New(Config{Image: img, Library: lib})

	_, _, err := c.Composite(context.Background(), testBrief(), testDirection(), assets, t.TempDir(), nil)
	require.NoError(t, err)

	dark := callWithScene(t, img.Calls(), "canvas tote bag")
	require.Len(t, dark.Images, 2)
	assert.Equal(t, lib[0].Photo, dark.Images[0].Path)
	assert.Equal(t, assets.LogoWhite, dark.Images[1].Path)
	assert.Contains(t, dark.Prompt, "(logo_white)")

	light := callWithScene(t, img.Calls(), "Roadside billboard")
	require.Len(t, light.Images, 2)
	assert.Equal(t, assets.LogoTransparent, light.Images[1].Path)
	assert.Contains(t, light.Prompt, "(logo_transparent)")
}

func TestComposite_LogoFallbackChain(t *testing.T) {
	img := &model.MockImageClient{}
	lib := testLibrary(t)[:1] // dark item only
	assets := testAssets(t)
	assets.LogoWhite = ""
	// A stub under the size floor must not be attached.
	require.NoError(t, os.WriteFile(assets.LogoTransparent, []byte("stub"), 0o644))

	c := New(Config{Image: img, Library: lib})
	_, statuses, err := c.Composite(context.Background(), testBrief(), testDirection(), assets, t.TempDir(), nil)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.NoError(t, statuses[0].Err)

	calls := img.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Images, 2)
	assert.Equal(t, assets.Logo, calls[0].Images[1].Path)
	assert.Contains(t, calls[0].Prompt, "(logo)")
}

func TestComposite_MissingPhotoSkips(t *testing.T) {
	img := &model.MockImageClient{}
	lib := testLibrary(t)
	lib[0].Photo = filepath.Join(t.TempDir(), "nope.png")

	c := New(Config{Image: img, Library: lib})
	paths, statuses, err := c.Composite(context.Background(), testBrief(), testDirection(), testAssets(t), t.TempDir(), nil)
	require.NoError(t, err)

	assert.True(t, statuses[0].Skipped)
	assert.Contains(t, statuses[0].Reason, "nope.png")
	assert.Empty(t, statuses[0].Path)
	assert.NoError(t, statuses[0].Err)

	assert.False(t, statuses[1].Skipped)
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "billboard_composite")
	assert.Equal(t, 1, img.CallCount())
}

func TestComposite_FailedItemContinues(t *testing.T) {
	img := &model.MockImageClient{
		Fn: func(ctx context.Context, req model.ImageRequest) (*model.ImageResponse, error) {
			if strings.Contains(req.Prompt, "canvas tote bag") {
				return nil, fmt.Errorf("model overloaded")
			}
			return &model.ImageResponse{Data: model.TestPNG(8, 8, color.Gray{Y: 0x42}), MIME: "image/png"}, nil
		},
	}
	c := New(Config{Image: img, Library: testLibrary(t)})

	paths, statuses, err := c.Composite(context.Background(), testBrief(), testDirection(), testAssets(t), t.TempDir(), nil)
	require.NoError(t, err)

	require.Error(t, statuses[0].Err)
	assert.Equal(t, bferrors.KindAssetGenerationFailed, bferrors.KindOf(statuses[0].Err))
	assert.Empty(t, statuses[0].Path)

	assert.NoError(t, statuses[1].Err)
	require.Len(t, paths, 1)
	assert.Contains(t, paths[0], "billboard_composite")
}

func TestComposite_NoUsableLogoAttachesPhotoOnly(t *testing.T) {
	img := &model.MockImageClient{}
	c := New(Config{Image: img, Library: testLibrary(t)[:1]})

	paths, statuses, err := c.Composite(context.Background(), testBrief(), testDirection(), brand.DirectionAssets{}, t.TempDir(), nil)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.NoError(t, statuses[0].Err)

	calls := img.Calls()
	require.Len(t, calls, 1)
	assert.Len(t, calls[0].Images, 1)
	assert.NotContains(t, calls[0].Prompt, "The brand logo mark")
}

func TestComposite_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img := &model.MockImageClient{}
	c := New(Config{Image: img, Library: testLibrary(t)})

	paths, _, err := c.Composite(ctx, testBrief(), testDirection(), testAssets(t), t.TempDir(), nil)
	require.Error(t, err)
	assert.True(t, bferrors.IsCancellation(err))
	assert.Empty(t, paths)
	assert.Zero(t, img.CallCount())
}

func TestComposite_EmptyLibrary(t *testing.T) {
	c := New(Config{Image: &model.MockImageClient{}, Library: []Mockup{}})
	paths, statuses, err := c.Composite(context.Background(), testBrief(), testDirection(), testAssets(t), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Empty(t, statuses)
}

func TestReconstructPrompt_Content(t *testing.T) {
	lib := DefaultLibrary()
	var tote Mockup
	for _, m := range lib {
		if m.Name == "tote_bag" {
			tote = m
		}
	}
	prompt := reconstructPrompt(tote, "Northbind", testDirection(), "logo_white")

	assert.Contains(t, prompt, "Magenta (#FF00FF) = logo placement zone")
	assert.Contains(t, prompt, "Brand name: Northbind")
	assert.Contains(t, prompt, "Primary color: #2D6A4F")
	assert.Contains(t, prompt, "Color palette: #2D6A4F, #D8F3DC, #1B1B1E")
	assert.Contains(t, prompt, "Brand mood / direction: Ember Field")
	assert.Contains(t, prompt, "Mockup scene: Natural canvas tote bag")
	assert.Contains(t, prompt, "Placeholder zones: front panel of the canvas tote")
	assert.Contains(t, prompt, "Material / rendering: screen-print on canvas")
	assert.Contains(t, prompt, "## ATTACHED IMAGES (in order)")
	assert.Contains(t, prompt, "2. The brand logo mark (logo_white)")
	assert.Contains(t, prompt, "Image only, no captions.")
}

func TestReconstructPrompt_FillsMissingHints(t *testing.T) {
	m := Mockup{Name: "bare", Photo: "bare.png", Zone: "somewhere", Scene: "A bare scene."}
	prompt := reconstructPrompt(m, "Northbind", testDirection(), "")

	assert.Contains(t, prompt, "Logo placement: centered in the placeholder zone")
	assert.Contains(t, prompt, "Logo size: 60% of the zone")
	assert.Contains(t, prompt, "Visual style: professional, clean")
	assert.NotContains(t, prompt, "2. The brand logo mark")
}

func TestPickLogo(t *testing.T) {
	assets := testAssets(t)

	path, variant := pickLogo(assets, true)
	assert.Equal(t, assets.LogoWhite, path)
	assert.Equal(t, "logo_white", variant)

	path, variant = pickLogo(assets, false)
	assert.Equal(t, assets.LogoTransparent, path)
	assert.Equal(t, "logo_transparent", variant)

	// The white variant never serves a light surface.
	light := assets
	light.LogoTransparent = ""
	path, variant = pickLogo(light, false)
	assert.Equal(t, light.Logo, path)
	assert.Equal(t, "logo", variant)

	path, variant = pickLogo(brand.DirectionAssets{}, true)
	assert.Empty(t, path)
	assert.Empty(t, variant)
}
