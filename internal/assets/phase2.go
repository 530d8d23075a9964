package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"brandforge/internal/brand"
	"brandforge/internal/colorspace"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/imaging"
	"brandforge/internal/observability"
	"brandforge/internal/refindex"
)

// Phase-two step names, in execution order.
const (
	StepPattern    = "pattern"
	StepBackground = "background"
	StepPalette    = "palette"
	StepShades     = "shades"
	StepVariants   = "variants"
)

// StepStatus records how one phase-two sub-step ended. Steps are
// isolated: a degraded pattern never stops the palette from rendering.
type StepStatus struct {
	Step     string
	Path     string
	Degraded bool
	Err      error
}

// GenerateDirectionAssets renders the full asset set for the chosen
// direction into assetDir, which must already hold the phase-one
// logo.png for the variant step to work from. Steps run sequentially
// and each degrades on its own; only cancellation returns an error,
// with everything written so far left on disk. onStep, when set,
// observes each step as it finishes.
func (g *Generator) GenerateDirectionAssets(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, tags []string, assetDir string, onStep func(StepStatus)) (brand.DirectionAssets, []StepStatus, error) {
	ctx = observability.ContextWithStage(ctx, "assets")

	assets := brand.DirectionAssets{}
	logoPath := filepath.Join(assetDir, "logo.png")
	if _, err := os.Stat(logoPath); err == nil {
		assets.Logo = logoPath
	}

	steps := []struct {
		name string
		run  func(context.Context) StepStatus
	}{
		{StepPattern, func(ctx context.Context) StepStatus {
			s := g.renderPattern(ctx, brief, dir, tags, assetDir)
			assets.Pattern = s.Path
			return s
		}},
		{StepBackground, func(ctx context.Context) StepStatus {
			s := g.renderBackground(ctx, dir, assetDir)
			assets.Background = s.Path
			return s
		}},
		{StepPalette, func(ctx context.Context) StepStatus {
			s, colors := g.renderPalette(ctx, brief, dir, tags, assetDir)
			assets.PalettePNG = s.Path
			assets.EnrichedColors = colors
			return s
		}},
		{StepShades, func(ctx context.Context) StepStatus {
			s := g.renderShades(assetDir, assets.EnrichedColors)
			assets.ShadesPNG = s.Path
			return s
		}},
		{StepVariants, func(ctx context.Context) StepStatus {
			return g.renderVariants(ctx, &assets)
		}},
	}

	statuses := make([]StepStatus, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return assets, statuses, err
		}
		status := step.run(ctx)
		statuses = append(statuses, status)
		if onStep != nil {
			onStep(status)
		}
		if bferrors.IsCancellation(status.Err) {
			return assets, statuses, status.Err
		}
	}

	if degraded := degradedKinds(statuses); degraded != "" {
		g.logger.Warn("direction assets finished with degraded steps: %s", degraded)
	} else {
		g.logger.Info("direction assets complete in %s", assetDir)
	}
	return assets, statuses, nil
}

func (g *Generator) renderPattern(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, tags []string, assetDir string) StepStatus {
	path := filepath.Join(assetDir, "pattern.png")
	status := StepStatus{Step: StepPattern}

	prompt := PatternPrompt(dir.PatternSpec)

	var guide string
	var libraryRefs []refindex.ScoredReference
	if g.index != nil {
		guide, _ = g.index.LookupStyleguide(tags, refindex.Patterns)
		libraryRefs = g.index.LookupReferences(tags, refindex.Patterns, maxLibraryRefs)
	}

	// Patterns take the moodboard but not the starred style refs;
	// those anchor logo craft, not surface design.
	moodboard := g.collectMoodboard(brief, nil)
	library := g.collectLibraryRefs(libraryRefs, "pattern")

	fullPrompt, images := assembleImagePrompt("pattern", prompt, guide, patternTechBlock, nil, moodboard, library)

	data, err := g.generateImage(ctx, fullPrompt, images)
	if err != nil {
		return g.degradeStep(ctx, status, path, StepPattern, err)
	}
	if err := imaging.WriteBytes(path, data); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", path, err))
		status.Degraded = true
		return status
	}
	g.recordAsset(ctx, "pattern")
	status.Path = path
	return status
}

func (g *Generator) renderBackground(ctx context.Context, dir *brand.BrandDirection, assetDir string) StepStatus {
	path := filepath.Join(assetDir, "background.png")
	status := StepStatus{Step: StepBackground}

	prompt, _ := assembleImagePrompt("background", BackgroundPrompt(dir.BackgroundSpec), "", backgroundTechBlock)

	data, err := g.generateImage(ctx, prompt, nil)
	if err != nil {
		return g.degradeStep(ctx, status, path, StepBackground, err)
	}
	if err := imaging.WriteBytes(path, data); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", path, err))
		status.Degraded = true
		return status
	}
	g.recordAsset(ctx, "background")
	status.Path = path
	return status
}

func (g *Generator) renderPalette(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, tags []string, assetDir string) (StepStatus, []brand.ColorSwatch) {
	path := filepath.Join(assetDir, "palette.png")
	status := StepStatus{Step: StepPalette}

	colors := g.enrichPalette(ctx, dir, tags)
	if bferrors.IsCancellation(ctx.Err()) {
		status.Err = ctx.Err()
		return status, colors
	}

	entries := make([]imaging.PaletteEntry, len(colors))
	for i, c := range colors {
		entries[i] = imaging.PaletteEntry{Hex: c.Hex, Role: c.Role, Name: c.Name}
	}
	board := imaging.PaletteBoard(brief.BrandName+" color system", entries)
	if err := imaging.WritePNG(path, board); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", path, err))
		status.Degraded = true
		return status, colors
	}
	g.recordAsset(ctx, "palette")
	status.Path = path
	return status, colors
}

func (g *Generator) renderShades(assetDir string, colors []brand.ColorSwatch) StepStatus {
	path := filepath.Join(assetDir, "shades.png")
	status := StepStatus{Step: StepShades}

	rows := shadeRows(colors)
	if len(rows) == 0 {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("no parsable colors for shade scales"))
		status.Degraded = true
		return status
	}
	if err := imaging.WritePNG(path, imaging.ShadesBoard(rows)); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", path, err))
		status.Degraded = true
		return status
	}
	status.Path = path
	return status
}

// shadeRows builds one shade scale per chromatic role. Neutrals skip
// the scale; a near-black ramped to 900 is just black.
func shadeRows(colors []brand.ColorSwatch) []imaging.ShadeRow {
	var rows []imaging.ShadeRow
	for _, role := range []string{brand.RolePrimary, brand.RoleSecondary, brand.RoleAccent, brand.RoleSupport} {
		for _, c := range colors {
			if c.Role != role {
				continue
			}
			stops, err := colorspace.ShadeScale(c.Hex)
			if err != nil {
				continue
			}
			label := c.Name
			if label == "" {
				label = c.Role
			}
			rows = append(rows, imaging.ShadeRow{Label: label, Stops: stops})
		}
	}
	return rows
}

// renderVariants derives the transparent, white, and black logo
// variants from the phase-one logo render.
func (g *Generator) renderVariants(ctx context.Context, assets *brand.DirectionAssets) StepStatus {
	status := StepStatus{Step: StepVariants}

	if assets.Logo == "" {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("no logo file to derive variants from"))
		status.Degraded = true
		return status
	}
	data, err := os.ReadFile(assets.Logo)
	if err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("read logo: %w", err))
		status.Degraded = true
		return status
	}
	if len(data) <= 100 {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("logo file too small to be an image (%d bytes)", len(data)))
		status.Degraded = true
		return status
	}
	img, err := imaging.Decode(data)
	if err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("decode logo: %w", err))
		status.Degraded = true
		return status
	}

	dir := filepath.Dir(assets.Logo)
	transparentPath := filepath.Join(dir, "logo_transparent.png")
	whitePath := filepath.Join(dir, "logo_white.png")
	blackPath := filepath.Join(dir, "logo_black.png")

	if err := imaging.WritePNG(transparentPath, imaging.TransparentVariant(img)); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", transparentPath, err))
		status.Degraded = true
		return status
	}
	assets.LogoTransparent = transparentPath
	g.recordAsset(ctx, "variant")

	if err := imaging.WritePNG(whitePath, imaging.WhiteVariant(img)); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", whitePath, err))
		status.Degraded = true
		return status
	}
	assets.LogoWhite = whitePath
	g.recordAsset(ctx, "variant")

	if err := imaging.WritePNG(blackPath, imaging.BlackVariant(img)); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets",
			fmt.Errorf("write %s: %w", blackPath, err))
		status.Degraded = true
		return status
	}
	assets.LogoBlack = blackPath
	g.recordAsset(ctx, "variant")

	status.Path = transparentPath
	return status
}

// degradeStep handles a failed render: cancellation passes through,
// anything else writes the placeholder and marks the step degraded.
func (g *Generator) degradeStep(ctx context.Context, status StepStatus, path, kind string, err error) StepStatus {
	if bferrors.IsCancellation(err) {
		status.Err = err
		return status
	}
	g.logger.Warn("%s render failed, writing placeholder: %v", kind, err)
	status.Degraded = true
	status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "assets", err)
	if werr := g.writePlaceholder(ctx, path, kind); werr != nil {
		g.logger.Error("placeholder write failed for %s: %v", path, werr)
		return status
	}
	status.Path = path
	return status
}
