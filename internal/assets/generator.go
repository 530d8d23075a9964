package assets

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/imaging"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
	"brandforge/internal/refindex"
	"brandforge/internal/styledna"
)

// DefaultLogoConcurrency caps how many logo renders run at once.
// Image endpoints rate-limit aggressively; four keeps a full direction
// set in flight without tripping 429 storms.
const DefaultLogoConcurrency = 4

// Placeholder canvases per asset kind, in the muted tones the rest of
// the boards use so a degraded directory still previews coherently.
var placeholderColors = map[string]string{
	"logo":       "#f0f0f0",
	"pattern":    "#2d2d44",
	"background": "#1a1a2e",
}

const placeholderFallback = "#222222"

const (
	logoTechBlock = "Square format, crisp vector edges, white background."

	patternTechBlock = `Technical requirements:
- Seamless tileable pattern, all four edges must align perfectly
- Consistent motif density across the tile
- No text, no words, no letters
- Square tile format
- Flat vector rendering unless the motif demands otherwise`

	backgroundTechBlock = `Technical requirements:
- Wide 16:9 cinematic format filling the entire frame edge-to-edge
- No text, no UI elements, no logos, no watermarks
- Professional advertising production quality
- Rich color depth suitable for a hero image`
)

// Config wires a Generator. Image is the only hard requirement for
// real output; with it absent every render degrades to a placeholder,
// which keeps dry runs and tests cheap.
type Config struct {
	Image model.ImageClient
	Text  model.TextClient
	Index *refindex.Index
	DNA   *styledna.Extractor

	// LogoConcurrency caps parallel logo renders. Zero means
	// DefaultLogoConcurrency.
	LogoConcurrency int

	// RepairAttempts overrides the structured-output repair budget for
	// palette enrichment.
	RepairAttempts int

	Logger  logging.Logger
	Metrics *observability.MetricsCollector
}

// Generator renders direction assets.
type Generator struct {
	image           model.ImageClient
	text            model.TextClient
	index           *refindex.Index
	dna             *styledna.Extractor
	logoConcurrency int
	repairAttempts  int
	logger          logging.Logger
	metrics         *observability.MetricsCollector
}

// New builds a Generator from cfg.
func New(cfg Config) *Generator {
	concurrency := cfg.LogoConcurrency
	if concurrency <= 0 {
		concurrency = DefaultLogoConcurrency
	}
	return &Generator{
		image:           cfg.Image,
		text:            cfg.Text,
		index:           cfg.Index,
		dna:             cfg.DNA,
		logoConcurrency: concurrency,
		repairAttempts:  cfg.RepairAttempts,
		logger:          logging.OrNop(cfg.Logger),
		metrics:         cfg.Metrics,
	}
}

// DirectionStatus records how one direction's logo render ended.
// Degraded means a placeholder was written in place of a real render;
// the file exists either way unless Err is a cancellation.
type DirectionStatus struct {
	OptionNumber  int
	DirectionName string
	AssetDir      string
	LogoPath      string
	Elapsed       time.Duration
	Degraded      bool
	Err           error
}

// AssetDirName is the per-direction directory name under a run
// directory, "option_2_ember_and_ash" style.
func AssetDirName(dir *brand.BrandDirection) string {
	return fmt.Sprintf("option_%d_%s", dir.OptionNumber, brand.Slugify(dir.DirectionName))
}

// GenerateLogos renders one logo per direction in parallel, writing
// each under runDir/option_<n>_<slug>/logo.png. A failed render
// degrades that direction to a placeholder and the others continue;
// only cancellation returns an error. onItem, when set, observes each
// direction as it finishes.
func (g *Generator) GenerateLogos(ctx context.Context, brief *brand.Brief, out *brand.BrandDirectionsOutput, tagsByOption map[int][]string, runDir string, onItem func(DirectionStatus)) (map[int]brand.DirectionAssets, []DirectionStatus, error) {
	ctx = observability.ContextWithStage(ctx, "logos")

	// One DNA pass for the prompt clause. Attachment captions resolve
	// per-image DNA on their own, hitting the same cache.
	var dnaText string
	if len(brief.StyleRefImages) > 0 {
		dnaText = g.dnaConstraints(ctx, brief.StyleRefImages[0])
	}

	g.logger.Info("rendering %d logos, concurrency %d", len(out.Directions), g.logoConcurrency)

	statuses := make([]DirectionStatus, len(out.Directions))
	var mu sync.Mutex

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.logoConcurrency)
	for i := range out.Directions {
		dir := &out.Directions[i]
		statuses[i] = DirectionStatus{
			OptionNumber:  dir.OptionNumber,
			DirectionName: dir.DirectionName,
			AssetDir:      filepath.Join(runDir, AssetDirName(dir)),
		}
		eg.Go(func() error {
			status := &statuses[i]
			if err := gctx.Err(); err != nil {
				status.Err = err
				return err
			}
			start := time.Now()
			g.renderLogo(gctx, brief, dir, tagsByOption[dir.OptionNumber], dnaText, status)
			status.Elapsed = time.Since(start)

			mu.Lock()
			if onItem != nil {
				onItem(*status)
			}
			mu.Unlock()

			if bferrors.IsCancellation(status.Err) {
				return status.Err
			}
			return nil
		})
	}
	err := eg.Wait()

	assets := make(map[int]brand.DirectionAssets, len(statuses))
	for _, s := range statuses {
		if s.LogoPath != "" {
			assets[s.OptionNumber] = brand.DirectionAssets{Logo: s.LogoPath}
		}
	}
	return assets, statuses, err
}

// renderLogo generates one direction's logo into status.AssetDir,
// filling status in place.
func (g *Generator) renderLogo(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, tags []string, dnaText string, status *DirectionStatus) {
	logoPath := filepath.Join(status.AssetDir, "logo.png")

	prompt := LogoPrompt(dir.LogoSpec, brief.BrandName, dnaText)

	textRule := "No text, no words, no letters anywhere."
	if AllowsText(dir.LogoSpec.LogoType) {
		textRule = "Render brand name text with typographic precision."
	}
	tech := textRule + "\n" + logoTechBlock

	var guide string
	var libraryRefs []refindex.ScoredReference
	if g.index != nil {
		guide, _ = g.index.LookupStyleguide(tags, refindex.Logos)
		libraryRefs = g.index.LookupReferences(tags, refindex.Logos, maxLibraryRefs)
	}

	styleRefs := g.collectStyleRefs(ctx, brief)
	moodboard := g.collectMoodboard(brief, styleRefs)
	library := g.collectLibraryRefs(libraryRefs, "logo")

	fullPrompt, images := assembleImagePrompt("logo", prompt, guide, tech, styleRefs, moodboard, library)

	data, err := g.generateImage(ctx, fullPrompt, images)
	if err != nil {
		if bferrors.IsCancellation(err) {
			status.Err = err
			return
		}
		g.logger.Warn("logo render failed for option %d (%s), writing placeholder: %v",
			dir.OptionNumber, dir.DirectionName, err)
		status.Degraded = true
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "logos", err)
		if werr := g.writePlaceholder(ctx, logoPath, "logo"); werr != nil {
			g.logger.Error("placeholder write failed for %s: %v", logoPath, werr)
			return
		}
		status.LogoPath = logoPath
		return
	}

	if err := imaging.WriteBytes(logoPath, data); err != nil {
		status.Degraded = true
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "logos",
			fmt.Errorf("write %s: %w", logoPath, err))
		return
	}
	g.recordAsset(ctx, "logo")
	status.LogoPath = logoPath
	g.logger.Info("logo written for option %d: %s", dir.OptionNumber, logoPath)
}

// generateImage runs one image call, treating a missing client the
// same as a failed render so callers degrade uniformly.
func (g *Generator) generateImage(ctx context.Context, prompt string, images []model.ImageRef) ([]byte, error) {
	if g.image == nil {
		return nil, fmt.Errorf("no image model configured")
	}
	resp, err := g.image.Generate(ctx, model.ImageRequest{Prompt: prompt, Images: images})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image model %s returned no bytes", g.image.Model())
	}
	return resp.Data, nil
}

// writePlaceholder writes the degraded stand-in file for one asset
// kind, sized to match what the real render would have produced.
func (g *Generator) writePlaceholder(ctx context.Context, path, kind string) error {
	w, h := 800, 800
	if kind == "background" {
		w, h = 1536, 864
	}
	hex, ok := placeholderColors[kind]
	if !ok {
		hex = placeholderFallback
	}
	if err := imaging.WritePNG(path, imaging.Placeholder(w, h, hex, kind)); err != nil {
		return err
	}
	g.recordAsset(ctx, "placeholder")
	return nil
}

func (g *Generator) recordAsset(ctx context.Context, kind string) {
	if g.metrics != nil {
		g.metrics.RecordAssetWritten(ctx, kind)
	}
}

// degradedKinds summarizes which steps of a status list degraded,
// for log lines.
func degradedKinds(statuses []StepStatus) string {
	var kinds []string
	for _, s := range statuses {
		if s.Degraded {
			kinds = append(kinds, s.Step)
		}
	}
	return strings.Join(kinds, ", ")
}
