package social

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/imaging"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
)

// BoardFile is the contact-sheet of the post set, written next to the
// social/ directory.
const BoardFile = "social_board.png"

// minLogoBytes filters out placeholder stubs and truncated writes when
// picking the logo to attach.
const minLogoBytes = 100

const (
	boardThumbW = 320
	boardThumbH = 180
)

// Config wires a Generator.
type Config struct {
	Image model.ImageClient
	Text  model.TextClient

	// RepairAttempts for the copy-generation fallback. Zero means
	// the structured-call default.
	RepairAttempts int

	Logger  logging.Logger
	Metrics *observability.MetricsCollector
}

// Generator renders the launch post set for one direction.
type Generator struct {
	image          model.ImageClient
	text           model.TextClient
	repairAttempts int
	logger         logging.Logger
	metrics        *observability.MetricsCollector
}

// New builds a Generator from cfg.
func New(cfg Config) *Generator {
	return &Generator{
		image:          cfg.Image,
		text:           cfg.Text,
		repairAttempts: cfg.RepairAttempts,
		logger:         logging.OrNop(cfg.Logger),
		metrics:        cfg.Metrics,
	}
}

// PostStatus records how one post ended. A failed post keeps an empty
// Path; the board renders its slot as pending.
type PostStatus struct {
	Name    string
	Path    string
	Elapsed time.Duration
	Err     error
}

// GeneratePosts renders the full post set under assetDir/social and
// writes the contact-sheet board next to it. Posts run in a fixed
// order and fail independently; only cancellation returns an error.
// The returned paths follow post order. onPost, when set, observes
// each post as it finishes.
func (g *Generator) GeneratePosts(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, assets brand.DirectionAssets, assetDir string, onPost func(PostStatus)) ([]string, []PostStatus, error) {
	ctx = observability.ContextWithStage(ctx, "social")

	socialDir := filepath.Join(assetDir, "social")
	logoPath := pickLogo(assets)
	if logoPath == "" {
		g.logger.Warn("social: no usable logo file, posts render from the prompt alone")
	}
	copySet := g.resolveCopy(ctx, brief, dir)
	g.logger.Info("generating %d social posts for option %d", len(postSpecs), dir.OptionNumber)

	statuses := make([]PostStatus, 0, len(postSpecs))
	for _, spec := range postSpecs {
		if err := ctx.Err(); err != nil {
			return collectPaths(statuses), statuses, err
		}
		status := g.renderPost(ctx, spec, brief, dir, copySet, logoPath, socialDir)
		statuses = append(statuses, status)
		if onPost != nil {
			onPost(status)
		}
		if bferrors.IsCancellation(status.Err) {
			return collectPaths(statuses), statuses, status.Err
		}
	}

	g.writeBoard(assetDir, brief.BrandName, statuses)
	return collectPaths(statuses), statuses, nil
}

// renderPost runs one canvas end to end. A failure that is not a
// cancellation becomes a stage error on the status and the set moves
// on, matching how the mockup pool degrades.
func (g *Generator) renderPost(ctx context.Context, spec postSpec, brief *brand.Brief, dir *brand.BrandDirection, copySet resolvedCopy, logoPath, socialDir string) PostStatus {
	status := PostStatus{Name: spec.Name}
	start := time.Now()
	defer func() { status.Elapsed = time.Since(start) }()

	prompt, err := buildPostPrompt(spec, brief, dir, copySet.field(spec.CopyField), logoPath != "")
	if err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "social", err)
		return status
	}

	var images []model.ImageRef
	if logoPath != "" {
		images = append(images, model.ImageRef{Path: logoPath, MIME: model.MIMEForPath(logoPath)})
	}

	data, err := g.generate(ctx, prompt, images)
	if err != nil {
		if bferrors.IsCancellation(err) || ctx.Err() != nil {
			status.Err = err
			return status
		}
		g.logger.Warn("social post %s failed: %v", spec.Name, err)
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "social",
			fmt.Errorf("post %s: %w", spec.Name, err))
		return status
	}

	outPath := filepath.Join(socialDir, spec.Name+".png")
	if err := imaging.WriteBytes(outPath, data); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "social",
			fmt.Errorf("write %s: %w", outPath, err))
		return status
	}
	g.recordAsset(ctx, "social_post")
	status.Path = outPath
	g.logger.Info("social post written: %s", outPath)
	return status
}

func (g *Generator) generate(ctx context.Context, prompt string, images []model.ImageRef) ([]byte, error) {
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

// writeBoard renders the contact sheet of the whole set. Failed posts
// show as pending slots. The board is a convenience artifact, so a
// write failure only warns.
func (g *Generator) writeBoard(assetDir, brandName string, statuses []PostStatus) {
	cells := make([]imaging.SheetCell, 0, len(statuses))
	for i, s := range statuses {
		cells = append(cells, imaging.SheetCell{Path: s.Path, Label: postSpecs[i].Label})
	}
	board := imaging.ContactSheet(fmt.Sprintf("social posts - %s", brandName), cells, boardThumbW, boardThumbH)
	boardPath := filepath.Join(assetDir, BoardFile)
	if err := imaging.WritePNG(boardPath, board); err != nil {
		g.logger.Warn("social board not written: %v", err)
		return
	}
	g.logger.Info("social board written: %s", boardPath)
}

func (g *Generator) recordAsset(ctx context.Context, kind string) {
	if g.metrics != nil {
		g.metrics.RecordAssetWritten(ctx, kind)
	}
}

func collectPaths(statuses []PostStatus) []string {
	var paths []string
	for _, s := range statuses {
		if s.Path != "" {
			paths = append(paths, s.Path)
		}
	}
	return paths
}

// pickLogo chooses the logo to ride along with every post. Posts sit
// on arbitrary brand-colored fields, so the transparent variant wins;
// the base logo is the fallback.
func pickLogo(assets brand.DirectionAssets) string {
	for _, path := range []string{assets.LogoTransparent, assets.Logo} {
		if usableFile(path) {
			return path
		}
	}
	return ""
}

// usableFile reports whether path holds a real image worth attaching.
func usableFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > minLogoBytes
}
