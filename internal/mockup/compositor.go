package mockup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/imaging"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
)

// DefaultConcurrency caps how many reconstruction calls run at once.
const DefaultConcurrency = 10

// DefaultItemTimeout bounds one mockup end to end, retries included.
// A single slow item must not stall the whole set.
const DefaultItemTimeout = 180 * time.Second

// minLogoBytes filters out placeholder stubs and truncated writes when
// picking a logo variant to attach.
const minLogoBytes = 100

// Config wires a Compositor. Library nil means LoadLibrary(LibraryDir)
// at construction; an explicit empty slice stays empty.
type Config struct {
	Image model.ImageClient

	Library    []Mockup
	LibraryDir string

	// Concurrency caps parallel reconstructions. Zero means
	// DefaultConcurrency.
	Concurrency int

	// ItemTimeout caps one item including retries. Zero means
	// DefaultItemTimeout.
	ItemTimeout time.Duration

	Logger  logging.Logger
	Metrics *observability.MetricsCollector
}

// Compositor reconstructs the mockup library for one direction.
type Compositor struct {
	image       model.ImageClient
	library     []Mockup
	concurrency int
	itemTimeout time.Duration
	logger      logging.Logger
	metrics     *observability.MetricsCollector
}

// New builds a Compositor from cfg.
func New(cfg Config) *Compositor {
	logger := logging.OrNop(cfg.Logger)
	library := cfg.Library
	if library == nil {
		library = LoadLibrary(cfg.LibraryDir, logger)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	timeout := cfg.ItemTimeout
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}
	return &Compositor{
		image:       cfg.Image,
		library:     library,
		concurrency: concurrency,
		itemTimeout: timeout,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// ItemStatus records how one mockup ended. Exactly one of Path,
// Skipped, or Err describes the outcome: a written composite, a
// skipped item with its reason, or a terminal failure.
type ItemStatus struct {
	Name    string
	Photo   string
	Path    string
	Skipped bool
	Reason  string
	Elapsed time.Duration
	Err     error
}

// Composite reconstructs every library mockup with the chosen
// direction's assets, writing mockups/<name>_composite.png under
// assetDir. Items fail independently; only cancellation returns an
// error. The returned paths follow library order. onItem, when set,
// observes each item as it finishes.
func (c *Compositor) Composite(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, assets brand.DirectionAssets, assetDir string, onItem func(ItemStatus)) ([]string, []ItemStatus, error) {
	ctx = observability.ContextWithStage(ctx, "mockups")

	if len(c.library) == 0 {
		c.logger.Warn("mockup library is empty, nothing to composite")
		return nil, nil, nil
	}

	mockupDir := filepath.Join(assetDir, "mockups")
	concurrency := c.concurrency
	if len(c.library) < concurrency {
		concurrency = len(c.library)
	}
	c.logger.Info("compositing %d mockups for option %d, concurrency %d",
		len(c.library), dir.OptionNumber, concurrency)

	statuses := make([]ItemStatus, len(c.library))
	var mu sync.Mutex

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i := range c.library {
		m := c.library[i]
		statuses[i] = ItemStatus{Name: m.Name, Photo: m.Photo}
		eg.Go(func() error {
			status := &statuses[i]
			if err := gctx.Err(); err != nil {
				status.Err = err
				return err
			}
			start := time.Now()
			c.compositeItem(gctx, brief, dir, assets, m, mockupDir, status)
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

	var paths []string
	for _, s := range statuses {
		if s.Path != "" {
			paths = append(paths, s.Path)
		}
	}
	return paths, statuses, err
}

// compositeItem runs one mockup, filling status in place. The item
// context carries its own deadline so retries inside the model client
// stay bounded; hitting that deadline fails the item, it does not
// cancel the run.
func (c *Compositor) compositeItem(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection, assets brand.DirectionAssets, m Mockup, mockupDir string, status *ItemStatus) {
	if _, err := os.Stat(m.Photo); err != nil {
		status.Skipped = true
		status.Reason = fmt.Sprintf("photo not found: %s", m.Photo)
		c.logger.Warn("mockup %s skipped: %s", m.Name, status.Reason)
		return
	}

	logoPath, logoVariant := pickLogo(assets, m.Dark)
	prompt := reconstructPrompt(m, brief.BrandName, dir, logoVariant)

	images := []model.ImageRef{{Path: m.Photo, MIME: model.MIMEForPath(m.Photo)}}
	if logoPath != "" {
		images = append(images, model.ImageRef{Path: logoPath, MIME: model.MIMEForPath(logoPath)})
	} else {
		c.logger.Warn("mockup %s: no usable logo file, reconstructing from prompt alone", m.Name)
	}

	itemCtx, cancel := context.WithTimeout(ctx, c.itemTimeout)
	defer cancel()

	data, err := c.generate(itemCtx, prompt, images)
	if err != nil {
		if ctx.Err() != nil {
			status.Err = ctx.Err()
			return
		}
		c.logger.Warn("mockup %s failed: %v", m.Name, err)
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "mockups",
			fmt.Errorf("mockup %s: %w", m.Name, err))
		return
	}

	outPath := filepath.Join(mockupDir, m.Name+"_composite.png")
	if err := imaging.WriteBytes(outPath, data); err != nil {
		status.Err = bferrors.NewStageError(bferrors.KindAssetGenerationFailed, "mockups",
			fmt.Errorf("write %s: %w", outPath, err))
		return
	}
	c.recordAsset(ctx, "mockup")
	status.Path = outPath
	c.logger.Info("mockup written: %s (%s logo)", outPath, fallback(logoVariant, "no"))
}

func (c *Compositor) generate(ctx context.Context, prompt string, images []model.ImageRef) ([]byte, error) {
	if c.image == nil {
		return nil, fmt.Errorf("no image model configured")
	}
	resp, err := c.image.Generate(ctx, model.ImageRequest{Prompt: prompt, Images: images})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image model %s returned no bytes", c.image.Model())
	}
	return resp.Data, nil
}

func (c *Compositor) recordAsset(ctx context.Context, kind string) {
	if c.metrics != nil {
		c.metrics.RecordAssetWritten(ctx, kind)
	}
}

// pickLogo chooses the logo variant for a mockup's surface. Dark
// surfaces take the white variant; everything else prefers the
// transparent variant. Either chain falls through to the base logo,
// then to attaching nothing.
func pickLogo(assets brand.DirectionAssets, dark bool) (path, variant string) {
	type candidate struct{ path, variant string }
	var chain []candidate
	if dark {
		chain = []candidate{
			{assets.LogoWhite, "logo_white"},
			{assets.LogoTransparent, "logo_transparent"},
			{assets.Logo, "logo"},
		}
	} else {
		chain = []candidate{
			{assets.LogoTransparent, "logo_transparent"},
			{assets.Logo, "logo"},
		}
	}
	for _, cand := range chain {
		if usableFile(cand.path) {
			return cand.path, cand.variant
		}
	}
	return "", ""
}

// usableFile reports whether path holds a real image worth attaching.
func usableFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Size() > minLogoBytes
}
