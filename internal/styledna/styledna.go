// Package styledna extracts measurable style attributes from
// reference images through the vision capability. Every image is
// analyzed at most once: results are cached on disk keyed by content
// hash, with an in-process LRU in front, so reruns of a brief never
// pay the vision call again.
package styledna

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/blake3"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
	"brandforge/internal/model"
)

const lruSize = 256

const extractionPrompt = `Analyze this reference image and extract its measurable visual style attributes.
Return ONLY a JSON object with exactly these fields:
{
  "stroke_weight": "hairline" | "thin" | "medium" | "bold",
  "corner_treatment": "sharp" | "rounded" | "mixed",
  "shape_vocabulary": "geometric" | "organic" | "hybrid",
  "rendering_medium": "clean-digital-vector" | "textured" | "hand-drawn" | "photographic",
  "complexity": 1-5 (1 = ultra-minimal single shape, 5 = complex multi-element illustration),
  "fill_style": "solid-fill" | "outline-only" | "gradient",
  "not_present": ["visual treatments visibly absent, e.g. gradients, drop shadows, texture"]
}
Judge only what is visible in the image. Do not infer intent.`

// Extractor turns reference images into StyleDNA records.
type Extractor struct {
	vision         model.VisionClient
	cacheDir       string
	cache          *lru.Cache[string, brand.StyleDNA]
	locks          sync.Map // content hash -> *sync.Mutex
	repairAttempts int
	logger         logging.Logger
}

// New builds an extractor writing cache records under cacheDir.
func New(vision model.VisionClient, cacheDir string, logger logging.Logger) (*Extractor, error) {
	if vision == nil {
		return nil, fmt.Errorf("styledna: vision client is required")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("styledna: create cache dir: %w", err)
	}
	cache, err := lru.New[string, brand.StyleDNA](lruSize)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		vision:   vision,
		cacheDir: cacheDir,
		cache:    cache,
		logger:   logging.OrNop(logger),
	}, nil
}

// SetRepairAttempts overrides the structured-output repair budget.
func (e *Extractor) SetRepairAttempts(n int) {
	e.repairAttempts = n
}

// Extract returns the style DNA for one image file. Identical bytes
// always yield the identical cached record. Failures come back as
// StyleDNAFailure stage errors; callers degrade to "no DNA" rather
// than aborting their run.
func (e *Extractor) Extract(ctx context.Context, imagePath string) (*brand.StyleDNA, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, bferrors.NewStageError(bferrors.KindStyleDNAFailure, "styledna",
			fmt.Errorf("read reference image: %w", err))
	}

	sum := blake3.Sum256(data)
	key := hex.EncodeToString(sum[:])

	if dna, ok := e.cache.Get(key); ok {
		return &dna, nil
	}

	// Writers for the same content serialize; the loser of the race
	// finds the winner's record in the cache.
	muAny, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	if dna, ok := e.cache.Get(key); ok {
		return &dna, nil
	}
	if dna, ok := e.readDisk(key); ok {
		e.cache.Add(key, *dna)
		return dna, nil
	}

	dna, err := e.analyze(ctx, imagePath, data)
	if err != nil {
		if bferrors.IsCancellation(err) {
			return nil, err
		}
		var stageErr *bferrors.StageError
		if errors.As(err, &stageErr) && stageErr.Kind == bferrors.KindStyleDNAFailure {
			return nil, err
		}
		return nil, bferrors.NewStageError(bferrors.KindStyleDNAFailure, "styledna", err)
	}

	e.writeDisk(key, *dna)
	e.cache.Add(key, *dna)
	return dna, nil
}

func (e *Extractor) analyze(ctx context.Context, imagePath string, data []byte) (*brand.StyleDNA, error) {
	call := func(ctx context.Context, prompt string) (*model.TextResponse, error) {
		return e.vision.Analyze(ctx, model.VisionRequest{
			Prompt:     prompt,
			Images:     []model.ImageRef{{Path: imagePath, MIME: model.MIMEForPath(imagePath), Data: data}},
			JSONOutput: true,
		})
	}
	return model.Structured[brand.StyleDNA](ctx, call, extractionPrompt,
		model.StructuredOptions{RepairAttempts: e.repairAttempts, Logger: e.logger},
		func(d *brand.StyleDNA) error { return d.Validate() })
}

func (e *Extractor) cachePath(key string) string {
	return filepath.Join(e.cacheDir, key+".json")
}

func (e *Extractor) readDisk(key string) (*brand.StyleDNA, bool) {
	data, err := os.ReadFile(e.cachePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		e.logger.Warn("styledna: cache read failed for %s: %v", key, err)
		return nil, false
	}
	var dna brand.StyleDNA
	if err := json.Unmarshal(data, &dna); err != nil || dna.Validate() != nil {
		// A corrupt record is dropped and re-extracted.
		e.logger.Warn("styledna: discarding corrupt cache record %s", key)
		_ = os.Remove(e.cachePath(key))
		return nil, false
	}
	return &dna, true
}

func (e *Extractor) writeDisk(key string, dna brand.StyleDNA) {
	data, err := json.MarshalIndent(dna, "", "  ")
	if err != nil {
		return
	}
	tmp := e.cachePath(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		e.logger.Warn("styledna: cache write failed for %s: %v", key, err)
		return
	}
	if err := os.Rename(tmp, e.cachePath(key)); err != nil {
		e.logger.Warn("styledna: cache rename failed for %s: %v", key, err)
		_ = os.Remove(tmp)
	}
}

var complexityPhrases = map[int]string{
	1: "ultra-minimal single shape",
	2: "simple mark",
	3: "moderate detail",
	4: "detailed composition",
	5: "complex multi-element illustration",
}

// Constraints renders a DNA record as the MUST-MATCH clause injected
// into generation prompts.
func Constraints(dna brand.StyleDNA) string {
	parts := []string{
		dna.StrokeWeight + " stroke weight",
		dna.CornerTreatment + " corners",
		dna.ShapeVocabulary + " shapes",
		dehyphen(dna.RenderingMedium) + " rendering",
		dehyphen(dna.FillStyle),
	}
	if phrase, ok := complexityPhrases[dna.Complexity]; ok {
		parts = append(parts, phrase)
	}
	out := strings.Join(parts, ", ")

	absent := dna.NotPresent
	if len(absent) > 8 {
		absent = absent[:8]
	}
	if len(absent) > 0 {
		nos := make([]string, len(absent))
		for i, item := range absent {
			nos[i] = "no " + item
		}
		out += ". " + strings.Join(nos, ", ")
	}
	return out
}

func dehyphen(s string) string {
	return strings.ReplaceAll(s, "-", " ")
}
