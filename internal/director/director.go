// Package director turns a brand brief into four validated creative
// directions with one structured model call. Slot semantics are fixed
// (1 Market-Aligned, 2 Designer-Led, 3 Hybrid, 4 Wild-Card) and the
// output must survive palette, spec, and distinctness validation
// before anything downstream sees it.
package director

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
	"brandforge/internal/styledna"
)

const (
	maxStyleRefImages  = 2
	maxMoodboardImages = 8
	maxAttachedImages  = 10

	// Share of characters that must differ before a refined option
	// counts as materially changed.
	refinementChangeRatio = 0.05
)

// Request carries everything one direction-generation call needs.
// ResearchContext is the rendered market block and may be empty.
// StyleDNA holds measured attributes for style reference images,
// keyed by image path; entries are optional.
type Request struct {
	Brief           *brand.Brief
	ResearchContext string
	StyleDNA        map[string]brand.StyleDNA
}

// RefineResult is a refinement pass outcome: the new validated output
// plus the option numbers whose content materially changed.
type RefineResult struct {
	Output  *brand.BrandDirectionsOutput
	Changed []int
}

// Director runs the direction-generation stage.
type Director struct {
	text           model.TextClient
	vision         model.VisionClient
	repairAttempts int
	logger         logging.Logger
}

// New builds a director. The vision client carries calls that attach
// reference images; briefs without images go through the text client.
func New(text model.TextClient, vision model.VisionClient, logger logging.Logger) *Director {
	return &Director{text: text, vision: vision, logger: logging.OrNop(logger)}
}

// SetRepairAttempts overrides the structured-output repair budget.
func (d *Director) SetRepairAttempts(n int) {
	d.repairAttempts = n
}

// GenerateDirections produces the four directions for a brief. The
// returned output is fully validated; an output the model could not
// repair within budget fails with a director_output_invalid error,
// which is fatal for the phase.
func (d *Director) GenerateDirections(ctx context.Context, req Request) (*brand.BrandDirectionsOutput, error) {
	if req.Brief == nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "direct", fmt.Errorf("no brief"))
	}
	ctx = observability.ContextWithStage(ctx, "direct")
	prompt, images := d.assemblePrompt(req, nil, "")
	return d.callStructured(ctx, "direct", req.Brief, prompt, images)
}

// Refine regenerates the four directions from a previous output and
// user feedback. Option slots are preserved; the result reports which
// options materially changed so the caller can show the delta.
func (d *Director) Refine(ctx context.Context, req Request, previous *brand.BrandDirectionsOutput, feedback string) (*RefineResult, error) {
	if req.Brief == nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "refine", fmt.Errorf("no brief"))
	}
	if previous == nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "refine", fmt.Errorf("no previous directions to refine"))
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "refine", fmt.Errorf("refinement feedback is empty"))
	}
	ctx = observability.ContextWithStage(ctx, "refine")
	prompt, images := d.assemblePrompt(req, previous, feedback)
	out, err := d.callStructured(ctx, "refine", req.Brief, prompt, images)
	if err != nil {
		return nil, err
	}
	changed := changedOptions(previous, out)
	d.logger.Info("refine: options changed: %v", changed)
	return &RefineResult{Output: out, Changed: changed}, nil
}

func (d *Director) callStructured(ctx context.Context, stage string, brief *brand.Brief, prompt string, images []model.ImageRef) (*brand.BrandDirectionsOutput, error) {
	call := func(ctx context.Context, p string) (*model.TextResponse, error) {
		if len(images) == 0 {
			return d.text.Complete(ctx, model.TextRequest{
				SystemPrompt: systemPrompt,
				UserPrompt:   p,
				JSONOutput:   true,
			})
		}
		// The vision transport has no system slot, so the persona
		// rides at the top of the prompt.
		return d.vision.Analyze(ctx, model.VisionRequest{
			Prompt:     systemPrompt + "\n\n---\n\n" + p,
			Images:     images,
			JSONOutput: true,
		})
	}

	validate := func(o *brand.BrandDirectionsOutput) error {
		normalizeSlots(o)
		o.ApplyLockedCopy(brief.LockedCopy)
		return o.Validate()
	}

	d.logger.Info("%s: requesting 4 directions (%d attached images)", stage, len(images))
	out, err := model.Structured[brand.BrandDirectionsOutput](ctx, call, prompt,
		model.StructuredOptions{RepairAttempts: d.repairAttempts, Logger: d.logger}, validate)
	if err != nil {
		if bferrors.KindOf(err) == bferrors.KindModelSchemaViolation {
			return nil, bferrors.NewStageError(bferrors.KindDirectorOutputInvalid, stage, err)
		}
		return nil, err
	}
	return out, nil
}

// assemblePrompt builds the user message and the ordered image list.
// Layering: brief, research context, creative constraints, style
// anchor, attachment manifest, then (refinement only) the previous
// output and the refinement request.
func (d *Director) assemblePrompt(req Request, previous *brand.BrandDirectionsOutput, feedback string) (string, []model.ImageRef) {
	sections := []string{req.Brief.PromptBlock()}

	if rc := strings.TrimSpace(req.ResearchContext); rc != "" {
		sections = append(sections, rc)
	}
	if constraints := conceptConstraints(req.Brief.SearchText()); constraints != "" {
		sections = append(sections, constraints)
	}

	images, labels := d.buildAttachments(req)
	if len(req.Brief.StyleRefImages) > 0 && len(images) > 0 {
		sections = append(sections, styleAnchorBlock)
	}
	if len(labels) > 0 {
		manifest := []string{"## ATTACHED IMAGES (in order)"}
		for i, label := range labels {
			manifest = append(manifest, fmt.Sprintf("%d. %s", i+1, label))
		}
		sections = append(sections, strings.Join(manifest, "\n"))
	}

	if previous != nil {
		if prev, err := json.MarshalIndent(previous, "", "  "); err == nil {
			sections = append(sections, "## PREVIOUS DIRECTIONS\nThe four directions from the last pass:\n\n```json\n"+string(prev)+"\n```")
		}
		sections = append(sections, "## REFINEMENT REQUEST\n"+strings.TrimSpace(feedback)+
			"\n\nRevise the directions accordingly. Keep what works, change what was requested.\n"+
			"All four slots must remain, with the same option_number and option_type as before.")
	}

	return strings.Join(sections, "\n\n---\n\n"), images
}

const styleAnchorBlock = `## STYLE REFERENCE, VISUAL RENDERING ANCHOR
The starred style reference images define the rendering aesthetic for ALL FOUR directions: stroke weight, illustration approach, detail level. Concepts differ per direction; the rendering style does not.`

// buildAttachments resolves the brief's images into an ordered list:
// style references first (capped, labeled critical, annotated with
// measured attributes when available), then moodboard images.
// Unreadable files are skipped, not fatal.
func (d *Director) buildAttachments(req Request) ([]model.ImageRef, []string) {
	var (
		images []model.ImageRef
		labels []string
	)
	styleRef := map[string]bool{}

	styleRefs := req.Brief.StyleRefImages
	if len(styleRefs) > maxStyleRefImages {
		styleRefs = styleRefs[:maxStyleRefImages]
	}
	for i, path := range styleRefs {
		if !readableImage(path, d.logger) {
			continue
		}
		styleRef[path] = true
		label := fmt.Sprintf("CRITICAL STYLE REFERENCE %d: all 4 directions must match this visual rendering style exactly.", i+1)
		if dna, ok := req.StyleDNA[path]; ok {
			label += " Measured attributes: " + styledna.Constraints(dna) + "."
		}
		images = append(images, model.ImageRef{Path: path, MIME: model.MIMEForPath(path)})
		labels = append(labels, label)
	}

	moodboard := req.Brief.MoodboardImages
	added := 0
	for _, path := range moodboard {
		if added >= maxMoodboardImages || len(images) >= maxAttachedImages {
			break
		}
		if styleRef[path] || !readableImage(path, d.logger) {
			continue
		}
		added++
		images = append(images, model.ImageRef{Path: path, MIME: model.MIMEForPath(path)})
		labels = append(labels, fmt.Sprintf("CLIENT MOODBOARD #%d: use to inform the visual direction, especially Option 2 (Designer-Led).", added))
	}

	return images, labels
}

func readableImage(path string, logger logging.Logger) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		logger.Warn("direct: skipping unreadable reference image %s", path)
		return false
	}
	return true
}

// normalizeSlots canonicalizes option_type spellings that match the
// slot's fixed type up to case and hyphenation, so "Wild Card" does
// not burn a repair attempt. Genuine slot mismatches are left for the
// validator to report.
func normalizeSlots(o *brand.BrandDirectionsOutput) {
	for i := range o.Directions {
		dir := &o.Directions[i]
		want := brand.OptionTypeFor(dir.OptionNumber)
		if want == "" {
			continue
		}
		got := strings.ReplaceAll(strings.TrimSpace(dir.OptionType), " ", "-")
		if strings.EqualFold(got, want) {
			dir.OptionType = want
		}
	}
}

// changedOptions diffs each option slot between two outputs and
// returns the slots whose serialized content drifted past the change
// ratio. Slots present on only one side always count as changed.
func changedOptions(previous, next *brand.BrandDirectionsOutput) []int {
	dmp := diffmatchpatch.New()
	var changed []int
	for n := 1; n <= 4; n++ {
		prev, okPrev := previous.ByOption(n)
		curr, okCurr := next.ByOption(n)
		if okPrev != okCurr {
			changed = append(changed, n)
			continue
		}
		if !okPrev {
			continue
		}
		before, after := directionText(prev), directionText(curr)
		longest := len(before)
		if len(after) > longest {
			longest = len(after)
		}
		if longest == 0 {
			continue
		}
		diffs := dmp.DiffMain(before, after, false)
		if float64(dmp.DiffLevenshtein(diffs))/float64(longest) >= refinementChangeRatio {
			changed = append(changed, n)
		}
	}
	return changed
}

func directionText(dir *brand.BrandDirection) string {
	b, err := json.Marshal(dir)
	if err != nil {
		return fmt.Sprintf("%+v", dir)
	}
	return string(b)
}
