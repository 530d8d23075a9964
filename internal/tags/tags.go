// Package tags distills each creative direction into searchable tags
// for reference-library lookup. One batched model call covers all
// four directions; failures degrade first to per-direction calls and
// finally to deterministic keyword extraction, so the stage always
// produces a usable tag set.
package tags

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"brandforge/internal/brand"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
)

const (
	minTagsPerDirection = 6
	maxTagsPerDirection = 12

	briefExcerptCap = 800
	rationaleCap    = 200
	graphicStyleCap = 150

	// Low temperature keeps tag vocabulary stable across runs.
	tagTemperature = 0.2
)

var (
	taxonomyIndustries = []string{
		"tech", "saas", "fintech", "crypto", "web3", "healthcare", "ecommerce",
		"education", "real-estate", "food", "beverage", "fashion", "automotive",
		"media", "consulting", "startup", "enterprise", "creative", "nonprofit", "gaming",
	}
	taxonomyStyles = []string{
		"geometric", "organic", "monoline", "filled", "minimal", "detailed", "flat",
		"gradient", "sharp", "rounded", "retro", "modern", "classic", "brutalist",
		"elegant", "playful",
	}
	taxonomyMoods = []string{
		"confident", "calm", "bold", "playful", "serious", "premium", "accessible",
		"warm", "cold", "edgy", "trustworthy", "innovative", "elegant", "powerful",
		"friendly", "mysterious", "dynamic", "futuristic",
	}
	taxonomyTechniques = []string{
		"negative space", "grid construction", "symmetry", "asymmetry", "modularity",
	}
)

// Resolver runs the tag-resolution stage.
type Resolver struct {
	text           model.TextClient
	repairAttempts int
	logger         logging.Logger
}

// New builds a resolver.
func New(text model.TextClient, logger logging.Logger) *Resolver {
	return &Resolver{text: text, logger: logging.OrNop(logger)}
}

// SetRepairAttempts overrides the structured-output repair budget.
func (r *Resolver) SetRepairAttempts(n int) {
	r.repairAttempts = n
}

// Resolve returns lowercase search tags per option number, merged
// with the brief's own keywords. The stage never fails: directions
// the model cannot tag fall back to deterministic extraction.
func (r *Resolver) Resolve(ctx context.Context, brief *brand.Brief, out *brand.BrandDirectionsOutput) map[int][]string {
	ctx = observability.ContextWithStage(ctx, "tags")

	resolved := map[int][]string{}
	if r.text != nil {
		if batch, err := r.resolveBatch(ctx, brief, out); err == nil {
			resolved = batch
		} else {
			r.logger.Warn("tags: batched call failed, tagging directions individually: %v", err)
			resolved = r.resolvePerDirection(ctx, brief, out)
		}
	}

	final := make(map[int][]string, len(out.Directions))
	for i := range out.Directions {
		dir := &out.Directions[i]
		tagList := resolved[dir.OptionNumber]
		if len(tagList) == 0 {
			r.logger.Warn("tags: option %d has no model tags, using deterministic fallback", dir.OptionNumber)
			tagList = fallbackTags(brief, dir)
		}
		final[dir.OptionNumber] = mergeKeywords(tagList, brief.Keywords)
	}
	return final
}

func (r *Resolver) resolveBatch(ctx context.Context, brief *brand.Brief, out *brand.BrandDirectionsOutput) (map[int][]string, error) {
	prompt := r.batchPrompt(brief, out)
	validate := func(m *map[string][]string) error {
		for i := range out.Directions {
			key := fmt.Sprintf("%d", out.Directions[i].OptionNumber)
			tagList, ok := (*m)[key]
			if !ok {
				return fmt.Errorf("missing tags for option %s", key)
			}
			if len(tagList) < minTagsPerDirection || len(tagList) > maxTagsPerDirection {
				return fmt.Errorf("option %s has %d tags, want %d-%d",
					key, len(tagList), minTagsPerDirection, maxTagsPerDirection)
			}
		}
		return nil
	}

	raw, err := model.Structured[map[string][]string](ctx, r.call, prompt,
		model.StructuredOptions{RepairAttempts: r.repairAttempts, Logger: r.logger}, validate)
	if err != nil {
		return nil, err
	}

	resolved := make(map[int][]string, len(out.Directions))
	for i := range out.Directions {
		n := out.Directions[i].OptionNumber
		resolved[n] = normalizeTags((*raw)[fmt.Sprintf("%d", n)])
	}
	return resolved, nil
}

// resolvePerDirection tags each direction with its own call, in
// parallel. A direction whose call fails is left out so the caller
// applies the deterministic fallback.
func (r *Resolver) resolvePerDirection(ctx context.Context, brief *brand.Brief, out *brand.BrandDirectionsOutput) map[int][]string {
	type result struct {
		option int
		tags   []string
	}
	results := make([]result, len(out.Directions))

	g, gctx := errgroup.WithContext(ctx)
	for i := range out.Directions {
		g.Go(func() error {
			dir := &out.Directions[i]
			single, err := r.resolveOne(gctx, brief, dir)
			if err != nil {
				r.logger.Warn("tags: option %d failed: %v", dir.OptionNumber, err)
				return nil
			}
			results[i] = result{option: dir.OptionNumber, tags: single}
			return nil
		})
	}
	_ = g.Wait()

	resolved := map[int][]string{}
	for _, res := range results {
		if res.option != 0 {
			resolved[res.option] = res.tags
		}
	}
	return resolved
}

func (r *Resolver) resolveOne(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection) ([]string, error) {
	type tagsResponse struct {
		Tags []string `json:"tags"`
	}
	prompt := strings.Join([]string{
		taxonomyBlock(),
		"## BRAND\n" + briefExcerpt(brief),
		"## DIRECTION\n" + directionBlock(dir),
		fmt.Sprintf(`Respond with ONLY JSON: {"tags": ["tag", ...]} holding %d-%d lowercase tags for this direction.`,
			minTagsPerDirection, maxTagsPerDirection),
	}, "\n\n")

	validate := func(resp *tagsResponse) error {
		if len(resp.Tags) < minTagsPerDirection || len(resp.Tags) > maxTagsPerDirection {
			return fmt.Errorf("got %d tags, want %d-%d", len(resp.Tags), minTagsPerDirection, maxTagsPerDirection)
		}
		return nil
	}
	resp, err := model.Structured[tagsResponse](ctx, r.call, prompt,
		model.StructuredOptions{RepairAttempts: r.repairAttempts, Logger: r.logger}, validate)
	if err != nil {
		return nil, err
	}
	return normalizeTags(resp.Tags), nil
}

func (r *Resolver) call(ctx context.Context, prompt string) (*model.TextResponse, error) {
	return r.text.Complete(ctx, model.TextRequest{
		UserPrompt:  prompt,
		Temperature: tagTemperature,
		JSONOutput:  true,
	})
}

func (r *Resolver) batchPrompt(brief *brand.Brief, out *brand.BrandDirectionsOutput) string {
	sections := []string{
		taxonomyBlock(),
		"## BRAND\n" + briefExcerpt(brief),
	}
	blocks := make([]string, 0, len(out.Directions))
	for i := range out.Directions {
		blocks = append(blocks, directionBlock(&out.Directions[i]))
	}
	sections = append(sections, "## DIRECTIONS\n"+strings.Join(blocks, "\n\n"))
	sections = append(sections, fmt.Sprintf(
		`Respond with ONLY JSON keyed by option number: {"1": ["tag", ...], "2": [...], "3": [...], "4": [...]}. Each option gets %d-%d lowercase tags.`,
		minTagsPerDirection, maxTagsPerDirection))
	return strings.Join(sections, "\n\n")
}

func taxonomyBlock() string {
	return strings.Join([]string{
		"You tag brand directions for visual reference search. Prefer this vocabulary, plus concrete visual nouns from each direction:",
		"industries: " + strings.Join(taxonomyIndustries, ", "),
		"styles: " + strings.Join(taxonomyStyles, ", "),
		"moods: " + strings.Join(taxonomyMoods, ", "),
		"techniques: " + strings.Join(taxonomyTechniques, ", "),
		"Per direction pick 1-2 industries, 2-4 styles, 2-3 moods, techniques where they apply, and 1-3 visual nouns (e.g. contour lines, serif wordmark).",
	}, "\n")
}

func briefExcerpt(brief *brand.Brief) string {
	parts := []string{brief.BrandName, brief.ProductDescription}
	if brief.TargetAudience != "" {
		parts = append(parts, "Audience: "+brief.TargetAudience)
	}
	if brief.Tone != "" {
		parts = append(parts, "Tone: "+brief.Tone)
	}
	return truncateRunes(strings.Join(parts, "\n"), briefExcerptCap)
}

func directionBlock(dir *brand.BrandDirection) string {
	lines := []string{
		fmt.Sprintf("### Option %d: %s", dir.OptionNumber, dir.DirectionName),
		"rationale: " + truncateRunes(dir.Rationale, rationaleCap),
		"graphic style: " + truncateRunes(dir.GraphicStyle, graphicStyleCap),
	}
	if dir.TypographyPrimary != "" {
		lines = append(lines, "typography: "+dir.TypographyPrimary)
	}
	swatches := dir.Colors
	if len(swatches) > 3 {
		swatches = swatches[:3]
	}
	colorParts := make([]string, 0, len(swatches))
	for _, c := range swatches {
		colorParts = append(colorParts, fmt.Sprintf("%s (%s)", c.Hex, c.Role))
	}
	if len(colorParts) > 0 {
		lines = append(lines, "colors: "+strings.Join(colorParts, ", "))
	}
	return strings.Join(lines, "\n")
}

// fallbackTags extracts tags without a model: taxonomy words present
// in the direction's own text, color names, and the brief keywords.
func fallbackTags(brief *brand.Brief, dir *brand.BrandDirection) []string {
	text := strings.ToLower(strings.Join([]string{
		dir.GraphicStyle, dir.TypographyPrimary, dir.Rationale,
		dir.LogoSpec.RenderStyle, dir.PatternSpec.Mood, dir.BackgroundSpec.Mood,
	}, " "))

	var tagList []string
	for _, vocab := range [][]string{taxonomyStyles, taxonomyMoods, taxonomyTechniques, taxonomyIndustries} {
		for _, word := range vocab {
			if strings.Contains(text, word) {
				tagList = append(tagList, word)
			}
		}
	}
	swatches := dir.Colors
	if len(swatches) > 3 {
		swatches = swatches[:3]
	}
	for _, c := range swatches {
		if name := strings.ToLower(strings.TrimSpace(c.Name)); name != "" {
			tagList = append(tagList, name)
		}
	}
	for _, kw := range brief.Keywords {
		tagList = append(tagList, strings.ToLower(strings.TrimSpace(kw)))
	}

	tagList = dedupe(tagList)
	if len(tagList) > maxTagsPerDirection {
		tagList = tagList[:maxTagsPerDirection]
	}
	return tagList
}

// mergeKeywords appends the brief's keywords to a tag list, keeping
// everything lowercase and deduplicated in first-seen order.
func mergeKeywords(tagList, keywords []string) []string {
	merged := make([]string, 0, len(tagList)+len(keywords))
	merged = append(merged, tagList...)
	for _, kw := range keywords {
		merged = append(merged, strings.ToLower(strings.TrimSpace(kw)))
	}
	return dedupe(merged)
}

func normalizeTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.ToLower(strings.Join(strings.Fields(t), " "))
		if t != "" {
			out = append(out, t)
		}
	}
	return dedupe(out)
}

func dedupe(tagList []string) []string {
	seen := make(map[string]bool, len(tagList))
	out := tagList[:0]
	for _, t := range tagList {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
