package assets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/model"
	"brandforge/internal/refindex"
	"brandforge/internal/styledna"
)

const (
	maxStyleRefImages  = 2
	maxMoodboardImages = 8
	maxLibraryRefs     = 2
)

// attachment pairs an image with the caption the model reads for it.
// Captions ride in the prompt manifest because an image request
// carries one prompt plus an ordered image list, nothing interleaved.
type attachment struct {
	ref   model.ImageRef
	label string
}

// collectStyleRefs attaches the brief's starred style references,
// each captioned with its measured rendering DNA when extraction
// succeeded.
func (g *Generator) collectStyleRefs(ctx context.Context, brief *brand.Brief) []attachment {
	var out []attachment
	for _, path := range brief.StyleRefImages {
		if len(out) == maxStyleRefImages {
			break
		}
		if !g.readableImage(path) {
			continue
		}
		n := len(out) + 1
		label := fmt.Sprintf("CRITICAL STYLE REFERENCE %d (OVERRIDES ALL OTHER STYLE INSTRUCTIONS).", n)
		if dna := g.dnaConstraints(ctx, path); dna != "" {
			label += fmt.Sprintf(" Extracted rendering DNA: %s. Match exactly: same stroke weight, same fill technique, same level of detail, same illustration medium, same visual complexity. The concept differs; the craftsmanship must be indistinguishable.", dna)
		} else {
			label += " Match exactly: stroke weight, fill technique, illustration medium, visual complexity, corner treatment, line quality."
		}
		out = append(out, attachment{ref: imageRef(path), label: label})
	}
	return out
}

// collectMoodboard attaches client moodboard images, skipping any that
// already rode in as style references.
func (g *Generator) collectMoodboard(brief *brand.Brief, seen []attachment) []attachment {
	attached := map[string]bool{}
	for _, a := range seen {
		attached[a.ref.Path] = true
	}
	var out []attachment
	for _, path := range brief.MoodboardImages {
		if len(out) == maxMoodboardImages {
			break
		}
		if attached[path] || !g.readableImage(path) {
			continue
		}
		attached[path] = true
		out = append(out, attachment{
			ref: imageRef(path),
			label: fmt.Sprintf("CLIENT MOODBOARD #%d: a direct reference provided by the client. Study its aesthetic, color mood, and visual language. The output should feel like it belongs in the same world.",
				len(out)+1),
		})
	}
	return out
}

// collectLibraryRefs attaches curated library references as quality
// benchmarks, keeping per-category sample numbering so the caption
// names where each came from.
func (g *Generator) collectLibraryRefs(refs []refindex.ScoredReference, noun string) []attachment {
	var out []attachment
	perCategory := map[string]int{}
	for _, ref := range refs {
		if len(out) == maxLibraryRefs {
			break
		}
		if !g.readableImage(ref.Path) {
			continue
		}
		perCategory[ref.Category]++
		out = append(out, attachment{
			ref: imageRef(ref.Path),
			label: fmt.Sprintf("LIBRARY REFERENCE %s #%d [source: %s, sample %d]: study its craft and production quality. Do not copy it; use it as a quality benchmark only.",
				noun, len(out)+1, readableCategory(ref.Category), perCategory[ref.Category]),
		})
	}
	return out
}

// assembleImagePrompt stitches the final generation prompt: the spec
// prompt, the matched styleguide excerpt, the technical block, the
// attachment manifest, and a closing synthesis paragraph telling the
// model what each reference class is for. The noun names what is
// being generated ("logo", "pattern") in the synthesis text.
func assembleImagePrompt(noun, basePrompt, guideExcerpt, techBlock string, groups ...[]attachment) (string, []model.ImageRef) {
	sections := []string{basePrompt}
	if guideExcerpt != "" {
		sections = append(sections, guideExcerpt)
	}
	if techBlock != "" {
		sections = append(sections, techBlock)
	}

	var all []attachment
	for _, group := range groups {
		all = append(all, group...)
	}
	if len(all) > 0 {
		var manifest strings.Builder
		manifest.WriteString("## ATTACHED IMAGES (in order)\n")
		for i, a := range all {
			fmt.Fprintf(&manifest, "%d. %s\n", i+1, a.label)
		}
		sections = append(sections, strings.TrimRight(manifest.String(), "\n"))
		sections = append(sections, synthesisParagraph(noun, groups))
	}

	images := make([]model.ImageRef, len(all))
	for i, a := range all {
		images[i] = a.ref
	}
	return strings.Join(sections, "\n\n"), images
}

// synthesisParagraph closes the prompt with a recap of the attached
// reference classes. Groups arrive in manifest order: style refs,
// moodboard, library refs.
func synthesisParagraph(noun string, groups [][]attachment) string {
	counts := make([]int, 3)
	for i, group := range groups {
		if i < len(counts) {
			counts[i] = len(group)
		}
	}
	total := 0
	var summary []string
	if counts[0] > 0 {
		summary = append(summary, fmt.Sprintf("%d critical style reference(s)", counts[0]))
	}
	if counts[1] > 0 {
		summary = append(summary, fmt.Sprintf("%d client moodboard image(s)", counts[1]))
	}
	if counts[2] > 0 {
		summary = append(summary, fmt.Sprintf("%d library reference(s)", counts[2]))
	}
	for _, c := range counts {
		total += c
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You have studied %d visual references: %s. Now generate the new %s described at the top.",
		total, strings.Join(summary, ", "), noun)
	if counts[0] > 0 {
		b.WriteString(" The critical style references define the rendering craft; match them exactly.")
	}
	if counts[1] > 0 {
		b.WriteString(" Honor the client moodboard's aesthetic.")
	}
	if counts[2] > 0 {
		b.WriteString(" Match the production quality of the library references.")
	}
	b.WriteString(" The result must be entirely original.")
	return b.String()
}

func (g *Generator) readableImage(path string) bool {
	if _, err := os.Stat(path); err != nil {
		g.logger.Warn("skipping unreadable reference image %s: %v", path, err)
		return false
	}
	return true
}

func imageRef(path string) model.ImageRef {
	return model.ImageRef{Path: path, MIME: model.MIMEForPath(path)}
}

// readableCategory turns a library folder name into a caption label,
// "minimal_geometric" reading as "Minimal Geometric".
func readableCategory(category string) string {
	words := strings.FieldsFunc(category, func(r rune) bool {
		return r == '_' || r == '-'
	})
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// dnaConstraints resolves the measured style DNA for one reference
// image, returning empty on any failure so callers degrade to an
// uncaptioned reference instead of losing the render.
func (g *Generator) dnaConstraints(ctx context.Context, imagePath string) string {
	if g.dna == nil {
		return ""
	}
	rec, err := g.dna.Extract(ctx, imagePath)
	if err != nil {
		if !bferrors.IsCancellation(err) {
			g.logger.Warn("style DNA extraction failed for %s: %v", imagePath, err)
		}
		return ""
	}
	return styledna.Constraints(*rec)
}
