package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
)

// Files the logos phase leaves in the run directory. directions.json
// is the contract the assets phase resumes from; the markdown and tag
// files are companions for the operator and the tag stage.
const (
	DirectionsFile   = "directions.json"
	DirectionsMDFile = "directions.md"
	TagsFile         = "tags.json"
)

// persistDirections writes the direction set, its human-readable
// summary, and the resolved tags into runDir. The in-memory result is
// already complete when this runs, so markdown and tag failures only
// warn. A directions.json failure is logged as an error because it
// breaks resumption into the assets phase.
func (r *Runner) persistDirections(runDir string, brief *brand.Brief, out *brand.BrandDirectionsOutput, tagsByOption map[int][]string) {
	if err := writeJSON(filepath.Join(runDir, DirectionsFile), out); err != nil {
		r.logger.Error("directions.json not written: %v", err)
	}
	md := DirectionsMarkdown(brief, out)
	if err := os.WriteFile(filepath.Join(runDir, DirectionsMDFile), []byte(md), 0o644); err != nil {
		r.logger.Warn("directions.md not written: %v", err)
	}
	if err := writeJSON(filepath.Join(runDir, TagsFile), tagsByOption); err != nil {
		r.logger.Warn("tags.json not written: %v", err)
	}
}

// LoadDirections reads and validates the direction set a logos phase
// wrote into runDir.
func LoadDirections(runDir string) (*brand.BrandDirectionsOutput, error) {
	path := filepath.Join(runDir, DirectionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bferrors.NewStageError(bferrors.KindDirectorOutputInvalid, "assets",
			fmt.Errorf("read %s: %w", path, err))
	}
	var out brand.BrandDirectionsOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, bferrors.NewStageError(bferrors.KindDirectorOutputInvalid, "assets",
			fmt.Errorf("parse %s: %w", path, err))
	}
	if err := out.Validate(); err != nil {
		return nil, bferrors.NewStageError(bferrors.KindDirectorOutputInvalid, "assets",
			fmt.Errorf("stored directions invalid: %w", err))
	}
	return &out, nil
}

// loadOrResolveTags prefers the tag file the logos phase persisted
// next to directions.json. A missing or unreadable file re-resolves
// from the directions, which still produces a usable set without a
// text model through the deterministic fallback.
func (r *Runner) loadOrResolveTags(ctx context.Context, runDir string, brief *brand.Brief, out *brand.BrandDirectionsOutput) map[int][]string {
	path := filepath.Join(runDir, TagsFile)
	if data, err := os.ReadFile(path); err == nil {
		var tagsByOption map[int][]string
		if jerr := json.Unmarshal(data, &tagsByOption); jerr == nil && len(tagsByOption) > 0 {
			return tagsByOption
		}
		r.logger.Warn("stored tags unreadable, re-resolving: %s", path)
	}
	return r.tagger.Resolve(ctx, brief, out)
}

// DirectionsMarkdown renders the review summary that sits next to
// directions.json in the run directory.
func DirectionsMarkdown(brief *brand.Brief, out *brand.BrandDirectionsOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Brand directions: %s\n\n", brief.BrandName)
	if s := strings.TrimSpace(out.BrandSummary); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	for i := range out.Directions {
		d := &out.Directions[i]
		fmt.Fprintf(&b, "## Option %d: %s (%s)\n\n", d.OptionNumber, d.DirectionName, d.OptionType)
		if s := strings.TrimSpace(d.Rationale); s != "" {
			b.WriteString(s)
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "- Palette: %s\n", paletteLine(d.Colors))
		fmt.Fprintf(&b, "- Typography: %s / %s\n", d.TypographyPrimary, d.TypographySecondary)
		fmt.Fprintf(&b, "- Graphic style: %s\n", d.GraphicStyle)
		logo := d.LogoSpec.LogoType + ", " + d.LogoSpec.Form
		if s := strings.TrimSpace(d.LogoConcept); s != "" {
			logo += " (" + s + ")"
		}
		fmt.Fprintf(&b, "- Logo: %s\n", logo)
		fmt.Fprintf(&b, "- Tagline: %q\n", d.Tagline)
		fmt.Fprintf(&b, "- Ad slogan: %q\n", d.AdSlogan)
		fmt.Fprintf(&b, "- Announcement: %s\n\n", d.AnnouncementCopy)
	}
	return b.String()
}

func paletteLine(colors []brand.ColorSwatch) string {
	parts := make([]string, 0, len(colors))
	for _, c := range colors {
		p := c.Hex + " " + c.Role
		if c.Name != "" {
			p += " (" + c.Name + ")"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, ", ")
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
