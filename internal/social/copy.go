package social

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/model"
)

// resolvedCopy holds the three copy lines after the priority chain
// ran: locked brief copy first, then the direction's authored lines,
// then a single generated batch for whatever is still missing.
type resolvedCopy struct {
	Tagline      string
	Slogan       string
	Announcement string
}

func (rc resolvedCopy) field(f CopyField) string {
	switch f {
	case CopyTagline:
		return rc.Tagline
	case CopySlogan:
		return rc.Slogan
	case CopyAnnouncement:
		return rc.Announcement
	}
	return ""
}

// generatedCopy is the structured payload for the fallback generation.
type generatedCopy struct {
	Tagline      string `json:"tagline"`
	Slogan       string `json:"slogan"`
	Announcement string `json:"announcement"`
}

// resolveCopy runs the priority chain once per direction. Locked copy
// is reproduced verbatim and never regenerated. Generation happens at
// most once even when several lines are missing, and a failed
// generation degrades to deterministic lines so no post ships with an
// empty copy slot it was specified to fill.
func (g *Generator) resolveCopy(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection) resolvedCopy {
	rc := resolvedCopy{
		Tagline:      firstNonEmpty(brief.LockedCopy.Tagline, dir.Tagline),
		Slogan:       firstNonEmpty(brief.LockedCopy.Slogan, dir.AdSlogan),
		Announcement: firstNonEmpty(brief.LockedCopy.Announcement, dir.AnnouncementCopy),
	}
	if rc.Tagline != "" && rc.Slogan != "" && rc.Announcement != "" {
		return rc
	}

	if gen := g.generateCopy(ctx, brief, dir); gen != nil {
		rc.Tagline = firstNonEmpty(rc.Tagline, gen.Tagline)
		rc.Slogan = firstNonEmpty(rc.Slogan, gen.Slogan)
		rc.Announcement = firstNonEmpty(rc.Announcement, gen.Announcement)
	}

	rc.Tagline = firstNonEmpty(rc.Tagline, brief.BrandName)
	rc.Slogan = firstNonEmpty(rc.Slogan, brief.BrandName)
	rc.Announcement = firstNonEmpty(rc.Announcement,
		fmt.Sprintf("Something new from %s.", brief.BrandName))
	return rc
}

func (g *Generator) generateCopy(ctx context.Context, brief *brand.Brief, dir *brand.BrandDirection) *generatedCopy {
	if g.text == nil {
		return nil
	}

	prompt := copyPrompt(brief, dir)
	call := func(ctx context.Context, p string) (*model.TextResponse, error) {
		return g.text.Complete(ctx, model.TextRequest{
			UserPrompt: p,
			JSONOutput: true,
		})
	}
	gen, err := model.Structured[generatedCopy](ctx, call, prompt,
		model.StructuredOptions{RepairAttempts: g.repairAttempts, Logger: g.logger},
		func(out *generatedCopy) error { return validateCopy(out) })
	if err != nil {
		if !bferrors.IsCancellation(err) && ctx.Err() == nil {
			g.logger.Warn("copy generation failed, using deterministic lines: %v", err)
		}
		return nil
	}
	return gen
}

func copyPrompt(brief *brand.Brief, dir *brand.BrandDirection) string {
	var b strings.Builder
	b.WriteString("You write launch copy for new brand identities.\n\n")
	b.WriteString(brief.PromptBlock())
	b.WriteString("\n## DIRECTION\n")
	fmt.Fprintf(&b, "Name: %s\n", dir.DirectionName)
	fmt.Fprintf(&b, "Rationale: %s\n", dir.Rationale)
	fmt.Fprintf(&b, "Graphic style: %s\n", dir.GraphicStyle)
	b.WriteString("\n## TASK\n")
	b.WriteString("Write the launch copy lines for this brand in its own voice. ")
	b.WriteString("Each line must be short enough to sit alone on a social canvas: ")
	b.WriteString("the tagline under 8 words, the slogan under 6, the announcement one sentence.\n\n")
	b.WriteString("Return ONLY a JSON object:\n")
	b.WriteString(`{"tagline": "...", "slogan": "...", "announcement": "..."}`)
	return b.String()
}

func validateCopy(c *generatedCopy) error {
	c.Tagline = strings.TrimSpace(c.Tagline)
	c.Slogan = strings.TrimSpace(c.Slogan)
	c.Announcement = strings.TrimSpace(c.Announcement)
	if c.Tagline == "" || c.Slogan == "" || c.Announcement == "" {
		return errors.New("tagline, slogan and announcement must all be non-empty")
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
