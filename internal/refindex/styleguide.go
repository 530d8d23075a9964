package refindex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Line caps for prompt injection. One guide contributes at most
// guideLineCap lines; a blended excerpt never exceeds excerptLineCap.
const (
	guideLineCap   = 30
	excerptLineCap = 40
)

// Styleguide is one parsed styles/<kind>/<category>.md file.
type Styleguide struct {
	Category string
	Path     string
	Sections map[Kind]string
}

// GuideContractError reports a styleguide that does not follow the
// required layout. Guides are rejected at load, not skipped at prompt
// time, so a broken library file surfaces immediately.
type GuideContractError struct {
	Path    string
	Missing []string
}

func (e *GuideContractError) Error() string {
	return fmt.Sprintf("styleguide %s violates the layout contract: missing %s",
		e.Path, strings.Join(e.Missing, ", "))
}

var (
	sectionHeaderRe = regexp.MustCompile(`(?im)^#{2,3}\s+For\s+(LOGOS|PATTERNS):\s*$`)
	motifFieldRe    = regexp.MustCompile(`Dominant Motif Types`)
	renderFieldRe   = regexp.MustCompile(`Rendering( Style)?`)
	vibeFieldRe     = regexp.MustCompile(`Vibe|Mood`)
	avoidHeadRe     = regexp.MustCompile(`(?m)^\s*(?:\d+\.\s+)?(?:\*\*)?Avoid(?:\*\*)?:?\s*$`)
	bulletItemRe    = regexp.MustCompile(`(?m)^\s*[*\-•]\s+\S`)
)

func loadGuides(dir string, kind Kind) ([]Styleguide, error) {
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read styleguide dir %s: %w", dir, err)
	}

	var guides []Styleguide
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read styleguide %s: %w", path, err)
		}
		sections := parseSections(string(data))
		section, ok := sections[kind]
		if !ok {
			return nil, &GuideContractError{
				Path:    path,
				Missing: []string{fmt.Sprintf("%q section", "### For "+strings.ToUpper(string(kind))+":")},
			}
		}
		if missing := checkContract(section); len(missing) > 0 {
			return nil, &GuideContractError{Path: path, Missing: missing}
		}
		guides = append(guides, Styleguide{
			Category: strings.TrimSuffix(de.Name(), ".md"),
			Path:     path,
			Sections: sections,
		})
	}
	sort.Slice(guides, func(i, j int) bool { return guides[i].Category < guides[j].Category })
	return guides, nil
}

// parseSections splits guide content on "### For LOGOS:" / "### For
// PATTERNS:" headers. A guide may carry both sections.
func parseSections(content string) map[Kind]string {
	locs := sectionHeaderRe.FindAllStringSubmatchIndex(content, -1)
	sections := map[Kind]string{}
	for i, loc := range locs {
		name := Kind(strings.ToLower(content[loc[2]:loc[3]]))
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections[name] = strings.TrimSpace(content[loc[1]:end])
	}
	return sections
}

// checkContract verifies the fields a section must carry: dominant
// motif types, a rendering line, a vibe or mood line, and an Avoid
// block with at least one bullet.
func checkContract(section string) []string {
	var missing []string
	if !motifFieldRe.MatchString(section) {
		missing = append(missing, `"Dominant Motif Types" field`)
	}
	if !renderFieldRe.MatchString(section) {
		missing = append(missing, `"Rendering" field`)
	}
	if !vibeFieldRe.MatchString(section) {
		missing = append(missing, `"Vibe" field`)
	}
	if loc := avoidHeadRe.FindStringIndex(section); loc == nil {
		missing = append(missing, `"Avoid" section`)
	} else if !bulletItemRe.MatchString(section[loc[1]:]) {
		missing = append(missing, `bullet items under "Avoid"`)
	}
	return missing
}

// LookupStyleguide blends the sections of the best-matching guides
// (at most three) into one excerpt for prompt injection. Returns
// false when nothing in the library matches the tags.
func (idx *Index) LookupStyleguide(tags []string, kind Kind) (string, bool) {
	guides := idx.bestGuides(tags, kind, 3)
	if len(guides) == 0 {
		return "", false
	}
	names := make([]string, len(guides))
	for i, g := range guides {
		names[i] = g.Category
	}
	var b strings.Builder
	b.WriteString("## STYLE REFERENCE\n")
	fmt.Fprintf(&b, "_(from: %s)_\n", strings.Join(names, ", "))
	for _, g := range guides {
		b.WriteString("\n")
		b.WriteString(capLines(g.Sections[kind], guideLineCap))
		b.WriteString("\n")
	}
	return capLines(strings.TrimSpace(b.String()), excerptLineCap), true
}

// bestGuides scores guides by word overlap between the tag set and
// the guide's category stem words, keeping positive scores only.
func (idx *Index) bestGuides(tags []string, kind Kind, n int) []Styleguide {
	tagSet := toSet(tags)
	type scoredGuide struct {
		guide Styleguide
		score int
	}
	var scored []scoredGuide
	for _, g := range idx.guides[kind] {
		if s := overlap(tagSet, categoryWords(g.Category)); s > 0 {
			scored = append(scored, scoredGuide{guide: g, score: s})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].guide.Category < scored[j].guide.Category
	})
	if len(scored) > n {
		scored = scored[:n]
	}
	out := make([]Styleguide, len(scored))
	for i, s := range scored {
		out[i] = s.guide
	}
	return out
}

var (
	condenseMotifRe  = regexp.MustCompile(`(?s)Dominant Motif Types[:*]*\s*(.+?)(?:\n\s*\*|\n\d\.|\z)`)
	condenseRenderRe = regexp.MustCompile(`(?s)Rendering[:*]*\s*(.+?)(?:\n\s*\*|\n\d\.|\z)`)
	condenseVibeRe   = regexp.MustCompile(`(?s)Vibe[:*]*\s*(.+?)(?:\n\s*\*|\n\d\.|\z)`)
	condenseAvoidRe  = regexp.MustCompile(`(?s)Avoid\s*\n(.*?)(?:\n###|\z)`)
)

// Condense compresses a verbose rules section into one line of key
// constraints (motifs, style, mood, avoid) for space-limited prompts.
func Condense(rules string) string {
	var parts []string

	if m := condenseMotifRe.FindStringSubmatch(rules); m != nil {
		parts = append(parts, "Motifs: "+trimAtSentence(strings.TrimSpace(m[1]), 200))
	}
	if m := condenseRenderRe.FindStringSubmatch(rules); m != nil {
		parts = append(parts, "Style: "+trimAtSentence(strings.TrimSpace(m[1]), 100))
	}
	if m := condenseVibeRe.FindStringSubmatch(rules); m != nil {
		parts = append(parts, "Mood: "+trimAtSentence(strings.TrimSpace(m[1]), 100))
	}
	if m := condenseAvoidRe.FindStringSubmatch(rules); m != nil {
		var items []string
		for _, line := range strings.Split(strings.TrimSpace(m[1]), "\n") {
			line = strings.TrimLeft(strings.TrimSpace(line), "*-• ")
			line = strings.TrimRight(line, ".")
			if line != "" {
				items = append(items, line)
			}
		}
		if len(items) > 5 {
			items = items[:5]
		}
		if len(items) > 0 {
			parts = append(parts, "Avoid: "+strings.Join(items, "; ")+".")
		}
	}

	return strings.Join(parts, " ")
}

// trimAtSentence caps text at max bytes, cutting back to the last
// sentence boundary when one exists.
func trimAtSentence(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, "."); idx > 0 {
		return cut[:idx] + "."
	}
	return cut + "."
}

func capLines(s string, max int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	return strings.Join(lines[:max], "\n")
}
