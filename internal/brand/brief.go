// Package brand defines the value objects that flow between pipeline
// stages: the creative brief, the four directions the director
// produces, reference style DNA, and per-direction asset payloads.
// Records validate at construction and are never mutated afterward.
package brand

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LockedCopy carries copy lines the client has already approved. Any
// non-empty field must appear verbatim in every direction.
type LockedCopy struct {
	Tagline      string `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	Slogan       string `json:"slogan,omitempty" yaml:"slogan,omitempty"`
	Announcement string `json:"announcement,omitempty" yaml:"announcement,omitempty"`
}

// Empty reports whether no copy line is locked.
func (lc LockedCopy) Empty() bool {
	return lc.Tagline == "" && lc.Slogan == "" && lc.Announcement == ""
}

// Brief is the parsed creative brief driving a run.
type Brief struct {
	BrandName          string     `json:"brand_name" yaml:"brand_name"`
	ProductDescription string     `json:"product_description" yaml:"product_description"`
	TargetAudience     string     `json:"target_audience" yaml:"target_audience"`
	Tone               string     `json:"tone" yaml:"tone"`
	Competitors        string     `json:"competitors" yaml:"competitors"`
	CorePromise        string     `json:"core_promise" yaml:"core_promise"`
	Keywords           []string   `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	MoodboardImages    []string   `json:"moodboard_images,omitempty" yaml:"moodboard_images,omitempty"`
	StyleRefImages     []string   `json:"style_ref_images,omitempty" yaml:"style_ref_images,omitempty"`
	LockedCopy         LockedCopy `json:"locked_copy,omitempty" yaml:"locked_copy,omitempty"`
}

// Validate rejects briefs that cannot drive a run.
func (b *Brief) Validate() error {
	if strings.TrimSpace(b.BrandName) == "" {
		return fmt.Errorf("brief: brand_name is required")
	}
	for _, kw := range b.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("brief: keywords must not contain blank entries")
		}
	}
	return nil
}

// PromptBlock renders the brief as the user message block the
// director and researcher consume. Locked copy lines carry an
// explicit verbatim instruction.
func (b *Brief) PromptBlock() string {
	parts := []string{"## BRAND BRIEF"}
	appendField := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, label+": "+strings.TrimSpace(value))
		}
	}
	appendField("Brand name", b.BrandName)
	appendField("Product/service", b.ProductDescription)
	appendField("Target audience", b.TargetAudience)
	appendField("Tone", b.Tone)
	appendField("Competitors", b.Competitors)
	appendField("Core promise", b.CorePromise)

	if len(b.Keywords) > 0 {
		parts = append(parts, "", "## BRAND KEYWORDS")
		for _, kw := range b.Keywords {
			parts = append(parts, "- "+kw)
		}
	}

	if n := len(b.MoodboardImages); n > 0 {
		parts = append(parts, "",
			fmt.Sprintf("## VISUAL REFERENCES (%d image(s) attached)", n),
			"The client has provided visual reference images alongside this brief.",
			"Study them carefully: they inform Option 2 (Designer-Led) most directly,",
			"but all directions should acknowledge the visual language they suggest.")
	}

	if !b.LockedCopy.Empty() {
		parts = append(parts, "", "## PRE-WRITTEN COPY (use these exactly, do not rewrite)")
		if b.LockedCopy.Tagline != "" {
			parts = append(parts, "Tagline: "+b.LockedCopy.Tagline)
		}
		if b.LockedCopy.Slogan != "" {
			parts = append(parts, "Ad slogan: "+b.LockedCopy.Slogan)
		}
		if b.LockedCopy.Announcement != "" {
			parts = append(parts, "Announcement copy: "+b.LockedCopy.Announcement)
		}
		parts = append(parts, "",
			"The copy fields above are LOCKED. Use them verbatim in tagline / ad_slogan / announcement_copy for ALL directions. Do not paraphrase, improve, or alter them.")
	}

	return strings.Join(parts, "\n")
}

// SearchText returns the lowercased text used for keyword matching
// against industry tables.
func (b *Brief) SearchText() string {
	fields := []string{
		b.BrandName, b.ProductDescription, b.TargetAudience,
		b.Tone, b.Competitors, b.CorePromise,
	}
	fields = append(fields, b.Keywords...)
	return strings.ToLower(strings.Join(fields, " "))
}

// LoadBrief reads a JSON or YAML brief from disk and validates it.
func LoadBrief(path string) (*Brief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brief: %w", err)
	}
	var b Brief
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &b)
	default:
		err = json.Unmarshal(data, &b)
	}
	if err != nil {
		return nil, fmt.Errorf("parse brief %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}
