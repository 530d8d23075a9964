package brand

import "fmt"

// StyleDNA captures the measurable style attributes of one reference
// image. Extracted once per image and cached by content hash, so the
// vocabulary here is closed: free-form values would break cache
// comparisons and prompt assembly.
type StyleDNA struct {
	StrokeWeight    string   `json:"stroke_weight"`
	CornerTreatment string   `json:"corner_treatment"`
	ShapeVocabulary string   `json:"shape_vocabulary"`
	RenderingMedium string   `json:"rendering_medium"`
	Complexity      int      `json:"complexity"`
	FillStyle       string   `json:"fill_style"`
	NotPresent      []string `json:"not_present,omitempty"`
}

var (
	validCornerTreatments = map[string]bool{"sharp": true, "rounded": true, "mixed": true}
	validShapeVocabulary  = map[string]bool{"geometric": true, "organic": true, "hybrid": true}
	validRenderingMediums = map[string]bool{
		"clean-digital-vector": true, "textured": true,
		"hand-drawn": true, "photographic": true,
	}
	validDNAFillStyles = map[string]bool{"solid-fill": true, "outline-only": true, "gradient": true}
)

// Validate checks every attribute against its closed vocabulary.
func (d StyleDNA) Validate() error {
	if !validStrokeWeights[d.StrokeWeight] {
		return fmt.Errorf("style dna: unknown stroke_weight %q", d.StrokeWeight)
	}
	if !validCornerTreatments[d.CornerTreatment] {
		return fmt.Errorf("style dna: unknown corner_treatment %q", d.CornerTreatment)
	}
	if !validShapeVocabulary[d.ShapeVocabulary] {
		return fmt.Errorf("style dna: unknown shape_vocabulary %q", d.ShapeVocabulary)
	}
	if !validRenderingMediums[d.RenderingMedium] {
		return fmt.Errorf("style dna: unknown rendering_medium %q", d.RenderingMedium)
	}
	if d.Complexity < 1 || d.Complexity > 5 {
		return fmt.Errorf("style dna: complexity %d out of range [1,5]", d.Complexity)
	}
	if !validDNAFillStyles[d.FillStyle] {
		return fmt.Errorf("style dna: unknown fill_style %q", d.FillStyle)
	}
	return nil
}
