package director

import (
	"strings"
)

// industryCliches pairs the visuals a category has worn out with the
// lateral territories a direction should explore instead.
type industryCliches struct {
	avoid   []string
	lateral []string
}

var clichesByIndustry = map[string]industryCliches{
	"coffee": {
		avoid: []string{
			"coffee beans", "coffee cup / mug", "steam swirls rising from cup",
			"coffee plant or leaf", "roasting drum", "espresso dripping",
			"sunrise over plantation",
		},
		lateral: []string{
			"terroir: contour lines of highland geography",
			"the ritual: the specific gesture of brewing (phin, pour-over, aeropress)",
			"transformation: the moment green bean becomes roasted",
			"origin story: hands of the farmer, soil texture",
			"the pause: silence and slowness as a concept",
			"cultural marker specific to origin (Vietnamese phin, Ethiopian ceremony, Italian bar)",
			"typographic mark using brand initial with editorial weight",
		},
	},
	"tea": {
		avoid: []string{
			"tea leaf", "teacup with saucer", "steam from teapot",
			"teapot silhouette", "zen circle + tea drop",
		},
		lateral: []string{
			"the steeping moment: suspension in water",
			"garden topography / terraced hillside",
			"whisking gesture (matcha)", "ceramic texture",
			"the breath: stillness and ritual",
		},
	},
	"tech": {
		avoid: []string{
			"circuit board / PCB traces", "binary code / 0s and 1s",
			"lightbulb for ideas", "neural network node diagram",
			"rocket ship", "wifi signal / connectivity arc",
			"globe with latitude lines", "gear/cog",
		},
		lateral: []string{
			"human behavior the product enables, not the product itself",
			"invisible infrastructure made visible through abstraction",
			"the moment of insight or clarity as negative space",
			"architectural precision: grid, module, ratio",
			"kinetic mark suggesting motion or process",
			"typographic lettermark with custom constructed geometry",
		},
	},
	"food": {
		avoid: []string{
			"fork and spoon crossed", "chef hat", "plate / bowl silhouette",
			"fire / flame", "generic leaf or herb sprig", "smiling face",
		},
		lateral: []string{
			"texture of the ingredient at macro scale",
			"the process / craft: fermentation, fire, aging",
			"cultural origin marker: geography, tradition",
			"seasonal cycle: time as a visual concept",
			"the moment before eating: anticipation",
		},
	},
	"finance": {
		avoid: []string{
			"upward arrow / growth chart", "dollar sign / currency symbol",
			"scales of balance", "handshake", "shield / crest",
			"bar chart", "coins stacked",
		},
		lateral: []string{
			"flow and momentum: abstract lines suggesting direction",
			"architectural stability: column, vault, grid",
			"precision geometry: constructed from ratio and proportion",
			"quiet confidence: typographic mark, no icon",
			"time and continuity: the long view as visual concept",
		},
	},
	"healthcare": {
		avoid: []string{
			"red cross / plus sign", "EKG heartbeat line", "stethoscope",
			"pill or capsule", "generic DNA helix", "caduceus",
		},
		lateral: []string{
			"human touch: hand gesture, warmth",
			"light and clarity: openness as trust",
			"botanical precision: plant as healing without being literal",
			"the breath: lungs, rhythm, life",
			"typographic mark with humanist weight",
		},
	},
	"fashion": {
		avoid: []string{
			"needle and thread", "mannequin silhouette", "clothes hanger",
			"scissors", "sewing machine", "fabric draping generic",
		},
		lateral: []string{
			"material texture at extreme close-up",
			"the silhouette as pure geometric form",
			"editorial negative space: what is NOT there",
			"typographic statement: fashion house style",
			"abstract gesture of movement",
		},
	},
	"real_estate": {
		avoid: []string{
			"house / roof outline", "key silhouette", "front door",
			"city skyline", "building facade", "location pin",
		},
		lateral: []string{
			"threshold: the moment of transition between spaces",
			"light through architecture: openings, planes",
			"human scale: proportion, comfort",
			"geometric construction: plan view abstracted",
			"the view from inside looking out",
		},
	},
	"education": {
		avoid: []string{
			"graduation cap", "open book", "pencil / pen",
			"apple on desk", "lightbulb for ideas", "owl",
		},
		lateral: []string{
			"curiosity as gesture: reaching, leaning forward",
			"growth from inside: emergence, unfolding",
			"connection between minds: abstract network",
			"the question mark itself as a designed symbol",
			"structure of knowledge: modular, layered",
		},
	},
	"wellness": {
		avoid: []string{
			"lotus flower", "generic leaf", "sun / sunrise",
			"circle with negative space (too common)", "water drop",
		},
		lateral: []string{
			"breath and rhythm: wave, interval",
			"body geometry: abstracted human form",
			"the pause: stillness made visual",
			"botanical detail at scientific precision",
			"earth and material: texture, ground",
		},
	},
}

// keywordIndustries maps brief keywords to industry table entries.
// Kept as an ordered slice so the constraint block renders the same
// way for the same brief every time.
var keywordIndustries = []struct {
	keyword  string
	industry string
}{
	{"coffee", "coffee"}, {"cafe", "coffee"}, {"espresso", "coffee"},
	{"matcha", "tea"}, {"tea", "tea"}, {"beverage", "coffee"},
	{"tech", "tech"}, {"saas", "tech"}, {"software", "tech"}, {"app", "tech"},
	{"fintech", "finance"}, {"crypto", "finance"}, {"finance", "finance"},
	{"food", "food"}, {"restaurant", "food"}, {"bakery", "food"},
	{"health", "healthcare"}, {"medical", "healthcare"}, {"clinic", "healthcare"},
	{"real", "real_estate"}, {"estate", "real_estate"}, {"property", "real_estate"},
	{"education", "education"}, {"school", "education"}, {"learning", "education"},
	{"wellness", "wellness"}, {"yoga", "wellness"}, {"spa", "wellness"},
	{"fashion", "fashion"}, {"clothing", "fashion"}, {"apparel", "fashion"},
}

// matchIndustries returns the industries a brief's text touches, in
// table order, deduplicated.
func matchIndustries(searchText string) []string {
	var matched []string
	seen := map[string]bool{}
	for _, ki := range keywordIndustries {
		if seen[ki.industry] {
			continue
		}
		if strings.Contains(searchText, ki.keyword) {
			matched = append(matched, ki.industry)
			seen[ki.industry] = true
		}
	}
	return matched
}

// conceptConstraints builds the anti-cliche constraint block for the
// matched industries. An empty string means no table matched and the
// director runs on the generic ban list alone.
func conceptConstraints(searchText string) string {
	matched := matchIndustries(searchText)
	if len(matched) == 0 {
		return ""
	}

	lines := []string{
		"## CREATIVE CONSTRAINTS, READ BEFORE GENERATING CONCEPTS",
		"",
		"Based on this brand's industry, a senior Art Director would immediately flag these",
		"as OVERDONE and FORBIDDEN. Using any of these will result in a rejected concept.",
		"",
	}
	for _, industry := range matched {
		data := clichesByIndustry[industry]
		lines = append(lines, "**"+readableIndustry(industry)+" FORBIDDEN visuals:** "+strings.Join(data.avoid, " / "))
	}

	lines = append(lines,
		"",
		"## LATERAL TERRITORIES, explore these instead",
		"Great logos do NOT show what the brand does. They show what it MEANS.",
		"Each of the 4 directions must explore a DIFFERENT territory from this list",
		"(or invent one equally unexpected). No two directions may use the same visual metaphor.",
		"",
	)
	for _, industry := range matched {
		data := clichesByIndustry[industry]
		lines = append(lines, "**"+readableIndustry(industry)+" creative territories:**")
		for _, territory := range data.lateral {
			lines = append(lines, "  - "+territory)
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"## THE 4-DIRECTION DIVERSITY RULE",
		"Each option must use a DISTINCT conceptual territory:",
		"  Option 1 (Market-Aligned)  - pick the most commercially proven lateral territory",
		"  Option 2 (Designer-Led)    - pick the most aesthetically bold / unexpected territory",
		"  Option 3 (Hybrid)          - combine two territories in one mark",
		"  Option 4 (Wild-Card)       - the territory nobody would think of, but is exactly right",
		"",
		"Before writing the logo_spec for each direction, state in logo_concept:",
		"  'Conceptual territory: [name it]. Why it works: [one sentence rationale].'",
		"  This ensures the concept is chosen deliberately, not by default.",
	)

	return strings.Join(lines, "\n")
}

func readableIndustry(industry string) string {
	words := strings.Split(strings.ReplaceAll(industry, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
