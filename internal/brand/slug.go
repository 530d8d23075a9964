package brand

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile("[^a-z0-9]+")

// Slugify lowercases text and collapses non-alphanumeric runs into
// single underscores, capped at 30 characters. Used everywhere a
// direction or mockup name becomes part of a file name.
func Slugify(text string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(text), "_")
	s = strings.Trim(s, "_")
	if len(s) > 30 {
		s = s[:30]
	}
	return s
}
