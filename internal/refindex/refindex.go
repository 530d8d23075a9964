// Package refindex loads the curated reference library (tagged images
// under references/{logos,patterns}/<category>/ plus the styleguides
// beside them) and answers scored lookups during prompt assembly. The
// index is immutable after Load, so concurrent readers need no locks.
package refindex

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"brandforge/internal/logging"
)

// Kind selects which half of the library a lookup targets.
type Kind string

const (
	Logos    Kind = "logos"
	Patterns Kind = "patterns"
)

// Entry is one record in a category's index.json. Quality runs 1-10
// and is assigned when the reference is curated into the library.
type Entry struct {
	RelativePath string   `json:"relative_path"`
	Tags         []string `json:"tags"`
	Quality      int      `json:"quality"`
	Form         string   `json:"form,omitempty"`
	Motif        string   `json:"motif,omitempty"`
}

// UnmarshalJSON accepts the legacy local_path field name for entries
// written by older index builders. Marshaling always emits
// relative_path only.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	aux := struct {
		*plain
		LocalPath string `json:"local_path"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.RelativePath == "" && aux.LocalPath != "" {
		e.RelativePath = filepath.Base(filepath.FromSlash(aux.LocalPath))
	}
	return nil
}

// Reference is an index entry resolved against the library layout.
type Reference struct {
	Kind     Kind
	Category string
	Path     string // absolute path to the image file
	Tags     []string
	Quality  int
	Form     string
	Motif    string
}

// ScoredReference pairs a reference with its lookup score.
type ScoredReference struct {
	Reference
	Score float64
}

// Index is the loaded reference library.
type Index struct {
	refs    map[Kind][]Reference
	guides  map[Kind][]Styleguide
	missing []string
	logger  logging.Logger
}

// Load reads both kinds of references plus their styleguides.
// Missing directories yield an empty index; malformed index files and
// styleguides that violate the layout contract fail the load.
func Load(referenceDir, styleDir string, logger logging.Logger) (*Index, error) {
	idx := &Index{
		refs:   map[Kind][]Reference{},
		guides: map[Kind][]Styleguide{},
		logger: logging.OrNop(logger),
	}

	for _, kind := range []Kind{Logos, Patterns} {
		refs, missing, err := loadKind(filepath.Join(referenceDir, string(kind)), kind)
		if err != nil {
			return nil, err
		}
		idx.refs[kind] = refs
		idx.missing = append(idx.missing, missing...)

		guides, err := loadGuides(filepath.Join(styleDir, string(kind)), kind)
		if err != nil {
			return nil, err
		}
		idx.guides[kind] = guides
	}

	idx.logger.Info("reference index loaded: %d logo refs, %d pattern refs, %d logo guides, %d pattern guides",
		len(idx.refs[Logos]), len(idx.refs[Patterns]),
		len(idx.guides[Logos]), len(idx.guides[Patterns]))
	if len(idx.missing) > 0 {
		idx.logger.Warn("reference index: %d entries point at missing files", len(idx.missing))
	}
	return idx, nil
}

func loadKind(dir string, kind Kind) ([]Reference, []string, error) {
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read reference dir %s: %w", dir, err)
	}

	var refs []Reference
	var missing []string
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		catDir := filepath.Join(dir, de.Name())
		indexPath := filepath.Join(catDir, "index.json")
		data, err := os.ReadFile(indexPath)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", indexPath, err)
		}
		var list []Entry
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", indexPath, err)
		}
		for i, e := range list {
			if e.RelativePath == "" {
				return nil, nil, fmt.Errorf("%s: entry %d has no relative_path", indexPath, i)
			}
			ref := Reference{
				Kind:     kind,
				Category: de.Name(),
				Path:     filepath.Join(catDir, filepath.FromSlash(e.RelativePath)),
				Tags:     normalizeTags(e.Tags),
				Quality:  e.Quality,
				Form:     e.Form,
				Motif:    e.Motif,
			}
			if _, statErr := os.Stat(ref.Path); statErr != nil {
				missing = append(missing, ref.Path)
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs, missing, nil
}

// LookupReferences returns the k best references for a tag set.
// Score: 2x the overlap with the category folder words, plus the
// overlap with the entry tags, plus quality/10 so curated quality
// breaks ties. Order is score descending then path ascending, which
// makes the result stable across runs.
func (idx *Index) LookupReferences(tags []string, kind Kind, k int) []ScoredReference {
	tagSet := toSet(tags)
	scored := make([]ScoredReference, 0, len(idx.refs[kind]))
	for _, ref := range idx.refs[kind] {
		score := 2.0*float64(overlap(tagSet, categoryWords(ref.Category))) +
			float64(overlap(tagSet, toSet(ref.Tags))) +
			float64(ref.Quality)/10.0
		scored = append(scored, ScoredReference{Reference: ref, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Path < scored[j].Path
	})
	if k >= 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// Count reports how many usable references one kind holds.
func (idx *Index) Count(kind Kind) int {
	return len(idx.refs[kind])
}

// GuideCount reports how many styleguides one kind holds.
func (idx *Index) GuideCount(kind Kind) int {
	return len(idx.guides[kind])
}

// MissingFiles lists index entries whose image file was absent at
// load time. Lookups skip these; `refs validate` reports them.
func (idx *Index) MissingFiles() []string {
	out := make([]string, len(idx.missing))
	copy(out, idx.missing)
	return out
}

// categoryWords splits a category folder name into scoring words, so
// "minimal_geometric" matches the tags "minimal" and "geometric".
func categoryWords(category string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.FieldsFunc(strings.ToLower(category), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		if w != "" {
			words[w] = true
		}
	}
	return words
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" {
			set[it] = true
		}
	}
	return set
}

func overlap(a, b map[string]bool) int {
	n := 0
	for k := range a {
		if b[k] {
			n++
		}
	}
	return n
}
