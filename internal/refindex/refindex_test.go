package refindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conformingGuide = `# Minimal Geometric

### For LOGOS:

1. **Dominant Motif Types**: concentric circles, split squares, grid-aligned arcs.
2. **Rendering**: clean flat vector, uniform stroke weight, no texture.
3. **Vibe**: precise, restrained, confident.
4. Avoid
   - gradients
   - drop shadows

### For PATTERNS:

1. **Dominant Motif Types**: repeating squares, offset dot grids.
2. **Rendering Style**: flat vector seamless tile.
3. **Mood**: technical grid precision.
4. Avoid
   - photographic elements
   - random noise
`

// writeLibrary lays out a minimal reference library under a temp dir
// and returns (referenceDir, styleDir).
func writeLibrary(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	refDir := filepath.Join(root, "references")
	styleDir := filepath.Join(root, "styles")

	catDir := filepath.Join(refDir, "logos", "minimal_geometric")
	require.NoError(t, os.MkdirAll(catDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "mark_a.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "mark_b.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "index.json"), []byte(`[
		{"relative_path": "mark_a.png", "tags": ["Minimal", "monoline"], "quality": 9},
		{"relative_path": "mark_b.png", "tags": ["organic"], "quality": 5},
		{"relative_path": "gone.png", "tags": ["minimal"], "quality": 10}
	]`), 0o644))

	organicDir := filepath.Join(refDir, "logos", "organic_hand_drawn")
	require.NoError(t, os.MkdirAll(organicDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(organicDir, "leaf.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(organicDir, "index.json"), []byte(`[
		{"local_path": "/old/library/organic_hand_drawn/leaf.png", "tags": ["organic", "botanical"], "quality": 7}
	]`), 0o644))

	guideDir := filepath.Join(styleDir, "logos")
	require.NoError(t, os.MkdirAll(guideDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(guideDir, "minimal_geometric.md"), []byte(conformingGuide), 0o644))

	return refDir, styleDir
}

func TestLoad_EmptyLibraryIsNotAnError(t *testing.T) {
	root := t.TempDir()
	idx, err := Load(filepath.Join(root, "references"), filepath.Join(root, "styles"), nil)
	require.NoError(t, err)
	assert.Zero(t, idx.Count(Logos))
	assert.Zero(t, idx.Count(Patterns))
	assert.Empty(t, idx.LookupReferences([]string{"minimal"}, Logos, 2))
}

func TestLoad_AcceptsLegacyLocalPath(t *testing.T) {
	refDir, styleDir := writeLibrary(t)
	idx, err := Load(refDir, styleDir, nil)
	require.NoError(t, err)

	refs := idx.LookupReferences([]string{"botanical"}, Logos, -1)
	var found bool
	for _, r := range refs {
		if r.Category == "organic_hand_drawn" {
			found = true
			assert.Equal(t, filepath.Join(refDir, "logos", "organic_hand_drawn", "leaf.png"), r.Path)
		}
	}
	assert.True(t, found, "legacy local_path entry should resolve inside its category dir")
}

func TestLoad_RecordsMissingFiles(t *testing.T) {
	refDir, styleDir := writeLibrary(t)
	idx, err := Load(refDir, styleDir, nil)
	require.NoError(t, err)

	missing := idx.MissingFiles()
	require.Len(t, missing, 1)
	assert.Contains(t, missing[0], "gone.png")

	// The missing entry never surfaces in lookups
	for _, r := range idx.LookupReferences([]string{"minimal"}, Logos, -1) {
		assert.NotContains(t, r.Path, "gone.png")
	}
}

func TestLoad_RejectsMalformedIndex(t *testing.T) {
	refDir, styleDir := writeLibrary(t)
	bad := filepath.Join(refDir, "logos", "broken")
	require.NoError(t, os.MkdirAll(bad, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bad, "index.json"), []byte(`{not json`), 0o644))

	_, err := Load(refDir, styleDir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLookupReferences_ScoresCategoryWordsDouble(t *testing.T) {
	refDir, styleDir := writeLibrary(t)
	idx, err := Load(refDir, styleDir, nil)
	require.NoError(t, err)

	// "minimal" hits both the category folder (x2) and mark_a's tags
	// (x1), plus quality 0.9 => 3.9. mark_b only gets the category
	// bonus 2.0 + 0.5. leaf gets quality 0.7 only.
	refs := idx.LookupReferences([]string{"minimal"}, Logos, 3)
	require.Len(t, refs, 3)
	assert.Contains(t, refs[0].Path, "mark_a.png")
	assert.InDelta(t, 3.9, refs[0].Score, 1e-9)
	assert.Contains(t, refs[1].Path, "mark_b.png")
	assert.InDelta(t, 2.5, refs[1].Score, 1e-9)
	assert.Contains(t, refs[2].Path, "leaf.png")
	assert.InDelta(t, 0.7, refs[2].Score, 1e-9)
}

func TestLookupReferences_TieBreaksByPath(t *testing.T) {
	root := t.TempDir()
	catDir := filepath.Join(root, "references", "patterns", "dots")
	require.NoError(t, os.MkdirAll(catDir, 0o755))
	for _, name := range []string{"b.png", "a.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(catDir, name), []byte("png"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(catDir, "index.json"), []byte(`[
		{"relative_path": "b.png", "tags": ["dots"], "quality": 5},
		{"relative_path": "a.png", "tags": ["dots"], "quality": 5}
	]`), 0o644))

	idx, err := Load(filepath.Join(root, "references"), filepath.Join(root, "styles"), nil)
	require.NoError(t, err)

	refs := idx.LookupReferences([]string{"dots"}, Patterns, 2)
	require.Len(t, refs, 2)
	assert.Contains(t, refs[0].Path, "a.png")
	assert.Contains(t, refs[1].Path, "b.png")
}

func TestLookupReferences_CapsAtK(t *testing.T) {
	refDir, styleDir := writeLibrary(t)
	idx, err := Load(refDir, styleDir, nil)
	require.NoError(t, err)

	refs := idx.LookupReferences([]string{"minimal"}, Logos, 1)
	require.Len(t, refs, 1)
	assert.Contains(t, refs[0].Path, "mark_a.png")
}
