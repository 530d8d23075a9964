package styledna

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/model"
)

const validDNAJSON = `{
	"stroke_weight": "medium",
	"corner_treatment": "sharp",
	"shape_vocabulary": "geometric",
	"rendering_medium": "clean-digital-vector",
	"complexity": 2,
	"fill_style": "solid-fill",
	"not_present": ["gradients", "drop shadows"]
}`

func writeImage(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestExtract_CallsVisionOncePerContent(t *testing.T) {
	vision := &model.MockVisionClient{Responses: []string{validDNAJSON}}
	ex, err := New(vision, t.TempDir(), nil)
	require.NoError(t, err)

	img := writeImage(t, "ref.png", []byte("image-bytes"))

	first, err := ex.Extract(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "medium", first.StrokeWeight)
	assert.Equal(t, 2, first.Complexity)

	second, err := ex.Extract(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, vision.CallCount())
}

func TestExtract_SameBytesDifferentPathShareOneRecord(t *testing.T) {
	vision := &model.MockVisionClient{Responses: []string{validDNAJSON}}
	ex, err := New(vision, t.TempDir(), nil)
	require.NoError(t, err)

	a := writeImage(t, "a.png", []byte("identical"))
	b := writeImage(t, "b.png", []byte("identical"))

	_, err = ex.Extract(context.Background(), a)
	require.NoError(t, err)
	_, err = ex.Extract(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, 1, vision.CallCount(), "identical content must hash to one analysis")
}

func TestExtract_DiskCacheSurvivesProcessRestart(t *testing.T) {
	cacheDir := t.TempDir()
	img := writeImage(t, "ref.png", []byte("image-bytes"))

	vision := &model.MockVisionClient{Responses: []string{validDNAJSON}}
	first, err := New(vision, cacheDir, nil)
	require.NoError(t, err)
	want, err := first.Extract(context.Background(), img)
	require.NoError(t, err)

	// A fresh extractor with an empty LRU must hit the disk record,
	// not the model.
	coldVision := &model.MockVisionClient{Errs: []error{fmt.Errorf("should not be called")}}
	second, err := New(coldVision, cacheDir, nil)
	require.NoError(t, err)
	got, err := second.Extract(context.Background(), img)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Zero(t, coldVision.CallCount())
}

func TestExtract_FailureDegradesToStyleDNAFailure(t *testing.T) {
	vision := &model.MockVisionClient{Responses: []string{"not json at all", "still not json", "nope"}}
	ex, err := New(vision, t.TempDir(), nil)
	require.NoError(t, err)

	img := writeImage(t, "ref.png", []byte("image-bytes"))
	_, err = ex.Extract(context.Background(), img)
	require.Error(t, err)
	assert.Equal(t, bferrors.KindStyleDNAFailure, bferrors.KindOf(err))
}

func TestExtract_MissingFileIsStyleDNAFailure(t *testing.T) {
	vision := &model.MockVisionClient{Responses: []string{validDNAJSON}}
	ex, err := New(vision, t.TempDir(), nil)
	require.NoError(t, err)

	_, err = ex.Extract(context.Background(), filepath.Join(t.TempDir(), "absent.png"))
	require.Error(t, err)
	assert.Equal(t, bferrors.KindStyleDNAFailure, bferrors.KindOf(err))
	assert.Zero(t, vision.CallCount())
}

func TestExtract_RejectsOutOfVocabularyDNA(t *testing.T) {
	bad := `{"stroke_weight": "enormous", "corner_treatment": "sharp",
		"shape_vocabulary": "geometric", "rendering_medium": "clean-digital-vector",
		"complexity": 2, "fill_style": "solid-fill"}`
	vision := &model.MockVisionClient{Responses: []string{bad, bad, bad}}
	ex, err := New(vision, t.TempDir(), nil)
	require.NoError(t, err)

	img := writeImage(t, "ref.png", []byte("image-bytes"))
	_, err = ex.Extract(context.Background(), img)
	require.Error(t, err)
	assert.Equal(t, bferrors.KindStyleDNAFailure, bferrors.KindOf(err))
	// The repair loop re-asked before giving up
	assert.Greater(t, vision.CallCount(), 1)
}

func TestExtract_ConcurrentCallersSerializeOnOneKey(t *testing.T) {
	vision := &model.MockVisionClient{Responses: []string{validDNAJSON}}
	ex, err := New(vision, t.TempDir(), nil)
	require.NoError(t, err)

	img := writeImage(t, "ref.png", []byte("image-bytes"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ex.Extract(context.Background(), img)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, vision.CallCount())
}

func TestConstraints_RendersMustMatchClause(t *testing.T) {
	dna := brand.StyleDNA{
		StrokeWeight:    "medium",
		CornerTreatment: "sharp",
		ShapeVocabulary: "geometric",
		RenderingMedium: "clean-digital-vector",
		Complexity:      2,
		FillStyle:       "solid-fill",
		NotPresent:      []string{"gradients", "drop shadows"},
	}
	got := Constraints(dna)
	assert.Equal(t,
		"medium stroke weight, sharp corners, geometric shapes, clean digital vector rendering, solid fill, simple mark. no gradients, no drop shadows",
		got)
}

func TestConstraints_CapsNotPresentList(t *testing.T) {
	dna := brand.StyleDNA{
		StrokeWeight:    "thin",
		CornerTreatment: "rounded",
		ShapeVocabulary: "organic",
		RenderingMedium: "hand-drawn",
		Complexity:      4,
		FillStyle:       "outline-only",
	}
	for i := 0; i < 12; i++ {
		dna.NotPresent = append(dna.NotPresent, fmt.Sprintf("treatment%d", i))
	}
	got := Constraints(dna)
	assert.Contains(t, got, "no treatment7")
	assert.NotContains(t, got, "treatment8")
}
