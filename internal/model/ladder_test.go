package model

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bferrors "brandforge/internal/errors"
)

func TestImageLadderNeedsARung(t *testing.T) {
	t.Parallel()

	_, err := NewImageLadder()
	require.Error(t, err)
}

func TestImageLadderPrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &MockImageClient{ModelName: "img-primary"}
	fallback := &MockImageClient{ModelName: "img-fallback"}
	ladder, err := NewImageLadder(primary, fallback)
	require.NoError(t, err)

	resp, err := ladder.Generate(context.Background(), ImageRequest{Prompt: "a mark"})
	require.NoError(t, err)
	assert.Equal(t, "img-primary", resp.Model)
	assert.Equal(t, 1, primary.CallCount())
	assert.Equal(t, 0, fallback.CallCount(), "fallback must stay cold while the primary works")
}

func TestImageLadderAdvancesPastFailedRungs(t *testing.T) {
	t.Parallel()

	first := &MockImageClient{ModelName: "img-1", Errs: []error{fmt.Errorf("quota blown")}}
	second := &MockImageClient{ModelName: "img-2", Errs: []error{fmt.Errorf("also down")}}
	third := &MockImageClient{ModelName: "img-3"}
	ladder, err := NewImageLadder(first, second, third)
	require.NoError(t, err)

	resp, err := ladder.Generate(context.Background(), ImageRequest{Prompt: "a mark"})
	require.NoError(t, err)
	assert.Equal(t, "img-3", resp.Model)
	assert.Equal(t, 1, first.CallCount())
	assert.Equal(t, 1, second.CallCount())
	assert.Equal(t, 1, third.CallCount())
}

func TestImageLadderExhaustsAllRungs(t *testing.T) {
	t.Parallel()

	first := &MockImageClient{ModelName: "img-1", Errs: []error{fmt.Errorf("down")}}
	second := &MockImageClient{ModelName: "img-2", Errs: []error{fmt.Errorf("last straw")}}
	ladder, err := NewImageLadder(first, second)
	require.NoError(t, err)

	_, err = ladder.Generate(context.Background(), ImageRequest{Prompt: "a mark"})
	require.Error(t, err)
	assert.Equal(t, bferrors.KindModelFallbackExhausted, bferrors.KindOf(err))
	assert.Contains(t, err.Error(), "all 2 image models failed")
	assert.Contains(t, err.Error(), "last straw")
}

func TestImageLadderStopsOnCancellation(t *testing.T) {
	t.Parallel()

	first := &MockImageClient{ModelName: "img-1", Errs: []error{context.Canceled}}
	second := &MockImageClient{ModelName: "img-2"}
	ladder, err := NewImageLadder(first, second)
	require.NoError(t, err)

	_, err = ladder.Generate(context.Background(), ImageRequest{Prompt: "a mark"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.CallCount(), "cancellation must not fall through to the next rung")
}

func TestImageLadderReportsPrimaryName(t *testing.T) {
	t.Parallel()

	ladder, err := NewImageLadder(
		&MockImageClient{ModelName: "img-main"},
		&MockImageClient{ModelName: "img-spare"},
	)
	require.NoError(t, err)
	assert.Equal(t, "img-main", ladder.Model())
}
