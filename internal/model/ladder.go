package model

import (
	"context"
	"fmt"

	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
)

// ImageLadder tries an ordered list of image models with the same
// prompt, advancing to the next rung when the current one fails for
// any reason other than cancellation. Rungs come in already wrapped
// with retry, so by the time an error reaches the ladder the rung has
// spent its attempts.
type ImageLadder struct {
	rungs  []ImageClient
	logger logging.Logger
}

// NewImageLadder builds a ladder over the given rungs, primary first.
func NewImageLadder(rungs ...ImageClient) (*ImageLadder, error) {
	if len(rungs) == 0 {
		return nil, fmt.Errorf("image ladder needs at least one model")
	}
	return &ImageLadder{rungs: rungs, logger: logging.NewComponentLogger("image-ladder")}, nil
}

// Model reports the primary model name.
func (l *ImageLadder) Model() string {
	return l.rungs[0].Model()
}

// Generate implements ImageClient across the whole ladder. The
// response names the rung that actually produced the image.
func (l *ImageLadder) Generate(ctx context.Context, req ImageRequest) (*ImageResponse, error) {
	var lastErr error
	for i, rung := range l.rungs {
		resp, err := rung.Generate(ctx, req)
		if err == nil {
			if i > 0 {
				l.logger.Info("Image generated by fallback model %s (primary %s unavailable)",
					rung.Model(), l.rungs[0].Model())
			}
			return resp, nil
		}
		if bferrors.IsCancellation(err) {
			return nil, err
		}
		lastErr = err
		if i < len(l.rungs)-1 {
			l.logger.Warn("Image model %s failed, advancing to %s: %v",
				rung.Model(), l.rungs[i+1].Model(), err)
		}
	}
	return nil, bferrors.NewStageError(bferrors.KindModelFallbackExhausted, "",
		fmt.Errorf("all %d image models failed, last: %w", len(l.rungs), lastErr))
}
