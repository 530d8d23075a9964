package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"brandforge/internal/assets"
	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/mockup"
	"brandforge/internal/observability"
	"brandforge/internal/social"
)

// RunAssetsPhase executes phase two for the chosen direction: the
// full asset set, the mockup library, then the social post set. The
// directions come from directions.json in outputDir, written by the
// logos phase; the direction's assets land under the same option
// directory phase one started.
//
// Per-item failures degrade and the phase ends DONE_PARTIAL with
// everything usable on disk. Only cancellation aborts mid-phase, and
// even then the files written so far stay where they are.
func (r *Runner) RunAssetsPhase(ctx context.Context, chosenOption int, outputDir string, brief *brand.Brief, onProgress func(Event)) (*brand.AssetsPhaseResult, error) {
	if brief == nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "runner", fmt.Errorf("brief is nil"))
	}
	if chosenOption < 1 || chosenOption > 4 {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "runner",
			fmt.Errorf("chosen option %d out of range [1,4]", chosenOption))
	}
	out, err := LoadDirections(outputDir)
	if err != nil {
		return nil, err
	}
	dir, ok := out.ByOption(chosenOption)
	if !ok {
		return nil, bferrors.NewStageError(bferrors.KindDirectorOutputInvalid, "assets",
			fmt.Errorf("directions in %s have no option %d", outputDir, chosenOption))
	}

	runID := newRunID()
	ctx, release := r.newRunContext(ctx, runID)
	defer release()

	assetDir := filepath.Join(outputDir, assets.AssetDirName(dir))
	r.logger.Info("assets phase starting: run %s, option %d (%s), output %s",
		runID, chosenOption, dir.DirectionName, assetDir)

	tagsByOption := r.loadOrResolveTags(ctx, outputDir, brief, out)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := newTracker(onProgress, r.logger)
	dirAttr := observability.StringAttr(observability.AttrDirection, dir.DirectionName)

	t.to(StateGeneratingAssets, "")
	stageStart := time.Now()
	sctx, endStage := r.startStage(ctx, observability.SpanAssets, "assets", dirAttr)
	dirAssets, steps, err := r.assets.GenerateDirectionAssets(sctx, brief, dir, tagsByOption[chosenOption], assetDir,
		func(s assets.StepStatus) {
			// Step statuses carry no per-step duration, so items
			// report elapsed time within the stage.
			t.item(s.Step, stepStatusWord(s), time.Since(stageStart), "")
		})
	endStage(err)
	if err != nil {
		t.finish(err, false, "cancelled during asset generation")
		return nil, err
	}

	t.to(StateCompositingMockups, "")
	sctx, endStage = r.startStage(ctx, observability.SpanMockups, "mockups", dirAttr)
	mockupPaths, mockupStatuses, err := r.mockups.Composite(sctx, brief, dir, dirAssets, assetDir,
		func(s mockup.ItemStatus) {
			t.item(s.Name, mockupStatusWord(s), s.Elapsed, s.Reason)
		})
	endStage(err)
	if err != nil {
		t.finish(err, false, "cancelled during mockup compositing")
		return nil, err
	}

	t.to(StateGeneratingSocial, "")
	sctx, endStage = r.startStage(ctx, observability.SpanSocial, "social", dirAttr)
	socialPaths, postStatuses, err := r.social.GeneratePosts(sctx, brief, dir, dirAssets, assetDir,
		func(s social.PostStatus) {
			t.item(s.Name, postStatusWord(s), s.Elapsed, "")
		})
	endStage(err)
	if err != nil {
		t.finish(err, false, "cancelled during social generation")
		return nil, err
	}

	result := &brand.AssetsPhaseResult{
		RunID:        runID,
		OptionNumber: chosenOption,
		Assets:       dirAssets,
		Mockups:      mockupPaths,
		SocialPosts:  socialPaths,
	}
	detail := assetsPhaseDetail(steps, mockupStatuses, postStatuses)
	t.finish(nil, detail != "", detail)
	r.logger.Info("assets phase finished: %d mockups, %d social posts", len(mockupPaths), len(socialPaths))
	return result, nil
}

func stepStatusWord(s assets.StepStatus) string {
	switch {
	case s.Err == nil:
		return StatusCompleted
	case s.Degraded:
		return StatusDegraded
	default:
		return StatusFailed
	}
}

func mockupStatusWord(s mockup.ItemStatus) string {
	switch {
	case s.Skipped:
		return StatusSkipped
	case s.Err != nil:
		return StatusFailed
	default:
		return StatusCompleted
	}
}

func postStatusWord(s social.PostStatus) string {
	if s.Err != nil {
		return StatusFailed
	}
	return StatusCompleted
}

// assetsPhaseDetail summarizes anything short of a clean run. A
// non-empty summary is what sends the phase to DONE_PARTIAL.
func assetsPhaseDetail(steps []assets.StepStatus, mockups []mockup.ItemStatus, posts []social.PostStatus) string {
	var parts []string
	var degradedSteps []string
	for _, s := range steps {
		if s.Err != nil || s.Degraded {
			degradedSteps = append(degradedSteps, s.Step)
		}
	}
	if len(degradedSteps) > 0 {
		parts = append(parts, "degraded steps: "+strings.Join(degradedSteps, ", "))
	}
	var failed, skipped int
	for _, m := range mockups {
		switch {
		case m.Skipped:
			skipped++
		case m.Err != nil:
			failed++
		}
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d mockups failed", failed))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d mockups skipped", skipped))
	}
	var failedPosts int
	for _, p := range posts {
		if p.Err != nil {
			failedPosts++
		}
	}
	if failedPosts > 0 {
		parts = append(parts, fmt.Sprintf("%d social posts failed", failedPosts))
	}
	return strings.Join(parts, "; ")
}
