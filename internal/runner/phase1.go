package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"brandforge/internal/assets"
	"brandforge/internal/brand"
	"brandforge/internal/director"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/observability"
	"brandforge/internal/research"
)

// RunLogosPhase executes phase one: market research and style-DNA
// measurement in parallel, then directions, tags, and four logo
// renders. The result carries everything the review step needs to
// either refine the directions or start the assets phase: the run
// directory, the brief, and per-option assets.
//
// A degraded logo (placeholder written after render failures) turns
// the terminal state into DONE_PARTIAL; only cancellation or a
// director failure aborts the phase.
func (r *Runner) RunLogosPhase(ctx context.Context, brief *brand.Brief, onProgress func(Event)) (*brand.LogosPhaseResult, error) {
	if brief == nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "runner", fmt.Errorf("brief is nil"))
	}
	if err := brief.Validate(); err != nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "runner", err)
	}

	runID := newRunID()
	ctx, release := r.newRunContext(ctx, runID)
	defer release()

	runDir := filepath.Join(r.outputRoot, time.Now().Format(runDirFormat))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}
	r.logger.Info("logos phase starting: run %s, output %s", runID, runDir)

	t := newTracker(onProgress, r.logger)

	// Research and style-DNA measurement are independent inputs to
	// the director, so they share the wall-clock. Neither can fail
	// the phase; a thin record or an empty DNA map just gives the
	// director less to anchor on.
	t.to(StateResearching, "")
	sctx, endStage := r.startStage(ctx, observability.SpanResearch, "research")
	var record *research.Record
	var dnaByImage map[string]brand.StyleDNA
	eg, gctx := errgroup.WithContext(sctx)
	eg.Go(func() error {
		record = r.researcher.Research(gctx, brief)
		return nil
	})
	eg.Go(func() error {
		dnaByImage = r.extractStyleDNA(gctx, brief)
		return nil
	})
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		endStage(err)
		t.finish(err, false, "cancelled during research")
		return nil, err
	}
	endStage(nil)

	t.to(StateDirecting, "")
	sctx, endStage = r.startStage(ctx, observability.SpanDirect, "direct")
	out, err := r.director.GenerateDirections(sctx, director.Request{
		Brief:           brief,
		ResearchContext: record.DirectorContext(),
		StyleDNA:        dnaByImage,
	})
	endStage(err)
	if err != nil {
		t.finish(err, false, err.Error())
		return nil, err
	}

	t.to(StateTagging, "")
	sctx, endStage = r.startStage(ctx, observability.SpanResolveTags, "tags")
	tagsByOption := r.tagger.Resolve(sctx, brief, out)
	if err := ctx.Err(); err != nil {
		endStage(err)
		t.finish(err, false, "cancelled during tagging")
		return nil, err
	}
	endStage(nil)

	t.to(StateGeneratingLogos, "")
	sctx, endStage = r.startStage(ctx, observability.SpanLogos, "logos")
	assetsByOption, statuses, err := r.assets.GenerateLogos(sctx, brief, out, tagsByOption, runDir,
		func(s assets.DirectionStatus) {
			t.item(optionItem(s.OptionNumber), directionStatusWord(s), s.Elapsed, s.DirectionName)
		})
	endStage(err)
	if err != nil {
		t.finish(err, false, "cancelled during logo generation")
		return nil, err
	}

	r.persistDirections(runDir, brief, out, tagsByOption)

	result := &brand.LogosPhaseResult{
		RunID:          runID,
		RunDir:         runDir,
		Brief:          brief,
		Directions:     *out,
		AssetsByOption: assetsByOption,
	}
	degraded := degradedOptions(statuses)
	t.finish(nil, len(degraded) > 0, degradedDetail(degraded))
	r.logger.Info("logos phase finished: %d directions, %d degraded", len(out.Directions), len(degraded))
	return result, nil
}

// RefineDirections reruns the direction stage against review
// feedback, then re-renders logos only for the options whose content
// materially changed. Unchanged options keep the assets they already
// have. The refined set replaces directions.json in the same run
// directory, so a later assets phase resumes from the refined
// directions.
func (r *Runner) RefineDirections(ctx context.Context, previous *brand.LogosPhaseResult, feedback string, onProgress func(Event)) (*brand.LogosPhaseResult, error) {
	if previous == nil || previous.Brief == nil {
		return nil, bferrors.NewStageError(bferrors.KindBriefInvalid, "refine",
			fmt.Errorf("no previous logos-phase result to refine"))
	}
	brief := previous.Brief
	ctx, release := r.newRunContext(ctx, previous.RunID)
	defer release()
	r.logger.Info("refining directions for run %s", previous.RunID)

	t := newTracker(onProgress, r.logger)

	t.to(StateDirecting, "")
	sctx, endStage := r.startStage(ctx, observability.SpanRefine, "refine")
	refined, err := r.director.Refine(sctx, director.Request{Brief: brief}, &previous.Directions, feedback)
	endStage(err)
	if err != nil {
		t.finish(err, false, err.Error())
		return nil, err
	}
	out := refined.Output

	t.to(StateTagging, "")
	sctx, endStage = r.startStage(ctx, observability.SpanResolveTags, "tags")
	tagsByOption := r.tagger.Resolve(sctx, brief, out)
	if err := ctx.Err(); err != nil {
		endStage(err)
		t.finish(err, false, "cancelled during tagging")
		return nil, err
	}
	endStage(nil)

	t.to(StateGeneratingLogos, "")
	assetsByOption := make(map[int]brand.DirectionAssets, len(previous.AssetsByOption))
	for n, a := range previous.AssetsByOption {
		assetsByOption[n] = a
	}
	var statuses []assets.DirectionStatus
	if len(refined.Changed) > 0 {
		subset := &brand.BrandDirectionsOutput{BrandSummary: out.BrandSummary}
		for _, n := range refined.Changed {
			if d, ok := out.ByOption(n); ok {
				subset.Directions = append(subset.Directions, *d)
			}
		}
		lctx, endLogos := r.startStage(ctx, observability.SpanLogos, "logos")
		refreshed, sts, lerr := r.assets.GenerateLogos(lctx, brief, subset, tagsByOption, previous.RunDir,
			func(s assets.DirectionStatus) {
				t.item(optionItem(s.OptionNumber), directionStatusWord(s), s.Elapsed, s.DirectionName)
			})
		endLogos(lerr)
		if lerr != nil {
			t.finish(lerr, false, "cancelled during logo generation")
			return nil, lerr
		}
		statuses = sts
		for n, a := range refreshed {
			assetsByOption[n] = a
		}
	} else {
		r.logger.Warn("refinement changed no option materially, keeping existing logos")
	}

	r.persistDirections(previous.RunDir, brief, out, tagsByOption)

	result := &brand.LogosPhaseResult{
		RunID:          previous.RunID,
		RunDir:         previous.RunDir,
		Brief:          brief,
		Directions:     *out,
		AssetsByOption: assetsByOption,
	}
	degraded := degradedOptions(statuses)
	t.finish(nil, len(degraded) > 0, degradedDetail(degraded))
	return result, nil
}

// extractStyleDNA measures each starred style reference once.
// Failures degrade per image; the director simply sees fewer measured
// anchors.
func (r *Runner) extractStyleDNA(ctx context.Context, brief *brand.Brief) map[string]brand.StyleDNA {
	if r.dna == nil || len(brief.StyleRefImages) == 0 {
		return nil
	}
	out := make(map[string]brand.StyleDNA, len(brief.StyleRefImages))
	for _, path := range brief.StyleRefImages {
		if ctx.Err() != nil {
			return out
		}
		dna, err := r.dna.Extract(ctx, path)
		if err != nil {
			if !bferrors.IsCancellation(err) {
				r.logger.Warn("style measurement failed for %s: %v", path, err)
			}
			continue
		}
		out[path] = *dna
	}
	return out
}

func directionStatusWord(s assets.DirectionStatus) string {
	switch {
	case s.Err == nil:
		return StatusCompleted
	case s.Degraded:
		return StatusDegraded
	default:
		return StatusFailed
	}
}

func degradedOptions(statuses []assets.DirectionStatus) []int {
	var options []int
	for _, s := range statuses {
		if s.Err != nil || s.Degraded {
			options = append(options, s.OptionNumber)
		}
	}
	sort.Ints(options)
	return options
}

func degradedDetail(options []int) string {
	if len(options) == 0 {
		return ""
	}
	parts := make([]string, len(options))
	for i, n := range options {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "degraded logo for option " + strings.Join(parts, ", ")
}
