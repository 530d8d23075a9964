package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind names a failure category in the generation pipeline. Kinds drive
// retry decisions and the per-direction status surfaced in run events.
type Kind string

const (
	// KindBriefInvalid - the brief file is missing required fields or malformed
	KindBriefInvalid Kind = "brief_invalid"
	// KindModelTransient - model call failed in a retryable way (429, 5xx, timeout)
	KindModelTransient Kind = "model_transient"
	// KindModelSchemaViolation - model output did not match the expected schema after repair
	KindModelSchemaViolation Kind = "model_schema_violation"
	// KindModelFallbackExhausted - every model in the fallback ladder failed
	KindModelFallbackExhausted Kind = "model_fallback_exhausted"
	// KindReferenceMissing - a reference index entry points at a file that does not exist
	KindReferenceMissing Kind = "reference_missing"
	// KindStyleDNAFailure - vision extraction failed for a moodboard image
	KindStyleDNAFailure Kind = "styledna_failure"
	// KindDirectorOutputInvalid - direction output violated a structural constraint
	KindDirectorOutputInvalid Kind = "director_output_invalid"
	// KindAssetGenerationFailed - an image render or composite failed permanently
	KindAssetGenerationFailed Kind = "asset_generation_failed"
	// KindCancelled - the run was cancelled by the operator
	KindCancelled Kind = "cancelled"
)

// StageError is an error annotated with its pipeline position: which
// failure category, which stage raised it, and (when the work is
// direction-scoped) which of the four directions it belongs to.
type StageError struct {
	Kind      Kind
	Stage     string
	Direction int // 1-4 when direction-scoped, 0 otherwise
	Err       error
}

func (e *StageError) Error() string {
	if e.Direction > 0 {
		return fmt.Sprintf("%s: direction %d: %s: %v", e.Stage, e.Direction, e.Kind, e.Err)
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with a kind and the stage that raised it.
func NewStageError(kind Kind, stage string, err error) *StageError {
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

// ForDirection returns a copy scoped to one of the four directions.
func (e *StageError) ForDirection(direction int) *StageError {
	clone := *e
	clone.Direction = direction
	return &clone
}

// KindOf extracts the failure kind from an error chain. Plain context
// cancellation maps to KindCancelled; errors without an explicit kind
// return the empty string.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}

	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}

	return ""
}

// IsCancellation reports whether the error chain represents an operator
// cancellation rather than a failure.
func IsCancellation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	return KindOf(err) == KindCancelled
}
