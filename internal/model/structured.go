package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
)

const defaultRepairAttempts = 2

// StripFences removes a wrapping markdown code fence from model
// output. Text that does not begin with a fence passes through
// untouched, so code blocks embedded inside prose survive.
func StripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	if idx := strings.IndexByte(t, '\n'); idx >= 0 {
		t = t[idx+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
		t = strings.TrimPrefix(t, "json")
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

// StructuredOptions bounds the schema-repair loop.
type StructuredOptions struct {
	// RepairAttempts is how many times the model may be re-asked to
	// fix a response that failed to parse or validate. Zero means the
	// default of two.
	RepairAttempts int
	Logger         logging.Logger
}

// Structured drives a model call whose response must decode into T.
// Parsing is lenient: wrapping fences are stripped and malformed JSON
// goes through mechanical repair before the model is re-asked with
// the rejection reason. Once repair attempts run out the call fails
// as a schema violation. The call function receives the prompt to
// send, which grows a correction suffix on each re-ask.
func Structured[T any](
	ctx context.Context,
	call func(ctx context.Context, prompt string) (*TextResponse, error),
	prompt string,
	opts StructuredOptions,
	validate func(*T) error,
) (*T, error) {
	logger := logging.OrNop(opts.Logger)
	attempts := opts.RepairAttempts
	if attempts <= 0 {
		attempts = defaultRepairAttempts
	}

	currentPrompt := prompt
	var lastErr error
	for attempt := 0; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		resp, err := call(ctx, currentPrompt)
		if err != nil {
			return nil, err
		}

		out, rejectErr := decodeInto[T](resp.Text)
		if rejectErr == nil && validate != nil {
			rejectErr = validate(out)
		}
		if rejectErr == nil {
			return out, nil
		}

		lastErr = rejectErr
		logger.Warn("Structured response rejected (attempt %d/%d): %v", attempt+1, attempts+1, rejectErr)
		currentPrompt = fmt.Sprintf(
			"%s\n\nYour previous response could not be used: %v\nReturn ONLY corrected JSON matching the required schema, with no commentary.",
			prompt, rejectErr)
	}

	return nil, bferrors.NewStageError(bferrors.KindModelSchemaViolation, "",
		fmt.Errorf("structured output still invalid after %d repair attempts: %w", attempts, lastErr))
}

// decodeInto parses model text as JSON, falling back to mechanical
// repair for the usual failure modes (trailing commas, single quotes,
// truncated closers).
func decodeInto[T any](text string) (*T, error) {
	cleaned := StripFences(text)

	var out T
	directErr := json.Unmarshal([]byte(cleaned), &out)
	if directErr == nil {
		return &out, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return nil, fmt.Errorf("response is not valid JSON: %w", directErr)
	}
	var repairedOut T
	if err := json.Unmarshal([]byte(repaired), &repairedOut); err != nil {
		return nil, fmt.Errorf("response is not valid JSON after repair: %w", err)
	}
	return &repairedOut, nil
}
