// Package research produces time-boxed market context for the
// director. The stage is strictly best-effort: it runs concurrently
// with director prompt assembly, and whatever is not ready when the
// budget expires is simply absent from the run.
package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brandforge/internal/brand"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
	"brandforge/internal/model"
	"brandforge/internal/observability"
)

// Injected context never exceeds this many characters, so a verbose
// model cannot crowd the director's own instructions out.
const contextCharCap = 2000

const researchPrompt = `You are a senior brand strategist. Analyze this brand brief and provide market research context.

%s

Respond with ONLY a JSON object:
{
  "positioning": "2-4 sentences on the competitive landscape: key visual conventions in this market, main players, where the white space is",
  "design_language": ["current design-language observations for this category, one per entry"],
  "common_tropes": ["overused visual tropes in this category that a new brand should avoid"],
  "reference_queries": ["5-8 specific search queries for finding visual inspiration, suitable for a design portfolio site"]
}
Be specific and actionable.`

// Record is the market context a research pass produces. The zero
// value means research yielded nothing and the director runs without
// market context.
type Record struct {
	Positioning      string   `json:"positioning"`
	DesignLanguage   []string `json:"design_language,omitempty"`
	CommonTropes     []string `json:"common_tropes,omitempty"`
	ReferenceQueries []string `json:"reference_queries,omitempty"`
}

// Empty reports whether the record carries nothing worth injecting.
func (r *Record) Empty() bool {
	return r == nil || (strings.TrimSpace(r.Positioning) == "" &&
		len(r.DesignLanguage) == 0 && len(r.CommonTropes) == 0)
}

// DirectorContext renders the record for the director's user message,
// capped at the injection limit.
func (r *Record) DirectorContext() string {
	if r.Empty() {
		return ""
	}
	parts := []string{"## MARKET RESEARCH CONTEXT", "", strings.TrimSpace(r.Positioning)}
	if len(r.DesignLanguage) > 0 {
		parts = append(parts, "", "Design language observed:")
		for _, o := range r.DesignLanguage {
			parts = append(parts, "  - "+o)
		}
	}
	if len(r.CommonTropes) > 0 {
		parts = append(parts, "", "Overused tropes in this category (do not repeat them):")
		for _, tr := range r.CommonTropes {
			parts = append(parts, "  - "+tr)
		}
	}
	if len(r.ReferenceQueries) > 0 {
		parts = append(parts, "", "### Suggested Reference Image Searches:")
		queries := r.ReferenceQueries
		if len(queries) > 5 {
			queries = queries[:5]
		}
		for _, q := range queries {
			parts = append(parts, "  - "+q)
		}
	}
	out := strings.Join(parts, "\n")
	if len(out) > contextCharCap {
		out = out[:contextCharCap] + "\n[...truncated]"
	}
	return out
}

// Researcher runs the research stage.
type Researcher struct {
	text           model.TextClient
	timeout        time.Duration
	repairAttempts int
	logger         logging.Logger
}

// New builds a researcher with the given hard time budget.
func New(text model.TextClient, timeout time.Duration, logger logging.Logger) *Researcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Researcher{text: text, timeout: timeout, logger: logging.OrNop(logger)}
}

// SetRepairAttempts overrides the structured-output repair budget.
func (r *Researcher) SetRepairAttempts(n int) {
	r.repairAttempts = n
}

// Research performs the one structured research call. It never fails
// the run: on timeout or model failure it returns an empty record.
func (r *Researcher) Research(ctx context.Context, brief *brand.Brief) *Record {
	if r.text == nil {
		return &Record{}
	}
	ctx = observability.ContextWithStage(ctx, "research")
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	prompt := fmt.Sprintf(researchPrompt, brief.PromptBlock())
	call := func(ctx context.Context, p string) (*model.TextResponse, error) {
		return r.text.Complete(ctx, model.TextRequest{UserPrompt: p, JSONOutput: true})
	}

	record, err := model.Structured[Record](ctx, call, prompt,
		model.StructuredOptions{RepairAttempts: r.repairAttempts, Logger: r.logger}, nil)
	if err != nil {
		if bferrors.IsCancellation(err) || ctx.Err() != nil {
			r.logger.Info("research: budget expired, continuing without market context")
		} else {
			r.logger.Warn("research: failed, continuing without market context: %v", err)
		}
		return &Record{}
	}

	if len(record.ReferenceQueries) > 8 {
		record.ReferenceQueries = record.ReferenceQueries[:8]
	}
	r.logger.Info("research: market context ready (%d chars, %d queries)",
		len(record.Positioning), len(record.ReferenceQueries))
	return record
}
