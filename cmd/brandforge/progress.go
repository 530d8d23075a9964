package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"brandforge/internal/runner"
)

// stageLabels maps state machine stages to operator-facing lines.
var stageLabels = map[string]string{
	string(runner.StateResearching):        "Researching the market",
	string(runner.StateDirecting):          "Developing creative directions",
	string(runner.StateTagging):            "Resolving reference tags",
	string(runner.StateGeneratingLogos):    "Rendering logos",
	string(runner.StateGeneratingAssets):   "Building the asset set",
	string(runner.StateCompositingMockups): "Compositing mockups",
	string(runner.StateGeneratingSocial):   "Generating social posts",
}

// progressPrinter renders pipeline events one line at a time. The
// runner already serializes emission; the mutex only guards against
// the CLI printing its own lines mid-event.
type progressPrinter struct {
	mu      sync.Mutex
	verbose bool
}

func newProgressPrinter(verbose bool) *progressPrinter {
	return &progressPrinter{verbose: verbose}
}

func (p *progressPrinter) onEvent(ev runner.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case ev.Status == runner.StatusTerminal:
		p.printTerminal(ev)
	case ev.Item != "":
		p.printItem(ev)
	default:
		label, ok := stageLabels[ev.Stage]
		if !ok {
			label = ev.Stage
		}
		fmt.Printf("%s %s\n", blue("=>"), label)
	}
}

func (p *progressPrinter) printItem(ev runner.Event) {
	var mark, status string
	switch ev.Status {
	case runner.StatusCompleted:
		mark, status = green("ok"), ""
	case runner.StatusDegraded:
		mark, status = yellow("degraded"), ev.Detail
	case runner.StatusSkipped:
		mark, status = gray("skipped"), ev.Detail
	case runner.StatusFailed:
		mark, status = red("failed"), ev.Detail
	default:
		mark = gray(ev.Status)
	}

	line := fmt.Sprintf("   %-28s %s", ev.Item, mark)
	if status != "" {
		line += " " + gray(status)
	}
	if p.verbose && ev.Elapsed > 0 {
		line += gray(fmt.Sprintf("  (%s)", ev.Elapsed.Round(100*time.Millisecond)))
	}
	fmt.Println(line)
}

func (p *progressPrinter) printTerminal(ev runner.Event) {
	elapsed := ev.Elapsed.Round(time.Second)
	switch ev.Stage {
	case string(runner.StateDone):
		fmt.Printf("%s Completed in %s\n", green("=>"), elapsed)
	case string(runner.StateDonePartial):
		fmt.Printf("%s Completed with degraded items in %s\n", yellow("=>"), elapsed)
		if ev.Detail != "" {
			fmt.Printf("   %s\n", gray(ev.Detail))
		}
	case string(runner.StateCancelled):
		fmt.Printf("%s Cancelled after %s, partial outputs kept\n", yellow("=>"), elapsed)
	case string(runner.StateFailed):
		fmt.Printf("%s Failed after %s\n", red("=>"), elapsed)
		if ev.Detail != "" {
			fmt.Printf("   %s\n", red(firstLine(ev.Detail)))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
