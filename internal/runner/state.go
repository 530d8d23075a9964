package runner

import (
	"fmt"
	"sync"
	"time"

	"brandforge/internal/async"
	bferrors "brandforge/internal/errors"
	"brandforge/internal/logging"
)

// State is one node of the per-phase pipeline state machine. Each
// phase entry point runs its own machine from IDLE to exactly one
// terminal state.
type State string

const (
	StateIdle               State = "IDLE"
	StateResearching        State = "RESEARCHING"
	StateDirecting          State = "DIRECTING"
	StateTagging            State = "TAGGING"
	StateGeneratingLogos    State = "GENERATING_LOGOS"
	StateGeneratingAssets   State = "GENERATING_ASSETS"
	StateCompositingMockups State = "COMPOSITING_MOCKUPS"
	StateGeneratingSocial   State = "GENERATING_SOCIAL"
	StateDone               State = "DONE"
	StateDonePartial        State = "DONE_PARTIAL"
	StateFailed             State = "FAILED"
	StateCancelled          State = "CANCELLED"
)

// Terminal reports whether s ends a phase.
func (s State) Terminal() bool {
	switch s {
	case StateDone, StateDonePartial, StateFailed, StateCancelled:
		return true
	}
	return false
}

// transitions is the edge set for both phases. Refinement re-enters
// at DIRECTING and the assets phase at GENERATING_ASSETS, so IDLE
// fans out to three working states. Terminal states have no outgoing
// edges, which is what makes a second terminal transition illegal.
var transitions = map[State][]State{
	StateIdle:               {StateResearching, StateDirecting, StateGeneratingAssets},
	StateResearching:        {StateDirecting, StateFailed, StateCancelled},
	StateDirecting:          {StateTagging, StateFailed, StateCancelled},
	StateTagging:            {StateGeneratingLogos, StateFailed, StateCancelled},
	StateGeneratingLogos:    {StateDone, StateDonePartial, StateFailed, StateCancelled},
	StateGeneratingAssets:   {StateCompositingMockups, StateFailed, StateCancelled},
	StateCompositingMockups: {StateGeneratingSocial, StateFailed, StateCancelled},
	StateGeneratingSocial:   {StateDone, StateDonePartial, StateFailed, StateCancelled},
}

func legalTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Event is one progress notification. Stage boundaries arrive with an
// empty Item and status "started", parallel-task completions carry the
// item name, and the terminal event closes the stream with status
// "terminal". No events follow the terminal one.
type Event struct {
	Stage   string        `json:"stage"`
	Item    string        `json:"item,omitempty"`
	Status  string        `json:"status"`
	Elapsed time.Duration `json:"elapsed"`
	Detail  string        `json:"detail,omitempty"`
}

// Event status words.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusDegraded  = "degraded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusTerminal  = "terminal"
)

// tracker drives one phase's state machine. It serializes event
// emission, isolates callback panics, and drops item events that
// arrive after the terminal event. Moving along an edge the machine
// does not have is a programming error and panics.
type tracker struct {
	mu      sync.Mutex
	state   State
	done    bool
	start   time.Time
	onEvent func(Event)
	logger  logging.Logger
}

func newTracker(onEvent func(Event), logger logging.Logger) *tracker {
	return &tracker{
		state:   StateIdle,
		start:   time.Now(),
		onEvent: onEvent,
		logger:  logging.OrNop(logger),
	}
}

// to moves the machine into next and emits the stage-boundary event.
func (t *tracker) to(next State, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !legalTransition(t.state, next) {
		panic(fmt.Sprintf("runner: illegal transition %s -> %s", t.state, next))
	}
	t.state = next
	status := StatusStarted
	if next.Terminal() {
		status = StatusTerminal
		t.done = true
	}
	t.emitLocked(Event{Stage: string(next), Status: status, Elapsed: time.Since(t.start), Detail: detail})
}

// item emits a task completion under the current stage. Stragglers
// reporting after the terminal event are dropped, not errors: a
// cancelled worker pool can still flush its last statuses.
func (t *tracker) item(name, status string, elapsed time.Duration, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	t.emitLocked(Event{Stage: string(t.state), Item: name, Status: status, Elapsed: elapsed, Detail: detail})
}

// finish closes the machine from the stage error and the partial
// flag. Cancellation wins over failure, failure over partial.
func (t *tracker) finish(err error, partial bool, detail string) {
	switch {
	case err != nil && bferrors.IsCancellation(err):
		t.to(StateCancelled, detail)
	case err != nil:
		t.to(StateFailed, detail)
	case partial:
		t.to(StateDonePartial, detail)
	default:
		t.to(StateDone, detail)
	}
}

// emitLocked invokes the callback while holding the lock so the
// caller observes one event at a time. A panicking callback is logged
// and swallowed; progress reporting never takes the pipeline down.
func (t *tracker) emitLocked(ev Event) {
	if t.onEvent == nil {
		return
	}
	defer async.Recover(t.logger, "progress callback")
	t.onEvent(ev)
}
