package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectEvents() (*[]Event, func(Event)) {
	events := &[]Event{}
	return events, func(ev Event) { *events = append(*events, ev) }
}

func terminalEvents(events []Event) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Status == StatusTerminal {
			out = append(out, ev)
		}
	}
	return out
}

func TestTrackerWalksLogosPhaseStates(t *testing.T) {
	events, onEvent := collectEvents()
	tr := newTracker(onEvent, nil)

	tr.to(StateResearching, "")
	tr.to(StateDirecting, "")
	tr.to(StateTagging, "")
	tr.to(StateGeneratingLogos, "")
	tr.to(StateDone, "")

	require.Len(t, *events, 5)
	stages := make([]string, len(*events))
	for i, ev := range *events {
		stages[i] = ev.Stage
	}
	assert.Equal(t, []string{"RESEARCHING", "DIRECTING", "TAGGING", "GENERATING_LOGOS", "DONE"}, stages)
	for _, ev := range (*events)[:4] {
		assert.Equal(t, StatusStarted, ev.Status)
		assert.Empty(t, ev.Item)
	}
	require.Len(t, terminalEvents(*events), 1)
	assert.Equal(t, "DONE", (*events)[4].Stage)
}

func TestTrackerRejectsIllegalTransition(t *testing.T) {
	tr := newTracker(nil, nil)
	assert.PanicsWithValue(t, "runner: illegal transition IDLE -> TAGGING", func() {
		tr.to(StateTagging, "")
	})
}

func TestTrackerRejectsSecondTerminal(t *testing.T) {
	tr := newTracker(nil, nil)
	tr.to(StateGeneratingAssets, "")
	tr.to(StateFailed, "boom")
	assert.Panics(t, func() { tr.to(StateCancelled, "") })
}

func TestTrackerDropsItemsAfterTerminal(t *testing.T) {
	events, onEvent := collectEvents()
	tr := newTracker(onEvent, nil)
	tr.to(StateResearching, "")
	tr.to(StateCancelled, "")

	tr.item("option_1", StatusCompleted, time.Second, "")

	require.Len(t, *events, 2)
	assert.Equal(t, "CANCELLED", (*events)[1].Stage)
}

func TestTrackerItemCarriesCurrentStage(t *testing.T) {
	events, onEvent := collectEvents()
	tr := newTracker(onEvent, nil)
	tr.to(StateResearching, "")
	tr.to(StateDirecting, "")
	tr.to(StateTagging, "")
	tr.to(StateGeneratingLogos, "")

	tr.item("option_3", StatusDegraded, 42*time.Millisecond, "Contour and Crema")

	last := (*events)[len(*events)-1]
	assert.Equal(t, "GENERATING_LOGOS", last.Stage)
	assert.Equal(t, "option_3", last.Item)
	assert.Equal(t, StatusDegraded, last.Status)
	assert.Equal(t, 42*time.Millisecond, last.Elapsed)
	assert.Equal(t, "Contour and Crema", last.Detail)
}

func TestTrackerIsolatesCallbackPanic(t *testing.T) {
	var calls int
	tr := newTracker(func(Event) {
		calls++
		if calls == 1 {
			panic("subscriber bug")
		}
	}, nil)

	assert.NotPanics(t, func() { tr.to(StateResearching, "") })
	tr.to(StateDirecting, "")
	assert.Equal(t, 2, calls)
}

func TestTrackerFinishMapsOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		partial bool
		want    string
	}{
		{"clean", nil, false, "DONE"},
		{"partial", nil, true, "DONE_PARTIAL"},
		{"failed", errors.New("schema invalid"), false, "FAILED"},
		{"cancelled", context.Canceled, true, "CANCELLED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, onEvent := collectEvents()
			tr := newTracker(onEvent, nil)
			tr.to(StateGeneratingAssets, "")
			tr.finish(tc.err, tc.partial, "detail")
			last := (*events)[len(*events)-1]
			assert.Equal(t, tc.want, last.Stage)
			assert.Equal(t, StatusTerminal, last.Status)
			assert.Equal(t, "detail", last.Detail)
		})
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateDone, StateDonePartial, StateFailed, StateCancelled} {
		assert.True(t, s.Terminal(), string(s))
	}
	for _, s := range []State{StateIdle, StateResearching, StateDirecting, StateTagging,
		StateGeneratingLogos, StateGeneratingAssets, StateCompositingMockups, StateGeneratingSocial} {
		assert.False(t, s.Terminal(), string(s))
	}
}
