package scheduling

import (
	"fmt"
	"sort"
	"sync"
	"time"

	appErrors "github.com/mirai-juku/scheduling-api/pkg/errors"
)

// ActionType is the operator's decision for one flagged date.
type ActionType string

const (
	ActionSkip           ActionType = "SKIP"
	ActionForceCreate    ActionType = "FORCE_CREATE"
	ActionUseAlternative ActionType = "USE_ALTERNATIVE"
)

// SessionAction is one compiled per-date decision handed to the session
// materialization boundary. Dates that were never flagged are absent: they
// are created with the originally requested window without passing through
// the engine.
type SessionAction struct {
	Date                 time.Time  `json:"date"`
	Action               ActionType `json:"action"`
	AlternativeStartTime string     `json:"alternativeStartTime,omitempty"`
	AlternativeEndTime   string     `json:"alternativeEndTime,omitempty"`
}

type resolutionState struct {
	conflicts   []Conflict
	action      ActionType // empty = unresolved
	editedStart string
	editedEnd   string
}

// ResolutionEngine is the per-occurrence state machine the operator drives to
// resolve flagged dates. State is keyed per date; operations on different
// dates never interfere and re-applying the same action is a no-op.
type ResolutionEngine struct {
	mu sync.RWMutex

	originalStart string
	originalEnd   string
	states        map[string]*resolutionState
	order         []time.Time
}

// NewResolutionEngine seeds the engine with the flagged occurrences of a
// detection run and the originally requested time window. Conflict-free
// occurrences are ignored.
func NewResolutionEngine(occurrences []Occurrence, startTime, endTime string) *ResolutionEngine {
	e := &ResolutionEngine{
		originalStart: startTime,
		originalEnd:   endTime,
		states:        make(map[string]*resolutionState),
	}
	e.seed(occurrences)
	return e
}

func (e *ResolutionEngine) seed(occurrences []Occurrence) {
	for _, occ := range occurrences {
		if !occ.Flagged() {
			continue
		}
		key := DateKey(occ.Date)
		if _, ok := e.states[key]; ok {
			continue
		}
		e.states[key] = &resolutionState{conflicts: occ.Conflicts}
		e.order = append(e.order, occ.Date)
	}
	sort.Slice(e.order, func(i, j int) bool { return e.order[i].Before(e.order[j]) })
}

// FlaggedDates returns the flagged dates in ascending order.
func (e *ResolutionEngine) FlaggedDates() []time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]time.Time, len(e.order))
	copy(out, e.order)
	return out
}

// ConflictsFor returns the retained conflicts for one flagged date.
func (e *ResolutionEngine) ConflictsFor(date time.Time) []Conflict {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if state, ok := e.states[DateKey(date)]; ok {
		return state.conflicts
	}
	return nil
}

// SetAction records the operator's decision for a flagged date. Choosing
// USE_ALTERNATIVE seeds the editable time pair from the originally requested
// window; a later CommitAlternativeTime overwrites it.
func (e *ResolutionEngine) SetAction(date time.Time, action ActionType) error {
	if action != ActionSkip && action != ActionForceCreate && action != ActionUseAlternative {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", action))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.states[DateKey(date)]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("date %s is not flagged", DateKey(date)))
	}
	state.action = action
	if action == ActionUseAlternative && state.editedStart == "" {
		state.editedStart = e.originalStart
		state.editedEnd = e.originalEnd
	}
	return nil
}

// CommitAlternativeTime validates and stores an edited time pair for a date
// already set to USE_ALTERNATIVE. Invalid input rejects the commit and leaves
// the previous state untouched; there is no partial commit.
func (e *ResolutionEngine) CommitAlternativeTime(date time.Time, startTime, endTime string) error {
	if startTime >= endTime {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	if !OnGrid(startTime, endTime) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %s-%s is off the slot grid", startTime, endTime))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.states[DateKey(date)]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("date %s is not flagged", DateKey(date)))
	}
	if state.action != ActionUseAlternative {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "date is not in alternative-time mode")
	}
	state.editedStart = startTime
	state.editedEnd = endTime
	return nil
}

// BulkApply sets one action on a subset of flagged dates in a single step.
// Alternative times differ per date's availability, so only SKIP and
// FORCE_CREATE may be applied in bulk.
func (e *ResolutionEngine) BulkApply(dates []time.Time, action ActionType) error {
	if action != ActionSkip && action != ActionForceCreate {
		return appErrors.Clone(appErrors.ErrValidation, "bulk apply supports SKIP and FORCE_CREATE only")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, date := range dates {
		if state, ok := e.states[DateKey(date)]; ok {
			state.action = action
		}
	}
	return nil
}

// Reset clears one date back to the unresolved initial state.
func (e *ResolutionEngine) Reset(date time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if state, ok := e.states[DateKey(date)]; ok {
		state.action = ""
		state.editedStart = ""
		state.editedEnd = ""
	}
}

// ResetAll clears every date back to the unresolved initial state.
func (e *ResolutionEngine) ResetAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, state := range e.states {
		state.action = ""
		state.editedStart = ""
		state.editedEnd = ""
	}
}

// Unresolved returns the flagged dates that still have no action, ascending.
func (e *ResolutionEngine) Unresolved() []time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []time.Time
	for _, date := range e.order {
		if e.states[DateKey(date)].action == "" {
			out = append(out, date)
		}
	}
	return out
}

// Compile produces the final action list: one entry per flagged date with a
// non-empty action, in ascending date order. USE_ALTERNATIVE entries carry
// the edited time pair, or the original window when never edited.
func (e *ResolutionEngine) Compile() []SessionAction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	actions := make([]SessionAction, 0, len(e.order))
	for _, date := range e.order {
		state := e.states[DateKey(date)]
		if state.action == "" {
			continue
		}
		action := SessionAction{Date: date, Action: state.action}
		if state.action == ActionUseAlternative {
			action.AlternativeStartTime = state.editedStart
			action.AlternativeEndTime = state.editedEnd
			if action.AlternativeStartTime == "" {
				action.AlternativeStartTime = e.originalStart
				action.AlternativeEndTime = e.originalEnd
			}
		}
		actions = append(actions, action)
	}
	return actions
}

// Reconcile replaces the engine's conflict set with the server's
// re-validated one. Actions and edits for dates still flagged are preserved
// so the operator can resubmit without re-entering data; actions for dates
// the server no longer reports are discarded.
func (e *ResolutionEngine) Reconcile(occurrences []Occurrence) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fresh := make(map[string][]Conflict)
	var order []time.Time
	for _, occ := range occurrences {
		if !occ.Flagged() {
			continue
		}
		key := DateKey(occ.Date)
		if _, ok := fresh[key]; ok {
			continue
		}
		fresh[key] = occ.Conflicts
		order = append(order, occ.Date)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	states := make(map[string]*resolutionState, len(fresh))
	for key, conflicts := range fresh {
		if prev, ok := e.states[key]; ok {
			prev.conflicts = conflicts
			states[key] = prev
			continue
		}
		states[key] = &resolutionState{conflicts: conflicts}
	}
	e.states = states
	e.order = order
}
