package collision

import (
	"cmp"
	"slices"

	"github.com/akmonengine/impulse/ecs"
)

// PairKey identifies an unordered entity pair; A is always the smaller id
type PairKey struct {
	A ecs.EntityID
	B ecs.EntityID
}

// MakePairKey creates a normalized pair key with consistent ordering
func MakePairKey(a, b ecs.EntityID) PairKey {
	if b < a {
		a, b = b, a
	}

	return PairKey{A: a, B: b}
}

type Transition uint8

const (
	Enter Transition = iota
	Stay
	Exit
)

func (t Transition) String() string {
	switch t {
	case Enter:
		return "enter"
	case Stay:
		return "stay"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// PairEvent reports how a pair's contact state changed over one pass
type PairEvent struct {
	Pair       PairKey
	Transition Transition
	Trigger    bool
	NameA      string
	NameB      string
}

type pairState struct {
	trigger bool
	nameA   string
	nameB   string
}

// Tracker holds the per-pass "already checked" set and the persistent
// "currently colliding" set, so enter, stay and exit can be told apart.
type Tracker struct {
	checked   map[PairKey]struct{}
	colliding map[PairKey]pairState
	current   map[PairKey]pairState
}

func NewTracker() *Tracker {
	return &Tracker{
		checked:   make(map[PairKey]struct{}),
		colliding: make(map[PairKey]pairState),
		current:   make(map[PairKey]pairState),
	}
}

// Begin starts a new pass
func (t *Tracker) Begin() {
	clear(t.checked)
	clear(t.current)
}

// MarkChecked returns false when the pair was already tested in this pass
func (t *Tracker) MarkChecked(a, b ecs.EntityID) bool {
	key := MakePairKey(a, b)
	if _, ok := t.checked[key]; ok {
		return false
	}
	t.checked[key] = struct{}{}

	return true
}

// Record registers a colliding pair for this pass
func (t *Tracker) Record(a, b ecs.EntityID, nameA, nameB string, trigger bool) {
	key := MakePairKey(a, b)
	if key.A != a {
		nameA, nameB = nameB, nameA
	}
	t.current[key] = pairState{trigger: trigger, nameA: nameA, nameB: nameB}
}

// Colliding reports whether the pair collided during the last completed pass
func (t *Tracker) Colliding(a, b ecs.EntityID) bool {
	_, ok := t.colliding[MakePairKey(a, b)]
	return ok
}

// CollidingWith returns the entities colliding with id in the last completed pass
func (t *Tracker) CollidingWith(id ecs.EntityID) []ecs.EntityID {
	result := make([]ecs.EntityID, 0)
	for key := range t.colliding {
		switch id {
		case key.A:
			result = append(result, key.B)
		case key.B:
			result = append(result, key.A)
		}
	}
	slices.Sort(result)

	return result
}

// Forget drops every pair involving id without reporting an exit
func (t *Tracker) Forget(id ecs.EntityID) {
	for _, set := range []map[PairKey]pairState{t.colliding, t.current} {
		for key := range set {
			if key.A == id || key.B == id {
				delete(set, key)
			}
		}
	}
	for key := range t.checked {
		if key.A == id || key.B == id {
			delete(t.checked, key)
		}
	}
}

// End closes the pass and returns the transitions, ordered by pair
func (t *Tracker) End() []PairEvent {
	events := make([]PairEvent, 0, len(t.current)+len(t.colliding))

	for key, state := range t.current {
		transition := Enter
		if _, ok := t.colliding[key]; ok {
			transition = Stay
		}
		events = append(events, newPairEvent(key, state, transition))
	}
	for key, state := range t.colliding {
		if _, ok := t.current[key]; !ok {
			events = append(events, newPairEvent(key, state, Exit))
		}
	}

	t.colliding, t.current = t.current, t.colliding
	clear(t.current)

	slices.SortFunc(events, func(x, y PairEvent) int {
		if c := cmp.Compare(x.Pair.A, y.Pair.A); c != 0 {
			return c
		}
		return cmp.Compare(x.Pair.B, y.Pair.B)
	})

	return events
}

func newPairEvent(key PairKey, state pairState, transition Transition) PairEvent {
	return PairEvent{
		Pair:       key,
		Transition: transition,
		Trigger:    state.trigger,
		NameA:      state.nameA,
		NameB:      state.nameB,
	}
}
