package impulse

import (
	"github.com/akmonengine/impulse/collision"
	"github.com/akmonengine/impulse/ecs"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case TRIGGER_ENTER:
		return "TRIGGER_ENTER"
	case COLLISION_ENTER:
		return "COLLISION_ENTER"
	case TRIGGER_STAY:
		return "TRIGGER_STAY"
	case COLLISION_STAY:
		return "COLLISION_STAY"
	case TRIGGER_EXIT:
		return "TRIGGER_EXIT"
	case COLLISION_EXIT:
		return "COLLISION_EXIT"
	default:
		return "UNKNOWN"
	}
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
	Entities() (ecs.EntityID, ecs.EntityID)
}

// Contact is the payload shared by every pair event. EntityA < EntityB.
type Contact struct {
	EntityA ecs.EntityID
	EntityB ecs.EntityID
	NameA   string
	NameB   string
}

func (c Contact) Entities() (ecs.EntityID, ecs.EntityID) { return c.EntityA, c.EntityB }

// Trigger events
type TriggerEnterEvent struct{ Contact }

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct{ Contact }

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct{ Contact }

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events
type CollisionEnterEvent struct{ Contact }

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct{ Contact }

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct{ Contact }

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers the pair transitions of a step and dispatches them on flush
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 256),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// record converts the tracker transitions of a pass into buffered events
func (e *Events) record(transitions []collision.PairEvent) {
	for _, transition := range transitions {
		e.buffer = append(e.buffer, newEvent(transition))
	}
}

func newEvent(transition collision.PairEvent) Event {
	contact := Contact{
		EntityA: transition.Pair.A,
		EntityB: transition.Pair.B,
		NameA:   transition.NameA,
		NameB:   transition.NameB,
	}

	switch transition.Transition {
	case collision.Enter:
		if transition.Trigger {
			return TriggerEnterEvent{contact}
		}
		return CollisionEnterEvent{contact}
	case collision.Stay:
		if transition.Trigger {
			return TriggerStayEvent{contact}
		}
		return CollisionStayEvent{contact}
	default:
		if transition.Trigger {
			return TriggerExitEvent{contact}
		}
		return CollisionExitEvent{contact}
	}
}

// flush sends all buffered events and clears the buffer. It returns the
// number of events sent.
func (e *Events) flush() int {
	count := len(e.buffer)
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	clear(e.buffer)
	e.buffer = e.buffer[:0]

	return count
}
