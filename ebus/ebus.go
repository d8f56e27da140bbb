package ebus

import (
	"sync"
)

// Event is anything that can be delivered by a Dispatcher.
type Event interface {
	// Type selects the listeners the event is delivered to.
	Type() string
	// Reset is called once at the start of every accepted dispatch. It binds
	// the event to the dispatcher and must make Propagating report true.
	Reset(d *Dispatcher)
	Propagating() bool
	StopPropagation()
}

// BaseEvent implements Event and is meant to be embedded.
type BaseEvent struct {
	EventType  string
	dispatcher *Dispatcher
	stopped    bool
}

func NewEvent(typ string) *BaseEvent {
	return &BaseEvent{EventType: typ}
}

func (e *BaseEvent) Type() string {
	return e.EventType
}

func (e *BaseEvent) Reset(d *Dispatcher) {
	e.dispatcher = d
	e.stopped = false
}

// Dispatcher returns the dispatcher currently (or last) delivering the event.
func (e *BaseEvent) Dispatcher() *Dispatcher {
	return e.dispatcher
}

func (e *BaseEvent) Propagating() bool {
	return !e.stopped
}

func (e *BaseEvent) StopPropagation() {
	e.stopped = true
}

var (
	defaultDispatcher *Dispatcher
	once              sync.Once
)

// Default returns the process wide dispatcher used by the package level funcs.
func Default() *Dispatcher {
	once.Do(func() {
		defaultDispatcher = NewDispatcher()
	})
	return defaultDispatcher
}

func On(typ string, l *Listener, priority ...int) *Dispatcher {
	return Default().On(typ, l, priority...)
}

func Once(typ string, l *Listener, priority ...int) *Dispatcher {
	return Default().Once(typ, l, priority...)
}

func Off(typ string, l *Listener) *Dispatcher {
	return Default().Off(typ, l)
}

func Has(typ string, l *Listener) bool {
	return Default().Has(typ, l)
}

func Dispatch(event Event) bool {
	return Default().Dispatch(event)
}
