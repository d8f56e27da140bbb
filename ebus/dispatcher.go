package ebus

import (
	"sort"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/zhenyu888/event-dispatcher/apperr"
)

type State int8

const (
	StatePending State = iota
	StateDispatching
	StateRemovingAll // RemoveAll was called by a listener, applied when the dispatch unwinds
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDispatching:
		return "dispatching"
	case StateRemovingAll:
		return "removing_all"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Dispatcher delivers events synchronously to the listeners subscribed to
// their type. Listeners may subscribe, unsubscribe, RemoveAll or Destroy from
// inside a callback; structural changes never affect the delivery in
// progress, and RemoveAll/Destroy are applied once it unwinds.
//
// A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	name      string
	logLevel  glog.Level
	listeners map[string][]*registration
	state     State

	// type of the dispatch in flight, valid while inFlight is set
	current  string
	inFlight bool
}

func NewDispatcher(opt ...Option) *Dispatcher {
	opts := buildOptions(opt...)
	return &Dispatcher{
		name:      opts.name,
		logLevel:  opts.logLevel,
		listeners: make(map[string][]*registration),
	}
}

func (d *Dispatcher) State() State {
	return d.state
}

// Types returns every event type that has a bucket, sorted.
func (d *Dispatcher) Types() []string {
	rlt := make([]string, 0, len(d.listeners))
	for typ := range d.listeners {
		rlt = append(rlt, typ)
	}
	sort.Strings(rlt)
	return rlt
}

func (d *Dispatcher) isDispatching(typ string) bool {
	return d.inFlight && d.current == typ
}

// Dispatch delivers event to its type's listeners in priority order. It
// returns false without doing anything when another dispatch is in progress,
// the dispatcher is destroyed, or nobody ever subscribed to the type.
//
// A panicking listener is not recovered: the dispatcher finishes the
// dispatch's cleanup and returns to pending before the panic leaves Dispatch.
// Use TryDispatch to get the panic back as an error.
func (d *Dispatcher) Dispatch(event Event) bool {
	if d.state != StatePending {
		return false
	}
	typ := event.Type()
	bucket, ok := d.listeners[typ]
	if !ok {
		return false
	}
	if len(bucket) == 0 {
		return true
	}

	d.state = StateDispatching
	d.current, d.inFlight = typ, true
	panicked := true
	defer func() {
		if panicked {
			glog.Warningf("[ebus:%s] panic while dispatching %q, state %s", d.name, typ, d.state)
			d.finish(typ)
		}
	}()
	event.Reset(d)

	entries := make([]*registration, len(bucket))
	copy(entries, bucket)
	d.vlog("dispatch %q to %d listeners", typ, len(entries))

	for _, entry := range entries {
		if entry.pendingRemoval {
			continue
		}
		entry.listener.fn(event)

		if d.state != StateDispatching {
			break
		}
		if entry.once {
			entry.pendingRemoval = true
		}
		if !event.Propagating() {
			d.vlog("propagation of %q stopped by %s", typ, entry.listener.Name())
			break
		}
	}
	panicked = false
	d.finish(typ)
	return true
}

// TryDispatch is Dispatch that recovers a listener panic and returns it as
// an apperr system error. The dispatch is reported as not delivered.
func (d *Dispatcher) TryDispatch(event Event) (ok bool, err error) {
	completed := false
	defer func() {
		// recover returns nil for panic(nil) before go 1.21
		if r := recover(); r != nil || !completed {
			ok = false
			err = errors.WithStack(apperr.ErrListenerPanic(event.Type(), r))
		}
	}()
	ok = d.Dispatch(event)
	completed = true
	return ok, nil
}

// finish is the cleanup phase of a dispatch of typ.
func (d *Dispatcher) finish(typ string) {
	d.current, d.inFlight = "", false
	switch d.state {
	case StateRemovingAll:
		d.state = StatePending
		d.RemoveAll()
	case StateDestroyed:
		d.teardown()
	default:
		d.state = StatePending
		d.sweep(typ)
	}
}

// sweep drops the flagged registrations of typ: listeners removed or fired as
// once during the dispatch, including ones subscribed after it started.
func (d *Dispatcher) sweep(typ string) {
	bucket := d.listeners[typ]
	kept := bucket[:0]
	for _, r := range bucket {
		if r.pendingRemoval {
			d.vlog("remove listener %s from %q", r.listener.Name(), typ)
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(bucket); i++ {
		bucket[i] = nil
	}
	d.listeners[typ] = kept
}

// RemoveAll unsubscribes every listener but keeps the known types, so Total
// reports 0 for them afterwards. Called from a listener it is deferred until
// the dispatch unwinds.
func (d *Dispatcher) RemoveAll() {
	if d.inFlight {
		if d.state == StateDispatching {
			d.vlog("defer remove all")
			d.state = StateRemovingAll
		}
		return
	}
	if d.state == StateDestroyed {
		return
	}
	for typ, bucket := range d.listeners {
		for i := range bucket {
			bucket[i] = nil
		}
		d.listeners[typ] = bucket[:0]
	}
	d.vlog("removed all listeners")
}

// Destroy releases the listener table. A destroyed dispatcher ignores
// subscriptions and rejects dispatches. Called from a listener it is deferred
// until the dispatch unwinds.
func (d *Dispatcher) Destroy() {
	if d.inFlight {
		d.vlog("defer destroy")
		d.state = StateDestroyed
		return
	}
	d.teardown()
}

func (d *Dispatcher) teardown() {
	for typ, bucket := range d.listeners {
		for i := range bucket {
			bucket[i] = nil
		}
		delete(d.listeners, typ)
	}
	d.listeners = nil
	d.state = StateDestroyed
	d.vlog("destroyed")
}

func (d *Dispatcher) vlog(format string, args ...interface{}) {
	if glog.V(d.logLevel) {
		glog.Infof("[ebus:%s] "+format, append([]interface{}{d.name}, args...)...)
	}
}
