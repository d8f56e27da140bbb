package ebus

import (
	"sort"

	"github.com/zhenyu888/event-dispatcher/funcs"
)

// UnknownType is what Total reports for a type that has never been subscribed.
const UnknownType = -1

type Callback func(event Event)

// Listener is the identity of a callback. Go funcs are not comparable, so
// subscriptions are matched by the *Listener they were made with: keep the
// handle around to call Off or Has later.
type Listener struct {
	name string
	fn   Callback
}

func NewListener(fn Callback) *Listener {
	return NewNamedListener(funcs.FuncName(fn), fn)
}

func NewNamedListener(name string, fn Callback) *Listener {
	if fn == nil {
		panic(ErrNilListener)
	}
	return &Listener{name: name, fn: fn}
}

func (l *Listener) Name() string {
	return l.name
}

type registration struct {
	listener       *Listener
	priority       int
	once           bool
	pendingRemoval bool
}

func byPriority(bucket []*registration) {
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].priority > bucket[j].priority
	})
}

func indexOf(bucket []*registration, l *Listener) int {
	for i, r := range bucket {
		if r.listener == l {
			return i
		}
	}
	return -1
}

func firstOr(values []int, def int) int {
	if len(values) > 0 {
		return values[0]
	}
	return def
}

// On subscribes l to typ. Higher priorities run first, equal priorities run
// in subscription order. Subscribing the same listener again only updates its
// priority and clears its once flag.
func (d *Dispatcher) On(typ string, l *Listener, priority ...int) *Dispatcher {
	d.add(typ, l, firstOr(priority, 0), false)
	return d
}

// Once is On for a listener that is removed after its first invocation.
func (d *Dispatcher) Once(typ string, l *Listener, priority ...int) *Dispatcher {
	d.add(typ, l, firstOr(priority, 0), true)
	return d
}

func (d *Dispatcher) add(typ string, l *Listener, priority int, once bool) {
	if d.listeners == nil || d.state == StateDestroyed || l == nil {
		return
	}
	bucket := d.listeners[typ]
	if i := indexOf(bucket, l); i >= 0 {
		bucket[i].priority = priority
		bucket[i].once = once
	} else {
		bucket = append(bucket, &registration{listener: l, priority: priority, once: once})
	}
	byPriority(bucket)
	d.listeners[typ] = bucket
}

func (d *Dispatcher) Has(typ string, l *Listener) bool {
	return indexOf(d.listeners[typ], l) >= 0
}

// Total returns the number of listeners on typ, or UnknownType.
func (d *Dispatcher) Total(typ string) int {
	bucket, ok := d.listeners[typ]
	if !ok {
		return UnknownType
	}
	return len(bucket)
}

// Off unsubscribes l from typ. While typ is being dispatched the listener is
// only flagged; it is skipped by the running dispatch and dropped when that
// dispatch finishes.
func (d *Dispatcher) Off(typ string, l *Listener) *Dispatcher {
	bucket := d.listeners[typ]
	i := indexOf(bucket, l)
	if i < 0 {
		return d
	}
	if d.isDispatching(typ) {
		d.vlog("flag listener %s on %q for removal", l.Name(), typ)
		bucket[i].pendingRemoval = true
		return d
	}
	d.vlog("remove listener %s from %q", l.Name(), typ)
	copy(bucket[i:], bucket[i+1:])
	bucket[len(bucket)-1] = nil
	d.listeners[typ] = bucket[:len(bucket)-1]
	return d
}
