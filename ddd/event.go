package ddd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zhenyu888/event-dispatcher/apperr"
	"github.com/zhenyu888/event-dispatcher/ebus"
	"github.com/zhenyu888/event-dispatcher/funcs"
)

type DomainEvent interface {
	ebus.Event
	fmt.Stringer
	GetEventId() string
	GetOccurredOn() int64
	// Context is the context the event was published with.
	Context() context.Context
}

type DomainEventSetter interface {
	SetEventId(string)
	SetOccurredOn(int64)
	SetContext(context.Context)
}

// BaseDomainEvent implements DomainEvent and DomainEventSetter. Embed it by
// value and build it with NewBaseDomainEvent.
type BaseDomainEvent struct {
	ebus.BaseEvent
	EventId    string
	OccurredOn int64
	ctx        context.Context
}

func NewBaseDomainEvent(eventType string) BaseDomainEvent {
	return BaseDomainEvent{BaseEvent: ebus.BaseEvent{EventType: eventType}}
}

func (e *BaseDomainEvent) GetEventId() string {
	return e.EventId
}

func (e *BaseDomainEvent) GetOccurredOn() int64 {
	return e.OccurredOn
}

func (e *BaseDomainEvent) SetEventId(id string) {
	e.EventId = id
}

func (e *BaseDomainEvent) SetOccurredOn(ts int64) {
	e.OccurredOn = ts
}

func (e *BaseDomainEvent) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *BaseDomainEvent) SetContext(ctx context.Context) {
	e.ctx = ctx
}

func (e *BaseDomainEvent) String() string {
	return fmt.Sprintf("%s(%s)", e.Type(), e.EventId)
}

type DomainEventPublisher interface {
	Publish(context.Context, DomainEvent) error
}

// NewDomainEventPublisher publishes through d, or through ebus.Default() when
// d is nil.
func NewDomainEventPublisher(d *ebus.Dispatcher) DomainEventPublisher {
	if d == nil {
		d = ebus.Default()
	}
	return &ebusPublisher{dispatcher: d}
}

type ebusPublisher struct {
	dispatcher *ebus.Dispatcher
}

// Publish delivers event synchronously. It fails with ebus.ErrTypeNotFound
// when nothing ever subscribed to the event's type, with
// ebus.ErrDispatchRejected when called from inside another dispatch or after
// the dispatcher was destroyed, and with an apperr error when a subscriber
// panics.
func (p *ebusPublisher) Publish(ctx context.Context, event DomainEvent) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if setter, ok := event.(DomainEventSetter); ok {
		setter.SetContext(ctx)
	}
	ok, err := p.dispatcher.TryDispatch(event)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if p.dispatcher.State() == ebus.StatePending && p.dispatcher.Total(event.Type()) == ebus.UnknownType {
		return errors.WithStack(apperr.ErrPublishRefused(ebus.ErrTypeNotFound, event))
	}
	return errors.WithStack(apperr.ErrPublishRefused(ebus.ErrDispatchRejected, event))
}

type DomainEventSubscriber func(context.Context, DomainEvent)

func domainListener(subscriber DomainEventSubscriber) *ebus.Listener {
	return ebus.NewNamedListener(funcs.FuncName(subscriber), func(event ebus.Event) {
		if de, ok := event.(DomainEvent); ok {
			subscriber(de.Context(), de)
		}
	})
}

// RegisterEventSubscriber subscribes to eventType on d and returns the handle
// to unsubscribe with.
func RegisterEventSubscriber(d *ebus.Dispatcher, eventType string, subscriber DomainEventSubscriber, priority ...int) *ebus.Listener {
	l := domainListener(subscriber)
	d.On(eventType, l, priority...)
	return l
}

// RegisterOnceEventSubscriber is RegisterEventSubscriber for a subscriber
// that only sees the next event of eventType.
func RegisterOnceEventSubscriber(d *ebus.Dispatcher, eventType string, subscriber DomainEventSubscriber, priority ...int) *ebus.Listener {
	l := domainListener(subscriber)
	d.Once(eventType, l, priority...)
	return l
}

func UnregisterEventSubscriber(d *ebus.Dispatcher, eventType string, l *ebus.Listener) {
	d.Off(eventType, l)
}
