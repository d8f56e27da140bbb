package ddd

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhenyu888/event-dispatcher/apperr"
	"github.com/zhenyu888/event-dispatcher/ebus"
)

const orderPlaced = "order.placed"

type OrderPlaced struct {
	BaseDomainEvent
	OrderId int64
}

func newOrderPlaced(id int64) *OrderPlaced {
	return &OrderPlaced{BaseDomainEvent: NewBaseDomainEvent(orderPlaced), OrderId: id}
}

type ctxKey struct{}

func TestPublisher_Publish(t *testing.T) {
	d := ebus.NewDispatcher()
	pub := NewDomainEventPublisher(d)

	var got []int64
	var fromCtx interface{}
	RegisterEventSubscriber(d, orderPlaced, func(ctx context.Context, event DomainEvent) {
		got = append(got, event.(*OrderPlaced).OrderId)
		fromCtx = ctx.Value(ctxKey{})
	})

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	require.NoError(t, pub.Publish(ctx, newOrderPlaced(42)))
	assert.Equal(t, []int64{42}, got)
	assert.Equal(t, "req-1", fromCtx)
}

func TestPublisher_Errors(t *testing.T) {
	d := ebus.NewDispatcher()
	pub := NewDomainEventPublisher(d)
	ctx := context.Background()

	err := pub.Publish(ctx, newOrderPlaced(1))
	assert.True(t, errors.Is(err, ebus.ErrTypeNotFound))
	appErr, ok := apperr.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodePublishRefused, appErr.Code())

	var nested error
	RegisterEventSubscriber(d, orderPlaced, func(ctx context.Context, event DomainEvent) {
		nested = pub.Publish(ctx, newOrderPlaced(2))
	})
	require.NoError(t, pub.Publish(ctx, newOrderPlaced(1)))
	assert.True(t, errors.Is(nested, ebus.ErrDispatchRejected))

	RegisterEventSubscriber(d, "order.cancelled", func(context.Context, DomainEvent) {
		panic("cancel failed")
	})
	err = pub.Publish(ctx, &OrderPlaced{BaseDomainEvent: NewBaseDomainEvent("order.cancelled")})
	appErr, ok = apperr.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeListenerPanic, appErr.Code())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = pub.Publish(cancelled, newOrderPlaced(3))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPublisher_DestroyedDispatcher(t *testing.T) {
	d := ebus.NewDispatcher()
	pub := NewDomainEventPublisher(d)
	RegisterEventSubscriber(d, orderPlaced, func(context.Context, DomainEvent) {})
	d.Destroy()

	err := pub.Publish(context.Background(), newOrderPlaced(1))
	assert.True(t, errors.Is(err, ebus.ErrDispatchRejected))
	assert.False(t, errors.Is(err, ebus.ErrTypeNotFound))

	repo := NewRepositoryManager(pub, nil)
	o := &Order{MixModel: MixModel{Id: 1}}
	o.Place()
	saved := false
	err = repo.AroundSave(context.Background(), o, func() error {
		saved = true
		return nil
	})
	assert.True(t, errors.Is(err, ebus.ErrDispatchRejected))
	assert.False(t, saved)
	assert.Len(t, o.Events(), 1)
}

func TestRegisterSubscribers(t *testing.T) {
	d := ebus.NewDispatcher()
	pub := NewDomainEventPublisher(d)
	ctx := context.Background()

	var calls []string
	always := RegisterEventSubscriber(d, orderPlaced, func(context.Context, DomainEvent) {
		calls = append(calls, "always")
	})
	RegisterOnceEventSubscriber(d, orderPlaced, func(context.Context, DomainEvent) {
		calls = append(calls, "once")
	}, 10)

	require.NoError(t, pub.Publish(ctx, newOrderPlaced(1)))
	require.NoError(t, pub.Publish(ctx, newOrderPlaced(2)))
	assert.Equal(t, []string{"once", "always", "always"}, calls)
	assert.Contains(t, always.Name(), "ddd.TestRegisterSubscribers")

	UnregisterEventSubscriber(d, orderPlaced, always)
	assert.Equal(t, 0, d.Total(orderPlaced))
}

func TestBaseDomainEvent(t *testing.T) {
	e := newOrderPlaced(1)
	assert.Equal(t, orderPlaced, e.Type())
	assert.Equal(t, context.Background(), e.Context())
	e.SetEventId("evt-1")
	e.SetOccurredOn(100)
	assert.Equal(t, "evt-1", e.GetEventId())
	assert.Equal(t, int64(100), e.GetOccurredOn())
	assert.Equal(t, "order.placed(evt-1)", e.String())
}

func TestNewDomainEventPublisher_Default(t *testing.T) {
	pub := NewDomainEventPublisher(nil)
	var got int64
	l := RegisterEventSubscriber(ebus.Default(), "ddd_test.default", func(_ context.Context, e DomainEvent) {
		got = e.(*OrderPlaced).OrderId
	})
	defer UnregisterEventSubscriber(ebus.Default(), "ddd_test.default", l)

	e := &OrderPlaced{BaseDomainEvent: NewBaseDomainEvent("ddd_test.default"), OrderId: 9}
	require.NoError(t, pub.Publish(context.Background(), e))
	assert.Equal(t, int64(9), got)
}
