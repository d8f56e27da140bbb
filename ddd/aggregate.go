package ddd

import (
	"fmt"
	"time"

	"github.com/zhenyu888/event-dispatcher/funcs"
)

type Aggregate interface {
	AggregateId() int64
}

type AggregateRoot interface {
	Aggregate
	IsZero(aggregate Aggregate) bool
	// RaiseEvent records a domain event to be published when the aggregate is saved
	RaiseEvent(event DomainEvent)
	Events() []DomainEvent
	// DropEvents forgets the first n raised events
	DropEvents(n int)
	ClearEvents()
}

// MixModel is the gorm model part shared by persisted aggregates.
type MixModel struct {
	Id         int64     `gorm:"primaryKey"`
	CreateTime time.Time `gorm:"autoCreateTime"`
	UpdateTime time.Time `gorm:"autoUpdateTime"`
}

func (a *MixModel) AggregateId() int64 {
	return a.Id
}

// AggregateManager is embedded by aggregate roots to collect raised events.
type AggregateManager struct {
	events []DomainEvent
}

func (a *AggregateManager) IsZero(aggregate Aggregate) bool {
	return aggregate.AggregateId() <= 0
}

func (a *AggregateManager) RaiseEvent(event DomainEvent) {
	if setter, ok := event.(DomainEventSetter); ok {
		now := time.Now()
		if event.GetEventId() == "" {
			setter.SetEventId(fmt.Sprintf("DomainEvent:%s-%d", funcs.Base64(event.Type()), now.UnixNano()))
		}
		if event.GetOccurredOn() <= 0 {
			setter.SetOccurredOn(now.Unix())
		}
	}
	a.events = append(a.events, event)
}

func (a *AggregateManager) Events() []DomainEvent {
	return a.events
}

func (a *AggregateManager) DropEvents(n int) {
	if n <= 0 {
		return
	}
	if n >= len(a.events) {
		a.ClearEvents()
		return
	}
	for idx := 0; idx < n; idx++ {
		a.events[idx] = nil
	}
	a.events = a.events[n:]
}

func (a *AggregateManager) ClearEvents() {
	if len(a.events) == 0 {
		return
	}
	for idx := range a.events {
		a.events[idx] = nil
	}
	a.events = nil
}
