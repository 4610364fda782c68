package com

import (
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iid"
)

// EventType identifies an object lifecycle event.
type EventType uint8

const (
	EventConstructed EventType = iota
	EventAddRef
	EventRelease
	EventDestroyed
	EventQuery
)

func (t EventType) String() string {
	switch t {
	case EventConstructed:
		return "constructed"
	case EventAddRef:
		return "add-ref"
	case EventRelease:
		return "release"
	case EventDestroyed:
		return "destroyed"
	case EventQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Event describes one lifecycle step of an object.
type Event struct {
	Class string
	IID   iid.IID         // EventQuery only
	Ptr   uint32          // interface pointer the call came through
	Base  uint32          // object base address
	Count uint32          // reference count after the event
	HR    hresult.HRESULT // EventQuery only
	Type  EventType
}

// Observer receives object lifecycle events.
type Observer interface {
	OnObjectEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnObjectEvent(e Event) { f(e) }

type subscription struct {
	o  Observer
	id uint64
}

// Subscribe adds an observer and returns a function that removes it.
func (s *Space) Subscribe(o Observer) (cancel func()) {
	s.nextSub++
	id := s.nextSub
	s.observers = append(s.observers, subscription{id: id, o: o})
	return func() {
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Space) emit(e Event) {
	for _, sub := range s.observers {
		sub.o.OnObjectEvent(e)
	}
}
