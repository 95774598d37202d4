// Package events implements the viewer's publish/subscribe bus and the
// payloads it carries.
package events

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/xviewer/internal/logger"
)

// Name identifies an event kind. The set is open: plugins may fire their
// own names.
type Name string

// Event names fired by the viewer.
const (
	NameLoaded      Name = "loaded"
	NameUnloaded    Name = "unloaded"
	NamePick        Name = "pick"
	NameMouseDown   Name = "mouseDown"
	NameMouseUp     Name = "mouseUp"
	NameMouseMove   Name = "mouseMove"
	NameWheel       Name = "wheel"
	NameFrame       Name = "frame"
	NameContextMenu Name = "contextMenu"
	NameError       Name = "error"
)

// Event is anything that can be fired on a Bus.
type Event interface {
	EventName() Name
}

// Handler receives fired events.
type Handler func(Event)

// Subscription identifies a registered handler for Off.
type Subscription struct {
	name Name
	id   uint64
}

type listener struct {
	id uint64
	fn Handler
}

// Bus dispatches events to handlers in registration order. It is not safe
// for concurrent use; the viewer fires only from the render thread.
type Bus struct {
	listeners map[Name][]listener
	next      uint64
	log       *zap.Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Name][]listener),
		log:       logger.Named("events"),
	}
}

// On registers fn for name.
func (b *Bus) On(name Name, fn Handler) Subscription {
	b.next++
	b.listeners[name] = append(b.listeners[name], listener{id: b.next, fn: fn})
	return Subscription{name: name, id: b.next}
}

// Off removes a handler. It reports whether the subscription was active.
func (b *Bus) Off(sub Subscription) bool {
	ls := b.listeners[sub.name]
	for i, l := range ls {
		if l.id == sub.id {
			b.listeners[sub.name] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of handlers registered for name.
func (b *Bus) Count(name Name) int {
	return len(b.listeners[name])
}

// Fire calls every handler registered for the event's name. A handler
// that panics is logged and the remaining handlers still run. Handlers
// added or removed while firing take effect on the next Fire.
func (b *Bus) Fire(ev Event) {
	name := ev.EventName()
	ls := b.listeners[name]
	for _, l := range ls {
		b.call(name, l.fn, ev)
	}
}

func (b *Bus) call(name Name, fn Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event", string(name)),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(ev)
}
