package event

import (
	"reflect"
	"sync"
)

// Bus is a typed multicast notification bus. Publish delivers synchronously
// to the handlers subscribed at that moment; there is no queue or replay,
// so a late subscriber never sees earlier events.
//
// Handler registration is locked so subscribers may be wired from setup
// goroutines, but Publish is expected from the game loop only.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[reflect.Type][]func(any))}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Subscribe registers a handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	if b == nil || fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.handlers[t] = append(b.handlers[t], func(ev any) { fn(ev.(T)) })
}

// Publish delivers ev to every current subscriber of T. A nil bus drops the
// event, which lets engines run without any listeners wired.
func Publish[T any](b *Bus, ev T) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers[typeOf[T]()]
	b.mu.RUnlock()
	for _, h := range hs {
		h(ev)
	}
}

// Subscribers reports how many handlers are registered for T.
func Subscribers[T any](b *Bus) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[typeOf[T]()])
}
