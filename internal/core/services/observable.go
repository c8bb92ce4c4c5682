package services

import "sync"

// Observable holds a value and notifies subscribers on every Set.
// Notifications are delivered synchronously and in Set order. Subscribers must
// not call Set on the same Observable from inside a notification.
type Observable[T any] struct {
	emit sync.Mutex

	mu    sync.RWMutex
	value T
	subs  map[uint64]func(T)
	next  uint64
}

// NewObservable creates an Observable holding initial.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return o.value
}

// Set stores v and notifies every subscriber.
func (o *Observable[T]) Set(v T) {
	o.emit.Lock()
	defer o.emit.Unlock()

	o.mu.Lock()
	o.value = v
	subs := o.snapshot()
	o.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function removes the subscription.
func (o *Observable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.emit.Lock()
	defer o.emit.Unlock()

	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	current := o.value
	o.mu.Unlock()

	fn(current)

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// snapshot copies subscribers in registration order. Caller holds mu.
func (o *Observable[T]) snapshot() []func(T) {
	subs := make([]func(T), 0, len(o.subs))

	for id := uint64(0); id < o.next; id++ {
		if fn, ok := o.subs[id]; ok {
			subs = append(subs, fn)
		}
	}

	return subs
}
