// Package subject is a minimal synchronous publish/subscribe primitive.
package subject

import "sync"

// Subject fans a value out to every observer registered at the time Next is
// called. Delivery happens on the caller's goroutine, in subscription order.
type Subject[T any] struct {
	mu        sync.Mutex
	observers []*observer[T]
}

type observer[T any] struct {
	fn     func(T)
	mu     sync.Mutex
	active bool
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op. An observer removed while a
// dispatch is in flight is not called for the remainder of that dispatch.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o := &observer[T]{fn: fn, active: true}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
	return func() {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
		s.remove(o)
	}
}

func (s *Subject[T]) remove(o *observer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.observers {
		if cur == o {
			next := make([]*observer[T], 0, len(s.observers)-1)
			next = append(next, s.observers[:i]...)
			s.observers = append(next, s.observers[i+1:]...)
			return
		}
	}
}

// Next delivers v to a snapshot of the current observers.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	snapshot := s.observers
	s.mu.Unlock()
	for _, o := range snapshot {
		o.mu.Lock()
		active := o.active
		o.mu.Unlock()
		if active {
			o.fn(v)
		}
	}
}

// Len returns the number of registered observers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

// Clear drops every observer.
func (s *Subject[T]) Clear() {
	s.mu.Lock()
	old := s.observers
	s.observers = nil
	s.mu.Unlock()
	for _, o := range old {
		o.mu.Lock()
		o.active = false
		o.mu.Unlock()
	}
}
