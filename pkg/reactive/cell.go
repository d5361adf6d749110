package reactive

import (
	"reflect"
	"sync"
)

// cellBase provides type-erased subscriber management for Cell[T].
type cellBase struct {
	id uint64

	subs  []Listener
	subMu sync.RWMutex
}

// subscribe adds a listener, deduplicating by listener ID.
func (c *cellBase) subscribe(l Listener) {
	if l == nil {
		return
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	lid := l.ID()
	for _, existing := range c.subs {
		if existing.ID() == lid {
			return
		}
	}
	c.subs = append(c.subs, l)
}

// unsubscribe removes a listener. Order of the remaining subscribers is not kept.
func (c *cellBase) unsubscribe(l Listener) {
	if l == nil {
		return
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()

	lid := l.ID()
	for i, existing := range c.subs {
		if existing.ID() == lid {
			c.subs[i] = c.subs[len(c.subs)-1]
			c.subs = c.subs[:len(c.subs)-1]
			return
		}
	}
}

// subscriberCount returns the number of current subscribers.
func (c *cellBase) subscriberCount() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs)
}

// notify marks all subscribers dirty, or queues them inside a batch.
// The subscriber list is copied so no lock is held during notification.
func (c *cellBase) notify() {
	c.subMu.RLock()
	subs := make([]Listener, len(c.subs))
	copy(subs, c.subs)
	c.subMu.RUnlock()

	if ctx, ok := trackingContexts.Load(goroutineID()); ok {
		if tc := ctx.(*trackingContext); tc.batchDepth > 0 {
			tc.pending = append(tc.pending, subs...)
			return
		}
	}
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// track subscribes the current listener, if any.
func (c *cellBase) track() {
	l := currentListener()
	if l == nil {
		return
	}
	c.subscribe(l)
	if st, ok := l.(sourceTracker); ok {
		st.addSource(c)
	}
}

// Cell is an observable value container.
type Cell[T any] struct {
	base cellBase

	value T
	mu    sync.RWMutex

	// equal decides whether Set changes the value. nil uses defaultEquals.
	equal func(T, T) bool
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		base:  cellBase{id: nextID()},
		value: initial,
	}
}

// WithEquals sets the equality function used by Set and Update.
func (c *Cell[T]) WithEquals(fn func(T, T) bool) *Cell[T] {
	c.equal = fn
	return c
}

// ID returns the unique identifier for this cell.
func (c *Cell[T]) ID() uint64 {
	return c.base.id
}

// Get returns the current value and subscribes the current listener.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	value := c.value
	c.mu.RUnlock()

	// Track after releasing the value lock.
	c.base.track()
	return value
}

// Peek returns the current value without subscribing.
func (c *Cell[T]) Peek() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores value and notifies subscribers if it changed.
func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	changed := !c.equals(c.value, value)
	if changed {
		c.value = value
	}
	c.mu.Unlock()

	if changed {
		c.base.notify()
	}
}

// Update replaces the value with fn(old) and notifies if it changed.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	old := c.value
	next := fn(old)
	changed := !c.equals(old, next)
	if changed {
		c.value = next
	}
	c.mu.Unlock()

	if changed {
		c.base.notify()
	}
}

// Subscribers returns the number of listeners subscribed to the cell.
func (c *Cell[T]) Subscribers() int {
	return c.base.subscriberCount()
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for comparable dynamic values and reflect.DeepEqual
// for the rest.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}
	if reflect.ValueOf(av).Comparable() && reflect.ValueOf(bv).Comparable() {
		return av == bv
	}
	return reflect.DeepEqual(a, b)
}
