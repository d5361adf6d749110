package reactive

import (
	"sync"
	"testing"
)

type testListener struct {
	id         uint64
	mu         sync.Mutex
	dirtyCount int
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestCellBasic(t *testing.T) {
	c := NewCell(0)
	if c.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", c.Get())
	}

	c.Set(5)
	if c.Get() != 5 {
		t.Errorf("expected value 5, got %d", c.Get())
	}

	c.Update(func(n int) int { return n * 2 })
	if c.Peek() != 10 {
		t.Errorf("expected value 10, got %d", c.Peek())
	}
}

func TestCellPeekDoesNotSubscribe(t *testing.T) {
	c := NewCell("a")
	listener := newTestListener()

	WithListener(listener, func() {
		if got := c.Peek(); got != "a" {
			t.Errorf("Peek() = %q, want a", got)
		}
	})

	c.Set("b")
	if listener.getDirtyCount() != 0 {
		t.Errorf("Peek should not subscribe, got %d notifications", listener.getDirtyCount())
	}
}

func TestCellSubscription(t *testing.T) {
	c := NewCell(0)
	listener := newTestListener()

	WithListener(listener, func() {
		_ = c.Get()
		_ = c.Get()
	})
	if c.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", c.Subscribers())
	}

	c.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", listener.getDirtyCount())
	}

	c.Set(1)
	if listener.getDirtyCount() != 1 {
		t.Errorf("same value should not notify, got %d", listener.getDirtyCount())
	}

	c.Set(2)
	if listener.getDirtyCount() != 2 {
		t.Errorf("expected 2 notifications, got %d", listener.getDirtyCount())
	}
}

func TestCellNoTrackingOutsideListener(t *testing.T) {
	c := NewCell(0)
	_ = c.Get()
	if c.Subscribers() != 0 {
		t.Errorf("read outside a listener subscribed %d listeners", c.Subscribers())
	}
	if Tracking() {
		t.Error("Tracking() should be false outside a listener")
	}
}

func TestUntracked(t *testing.T) {
	c := NewCell(0)
	listener := newTestListener()

	WithListener(listener, func() {
		if !Tracking() {
			t.Error("Tracking() should be true inside WithListener")
		}
		Untracked(func() {
			_ = c.Get()
		})
	})

	c.Set(1)
	if listener.getDirtyCount() != 0 {
		t.Errorf("Untracked read subscribed the listener")
	}
}

func TestCellCustomEquals(t *testing.T) {
	type nav struct {
		url string
		seq int
	}
	c := NewCell(nav{}).WithEquals(func(a, b nav) bool { return a.url == b.url })
	listener := newTestListener()
	WithListener(listener, func() { _ = c.Get() })

	c.Set(nav{url: "/a", seq: 1})
	c.Set(nav{url: "/a", seq: 2})
	if listener.getDirtyCount() != 1 {
		t.Errorf("custom equality ignored, got %d notifications", listener.getDirtyCount())
	}
}

func TestCellSliceValues(t *testing.T) {
	c := NewCell([]string{"a"})
	listener := newTestListener()
	WithListener(listener, func() { _ = c.Get() })

	c.Set([]string{"a"})
	if listener.getDirtyCount() != 0 {
		t.Errorf("deep-equal slice should not notify")
	}
	c.Set([]string{"b"})
	if listener.getDirtyCount() != 1 {
		t.Errorf("changed slice should notify once, got %d", listener.getDirtyCount())
	}
}

func TestTrackingIsPerGoroutine(t *testing.T) {
	c := NewCell(0)
	listener := newTestListener()

	WithListener(listener, func() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Get()
		}()
		wg.Wait()
	})

	if c.Subscribers() != 0 {
		t.Errorf("read on another goroutine subscribed the listener")
	}
}

func TestBatch(t *testing.T) {
	a := NewCell(0)
	b := NewCell(0)
	listener := newTestListener()
	WithListener(listener, func() {
		_ = a.Get()
		_ = b.Get()
	})

	Batch(func() {
		a.Set(1)
		b.Set(1)
		Batch(func() {
			a.Set(2)
		})
		if listener.getDirtyCount() != 0 {
			t.Errorf("notified inside batch")
		}
	})

	if listener.getDirtyCount() != 1 {
		t.Errorf("expected 1 deduplicated notification, got %d", listener.getDirtyCount())
	}
}
