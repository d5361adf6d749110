package reactive

import (
	"sync"
	"sync/atomic"
)

// maxReruns bounds how often a computation re-runs itself in a row when its
// own body keeps invalidating it.
const maxReruns = 100

// Computation runs a function, records the cells it reads with Get, and runs
// it again whenever one of them changes.
type Computation struct {
	id uint64
	fn func(*Computation)

	sources   []*cellBase
	sourcesMu sync.Mutex

	schedule func(run func())

	runs     atomic.Int64
	pending  atomic.Bool
	running  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once

	onStopMu sync.Mutex
	onStop   []func()
}

// Option configures a Computation.
type Option func(*Computation)

// WithScheduler makes re-runs go through schedule instead of running
// synchronously on the goroutine that changed the cell. The first run is
// always synchronous.
func WithScheduler(schedule func(run func())) Option {
	return func(c *Computation) {
		c.schedule = schedule
	}
}

// Autorun creates a computation and runs it immediately.
func Autorun(fn func(c *Computation), opts ...Option) *Computation {
	c := &Computation{
		id: nextID(),
		fn: fn,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.run()
	return c
}

// ID implements Listener.
func (c *Computation) ID() uint64 {
	return c.id
}

// MarkDirty implements Listener. It schedules a re-run unless one is
// already pending.
func (c *Computation) MarkDirty() {
	if c.stopped.Load() {
		return
	}
	if !c.pending.CompareAndSwap(false, true) {
		return
	}
	if c.running.Load() {
		// The running loop picks the pending flag up.
		return
	}
	if c.schedule != nil {
		c.schedule(c.run)
		return
	}
	c.run()
}

// Invalidate forces a re-run as if a dependency had changed.
func (c *Computation) Invalidate() {
	c.MarkDirty()
}

// FirstRun reports whether the computation is in its initial run.
func (c *Computation) FirstRun() bool {
	return c.runs.Load() == 0
}

// Runs returns how many times the function has completed.
func (c *Computation) Runs() int {
	return int(c.runs.Load())
}

// Stopped reports whether Stop was called.
func (c *Computation) Stopped() bool {
	return c.stopped.Load()
}

// OnStop registers fn to be called when the computation stops.
func (c *Computation) OnStop(fn func()) {
	c.onStopMu.Lock()
	defer c.onStopMu.Unlock()
	c.onStop = append(c.onStop, fn)
}

// Stop unsubscribes the computation from all cells. It never runs again.
func (c *Computation) Stop() {
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		c.clearSources()

		c.onStopMu.Lock()
		hooks := c.onStop
		c.onStop = nil
		c.onStopMu.Unlock()
		for _, fn := range hooks {
			fn()
		}
	})
}

func (c *Computation) run() {
	for {
		if c.stopped.Load() || !c.running.CompareAndSwap(false, true) {
			return
		}
		c.runLoop()
		c.running.Store(false)

		// A MarkDirty that raced with the end of the loop saw running=true
		// and left the re-run to us.
		if !c.pending.Load() {
			return
		}
	}
}

func (c *Computation) runLoop() {
	for i := 0; i < maxReruns; i++ {
		c.pending.Store(false)
		c.clearSources()

		WithListener(c, func() {
			c.fn(c)
		})
		c.runs.Add(1)

		if c.stopped.Load() || !c.pending.Load() {
			return
		}
	}
	c.pending.Store(false)
}

// addSource implements sourceTracker.
func (c *Computation) addSource(source *cellBase) {
	c.sourcesMu.Lock()
	defer c.sourcesMu.Unlock()
	for _, s := range c.sources {
		if s == source {
			return
		}
	}
	c.sources = append(c.sources, source)
}

func (c *Computation) clearSources() {
	c.sourcesMu.Lock()
	sources := c.sources
	c.sources = nil
	c.sourcesMu.Unlock()

	for _, s := range sources {
		s.unsubscribe(c)
	}
}
