package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the reactive state for one goroutine.
type trackingContext struct {
	// listener is subscribed to every cell read with Get.
	// nil means reads are not tracked.
	listener Listener

	// batchDepth tracks nested Batch calls.
	batchDepth int

	// pending accumulates listeners to notify when the outermost batch ends.
	pending []Listener
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// goroutineID parses the current goroutine ID from the runtime stack header
// ("goroutine <id> [...").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// current returns the tracking context for the current goroutine,
// creating it on first use.
func current() *trackingContext {
	gid := goroutineID()
	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*trackingContext)
	}
	ctx := &trackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// release drops the tracking context of the current goroutine once it holds
// no state.
func release(ctx *trackingContext) {
	if ctx.listener == nil && ctx.batchDepth == 0 && len(ctx.pending) == 0 {
		trackingContexts.Delete(goroutineID())
	}
}

// currentListener returns the tracking listener without allocating a
// context for goroutines that never started tracking.
func currentListener() Listener {
	if ctx, ok := trackingContexts.Load(goroutineID()); ok {
		return ctx.(*trackingContext).listener
	}
	return nil
}

// setListener sets the tracking listener and returns the previous one.
func setListener(l Listener) Listener {
	ctx := current()
	old := ctx.listener
	ctx.listener = l
	return old
}

// WithListener runs fn with l as the tracking listener. Cells read with Get
// inside fn subscribe l.
func WithListener(l Listener, fn func()) {
	old := setListener(l)
	defer func() {
		setListener(old)
		release(current())
	}()
	fn()
}

// Untracked runs fn without tracking cell reads as dependencies.
func Untracked(fn func()) {
	WithListener(nil, fn)
}

// Tracking reports whether cell reads on this goroutine are currently tracked.
func Tracking() bool {
	return currentListener() != nil
}
