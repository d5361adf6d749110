package reactive

// Listener is anything that can be notified when a cell it read changes.
// Computations implement it; so can rendering layers that want to schedule
// their own re-render.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	MarkDirty()

	// ID returns a unique identifier, used for deduplication.
	ID() uint64
}

// sourceTracker is implemented by listeners that want to know which cells
// they read, so they can unsubscribe before re-running.
type sourceTracker interface {
	Listener
	addSource(source *cellBase)
}
