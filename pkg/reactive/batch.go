package reactive

// Batch groups cell updates into a single notification phase. Listeners
// marked dirty inside fn are deduplicated and notified once, when the
// outermost batch returns.
//
//	reactive.Batch(func() {
//	    url.Set("/a")
//	    title.Set("A")
//	})
//	// dependents re-run once
func Batch(fn func()) {
	ctx := current()
	ctx.batchDepth++

	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth > 0 {
			return
		}
		pending := ctx.pending
		ctx.pending = nil
		release(ctx)
		flush(pending)
	}()

	fn()
}

// flush notifies each listener once, in first-queued order.
func flush(pending []Listener) {
	if len(pending) == 0 {
		return
	}
	seen := make(map[uint64]bool, len(pending))
	for _, l := range pending {
		id := l.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		l.MarkDirty()
	}
}
