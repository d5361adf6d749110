package router

import (
	"errors"
	"sync"
)

// ErrPushUnsupported is returned by History.Push when the environment cannot
// change the address without a full load. The router then calls Assign.
var ErrPushUnsupported = errors.New("history push unsupported")

// History is the address-bar collaborator of a Router.
type History interface {
	// Location returns the current absolute URL.
	Location() string

	// Push records url as the new location without reloading.
	Push(url string) error

	// Assign performs a full navigation to url.
	Assign(url string) error
}

// MemoryHistory is an in-memory History, used by the preview server and in
// tests.
type MemoryHistory struct {
	mu       sync.Mutex
	entries  []string
	assigned []string
	noPush   bool
}

// NewMemoryHistory creates a history positioned at location.
func NewMemoryHistory(location string) *MemoryHistory {
	return &MemoryHistory{entries: []string{location}}
}

// DisablePush makes Push fail with ErrPushUnsupported.
func (h *MemoryHistory) DisablePush() *MemoryHistory {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.noPush = true
	return h
}

// Location implements History.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Push implements History.
func (h *MemoryHistory) Push(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.noPush {
		return ErrPushUnsupported
	}
	h.entries = append(h.entries, url)
	return nil
}

// Assign implements History. The location changes as with Push.
func (h *MemoryHistory) Assign(url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.assigned = append(h.assigned, url)
	h.entries = append(h.entries, url)
	return nil
}

// Entries returns every location visited, oldest first.
func (h *MemoryHistory) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Assigned returns the URLs passed to Assign.
func (h *MemoryHistory) Assigned() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.assigned...)
}
