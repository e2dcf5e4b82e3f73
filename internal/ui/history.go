package ui

import (
	"slices"
	"sync"

	"rentoo/internal/logger"
)

// History is the client's location stack. It implements the navigation
// target of the session store and the URL sync of the catalog.
type History struct {
	mu      sync.Mutex
	entries []string
	subs    []func(string)
}

func NewHistory(start string) *History {
	if start == "" {
		start = RouteHome
	}
	return &History{entries: []string{start}}
}

func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Navigate pushes path and notifies subscribers.
func (h *History) Navigate(path string) {
	h.mu.Lock()
	h.entries = append(h.entries, path)
	subs := slices.Clone(h.subs)
	h.mu.Unlock()

	logger.Debug("Navigate", "path", path)
	for _, fn := range subs {
		fn(path)
	}
}

// Replace swaps the current entry without notifying subscribers.
func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[len(h.entries)-1] = path
}

// Back pops the current entry. It reports false at the first entry.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.entries) == 1 {
		h.mu.Unlock()
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	current := h.entries[len(h.entries)-1]
	subs := slices.Clone(h.subs)
	h.mu.Unlock()

	for _, fn := range subs {
		fn(current)
	}
	return true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// OnChange registers fn to run after every Navigate and Back.
func (h *History) OnChange(fn func(path string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}
