package detect

import "sync"

// recentErrorLimit bounds the category history fed to the language model.
const recentErrorLimit = 10

// RecentErrorRing is a bounded FIFO of the most recent detected blocker
// categories. It is shared between concurrent detection pipelines.
type RecentErrorRing struct {
	mu      sync.Mutex
	entries []Category
}

// NewRecentErrorRing returns an empty ring.
func NewRecentErrorRing() *RecentErrorRing {
	return &RecentErrorRing{}
}

// Push appends a category, evicting the oldest entry beyond the limit.
func (r *RecentErrorRing) Push(category Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, category)
	if len(r.entries) > recentErrorLimit {
		r.entries = r.entries[len(r.entries)-recentErrorLimit:]
	}
}

// Snapshot returns the categories oldest first as plain strings for provider
// consumption.
func (r *RecentErrorRing) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, category := range r.entries {
		out[i] = string(category)
	}
	return out
}

// Len reports the current number of entries.
func (r *RecentErrorRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
