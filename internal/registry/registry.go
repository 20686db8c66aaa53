package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowsight/internal/detect"
	"flowsight/internal/logging"
)

// EventType labels registry notifications.
type EventType string

const (
	EventBlockerCreated  EventType = "blocker_created"
	EventBlockerResolved EventType = "blocker_resolved"
)

// Event is the outbound notification emitted on blocker lifecycle changes.
// Subscribers receive a copy of the full record.
type Event struct {
	Type    EventType
	Blocker detect.Blocker
}

// Stats summarizes the registry contents.
type Stats struct {
	Total      int            `json:"total"`
	Resolved   int            `json:"resolved"`
	ByCategory map[string]int `json:"by_category"`
	BySeverity map[string]int `json:"by_severity"`
}

// Registry owns the in-memory blocker set. All mutation goes through its
// operation set; consumers only ever receive copies. The recent-error ring is
// updated under the same lock as blocker creation so concurrent detections
// never lose an entry.
type Registry struct {
	logger *slog.Logger

	mu          sync.RWMutex
	blockers    map[string]*detect.Blocker
	ring        *detect.RecentErrorRing
	subscribers []func(Event)

	now func() time.Time
}

// Option configures optional registry behavior.
type Option func(*Registry)

// WithClock overrides the time source (used in eviction tests).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs an empty registry.
func New(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Registry{
		logger:   logger,
		blockers: make(map[string]*detect.Blocker),
		ring:     detect.NewRecentErrorRing(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers a callback for blocker lifecycle events. Callbacks run
// outside the registry lock, after the state change is visible; they must not
// block for long since they share the detection goroutine.
func (r *Registry) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Create stores a new blocker, assigning an id and creation time when unset,
// and records its category in the recent-error ring.
func (r *Registry) Create(blocker detect.Blocker) detect.Blocker {
	if blocker.ID == "" {
		blocker.ID = uuid.NewString()
	}
	if blocker.CreatedAt.IsZero() {
		blocker.CreatedAt = r.now().UTC()
	}

	r.mu.Lock()
	stored := blocker
	r.blockers[stored.ID] = &stored
	r.ring.Push(stored.Category)
	subs := append(([]func(Event))(nil), r.subscribers...)
	r.mu.Unlock()

	r.logger.Info("blocker created",
		logging.String("id", blocker.ID),
		logging.String("category", string(blocker.Category)),
		logging.String("severity", string(blocker.Severity)),
		logging.Float64("confidence", blocker.Confidence),
	)

	r.publish(subs, Event{Type: EventBlockerCreated, Blocker: blocker})
	return blocker
}

// Resolve marks a blocker resolved, optionally overriding its suggested
// action. Resolving an unknown id is logged and ignored; resolving twice
// leaves the blocker resolved.
func (r *Registry) Resolve(id, action string) {
	r.mu.Lock()
	blocker, ok := r.blockers[id]
	if !ok {
		r.mu.Unlock()
		r.logger.Warn("resolve requested for unknown blocker", logging.String("id", id))
		return
	}
	blocker.Resolved = true
	if action != "" {
		blocker.SuggestedAction = action
	}
	copied := *blocker
	subs := append(([]func(Event))(nil), r.subscribers...)
	r.mu.Unlock()

	r.logger.Info("blocker resolved", logging.String("id", id))
	r.publish(subs, Event{Type: EventBlockerResolved, Blocker: copied})
}

// List returns blockers ordered by creation time descending. With activeOnly
// set, resolved blockers are filtered out.
func (r *Registry) List(activeOnly bool) []detect.Blocker {
	r.mu.RLock()
	out := make([]detect.Blocker, 0, len(r.blockers))
	for _, blocker := range r.blockers {
		if activeOnly && blocker.Resolved {
			continue
		}
		out = append(out, *blocker)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ListResolved returns up to limit resolved blockers, newest first. A
// non-positive limit returns all of them.
func (r *Registry) ListResolved(limit int) []detect.Blocker {
	r.mu.RLock()
	out := make([]detect.Blocker, 0, len(r.blockers))
	for _, blocker := range r.blockers {
		if blocker.Resolved {
			out = append(out, *blocker)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Get returns a copy of the blocker with the given id.
func (r *Registry) Get(id string) (detect.Blocker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	blocker, ok := r.blockers[id]
	if !ok {
		return detect.Blocker{}, false
	}
	return *blocker, true
}

// Stats summarizes the current blocker set.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		ByCategory: make(map[string]int),
		BySeverity: make(map[string]int),
	}
	for _, blocker := range r.blockers {
		stats.Total++
		if blocker.Resolved {
			stats.Resolved++
		}
		stats.ByCategory[string(blocker.Category)]++
		stats.BySeverity[string(blocker.Severity)]++
	}
	return stats
}

// EvictOlderThan removes every blocker created more than the given number of
// days ago, regardless of resolved state, and reports how many were removed.
func (r *Registry) EvictOlderThan(days int) int {
	cutoff := r.now().UTC().AddDate(0, 0, -days)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, blocker := range r.blockers {
		if blocker.CreatedAt.Before(cutoff) {
			delete(r.blockers, id)
			removed++
		}
	}
	if removed > 0 {
		r.logger.Info("evicted aged blockers", logging.Int("count", removed), logging.Int("days", days))
	}
	return removed
}

// RecentCategories exposes the recent-error ring for provider context.
func (r *Registry) RecentCategories() []string {
	return r.ring.Snapshot()
}

func (r *Registry) publish(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}
