// Package cache provides the freshness layer over the backend API:
// LRU caches with a TTL staleness window, grouped into named
// collections so mutations can declare exactly what they invalidate.
package cache

import "time"

// Collection names a cached backend collection. Mutations return the
// set of collections they touched; the registry purges those caches.
type Collection string

const (
	Expenses    Collection = "expenses"
	Budgets     Collection = "budgets"
	Categories  Collection = "categories"
	Goals       Collection = "goals"
	Insights    Collection = "insights"
	Preferences Collection = "preferences"
)

// Purger is the subset of cache behavior the registry needs.
type Purger interface {
	Purge()
	CleanExpired() int
}

// Registry maps collections to their caches and applies invalidation
// sets.
type Registry struct {
	caches map[Collection][]Purger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{caches: make(map[Collection][]Purger)}
}

// Register binds a cache to a collection. A cache may serve multiple
// collections (e.g. a dashboard view built from several).
func (r *Registry) Register(col Collection, c Purger) {
	r.caches[col] = append(r.caches[col], c)
}

// Invalidate purges every cache registered for the given collections.
func (r *Registry) Invalidate(cols ...Collection) {
	for _, col := range cols {
		for _, c := range r.caches[col] {
			c.Purge()
		}
	}
}

// CleanExpired sweeps expired entries from all registered caches and
// returns how many were removed.
func (r *Registry) CleanExpired() int {
	seen := make(map[Purger]struct{})
	total := 0
	for _, list := range r.caches {
		for _, c := range list {
			if _, done := seen[c]; done {
				continue
			}
			seen[c] = struct{}{}
			total += c.CleanExpired()
		}
	}
	return total
}

// Manager runs periodic expired-entry cleanup for a registry.
type Manager struct {
	registry    *Registry
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a cleanup manager for the registry.
func NewManager(r *Registry) *Manager {
	return &Manager{
		registry:    r,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// StartCleanup begins periodic cleanup.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.registry.CleanExpired()
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine.
func (m *Manager) Stop() {
	if m.stopCleanup != nil {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
