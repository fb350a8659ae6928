package httpx

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-storefront/internal/storefront"
)

// Factory builds the storefront for a browser session id.
type Factory func(sessionID string) *storefront.Storefront

type entry struct {
	sf       *storefront.Storefront
	lastSeen time.Time
}

// Registry holds one storefront per browser session. A new entry restores its
// persisted sign-in in the background; until then its state reports loading.
type Registry struct {
	factory        Factory
	log            logrus.FieldLogger
	restoreTimeout time.Duration
	limit          int

	mu      sync.Mutex
	entries map[string]*entry
}

type RegistryOption func(*Registry)

// WithLimit caps the number of cached storefronts. At the cap, the least
// recently used entry makes room for a new one; a signed-in session evicted
// this way is restored from the token store on its next request.
func WithLimit(n int) RegistryOption { return func(r *Registry) { r.limit = n } }

func NewRegistry(f Factory, log logrus.FieldLogger, opts ...RegistryOption) *Registry {
	r := &Registry{
		factory:        f,
		log:            log,
		restoreTimeout: 10 * time.Second,
		entries:        map[string]*entry{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Get(sessionID string) *storefront.Storefront {
	r.mu.Lock()
	if e, ok := r.entries[sessionID]; ok {
		e.lastSeen = time.Now()
		r.mu.Unlock()
		return e.sf
	}
	if r.limit > 0 && len(r.entries) >= r.limit {
		r.evictOldestLocked()
	}
	sf := r.factory(sessionID)
	r.entries[sessionID] = &entry{sf: sf, lastSeen: time.Now()}
	r.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.restoreTimeout)
		defer cancel()
		if err := sf.Bootstrap(ctx); err != nil {
			r.log.WithError(err).WithField("session", sessionID).Warn("restore session")
		}
	}()
	return sf
}

// Evict drops a cached storefront; the next request restores it from the token store.
func (r *Registry) Evict(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	return ok
}

func (r *Registry) evictOldestLocked() {
	var (
		oldest string
		seen   time.Time
	)
	for id, e := range r.entries {
		if oldest == "" || e.lastSeen.Before(seen) {
			oldest, seen = id, e.lastSeen
		}
	}
	delete(r.entries, oldest)
}

// Sweep evicts entries idle for longer than maxIdle and returns how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// RunSweeper sweeps every interval until ctx ends.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.log.WithField("evicted", n).Debug("swept idle sessions")
			}
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
