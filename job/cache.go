package job

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// jobCache is the data model's CacheEntry store and the §5 "Job cache: a
// keyed map guarded by a single lock" shared resource. It wraps go-cache
// (already used by package log for its per-request logger cache) for its
// TTL/janitor machinery and eviction callback, and layers its own mutex on
// top so a caller can read-modify-write a whole Job entry atomically — a
// bare Get-then-Set pair on go-cache alone would race under concurrent
// worker state updates.
type jobCache struct {
	mu    sync.Mutex
	store *gocache.Cache
}

// newJobCache wires onEvicted as go-cache's eviction callback, which fires
// both from the janitor's periodic sweep and from an explicit Purge, giving
// the TTL sweeper (§4.1) its "delete temp dirs, then remove map entries"
// behavior for free.
func newJobCache(ttl, cleanupInterval time.Duration, onEvicted func(fingerprint string, j Job)) *jobCache {
	store := gocache.New(ttl, cleanupInterval)
	store.OnEvicted(func(key string, value interface{}) {
		if onEvicted == nil {
			return
		}
		if j, ok := value.(Job); ok {
			onEvicted(key, j)
		}
	})
	return &jobCache{store: store}
}

func (c *jobCache) Insert(fingerprint string, j Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.SetDefault(fingerprint, j)
}

func (c *jobCache) Get(fingerprint string) (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store.Get(fingerprint)
	if !ok {
		return Job{}, false
	}
	return v.(Job), true
}

// Update atomically reads, mutates via fn, and writes back the entry for
// fingerprint under the single lock (§5 "no value is mutated outside the
// lock"); fn must not block.
func (c *jobCache) Update(fingerprint string, fn func(j *Job)) (Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store.Get(fingerprint)
	if !ok {
		return Job{}, false
	}
	j := v.(Job)
	fn(&j)
	c.store.SetDefault(fingerprint, j)
	return j, true
}

// FindByPublicID implements status(public_id)'s "resolve by direct
// fingerprint then by linear scan" fallback (§4.1): a public id may be
// associated with more than one cache entry (processing variants), so this
// returns the first non-expired match.
func (c *jobCache) FindByPublicID(publicID string) (string, Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, item := range c.store.Items() {
		if item.Expired() {
			continue
		}
		j, ok := item.Object.(Job)
		if ok && j.PublicID == publicID {
			return fp, j, true
		}
	}
	return "", Job{}, false
}

// FindByPublicIDOrFingerprint tries id as a fingerprint first (the common
// case when a caller round-trips the value Status just returned) before
// falling back to the linear public-id scan.
func (c *jobCache) FindByPublicIDOrFingerprint(id string) (Job, bool) {
	if j, ok := c.Get(id); ok {
		return j, true
	}
	_, j, ok := c.FindByPublicID(id)
	return j, ok
}

func (c *jobCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ItemCount()
}

// Purge implements the optional admin purge() op: forces go-cache's janitor
// sweep immediately rather than waiting for the next cleanupInterval tick.
func (c *jobCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.DeleteExpired()
}
