package objectcache

import (
	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/runtime/syncutils"

	"github.com/ferat8/sui/pkg/types"
)

// entry is the cached state of one object id. raw is nil if only a ref is known.
type entry struct {
	raw *types.RawObject
	// latest is the newest ref learned from a read or from execution effects.
	latest types.ObjectRef
	// stale is set when latest is newer than raw.
	stale bool
}

// Cache maps object ids to the last confirmed raw object. Entries are overwritten but never evicted.
// The lock is only held for map operations, callers fetch outside of it.
type Cache struct {
	Events *Events

	entries *shrinkingmap.ShrinkingMap[types.ObjectID, *entry]
	mutex   syncutils.RWMutex

	hits   atomic.Uint64
	misses atomic.Uint64
}

func New() *Cache {
	return &Cache{
		Events:  NewEvents(),
		entries: shrinkingmap.New[types.ObjectID, *entry](),
	}
}

// Get returns the cached raw object. It never fetches. Entries invalidated by PutRefs miss until a newer Put.
func (c *Cache) Get(id types.ObjectID) (*types.RawObject, bool) {
	c.mutex.RLock()
	e, exists := c.entries.Get(id)
	var raw *types.RawObject
	if exists && !e.stale {
		raw = e.raw
	}
	c.mutex.RUnlock()

	if raw == nil {
		c.misses.Inc()

		return nil, false
	}
	c.hits.Inc()

	return raw, true
}

// LatestRef returns the newest ref known for the id, including refs learned without contents.
func (c *Cache) LatestRef(id types.ObjectID) (types.ObjectRef, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.entries.Get(id)
	if !exists {
		return types.ObjectRef{}, false
	}

	return e.latest, true
}

// Put stores a confirmed read. NotExists answers are not stored, and an object older than a ref learned
// through PutRefs does not replace it. It returns true if the entry was written.
func (c *Cache) Put(raw *types.RawObject) bool {
	ref, hasRef := raw.CurrentRef()
	if !hasRef {
		return false
	}

	if !c.store(raw, ref) {
		return false
	}
	c.Events.ObjectStored.Trigger(raw)

	return true
}

func (c *Cache) store(raw *types.RawObject, ref types.ObjectRef) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, exists := c.entries.Get(raw.ID()); exists {
		if ref.Version < e.latest.Version {
			return false
		}
		if ref.Version == e.latest.Version && e.stale && ref != e.latest {
			return false
		}
	}

	c.entries.Set(raw.ID(), &entry{raw: raw, latest: ref})

	return true
}

// PutRefs records refs reported by execution effects. Deleted refs store a Deleted answer. Any other ref that
// differs from the cached object marks the entry stale, so the next Get misses and the object is re-read.
func (c *Cache) PutRefs(refs []types.ObjectRef) {
	stored := make([]*types.RawObject, 0)
	invalidated := make([]types.ObjectRef, 0)

	c.mutex.Lock()
	for _, ref := range refs {
		e, exists := c.entries.Get(ref.ObjectID)
		if exists && ref.Version < e.latest.Version {
			continue
		}

		if ref.IsDeleted() {
			raw := types.NewDeletedRawObject(ref)
			c.entries.Set(ref.ObjectID, &entry{raw: raw, latest: ref})
			stored = append(stored, raw)

			continue
		}

		if exists && e.raw != nil && !e.stale && e.latest == ref {
			continue
		}

		var raw *types.RawObject
		if exists {
			raw = e.raw
		}
		c.entries.Set(ref.ObjectID, &entry{raw: raw, latest: ref, stale: true})
		invalidated = append(invalidated, ref)
	}
	c.mutex.Unlock()

	for _, raw := range stored {
		c.Events.ObjectStored.Trigger(raw)
	}
	for _, ref := range invalidated {
		c.Events.ObjectInvalidated.Trigger(ref)
	}
}

// Size returns the number of cached ids.
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.entries.Size()
}

// Hits returns the number of Get calls answered from the cache.
func (c *Cache) Hits() uint64 {
	return c.hits.Load()
}

// Misses returns the number of Get calls that found no usable entry.
func (c *Cache) Misses() uint64 {
	return c.misses.Load()
}
