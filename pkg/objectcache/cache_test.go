package objectcache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferat8/sui/pkg/objectcache"
	"github.com/ferat8/sui/pkg/types"
	"github.com/ferat8/sui/pkg/types/tpkg"
)

func newObject(t *testing.T) *types.Object {
	t.Helper()

	return tpkg.RandMoveObject(types.StructTag{Address: tpkg.RandObjectID(), Module: "m", Name: "S"}, tpkg.RandAddress())
}

func TestCacheGetPut(t *testing.T) {
	cache := objectcache.New()
	object := newObject(t)

	_, found := cache.Get(object.ID())
	require.False(t, found)

	raw := types.NewExistingRawObject(object)
	require.True(t, cache.Put(raw))

	cached, found := cache.Get(object.ID())
	require.True(t, found)
	require.Same(t, raw, cached)
	require.Equal(t, 1, cache.Size())
	require.Equal(t, uint64(1), cache.Hits())
	require.Equal(t, uint64(1), cache.Misses())

	next := object.Clone()
	next.Version = 2
	nextRaw := types.NewExistingRawObject(next)
	require.True(t, cache.Put(nextRaw))

	cached, found = cache.Get(object.ID())
	require.True(t, found)
	require.Same(t, nextRaw, cached)
	require.Equal(t, 1, cache.Size())
}

func TestCacheDoesNotStoreNotExists(t *testing.T) {
	cache := objectcache.New()
	id := tpkg.RandObjectID()

	require.False(t, cache.Put(types.NewNotExistsRawObject(id)))
	_, found := cache.Get(id)
	require.False(t, found)
	require.Zero(t, cache.Size())
}

func TestCachePutRefsInvalidates(t *testing.T) {
	cache := objectcache.New()
	object := newObject(t)
	require.True(t, cache.Put(types.NewExistingRawObject(object)))

	var invalidated []types.ObjectRef
	cache.Events.ObjectInvalidated.Hook(func(ref types.ObjectRef) {
		invalidated = append(invalidated, ref)
	})

	next := object.Clone()
	next.Version = 2
	cache.PutRefs([]types.ObjectRef{next.Ref()})

	_, found := cache.Get(object.ID())
	require.False(t, found, "stale version must not be served as current")
	require.Equal(t, []types.ObjectRef{next.Ref()}, invalidated)

	latest, known := cache.LatestRef(object.ID())
	require.True(t, known)
	require.Equal(t, next.Ref(), latest)

	// a racing read of the old version must not win over the newer ref
	require.False(t, cache.Put(types.NewExistingRawObject(object)))
	_, found = cache.Get(object.ID())
	require.False(t, found)

	require.True(t, cache.Put(types.NewExistingRawObject(next)))
	cached, found := cache.Get(object.ID())
	require.True(t, found)
	require.Equal(t, next.Ref(), cached.Object.Ref())
}

func TestCachePutRefsUnchangedRef(t *testing.T) {
	cache := objectcache.New()
	object := newObject(t)
	require.True(t, cache.Put(types.NewExistingRawObject(object)))

	cache.PutRefs([]types.ObjectRef{object.Ref()})

	_, found := cache.Get(object.ID())
	require.True(t, found)
}

func TestCachePutRefsDeleted(t *testing.T) {
	cache := objectcache.New()
	object := newObject(t)
	require.True(t, cache.Put(types.NewExistingRawObject(object)))

	deletedRef := types.NewDeletedRef(object.ID(), 2)
	cache.PutRefs([]types.ObjectRef{deletedRef})

	cached, found := cache.Get(object.ID())
	require.True(t, found)
	require.Equal(t, types.StatusDeleted, cached.Status)
	require.Equal(t, deletedRef, *cached.Ref)

	// refs for ids that were never read are remembered without contents
	unknown := tpkg.RandObjectRef()
	cache.PutRefs([]types.ObjectRef{unknown})
	_, found = cache.Get(unknown.ObjectID)
	require.False(t, found)
	latest, known := cache.LatestRef(unknown.ObjectID)
	require.True(t, known)
	require.Equal(t, unknown, latest)
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := objectcache.New()
	objects := make([]*types.Object, 16)
	for i := range objects {
		objects[i] = newObject(t)
	}

	var wg sync.WaitGroup
	for _, object := range objects {
		wg.Add(2)
		go func(object *types.Object) {
			defer wg.Done()
			cache.Put(types.NewExistingRawObject(object))
		}(object)
		go func(object *types.Object) {
			defer wg.Done()
			cache.Get(object.ID())
		}(object)
	}
	wg.Wait()

	require.Equal(t, len(objects), cache.Size())
	for _, object := range objects {
		_, found := cache.Get(object.ID())
		require.True(t, found)
	}
}
