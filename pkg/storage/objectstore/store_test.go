package objectstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/kvstore/mapdb"

	"github.com/ferat8/sui/pkg/storage/objectstore"
	"github.com/ferat8/sui/pkg/types"
	"github.com/ferat8/sui/pkg/types/tpkg"
)

func TestStore(t *testing.T) {
	store := objectstore.New(mapdb.NewMapDB())

	alice, bob := tpkg.RandAddress(), tpkg.RandAddress()
	objectType := types.StructTag{Address: tpkg.RandObjectID(), Module: "m", Name: "S"}
	object := tpkg.RandMoveObject(objectType, alice)
	other := tpkg.RandMoveObject(objectType, alice)

	raw, err := store.RawObject(object.ID())
	require.NoError(t, err)
	require.Equal(t, types.StatusNotExists, raw.Status)

	require.NoError(t, store.StoreObject(object))
	require.NoError(t, store.StoreObject(other))

	raw, err = store.RawObject(object.ID())
	require.NoError(t, err)
	require.Equal(t, types.StatusExists, raw.Status)
	require.Equal(t, object.Ref(), raw.Object.Ref())

	owned, err := store.ObjectsOwnedBy(alice)
	require.NoError(t, err)
	require.Len(t, owned, 2)

	transferred := object.Clone()
	transferred.Owner = types.AddressOwner(bob)
	transferred.Version = 2
	require.NoError(t, store.StoreObject(transferred))

	owned, err = store.ObjectsOwnedBy(alice)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, other.ID(), owned[0].ID())

	owned, err = store.ObjectsOwnedBy(bob)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, transferred.Ref(), owned[0].Ref())

	deletedRef := types.NewDeletedRef(other.ID(), 2)
	require.NoError(t, store.DeleteObject(deletedRef))

	raw, err = store.RawObject(other.ID())
	require.NoError(t, err)
	require.Equal(t, types.StatusDeleted, raw.Status)
	require.Equal(t, deletedRef, *raw.Ref)

	owned, err = store.ObjectsOwnedBy(alice)
	require.NoError(t, err)
	require.Empty(t, owned)

	require.ErrorIs(t, store.DeleteObject(deletedRef), types.ErrObjectNotFound)
}
