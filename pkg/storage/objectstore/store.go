package objectstore

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2/byteutils"

	"github.com/ferat8/sui/pkg/types"
)

const (
	objectStorePrefix byte = iota
	tombstoneStorePrefix
	ownerIndexPrefix
)

// Store keeps the latest version of every live object, a tombstone for every deleted object and an index of
// objects by owner address.
type Store struct {
	objects    *TypedStore[types.ObjectID, *types.Object]
	tombstones *TypedStore[types.ObjectID, types.ObjectRef]
	ownerIndex kvstore.KVStore
}

func New(store kvstore.KVStore) *Store {
	return &Store{
		objects: NewTypedStore(lo.PanicOnErr(store.WithExtendedRealm(kvstore.Realm{objectStorePrefix})),
			types.ObjectID.Bytes,
			types.ObjectIDFromBytes,
			(*types.Object).Bytes,
			types.ObjectFromBytes,
		),
		tombstones: NewTypedStore(lo.PanicOnErr(store.WithExtendedRealm(kvstore.Realm{tombstoneStorePrefix})),
			types.ObjectID.Bytes,
			types.ObjectIDFromBytes,
			types.ObjectRef.Bytes,
			types.ObjectRefFromBytes,
		),
		ownerIndex: lo.PanicOnErr(store.WithExtendedRealm(kvstore.Realm{ownerIndexPrefix})),
	}
}

// Object returns the live object with the given id.
func (s *Store) Object(id types.ObjectID) (*types.Object, bool, error) {
	return s.objects.Load(id)
}

// RawObject answers a read: the live object, the tombstone of a deleted one, or NotExists.
func (s *Store) RawObject(id types.ObjectID) (*types.RawObject, error) {
	object, exists, err := s.objects.Load(id)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to load object %s", id)
	}
	if exists {
		return types.NewExistingRawObject(object), nil
	}

	tombstone, deleted, err := s.tombstones.Load(id)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to load tombstone %s", id)
	}
	if deleted {
		return types.NewDeletedRawObject(tombstone), nil
	}

	return types.NewNotExistsRawObject(id), nil
}

// StoreObject writes the object and moves its owner index entry.
func (s *Store) StoreObject(object *types.Object) error {
	id := object.ID()

	previous, exists, err := s.objects.Load(id)
	if err != nil {
		return ierrors.Wrapf(err, "failed to load previous version of %s", id)
	}
	if exists {
		if err := s.unindex(previous); err != nil {
			return err
		}
	}

	if err := s.objects.Store(id, object); err != nil {
		return ierrors.Wrapf(err, "failed to store object %s", id)
	}

	if key, indexed := ownerKey(object.Owner, id); indexed {
		if err := s.ownerIndex.Set(key, []byte{}); err != nil {
			return ierrors.Wrapf(err, "failed to index owner of %s", id)
		}
	}

	return nil
}

// DeleteObject removes a live object and records its tombstone.
func (s *Store) DeleteObject(ref types.ObjectRef) error {
	previous, exists, err := s.objects.Load(ref.ObjectID)
	if err != nil {
		return ierrors.Wrapf(err, "failed to load object %s", ref.ObjectID)
	}
	if !exists {
		return ierrors.Wrapf(types.ErrObjectNotFound, "cannot delete %s", ref.ObjectID)
	}

	if err := s.unindex(previous); err != nil {
		return err
	}
	if err := s.objects.Delete(ref.ObjectID); err != nil {
		return ierrors.Wrapf(err, "failed to delete object %s", ref.ObjectID)
	}

	return s.tombstones.Store(ref.ObjectID, ref)
}

// ObjectsOwnedBy returns the live objects owned by the address, or by the object with the same id.
func (s *Store) ObjectsOwnedBy(owner types.SuiAddress) ([]*types.Object, error) {
	ids := make([]types.ObjectID, 0)
	if err := s.ownerIndex.IterateKeys(owner[:], func(key kvstore.Key) bool {
		id, _, err := types.ObjectIDFromBytes(key[types.AddressLength:])
		if err == nil {
			ids = append(ids, id)
		}

		return true
	}); err != nil {
		return nil, ierrors.Wrapf(err, "failed to iterate objects of %s", owner)
	}

	objects := make([]*types.Object, 0, len(ids))
	for _, id := range ids {
		object, exists, err := s.objects.Load(id)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to load object %s", id)
		}
		if exists {
			objects = append(objects, object)
		}
	}

	return objects, nil
}

// ForEachObject streams every live object.
func (s *Store) ForEachObject(consumer func(object *types.Object) error) error {
	return s.objects.Stream(func(_ types.ObjectID, object *types.Object) error {
		return consumer(object)
	})
}

func (s *Store) unindex(object *types.Object) error {
	if key, indexed := ownerKey(object.Owner, object.ID()); indexed {
		if err := s.ownerIndex.Delete(key); err != nil {
			return ierrors.Wrapf(err, "failed to remove owner index of %s", object.ID())
		}
	}

	return nil
}

func ownerKey(owner types.Owner, id types.ObjectID) ([]byte, bool) {
	if owner.Kind != types.OwnerAddress && owner.Kind != types.OwnerObject {
		return nil, false
	}

	return byteutils.ConcatBytes(owner.Address[:], id[:]), true
}
