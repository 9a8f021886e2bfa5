package objectstore

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
)

// TypedStore wraps a kvstore.TypedStore and reports missing keys as exists == false.
type TypedStore[K, V any] struct {
	kv *kvstore.TypedStore[K, V]
}

func NewTypedStore[K, V any](
	kv kvstore.KVStore,
	keyToBytes kvstore.ObjectToBytes[K],
	bytesToKey kvstore.BytesToObject[K],
	vToBytes kvstore.ObjectToBytes[V],
	bytesToV kvstore.BytesToObject[V],
) *TypedStore[K, V] {
	return &TypedStore[K, V]{
		kv: kvstore.NewTypedStore(kv, keyToBytes, bytesToKey, vToBytes, bytesToV),
	}
}

func (s *TypedStore[K, V]) Load(key K) (value V, exists bool, err error) {
	value, err = s.kv.Get(key)
	if err != nil {
		var zeroValue V
		if ierrors.Is(err, kvstore.ErrKeyNotFound) {
			return zeroValue, false, nil
		}

		return zeroValue, false, ierrors.Wrapf(err, "failed to get value for key %v", key)
	}

	return value, true, nil
}

func (s *TypedStore[K, V]) Store(key K, value V) error {
	return s.kv.Set(key, value)
}

func (s *TypedStore[K, V]) Has(key K) (has bool, err error) {
	return s.kv.Has(key)
}

func (s *TypedStore[K, V]) Delete(key K) (err error) {
	return s.kv.Delete(key)
}

func (s *TypedStore[K, V]) Stream(consumer func(key K, value V) error) error {
	var innerErr error
	if storageErr := s.kv.Iterate(kvstore.EmptyPrefix, func(key K, value V) (advance bool) {
		innerErr = consumer(key, value)

		return innerErr == nil
	}); storageErr != nil {
		return ierrors.Wrap(storageErr, "failed to iterate over store")
	}

	if innerErr != nil {
		return ierrors.Wrap(innerErr, "failed to stream store")
	}

	return nil
}
