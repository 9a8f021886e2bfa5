package client

import (
	"context"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/layout"
	"github.com/ferat8/sui/pkg/moduleloader"
	"github.com/ferat8/sui/pkg/objectcache"
	"github.com/ferat8/sui/pkg/types"
)

// ReadAPI answers object reads from the cache and falls back to the backend on a miss.
type ReadAPI struct {
	backend  backend.Backend
	cache    *objectcache.Cache
	loader   *moduleloader.Loader
	resolver *layout.Resolver
	logger   log.Logger
}

// GetObject returns the raw object. Confirmed answers of the backend are cached, NotExists answers are not.
// Concurrent misses on the same id may fetch twice.
func (r *ReadAPI) GetObject(ctx context.Context, id types.ObjectID) (*types.RawObject, error) {
	if raw, exists := r.cache.Get(id); exists {
		return raw, nil
	}

	raw, err := r.backend.GetRawObject(ctx, id)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to get object %s from %s backend", id, r.backend.Kind())
	}
	if raw == nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "%s backend returned no answer for object %s", r.backend.Kind(), id)
	}
	if err := raw.Validate(); err != nil {
		return nil, err
	}
	if raw.ID() != id {
		return nil, ierrors.Wrapf(types.ErrDecode, "%s backend answered object %s with %s", r.backend.Kind(), id, raw.ID())
	}

	if !r.cache.Put(raw) && raw.Status != types.StatusNotExists {
		r.logger.LogTrace("fetched object is older than a known ref", "id", id)
	}

	return raw, nil
}

// GetParsedObject returns the object together with the layout of its Move value. Packages, deleted and
// unknown objects carry no layout.
func (r *ReadAPI) GetParsedObject(ctx context.Context, id types.ObjectID) (*TypedObject, error) {
	raw, err := r.GetObject(ctx, id)
	if err != nil {
		return nil, err
	}

	if !raw.Exists() || raw.Object.IsPackage() {
		return &TypedObject{Raw: raw}, nil
	}

	objectType := raw.Object.Data.Move.Type
	closure, err := r.loader.ResolveClosure(ctx, objectType)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to parse object %s", id)
	}

	structLayout, err := r.resolver.ComputeLayout(objectType, closure)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to parse object %s", id)
	}

	return &TypedObject{Raw: raw, Layout: structLayout}, nil
}

func (r *ReadAPI) GetObjectsOwnedByAddress(ctx context.Context, address types.SuiAddress) ([]*types.ObjectInfo, error) {
	infos, err := r.backend.GetObjectsOwnedByAddress(ctx, address)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to get objects owned by %s", address)
	}

	return infos, nil
}

func (r *ReadAPI) GetObjectsOwnedByObject(ctx context.Context, id types.ObjectID) ([]*types.ObjectInfo, error) {
	infos, err := r.backend.GetObjectsOwnedByObject(ctx, id)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to get objects owned by object %s", id)
	}

	return infos, nil
}

func (r *ReadAPI) GetTotalTransactionNumber(ctx context.Context) (uint64, error) {
	return r.backend.GetTotalTransactionNumber(ctx)
}

// GetTransactionsInRange returns the transactions with sequence numbers in [start, end).
func (r *ReadAPI) GetTransactionsInRange(ctx context.Context, start uint64, end uint64) ([]types.TxSeqDigest, error) {
	return r.backend.GetTransactionsInRange(ctx, start, end)
}

func (r *ReadAPI) GetRecentTransactions(ctx context.Context, count uint64) ([]types.TxSeqDigest, error) {
	return r.backend.GetRecentTransactions(ctx, count)
}

func (r *ReadAPI) GetTransaction(ctx context.Context, digest types.TransactionDigest) (*types.TransactionResponse, error) {
	return r.backend.GetTransaction(ctx, digest)
}
