package mockbackend

import (
	"context"

	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/syncutils"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/types"
)

// Backend is an in-memory backend that counts fetches. Capabilities can be toggled to emulate either variant.
type Backend struct {
	kind    backend.Kind
	objects *shrinkingmap.ShrinkingMap[types.ObjectID, *types.RawObject]
	fetches *shrinkingmap.ShrinkingMap[types.ObjectID, *atomic.Uint64]

	// ExecuteFunc answers ExecuteTransaction.
	ExecuteFunc func(tx *types.SignedTransaction) (*types.TransactionResponse, error)
	err   error
	mutex syncutils.RWMutex

	executions atomic.Uint64
}

var _ backend.Backend = &Backend{}

// New creates a backend of the given kind. KindEmbedded lacks the index queries and subscriptions.
func New(kind backend.Kind, objects ...*types.Object) *Backend {
	b := &Backend{
		kind:    kind,
		objects: shrinkingmap.New[types.ObjectID, *types.RawObject](),
		fetches: shrinkingmap.New[types.ObjectID, *atomic.Uint64](),
	}
	for _, object := range objects {
		b.SetObject(object)
	}

	return b
}

// SetObject replaces the state of an object.
func (b *Backend) SetObject(object *types.Object) {
	b.objects.Set(object.ID(), types.NewExistingRawObject(object))
}

// SetRawObject replaces the answer for an id.
func (b *Backend) SetRawObject(raw *types.RawObject) {
	b.objects.Set(raw.ID(), raw)
}

// SetErr makes every call fail with err until it is reset with nil.
func (b *Backend) SetErr(err error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.err = err
}

// Fetches returns how often GetRawObject was called for the id.
func (b *Backend) Fetches(id types.ObjectID) uint64 {
	counter, exists := b.fetches.Get(id)
	if !exists {
		return 0
	}

	return counter.Load()
}

// TotalFetches returns the number of GetRawObject calls.
func (b *Backend) TotalFetches() uint64 {
	var total uint64
	b.fetches.ForEach(func(_ types.ObjectID, counter *atomic.Uint64) bool {
		total += counter.Load()

		return true
	})

	return total
}

// Executions returns how often ExecuteTransaction was called.
func (b *Backend) Executions() uint64 {
	return b.executions.Load()
}

func (b *Backend) failure() error {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return b.err
}

func (b *Backend) Kind() backend.Kind {
	return b.kind
}

func (b *Backend) GetRawObject(_ context.Context, id types.ObjectID) (*types.RawObject, error) {
	counter, _ := b.fetches.GetOrCreate(id, func() *atomic.Uint64 { return atomic.NewUint64(0) })
	counter.Inc()

	if err := b.failure(); err != nil {
		return nil, err
	}

	raw, exists := b.objects.Get(id)
	if !exists {
		return types.NewNotExistsRawObject(id), nil
	}

	return raw, nil
}

func (b *Backend) GetObjectsOwnedByAddress(_ context.Context, address types.SuiAddress) ([]*types.ObjectInfo, error) {
	if err := b.failure(); err != nil {
		return nil, err
	}

	infos := make([]*types.ObjectInfo, 0)
	b.objects.ForEach(func(_ types.ObjectID, raw *types.RawObject) bool {
		if raw.Exists() && raw.Object.Owner.OwnedBy(address) {
			infos = append(infos, types.NewObjectInfo(raw.Object))
		}

		return true
	})

	return infos, nil
}

func (b *Backend) GetObjectsOwnedByObject(ctx context.Context, id types.ObjectID) ([]*types.ObjectInfo, error) {
	return b.GetObjectsOwnedByAddress(ctx, types.AddressFromObjectID(id))
}

func (b *Backend) GetTotalTransactionNumber(_ context.Context) (uint64, error) {
	return b.executions.Load(), b.failure()
}

func (b *Backend) GetTransactionsInRange(_ context.Context, _ uint64, _ uint64) ([]types.TxSeqDigest, error) {
	return nil, b.failure()
}

func (b *Backend) GetRecentTransactions(_ context.Context, _ uint64) ([]types.TxSeqDigest, error) {
	return nil, b.failure()
}

func (b *Backend) GetTransaction(_ context.Context, digest types.TransactionDigest) (*types.TransactionResponse, error) {
	if err := b.failure(); err != nil {
		return nil, err
	}

	return nil, ierrors.Wrapf(types.ErrTransactionNotFound, "transaction %s", digest)
}

func (b *Backend) ExecuteTransaction(_ context.Context, tx *types.SignedTransaction) (*types.TransactionResponse, error) {
	b.executions.Inc()

	if err := b.failure(); err != nil {
		return nil, err
	}
	if b.ExecuteFunc == nil {
		return nil, ierrors.Wrap(types.ErrInvalidTransaction, "execution not configured")
	}

	return b.ExecuteFunc(tx)
}

func (b *Backend) SyncAccountState(_ context.Context, _ types.SuiAddress) error {
	return b.failure()
}

func (b *Backend) GetTransactionsByInputObject(_ context.Context, _ types.ObjectID) ([]types.TxSeqDigest, error) {
	return nil, b.indexQuery("GetTransactionsByInputObject")
}

func (b *Backend) GetTransactionsByMutatedObject(_ context.Context, _ types.ObjectID) ([]types.TxSeqDigest, error) {
	return nil, b.indexQuery("GetTransactionsByMutatedObject")
}

func (b *Backend) GetTransactionsByMoveFunction(_ context.Context, _ types.ObjectID, _ string, _ string) ([]types.TxSeqDigest, error) {
	return nil, b.indexQuery("GetTransactionsByMoveFunction")
}

func (b *Backend) GetTransactionsFromAddress(_ context.Context, _ types.SuiAddress) ([]types.TxSeqDigest, error) {
	return nil, b.indexQuery("GetTransactionsFromAddress")
}

func (b *Backend) GetTransactionsToAddress(_ context.Context, _ types.SuiAddress) ([]types.TxSeqDigest, error) {
	return nil, b.indexQuery("GetTransactionsToAddress")
}

func (b *Backend) SubscribeEvent(ctx context.Context, _ *types.EventFilter) (*backend.EventStream, error) {
	if err := b.indexQuery("SubscribeEvent"); err != nil {
		return nil, err
	}

	stream, _, _, finish := backend.NewEventStream(ctx, nil)
	finish()

	return stream, nil
}

func (b *Backend) indexQuery(operation string) error {
	if b.kind == backend.KindEmbedded {
		return backend.Unsupported(b.kind, operation, "not available on the mock embedded backend")
	}

	return b.failure()
}

func (b *Backend) Close() error {
	return nil
}
