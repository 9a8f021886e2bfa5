package embedded

import (
	"context"

	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/types"
)

const unsupportedReason = "the embedded state keeps no transaction indexes or event subscriptions"

// Backend serves reads and execution from a local gateway state.
type Backend struct {
	state  *gateway.State
	logger log.Logger

	optsShutdownOnClose bool
}

var _ backend.Backend = &Backend{}

// New wraps the state.
func New(logger log.Logger, state *gateway.State, opts ...options.Option[Backend]) *Backend {
	return options.Apply(&Backend{
		state:  state,
		logger: logger.NewChildLogger("EmbeddedBackend"),
	}, opts)
}

// WithShutdownOnClose makes Close shut down the wrapped state.
func WithShutdownOnClose(shutdown bool) options.Option[Backend] {
	return func(b *Backend) {
		b.optsShutdownOnClose = shutdown
	}
}

func (b *Backend) Kind() backend.Kind {
	return backend.KindEmbedded
}

func (b *Backend) GetRawObject(ctx context.Context, id types.ObjectID) (*types.RawObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.logger.LogTrace("GetRawObject", "id", id)

	return b.state.GetRawObject(id)
}

func (b *Backend) GetObjectsOwnedByAddress(ctx context.Context, address types.SuiAddress) ([]*types.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.state.GetObjectsOwnedByAddress(address)
}

func (b *Backend) GetObjectsOwnedByObject(ctx context.Context, id types.ObjectID) ([]*types.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.state.GetObjectsOwnedByObject(id)
}

func (b *Backend) GetTotalTransactionNumber(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	return b.state.GetTotalTransactionNumber()
}

func (b *Backend) GetTransactionsInRange(ctx context.Context, start uint64, end uint64) ([]types.TxSeqDigest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.state.GetTransactionsInRange(start, end)
}

func (b *Backend) GetRecentTransactions(ctx context.Context, count uint64) ([]types.TxSeqDigest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.state.GetRecentTransactions(count)
}

func (b *Backend) GetTransaction(ctx context.Context, digest types.TransactionDigest) (*types.TransactionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.state.GetTransaction(digest)
}

func (b *Backend) ExecuteTransaction(ctx context.Context, tx *types.SignedTransaction) (*types.TransactionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.logger.LogTrace("ExecuteTransaction", "tx", tx.Digest())

	return b.state.ExecuteTransaction(tx)
}

func (b *Backend) SyncAccountState(ctx context.Context, address types.SuiAddress) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.state.SyncAccountState(address)
}

func (b *Backend) GetTransactionsByInputObject(_ context.Context, _ types.ObjectID) ([]types.TxSeqDigest, error) {
	return nil, backend.Unsupported(backend.KindEmbedded, "GetTransactionsByInputObject", unsupportedReason)
}

func (b *Backend) GetTransactionsByMutatedObject(_ context.Context, _ types.ObjectID) ([]types.TxSeqDigest, error) {
	return nil, backend.Unsupported(backend.KindEmbedded, "GetTransactionsByMutatedObject", unsupportedReason)
}

func (b *Backend) GetTransactionsByMoveFunction(_ context.Context, _ types.ObjectID, _ string, _ string) ([]types.TxSeqDigest, error) {
	return nil, backend.Unsupported(backend.KindEmbedded, "GetTransactionsByMoveFunction", unsupportedReason)
}

func (b *Backend) GetTransactionsFromAddress(_ context.Context, _ types.SuiAddress) ([]types.TxSeqDigest, error) {
	return nil, backend.Unsupported(backend.KindEmbedded, "GetTransactionsFromAddress", unsupportedReason)
}

func (b *Backend) GetTransactionsToAddress(_ context.Context, _ types.SuiAddress) ([]types.TxSeqDigest, error) {
	return nil, backend.Unsupported(backend.KindEmbedded, "GetTransactionsToAddress", unsupportedReason)
}

func (b *Backend) SubscribeEvent(_ context.Context, _ *types.EventFilter) (*backend.EventStream, error) {
	return nil, backend.Unsupported(backend.KindEmbedded, "SubscribeEvent", unsupportedReason)
}

// State returns the wrapped gateway state.
func (b *Backend) State() *gateway.State {
	return b.state
}

func (b *Backend) Close() error {
	if b.optsShutdownOnClose {
		b.state.Shutdown()
	}

	return nil
}
