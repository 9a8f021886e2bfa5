package client

import (
	"context"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/types"
)

// FullNodeAPI exposes the transaction index queries. Backends without indexes answer with
// types.ErrUnsupportedOperation.
type FullNodeAPI struct {
	backend backend.Backend
}

func (f *FullNodeAPI) GetTransactionsByInputObject(ctx context.Context, id types.ObjectID) ([]types.TxSeqDigest, error) {
	return f.backend.GetTransactionsByInputObject(ctx, id)
}

func (f *FullNodeAPI) GetTransactionsByMutatedObject(ctx context.Context, id types.ObjectID) ([]types.TxSeqDigest, error) {
	return f.backend.GetTransactionsByMutatedObject(ctx, id)
}

// GetTransactionsByMoveFunction filters by package, and optionally by module and function.
func (f *FullNodeAPI) GetTransactionsByMoveFunction(ctx context.Context, pkg types.ObjectID, module string, function string) ([]types.TxSeqDigest, error) {
	return f.backend.GetTransactionsByMoveFunction(ctx, pkg, module, function)
}

func (f *FullNodeAPI) GetTransactionsFromAddress(ctx context.Context, address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return f.backend.GetTransactionsFromAddress(ctx, address)
}

func (f *FullNodeAPI) GetTransactionsToAddress(ctx context.Context, address types.SuiAddress) ([]types.TxSeqDigest, error) {
	return f.backend.GetTransactionsToAddress(ctx, address)
}

// EventAPI forwards event subscriptions.
type EventAPI struct {
	backend backend.Backend
}

// SubscribeEvent returns the backend's stream as is. The caller must Close it.
func (e *EventAPI) SubscribeEvent(ctx context.Context, filter *types.EventFilter) (*backend.EventStream, error) {
	return e.backend.SubscribeEvent(ctx, filter)
}
