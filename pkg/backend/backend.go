package backend

import (
	"context"

	"github.com/ferat8/sui/pkg/types"
)

// Kind names the variant of a Backend.
type Kind uint8

const (
	KindRPC Kind = iota
	KindEmbedded
)

func (k Kind) String() string {
	switch k {
	case KindRPC:
		return "rpc"
	case KindEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// Backend is the uniform ledger access surface. There are exactly two implementations: the remote query service
// client in package rpc and the local execution state wrapper in package embedded.
//
// Operations a variant cannot serve return an error wrapping types.ErrUnsupportedOperation. That condition is
// permanent for the backend and must not be retried. Transport failures wrap types.ErrBackendUnavailable.
type Backend interface {
	Kind() Kind

	GetRawObject(ctx context.Context, id types.ObjectID) (*types.RawObject, error)
	GetObjectsOwnedByAddress(ctx context.Context, address types.SuiAddress) ([]*types.ObjectInfo, error)
	GetObjectsOwnedByObject(ctx context.Context, id types.ObjectID) ([]*types.ObjectInfo, error)

	GetTotalTransactionNumber(ctx context.Context) (uint64, error)
	// GetTransactionsInRange returns the transactions with sequence numbers in [start, end).
	GetTransactionsInRange(ctx context.Context, start uint64, end uint64) ([]types.TxSeqDigest, error)
	GetRecentTransactions(ctx context.Context, count uint64) ([]types.TxSeqDigest, error)
	GetTransaction(ctx context.Context, digest types.TransactionDigest) (*types.TransactionResponse, error)

	ExecuteTransaction(ctx context.Context, tx *types.SignedTransaction) (*types.TransactionResponse, error)
	SyncAccountState(ctx context.Context, address types.SuiAddress) error

	GetTransactionsByInputObject(ctx context.Context, id types.ObjectID) ([]types.TxSeqDigest, error)
	GetTransactionsByMutatedObject(ctx context.Context, id types.ObjectID) ([]types.TxSeqDigest, error)
	GetTransactionsByMoveFunction(ctx context.Context, pkg types.ObjectID, module string, function string) ([]types.TxSeqDigest, error)
	GetTransactionsFromAddress(ctx context.Context, address types.SuiAddress) ([]types.TxSeqDigest, error)
	GetTransactionsToAddress(ctx context.Context, address types.SuiAddress) ([]types.TxSeqDigest, error)

	SubscribeEvent(ctx context.Context, filter *types.EventFilter) (*EventStream, error)

	Close() error
}
