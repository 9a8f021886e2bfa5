package rpcserver

import (
	"github.com/ferat8/sui/pkg/types"
)

// Service is the ledger state served over JSON-RPC. *gateway.State implements it.
type Service interface {
	GetRawObject(id types.ObjectID) (*types.RawObject, error)
	GetObjectsOwnedByAddress(address types.SuiAddress) ([]*types.ObjectInfo, error)
	GetObjectsOwnedByObject(id types.ObjectID) ([]*types.ObjectInfo, error)

	GetTotalTransactionNumber() (uint64, error)
	GetTransactionsInRange(start uint64, end uint64) ([]types.TxSeqDigest, error)
	GetRecentTransactions(count uint64) ([]types.TxSeqDigest, error)
	GetTransaction(digest types.TransactionDigest) (*types.TransactionResponse, error)

	ExecuteTransaction(tx *types.SignedTransaction) (*types.TransactionResponse, error)
	SyncAccountState(address types.SuiAddress) error

	GetTransactionsByInputObject(id types.ObjectID) ([]types.TxSeqDigest, error)
	GetTransactionsByMutatedObject(id types.ObjectID) ([]types.TxSeqDigest, error)
	GetTransactionsByMoveFunction(pkg types.ObjectID, module string, function string) ([]types.TxSeqDigest, error)
	GetTransactionsFromAddress(address types.SuiAddress) ([]types.TxSeqDigest, error)
	GetTransactionsToAddress(address types.SuiAddress) ([]types.TxSeqDigest, error)

	// OnEvent delivers emitted events in order until unsubscribe is called.
	OnEvent(handler func(envelope *types.EventEnvelope)) (unsubscribe func())
}
