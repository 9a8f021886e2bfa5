package client

import (
	"context"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/objectcache"
	"github.com/ferat8/sui/pkg/types"
)

// QuorumDriver submits signed transactions and writes the reported effects back into the object cache.
type QuorumDriver struct {
	Events *Events

	backend backend.Backend
	cache   *objectcache.Cache
	logger  log.Logger
}

// ExecuteTransaction submits tx once. Backend errors are returned as they are, a signed transaction is never
// resubmitted. The mutated and deleted refs are recorded in the cache before the response is returned.
func (q *QuorumDriver) ExecuteTransaction(ctx context.Context, tx *types.SignedTransaction) (*types.TransactionResponse, error) {
	response, err := q.backend.ExecuteTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if response == nil || response.Effects == nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "%s backend returned no effects for transaction %s", q.backend.Kind(), tx.Digest())
	}

	refs := response.Effects.MutatedAndDeletedRefs()
	q.cache.PutRefs(refs)

	q.logger.LogTrace("transaction executed", "digest", response.Digest(), "success", response.Effects.Status.Success, "refs", len(refs))
	q.Events.TransactionExecuted.Trigger(response)

	return response, nil
}
