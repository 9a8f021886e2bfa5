package gateway

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/types"
)

// ErrLogDiverged is returned when replaying the transaction log does not reproduce the recorded effects.
var ErrLogDiverged = ierrors.New("transaction log diverged")

// replay rebuilds the object store from genesis by re-executing the transaction log. Execution only depends
// on the inputs so the recorded effects must be reproduced exactly.
func (s *State) replay() error {
	s.executionMutex.Lock()
	defer s.executionMutex.Unlock()

	return s.txLog.forEach(func(seq uint64, recorded *types.TransactionResponse) error {
		if recorded.Certificate == nil || recorded.Certificate.Signed == nil || recorded.Effects == nil {
			return ierrors.Wrapf(types.ErrDecode, "transaction %d is incomplete", seq)
		}

		tx := recorded.Certificate.Signed
		data, err := tx.Data()
		if err != nil {
			return ierrors.Wrapf(err, "failed to decode transaction %d", seq)
		}

		e, response, err := s.execute(tx, data, tx.Digest())
		if err != nil {
			return ierrors.Wrapf(err, "failed to replay transaction %d", seq)
		}

		if !sameRefs(writtenRefs(recorded.Effects), writtenRefs(response.Effects)) {
			return ierrors.Wrapf(ErrLogDiverged, "transaction %d (%s)", seq, recorded.Digest())
		}

		return e.storeObjects(response)
	})
}

func writtenRefs(effects *types.TransactionEffects) []types.ObjectRef {
	created := lo.Map(effects.Created, func(o types.OwnedObjectRef) types.ObjectRef { return o.Reference })

	return append(created, effects.MutatedAndDeletedRefs()...)
}

func sameRefs(a []types.ObjectRef, b []types.ObjectRef) bool {
	if len(a) != len(b) {
		return false
	}

	expected := make(map[types.ObjectID]types.ObjectRef, len(a))
	for _, ref := range a {
		expected[ref.ObjectID] = ref
	}
	for _, ref := range b {
		if expected[ref.ObjectID] != ref {
			return false
		}
	}

	return true
}
