package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/backend/mockbackend"
	"github.com/ferat8/sui/pkg/client"
	"github.com/ferat8/sui/pkg/move"
	movetpkg "github.com/ferat8/sui/pkg/move/tpkg"
	"github.com/ferat8/sui/pkg/types"
	"github.com/ferat8/sui/pkg/types/tpkg"
)

type TestFramework struct {
	test    *testing.T
	Backend *mockbackend.Backend
	Client  *client.Client

	Outer   types.ObjectID
	Inner   types.ObjectID
	Wrapper types.StructTag
}

// NewTestFramework serves two packages where outer::m::S embeds inner::m::S.
func NewTestFramework(t *testing.T, kind backend.Kind) *TestFramework {
	tf := &TestFramework{
		test:    t,
		Backend: mockbackend.New(kind),
		Outer:   tpkg.RandObjectID(),
		Inner:   tpkg.RandObjectID(),
	}
	tf.Wrapper = types.StructTag{Address: tf.Outer, Module: "m", Name: "S"}

	tf.Backend.SetObject(movetpkg.SimplePackage(tf.Inner))
	tf.Backend.SetObject(movetpkg.SimplePackage(tf.Outer, tf.Inner))

	tf.Client = client.New(log.NewLogger(), tf.Backend)

	return tf
}

// NewObject stores a wrapper value with the given version and returns it.
func (tf *TestFramework) NewObject(id types.ObjectID, inner types.SuiAddress, version types.SequenceNumber) *types.Object {
	object := types.NewMoveObject(tf.Wrapper, tpkg.MoveContents(id, inner[:]...), types.AddressOwner(tpkg.RandAddress()), version, tpkg.RandTransactionDigest())
	tf.Backend.SetObject(object)

	return object
}

func TestGetParsedObjectIsCached(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)
	ctx := context.Background()

	id := tpkg.RandObjectID()
	inner := tpkg.RandAddress()
	object := tf.NewObject(id, inner, 1)

	first, err := tf.Client.ReadAPI.GetParsedObject(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, first.Layout)
	require.Equal(t, object.Ref(), first.Raw.Object.Ref())
	require.Equal(t, uint64(3), tf.Backend.TotalFetches())

	second, err := tf.Client.ReadAPI.GetParsedObject(ctx, id)
	require.NoError(t, err)
	require.Same(t, first.Raw, second.Raw)
	require.Equal(t, first.Layout.String(), second.Layout.String())
	require.Equal(t, uint64(3), tf.Backend.TotalFetches())

	for _, fetched := range []types.ObjectID{id, tf.Outer, tf.Inner} {
		require.Equal(t, uint64(1), tf.Backend.Fetches(fetched))
	}

	value, err := second.Decode()
	require.NoError(t, err)

	selfID, found := value.Field("id")
	require.True(t, found)
	require.Equal(t, types.AddressFromObjectID(id), selfID)

	nested, found := value.Field("depa")
	require.True(t, found)
	nestedID, found := nested.(*move.MoveStruct).Field("id")
	require.True(t, found)
	require.Equal(t, inner, nestedID)
}

func TestGetParsedObjectPackage(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)

	parsed, err := tf.Client.ReadAPI.GetParsedObject(context.Background(), tf.Outer)
	require.NoError(t, err)
	require.True(t, parsed.Raw.Object.IsPackage())
	require.Nil(t, parsed.Layout)

	_, err = parsed.Decode()
	require.ErrorIs(t, err, types.ErrDecode)
}

func TestNotExistsIsNotCached(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)
	ctx := context.Background()

	id := tpkg.RandObjectID()

	parsed, err := tf.Client.ReadAPI.GetParsedObject(ctx, id)
	require.NoError(t, err)
	require.Equal(t, types.StatusNotExists, parsed.Raw.Status)
	require.Nil(t, parsed.Layout)
	require.Zero(t, tf.Client.Cache().Size())

	_, cached := tf.Client.Cache().Get(id)
	require.False(t, cached)

	object := tf.NewObject(id, tpkg.RandAddress(), 1)

	raw, err := tf.Client.ReadAPI.GetObject(ctx, id)
	require.NoError(t, err)
	require.True(t, raw.Exists())
	require.Equal(t, object.Ref(), raw.Object.Ref())
	require.Equal(t, uint64(2), tf.Backend.Fetches(id))
}

func TestExecuteUpdatesCache(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)
	ctx := context.Background()

	mutatedID := tpkg.RandObjectID()
	deletedID := tpkg.RandObjectID()
	inner := tpkg.RandAddress()
	tf.NewObject(mutatedID, inner, 1)
	deleted := tf.NewObject(deletedID, inner, 1)

	for _, id := range []types.ObjectID{mutatedID, deletedID} {
		_, err := tf.Client.ReadAPI.GetObject(ctx, id)
		require.NoError(t, err)
	}

	newInner := tpkg.RandAddress()
	updated := types.NewMoveObject(tf.Wrapper, tpkg.MoveContents(mutatedID, newInner[:]...), types.AddressOwner(tpkg.RandAddress()), 2, tpkg.RandTransactionDigest())
	deletedRef := types.NewDeletedRef(deletedID, 2)

	tx := &types.SignedTransaction{TxBytes: tpkg.RandBytes(32)}
	tf.Backend.ExecuteFunc = func(signed *types.SignedTransaction) (*types.TransactionResponse, error) {
		// the ledger moved on, but nothing was read yet
		tf.Backend.SetObject(updated)
		tf.Backend.SetRawObject(types.NewDeletedRawObject(deletedRef))

		return &types.TransactionResponse{
			Certificate: &types.CertifiedTransaction{TransactionDigest: signed.Digest(), Signed: signed},
			Effects: &types.TransactionEffects{
				Status:            types.ExecutionStatus{Success: true},
				TransactionDigest: signed.Digest(),
				Mutated:           []types.OwnedObjectRef{{Owner: updated.Owner, Reference: updated.Ref()}},
				Deleted:           []types.ObjectRef{deletedRef},
			},
		}, nil
	}

	response, err := tf.Client.QuorumDriver.ExecuteTransaction(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, tx.Digest(), response.Digest())

	latest, known := tf.Client.Cache().LatestRef(mutatedID)
	require.True(t, known)
	require.Equal(t, updated.Ref(), latest)

	_, cached := tf.Client.Cache().Get(mutatedID)
	require.False(t, cached)

	raw, err := tf.Client.ReadAPI.GetObject(ctx, mutatedID)
	require.NoError(t, err)
	require.Equal(t, updated.Ref(), raw.Object.Ref())
	require.Equal(t, uint64(2), tf.Backend.Fetches(mutatedID))

	gone, err := tf.Client.ReadAPI.GetObject(ctx, deletedID)
	require.NoError(t, err)
	require.Equal(t, types.StatusDeleted, gone.Status)
	require.Equal(t, deletedRef, *gone.Ref)
	require.NotEqual(t, deleted.Ref(), *gone.Ref)
	require.Equal(t, uint64(1), tf.Backend.Fetches(deletedID))
}

func TestExecuteIsNotRetried(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)
	ctx := context.Background()

	id := tpkg.RandObjectID()
	tf.NewObject(id, tpkg.RandAddress(), 1)
	_, err := tf.Client.ReadAPI.GetObject(ctx, id)
	require.NoError(t, err)

	tf.Backend.SetErr(ierrors.Wrap(types.ErrBackendUnavailable, "connection refused"))

	response, err := tf.Client.QuorumDriver.ExecuteTransaction(ctx, &types.SignedTransaction{TxBytes: tpkg.RandBytes(32)})
	require.ErrorIs(t, err, types.ErrBackendUnavailable)
	require.Nil(t, response)
	require.Equal(t, uint64(1), tf.Backend.Executions())

	_, cached := tf.Client.Cache().Get(id)
	require.True(t, cached)
}

func TestReadErrorsAreNotCached(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)
	ctx := context.Background()

	id := tpkg.RandObjectID()
	tf.Backend.SetErr(ierrors.Wrap(types.ErrBackendUnavailable, "timeout"))

	_, err := tf.Client.ReadAPI.GetObject(ctx, id)
	require.ErrorIs(t, err, types.ErrBackendUnavailable)
	require.Contains(t, err.Error(), id.ToHex())
	require.Zero(t, tf.Client.Cache().Size())

	tf.Backend.SetErr(nil)
	tf.Backend.SetRawObject(&types.RawObject{Status: types.StatusExists, ObjectID: id})

	_, err = tf.Client.ReadAPI.GetObject(ctx, id)
	require.ErrorIs(t, err, types.ErrDecode)
	require.Zero(t, tf.Client.Cache().Size())
}

func TestMissingDependency(t *testing.T) {
	tf := NewTestFramework(t, backend.KindRPC)
	ctx := context.Background()

	missing := tpkg.RandObjectID()
	broken := tpkg.RandObjectID()
	tf.Backend.SetObject(movetpkg.SimplePackage(broken, missing))

	id := tpkg.RandObjectID()
	tf.Backend.SetObject(types.NewMoveObject(types.StructTag{Address: broken, Module: "m", Name: "S"}, tpkg.MoveContents(id, tpkg.RandBytes(32)...), types.AddressOwner(tpkg.RandAddress()), 1, tpkg.RandTransactionDigest()))

	_, err := tf.Client.ReadAPI.GetParsedObject(ctx, id)
	require.ErrorIs(t, err, types.ErrInternalInvariantViolation)
	require.Contains(t, err.Error(), missing.ToHex())
}

func TestEmbeddedCapabilityGating(t *testing.T) {
	tf := NewTestFramework(t, backend.KindEmbedded)
	ctx := context.Background()

	id := tpkg.RandObjectID()
	address := tpkg.RandAddress()

	for name, query := range map[string]func() ([]types.TxSeqDigest, error){
		"input":    func() ([]types.TxSeqDigest, error) { return tf.Client.FullNodeAPI.GetTransactionsByInputObject(ctx, id) },
		"mutated":  func() ([]types.TxSeqDigest, error) { return tf.Client.FullNodeAPI.GetTransactionsByMutatedObject(ctx, id) },
		"function": func() ([]types.TxSeqDigest, error) { return tf.Client.FullNodeAPI.GetTransactionsByMoveFunction(ctx, id, "", "") },
		"from":     func() ([]types.TxSeqDigest, error) { return tf.Client.FullNodeAPI.GetTransactionsFromAddress(ctx, address) },
		"to":       func() ([]types.TxSeqDigest, error) { return tf.Client.FullNodeAPI.GetTransactionsToAddress(ctx, address) },
	} {
		digests, err := query()
		require.ErrorIs(t, err, types.ErrUnsupportedOperation, name)
		require.True(t, backend.IsUnsupported(err), name)
		require.Nil(t, digests, name)
	}

	stream, err := tf.Client.EventAPI.SubscribeEvent(ctx, &types.EventFilter{})
	require.ErrorIs(t, err, types.ErrUnsupportedOperation)
	require.Nil(t, stream)
}
