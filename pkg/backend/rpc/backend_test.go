package rpc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/backend"
	"github.com/ferat8/sui/pkg/backend/rpc"
	"github.com/ferat8/sui/pkg/crypto"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/rpcserver"
	"github.com/ferat8/sui/pkg/types"
)

type TestFramework struct {
	test    *testing.T
	State   *gateway.State
	Server  *httptest.Server
	Backend *rpc.Backend
	Owner   *crypto.KeyPair
}

func NewTestFramework(t *testing.T) *TestFramework {
	owner, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	state, err := gateway.New(log.NewLogger(),
		gateway.WithDBFolder(t.TempDir()),
		gateway.WithGenesisAccounts(gateway.GenesisAccount{Address: owner.Address(), GasCoins: []uint64{100, 200, 300}}),
	)
	require.NoError(t, err)

	server := httptest.NewServer(rpcserver.New(log.NewLogger(), state).Echo)
	t.Cleanup(func() {
		server.Close()
		state.Shutdown()
	})

	return &TestFramework{
		test:    t,
		State:   state,
		Server:  server,
		Backend: rpc.New(log.NewLogger(), server.URL, rpc.WithWebsocketURL(websocketURL(server.URL))),
		Owner:   owner,
	}
}

func websocketURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + rpcserver.RouteWebsocket
}

func (f *TestFramework) Transfer(object types.ObjectRef, gas types.ObjectRef, recipient types.SuiAddress) *types.TransactionResponse {
	signed, err := f.Owner.Sign(types.NewTransferObjectTransaction(f.Owner.Address(), object, recipient, gas, 100))
	require.NoError(f.test, err)

	response, err := f.Backend.ExecuteTransaction(context.Background(), signed)
	require.NoError(f.test, err)

	return response
}

func TestReads(t *testing.T) {
	tf := NewTestFramework(t)
	ctx := context.Background()

	require.Equal(t, backend.KindRPC, tf.Backend.Kind())

	raw, err := tf.Backend.GetRawObject(ctx, gateway.FrameworkPackageID)
	require.NoError(t, err)
	require.True(t, raw.Exists())

	object, err := raw.IntoObject()
	require.NoError(t, err)
	require.True(t, object.IsPackage())

	expected, err := tf.State.GetRawObject(gateway.FrameworkPackageID)
	require.NoError(t, err)
	require.Equal(t, expected.Object.Ref(), object.Ref())

	missing, err := tf.Backend.GetRawObject(ctx, types.MustObjectIDFromHex("0xabc"))
	require.NoError(t, err)
	require.Equal(t, types.StatusNotExists, missing.Status)

	owned, err := tf.Backend.GetObjectsOwnedByAddress(ctx, tf.Owner.Address())
	require.NoError(t, err)
	require.Len(t, owned, 3)

	ownedByObject, err := tf.Backend.GetObjectsOwnedByObject(ctx, owned[0].ObjectID)
	require.NoError(t, err)
	require.Empty(t, ownedByObject)

	_, err = tf.Backend.GetTransaction(ctx, types.NewTransactionDigest([]byte("missing")))
	require.ErrorIs(t, err, types.ErrTransactionNotFound)

	require.NoError(t, tf.Backend.SyncAccountState(ctx, tf.Owner.Address()))
}

func TestExecuteAndQuery(t *testing.T) {
	tf := NewTestFramework(t)
	ctx := context.Background()

	owned, err := tf.Backend.GetObjectsOwnedByAddress(ctx, tf.Owner.Address())
	require.NoError(t, err)

	recipient := types.MustObjectIDFromHex("0x77")
	response := tf.Transfer(owned[0].Ref(), owned[1].Ref(), types.AddressFromObjectID(recipient))
	require.True(t, response.Effects.Status.Success)

	raw, err := tf.Backend.GetRawObject(ctx, owned[0].ObjectID)
	require.NoError(t, err)
	ref, _ := raw.CurrentRef()
	require.Contains(t, response.Effects.MutatedAndDeletedRefs(), ref)

	byObject, err := tf.Backend.GetObjectsOwnedByObject(ctx, recipient)
	require.NoError(t, err)
	require.Len(t, byObject, 1)

	expected := []types.TxSeqDigest{{Seq: 0, Digest: response.Digest()}}

	total, err := tf.Backend.GetTotalTransactionNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)

	for name, query := range map[string]func() ([]types.TxSeqDigest, error){
		"range":    func() ([]types.TxSeqDigest, error) { return tf.Backend.GetTransactionsInRange(ctx, 0, 1) },
		"recent":   func() ([]types.TxSeqDigest, error) { return tf.Backend.GetRecentTransactions(ctx, 10) },
		"input":    func() ([]types.TxSeqDigest, error) { return tf.Backend.GetTransactionsByInputObject(ctx, owned[0].ObjectID) },
		"mutated":  func() ([]types.TxSeqDigest, error) { return tf.Backend.GetTransactionsByMutatedObject(ctx, owned[1].ObjectID) },
		"function": func() ([]types.TxSeqDigest, error) { return tf.Backend.GetTransactionsByMoveFunction(ctx, gateway.FrameworkPackageID, "transfer", "transfer") },
		"from":     func() ([]types.TxSeqDigest, error) { return tf.Backend.GetTransactionsFromAddress(ctx, tf.Owner.Address()) },
		"to":       func() ([]types.TxSeqDigest, error) { return tf.Backend.GetTransactionsToAddress(ctx, types.AddressFromObjectID(recipient)) },
	} {
		result, err := query()
		require.NoError(t, err, name)
		require.Equal(t, expected, result, name)
	}

	recorded, err := tf.Backend.GetTransaction(ctx, response.Digest())
	require.NoError(t, err)
	require.Equal(t, response.Effects.Mutated, recorded.Effects.Mutated)

	signed, err := tf.Owner.Sign(types.NewTransferObjectTransaction(tf.Owner.Address(), owned[0].Ref(), tf.Owner.Address(), owned[2].Ref(), 100))
	require.NoError(t, err)
	_, err = tf.Backend.ExecuteTransaction(ctx, signed)
	require.ErrorIs(t, err, types.ErrInvalidTransaction)
}

func TestUnavailable(t *testing.T) {
	tf := NewTestFramework(t)
	tf.Server.Close()

	_, err := tf.Backend.GetRawObject(context.Background(), gateway.FrameworkPackageID)
	require.ErrorIs(t, err, types.ErrBackendUnavailable)

	_, err = tf.Backend.SubscribeEvent(context.Background(), nil)
	require.ErrorIs(t, err, types.ErrBackendUnavailable)
}

func TestSubscribeEventWithoutWebsocket(t *testing.T) {
	tf := NewTestFramework(t)

	withoutWebsocket := rpc.New(log.NewLogger(), tf.Server.URL)
	_, err := withoutWebsocket.SubscribeEvent(context.Background(), &types.EventFilter{})
	require.ErrorIs(t, err, types.ErrUnsupportedOperation)
	require.True(t, backend.IsUnsupported(err))
}

func TestSubscribeEvent(t *testing.T) {
	tf := NewTestFramework(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	owned, err := tf.Backend.GetObjectsOwnedByAddress(ctx, tf.Owner.Address())
	require.NoError(t, err)

	transferType := types.EventTransferObject
	stream, err := tf.Backend.SubscribeEvent(ctx, &types.EventFilter{
		EventType:  &transferType,
		Expression: `Sender != ""`,
	})
	require.NoError(t, err)
	defer stream.Close()

	recipient := types.MustObjectIDFromHex("0x88")
	first := tf.Transfer(owned[0].Ref(), owned[2].Ref(), types.AddressFromObjectID(recipient))

	result, ok := stream.Next(ctx)
	require.True(t, ok)
	require.NoError(t, result.Err)
	require.Equal(t, first.Digest(), result.Envelope.TxDigest)
	require.Equal(t, types.EventTransferObject, result.Envelope.Event.Type)
	require.Equal(t, owned[0].ObjectID, result.Envelope.Event.ObjectID)

	stream.Close()

	for {
		if _, ok := <-stream.Results(); !ok {
			break
		}
	}
}

// newSilentWebsocketServer accepts websocket connections but never answers.
func newSilentWebsocketServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestSubscribeEventHandshakeCancelled(t *testing.T) {
	server := newSilentWebsocketServer(t)
	b := rpc.New(log.NewLogger(), server.URL, rpc.WithWebsocketURL("ws"+strings.TrimPrefix(server.URL, "http")), rpc.WithTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := b.SubscribeEvent(ctx, &types.EventFilter{})
	require.ErrorIs(t, err, types.ErrBackendUnavailable)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestSubscribeEventHandshakeTimeout(t *testing.T) {
	server := newSilentWebsocketServer(t)
	b := rpc.New(log.NewLogger(), server.URL, rpc.WithWebsocketURL("ws"+strings.TrimPrefix(server.URL, "http")), rpc.WithTimeout(200*time.Millisecond))

	start := time.Now()
	_, err := b.SubscribeEvent(context.Background(), &types.EventFilter{})
	require.ErrorIs(t, err, types.ErrBackendUnavailable)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestSubscribeEventInvalidExpression(t *testing.T) {
	tf := NewTestFramework(t)

	_, err := tf.Backend.SubscribeEvent(context.Background(), &types.EventFilter{Expression: `Amount +`})
	require.Error(t, err)
	require.False(t, backend.IsUnsupported(err))
}

func TestMaxResponseSize(t *testing.T) {
	tf := NewTestFramework(t)
	ctx := context.Background()

	limited := rpc.New(log.NewLogger(), tf.Server.URL, rpc.WithMaxResponseSize(64))

	_, err := limited.GetRawObject(ctx, gateway.FrameworkPackageID)
	require.ErrorIs(t, err, types.ErrDecode)

	total, err := limited.GetTotalTransactionNumber(ctx)
	require.NoError(t, err)
	require.Zero(t, total)
}
