package gateway_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

func TestGenesis(t *testing.T) {
	tf := NewTestFramework(t)

	framework := tf.Object(gateway.FrameworkPackageID)
	require.True(t, framework.IsPackage())
	require.ElementsMatch(t, []string{"balance", "coin", "object", "sui", "transfer", "url"}, framework.Data.Package.ModuleNames())
	require.True(t, tf.Object(gateway.StdPackageID).IsPackage())

	coins := tf.Coins(tf.Alice)
	require.Len(t, coins, 3)
	require.Equal(t, []uint64{1000, 2000, 3000}, lo.Map(coins, tf.Balance))
	for _, coin := range coins {
		require.Equal(t, types.SequenceNumber(1), coin.Version)
		require.Equal(t, types.AddressOwner(tf.Alice.Address()), coin.Owner)
	}

	total, err := tf.State.GetTotalTransactionNumber()
	require.NoError(t, err)
	require.Zero(t, total)

	raw, err := tf.State.GetRawObject(types.MustObjectIDFromHex("0x1234"))
	require.NoError(t, err)
	require.Equal(t, types.StatusNotExists, raw.Status)
}

func TestTransferObject(t *testing.T) {
	tf := NewTestFramework(t)

	coins := tf.Coins(tf.Alice)
	object, gas := coins[0], coins[1]

	response, err := tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), object.Ref(), tf.Bob.Address(), gas.Ref(), 100))
	require.NoError(t, err)
	require.True(t, response.Effects.Status.Success)
	require.Len(t, response.Effects.Mutated, 2)
	require.Empty(t, response.Effects.Created)
	require.Empty(t, response.Effects.Deleted)

	transferred := tf.Object(object.ID())
	require.Equal(t, types.SequenceNumber(2), transferred.Version)
	require.Equal(t, types.AddressOwner(tf.Bob.Address()), transferred.Owner)
	require.Equal(t, response.Digest(), transferred.PreviousTransaction)
	require.Contains(t, lo.Map(response.Effects.Mutated, func(o types.OwnedObjectRef) types.ObjectRef { return o.Reference }), transferred.Ref())

	require.Equal(t, gas.Ref().ObjectID, response.Effects.GasObject.Reference.ObjectID)
	require.Equal(t, uint64(2000-tf.GasCost), tf.Balance(tf.Object(gas.ID())))

	require.Len(t, tf.Coins(tf.Bob), 2)

	recorded, err := tf.State.GetTransaction(response.Digest())
	require.NoError(t, err)
	require.Equal(t, response.Effects.Mutated, recorded.Effects.Mutated)
	require.Equal(t, response.Certificate.Data, recorded.Certificate.Data)

	expected := []types.TxSeqDigest{{Seq: 0, Digest: response.Digest()}}

	for name, query := range map[string]func() ([]types.TxSeqDigest, error){
		"input":    func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsByInputObject(object.ID()) },
		"mutated":  func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsByMutatedObject(object.ID()) },
		"from":     func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsFromAddress(tf.Alice.Address()) },
		"to":       func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsToAddress(tf.Bob.Address()) },
		"function": func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsByMoveFunction(gateway.FrameworkPackageID, "transfer", "transfer") },
		"module":   func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsByMoveFunction(gateway.FrameworkPackageID, "transfer", "") },
		"range":    func() ([]types.TxSeqDigest, error) { return tf.State.GetTransactionsInRange(0, 10) },
		"recent":   func() ([]types.TxSeqDigest, error) { return tf.State.GetRecentTransactions(5) },
	} {
		result, err := query()
		require.NoError(t, err, name)
		require.Equal(t, expected, result, name)
	}

	none, err := tf.State.GetTransactionsToAddress(tf.Alice.Address())
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestResubmitReturnsRecordedResponse(t *testing.T) {
	tf := NewTestFramework(t)

	coins := tf.Coins(tf.Alice)
	signed, err := tf.Alice.Sign(types.NewTransferObjectTransaction(tf.Alice.Address(), coins[0].Ref(), tf.Bob.Address(), coins[1].Ref(), 100))
	require.NoError(t, err)

	first, err := tf.State.ExecuteTransaction(signed)
	require.NoError(t, err)
	second, err := tf.State.ExecuteTransaction(signed)
	require.NoError(t, err)
	require.Equal(t, first.Digest(), second.Digest())
	require.Equal(t, first.Effects.Mutated, second.Effects.Mutated)

	total, err := tf.State.GetTotalTransactionNumber()
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
}

func TestSplitAndMergeCoins(t *testing.T) {
	tf := NewTestFramework(t)

	coins := tf.Coins(tf.Alice)
	coin, gas := coins[2], coins[0]

	split, err := tf.Execute(tf.Alice, types.NewSplitCoinTransaction(tf.Alice.Address(), coin.Ref(), []uint64{100, 200}, gas.Ref(), 100))
	require.NoError(t, err)
	require.True(t, split.Effects.Status.Success)
	require.Len(t, split.Effects.Created, 2)
	require.Equal(t, uint64(2700), tf.Balance(tf.Object(coin.ID())))

	created := tf.Object(split.Effects.Created[0].Reference.ObjectID)
	require.Equal(t, uint64(100), tf.Balance(created))
	require.Equal(t, types.SequenceNumber(2), created.Version)
	require.Equal(t, types.AddressOwner(tf.Alice.Address()), created.Owner)
	require.Equal(t, gateway.DeriveObjectID(split.Digest(), 0), created.ID())

	merge, err := tf.Execute(tf.Alice, types.NewMergeCoinsTransaction(tf.Alice.Address(), tf.Object(coin.ID()).Ref(), created.Ref(), tf.Object(gas.ID()).Ref(), 100))
	require.NoError(t, err)
	require.True(t, merge.Effects.Status.Success)
	require.Equal(t, []types.ObjectRef{types.NewDeletedRef(created.ID(), 3)}, merge.Effects.Deleted)
	require.Equal(t, uint64(2800), tf.Balance(tf.Object(coin.ID())))

	raw, err := tf.State.GetRawObject(created.ID())
	require.NoError(t, err)
	require.Equal(t, types.StatusDeleted, raw.Status)
	require.True(t, raw.Ref.IsDeleted())
	require.Contains(t, merge.Effects.MutatedAndDeletedRefs(), *raw.Ref)

	joins, err := tf.State.GetTransactionsByMoveFunction(gateway.FrameworkPackageID, "coin", "join")
	require.NoError(t, err)
	require.Equal(t, []types.TxSeqDigest{{Seq: 1, Digest: merge.Digest()}}, joins)

	coinCalls, err := tf.State.GetTransactionsByMoveFunction(gateway.FrameworkPackageID, "coin", "")
	require.NoError(t, err)
	require.Len(t, coinCalls, 2)
}

func TestFailedExecutionOnlyChargesGas(t *testing.T) {
	tf := NewTestFramework(t)

	coins := tf.Coins(tf.Alice)
	coin, gas := coins[0], coins[1]

	response, err := tf.Execute(tf.Alice, types.NewSplitCoinTransaction(tf.Alice.Address(), coin.Ref(), []uint64{5000}, gas.Ref(), 100))
	require.NoError(t, err)
	require.False(t, response.Effects.Status.Success)
	require.NotEmpty(t, response.Effects.Status.Error)
	require.Empty(t, response.Effects.Created)
	require.Len(t, response.Effects.Mutated, 1)

	require.Equal(t, coin.Ref(), tf.Object(coin.ID()).Ref())
	require.Equal(t, uint64(2000-tf.GasCost), tf.Balance(tf.Object(gas.ID())))
}

func TestRejectedTransactions(t *testing.T) {
	tf := NewTestFramework(t)

	coins := tf.Coins(tf.Alice)
	object, gas := coins[0], coins[1]

	_, err := tf.Execute(tf.Bob, types.NewTransferObjectTransaction(tf.Alice.Address(), object.Ref(), tf.Bob.Address(), gas.Ref(), 100))
	require.ErrorIs(t, err, types.ErrInvalidTransaction)

	stale := object.Ref()
	stale.Version++
	_, err = tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), stale, tf.Bob.Address(), gas.Ref(), 100))
	require.ErrorIs(t, err, types.ErrInvalidTransaction)

	_, err = tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), gas.Ref(), tf.Bob.Address(), gas.Ref(), 100))
	require.ErrorIs(t, err, types.ErrInvalidTransaction)

	bobCoin := tf.Coins(tf.Bob)[0]
	_, err = tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), bobCoin.Ref(), tf.Alice.Address(), gas.Ref(), 100))
	require.ErrorIs(t, err, types.ErrInvalidTransaction)

	_, err = tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), object.Ref(), tf.Bob.Address(), gas.Ref(), 1))
	require.ErrorIs(t, err, types.ErrInvalidTransaction)

	total, err := tf.State.GetTotalTransactionNumber()
	require.NoError(t, err)
	require.Zero(t, total)
	require.Equal(t, gas.Ref(), tf.Object(gas.ID()).Ref())
}

func TestPublish(t *testing.T) {
	tf := NewTestFramework(t)

	module, err := move.NewBuilder(types.EmptyObjectID, "wallet").
		AddStruct("Wallet", 0,
			move.Field{Name: "id", Type: move.Struct(gateway.FrameworkPackageID, "object", "UID")},
			move.Field{Name: "coin", Type: move.Struct(gateway.FrameworkPackageID, "coin", "Coin", move.Struct(gateway.FrameworkPackageID, "sui", "SUI"))},
		).
		Bytes()
	require.NoError(t, err)

	gas := tf.Coins(tf.Alice)[0]
	response, err := tf.Execute(tf.Alice, types.NewPublishTransaction(tf.Alice.Address(), [][]byte{module}, gas.Ref(), 100))
	require.NoError(t, err)
	require.True(t, response.Effects.Status.Success, response.Effects.Status.Error)
	require.Len(t, response.Effects.Created, 1)

	packageID := response.Effects.Created[0].Reference.ObjectID
	published := tf.Object(packageID)
	require.True(t, published.IsPackage())
	require.Equal(t, types.SequenceNumber(1), published.Version)
	require.Equal(t, types.ImmutableOwner(), published.Owner)

	compiled, err := move.ModuleFromBytes(published.Data.Package.Modules["wallet"])
	require.NoError(t, err)
	require.Equal(t, packageID, compiled.SelfAddress())
	require.ElementsMatch(t, []types.ObjectID{packageID, gateway.FrameworkPackageID}, compiled.DependencyAddresses())

	require.Len(t, response.Effects.Events, 1)
	require.Equal(t, types.EventPublish, response.Effects.Events[0].Type)

	missing, err := move.NewBuilder(types.EmptyObjectID, "broken").
		AddStruct("Broken", 0, move.Field{Name: "x", Type: move.Struct(types.MustObjectIDFromHex("0x99"), "nope", "Nope")}).
		Bytes()
	require.NoError(t, err)

	failed, err := tf.Execute(tf.Alice, types.NewPublishTransaction(tf.Alice.Address(), [][]byte{missing}, tf.Object(gas.ID()).Ref(), 100))
	require.NoError(t, err)
	require.False(t, failed.Effects.Status.Success)
	require.Empty(t, failed.Effects.Created)
}

func TestEventsAreDeliveredInOrder(t *testing.T) {
	tf := NewTestFramework(t)

	var (
		mutex    sync.Mutex
		received []*types.EventEnvelope
	)
	unsubscribe := tf.State.OnEvent(func(envelope *types.EventEnvelope) {
		mutex.Lock()
		defer mutex.Unlock()

		received = append(received, envelope)
	})
	defer unsubscribe()

	coins := tf.Coins(tf.Alice)
	split, err := tf.Execute(tf.Alice, types.NewSplitCoinTransaction(tf.Alice.Address(), coins[2].Ref(), []uint64{1, 2, 3}, coins[0].Ref(), 100))
	require.NoError(t, err)

	transfer, err := tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), coins[1].Ref(), tf.Bob.Address(), tf.Object(coins[0].ID()).Ref(), 100))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mutex.Lock()
		defer mutex.Unlock()

		return len(received) == 4
	}, 5*time.Second, 10*time.Millisecond)

	mutex.Lock()
	defer mutex.Unlock()

	for i := 0; i < 3; i++ {
		require.Equal(t, split.Digest(), received[i].TxDigest)
		require.Equal(t, types.EventNewObject, received[i].Event.Type)
		require.Equal(t, int64(i+1), received[i].Event.Amount)
	}
	require.Equal(t, transfer.Digest(), received[3].TxDigest)
	require.Equal(t, types.EventTransferObject, received[3].Event.Type)
	require.Equal(t, coins[1].ID(), received[3].Event.ObjectID)
	require.Equal(t, tf.Alice.Address(), received[3].Event.Sender)
}

func TestGetTransactionUnknown(t *testing.T) {
	tf := NewTestFramework(t)

	_, err := tf.State.GetTransaction(types.NewTransactionDigest([]byte("unknown")))
	require.ErrorIs(t, err, types.ErrTransactionNotFound)

	_, err = tf.State.GetTransactionsInRange(5, 1)
	require.Error(t, err)
}

func TestReopenReplaysTransactionLog(t *testing.T) {
	tf := NewTestFramework(t)

	coins := tf.Coins(tf.Alice)
	coin, gas := coins[2], coins[0]

	split, err := tf.Execute(tf.Alice, types.NewSplitCoinTransaction(tf.Alice.Address(), coin.Ref(), []uint64{100}, gas.Ref(), 100))
	require.NoError(t, err)
	created := tf.Object(split.Effects.Created[0].Reference.ObjectID)

	merge, err := tf.Execute(tf.Alice, types.NewMergeCoinsTransaction(tf.Alice.Address(), tf.Object(coin.ID()).Ref(), created.Ref(), tf.Object(gas.ID()).Ref(), 100))
	require.NoError(t, err)
	require.True(t, merge.Effects.Status.Success)

	_, err = tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), tf.Object(coin.ID()).Ref(), tf.Bob.Address(), tf.Object(gas.ID()).Ref(), 100))
	require.NoError(t, err)

	before := []*types.Object{tf.Object(coin.ID()), tf.Object(gas.ID())}

	tf.Reopen()

	total, err := tf.State.GetTotalTransactionNumber()
	require.NoError(t, err)
	require.Equal(t, uint64(3), total)

	for _, object := range before {
		require.Equal(t, object.Ref(), tf.Object(object.ID()).Ref())
	}

	raw, err := tf.State.GetRawObject(created.ID())
	require.NoError(t, err)
	require.Equal(t, types.StatusDeleted, raw.Status)

	require.Len(t, tf.Coins(tf.Bob), 2)

	next, err := tf.Execute(tf.Alice, types.NewTransferObjectTransaction(tf.Alice.Address(), tf.Object(gas.ID()).Ref(), tf.Bob.Address(), coins[1].Ref(), 100))
	require.NoError(t, err)
	require.True(t, next.Effects.Status.Success)

	latest, err := tf.State.GetRecentTransactions(1)
	require.NoError(t, err)
	require.Equal(t, []types.TxSeqDigest{{Seq: 3, Digest: next.Digest()}}, latest)
}
