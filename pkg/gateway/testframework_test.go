package gateway_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/crypto"
	"github.com/ferat8/sui/pkg/gateway"
	"github.com/ferat8/sui/pkg/types"
)

type TestFramework struct {
	test     *testing.T
	State    *gateway.State
	Alice    *crypto.KeyPair
	Bob      *crypto.KeyPair
	GasCost  uint64
	dbFolder string
}

func NewTestFramework(t *testing.T) *TestFramework {
	alice, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	bob, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	tf := &TestFramework{test: t, Alice: alice, Bob: bob, GasCost: 10, dbFolder: t.TempDir()}
	tf.State = tf.open()
	t.Cleanup(func() { tf.State.Shutdown() })

	return tf
}

// Reopen shuts the state down and opens a new one on the same transaction log.
func (f *TestFramework) Reopen() {
	f.State.Shutdown()
	f.State = f.open()
}

func (f *TestFramework) open() *gateway.State {
	state, err := gateway.New(log.NewLogger(),
		gateway.WithDBFolder(f.dbFolder),
		gateway.WithGasCost(f.GasCost),
		gateway.WithGenesisAccounts(
			gateway.GenesisAccount{Address: f.Alice.Address(), GasCoins: []uint64{1000, 2000, 3000}},
			gateway.GenesisAccount{Address: f.Bob.Address(), GasCoins: []uint64{500}},
		),
	)
	require.NoError(f.test, err)

	return state
}

// Coins returns the coins owned by the key pair, ordered by balance.
func (f *TestFramework) Coins(owner *crypto.KeyPair) []*types.Object {
	infos, err := f.State.GetObjectsOwnedByAddress(owner.Address())
	require.NoError(f.test, err)

	coins := make([]*types.Object, 0, len(infos))
	for _, info := range infos {
		coins = append(coins, f.Object(info.ObjectID))
	}

	for i := 1; i < len(coins); i++ {
		for j := i; j > 0 && f.Balance(coins[j]) < f.Balance(coins[j-1]); j-- {
			coins[j], coins[j-1] = coins[j-1], coins[j]
		}
	}

	return coins
}

func (f *TestFramework) Object(id types.ObjectID) *types.Object {
	raw, err := f.State.GetRawObject(id)
	require.NoError(f.test, err)

	object, err := raw.IntoObject()
	require.NoError(f.test, err)

	return object
}

func (f *TestFramework) Balance(coin *types.Object) uint64 {
	balance, err := gateway.GasCoinBalance(coin)
	require.NoError(f.test, err)

	return balance
}

func (f *TestFramework) Execute(signer *crypto.KeyPair, data *types.TransactionData) (*types.TransactionResponse, error) {
	signed, err := signer.Sign(data)
	require.NoError(f.test, err)

	return f.State.ExecuteTransaction(signed)
}
