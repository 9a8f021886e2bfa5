package layout_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/log"

	"github.com/ferat8/sui/pkg/layout"
	"github.com/ferat8/sui/pkg/moduleloader"
	"github.com/ferat8/sui/pkg/move"
	movetpkg "github.com/ferat8/sui/pkg/move/tpkg"
	"github.com/ferat8/sui/pkg/types"
	"github.com/ferat8/sui/pkg/types/tpkg"
)

var framework = types.MustObjectIDFromHex("0x2")

func frameworkPackage() *types.Object {
	return movetpkg.PackageObject(framework,
		move.NewBuilder(framework, "object").
			AddStruct("ID", 0, move.Field{Name: "bytes", Type: move.Address()}).
			AddStruct("UID", 0, move.Field{Name: "id", Type: move.Struct(framework, "object", "ID")}),
		move.NewBuilder(framework, "balance").
			AddStruct("Balance", 1, move.Field{Name: "value", Type: move.U64()}),
		move.NewBuilder(framework, "coin").
			AddStruct("Coin", 1,
				move.Field{Name: "id", Type: move.Struct(framework, "object", "UID")},
				move.Field{Name: "balance", Type: move.Struct(framework, "balance", "Balance", move.TypeParameter(0))},
			),
		move.NewBuilder(framework, "sui").
			AddStruct("SUI", 0, move.Field{Name: "dummy_field", Type: move.Bool()}),
	)
}

func closureOf(t *testing.T, root types.StructTag, objects ...*types.Object) *moduleloader.Closure {
	t.Helper()

	packages := make([]*types.MovePackage, len(objects))
	for i, object := range objects {
		packages[i] = object.Data.Package
	}

	closure, err := moduleloader.NewClosure(root, packages...)
	require.NoError(t, err)

	return closure
}

func TestComputeLayoutCoin(t *testing.T) {
	coinType, err := types.ParseStructTag("0x2::coin::Coin<0x2::sui::SUI>")
	require.NoError(t, err)

	resolver := layout.New(log.NewLogger())
	closure := closureOf(t, coinType, frameworkPackage())

	coinLayout, err := resolver.ComputeLayout(coinType, closure)
	require.NoError(t, err)
	require.Equal(t, "0x"+fill("2")+"::coin::Coin<0x"+fill("2")+"::sui::SUI> { id: 0x"+fill("2")+"::object::UID { id: 0x"+fill("2")+"::object::ID { bytes: address } }, balance: 0x"+fill("2")+"::balance::Balance<0x"+fill("2")+"::sui::SUI> { value: u64 } }", coinLayout.String())

	id := tpkg.RandObjectID()
	value, err := move.DecodeStruct(coinLayout, move.EncodeU64(tpkg.MoveContents(id), 1000))
	require.NoError(t, err)

	balance, found := value.Field("balance")
	require.True(t, found)
	amount, _ := balance.(*move.MoveStruct).Field("value")
	require.Equal(t, uint64(1000), amount)

	again, err := resolver.ComputeLayout(coinType, closure)
	require.NoError(t, err)
	require.Equal(t, coinLayout.String(), again.String())
	require.Equal(t, uint64(1), resolver.CacheHits())
}

func TestComputeLayoutMissingModule(t *testing.T) {
	other := tpkg.RandObjectID()
	wrapper := movetpkg.PackageObject(other, move.NewBuilder(other, "wrapper").
		AddStruct("Wrapper", 0, move.Field{Name: "inner", Type: move.Struct(framework, "balance", "Balance", move.U8())}))
	root := types.StructTag{Address: other, Module: "wrapper", Name: "Wrapper"}

	resolver := layout.New(log.NewLogger())

	_, err := resolver.ComputeLayout(root, closureOf(t, root, wrapper))
	require.ErrorIs(t, err, types.ErrMissingModule)

	wrapperLayout, err := resolver.ComputeLayout(root, closureOf(t, root, wrapper, frameworkPackage()))
	require.NoError(t, err)
	require.Len(t, wrapperLayout.Fields, 1)

	// a memoised layout still requires the closure to cover it
	_, err = resolver.ComputeLayout(root, closureOf(t, root, wrapper))
	require.ErrorIs(t, err, types.ErrMissingModule)

	_, err = resolver.ComputeLayout(types.StructTag{Address: other, Module: "wrapper", Name: "Unknown"}, closureOf(t, root, wrapper))
	require.ErrorIs(t, err, types.ErrMissingModule)
}

func TestComputeLayoutArityMismatch(t *testing.T) {
	balanceType := types.StructTag{Address: framework, Module: "balance", Name: "Balance"}

	resolver := layout.New(log.NewLogger())

	_, err := resolver.ComputeLayout(balanceType, closureOf(t, balanceType, frameworkPackage()))
	require.ErrorIs(t, err, types.ErrDecode)
}

func fill(suffix string) string {
	padding := make([]byte, 64-len(suffix))
	for i := range padding {
		padding[i] = '0'
	}

	return string(padding) + suffix
}
