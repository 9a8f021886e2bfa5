package gateway

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

var (
	// StdPackageID is the address of the standard library package.
	StdPackageID = types.MustObjectIDFromHex("0x1")
	// FrameworkPackageID is the address of the framework package declaring coins.
	FrameworkPackageID = types.MustObjectIDFromHex("0x2")

	// GasCoinType is the type of the coins paying for transactions.
	GasCoinType = types.StructTag{
		Address: FrameworkPackageID,
		Module:  "coin",
		Name:    "Coin",
		TypeParams: []types.TypeTag{types.NewStructTypeTag(types.StructTag{
			Address: FrameworkPackageID,
			Module:  "sui",
			Name:    "SUI",
		})},
	}
)

// GenesisAccount is an address funded with gas coins at genesis.
type GenesisAccount struct {
	Address  types.SuiAddress `json:"address"`
	GasCoins []uint64         `json:"gasCoins"`
}

// StdModules returns the builders of the standard library modules.
func StdModules() []*move.Builder {
	return []*move.Builder{
		move.NewBuilder(StdPackageID, "ascii").
			AddStruct("String", 0, move.Field{Name: "bytes", Type: move.Vector(move.U8())}),
		move.NewBuilder(StdPackageID, "option").
			AddStruct("Option", 1, move.Field{Name: "vec", Type: move.Vector(move.TypeParameter(0))}),
	}
}

// FrameworkModules returns the builders of the framework modules. The url module depends on the standard library.
func FrameworkModules() []*move.Builder {
	return []*move.Builder{
		move.NewBuilder(FrameworkPackageID, "object").
			AddStruct("ID", 0, move.Field{Name: "bytes", Type: move.Address()}).
			AddStruct("UID", 0, move.Field{Name: "id", Type: move.Struct(FrameworkPackageID, "object", "ID")}),
		move.NewBuilder(FrameworkPackageID, "balance").
			AddStruct("Balance", 1, move.Field{Name: "value", Type: move.U64()}),
		move.NewBuilder(FrameworkPackageID, "coin").
			AddStruct("Coin", 1,
				move.Field{Name: "id", Type: move.Struct(FrameworkPackageID, "object", "UID")},
				move.Field{Name: "balance", Type: move.Struct(FrameworkPackageID, "balance", "Balance", move.TypeParameter(0))},
			),
		move.NewBuilder(FrameworkPackageID, "sui").
			AddStruct("SUI", 0, move.Field{Name: "dummy_field", Type: move.Bool()}),
		move.NewBuilder(FrameworkPackageID, "url").
			AddStruct("Url", 0, move.Field{Name: "url", Type: move.Struct(StdPackageID, "ascii", "String")}),
		move.NewBuilder(FrameworkPackageID, "transfer"),
	}
}

// NewPackage builds a package object from module builders.
func NewPackage(id types.ObjectID, previousTransaction types.TransactionDigest, builders ...*move.Builder) (*types.Object, error) {
	modules := make(map[string][]byte, len(builders))
	for _, builder := range builders {
		module, err := builder.Build()
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to build module of package %s", id)
		}
		if modules[module.Self().Name], err = module.Bytes(); err != nil {
			return nil, ierrors.Wrapf(err, "failed to serialize module %s", module.Self())
		}
	}

	return types.NewPackageObject(id, modules, previousTransaction), nil
}

// GasCoinContents encodes the contents of a coin: its id followed by the balance.
func GasCoinContents(id types.ObjectID, balance uint64) []byte {
	return move.EncodeU64(append([]byte{}, id[:]...), balance)
}

// GasCoinBalance reads the balance of a coin.
func GasCoinBalance(object *types.Object) (uint64, error) {
	if object.Data.Move == nil || !object.Data.Move.Type.Equal(GasCoinType) {
		return 0, ierrors.Errorf("object %s is not a gas coin", object.ID())
	}

	return balanceFromContents(object.Data.Move.Contents)
}

func balanceFromContents(contents []byte) (uint64, error) {
	if len(contents) != types.ObjectIDLength+8 {
		return 0, ierrors.Wrapf(types.ErrDecode, "invalid coin contents length %d", len(contents))
	}

	return binary.LittleEndian.Uint64(contents[types.ObjectIDLength:]), nil
}

// NewGasCoin creates a gas coin owned by the address.
func NewGasCoin(id types.ObjectID, balance uint64, owner types.SuiAddress, version types.SequenceNumber, previousTransaction types.TransactionDigest) *types.Object {
	return types.NewMoveObject(GasCoinType, GasCoinContents(id, balance), types.AddressOwner(owner), version, previousTransaction)
}

// DeriveObjectID returns the id of the index-th object created by a transaction.
func DeriveObjectID(digest types.TransactionDigest, index uint64) types.ObjectID {
	return blake2b.Sum256(binary.LittleEndian.AppendUint64(append([]byte{}, digest[:]...), index))
}

// genesisObjects returns the packages and gas coins the state starts with.
func genesisObjects(accounts []GenesisAccount) ([]*types.Object, error) {
	std, err := NewPackage(StdPackageID, types.EmptyTransactionDigest, StdModules()...)
	if err != nil {
		return nil, err
	}

	framework, err := NewPackage(FrameworkPackageID, types.EmptyTransactionDigest, FrameworkModules()...)
	if err != nil {
		return nil, err
	}

	objects := []*types.Object{std, framework}

	var index uint64
	for _, account := range accounts {
		for _, balance := range account.GasCoins {
			objects = append(objects, NewGasCoin(DeriveObjectID(types.EmptyTransactionDigest, index), balance, account.Address, 1, types.EmptyTransactionDigest))
			index++
		}
	}

	return objects, nil
}
