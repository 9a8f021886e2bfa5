package tpkg

import (
	"crypto/rand"

	"github.com/iotaledger/hive.go/lo"
	"github.com/ferat8/sui/pkg/types"
)

// RandBytes returns length random bytes.
func RandBytes(length int) []byte {
	b := make([]byte, length)
	lo.PanicOnErr(rand.Read(b))

	return b
}

func RandObjectID() types.ObjectID {
	var id types.ObjectID
	copy(id[:], RandBytes(types.ObjectIDLength))

	return id
}

func RandAddress() types.SuiAddress {
	var addr types.SuiAddress
	copy(addr[:], RandBytes(types.AddressLength))

	return addr
}

func RandObjectDigest() types.ObjectDigest {
	var d types.ObjectDigest
	copy(d[:], RandBytes(types.DigestLength))

	return d
}

func RandTransactionDigest() types.TransactionDigest {
	var d types.TransactionDigest
	copy(d[:], RandBytes(types.DigestLength))

	return d
}

func RandObjectRef() types.ObjectRef {
	return types.ObjectRef{ObjectID: RandObjectID(), Version: 1, Digest: RandObjectDigest()}
}

// MoveContents returns contents starting with id followed by the given payload.
func MoveContents(id types.ObjectID, payload ...byte) []byte {
	return append(lo.CopySlice(id[:]), payload...)
}

// RandMoveObject returns an address owned Move value of the given type.
func RandMoveObject(objectType types.StructTag, owner types.SuiAddress) *types.Object {
	return types.NewMoveObject(objectType, MoveContents(RandObjectID(), RandBytes(8)...), types.AddressOwner(owner), 1, RandTransactionDigest())
}
