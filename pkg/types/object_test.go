package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferat8/sui/pkg/types"
	"github.com/ferat8/sui/pkg/types/tpkg"
)

func TestObjectBytes(t *testing.T) {
	coinType, err := types.ParseStructTag("0x2::coin::Coin<0x2::sui::SUI>")
	require.NoError(t, err)

	object := tpkg.RandMoveObject(coinType, tpkg.RandAddress())
	b, err := object.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := types.ObjectFromBytes(b)
	require.NoError(t, err)
	require.Equal(t, len(b), consumed)
	require.Equal(t, object.Ref(), decoded.Ref())
	require.Equal(t, object.ID(), decoded.ID())

	pkg := types.NewPackageObject(tpkg.RandObjectID(), map[string][]byte{"b": {1}, "a": {2, 3}}, types.EmptyTransactionDigest)
	b, err = pkg.Bytes()
	require.NoError(t, err)

	decoded, _, err = types.ObjectFromBytes(b)
	require.NoError(t, err)
	require.True(t, decoded.IsPackage())
	require.Equal(t, []string{"a", "b"}, decoded.Data.Package.ModuleNames())
	require.Equal(t, pkg.Digest(), decoded.Digest())
}

func TestObjectDigestChangesWithVersion(t *testing.T) {
	object := tpkg.RandMoveObject(types.StructTag{Address: tpkg.RandObjectID(), Module: "m", Name: "S"}, tpkg.RandAddress())
	next := object.Clone()
	next.Version = next.Version.Next()

	require.Equal(t, object.ID(), next.ID())
	require.NotEqual(t, object.Ref(), next.Ref())
	require.NotEqual(t, object.Digest(), next.Digest())
}

func TestRawObjectVariants(t *testing.T) {
	object := tpkg.RandMoveObject(types.StructTag{Address: tpkg.RandObjectID(), Module: "m", Name: "S"}, tpkg.RandAddress())

	exists := types.NewExistingRawObject(object)
	require.NoError(t, exists.Validate())
	got, err := exists.IntoObject()
	require.NoError(t, err)
	require.Same(t, object, got)

	notExists := types.NewNotExistsRawObject(object.ID())
	require.NoError(t, notExists.Validate())
	_, err = notExists.IntoObject()
	require.ErrorIs(t, err, types.ErrDecode)
	_, hasRef := notExists.CurrentRef()
	require.False(t, hasRef)

	deleted := types.NewDeletedRawObject(types.NewDeletedRef(object.ID(), 2))
	require.NoError(t, deleted.Validate())
	_, err = deleted.IntoObject()
	require.ErrorIs(t, err, types.ErrDecode)
	ref, hasRef := deleted.CurrentRef()
	require.True(t, hasRef)
	require.True(t, ref.IsDeleted())

	mismatched := &types.RawObject{Status: types.StatusExists, Object: object, ObjectID: tpkg.RandObjectID()}
	require.ErrorIs(t, mismatched.Validate(), types.ErrDecode)
}

func TestRawObjectJSON(t *testing.T) {
	coinType, err := types.ParseStructTag("0x2::coin::Coin<0x2::sui::SUI>")
	require.NoError(t, err)
	raw := types.NewExistingRawObject(tpkg.RandMoveObject(coinType, tpkg.RandAddress()))

	b, err := json.Marshal(raw)
	require.NoError(t, err)

	var decoded types.RawObject
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.NoError(t, decoded.Validate())
	require.Equal(t, raw.Object.Ref(), decoded.Object.Ref())
	require.Equal(t, coinType.String(), decoded.Object.Data.Move.Type.String())
}

func TestObjectIDFromHex(t *testing.T) {
	id, err := types.ObjectIDFromHex("0x2")
	require.NoError(t, err)
	require.Equal(t, byte(2), id[types.ObjectIDLength-1])
	require.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000002", id.ToHex())

	_, err = types.ObjectIDFromHex("0x")
	require.ErrorIs(t, err, types.ErrDecode)
}
