package client

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

// TypedObject is a raw object with the layout of its Move value. Layout is nil for packages and for objects
// that do not exist.
type TypedObject struct {
	Raw    *types.RawObject
	Layout *move.StructLayout
}

// Decode decodes the contents of the Move value with its layout.
func (o *TypedObject) Decode() (*move.MoveStruct, error) {
	if o.Layout == nil || !o.Raw.Exists() || o.Raw.Object.Data.Move == nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "object %s (%s) has no move value", o.Raw.ID(), o.Raw.Status)
	}

	return move.DecodeStruct(o.Layout, o.Raw.Object.Data.Move.Contents)
}

func (o *TypedObject) String() string {
	builder := stringify.NewStructBuilder("TypedObject")
	builder.AddField(stringify.NewStructField("Raw", o.Raw.String()))
	if o.Layout != nil {
		builder.AddField(stringify.NewStructField("Layout", o.Layout.String()))
	}

	return builder.String()
}
