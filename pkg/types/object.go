package types

import (
	"io"
	"sort"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
	"github.com/iotaledger/hive.go/stringify"
)

// DataKind tells whether an object holds a Move value or a package.
type DataKind uint8

const (
	DataMoveObject DataKind = iota
	DataPackage
)

func (k DataKind) String() string {
	switch k {
	case DataMoveObject:
		return "MoveObject"
	case DataPackage:
		return "Package"
	default:
		return "Unknown"
	}
}

// MoveObject is a typed value. The first ObjectIDLength bytes of Contents are the object's id.
type MoveObject struct {
	Type              StructTag `json:"type"`
	HasPublicTransfer bool      `json:"hasPublicTransfer"`
	Contents          []byte    `json:"contents"`
}

// ID reads the object id from the contents.
func (m *MoveObject) ID() ObjectID {
	id, _, err := ObjectIDFromBytes(m.Contents)
	if err != nil {
		return EmptyObjectID
	}

	return id
}

// MovePackage is an immutable map from module name to serialized module.
type MovePackage struct {
	ID      ObjectID          `json:"id"`
	Modules map[string][]byte `json:"modules"`
}

// ModuleNames returns the module names in lexical order.
func (p *MovePackage) ModuleNames() []string {
	names := lo.Keys(p.Modules)
	sort.Strings(names)

	return names
}

// Data holds exactly one of Move or Package.
type Data struct {
	Move    *MoveObject  `json:"move,omitempty"`
	Package *MovePackage `json:"package,omitempty"`
}

// Kind returns the variant held by the data.
func (d Data) Kind() DataKind {
	if d.Package != nil {
		return DataPackage
	}

	return DataMoveObject
}

// Object is a unit of ledger state.
type Object struct {
	Data                Data              `json:"data"`
	Owner               Owner             `json:"owner"`
	PreviousTransaction TransactionDigest `json:"previousTransaction"`
	Version             SequenceNumber    `json:"version"`
}

// NewMoveObject creates an object holding a Move value.
func NewMoveObject(objectType StructTag, contents []byte, owner Owner, version SequenceNumber, previousTransaction TransactionDigest) *Object {
	return &Object{
		Data: Data{Move: &MoveObject{
			Type:              objectType,
			HasPublicTransfer: true,
			Contents:          contents,
		}},
		Owner:               owner,
		PreviousTransaction: previousTransaction,
		Version:             version,
	}
}

// NewPackageObject creates an immutable package object.
func NewPackageObject(id ObjectID, modules map[string][]byte, previousTransaction TransactionDigest) *Object {
	return &Object{
		Data:                Data{Package: &MovePackage{ID: id, Modules: modules}},
		Owner:               ImmutableOwner(),
		PreviousTransaction: previousTransaction,
		Version:             1,
	}
}

// ID returns the id of the object or package.
func (o *Object) ID() ObjectID {
	if o.Data.Package != nil {
		return o.Data.Package.ID
	}
	if o.Data.Move != nil {
		return o.Data.Move.ID()
	}

	return EmptyObjectID
}

// IsPackage returns true if the object holds code.
func (o *Object) IsPackage() bool {
	return o.Data.Package != nil
}

// Type returns the Move type of a value, or nil for packages.
func (o *Object) Type() *StructTag {
	if o.Data.Move == nil {
		return nil
	}

	return &o.Data.Move.Type
}

// Digest hashes the binary encoding of the object.
func (o *Object) Digest() ObjectDigest {
	return NewObjectDigest(lo.PanicOnErr(o.Bytes()))
}

// Ref returns the reference of the object's current state.
func (o *Object) Ref() ObjectRef {
	return ObjectRef{ObjectID: o.ID(), Version: o.Version, Digest: o.Digest()}
}

// Clone returns a deep copy of the object.
func (o *Object) Clone() *Object {
	clone := &Object{Owner: o.Owner, PreviousTransaction: o.PreviousTransaction, Version: o.Version}
	if o.Data.Move != nil {
		clone.Data.Move = &MoveObject{
			Type:              o.Data.Move.Type,
			HasPublicTransfer: o.Data.Move.HasPublicTransfer,
			Contents:          lo.CopySlice(o.Data.Move.Contents),
		}
	}
	if o.Data.Package != nil {
		modules := make(map[string][]byte, len(o.Data.Package.Modules))
		for name, module := range o.Data.Package.Modules {
			modules[name] = lo.CopySlice(module)
		}
		clone.Data.Package = &MovePackage{ID: o.Data.Package.ID, Modules: modules}
	}

	return clone
}

func (o *Object) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, o.Data.Kind()); err != nil {
		return nil, ierrors.Wrap(err, "failed to write data kind")
	}

	switch {
	case o.Data.Package != nil:
		if err := writePackage(byteBuffer, o.Data.Package); err != nil {
			return nil, err
		}
	case o.Data.Move != nil:
		if err := writeMoveObject(byteBuffer, o.Data.Move); err != nil {
			return nil, err
		}
	default:
		return nil, ierrors.New("object without data")
	}

	if err := stream.Write(byteBuffer, o.Owner.Kind); err != nil {
		return nil, ierrors.Wrap(err, "failed to write owner kind")
	}
	if err := stream.Write(byteBuffer, o.Owner.Address); err != nil {
		return nil, ierrors.Wrap(err, "failed to write owner address")
	}
	if err := stream.Write(byteBuffer, o.PreviousTransaction); err != nil {
		return nil, ierrors.Wrap(err, "failed to write previous transaction")
	}
	if err := stream.Write(byteBuffer, o.Version); err != nil {
		return nil, ierrors.Wrap(err, "failed to write version")
	}

	return byteBuffer.Bytes()
}

// ObjectFromBytes decodes an object. Malformed input wraps ErrDecode.
func ObjectFromBytes(b []byte) (*Object, int, error) {
	byteReader := stream.NewByteReader(b)
	o := new(Object)

	kind, err := stream.Read[DataKind](byteReader)
	if err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read data kind: %s", err)
	}

	switch kind {
	case DataPackage:
		if o.Data.Package, err = readPackage(byteReader); err != nil {
			return nil, 0, err
		}
	case DataMoveObject:
		if o.Data.Move, err = readMoveObject(byteReader); err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, ierrors.Wrapf(ErrDecode, "unknown data kind %d", kind)
	}

	if o.Owner.Kind, err = stream.Read[OwnerKind](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read owner kind: %s", err)
	}
	if o.Owner.Address, err = stream.Read[SuiAddress](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read owner address: %s", err)
	}
	if o.PreviousTransaction, err = stream.Read[TransactionDigest](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read previous transaction: %s", err)
	}
	if o.Version, err = stream.Read[SequenceNumber](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read version: %s", err)
	}

	return o, byteReader.BytesRead(), nil
}

func (o *Object) String() string {
	builder := stringify.NewStructBuilder("Object")
	builder.AddField(stringify.NewStructField("ID", o.ID()))
	builder.AddField(stringify.NewStructField("Version", uint64(o.Version)))
	builder.AddField(stringify.NewStructField("Owner", o.Owner.String()))
	if o.Data.Move != nil {
		builder.AddField(stringify.NewStructField("Type", o.Data.Move.Type.String()))
	}
	if o.Data.Package != nil {
		builder.AddField(stringify.NewStructField("Modules", o.Data.Package.ModuleNames()))
	}

	return builder.String()
}

func writeMoveObject(writer io.WriteSeeker, m *MoveObject) error {
	if len(m.Contents) < ObjectIDLength {
		return ierrors.Errorf("move object contents too short: %d", len(m.Contents))
	}
	if err := WriteStructTag(writer, m.Type); err != nil {
		return err
	}
	if err := stream.Write(writer, m.HasPublicTransfer); err != nil {
		return ierrors.Wrap(err, "failed to write public transfer flag")
	}
	if err := stream.WriteBytesWithSize(writer, m.Contents, serializer.SeriLengthPrefixTypeAsUint32); err != nil {
		return ierrors.Wrap(err, "failed to write contents")
	}

	return nil
}

func readMoveObject(reader io.ReadSeeker) (*MoveObject, error) {
	var (
		m   = new(MoveObject)
		err error
	)

	if m.Type, err = ReadStructTag(reader); err != nil {
		return nil, err
	}
	if m.HasPublicTransfer, err = stream.Read[bool](reader); err != nil {
		return nil, ierrors.Wrapf(ErrDecode, "failed to read public transfer flag: %s", err)
	}
	if m.Contents, err = stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsUint32); err != nil {
		return nil, ierrors.Wrapf(ErrDecode, "failed to read contents: %s", err)
	}
	if len(m.Contents) < ObjectIDLength {
		return nil, ierrors.Wrapf(ErrDecode, "move object contents too short: %d", len(m.Contents))
	}

	return m, nil
}

func writePackage(writer io.WriteSeeker, p *MovePackage) error {
	if err := stream.Write(writer, p.ID); err != nil {
		return ierrors.Wrap(err, "failed to write package id")
	}

	names := p.ModuleNames()

	return stream.WriteCollection(writer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, name := range names {
			if err := stream.WriteBytesWithSize(writer, []byte(name), serializer.SeriLengthPrefixTypeAsByte); err != nil {
				return 0, ierrors.Wrapf(err, "failed to write module name %s", name)
			}
			if err := stream.WriteBytesWithSize(writer, p.Modules[name], serializer.SeriLengthPrefixTypeAsUint32); err != nil {
				return 0, ierrors.Wrapf(err, "failed to write module %s", name)
			}
		}

		return len(names), nil
	})
}

func readPackage(reader io.ReadSeeker) (*MovePackage, error) {
	id, err := stream.Read[ObjectID](reader)
	if err != nil {
		return nil, ierrors.Wrapf(ErrDecode, "failed to read package id: %s", err)
	}

	p := &MovePackage{ID: id, Modules: make(map[string][]byte)}
	if err := stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		name, err := stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsByte)
		if err != nil {
			return ierrors.Wrapf(err, "failed to read module name %d", i)
		}
		module, err := stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsUint32)
		if err != nil {
			return ierrors.Wrapf(err, "failed to read module %s", name)
		}
		p.Modules[string(name)] = module

		return nil
	}); err != nil {
		return nil, ierrors.Wrapf(ErrDecode, "failed to read modules: %s", err)
	}

	return p, nil
}
