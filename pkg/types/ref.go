package types

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
	"github.com/iotaledger/hive.go/stringify"
)

// ObjectRefLength is the serialized length of an ObjectRef.
const ObjectRefLength = ObjectIDLength + SequenceNumberLength + DigestLength

// ObjectRef identifies an exact historical state of an object. Two refs are equal only if the versions match.
type ObjectRef struct {
	ObjectID ObjectID       `json:"objectId"`
	Version  SequenceNumber `json:"version"`
	Digest   ObjectDigest   `json:"digest"`
}

// NewDeletedRef returns the ref recorded for an object deleted at the given version.
func NewDeletedRef(id ObjectID, version SequenceNumber) ObjectRef {
	return ObjectRef{ObjectID: id, Version: version, Digest: ObjectDigestDeleted}
}

// IsDeleted returns true if the ref describes a deleted object.
func (r ObjectRef) IsDeleted() bool {
	return r.Digest.IsDeleted()
}

func (r ObjectRef) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer(ObjectRefLength)

	if err := stream.Write(byteBuffer, r.ObjectID); err != nil {
		return nil, ierrors.Wrap(err, "failed to write object id")
	}
	if err := stream.Write(byteBuffer, r.Version); err != nil {
		return nil, ierrors.Wrap(err, "failed to write version")
	}
	if err := stream.Write(byteBuffer, r.Digest); err != nil {
		return nil, ierrors.Wrap(err, "failed to write digest")
	}

	return byteBuffer.Bytes()
}

// ObjectRefFromBytes decodes an ObjectRef.
func ObjectRefFromBytes(b []byte) (ObjectRef, int, error) {
	byteReader := stream.NewByteReader(b)

	var (
		ref ObjectRef
		err error
	)
	if ref.ObjectID, err = stream.Read[ObjectID](byteReader); err != nil {
		return ref, 0, ierrors.Wrapf(ErrDecode, "failed to read object id: %s", err)
	}
	if ref.Version, err = stream.Read[SequenceNumber](byteReader); err != nil {
		return ref, 0, ierrors.Wrapf(ErrDecode, "failed to read version: %s", err)
	}
	if ref.Digest, err = stream.Read[ObjectDigest](byteReader); err != nil {
		return ref, 0, ierrors.Wrapf(ErrDecode, "failed to read digest: %s", err)
	}

	return ref, byteReader.BytesRead(), nil
}

func (r ObjectRef) String() string {
	return stringify.Struct("ObjectRef",
		stringify.NewStructField("ObjectID", r.ObjectID),
		stringify.NewStructField("Version", uint64(r.Version)),
		stringify.NewStructField("Digest", r.Digest.String()),
	)
}

// OwnerKind describes who may use an object.
type OwnerKind uint8

const (
	OwnerAddress OwnerKind = iota
	OwnerObject
	OwnerShared
	OwnerImmutable
)

var ownerKindNames = map[OwnerKind]string{
	OwnerAddress:   "AddressOwner",
	OwnerObject:    "ObjectOwner",
	OwnerShared:    "Shared",
	OwnerImmutable: "Immutable",
}

func (k OwnerKind) String() string {
	if name, exists := ownerKindNames[k]; exists {
		return name
	}

	return "Unknown"
}

// Owner is the ownership of an object. Address is only meaningful for address and object owners.
type Owner struct {
	Kind    OwnerKind  `json:"kind"`
	Address SuiAddress `json:"address,omitempty"`
}

// AddressOwner returns an owner for the given account.
func AddressOwner(addr SuiAddress) Owner {
	return Owner{Kind: OwnerAddress, Address: addr}
}

// ObjectOwner returns an owner for an object owned by another object.
func ObjectOwner(id ObjectID) Owner {
	return Owner{Kind: OwnerObject, Address: AddressFromObjectID(id)}
}

// ImmutableOwner is the owner of packages and frozen objects.
func ImmutableOwner() Owner {
	return Owner{Kind: OwnerImmutable}
}

// OwnedBy returns true if the owner is the given address or object address.
func (o Owner) OwnedBy(addr SuiAddress) bool {
	return (o.Kind == OwnerAddress || o.Kind == OwnerObject) && o.Address == addr
}

func (o Owner) String() string {
	if o.Kind == OwnerAddress || o.Kind == OwnerObject {
		return o.Kind.String() + "(" + o.Address.ToHex() + ")"
	}

	return o.Kind.String()
}
