package types

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/stringify"
)

// ObjectStatus tags the variant held by a RawObject.
type ObjectStatus uint8

const (
	StatusExists ObjectStatus = iota
	StatusNotExists
	StatusDeleted
)

func (s ObjectStatus) String() string {
	switch s {
	case StatusExists:
		return "Exists"
	case StatusNotExists:
		return "NotExists"
	case StatusDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

func (s ObjectStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ObjectStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Exists":
		*s = StatusExists
	case "NotExists":
		*s = StatusNotExists
	case "Deleted":
		*s = StatusDeleted
	default:
		return ierrors.Wrapf(ErrDecode, "unknown object status %q", text)
	}

	return nil
}

// RawObject is the backend's answer to an object read: Exists(Object), NotExists(ObjectID) or Deleted(ObjectRef).
// Instances are never mutated after construction.
type RawObject struct {
	Status   ObjectStatus `json:"status"`
	Object   *Object      `json:"object,omitempty"`
	ObjectID ObjectID     `json:"objectId"`
	Ref      *ObjectRef   `json:"ref,omitempty"`
}

// NewExistingRawObject wraps an existing object.
func NewExistingRawObject(object *Object) *RawObject {
	return &RawObject{Status: StatusExists, Object: object, ObjectID: object.ID()}
}

// NewNotExistsRawObject returns the answer for an unknown id.
func NewNotExistsRawObject(id ObjectID) *RawObject {
	return &RawObject{Status: StatusNotExists, ObjectID: id}
}

// NewDeletedRawObject returns the answer for an object deleted at ref.
func NewDeletedRawObject(ref ObjectRef) *RawObject {
	return &RawObject{Status: StatusDeleted, ObjectID: ref.ObjectID, Ref: &ref}
}

// ID returns the object id the answer is about.
func (r *RawObject) ID() ObjectID {
	return r.ObjectID
}

// Exists returns true for the Exists variant.
func (r *RawObject) Exists() bool {
	return r.Status == StatusExists && r.Object != nil
}

// IntoObject returns the contained object or an ErrDecode for the other variants.
func (r *RawObject) IntoObject() (*Object, error) {
	switch r.Status {
	case StatusExists:
		if r.Object == nil {
			return nil, ierrors.Wrapf(ErrDecode, "object %s: exists without contents", r.ObjectID)
		}

		return r.Object, nil
	case StatusNotExists:
		return nil, ierrors.Wrapf(ErrDecode, "object %s does not exist", r.ObjectID)
	case StatusDeleted:
		return nil, ierrors.Wrapf(ErrDecode, "object %s is deleted", r.ObjectID)
	default:
		return nil, ierrors.Wrapf(ErrDecode, "object %s has unknown status %d", r.ObjectID, r.Status)
	}
}

// CurrentRef returns the ref describing the answer, false for NotExists.
func (r *RawObject) CurrentRef() (ObjectRef, bool) {
	switch r.Status {
	case StatusExists:
		if r.Object == nil {
			return ObjectRef{}, false
		}

		return r.Object.Ref(), true
	case StatusDeleted:
		if r.Ref == nil {
			return ObjectRef{}, false
		}

		return *r.Ref, true
	default:
		return ObjectRef{}, false
	}
}

// Validate checks that exactly one variant is populated and consistent with the id.
func (r *RawObject) Validate() error {
	switch r.Status {
	case StatusExists:
		if r.Object == nil {
			return ierrors.Wrapf(ErrDecode, "object %s: exists without contents", r.ObjectID)
		}
		if r.Object.Data.Move == nil && r.Object.Data.Package == nil {
			return ierrors.Wrapf(ErrDecode, "object %s: no data", r.ObjectID)
		}
		if r.Object.Data.Move != nil && r.Object.Data.Package != nil {
			return ierrors.Wrapf(ErrDecode, "object %s: both move value and package", r.ObjectID)
		}
		if r.Object.Data.Move != nil && len(r.Object.Data.Move.Contents) < ObjectIDLength {
			return ierrors.Wrapf(ErrDecode, "object %s: contents too short", r.ObjectID)
		}
		if id := r.Object.ID(); id != r.ObjectID {
			return ierrors.Wrapf(ErrDecode, "object %s: contents carry id %s", r.ObjectID, id)
		}
	case StatusNotExists:
		if r.Object != nil || r.Ref != nil {
			return ierrors.Wrapf(ErrDecode, "object %s: not-exists answer carries data", r.ObjectID)
		}
	case StatusDeleted:
		if r.Ref == nil || r.Ref.ObjectID != r.ObjectID {
			return ierrors.Wrapf(ErrDecode, "object %s: deleted answer without matching ref", r.ObjectID)
		}
	default:
		return ierrors.Wrapf(ErrDecode, "object %s: unknown status %d", r.ObjectID, r.Status)
	}

	return nil
}

func (r *RawObject) String() string {
	builder := stringify.NewStructBuilder("RawObject", stringify.NewStructField("Status", r.Status.String()))
	builder.AddField(stringify.NewStructField("ObjectID", r.ObjectID))
	if r.Object != nil {
		builder.AddField(stringify.NewStructField("Object", r.Object.String()))
	}
	if r.Ref != nil {
		builder.AddField(stringify.NewStructField("Ref", r.Ref.String()))
	}

	return builder.String()
}

// ObjectInfo is the summary returned by owner queries.
type ObjectInfo struct {
	ObjectID            ObjectID          `json:"objectId"`
	Version             SequenceNumber    `json:"version"`
	Digest              ObjectDigest      `json:"digest"`
	Type                string            `json:"type"`
	Owner               Owner             `json:"owner"`
	PreviousTransaction TransactionDigest `json:"previousTransaction"`
}

// NewObjectInfo summarises an object.
func NewObjectInfo(object *Object) *ObjectInfo {
	ref := object.Ref()
	objectType := "package"
	if t := object.Type(); t != nil {
		objectType = t.String()
	}

	return &ObjectInfo{
		ObjectID:            ref.ObjectID,
		Version:             ref.Version,
		Digest:              ref.Digest,
		Type:                objectType,
		Owner:               object.Owner,
		PreviousTransaction: object.PreviousTransaction,
	}
}

// Ref returns the ref the summary describes.
func (i *ObjectInfo) Ref() ObjectRef {
	return ObjectRef{ObjectID: i.ObjectID, Version: i.Version, Digest: i.Digest}
}
