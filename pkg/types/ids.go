package types

import (
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/iota.go/v4/hexutil"
)

const (
	// ObjectIDLength is the length of an ObjectID in bytes.
	ObjectIDLength = 32
	// AddressLength is the length of a SuiAddress in bytes.
	AddressLength = ObjectIDLength
	// DigestLength is the length of object and transaction digests in bytes.
	DigestLength = blake2b.Size256
	// SequenceNumberLength is the serialized length of a SequenceNumber.
	SequenceNumberLength = 8
)

// ObjectID identifies objects and packages, both live in the same id space.
type ObjectID [ObjectIDLength]byte

// EmptyObjectID is the zero value of an ObjectID.
var EmptyObjectID ObjectID

// ObjectIDFromHex parses a 0x prefixed hex string. Short forms like "0x2" are left padded.
func ObjectIDFromHex(s string) (ObjectID, error) {
	b, err := decodePaddedHex(s, ObjectIDLength)
	if err != nil {
		return EmptyObjectID, ierrors.Wrapf(ErrDecode, "invalid object id %q: %s", s, err)
	}

	var id ObjectID
	copy(id[:], b)

	return id, nil
}

// MustObjectIDFromHex is like ObjectIDFromHex but panics on error.
func MustObjectIDFromHex(s string) ObjectID {
	id, err := ObjectIDFromHex(s)
	if err != nil {
		panic(err)
	}

	return id
}

// ObjectIDFromBytes reads an ObjectID from the given bytes and returns the number of consumed bytes.
func ObjectIDFromBytes(b []byte) (ObjectID, int, error) {
	var id ObjectID
	if len(b) < ObjectIDLength {
		return id, 0, ierrors.Wrapf(ErrDecode, "not enough bytes for object id: %d", len(b))
	}
	copy(id[:], b)

	return id, ObjectIDLength, nil
}

func (id ObjectID) Bytes() ([]byte, error) {
	return id[:], nil
}

// ToHex returns the full length 0x prefixed hex representation.
func (id ObjectID) ToHex() string {
	return hexutil.EncodeHex(id[:])
}

func (id ObjectID) String() string {
	return id.ToHex()
}

// Empty returns true if the id is all zeros.
func (id ObjectID) Empty() bool {
	return id == EmptyObjectID
}

func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.ToHex()), nil
}

func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ObjectIDFromHex(string(text))
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}

// SuiAddress identifies an account. It shares the byte layout of ObjectID so objects can own objects.
type SuiAddress [AddressLength]byte

// EmptyAddress is the zero value of a SuiAddress.
var EmptyAddress SuiAddress

// AddressFromHex parses a 0x prefixed hex string.
func AddressFromHex(s string) (SuiAddress, error) {
	b, err := decodePaddedHex(s, AddressLength)
	if err != nil {
		return EmptyAddress, ierrors.Wrapf(ErrDecode, "invalid address %q: %s", s, err)
	}

	var addr SuiAddress
	copy(addr[:], b)

	return addr, nil
}

// AddressFromObjectID reinterprets an object id as an owner address.
func AddressFromObjectID(id ObjectID) SuiAddress {
	return SuiAddress(id)
}

func (a SuiAddress) Bytes() ([]byte, error) {
	return a[:], nil
}

func (a SuiAddress) ToHex() string {
	return hexutil.EncodeHex(a[:])
}

func (a SuiAddress) String() string {
	return a.ToHex()
}

func (a SuiAddress) MarshalText() ([]byte, error) {
	return []byte(a.ToHex()), nil
}

func (a *SuiAddress) UnmarshalText(text []byte) error {
	parsed, err := AddressFromHex(string(text))
	if err != nil {
		return err
	}
	*a = parsed

	return nil
}

// SequenceNumber is the version of an object.
type SequenceNumber uint64

// Next returns the successor version.
func (s SequenceNumber) Next() SequenceNumber {
	return s + 1
}

// ObjectDigest is the blake2b-256 hash of an object's serialized form.
type ObjectDigest [DigestLength]byte

// ObjectDigestDeleted marks refs of deleted objects.
var ObjectDigestDeleted = func() (d ObjectDigest) {
	for i := range d {
		d[i] = 99
	}

	return d
}()

// NewObjectDigest hashes the given bytes.
func NewObjectDigest(data []byte) ObjectDigest {
	return blake2b.Sum256(data)
}

// IsDeleted returns true for the digest used by refs of deleted objects.
func (d ObjectDigest) IsDeleted() bool {
	return d == ObjectDigestDeleted
}

func (d ObjectDigest) String() string {
	return base58.Encode(d[:])
}

func (d ObjectDigest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *ObjectDigest) UnmarshalText(text []byte) error {
	b, err := decodeDigest(string(text))
	if err != nil {
		return err
	}
	copy(d[:], b)

	return nil
}

// TransactionDigest is the blake2b-256 hash of a transaction's signed data.
type TransactionDigest [DigestLength]byte

// EmptyTransactionDigest is used as previous transaction of genesis objects.
var EmptyTransactionDigest TransactionDigest

// NewTransactionDigest hashes the given bytes.
func NewTransactionDigest(data []byte) TransactionDigest {
	return blake2b.Sum256(data)
}

// TransactionDigestFromString parses the base58 representation.
func TransactionDigestFromString(s string) (TransactionDigest, error) {
	var d TransactionDigest
	b, err := decodeDigest(s)
	if err != nil {
		return d, err
	}
	copy(d[:], b)

	return d, nil
}

// TransactionDigestFromBytes reads a digest from raw bytes.
func TransactionDigestFromBytes(b []byte) (TransactionDigest, int, error) {
	var d TransactionDigest
	if len(b) < DigestLength {
		return d, 0, ierrors.Wrapf(ErrDecode, "not enough bytes for transaction digest: %d", len(b))
	}
	copy(d[:], b)

	return d, DigestLength, nil
}

func (d TransactionDigest) Bytes() ([]byte, error) {
	return d[:], nil
}

func (d TransactionDigest) String() string {
	return base58.Encode(d[:])
}

func (d TransactionDigest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *TransactionDigest) UnmarshalText(text []byte) error {
	parsed, err := TransactionDigestFromString(string(text))
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

func decodeDigest(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, ierrors.Wrapf(ErrDecode, "invalid digest %q: %s", s, err)
	}
	if len(b) != DigestLength {
		return nil, ierrors.Wrapf(ErrDecode, "invalid digest length %d", len(b))
	}

	return b, nil
}

func decodePaddedHex(s string, length int) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(trimmed) == 0 || len(trimmed) > 2*length {
		return nil, ierrors.Errorf("expected up to %d hex characters", 2*length)
	}

	b, err := hexutil.DecodeHex("0x" + strings.Repeat("0", 2*length-len(trimmed)) + trimmed)
	if err != nil {
		return nil, err
	}

	return b, nil
}
