package types

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

// SignatureScheme is the flag byte prepended to public keys when deriving addresses.
type SignatureScheme uint8

const (
	SchemeED25519 SignatureScheme = 0x00
)

func (s SignatureScheme) String() string {
	if s == SchemeED25519 {
		return "ED25519"
	}

	return "Unknown"
}

// TransactionKindType selects the operation a transaction performs.
type TransactionKindType uint8

const (
	KindTransferObject TransactionKindType = iota
	KindSplitCoin
	KindMergeCoins
	KindPublish
)

var transactionKindNames = map[TransactionKindType]string{
	KindTransferObject: "TransferObject",
	KindSplitCoin:      "SplitCoin",
	KindMergeCoins:     "MergeCoins",
	KindPublish:        "Publish",
}

func (k TransactionKindType) String() string {
	if name, exists := transactionKindNames[k]; exists {
		return name
	}

	return "Unknown"
}

// TransferObject moves an owned object to a new owner.
type TransferObject struct {
	Object    ObjectRef  `json:"object"`
	Recipient SuiAddress `json:"recipient"`
}

// SplitCoin creates new coins carved out of an existing coin's balance.
type SplitCoin struct {
	Coin    ObjectRef `json:"coin"`
	Amounts []uint64  `json:"amounts"`
}

// MergeCoins adds the balance of Coin to Primary and deletes Coin.
type MergeCoins struct {
	Primary ObjectRef `json:"primary"`
	Coin    ObjectRef `json:"coin"`
}

// Publish stores a new package built from serialized modules.
type Publish struct {
	Modules [][]byte `json:"modules"`
}

// TransactionKind holds the single operation selected by Type.
type TransactionKind struct {
	Type     TransactionKindType `json:"type"`
	Transfer *TransferObject     `json:"transfer,omitempty"`
	Split    *SplitCoin          `json:"split,omitempty"`
	Merge    *MergeCoins         `json:"merge,omitempty"`
	Publish  *Publish            `json:"publish,omitempty"`
}

// InputObjects returns the refs of owned objects the kind consumes.
func (k TransactionKind) InputObjects() []ObjectRef {
	switch k.Type {
	case KindTransferObject:
		if k.Transfer != nil {
			return []ObjectRef{k.Transfer.Object}
		}
	case KindSplitCoin:
		if k.Split != nil {
			return []ObjectRef{k.Split.Coin}
		}
	case KindMergeCoins:
		if k.Merge != nil {
			return []ObjectRef{k.Merge.Primary, k.Merge.Coin}
		}
	}

	return nil
}

// TransactionData is the unsigned body of a transaction.
type TransactionData struct {
	Sender     SuiAddress      `json:"sender"`
	Kind       TransactionKind `json:"kind"`
	GasPayment ObjectRef       `json:"gasPayment"`
	GasBudget  uint64          `json:"gasBudget"`
}

// NewTransferObjectTransaction builds the body of an object transfer.
func NewTransferObjectTransaction(sender SuiAddress, object ObjectRef, recipient SuiAddress, gas ObjectRef, budget uint64) *TransactionData {
	return &TransactionData{
		Sender:     sender,
		Kind:       TransactionKind{Type: KindTransferObject, Transfer: &TransferObject{Object: object, Recipient: recipient}},
		GasPayment: gas,
		GasBudget:  budget,
	}
}

// NewSplitCoinTransaction builds the body of a coin split.
func NewSplitCoinTransaction(sender SuiAddress, coin ObjectRef, amounts []uint64, gas ObjectRef, budget uint64) *TransactionData {
	return &TransactionData{
		Sender:     sender,
		Kind:       TransactionKind{Type: KindSplitCoin, Split: &SplitCoin{Coin: coin, Amounts: amounts}},
		GasPayment: gas,
		GasBudget:  budget,
	}
}

// NewMergeCoinsTransaction builds the body of a coin merge.
func NewMergeCoinsTransaction(sender SuiAddress, primary ObjectRef, coin ObjectRef, gas ObjectRef, budget uint64) *TransactionData {
	return &TransactionData{
		Sender:     sender,
		Kind:       TransactionKind{Type: KindMergeCoins, Merge: &MergeCoins{Primary: primary, Coin: coin}},
		GasPayment: gas,
		GasBudget:  budget,
	}
}

// NewPublishTransaction builds the body of a package publication.
func NewPublishTransaction(sender SuiAddress, modules [][]byte, gas ObjectRef, budget uint64) *TransactionData {
	return &TransactionData{
		Sender:     sender,
		Kind:       TransactionKind{Type: KindPublish, Publish: &Publish{Modules: modules}},
		GasPayment: gas,
		GasBudget:  budget,
	}
}

// Bytes returns the encoding that is signed and submitted.
func (t *TransactionData) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, t.Sender); err != nil {
		return nil, ierrors.Wrap(err, "failed to write sender")
	}
	if err := stream.Write(byteBuffer, t.Kind.Type); err != nil {
		return nil, ierrors.Wrap(err, "failed to write kind")
	}

	switch t.Kind.Type {
	case KindTransferObject:
		if t.Kind.Transfer == nil {
			return nil, ierrors.New("transfer kind without payload")
		}
		if err := stream.WriteObject(byteBuffer, t.Kind.Transfer.Object, ObjectRef.Bytes); err != nil {
			return nil, ierrors.Wrap(err, "failed to write transferred object")
		}
		if err := stream.Write(byteBuffer, t.Kind.Transfer.Recipient); err != nil {
			return nil, ierrors.Wrap(err, "failed to write recipient")
		}
	case KindSplitCoin:
		if t.Kind.Split == nil {
			return nil, ierrors.New("split kind without payload")
		}
		if err := stream.WriteObject(byteBuffer, t.Kind.Split.Coin, ObjectRef.Bytes); err != nil {
			return nil, ierrors.Wrap(err, "failed to write split coin")
		}
		if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
			for _, amount := range t.Kind.Split.Amounts {
				if err := stream.Write(byteBuffer, amount); err != nil {
					return 0, err
				}
			}

			return len(t.Kind.Split.Amounts), nil
		}); err != nil {
			return nil, ierrors.Wrap(err, "failed to write split amounts")
		}
	case KindMergeCoins:
		if t.Kind.Merge == nil {
			return nil, ierrors.New("merge kind without payload")
		}
		if err := stream.WriteObject(byteBuffer, t.Kind.Merge.Primary, ObjectRef.Bytes); err != nil {
			return nil, ierrors.Wrap(err, "failed to write primary coin")
		}
		if err := stream.WriteObject(byteBuffer, t.Kind.Merge.Coin, ObjectRef.Bytes); err != nil {
			return nil, ierrors.Wrap(err, "failed to write merged coin")
		}
	case KindPublish:
		if t.Kind.Publish == nil {
			return nil, ierrors.New("publish kind without payload")
		}
		if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
			for _, module := range t.Kind.Publish.Modules {
				if err := stream.WriteBytesWithSize(byteBuffer, module, serializer.SeriLengthPrefixTypeAsUint32); err != nil {
					return 0, err
				}
			}

			return len(t.Kind.Publish.Modules), nil
		}); err != nil {
			return nil, ierrors.Wrap(err, "failed to write modules")
		}
	default:
		return nil, ierrors.Errorf("unknown transaction kind %d", t.Kind.Type)
	}

	if err := stream.WriteObject(byteBuffer, t.GasPayment, ObjectRef.Bytes); err != nil {
		return nil, ierrors.Wrap(err, "failed to write gas payment")
	}
	if err := stream.Write(byteBuffer, t.GasBudget); err != nil {
		return nil, ierrors.Wrap(err, "failed to write gas budget")
	}

	return byteBuffer.Bytes()
}

// TransactionDataFromBytes decodes a transaction body. Malformed input wraps ErrDecode.
func TransactionDataFromBytes(b []byte) (*TransactionData, int, error) {
	byteReader := stream.NewByteReader(b)
	t := new(TransactionData)

	var err error
	if t.Sender, err = stream.Read[SuiAddress](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read sender: %s", err)
	}
	if t.Kind.Type, err = stream.Read[TransactionKindType](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read kind: %s", err)
	}

	readRef := func() (ObjectRef, error) {
		return stream.ReadObject(byteReader, ObjectRefLength, ObjectRefFromBytes)
	}

	switch t.Kind.Type {
	case KindTransferObject:
		t.Kind.Transfer = new(TransferObject)
		if t.Kind.Transfer.Object, err = readRef(); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read transferred object: %s", err)
		}
		if t.Kind.Transfer.Recipient, err = stream.Read[SuiAddress](byteReader); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read recipient: %s", err)
		}
	case KindSplitCoin:
		t.Kind.Split = new(SplitCoin)
		if t.Kind.Split.Coin, err = readRef(); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read split coin: %s", err)
		}
		if err = stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
			amount, err := stream.Read[uint64](byteReader)
			if err != nil {
				return ierrors.Wrapf(err, "failed to read amount %d", i)
			}
			t.Kind.Split.Amounts = append(t.Kind.Split.Amounts, amount)

			return nil
		}); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read split amounts: %s", err)
		}
	case KindMergeCoins:
		t.Kind.Merge = new(MergeCoins)
		if t.Kind.Merge.Primary, err = readRef(); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read primary coin: %s", err)
		}
		if t.Kind.Merge.Coin, err = readRef(); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read merged coin: %s", err)
		}
	case KindPublish:
		t.Kind.Publish = new(Publish)
		if err = stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
			module, err := stream.ReadBytesWithSize(byteReader, serializer.SeriLengthPrefixTypeAsUint32)
			if err != nil {
				return ierrors.Wrapf(err, "failed to read module %d", i)
			}
			t.Kind.Publish.Modules = append(t.Kind.Publish.Modules, module)

			return nil
		}); err != nil {
			return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read modules: %s", err)
		}
	default:
		return nil, 0, ierrors.Wrapf(ErrDecode, "unknown transaction kind %d", t.Kind.Type)
	}

	if t.GasPayment, err = readRef(); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read gas payment: %s", err)
	}
	if t.GasBudget, err = stream.Read[uint64](byteReader); err != nil {
		return nil, 0, ierrors.Wrapf(ErrDecode, "failed to read gas budget: %s", err)
	}

	return t, byteReader.BytesRead(), nil
}

// SignedTransaction is a transaction body already encoded and signed by its sender.
type SignedTransaction struct {
	TxBytes   []byte          `json:"txBytes"`
	Scheme    SignatureScheme `json:"scheme"`
	Signature []byte          `json:"signature"`
	PublicKey []byte          `json:"publicKey"`
}

// Digest hashes the signed body.
func (s *SignedTransaction) Digest() TransactionDigest {
	return NewTransactionDigest(s.TxBytes)
}

// Data decodes the signed body.
func (s *SignedTransaction) Data() (*TransactionData, error) {
	data, consumed, err := TransactionDataFromBytes(s.TxBytes)
	if err != nil {
		return nil, err
	}
	if consumed != len(s.TxBytes) {
		return nil, ierrors.Wrapf(ErrDecode, "transaction has %d trailing bytes", len(s.TxBytes)-consumed)
	}

	return data, nil
}

// CertifiedTransaction is a signed transaction accepted by the ledger.
type CertifiedTransaction struct {
	TransactionDigest TransactionDigest  `json:"transactionDigest"`
	Data              *TransactionData   `json:"data"`
	Signed            *SignedTransaction `json:"signed"`
}

// ExecutionStatus reports whether the transaction's effects were applied.
type ExecutionStatus struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OwnedObjectRef is a ref together with the owner after execution.
type OwnedObjectRef struct {
	Owner     Owner     `json:"owner"`
	Reference ObjectRef `json:"reference"`
}

// TransactionEffects is the ledger's report of the objects a transaction touched.
type TransactionEffects struct {
	Status            ExecutionStatus   `json:"status"`
	TransactionDigest TransactionDigest `json:"transactionDigest"`
	Created           []OwnedObjectRef  `json:"created,omitempty"`
	Mutated           []OwnedObjectRef  `json:"mutated,omitempty"`
	Deleted           []ObjectRef       `json:"deleted,omitempty"`
	GasObject         OwnedObjectRef    `json:"gasObject"`
	Events            []Event           `json:"events,omitempty"`
}

// MutatedAndDeletedRefs returns the union of mutated and deleted refs.
func (e *TransactionEffects) MutatedAndDeletedRefs() []ObjectRef {
	refs := lo.Map(e.Mutated, func(o OwnedObjectRef) ObjectRef { return o.Reference })

	return append(refs, e.Deleted...)
}

// TransactionResponse is returned by execution and transaction lookups.
type TransactionResponse struct {
	Certificate *CertifiedTransaction `json:"certificate"`
	Effects     *TransactionEffects   `json:"effects"`
	TimestampMs uint64                `json:"timestampMs"`
}

// Digest returns the digest of the certified transaction.
func (r *TransactionResponse) Digest() TransactionDigest {
	if r.Certificate == nil {
		return EmptyTransactionDigest
	}

	return r.Certificate.TransactionDigest
}

// TxSeqDigest pairs a transaction's sequence number with its digest.
type TxSeqDigest struct {
	Seq    uint64            `json:"seq"`
	Digest TransactionDigest `json:"digest"`
}
