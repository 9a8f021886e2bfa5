package types

import (
	"io"
	"strings"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
)

// MaxTypeTagDepth bounds the nesting of vectors and type parameters accepted by the decoders.
const MaxTypeTagDepth = 64

// TypeTagKind is the variant of a TypeTag.
type TypeTagKind uint8

const (
	TypeTagBool TypeTagKind = iota
	TypeTagU8
	TypeTagU64
	TypeTagU128
	TypeTagAddress
	TypeTagSigner
	TypeTagVector
	TypeTagStruct
)

var primitiveNames = map[TypeTagKind]string{
	TypeTagBool:    "bool",
	TypeTagU8:      "u8",
	TypeTagU64:     "u64",
	TypeTagU128:    "u128",
	TypeTagAddress: "address",
	TypeTagSigner:  "signer",
}

// TypeTag is a structural description of a value's type.
type TypeTag struct {
	Kind TypeTagKind
	// Elem is set for vectors.
	Elem *TypeTag
	// Struct is set for structs.
	Struct *StructTag
}

// StructTag names a struct type declared in a package, instantiated with type parameters.
type StructTag struct {
	Address    ObjectID
	Module     string
	Name       string
	TypeParams []TypeTag
}

// NewPrimitiveTypeTag returns a TypeTag without children.
func NewPrimitiveTypeTag(kind TypeTagKind) TypeTag {
	return TypeTag{Kind: kind}
}

// NewVectorTypeTag returns vector<elem>.
func NewVectorTypeTag(elem TypeTag) TypeTag {
	return TypeTag{Kind: TypeTagVector, Elem: &elem}
}

// NewStructTypeTag wraps a StructTag.
func NewStructTypeTag(tag StructTag) TypeTag {
	return TypeTag{Kind: TypeTagStruct, Struct: &tag}
}

func (t TypeTag) String() string {
	switch t.Kind {
	case TypeTagVector:
		if t.Elem == nil {
			return "vector<?>"
		}

		return "vector<" + t.Elem.String() + ">"
	case TypeTagStruct:
		if t.Struct == nil {
			return "?"
		}

		return t.Struct.String()
	default:
		if name, exists := primitiveNames[t.Kind]; exists {
			return name
		}

		return "?"
	}
}

func (s StructTag) String() string {
	var b strings.Builder
	b.WriteString(s.Address.ToHex())
	b.WriteString("::")
	b.WriteString(s.Module)
	b.WriteString("::")
	b.WriteString(s.Name)
	if len(s.TypeParams) > 0 {
		b.WriteString("<")
		b.WriteString(strings.Join(lo.Map(s.TypeParams, TypeTag.String), ", "))
		b.WriteString(">")
	}

	return b.String()
}

// Equal compares two type tags structurally.
func (t TypeTag) Equal(other TypeTag) bool {
	return t.String() == other.String()
}

// Equal compares two struct tags structurally.
func (s StructTag) Equal(other StructTag) bool {
	return s.String() == other.String()
}

// MarshalText renders the canonical text form.
func (s StructTag) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *StructTag) UnmarshalText(text []byte) error {
	parsed, err := ParseStructTag(string(text))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}

func (t TypeTag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TypeTag) UnmarshalText(text []byte) error {
	parsed, err := ParseTypeTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed

	return nil
}

// ParseTypeTag parses the canonical text form, e.g. "vector<0x2::coin::Coin<0x2::sui::SUI>>".
func ParseTypeTag(s string) (TypeTag, error) {
	p := &typeTagParser{input: s}
	tag, err := p.parseTypeTag(0)
	if err != nil {
		return TypeTag{}, ierrors.Wrapf(ErrDecode, "invalid type tag %q: %s", s, err)
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return TypeTag{}, ierrors.Wrapf(ErrDecode, "invalid type tag %q: trailing input at %d", s, p.pos)
	}

	return tag, nil
}

// ParseStructTag parses a struct tag like "0x2::coin::Coin<0x2::sui::SUI>".
func ParseStructTag(s string) (StructTag, error) {
	tag, err := ParseTypeTag(s)
	if err != nil {
		return StructTag{}, err
	}
	if tag.Kind != TypeTagStruct {
		return StructTag{}, ierrors.Wrapf(ErrDecode, "type tag %q is not a struct", s)
	}

	return *tag.Struct, nil
}

type typeTagParser struct {
	input string
	pos   int
}

func (p *typeTagParser) skipSpaces() {
	for p.pos < len(p.input) && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeTagParser) consume(token string) bool {
	p.skipSpaces()
	if strings.HasPrefix(p.input[p.pos:], token) {
		p.pos += len(token)

		return true
	}

	return false
}

func (p *typeTagParser) identifier() (string, error) {
	p.skipSpaces()
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			p.pos++

			continue
		}

		break
	}
	if start == p.pos {
		return "", ierrors.Errorf("expected identifier at %d", start)
	}

	return p.input[start:p.pos], nil
}

func (p *typeTagParser) parseTypeTag(depth int) (TypeTag, error) {
	if depth > MaxTypeTagDepth {
		return TypeTag{}, ierrors.New("type tag nested too deeply")
	}

	p.skipSpaces()
	if strings.HasPrefix(p.input[p.pos:], "0x") {
		structTag, err := p.parseStructTag(depth)
		if err != nil {
			return TypeTag{}, err
		}

		return NewStructTypeTag(structTag), nil
	}

	ident, err := p.identifier()
	if err != nil {
		return TypeTag{}, err
	}

	if ident == "vector" {
		if !p.consume("<") {
			return TypeTag{}, ierrors.Errorf("expected '<' at %d", p.pos)
		}
		elem, err := p.parseTypeTag(depth + 1)
		if err != nil {
			return TypeTag{}, err
		}
		if !p.consume(">") {
			return TypeTag{}, ierrors.Errorf("expected '>' at %d", p.pos)
		}

		return NewVectorTypeTag(elem), nil
	}

	for kind, name := range primitiveNames {
		if name == ident {
			return NewPrimitiveTypeTag(kind), nil
		}
	}

	return TypeTag{}, ierrors.Errorf("unknown type %q", ident)
}

func (p *typeTagParser) parseStructTag(depth int) (StructTag, error) {
	addr, err := p.identifier()
	if err != nil {
		return StructTag{}, err
	}
	address, err := ObjectIDFromHex(addr)
	if err != nil {
		return StructTag{}, err
	}
	if !p.consume("::") {
		return StructTag{}, ierrors.Errorf("expected '::' at %d", p.pos)
	}
	module, err := p.identifier()
	if err != nil {
		return StructTag{}, err
	}
	if !p.consume("::") {
		return StructTag{}, ierrors.Errorf("expected '::' at %d", p.pos)
	}
	name, err := p.identifier()
	if err != nil {
		return StructTag{}, err
	}

	tag := StructTag{Address: address, Module: module, Name: name}
	if !p.consume("<") {
		return tag, nil
	}

	for {
		param, err := p.parseTypeTag(depth + 1)
		if err != nil {
			return StructTag{}, err
		}
		tag.TypeParams = append(tag.TypeParams, param)

		if p.consume(",") {
			continue
		}
		if p.consume(">") {
			return tag, nil
		}

		return StructTag{}, ierrors.Errorf("expected ',' or '>' at %d", p.pos)
	}
}

// Bytes returns the binary encoding of the type tag.
func (t TypeTag) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()
	if err := WriteTypeTag(byteBuffer, t); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

// TypeTagFromBytes decodes a binary encoded type tag.
func TypeTagFromBytes(b []byte) (TypeTag, int, error) {
	byteReader := stream.NewByteReader(b)
	tag, err := ReadTypeTag(byteReader)
	if err != nil {
		return TypeTag{}, 0, err
	}

	return tag, byteReader.BytesRead(), nil
}

// Bytes returns the binary encoding of the struct tag.
func (s StructTag) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()
	if err := WriteStructTag(byteBuffer, s); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

// StructTagFromBytes decodes a binary encoded struct tag.
func StructTagFromBytes(b []byte) (StructTag, int, error) {
	byteReader := stream.NewByteReader(b)
	tag, err := ReadStructTag(byteReader)
	if err != nil {
		return StructTag{}, 0, err
	}

	return tag, byteReader.BytesRead(), nil
}

// WriteTypeTag writes the binary encoding of a type tag to the writer.
func WriteTypeTag(writer io.WriteSeeker, t TypeTag) error {
	if err := stream.Write(writer, t.Kind); err != nil {
		return ierrors.Wrap(err, "failed to write type tag kind")
	}

	switch t.Kind {
	case TypeTagVector:
		if t.Elem == nil {
			return ierrors.New("vector type tag without element type")
		}

		return WriteTypeTag(writer, *t.Elem)
	case TypeTagStruct:
		if t.Struct == nil {
			return ierrors.New("struct type tag without struct")
		}

		return WriteStructTag(writer, *t.Struct)
	default:
		return nil
	}
}

// WriteStructTag writes the binary encoding of a struct tag to the writer.
func WriteStructTag(writer io.WriteSeeker, s StructTag) error {
	if err := stream.Write(writer, s.Address); err != nil {
		return ierrors.Wrap(err, "failed to write struct address")
	}
	if err := stream.WriteBytesWithSize(writer, []byte(s.Module), serializer.SeriLengthPrefixTypeAsByte); err != nil {
		return ierrors.Wrap(err, "failed to write struct module")
	}
	if err := stream.WriteBytesWithSize(writer, []byte(s.Name), serializer.SeriLengthPrefixTypeAsByte); err != nil {
		return ierrors.Wrap(err, "failed to write struct name")
	}
	if err := stream.Write(writer, uint8(len(s.TypeParams))); err != nil {
		return ierrors.Wrap(err, "failed to write type parameter count")
	}
	for _, param := range s.TypeParams {
		if err := WriteTypeTag(writer, param); err != nil {
			return err
		}
	}

	return nil
}

// ReadTypeTag reads a binary encoded type tag from the reader.
func ReadTypeTag(reader io.ReadSeeker) (TypeTag, error) {
	return readTypeTag(reader, 0)
}

// ReadStructTag reads a binary encoded struct tag from the reader.
func ReadStructTag(reader io.ReadSeeker) (StructTag, error) {
	return readStructTag(reader, 0)
}

func readTypeTag(reader io.ReadSeeker, depth int) (TypeTag, error) {
	if depth > MaxTypeTagDepth {
		return TypeTag{}, ierrors.Wrap(ErrDecode, "type tag nested too deeply")
	}

	kind, err := stream.Read[TypeTagKind](reader)
	if err != nil {
		return TypeTag{}, ierrors.Wrapf(ErrDecode, "failed to read type tag kind: %s", err)
	}

	switch kind {
	case TypeTagBool, TypeTagU8, TypeTagU64, TypeTagU128, TypeTagAddress, TypeTagSigner:
		return NewPrimitiveTypeTag(kind), nil
	case TypeTagVector:
		elem, err := readTypeTag(reader, depth+1)
		if err != nil {
			return TypeTag{}, err
		}

		return NewVectorTypeTag(elem), nil
	case TypeTagStruct:
		structTag, err := readStructTag(reader, depth+1)
		if err != nil {
			return TypeTag{}, err
		}

		return NewStructTypeTag(structTag), nil
	default:
		return TypeTag{}, ierrors.Wrapf(ErrDecode, "unknown type tag kind %d", kind)
	}
}

func readStructTag(reader io.ReadSeeker, depth int) (StructTag, error) {
	var (
		s   StructTag
		err error
	)

	if s.Address, err = stream.Read[ObjectID](reader); err != nil {
		return s, ierrors.Wrapf(ErrDecode, "failed to read struct address: %s", err)
	}
	module, err := stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsByte)
	if err != nil {
		return s, ierrors.Wrapf(ErrDecode, "failed to read struct module: %s", err)
	}
	name, err := stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsByte)
	if err != nil {
		return s, ierrors.Wrapf(ErrDecode, "failed to read struct name: %s", err)
	}
	s.Module, s.Name = string(module), string(name)

	count, err := stream.Read[uint8](reader)
	if err != nil {
		return s, ierrors.Wrapf(ErrDecode, "failed to read type parameter count: %s", err)
	}
	for i := 0; i < int(count); i++ {
		param, err := readTypeTag(reader, depth+1)
		if err != nil {
			return s, err
		}
		s.TypeParams = append(s.TypeParams, param)
	}

	return s, nil
}
