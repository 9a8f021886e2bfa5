package move

import (
	"io"
	"strings"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/ferat8/sui/pkg/types"
)

// LayoutKind is the variant of a TypeLayout.
type LayoutKind uint8

const (
	LayoutBool LayoutKind = iota
	LayoutU8
	LayoutU64
	LayoutU128
	LayoutAddress
	LayoutSigner
	LayoutVector
	LayoutStruct
)

// TypeLayout is the fully resolved shape of a value: no type parameters, every struct expanded.
type TypeLayout struct {
	Kind   LayoutKind
	Elem   *TypeLayout
	Struct *StructLayout
}

// StructLayout lists the fields of an instantiated struct in declaration order.
type StructLayout struct {
	Type   types.StructTag
	Fields []FieldLayout
}

// FieldLayout is a named field of a StructLayout.
type FieldLayout struct {
	Name   string
	Layout TypeLayout
}

func (l TypeLayout) String() string {
	switch l.Kind {
	case LayoutBool:
		return "bool"
	case LayoutU8:
		return "u8"
	case LayoutU64:
		return "u64"
	case LayoutU128:
		return "u128"
	case LayoutAddress:
		return "address"
	case LayoutSigner:
		return "signer"
	case LayoutVector:
		if l.Elem == nil {
			return "vector<?>"
		}

		return "vector<" + l.Elem.String() + ">"
	case LayoutStruct:
		if l.Struct == nil {
			return "?"
		}

		return l.Struct.String()
	default:
		return "?"
	}
}

func (s *StructLayout) String() string {
	return s.Type.String() + " { " + strings.Join(lo.Map(s.Fields, func(f FieldLayout) string {
		return f.Name + ": " + f.Layout.String()
	}), ", ") + " }"
}

func (s *StructLayout) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()
	if err := writeStructLayout(byteBuffer, s); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

// StructLayoutFromBytes decodes a layout written by StructLayout.Bytes.
func StructLayoutFromBytes(b []byte) (*StructLayout, int, error) {
	byteReader := stream.NewByteReader(b)
	layout, err := readStructLayout(byteReader, 0)
	if err != nil {
		return nil, 0, ierrors.Wrapf(types.ErrDecode, "failed to decode layout: %s", err)
	}

	return layout, byteReader.BytesRead(), nil
}

func writeStructLayout(writer io.WriteSeeker, s *StructLayout) error {
	if err := types.WriteStructTag(writer, s.Type); err != nil {
		return err
	}

	return stream.WriteCollection(writer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, field := range s.Fields {
			if err := stream.WriteBytesWithSize(writer, []byte(field.Name), serializer.SeriLengthPrefixTypeAsByte); err != nil {
				return 0, err
			}
			if err := writeTypeLayout(writer, field.Layout); err != nil {
				return 0, err
			}
		}

		return len(s.Fields), nil
	})
}

func writeTypeLayout(writer io.WriteSeeker, l TypeLayout) error {
	if err := stream.Write(writer, l.Kind); err != nil {
		return err
	}

	switch l.Kind {
	case LayoutVector:
		return writeTypeLayout(writer, *l.Elem)
	case LayoutStruct:
		return writeStructLayout(writer, l.Struct)
	default:
		return nil
	}
}

func readStructLayout(reader io.ReadSeeker, depth int) (*StructLayout, error) {
	if depth > maxSignatureDepth {
		return nil, ierrors.New("layout nested too deeply")
	}

	tag, err := types.ReadStructTag(reader)
	if err != nil {
		return nil, err
	}

	s := &StructLayout{Type: tag}
	if err := stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		name, err := stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsByte)
		if err != nil {
			return ierrors.Wrapf(err, "failed to read field name %d", i)
		}
		layout, err := readTypeLayout(reader, depth+1)
		if err != nil {
			return err
		}
		s.Fields = append(s.Fields, FieldLayout{Name: string(name), Layout: layout})

		return nil
	}); err != nil {
		return nil, err
	}

	return s, nil
}

func readTypeLayout(reader io.ReadSeeker, depth int) (TypeLayout, error) {
	if depth > maxSignatureDepth {
		return TypeLayout{}, ierrors.New("layout nested too deeply")
	}

	kind, err := stream.Read[LayoutKind](reader)
	if err != nil {
		return TypeLayout{}, err
	}

	switch kind {
	case LayoutBool, LayoutU8, LayoutU64, LayoutU128, LayoutAddress, LayoutSigner:
		return TypeLayout{Kind: kind}, nil
	case LayoutVector:
		elem, err := readTypeLayout(reader, depth+1)
		if err != nil {
			return TypeLayout{}, err
		}

		return TypeLayout{Kind: kind, Elem: &elem}, nil
	case LayoutStruct:
		s, err := readStructLayout(reader, depth+1)
		if err != nil {
			return TypeLayout{}, err
		}

		return TypeLayout{Kind: kind, Struct: s}, nil
	default:
		return TypeLayout{}, ierrors.Errorf("unknown layout kind %d", kind)
	}
}
