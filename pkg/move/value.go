package move

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/big"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/types"
)

// maxVectorLength caps decoded vector lengths so corrupt input cannot trigger huge allocations.
const maxVectorLength = 1 << 20

// MoveStruct is a decoded struct value.
type MoveStruct struct {
	Type   types.StructTag
	Fields []MoveField
}

// MoveField is a named value. Value is one of bool, uint8, uint64, *big.Int, types.SuiAddress, []any or *MoveStruct.
type MoveField struct {
	Name  string
	Value any
}

// Field returns the value of the named field.
func (s *MoveStruct) Field(name string) (any, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}

	return nil, false
}

// ToMap converts the struct into nested maps suitable for JSON rendering.
func (s *MoveStruct) ToMap() map[string]any {
	m := make(map[string]any, len(s.Fields)+1)
	m["type"] = s.Type.String()
	for _, field := range s.Fields {
		m[field.Name] = renderValue(field.Value)
	}

	return m
}

func renderValue(value any) any {
	switch v := value.(type) {
	case *MoveStruct:
		return v.ToMap()
	case []any:
		rendered := make([]any, len(v))
		for i, elem := range v {
			rendered[i] = renderValue(elem)
		}

		return rendered
	case *big.Int:
		return v.String()
	case types.SuiAddress:
		return v.ToHex()
	default:
		return v
	}
}

// DecodeStruct decodes contents laid out according to layout. All bytes must be consumed.
func DecodeStruct(layout *StructLayout, contents []byte) (*MoveStruct, error) {
	reader := bytes.NewReader(contents)

	value, err := decodeStruct(reader, layout)
	if err != nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "failed to decode %s: %s", layout.Type, err)
	}
	if reader.Len() != 0 {
		return nil, ierrors.Wrapf(types.ErrDecode, "failed to decode %s: %d trailing bytes", layout.Type, reader.Len())
	}

	return value, nil
}

func decodeStruct(reader *bytes.Reader, layout *StructLayout) (*MoveStruct, error) {
	value := &MoveStruct{Type: layout.Type, Fields: make([]MoveField, 0, len(layout.Fields))}
	for _, field := range layout.Fields {
		fieldValue, err := decodeValue(reader, field.Layout)
		if err != nil {
			return nil, ierrors.Wrapf(err, "field %s", field.Name)
		}
		value.Fields = append(value.Fields, MoveField{Name: field.Name, Value: fieldValue})
	}

	return value, nil
}

func decodeValue(reader *bytes.Reader, layout TypeLayout) (any, error) {
	switch layout.Kind {
	case LayoutBool:
		b, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, ierrors.Errorf("invalid bool %d", b)
		}

		return b == 1, nil
	case LayoutU8:
		return reader.ReadByte()
	case LayoutU64:
		var buf [8]byte
		if _, err := io.ReadFull(reader, buf[:]); err != nil {
			return nil, err
		}

		return binary.LittleEndian.Uint64(buf[:]), nil
	case LayoutU128:
		var buf [16]byte
		if _, err := io.ReadFull(reader, buf[:]); err != nil {
			return nil, err
		}
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}

		return new(big.Int).SetBytes(buf[:]), nil
	case LayoutAddress, LayoutSigner:
		var addr types.SuiAddress
		if _, err := io.ReadFull(reader, addr[:]); err != nil {
			return nil, err
		}

		return addr, nil
	case LayoutVector:
		length, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, err
		}
		if length > maxVectorLength || length > uint64(reader.Len()) {
			return nil, ierrors.Errorf("vector length %d exceeds input", length)
		}
		elems := make([]any, 0, length)
		for i := uint64(0); i < length; i++ {
			elem, err := decodeValue(reader, *layout.Elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}

		return elems, nil
	case LayoutStruct:
		return decodeStruct(reader, layout.Struct)
	default:
		return nil, ierrors.Errorf("unknown layout kind %d", layout.Kind)
	}
}

// EncodeU64 appends a little endian u64 the way DecodeStruct expects it.
func EncodeU64(b []byte, value uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, value)
}

// EncodeBytes appends a length prefixed vector<u8>.
func EncodeBytes(b []byte, value []byte) []byte {
	b = binary.AppendUvarint(b, uint64(len(value)))

	return append(b, value...)
}
