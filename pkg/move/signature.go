package move

import (
	"io"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/ferat8/sui/pkg/types"
)

// maxSignatureDepth bounds the nesting of decoded signature tokens.
const maxSignatureDepth = 64

// TokenKind is the variant of a SignatureToken.
type TokenKind uint8

const (
	TokenBool TokenKind = iota
	TokenU8
	TokenU64
	TokenU128
	TokenAddress
	TokenSigner
	TokenVector
	TokenStruct
	TokenStructInstantiation
	TokenTypeParameter
)

// SignatureToken is the type of a field as it is stored inside a module: struct references point into the
// module's struct handle table and generic parameters are referenced by index.
type SignatureToken struct {
	Kind TokenKind
	// Elem is set for vectors.
	Elem *SignatureToken
	// StructHandle indexes the module's struct handles for struct tokens.
	StructHandle uint16
	// TypeArguments instantiate a generic struct.
	TypeArguments []SignatureToken
	// TypeParameter indexes the declaring struct's type parameters.
	TypeParameter uint16
}

func writeSignatureToken(writer io.WriteSeeker, token SignatureToken) error {
	if err := stream.Write(writer, token.Kind); err != nil {
		return ierrors.Wrap(err, "failed to write token kind")
	}

	switch token.Kind {
	case TokenVector:
		if token.Elem == nil {
			return ierrors.New("vector token without element")
		}

		return writeSignatureToken(writer, *token.Elem)
	case TokenStruct:
		return stream.Write(writer, token.StructHandle)
	case TokenStructInstantiation:
		if err := stream.Write(writer, token.StructHandle); err != nil {
			return ierrors.Wrap(err, "failed to write struct handle")
		}

		return stream.WriteCollection(writer, serializer.SeriLengthPrefixTypeAsByte, func() (int, error) {
			for _, argument := range token.TypeArguments {
				if err := writeSignatureToken(writer, argument); err != nil {
					return 0, err
				}
			}

			return len(token.TypeArguments), nil
		})
	case TokenTypeParameter:
		return stream.Write(writer, token.TypeParameter)
	default:
		return nil
	}
}

func readSignatureToken(reader io.ReadSeeker, depth int) (SignatureToken, error) {
	if depth > maxSignatureDepth {
		return SignatureToken{}, ierrors.New("signature nested too deeply")
	}

	kind, err := stream.Read[TokenKind](reader)
	if err != nil {
		return SignatureToken{}, ierrors.Wrap(err, "failed to read token kind")
	}

	token := SignatureToken{Kind: kind}
	switch kind {
	case TokenBool, TokenU8, TokenU64, TokenU128, TokenAddress, TokenSigner:
	case TokenVector:
		elem, err := readSignatureToken(reader, depth+1)
		if err != nil {
			return SignatureToken{}, err
		}
		token.Elem = &elem
	case TokenStruct:
		if token.StructHandle, err = stream.Read[uint16](reader); err != nil {
			return SignatureToken{}, ierrors.Wrap(err, "failed to read struct handle")
		}
	case TokenStructInstantiation:
		if token.StructHandle, err = stream.Read[uint16](reader); err != nil {
			return SignatureToken{}, ierrors.Wrap(err, "failed to read struct handle")
		}
		if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsByte, func(i int) error {
			argument, err := readSignatureToken(reader, depth+1)
			if err != nil {
				return ierrors.Wrapf(err, "failed to read type argument %d", i)
			}
			token.TypeArguments = append(token.TypeArguments, argument)

			return nil
		}); err != nil {
			return SignatureToken{}, err
		}
	case TokenTypeParameter:
		if token.TypeParameter, err = stream.Read[uint16](reader); err != nil {
			return SignatureToken{}, ierrors.Wrap(err, "failed to read type parameter")
		}
	default:
		return SignatureToken{}, ierrors.Errorf("unknown token kind %d", kind)
	}

	return token, nil
}

// FieldType is a module independent description of a field type used by the Builder.
type FieldType struct {
	kind          TokenKind
	elem          *FieldType
	module        ModuleID
	name          string
	typeArguments []FieldType
	typeParameter uint16
}

func Bool() FieldType    { return FieldType{kind: TokenBool} }
func U8() FieldType      { return FieldType{kind: TokenU8} }
func U64() FieldType     { return FieldType{kind: TokenU64} }
func U128() FieldType    { return FieldType{kind: TokenU128} }
func Address() FieldType { return FieldType{kind: TokenAddress} }
func Signer() FieldType  { return FieldType{kind: TokenSigner} }

// Vector returns vector<elem>.
func Vector(elem FieldType) FieldType {
	return FieldType{kind: TokenVector, elem: &elem}
}

// Struct references a struct declared in the given package and module.
func Struct(address types.ObjectID, module string, name string, typeArguments ...FieldType) FieldType {
	kind := TokenStruct
	if len(typeArguments) > 0 {
		kind = TokenStructInstantiation
	}

	return FieldType{kind: kind, module: ModuleID{Address: address, Name: module}, name: name, typeArguments: typeArguments}
}

// TypeParameter references the index-th type parameter of the declaring struct.
func TypeParameter(index uint16) FieldType {
	return FieldType{kind: TokenTypeParameter, typeParameter: index}
}
