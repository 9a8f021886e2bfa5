package move

import (
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/ferat8/sui/pkg/types"
)

// Field is a named field passed to Builder.AddStruct.
type Field struct {
	Name string
	Type FieldType
}

// Builder assembles a CompiledModule, interning identifiers, addresses and handles.
type Builder struct {
	module      *CompiledModule
	identifiers map[string]uint16
	addresses   map[types.ObjectID]uint16
	moduleIdx   map[ModuleID]uint16
	structIdx   map[string]uint16
	err         error
}

// NewBuilder starts a module named name declared by the package at address.
func NewBuilder(address types.ObjectID, name string) *Builder {
	b := &Builder{
		module:      &CompiledModule{Version: Version},
		identifiers: make(map[string]uint16),
		addresses:   make(map[types.ObjectID]uint16),
		moduleIdx:   make(map[ModuleID]uint16),
		structIdx:   make(map[string]uint16),
	}
	b.module.SelfModuleHandleIdx = b.moduleHandle(ModuleID{Address: address, Name: name})

	return b
}

// AddDependency adds a module handle without referencing it from a field.
func (b *Builder) AddDependency(address types.ObjectID, name string) *Builder {
	b.moduleHandle(ModuleID{Address: address, Name: name})

	return b
}

// AddStruct declares a struct with the given number of type parameters.
func (b *Builder) AddStruct(name string, typeParameters uint8, fields ...Field) *Builder {
	self := b.module.Self()
	handle := b.structHandle(self, name, typeParameters)
	b.module.StructHandles[handle].TypeParameters = typeParameters

	definition := StructDefinition{StructHandle: handle}
	for _, field := range fields {
		token, err := b.token(field.Type)
		if err != nil {
			b.err = ierrors.Wrapf(err, "field %s of struct %s", field.Name, name)

			return b
		}
		definition.Fields = append(definition.Fields, FieldDefinition{Name: b.identifier(field.Name), Type: token})
	}
	b.module.StructDefs = append(b.module.StructDefs, definition)

	return b
}

// Build returns the module.
func (b *Builder) Build() (*CompiledModule, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.module, nil
}

// Bytes builds and serializes the module.
func (b *Builder) Bytes() ([]byte, error) {
	module, err := b.Build()
	if err != nil {
		return nil, err
	}

	return module.Bytes()
}

func (b *Builder) identifier(name string) uint16 {
	if idx, exists := b.identifiers[name]; exists {
		return idx
	}

	idx := uint16(len(b.module.Identifiers))
	b.module.Identifiers = append(b.module.Identifiers, name)
	b.identifiers[name] = idx

	return idx
}

func (b *Builder) address(address types.ObjectID) uint16 {
	if idx, exists := b.addresses[address]; exists {
		return idx
	}

	idx := uint16(len(b.module.AddressIdentifiers))
	b.module.AddressIdentifiers = append(b.module.AddressIdentifiers, address)
	b.addresses[address] = idx

	return idx
}

func (b *Builder) moduleHandle(id ModuleID) uint16 {
	if idx, exists := b.moduleIdx[id]; exists {
		return idx
	}

	idx := uint16(len(b.module.ModuleHandles))
	b.module.ModuleHandles = append(b.module.ModuleHandles, ModuleHandle{Address: b.address(id.Address), Name: b.identifier(id.Name)})
	b.moduleIdx[id] = idx

	return idx
}

func (b *Builder) structHandle(module ModuleID, name string, typeParameters uint8) uint16 {
	key := module.String() + "::" + name
	if idx, exists := b.structIdx[key]; exists {
		return idx
	}

	idx := uint16(len(b.module.StructHandles))
	b.module.StructHandles = append(b.module.StructHandles, StructHandle{
		Module:         b.moduleHandle(module),
		Name:           b.identifier(name),
		TypeParameters: typeParameters,
	})
	b.structIdx[key] = idx

	return idx
}

func (b *Builder) token(fieldType FieldType) (SignatureToken, error) {
	switch fieldType.kind {
	case TokenVector:
		if fieldType.elem == nil {
			return SignatureToken{}, ierrors.New("vector without element")
		}
		elem, err := b.token(*fieldType.elem)
		if err != nil {
			return SignatureToken{}, err
		}

		return SignatureToken{Kind: TokenVector, Elem: &elem}, nil
	case TokenStruct, TokenStructInstantiation:
		token := SignatureToken{
			Kind:         fieldType.kind,
			StructHandle: b.structHandle(fieldType.module, fieldType.name, uint8(len(fieldType.typeArguments))),
		}
		for _, argument := range fieldType.typeArguments {
			argumentToken, err := b.token(argument)
			if err != nil {
				return SignatureToken{}, err
			}
			token.TypeArguments = append(token.TypeArguments, argumentToken)
		}

		return token, nil
	case TokenTypeParameter:
		return SignatureToken{Kind: TokenTypeParameter, TypeParameter: fieldType.typeParameter}, nil
	default:
		return SignatureToken{Kind: fieldType.kind}, nil
	}
}
