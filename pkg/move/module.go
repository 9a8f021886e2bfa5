package move

import (
	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/ferat8/sui/pkg/types"
)

const (
	// Magic prefixes every serialized module.
	Magic uint32 = 0xA11CEB0B
	// Version is the module format version written by this package.
	Version uint32 = 1
)

// ModuleID names a module by its package address and name.
type ModuleID struct {
	Address types.ObjectID
	Name    string
}

func (m ModuleID) String() string {
	return m.Address.ToHex() + "::" + m.Name
}

// ModuleHandle references a module by indices into the address and identifier tables.
type ModuleHandle struct {
	Address uint16
	Name    uint16
}

// StructHandle references a struct declared in the module named by Module.
type StructHandle struct {
	Module         uint16
	Name           uint16
	Abilities      uint8
	TypeParameters uint8
}

// FieldDefinition is a named field of a struct definition.
type FieldDefinition struct {
	Name uint16
	Type SignatureToken
}

// StructDefinition declares the fields of a struct handle owned by this module.
type StructDefinition struct {
	StructHandle uint16
	Native       bool
	Fields       []FieldDefinition
}

// CompiledModule is the deserialized header of a module: enough to find its dependencies and field layouts.
type CompiledModule struct {
	Version             uint32
	SelfModuleHandleIdx uint16
	ModuleHandles       []ModuleHandle
	StructHandles       []StructHandle
	Identifiers         []string
	AddressIdentifiers  []types.ObjectID
	StructDefs          []StructDefinition
}

// ModuleFromBytes decodes and validates a serialized module. Malformed input wraps types.ErrDecode.
func ModuleFromBytes(b []byte) (*CompiledModule, error) {
	byteReader := stream.NewByteReader(b)

	module, err := readModule(byteReader)
	if err != nil {
		return nil, ierrors.Wrapf(types.ErrDecode, "failed to decode module: %s", err)
	}
	if byteReader.BytesRead() != len(b) {
		return nil, ierrors.Wrapf(types.ErrDecode, "module has %d trailing bytes", len(b)-byteReader.BytesRead())
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}

	return module, nil
}

func readModule(reader *stream.ByteReader) (*CompiledModule, error) {
	magic, err := stream.Read[uint32](reader)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to read magic")
	}
	if magic != Magic {
		return nil, ierrors.Errorf("invalid magic %#x", magic)
	}

	m := new(CompiledModule)
	if m.Version, err = stream.Read[uint32](reader); err != nil {
		return nil, ierrors.Wrap(err, "failed to read version")
	}
	if m.SelfModuleHandleIdx, err = stream.Read[uint16](reader); err != nil {
		return nil, ierrors.Wrap(err, "failed to read self module handle")
	}

	if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		var handle ModuleHandle
		if handle.Address, err = stream.Read[uint16](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read module handle %d", i)
		}
		if handle.Name, err = stream.Read[uint16](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read module handle %d", i)
		}
		m.ModuleHandles = append(m.ModuleHandles, handle)

		return nil
	}); err != nil {
		return nil, err
	}

	if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		var handle StructHandle
		if handle.Module, err = stream.Read[uint16](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read struct handle %d", i)
		}
		if handle.Name, err = stream.Read[uint16](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read struct handle %d", i)
		}
		if handle.Abilities, err = stream.Read[uint8](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read struct handle %d", i)
		}
		if handle.TypeParameters, err = stream.Read[uint8](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read struct handle %d", i)
		}
		m.StructHandles = append(m.StructHandles, handle)

		return nil
	}); err != nil {
		return nil, err
	}

	if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		identifier, err := stream.ReadBytesWithSize(reader, serializer.SeriLengthPrefixTypeAsByte)
		if err != nil {
			return ierrors.Wrapf(err, "failed to read identifier %d", i)
		}
		m.Identifiers = append(m.Identifiers, string(identifier))

		return nil
	}); err != nil {
		return nil, err
	}

	if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		address, err := stream.Read[types.ObjectID](reader)
		if err != nil {
			return ierrors.Wrapf(err, "failed to read address identifier %d", i)
		}
		m.AddressIdentifiers = append(m.AddressIdentifiers, address)

		return nil
	}); err != nil {
		return nil, err
	}

	if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsUint16, func(i int) error {
		var definition StructDefinition
		if definition.StructHandle, err = stream.Read[uint16](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read struct definition %d", i)
		}
		if definition.Native, err = stream.Read[bool](reader); err != nil {
			return ierrors.Wrapf(err, "failed to read struct definition %d", i)
		}
		if err = stream.ReadCollection(reader, serializer.SeriLengthPrefixTypeAsByte, func(j int) error {
			var field FieldDefinition
			if field.Name, err = stream.Read[uint16](reader); err != nil {
				return ierrors.Wrapf(err, "failed to read field %d", j)
			}
			if field.Type, err = readSignatureToken(reader, 0); err != nil {
				return ierrors.Wrapf(err, "failed to read field %d", j)
			}
			definition.Fields = append(definition.Fields, field)

			return nil
		}); err != nil {
			return err
		}
		m.StructDefs = append(m.StructDefs, definition)

		return nil
	}); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *CompiledModule) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, Magic); err != nil {
		return nil, ierrors.Wrap(err, "failed to write magic")
	}
	if err := stream.Write(byteBuffer, m.Version); err != nil {
		return nil, ierrors.Wrap(err, "failed to write version")
	}
	if err := stream.Write(byteBuffer, m.SelfModuleHandleIdx); err != nil {
		return nil, ierrors.Wrap(err, "failed to write self module handle")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, handle := range m.ModuleHandles {
			if err := stream.Write(byteBuffer, handle.Address); err != nil {
				return 0, err
			}
			if err := stream.Write(byteBuffer, handle.Name); err != nil {
				return 0, err
			}
		}

		return len(m.ModuleHandles), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write module handles")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, handle := range m.StructHandles {
			if err := stream.Write(byteBuffer, handle.Module); err != nil {
				return 0, err
			}
			if err := stream.Write(byteBuffer, handle.Name); err != nil {
				return 0, err
			}
			if err := stream.Write(byteBuffer, handle.Abilities); err != nil {
				return 0, err
			}
			if err := stream.Write(byteBuffer, handle.TypeParameters); err != nil {
				return 0, err
			}
		}

		return len(m.StructHandles), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write struct handles")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, identifier := range m.Identifiers {
			if err := stream.WriteBytesWithSize(byteBuffer, []byte(identifier), serializer.SeriLengthPrefixTypeAsByte); err != nil {
				return 0, err
			}
		}

		return len(m.Identifiers), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write identifiers")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, address := range m.AddressIdentifiers {
			if err := stream.Write(byteBuffer, address); err != nil {
				return 0, err
			}
		}

		return len(m.AddressIdentifiers), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write address identifiers")
	}

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint16, func() (int, error) {
		for _, definition := range m.StructDefs {
			if err := stream.Write(byteBuffer, definition.StructHandle); err != nil {
				return 0, err
			}
			if err := stream.Write(byteBuffer, definition.Native); err != nil {
				return 0, err
			}
			if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsByte, func() (int, error) {
				for _, field := range definition.Fields {
					if err := stream.Write(byteBuffer, field.Name); err != nil {
						return 0, err
					}
					if err := writeSignatureToken(byteBuffer, field.Type); err != nil {
						return 0, err
					}
				}

				return len(definition.Fields), nil
			}); err != nil {
				return 0, err
			}
		}

		return len(m.StructDefs), nil
	}); err != nil {
		return nil, ierrors.Wrap(err, "failed to write struct definitions")
	}

	return byteBuffer.Bytes()
}

// Validate checks that every table index is in bounds.
func (m *CompiledModule) Validate() error {
	if int(m.SelfModuleHandleIdx) >= len(m.ModuleHandles) {
		return ierrors.Wrapf(types.ErrDecode, "self module handle %d out of bounds", m.SelfModuleHandleIdx)
	}
	for i, handle := range m.ModuleHandles {
		if int(handle.Address) >= len(m.AddressIdentifiers) || int(handle.Name) >= len(m.Identifiers) {
			return ierrors.Wrapf(types.ErrDecode, "module handle %d out of bounds", i)
		}
	}
	for i, handle := range m.StructHandles {
		if int(handle.Module) >= len(m.ModuleHandles) || int(handle.Name) >= len(m.Identifiers) {
			return ierrors.Wrapf(types.ErrDecode, "struct handle %d out of bounds", i)
		}
	}
	for i, definition := range m.StructDefs {
		if int(definition.StructHandle) >= len(m.StructHandles) {
			return ierrors.Wrapf(types.ErrDecode, "struct definition %d out of bounds", i)
		}
		if m.StructHandles[definition.StructHandle].Module != m.SelfModuleHandleIdx {
			return ierrors.Wrapf(types.ErrDecode, "struct definition %d declared for a foreign module", i)
		}
		for j, field := range definition.Fields {
			if int(field.Name) >= len(m.Identifiers) {
				return ierrors.Wrapf(types.ErrDecode, "field %d of struct definition %d out of bounds", j, i)
			}
			if err := m.validateToken(field.Type); err != nil {
				return ierrors.Wrapf(types.ErrDecode, "field %d of struct definition %d: %s", j, i, err)
			}
		}
	}

	return nil
}

func (m *CompiledModule) validateToken(token SignatureToken) error {
	switch token.Kind {
	case TokenVector:
		if token.Elem == nil {
			return ierrors.New("vector without element")
		}

		return m.validateToken(*token.Elem)
	case TokenStruct, TokenStructInstantiation:
		if int(token.StructHandle) >= len(m.StructHandles) {
			return ierrors.Errorf("struct handle %d out of bounds", token.StructHandle)
		}
		for _, argument := range token.TypeArguments {
			if err := m.validateToken(argument); err != nil {
				return err
			}
		}
	}

	return nil
}

// Self returns the id of this module.
func (m *CompiledModule) Self() ModuleID {
	return m.moduleID(m.SelfModuleHandleIdx)
}

// SelfAddress returns the package address declaring this module.
func (m *CompiledModule) SelfAddress() types.ObjectID {
	return m.Self().Address
}

func (m *CompiledModule) moduleID(idx uint16) ModuleID {
	handle := m.ModuleHandles[idx]

	return ModuleID{Address: m.AddressIdentifiers[handle.Address], Name: m.Identifiers[handle.Name]}
}

// ModuleHandleIDs returns every module referenced by the handle table, including the module itself.
func (m *CompiledModule) ModuleHandleIDs() []ModuleID {
	ids := make([]ModuleID, len(m.ModuleHandles))
	for i := range m.ModuleHandles {
		ids[i] = m.moduleID(uint16(i))
	}

	return ids
}

// ImmediateDependencies returns the modules referenced by the handle table except the module itself.
func (m *CompiledModule) ImmediateDependencies() []ModuleID {
	self := m.Self()

	return lo.Filter(m.ModuleHandleIDs(), func(id ModuleID) bool { return id != self })
}

// DependencyAddresses returns the distinct package addresses referenced by the module's handles.
func (m *CompiledModule) DependencyAddresses() []types.ObjectID {
	addresses := ds.NewSet[types.ObjectID]()
	for _, id := range m.ModuleHandleIDs() {
		addresses.Add(id.Address)
	}

	return addresses.ToSlice()
}

// StructHandleModule returns the module declaring the struct handle.
func (m *CompiledModule) StructHandleModule(idx uint16) ModuleID {
	return m.moduleID(m.StructHandles[idx].Module)
}

// StructHandleName returns the name of the struct handle.
func (m *CompiledModule) StructHandleName(idx uint16) string {
	return m.Identifiers[m.StructHandles[idx].Name]
}

// FindStruct returns the definition and handle of a struct declared by this module.
func (m *CompiledModule) FindStruct(name string) (*StructDefinition, *StructHandle, bool) {
	for i := range m.StructDefs {
		handle := &m.StructHandles[m.StructDefs[i].StructHandle]
		if m.Identifiers[handle.Name] == name {
			return &m.StructDefs[i], handle, true
		}
	}

	return nil, nil, false
}

// FieldName returns the name of a field.
func (m *CompiledModule) FieldName(field FieldDefinition) string {
	return m.Identifiers[field.Name]
}

func (m *CompiledModule) String() string {
	return stringify.Struct("CompiledModule",
		stringify.NewStructField("Self", m.Self().String()),
		stringify.NewStructField("Dependencies", lo.Map(m.ImmediateDependencies(), ModuleID.String)),
		stringify.NewStructField("Structs", len(m.StructDefs)),
	)
}
