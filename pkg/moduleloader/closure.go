package moduleloader

import (
	"bytes"
	"sort"

	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

// Closure is the transitive set of packages needed to interpret a type. It is computed per request and not persisted.
type Closure struct {
	root     types.StructTag
	packages map[types.ObjectID]*types.MovePackage
	modules  map[move.ModuleID]*move.CompiledModule
}

func newClosure(root types.StructTag) *Closure {
	return &Closure{
		root:     root,
		packages: make(map[types.ObjectID]*types.MovePackage),
		modules:  make(map[move.ModuleID]*move.CompiledModule),
	}
}

// NewClosure assembles a closure from already loaded packages.
func NewClosure(root types.StructTag, packages ...*types.MovePackage) (*Closure, error) {
	c := newClosure(root)
	for _, pkg := range packages {
		modules := make([]*move.CompiledModule, 0, len(pkg.Modules))
		for _, name := range pkg.ModuleNames() {
			module, err := move.ModuleFromBytes(pkg.Modules[name])
			if err != nil {
				return nil, err
			}
			modules = append(modules, module)
		}
		c.add(pkg, modules)
	}

	return c, nil
}

func (c *Closure) add(pkg *types.MovePackage, modules []*move.CompiledModule) {
	c.packages[pkg.ID] = pkg
	for _, module := range modules {
		c.modules[module.Self()] = module
	}
}

// Root returns the type the closure was computed for.
func (c *Closure) Root() types.StructTag {
	return c.root
}

// IDs returns the package ids in the closure in ascending byte order.
func (c *Closure) IDs() []types.ObjectID {
	ids := lo.Keys(c.packages)
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	return ids
}

// Has returns true if the package is part of the closure.
func (c *Closure) Has(id types.ObjectID) bool {
	_, exists := c.packages[id]

	return exists
}

// Package returns a package of the closure.
func (c *Closure) Package(id types.ObjectID) (*types.MovePackage, bool) {
	pkg, exists := c.packages[id]

	return pkg, exists
}

// Module returns the decoded module declared at address with the given name.
func (c *Closure) Module(address types.ObjectID, name string) (*move.CompiledModule, bool) {
	module, exists := c.modules[move.ModuleID{Address: address, Name: name}]

	return module, exists
}

// Size returns the number of packages.
func (c *Closure) Size() int {
	return len(c.packages)
}
