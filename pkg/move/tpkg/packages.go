package tpkg

import (
	"github.com/iotaledger/hive.go/lo"

	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

// PackageObject builds a package object from module builders.
func PackageObject(id types.ObjectID, builders ...*move.Builder) *types.Object {
	modules := make(map[string][]byte, len(builders))
	for _, builder := range builders {
		module := lo.PanicOnErr(builder.Build())
		modules[module.Self().Name] = lo.PanicOnErr(module.Bytes())
	}

	return types.NewPackageObject(id, modules, types.EmptyTransactionDigest)
}

// SimplePackage builds a package with a single module "m" declaring struct S that references a struct in each
// dependency package.
func SimplePackage(id types.ObjectID, dependencies ...types.ObjectID) *types.Object {
	fields := make([]move.Field, 0, len(dependencies)+1)
	fields = append(fields, move.Field{Name: "id", Type: move.Address()})
	for i, dependency := range dependencies {
		fields = append(fields, move.Field{
			Name: "dep" + string(rune('a'+i)),
			Type: move.Struct(dependency, "m", "S"),
		})
	}

	return PackageObject(id, move.NewBuilder(id, "m").AddStruct("S", 0, fields...))
}
