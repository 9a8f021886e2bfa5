package moduleloader

import (
	"context"

	"github.com/zyedidia/generic/cache"
	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"

	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

// ObjectSource resolves objects, usually through the object cache with a backend fallback.
type ObjectSource interface {
	GetObject(ctx context.Context, id types.ObjectID) (*types.RawObject, error)
}

// ObjectSourceFunc adapts a function to ObjectSource.
type ObjectSourceFunc func(ctx context.Context, id types.ObjectID) (*types.RawObject, error)

func (f ObjectSourceFunc) GetObject(ctx context.Context, id types.ObjectID) (*types.RawObject, error) {
	return f(ctx, id)
}

// Loader loads the packages a type depends on.
type Loader struct {
	source ObjectSource
	logger log.Logger

	modules      *cache.Cache[move.ModuleID, *move.CompiledModule]
	modulesMutex syncutils.Mutex

	closuresResolved atomic.Uint64
	packagesFetched  atomic.Uint64

	optsModuleCacheSize int
}

// New creates a loader fetching packages from source.
func New(logger log.Logger, source ObjectSource, opts ...options.Option[Loader]) *Loader {
	return options.Apply(&Loader{
		source:              source,
		logger:              logger,
		optsModuleCacheSize: 1024,
	}, opts, func(l *Loader) {
		l.modules = cache.New[move.ModuleID, *move.CompiledModule](l.optsModuleCacheSize)
	})
}

// ResolveClosure loads the declaring package of root and of every struct in its type parameters, then every
// package referenced by any module of a loaded package, until nothing new is referenced. The result
// over-approximates the packages needed for the layout of root.
func (l *Loader) ResolveClosure(ctx context.Context, root types.StructTag) (*Closure, error) {
	closure := newClosure(root)
	seen := ds.NewSet[types.ObjectID]()

	// LIFO worklist, bounded by the longest dependency chain.
	worklist := collectPackages(types.NewStructTypeTag(root), nil)

	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if seen.Has(id) {
			continue
		}
		seen.Add(id)

		pkg, err := l.fetchPackage(ctx, id)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to resolve dependencies of %s", root)
		}

		modules, err := l.decodeModules(pkg)
		if err != nil {
			return nil, ierrors.Wrapf(err, "failed to resolve dependencies of %s", root)
		}

		for _, module := range modules {
			seen.Add(module.SelfAddress())

			for _, address := range module.DependencyAddresses() {
				if !seen.Has(address) {
					worklist = append(worklist, address)
				}
			}
		}

		closure.add(pkg, modules)
	}

	l.closuresResolved.Inc()
	l.logger.LogTrace("closure resolved", "type", root.String(), "packages", closure.Size())

	return closure, nil
}

// ClosuresResolved returns the number of successful ResolveClosure calls.
func (l *Loader) ClosuresResolved() uint64 {
	return l.closuresResolved.Load()
}

// PackagesFetched returns the number of package reads issued to the source.
func (l *Loader) PackagesFetched() uint64 {
	return l.packagesFetched.Load()
}

func (l *Loader) fetchPackage(ctx context.Context, id types.ObjectID) (*types.MovePackage, error) {
	l.packagesFetched.Inc()

	raw, err := l.source.GetObject(ctx, id)
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to fetch package %s", id)
	}

	if !raw.Exists() {
		return nil, ierrors.Wrapf(types.ErrInternalInvariantViolation, "dependency %s is %s", id, raw.Status)
	}
	if !raw.Object.IsPackage() {
		return nil, ierrors.Wrapf(types.ErrInternalInvariantViolation, "dependency %s is a move value of type %s, not a package", id, raw.Object.Type())
	}

	return raw.Object.Data.Package, nil
}

func (l *Loader) decodeModules(pkg *types.MovePackage) ([]*move.CompiledModule, error) {
	names := pkg.ModuleNames()
	modules := make([]*move.CompiledModule, 0, len(names))

	for _, name := range names {
		key := move.ModuleID{Address: pkg.ID, Name: name}

		l.modulesMutex.Lock()
		module, cached := l.modules.Get(key)
		l.modulesMutex.Unlock()

		if !cached {
			var err error
			if module, err = move.ModuleFromBytes(pkg.Modules[name]); err != nil {
				return nil, ierrors.Wrapf(err, "module %s of package %s", name, pkg.ID)
			}

			l.modulesMutex.Lock()
			l.modules.Put(key, module)
			l.modulesMutex.Unlock()
		}

		modules = append(modules, module)
	}

	return modules, nil
}

// collectPackages appends the declaring package of every struct inside tag.
func collectPackages(tag types.TypeTag, packages []types.ObjectID) []types.ObjectID {
	switch tag.Kind {
	case types.TypeTagVector:
		if tag.Elem != nil {
			return collectPackages(*tag.Elem, packages)
		}
	case types.TypeTagStruct:
		if tag.Struct != nil {
			packages = append(packages, tag.Struct.Address)
			for _, param := range tag.Struct.TypeParams {
				packages = collectPackages(param, packages)
			}
		}
	}

	return packages
}

// WithModuleCacheSize sets the number of decoded modules kept across calls.
func WithModuleCacheSize(size int) options.Option[Loader] {
	return func(l *Loader) {
		l.optsModuleCacheSize = size
	}
}
