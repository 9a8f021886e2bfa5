package layout

import (
	"go.uber.org/atomic"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"

	"github.com/ferat8/sui/pkg/moduleloader"
	"github.com/ferat8/sui/pkg/move"
	"github.com/ferat8/sui/pkg/types"
)

// Resolver computes field layouts from a dependency closure.
type Resolver struct {
	logger log.Logger
	memo   *layoutMemo

	cacheHits atomic.Uint64

	optsCacheSize int
	optsMaxDepth  int
}

func New(logger log.Logger, opts ...options.Option[Resolver]) *Resolver {
	return options.Apply(&Resolver{
		logger:        logger,
		optsCacheSize: 32 * 1024 * 1024,
		optsMaxDepth:  types.MaxTypeTagDepth,
	}, opts, func(r *Resolver) {
		r.memo = newLayoutMemo(r.optsCacheSize)
	})
}

// ComputeLayout returns the layout of tag. Every struct reached from tag must be declared by a module of the
// closure, otherwise the call fails with types.ErrMissingModule. Equal inputs yield equal layouts.
func (r *Resolver) ComputeLayout(tag types.StructTag, closure *moduleloader.Closure) (*move.StructLayout, error) {
	layout, cached, err := r.memo.getOrCompute([]byte(tag.String()), func() (*move.StructLayout, error) {
		return r.structLayout(tag, closure, 0)
	})
	if err != nil {
		return nil, err
	}

	if cached {
		// the memo is keyed by type only, the closure still has to cover it
		if err := covered(layout, closure); err != nil {
			return nil, err
		}
		r.cacheHits.Inc()
	}
	r.logger.LogTrace("layout resolved", "type", tag.String(), "cached", cached)

	return layout, nil
}

// CacheHits returns the number of layouts served from the memo.
func (r *Resolver) CacheHits() uint64 {
	return r.cacheHits.Load()
}

func (r *Resolver) structLayout(tag types.StructTag, closure *moduleloader.Closure, depth int) (*move.StructLayout, error) {
	if depth > r.optsMaxDepth {
		return nil, ierrors.Wrapf(types.ErrDecode, "layout of %s nested too deeply", tag)
	}

	module, found := closure.Module(tag.Address, tag.Module)
	if !found {
		return nil, ierrors.Wrapf(types.ErrMissingModule, "module %s::%s of %s not in closure of %s", tag.Address, tag.Module, tag, closure.Root())
	}

	definition, handle, found := module.FindStruct(tag.Name)
	if !found {
		return nil, ierrors.Wrapf(types.ErrMissingModule, "struct %s not declared by module %s", tag, module.Self())
	}
	if definition.Native {
		return nil, ierrors.Wrapf(types.ErrDecode, "struct %s is native", tag)
	}
	if int(handle.TypeParameters) != len(tag.TypeParams) {
		return nil, ierrors.Wrapf(types.ErrDecode, "struct %s expects %d type parameters", tag, handle.TypeParameters)
	}

	layout := &move.StructLayout{Type: tag, Fields: make([]move.FieldLayout, 0, len(definition.Fields))}
	for _, field := range definition.Fields {
		fieldTag, err := instantiate(module, field.Type, tag.TypeParams)
		if err != nil {
			return nil, ierrors.Wrapf(err, "field %s of %s", module.FieldName(field), tag)
		}

		fieldLayout, err := r.typeLayout(fieldTag, closure, depth+1)
		if err != nil {
			return nil, err
		}

		layout.Fields = append(layout.Fields, move.FieldLayout{Name: module.FieldName(field), Layout: fieldLayout})
	}

	return layout, nil
}

func (r *Resolver) typeLayout(tag types.TypeTag, closure *moduleloader.Closure, depth int) (move.TypeLayout, error) {
	switch tag.Kind {
	case types.TypeTagBool:
		return move.TypeLayout{Kind: move.LayoutBool}, nil
	case types.TypeTagU8:
		return move.TypeLayout{Kind: move.LayoutU8}, nil
	case types.TypeTagU64:
		return move.TypeLayout{Kind: move.LayoutU64}, nil
	case types.TypeTagU128:
		return move.TypeLayout{Kind: move.LayoutU128}, nil
	case types.TypeTagAddress:
		return move.TypeLayout{Kind: move.LayoutAddress}, nil
	case types.TypeTagSigner:
		return move.TypeLayout{Kind: move.LayoutSigner}, nil
	case types.TypeTagVector:
		elem, err := r.typeLayout(*tag.Elem, closure, depth+1)
		if err != nil {
			return move.TypeLayout{}, err
		}

		return move.TypeLayout{Kind: move.LayoutVector, Elem: &elem}, nil
	case types.TypeTagStruct:
		structLayout, err := r.structLayout(*tag.Struct, closure, depth)
		if err != nil {
			return move.TypeLayout{}, err
		}

		return move.TypeLayout{Kind: move.LayoutStruct, Struct: structLayout}, nil
	default:
		return move.TypeLayout{}, ierrors.Wrapf(types.ErrDecode, "unknown type tag kind %d", tag.Kind)
	}
}

// instantiate turns a signature token of module into a type tag, substituting type parameters.
func instantiate(module *move.CompiledModule, token move.SignatureToken, params []types.TypeTag) (types.TypeTag, error) {
	switch token.Kind {
	case move.TokenBool:
		return types.NewPrimitiveTypeTag(types.TypeTagBool), nil
	case move.TokenU8:
		return types.NewPrimitiveTypeTag(types.TypeTagU8), nil
	case move.TokenU64:
		return types.NewPrimitiveTypeTag(types.TypeTagU64), nil
	case move.TokenU128:
		return types.NewPrimitiveTypeTag(types.TypeTagU128), nil
	case move.TokenAddress:
		return types.NewPrimitiveTypeTag(types.TypeTagAddress), nil
	case move.TokenSigner:
		return types.NewPrimitiveTypeTag(types.TypeTagSigner), nil
	case move.TokenVector:
		elem, err := instantiate(module, *token.Elem, params)
		if err != nil {
			return types.TypeTag{}, err
		}

		return types.NewVectorTypeTag(elem), nil
	case move.TokenStruct, move.TokenStructInstantiation:
		declaring := module.StructHandleModule(token.StructHandle)
		tag := types.StructTag{
			Address: declaring.Address,
			Module:  declaring.Name,
			Name:    module.StructHandleName(token.StructHandle),
		}
		for _, argument := range token.TypeArguments {
			param, err := instantiate(module, argument, params)
			if err != nil {
				return types.TypeTag{}, err
			}
			tag.TypeParams = append(tag.TypeParams, param)
		}

		return types.NewStructTypeTag(tag), nil
	case move.TokenTypeParameter:
		if int(token.TypeParameter) >= len(params) {
			return types.TypeTag{}, ierrors.Wrapf(types.ErrDecode, "type parameter %d out of bounds", token.TypeParameter)
		}

		return params[token.TypeParameter], nil
	default:
		return types.TypeTag{}, ierrors.Wrapf(types.ErrDecode, "unknown token kind %d", token.Kind)
	}
}

// covered checks that every struct of layout is declared by a module of closure.
func covered(layout *move.StructLayout, closure *moduleloader.Closure) error {
	if _, found := closure.Module(layout.Type.Address, layout.Type.Module); !found {
		return ierrors.Wrapf(types.ErrMissingModule, "module %s::%s of %s not in closure of %s", layout.Type.Address, layout.Type.Module, layout.Type, closure.Root())
	}

	for _, field := range layout.Fields {
		fieldLayout := field.Layout
		for fieldLayout.Kind == move.LayoutVector {
			fieldLayout = *fieldLayout.Elem
		}
		if fieldLayout.Kind == move.LayoutStruct {
			if err := covered(fieldLayout.Struct, closure); err != nil {
				return err
			}
		}
	}

	return nil
}

// WithCacheSize sets the memory used by the layout memo in bytes.
func WithCacheSize(size int) options.Option[Resolver] {
	return func(r *Resolver) {
		r.optsCacheSize = size
	}
}

// WithMaxDepth limits the nesting of structs and vectors.
func WithMaxDepth(depth int) options.Option[Resolver] {
	return func(r *Resolver) {
		r.optsMaxDepth = depth
	}
}
