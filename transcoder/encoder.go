package transcoder

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"unsafe"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
)

// Encoder writes Go values into an Allocator. It implements
// ocamlrep.Encoder so types with their own ToOCamlRep can recurse through it.
type Encoder struct {
	compiler *Compiler
	alloc    ocamlrep.Allocator
}

var _ ocamlrep.Encoder = (*Encoder)(nil)

func NewEncoder(a ocamlrep.Allocator) *Encoder {
	return &Encoder{compiler: defaultCompiler, alloc: a}
}

func NewEncoderWithCompiler(c *Compiler, a ocamlrep.Allocator) *Encoder {
	return &Encoder{compiler: c, alloc: a}
}

// Encode converts v without opening a root scope.
func Encode(a ocamlrep.Allocator, v any) ocamlrep.Value {
	return NewEncoder(a).Encode(v)
}

// AddRoot converts v as one root conversion of a: sources reached more than
// once are encoded once and share the resulting Value.
func AddRoot(a ocamlrep.Allocator, v any) ocamlrep.Value {
	enc := NewEncoder(a)
	return a.AddRoot(func() ocamlrep.Value {
		return enc.Encode(v)
	})
}

func (e *Encoder) Alloc() ocamlrep.Allocator {
	return e.alloc
}

// Encode converts v. A nil interface encodes as unit. Types with no OCaml
// representation and nil pointers panic with an *errors.Error.
func (e *Encoder) Encode(v any) ocamlrep.Value {
	if v == nil {
		return ocamlrep.Unit
	}
	rv := reflect.ValueOf(v)
	return e.encodeValue(e.mustCompile(rv.Type()), rv)
}

func (e *Encoder) mustCompile(t reflect.Type) *CompiledType {
	ct, err := e.compiler.Compile(t)
	if err != nil {
		panic(err)
	}
	return ct
}

func (e *Encoder) encodeValue(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	switch ct.Kind {
	case KindBool:
		return ocamlrep.Bool(rv.Bool())
	case KindInt:
		return ocamlrep.Int(int(rv.Int()))
	case KindUint:
		return ocamlrep.Int(int(rv.Uint()))
	case KindFloat:
		return ocamlrep.AllocFloat(e.alloc, rv.Float())
	case KindString:
		return e.encodeString(rv.String())
	case KindBytes:
		return e.encodeBytes(rv.Bytes())
	case KindList:
		return e.encodeSlice(ct, rv)
	case KindArray:
		return e.encodeList(ct.ElemType, rv)
	case KindRecord:
		return e.encodeRecord(ct, rv, 0)
	case KindUnit:
		return ocamlrep.Unit
	case KindPointer:
		return e.encodePointer(ct, rv)
	case KindMap:
		return e.encodeMap(ct, rv)
	case KindSet:
		return e.encodeSet(ct, rv)
	case KindVariant:
		return e.encodeVariant(ct, rv)
	case KindValue:
		return ocamlrep.FromBits(uintptr(rv.Uint()))
	case KindCustom:
		return e.encodeCustom(ct, rv)
	case KindDynamic:
		if rv.IsNil() {
			return ocamlrep.Unit
		}
		concrete := rv.Elem()
		return e.encodeValue(e.mustCompile(concrete.Type()), concrete)
	default:
		panic(errors.Unsupported(errors.PhaseEncode, nil, ct.GoType.String(), "unknown kind "+ct.Kind.String()))
	}
}

// Zero-length strings and slices are never memoized: they share no storage
// and their keys would collide across types.

func (e *Encoder) encodeString(s string) ocamlrep.Value {
	if len(s) == 0 {
		return ocamlrep.AllocBytes(e.alloc, nil)
	}
	addr := uintptr(unsafe.Pointer(unsafe.StringData(s)))
	return e.alloc.Memoized(addr, len(s), func() ocamlrep.Value {
		return ocamlrep.AllocString(e.alloc, s)
	})
}

func (e *Encoder) encodeBytes(b []byte) ocamlrep.Value {
	if len(b) == 0 {
		return ocamlrep.AllocBytes(e.alloc, nil)
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return e.alloc.Memoized(addr, len(b), func() ocamlrep.Value {
		return ocamlrep.AllocBytes(e.alloc, b)
	})
}

func (e *Encoder) encodeSlice(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	n := rv.Len()
	if n == 0 {
		return ocamlrep.Int(0)
	}
	size := n * int(ct.ElemType.GoSize)
	if size == 0 {
		return e.encodeList(ct.ElemType, rv)
	}
	return e.alloc.Memoized(rv.Pointer(), size, func() ocamlrep.Value {
		return e.encodeList(ct.ElemType, rv)
	})
}

// encodeList builds the cons spine from the last element backwards.
func (e *Encoder) encodeList(elem *CompiledType, rv reflect.Value) ocamlrep.Value {
	list := ocamlrep.Int(0)
	for i := rv.Len() - 1; i >= 0; i-- {
		b := ocamlrep.BlockWithSize(e.alloc, 2)
		e.alloc.SetField(&b, 0, e.encodeValue(elem, rv.Index(i)))
		e.alloc.SetField(&b, 1, list)
		list = b.Build()
	}
	return list
}

func (e *Encoder) encodeRecord(ct *CompiledType, rv reflect.Value, tag uint8) ocamlrep.Value {
	b := e.alloc.BlockWithSizeAndTag(ct.BlockFields(), tag)
	slot := 0
	for _, f := range ct.Fields {
		if f.Skip {
			continue
		}
		e.alloc.SetField(&b, slot, e.encodeValue(f.Type, rv.Field(f.Index)))
		slot++
	}
	return b.Build()
}

func (e *Encoder) encodePointer(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	if rv.IsNil() {
		panic(errors.New(errors.PhaseEncode, errors.KindNilPointer).
			GoType(ct.GoType.String()).
			Detail("cannot encode nil pointer").
			Build())
	}
	size := int(ct.ElemType.GoSize)
	if size == 0 {
		return e.encodeValue(ct.ElemType, rv.Elem())
	}
	return e.alloc.Memoized(rv.Pointer(), size, func() ocamlrep.Value {
		return e.encodeValue(ct.ElemType, rv.Elem())
	})
}

func (e *Encoder) encodeMap(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	pairs := sortedEntries(ct, rv)
	entries := func(yield func(ocamlrep.Value, ocamlrep.Value) bool) {
		for _, p := range pairs {
			if !yield(e.encodeValue(ct.KeyType, p.key), e.encodeValue(ct.ElemType, p.val)) {
				return
			}
		}
	}
	return ocamlrep.SortedMap(e.alloc, entries, len(pairs))
}

func (e *Encoder) encodeSet(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	pairs := sortedEntries(ct, rv)
	elems := func(yield func(ocamlrep.Value) bool) {
		for _, p := range pairs {
			if !yield(e.encodeValue(ct.KeyType, p.key)) {
				return
			}
		}
	}
	return ocamlrep.SortedSet(e.alloc, elems, len(pairs))
}

type mapEntry struct {
	key, val reflect.Value
}

// sortedEntries collects the entries of rv in ascending key order. NaN keys
// cannot be looked up again and compare equal to each other, so a map may
// hold at most one; it sorts below every other float.
func sortedEntries(ct *CompiledType, rv reflect.Value) []mapEntry {
	pairs := make([]mapEntry, 0, rv.Len())
	nans := 0
	for it := rv.MapRange(); it.Next(); {
		k := it.Key()
		if isNaNKey(k) {
			nans++
		}
		pairs = append(pairs, mapEntry{key: k, val: it.Value()})
	}
	if nans > 1 {
		panic(errors.Unsupported(errors.PhaseEncode, nil, ct.GoType.String(),
			fmt.Sprintf("map holds %d NaN keys; at most one can be ordered", nans)))
	}
	slices.SortFunc(pairs, func(a, b mapEntry) int { return compareKeys(a.key, b.key) })
	return pairs
}

func isNaNKey(k reflect.Value) bool {
	switch k.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(k.Float())
	default:
		return false
	}
}

func compareKeys(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0
		case b.Bool():
			return -1
		default:
			return 1
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		// cmp.Compare orders NaN first, as OCaml's compare does.
		return cmp.Compare(a.Float(), b.Float())
	default:
		return cmp.Compare(a.String(), b.String())
	}
}

func (e *Encoder) encodeVariant(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	if rv.IsNil() {
		panic(errors.New(errors.PhaseEncode, errors.KindNilPointer).
			GoType(ct.GoType.String()).
			Detail("cannot encode nil variant").
			Build())
	}
	concrete := rv.Elem()
	cc, ok := caseByType(ct, concrete.Type())
	if !ok {
		panic(errors.Unsupported(errors.PhaseEncode, nil, concrete.Type().String(),
			"not a registered case of "+ct.GoType.String()))
	}
	if cc.Nullary {
		return ocamlrep.Int(cc.Tag)
	}
	if cc.Type.Kind == KindRecord {
		return e.encodeRecord(cc.Type, concrete, uint8(cc.Tag))
	}
	b := e.alloc.BlockWithSizeAndTag(1, uint8(cc.Tag))
	e.alloc.SetField(&b, 0, e.encodeValue(cc.Type, concrete))
	return b.Build()
}

func (e *Encoder) encodeCustom(ct *CompiledType, rv reflect.Value) ocamlrep.Value {
	switch {
	case ct.Hooks&HookEncode != 0:
		return rv.Interface().(ocamlrep.ToOCamlRep).ToOCamlRep(e)
	case ct.Hooks&HookEncodeAddr != 0:
		return addressOf(rv).Interface().(ocamlrep.ToOCamlRep).ToOCamlRep(e)
	default:
		panic(errors.Unsupported(errors.PhaseEncode, nil, ct.GoType.String(), "type does not implement ToOCamlRep"))
	}
}

// addressOf returns a pointer to rv, copying it when rv is not addressable.
func addressOf(rv reflect.Value) reflect.Value {
	if rv.CanAddr() {
		return rv.Addr()
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p
}
