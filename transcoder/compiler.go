package transcoder

import (
	"reflect"
	"sync"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
	"github.com/wippyai/ocamlrep/transcoder/internal/types"
)

var (
	valueType = reflect.TypeFor[ocamlrep.Value]()
	byteType  = reflect.TypeFor[byte]()
	toRepType = reflect.TypeFor[ocamlrep.ToOCamlRep]()
	fromType  = reflect.TypeFor[ocamlrep.FromOCamlRep]()
)

// Compiler derives the OCaml representation of Go types and caches it.
// A Compiler is safe for concurrent use.
type Compiler struct {
	cache sync.Map // reflect.Type -> *CompiledType
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

var defaultCompiler = NewCompiler()

func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.New(errors.PhaseCompile, errors.KindNilPointer).
			Detail("Go type cannot be nil").
			Build()
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	seen := make(map[reflect.Type]*CompiledType)
	ct, err := c.compile(goType, nil, seen)
	if err != nil {
		return nil, err
	}

	// Recursive types reference the placeholders in seen, so every entry
	// is published together.
	for t, entry := range seen {
		c.cache.LoadOrStore(t, entry)
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}
	return ct, nil
}

func (c *Compiler) compile(goType reflect.Type, path []string, seen map[reflect.Type]*CompiledType) (*CompiledType, error) {
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}
	if ct, ok := seen[goType]; ok {
		return ct, nil
	}

	ct := &CompiledType{GoType: goType, GoSize: goType.Size()}
	seen[goType] = ct

	if goType == valueType {
		ct.Kind = KindValue
		return ct, nil
	}
	if hooks := hooksOf(goType); hooks != 0 {
		ct.Kind = KindCustom
		ct.Hooks = hooks
		return ct, nil
	}

	var err error
	switch goType.Kind() {
	case reflect.Bool:
		ct.Kind = KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ct.Kind = KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		ct.Kind = KindUint
	case reflect.Float32, reflect.Float64:
		ct.Kind = KindFloat
	case reflect.String:
		ct.Kind = KindString
	case reflect.Slice:
		err = c.compileSlice(ct, path, seen)
	case reflect.Array:
		ct.Kind = KindArray
		ct.ElemType, err = c.compile(goType.Elem(), childPath(path, "[elem]"), seen)
	case reflect.Struct:
		err = c.compileStruct(ct, path, seen)
	case reflect.Pointer:
		ct.Kind = KindPointer
		ct.ElemType, err = c.compile(goType.Elem(), path, seen)
	case reflect.Map:
		err = c.compileMap(ct, path, seen)
	case reflect.Interface:
		err = c.compileInterface(ct, path, seen)
	default:
		err = errors.Unsupported(errors.PhaseCompile, path, goType.String(),
			"no OCaml representation for "+goType.Kind().String())
	}
	if err != nil {
		delete(seen, goType)
		return nil, err
	}
	return ct, nil
}

// hooksOf reports the conversion methods of a non-pointer, non-interface
// type. Pointers are handled structurally so that their targets are shared.
func hooksOf(t reflect.Type) types.Hooks {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return 0
	}
	var h types.Hooks
	ptr := reflect.PointerTo(t)
	if t.Implements(toRepType) {
		h |= types.HookEncode
	} else if ptr.Implements(toRepType) {
		h |= types.HookEncodeAddr
	}
	if ptr.Implements(fromType) {
		h |= types.HookDecode
	}
	return h
}

func (c *Compiler) compileSlice(ct *CompiledType, path []string, seen map[reflect.Type]*CompiledType) error {
	if ct.GoType.Elem() == byteType {
		ct.Kind = KindBytes
		return nil
	}
	elem, err := c.compile(ct.GoType.Elem(), childPath(path, "[elem]"), seen)
	if err != nil {
		return err
	}
	ct.Kind = KindList
	ct.ElemType = elem
	return nil
}

// compileStruct maps exported fields to block slots in declaration order.
// Unexported fields and fields tagged ocaml:"-" are skipped.
func (c *Compiler) compileStruct(ct *CompiledType, path []string, seen map[reflect.Type]*CompiledType) error {
	goType := ct.GoType
	fields := make([]CompiledField, 0, goType.NumField())
	for i := 0; i < goType.NumField(); i++ {
		f := goType.Field(i)
		if !f.IsExported() || f.Tag.Get("ocaml") == "-" {
			fields = append(fields, CompiledField{Name: f.Name, Index: i, Skip: true})
			continue
		}
		fieldType, err := c.compile(f.Type, childPath(path, f.Name), seen)
		if err != nil {
			return err
		}
		fields = append(fields, CompiledField{
			Name:  f.Name,
			Index: i,
			Type:  fieldType,
		})
	}
	ct.Fields = fields
	if ct.BlockFields() == 0 {
		ct.Kind = KindUnit
	} else {
		ct.Kind = KindRecord
	}
	return nil
}

func (c *Compiler) compileMap(ct *CompiledType, path []string, seen map[reflect.Type]*CompiledType) error {
	goType := ct.GoType
	if !isOrderedKind(goType.Key().Kind()) {
		return errors.Unsupported(errors.PhaseCompile, path, goType.String(),
			"map keys must be booleans, numbers or strings")
	}
	key, err := c.compile(goType.Key(), childPath(path, "[key]"), seen)
	if err != nil {
		return err
	}
	ct.KeyType = key

	if elem := goType.Elem(); elem.Kind() == reflect.Struct && elem.NumField() == 0 {
		ct.Kind = KindSet
		return nil
	}
	val, err := c.compile(goType.Elem(), childPath(path, "[value]"), seen)
	if err != nil {
		return err
	}
	ct.Kind = KindMap
	ct.ElemType = val
	return nil
}

func isOrderedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func (c *Compiler) compileInterface(ct *CompiledType, path []string, seen map[reflect.Type]*CompiledType) error {
	goType := ct.GoType
	if goType.NumMethod() == 0 {
		ct.Kind = KindDynamic
		return nil
	}
	caseTypes, ok := lookupVariants(goType)
	if !ok {
		return errors.Unsupported(errors.PhaseCompile, path, goType.String(),
			"interface has no registered variants")
	}

	cases := make([]CompiledCase, 0, len(caseTypes))
	nullary, payload := 0, 0
	for _, t := range caseTypes {
		caseType, err := c.compile(t, childPath(path, t.Name()), seen)
		if err != nil {
			return err
		}
		cc := CompiledCase{GoType: t, Name: t.Name()}
		if caseType.Kind == KindUnit {
			cc.Nullary = true
			cc.Tag = nullary
			nullary++
		} else {
			cc.Type = caseType
			cc.Tag = payload
			payload++
		}
		cases = append(cases, cc)
	}
	if payload > maxPayloadCases {
		return errors.Unsupported(errors.PhaseCompile, path, goType.String(),
			"too many payload cases for the available block tags")
	}

	ct.Kind = KindVariant
	ct.Cases = cases
	ct.Nullary = nullary
	return nil
}

func childPath(path []string, name string) []string {
	return append(append([]string{}, path...), name)
}

// caseByType returns the case registered for the dynamic type t.
func caseByType(ct *CompiledType, t reflect.Type) (*CompiledCase, bool) {
	for i := range ct.Cases {
		if ct.Cases[i].GoType == t {
			return &ct.Cases[i], true
		}
	}
	return nil, false
}

// caseByTag returns the nullary or payload case numbered tag.
func caseByTag(ct *CompiledType, nullary bool, tag int) (*CompiledCase, bool) {
	for i := range ct.Cases {
		if ct.Cases[i].Nullary == nullary && ct.Cases[i].Tag == tag {
			return &ct.Cases[i], true
		}
	}
	return nil, false
}
