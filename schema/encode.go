package schema

import (
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
	"github.com/wippyai/ocamlrep/transcoder"
)

// Encoder converts dynamic Go values into OCaml values of a WIT shape.
//
// The dynamic forms are the ones produced by JSON and YAML decoders:
// records are map[string]any, tuples and lists are slices, options are nil
// or the payload, results are single-key maps {"ok": v} or {"error": v},
// variants are a case name (nullary) or a single-key map {name: payload},
// enums are case names and flags are a list of set flag names or a
// map[string]bool.
type Encoder struct {
	alloc ocamlrep.Allocator
	enc   *transcoder.Encoder
}

func NewEncoder(a ocamlrep.Allocator) *Encoder {
	return &Encoder{alloc: a, enc: transcoder.NewEncoder(a)}
}

// Encode converts v as shape t without opening a root scope.
func Encode(a ocamlrep.Allocator, t wit.Type, v any) (ocamlrep.Value, error) {
	return NewEncoder(a).Encode(t, v)
}

// AddRoot converts v as shape t in one root conversion of a.
func AddRoot(a ocamlrep.Allocator, t wit.Type, v any) (ocamlrep.Value, error) {
	e := NewEncoder(a)
	var err error
	out := a.AddRoot(func() ocamlrep.Value {
		var v2 ocamlrep.Value
		v2, err = e.Encode(t, v)
		return v2
	})
	if err != nil {
		return 0, err
	}
	return out, nil
}

func (e *Encoder) Encode(t wit.Type, v any) (ocamlrep.Value, error) {
	return e.encode(t, v, nil)
}

func mismatch(path []string, v any, t wit.Type) error {
	return errors.TypeMismatch(errors.PhaseEncode, path, fmt.Sprintf("%T", v), Describe(t))
}

func childPath(path []string, name string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = name
	return out
}

func (e *Encoder) encode(t wit.Type, v any, path []string) (ocamlrep.Value, error) {
	switch t := t.(type) {
	case wit.Bool:
		b, ok := v.(bool)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		return ocamlrep.Bool(b), nil
	case wit.U8:
		return encodeInt(path, v, t, 0, math.MaxUint8)
	case wit.U16:
		return encodeInt(path, v, t, 0, math.MaxUint16)
	case wit.U32:
		return encodeInt(path, v, t, 0, math.MaxUint32)
	case wit.U64:
		return encodeInt(path, v, t, 0, maxOCamlInt)
	case wit.S8:
		return encodeInt(path, v, t, math.MinInt8, math.MaxInt8)
	case wit.S16:
		return encodeInt(path, v, t, math.MinInt16, math.MaxInt16)
	case wit.S32:
		return encodeInt(path, v, t, math.MinInt32, math.MaxInt32)
	case wit.S64:
		return encodeInt(path, v, t, minOCamlInt, maxOCamlInt)
	case wit.F32, wit.F64:
		f, ok := coerceFloat(v)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		return ocamlrep.AllocFloat(e.alloc, f), nil
	case wit.Char:
		r, ok := coerceRune(v)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		return ocamlrep.Int(int(r)), nil
	case wit.String:
		switch s := v.(type) {
		case string:
			return e.enc.Encode(s), nil
		case []byte:
			return e.enc.Encode(s), nil
		}
		return 0, mismatch(path, v, t)
	case *wit.TypeDef:
		return e.encodeTypeDef(t, v, path)
	default:
		return 0, errors.Unsupported(errors.PhaseEncode, path, fmt.Sprintf("%T", v), "type "+Describe(t))
	}
}

func (e *Encoder) encodeTypeDef(t *wit.TypeDef, v any, path []string) (ocamlrep.Value, error) {
	switch k := t.Kind.(type) {
	case *wit.Record:
		m, ok := v.(map[string]any)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		fields := make([]ocamlrep.Value, len(k.Fields))
		for i, f := range k.Fields {
			fv, present := m[f.Name]
			if !present {
				return 0, errors.FieldMissing(errors.PhaseEncode, path, f.Name)
			}
			enc, err := e.encode(f.Type, fv, childPath(path, f.Name))
			if err != nil {
				return 0, err
			}
			fields[i] = enc
		}
		return ocamlrep.NewBlock(e.alloc, 0, fields...), nil

	case *wit.Tuple:
		elems, ok := asSlice(v)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		if len(elems) != len(k.Types) {
			return 0, errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
				Path(path...).Shape(Describe(t)).Expected(int64(len(k.Types)), int64(len(elems))).
				Detail("tuple needs %d elements, got %d", len(k.Types), len(elems)).Build()
		}
		fields := make([]ocamlrep.Value, len(elems))
		for i, ev := range elems {
			enc, err := e.encode(k.Types[i], ev, childPath(path, fmt.Sprintf("[%d]", i)))
			if err != nil {
				return 0, err
			}
			fields[i] = enc
		}
		return ocamlrep.NewBlock(e.alloc, 0, fields...), nil

	case *wit.List:
		elems, ok := asSlice(v)
		if !ok {
			if v != nil {
				return 0, mismatch(path, v, t)
			}
			elems = nil
		}
		vals := make([]ocamlrep.Value, len(elems))
		for i, ev := range elems {
			enc, err := e.encode(k.Type, ev, childPath(path, fmt.Sprintf("[%d]", i)))
			if err != nil {
				return 0, err
			}
			vals[i] = enc
		}
		return ocamlrep.AllocList(e.alloc, vals), nil

	case *wit.Option:
		payload := v
		if o, ok := v.(ocamlrep.Option[any]); ok {
			if !o.Valid {
				return ocamlrep.Unit, nil
			}
			payload = o.Value
		} else if v == nil {
			return ocamlrep.Unit, nil
		}
		enc, err := e.encode(k.Type, payload, childPath(path, "[some]"))
		if err != nil {
			return 0, err
		}
		return ocamlrep.NewBlock(e.alloc, 0, enc), nil

	case *wit.Result:
		name, payload, ok := singleEntry(v)
		if !ok || (name != "ok" && name != "error") {
			return 0, mismatch(path, v, t)
		}
		tag, pt := uint8(0), k.OK
		if name == "error" {
			tag, pt = 1, k.Err
		}
		enc := ocamlrep.Unit
		if pt != nil {
			var err error
			if enc, err = e.encode(pt, payload, childPath(path, name)); err != nil {
				return 0, err
			}
		}
		return ocamlrep.NewBlock(e.alloc, tag, enc), nil

	case *wit.Variant:
		return e.encodeVariant(t, k, v, path)

	case *wit.Enum:
		name, ok := v.(string)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		for i, c := range k.Cases {
			if c.Name == name {
				return ocamlrep.Int(i), nil
			}
		}
		return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("%q is not a case of %s", name, Describe(t)))

	case *wit.Flags:
		set, ok := flagSet(v)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		fields := make([]ocamlrep.Value, len(k.Flags))
		for i, f := range k.Flags {
			fields[i] = ocamlrep.Bool(set[f.Name])
			delete(set, f.Name)
		}
		if len(set) > 0 {
			unknown := slices.Sorted(maps.Keys(set))
			return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("%q is not a flag of %s", unknown[0], Describe(t)))
		}
		return ocamlrep.NewBlock(e.alloc, 0, fields...), nil

	case wit.Type:
		return e.encode(k, v, path)

	default:
		return 0, errors.Unsupported(errors.PhaseEncode, path, fmt.Sprintf("%T", v), "type "+Describe(t))
	}
}

func (e *Encoder) encodeVariant(t *wit.TypeDef, k *wit.Variant, v any, path []string) (ocamlrep.Value, error) {
	name, payload, hasPayload := singleEntry(v)
	if !hasPayload {
		s, ok := v.(string)
		if !ok {
			return 0, mismatch(path, v, t)
		}
		name = s
	}

	nullary, block := 0, 0
	for _, c := range k.Cases {
		if c.Name != name {
			if c.Type == nil {
				nullary++
			} else {
				block++
			}
			continue
		}
		if c.Type == nil {
			if hasPayload && payload != nil {
				return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("case %q takes no payload", name))
			}
			return ocamlrep.Int(nullary), nil
		}
		if !hasPayload {
			return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("case %q needs a payload", name))
		}
		enc, err := e.encode(c.Type, payload, childPath(path, name))
		if err != nil {
			return 0, err
		}
		return ocamlrep.NewBlock(e.alloc, uint8(block), enc), nil
	}
	return 0, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("%q is not a case of %s", name, Describe(t)))
}

const (
	maxOCamlInt = math.MaxInt64 >> 1
	minOCamlInt = math.MinInt64 >> 1
)

func encodeInt(path []string, v any, t wit.Type, lo, hi int64) (ocamlrep.Value, error) {
	n, ok := coerceInt(v)
	if !ok {
		return 0, mismatch(path, v, t)
	}
	if n < lo || n > hi {
		return 0, errors.New(errors.PhaseEncode, errors.KindIntOutOfRange).
			Path(path...).Shape(Describe(t)).Value(v).
			Detail("integer value %v out of range", v).Build()
	}
	return ocamlrep.Int(int(n)), nil
}

// coerceInt accepts any Go integer and integral floats. Unsigned values
// above MaxInt64 are reported as not coercible.
func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return coerceInt(float64(n))
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func coerceFloat(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	if n, ok := coerceInt(v); ok {
		return float64(n), true
	}
	return 0, false
}

func coerceRune(v any) (rune, bool) {
	if s, ok := v.(string); ok {
		r, size := utf8.DecodeRuneInString(s)
		return r, size == len(s) && r != utf8.RuneError
	}
	n, ok := coerceInt(v)
	if !ok || n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// asSlice returns the elements of any slice or array.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func singleEntry(v any) (string, any, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return "", nil, false
	}
	for k, val := range m {
		return k, val, true
	}
	return "", nil, false
}

func flagSet(v any) (map[string]bool, bool) {
	set := make(map[string]bool)
	if m, ok := v.(map[string]any); ok {
		for k, val := range m {
			b, ok := val.(bool)
			if !ok {
				return nil, false
			}
			if b {
				set[k] = true
			}
		}
		return set, true
	}
	if m, ok := v.(map[string]bool); ok {
		for k, b := range m {
			if b {
				set[k] = true
			}
		}
		return set, true
	}
	names, ok := asSlice(v)
	if !ok {
		return nil, false
	}
	for _, n := range names {
		s, ok := n.(string)
		if !ok {
			return nil, false
		}
		set[s] = true
	}
	return set, true
}
