package schema

import (
	"math"
	"unicode/utf8"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
)

// Decode reads v as shape t into the dynamic forms accepted by Encode.
// Signed integers decode to int64, unsigned ones to uint64, f32 to float32,
// f64 to float64 and char to rune. Options decode to nil or the payload,
// flags to the list of set flag names.
func Decode(t wit.Type, v ocamlrep.Value) (any, error) {
	switch t := t.(type) {
	case wit.Bool:
		return ocamlrep.ExpectBool(v)
	case wit.U8:
		return decodeUint(v, "u8", math.MaxUint8)
	case wit.U16:
		return decodeUint(v, "u16", math.MaxUint16)
	case wit.U32:
		return decodeUint(v, "u32", math.MaxUint32)
	case wit.U64:
		return decodeUint(v, "u64", math.MaxInt64)
	case wit.S8:
		return decodeInt(v, "s8", math.MinInt8, math.MaxInt8)
	case wit.S16:
		return decodeInt(v, "s16", math.MinInt16, math.MaxInt16)
	case wit.S32:
		return decodeInt(v, "s32", math.MinInt32, math.MaxInt32)
	case wit.S64:
		return decodeInt(v, "s64", math.MinInt64, math.MaxInt64)
	case wit.F32:
		f, err := ocamlrep.FloatFromValue(v)
		return float32(f), err
	case wit.F64:
		return ocamlrep.FloatFromValue(v)
	case wit.Char:
		n, err := ocamlrep.ExpectInt(v)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
			return nil, errors.New(errors.PhaseDecode, errors.KindExpectedChar).
				Max(utf8.MaxRune, int64(n)).
				Detail("expected unicode scalar value, but got %d", n).Build()
		}
		return rune(n), nil
	case wit.String:
		return ocamlrep.StringFromValue(v)
	case *wit.TypeDef:
		return decodeTypeDef(t, v)
	default:
		return nil, errors.Unsupported(errors.PhaseDecode, nil, "", "type "+Describe(t))
	}
}

func decodeInt(v ocamlrep.Value, name string, lo, hi int64) (any, error) {
	n, err := ocamlrep.ExpectInt(v)
	if err != nil {
		return nil, err
	}
	if int64(n) < lo || int64(n) > hi {
		return nil, errors.IntOutOfRange(int64(n), name)
	}
	return int64(n), nil
}

func decodeUint(v ocamlrep.Value, name string, hi int64) (any, error) {
	n, err := ocamlrep.ExpectInt(v)
	if err != nil {
		return nil, err
	}
	if n < 0 || int64(n) > hi {
		return nil, errors.IntOutOfRange(int64(n), name)
	}
	return uint64(n), nil
}

// fields decodes every field of b with its type, attributing failures to
// the field index.
func fields(b ocamlrep.Block, types []wit.Type) ([]any, error) {
	out := make([]any, len(types))
	for i, ft := range types {
		fv, err := Decode(ft, b.Field(i))
		if err != nil {
			return nil, errors.InField(i, err)
		}
		out[i] = fv
	}
	return out, nil
}

// expectProduct accepts the shape of a record, tuple or flags of n fields:
// unit when n is 0 and a tag-0 block of n fields otherwise.
func expectProduct(v ocamlrep.Value, n int) (ocamlrep.Block, error) {
	if n == 0 {
		return ocamlrep.Block{}, ocamlrep.ExpectUnit(v)
	}
	return ocamlrep.ExpectTuple(v, n)
}

func decodeTypeDef(t *wit.TypeDef, v ocamlrep.Value) (any, error) {
	switch k := t.Kind.(type) {
	case *wit.Record:
		b, err := expectProduct(v, len(k.Fields))
		if err != nil {
			return nil, err
		}
		types := make([]wit.Type, len(k.Fields))
		for i, f := range k.Fields {
			types[i] = f.Type
		}
		vals, err := fields(b, types)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(vals))
		for i, f := range k.Fields {
			out[f.Name] = vals[i]
		}
		return out, nil

	case *wit.Tuple:
		b, err := expectProduct(v, len(k.Types))
		if err != nil {
			return nil, err
		}
		return fields(b, k.Types)

	case *wit.List:
		var out []any
		hd := v
		for hd.IsBlock() {
			cell, err := ocamlrep.ExpectTuple(hd, 2)
			if err != nil {
				return nil, err
			}
			elem, err := Decode(k.Type, cell.Field(0))
			if err != nil {
				return nil, errors.InField(0, err)
			}
			out = append(out, elem)
			hd = cell.Field(1)
		}
		if err := ocamlrep.ExpectUnit(hd); err != nil {
			return nil, err
		}
		if out == nil {
			out = []any{}
		}
		return out, nil

	case *wit.Option:
		if v.IsInt() {
			if _, err := ocamlrep.ExpectNullaryVariant(v, 0); err != nil {
				return nil, err
			}
			return nil, nil
		}
		b, err := ocamlrep.ExpectTuple(v, 1)
		if err != nil {
			return nil, err
		}
		vals, err := fields(b, []wit.Type{k.Type})
		if err != nil {
			return nil, err
		}
		return vals[0], nil

	case *wit.Result:
		b, err := ocamlrep.ExpectVariantBlock(v, 1)
		if err != nil {
			return nil, err
		}
		if err := ocamlrep.ExpectBlockSize(b, 1); err != nil {
			return nil, err
		}
		name, pt := "ok", k.OK
		if b.Tag() == 1 {
			name, pt = "error", k.Err
		}
		var payload any
		if pt == nil {
			if err := ocamlrep.ExpectUnit(b.Field(0)); err != nil {
				return nil, errors.InField(0, err)
			}
		} else {
			vals, err := fields(b, []wit.Type{pt})
			if err != nil {
				return nil, err
			}
			payload = vals[0]
		}
		return map[string]any{name: payload}, nil

	case *wit.Variant:
		return decodeVariant(k, v)

	case *wit.Enum:
		if len(k.Cases) == 0 {
			return nil, errors.InvalidInput(errors.PhaseDecode, "enum without cases has no values")
		}
		i, err := ocamlrep.ExpectNullaryVariant(v, len(k.Cases)-1)
		if err != nil {
			return nil, err
		}
		return k.Cases[i].Name, nil

	case *wit.Flags:
		b, err := expectProduct(v, len(k.Flags))
		if err != nil {
			return nil, err
		}
		set := []string{}
		for i, f := range k.Flags {
			on, err := ocamlrep.ExpectBool(b.Field(i))
			if err != nil {
				return nil, errors.InField(i, err)
			}
			if on {
				set = append(set, f.Name)
			}
		}
		return set, nil

	case wit.Type:
		return Decode(k, v)

	default:
		return nil, errors.Unsupported(errors.PhaseDecode, nil, "", "type "+Describe(t))
	}
}

func decodeVariant(k *wit.Variant, v ocamlrep.Value) (any, error) {
	var nullary, block []wit.Case
	for _, c := range k.Cases {
		if c.Type == nil {
			nullary = append(nullary, c)
		} else {
			block = append(block, c)
		}
	}

	if v.IsInt() {
		if len(nullary) == 0 {
			n, _ := v.AsInt()
			return nil, errors.ExpectedBlock(n)
		}
		i, err := ocamlrep.ExpectNullaryVariant(v, len(nullary)-1)
		if err != nil {
			return nil, err
		}
		return nullary[i].Name, nil
	}
	if len(block) == 0 {
		b, _ := v.AsBlock()
		return nil, errors.New(errors.PhaseDecode, errors.KindExpectedInt).
			Detail("expected nullary variant, but got block with tag %d", b.Tag()).Build()
	}
	b, err := ocamlrep.ExpectVariantBlock(v, uint8(len(block)-1))
	if err != nil {
		return nil, err
	}
	if err := ocamlrep.ExpectBlockSize(b, 1); err != nil {
		return nil, err
	}
	c := block[b.Tag()]
	vals, err := fields(b, []wit.Type{c.Type})
	if err != nil {
		return nil, err
	}
	return map[string]any{c.Name: vals[0]}, nil
}
