package transcoder

import (
	"bytes"
	"reflect"
	"unicode/utf8"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/bump"
	"github.com/wippyai/ocamlrep/errors"
)

// Decoder reads Values into Go values, validating every tag and size on
// the way. It implements ocamlrep.Decoder.
//
// A Decoder with a scratch arena places the storage of decoded strings,
// byte slices and pointer-free slices in that arena; the results are valid
// until the arena is reset or released.
type Decoder struct {
	compiler *Compiler
	scratch  *bump.Arena
}

var _ ocamlrep.Decoder = (*Decoder)(nil)

func NewDecoder() *Decoder {
	return &Decoder{compiler: defaultCompiler}
}

func NewDecoderWithCompiler(c *Compiler) *Decoder {
	return &Decoder{compiler: c}
}

// NewScratchDecoder returns a Decoder that allocates into scratch.
func NewScratchDecoder(scratch *bump.Arena) *Decoder {
	return &Decoder{compiler: defaultCompiler, scratch: scratch}
}

// Decode reads v into out, which must be a non-nil pointer.
func Decode(v ocamlrep.Value, out any) error {
	return NewDecoder().Decode(v, out)
}

// DecodeIn is Decode with auxiliary storage taken from scratch.
func DecodeIn(v ocamlrep.Value, out any, scratch *bump.Arena) error {
	return NewScratchDecoder(scratch).Decode(v, out)
}

func (d *Decoder) Scratch() *bump.Arena {
	return d.scratch
}

func (d *Decoder) Decode(v ocamlrep.Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New(errors.PhaseDecode, errors.KindNilPointer).
			Detail("decode target must be a non-nil pointer, got %T", out).
			Build()
	}
	dst := rv.Elem()
	ct, err := d.compiler.Compile(dst.Type())
	if err != nil {
		return err
	}
	return d.decodeValue(ct, v, dst)
}

func (d *Decoder) decodeValue(ct *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	switch ct.Kind {
	case KindBool:
		b, err := ocamlrep.ExpectBool(v)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case KindInt:
		n, err := ocamlrep.ExpectInt(v)
		if err != nil {
			return err
		}
		if dst.OverflowInt(int64(n)) {
			return errors.IntOutOfRange(int64(n), ct.GoType.String())
		}
		dst.SetInt(int64(n))
	case KindUint:
		n, err := ocamlrep.ExpectInt(v)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return errors.IntOutOfRange(int64(n), ct.GoType.String())
		}
		dst.SetUint(uint64(n))
	case KindFloat:
		f, err := ocamlrep.FloatFromValue(v)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case KindString:
		return d.decodeString(v, dst)
	case KindBytes:
		return d.decodeBytes(v, dst)
	case KindList:
		return d.decodeSlice(ct, v, dst)
	case KindArray:
		return d.decodeArray(ct, v, dst)
	case KindRecord:
		b, err := ocamlrep.ExpectTuple(v, ct.BlockFields())
		if err != nil {
			return err
		}
		return d.decodeFields(ct, b, dst)
	case KindUnit:
		if err := ocamlrep.ExpectUnit(v); err != nil {
			return err
		}
		zeroSkipped(ct, dst)
	case KindPointer:
		p := reflect.New(ct.GoType.Elem())
		if err := d.decodeValue(ct.ElemType, v, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
	case KindMap:
		return d.decodeMap(ct, v, dst)
	case KindSet:
		return d.decodeSet(ct, v, dst)
	case KindVariant:
		return d.decodeVariant(ct, v, dst)
	case KindValue:
		dst.SetUint(uint64(v.Bits()))
	case KindCustom:
		if ct.Hooks&HookDecode == 0 {
			return errors.Unsupported(errors.PhaseDecode, nil, ct.GoType.String(), "type does not implement FromOCamlRep")
		}
		return dst.Addr().Interface().(ocamlrep.FromOCamlRep).FromOCamlRep(d, v)
	case KindDynamic:
		dst.Set(reflect.ValueOf(v))
	default:
		return errors.Unsupported(errors.PhaseDecode, nil, ct.GoType.String(), "unknown kind "+ct.Kind.String())
	}
	return nil
}

func (d *Decoder) decodeString(v ocamlrep.Value, dst reflect.Value) error {
	data, err := ocamlrep.BytesFromValue(v)
	if err != nil {
		return err
	}
	if !utf8.Valid(data) {
		return errors.BadUTF8(data, ocamlrep.ValidUTF8Prefix(data))
	}
	if d.scratch != nil {
		dst.SetString(d.scratch.CopyString(data))
	} else {
		dst.SetString(string(data))
	}
	return nil
}

func (d *Decoder) decodeBytes(v ocamlrep.Value, dst reflect.Value) error {
	data, err := ocamlrep.BytesFromValue(v)
	if err != nil {
		return err
	}
	if d.scratch != nil {
		dst.SetBytes(d.scratch.CopyBytes(data))
	} else {
		dst.SetBytes(bytes.Clone(data))
	}
	return nil
}

// listLength walks a cons spine and validates its terminator.
func listLength(v ocamlrep.Value) (int, error) {
	n := 0
	hd := v
	for hd.IsBlock() {
		b, err := ocamlrep.ExpectTuple(hd, 2)
		if err != nil {
			return 0, err
		}
		n++
		hd = b.Field(1)
	}
	if tail, _ := hd.AsInt(); tail != 0 {
		return 0, errors.ExpectedUnit(tail)
	}
	return n, nil
}

// decodeElements decodes the heads of the cons spine at v into dst[0:].
func (d *Decoder) decodeElements(elem *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	i := 0
	for hd := v; hd.IsBlock(); i++ {
		b, _ := hd.AsBlock()
		if err := d.decodeValue(elem, b.Field(0), dst.Index(i)); err != nil {
			return errors.InField(0, err)
		}
		hd = b.Field(1)
	}
	return nil
}

func (d *Decoder) decodeSlice(ct *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	n, err := listLength(v)
	if err != nil {
		return err
	}
	if n == 0 {
		dst.SetZero()
		return nil
	}
	s, ok := reflect.Value{}, false
	if d.scratch != nil {
		s, ok = d.scratch.MakeSlice(ct.GoType, n)
	}
	if !ok {
		s = reflect.MakeSlice(ct.GoType, n, n)
	}
	if err := d.decodeElements(ct.ElemType, v, s); err != nil {
		return err
	}
	dst.Set(s)
	return nil
}

func (d *Decoder) decodeArray(ct *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	n, err := listLength(v)
	if err != nil {
		return err
	}
	if n != dst.Len() {
		return errors.New(errors.PhaseDecode, errors.KindTypeMismatch).
			GoType(ct.GoType.String()).
			Expected(int64(dst.Len()), int64(n)).
			Detail("list of %d elements for array of %d", n, dst.Len()).
			Build()
	}
	return d.decodeElements(ct.ElemType, v, dst)
}

// decodeFields fills the record dst from b, whose size the caller checked.
func (d *Decoder) decodeFields(ct *CompiledType, b ocamlrep.Block, dst reflect.Value) error {
	slot := 0
	for _, f := range ct.Fields {
		field := dst.Field(f.Index)
		if f.Skip {
			if field.CanSet() {
				field.SetZero()
			}
			continue
		}
		if err := d.decodeValue(f.Type, b.Field(slot), field); err != nil {
			return errors.InField(slot, err)
		}
		slot++
	}
	return nil
}

func zeroSkipped(ct *CompiledType, dst reflect.Value) {
	for _, f := range ct.Fields {
		if field := dst.Field(f.Index); field.CanSet() {
			field.SetZero()
		}
	}
}

func (d *Decoder) decodeMap(ct *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	m := reflect.MakeMap(ct.GoType)
	keyType, valType := ct.GoType.Key(), ct.GoType.Elem()
	err := ocamlrep.MapEntries(v, func(key, val ocamlrep.Value) error {
		k := reflect.New(keyType).Elem()
		if err := d.decodeValue(ct.KeyType, key, k); err != nil {
			return errors.InField(1, err)
		}
		x := reflect.New(valType).Elem()
		if err := d.decodeValue(ct.ElemType, val, x); err != nil {
			return errors.InField(2, err)
		}
		m.SetMapIndex(k, x)
		return nil
	})
	if err != nil {
		return err
	}
	dst.Set(m)
	return nil
}

func (d *Decoder) decodeSet(ct *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	m := reflect.MakeMap(ct.GoType)
	keyType := ct.GoType.Key()
	present := reflect.Zero(ct.GoType.Elem())
	err := ocamlrep.SetElements(v, func(elem ocamlrep.Value) error {
		k := reflect.New(keyType).Elem()
		if err := d.decodeValue(ct.KeyType, elem, k); err != nil {
			return err
		}
		m.SetMapIndex(k, present)
		return nil
	})
	if err != nil {
		return err
	}
	dst.Set(m)
	return nil
}

func (d *Decoder) decodeVariant(ct *CompiledType, v ocamlrep.Value, dst reflect.Value) error {
	if n, ok := v.AsInt(); ok {
		if ct.Nullary == 0 {
			return errors.ExpectedBlock(n)
		}
		tag, err := ocamlrep.ExpectNullaryVariant(v, ct.Nullary-1)
		if err != nil {
			return err
		}
		cc, _ := caseByTag(ct, true, tag)
		dst.Set(reflect.New(cc.GoType).Elem())
		return nil
	}

	payload := ct.PayloadCases()
	if payload == 0 {
		return errors.ExpectedInt(v.Bits())
	}
	b, err := ocamlrep.ExpectVariantBlock(v, uint8(payload-1))
	if err != nil {
		return err
	}
	cc, _ := caseByTag(ct, false, int(b.Tag()))
	val := reflect.New(cc.GoType).Elem()
	if cc.Type.Kind == KindRecord {
		if err := ocamlrep.ExpectBlockSize(b, cc.Type.BlockFields()); err != nil {
			return err
		}
		if err := d.decodeFields(cc.Type, b, val); err != nil {
			return err
		}
	} else {
		if err := ocamlrep.ExpectBlockSize(b, 1); err != nil {
			return err
		}
		if err := d.decodeValue(cc.Type, b.Field(0), val); err != nil {
			return errors.InField(0, err)
		}
	}
	dst.Set(val)
	return nil
}
