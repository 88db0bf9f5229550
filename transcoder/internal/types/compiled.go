package types

import (
	"reflect"
)

// Hooks records which conversion methods a custom type provides and on
// which receiver.
type Hooks uint8

const (
	HookEncode     Hooks = 1 << iota // the type itself implements ToOCamlRep
	HookEncodeAddr                   // only the pointer to the type does
	HookDecode                       // the pointer to the type implements FromOCamlRep
)

type CompiledType struct {
	GoType   reflect.Type
	ElemType *CompiledType // list, array, pointer elements; map values
	KeyType  *CompiledType // map and set keys
	Cases    []Case
	Fields   []Field
	GoSize   uintptr
	Kind     Kind
	Hooks    Hooks
	Nullary  int // number of nullary cases of a variant
}

type Field struct {
	Type  *CompiledType
	Name  string
	Index int // index into the Go struct
	Skip  bool
}

// Case is one registered implementation of a variant interface. Nullary
// cases number among nullary cases only and payload cases among payload
// cases only, each in registration order.
type Case struct {
	Type    *CompiledType // payload; nil for nullary cases
	GoType  reflect.Type
	Name    string
	Tag     int
	Nullary bool
}

// BlockFields returns the fields that occupy block slots.
func (ct *CompiledType) BlockFields() int {
	n := 0
	for _, f := range ct.Fields {
		if !f.Skip {
			n++
		}
	}
	return n
}

// IsImmediate reports whether every value of the type encodes without
// allocating a block.
func (ct *CompiledType) IsImmediate() bool {
	switch ct.Kind {
	case KindVariant:
		return len(ct.Cases) == ct.Nullary
	case KindRecord:
		return ct.BlockFields() == 0
	default:
		return ct.Kind.IsImmediate()
	}
}

// PayloadCases returns the number of cases that carry data.
func (ct *CompiledType) PayloadCases() int {
	return len(ct.Cases) - ct.Nullary
}
