package types

type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindList
	KindArray
	KindRecord
	KindUnit
	KindPointer
	KindMap
	KindSet
	KindVariant
	KindValue
	KindCustom
	KindDynamic
)

var kindNames = [...]string{
	KindBool:    "bool",
	KindInt:     "int",
	KindUint:    "uint",
	KindFloat:   "float",
	KindString:  "string",
	KindBytes:   "bytes",
	KindList:    "list",
	KindArray:   "array",
	KindRecord:  "record",
	KindUnit:    "unit",
	KindPointer: "pointer",
	KindMap:     "map",
	KindSet:     "set",
	KindVariant: "variant",
	KindValue:   "value",
	KindCustom:  "custom",
	KindDynamic: "any",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsImmediate reports whether every value of the kind encodes without
// allocating a block.
func (k Kind) IsImmediate() bool {
	switch k {
	case KindBool, KindInt, KindUint, KindUnit, KindValue:
		return true
	default:
		return false
	}
}
