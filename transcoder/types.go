package transcoder

import (
	"github.com/wippyai/ocamlrep/transcoder/internal/types"
)

type TypeKind = types.Kind

const (
	KindBool    = types.KindBool
	KindInt     = types.KindInt
	KindUint    = types.KindUint
	KindFloat   = types.KindFloat
	KindString  = types.KindString
	KindBytes   = types.KindBytes
	KindList    = types.KindList
	KindArray   = types.KindArray
	KindRecord  = types.KindRecord
	KindUnit    = types.KindUnit
	KindPointer = types.KindPointer
	KindMap     = types.KindMap
	KindSet     = types.KindSet
	KindVariant = types.KindVariant
	KindValue   = types.KindValue
	KindCustom  = types.KindCustom
	KindDynamic = types.KindDynamic
)

type CompiledType = types.CompiledType
type CompiledField = types.Field
type CompiledCase = types.Case

const (
	HookEncode     = types.HookEncode
	HookEncodeAddr = types.HookEncodeAddr
	HookDecode     = types.HookDecode
)
