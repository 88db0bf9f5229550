package schema

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/ocamlrep/errors"
)

// ParseType parses an anonymous WIT type expression: a primitive name or
// one of list<T>, option<T>, tuple<T, ...>, result, result<T>, result<T, E>
// and result<_, E>.
func ParseType(s string) (wit.Type, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '<')
	if open < 0 {
		if s == "result" {
			return &wit.TypeDef{Kind: &wit.Result{}}, nil
		}
		t, err := wit.ParseType(s)
		if err != nil {
			return nil, errors.ParseFailed("type "+s, err)
		}
		return t, nil
	}
	if !strings.HasSuffix(s, ">") {
		return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("unterminated type arguments in %q", s))
	}

	name := strings.TrimSpace(s[:open])
	args := splitArgs(s[open+1 : len(s)-1])
	if len(args) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("%s<> needs type arguments", name))
	}

	switch name {
	case "list", "option":
		if len(args) != 1 {
			return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("%s takes one type argument, got %d", name, len(args)))
		}
		elem, err := ParseType(args[0])
		if err != nil {
			return nil, err
		}
		if name == "list" {
			return &wit.TypeDef{Kind: &wit.List{Type: elem}}, nil
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: elem}}, nil

	case "tuple":
		types := make([]wit.Type, len(args))
		for i, arg := range args {
			t, err := ParseType(arg)
			if err != nil {
				return nil, err
			}
			types[i] = t
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil

	case "result":
		if len(args) > 2 {
			return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("result takes at most two type arguments, got %d", len(args)))
		}
		r := &wit.Result{}
		if args[0] != "_" {
			ok, err := ParseType(args[0])
			if err != nil {
				return nil, err
			}
			r.OK = ok
		}
		if len(args) == 2 {
			e, err := ParseType(args[1])
			if err != nil {
				return nil, err
			}
			r.Err = e
		}
		return &wit.TypeDef{Kind: r}, nil

	default:
		return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("unknown type constructor %q", name))
	}
}

// splitArgs splits a type argument list at top-level commas.
func splitArgs(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '<':
			depth++
			current.WriteRune(ch)
		case '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}
	return result
}

// Describe renders t as a WIT type expression. Named definitions render
// their structure.
func Describe(t wit.Type) string {
	switch t := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.U16:
		return "u16"
	case wit.U32:
		return "u32"
	case wit.U64:
		return "u64"
	case wit.S8:
		return "s8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		return describeKind(t.Kind)
	default:
		return fmt.Sprintf("%T", t)
	}
}

func describeKind(k wit.TypeDefKind) string {
	switch k := k.(type) {
	case *wit.Record:
		fields := make([]string, len(k.Fields))
		for i, f := range k.Fields {
			fields[i] = f.Name + ": " + Describe(f.Type)
		}
		return "record { " + strings.Join(fields, ", ") + " }"
	case *wit.List:
		return "list<" + Describe(k.Type) + ">"
	case *wit.Option:
		return "option<" + Describe(k.Type) + ">"
	case *wit.Tuple:
		types := make([]string, len(k.Types))
		for i, t := range k.Types {
			types[i] = Describe(t)
		}
		return "tuple<" + strings.Join(types, ", ") + ">"
	case *wit.Result:
		if k.OK == nil && k.Err == nil {
			return "result"
		}
		if k.Err == nil {
			return "result<" + Describe(k.OK) + ">"
		}
		return "result<" + Describe(k.OK) + ", " + Describe(k.Err) + ">"
	case *wit.Variant:
		cases := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			cases[i] = c.Name
			if c.Type != nil {
				cases[i] += "(" + Describe(c.Type) + ")"
			}
		}
		return "variant { " + strings.Join(cases, ", ") + " }"
	case *wit.Enum:
		cases := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			cases[i] = c.Name
		}
		return "enum { " + strings.Join(cases, ", ") + " }"
	case *wit.Flags:
		flags := make([]string, len(k.Flags))
		for i, f := range k.Flags {
			flags[i] = f.Name
		}
		return "flags { " + strings.Join(flags, ", ") + " }"
	case wit.Type:
		return Describe(k)
	default:
		return fmt.Sprintf("%T", k)
	}
}
