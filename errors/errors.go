package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCompile Phase = "compile" // Go type shape compilation
	PhaseEncode  Phase = "encode"  // Go to OCaml
	PhaseDecode  Phase = "decode"  // OCaml to Go
	PhaseRuntime Phase = "runtime" // foreign heap operations
	PhaseParse   Phase = "parse"   // input documents and shape expressions
)

// Kind categorizes the error
type Kind string

// Decode failures. Every value read back from an OCaml heap that does not
// have the expected shape is reported with one of these kinds.
const (
	KindBadUTF8                     Kind = "bad_utf8"
	KindBlockTagOutOfRange          Kind = "block_tag_out_of_range"
	KindErrorInField                Kind = "error_in_field"
	KindExpectedBlock               Kind = "expected_block"
	KindExpectedBlockTag            Kind = "expected_block_tag"
	KindExpectedBool                Kind = "expected_bool"
	KindExpectedChar                Kind = "expected_char"
	KindExpectedInt                 Kind = "expected_int"
	KindExpected63BitInt            Kind = "expected_63bit_int"
	KindExpectedUnit                Kind = "expected_unit"
	KindExpectedZeroTag             Kind = "expected_zero_tag"
	KindIntOutOfRange               Kind = "int_out_of_range"
	KindNullaryVariantTagOutOfRange Kind = "nullary_variant_tag_out_of_range"
	KindWrongBlockSize              Kind = "wrong_block_size"
	KindUnexpectedCustomOps         Kind = "unexpected_custom_ops"
)

const (
	KindTypeMismatch  Kind = "type_mismatch"
	KindUnsupported   Kind = "unsupported"
	KindNilPointer    Kind = "nil_pointer"
	KindFieldMissing  Kind = "field_missing"
	KindInvalidInput  Kind = "invalid_input"
	KindRegistration  Kind = "registration"
	KindNotFound      Kind = "not_found"
	KindInstantiation Kind = "instantiation"
)

// Error is the structured error type used throughout the module.
// Expected, Actual, Max and Field carry the numeric payload of decode
// failures so callers can inspect them without parsing Detail.
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	GoType   string
	Shape    string
	Detail   string
	Path     []string
	Field    int
	Expected int64
	Actual   int64
	Max      int64
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.Shape != "" {
		b.WriteString(": ")
		switch {
		case e.GoType != "" && e.Shape != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", shape ")
			b.WriteString(e.Shape)
		case e.GoType != "":
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		default:
			b.WriteString("shape ")
			b.WriteString(e.Shape)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.Shape != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Root follows the error_in_field chain and returns the innermost error.
// Errors of any other kind are returned unchanged.
func (e *Error) Root() *Error {
	cur := e
	for cur.Kind == KindErrorInField {
		next, ok := cur.Cause.(*Error)
		if !ok {
			break
		}
		cur = next
	}
	return cur
}

// FieldPath returns the field indices of an error_in_field chain, outermost first.
func (e *Error) FieldPath() []int {
	var idx []int
	cur := e
	for cur.Kind == KindErrorInField {
		idx = append(idx, cur.Field)
		next, ok := cur.Cause.(*Error)
		if !ok {
			break
		}
		cur = next
	}
	return idx
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Shape sets the name of the expected shape
func (b *Builder) Shape(s string) *Builder {
	b.err.Shape = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Expected records the expected and actual numbers
func (b *Builder) Expected(expected, actual int64) *Builder {
	b.err.Expected = expected
	b.err.Actual = actual
	return b
}

// Max records the largest accepted value and the actual one
func (b *Builder) Max(limit, actual int64) *Builder {
	b.err.Max = limit
	b.err.Actual = actual
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}
